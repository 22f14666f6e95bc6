// Package topics models the topic taxonomy used to classify memories.
//
// Topics form a forest: each node has at most one parent and no cycles.
// The hierarchy is seeded once at startup and read-only afterwards, which
// is what lets lookups run without locking.
package topics

// TopicType positions a topic within the taxonomy.
type TopicType string

const (
	// TopicCore marks a root concept above the category level.
	TopicCore TopicType = "core"

	// TopicCategory marks a top-level grouping such as "Daily Life".
	TopicCategory TopicType = "category"

	// TopicSubcategory marks a topic nested under a category.
	TopicSubcategory TopicType = "subcategory"

	// TopicCustom marks a topic added beyond the seeded taxonomy.
	TopicCustom TopicType = "custom"
)

// TopicNode is one topic in the taxonomy.
type TopicNode struct {
	// ID is the stable identifier of the topic.
	ID string `json:"id"`

	// Name is the human-readable topic name, unique within the taxonomy.
	Name string `json:"name"`

	// Type positions the topic in the hierarchy.
	Type TopicType `json:"type"`

	// ParentID is the id of the parent topic, empty for roots.
	ParentID string `json:"parent_id,omitempty"`

	// Importance weights the topic, in [0, 1].
	Importance float64 `json:"importance"`

	// Metadata holds additional descriptive information.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// TopicStrength pairs a topic with its relationship strength to some
// reference topic.
type TopicStrength struct {
	// Topic is the related topic.
	Topic *TopicNode `json:"topic"`

	// Strength is the hierarchical relationship strength, in [0, 1].
	Strength float64 `json:"strength"`
}
