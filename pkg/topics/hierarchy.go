package topics

import (
	"sort"
	"strings"
)

// Relationship strengths by hierarchical distance.
const (
	// StrengthSame is the strength of a topic to itself.
	StrengthSame = 1.0

	// StrengthParentChild links a topic and its direct parent or child.
	StrengthParentChild = 0.8

	// StrengthSibling links two topics sharing a parent.
	StrengthSibling = 0.6

	// StrengthSameTree links two topics under the same root category.
	StrengthSameTree = 0.4
)

// DefaultMinStrength is the Related cutoff applied when the caller passes
// a non-positive minimum.
const DefaultMinStrength = 0.4

// Hierarchy holds the topic forest with name and parent/child indexes.
//
// Build it fully before sharing it: AddTopic is not safe to call
// concurrently with readers.
type Hierarchy struct {
	topics   map[string]*TopicNode
	nameToID map[string]string
	children map[string][]string
	order    []string
}

// NewHierarchy creates an empty topic hierarchy.
func NewHierarchy() *Hierarchy {
	return &Hierarchy{
		topics:   make(map[string]*TopicNode),
		nameToID: make(map[string]string),
		children: make(map[string][]string),
	}
}

// AddTopic registers a topic. Re-adding an id replaces the previous entry's
// node but keeps its position; child lists follow insertion order.
func (h *Hierarchy) AddTopic(topic *TopicNode) {
	if topic == nil || topic.ID == "" {
		return
	}
	if _, exists := h.topics[topic.ID]; !exists {
		h.order = append(h.order, topic.ID)
		if topic.ParentID != "" {
			h.children[topic.ParentID] = append(h.children[topic.ParentID], topic.ID)
		}
	}
	h.topics[topic.ID] = topic
	h.nameToID[topic.Name] = topic.ID
}

// Get returns the topic with the given id, or nil if absent.
func (h *Hierarchy) Get(id string) *TopicNode {
	return h.topics[id]
}

// IDByName resolves a topic name to its id. Unknown names return "".
func (h *Hierarchy) IDByName(name string) string {
	return h.nameToID[name]
}

// Topics returns all topics in insertion order.
func (h *Hierarchy) Topics() []*TopicNode {
	all := make([]*TopicNode, 0, len(h.order))
	for _, id := range h.order {
		all = append(all, h.topics[id])
	}
	return all
}

// Children returns the direct children of a topic in insertion order.
func (h *Hierarchy) Children(id string) []*TopicNode {
	ids := h.children[id]
	out := make([]*TopicNode, 0, len(ids))
	for _, childID := range ids {
		out = append(out, h.topics[childID])
	}
	return out
}

// RelationStrength scores how related two topics are by their positions in
// the hierarchy: 1.0 for the same topic, 0.8 for parent/child, 0.6 for
// siblings, 0.4 for the same root category, 0.0 otherwise. Either id being
// unknown yields 0.0, including when the two ids are equal.
func (h *Hierarchy) RelationStrength(id1, id2 string) float64 {
	t1, ok1 := h.topics[id1]
	t2, ok2 := h.topics[id2]
	if !ok1 || !ok2 {
		return 0.0
	}
	if id1 == id2 {
		return StrengthSame
	}
	if t1.ParentID == id2 || t2.ParentID == id1 {
		return StrengthParentChild
	}
	if t1.ParentID != "" && t1.ParentID == t2.ParentID {
		return StrengthSibling
	}
	if h.rootOf(id1) == h.rootOf(id2) {
		return StrengthSameTree
	}
	return 0.0
}

// Path returns the topic names from the root category down to the given
// topic. Unknown ids return nil.
func (h *Hierarchy) Path(id string) []string {
	topic, ok := h.topics[id]
	if !ok {
		return nil
	}

	var names []string
	for topic != nil {
		names = append(names, topic.Name)
		if topic.ParentID == "" {
			break
		}
		topic = h.topics[topic.ParentID]
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return names
}

// Related returns topics whose relationship strength to the given topic is
// at least minStrength, strongest first; equal strengths keep insertion
// order. The topic itself is excluded. A non-positive minStrength applies
// DefaultMinStrength; unknown ids return nil.
func (h *Hierarchy) Related(id string, minStrength float64) []TopicStrength {
	if _, ok := h.topics[id]; !ok {
		return nil
	}
	if minStrength <= 0 {
		minStrength = DefaultMinStrength
	}

	var related []TopicStrength
	for _, otherID := range h.order {
		if otherID == id {
			continue
		}
		strength := h.RelationStrength(id, otherID)
		if strength >= minStrength {
			related = append(related, TopicStrength{
				Topic:    h.topics[otherID],
				Strength: strength,
			})
		}
	}

	sort.SliceStable(related, func(i, j int) bool {
		return related[i].Strength > related[j].Strength
	})
	return related
}

// Outline renders the taxonomy as the indented text block handed to the
// topic classifier: each category name on its own line, children as
// "  - Name", grandchildren as "    - Name".
func (h *Hierarchy) Outline() string {
	var b strings.Builder
	for _, id := range h.order {
		topic := h.topics[id]
		if topic.Type != TopicCategory {
			continue
		}
		b.WriteString(topic.Name)
		b.WriteByte('\n')
		for _, childID := range h.children[id] {
			b.WriteString("  - ")
			b.WriteString(h.topics[childID].Name)
			b.WriteByte('\n')
			for _, grandchildID := range h.children[childID] {
				b.WriteString("    - ")
				b.WriteString(h.topics[grandchildID].Name)
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}

// rootOf walks parent links to the topic's root id. Cycles cannot occur in
// a well-formed forest; a broken parent link stops the walk.
func (h *Hierarchy) rootOf(id string) string {
	for {
		topic, ok := h.topics[id]
		if !ok {
			return id
		}
		if topic.ParentID == "" {
			return id
		}
		id = topic.ParentID
	}
}
