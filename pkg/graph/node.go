// Package graph provides the in-process memory relationship graph.
//
// Each persona's remembered events are modeled as MemoryNodes connected by
// directed, typed, weighted Relations. The Graph type owns the nodes and an
// adjacency index and supports traversal, pruning, merging, and
// activation-based ranking, all synchronous and in-memory.
package graph

import (
	"time"

	"github.com/google/uuid"
)

// NodeType categorizes what kind of experience a memory node records.
type NodeType string

const (
	// NodeTypeActivity records something the persona did.
	NodeTypeActivity NodeType = "activity"

	// NodeTypeConversation records an exchange with another party.
	NodeTypeConversation NodeType = "conversation"

	// NodeTypeEmotion records an emotional state.
	NodeTypeEmotion NodeType = "emotion"

	// NodeTypePreference records a like or dislike.
	NodeTypePreference NodeType = "preference"

	// NodeTypeReflection records a thought about past experience.
	NodeTypeReflection NodeType = "reflection"

	// NodeTypeConcept records an abstract idea the persona holds.
	NodeTypeConcept NodeType = "concept"

	// NodeTypeRelationship records a connection to another persona or entity.
	NodeTypeRelationship NodeType = "relationship"
)

// RelationType categorizes the directed edge between two memory nodes.
type RelationType string

const (
	// RelationCausedBy marks the source as an effect of the target.
	RelationCausedBy RelationType = "caused_by"

	// RelationRelatedTo marks a generic association.
	RelationRelatedTo RelationType = "related_to"

	// RelationPartOf marks the source as a component of the target.
	RelationPartOf RelationType = "part_of"

	// RelationLeadsTo marks the source as preceding/causing the target.
	RelationLeadsTo RelationType = "leads_to"

	// RelationSimilarTo marks semantic similarity between memories.
	RelationSimilarTo RelationType = "similar_to"

	// RelationOppositeOf marks semantic opposition between memories.
	RelationOppositeOf RelationType = "opposite_of"

	// RelationTemporal marks time adjacency between memories.
	RelationTemporal RelationType = "temporal"

	// RelationSemantic marks a meaning-level association between memories.
	RelationSemantic RelationType = "semantic"
)

// DefaultReinforceAmount is the step applied by StrengthenRelation and
// WeakenRelation when no explicit amount is given.
const DefaultReinforceAmount = 0.1

// Relation is a directed, typed, weighted edge owned by its source node.
//
// Symmetric relationships require an explicit inverse edge on the target.
type Relation struct {
	// Type is the relation category.
	Type RelationType `json:"type"`

	// TargetID is the id of the node this relation points at.
	TargetID string `json:"target_id"`

	// Strength is the edge weight, always clamped to [0, 1].
	Strength float64 `json:"strength"`

	// CreatedAt is when the relation was created.
	CreatedAt time.Time `json:"created_at"`

	// LastAccessedAt is when the relation was last touched
	// (created, strengthened, or weakened).
	LastAccessedAt time.Time `json:"last_accessed_at"`

	// Context optionally describes why the relation exists.
	Context string `json:"context,omitempty"`
}

// MemoryNode is one remembered event plus its outgoing relationships.
//
// Importance is always clamped to [0, 1] and EmotionalValence to [-1, 1],
// both on construction and on mutation. LastAccessedAt is monotonically
// non-decreasing.
type MemoryNode struct {
	// ID is the opaque unique identifier of the node.
	ID string `json:"id"`

	// Content is the remembered text.
	Content string `json:"content"`

	// Type categorizes the memory.
	Type NodeType `json:"type"`

	// Embedding is the vector representation, nil until computed.
	Embedding []float64 `json:"embedding,omitempty"`

	// Importance weights the memory in activation ranking, in [0, 1].
	Importance float64 `json:"importance"`

	// EmotionalValence is the feeling attached to the memory, in [-1, 1].
	EmotionalValence float64 `json:"emotional_valence"`

	// CreatedAt is when the memory was formed.
	CreatedAt time.Time `json:"created_at"`

	// LastAccessedAt is when the memory was last read or reinforced.
	LastAccessedAt time.Time `json:"last_accessed_at"`

	// AccessCount is how many times the memory has been accessed.
	AccessCount int `json:"access_count"`

	// Metadata holds additional structured information.
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// Tags are free-form labels with set semantics.
	Tags []string `json:"tags,omitempty"`

	// Relations maps target node id to the outgoing relation.
	Relations map[string]*Relation `json:"relations,omitempty"`
}

// NodeOption configures a MemoryNode at construction time.
type NodeOption func(*MemoryNode)

// WithID sets an explicit node id instead of a generated one.
func WithID(id string) NodeOption {
	return func(n *MemoryNode) {
		n.ID = id
	}
}

// WithEmbedding sets the node's embedding vector.
func WithEmbedding(embedding []float64) NodeOption {
	return func(n *MemoryNode) {
		n.Embedding = embedding
	}
}

// WithImportance sets the node's importance. Values outside [0, 1] are clamped.
func WithImportance(importance float64) NodeOption {
	return func(n *MemoryNode) {
		n.Importance = importance
	}
}

// WithValence sets the node's emotional valence. Values outside [-1, 1] are clamped.
func WithValence(valence float64) NodeOption {
	return func(n *MemoryNode) {
		n.EmotionalValence = valence
	}
}

// WithMetadata sets the node's metadata map.
func WithMetadata(metadata map[string]interface{}) NodeOption {
	return func(n *MemoryNode) {
		n.Metadata = metadata
	}
}

// WithTags sets the node's initial tags.
func WithTags(tags ...string) NodeOption {
	return func(n *MemoryNode) {
		for _, tag := range tags {
			n.AddTag(tag)
		}
	}
}

// WithCreatedAt overrides the creation timestamp, for ingesting
// past events.
func WithCreatedAt(t time.Time) NodeOption {
	return func(n *MemoryNode) {
		n.CreatedAt = t
		n.LastAccessedAt = t
	}
}

// NewMemoryNode creates a memory node with a generated UUID, applying the
// given options. Importance defaults to 0.5 and valence to 0.0; both are
// clamped to their valid ranges regardless of option input.
func NewMemoryNode(content string, nodeType NodeType, opts ...NodeOption) *MemoryNode {
	now := time.Now().UTC()
	node := &MemoryNode{
		ID:               uuid.NewString(),
		Content:          content,
		Type:             nodeType,
		Importance:       0.5,
		EmotionalValence: 0.0,
		CreatedAt:        now,
		LastAccessedAt:   now,
		Metadata:         make(map[string]interface{}),
		Relations:        make(map[string]*Relation),
	}

	for _, opt := range opts {
		opt(node)
	}

	node.Importance = clamp(node.Importance, 0.0, 1.0)
	node.EmotionalValence = clamp(node.EmotionalValence, -1.0, 1.0)
	if node.Metadata == nil {
		node.Metadata = make(map[string]interface{})
	}
	if node.Relations == nil {
		node.Relations = make(map[string]*Relation)
	}

	return node
}

// RelationOption configures a relation at creation time.
type RelationOption func(*Relation)

// WithStrength sets the relation strength. Values outside [0, 1] are clamped.
func WithStrength(strength float64) RelationOption {
	return func(r *Relation) {
		r.Strength = strength
	}
}

// WithContext attaches a free-text description to the relation.
func WithContext(context string) RelationOption {
	return func(r *Relation) {
		r.Context = context
	}
}

// AddRelation creates or overwrites the outgoing relation to targetID.
// Strength defaults to 1.0 and is clamped to [0, 1].
func (n *MemoryNode) AddRelation(targetID string, relType RelationType, opts ...RelationOption) *Relation {
	now := time.Now().UTC()
	rel := &Relation{
		Type:           relType,
		TargetID:       targetID,
		Strength:       1.0,
		CreatedAt:      now,
		LastAccessedAt: now,
	}

	for _, opt := range opts {
		opt(rel)
	}
	rel.Strength = clamp(rel.Strength, 0.0, 1.0)

	n.Relations[targetID] = rel
	return rel
}

// Access marks the node as read: bumps the access count and advances
// LastAccessedAt.
func (n *MemoryNode) Access() {
	n.AccessCount++
	n.touch(time.Now().UTC())
}

// SetImportance updates importance, clamping to [0, 1].
func (n *MemoryNode) SetImportance(importance float64) {
	n.Importance = clamp(importance, 0.0, 1.0)
}

// SetValence updates emotional valence, clamping to [-1, 1].
func (n *MemoryNode) SetValence(valence float64) {
	n.EmotionalValence = clamp(valence, -1.0, 1.0)
}

// StrengthenRelation raises the strength of the relation to targetID and
// marks it accessed. A non-positive amount applies DefaultReinforceAmount.
// Unknown targets are silently ignored.
func (n *MemoryNode) StrengthenRelation(targetID string, amount float64) {
	rel, ok := n.Relations[targetID]
	if !ok {
		return
	}
	if amount <= 0 {
		amount = DefaultReinforceAmount
	}
	rel.Strength = clamp(rel.Strength+amount, 0.0, 1.0)
	rel.LastAccessedAt = time.Now().UTC()
}

// WeakenRelation lowers the strength of the relation to targetID and marks
// it accessed. A non-positive amount applies DefaultReinforceAmount.
// Unknown targets are silently ignored.
func (n *MemoryNode) WeakenRelation(targetID string, amount float64) {
	rel, ok := n.Relations[targetID]
	if !ok {
		return
	}
	if amount <= 0 {
		amount = DefaultReinforceAmount
	}
	rel.Strength = clamp(rel.Strength-amount, 0.0, 1.0)
	rel.LastAccessedAt = time.Now().UTC()
}

// HasTag reports whether the node carries the given tag.
func (n *MemoryNode) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTag appends a tag, keeping the tag list duplicate-free.
func (n *MemoryNode) AddTag(tag string) {
	if n.HasTag(tag) {
		return
	}
	n.Tags = append(n.Tags, tag)
}

// Activation computes the node's activation level at the given instant:
//
//	importance*0.4 + recency*0.3 + frequency*0.3
//
// where recency = 1/(1+daysSinceLastAccess) and frequency saturates at
// ten accesses. The result is in [0, 1].
func (n *MemoryNode) Activation(now time.Time) float64 {
	days := now.Sub(n.LastAccessedAt).Seconds() / 86400.0
	if days < 0 {
		days = 0
	}
	recency := 1.0 / (1.0 + days)

	frequency := float64(n.AccessCount) / 10.0
	if frequency > 1.0 {
		frequency = 1.0
	}

	return n.Importance*0.4 + recency*0.3 + frequency*0.3
}

// touch advances LastAccessedAt, never moving it backwards.
func (n *MemoryNode) touch(t time.Time) {
	if t.After(n.LastAccessedAt) {
		n.LastAccessedAt = t
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
