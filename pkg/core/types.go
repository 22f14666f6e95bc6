// Package core provides the main PersonaMem client and memory lifecycle
// operations.
package core

import (
	"time"

	"github.com/luminalabs/personamem-go/pkg/graph"
)

// MemoryRecord represents a single persisted memory.
//
// A memory carries:
//   - Content: The text content of the memory
//   - Embedding: Vector representation for similarity search
//   - TopicIDs / Keywords: the classification signals captured at creation
//   - Metadata: Additional structured information
//
// Example:
//
//	memory := &core.MemoryRecord{
//	    PersonaID: "persona_001",
//	    Content:   "Went hiking at Mount Tam, felt energized",
//	    Type:      graph.NodeTypeActivity,
//	}
type MemoryRecord struct {
	// ID is the store-assigned identifier of the memory.
	ID string `json:"id"`

	// NodeID is the identifier of the in-process graph node mirroring this
	// memory, empty when the record was loaded rather than created.
	NodeID string `json:"node_id,omitempty"`

	// PersonaID identifies the persona who owns this memory.
	PersonaID string `json:"persona_id"`

	// Content is the text content of the memory.
	Content string `json:"content"`

	// Type is the memory category.
	Type graph.NodeType `json:"type"`

	// Importance weights the memory, in [0, 1].
	Importance float64 `json:"importance"`

	// Embedding is the vector embedding for similarity search.
	Embedding []float64 `json:"embedding,omitempty"`

	// Keywords are the search keywords extracted at creation.
	Keywords []string `json:"keywords,omitempty"`

	// TopicIDs are the taxonomy topics the memory was classified into.
	TopicIDs []string `json:"topic_ids,omitempty"`

	// Metadata contains additional structured information about the memory.
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// CreatedAt is when the memory was created.
	CreatedAt time.Time `json:"created_at"`
}

// ScoredMemory is one search hit together with its component scores.
//
// FinalScore blends the components: similarity carries half the weight,
// topic and keyword overlap a quarter each.
type ScoredMemory struct {
	// Memory is the matched memory.
	Memory *MemoryRecord `json:"memory"`

	// Similarity is the cosine similarity of query and memory vectors.
	Similarity float64 `json:"similarity"`

	// TopicRelevance is the share of query topics the memory carries.
	TopicRelevance float64 `json:"topic_relevance"`

	// KeywordRelevance is the share of query keywords the memory carries.
	KeywordRelevance float64 `json:"keyword_relevance"`

	// FinalScore is the weighted blend used for ranking.
	FinalScore float64 `json:"final_score"`
}

// Persona identifies one simulated person whose memories the client manages.
type Persona struct {
	// ID is the stable persona identifier.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Profile contains free-form persona attributes.
	Profile map[string]interface{} `json:"profile,omitempty"`
}
