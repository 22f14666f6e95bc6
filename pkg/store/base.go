// Package store defines the persistent memory store abstraction and the
// hybrid scoring model shared by its backends.
//
// A GraphStore persists personas, memories, topics, and the links between
// them, and answers hybrid searches that blend vector similarity with
// topic and keyword overlap. Backends must rank identically: the scoring
// helpers here are the reference the Cypher expressions in the neo4j
// backend mirror.
package store

import (
	"context"
	"time"
)

// Hybrid score weights. Components are each in [0, 1], so the final score
// is too.
const (
	// SimilarityWeight is the share of cosine similarity in the final score.
	SimilarityWeight = 0.5

	// TopicWeight is the share of topic overlap in the final score.
	TopicWeight = 0.25

	// KeywordWeight is the share of keyword overlap in the final score.
	KeywordWeight = 0.25
)

// Memory is a persisted memory row.
//
// This type is defined in the store package to avoid circular dependencies
// with the core package, which carries its own mirror.
type Memory struct {
	// ID is the store-assigned identifier of the memory.
	ID string

	// PersonaID identifies the persona who owns this memory.
	PersonaID string

	// Content is the memory text.
	Content string

	// Type is the memory category, e.g. "activity" or "conversation".
	Type string

	// Importance weights the memory, in [0, 1].
	Importance float64

	// Vector is the embedding used for similarity search.
	Vector []float64

	// Keywords are the extracted search keywords.
	Keywords []string

	// TopicIDs are the taxonomy topics the memory belongs to.
	TopicIDs []string

	// Timestamp is when the memory was created.
	Timestamp time.Time

	// Metadata contains additional structured information.
	Metadata map[string]interface{}
}

// TopicRecord is a persisted taxonomy topic.
type TopicRecord struct {
	// ID is the stable topic identifier.
	ID string

	// Name is the topic name.
	Name string

	// Type positions the topic in the hierarchy.
	Type string

	// ParentID is the parent topic id, empty for roots.
	ParentID string

	// Importance weights the topic, in [0, 1].
	Importance float64

	// Metadata contains additional descriptive information.
	Metadata map[string]interface{}
}

// SearchInput carries the precomputed signals for one hybrid search.
type SearchInput struct {
	// Vector is the query embedding.
	Vector []float64

	// TopicIDs are the topics classified from the query, possibly empty.
	TopicIDs []string

	// Keywords are the keywords extracted from the query, possibly empty.
	Keywords []string

	// PersonaID scopes the search to one persona; empty searches all.
	PersonaID string

	// TopK caps the number of results.
	TopK int
}

// ScoredMemory is one hybrid search hit with its component scores.
type ScoredMemory struct {
	// Memory is the matched memory.
	Memory *Memory

	// Similarity is the cosine similarity of query and memory vectors.
	Similarity float64

	// TopicRelevance is the topic overlap score.
	TopicRelevance float64

	// KeywordRelevance is the keyword overlap score.
	KeywordRelevance float64

	// FinalScore is the weighted blend used for ranking.
	FinalScore float64
}

// GraphStore is the interface every persistent backend implements.
//
// Mutating calls are idempotent where the method name says so; lookup
// calls return empty results rather than errors when nothing matches.
type GraphStore interface {
	// EnsureSchema creates indexes and constraints if missing. Safe to
	// call repeatedly.
	EnsureSchema(ctx context.Context) error

	// Warmup prepares the backend for retrieval: asserts the schema,
	// re-asserts the taxonomy, and primes the connection with a cheap
	// indexed query. Safe to call repeatedly.
	Warmup(ctx context.Context, topics []*TopicRecord) error

	// CreatePersona registers a persona node. Existing ids are updated.
	CreatePersona(ctx context.Context, id, name, profile string) error

	// CreateMemory persists a memory under its persona and returns the
	// store-assigned id.
	CreateMemory(ctx context.Context, memory *Memory) (string, error)

	// HasMemoryContent reports whether the persona already has a memory
	// with exactly this content.
	HasMemoryContent(ctx context.Context, personaID, content string) (bool, error)

	// LinkMemoryTopic connects a memory to a taxonomy topic. Idempotent.
	LinkMemoryTopic(ctx context.Context, memoryID, topicID string) error

	// LinkMemoryRelation connects two memories with a typed, weighted
	// relationship. Idempotent per (source, target, type).
	LinkMemoryRelation(ctx context.Context, sourceID, targetID, relType string, strength float64) error

	// UpsertTopic creates or updates a taxonomy topic.
	UpsertTopic(ctx context.Context, topic *TopicRecord) error

	// LinkTopicParent connects a parent topic to a child. Idempotent.
	LinkTopicParent(ctx context.Context, parentID, childID string) error

	// GetMemories returns a persona's memories, newest first.
	GetMemories(ctx context.Context, personaID string, limit int) ([]*Memory, error)

	// GetMemoriesByType returns a persona's memories of one type, newest first.
	GetMemoriesByType(ctx context.Context, personaID, memoryType string, limit int) ([]*Memory, error)

	// GetMemoriesByContent returns a persona's memories whose content
	// contains the given substring, newest first.
	GetMemoriesByContent(ctx context.Context, personaID, contains string, limit int) ([]*Memory, error)

	// GetMemoriesByTopic returns memories linked to a topic, newest first.
	GetMemoriesByTopic(ctx context.Context, topicID string, limit int) ([]*Memory, error)

	// SearchHybrid scores stored memories against the input signals and
	// returns the top TopK by final score, highest first.
	SearchHybrid(ctx context.Context, input *SearchInput) ([]*ScoredMemory, error)

	// DeletePersonaMemories removes all memories of a persona.
	DeletePersonaMemories(ctx context.Context, personaID string) error

	// Close releases the backend's resources.
	Close(ctx context.Context) error
}
