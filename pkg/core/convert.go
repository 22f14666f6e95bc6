// Package core provides the main PersonaMem client and memory lifecycle
// operations.
package core

import (
	"github.com/luminalabs/personamem-go/pkg/graph"
	"github.com/luminalabs/personamem-go/pkg/store"
	"github.com/luminalabs/personamem-go/pkg/topics"
)

// fromStoreMemory converts a store.Memory to a core MemoryRecord.
//
// This function is used internally to convert between package types
// to avoid circular dependencies.
func fromStoreMemory(m *store.Memory) *MemoryRecord {
	return &MemoryRecord{
		ID:         m.ID,
		PersonaID:  m.PersonaID,
		Content:    m.Content,
		Type:       graph.NodeType(m.Type),
		Importance: m.Importance,
		Embedding:  m.Vector,
		Keywords:   m.Keywords,
		TopicIDs:   m.TopicIDs,
		Metadata:   m.Metadata,
		CreatedAt:  m.Timestamp,
	}
}

// fromStoreMemories converts a slice of store.Memory to core MemoryRecords.
func fromStoreMemories(memories []*store.Memory) []*MemoryRecord {
	result := make([]*MemoryRecord, len(memories))
	for i, m := range memories {
		result[i] = fromStoreMemory(m)
	}
	return result
}

// fromStoreScored converts hybrid search hits to the core representation.
func fromStoreScored(scored []*store.ScoredMemory) []*ScoredMemory {
	result := make([]*ScoredMemory, len(scored))
	for i, s := range scored {
		result[i] = &ScoredMemory{
			Memory:           fromStoreMemory(s.Memory),
			Similarity:       s.Similarity,
			TopicRelevance:   s.TopicRelevance,
			KeywordRelevance: s.KeywordRelevance,
			FinalScore:       s.FinalScore,
		}
	}
	return result
}

// topicRecords mirrors the taxonomy into the store's topic representation,
// parents before children so LinkTopicParent always finds both ends.
func topicRecords(h *topics.Hierarchy) []*store.TopicRecord {
	all := h.Topics()
	records := make([]*store.TopicRecord, len(all))
	for i, t := range all {
		records[i] = &store.TopicRecord{
			ID:         t.ID,
			Name:       t.Name,
			Type:       string(t.Type),
			ParentID:   t.ParentID,
			Importance: t.Importance,
			Metadata:   t.Metadata,
		}
	}
	return records
}
