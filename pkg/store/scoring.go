package store

import (
	"math"
	"sort"
)

// Cosine computes cosine similarity between two vectors. Mismatched
// lengths, empty vectors, and zero-magnitude vectors all score 0 so a
// single bad row cannot fail a whole search.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Overlap scores how much of the query set appears in the memory set:
// |intersection| / |query|, with duplicates ignored. An empty query
// scores 0.
func Overlap(query, memory []string) float64 {
	if len(query) == 0 {
		return 0.0
	}

	memorySet := make(map[string]bool, len(memory))
	for _, item := range memory {
		memorySet[item] = true
	}

	seen := make(map[string]bool, len(query))
	matched := 0
	total := 0
	for _, item := range query {
		if seen[item] {
			continue
		}
		seen[item] = true
		total++
		if memorySet[item] {
			matched++
		}
	}

	return float64(matched) / float64(total)
}

// ScoreMemory computes the hybrid score components of one memory against
// the search input.
func ScoreMemory(memory *Memory, input *SearchInput) *ScoredMemory {
	scored := &ScoredMemory{
		Memory:           memory,
		Similarity:       Cosine(input.Vector, memory.Vector),
		TopicRelevance:   Overlap(input.TopicIDs, memory.TopicIDs),
		KeywordRelevance: Overlap(input.Keywords, memory.Keywords),
	}
	scored.FinalScore = SimilarityWeight*scored.Similarity +
		TopicWeight*scored.TopicRelevance +
		KeywordWeight*scored.KeywordRelevance
	return scored
}

// Rank scores all memories against the input and returns the top TopK by
// final score, highest first; equal scores keep input order. This is the
// reference ranking backends without server-side scoring use.
func Rank(memories []*Memory, input *SearchInput) []*ScoredMemory {
	scored := make([]*ScoredMemory, 0, len(memories))
	for _, memory := range memories {
		scored = append(scored, ScoreMemory(memory, input))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].FinalScore > scored[j].FinalScore
	})

	if input.TopK > 0 && len(scored) > input.TopK {
		scored = scored[:input.TopK]
	}
	return scored
}
