package neo4j

import (
	"encoding/json"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/luminalabs/personamem-go/pkg/store"
)

// Record value extraction. Driver values come back as interface{}; these
// helpers coerce the shapes we store and fall back to zero values on
// anything unexpected, so a malformed row degrades instead of panicking.

func getString(record *neo4j.Record, key string) string {
	value, ok := record.Get(key)
	if !ok {
		return ""
	}
	s, _ := value.(string)
	return s
}

func getFloat(record *neo4j.Record, key string) float64 {
	value, ok := record.Get(key)
	if !ok {
		return 0
	}
	switch v := value.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

func getStringList(record *neo4j.Record, key string) []string {
	value, ok := record.Get(key)
	if !ok {
		return nil
	}
	items, ok := value.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func getFloatList(record *neo4j.Record, key string) []float64 {
	value, ok := record.Get(key)
	if !ok {
		return nil
	}
	items, ok := value.([]interface{})
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case float64:
			out = append(out, v)
		case int64:
			out = append(out, float64(v))
		}
	}
	return out
}

// getTime parses a timestamp property stored as an RFC 3339 string.
// Unparseable values yield the zero time.
func getTime(record *neo4j.Record, key string) time.Time {
	s := getString(record, key)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// getMetadata decodes a metadata property stored as a JSON string.
func getMetadata(record *neo4j.Record, key string) map[string]interface{} {
	s := getString(record, key)
	if s == "" {
		return nil
	}
	var metadata map[string]interface{}
	if err := json.Unmarshal([]byte(s), &metadata); err != nil {
		return nil
	}
	return metadata
}

// memoryFromRecord builds a store.Memory from the shared RETURN columns of
// the memory read queries.
func memoryFromRecord(record *neo4j.Record) *store.Memory {
	return &store.Memory{
		ID:         getString(record, "id"),
		PersonaID:  getString(record, "persona_id"),
		Content:    getString(record, "content"),
		Type:       getString(record, "type"),
		Importance: getFloat(record, "importance"),
		Vector:     getFloatList(record, "vector"),
		Keywords:   getStringList(record, "keywords"),
		TopicIDs:   getStringList(record, "topic_ids"),
		Timestamp:  getTime(record, "timestamp"),
		Metadata:   getMetadata(record, "metadata"),
	}
}
