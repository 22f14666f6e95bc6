// Package sqlite implements store.GraphStore on a local SQLite file.
//
// SQLite has no vector type, so vectors, keywords, and metadata are stored
// as JSON strings in TEXT columns and hybrid scoring runs in memory over
// the candidate rows. The scoring comes from store.Rank, so results rank
// exactly as the reference model prescribes.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/luminalabs/personamem-go/pkg/store"
)

const defaultLimit = 100

// Client implements GraphStore using SQLite as the backend.
type Client struct {
	// db is the SQLite database connection.
	db *sql.DB

	logger *zap.Logger
}

// Config contains configuration for creating a SQLite GraphStore.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// Logger receives storage events; nil discards them.
	Logger *zap.Logger
}

// NewClient opens (creating if needed) the database file and initializes
// the schema.
func NewClient(cfg *Config) (*Client, error) {
	dbDir := filepath.Dir(cfg.DBPath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("NewSQLiteClient: failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	client := &Client{
		db:     db,
		logger: logger,
	}

	if err := client.EnsureSchema(context.Background()); err != nil {
		return nil, err
	}

	return client, nil
}

// EnsureSchema creates the tables and indexes if missing.
func (c *Client) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS personas (
			id TEXT PRIMARY KEY,
			name TEXT,
			profile TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS memories (
			id TEXT PRIMARY KEY,
			persona_id TEXT NOT NULL,
			content TEXT NOT NULL,
			type TEXT NOT NULL,
			importance REAL DEFAULT 0.5,
			vector TEXT NOT NULL,
			keywords TEXT,
			metadata TEXT,
			timestamp DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS topics (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			type TEXT,
			parent_id TEXT,
			importance REAL,
			metadata TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS memory_topics (
			memory_id TEXT NOT NULL,
			topic_id TEXT NOT NULL,
			PRIMARY KEY (memory_id, topic_id)
		)`,
		`CREATE TABLE IF NOT EXISTS memory_relations (
			source_id TEXT NOT NULL,
			target_id TEXT NOT NULL,
			type TEXT NOT NULL,
			strength REAL NOT NULL,
			created_at DATETIME,
			PRIMARY KEY (source_id, target_id, type)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_persona_type ON memories(persona_id, type)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_content ON memories(content)`,
		`CREATE INDEX IF NOT EXISTS idx_memory_topics_topic ON memory_topics(topic_id)`,
	}

	for _, stmt := range statements {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("EnsureSchema: %w", err)
		}
	}
	return nil
}

// Warmup asserts the schema, re-asserts the taxonomy, and primes the
// connection with an indexed count. Safe to call repeatedly.
func (c *Client) Warmup(ctx context.Context, topicRecords []*store.TopicRecord) error {
	if err := c.EnsureSchema(ctx); err != nil {
		return err
	}

	for _, topic := range topicRecords {
		if err := c.UpsertTopic(ctx, topic); err != nil {
			return err
		}
		if topic.ParentID != "" {
			if err := c.LinkTopicParent(ctx, topic.ParentID, topic.ID); err != nil {
				return err
			}
		}
	}

	var n int
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memories WHERE persona_id = ? AND type = ?`,
		"", "warmup_probe").Scan(&n)
	if err != nil {
		return fmt.Errorf("Warmup: %w", err)
	}
	return nil
}

// CreatePersona registers a persona row, updating name and profile when
// the id already exists.
func (c *Client) CreatePersona(ctx context.Context, id, name, profile string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO personas (id, name, profile) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, profile = excluded.profile
	`, id, name, profile)
	if err != nil {
		return fmt.Errorf("CreatePersona: %w", err)
	}
	return nil
}

// CreateMemory persists a memory row and returns its generated id.
func (c *Client) CreateMemory(ctx context.Context, memory *store.Memory) (string, error) {
	vectorJSON, err := json.Marshal(memory.Vector)
	if err != nil {
		return "", fmt.Errorf("CreateMemory: %w", err)
	}
	keywordsJSON, err := json.Marshal(memory.Keywords)
	if err != nil {
		return "", fmt.Errorf("CreateMemory: %w", err)
	}
	metadataJSON, err := json.Marshal(memory.Metadata)
	if err != nil {
		return "", fmt.Errorf("CreateMemory: %w", err)
	}

	id := uuid.NewString()
	timestamp := memory.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO memories (id, persona_id, content, type, importance, vector, keywords, metadata, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		memory.PersonaID,
		memory.Content,
		memory.Type,
		memory.Importance,
		string(vectorJSON),
		string(keywordsJSON),
		string(metadataJSON),
		timestamp.UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("CreateMemory: %w", err)
	}
	return id, nil
}

// HasMemoryContent reports whether the persona already holds a memory with
// exactly this content.
func (c *Client) HasMemoryContent(ctx context.Context, personaID, content string) (bool, error) {
	var one int
	err := c.db.QueryRowContext(ctx,
		`SELECT 1 FROM memories WHERE persona_id = ? AND content = ? LIMIT 1`,
		personaID, content).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("HasMemoryContent: %w", err)
	}
	return true, nil
}

// LinkMemoryTopic connects a memory to a taxonomy topic. Idempotent.
func (c *Client) LinkMemoryTopic(ctx context.Context, memoryID, topicID string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO memory_topics (memory_id, topic_id) VALUES (?, ?)
	`, memoryID, topicID)
	if err != nil {
		return fmt.Errorf("LinkMemoryTopic: %w", err)
	}
	return nil
}

// LinkMemoryRelation connects two memories with a typed relationship,
// creating or updating its strength.
func (c *Client) LinkMemoryRelation(ctx context.Context, sourceID, targetID, relType string, strength float64) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO memory_relations (source_id, target_id, type, strength, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source_id, target_id, type) DO UPDATE SET strength = excluded.strength
	`, sourceID, targetID, relType, strength, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("LinkMemoryRelation: %w", err)
	}
	return nil
}

// UpsertTopic creates or updates a taxonomy topic row.
func (c *Client) UpsertTopic(ctx context.Context, topic *store.TopicRecord) error {
	metadataJSON, err := json.Marshal(topic.Metadata)
	if err != nil {
		return fmt.Errorf("UpsertTopic: %w", err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO topics (id, name, type, parent_id, importance, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			parent_id = excluded.parent_id,
			importance = excluded.importance,
			metadata = excluded.metadata
	`, topic.ID, topic.Name, topic.Type, topic.ParentID, topic.Importance, string(metadataJSON))
	if err != nil {
		return fmt.Errorf("UpsertTopic: %w", err)
	}
	return nil
}

// LinkTopicParent records the parent of a child topic. In the relational
// schema the link is the parent_id column.
func (c *Client) LinkTopicParent(ctx context.Context, parentID, childID string) error {
	_, err := c.db.ExecContext(ctx,
		`UPDATE topics SET parent_id = ? WHERE id = ?`, parentID, childID)
	if err != nil {
		return fmt.Errorf("LinkTopicParent: %w", err)
	}
	return nil
}

const memoryColumns = `id, persona_id, content, type, importance, vector, keywords, metadata, timestamp`

// GetMemories returns a persona's memories, newest first.
func (c *Client) GetMemories(ctx context.Context, personaID string, limit int) ([]*store.Memory, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM memories
		WHERE persona_id = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`, memoryColumns)
	return c.queryMemories(ctx, query, personaID, normalizeLimit(limit))
}

// GetMemoriesByType returns a persona's memories of one type, newest first.
func (c *Client) GetMemoriesByType(ctx context.Context, personaID, memoryType string, limit int) ([]*store.Memory, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM memories
		WHERE persona_id = ? AND type = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`, memoryColumns)
	return c.queryMemories(ctx, query, personaID, memoryType, normalizeLimit(limit))
}

// GetMemoriesByContent returns a persona's memories whose content contains
// the given substring, newest first. INSTR keeps the match case-sensitive
// like the graph backend's CONTAINS.
func (c *Client) GetMemoriesByContent(ctx context.Context, personaID, contains string, limit int) ([]*store.Memory, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM memories
		WHERE persona_id = ? AND INSTR(content, ?) > 0
		ORDER BY timestamp DESC
		LIMIT ?
	`, memoryColumns)
	return c.queryMemories(ctx, query, personaID, contains, normalizeLimit(limit))
}

// GetMemoriesByTopic returns memories linked to a topic across all
// personas, newest first.
func (c *Client) GetMemoriesByTopic(ctx context.Context, topicID string, limit int) ([]*store.Memory, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM memories
		WHERE id IN (SELECT memory_id FROM memory_topics WHERE topic_id = ?)
		ORDER BY timestamp DESC
		LIMIT ?
	`, memoryColumns)
	return c.queryMemories(ctx, query, topicID, normalizeLimit(limit))
}

// SearchHybrid loads the persona's candidate rows and ranks them in memory
// with the reference scoring.
func (c *Client) SearchHybrid(ctx context.Context, input *store.SearchInput) ([]*store.ScoredMemory, error) {
	if input == nil || len(input.Vector) == 0 {
		return nil, nil
	}

	var (
		memories []*store.Memory
		err      error
	)
	if input.PersonaID != "" {
		query := fmt.Sprintf(`SELECT %s FROM memories WHERE persona_id = ?`, memoryColumns)
		memories, err = c.queryMemories(ctx, query, input.PersonaID)
	} else {
		query := fmt.Sprintf(`SELECT %s FROM memories`, memoryColumns)
		memories, err = c.queryMemories(ctx, query)
	}
	if err != nil {
		return nil, err
	}

	// Rows without a vector are excluded from search entirely, matching
	// the graph backend's IS NOT NULL filter.
	candidates := make([]*store.Memory, 0, len(memories))
	for _, memory := range memories {
		if len(memory.Vector) > 0 {
			candidates = append(candidates, memory)
		}
	}

	return store.Rank(candidates, input), nil
}

// DeletePersonaMemories removes all memories of a persona along with their
// topic and relation links.
func (c *Client) DeletePersonaMemories(ctx context.Context, personaID string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("DeletePersonaMemories: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`DELETE FROM memory_topics WHERE memory_id IN (SELECT id FROM memories WHERE persona_id = ?)`,
		`DELETE FROM memory_relations WHERE source_id IN (SELECT id FROM memories WHERE persona_id = ?)
			OR target_id IN (SELECT id FROM memories WHERE persona_id = ?)`,
		`DELETE FROM memories WHERE persona_id = ?`,
	}
	args := [][]interface{}{
		{personaID},
		{personaID, personaID},
		{personaID},
	}
	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, args[i]...); err != nil {
			return fmt.Errorf("DeletePersonaMemories: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("DeletePersonaMemories: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (c *Client) Close(ctx context.Context) error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// queryMemories runs a memory SELECT and attaches topic links to the rows.
func (c *Client) queryMemories(ctx context.Context, query string, args ...interface{}) ([]*store.Memory, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("queryMemories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var memories []*store.Memory
	for rows.Next() {
		memory, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, memory)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := c.attachTopics(ctx, memories); err != nil {
		return nil, err
	}
	return memories, nil
}

// attachTopics fills TopicIDs for the given memories in one query.
func (c *Client) attachTopics(ctx context.Context, memories []*store.Memory) error {
	if len(memories) == 0 {
		return nil
	}

	byID := make(map[string]*store.Memory, len(memories))
	placeholders := make([]string, 0, len(memories))
	args := make([]interface{}, 0, len(memories))
	for _, memory := range memories {
		byID[memory.ID] = memory
		placeholders = append(placeholders, "?")
		args = append(args, memory.ID)
	}

	query := fmt.Sprintf(
		`SELECT memory_id, topic_id FROM memory_topics WHERE memory_id IN (%s)`,
		strings.Join(placeholders, ", "))

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("attachTopics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var memoryID, topicID string
		if err := rows.Scan(&memoryID, &topicID); err != nil {
			return fmt.Errorf("attachTopics: %w", err)
		}
		if memory, ok := byID[memoryID]; ok {
			memory.TopicIDs = append(memory.TopicIDs, topicID)
		}
	}
	return rows.Err()
}

// scanMemory scans a memory from a database row or rows.
func scanMemory(scanner interface{}) (*store.Memory, error) {
	var memory store.Memory
	var vectorStr string
	var keywordsStr sql.NullString
	var metadataStr sql.NullString

	var err error
	switch s := scanner.(type) {
	case *sql.Row:
		err = s.Scan(
			&memory.ID,
			&memory.PersonaID,
			&memory.Content,
			&memory.Type,
			&memory.Importance,
			&vectorStr,
			&keywordsStr,
			&metadataStr,
			&memory.Timestamp,
		)
	case *sql.Rows:
		err = s.Scan(
			&memory.ID,
			&memory.PersonaID,
			&memory.Content,
			&memory.Type,
			&memory.Importance,
			&vectorStr,
			&keywordsStr,
			&metadataStr,
			&memory.Timestamp,
		)
	default:
		return nil, fmt.Errorf("unsupported scanner type")
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(vectorStr), &memory.Vector); err != nil {
		return nil, fmt.Errorf("parse vector: %w", err)
	}
	if keywordsStr.Valid && keywordsStr.String != "" {
		if err := json.Unmarshal([]byte(keywordsStr.String), &memory.Keywords); err != nil {
			return nil, fmt.Errorf("parse keywords: %w", err)
		}
	}
	if metadataStr.Valid && metadataStr.String != "" {
		if err := json.Unmarshal([]byte(metadataStr.String), &memory.Metadata); err != nil {
			return nil, fmt.Errorf("parse metadata: %w", err)
		}
	}

	return &memory, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return limit
}
