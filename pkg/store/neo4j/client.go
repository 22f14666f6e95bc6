// Package neo4j implements store.GraphStore against a Neo4j database.
//
// Memories hang off persona nodes via HAS_MEMORY, belong to taxonomy
// topics via BELONGS_TO, and topics nest via CONTAINS. Hybrid search runs
// either through the native vector index with a rescoring tail or as a
// full Cypher scan; both paths evaluate the same scoring expressions so
// they rank identically.
package neo4j

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/luminalabs/personamem-go/pkg/store"
)

const (
	// DefaultDimensions matches the embedding dimension of the default
	// self-hosted embedder.
	DefaultDimensions = 768

	// DefaultPoolSize bounds concurrent session checkouts.
	DefaultPoolSize = 4

	// DefaultCandidateLimit is how many nodes the native index pre-selects
	// before rescoring.
	DefaultCandidateLimit = 256

	defaultLimit = 100
	defaultTopK  = 10
)

// timestampLayout keeps fractional seconds fixed-width so the string
// ordering used by ORDER BY matches chronological order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Config configures the Neo4j store client.
type Config struct {
	// URI is the bolt/neo4j connection URI (required).
	URI string

	// Username and Password authenticate against the server.
	Username string
	Password string

	// Database selects the database, empty for the server default.
	Database string

	// Dimensions is the embedding dimension the vector index is built
	// for, DefaultDimensions when zero.
	Dimensions int

	// PoolSize bounds concurrent sessions, DefaultPoolSize when zero.
	PoolSize int

	// VectorIndex enables the native index search path. When false every
	// search uses the manual similarity scan.
	VectorIndex bool

	// CandidateLimit sizes the native index pre-selection,
	// DefaultCandidateLimit when zero.
	CandidateLimit int

	// Logger receives connection and fallback events; nil discards them.
	Logger *zap.Logger
}

// Client is a Neo4j-backed GraphStore.
type Client struct {
	driver neo4j.DriverWithContext
	pool   *sessionPool
	logger *zap.Logger

	dimensions     int
	candidateLimit int

	// nativeOff is sticky: once the index path fails it stays off for the
	// client's lifetime and every search takes the fallback.
	nativeMu     sync.Mutex
	nativeOff    bool
	fallbackOnce sync.Once
}

// NewClient connects to Neo4j and verifies connectivity.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("neo4j URI is required")
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(context.Background()); err != nil {
		_ = driver.Close(context.Background())
		return nil, fmt.Errorf("failed to connect to neo4j: %w", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		_ = driver.Close(context.Background())
		return nil, fmt.Errorf("failed to create session id node: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	dimensions := cfg.Dimensions
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	candidateLimit := cfg.CandidateLimit
	if candidateLimit <= 0 {
		candidateLimit = DefaultCandidateLimit
	}

	return &Client{
		driver:         driver,
		pool:           newSessionPool(driver, cfg.Database, poolSize, node, logger),
		logger:         logger,
		dimensions:     dimensions,
		candidateLimit: candidateLimit,
		nativeOff:      !cfg.VectorIndex,
	}, nil
}

// run executes one statement on a pooled session and collects its records.
func (c *Client) run(ctx context.Context, cypher string, params map[string]interface{}) ([]*neo4j.Record, error) {
	ps, err := c.pool.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer c.pool.release(ps)

	result, err := ps.sess.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return result.Collect(ctx)
}

// EnsureSchema creates the vector index and the lookup indexes if missing.
// A server without vector index support degrades to the manual similarity
// path instead of failing.
func (c *Client) EnsureSchema(ctx context.Context) error {
	vectorIndex := fmt.Sprintf(
		"CREATE VECTOR INDEX memory_vector_idx IF NOT EXISTS "+
			"FOR (m:Memory) ON (m.vector) "+
			"OPTIONS {indexConfig: {`vector.dimensions`: %d, `vector.similarity_function`: 'cosine'}}",
		c.dimensions)
	if _, err := c.run(ctx, vectorIndex, nil); err != nil {
		c.disableNativeIndex(err)
	}

	for _, ddl := range []string{
		"CREATE INDEX memory_type_idx IF NOT EXISTS FOR (m:Memory) ON (m.type)",
		"CREATE INDEX memory_content_idx IF NOT EXISTS FOR (m:Memory) ON (m.content)",
		"CREATE INDEX persona_id_idx IF NOT EXISTS FOR (p:Persona) ON (p.id)",
		"CREATE INDEX topic_id_idx IF NOT EXISTS FOR (t:Topic) ON (t.id)",
	} {
		if _, err := c.run(ctx, ddl, nil); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// Warmup asserts the schema, re-asserts the taxonomy, and primes the
// connection with a cheap indexed lookup. Safe to call repeatedly.
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

	_, err := c.run(ctx,
		"MATCH (m:Memory {type: $type}) RETURN count(m) AS n",
		map[string]interface{}{"type": "warmup_probe"})
	if err != nil {
		return fmt.Errorf("warmup probe failed: %w", err)
	}
	return nil
}

const createPersonaQuery = `
MERGE (p:Persona {id: $id})
SET p.name = $name,
    p.profile = $profile,
    p.node_type = 'persona'`

// CreatePersona registers a persona node, updating name and profile when
// the id already exists.
func (c *Client) CreatePersona(ctx context.Context, id, name, profile string) error {
	_, err := c.run(ctx, createPersonaQuery, map[string]interface{}{
		"id":      id,
		"name":    name,
		"profile": profile,
	})
	if err != nil {
		return fmt.Errorf("failed to create persona: %w", err)
	}
	return nil
}

const createMemoryQuery = `
MATCH (p:Persona {id: $persona_id})
WITH p LIMIT 1
CREATE (m:Memory {
    content: $content,
    type: $type,
    importance: $importance,
    vector: $vector,
    keywords: $keywords,
    metadata: $metadata,
    timestamp: $timestamp,
    node_type: 'memory'
})
CREATE (p)-[:HAS_MEMORY]->(m)
RETURN elementId(m) AS id`

// CreateMemory persists a memory under its persona and returns the node's
// element id. An unknown persona yields an error rather than an orphan row.
func (c *Client) CreateMemory(ctx context.Context, memory *store.Memory) (string, error) {
	metadata, err := metadataJSON(memory.Metadata)
	if err != nil {
		return "", fmt.Errorf("failed to encode memory metadata: %w", err)
	}

	records, err := c.run(ctx, createMemoryQuery, map[string]interface{}{
		"persona_id": memory.PersonaID,
		"content":    memory.Content,
		"type":       memory.Type,
		"importance": memory.Importance,
		"vector":     memory.Vector,
		"keywords":   emptyIfNil(memory.Keywords),
		"metadata":   metadata,
		"timestamp":  memory.Timestamp.UTC().Format(timestampLayout),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create memory: %w", err)
	}
	if len(records) == 0 {
		return "", fmt.Errorf("persona %s not found", memory.PersonaID)
	}
	return getString(records[0], "id"), nil
}

const hasMemoryContentQuery = `
MATCH (p:Persona {id: $persona_id})-[:HAS_MEMORY]->(m:Memory {content: $content})
RETURN elementId(m) AS id
LIMIT 1`

// HasMemoryContent reports whether the persona already holds a memory with
// exactly this content.
func (c *Client) HasMemoryContent(ctx context.Context, personaID, content string) (bool, error) {
	records, err := c.run(ctx, hasMemoryContentQuery, map[string]interface{}{
		"persona_id": personaID,
		"content":    content,
	})
	if err != nil {
		return false, fmt.Errorf("failed to check memory content: %w", err)
	}
	return len(records) > 0, nil
}

const linkMemoryTopicQuery = `
MATCH (m:Memory) WHERE elementId(m) = $memory_id
MATCH (t:Topic {id: $topic_id})
MERGE (m)-[:BELONGS_TO]->(t)`

// LinkMemoryTopic connects a memory to a taxonomy topic. Idempotent;
// unknown ids match nothing and change nothing.
func (c *Client) LinkMemoryTopic(ctx context.Context, memoryID, topicID string) error {
	_, err := c.run(ctx, linkMemoryTopicQuery, map[string]interface{}{
		"memory_id": memoryID,
		"topic_id":  topicID,
	})
	if err != nil {
		return fmt.Errorf("failed to link memory to topic: %w", err)
	}
	return nil
}

// LinkMemoryRelation connects two memories with a typed relationship,
// creating or updating its strength.
func (c *Client) LinkMemoryRelation(ctx context.Context, sourceID, targetID, relType string, strength float64) error {
	label, err := relTypeLabel(relType)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
MATCH (a:Memory) WHERE elementId(a) = $source_id
MATCH (b:Memory) WHERE elementId(b) = $target_id
MERGE (a)-[r:%s]->(b)
ON CREATE SET r.created_at = $now
SET r.strength = $strength`, label)

	_, err = c.run(ctx, query, map[string]interface{}{
		"source_id": sourceID,
		"target_id": targetID,
		"strength":  strength,
		"now":       time.Now().UTC().Format(timestampLayout),
	})
	if err != nil {
		return fmt.Errorf("failed to link memories: %w", err)
	}
	return nil
}

const upsertTopicQuery = `
MERGE (t:Topic {id: $id})
ON CREATE SET t.created_at = datetime()
SET t.name = $name,
    t.type = $type,
    t.parent_id = $parent_id,
    t.importance = $importance,
    t.metadata = $metadata,
    t.node_type = 'topic'`

// UpsertTopic creates or updates a taxonomy topic node.
func (c *Client) UpsertTopic(ctx context.Context, topic *store.TopicRecord) error {
	metadata, err := metadataJSON(topic.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode topic metadata: %w", err)
	}

	_, err = c.run(ctx, upsertTopicQuery, map[string]interface{}{
		"id":         topic.ID,
		"name":       topic.Name,
		"type":       topic.Type,
		"parent_id":  topic.ParentID,
		"importance": topic.Importance,
		"metadata":   metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert topic: %w", err)
	}
	return nil
}

const linkTopicParentQuery = `
MATCH (parent:Topic {id: $parent_id})
MATCH (child:Topic {id: $child_id})
MERGE (parent)-[:CONTAINS]->(child)`

// LinkTopicParent connects a parent topic to a child. Idempotent.
func (c *Client) LinkTopicParent(ctx context.Context, parentID, childID string) error {
	_, err := c.run(ctx, linkTopicParentQuery, map[string]interface{}{
		"parent_id": parentID,
		"child_id":  childID,
	})
	if err != nil {
		return fmt.Errorf("failed to link topics: %w", err)
	}
	return nil
}

// memoryReturnColumns is the shared projection of the memory read queries.
// The persona variable p must be bound (possibly optionally) before it.
const memoryReturnColumns = `
RETURN elementId(m) AS id,
       p.id AS persona_id,
       m.content AS content,
       m.type AS type,
       m.importance AS importance,
       m.vector AS vector,
       m.keywords AS keywords,
       m.metadata AS metadata,
       m.timestamp AS timestamp,
       [(m)-[:BELONGS_TO]->(topic:Topic) | topic.id] AS topic_ids`

const getMemoriesQuery = `
MATCH (p:Persona {id: $persona_id})-[:HAS_MEMORY]->(m:Memory)` +
	memoryReturnColumns + `
ORDER BY m.timestamp DESC
LIMIT $limit`

// GetMemories returns a persona's memories, newest first.
func (c *Client) GetMemories(ctx context.Context, personaID string, limit int) ([]*store.Memory, error) {
	records, err := c.run(ctx, getMemoriesQuery, map[string]interface{}{
		"persona_id": personaID,
		"limit":      normalizeLimit(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get memories: %w", err)
	}
	return memoriesFromRecords(records), nil
}

const getMemoriesByTypeQuery = `
MATCH (p:Persona {id: $persona_id})-[:HAS_MEMORY]->(m:Memory {type: $type})` +
	memoryReturnColumns + `
ORDER BY m.timestamp DESC
LIMIT $limit`

// GetMemoriesByType returns a persona's memories of one type, newest first.
func (c *Client) GetMemoriesByType(ctx context.Context, personaID, memoryType string, limit int) ([]*store.Memory, error) {
	records, err := c.run(ctx, getMemoriesByTypeQuery, map[string]interface{}{
		"persona_id": personaID,
		"type":       memoryType,
		"limit":      normalizeLimit(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get memories by type: %w", err)
	}
	return memoriesFromRecords(records), nil
}

const getMemoriesByContentQuery = `
MATCH (p:Persona {id: $persona_id})-[:HAS_MEMORY]->(m:Memory)
WHERE m.content CONTAINS $contains` +
	memoryReturnColumns + `
ORDER BY m.timestamp DESC
LIMIT $limit`

// GetMemoriesByContent returns a persona's memories whose content contains
// the given substring, newest first.
func (c *Client) GetMemoriesByContent(ctx context.Context, personaID, contains string, limit int) ([]*store.Memory, error) {
	records, err := c.run(ctx, getMemoriesByContentQuery, map[string]interface{}{
		"persona_id": personaID,
		"contains":   contains,
		"limit":      normalizeLimit(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get memories by content: %w", err)
	}
	return memoriesFromRecords(records), nil
}

const getMemoriesByTopicQuery = `
MATCH (t:Topic {id: $topic_id})<-[:BELONGS_TO]-(m:Memory)
OPTIONAL MATCH (p:Persona)-[:HAS_MEMORY]->(m)` +
	memoryReturnColumns + `
ORDER BY m.timestamp DESC
LIMIT $limit`

// GetMemoriesByTopic returns memories linked to a topic across all
// personas, newest first.
func (c *Client) GetMemoriesByTopic(ctx context.Context, topicID string, limit int) ([]*store.Memory, error) {
	records, err := c.run(ctx, getMemoriesByTopicQuery, map[string]interface{}{
		"topic_id": topicID,
		"limit":    normalizeLimit(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get memories by topic: %w", err)
	}
	return memoriesFromRecords(records), nil
}

// hybridScoringTail evaluates the hybrid score. Both search paths append
// it so similarity, overlap, and blending are computed by the exact same
// expressions. Rows whose vector is missing or of a different dimension
// score 0 similarity but still compete on the other components.
const hybridScoringTail = `
WITH m, p, $query_vector AS qv
WITH m, p, qv,
     (m.vector IS NOT NULL AND size(m.vector) = size(qv)) AS comparable
WITH m, p,
     CASE WHEN comparable
          THEN reduce(dot = 0.0, i IN range(0, size(qv) - 1) | dot + qv[i] * m.vector[i])
          ELSE 0.0 END AS dotProduct,
     CASE WHEN comparable
          THEN sqrt(reduce(l2 = 0.0, x IN m.vector | l2 + x * x))
          ELSE 0.0 END AS memMag,
     sqrt(reduce(l2 = 0.0, x IN qv | l2 + x * x)) AS queryMag
WITH m, p,
     CASE WHEN memMag * queryMag = 0 THEN 0.0
          ELSE dotProduct / (memMag * queryMag) END AS similarity
WITH m, p, similarity,
     CASE WHEN size($topic_ids) = 0 THEN 0.0
          ELSE toFloat(size([(m)-[:BELONGS_TO]->(topic:Topic) WHERE topic.id IN $topic_ids | topic])) / size($topic_ids)
     END AS topic_relevance,
     CASE WHEN size($query_keywords) = 0 THEN 0.0
          ELSE toFloat(size([k IN $query_keywords WHERE k IN m.keywords | k])) / size($query_keywords)
     END AS keyword_relevance
RETURN elementId(m) AS id,
       p.id AS persona_id,
       m.content AS content,
       m.type AS type,
       m.importance AS importance,
       m.vector AS vector,
       m.keywords AS keywords,
       m.metadata AS metadata,
       m.timestamp AS timestamp,
       [(m)-[:BELONGS_TO]->(topic:Topic) | topic.id] AS topic_ids,
       similarity,
       topic_relevance,
       keyword_relevance,
       similarity * 0.5 + topic_relevance * 0.25 + keyword_relevance * 0.25 AS final_score
ORDER BY final_score DESC
LIMIT $top_k`

// Native heads pre-select candidates through the vector index. The index
// reports a normalized (1+cosine)/2 score, so it is discarded and the tail
// recomputes raw cosine; the index only narrows the candidate set.
const hybridNativeScoped = `
CALL db.index.vector.queryNodes('memory_vector_idx', $candidates, $query_vector)
YIELD node AS m, score
WITH m
MATCH (p:Persona {id: $persona_id})-[:HAS_MEMORY]->(m)` + hybridScoringTail

const hybridNativeAll = `
CALL db.index.vector.queryNodes('memory_vector_idx', $candidates, $query_vector)
YIELD node AS m, score
WITH m
OPTIONAL MATCH (p:Persona)-[:HAS_MEMORY]->(m)` + hybridScoringTail

const hybridFallbackScoped = `
MATCH (p:Persona {id: $persona_id})-[:HAS_MEMORY]->(m:Memory)
WHERE m.vector IS NOT NULL` + hybridScoringTail

const hybridFallbackAll = `
MATCH (m:Memory)
WHERE m.vector IS NOT NULL
OPTIONAL MATCH (p:Persona)-[:HAS_MEMORY]->(m)` + hybridScoringTail

// SearchHybrid scores stored memories against the query signals and
// returns the top TopK, highest final score first. The native index path
// is tried while enabled; its first failure logs a warning and flips the
// client to the manual scan permanently.
func (c *Client) SearchHybrid(ctx context.Context, input *store.SearchInput) ([]*store.ScoredMemory, error) {
	if input == nil || len(input.Vector) == 0 {
		return nil, nil
	}

	topK := input.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	params := map[string]interface{}{
		"query_vector":   input.Vector,
		"topic_ids":      emptyIfNil(input.TopicIDs),
		"query_keywords": emptyIfNil(input.Keywords),
		"top_k":          topK,
	}
	if input.PersonaID != "" {
		params["persona_id"] = input.PersonaID
	}

	if c.nativeEnabled() {
		candidates := c.candidateLimit
		if topK > candidates {
			candidates = topK
		}
		nativeParams := make(map[string]interface{}, len(params)+1)
		for k, v := range params {
			nativeParams[k] = v
		}
		nativeParams["candidates"] = candidates

		query := hybridNativeAll
		if input.PersonaID != "" {
			query = hybridNativeScoped
		}
		records, err := c.run(ctx, query, nativeParams)
		if err == nil {
			return scoredFromRecords(records), nil
		}
		c.disableNativeIndex(err)
	}

	query := hybridFallbackAll
	if input.PersonaID != "" {
		query = hybridFallbackScoped
	}
	records, err := c.run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("hybrid search failed: %w", err)
	}
	return scoredFromRecords(records), nil
}

const deletePersonaMemoriesQuery = `
MATCH (p:Persona {id: $persona_id})-[:HAS_MEMORY]->(m:Memory)
DETACH DELETE m`

// DeletePersonaMemories removes all memories of a persona along with their
// relationships. The persona node itself stays.
func (c *Client) DeletePersonaMemories(ctx context.Context, personaID string) error {
	_, err := c.run(ctx, deletePersonaMemoriesQuery, map[string]interface{}{
		"persona_id": personaID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete persona memories: %w", err)
	}
	return nil
}

// Close shuts down the session pool and the driver.
func (c *Client) Close(ctx context.Context) error {
	err := c.pool.close(ctx)
	if derr := c.driver.Close(ctx); derr != nil && err == nil {
		err = derr
	}
	return err
}

// nativeEnabled reports whether the index search path is still active.
func (c *Client) nativeEnabled() bool {
	c.nativeMu.Lock()
	defer c.nativeMu.Unlock()
	return !c.nativeOff
}

// disableNativeIndex turns the index path off for good and logs the reason
// once.
func (c *Client) disableNativeIndex(err error) {
	c.nativeMu.Lock()
	c.nativeOff = true
	c.nativeMu.Unlock()
	c.fallbackOnce.Do(func() {
		c.logger.Warn("native vector index unavailable, using manual similarity scan",
			zap.Error(err))
	})
}

// relTypeLabel validates and uppercases a relationship type. The type is
// interpolated into query text, so it is restricted to letters and
// underscores.
func relTypeLabel(relType string) (string, error) {
	if relType == "" {
		return "", fmt.Errorf("relationship type is required")
	}
	for _, r := range relType {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		return "", fmt.Errorf("invalid relationship type %q", relType)
	}
	return strings.ToUpper(relType), nil
}

// metadataJSON encodes metadata as the JSON string property Neo4j stores.
func metadataJSON(metadata map[string]interface{}) (string, error) {
	if len(metadata) == 0 {
		return "", nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// emptyIfNil keeps nil slices out of query parameters so the Cypher size()
// guards see empty lists instead of null.
func emptyIfNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return limit
}

func memoriesFromRecords(records []*neo4j.Record) []*store.Memory {
	memories := make([]*store.Memory, 0, len(records))
	for _, record := range records {
		memories = append(memories, memoryFromRecord(record))
	}
	return memories
}

func scoredFromRecords(records []*neo4j.Record) []*store.ScoredMemory {
	scored := make([]*store.ScoredMemory, 0, len(records))
	for _, record := range records {
		scored = append(scored, &store.ScoredMemory{
			Memory:           memoryFromRecord(record),
			Similarity:       getFloat(record, "similarity"),
			TopicRelevance:   getFloat(record, "topic_relevance"),
			KeywordRelevance: getFloat(record, "keyword_relevance"),
			FinalScore:       getFloat(record, "final_score"),
		})
	}
	return scored
}
