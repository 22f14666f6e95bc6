package core

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/luminalabs/personamem-go/pkg/cache"
	"github.com/luminalabs/personamem-go/pkg/embedder"
	httpapiEmbedder "github.com/luminalabs/personamem-go/pkg/embedder/httpapi"
	openaiEmbedder "github.com/luminalabs/personamem-go/pkg/embedder/openai"
	"github.com/luminalabs/personamem-go/pkg/graph"
	"github.com/luminalabs/personamem-go/pkg/intelligence"
	"github.com/luminalabs/personamem-go/pkg/llm"
	anthropicLLM "github.com/luminalabs/personamem-go/pkg/llm/anthropic"
	openaiLLM "github.com/luminalabs/personamem-go/pkg/llm/openai"
	"github.com/luminalabs/personamem-go/pkg/retrieval"
	"github.com/luminalabs/personamem-go/pkg/store"
	neo4jStore "github.com/luminalabs/personamem-go/pkg/store/neo4j"
	sqliteStore "github.com/luminalabs/personamem-go/pkg/store/sqlite"
	"github.com/luminalabs/personamem-go/pkg/topics"
)

// Client is the main PersonaMem client for persona memory management.
//
// It provides a complete interface for storing, retrieving, and relating
// persona memories with support for:
//   - Hybrid retrieval blending vector similarity, topic overlap, and
//     keyword overlap
//   - LLM-backed topic classification against a fixed taxonomy
//   - An in-process relationship graph per persona with automatic
//     temporal, semantic, and causal linking
//   - TTL-cached query signals
//
// The client is thread-safe and can be used concurrently from multiple
// goroutines.
//
// Example usage:
//
//	config, _ := core.LoadConfigFromEnv()
//	client, _ := core.NewClient(config)
//	defer client.Close()
//
//	memory, _ := client.CreateMemory(ctx, "persona_001",
//	    "Went hiking at Mount Tam, felt energized",
//	    graph.NodeTypeActivity,
//	    core.WithImportance(0.8),
//	)
type Client struct {
	// config contains the client configuration.
	config *Config

	// store is the graph store for memory persistence.
	store store.GraphStore

	// llm is the LLM provider behind classification and keyword extraction.
	llm llm.Provider

	// embedder is the embedding provider for vector generation.
	embedder embedder.Provider

	// hierarchy is the topic taxonomy shared by classifier and retrieval.
	hierarchy *topics.Hierarchy

	// classifier maps memory text onto taxonomy topics.
	classifier *intelligence.Classifier

	// keywords extracts search keywords from memory text.
	keywords *intelligence.KeywordExtractor

	// signals is the TTL cache over embeddings, classifications, and
	// keyword extractions.
	signals *cache.Cache

	// engine runs hybrid retrieval and owns the store warm-up gate.
	engine *retrieval.Engine

	// logger receives operational events.
	logger *zap.Logger

	// temporalWindow bounds automatic temporal linking.
	temporalWindow time.Duration

	// semanticThreshold is the cosine floor for automatic semantic linking.
	semanticThreshold float64

	// mu protects the per-persona graph map.
	mu sync.Mutex

	// graphs holds one in-process relationship graph per persona.
	graphs map[string]*graph.Graph
}

// NewClient creates a new PersonaMem client.
//
// The client is initialized with:
//   - Graph store (Neo4j or SQLite)
//   - LLM provider (OpenAI or Anthropic)
//   - Embedding provider (OpenAI or a generic HTTP embeddings API)
//   - The default topic taxonomy, signal cache, and retrieval engine
//
// Store warm-up is deferred: the first operation that touches the store
// triggers it, and concurrent first callers share one warm-up.
//
// Parameters:
//   - cfg: Configuration containing store, LLM, and embedding settings
//   - opts: Optional overrides (logger, pre-built providers)
//
// Returns a new Client instance, or an error if initialization fails.
//
// Example:
//
//	config := &core.Config{
//	    Store:    core.StoreConfig{...},
//	    LLM:      core.LLMConfig{...},
//	    Embedder: core.EmbedderConfig{...},
//	}
//	client, err := core.NewClient(config)
func NewClient(cfg *Config, opts ...ClientOption) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	overrides := applyClientOptions(opts)

	logger := overrides.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	graphStore := overrides.store
	if graphStore == nil {
		var err error
		graphStore, err = initStore(cfg.Store, cfg.Embedder.Dimensions, logger)
		if err != nil {
			return nil, err
		}
	}

	llmProvider := overrides.llm
	if llmProvider == nil {
		var err error
		llmProvider, err = initLLM(cfg.LLM)
		if err != nil {
			return nil, err
		}
	}

	embedderProvider := overrides.embedder
	if embedderProvider == nil {
		var err error
		embedderProvider, err = initEmbedder(cfg.Embedder)
		if err != nil {
			return nil, err
		}
	}

	hierarchy := topics.DefaultHierarchy()

	signals, err := cache.New(&cache.Config{
		TTL:     time.Duration(valueOrDefault(cfg.Retrieval.CacheTTLSeconds, DefaultCacheTTLSeconds)) * time.Second,
		MaxCost: cfg.Retrieval.CacheMaxBytes,
	})
	if err != nil {
		return nil, NewMemoryError("NewClient", err)
	}

	classifier := intelligence.NewClassifier(llmProvider, hierarchy, logger)
	extractor := intelligence.NewKeywordExtractor(llmProvider, logger)

	engine := retrieval.NewEngine(&retrieval.Config{
		Store:         graphStore,
		Embedder:      embedderProvider,
		Classifier:    classifier,
		Keywords:      extractor,
		Cache:         signals,
		Taxonomy:      topicRecords(hierarchy),
		SignalTimeout: time.Duration(valueOrDefault(cfg.Retrieval.SignalTimeoutSeconds, DefaultSignalTimeoutSeconds)) * time.Second,
		Logger:        logger,
	})

	temporalWindow := time.Duration(valueOrDefault(cfg.Retrieval.TemporalWindowMinutes, DefaultTemporalWindowMinutes)) * time.Minute
	semanticThreshold := cfg.Retrieval.SemanticThreshold
	if semanticThreshold <= 0 {
		semanticThreshold = DefaultSemanticThreshold
	}

	return &Client{
		config:            cfg,
		store:             graphStore,
		llm:               llmProvider,
		embedder:          embedderProvider,
		hierarchy:         hierarchy,
		classifier:        classifier,
		keywords:          extractor,
		signals:           signals,
		engine:            engine,
		logger:            logger,
		temporalWindow:    temporalWindow,
		semanticThreshold: semanticThreshold,
		graphs:            make(map[string]*graph.Graph),
	}, nil
}

// Warmup prepares the store for use: asserts the schema, re-asserts the
// topic taxonomy, and primes the connection. It runs automatically before
// the first store operation; calling it explicitly just front-loads the
// cost. Safe to call repeatedly.
func (c *Client) Warmup(ctx context.Context) error {
	if err := c.engine.Warm(ctx); err != nil {
		return NewMemoryError("Warmup", err)
	}
	return nil
}

// CreatePersona registers a persona. Re-registering an existing id updates
// its name and profile.
//
// Parameters:
//   - ctx: Context for cancellation
//   - persona: The persona to register; ID is required
//
// Returns an error if the persona is invalid or the store rejects it.
//
// Example:
//
//	err := client.CreatePersona(ctx, &core.Persona{
//	    ID:   "persona_001",
//	    Name: "Alex",
//	    Profile: map[string]interface{}{
//	        "age": 29,
//	    },
//	})
func (c *Client) CreatePersona(ctx context.Context, persona *Persona) error {
	if persona == nil || persona.ID == "" {
		return NewMemoryError("CreatePersona", ErrInvalidInput)
	}

	if err := c.engine.Warm(ctx); err != nil {
		return NewMemoryError("CreatePersona", err)
	}

	profile := ""
	if persona.Profile != nil {
		data, err := json.Marshal(persona.Profile)
		if err != nil {
			return NewMemoryError("CreatePersona", err)
		}
		profile = string(data)
	}

	if err := c.store.CreatePersona(ctx, persona.ID, persona.Name, profile); err != nil {
		return NewMemoryError("CreatePersona", err)
	}
	return nil
}

// CreateMemory stores a new memory for a persona.
//
// The method:
//  1. Embeds the content
//  2. Rejects duplicates of an existing memory's exact content
//  3. Classifies the content into taxonomy topics and extracts keywords
//  4. Persists the memory and its topic links
//  5. Mirrors it into the persona's relationship graph and links it to
//     recent (temporal), similar (similar_to), and causing (caused_by)
//     memories
//
// A memory that cannot be embedded, or whose exact content the persona
// already remembers, is quietly dropped: the method returns (nil, nil).
// Classification and keyword failures are absorbed; the memory is stored
// without those signals.
//
// Parameters:
//   - ctx: Context for cancellation
//   - personaID: Owner of the memory (must already be registered)
//   - content: Memory text
//   - nodeType: Memory category (activity, emotion, preference, ...)
//   - opts: Optional parameters (Importance, Valence, Metadata, Tags,
//     SourceNodeID)
//
// Returns the created MemoryRecord, (nil, nil) for a rejected memory, or
// an error if persistence fails.
//
// Example:
//
//	memory, err := client.CreateMemory(ctx, "persona_001",
//	    "Went hiking at Mount Tam, felt energized",
//	    graph.NodeTypeActivity,
//	    core.WithImportance(0.8),
//	    core.WithTags("outdoors"),
//	)
func (c *Client) CreateMemory(ctx context.Context, personaID, content string, nodeType graph.NodeType, opts ...CreateOption) (*MemoryRecord, error) {
	if personaID == "" {
		return nil, NewMemoryError("CreateMemory", ErrInvalidInput)
	}
	if strings.TrimSpace(content) == "" {
		c.logger.Debug("memory dropped: empty content",
			zap.String("persona_id", personaID))
		return nil, nil
	}

	createOpts := applyCreateOptions(opts)

	if err := c.engine.Warm(ctx); err != nil {
		return nil, NewMemoryError("CreateMemory", err)
	}

	vector, err := c.embedText(ctx, content)
	if err != nil || len(vector) == 0 {
		c.logger.Debug("memory dropped: no embedding",
			zap.String("persona_id", personaID),
			zap.Error(err))
		return nil, nil
	}

	exists, err := c.store.HasMemoryContent(ctx, personaID, content)
	if err != nil {
		return nil, NewMemoryError("CreateMemory", err)
	}
	if exists {
		c.logger.Debug("memory dropped: duplicate content",
			zap.String("persona_id", personaID))
		return nil, nil
	}

	topicIDs := c.classifyText(ctx, content)
	keywords := c.extractKeywords(ctx, content)

	node := graph.NewMemoryNode(content, nodeType,
		graph.WithEmbedding(vector),
		graph.WithImportance(createOpts.Importance),
		graph.WithValence(createOpts.Valence),
		graph.WithTags(createOpts.Tags...),
	)
	for k, v := range createOpts.Metadata {
		node.Metadata[k] = v
	}

	metadata := make(map[string]interface{}, len(createOpts.Metadata)+1)
	for k, v := range createOpts.Metadata {
		metadata[k] = v
	}
	if node.EmotionalValence != 0 {
		metadata["emotional_valence"] = node.EmotionalValence
	}

	storeID, err := c.store.CreateMemory(ctx, &store.Memory{
		PersonaID:  personaID,
		Content:    content,
		Type:       string(nodeType),
		Importance: node.Importance,
		Vector:     vector,
		Keywords:   keywords,
		TopicIDs:   topicIDs,
		Timestamp:  node.CreatedAt,
		Metadata:   metadata,
	})
	if err != nil {
		return nil, NewMemoryError("CreateMemory", err)
	}

	for _, topicID := range topicIDs {
		if err := c.store.LinkMemoryTopic(ctx, storeID, topicID); err != nil {
			c.logger.Warn("memory topic link not persisted",
				zap.String("memory_id", storeID),
				zap.String("topic_id", topicID),
				zap.Error(err))
		}
	}

	node.Metadata["store_id"] = storeID

	g := c.Graph(personaID)
	g.AddNode(node)
	c.linkNewNode(ctx, g, node, createOpts.SourceNodeID)

	return &MemoryRecord{
		ID:         storeID,
		NodeID:     node.ID,
		PersonaID:  personaID,
		Content:    content,
		Type:       nodeType,
		Importance: node.Importance,
		Embedding:  vector,
		Keywords:   keywords,
		TopicIDs:   topicIDs,
		Metadata:   metadata,
		CreatedAt:  node.CreatedAt,
	}, nil
}

// Search retrieves memories relevant to a free-text query.
//
// Three signals are gathered concurrently, each through the TTL cache:
// the query embedding, its taxonomy topics, and its keywords. The store
// then ranks memories by
//
//	0.5*similarity + 0.25*topicOverlap + 0.25*keywordOverlap
//
// A topic or keyword signal that fails degrades to empty; a query that
// cannot be embedded fails the search with ErrEmbeddingFailed. An empty
// or whitespace query returns no results and no error.
//
// Parameters:
//   - ctx: Context for cancellation
//   - query: Search query text
//   - opts: Optional parameters (PersonaID, TopK)
//
// Returns memories sorted by final score (highest first), or an error.
//
// Example:
//
//	results, err := client.Search(ctx, "outdoor plans for the weekend",
//	    core.WithPersonaID("persona_001"),
//	    core.WithTopK(5),
//	)
func (c *Client) Search(ctx context.Context, query string, opts ...SearchOption) ([]*ScoredMemory, error) {
	searchOpts := applySearchOptions(opts)

	results, err := c.engine.Search(ctx, query, searchOpts.PersonaID, searchOpts.TopK)
	if err != nil {
		return nil, NewMemoryError("Search", err)
	}
	return fromStoreScored(results), nil
}

// SearchByTopic returns memories linked to the named taxonomy topic,
// newest first. An unknown topic name returns no results and no error.
//
// Parameters:
//   - ctx: Context for cancellation
//   - topicName: Taxonomy topic name, e.g. "Music"
//   - limit: Maximum number of results
//
// Example:
//
//	memories, err := client.SearchByTopic(ctx, "Music", 20)
func (c *Client) SearchByTopic(ctx context.Context, topicName string, limit int) ([]*MemoryRecord, error) {
	topicID := c.hierarchy.IDByName(topicName)
	if topicID == "" {
		return nil, nil
	}

	if err := c.engine.Warm(ctx); err != nil {
		return nil, NewMemoryError("SearchByTopic", err)
	}

	memories, err := c.store.GetMemoriesByTopic(ctx, topicID, limit)
	if err != nil {
		return nil, NewMemoryError("SearchByTopic", err)
	}
	return fromStoreMemories(memories), nil
}

// GetMemories returns a persona's memories, newest first.
//
// Parameters:
//   - ctx: Context for cancellation
//   - personaID: Persona whose memories to list
//   - limit: Maximum number of results
func (c *Client) GetMemories(ctx context.Context, personaID string, limit int) ([]*MemoryRecord, error) {
	if err := c.engine.Warm(ctx); err != nil {
		return nil, NewMemoryError("GetMemories", err)
	}

	memories, err := c.store.GetMemories(ctx, personaID, limit)
	if err != nil {
		return nil, NewMemoryError("GetMemories", err)
	}
	return fromStoreMemories(memories), nil
}

// GetMemoriesByType returns a persona's memories of one category, newest
// first.
//
// Parameters:
//   - ctx: Context for cancellation
//   - personaID: Persona whose memories to list
//   - nodeType: Memory category to filter by
//   - limit: Maximum number of results
func (c *Client) GetMemoriesByType(ctx context.Context, personaID string, nodeType graph.NodeType, limit int) ([]*MemoryRecord, error) {
	if err := c.engine.Warm(ctx); err != nil {
		return nil, NewMemoryError("GetMemoriesByType", err)
	}

	memories, err := c.store.GetMemoriesByType(ctx, personaID, string(nodeType), limit)
	if err != nil {
		return nil, NewMemoryError("GetMemoriesByType", err)
	}
	return fromStoreMemories(memories), nil
}

// GetMemoriesByContent returns a persona's memories whose content contains
// the given substring, newest first. The match is case-sensitive.
//
// Parameters:
//   - ctx: Context for cancellation
//   - personaID: Persona whose memories to search
//   - contains: Substring to look for
//   - limit: Maximum number of results
func (c *Client) GetMemoriesByContent(ctx context.Context, personaID, contains string, limit int) ([]*MemoryRecord, error) {
	if err := c.engine.Warm(ctx); err != nil {
		return nil, NewMemoryError("GetMemoriesByContent", err)
	}

	memories, err := c.store.GetMemoriesByContent(ctx, personaID, contains, limit)
	if err != nil {
		return nil, NewMemoryError("GetMemoriesByContent", err)
	}
	return fromStoreMemories(memories), nil
}

// ClearPersonaMemories removes all of a persona's memories from the store
// and discards the persona's in-process graph.
//
// Parameters:
//   - ctx: Context for cancellation
//   - personaID: Persona whose memories to remove
func (c *Client) ClearPersonaMemories(ctx context.Context, personaID string) error {
	if err := c.engine.Warm(ctx); err != nil {
		return NewMemoryError("ClearPersonaMemories", err)
	}

	if err := c.store.DeletePersonaMemories(ctx, personaID); err != nil {
		return NewMemoryError("ClearPersonaMemories", err)
	}

	c.mu.Lock()
	delete(c.graphs, personaID)
	c.mu.Unlock()
	return nil
}

// RelatedTopics returns taxonomy topics related to the named topic with at
// least the given strength, strongest first. Unknown names return nil.
//
// Example:
//
//	related := client.RelatedTopics("Music", 0.4)
func (c *Client) RelatedTopics(topicName string, minStrength float64) []topics.TopicStrength {
	topicID := c.hierarchy.IDByName(topicName)
	if topicID == "" {
		return nil
	}
	return c.hierarchy.Related(topicID, minStrength)
}

// TopicPath returns the taxonomy path from the root category down to the
// named topic. Unknown names return nil.
//
// Example:
//
//	path := client.TopicPath("Music")
//	// ["Entertainment & Media", "Music"]
func (c *Client) TopicPath(topicName string) []string {
	topicID := c.hierarchy.IDByName(topicName)
	if topicID == "" {
		return nil
	}
	return c.hierarchy.Path(topicID)
}

// Hierarchy returns the topic taxonomy the client classifies against.
func (c *Client) Hierarchy() *topics.Hierarchy {
	return c.hierarchy
}

// Graph returns the persona's in-process relationship graph, creating an
// empty one on first use. The graph is safe for concurrent use.
func (c *Client) Graph(personaID string) *graph.Graph {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, ok := c.graphs[personaID]
	if !ok {
		g = graph.NewGraph()
		c.graphs[personaID] = g
	}
	return g
}

// Close closes the client and releases all resources.
//
// This method:
//   - Closes the graph store connection
//   - Closes the LLM provider
//   - Closes the embedder provider
//   - Stops the signal cache
//
// Returns the first error encountered during cleanup, or nil if all
// resources were closed successfully.
//
// Example:
//
//	defer client.Close()
func (c *Client) Close() error {
	var errs []error

	if c.store != nil {
		if err := c.store.Close(context.Background()); err != nil {
			errs = append(errs, err)
		}
	}

	if c.llm != nil {
		if err := c.llm.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.embedder != nil {
		if err := c.embedder.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.signals != nil {
		c.signals.Close()
	}

	if len(errs) > 0 {
		return errs[0] // Return the first error
	}

	return nil
}

// embedText returns the cached embedding for the text, computing it on a
// miss.
func (c *Client) embedText(ctx context.Context, text string) ([]float64, error) {
	return c.signals.GetEmbedding(ctx, text, func(ctx context.Context) ([]float64, error) {
		return c.embedder.Embed(ctx, text)
	})
}

// classifyText returns the cached taxonomy topics for the text. Failures
// are absorbed: the memory is simply stored without topics.
func (c *Client) classifyText(ctx context.Context, text string) []string {
	topicIDs, err := c.signals.GetStrings(ctx, cache.OpClassify, text, func(ctx context.Context) ([]string, error) {
		classification, err := c.classifier.Classify(ctx, text)
		if err != nil {
			return nil, err
		}
		return classification.TopicIDs, nil
	})
	if err != nil {
		c.logger.Debug("memory stored without topics", zap.Error(err))
		return nil
	}
	return topicIDs
}

// extractKeywords returns the cached keywords for the text. Failures are
// absorbed: the memory is simply stored without keywords.
func (c *Client) extractKeywords(ctx context.Context, text string) []string {
	keywords, err := c.signals.GetStrings(ctx, cache.OpKeywords, text, func(ctx context.Context) ([]string, error) {
		return c.keywords.Extract(ctx, text)
	})
	if err != nil {
		c.logger.Debug("memory stored without keywords", zap.Error(err))
		return nil
	}
	return keywords
}

// linkNewNode wires a newly added graph node to the persona's existing
// memories: bidirectional temporal edges for memories created within the
// temporal window, bidirectional semantic edges where cosine similarity
// reaches the threshold, and a caused_by edge to the source node when one
// is named. Every edge that connects two persisted memories is mirrored to
// the store.
func (c *Client) linkNewNode(ctx context.Context, g *graph.Graph, node *graph.MemoryNode, sourceNodeID string) {
	for _, existing := range g.Nodes() {
		if existing.ID == node.ID {
			continue
		}

		gap := node.CreatedAt.Sub(existing.CreatedAt)
		if gap < 0 {
			gap = -gap
		}
		if gap <= c.temporalWindow {
			g.AddRelation(node.ID, existing.ID, graph.RelationTemporal, graph.WithStrength(0.8))
			g.AddRelation(existing.ID, node.ID, graph.RelationTemporal, graph.WithStrength(0.8))
			c.persistRelation(ctx, node, existing, graph.RelationTemporal, 0.8)
			c.persistRelation(ctx, existing, node, graph.RelationTemporal, 0.8)
		}

		if cos := store.Cosine(node.Embedding, existing.Embedding); cos >= c.semanticThreshold {
			g.AddRelation(node.ID, existing.ID, graph.RelationSimilarTo, graph.WithStrength(cos))
			g.AddRelation(existing.ID, node.ID, graph.RelationSimilarTo, graph.WithStrength(cos))
			c.persistRelation(ctx, node, existing, graph.RelationSimilarTo, cos)
			c.persistRelation(ctx, existing, node, graph.RelationSimilarTo, cos)
		}
	}

	if sourceNodeID != "" {
		if source := g.GetNode(sourceNodeID); source != nil {
			g.AddRelation(node.ID, sourceNodeID, graph.RelationCausedBy)
			c.persistRelation(ctx, node, source, graph.RelationCausedBy, 1.0)
		}
	}
}

// persistRelation mirrors a graph edge to the store. Nodes that were never
// persisted are skipped; store failures are logged, not surfaced, so graph
// maintenance cannot fail a create.
func (c *Client) persistRelation(ctx context.Context, from, to *graph.MemoryNode, relType graph.RelationType, strength float64) {
	fromID := persistedID(from)
	toID := persistedID(to)
	if fromID == "" || toID == "" {
		return
	}
	if err := c.store.LinkMemoryRelation(ctx, fromID, toID, string(relType), strength); err != nil {
		c.logger.Warn("memory relation not persisted",
			zap.String("type", string(relType)),
			zap.Error(err))
	}
}

// persistedID extracts the store id a graph node was persisted under,
// empty for graph-only nodes.
func persistedID(node *graph.MemoryNode) string {
	if id, ok := node.Metadata["store_id"].(string); ok {
		return id
	}
	return ""
}

// valueOrDefault substitutes a default for non-positive config values.
func valueOrDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// initStore initializes the graph store backend. The embedder's vector
// dimension configures the Neo4j vector index so stored vectors match it.
func initStore(cfg StoreConfig, dimensions int, logger *zap.Logger) (store.GraphStore, error) {
	switch cfg.Provider {
	case "neo4j":
		return neo4jStore.NewClient(&neo4jStore.Config{
			URI:            cfg.Neo4j.URI,
			Username:       cfg.Neo4j.Username,
			Password:       cfg.Neo4j.Password,
			Database:       cfg.Neo4j.Database,
			Dimensions:     dimensions,
			PoolSize:       cfg.Neo4j.PoolSize,
			VectorIndex:    cfg.Neo4j.VectorIndex,
			CandidateLimit: cfg.Neo4j.CandidateLimit,
			Logger:         logger,
		})
	case "sqlite":
		return sqliteStore.NewClient(&sqliteStore.Config{
			DBPath: cfg.SQLite.DBPath,
			Logger: logger,
		})
	default:
		return nil, NewMemoryError("initStore", ErrInvalidConfig)
	}
}

// initLLM initializes the LLM provider.
func initLLM(cfg LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "openai":
		return openaiLLM.NewClient(&openaiLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "anthropic":
		return anthropicLLM.NewClient(&anthropicLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	default:
		return nil, NewMemoryError("initLLM", ErrInvalidConfig)
	}
}

// initEmbedder initializes the embedder provider.
func initEmbedder(cfg EmbedderConfig) (embedder.Provider, error) {
	switch cfg.Provider {
	case "openai":
		return openaiEmbedder.NewClient(&openaiEmbedder.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Dimensions: cfg.Dimensions,
		})
	case "httpapi":
		return httpapiEmbedder.NewClient(&httpapiEmbedder.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Dimensions: cfg.Dimensions,
		})
	default:
		return nil, NewMemoryError("initEmbedder", ErrInvalidConfig)
	}
}
