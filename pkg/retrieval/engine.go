// Package retrieval orchestrates hybrid memory search. An Engine gathers
// the three query signals (embedding vector, taxonomy topics, keywords)
// concurrently through the TTL cache, then issues a single scored store
// query. The first search warms the store; concurrent first callers share
// one warm-up flight and a failed flight is retried by the next caller.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/luminalabs/personamem-go/pkg/cache"
	"github.com/luminalabs/personamem-go/pkg/embedder"
	"github.com/luminalabs/personamem-go/pkg/intelligence"
	"github.com/luminalabs/personamem-go/pkg/store"
)

// DefaultSignalTimeout bounds each of the three signal calls during search.
const DefaultSignalTimeout = 10 * time.Second

var (
	// ErrWarmupFailed indicates the store could not be warmed before search.
	ErrWarmupFailed = errors.New("store warm-up failed")

	// ErrEmbeddingFailed indicates the query could not be embedded. Unlike
	// the topic and keyword signals, search cannot degrade without a vector.
	ErrEmbeddingFailed = errors.New("query embedding failed")
)

// Config carries the collaborators an Engine searches with.
type Config struct {
	// Store executes the scored hybrid query.
	Store store.GraphStore

	// Embedder produces the query vector.
	Embedder embedder.Provider

	// Classifier maps the query onto taxonomy topics. Optional; without it
	// the topic signal is always empty.
	Classifier *intelligence.Classifier

	// Keywords extracts query keywords. Optional; without it the keyword
	// signal is always empty.
	Keywords *intelligence.KeywordExtractor

	// Cache memoizes signal results per query text. Optional; without it
	// every search recomputes all three signals.
	Cache *cache.Cache

	// Taxonomy is re-asserted in the store during warm-up.
	Taxonomy []*store.TopicRecord

	// SignalTimeout bounds each signal call. Zero means DefaultSignalTimeout.
	SignalTimeout time.Duration

	// Logger receives signal degradation events. Nil discards logs.
	Logger *zap.Logger
}

// Engine runs multi-signal retrieval against a graph store.
type Engine struct {
	store      store.GraphStore
	embedder   embedder.Provider
	classifier *intelligence.Classifier
	keywords   *intelligence.KeywordExtractor
	cache      *cache.Cache
	taxonomy   []*store.TopicRecord
	timeout    time.Duration
	logger     *zap.Logger

	warmMu   sync.Mutex
	warmDone bool
	warming  *warmFlight
}

// warmFlight is one in-progress warm-up shared by every caller that
// arrives while it runs. err is written before done is closed.
type warmFlight struct {
	done chan struct{}
	err  error
}

// NewEngine creates a retrieval engine from cfg.
func NewEngine(cfg *Config) *Engine {
	timeout := cfg.SignalTimeout
	if timeout <= 0 {
		timeout = DefaultSignalTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:      cfg.Store,
		embedder:   cfg.Embedder,
		classifier: cfg.Classifier,
		keywords:   cfg.Keywords,
		cache:      cfg.Cache,
		taxonomy:   cfg.Taxonomy,
		timeout:    timeout,
		logger:     logger,
	}
}

// Search retrieves the topK memories most relevant to the query, scoped to
// personaID when it is non-empty. An empty or whitespace query returns no
// results and no error. The topic and keyword signals degrade to empty on
// failure; a failed embedding aborts the search with ErrEmbeddingFailed.
func (e *Engine) Search(ctx context.Context, query, personaID string, topK int) ([]*store.ScoredMemory, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	if err := e.Warm(ctx); err != nil {
		return nil, err
	}

	signals := e.collectSignals(ctx, query)
	if signals.embedErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, signals.embedErr)
	}
	if err := e.validateVector(signals.vector); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	results, err := e.store.SearchHybrid(ctx, &store.SearchInput{
		Vector:    signals.vector,
		TopicIDs:  signals.topicIDs,
		Keywords:  signals.keywords,
		PersonaID: personaID,
		TopK:      topK,
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// querySignals holds the outcome of one signal fan-out. The three fields
// groups are written by separate goroutines and read after the join.
type querySignals struct {
	vector   []float64
	embedErr error
	topicIDs []string
	keywords []string
}

// collectSignals computes the three query signals concurrently, each under
// its own timeout. Topic and keyword failures are logged and absorbed;
// only the embedding outcome carries an error.
func (e *Engine) collectSignals(ctx context.Context, query string) *querySignals {
	signals := &querySignals{}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		sctx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()
		signals.vector, signals.embedErr = e.embedQuery(sctx, query)
	}()

	go func() {
		defer wg.Done()
		sctx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()
		topicIDs, err := e.classifyQuery(sctx, query)
		if err != nil {
			e.logger.Debug("topic signal degraded to empty",
				zap.String("query", query),
				zap.Error(err))
			return
		}
		signals.topicIDs = topicIDs
	}()

	go func() {
		defer wg.Done()
		sctx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()
		keywords, err := e.extractQueryKeywords(sctx, query)
		if err != nil {
			e.logger.Debug("keyword signal degraded to empty",
				zap.String("query", query),
				zap.Error(err))
			return
		}
		signals.keywords = keywords
	}()

	wg.Wait()
	return signals
}

func (e *Engine) embedQuery(ctx context.Context, query string) ([]float64, error) {
	load := func(ctx context.Context) ([]float64, error) {
		return e.embedder.Embed(ctx, query)
	}
	if e.cache == nil {
		return load(ctx)
	}
	return e.cache.GetEmbedding(ctx, query, load)
}

func (e *Engine) classifyQuery(ctx context.Context, query string) ([]string, error) {
	if e.classifier == nil {
		return nil, nil
	}
	load := func(ctx context.Context) ([]string, error) {
		classification, err := e.classifier.Classify(ctx, query)
		if err != nil {
			return nil, err
		}
		return classification.TopicIDs, nil
	}
	if e.cache == nil {
		return load(ctx)
	}
	return e.cache.GetStrings(ctx, cache.OpClassify, query, load)
}

func (e *Engine) extractQueryKeywords(ctx context.Context, query string) ([]string, error) {
	if e.keywords == nil {
		return nil, nil
	}
	load := func(ctx context.Context) ([]string, error) {
		return e.keywords.Extract(ctx, query)
	}
	if e.cache == nil {
		return load(ctx)
	}
	return e.cache.GetStrings(ctx, cache.OpKeywords, query, load)
}

// validateVector rejects embeddings that would make every similarity zero.
func (e *Engine) validateVector(vector []float64) error {
	if len(vector) == 0 {
		return errors.New("provider returned an empty vector")
	}
	if dims := e.embedder.Dimensions(); dims > 0 && len(vector) != dims {
		return fmt.Errorf("provider returned %d dimensions, configured for %d", len(vector), dims)
	}
	for _, v := range vector {
		if v != 0 {
			return nil
		}
	}
	return errors.New("provider returned an all-zero vector")
}

// Warm runs store warm-up if it has not succeeded yet. Search calls it
// automatically; callers that write before ever searching can invoke it
// directly. Failures are reported as ErrWarmupFailed.
func (e *Engine) Warm(ctx context.Context) error {
	if err := e.ensureWarm(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrWarmupFailed, err)
	}
	return nil
}

// ensureWarm runs store warm-up exactly once. Callers that arrive during a
// flight wait for it and share its result. Failure does not latch: the
// flight is discarded so the next fresh caller starts a new one.
func (e *Engine) ensureWarm(ctx context.Context) error {
	e.warmMu.Lock()
	if e.warmDone {
		e.warmMu.Unlock()
		return nil
	}
	if flight := e.warming; flight != nil {
		e.warmMu.Unlock()
		select {
		case <-flight.done:
			return flight.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	flight := &warmFlight{done: make(chan struct{})}
	e.warming = flight
	e.warmMu.Unlock()

	err := e.store.Warmup(ctx, e.taxonomy)

	e.warmMu.Lock()
	e.warmDone = err == nil
	e.warming = nil
	e.warmMu.Unlock()

	flight.err = err
	close(flight.done)
	return err
}
