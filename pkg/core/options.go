// Package core provides the main PersonaMem client and memory lifecycle
// operations.
package core

import (
	"go.uber.org/zap"

	"github.com/luminalabs/personamem-go/pkg/embedder"
	"github.com/luminalabs/personamem-go/pkg/llm"
	"github.com/luminalabs/personamem-go/pkg/store"
)

// CreateOption is a function type for configuring CreateMemory operations.
//
// Options are applied using the functional options pattern, allowing
// flexible configuration without requiring all parameters.
type CreateOption func(*CreateOptions)

// CreateOptions contains configuration options for CreateMemory operations.
type CreateOptions struct {
	// Importance weights the memory, in [0, 1]. Default: 0.5.
	Importance float64

	// Valence is the emotional valence, in [-1, 1]. Default: 0.
	Valence float64

	// Metadata contains additional metadata about the memory.
	Metadata map[string]interface{}

	// Tags are free-form labels attached to the in-process graph node.
	Tags []string

	// SourceNodeID names an existing graph node that caused this memory.
	// When set, a caused_by relationship is created from the new node.
	SourceNodeID string
}

// WithImportance sets the importance for CreateMemory operations.
//
// Values outside [0, 1] are clamped.
//
// Example:
//
//	memory, _ := client.CreateMemory(ctx, "persona_001", "content",
//	    graph.NodeTypePreference, core.WithImportance(0.9))
func WithImportance(importance float64) CreateOption {
	return func(opts *CreateOptions) {
		opts.Importance = importance
	}
}

// WithValence sets the emotional valence for CreateMemory operations.
//
// Values outside [-1, 1] are clamped.
//
// Example:
//
//	memory, _ := client.CreateMemory(ctx, "persona_001", "content",
//	    graph.NodeTypeEmotion, core.WithValence(0.8))
func WithValence(valence float64) CreateOption {
	return func(opts *CreateOptions) {
		opts.Valence = valence
	}
}

// WithMetadata sets metadata for CreateMemory operations.
//
// Metadata is persisted with the memory and mirrored onto the graph node.
//
// Example:
//
//	memory, _ := client.CreateMemory(ctx, "persona_001", "content",
//	    graph.NodeTypeActivity,
//	    core.WithMetadata(map[string]interface{}{
//	        "source": "conversation",
//	    }),
//	)
func WithMetadata(metadata map[string]interface{}) CreateOption {
	return func(opts *CreateOptions) {
		opts.Metadata = metadata
	}
}

// WithTags sets graph node tags for CreateMemory operations.
//
// Example:
//
//	memory, _ := client.CreateMemory(ctx, "persona_001", "content",
//	    graph.NodeTypeActivity, core.WithTags("outdoors", "weekend"))
func WithTags(tags ...string) CreateOption {
	return func(opts *CreateOptions) {
		opts.Tags = tags
	}
}

// WithSourceNodeID links the new memory back to the graph node that caused
// it, e.g. an emotion memory caused by an activity.
//
// Example:
//
//	activity, _ := client.CreateMemory(ctx, "persona_001", "Went hiking",
//	    graph.NodeTypeActivity)
//	emotion, _ := client.CreateMemory(ctx, "persona_001", "Felt proud",
//	    graph.NodeTypeEmotion, core.WithSourceNodeID(activity.NodeID))
func WithSourceNodeID(nodeID string) CreateOption {
	return func(opts *CreateOptions) {
		opts.SourceNodeID = nodeID
	}
}

// SearchOption is a function type for configuring Search operations.
type SearchOption func(*SearchOptions)

// SearchOptions contains configuration options for Search operations.
type SearchOptions struct {
	// PersonaID scopes the search to one persona. Empty searches all.
	PersonaID string

	// TopK sets the maximum number of results to return.
	// Default: 10
	TopK int
}

// WithPersonaID scopes Search operations to one persona.
//
// Example:
//
//	results, _ := client.Search(ctx, "outdoor plans",
//	    core.WithPersonaID("persona_001"))
func WithPersonaID(personaID string) SearchOption {
	return func(opts *SearchOptions) {
		opts.PersonaID = personaID
	}
}

// WithTopK sets the maximum number of results for Search operations.
//
// Example:
//
//	results, _ := client.Search(ctx, "outdoor plans", core.WithTopK(20))
func WithTopK(topK int) SearchOption {
	return func(opts *SearchOptions) {
		opts.TopK = topK
	}
}

// ClientOption is a function type for configuring the client itself.
//
// Client options override pieces of the wiring NewClient would otherwise
// build from the Config, which is how tests substitute in-process fakes.
type ClientOption func(*clientOptions)

// clientOptions collects overrides applied at construction.
type clientOptions struct {
	logger   *zap.Logger
	store    store.GraphStore
	llm      llm.Provider
	embedder embedder.Provider
}

// WithLogger sets the logger used by the client and everything it wires up.
//
// Example:
//
//	logger, _ := zap.NewProduction()
//	client, _ := core.NewClient(config, core.WithLogger(logger))
func WithLogger(logger *zap.Logger) ClientOption {
	return func(opts *clientOptions) {
		opts.logger = logger
	}
}

// WithStore supplies a pre-built graph store instead of the one the Config
// describes. The client takes ownership and closes it on Close.
func WithStore(s store.GraphStore) ClientOption {
	return func(opts *clientOptions) {
		opts.store = s
	}
}

// WithLLMProvider supplies a pre-built LLM provider instead of the one the
// Config describes. The client takes ownership and closes it on Close.
func WithLLMProvider(p llm.Provider) ClientOption {
	return func(opts *clientOptions) {
		opts.llm = p
	}
}

// WithEmbedderProvider supplies a pre-built embedding provider instead of
// the one the Config describes. The client takes ownership and closes it
// on Close.
func WithEmbedderProvider(p embedder.Provider) ClientOption {
	return func(opts *clientOptions) {
		opts.embedder = p
	}
}

// applyCreateOptions applies CreateMemory options with defaults.
func applyCreateOptions(opts []CreateOption) *CreateOptions {
	options := &CreateOptions{
		Importance: 0.5,
		Valence:    0.0,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// applySearchOptions applies Search options with defaults.
func applySearchOptions(opts []SearchOption) *SearchOptions {
	options := &SearchOptions{
		TopK: 10,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// applyClientOptions applies client construction options.
func applyClientOptions(opts []ClientOption) *clientOptions {
	options := &clientOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
