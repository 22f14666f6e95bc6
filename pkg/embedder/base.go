// Package embedder defines the text embedding abstraction used for
// similarity search over memories.
//
// The Provider interface converts text to vectors; concrete clients live
// in the subpackages.
package embedder

import "context"

// Provider is the interface every embedding backend implements.
type Provider interface {
	// Embed converts one text into its vector embedding.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - text: The input text to embed
	//
	// Returns the embedding vector and any error.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch converts several texts into vectors in one request,
	// cheaper than repeated Embed calls. Results are positionally
	// aligned with the input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Dimensions returns the vector dimension this provider produces.
	// Stored memory vectors and query vectors must agree on it.
	Dimensions() int

	// Close releases the provider's resources.
	Close() error
}
