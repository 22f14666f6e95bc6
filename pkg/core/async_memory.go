package core

import (
	"context"
	"sync"

	"github.com/luminalabs/personamem-go/pkg/graph"
)

// AsyncClient provides asynchronous PersonaMem operations.
//
// It wraps the synchronous Client and executes all operations in separate
// goroutines, making it suitable for simulation loops that record many
// memories while continuing to run.
//
// All async methods return channels that will receive the results when
// operations complete. The client tracks all goroutines and provides
// Wait() to ensure all operations finish.
//
// Example:
//
//	asyncClient, _ := core.NewAsyncClient(config)
//	defer asyncClient.Close()
//
//	resultChan := asyncClient.CreateMemoryAsync(ctx, "persona_001",
//	    "Went hiking at Mount Tam", graph.NodeTypeActivity)
//	result := <-resultChan
//	if result.Error != nil {
//	    log.Fatal(result.Error)
//	}
type AsyncClient struct {
	*Client
	wg sync.WaitGroup
}

// NewAsyncClient creates a new asynchronous PersonaMem client.
//
// Parameters:
//   - cfg: PersonaMem configuration
//   - opts: Optional overrides (logger, pre-built providers)
//
// Returns:
//   - *AsyncClient: The asynchronous client instance
//   - error: Error if configuration is invalid or initialization fails
func NewAsyncClient(cfg *Config, opts ...ClientOption) (*AsyncClient, error) {
	client, err := NewClient(cfg, opts...)
	if err != nil {
		return nil, err
	}

	return &AsyncClient{
		Client: client,
	}, nil
}

// CreateMemoryAsync stores a memory asynchronously.
//
// The operation executes in a separate goroutine and returns results via a
// channel.
//
// Parameters:
//   - ctx: Context for controlling request lifecycle
//   - personaID: Owner of the memory
//   - content: Memory text
//   - nodeType: Memory category
//   - opts: Optional create options (Importance, Valence, Metadata, etc.)
//
// Returns:
//   - <-chan *MemoryResult: Channel that receives the result containing
//     the MemoryRecord and error
func (ac *AsyncClient) CreateMemoryAsync(ctx context.Context, personaID, content string, nodeType graph.NodeType, opts ...CreateOption) <-chan *MemoryResult {
	resultChan := make(chan *MemoryResult, 1)
	ac.wg.Add(1)

	go func() {
		defer ac.wg.Done()
		memory, err := ac.CreateMemory(ctx, personaID, content, nodeType, opts...)
		resultChan <- &MemoryResult{
			Memory: memory,
			Error:  err,
		}
		close(resultChan)
	}()

	return resultChan
}

// SearchAsync searches memories asynchronously.
//
// The operation executes in a separate goroutine and returns results via a
// channel.
//
// Parameters:
//   - ctx: Context for controlling request lifecycle
//   - query: Search query text
//   - opts: Optional search options (PersonaID, TopK)
//
// Returns:
//   - <-chan *AsyncSearchResult: Channel that receives search results
//     containing scored memories and error
func (ac *AsyncClient) SearchAsync(ctx context.Context, query string, opts ...SearchOption) <-chan *AsyncSearchResult {
	resultChan := make(chan *AsyncSearchResult, 1)
	ac.wg.Add(1)

	go func() {
		defer ac.wg.Done()
		results, err := ac.Search(ctx, query, opts...)
		resultChan <- &AsyncSearchResult{
			Results: results,
			Error:   err,
		}
		close(resultChan)
	}()

	return resultChan
}

// GetMemoriesAsync lists a persona's memories asynchronously.
//
// The operation executes in a separate goroutine and returns results via a
// channel.
//
// Parameters:
//   - ctx: Context for controlling request lifecycle
//   - personaID: Persona whose memories to list
//   - limit: Maximum number of results
//
// Returns:
//   - <-chan *AsyncMemoriesResult: Channel that receives results containing
//     memories and error
func (ac *AsyncClient) GetMemoriesAsync(ctx context.Context, personaID string, limit int) <-chan *AsyncMemoriesResult {
	resultChan := make(chan *AsyncMemoriesResult, 1)
	ac.wg.Add(1)

	go func() {
		defer ac.wg.Done()
		memories, err := ac.GetMemories(ctx, personaID, limit)
		resultChan <- &AsyncMemoriesResult{
			Memories: memories,
			Error:    err,
		}
		close(resultChan)
	}()

	return resultChan
}

// ClearPersonaMemoriesAsync removes a persona's memories asynchronously.
//
// The operation executes in a separate goroutine and returns results via a
// channel.
//
// Parameters:
//   - ctx: Context for controlling request lifecycle
//   - personaID: Persona whose memories to remove
//
// Returns:
//   - <-chan error: Channel that receives error (nil if deletion succeeds)
func (ac *AsyncClient) ClearPersonaMemoriesAsync(ctx context.Context, personaID string) <-chan error {
	errChan := make(chan error, 1)
	ac.wg.Add(1)

	go func() {
		defer ac.wg.Done()
		err := ac.ClearPersonaMemories(ctx, personaID)
		errChan <- err
		close(errChan)
	}()

	return errChan
}

// Wait waits for all asynchronous operations to complete.
//
// This method blocks until all goroutines started by async methods have
// finished. It should be called before program exit to ensure all
// operations complete.
func (ac *AsyncClient) Wait() {
	ac.wg.Wait()
}

// Close closes the asynchronous client.
//
// It first waits for all asynchronous operations to complete, then closes
// the underlying client.
func (ac *AsyncClient) Close() error {
	ac.Wait()
	return ac.Client.Close()
}

// MemoryResult contains the result of a memory operation.
type MemoryResult struct {
	// Memory is the memory returned by the operation (nil if it was
	// rejected or an error occurred).
	Memory *MemoryRecord

	// Error is the error returned by the operation (nil if operation succeeded).
	Error error
}

// AsyncSearchResult contains the result of an asynchronous search operation.
type AsyncSearchResult struct {
	// Results is the list of scored matches, highest score first.
	Results []*ScoredMemory

	// Error is the error returned by the operation (nil if operation succeeded).
	Error error
}

// AsyncMemoriesResult contains the result of an asynchronous listing
// operation.
type AsyncMemoriesResult struct {
	// Memories is the list of memories, newest first.
	Memories []*MemoryRecord

	// Error is the error returned by the operation (nil if operation succeeded).
	Error error
}
