// Package core provides the main PersonaMem client and memory lifecycle
// operations.
package core

import (
	"errors"
	"fmt"

	"github.com/luminalabs/personamem-go/pkg/retrieval"
)

// Predefined errors for common failure scenarios.
var (
	// ErrNotFound indicates that a requested memory or persona was not found.
	ErrNotFound = errors.New("memory not found")

	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates that a connection to the storage backend failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrInvalidInput indicates that the provided input is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorageOperation indicates that a storage operation failed.
	ErrStorageOperation = errors.New("storage operation failed")

	// ErrLLMOperation indicates that an LLM operation failed.
	ErrLLMOperation = errors.New("llm operation failed")

	// ErrEmbeddingFailed indicates that query embedding failed during search.
	// Aliased from the retrieval package so callers can match either.
	ErrEmbeddingFailed = retrieval.ErrEmbeddingFailed

	// ErrWarmupFailed indicates that store warm-up failed before search.
	// Aliased from the retrieval package so callers can match either.
	ErrWarmupFailed = retrieval.ErrWarmupFailed
)

// MemoryError wraps errors with operation context.
//
// It provides additional context about which operation failed,
// making error messages more informative for debugging.
//
// Example:
//
//	err := &MemoryError{
//	    Op:  "CreateMemory",
//	    Err: ErrConnectionFailed,
//	}
//	// Error() returns: "personamem: CreateMemory: connection failed"
type MemoryError struct {
	// Op is the name of the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error returns a formatted error message.
//
// The format is: "personamem: <Op>: <Err>"
func (e *MemoryError) Error() string {
	return fmt.Sprintf("personamem: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
//
// This allows using errors.Is() and errors.As() with MemoryError.
func (e *MemoryError) Unwrap() error {
	return e.Err
}

// NewMemoryError creates a new MemoryError wrapping the given error.
//
// If err is nil, returns nil. This allows safe error wrapping:
//
//	if err != nil {
//	    return NewMemoryError("CreateMemory", err)
//	}
//
// Parameters:
//   - op: Name of the operation (e.g., "CreateMemory", "Search")
//   - err: The underlying error to wrap
//
// Returns a MemoryError, or nil if err is nil.
func NewMemoryError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &MemoryError{
		Op:  op,
		Err: err,
	}
}
