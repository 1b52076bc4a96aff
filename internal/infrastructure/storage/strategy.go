// Package storage persists rendered artifacts through an ordered chain of
// backends. Each backend is tried in turn; the first success wins and later
// backends are skipped. Failures degrade the chain instead of failing the
// render.
package storage

import (
	"context"
	"io"
)

// Strategy names as recorded on artifact references
const (
	StrategyS3     = "s3"
	StrategyLocal  = "local"
	StrategyInline = "inline"
)

// Strategy is one storage backend in the fallback chain. Keys are relative
// slash-separated paths like "quotes/2026/<id>.pdf"; the locator returned by
// Store is what clients use to reach the bytes.
type Strategy interface {
	// Name identifies the strategy on stored artifact references
	Name() string
	// Store persists the data under key and returns its locator
	Store(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Open streams back previously stored data
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes stored data; missing data is not an error
	Delete(ctx context.Context, key string) error
}

// StorageError wraps a backend failure with the strategy that produced it
type StorageError struct {
	Strategy string
	Message  string
	Cause    error
}

func (e *StorageError) Error() string {
	if e.Cause != nil {
		return e.Strategy + " storage: " + e.Message + ": " + e.Cause.Error()
	}
	return e.Strategy + " storage: " + e.Message
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError
func NewStorageError(strategy, message string, cause error) *StorageError {
	return &StorageError{Strategy: strategy, Message: message, Cause: cause}
}
