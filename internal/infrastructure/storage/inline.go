package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"strings"
)

// InlineStrategy encodes the artifact as a base64 data URI. It never fails,
// so it terminates the fallback chain: even with every real backend down the
// artifact stays reachable through its own locator.
type InlineStrategy struct{}

// NewInlineStrategy creates the inline backend
func NewInlineStrategy() *InlineStrategy {
	return &InlineStrategy{}
}

// Name identifies the strategy
func (s *InlineStrategy) Name() string {
	return StrategyInline
}

// Store encodes the data as a data URI; the locator carries the bytes
func (s *InlineStrategy) Store(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", NewStorageError(StrategyInline, "data is empty", nil)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Open is not key-addressable for inline artifacts; use DecodeDataURI on
// the locator instead
func (s *InlineStrategy) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, NewStorageError(StrategyInline, "inline artifacts are read from their locator", nil)
}

// Delete is a no-op; the bytes live in the locator itself
func (s *InlineStrategy) Delete(ctx context.Context, key string) error {
	return nil
}

// DecodeDataURI extracts the raw bytes from an inline locator
func DecodeDataURI(locator string) ([]byte, error) {
	idx := strings.Index(locator, ",")
	if idx == -1 || !strings.HasPrefix(locator, "data:") {
		return nil, NewStorageError(StrategyInline, "invalid data URI", nil)
	}
	data, err := base64.StdEncoding.DecodeString(locator[idx+1:])
	if err != nil {
		return nil, NewStorageError(StrategyInline, "failed to decode data URI", err)
	}
	return data, nil
}

// DataURIReader returns a reader over the bytes of an inline locator
func DataURIReader(locator string) (io.ReadCloser, error) {
	data, err := DecodeDataURI(locator)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Ensure InlineStrategy implements Strategy
var _ Strategy = (*InlineStrategy)(nil)
