package storage

import (
	"context"
	"io"

	"go.uber.org/zap"
)

// DegradedWarning records a backend that failed while the chain still
// succeeded further down. It is diagnostic, not an error: callers surface
// it in logs and response metadata but the operation proceeds.
type DegradedWarning struct {
	Strategy string
	Err      error
}

// ChainResult describes where the chain placed an artifact
type ChainResult struct {
	// Strategy that accepted the bytes
	Strategy string
	// Locator for the winning strategy
	Locator string
	// InlineURI is always computed so the artifact survives total backend
	// loss; it equals Locator when the inline strategy won
	InlineURI string
	// Warnings from backends that were tried and failed
	Warnings []DegradedWarning
}

// Chain tries each configured backend in order and stops at the first
// success. The inline strategy closes the chain and cannot fail, so Store
// always yields a usable locator.
type Chain struct {
	strategies []Strategy
	inline     *InlineStrategy
	logger     *zap.Logger
}

// NewChain builds a chain over the given backends, in priority order.
// The inline terminator is appended implicitly.
func NewChain(logger *zap.Logger, strategies ...Strategy) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{
		strategies: strategies,
		inline:     NewInlineStrategy(),
		logger:     logger,
	}
}

// Store walks the chain until a backend accepts the data
func (c *Chain) Store(ctx context.Context, key string, data []byte, contentType string) (*ChainResult, error) {
	inlineURI, err := c.inline.Store(ctx, key, data, contentType)
	if err != nil {
		return nil, err
	}

	result := &ChainResult{InlineURI: inlineURI}

	for _, strategy := range c.strategies {
		locator, err := strategy.Store(ctx, key, data, contentType)
		if err != nil {
			c.logger.Warn("artifact storage degraded",
				zap.String("strategy", strategy.Name()),
				zap.String("key", key),
				zap.Error(err))
			result.Warnings = append(result.Warnings, DegradedWarning{
				Strategy: strategy.Name(),
				Err:      err,
			})
			continue
		}
		result.Strategy = strategy.Name()
		result.Locator = locator
		return result, nil
	}

	// Every real backend failed; the inline copy carries the artifact
	result.Strategy = c.inline.Name()
	result.Locator = inlineURI
	return result, nil
}

// Open streams an artifact back from the strategy that stored it
func (c *Chain) Open(ctx context.Context, strategyName, key string) (io.ReadCloser, error) {
	strategy, err := c.find(strategyName)
	if err != nil {
		return nil, err
	}
	return strategy.Open(ctx, key)
}

// Delete removes an artifact from the strategy that stored it
func (c *Chain) Delete(ctx context.Context, strategyName, key string) error {
	strategy, err := c.find(strategyName)
	if err != nil {
		return err
	}
	return strategy.Delete(ctx, key)
}

func (c *Chain) find(name string) (Strategy, error) {
	if name == c.inline.Name() {
		return c.inline, nil
	}
	for _, strategy := range c.strategies {
		if strategy.Name() == name {
			return strategy, nil
		}
	}
	return nil, NewStorageError(name, "unknown storage strategy", nil)
}
