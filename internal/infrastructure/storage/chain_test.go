package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStrategy always rejects stores, simulating a backend outage
type failingStrategy struct {
	name  string
	calls int
}

func (s *failingStrategy) Name() string { return s.name }

func (s *failingStrategy) Store(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.calls++
	return "", NewStorageError(s.name, "backend unavailable", errors.New("connection refused"))
}

func (s *failingStrategy) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, NewStorageError(s.name, "backend unavailable", nil)
}

func (s *failingStrategy) Delete(ctx context.Context, key string) error {
	return nil
}

// recordingStrategy accepts stores and remembers what it got
type recordingStrategy struct {
	name   string
	stored map[string][]byte
	calls  int
}

func newRecordingStrategy(name string) *recordingStrategy {
	return &recordingStrategy{name: name, stored: make(map[string][]byte)}
}

func (s *recordingStrategy) Name() string { return s.name }

func (s *recordingStrategy) Store(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.calls++
	s.stored[key] = data
	return "https://cdn.example/" + key, nil
}

func (s *recordingStrategy) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, NewStorageError(s.name, "not implemented", nil)
}

func (s *recordingStrategy) Delete(ctx context.Context, key string) error {
	delete(s.stored, key)
	return nil
}

func TestChain_Store(t *testing.T) {
	ctx := context.Background()
	data := []byte("%PDF-1.4 test")

	t.Run("first success wins and later backends are skipped", func(t *testing.T) {
		primary := newRecordingStrategy("s3")
		secondary := newRecordingStrategy("local")
		chain := NewChain(nil, primary, secondary)

		result, err := chain.Store(ctx, "quotes/a.pdf", data, "application/pdf")
		require.NoError(t, err)

		assert.Equal(t, "s3", result.Strategy)
		assert.Equal(t, "https://cdn.example/quotes/a.pdf", result.Locator)
		assert.Equal(t, 1, primary.calls)
		assert.Equal(t, 0, secondary.calls)
		assert.Empty(t, result.Warnings)
	})

	t.Run("failure falls through with a warning", func(t *testing.T) {
		broken := &failingStrategy{name: "s3"}
		fallback := newRecordingStrategy("local")
		chain := NewChain(nil, broken, fallback)

		result, err := chain.Store(ctx, "quotes/b.pdf", data, "application/pdf")
		require.NoError(t, err)

		assert.Equal(t, "local", result.Strategy)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, "s3", result.Warnings[0].Strategy)
		assert.Error(t, result.Warnings[0].Err)
	})

	t.Run("inline terminates the chain when everything fails", func(t *testing.T) {
		chain := NewChain(nil, &failingStrategy{name: "s3"}, &failingStrategy{name: "local"})

		result, err := chain.Store(ctx, "quotes/c.pdf", data, "application/pdf")
		require.NoError(t, err)

		assert.Equal(t, StrategyInline, result.Strategy)
		assert.Equal(t, result.InlineURI, result.Locator)
		assert.Len(t, result.Warnings, 2)

		decoded, err := DecodeDataURI(result.Locator)
		require.NoError(t, err)
		assert.Equal(t, data, decoded)
	})

	t.Run("inline URI is computed even when a real backend wins", func(t *testing.T) {
		chain := NewChain(nil, newRecordingStrategy("s3"))

		result, err := chain.Store(ctx, "quotes/d.pdf", data, "application/pdf")
		require.NoError(t, err)

		assert.Equal(t, "s3", result.Strategy)
		require.NotEmpty(t, result.InlineURI)
		decoded, err := DecodeDataURI(result.InlineURI)
		require.NoError(t, err)
		assert.Equal(t, data, decoded)
	})

	t.Run("empty data is rejected", func(t *testing.T) {
		chain := NewChain(nil, newRecordingStrategy("s3"))
		_, err := chain.Store(ctx, "quotes/e.pdf", nil, "application/pdf")
		assert.Error(t, err)
	})
}

func TestChain_Dispatch(t *testing.T) {
	ctx := context.Background()
	backend := newRecordingStrategy("local")
	chain := NewChain(nil, backend)

	_, err := chain.Store(ctx, "quotes/a.pdf", []byte("x"), "application/pdf")
	require.NoError(t, err)

	t.Run("delete routes to the owning strategy", func(t *testing.T) {
		require.NoError(t, chain.Delete(ctx, "local", "quotes/a.pdf"))
		assert.Empty(t, backend.stored)
	})

	t.Run("inline delete is a no-op", func(t *testing.T) {
		assert.NoError(t, chain.Delete(ctx, StrategyInline, "quotes/a.pdf"))
	})

	t.Run("unknown strategy is an error", func(t *testing.T) {
		err := chain.Delete(ctx, "tape", "quotes/a.pdf")
		assert.Error(t, err)
		_, err = chain.Open(ctx, "tape", "quotes/a.pdf")
		assert.Error(t, err)
	})
}

func TestInlineStrategy(t *testing.T) {
	ctx := context.Background()
	inline := NewInlineStrategy()

	locator, err := inline.Store(ctx, "ignored", []byte("hello"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "data:application/pdf;base64,aGVsbG8=", locator)

	decoded, err := DecodeDataURI(locator)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), decoded)

	reader, err := DataURIReader(locator)
	require.NoError(t, err)
	defer reader.Close()
	raw, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), raw)

	t.Run("rejects malformed URIs", func(t *testing.T) {
		_, err := DecodeDataURI("https://example.com/a.pdf")
		assert.Error(t, err)
		_, err = DecodeDataURI("data:application/pdf;base64,!!!")
		assert.Error(t, err)
	})
}
