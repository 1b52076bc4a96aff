package quote_test

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	app "github.com/leadcrm/backend/internal/application/quote"
	domain "github.com/leadcrm/backend/internal/domain/quote"
	"github.com/leadcrm/backend/internal/domain/shared"
	"github.com/leadcrm/backend/internal/infrastructure/config"
	"github.com/leadcrm/backend/internal/infrastructure/rendering"
	"github.com/leadcrm/backend/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeRenderer returns canned results instead of driving a browser
type fakeRenderer struct {
	result *rendering.RenderResult
	err    error
	calls  int
}

func (r *fakeRenderer) Render(ctx context.Context, req *rendering.RenderRequest) (*rendering.RenderResult, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.result, nil
}

func (r *fakeRenderer) Close() error { return nil }

type renderFixture struct {
	service   *app.RenderService
	quoteRepo *MockQuoteRepository
	docs      *MockDocumentRepository
	renderer  *fakeRenderer
}

// fakeBackend is a remote storage strategy that always accepts the bytes
type fakeBackend struct {
	name string
}

func (b *fakeBackend) Name() string { return b.name }

func (b *fakeBackend) Store(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return "https://cdn.internal/" + key, nil
}

func (b *fakeBackend) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(pdfBytes())), nil
}

func (b *fakeBackend) Delete(ctx context.Context, key string) error { return nil }

func newRenderFixture(t *testing.T, renderer *fakeRenderer, backends ...storage.Strategy) *renderFixture {
	t.Helper()
	engine, err := rendering.NewTemplateEngine()
	require.NoError(t, err)

	f := &renderFixture{
		quoteRepo: new(MockQuoteRepository),
		docs:      new(MockDocumentRepository),
		renderer:  renderer,
	}
	f.service = app.NewRenderService(
		f.quoteRepo,
		f.docs,
		engine,
		renderer,
		storage.NewChain(nil, backends...),
		config.RenderConfig{Timeout: 5 * time.Second, MaxConcurrent: 2},
		1<<20,
		nil,
	)
	return f
}

func pdfBytes() []byte {
	return []byte("%PDF-1.4\n/Type /Pages\n/Type /Page\n%%EOF")
}

func TestRenderService_Render(t *testing.T) {
	ctx := context.Background()

	t.Run("renders, stores and links the artifact", func(t *testing.T) {
		renderer := &fakeRenderer{result: &rendering.RenderResult{PDFData: pdfBytes(), PageCount: 1}}
		f := newRenderFixture(t, renderer)
		q := savedQuote(t)

		f.quoteRepo.On("FindByID", ctx, q.ID).Return(q, nil)
		f.docs.On("Save", ctx, mock.AnythingOfType("*document.Document")).Return(nil)
		f.quoteRepo.On("Update", ctx, q).Return(nil)

		resp, err := f.service.Render(ctx, q.ID)
		require.NoError(t, err)

		// no real backend configured, so the inline strategy carries the bytes
		assert.Equal(t, storage.StrategyInline, resp.Strategy)
		assert.Equal(t, 1, resp.PageCount)
		assert.Equal(t, int64(len(pdfBytes())), resp.SizeBytes)
		assert.Equal(t, resp.Locator, resp.InlineURI)
		assert.Empty(t, resp.Warnings)

		require.NotNil(t, q.Artifact)
		assert.Equal(t, storage.StrategyInline, q.Artifact.Strategy)
		require.NotNil(t, q.Artifact.StorageID)
		assert.Equal(t, q.Artifact.StorageID.String(), resp.DocumentID)

		f.docs.AssertExpectations(t)
		f.quoteRepo.AssertExpectations(t)
	})

	t.Run("inline preview accompanies a remote locator", func(t *testing.T) {
		renderer := &fakeRenderer{result: &rendering.RenderResult{PDFData: pdfBytes(), PageCount: 1}}
		f := newRenderFixture(t, renderer, &fakeBackend{name: storage.StrategyS3})
		q := savedQuote(t)

		f.quoteRepo.On("FindByID", ctx, q.ID).Return(q, nil)
		f.docs.On("Save", ctx, mock.AnythingOfType("*document.Document")).Return(nil)
		f.quoteRepo.On("Update", ctx, q).Return(nil)

		resp, err := f.service.Render(ctx, q.ID)
		require.NoError(t, err)

		assert.Equal(t, storage.StrategyS3, resp.Strategy)
		assert.Contains(t, resp.Locator, "https://cdn.internal/")
		assert.Contains(t, resp.InlineURI, ";base64,")
		assert.NotEqual(t, resp.Locator, resp.InlineURI)
	})

	t.Run("timeout surfaces as a render timeout error", func(t *testing.T) {
		renderer := &fakeRenderer{
			err: rendering.NewRenderError(rendering.ErrCodeRenderTimeout, "timed out", context.DeadlineExceeded),
		}
		f := newRenderFixture(t, renderer)
		q := savedQuote(t)
		f.quoteRepo.On("FindByID", ctx, q.ID).Return(q, nil)

		_, err := f.service.Render(ctx, q.ID)
		assert.ErrorIs(t, err, shared.ErrRenderTimeout)
		f.docs.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("browser failure surfaces as a render failure", func(t *testing.T) {
		renderer := &fakeRenderer{
			err: rendering.NewRenderError(rendering.ErrCodeRenderFailed, "browser crashed", nil),
		}
		f := newRenderFixture(t, renderer)
		q := savedQuote(t)
		f.quoteRepo.On("FindByID", ctx, q.ID).Return(q, nil)

		_, err := f.service.Render(ctx, q.ID)
		assert.ErrorIs(t, err, shared.ErrRenderFailed)
	})

	t.Run("missing quote is not rendered", func(t *testing.T) {
		renderer := &fakeRenderer{result: &rendering.RenderResult{PDFData: pdfBytes()}}
		f := newRenderFixture(t, renderer)
		id := savedQuote(t).ID
		f.quoteRepo.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

		_, err := f.service.Render(ctx, id)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Equal(t, 0, renderer.calls)
	})
}

func TestRenderService_AttachExternal(t *testing.T) {
	ctx := context.Background()

	t.Run("attaches a valid PDF as the quote artifact", func(t *testing.T) {
		f := newRenderFixture(t, &fakeRenderer{})
		q := savedQuote(t)
		f.quoteRepo.On("FindByID", ctx, q.ID).Return(q, nil)
		f.docs.On("Save", ctx, mock.AnythingOfType("*document.Document")).Return(nil)
		f.quoteRepo.On("Update", ctx, q).Return(nil)

		resp, err := f.service.AttachExternal(ctx, q.ID, pdfBytes())
		require.NoError(t, err)
		assert.Equal(t, storage.StrategyInline, resp.Strategy)
		require.NotNil(t, q.Artifact)
	})

	t.Run("oversized attachments are rejected", func(t *testing.T) {
		f := newRenderFixture(t, &fakeRenderer{})
		q := savedQuote(t)
		f.quoteRepo.On("FindByID", ctx, q.ID).Return(q, nil)

		big := append([]byte("%PDF-"), bytes.Repeat([]byte("a"), 2<<20)...)
		_, err := f.service.AttachExternal(ctx, q.ID, big)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
	})

	t.Run("non-PDF payloads are rejected", func(t *testing.T) {
		f := newRenderFixture(t, &fakeRenderer{})
		q := savedQuote(t)
		f.quoteRepo.On("FindByID", ctx, q.ID).Return(q, nil)

		_, err := f.service.AttachExternal(ctx, q.ID, []byte("<html>not a pdf</html>"))
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
		f.docs.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestRenderService_Download(t *testing.T) {
	ctx := context.Background()

	t.Run("streams an inline artifact", func(t *testing.T) {
		f := newRenderFixture(t, &fakeRenderer{})
		q := savedQuote(t)

		inline := storage.NewInlineStrategy()
		locator, err := inline.Store(ctx, "ignored", pdfBytes(), "application/pdf")
		require.NoError(t, err)
		q.SetArtifact(domain.ArtifactRef{Locator: locator, Strategy: storage.StrategyInline})

		f.quoteRepo.On("FindByID", ctx, q.ID).Return(q, nil)

		reader, filename, err := f.service.Download(ctx, q.ID)
		require.NoError(t, err)
		defer reader.Close()

		assert.Equal(t, "Q2026-0001.pdf", filename)
		data, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, pdfBytes(), data)
	})

	t.Run("quote without artifact yields not found", func(t *testing.T) {
		f := newRenderFixture(t, &fakeRenderer{})
		q := savedQuote(t)
		f.quoteRepo.On("FindByID", ctx, q.ID).Return(q, nil)

		_, _, err := f.service.Download(ctx, q.ID)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NOT_FOUND", domainErr.Code)
	})
}
