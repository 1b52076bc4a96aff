package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leadcrm/backend/internal/domain/document"
	"github.com/leadcrm/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormDocumentRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormDocumentRepository(db)
	ctx := context.Background()

	ownerID := uuid.New()

	first, err := document.NewDocument(document.CategoryQuote, ownerID,
		"quotes/Q2026-0001.pdf", "local", "Quote Q2026-0001", 2048)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))

	second, err := document.NewDocument(document.CategoryQuote, ownerID,
		"quotes/Q2026-0001-v2.pdf", "s3", "Quote Q2026-0001 revision", 4096)
	require.NoError(t, err)
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, repo.Save(ctx, second))

	t.Run("find by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "quotes/Q2026-0001.pdf", found.Locator)
		assert.Equal(t, int64(2048), found.SizeBytes)
	})

	t.Run("find by owner lists newest first", func(t *testing.T) {
		docs, err := repo.FindByOwner(ctx, document.CategoryQuote, ownerID)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, second.ID, docs[0].ID)
		assert.Equal(t, first.ID, docs[1].ID)
	})

	t.Run("unknown owner yields empty list", func(t *testing.T) {
		docs, err := repo.FindByOwner(ctx, document.CategoryQuote, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("delete removes the entry", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, first.ID))
		_, err := repo.FindByID(ctx, first.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, first.ID), shared.ErrNotFound)
	})
}
