package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leadcrm/backend/internal/domain/quote"
	"github.com/leadcrm/backend/internal/domain/shared"
	"github.com/leadcrm/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.QuoteModel{},
		&models.DocumentModel{},
	))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	return db
}

func newTestQuote(t *testing.T, projectID *uuid.UUID) *quote.Quote {
	t.Helper()
	q, err := quote.NewQuote(quote.NewQuoteInput{
		ClientID:  uuid.New(),
		ProjectID: projectID,
		BusinessInfo: quote.BusinessInfo{
			Name:     "Acme Studio",
			Currency: "₪",
		},
		ClientInfo: quote.ClientInfo{
			Name:  "Dana",
			Email: "dana@example.com",
		},
		Items: []quote.LineItem{
			{
				Name:      "Discovery workshop",
				Quantity:  decimal.NewFromInt(2),
				UnitPrice: decimal.NewFromInt(100),
			},
		},
		IncludeVAT: true,
		VATRate:    decimal.NewFromInt(17),
	})
	require.NoError(t, err)
	return q
}

func TestGormQuoteRepository_SaveAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormQuoteRepository(db)
	ctx := context.Background()

	q := newTestQuote(t, nil)
	require.NoError(t, q.AssignIdentity("Q2026-0001", 1))
	require.NoError(t, repo.Save(ctx, q))

	t.Run("find by id restores the full aggregate", func(t *testing.T) {
		found, err := repo.FindByID(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, "Q2026-0001", found.QuoteNumber)
		assert.Equal(t, quote.QuoteStatusDraft, found.Status)
		require.Len(t, found.Items, 1)
		assert.Equal(t, "Discovery workshop", found.Items[0].Name)
		assert.True(t, found.Items[0].TotalPrice.Equal(decimal.NewFromInt(200)))
		assert.True(t, found.Total.Equal(decimal.NewFromInt(234)))
		assert.Equal(t, "₪", found.BusinessInfo.Currency)
	})

	t.Run("find by number", func(t *testing.T) {
		found, err := repo.FindByNumber(ctx, "Q2026-0001")
		require.NoError(t, err)
		assert.Equal(t, q.ID, found.ID)
	})

	t.Run("missing quote yields not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)

		_, err = repo.FindByNumber(ctx, "Q2026-9999")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("duplicate quote number is rejected", func(t *testing.T) {
		dup := newTestQuote(t, nil)
		require.NoError(t, dup.AssignIdentity("Q2026-0001", 1))
		err := repo.Save(ctx, dup)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})
}

func TestGormQuoteRepository_Update(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormQuoteRepository(db)
	ctx := context.Background()

	q := newTestQuote(t, nil)
	require.NoError(t, q.AssignIdentity("Q2026-0001", 1))
	require.NoError(t, repo.Save(ctx, q))

	t.Run("persists mutated fields", func(t *testing.T) {
		notes := "Payment due in 14 days"
		discount := decimal.NewFromInt(10)
		require.NoError(t, q.Apply(quote.UpdatePatch{
			Notes:    &notes,
			Discount: &discount,
		}))
		require.NoError(t, repo.Update(ctx, q))

		found, err := repo.FindByID(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, notes, found.Notes)
		assert.True(t, found.Discount.Equal(discount))
		assert.True(t, found.Total.Equal(decimal.NewFromFloat(210.6)))
	})

	t.Run("unknown id yields not found", func(t *testing.T) {
		stray := newTestQuote(t, nil)
		require.NoError(t, stray.AssignIdentity("Q2026-0002", 1))
		err := repo.Update(ctx, stray)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormQuoteRepository_FindAll(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormQuoteRepository(db)
	ctx := context.Background()

	projectID := uuid.New()
	for i := 1; i <= 3; i++ {
		var pid *uuid.UUID
		if i <= 2 {
			pid = &projectID
		}
		q := newTestQuote(t, pid)
		require.NoError(t, q.AssignIdentity(fmt.Sprintf("Q2026-%04d", i), i))
		if i == 3 {
			require.NoError(t, q.SetStatus(quote.QuoteStatusSent))
		}
		require.NoError(t, repo.Save(ctx, q))
	}

	t.Run("no filter returns everything", func(t *testing.T) {
		quotes, err := repo.FindAll(ctx, quote.QuoteFilter{})
		require.NoError(t, err)
		assert.Len(t, quotes, 3)

		count, err := repo.Count(ctx, quote.QuoteFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("filter by status", func(t *testing.T) {
		sent := quote.QuoteStatusSent
		quotes, err := repo.FindAll(ctx, quote.QuoteFilter{Status: &sent})
		require.NoError(t, err)
		require.Len(t, quotes, 1)
		assert.Equal(t, "Q2026-0003", quotes[0].QuoteNumber)
	})

	t.Run("filter by project", func(t *testing.T) {
		quotes, err := repo.FindAll(ctx, quote.QuoteFilter{ProjectID: &projectID})
		require.NoError(t, err)
		assert.Len(t, quotes, 2)
	})

	t.Run("search matches quote number", func(t *testing.T) {
		filter := quote.QuoteFilter{}
		filter.Search = "0002"
		quotes, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, quotes, 1)
		assert.Equal(t, "Q2026-0002", quotes[0].QuoteNumber)
	})

	t.Run("pagination", func(t *testing.T) {
		filter := quote.QuoteFilter{}
		filter.Page = 2
		filter.PageSize = 2
		quotes, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Len(t, quotes, 1)
	})

	t.Run("ordering whitelist falls back to created_at", func(t *testing.T) {
		filter := quote.QuoteFilter{}
		filter.OrderBy = "quote_number; DROP TABLE quotes"
		_, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
	})
}

func TestGormQuoteRepository_Delete(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormQuoteRepository(db)
	ctx := context.Background()

	q := newTestQuote(t, nil)
	require.NoError(t, q.AssignIdentity("Q2026-0001", 1))
	require.NoError(t, repo.Save(ctx, q))

	require.NoError(t, repo.Delete(ctx, q.ID))

	_, err := repo.FindByID(ctx, q.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = repo.FindByNumber(ctx, "Q2026-0001")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, q.ID), shared.ErrNotFound)
}

func TestGormQuoteRepository_NextVersionForProject(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormQuoteRepository(db)
	ctx := context.Background()

	projectID := uuid.New()

	version, err := repo.NextVersionForProject(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	q := newTestQuote(t, &projectID)
	require.NoError(t, q.AssignIdentity("Q2026-0001", version))
	require.NoError(t, repo.Save(ctx, q))

	version, err = repo.NextVersionForProject(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	other, err := repo.NextVersionForProject(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 1, other)
}

func TestGormQuoteRepository_ExpireOverdue(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormQuoteRepository(db)
	ctx := context.Background()

	now := time.Now()
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	overdue := newTestQuote(t, nil)
	overdue.ValidUntil = &past
	require.NoError(t, overdue.SetStatus(quote.QuoteStatusSent))
	require.NoError(t, overdue.AssignIdentity("Q2026-0001", 1))
	require.NoError(t, repo.Save(ctx, overdue))

	accepted := newTestQuote(t, nil)
	accepted.ValidUntil = &past
	require.NoError(t, accepted.SetStatus(quote.QuoteStatusAccepted))
	require.NoError(t, accepted.AssignIdentity("Q2026-0002", 1))
	require.NoError(t, repo.Save(ctx, accepted))

	current := newTestQuote(t, nil)
	current.ValidUntil = &future
	require.NoError(t, current.AssignIdentity("Q2026-0003", 1))
	require.NoError(t, repo.Save(ctx, current))

	affected, err := repo.ExpireOverdue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	found, err := repo.FindByID(ctx, overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, quote.QuoteStatusExpired, found.Status)

	found, err = repo.FindByID(ctx, accepted.ID)
	require.NoError(t, err)
	assert.Equal(t, quote.QuoteStatusAccepted, found.Status)

	found, err = repo.FindByID(ctx, current.ID)
	require.NoError(t, err)
	assert.Equal(t, quote.QuoteStatusDraft, found.Status)
}
