package sequence

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuoteSequenceModel is the counter row backing quote numbers, one per year
type QuoteSequenceModel struct {
	Year  int `gorm:"primaryKey"`
	Value int `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (QuoteSequenceModel) TableName() string {
	return "quote_sequences"
}

// GormAllocator allocates sequence values from a counter table. The
// increment runs in a transaction: the UPDATE takes the row lock, so two
// concurrent creations serialize on the counter row instead of racing a
// count.
type GormAllocator struct {
	db *gorm.DB
}

// NewGormAllocator creates a database-backed allocator
func NewGormAllocator(db *gorm.DB) *GormAllocator {
	return &GormAllocator{db: db}
}

// Next atomically increments and returns the sequence for the given year
func (a *GormAllocator) Next(ctx context.Context, year int) (int, error) {
	var next int
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Ensure the counter row exists before incrementing it
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&QuoteSequenceModel{Year: year, Value: 0}).Error; err != nil {
			return err
		}

		if err := tx.Model(&QuoteSequenceModel{}).
			Where("year = ?", year).
			UpdateColumn("value", gorm.Expr("value + 1")).Error; err != nil {
			return err
		}

		var row QuoteSequenceModel
		if err := tx.First(&row, "year = ?", year).Error; err != nil {
			return err
		}
		next = row.Value
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to increment quote sequence: %w", err)
	}
	return next, nil
}
