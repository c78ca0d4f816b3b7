package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"freightops/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// nextSequenceSQL increments the period counter and returns the new value in
// one statement. A missing period row is seeded from the shipments already
// registered in that month so numbering continues from legacy data.
const nextSequenceSQL = `INSERT INTO shipment_sequences (period, last_value)
VALUES (?, (SELECT COUNT(*) FROM shipments WHERE bility_date >= ? AND bility_date < ?) + 1)
ON CONFLICT (period) DO UPDATE SET last_value = shipment_sequences.last_value + 1
RETURNING last_value`

// SequenceRepository allocates monthly register numbers.
type SequenceRepository interface {
	Next(ctx context.Context, month time.Time) (int64, error)
	Resync(ctx context.Context, month time.Time) error
}

type sequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

// Period formats the sequence key for t's UTC month, e.g. 202503.
func Period(t time.Time) string {
	return t.UTC().Format("200601")
}

func (r *sequenceRepository) Next(ctx context.Context, month time.Time) (int64, error) {
	start, end := MonthBounds(month)
	var next int64
	if err := GetDB(ctx, r.db).Raw(nextSequenceSQL, Period(month), start, end).Scan(&next).Error; err != nil {
		return 0, fmt.Errorf("failed to allocate register number: %w", err)
	}
	if next == 0 {
		return 0, fmt.Errorf("failed to allocate register number: empty result for period %s", Period(month))
	}
	return next, nil
}

// Resync moves the counter up to the highest register number already stored
// for the month. It never moves the counter down.
func (r *sequenceRepository) Resync(ctx context.Context, month time.Time) error {
	period := Period(month)
	db := GetDB(ctx, r.db)

	var numbers []string
	if err := db.Model(&model.Shipment{}).
		Where("register_number LIKE ?", period+"-%").
		Order("LENGTH(register_number) DESC, register_number DESC").
		Limit(1).
		Pluck("register_number", &numbers).Error; err != nil {
		return fmt.Errorf("failed to read highest register number: %w", err)
	}
	if len(numbers) == 0 {
		return nil
	}

	highest, err := strconv.ParseInt(strings.TrimPrefix(numbers[0], period+"-"), 10, 64)
	if err != nil {
		return fmt.Errorf("malformed register number %q: %w", numbers[0], err)
	}

	seq := model.ShipmentSequence{Period: period, LastValue: highest}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "period"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_value"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "shipment_sequences.last_value < excluded.last_value"},
		}},
	}).Create(&seq).Error
}
