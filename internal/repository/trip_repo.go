package repository

import (
	"context"
	"time"

	"freightops/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TripFilter narrows trip listings. Nil fields are not applied.
type TripFilter struct {
	VehicleID *uuid.UUID
	From      *time.Time
	To        *time.Time
	Page      int
	Limit     int
}

type TripRepository interface {
	Create(ctx context.Context, trip *model.TripLog) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TripLog, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.TripLog, error)
	List(ctx context.Context, filter TripFilter) ([]model.TripLog, int64, error)
	MarkFarePaid(ctx context.Context, id uuid.UUID) (bool, error)
	LatestFareStatus(ctx context.Context) (map[uuid.UUID]bool, error)
}

type tripRepository struct {
	db *gorm.DB
}

func NewTripRepository(db *gorm.DB) TripRepository {
	return &tripRepository{db: db}
}

// Create inserts the trip together with its shipment lines.
func (r *tripRepository) Create(ctx context.Context, trip *model.TripLog) error {
	return GetDB(ctx, r.db).Omit("Vehicle").Create(trip).Error
}

func (r *tripRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TripLog, error) {
	var trip model.TripLog
	if err := GetDB(ctx, r.db).Preload("Lines").Preload("Vehicle").First(&trip, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &trip, nil
}

func (r *tripRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.TripLog, error) {
	var trip model.TripLog
	if err := forUpdate(GetDB(ctx, r.db)).Where("id = ?", id).First(&trip).Error; err != nil {
		return nil, err
	}
	return &trip, nil
}

func (r *tripRepository) List(ctx context.Context, filter TripFilter) ([]model.TripLog, int64, error) {
	var trips []model.TripLog
	var total int64

	db := GetDB(ctx, r.db)
	apply := func(q *gorm.DB) *gorm.DB {
		if filter.VehicleID != nil {
			q = q.Where("vehicle_id = ?", *filter.VehicleID)
		}
		if filter.From != nil {
			q = q.Where("trip_date >= ?", *filter.From)
		}
		if filter.To != nil {
			q = q.Where("trip_date <= ?", *filter.To)
		}
		return q
	}

	if err := apply(db.Model(&model.TripLog{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := apply(db.Preload("Vehicle")).
		Order("trip_date desc, created_at desc").
		Offset(offset).Limit(filter.Limit).
		Find(&trips).Error; err != nil {
		return nil, 0, err
	}

	return trips, total, nil
}

// MarkFarePaid flips fare_is_paid and reports false when it was already set.
func (r *tripRepository) MarkFarePaid(ctx context.Context, id uuid.UUID) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.TripLog{}).
		Where("id = ? AND fare_is_paid = ?", id, false).
		Update("fare_is_paid", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// latestTripSQL keeps only the newest trip of each vehicle: a row survives
// when no trip of the same vehicle is later by date, then by creation time.
const latestTripSQL = `NOT EXISTS (
	SELECT 1 FROM trip_logs newer
	WHERE newer.vehicle_id = trip_logs.vehicle_id
	AND (newer.trip_date > trip_logs.trip_date
		OR (newer.trip_date = trip_logs.trip_date AND newer.created_at > trip_logs.created_at)))`

// LatestFareStatus maps each vehicle to the fare_is_paid flag of its most recent trip.
func (r *tripRepository) LatestFareStatus(ctx context.Context) (map[uuid.UUID]bool, error) {
	var rows []struct {
		VehicleID  uuid.UUID
		FareIsPaid bool
	}
	if err := GetDB(ctx, r.db).Model(&model.TripLog{}).
		Select("trip_logs.vehicle_id, trip_logs.fare_is_paid").
		Where(latestTripSQL).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	status := make(map[uuid.UUID]bool, len(rows))
	for _, row := range rows {
		if _, seen := status[row.VehicleID]; !seen {
			status[row.VehicleID] = row.FareIsPaid
		}
	}
	return status, nil
}
