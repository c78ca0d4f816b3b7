package repository

import (
	"context"
	"strings"
	"time"

	"freightops/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShipmentFilter narrows shipment listings. Nil fields are not applied.
type ShipmentFilter struct {
	Search     string
	Delivered  *bool
	BilityDate *time.Time // whole UTC day
	VehicleID  *uuid.UUID
	Page       int
	Limit      int
}

type ShipmentRepository interface {
	Create(ctx context.Context, shipment *model.Shipment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Shipment, error)
	FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]model.Shipment, error)
	ExistsByBilityNumber(ctx context.Context, bilityNumber string) (bool, error)
	List(ctx context.Context, filter ShipmentFilter) ([]model.Shipment, int64, error)
	FindByVehicleAndDate(ctx context.Context, vehicleID uuid.UUID, day time.Time) ([]model.Shipment, error)
	SetDeliveryDate(ctx context.Context, id uuid.UUID, date time.Time) error
}

type shipmentRepository struct {
	db *gorm.DB
}

func NewShipmentRepository(db *gorm.DB) ShipmentRepository {
	return &shipmentRepository{db: db}
}

// Create inserts the shipment together with its goods lines.
func (r *shipmentRepository) Create(ctx context.Context, shipment *model.Shipment) error {
	return GetDB(ctx, r.db).Omit("Sender", "Receiver", "DepartureCity", "DestinationCity", "Vehicle").Create(shipment).Error
}

func (r *shipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Shipment, error) {
	var shipment model.Shipment
	if err := GetDB(ctx, r.db).
		Preload("Goods").
		Preload("Sender").
		Preload("Receiver").
		Preload("DepartureCity").
		Preload("DestinationCity").
		Preload("Vehicle").
		First(&shipment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *shipmentRepository) FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]model.Shipment, error) {
	var shipments []model.Shipment
	if err := forUpdate(GetDB(ctx, r.db)).
		Where("id IN ?", ids).
		Order("id").
		Find(&shipments).Error; err != nil {
		return nil, err
	}
	return shipments, nil
}

func (r *shipmentRepository) ExistsByBilityNumber(ctx context.Context, bilityNumber string) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Shipment{}).Where("bility_number = ?", bilityNumber).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// shipmentSearchSQL matches numbers, walk-in names and linked party names
const shipmentSearchSQL = `(LOWER(register_number) LIKE ? OR LOWER(bility_number) LIKE ?
OR LOWER(sender_name) LIKE ? OR LOWER(receiver_name) LIKE ?
OR sender_id IN (SELECT id FROM parties WHERE LOWER(name) LIKE ?)
OR receiver_id IN (SELECT id FROM parties WHERE LOWER(name) LIKE ?))`

func (r *shipmentRepository) List(ctx context.Context, filter ShipmentFilter) ([]model.Shipment, int64, error) {
	var shipments []model.Shipment
	var total int64

	db := GetDB(ctx, r.db)
	apply := func(q *gorm.DB) *gorm.DB {
		if filter.Search != "" {
			like := "%" + strings.ToLower(filter.Search) + "%"
			q = q.Where(shipmentSearchSQL, like, like, like, like, like, like)
		}
		if filter.Delivered != nil {
			if *filter.Delivered {
				q = q.Where("delivery_date IS NOT NULL")
			} else {
				q = q.Where("delivery_date IS NULL")
			}
		}
		if filter.BilityDate != nil {
			start, end := DayBounds(*filter.BilityDate)
			q = q.Where("bility_date >= ? AND bility_date <= ?", start, end)
		}
		if filter.VehicleID != nil {
			q = q.Where("vehicle_id = ?", *filter.VehicleID)
		}
		return q
	}

	if err := apply(db.Model(&model.Shipment{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := apply(db.Preload("Goods").Preload("Sender").Preload("Receiver")).
		Order("bility_date desc, register_number desc").
		Offset(offset).Limit(filter.Limit).
		Find(&shipments).Error; err != nil {
		return nil, 0, err
	}

	return shipments, total, nil
}

// FindByVehicleAndDate returns the shipments a vehicle carried on the given
// bility day, with goods and receiver loaded for trip prefill.
func (r *shipmentRepository) FindByVehicleAndDate(ctx context.Context, vehicleID uuid.UUID, day time.Time) ([]model.Shipment, error) {
	var shipments []model.Shipment
	start, end := DayBounds(day)
	if err := GetDB(ctx, r.db).
		Preload("Goods").
		Preload("Receiver").
		Where("vehicle_id = ? AND bility_date >= ? AND bility_date <= ?", vehicleID, start, end).
		Order("register_number").
		Find(&shipments).Error; err != nil {
		return nil, err
	}
	return shipments, nil
}

func (r *shipmentRepository) SetDeliveryDate(ctx context.Context, id uuid.UUID, date time.Time) error {
	res := GetDB(ctx, r.db).Model(&model.Shipment{}).Where("id = ?", id).Update("delivery_date", date)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DayBounds returns the first and last millisecond of t's UTC calendar day.
func DayBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Millisecond)
	return start, end
}

// MonthBounds returns the half-open UTC calendar month [start, next) containing t.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
