package repository

import (
	"context"
	"time"

	"freightops/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeliveryFilter narrows delivery listings. Zero values are not applied.
type DeliveryFilter struct {
	Status     string
	ShipmentID *uuid.UUID
	Page       int
	Limit      int
}

type DeliveryRepository interface {
	Create(ctx context.Context, delivery *model.Delivery) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Delivery, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Delivery, error)
	FindByShipmentID(ctx context.Context, shipmentID uuid.UUID) (*model.Delivery, error)
	ExistsForShipment(ctx context.Context, shipmentID uuid.UUID) (bool, error)
	List(ctx context.Context, filter DeliveryFilter) ([]model.Delivery, int64, error)
	ListApprovedBetween(ctx context.Context, status string, start, end time.Time) ([]model.Delivery, error)
	Update(ctx context.Context, delivery *model.Delivery) error
}

type deliveryRepository struct {
	db *gorm.DB
}

func NewDeliveryRepository(db *gorm.DB) DeliveryRepository {
	return &deliveryRepository{db: db}
}

func (r *deliveryRepository) Create(ctx context.Context, delivery *model.Delivery) error {
	return GetDB(ctx, r.db).Omit("Shipment", "LabourAssignment", "Approver").Create(delivery).Error
}

func (r *deliveryRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Delivery, error) {
	var delivery model.Delivery
	if err := GetDB(ctx, r.db).Preload("Shipment").Preload("Approver").First(&delivery, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &delivery, nil
}

func (r *deliveryRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Delivery, error) {
	var delivery model.Delivery
	if err := forUpdate(GetDB(ctx, r.db)).Where("id = ?", id).First(&delivery).Error; err != nil {
		return nil, err
	}
	return &delivery, nil
}

func (r *deliveryRepository) FindByShipmentID(ctx context.Context, shipmentID uuid.UUID) (*model.Delivery, error) {
	var delivery model.Delivery
	if err := GetDB(ctx, r.db).Where("shipment_id = ?", shipmentID).First(&delivery).Error; err != nil {
		return nil, err
	}
	return &delivery, nil
}

func (r *deliveryRepository) ExistsForShipment(ctx context.Context, shipmentID uuid.UUID) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Delivery{}).Where("shipment_id = ?", shipmentID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *deliveryRepository) List(ctx context.Context, filter DeliveryFilter) ([]model.Delivery, int64, error) {
	var deliveries []model.Delivery
	var total int64

	db := GetDB(ctx, r.db)
	apply := func(q *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			q = q.Where("approval_status = ?", filter.Status)
		}
		if filter.ShipmentID != nil {
			q = q.Where("shipment_id = ?", *filter.ShipmentID)
		}
		return q
	}

	if err := apply(db.Model(&model.Delivery{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := apply(db.Preload("Shipment").Preload("Approver")).
		Order("delivery_date desc, created_at desc").
		Offset(offset).Limit(filter.Limit).
		Find(&deliveries).Error; err != nil {
		return nil, 0, err
	}

	return deliveries, total, nil
}

// ListApprovedBetween filters on approved_at, not on delivery_date.
func (r *deliveryRepository) ListApprovedBetween(ctx context.Context, status string, start, end time.Time) ([]model.Delivery, error) {
	var deliveries []model.Delivery
	if err := GetDB(ctx, r.db).
		Preload("Shipment").
		Preload("Approver").
		Where("approval_status = ? AND approved_at >= ? AND approved_at <= ?", status, start, end).
		Order("approved_at").
		Find(&deliveries).Error; err != nil {
		return nil, err
	}
	return deliveries, nil
}

func (r *deliveryRepository) Update(ctx context.Context, delivery *model.Delivery) error {
	return GetDB(ctx, r.db).Omit("Shipment", "LabourAssignment", "Approver").Save(delivery).Error
}
