package repository

import (
	"context"

	"freightops/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VehicleTransactionRepository stores vehicle ledger rows. Rows are never updated.
type VehicleTransactionRepository interface {
	Create(ctx context.Context, txn *model.VehicleTransaction) error
	ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]model.VehicleTransaction, error)
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]model.VehicleTransaction, error)
}

type vehicleTransactionRepository struct {
	db *gorm.DB
}

func NewVehicleTransactionRepository(db *gorm.DB) VehicleTransactionRepository {
	return &vehicleTransactionRepository{db: db}
}

func (r *vehicleTransactionRepository) Create(ctx context.Context, txn *model.VehicleTransaction) error {
	return GetDB(ctx, r.db).Omit("Vehicle").Create(txn).Error
}

// ListByVehicle returns the vehicle's rows in ledger order.
func (r *vehicleTransactionRepository) ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]model.VehicleTransaction, error) {
	var txns []model.VehicleTransaction
	if err := GetDB(ctx, r.db).
		Where("vehicle_id = ?", vehicleID).
		Order("transaction_date, created_at").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *vehicleTransactionRepository) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]model.VehicleTransaction, error) {
	var txns []model.VehicleTransaction
	if err := GetDB(ctx, r.db).
		Where("trip_id = ?", tripID).
		Order("transaction_date, created_at").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}
