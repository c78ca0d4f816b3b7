package repository

import (
	"context"

	"freightops/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionRepository stores party ledger rows. Rows are never updated.
type TransactionRepository interface {
	Create(ctx context.Context, txn *model.Transaction) error
	ListByParty(ctx context.Context, partyID uuid.UUID) ([]model.Transaction, error)
	CountByShipmentRole(ctx context.Context, shipmentID uuid.UUID, role string) (int64, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, txn *model.Transaction) error {
	return GetDB(ctx, r.db).Omit("Party").Create(txn).Error
}

// ListByParty returns the party's rows in ledger order.
func (r *transactionRepository) ListByParty(ctx context.Context, partyID uuid.UUID) ([]model.Transaction, error) {
	var txns []model.Transaction
	if err := GetDB(ctx, r.db).
		Where("party_id = ?", partyID).
		Order("transaction_date, created_at").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// CountByShipmentRole counts the rows posted against a shipment for one party role.
func (r *transactionRepository) CountByShipmentRole(ctx context.Context, shipmentID uuid.UUID, role string) (int64, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Transaction{}).
		Where("shipment_id = ? AND party_role = ?", shipmentID, role).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
