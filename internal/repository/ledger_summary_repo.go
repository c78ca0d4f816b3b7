package repository

import (
	"context"
	"fmt"

	"freightops/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VehicleBalanceRow is the credit/debit roll-up of one vehicle's ledger.
type VehicleBalanceRow struct {
	VehicleID     uuid.UUID       `gorm:"column:vehicle_id"`
	VehicleNumber string          `gorm:"column:vehicle_number"`
	TotalCredit   decimal.Decimal `gorm:"column:total_credit"`
	TotalDebit    decimal.Decimal `gorm:"column:total_debit"`
}

// PartyBalanceRow is the credit/debit roll-up of one party's ledger. Walk-in
// parties have a nil PartyID and are grouped by name.
type PartyBalanceRow struct {
	PartyID     *uuid.UUID      `gorm:"column:party_id"`
	PartyName   string          `gorm:"column:party_name"`
	TotalCredit decimal.Decimal `gorm:"column:total_credit"`
	TotalDebit  decimal.Decimal `gorm:"column:total_debit"`
}

// LabourTotals holds per-person sums keyed by labour person id.
type LabourTotals struct {
	Due         map[uuid.UUID]decimal.Decimal // delivery expenses earned through assignments
	Paid        map[uuid.UUID]decimal.Decimal // payments recorded
	Outstanding map[uuid.UUID]decimal.Decimal // cash collected but not yet settled
}

type LedgerSummaryRepository interface {
	VehicleBalances(ctx context.Context) ([]VehicleBalanceRow, error)
	PartyBalances(ctx context.Context) ([]PartyBalanceRow, error)
	LabourTotals(ctx context.Context) (LabourTotals, error)
}

type ledgerSummaryRepository struct {
	db *gorm.DB
}

func NewLedgerSummaryRepository(db *gorm.DB) LedgerSummaryRepository {
	return &ledgerSummaryRepository{db: db}
}

func (r *ledgerSummaryRepository) VehicleBalances(ctx context.Context) ([]VehicleBalanceRow, error) {
	var rows []VehicleBalanceRow
	if err := GetDB(ctx, r.db).Table("vehicles").
		Select("vehicles.id AS vehicle_id, vehicles.number AS vehicle_number, " +
			"COALESCE(SUM(vt.credit_amount), 0) AS total_credit, COALESCE(SUM(vt.debit_amount), 0) AS total_debit").
		Joins("LEFT JOIN vehicle_transactions vt ON vt.vehicle_id = vehicles.id").
		Where("vehicles.deleted_at IS NULL").
		Group("vehicles.id, vehicles.number").
		Order("vehicles.number").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query vehicle balances: %w", err)
	}
	return rows, nil
}

func (r *ledgerSummaryRepository) PartyBalances(ctx context.Context) ([]PartyBalanceRow, error) {
	db := GetDB(ctx, r.db)

	var rows []PartyBalanceRow
	if err := db.Table("parties").
		Select("parties.id AS party_id, parties.name AS party_name, " +
			"COALESCE(SUM(t.credit_amount), 0) AS total_credit, COALESCE(SUM(t.debit_amount), 0) AS total_debit").
		Joins("LEFT JOIN transactions t ON t.party_id = parties.id").
		Where("parties.deleted_at IS NULL").
		Group("parties.id, parties.name").
		Order("parties.name").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query party balances: %w", err)
	}

	var walkIns []PartyBalanceRow
	if err := db.Table("transactions").
		Select("party_name, COALESCE(SUM(credit_amount), 0) AS total_credit, COALESCE(SUM(debit_amount), 0) AS total_debit").
		Where("party_id IS NULL").
		Group("party_name").
		Order("party_name").
		Scan(&walkIns).Error; err != nil {
		return nil, fmt.Errorf("failed to query walk-in balances: %w", err)
	}

	return append(rows, walkIns...), nil
}

type labourAmountRow struct {
	LabourPersonID uuid.UUID       `gorm:"column:labour_person_id"`
	Amount         decimal.Decimal `gorm:"column:amount"`
}

func (r *ledgerSummaryRepository) LabourTotals(ctx context.Context) (LabourTotals, error) {
	db := GetDB(ctx, r.db)
	totals := LabourTotals{}

	var due []labourAmountRow
	if err := db.Table("deliveries d").
		Select("la.labour_person_id AS labour_person_id, COALESCE(SUM(d.total_expenses), 0) AS amount").
		Joins("JOIN labour_assignments la ON la.id = d.labour_assignment_id").
		Group("la.labour_person_id").
		Scan(&due).Error; err != nil {
		return totals, fmt.Errorf("failed to query labour dues: %w", err)
	}

	var paid []labourAmountRow
	if err := db.Table("labour_payment_histories").
		Select("labour_person_id, COALESCE(SUM(amount), 0) AS amount").
		Group("labour_person_id").
		Scan(&paid).Error; err != nil {
		return totals, fmt.Errorf("failed to query labour payments: %w", err)
	}

	var outstanding []labourAmountRow
	if err := db.Table("labour_assignments").
		Select("labour_person_id, COALESCE(SUM(collected_amount), 0) AS amount").
		Where("status = ?", model.AssignmentCollected).
		Group("labour_person_id").
		Scan(&outstanding).Error; err != nil {
		return totals, fmt.Errorf("failed to query outstanding collections: %w", err)
	}

	totals.Due = toAmountMap(due)
	totals.Paid = toAmountMap(paid)
	totals.Outstanding = toAmountMap(outstanding)
	return totals, nil
}

func toAmountMap(rows []labourAmountRow) map[uuid.UUID]decimal.Decimal {
	m := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		m[row.LabourPersonID] = row.Amount
	}
	return m
}
