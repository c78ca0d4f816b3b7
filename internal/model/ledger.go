package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Party roles on a ledger row
const (
	PartyRoleSender   = "SENDER"
	PartyRoleReceiver = "RECEIVER"
)

// Ledger entry kinds accepted for ad hoc postings
const (
	EntryCredit = "CREDIT"
	EntryDebit  = "DEBIT"
)

// Transaction is an append-only party ledger row. Exactly one of
// CreditAmount and DebitAmount is non-zero.
type Transaction struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PartyID         *uuid.UUID      `gorm:"type:uuid;index" json:"party_id"` // nil for walk-in parties
	Party           *Party          `gorm:"foreignKey:PartyID" json:"party,omitempty"`
	PartyName       string          `gorm:"type:varchar(255)" json:"party_name"`
	PartyRole       string          `gorm:"type:varchar(20);not null;index" json:"party_role"` // SENDER, RECEIVER
	ShipmentID      *uuid.UUID      `gorm:"type:uuid;index" json:"shipment_id"`
	CreditAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"credit_amount"`
	DebitAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"debit_amount"`
	Description     string          `gorm:"type:text" json:"description"`
	TransactionDate time.Time       `gorm:"not null;index" json:"transaction_date"`
	CreatedBy       *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
}

// VehicleTransaction is an append-only vehicle ledger row
type VehicleTransaction struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	VehicleID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	Vehicle         *Vehicle        `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	TripID          *uuid.UUID      `gorm:"type:uuid;index" json:"trip_id"`
	CreditAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"credit_amount"`
	DebitAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"debit_amount"`
	Description     string          `gorm:"type:text" json:"description"`
	TransactionDate time.Time       `gorm:"not null;index" json:"transaction_date"`
	CreatedBy       *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
}
