package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LabourAssignment states, strictly linear
const (
	AssignmentAssigned  = "ASSIGNED"
	AssignmentDelivered = "DELIVERED"
	AssignmentCollected = "COLLECTED"
	AssignmentSettled   = "SETTLED"
)

// LabourAssignment actions
const (
	LabourActionDeliver = "DELIVER"
	LabourActionCollect = "COLLECT"
	LabourActionSettle  = "SETTLE"
)

// LabourPerson is a field agent who delivers goods and collects payment
type LabourPerson struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Phone     string    `gorm:"type:varchar(50)" json:"phone"`
	CNIC      string    `gorm:"column:cnic;type:varchar(30)" json:"cnic"`
	Address   string    `gorm:"type:text" json:"address"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LabourAssignment links a labour person to a shipment.
// A shipment has at most one assignment that is not SETTLED.
type LabourAssignment struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	LabourPersonID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"labour_person_id"`
	LabourPerson    *LabourPerson   `gorm:"foreignKey:LabourPersonID" json:"labour_person,omitempty"`
	ShipmentID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"shipment_id"`
	Shipment        *Shipment       `gorm:"foreignKey:ShipmentID" json:"shipment,omitempty"`
	Status          string          `gorm:"type:varchar(20);not null;default:'ASSIGNED';index" json:"status"`
	AssignedDate    time.Time       `gorm:"not null" json:"assigned_date"`
	DueDate         *time.Time      `json:"due_date"`
	CollectedAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"collected_amount"`
	SettledDate     *time.Time      `json:"settled_date"`
	Notes           string          `gorm:"type:text" json:"notes"`
	CreatedBy       *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// LabourPaymentHistory is an append-only record of a payment to a labour person
type LabourPaymentHistory struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	LabourPersonID uuid.UUID       `gorm:"type:uuid;not null;index" json:"labour_person_id"`
	ShipmentID     *uuid.UUID      `gorm:"type:uuid;index" json:"shipment_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	PaymentDate    time.Time       `gorm:"not null" json:"payment_date"`
	Notes          string          `gorm:"type:text" json:"notes"`
	CreatedBy      *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
}
