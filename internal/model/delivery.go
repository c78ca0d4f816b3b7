package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Delivery approval states
const (
	DeliveryPending         = "PENDING"
	DeliveryApprovedByAdmin = "APPROVED_BY_ADMIN"
	DeliveryApproved        = "APPROVED"
	DeliveryRejected        = "REJECTED"
)

// Delivery records the hand-over of a shipment to its receiver.
// Expense fields start at zero when produced by a labour assignment and are
// back-filled on collection.
type Delivery struct {
	ID                 uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ShipmentID         uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex" json:"shipment_id"`
	Shipment           *Shipment         `gorm:"foreignKey:ShipmentID" json:"shipment,omitempty"`
	LabourAssignmentID *uuid.UUID        `gorm:"type:uuid;index" json:"labour_assignment_id"`
	LabourAssignment   *LabourAssignment `gorm:"foreignKey:LabourAssignmentID" json:"-"`
	ReceiverName       string            `gorm:"type:varchar(255)" json:"receiver_name"`
	ReceiverContact    string            `gorm:"type:varchar(50)" json:"receiver_contact"`
	DeliveryDate       time.Time         `gorm:"not null;index" json:"delivery_date"`
	StationExpense     decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0" json:"station_expense"`
	BilityExpense      decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0" json:"bility_expense"`
	StationLabour      decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0" json:"station_labour"`
	CartLabour         decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0" json:"cart_labour"`
	TotalExpenses      decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0" json:"total_expenses"`
	ApprovalStatus     string            `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"approval_status"`
	ApprovedBy         *uuid.UUID        `gorm:"type:uuid" json:"approved_by"`
	Approver           *User             `gorm:"foreignKey:ApprovedBy" json:"approver,omitempty"`
	ApprovedAt         *time.Time        `gorm:"index" json:"approved_at"`
	Remarks            string            `gorm:"type:text" json:"remarks"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// SumExpenses returns the four expense heads added together
func SumExpenses(station, bility, stationLabour, cartLabour decimal.Decimal) decimal.Decimal {
	return station.Add(bility).Add(stationLabour).Add(cartLabour)
}
