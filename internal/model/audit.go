package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionRegisterShipment     = "REGISTER_SHIPMENT"
	ActionCreateDelivery       = "CREATE_DELIVERY"
	ActionChangeDeliveryStatus = "CHANGE_DELIVERY_STATUS"
	ActionAssignLabour         = "ASSIGN_LABOUR"
	ActionLabourDeliver        = "LABOUR_DELIVER"
	ActionLabourCollect        = "LABOUR_COLLECT"
	ActionLabourSettle         = "LABOUR_SETTLE"
	ActionLabourPayment        = "LABOUR_PAYMENT"
	ActionSettleFare           = "SETTLE_FARE"
	ActionVehicleTransaction   = "VEHICLE_TRANSACTION"
	ActionLogTrip              = "LOG_TRIP"
	ActionCreateUser           = "CREATE_USER"
)

// AuditLog tracks Who, What, and When for every workflow write
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:text" json:"details"`                       // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
