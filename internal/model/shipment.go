package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus enum constants
const (
	PaymentPending     = "PENDING"
	PaymentAlreadyPaid = "ALREADY_PAID"
	PaymentFree        = "FREE"
)

// Shipment is a registered consignment. Only DeliveryDate changes after registration.
type Shipment struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	RegisterNumber       string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"register_number"` // YYYYMM-NNNN
	BilityNumber         string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"bility_number"`
	BilityDate           time.Time       `gorm:"not null;index" json:"bility_date"`
	SenderID             *uuid.UUID      `gorm:"type:uuid;index" json:"sender_id"`
	Sender               *Party          `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	SenderName           string          `gorm:"type:varchar(255)" json:"sender_name"` // walk-in sender
	ReceiverID           *uuid.UUID      `gorm:"type:uuid;index" json:"receiver_id"`
	Receiver             *Party          `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
	ReceiverName         string          `gorm:"type:varchar(255)" json:"receiver_name"` // walk-in receiver
	DepartureCityID      *uuid.UUID      `gorm:"type:uuid" json:"departure_city_id"`
	DepartureCity        *City           `gorm:"foreignKey:DepartureCityID" json:"departure_city,omitempty"`
	DestinationCityID    *uuid.UUID      `gorm:"type:uuid" json:"destination_city_id"`
	DestinationCity      *City           `gorm:"foreignKey:DestinationCityID" json:"destination_city,omitempty"`
	VehicleID            *uuid.UUID      `gorm:"type:uuid;index" json:"vehicle_id"`
	Vehicle              *Vehicle        `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	AgencyID             *uuid.UUID      `gorm:"type:uuid" json:"agency_id"`
	TotalCharges         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_charges"`
	TotalDeliveryCharges decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_delivery_charges"`
	TotalAmount          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_amount"` // charges + delivery charges
	PaymentStatus        string          `gorm:"type:varchar(20);not null;default:'PENDING'" json:"payment_status"`
	Remarks              string          `gorm:"type:text" json:"remarks"`
	DeliveryDate         *time.Time      `gorm:"index" json:"delivery_date"`
	Goods                []GoodsDetail   `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE" json:"goods"`
	CreatedBy            *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// ResolvedReceiverName prefers the walk-in name over the linked party.
func (s *Shipment) ResolvedReceiverName() string {
	if s.ReceiverName != "" {
		return s.ReceiverName
	}
	if s.Receiver != nil {
		return s.Receiver.Name
	}
	return ""
}

// ResolvedSenderName prefers the walk-in name over the linked party.
func (s *Shipment) ResolvedSenderName() string {
	if s.SenderName != "" {
		return s.SenderName
	}
	if s.Sender != nil {
		return s.Sender.Name
	}
	return ""
}

// GoodsDetail is a line item of a shipment
type GoodsDetail struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ShipmentID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"shipment_id"`
	ItemID          *uuid.UUID      `gorm:"type:uuid" json:"item_id"`
	ItemName        string          `gorm:"type:varchar(255);not null" json:"item_name"`
	Quantity        int             `gorm:"type:int;not null" json:"quantity"`
	Charges         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"charges"`
	DeliveryCharges decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"delivery_charges"`
}

// ShipmentSequence holds the last register number issued for a YYYYMM period
type ShipmentSequence struct {
	Period    string `gorm:"type:varchar(6);primaryKey" json:"period"`
	LastValue int64  `gorm:"not null" json:"last_value"`
}
