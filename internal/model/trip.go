package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TripLog is a vehicle's daily manifest with its fare roll-up
type TripLog struct {
	ID                    uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	VehicleID             uuid.UUID         `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	Vehicle               *Vehicle          `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	TripDate              time.Time         `gorm:"not null;index" json:"trip_date"`
	DriverName            string            `gorm:"type:varchar(255)" json:"driver_name"`
	DepartureCityID       *uuid.UUID        `gorm:"type:uuid" json:"departure_city_id"`
	DestinationCityID     *uuid.UUID        `gorm:"type:uuid" json:"destination_city_id"`
	TotalFareCollected    decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0" json:"total_fare_collected"`
	DeliveryCutPercentage decimal.Decimal   `gorm:"type:decimal(5,2);not null;default:0" json:"delivery_cut_percentage"`
	DeliveryCut           decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0" json:"delivery_cut"`
	Cuts                  decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0" json:"cuts"`
	AccountantCharges     decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0" json:"accountant_charges"`
	ReceivedAmount        decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0" json:"received_amount"`
	FareIsPaid            bool              `gorm:"not null;default:false" json:"fare_is_paid"`
	Notes                 string            `gorm:"type:text" json:"notes"`
	Lines                 []TripShipmentLog `gorm:"foreignKey:TripLogID;constraint:OnDelete:CASCADE" json:"lines"`
	CreatedBy             *uuid.UUID        `gorm:"type:uuid" json:"created_by"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

// TripShipmentLog is a snapshot of a shipment line taken when the trip is logged.
// Names are copied as text and never follow later master data edits.
type TripShipmentLog struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TripLogID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"trip_log_id"`
	ShipmentID      *uuid.UUID      `gorm:"type:uuid;index" json:"shipment_id"`
	BilityNumber    string          `gorm:"type:varchar(50)" json:"bility_number"`
	ReceiverName    string          `gorm:"type:varchar(255)" json:"receiver_name"`
	ItemName        string          `gorm:"type:varchar(255)" json:"item_name"`
	Quantity        int             `gorm:"type:int;not null;default:0" json:"quantity"`
	TotalCharges    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_charges"`
	DeliveryCharges decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"delivery_charges"`
}
