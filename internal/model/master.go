package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PartyType enum constants
const (
	PartyTypeSender   = "SENDER"
	PartyTypeReceiver = "RECEIVER"
	PartyTypeBoth     = "BOTH"
)

// Party is a sender or receiver of goods held in the master table
type Party struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null;index" json:"name"`
	Type      string         `gorm:"type:varchar(20);not null;default:'BOTH'" json:"type"` // SENDER, RECEIVER, BOTH
	Phone     string         `gorm:"type:varchar(50)" json:"phone"`
	Address   string         `gorm:"type:text" json:"address"`
	CityID    *uuid.UUID     `gorm:"type:uuid" json:"city_id"`
	City      *City          `gorm:"foreignKey:CityID" json:"city,omitempty"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Vehicle carries shipments and owns a fare ledger
type Vehicle struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Number      string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"number"`
	OwnerName   string         `gorm:"type:varchar(255)" json:"owner_name"`
	DriverName  string         `gorm:"type:varchar(255)" json:"driver_name"`
	DriverPhone string         `gorm:"type:varchar(50)" json:"driver_phone"`
	VehicleType string         `gorm:"type:varchar(50)" json:"vehicle_type"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// City is a departure or destination point
type City struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Agency is a booking agency a shipment may come through
type Agency struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"type:varchar(255);not null" json:"name"`
	Phone     string     `gorm:"type:varchar(50)" json:"phone"`
	CityID    *uuid.UUID `gorm:"type:uuid" json:"city_id"`
	CreatedAt time.Time  `json:"created_at"`
}

// ItemCatalog is a reusable goods description with default rates
type ItemCatalog struct {
	ID                     uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name                   string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	DefaultCharges         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"default_charges"`
	DefaultDeliveryCharges decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"default_delivery_charges"`
	CreatedAt              time.Time       `json:"created_at"`
}

// TableName for ItemCatalog
func (ItemCatalog) TableName() string {
	return "item_catalog"
}
