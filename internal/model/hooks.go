package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Primary keys are generated client side so the same models run on
// PostgreSQL and SQLite.

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (m *User) BeforeCreate(*gorm.DB) error                 { ensureID(&m.ID); return nil }
func (m *AuditLog) BeforeCreate(*gorm.DB) error             { ensureID(&m.ID); return nil }
func (m *Party) BeforeCreate(*gorm.DB) error                { ensureID(&m.ID); return nil }
func (m *Vehicle) BeforeCreate(*gorm.DB) error              { ensureID(&m.ID); return nil }
func (m *City) BeforeCreate(*gorm.DB) error                 { ensureID(&m.ID); return nil }
func (m *Agency) BeforeCreate(*gorm.DB) error               { ensureID(&m.ID); return nil }
func (m *ItemCatalog) BeforeCreate(*gorm.DB) error          { ensureID(&m.ID); return nil }
func (m *Shipment) BeforeCreate(*gorm.DB) error             { ensureID(&m.ID); return nil }
func (m *GoodsDetail) BeforeCreate(*gorm.DB) error          { ensureID(&m.ID); return nil }
func (m *Delivery) BeforeCreate(*gorm.DB) error             { ensureID(&m.ID); return nil }
func (m *LabourPerson) BeforeCreate(*gorm.DB) error         { ensureID(&m.ID); return nil }
func (m *LabourAssignment) BeforeCreate(*gorm.DB) error     { ensureID(&m.ID); return nil }
func (m *LabourPaymentHistory) BeforeCreate(*gorm.DB) error { ensureID(&m.ID); return nil }
func (m *Transaction) BeforeCreate(*gorm.DB) error          { ensureID(&m.ID); return nil }
func (m *VehicleTransaction) BeforeCreate(*gorm.DB) error   { ensureID(&m.ID); return nil }
func (m *TripLog) BeforeCreate(*gorm.DB) error              { ensureID(&m.ID); return nil }
func (m *TripShipmentLog) BeforeCreate(*gorm.DB) error      { ensureID(&m.ID); return nil }
