package app

import (
	"time"

	"freightops/internal/handler"
	"freightops/internal/repository"
	"freightops/internal/service"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewServices sets up dependencies (Repository -> Service) for the HTTP layer
func NewServices(db *gorm.DB, events service.EventPublisher, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) handler.Services {
	txManager := repository.NewTransactionManager(db)

	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)
	shipmentRepo := repository.NewShipmentRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	partyRepo := repository.NewPartyRepository(db)
	masterRepo := repository.NewMasterDataRepository(db)
	txnRepo := repository.NewTransactionRepository(db)
	vehicleTxnRepo := repository.NewVehicleTransactionRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)
	labourRepo := repository.NewLabourRepository(db)
	tripRepo := repository.NewTripRepository(db)
	summaryRepo := repository.NewLedgerSummaryRepository(db)

	return handler.Services{
		Shipments: service.NewShipmentService(shipmentRepo, sequenceRepo, partyRepo, txnRepo, auditRepo, txManager,
			events, logger),
		Deliveries: service.NewDeliveryService(deliveryRepo, shipmentRepo, labourRepo, auditRepo, txManager,
			events, logger),
		Assignments: service.NewLabourAssignmentService(labourRepo, shipmentRepo, deliveryRepo, txnRepo, auditRepo, txManager,
			events, logger),
		Settlements: service.NewLabourSettlementService(labourRepo, summaryRepo, auditRepo, txManager,
			events, logger),
		Ledgers: service.NewLedgerService(summaryRepo, vehicleTxnRepo, txnRepo, tripRepo, masterRepo, partyRepo, auditRepo, txManager,
			events, logger),
		Trips: service.NewTripService(tripRepo, vehicleTxnRepo, shipmentRepo, masterRepo, auditRepo, txManager,
			events, logger),
		MasterData: service.NewMasterDataService(partyRepo, masterRepo, labourRepo),
		Users:      service.NewUserService(userRepo, auditRepo, txManager, jwtSecret, tokenTTL),
		Audit:      service.NewAuditService(auditRepo),
	}
}
