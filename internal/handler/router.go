package handler

import (
	"time"

	"freightops/internal/cache"
	"freightops/internal/middleware"
	"freightops/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services bundles everything the HTTP layer calls
type Services struct {
	Shipments   service.ShipmentService
	Deliveries  service.DeliveryService
	Assignments service.LabourAssignmentService
	Settlements service.LabourSettlementService
	Ledgers     service.LedgerService
	Trips       service.TripService
	MasterData  service.MasterDataService
	Users       service.UserService
	Audit       service.AuditService
}

// RouterOptions configures auth and idempotency for RegisterRoutes
type RouterOptions struct {
	Auth           *middleware.Auth
	TokenTTL       time.Duration
	Idempotency    cache.IdempotencyStore
	IdempotencyTTL time.Duration
	Logger         *zap.Logger
}

// RegisterRoutes mounts the public endpoints on root and the workflow
// endpoints under /api behind authentication and idempotency keys
func RegisterRoutes(root *gin.RouterGroup, svc Services, opts RouterOptions) {
	RegisterValidators()

	users := NewUserHandler(svc.Users, opts.Auth, opts.TokenTTL, opts.Logger)
	users.RegisterPublicRoutes(root)

	api := root.Group("/api")
	api.Use(opts.Auth.RequireRole(), middleware.Idempotency(opts.Idempotency, opts.IdempotencyTTL, opts.Logger))

	users.RegisterRoutes(api)
	NewShipmentHandler(svc.Shipments, opts.Logger).RegisterRoutes(api)
	NewDeliveryHandler(svc.Deliveries, opts.Logger).RegisterRoutes(api)
	NewLabourHandler(svc.Assignments, svc.Settlements, opts.Logger).RegisterRoutes(api)
	NewLedgerHandler(svc.Ledgers, opts.Logger).RegisterRoutes(api)
	NewTripHandler(svc.Trips, opts.Logger).RegisterRoutes(api)
	NewMasterDataHandler(svc.MasterData, opts.Logger).RegisterRoutes(api)
	NewAuditHandler(svc.Audit, opts.Logger).RegisterRoutes(api)
}
