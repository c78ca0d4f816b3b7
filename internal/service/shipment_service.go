package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"freightops/internal/model"
	"freightops/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxRegisterAttempts = 5

// --- DTOs ---

type GoodsLineRequest struct {
	ItemID          string          `json:"item_id"`
	ItemName        string          `json:"item_name" binding:"required"`
	Quantity        int             `json:"quantity" binding:"required,gt=0"`
	Charges         decimal.Decimal `json:"charges" binding:"gte=0"`
	DeliveryCharges decimal.Decimal `json:"delivery_charges" binding:"gte=0"`
}

type RegisterShipmentRequest struct {
	BilityNumber      string             `json:"bility_number" binding:"required"`
	BilityDate        string             `json:"bility_date" binding:"required"` // YYYY-MM-DD
	SenderID          string             `json:"sender_id"`
	SenderName        string             `json:"sender_name"`
	ReceiverID        string             `json:"receiver_id"`
	ReceiverName      string             `json:"receiver_name"`
	DepartureCityID   string             `json:"departure_city_id"`
	DestinationCityID string             `json:"destination_city_id"`
	VehicleID         string             `json:"vehicle_id"`
	AgencyID          string             `json:"agency_id"`
	PaymentStatus     string             `json:"payment_status" binding:"omitempty,oneof=PENDING ALREADY_PAID FREE"`
	Remarks           string             `json:"remarks"`
	Goods             []GoodsLineRequest `json:"goods" binding:"required,min=1,dive"`
}

// ShipmentListFilter is the typed query of the shipment listing
type ShipmentListFilter struct {
	Search     string
	Delivered  *bool
	BilityDate string
	VehicleID  string
	Page       int
	Limit      int
}

type GoodsLineResponse struct {
	ID              string  `json:"id"`
	ItemID          *string `json:"item_id"`
	ItemName        string  `json:"item_name"`
	Quantity        int     `json:"quantity"`
	Charges         string  `json:"charges"`
	DeliveryCharges string  `json:"delivery_charges"`
}

type ShipmentResponse struct {
	ID                   string              `json:"id"`
	RegisterNumber       string              `json:"register_number"`
	BilityNumber         string              `json:"bility_number"`
	BilityDate           string              `json:"bility_date"`
	SenderID             *string             `json:"sender_id"`
	SenderName           string              `json:"sender_name"`
	ReceiverID           *string             `json:"receiver_id"`
	ReceiverName         string              `json:"receiver_name"`
	DepartureCityID      *string             `json:"departure_city_id"`
	DestinationCityID    *string             `json:"destination_city_id"`
	VehicleID            *string             `json:"vehicle_id"`
	AgencyID             *string             `json:"agency_id"`
	TotalCharges         string              `json:"total_charges"`
	TotalDeliveryCharges string              `json:"total_delivery_charges"`
	TotalAmount          string              `json:"total_amount"`
	PaymentStatus        string              `json:"payment_status"`
	Remarks              string              `json:"remarks"`
	DeliveryDate         *string             `json:"delivery_date"`
	Goods                []GoodsLineResponse `json:"goods"`
	CreatedAt            string              `json:"created_at"`
}

// TripPrefillLine is one goods line of a shipment carried by a vehicle on a day
type TripPrefillLine struct {
	ShipmentID      string `json:"shipment_id"`
	RegisterNumber  string `json:"register_number"`
	BilityNumber    string `json:"bility_number"`
	ReceiverName    string `json:"receiver_name"`
	ItemName        string `json:"item_name"`
	Quantity        int    `json:"quantity"`
	TotalCharges    string `json:"total_charges"`
	DeliveryCharges string `json:"delivery_charges"`
}

// --- Interface ---

type ShipmentService interface {
	RegisterShipment(ctx context.Context, actor Actor, req RegisterShipmentRequest) (ShipmentResponse, error)
	GetShipment(ctx context.Context, id string) (ShipmentResponse, error)
	ListShipments(ctx context.Context, filter ShipmentListFilter) ([]ShipmentResponse, int64, error)
	GetByVehicleAndDate(ctx context.Context, vehicleID, date string) ([]TripPrefillLine, error)
}

type shipmentService struct {
	shipmentRepo repository.ShipmentRepository
	sequenceRepo repository.SequenceRepository
	partyRepo    repository.PartyRepository
	txnRepo      repository.TransactionRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	events       EventPublisher
	logger       *zap.Logger
}

func NewShipmentService(
	shipmentRepo repository.ShipmentRepository,
	sequenceRepo repository.SequenceRepository,
	partyRepo repository.PartyRepository,
	txnRepo repository.TransactionRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	events EventPublisher,
	logger *zap.Logger,
) ShipmentService {
	return &shipmentService{
		shipmentRepo: shipmentRepo,
		sequenceRepo: sequenceRepo,
		partyRepo:    partyRepo,
		txnRepo:      txnRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		events:       publisherOrNoop(events),
		logger:       loggerOrNop(logger).Named("shipment"),
	}
}

// FormatRegisterNumber renders the monthly register number, e.g. 202503-0007
func FormatRegisterNumber(bilityDate time.Time, seq int64) string {
	return fmt.Sprintf("%s-%04d", repository.Period(bilityDate), seq)
}

// --- Implementation ---

func (s *shipmentService) RegisterShipment(ctx context.Context, actor Actor, req RegisterShipmentRequest) (ShipmentResponse, error) {
	if err := actor.validate(); err != nil {
		return ShipmentResponse{}, err
	}
	draft, err := s.buildShipment(ctx, actor, req)
	if err != nil {
		return ShipmentResponse{}, err
	}

	exists, err := s.shipmentRepo.ExistsByBilityNumber(ctx, draft.BilityNumber)
	if err != nil {
		return ShipmentResponse{}, fmt.Errorf("failed to check bility number: %w", err)
	}
	if exists {
		return ShipmentResponse{}, Conflict("duplicate bility number")
	}

	var shipment model.Shipment
	for attempt := 1; attempt <= maxRegisterAttempts; attempt++ {
		shipment = draft.clone()
		err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			return s.insertShipment(txCtx, actor, &shipment)
		})
		if err == nil {
			break
		}
		if repository.IsUniqueViolation(err, "shipments", "bility_number") {
			return ShipmentResponse{}, Conflict("duplicate bility number")
		}
		if !repository.IsUniqueViolation(err, "shipments", "register_number") {
			return ShipmentResponse{}, err
		}

		s.logger.Warn("register number collision, resynchronising",
			zap.String("period", repository.Period(shipment.BilityDate)),
			zap.String("register_number", shipment.RegisterNumber),
			zap.Int("attempt", attempt))
		if syncErr := s.sequenceRepo.Resync(ctx, shipment.BilityDate); syncErr != nil {
			return ShipmentResponse{}, fmt.Errorf("failed to resync register sequence: %w", syncErr)
		}
	}
	if err != nil {
		return ShipmentResponse{}, Conflict("could not allocate a register number, please retry")
	}

	s.logger.Info("shipment registered",
		zap.String("register_number", shipment.RegisterNumber),
		zap.String("bility_number", shipment.BilityNumber),
		zap.String("total_amount", money(shipment.TotalAmount)))

	resp := toShipmentResponse(shipment)
	s.events.Publish(EventShipmentRegistered, resp)
	return resp, nil
}

// insertShipment runs inside the registration transaction
func (s *shipmentService) insertShipment(ctx context.Context, actor Actor, shipment *model.Shipment) error {
	next, err := s.sequenceRepo.Next(ctx, shipment.BilityDate)
	if err != nil {
		return err
	}
	shipment.RegisterNumber = FormatRegisterNumber(shipment.BilityDate, next)

	if err := s.shipmentRepo.Create(ctx, shipment); err != nil {
		return fmt.Errorf("failed to create shipment: %w", err)
	}

	if postsSenderCharge(shipment.PaymentStatus) {
		txn := model.Transaction{
			PartyID:         shipment.SenderID,
			PartyName:       shipment.ResolvedSenderName(),
			PartyRole:       model.PartyRoleSender,
			ShipmentID:      &shipment.ID,
			CreditAmount:    shipment.TotalAmount,
			DebitAmount:     decimal.Zero,
			Description:     fmt.Sprintf("Freight charges for bility %s (%s)", shipment.BilityNumber, shipment.RegisterNumber),
			TransactionDate: shipment.BilityDate,
			CreatedBy:       actor.ref(),
		}
		if err := s.txnRepo.Create(ctx, &txn); err != nil {
			return fmt.Errorf("failed to post sender charge: %w", err)
		}
	}

	return writeAudit(ctx, s.auditRepo, actor, model.ActionRegisterShipment, shipment.ID.String(), shipment.RegisterNumber,
		map[string]interface{}{
			"bility_number":  shipment.BilityNumber,
			"total_amount":   money(shipment.TotalAmount),
			"payment_status": shipment.PaymentStatus,
		})
}

func postsSenderCharge(paymentStatus string) bool {
	return paymentStatus != model.PaymentAlreadyPaid && paymentStatus != model.PaymentFree
}

type shipmentDraft struct {
	model.Shipment
}

// clone returns a fresh copy so a retried insert gets new primary keys
func (d shipmentDraft) clone() model.Shipment {
	s := d.Shipment
	s.Goods = make([]model.GoodsDetail, len(d.Goods))
	copy(s.Goods, d.Goods)
	return s
}

func (s *shipmentService) buildShipment(ctx context.Context, actor Actor, req RegisterShipmentRequest) (shipmentDraft, error) {
	bilityNumber := strings.TrimSpace(req.BilityNumber)
	if bilityNumber == "" {
		return shipmentDraft{}, Validation("bility_number is required")
	}
	if req.BilityDate == "" {
		return shipmentDraft{}, Validation("bility_date is required")
	}
	bilityDate, err := parseDate(req.BilityDate, "bility_date")
	if err != nil {
		return shipmentDraft{}, err
	}
	if len(req.Goods) == 0 {
		return shipmentDraft{}, Validation("at least one goods line is required")
	}

	paymentStatus := req.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = model.PaymentPending
	}
	switch paymentStatus {
	case model.PaymentPending, model.PaymentAlreadyPaid, model.PaymentFree:
	default:
		return shipmentDraft{}, Validation("invalid payment_status %q", req.PaymentStatus)
	}

	shipment := model.Shipment{
		BilityNumber:  bilityNumber,
		BilityDate:    bilityDate,
		SenderName:    strings.TrimSpace(req.SenderName),
		ReceiverName:  strings.TrimSpace(req.ReceiverName),
		PaymentStatus: paymentStatus,
		Remarks:       req.Remarks,
		CreatedBy:     actor.ref(),
	}

	if shipment.SenderID, err = parseOptionalID(req.SenderID, "sender_id"); err != nil {
		return shipmentDraft{}, err
	}
	if shipment.ReceiverID, err = parseOptionalID(req.ReceiverID, "receiver_id"); err != nil {
		return shipmentDraft{}, err
	}
	if shipment.SenderID == nil && shipment.SenderName == "" {
		return shipmentDraft{}, Validation("sender_id or sender_name is required")
	}
	if shipment.ReceiverID == nil && shipment.ReceiverName == "" {
		return shipmentDraft{}, Validation("receiver_id or receiver_name is required")
	}
	if shipment.DepartureCityID, err = parseOptionalID(req.DepartureCityID, "departure_city_id"); err != nil {
		return shipmentDraft{}, err
	}
	if shipment.DestinationCityID, err = parseOptionalID(req.DestinationCityID, "destination_city_id"); err != nil {
		return shipmentDraft{}, err
	}
	if shipment.VehicleID, err = parseOptionalID(req.VehicleID, "vehicle_id"); err != nil {
		return shipmentDraft{}, err
	}
	if shipment.AgencyID, err = parseOptionalID(req.AgencyID, "agency_id"); err != nil {
		return shipmentDraft{}, err
	}

	// Linked parties must exist; their names feed the ledger snapshot.
	if shipment.SenderID != nil {
		sender, findErr := s.partyRepo.FindByID(ctx, *shipment.SenderID)
		if findErr != nil {
			return shipmentDraft{}, notFoundOr(findErr, "sender party not found")
		}
		shipment.Sender = sender
	}
	if shipment.ReceiverID != nil {
		receiver, findErr := s.partyRepo.FindByID(ctx, *shipment.ReceiverID)
		if findErr != nil {
			return shipmentDraft{}, notFoundOr(findErr, "receiver party not found")
		}
		shipment.Receiver = receiver
	}

	totalCharges := decimal.Zero
	totalDelivery := decimal.Zero
	for i, line := range req.Goods {
		if strings.TrimSpace(line.ItemName) == "" {
			return shipmentDraft{}, Validation("goods[%d].item_name is required", i)
		}
		if line.Quantity <= 0 {
			return shipmentDraft{}, Validation("goods[%d].quantity must be greater than 0", i)
		}
		if line.Charges.IsNegative() || line.DeliveryCharges.IsNegative() {
			return shipmentDraft{}, Validation("goods[%d] charges must not be negative", i)
		}
		if err := checkCents(fmt.Sprintf("goods[%d] charges", i), line.Charges, line.DeliveryCharges); err != nil {
			return shipmentDraft{}, err
		}
		itemID, idErr := parseOptionalID(line.ItemID, fmt.Sprintf("goods[%d].item_id", i))
		if idErr != nil {
			return shipmentDraft{}, idErr
		}
		shipment.Goods = append(shipment.Goods, model.GoodsDetail{
			ItemID:          itemID,
			ItemName:        strings.TrimSpace(line.ItemName),
			Quantity:        line.Quantity,
			Charges:         line.Charges,
			DeliveryCharges: line.DeliveryCharges,
		})
		totalCharges = totalCharges.Add(line.Charges)
		totalDelivery = totalDelivery.Add(line.DeliveryCharges)
	}
	shipment.TotalCharges = totalCharges
	shipment.TotalDeliveryCharges = totalDelivery
	shipment.TotalAmount = totalCharges.Add(totalDelivery)

	return shipmentDraft{Shipment: shipment}, nil
}

func (s *shipmentService) GetShipment(ctx context.Context, id string) (ShipmentResponse, error) {
	shipmentID, err := parseID(id, "shipment id")
	if err != nil {
		return ShipmentResponse{}, err
	}
	shipment, err := s.shipmentRepo.FindByID(ctx, shipmentID)
	if err != nil {
		return ShipmentResponse{}, notFoundOr(err, "shipment not found")
	}
	return toShipmentResponse(*shipment), nil
}

func (s *shipmentService) ListShipments(ctx context.Context, filter ShipmentListFilter) ([]ShipmentResponse, int64, error) {
	page, limit := normalizePage(filter.Page, filter.Limit)
	query := repository.ShipmentFilter{
		Search:    strings.TrimSpace(filter.Search),
		Delivered: filter.Delivered,
		Page:      page,
		Limit:     limit,
	}
	if filter.BilityDate != "" {
		day, err := parseDate(filter.BilityDate, "date")
		if err != nil {
			return nil, 0, err
		}
		query.BilityDate = &day
	}
	vehicleID, err := parseOptionalID(filter.VehicleID, "vehicle_id")
	if err != nil {
		return nil, 0, err
	}
	query.VehicleID = vehicleID

	shipments, total, err := s.shipmentRepo.List(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list shipments: %w", err)
	}

	result := make([]ShipmentResponse, 0, len(shipments))
	for _, sh := range shipments {
		result = append(result, toShipmentResponse(sh))
	}
	return result, total, nil
}

// GetByVehicleAndDate flattens the day's shipments into goods lines for trip prefill
func (s *shipmentService) GetByVehicleAndDate(ctx context.Context, vehicleID, date string) ([]TripPrefillLine, error) {
	vid, err := parseID(vehicleID, "vehicle_id")
	if err != nil {
		return nil, err
	}
	if date == "" {
		return nil, Validation("date is required")
	}
	day, err := parseDate(date, "date")
	if err != nil {
		return nil, err
	}

	shipments, err := s.shipmentRepo.FindByVehicleAndDate(ctx, vid, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load shipments: %w", err)
	}

	lines := make([]TripPrefillLine, 0)
	for _, sh := range shipments {
		receiver := sh.ResolvedReceiverName()
		for _, g := range sh.Goods {
			lines = append(lines, TripPrefillLine{
				ShipmentID:      sh.ID.String(),
				RegisterNumber:  sh.RegisterNumber,
				BilityNumber:    sh.BilityNumber,
				ReceiverName:    receiver,
				ItemName:        g.ItemName,
				Quantity:        g.Quantity,
				TotalCharges:    money(g.Charges),
				DeliveryCharges: money(g.DeliveryCharges),
			})
		}
	}
	return lines, nil
}

func toShipmentResponse(s model.Shipment) ShipmentResponse {
	goods := make([]GoodsLineResponse, 0, len(s.Goods))
	for _, g := range s.Goods {
		goods = append(goods, GoodsLineResponse{
			ID:              g.ID.String(),
			ItemID:          idString(g.ItemID),
			ItemName:        g.ItemName,
			Quantity:        g.Quantity,
			Charges:         money(g.Charges),
			DeliveryCharges: money(g.DeliveryCharges),
		})
	}
	return ShipmentResponse{
		ID:                   s.ID.String(),
		RegisterNumber:       s.RegisterNumber,
		BilityNumber:         s.BilityNumber,
		BilityDate:           s.BilityDate.UTC().Format(dateLayout),
		SenderID:             idString(s.SenderID),
		SenderName:           s.ResolvedSenderName(),
		ReceiverID:           idString(s.ReceiverID),
		ReceiverName:         s.ResolvedReceiverName(),
		DepartureCityID:      idString(s.DepartureCityID),
		DestinationCityID:    idString(s.DestinationCityID),
		VehicleID:            idString(s.VehicleID),
		AgencyID:             idString(s.AgencyID),
		TotalCharges:         money(s.TotalCharges),
		TotalDeliveryCharges: money(s.TotalDeliveryCharges),
		TotalAmount:          money(s.TotalAmount),
		PaymentStatus:        s.PaymentStatus,
		Remarks:              s.Remarks,
		DeliveryDate:         timeString(s.DeliveryDate),
		Goods:                goods,
		CreatedAt:            s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// notFoundOr maps gorm's not-found to a typed error and wraps anything else
func notFoundOr(err error, msg string) error {
	if repository.IsNotFound(err) {
		return NotFound("%s", msg)
	}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}
