package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"freightops/internal/model"
	"freightops/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// --- DTOs ---

type CreateDeliveryRequest struct {
	ShipmentID      string          `json:"shipment_id" binding:"required"`
	ReceiverName    string          `json:"receiver_name"`
	ReceiverContact string          `json:"receiver_contact"`
	DeliveryDate    string          `json:"delivery_date"` // YYYY-MM-DD, defaults to today
	StationExpense  decimal.Decimal `json:"station_expense" binding:"gte=0"`
	BilityExpense   decimal.Decimal `json:"bility_expense" binding:"gte=0"`
	StationLabour   decimal.Decimal `json:"station_labour" binding:"gte=0"`
	CartLabour      decimal.Decimal `json:"cart_labour" binding:"gte=0"`
	Remarks         string          `json:"remarks"`
}

type UpdateDeliveryStatusRequest struct {
	Action  string `json:"action" binding:"required,oneof=APPROVED_BY_ADMIN APPROVED REJECTED"`
	Remarks string `json:"remarks"`
}

type DeliveryListFilter struct {
	Status     string
	ShipmentID string
	Page       int
	Limit      int
}

type DeliveryResponse struct {
	ID                 string  `json:"id"`
	ShipmentID         string  `json:"shipment_id"`
	RegisterNumber     string  `json:"register_number,omitempty"`
	BilityNumber       string  `json:"bility_number,omitempty"`
	LabourAssignmentID *string `json:"labour_assignment_id"`
	ReceiverName       string  `json:"receiver_name"`
	ReceiverContact    string  `json:"receiver_contact"`
	DeliveryDate       string  `json:"delivery_date"`
	StationExpense     string  `json:"station_expense"`
	BilityExpense      string  `json:"bility_expense"`
	StationLabour      string  `json:"station_labour"`
	CartLabour         string  `json:"cart_labour"`
	TotalExpenses      string  `json:"total_expenses"`
	ApprovalStatus     string  `json:"approval_status"`
	ApprovedBy         *string `json:"approved_by"`
	ApproverName       string  `json:"approver_name"`
	ApprovedAt         *string `json:"approved_at"`
	Remarks            string  `json:"remarks"`
	CreatedAt          string  `json:"created_at"`
}

// --- State machine ---

// deliveryTransitions lists the targets reachable from each non-terminal
// status. APPROVED and REJECTED have no entry and are terminal.
var deliveryTransitions = map[string][]string{
	model.DeliveryPending:         {model.DeliveryApprovedByAdmin, model.DeliveryApproved, model.DeliveryRejected},
	model.DeliveryApprovedByAdmin: {model.DeliveryApproved, model.DeliveryRejected},
}

// IsDeliveryAction reports whether action names a transition target
func IsDeliveryAction(action string) bool {
	switch action {
	case model.DeliveryApprovedByAdmin, model.DeliveryApproved, model.DeliveryRejected:
		return true
	}
	return false
}

// CheckDeliveryTransition returns a typed error when from -> to is not allowed
func CheckDeliveryTransition(from, to string) error {
	if !IsDeliveryAction(to) {
		return Validation("invalid action %q", to)
	}
	if from == to {
		return Conflict("delivery is already %s", from)
	}
	targets, ok := deliveryTransitions[from]
	if !ok {
		return Conflict("delivery is %s and can no longer change", from)
	}
	for _, t := range targets {
		if t == to {
			return nil
		}
	}
	return Conflict("cannot move delivery from %s to %s", from, to)
}

// --- Interface ---

type DeliveryService interface {
	CreateDelivery(ctx context.Context, actor Actor, req CreateDeliveryRequest) (DeliveryResponse, error)
	UpdateStatus(ctx context.Context, actor Actor, id string, req UpdateDeliveryStatusRequest) (DeliveryResponse, error)
	GetDelivery(ctx context.Context, id string) (DeliveryResponse, error)
	ListDeliveries(ctx context.Context, filter DeliveryListFilter) ([]DeliveryResponse, int64, error)
	ListApproved(ctx context.Context, date, status string) ([]DeliveryResponse, error)
}

type deliveryService struct {
	deliveryRepo repository.DeliveryRepository
	shipmentRepo repository.ShipmentRepository
	labourRepo   repository.LabourRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	events       EventPublisher
	logger       *zap.Logger
	now          func() time.Time
}

func NewDeliveryService(
	deliveryRepo repository.DeliveryRepository,
	shipmentRepo repository.ShipmentRepository,
	labourRepo repository.LabourRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	events EventPublisher,
	logger *zap.Logger,
) DeliveryService {
	return &deliveryService{
		deliveryRepo: deliveryRepo,
		shipmentRepo: shipmentRepo,
		labourRepo:   labourRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		events:       publisherOrNoop(events),
		logger:       loggerOrNop(logger).Named("delivery"),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// --- Implementation ---

// CreateDelivery records a direct delivery, i.e. one not made through a labour person
func (s *deliveryService) CreateDelivery(ctx context.Context, actor Actor, req CreateDeliveryRequest) (DeliveryResponse, error) {
	if err := actor.validate(); err != nil {
		return DeliveryResponse{}, err
	}
	shipmentID, err := parseID(req.ShipmentID, "shipment_id")
	if err != nil {
		return DeliveryResponse{}, err
	}
	for field, v := range map[string]decimal.Decimal{
		"station_expense": req.StationExpense,
		"bility_expense":  req.BilityExpense,
		"station_labour":  req.StationLabour,
		"cart_labour":     req.CartLabour,
	} {
		if v.IsNegative() {
			return DeliveryResponse{}, Validation("%s must not be negative", field)
		}
		if err := checkCents(field, v); err != nil {
			return DeliveryResponse{}, err
		}
	}
	deliveryDate := s.now()
	if req.DeliveryDate != "" {
		if deliveryDate, err = parseDate(req.DeliveryDate, "delivery_date"); err != nil {
			return DeliveryResponse{}, err
		}
	}

	var delivery model.Delivery
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		locked, err := s.shipmentRepo.FindByIDsForUpdate(txCtx, []uuid.UUID{shipmentID})
		if err != nil {
			return fmt.Errorf("failed to lock shipment: %w", err)
		}
		if len(locked) == 0 {
			return NotFound("shipment not found")
		}
		shipment, err := s.shipmentRepo.FindByID(txCtx, shipmentID)
		if err != nil {
			return notFoundOr(err, "shipment not found")
		}

		exists, err := s.deliveryRepo.ExistsForShipment(txCtx, shipmentID)
		if err != nil {
			return fmt.Errorf("failed to check delivery: %w", err)
		}
		if exists {
			return Conflict("shipment %s already has a delivery", shipment.RegisterNumber)
		}
		assigned, err := s.labourRepo.HasActiveAssignment(txCtx, shipmentID)
		if err != nil {
			return fmt.Errorf("failed to check labour assignment: %w", err)
		}
		if assigned {
			return Conflict("shipment %s is assigned to a labour person", shipment.RegisterNumber)
		}

		receiverName := strings.TrimSpace(req.ReceiverName)
		if receiverName == "" {
			receiverName = shipment.ResolvedReceiverName()
		}
		receiverContact := req.ReceiverContact
		if receiverContact == "" && shipment.Receiver != nil {
			receiverContact = shipment.Receiver.Phone
		}

		delivery = model.Delivery{
			ShipmentID:      shipmentID,
			ReceiverName:    receiverName,
			ReceiverContact: receiverContact,
			DeliveryDate:    deliveryDate,
			StationExpense:  req.StationExpense,
			BilityExpense:   req.BilityExpense,
			StationLabour:   req.StationLabour,
			CartLabour:      req.CartLabour,
			TotalExpenses:   model.SumExpenses(req.StationExpense, req.BilityExpense, req.StationLabour, req.CartLabour),
			ApprovalStatus:  model.DeliveryPending,
			Remarks:         req.Remarks,
		}
		if err := s.deliveryRepo.Create(txCtx, &delivery); err != nil {
			return fmt.Errorf("failed to create delivery: %w", err)
		}
		if err := s.shipmentRepo.SetDeliveryDate(txCtx, shipmentID, deliveryDate); err != nil {
			return fmt.Errorf("failed to set shipment delivery date: %w", err)
		}
		delivery.Shipment = shipment

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateDelivery, delivery.ID.String(), shipment.RegisterNumber,
			map[string]interface{}{"total_expenses": money(delivery.TotalExpenses)})
	})
	if err != nil {
		return DeliveryResponse{}, err
	}

	resp := toDeliveryResponse(delivery)
	s.events.Publish(EventDeliveryCreated, resp)
	return resp, nil
}

func (s *deliveryService) UpdateStatus(ctx context.Context, actor Actor, id string, req UpdateDeliveryStatusRequest) (DeliveryResponse, error) {
	if err := actor.validate(); err != nil {
		return DeliveryResponse{}, err
	}
	deliveryID, err := parseID(id, "delivery id")
	if err != nil {
		return DeliveryResponse{}, err
	}
	if !IsDeliveryAction(req.Action) {
		return DeliveryResponse{}, Validation("invalid action %q", req.Action)
	}

	var previous string
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		delivery, err := s.deliveryRepo.FindByIDForUpdate(txCtx, deliveryID)
		if err != nil {
			return notFoundOr(err, "delivery not found")
		}
		if err := CheckDeliveryTransition(delivery.ApprovalStatus, req.Action); err != nil {
			return err
		}

		previous = delivery.ApprovalStatus
		now := s.now()
		delivery.ApprovalStatus = req.Action
		delivery.ApprovedBy = actor.ref()
		delivery.ApprovedAt = &now
		if req.Remarks != "" {
			delivery.Remarks = req.Remarks
		}
		if err := s.deliveryRepo.Update(txCtx, delivery); err != nil {
			return fmt.Errorf("failed to update delivery: %w", err)
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionChangeDeliveryStatus, delivery.ID.String(), req.Action,
			map[string]interface{}{"from": previous, "to": req.Action})
	})
	if err != nil {
		return DeliveryResponse{}, err
	}

	s.logger.Info("delivery status changed",
		zap.String("delivery_id", deliveryID.String()),
		zap.String("from", previous),
		zap.String("to", req.Action),
		zap.String("by", actor.Username))

	resp, err := s.GetDelivery(ctx, deliveryID.String())
	if err != nil {
		return DeliveryResponse{}, err
	}
	s.events.Publish(EventDeliveryStatusChanged, resp)
	return resp, nil
}

func (s *deliveryService) GetDelivery(ctx context.Context, id string) (DeliveryResponse, error) {
	deliveryID, err := parseID(id, "delivery id")
	if err != nil {
		return DeliveryResponse{}, err
	}
	delivery, err := s.deliveryRepo.FindByID(ctx, deliveryID)
	if err != nil {
		return DeliveryResponse{}, notFoundOr(err, "delivery not found")
	}
	return toDeliveryResponse(*delivery), nil
}

func (s *deliveryService) ListDeliveries(ctx context.Context, filter DeliveryListFilter) ([]DeliveryResponse, int64, error) {
	page, limit := normalizePage(filter.Page, filter.Limit)
	query := repository.DeliveryFilter{Status: filter.Status, Page: page, Limit: limit}
	shipmentID, err := parseOptionalID(filter.ShipmentID, "shipment_id")
	if err != nil {
		return nil, 0, err
	}
	query.ShipmentID = shipmentID

	deliveries, total, err := s.deliveryRepo.List(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list deliveries: %w", err)
	}
	result := make([]DeliveryResponse, 0, len(deliveries))
	for _, d := range deliveries {
		result = append(result, toDeliveryResponse(d))
	}
	return result, total, nil
}

// ListApproved returns deliveries whose approved_at falls on the given UTC
// day (today when empty). The delivery date plays no part.
func (s *deliveryService) ListApproved(ctx context.Context, date, status string) ([]DeliveryResponse, error) {
	day := s.now()
	if date != "" {
		var err error
		if day, err = parseDate(date, "date"); err != nil {
			return nil, err
		}
	}
	if status == "" {
		status = model.DeliveryApproved
	}
	if !IsDeliveryAction(status) {
		return nil, Validation("invalid status %q", status)
	}

	start, end := repository.DayBounds(day)
	deliveries, err := s.deliveryRepo.ListApprovedBetween(ctx, status, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved deliveries: %w", err)
	}
	result := make([]DeliveryResponse, 0, len(deliveries))
	for _, d := range deliveries {
		result = append(result, toDeliveryResponse(d))
	}
	return result, nil
}

func toDeliveryResponse(d model.Delivery) DeliveryResponse {
	resp := DeliveryResponse{
		ID:                 d.ID.String(),
		ShipmentID:         d.ShipmentID.String(),
		LabourAssignmentID: idString(d.LabourAssignmentID),
		ReceiverName:       d.ReceiverName,
		ReceiverContact:    d.ReceiverContact,
		DeliveryDate:       d.DeliveryDate.UTC().Format(dateLayout),
		StationExpense:     money(d.StationExpense),
		BilityExpense:      money(d.BilityExpense),
		StationLabour:      money(d.StationLabour),
		CartLabour:         money(d.CartLabour),
		TotalExpenses:      money(d.TotalExpenses),
		ApprovalStatus:     d.ApprovalStatus,
		ApprovedBy:         idString(d.ApprovedBy),
		ApprovedAt:         timeString(d.ApprovedAt),
		Remarks:            d.Remarks,
		CreatedAt:          d.CreatedAt.UTC().Format(time.RFC3339),
	}
	if d.Shipment != nil {
		resp.RegisterNumber = d.Shipment.RegisterNumber
		resp.BilityNumber = d.Shipment.BilityNumber
	}
	if d.Approver != nil {
		resp.ApproverName = d.Approver.Username
	}
	return resp
}
