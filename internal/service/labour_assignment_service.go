package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"freightops/internal/model"
	"freightops/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// --- DTOs ---

type CreateAssignmentRequest struct {
	LabourPersonID string   `json:"labour_person_id" binding:"required"`
	ShipmentIDs    []string `json:"shipment_ids" binding:"required,min=1"`
	AssignedDate   string   `json:"assigned_date"` // YYYY-MM-DD, defaults to today
	DueDate        string   `json:"due_date"`
	Notes          string   `json:"notes"`
}

type AssignmentActionRequest struct {
	AssignmentID    string          `json:"assignment_id"`
	Action          string          `json:"action" binding:"required,oneof=DELIVER COLLECT SETTLE"`
	CollectedAmount decimal.Decimal `json:"collected_amount" binding:"gte=0"`
	StationExpense  decimal.Decimal `json:"station_expense" binding:"gte=0"`
	BilityExpense   decimal.Decimal `json:"bility_expense" binding:"gte=0"`
	StationLabour   decimal.Decimal `json:"station_labour" binding:"gte=0"`
	CartLabour      decimal.Decimal `json:"cart_labour" binding:"gte=0"`
	Notes           string          `json:"notes"`
}

type AssignmentListFilter struct {
	LabourPersonID string
	Status         string
	ExcludeSettled bool
	Page           int
	Limit          int
}

type AssignmentResponse struct {
	ID               string  `json:"id"`
	LabourPersonID   string  `json:"labour_person_id"`
	LabourPersonName string  `json:"labour_person_name"`
	ShipmentID       string  `json:"shipment_id"`
	RegisterNumber   string  `json:"register_number"`
	BilityNumber     string  `json:"bility_number"`
	Status           string  `json:"status"`
	AssignedDate     string  `json:"assigned_date"`
	DueDate          *string `json:"due_date"`
	CollectedAmount  string  `json:"collected_amount"`
	SettledDate      *string `json:"settled_date"`
	Notes            string  `json:"notes"`
}

// AssignmentConflict lists the shipments that blocked an assignment
type AssignmentConflict struct {
	Delivered []string `json:"delivered,omitempty"`
	Assigned  []string `json:"assigned,omitempty"`
}

// --- Interface ---

type LabourAssignmentService interface {
	CreateAssignments(ctx context.Context, actor Actor, req CreateAssignmentRequest) ([]AssignmentResponse, error)
	Transition(ctx context.Context, actor Actor, req AssignmentActionRequest) (AssignmentResponse, error)
	ListAssignments(ctx context.Context, filter AssignmentListFilter) ([]AssignmentResponse, int64, error)
}

type labourAssignmentService struct {
	labourRepo   repository.LabourRepository
	shipmentRepo repository.ShipmentRepository
	deliveryRepo repository.DeliveryRepository
	txnRepo      repository.TransactionRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	events       EventPublisher
	logger       *zap.Logger
	now          func() time.Time
}

func NewLabourAssignmentService(
	labourRepo repository.LabourRepository,
	shipmentRepo repository.ShipmentRepository,
	deliveryRepo repository.DeliveryRepository,
	txnRepo repository.TransactionRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	events EventPublisher,
	logger *zap.Logger,
) LabourAssignmentService {
	return &labourAssignmentService{
		labourRepo:   labourRepo,
		shipmentRepo: shipmentRepo,
		deliveryRepo: deliveryRepo,
		txnRepo:      txnRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		events:       publisherOrNoop(events),
		logger:       loggerOrNop(logger).Named("labour"),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// --- Implementation ---

// CreateAssignments assigns undelivered, unassigned shipments to a labour
// person. Any blocking shipment rejects the whole request.
func (s *labourAssignmentService) CreateAssignments(ctx context.Context, actor Actor, req CreateAssignmentRequest) ([]AssignmentResponse, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	personID, err := parseID(req.LabourPersonID, "labour_person_id")
	if err != nil {
		return nil, err
	}
	if len(req.ShipmentIDs) == 0 {
		return nil, Validation("shipment_ids must not be empty")
	}
	shipmentIDs := make([]uuid.UUID, 0, len(req.ShipmentIDs))
	seen := make(map[uuid.UUID]bool, len(req.ShipmentIDs))
	for _, raw := range req.ShipmentIDs {
		id, parseErr := parseID(raw, "shipment id")
		if parseErr != nil {
			return nil, parseErr
		}
		if !seen[id] {
			seen[id] = true
			shipmentIDs = append(shipmentIDs, id)
		}
	}

	assignedDate := s.now()
	if req.AssignedDate != "" {
		if assignedDate, err = parseDate(req.AssignedDate, "assigned_date"); err != nil {
			return nil, err
		}
	}
	var dueDate *time.Time
	if req.DueDate != "" {
		d, parseErr := parseDate(req.DueDate, "due_date")
		if parseErr != nil {
			return nil, parseErr
		}
		dueDate = &d
	}

	var created []model.LabourAssignment
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		person, err := s.labourRepo.FindPersonByID(txCtx, personID)
		if err != nil {
			return notFoundOr(err, "labour person not found")
		}
		if !person.IsActive {
			return Conflict("labour person %s is inactive", person.Name)
		}

		shipments, err := s.shipmentRepo.FindByIDsForUpdate(txCtx, shipmentIDs)
		if err != nil {
			return fmt.Errorf("failed to lock shipments: %w", err)
		}
		found := make(map[uuid.UUID]model.Shipment, len(shipments))
		for _, sh := range shipments {
			found[sh.ID] = sh
		}
		var missing []string
		for _, id := range shipmentIDs {
			if _, ok := found[id]; !ok {
				missing = append(missing, id.String())
			}
		}
		if len(missing) > 0 {
			return &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: "shipments not found", Details: missing}
		}

		var conflict AssignmentConflict
		for _, id := range shipmentIDs {
			if found[id].DeliveryDate != nil {
				conflict.Delivered = append(conflict.Delivered, id.String())
			}
		}
		active, err := s.labourRepo.ActiveShipmentIDs(txCtx, shipmentIDs)
		if err != nil {
			return fmt.Errorf("failed to check active assignments: %w", err)
		}
		for _, id := range active {
			conflict.Assigned = append(conflict.Assigned, id.String())
		}
		if len(conflict.Delivered) > 0 || len(conflict.Assigned) > 0 {
			sort.Strings(conflict.Delivered)
			sort.Strings(conflict.Assigned)
			return ConflictWithDetails(conflict, "some shipments are already delivered or assigned")
		}

		created = make([]model.LabourAssignment, 0, len(shipmentIDs))
		for _, id := range shipmentIDs {
			created = append(created, model.LabourAssignment{
				LabourPersonID:  personID,
				ShipmentID:      id,
				Status:          model.AssignmentAssigned,
				AssignedDate:    assignedDate,
				DueDate:         dueDate,
				CollectedAmount: decimal.Zero,
				Notes:           req.Notes,
				CreatedBy:       actor.ref(),
			})
		}
		if err := s.labourRepo.CreateAssignments(txCtx, created); err != nil {
			if repository.IsUniqueViolation(err, "labour_assignments", "shipment_id") {
				return Conflict("shipment was assigned concurrently")
			}
			return fmt.Errorf("failed to create assignments: %w", err)
		}
		for i := range created {
			created[i].LabourPerson = person
			sh := found[created[i].ShipmentID]
			created[i].Shipment = &sh
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionAssignLabour, personID.String(), person.Name,
			map[string]interface{}{"shipment_ids": req.ShipmentIDs})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("shipments assigned",
		zap.String("labour_person_id", personID.String()),
		zap.Int("count", len(created)))

	result := make([]AssignmentResponse, 0, len(created))
	for _, a := range created {
		result = append(result, toAssignmentResponse(a))
	}
	s.events.Publish(EventLabourAssigned, result)
	return result, nil
}

// Transition applies DELIVER, COLLECT or SETTLE in one transaction
func (s *labourAssignmentService) Transition(ctx context.Context, actor Actor, req AssignmentActionRequest) (AssignmentResponse, error) {
	if err := actor.validate(); err != nil {
		return AssignmentResponse{}, err
	}
	assignmentID, err := parseID(req.AssignmentID, "assignment_id")
	if err != nil {
		return AssignmentResponse{}, err
	}
	switch req.Action {
	case model.LabourActionDeliver, model.LabourActionCollect, model.LabourActionSettle:
	default:
		return AssignmentResponse{}, Validation("invalid action %q", req.Action)
	}

	var assignment *model.LabourAssignment
	var previous string
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		assignment, err = s.labourRepo.FindAssignmentForUpdate(txCtx, assignmentID)
		if err != nil {
			return notFoundOr(err, "labour assignment not found")
		}
		previous = assignment.Status

		switch req.Action {
		case model.LabourActionDeliver:
			err = s.deliver(txCtx, assignment)
		case model.LabourActionCollect:
			err = s.collect(txCtx, assignment, req)
		case model.LabourActionSettle:
			err = s.settle(txCtx, actor, assignment)
		}
		if err != nil {
			return err
		}
		if req.Notes != "" {
			assignment.Notes = req.Notes
		}
		if err := s.labourRepo.UpdateAssignment(txCtx, assignment); err != nil {
			return fmt.Errorf("failed to update assignment: %w", err)
		}

		return writeAudit(txCtx, s.auditRepo, actor, transitionAuditAction(req.Action), assignment.ID.String(), assignment.Shipment.RegisterNumber,
			map[string]interface{}{
				"from":             previous,
				"to":               assignment.Status,
				"collected_amount": money(assignment.CollectedAmount),
			})
	})
	if err != nil {
		return AssignmentResponse{}, err
	}

	s.logger.Info("labour assignment transition",
		zap.String("assignment_id", assignmentID.String()),
		zap.String("action", req.Action),
		zap.String("from", previous),
		zap.String("to", assignment.Status))

	resp := toAssignmentResponse(*assignment)
	s.events.Publish(EventLabourTransition, resp)
	return resp, nil
}

// deliver creates the zero-expense delivery and stamps the shipment
func (s *labourAssignmentService) deliver(ctx context.Context, a *model.LabourAssignment) error {
	if a.Status != model.AssignmentAssigned {
		return Conflict("cannot deliver an assignment in status %s", a.Status)
	}
	exists, err := s.deliveryRepo.ExistsForShipment(ctx, a.ShipmentID)
	if err != nil {
		return fmt.Errorf("failed to check delivery: %w", err)
	}
	if exists {
		return Conflict("delivery already recorded for this shipment")
	}

	now := s.now()
	shipment := a.Shipment
	contact := ""
	if shipment.Receiver != nil {
		contact = shipment.Receiver.Phone
	}
	assignmentID := a.ID
	delivery := model.Delivery{
		ShipmentID:         a.ShipmentID,
		LabourAssignmentID: &assignmentID,
		ReceiverName:       shipment.ResolvedReceiverName(),
		ReceiverContact:    contact,
		DeliveryDate:       now,
		StationExpense:     decimal.Zero,
		BilityExpense:      decimal.Zero,
		StationLabour:      decimal.Zero,
		CartLabour:         decimal.Zero,
		TotalExpenses:      decimal.Zero,
		ApprovalStatus:     model.DeliveryPending,
	}
	if err := s.deliveryRepo.Create(ctx, &delivery); err != nil {
		return fmt.Errorf("failed to create delivery: %w", err)
	}
	if err := s.shipmentRepo.SetDeliveryDate(ctx, a.ShipmentID, now); err != nil {
		return fmt.Errorf("failed to set shipment delivery date: %w", err)
	}
	shipment.DeliveryDate = &now

	a.Status = model.AssignmentDelivered
	return nil
}

// collect records the cash taken and back-fills the delivery expenses.
// A COLLECTED assignment may be collected again to correct the figures.
func (s *labourAssignmentService) collect(ctx context.Context, a *model.LabourAssignment, req AssignmentActionRequest) error {
	if a.Status != model.AssignmentDelivered && a.Status != model.AssignmentCollected {
		return Conflict("cannot collect an assignment in status %s", a.Status)
	}
	if err := checkCents("collected_amount", req.CollectedAmount); err != nil {
		return err
	}
	if err := checkCents("expenses", req.StationExpense, req.BilityExpense, req.StationLabour, req.CartLabour); err != nil {
		return err
	}
	if !req.CollectedAmount.IsPositive() {
		return Validation("collected_amount must be greater than 0")
	}
	if req.StationExpense.IsNegative() || req.BilityExpense.IsNegative() ||
		req.StationLabour.IsNegative() || req.CartLabour.IsNegative() {
		return Validation("expenses must not be negative")
	}

	delivery, err := s.deliveryRepo.FindByShipmentID(ctx, a.ShipmentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return Conflict("delivery record missing")
		}
		return fmt.Errorf("failed to load delivery: %w", err)
	}
	delivery.StationExpense = req.StationExpense
	delivery.BilityExpense = req.BilityExpense
	delivery.StationLabour = req.StationLabour
	delivery.CartLabour = req.CartLabour
	delivery.TotalExpenses = model.SumExpenses(req.StationExpense, req.BilityExpense, req.StationLabour, req.CartLabour)
	if err := s.deliveryRepo.Update(ctx, delivery); err != nil {
		return fmt.Errorf("failed to update delivery expenses: %w", err)
	}

	a.CollectedAmount = req.CollectedAmount
	if a.Status == model.AssignmentDelivered {
		a.Status = model.AssignmentCollected
	}
	return nil
}

// settle posts the receiver credit for the collected cash
func (s *labourAssignmentService) settle(ctx context.Context, actor Actor, a *model.LabourAssignment) error {
	if a.Status != model.AssignmentCollected {
		return Conflict("cannot settle an assignment in status %s", a.Status)
	}

	posted, err := s.txnRepo.CountByShipmentRole(ctx, a.ShipmentID, model.PartyRoleReceiver)
	if err != nil {
		return fmt.Errorf("failed to check receiver credits: %w", err)
	}
	if posted > 0 {
		return Conflict("receiver credit already posted for this shipment")
	}

	now := s.now()
	shipment := a.Shipment
	txn := model.Transaction{
		PartyID:         shipment.ReceiverID,
		PartyName:       shipment.ResolvedReceiverName(),
		PartyRole:       model.PartyRoleReceiver,
		ShipmentID:      &a.ShipmentID,
		CreditAmount:    a.CollectedAmount,
		DebitAmount:     decimal.Zero,
		Description:     fmt.Sprintf("Collection settled for bility %s (%s)", shipment.BilityNumber, shipment.RegisterNumber),
		TransactionDate: now,
		CreatedBy:       actor.ref(),
	}
	if err := s.txnRepo.Create(ctx, &txn); err != nil {
		return fmt.Errorf("failed to post receiver credit: %w", err)
	}

	a.Status = model.AssignmentSettled
	a.SettledDate = &now
	return nil
}

func transitionAuditAction(action string) string {
	switch action {
	case model.LabourActionDeliver:
		return model.ActionLabourDeliver
	case model.LabourActionCollect:
		return model.ActionLabourCollect
	default:
		return model.ActionLabourSettle
	}
}

func (s *labourAssignmentService) ListAssignments(ctx context.Context, filter AssignmentListFilter) ([]AssignmentResponse, int64, error) {
	page, limit := normalizePage(filter.Page, filter.Limit)
	query := repository.AssignmentFilter{
		Status:         filter.Status,
		ExcludeSettled: filter.ExcludeSettled,
		Page:           page,
		Limit:          limit,
	}
	personID, err := parseOptionalID(filter.LabourPersonID, "labour_person_id")
	if err != nil {
		return nil, 0, err
	}
	query.LabourPersonID = personID

	assignments, total, err := s.labourRepo.ListAssignments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list assignments: %w", err)
	}
	result := make([]AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		result = append(result, toAssignmentResponse(a))
	}
	return result, total, nil
}

func toAssignmentResponse(a model.LabourAssignment) AssignmentResponse {
	resp := AssignmentResponse{
		ID:              a.ID.String(),
		LabourPersonID:  a.LabourPersonID.String(),
		ShipmentID:      a.ShipmentID.String(),
		Status:          a.Status,
		AssignedDate:    a.AssignedDate.UTC().Format(dateLayout),
		DueDate:         timeString(a.DueDate),
		CollectedAmount: money(a.CollectedAmount),
		SettledDate:     timeString(a.SettledDate),
		Notes:           a.Notes,
	}
	if a.LabourPerson != nil {
		resp.LabourPersonName = a.LabourPerson.Name
	}
	if a.Shipment != nil {
		resp.RegisterNumber = a.Shipment.RegisterNumber
		resp.BilityNumber = a.Shipment.BilityNumber
	}
	return resp
}
