package service

import (
	"context"
	"fmt"
	"time"

	"freightops/internal/model"
	"freightops/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// --- DTOs ---

type LabourPaymentRequest struct {
	LabourPersonID string          `json:"labour_person_id" binding:"required"`
	ShipmentID     string          `json:"shipment_id"`
	Amount         decimal.Decimal `json:"amount" binding:"gt=0"`
	PaymentDate    string          `json:"payment_date"` // YYYY-MM-DD, defaults to today
	Notes          string          `json:"notes"`
}

type LabourSettlementSummary struct {
	LabourPersonID   string `json:"labour_person_id"`
	LabourPersonName string `json:"labour_person_name"`
	Due              string `json:"due"`
	Paid             string `json:"paid"`
	Balance          string `json:"balance"`
	CollectedCash    string `json:"collected_cash"`
}

type LabourPaymentResponse struct {
	ID             string  `json:"id"`
	LabourPersonID string  `json:"labour_person_id"`
	ShipmentID     *string `json:"shipment_id"`
	Amount         string  `json:"amount"`
	PaymentDate    string  `json:"payment_date"`
	Notes          string  `json:"notes"`
}

// --- Interface ---

type LabourSettlementService interface {
	ListSettlements(ctx context.Context) ([]LabourSettlementSummary, error)
	RecordPayment(ctx context.Context, actor Actor, req LabourPaymentRequest) (LabourPaymentResponse, error)
	ListPayments(ctx context.Context, labourPersonID string) ([]LabourPaymentResponse, error)
}

type labourSettlementService struct {
	labourRepo  repository.LabourRepository
	summaryRepo repository.LedgerSummaryRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	events      EventPublisher
	logger      *zap.Logger
	now         func() time.Time
}

func NewLabourSettlementService(
	labourRepo repository.LabourRepository,
	summaryRepo repository.LedgerSummaryRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	events EventPublisher,
	logger *zap.Logger,
) LabourSettlementService {
	return &labourSettlementService{
		labourRepo:  labourRepo,
		summaryRepo: summaryRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		events:      publisherOrNoop(events),
		logger:      loggerOrNop(logger).Named("labour_settlement"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// --- Implementation ---

// ListSettlements rolls up, per labour person, what they earned through
// delivery expenses against what has been paid to them.
func (s *labourSettlementService) ListSettlements(ctx context.Context) ([]LabourSettlementSummary, error) {
	persons, err := s.labourRepo.ListPersons(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list labour persons: %w", err)
	}
	totals, err := s.summaryRepo.LabourTotals(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]LabourSettlementSummary, 0, len(persons))
	for _, p := range persons {
		due := totals.Due[p.ID]
		paid := totals.Paid[p.ID]
		result = append(result, LabourSettlementSummary{
			LabourPersonID:   p.ID.String(),
			LabourPersonName: p.Name,
			Due:              money(due),
			Paid:             money(paid),
			Balance:          money(due.Sub(paid)),
			CollectedCash:    money(totals.Outstanding[p.ID]),
		})
	}
	return result, nil
}

func (s *labourSettlementService) RecordPayment(ctx context.Context, actor Actor, req LabourPaymentRequest) (LabourPaymentResponse, error) {
	if err := actor.validate(); err != nil {
		return LabourPaymentResponse{}, err
	}
	personID, err := parseID(req.LabourPersonID, "labour_person_id")
	if err != nil {
		return LabourPaymentResponse{}, err
	}
	shipmentID, err := parseOptionalID(req.ShipmentID, "shipment_id")
	if err != nil {
		return LabourPaymentResponse{}, err
	}
	if err := checkCents("amount", req.Amount); err != nil {
		return LabourPaymentResponse{}, err
	}
	if !req.Amount.IsPositive() {
		return LabourPaymentResponse{}, Validation("amount must be greater than 0")
	}
	paymentDate := s.now()
	if req.PaymentDate != "" {
		if paymentDate, err = parseDate(req.PaymentDate, "payment_date"); err != nil {
			return LabourPaymentResponse{}, err
		}
	}

	payment := model.LabourPaymentHistory{
		LabourPersonID: personID,
		ShipmentID:     shipmentID,
		Amount:         req.Amount,
		PaymentDate:    paymentDate,
		Notes:          req.Notes,
		CreatedBy:      actor.ref(),
	}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		person, err := s.labourRepo.FindPersonByID(txCtx, personID)
		if err != nil {
			return notFoundOr(err, "labour person not found")
		}
		if shipmentID != nil {
			ok, err := s.labourRepo.PersonHasShipment(txCtx, personID, *shipmentID)
			if err != nil {
				return fmt.Errorf("failed to check assignment: %w", err)
			}
			if !ok {
				return Validation("shipment is not assigned to %s", person.Name)
			}
		}
		if err := s.labourRepo.CreatePayment(txCtx, &payment); err != nil {
			return fmt.Errorf("failed to record labour payment: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionLabourPayment, payment.ID.String(), person.Name,
			map[string]interface{}{"amount": money(req.Amount)})
	})
	if err != nil {
		return LabourPaymentResponse{}, err
	}

	s.logger.Info("labour payment recorded",
		zap.String("labour_person_id", personID.String()),
		zap.String("amount", money(req.Amount)))

	resp := toPaymentResponse(payment)
	s.events.Publish(EventLabourPayment, resp)
	return resp, nil
}

// ListPayments returns a labour person's payment history, newest first
func (s *labourSettlementService) ListPayments(ctx context.Context, labourPersonID string) ([]LabourPaymentResponse, error) {
	personID, err := parseID(labourPersonID, "labour person id")
	if err != nil {
		return nil, err
	}
	if _, err := s.labourRepo.FindPersonByID(ctx, personID); err != nil {
		return nil, notFoundOr(err, "labour person not found")
	}
	payments, err := s.labourRepo.ListPayments(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("failed to list labour payments: %w", err)
	}
	result := make([]LabourPaymentResponse, 0, len(payments))
	for _, p := range payments {
		result = append(result, toPaymentResponse(p))
	}
	return result, nil
}

func toPaymentResponse(p model.LabourPaymentHistory) LabourPaymentResponse {
	return LabourPaymentResponse{
		ID:             p.ID.String(),
		LabourPersonID: p.LabourPersonID.String(),
		ShipmentID:     idString(p.ShipmentID),
		Amount:         money(p.Amount),
		PaymentDate:    p.PaymentDate.UTC().Format(dateLayout),
		Notes:          p.Notes,
	}
}
