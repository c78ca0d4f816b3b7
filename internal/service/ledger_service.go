package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"freightops/internal/model"
	"freightops/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Fare status derived from a vehicle's most recent trip
const (
	FareStatusPaid   = "PAID"
	FareStatusUnpaid = "UNPAID"
	FareStatusNone   = "N/A"
)

// --- DTOs ---

type SettleFareRequest struct {
	PaymentAmount      decimal.Decimal `json:"payment_amount" binding:"gt=0"`
	TripID             string          `json:"trip_id" binding:"required"`
	OwedAmount         decimal.Decimal `json:"owed_amount" binding:"gte=0"`
	PaymentDescription string          `json:"payment_description"`
}

type VehicleTransactionRequest struct {
	Type        string          `json:"type" binding:"required,oneof=CREDIT DEBIT"`
	Amount      decimal.Decimal `json:"amount" binding:"gt=0"`
	Description string          `json:"description" binding:"required"`
	Date        string          `json:"date"` // YYYY-MM-DD, defaults to today
}

type LedgerSummary struct {
	TotalCredit string `json:"total_credit"`
	TotalDebit  string `json:"total_debit"`
	Balance     string `json:"balance"`
}

type VehicleLedgerSummary struct {
	VehicleID     string `json:"vehicle_id"`
	VehicleNumber string `json:"vehicle_number"`
	LedgerSummary
	FareStatus string `json:"fare_status"`
}

type PartyLedgerSummary struct {
	PartyID   *string `json:"party_id"`
	PartyName string  `json:"party_name"`
	LedgerSummary
}

type LedgerEntry struct {
	ID             string  `json:"id"`
	Date           string  `json:"date"`
	Description    string  `json:"description"`
	ShipmentID     *string `json:"shipment_id,omitempty"`
	TripID         *string `json:"trip_id,omitempty"`
	Role           string  `json:"role,omitempty"`
	Credit         string  `json:"credit"`
	Debit          string  `json:"debit"`
	RunningBalance string  `json:"running_balance"`
}

type VehicleLedgerDetail struct {
	VehicleID     string `json:"vehicle_id"`
	VehicleNumber string `json:"vehicle_number"`
	LedgerSummary
	Entries []LedgerEntry `json:"entries"`
}

type PartyLedgerDetail struct {
	PartyID   string `json:"party_id"`
	PartyName string `json:"party_name"`
	LedgerSummary
	Entries []LedgerEntry `json:"entries"`
}

type VehicleTransactionResponse struct {
	ID          string  `json:"id"`
	VehicleID   string  `json:"vehicle_id"`
	TripID      *string `json:"trip_id"`
	Credit      string  `json:"credit"`
	Debit       string  `json:"debit"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
}

// --- Ledger folding ---

type ledgerRow struct {
	credit decimal.Decimal
	debit  decimal.Decimal
}

// Balance returns credits minus debits
func Balance(credit, debit decimal.Decimal) decimal.Decimal {
	return credit.Sub(debit)
}

func summarize(credit, debit decimal.Decimal) LedgerSummary {
	return LedgerSummary{
		TotalCredit: money(credit),
		TotalDebit:  money(debit),
		Balance:     money(Balance(credit, debit)),
	}
}

// foldRunning returns the running balance after each row, in row order
func foldRunning(rows []ledgerRow) ([]decimal.Decimal, decimal.Decimal, decimal.Decimal) {
	running := decimal.Zero
	credits := decimal.Zero
	debits := decimal.Zero
	out := make([]decimal.Decimal, len(rows))
	for i, r := range rows {
		credits = credits.Add(r.credit)
		debits = debits.Add(r.debit)
		running = running.Add(r.credit).Sub(r.debit)
		out[i] = running
	}
	return out, credits, debits
}

// --- Interface ---

type LedgerService interface {
	VehicleLedgers(ctx context.Context) ([]VehicleLedgerSummary, error)
	VehicleLedger(ctx context.Context, vehicleID string) (VehicleLedgerDetail, error)
	PartyLedgers(ctx context.Context) ([]PartyLedgerSummary, error)
	PartyLedger(ctx context.Context, partyID string) (PartyLedgerDetail, error)
	SettleFare(ctx context.Context, actor Actor, vehicleID string, req SettleFareRequest) (VehicleTransactionResponse, error)
	PostVehicleTransaction(ctx context.Context, actor Actor, vehicleID string, req VehicleTransactionRequest) (VehicleTransactionResponse, error)
}

type ledgerService struct {
	summaryRepo    repository.LedgerSummaryRepository
	vehicleTxnRepo repository.VehicleTransactionRepository
	txnRepo        repository.TransactionRepository
	tripRepo       repository.TripRepository
	masterRepo     repository.MasterDataRepository
	partyRepo      repository.PartyRepository
	auditRepo      repository.AuditRepository
	txManager      repository.TransactionManager
	events         EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

func NewLedgerService(
	summaryRepo repository.LedgerSummaryRepository,
	vehicleTxnRepo repository.VehicleTransactionRepository,
	txnRepo repository.TransactionRepository,
	tripRepo repository.TripRepository,
	masterRepo repository.MasterDataRepository,
	partyRepo repository.PartyRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	events EventPublisher,
	logger *zap.Logger,
) LedgerService {
	return &ledgerService{
		summaryRepo:    summaryRepo,
		vehicleTxnRepo: vehicleTxnRepo,
		txnRepo:        txnRepo,
		tripRepo:       tripRepo,
		masterRepo:     masterRepo,
		partyRepo:      partyRepo,
		auditRepo:      auditRepo,
		txManager:      txManager,
		events:         publisherOrNoop(events),
		logger:         loggerOrNop(logger).Named("ledger"),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// --- Implementation ---

func (s *ledgerService) VehicleLedgers(ctx context.Context) ([]VehicleLedgerSummary, error) {
	rows, err := s.summaryRepo.VehicleBalances(ctx)
	if err != nil {
		return nil, err
	}
	fares, err := s.tripRepo.LatestFareStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load fare status: %w", err)
	}

	result := make([]VehicleLedgerSummary, 0, len(rows))
	for _, r := range rows {
		status := FareStatusNone
		if paid, ok := fares[r.VehicleID]; ok {
			status = FareStatusUnpaid
			if paid {
				status = FareStatusPaid
			}
		}
		result = append(result, VehicleLedgerSummary{
			VehicleID:     r.VehicleID.String(),
			VehicleNumber: r.VehicleNumber,
			LedgerSummary: summarize(r.TotalCredit, r.TotalDebit),
			FareStatus:    status,
		})
	}
	return result, nil
}

// VehicleLedger recomputes the running balance from the full history on every read
func (s *ledgerService) VehicleLedger(ctx context.Context, vehicleID string) (VehicleLedgerDetail, error) {
	vid, err := parseID(vehicleID, "vehicle id")
	if err != nil {
		return VehicleLedgerDetail{}, err
	}
	vehicle, err := s.masterRepo.FindVehicleByID(ctx, vid)
	if err != nil {
		return VehicleLedgerDetail{}, notFoundOr(err, "vehicle not found")
	}
	txns, err := s.vehicleTxnRepo.ListByVehicle(ctx, vid)
	if err != nil {
		return VehicleLedgerDetail{}, fmt.Errorf("failed to load vehicle ledger: %w", err)
	}

	rows := make([]ledgerRow, len(txns))
	for i, t := range txns {
		rows[i] = ledgerRow{credit: t.CreditAmount, debit: t.DebitAmount}
	}
	running, credits, debits := foldRunning(rows)

	entries := make([]LedgerEntry, len(txns))
	for i, t := range txns {
		entries[i] = LedgerEntry{
			ID:             t.ID.String(),
			Date:           t.TransactionDate.UTC().Format(dateLayout),
			Description:    t.Description,
			TripID:         idString(t.TripID),
			Credit:         money(t.CreditAmount),
			Debit:          money(t.DebitAmount),
			RunningBalance: money(running[i]),
		}
	}
	return VehicleLedgerDetail{
		VehicleID:     vehicle.ID.String(),
		VehicleNumber: vehicle.Number,
		LedgerSummary: summarize(credits, debits),
		Entries:       entries,
	}, nil
}

func (s *ledgerService) PartyLedgers(ctx context.Context) ([]PartyLedgerSummary, error) {
	rows, err := s.summaryRepo.PartyBalances(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]PartyLedgerSummary, 0, len(rows))
	for _, r := range rows {
		result = append(result, PartyLedgerSummary{
			PartyID:       idString(r.PartyID),
			PartyName:     r.PartyName,
			LedgerSummary: summarize(r.TotalCredit, r.TotalDebit),
		})
	}
	return result, nil
}

func (s *ledgerService) PartyLedger(ctx context.Context, partyID string) (PartyLedgerDetail, error) {
	pid, err := parseID(partyID, "party id")
	if err != nil {
		return PartyLedgerDetail{}, err
	}
	party, err := s.partyRepo.FindByID(ctx, pid)
	if err != nil {
		return PartyLedgerDetail{}, notFoundOr(err, "party not found")
	}
	txns, err := s.txnRepo.ListByParty(ctx, pid)
	if err != nil {
		return PartyLedgerDetail{}, fmt.Errorf("failed to load party ledger: %w", err)
	}

	rows := make([]ledgerRow, len(txns))
	for i, t := range txns {
		rows[i] = ledgerRow{credit: t.CreditAmount, debit: t.DebitAmount}
	}
	running, credits, debits := foldRunning(rows)

	entries := make([]LedgerEntry, len(txns))
	for i, t := range txns {
		entries[i] = LedgerEntry{
			ID:             t.ID.String(),
			Date:           t.TransactionDate.UTC().Format(dateLayout),
			Description:    t.Description,
			ShipmentID:     idString(t.ShipmentID),
			Role:           t.PartyRole,
			Credit:         money(t.CreditAmount),
			Debit:          money(t.DebitAmount),
			RunningBalance: money(running[i]),
		}
	}
	return PartyLedgerDetail{
		PartyID:       party.ID.String(),
		PartyName:     party.Name,
		LedgerSummary: summarize(credits, debits),
		Entries:       entries,
	}, nil
}

// SettleFare posts a full fare payment for one trip and marks it paid.
// Partial payments are rejected; they go through PostVehicleTransaction.
func (s *ledgerService) SettleFare(ctx context.Context, actor Actor, vehicleID string, req SettleFareRequest) (VehicleTransactionResponse, error) {
	if err := actor.validate(); err != nil {
		return VehicleTransactionResponse{}, err
	}
	vid, err := parseID(vehicleID, "vehicle id")
	if err != nil {
		return VehicleTransactionResponse{}, err
	}
	tripID, err := parseID(req.TripID, "trip_id")
	if err != nil {
		return VehicleTransactionResponse{}, err
	}
	if err := checkCents("payment_amount", req.PaymentAmount); err != nil {
		return VehicleTransactionResponse{}, err
	}
	if err := checkCents("owed_amount", req.OwedAmount); err != nil {
		return VehicleTransactionResponse{}, err
	}
	if !req.PaymentAmount.IsPositive() {
		return VehicleTransactionResponse{}, Validation("payment_amount must be greater than 0")
	}
	if req.OwedAmount.IsNegative() {
		return VehicleTransactionResponse{}, Validation("owed_amount must not be negative")
	}
	if req.PaymentAmount.LessThan(req.OwedAmount) {
		return VehicleTransactionResponse{}, Validation("payment amount %s is less than owed amount %s; partial payments must be posted as a vehicle transaction",
			money(req.PaymentAmount), money(req.OwedAmount))
	}

	var txn model.VehicleTransaction
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		vehicle, err := s.masterRepo.FindVehicleByID(txCtx, vid)
		if err != nil {
			return notFoundOr(err, "vehicle not found")
		}
		trip, err := s.tripRepo.FindByIDForUpdate(txCtx, tripID)
		if err != nil {
			return notFoundOr(err, "trip not found")
		}
		if trip.VehicleID != vid {
			return Validation("trip does not belong to vehicle %s", vehicle.Number)
		}
		if trip.FareIsPaid {
			return Conflict("trip fare is already paid")
		}
		// the stored received amount is what the trip owes, whatever the client claims
		if req.OwedAmount.LessThan(trip.ReceivedAmount) || req.PaymentAmount.LessThan(trip.ReceivedAmount) {
			return Validation("payment amount %s does not cover the trip's received amount %s; partial payments must be posted as a vehicle transaction",
				money(req.PaymentAmount), money(trip.ReceivedAmount))
		}

		description := strings.TrimSpace(req.PaymentDescription)
		if description == "" {
			description = fmt.Sprintf("Fare settlement for trip of %s", trip.TripDate.UTC().Format(dateLayout))
		}
		txn = model.VehicleTransaction{
			VehicleID:       vid,
			TripID:          &tripID,
			CreditAmount:    req.PaymentAmount,
			DebitAmount:     decimal.Zero,
			Description:     description,
			TransactionDate: s.now(),
			CreatedBy:       actor.ref(),
		}
		if err := s.vehicleTxnRepo.Create(txCtx, &txn); err != nil {
			return fmt.Errorf("failed to post fare payment: %w", err)
		}
		flipped, err := s.tripRepo.MarkFarePaid(txCtx, tripID)
		if err != nil {
			return fmt.Errorf("failed to mark fare paid: %w", err)
		}
		if !flipped {
			return Conflict("trip fare is already paid")
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionSettleFare, tripID.String(), vehicle.Number,
			map[string]interface{}{
				"payment_amount": money(req.PaymentAmount),
				"owed_amount":    money(req.OwedAmount),
			})
	})
	if err != nil {
		return VehicleTransactionResponse{}, err
	}

	s.logger.Info("trip fare settled",
		zap.String("vehicle_id", vid.String()),
		zap.String("trip_id", tripID.String()),
		zap.String("amount", money(req.PaymentAmount)))

	resp := toVehicleTransactionResponse(txn)
	s.events.Publish(EventFareSettled, resp)
	return resp, nil
}

// PostVehicleTransaction posts an ad hoc credit or debit with no trip link
func (s *ledgerService) PostVehicleTransaction(ctx context.Context, actor Actor, vehicleID string, req VehicleTransactionRequest) (VehicleTransactionResponse, error) {
	if err := actor.validate(); err != nil {
		return VehicleTransactionResponse{}, err
	}
	vid, err := parseID(vehicleID, "vehicle id")
	if err != nil {
		return VehicleTransactionResponse{}, err
	}
	if err := checkCents("amount", req.Amount); err != nil {
		return VehicleTransactionResponse{}, err
	}
	if !req.Amount.IsPositive() {
		return VehicleTransactionResponse{}, Validation("amount must be greater than 0")
	}
	if strings.TrimSpace(req.Description) == "" {
		return VehicleTransactionResponse{}, Validation("description is required")
	}
	date := s.now()
	if req.Date != "" {
		if date, err = parseDate(req.Date, "date"); err != nil {
			return VehicleTransactionResponse{}, err
		}
	}

	txn := model.VehicleTransaction{
		VehicleID:       vid,
		CreditAmount:    decimal.Zero,
		DebitAmount:     decimal.Zero,
		Description:     strings.TrimSpace(req.Description),
		TransactionDate: date,
		CreatedBy:       actor.ref(),
	}
	switch req.Type {
	case model.EntryCredit:
		txn.CreditAmount = req.Amount
	case model.EntryDebit:
		txn.DebitAmount = req.Amount
	default:
		return VehicleTransactionResponse{}, Validation("type must be CREDIT or DEBIT")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		vehicle, err := s.masterRepo.FindVehicleByID(txCtx, vid)
		if err != nil {
			return notFoundOr(err, "vehicle not found")
		}
		if err := s.vehicleTxnRepo.Create(txCtx, &txn); err != nil {
			return fmt.Errorf("failed to post vehicle transaction: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionVehicleTransaction, txn.ID.String(), vehicle.Number,
			map[string]interface{}{"type": req.Type, "amount": money(req.Amount)})
	})
	if err != nil {
		return VehicleTransactionResponse{}, err
	}

	resp := toVehicleTransactionResponse(txn)
	s.events.Publish(EventVehicleTransaction, resp)
	return resp, nil
}

func toVehicleTransactionResponse(t model.VehicleTransaction) VehicleTransactionResponse {
	return VehicleTransactionResponse{
		ID:          t.ID.String(),
		VehicleID:   t.VehicleID.String(),
		TripID:      idString(t.TripID),
		Credit:      money(t.CreditAmount),
		Debit:       money(t.DebitAmount),
		Description: t.Description,
		Date:        t.TransactionDate.UTC().Format(dateLayout),
	}
}

