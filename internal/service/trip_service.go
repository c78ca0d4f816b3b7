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

var hundred = decimal.NewFromInt(100)

// --- DTOs ---

type TripLineRequest struct {
	ShipmentID      string          `json:"shipment_id"`
	BilityNumber    string          `json:"bility_number"`
	ReceiverName    string          `json:"receiver_name"`
	ItemName        string          `json:"item_name"`
	Quantity        int             `json:"quantity" binding:"gte=0"`
	TotalCharges    decimal.Decimal `json:"total_charges" binding:"gte=0"`
	DeliveryCharges decimal.Decimal `json:"delivery_charges" binding:"gte=0"`
}

type LogTripRequest struct {
	VehicleID             string            `json:"vehicle_id" binding:"required"`
	TripDate              string            `json:"trip_date"` // YYYY-MM-DD, defaults to today
	DriverName            string            `json:"driver_name"`
	DepartureCityID       string            `json:"departure_city_id"`
	DestinationCityID     string            `json:"destination_city_id"`
	DeliveryCutPercentage decimal.Decimal   `json:"delivery_cut_percentage" binding:"gte=0,lte=100"`
	Cuts                  decimal.Decimal   `json:"cuts" binding:"gte=0"`
	AccountantCharges     decimal.Decimal   `json:"accountant_charges" binding:"gte=0"`
	Notes                 string            `json:"notes"`
	Lines                 []TripLineRequest `json:"lines" binding:"required,min=1,dive"`
}

type TripListFilter struct {
	VehicleID string
	From      string
	To        string
	Page      int
	Limit     int
}

type TripLineResponse struct {
	ID              string  `json:"id"`
	ShipmentID      *string `json:"shipment_id"`
	BilityNumber    string  `json:"bility_number"`
	ReceiverName    string  `json:"receiver_name"`
	ItemName        string  `json:"item_name"`
	Quantity        int     `json:"quantity"`
	TotalCharges    string  `json:"total_charges"`
	DeliveryCharges string  `json:"delivery_charges"`
}

type TripResponse struct {
	ID                    string                       `json:"id"`
	VehicleID             string                       `json:"vehicle_id"`
	VehicleNumber         string                       `json:"vehicle_number,omitempty"`
	TripDate              string                       `json:"trip_date"`
	DriverName            string                       `json:"driver_name"`
	TotalFareCollected    string                       `json:"total_fare_collected"`
	DeliveryCutPercentage string                       `json:"delivery_cut_percentage"`
	DeliveryCut           string                       `json:"delivery_cut"`
	Cuts                  string                       `json:"cuts"`
	AccountantCharges     string                       `json:"accountant_charges"`
	ReceivedAmount        string                       `json:"received_amount"`
	FareIsPaid            bool                         `json:"fare_is_paid"`
	Notes                 string                       `json:"notes"`
	Lines                 []TripLineResponse           `json:"lines,omitempty"`
	LedgerEntries         []VehicleTransactionResponse `json:"ledger_entries,omitempty"`
	CreatedAt             string                       `json:"created_at"`
}

// TripFigures is the server-side fare roll-up of a trip
type TripFigures struct {
	TotalFare      decimal.Decimal
	DeliveryCut    decimal.Decimal
	ReceivedAmount decimal.Decimal
}

// ComputeTripFigures sums the per-line delivery charges, takes the delivery
// cut percentage off the total and clamps the received amount at zero.
func ComputeTripFigures(deliveryCharges []decimal.Decimal, cutPercentage, cuts, accountantCharges decimal.Decimal) TripFigures {
	total := decimal.Zero
	for _, c := range deliveryCharges {
		total = total.Add(c)
	}
	cut := total.Mul(cutPercentage).Div(hundred).Round(2)
	received := total.Sub(cut).Sub(cuts).Sub(accountantCharges)
	if received.IsNegative() {
		received = decimal.Zero
	}
	return TripFigures{TotalFare: total, DeliveryCut: cut, ReceivedAmount: received}
}

// --- Interface ---

type TripService interface {
	LogTrip(ctx context.Context, actor Actor, req LogTripRequest) (TripResponse, error)
	GetTrip(ctx context.Context, id string) (TripResponse, error)
	ListTrips(ctx context.Context, filter TripListFilter) ([]TripResponse, int64, error)
}

type tripService struct {
	tripRepo       repository.TripRepository
	vehicleTxnRepo repository.VehicleTransactionRepository
	shipmentRepo   repository.ShipmentRepository
	masterRepo     repository.MasterDataRepository
	auditRepo      repository.AuditRepository
	txManager      repository.TransactionManager
	events         EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

func NewTripService(
	tripRepo repository.TripRepository,
	vehicleTxnRepo repository.VehicleTransactionRepository,
	shipmentRepo repository.ShipmentRepository,
	masterRepo repository.MasterDataRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	events EventPublisher,
	logger *zap.Logger,
) TripService {
	return &tripService{
		tripRepo:       tripRepo,
		vehicleTxnRepo: vehicleTxnRepo,
		shipmentRepo:   shipmentRepo,
		masterRepo:     masterRepo,
		auditRepo:      auditRepo,
		txManager:      txManager,
		events:         publisherOrNoop(events),
		logger:         loggerOrNop(logger).Named("trip"),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// --- Implementation ---

// LogTrip stores the trip with snapshot lines and debits the vehicle ledger
// with the received amount. Client-side totals are never trusted.
func (s *tripService) LogTrip(ctx context.Context, actor Actor, req LogTripRequest) (TripResponse, error) {
	if err := actor.validate(); err != nil {
		return TripResponse{}, err
	}
	vid, err := parseID(req.VehicleID, "vehicle_id")
	if err != nil {
		return TripResponse{}, err
	}
	if len(req.Lines) == 0 {
		return TripResponse{}, Validation("at least one shipment line is required")
	}
	if req.DeliveryCutPercentage.IsNegative() || req.DeliveryCutPercentage.GreaterThan(hundred) {
		return TripResponse{}, Validation("delivery_cut_percentage must be between 0 and 100")
	}
	if req.Cuts.IsNegative() || req.AccountantCharges.IsNegative() {
		return TripResponse{}, Validation("cuts and accountant_charges must not be negative")
	}
	if err := checkCents("cuts and accountant_charges", req.Cuts, req.AccountantCharges); err != nil {
		return TripResponse{}, err
	}
	tripDate := s.now()
	if req.TripDate != "" {
		if tripDate, err = parseDate(req.TripDate, "trip_date"); err != nil {
			return TripResponse{}, err
		}
	}

	trip := model.TripLog{
		VehicleID:             vid,
		TripDate:              tripDate,
		DriverName:            strings.TrimSpace(req.DriverName),
		DeliveryCutPercentage: req.DeliveryCutPercentage,
		Cuts:                  req.Cuts,
		AccountantCharges:     req.AccountantCharges,
		Notes:                 req.Notes,
		CreatedBy:             actor.ref(),
	}
	if trip.DepartureCityID, err = parseOptionalID(req.DepartureCityID, "departure_city_id"); err != nil {
		return TripResponse{}, err
	}
	if trip.DestinationCityID, err = parseOptionalID(req.DestinationCityID, "destination_city_id"); err != nil {
		return TripResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		vehicle, err := s.masterRepo.FindVehicleByID(txCtx, vid)
		if err != nil {
			return notFoundOr(err, "vehicle not found")
		}
		if trip.DriverName == "" {
			trip.DriverName = vehicle.DriverName
		}

		charges := make([]decimal.Decimal, 0, len(req.Lines))
		for i, line := range req.Lines {
			snapshot, err := s.snapshotLine(txCtx, i, line)
			if err != nil {
				return err
			}
			trip.Lines = append(trip.Lines, snapshot)
			charges = append(charges, snapshot.DeliveryCharges)
		}

		figures := ComputeTripFigures(charges, trip.DeliveryCutPercentage, trip.Cuts, trip.AccountantCharges)
		trip.TotalFareCollected = figures.TotalFare
		trip.DeliveryCut = figures.DeliveryCut
		trip.ReceivedAmount = figures.ReceivedAmount

		if err := s.tripRepo.Create(txCtx, &trip); err != nil {
			return fmt.Errorf("failed to create trip log: %w", err)
		}

		tripID := trip.ID
		debit := model.VehicleTransaction{
			VehicleID:       vid,
			TripID:          &tripID,
			CreditAmount:    decimal.Zero,
			DebitAmount:     trip.ReceivedAmount,
			Description:     fmt.Sprintf("Trip of %s received amount", tripDate.Format(dateLayout)),
			TransactionDate: tripDate,
			CreatedBy:       actor.ref(),
		}
		if err := s.vehicleTxnRepo.Create(txCtx, &debit); err != nil {
			return fmt.Errorf("failed to post trip debit: %w", err)
		}
		trip.Vehicle = vehicle

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionLogTrip, trip.ID.String(), vehicle.Number,
			map[string]interface{}{
				"total_fare":      money(trip.TotalFareCollected),
				"delivery_cut":    money(trip.DeliveryCut),
				"received_amount": money(trip.ReceivedAmount),
			})
	})
	if err != nil {
		return TripResponse{}, err
	}

	s.logger.Info("trip logged",
		zap.String("trip_id", trip.ID.String()),
		zap.String("vehicle_id", vid.String()),
		zap.String("received_amount", money(trip.ReceivedAmount)))

	resp := toTripResponse(trip)
	s.events.Publish(EventTripLogged, resp)
	return resp, nil
}

// snapshotLine copies the shipment's current names into the trip line
func (s *tripService) snapshotLine(ctx context.Context, i int, line TripLineRequest) (model.TripShipmentLog, error) {
	if line.Quantity < 0 || line.TotalCharges.IsNegative() || line.DeliveryCharges.IsNegative() {
		return model.TripShipmentLog{}, Validation("lines[%d] amounts must not be negative", i)
	}
	if err := checkCents(fmt.Sprintf("lines[%d] amounts", i), line.TotalCharges, line.DeliveryCharges); err != nil {
		return model.TripShipmentLog{}, err
	}
	snapshot := model.TripShipmentLog{
		BilityNumber:    strings.TrimSpace(line.BilityNumber),
		ReceiverName:    strings.TrimSpace(line.ReceiverName),
		ItemName:        strings.TrimSpace(line.ItemName),
		Quantity:        line.Quantity,
		TotalCharges:    line.TotalCharges,
		DeliveryCharges: line.DeliveryCharges,
	}
	shipmentID, err := parseOptionalID(line.ShipmentID, fmt.Sprintf("lines[%d].shipment_id", i))
	if err != nil {
		return model.TripShipmentLog{}, err
	}
	if shipmentID == nil {
		return snapshot, nil
	}

	shipment, err := s.shipmentRepo.FindByID(ctx, *shipmentID)
	if err != nil {
		return model.TripShipmentLog{}, notFoundOr(err, fmt.Sprintf("lines[%d] shipment not found", i))
	}
	snapshot.ShipmentID = shipmentID
	if snapshot.BilityNumber == "" {
		snapshot.BilityNumber = shipment.BilityNumber
	}
	if snapshot.ReceiverName == "" {
		snapshot.ReceiverName = shipment.ResolvedReceiverName()
	}
	return snapshot, nil
}

func (s *tripService) GetTrip(ctx context.Context, id string) (TripResponse, error) {
	tripID, err := parseID(id, "trip id")
	if err != nil {
		return TripResponse{}, err
	}
	trip, err := s.tripRepo.FindByID(ctx, tripID)
	if err != nil {
		return TripResponse{}, notFoundOr(err, "trip not found")
	}
	txns, err := s.vehicleTxnRepo.ListByTrip(ctx, tripID)
	if err != nil {
		return TripResponse{}, fmt.Errorf("failed to load trip ledger entries: %w", err)
	}

	resp := toTripResponse(*trip)
	for _, t := range txns {
		resp.LedgerEntries = append(resp.LedgerEntries, toVehicleTransactionResponse(t))
	}
	return resp, nil
}

func (s *tripService) ListTrips(ctx context.Context, filter TripListFilter) ([]TripResponse, int64, error) {
	page, limit := normalizePage(filter.Page, filter.Limit)
	query := repository.TripFilter{Page: page, Limit: limit}
	vid, err := parseOptionalID(filter.VehicleID, "vehicle_id")
	if err != nil {
		return nil, 0, err
	}
	query.VehicleID = vid
	if filter.From != "" {
		from, parseErr := parseDate(filter.From, "from")
		if parseErr != nil {
			return nil, 0, parseErr
		}
		query.From = &from
	}
	if filter.To != "" {
		to, parseErr := parseDate(filter.To, "to")
		if parseErr != nil {
			return nil, 0, parseErr
		}
		_, end := repository.DayBounds(to)
		query.To = &end
	}

	trips, total, err := s.tripRepo.List(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list trips: %w", err)
	}
	result := make([]TripResponse, 0, len(trips))
	for _, t := range trips {
		result = append(result, toTripResponse(t))
	}
	return result, total, nil
}

func toTripResponse(t model.TripLog) TripResponse {
	resp := TripResponse{
		ID:                    t.ID.String(),
		VehicleID:             t.VehicleID.String(),
		TripDate:              t.TripDate.UTC().Format(dateLayout),
		DriverName:            t.DriverName,
		TotalFareCollected:    money(t.TotalFareCollected),
		DeliveryCutPercentage: money(t.DeliveryCutPercentage),
		DeliveryCut:           money(t.DeliveryCut),
		Cuts:                  money(t.Cuts),
		AccountantCharges:     money(t.AccountantCharges),
		ReceivedAmount:        money(t.ReceivedAmount),
		FareIsPaid:            t.FareIsPaid,
		Notes:                 t.Notes,
		CreatedAt:             t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if t.Vehicle != nil {
		resp.VehicleNumber = t.Vehicle.Number
	}
	for _, l := range t.Lines {
		resp.Lines = append(resp.Lines, TripLineResponse{
			ID:              l.ID.String(),
			ShipmentID:      idString(l.ShipmentID),
			BilityNumber:    l.BilityNumber,
			ReceiverName:    l.ReceiverName,
			ItemName:        l.ItemName,
			Quantity:        l.Quantity,
			TotalCharges:    money(l.TotalCharges),
			DeliveryCharges: money(l.DeliveryCharges),
		})
	}
	return resp
}
