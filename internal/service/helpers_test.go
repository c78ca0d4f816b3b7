package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"freightops/internal/database"
	"freightops/internal/model"
	"freightops/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2025, 3, 12, 10, 30, 0, 0, time.UTC)

type recordedEvent struct {
	Type string
	Data interface{}
}

type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *eventRecorder) Publish(eventType string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Type: eventType, Data: data})
}

func (r *eventRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// testEnv wires every service against one in-memory SQLite database
type testEnv struct {
	db     *gorm.DB
	events *eventRecorder
	actor  Actor

	shipments   *shipmentService
	deliveries  *deliveryService
	assignments *labourAssignmentService
	settlements *labourSettlementService
	ledgers     *ledgerService
	trips       *tripService
	master      MasterDataService
	users       UserService
	audit       AuditService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	log := zaptest.NewLogger(t)
	events := &eventRecorder{}

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

	env := &testEnv{
		db:     db,
		events: events,
		shipments: NewShipmentService(shipmentRepo, sequenceRepo, partyRepo, txnRepo, auditRepo, txManager,
			events, log).(*shipmentService),
		deliveries: NewDeliveryService(deliveryRepo, shipmentRepo, labourRepo, auditRepo, txManager,
			events, log).(*deliveryService),
		assignments: NewLabourAssignmentService(labourRepo, shipmentRepo, deliveryRepo, txnRepo, auditRepo, txManager,
			events, log).(*labourAssignmentService),
		settlements: NewLabourSettlementService(labourRepo, summaryRepo, auditRepo, txManager,
			events, log).(*labourSettlementService),
		ledgers: NewLedgerService(summaryRepo, vehicleTxnRepo, txnRepo, tripRepo, masterRepo, partyRepo, auditRepo, txManager,
			events, log).(*ledgerService),
		trips: NewTripService(tripRepo, vehicleTxnRepo, shipmentRepo, masterRepo, auditRepo, txManager,
			events, log).(*tripService),
		master: NewMasterDataService(partyRepo, masterRepo, labourRepo),
		users:  NewUserService(userRepo, auditRepo, txManager, "test-secret", time.Hour),
		audit:  NewAuditService(auditRepo),
	}

	clock := func() time.Time { return testNow }
	env.deliveries.now = clock
	env.assignments.now = clock
	env.settlements.now = clock
	env.ledgers.now = clock
	env.trips.now = clock

	operator := &model.User{Username: "operator", Password: "x", Role: model.RoleManager}
	require.NoError(t, db.Create(operator).Error)
	env.actor = Actor{ID: operator.ID, Username: operator.Username, Role: operator.Role}
	return env
}

func (e *testEnv) party(t *testing.T, name, partyType string) *model.Party {
	t.Helper()
	p, err := e.master.CreateParty(context.Background(), CreatePartyRequest{Name: name, Type: partyType, Phone: "0300-" + name})
	require.NoError(t, err)
	return p
}

func (e *testEnv) vehicle(t *testing.T, number string) *model.Vehicle {
	t.Helper()
	v, err := e.master.CreateVehicle(context.Background(), CreateVehicleRequest{Number: number, DriverName: "Driver " + number})
	require.NoError(t, err)
	return v
}

func (e *testEnv) labourPerson(t *testing.T, name string) *model.LabourPerson {
	t.Helper()
	p, err := e.master.CreateLabourPerson(context.Background(), CreateLabourPersonRequest{Name: name})
	require.NoError(t, err)
	return p
}

func goods(charges, delivery int64) GoodsLineRequest {
	return GoodsLineRequest{
		ItemName:        "Cotton bales",
		Quantity:        10,
		Charges:         decimal.NewFromInt(charges),
		DeliveryCharges: decimal.NewFromInt(delivery),
	}
}

// register books a shipment on the given day from sender to receiver
func (e *testEnv) register(t *testing.T, bility, day string, sender, receiver *model.Party, lines ...GoodsLineRequest) ShipmentResponse {
	t.Helper()
	req := RegisterShipmentRequest{
		BilityNumber: bility,
		BilityDate:   day,
		Goods:        lines,
	}
	if sender != nil {
		req.SenderID = sender.ID.String()
	} else {
		req.SenderName = "Walk-in sender"
	}
	if receiver != nil {
		req.ReceiverID = receiver.ID.String()
	} else {
		req.ReceiverName = "Walk-in receiver"
	}
	if len(lines) == 0 {
		req.Goods = []GoodsLineRequest{goods(4500, 500)}
	}
	resp, err := e.shipments.RegisterShipment(context.Background(), e.actor, req)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) count(t *testing.T, m interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := e.db.Model(m)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func mustID(t *testing.T, raw string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(raw)
	require.NoError(t, err)
	return id
}

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "unexpected error: %v", err)
}

func newUserServiceForDB(db *gorm.DB) UserService {
	return NewUserService(repository.NewUserRepository(db), repository.NewAuditRepository(db),
		repository.NewTransactionManager(db), "test-secret", time.Hour)
}
