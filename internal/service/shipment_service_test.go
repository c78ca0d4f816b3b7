package service

import (
	"context"
	"testing"
	"time"

	"freightops/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRegisterNumber(t *testing.T) {
	day := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "202503-0001", FormatRegisterNumber(day, 1))
	assert.Equal(t, "202503-0042", FormatRegisterNumber(day, 42))
	assert.Equal(t, "202503-12345", FormatRegisterNumber(day, 12345))
}

func TestRegisterShipment_NumbersPerMonthAndPostsSenderCredit(t *testing.T) {
	env := newTestEnv(t)
	sender := env.party(t, "Akbar Traders", model.PartyTypeSender)
	receiver := env.party(t, "Bilal Stores", model.PartyTypeReceiver)

	first := env.register(t, "B-1001", "2025-03-05", sender, receiver)
	second := env.register(t, "B-1002", "2025-03-20", sender, receiver)
	april := env.register(t, "B-1003", "2025-04-01", sender, receiver)

	assert.Equal(t, "202503-0001", first.RegisterNumber)
	assert.Equal(t, "202503-0002", second.RegisterNumber)
	assert.Equal(t, "202504-0001", april.RegisterNumber)

	assert.Equal(t, "4500.00", first.TotalCharges)
	assert.Equal(t, "500.00", first.TotalDeliveryCharges)
	assert.Equal(t, "5000.00", first.TotalAmount)
	assert.Equal(t, model.PaymentPending, first.PaymentStatus)
	assert.Equal(t, "Akbar Traders", first.SenderName)
	require.Len(t, first.Goods, 1)

	var credits []model.Transaction
	require.NoError(t, env.db.Where("shipment_id = ?", mustID(t, first.ID)).Find(&credits).Error)
	require.Len(t, credits, 1)
	assert.Equal(t, model.PartyRoleSender, credits[0].PartyRole)
	assert.Equal(t, sender.ID, *credits[0].PartyID)
	assert.True(t, decimal.NewFromInt(5000).Equal(credits[0].CreditAmount))
	assert.True(t, credits[0].DebitAmount.IsZero())

	assert.Equal(t, int64(1), env.count(t, &model.AuditLog{}, "action = ? AND entity_id = ?", model.ActionRegisterShipment, first.ID))
	assert.Contains(t, env.events.types(), EventShipmentRegistered)
}

func TestRegisterShipment_PaidAndFreePostNothing(t *testing.T) {
	env := newTestEnv(t)
	sender := env.party(t, "Akbar Traders", model.PartyTypeSender)

	for i, status := range []string{model.PaymentAlreadyPaid, model.PaymentFree} {
		resp, err := env.shipments.RegisterShipment(context.Background(), env.actor, RegisterShipmentRequest{
			BilityNumber:  []string{"P-1", "F-1"}[i],
			BilityDate:    "2025-03-05",
			SenderID:      sender.ID.String(),
			ReceiverName:  "Counter pickup",
			PaymentStatus: status,
			Goods:         []GoodsLineRequest{goods(800, 200)},
		})
		require.NoError(t, err)
		assert.Equal(t, status, resp.PaymentStatus)
		assert.Equal(t, int64(0), env.count(t, &model.Transaction{}, "shipment_id = ?", mustID(t, resp.ID)))
	}
}

func TestRegisterShipment_WalkInSenderCreditKeepsName(t *testing.T) {
	env := newTestEnv(t)

	resp := env.register(t, "W-1", "2025-03-05", nil, nil, goods(100, 0), goods(50, 25))

	assert.Equal(t, "175.00", resp.TotalAmount)
	var txn model.Transaction
	require.NoError(t, env.db.Where("shipment_id = ?", mustID(t, resp.ID)).First(&txn).Error)
	assert.Nil(t, txn.PartyID)
	assert.Equal(t, "Walk-in sender", txn.PartyName)
}

func TestRegisterShipment_DuplicateBilityIsConflict(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "B-1001", "2025-03-05", nil, nil)

	_, err := env.shipments.RegisterShipment(context.Background(), env.actor, RegisterShipmentRequest{
		BilityNumber: " B-1001 ",
		BilityDate:   "2025-03-06",
		SenderName:   "Someone",
		ReceiverName: "Someone else",
		Goods:        []GoodsLineRequest{goods(1, 1)},
	})

	requireKind(t, err, KindConflict)
	assert.Equal(t, int64(1), env.count(t, &model.Shipment{}, ""))
	assert.Equal(t, int64(1), env.count(t, &model.Transaction{}, ""))
}

func TestRegisterShipment_ResyncsAfterExternalInsert(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "B-1", "2025-03-05", nil, nil)

	// a row written outside the service takes the next number
	legacy := model.Shipment{
		RegisterNumber: "202503-0002",
		BilityNumber:   "LEGACY-2",
		BilityDate:     time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC),
		SenderName:     "Legacy",
		ReceiverName:   "Legacy",
		PaymentStatus:  model.PaymentFree,
	}
	require.NoError(t, env.db.Create(&legacy).Error)

	resp := env.register(t, "B-3", "2025-03-07", nil, nil)

	assert.Equal(t, "202503-0003", resp.RegisterNumber)
	var seq model.ShipmentSequence
	require.NoError(t, env.db.First(&seq, "period = ?", "202503").Error)
	assert.Equal(t, int64(3), seq.LastValue)
}

func TestRegisterShipment_Validation(t *testing.T) {
	env := newTestEnv(t)
	valid := func() RegisterShipmentRequest {
		return RegisterShipmentRequest{
			BilityNumber: "V-1",
			BilityDate:   "2025-03-05",
			SenderName:   "S",
			ReceiverName: "R",
			Goods:        []GoodsLineRequest{goods(10, 5)},
		}
	}

	tests := []struct {
		name   string
		mutate func(r *RegisterShipmentRequest)
		kind   ErrorKind
	}{
		{"missing bility", func(r *RegisterShipmentRequest) { r.BilityNumber = "  " }, KindValidation},
		{"bad date", func(r *RegisterShipmentRequest) { r.BilityDate = "05/03/2025" }, KindValidation},
		{"no goods", func(r *RegisterShipmentRequest) { r.Goods = nil }, KindValidation},
		{"zero quantity", func(r *RegisterShipmentRequest) { r.Goods[0].Quantity = 0 }, KindValidation},
		{"negative charges", func(r *RegisterShipmentRequest) { r.Goods[0].Charges = decimal.NewFromInt(-1) }, KindValidation},
		{"sub-cent charges", func(r *RegisterShipmentRequest) { r.Goods[0].DeliveryCharges = decimal.RequireFromString("5.005") }, KindValidation},
		{"no sender", func(r *RegisterShipmentRequest) { r.SenderName = "" }, KindValidation},
		{"no receiver", func(r *RegisterShipmentRequest) { r.ReceiverName = "" }, KindValidation},
		{"bad payment status", func(r *RegisterShipmentRequest) { r.PaymentStatus = "LATER" }, KindValidation},
		{"bad sender id", func(r *RegisterShipmentRequest) { r.SenderID = "nope" }, KindValidation},
		{"unknown sender", func(r *RegisterShipmentRequest) { r.SenderID = "7b0f3b8e-2f7c-4d0e-9a57-6f1d2c0b9a11" }, KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			_, err := env.shipments.RegisterShipment(context.Background(), env.actor, req)
			requireKind(t, err, tt.kind)
		})
	}

	_, err := env.shipments.RegisterShipment(context.Background(), Actor{}, valid())
	requireKind(t, err, KindValidation)
	assert.Equal(t, int64(0), env.count(t, &model.Shipment{}, ""))
}

func TestListShipments_Filters(t *testing.T) {
	env := newTestEnv(t)
	truck := env.vehicle(t, "lhr-1234")
	receiver := env.party(t, "Bilal Stores", model.PartyTypeReceiver)

	onTruck, err := env.shipments.RegisterShipment(context.Background(), env.actor, RegisterShipmentRequest{
		BilityNumber: "T-1",
		BilityDate:   "2025-03-05",
		SenderName:   "Akbar",
		ReceiverID:   receiver.ID.String(),
		VehicleID:    truck.ID.String(),
		Goods:        []GoodsLineRequest{goods(300, 40), goods(200, 60)},
	})
	require.NoError(t, err)
	env.register(t, "X-2", "2025-03-06", nil, nil)

	all, total, err := env.shipments.ListShipments(context.Background(), ShipmentListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	byVehicle, total, err := env.shipments.ListShipments(context.Background(), ShipmentListFilter{VehicleID: truck.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, onTruck.ID, byVehicle[0].ID)

	byDate, _, err := env.shipments.ListShipments(context.Background(), ShipmentListFilter{BilityDate: "2025-03-06"})
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, "X-2", byDate[0].BilityNumber)

	undelivered := false
	open, _, err := env.shipments.ListShipments(context.Background(), ShipmentListFilter{Delivered: &undelivered, Search: "T-"})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "T-1", open[0].BilityNumber)

	lines, err := env.shipments.GetByVehicleAndDate(context.Background(), truck.ID.String(), "2025-03-05")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "Bilal Stores", lines[0].ReceiverName)
	assert.Equal(t, onTruck.RegisterNumber, lines[0].RegisterNumber)

	_, err = env.shipments.GetByVehicleAndDate(context.Background(), truck.ID.String(), "")
	requireKind(t, err, KindValidation)

	got, err := env.shipments.GetShipment(context.Background(), onTruck.ID)
	require.NoError(t, err)
	assert.Equal(t, "600.00", got.TotalAmount)

	_, err = env.shipments.GetShipment(context.Background(), "5d8c7a4e-1b2f-4c3d-8e9f-0a1b2c3d4e5f")
	requireKind(t, err, KindNotFound)
}
