package service

import (
	"context"
	"testing"

	"freightops/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestComputeTripFigures(t *testing.T) {
	tests := []struct {
		name                             string
		charges                          []decimal.Decimal
		pct, cuts, accountant            string
		wantTotal, wantCut, wantReceived string
	}{
		{"typical", []decimal.Decimal{d("500"), d("300"), d("200")}, "10", "50", "25", "1000", "100", "825"},
		{"no deductions", []decimal.Decimal{d("120.50")}, "0", "0", "0", "120.50", "0", "120.50"},
		{"cut rounds to cents", []decimal.Decimal{d("333.33")}, "7.5", "0", "0", "333.33", "25", "308.33"},
		{"clamped at zero", []decimal.Decimal{d("100")}, "50", "80", "0", "100", "50", "0"},
		{"empty", nil, "10", "0", "0", "0", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTripFigures(tt.charges, d(tt.pct), d(tt.cuts), d(tt.accountant))
			assert.True(t, d(tt.wantTotal).Equal(got.TotalFare), "total %s", got.TotalFare)
			assert.True(t, d(tt.wantCut).Equal(got.DeliveryCut), "cut %s", got.DeliveryCut)
			assert.True(t, d(tt.wantReceived).Equal(got.ReceivedAmount), "received %s", got.ReceivedAmount)
		})
	}
}

func TestLogTrip_SnapshotsLinesAndDebitsVehicle(t *testing.T) {
	env := newTestEnv(t)
	truck := env.vehicle(t, "LHR-1234")
	receiver := env.party(t, "Bilal Stores", model.PartyTypeReceiver)
	shipment := env.register(t, "B-1", "2025-03-05", nil, receiver)

	trip, err := env.trips.LogTrip(context.Background(), env.actor, LogTripRequest{
		VehicleID:             truck.ID.String(),
		TripDate:              "2025-03-05",
		DeliveryCutPercentage: d("10"),
		Cuts:                  d("50"),
		AccountantCharges:     d("25"),
		Lines: []TripLineRequest{
			{ShipmentID: shipment.ID, ItemName: "Cotton bales", Quantity: 10, TotalCharges: d("4500"), DeliveryCharges: d("700")},
			{BilityNumber: "MANUAL-9", ReceiverName: "Roadside", ItemName: "Crates", Quantity: 2, DeliveryCharges: d("300")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "1000.00", trip.TotalFareCollected)
	assert.Equal(t, "100.00", trip.DeliveryCut)
	assert.Equal(t, "825.00", trip.ReceivedAmount)
	assert.Equal(t, "Driver LHR-1234", trip.DriverName)
	assert.False(t, trip.FareIsPaid)
	require.Len(t, trip.Lines, 2)
	assert.Equal(t, "B-1", trip.Lines[0].BilityNumber)
	assert.Equal(t, "Bilal Stores", trip.Lines[0].ReceiverName)

	// later master data edits do not reach the snapshot
	require.NoError(t, env.db.Model(&model.Party{}).Where("id = ?", receiver.ID).Update("name", "Renamed").Error)

	got, err := env.trips.GetTrip(context.Background(), trip.ID)
	require.NoError(t, err)
	names := []string{got.Lines[0].ReceiverName, got.Lines[1].ReceiverName}
	assert.ElementsMatch(t, []string{"Bilal Stores", "Roadside"}, names)
	require.Len(t, got.LedgerEntries, 1)
	assert.Equal(t, "825.00", got.LedgerEntries[0].Debit)
	assert.Equal(t, "0.00", got.LedgerEntries[0].Credit)

	trips, total, err := env.trips.ListTrips(context.Background(), TripListFilter{VehicleID: truck.ID.String(), From: "2025-03-01", To: "2025-03-05"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, trip.ID, trips[0].ID)
}

func TestLogTrip_Validation(t *testing.T) {
	env := newTestEnv(t)
	truck := env.vehicle(t, "LHR-1234")
	line := []TripLineRequest{{ItemName: "Crates", Quantity: 1, DeliveryCharges: d("10")}}

	tests := []struct {
		name string
		req  LogTripRequest
		kind ErrorKind
	}{
		{"no lines", LogTripRequest{VehicleID: truck.ID.String()}, KindValidation},
		{"percentage above 100", LogTripRequest{VehicleID: truck.ID.String(), DeliveryCutPercentage: d("101"), Lines: line}, KindValidation},
		{"negative cuts", LogTripRequest{VehicleID: truck.ID.String(), Cuts: d("-1"), Lines: line}, KindValidation},
		{"unknown vehicle", LogTripRequest{VehicleID: "5d8c7a4e-1b2f-4c3d-8e9f-0a1b2c3d4e5f", Lines: line}, KindNotFound},
		{"unknown shipment", LogTripRequest{VehicleID: truck.ID.String(), Lines: []TripLineRequest{{ShipmentID: "5d8c7a4e-1b2f-4c3d-8e9f-0a1b2c3d4e5f"}}}, KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.trips.LogTrip(context.Background(), env.actor, tt.req)
			requireKind(t, err, tt.kind)
		})
	}
	assert.Equal(t, int64(0), env.count(t, &model.TripLog{}, ""))
	assert.Equal(t, int64(0), env.count(t, &model.VehicleTransaction{}, ""))
}
