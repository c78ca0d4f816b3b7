package repository

import (
	"context"
	"testing"
	"time"

	"freightops/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShipmentRepository_ListSearch(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewShipmentRepository(db)
	day := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

	akbar := model.Party{Name: "Akbar Traders", Type: model.PartyTypeSender}
	bilal := model.Party{Name: "Bilal Stores", Type: model.PartyTypeReceiver}
	require.NoError(t, db.Create(&akbar).Error)
	require.NoError(t, db.Create(&bilal).Error)

	linked := model.Shipment{RegisterNumber: "202503-0001", BilityNumber: "LHR-77", BilityDate: day,
		SenderID: &akbar.ID, ReceiverID: &bilal.ID, PaymentStatus: model.PaymentPending}
	walkIn := model.Shipment{RegisterNumber: "202503-0002", BilityNumber: "ISB-12", BilityDate: day,
		SenderName: "Chaudhry Mart", ReceiverName: "Dawood Sons", PaymentStatus: model.PaymentPending}
	require.NoError(t, db.Create(&linked).Error)
	require.NoError(t, db.Create(&walkIn).Error)

	tests := []struct {
		search string
		want   []string
	}{
		{"akbar", []string{linked.RegisterNumber}},
		{"BILAL", []string{linked.RegisterNumber}},
		{"chaudhry", []string{walkIn.RegisterNumber}},
		{"dawood sons", []string{walkIn.RegisterNumber}},
		{"lhr-77", []string{linked.RegisterNumber}},
		{"202503", []string{walkIn.RegisterNumber, linked.RegisterNumber}},
		{"nobody", nil},
	}

	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			shipments, total, err := repo.List(context.Background(), ShipmentFilter{Search: tt.search, Page: 1, Limit: 20})
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), total)

			var got []string
			for _, s := range shipments {
				got = append(got, s.RegisterNumber)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	delivered := true
	_, total, err := repo.List(context.Background(), ShipmentFilter{Search: "akbar", Delivered: &delivered, Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Zero(t, total, "search must not widen the other filters")
}
