package service

import (
	"context"
	"testing"

	"freightops/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMasterData_CreateAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	lahore, err := env.master.CreateCity(ctx, CreateCityRequest{Name: " Lahore "})
	require.NoError(t, err)
	assert.Equal(t, "Lahore", lahore.Name)
	_, err = env.master.CreateCity(ctx, CreateCityRequest{Name: "Lahore"})
	requireKind(t, err, KindConflict)

	agency, err := env.master.CreateAgency(ctx, CreateAgencyRequest{Name: "Daewoo Cargo", CityID: lahore.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, lahore.ID, *agency.CityID)
	_, err = env.master.CreateAgency(ctx, CreateAgencyRequest{Name: "Ghost", CityID: "5d8c7a4e-1b2f-4c3d-8e9f-0a1b2c3d4e5f"})
	requireKind(t, err, KindNotFound)

	vehicle := env.vehicle(t, " lhr-1234 ")
	assert.Equal(t, "LHR-1234", vehicle.Number)
	_, err = env.master.CreateVehicle(ctx, CreateVehicleRequest{Number: "LHR-1234"})
	requireKind(t, err, KindConflict)

	_, err = env.master.CreateItem(ctx, CreateItemRequest{Name: "Cotton bales", DefaultCharges: d("450"), DefaultDeliveryCharges: d("50")})
	require.NoError(t, err)
	_, err = env.master.CreateItem(ctx, CreateItemRequest{Name: "Cotton bales"})
	requireKind(t, err, KindConflict)
	_, err = env.master.CreateItem(ctx, CreateItemRequest{Name: "Rice", DefaultCharges: d("-1")})
	requireKind(t, err, KindValidation)

	sender := env.party(t, "Akbar Traders", model.PartyTypeSender)
	env.party(t, "Bilal Stores", "")
	env.party(t, "Chaudhry Mart", model.PartyTypeReceiver)

	// BOTH parties appear in sender and receiver pickers
	senders, total, err := env.master.ListParties(ctx, model.PartyTypeSender, "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, sender.ID, senders[0].ID)
	assert.Equal(t, "Bilal Stores", senders[1].Name)

	both, _, err := env.master.ListParties(ctx, "", "bilal", 1, 20)
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, model.PartyTypeBoth, both[0].Type)

	_, err = env.master.CreateParty(ctx, CreatePartyRequest{Name: "  "})
	requireKind(t, err, KindValidation)

	cities, err := env.master.ListCities(ctx)
	require.NoError(t, err)
	assert.Len(t, cities, 1)
	agencies, err := env.master.ListAgencies(ctx)
	require.NoError(t, err)
	assert.Len(t, agencies, 1)
	items, err := env.master.ListItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	vehicles, err := env.master.ListVehicles(ctx, "lhr")
	require.NoError(t, err)
	assert.Len(t, vehicles, 1)

	env.labourPerson(t, "Rashid")
	persons, err := env.master.ListLabourPersons(ctx)
	require.NoError(t, err)
	assert.Len(t, persons, 1)
}
