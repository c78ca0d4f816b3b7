package service

import (
	"context"
	"errors"
	"testing"

	"freightops/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func assign(t *testing.T, env *testEnv, person *model.LabourPerson, shipmentIDs ...string) []AssignmentResponse {
	t.Helper()
	out, err := env.assignments.CreateAssignments(context.Background(), env.actor, CreateAssignmentRequest{
		LabourPersonID: person.ID.String(),
		ShipmentIDs:    shipmentIDs,
		AssignedDate:   "2025-03-10",
	})
	require.NoError(t, err)
	return out
}

func transition(env *testEnv, assignmentID, action string, collected int64) (AssignmentResponse, error) {
	req := AssignmentActionRequest{AssignmentID: assignmentID, Action: action}
	if action == model.LabourActionCollect {
		req.CollectedAmount = decimal.NewFromInt(collected)
		req.StationExpense = decimal.NewFromInt(100)
		req.BilityExpense = decimal.NewFromInt(50)
		req.StationLabour = decimal.NewFromInt(30)
		req.CartLabour = decimal.NewFromInt(20)
	}
	return env.assignments.Transition(context.Background(), env.actor, req)
}

func TestLabourAssignment_FullLifecycle(t *testing.T) {
	env := newTestEnv(t)
	receiver := env.party(t, "Bilal Stores", model.PartyTypeReceiver)
	shipment := env.register(t, "B-1", "2025-03-05", nil, receiver)
	person := env.labourPerson(t, "Rashid")

	created := assign(t, env, person, shipment.ID)
	require.Len(t, created, 1)
	a := created[0]
	assert.Equal(t, model.AssignmentAssigned, a.Status)
	assert.Equal(t, "Rashid", a.LabourPersonName)
	assert.Equal(t, shipment.RegisterNumber, a.RegisterNumber)

	// COLLECT and SETTLE are not reachable from ASSIGNED
	_, err := transition(env, a.ID, model.LabourActionCollect, 3000)
	requireKind(t, err, KindConflict)
	_, err = transition(env, a.ID, model.LabourActionSettle, 0)
	requireKind(t, err, KindConflict)

	delivered, err := transition(env, a.ID, model.LabourActionDeliver, 0)
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentDelivered, delivered.Status)

	var delivery model.Delivery
	require.NoError(t, env.db.First(&delivery, "shipment_id = ?", mustID(t, shipment.ID)).Error)
	assert.Equal(t, model.DeliveryPending, delivery.ApprovalStatus)
	assert.True(t, delivery.TotalExpenses.IsZero())
	require.NotNil(t, delivery.LabourAssignmentID)
	assert.Equal(t, a.ID, delivery.LabourAssignmentID.String())
	assert.Equal(t, "Bilal Stores", delivery.ReceiverName)

	_, err = transition(env, a.ID, model.LabourActionDeliver, 0)
	requireKind(t, err, KindConflict)

	_, err = env.assignments.Transition(context.Background(), env.actor, AssignmentActionRequest{
		AssignmentID: a.ID, Action: model.LabourActionCollect,
	})
	requireKind(t, err, KindValidation)

	_, err = env.assignments.Transition(context.Background(), env.actor, AssignmentActionRequest{
		AssignmentID: a.ID, Action: model.LabourActionCollect, CollectedAmount: decimal.RequireFromString("0.004"),
	})
	requireKind(t, err, KindValidation)

	collected, err := transition(env, a.ID, model.LabourActionCollect, 3000)
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentCollected, collected.Status)
	assert.Equal(t, "3000.00", collected.CollectedAmount)

	require.NoError(t, env.db.First(&delivery, "id = ?", delivery.ID).Error)
	assert.True(t, decimal.NewFromInt(200).Equal(delivery.TotalExpenses))

	// a repeated COLLECT corrects the amount without moving the state
	corrected, err := transition(env, a.ID, model.LabourActionCollect, 2800)
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentCollected, corrected.Status)
	assert.Equal(t, "2800.00", corrected.CollectedAmount)

	settled, err := transition(env, a.ID, model.LabourActionSettle, 0)
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentSettled, settled.Status)
	require.NotNil(t, settled.SettledDate)

	var credits []model.Transaction
	require.NoError(t, env.db.Where("shipment_id = ? AND party_role = ?", mustID(t, shipment.ID), model.PartyRoleReceiver).Find(&credits).Error)
	require.Len(t, credits, 1)
	assert.True(t, decimal.NewFromInt(2800).Equal(credits[0].CreditAmount))
	assert.Equal(t, receiver.ID, *credits[0].PartyID)

	_, err = transition(env, a.ID, model.LabourActionSettle, 0)
	requireKind(t, err, KindConflict)
	assert.Equal(t, int64(1), env.count(t, &model.Transaction{}, "party_role = ?", model.PartyRoleReceiver))
}

func TestCreateAssignments_RejectsWholeBatchOnConflict(t *testing.T) {
	env := newTestEnv(t)
	first := env.register(t, "B-1", "2025-03-05", nil, nil)
	second := env.register(t, "B-2", "2025-03-05", nil, nil)
	direct := env.register(t, "B-3", "2025-03-05", nil, nil)
	rashid := env.labourPerson(t, "Rashid")
	kamran := env.labourPerson(t, "Kamran")

	assign(t, env, rashid, first.ID)
	_, err := env.deliveries.CreateDelivery(context.Background(), env.actor, CreateDeliveryRequest{ShipmentID: direct.ID})
	require.NoError(t, err)

	_, err = env.assignments.CreateAssignments(context.Background(), env.actor, CreateAssignmentRequest{
		LabourPersonID: kamran.ID.String(),
		ShipmentIDs:    []string{first.ID, second.ID, direct.ID},
	})
	requireKind(t, err, KindConflict)

	svcErr, ok := AsError(err)
	require.True(t, ok)
	conflict, ok := svcErr.Details.(AssignmentConflict)
	require.True(t, ok)
	assert.Equal(t, []string{first.ID}, conflict.Assigned)
	assert.Equal(t, []string{direct.ID}, conflict.Delivered)

	// second was free but nothing from the batch was written
	assert.Equal(t, int64(1), env.count(t, &model.LabourAssignment{}, ""))
}

func TestCreateAssignments_Validation(t *testing.T) {
	env := newTestEnv(t)
	shipment := env.register(t, "B-1", "2025-03-05", nil, nil)
	person := env.labourPerson(t, "Rashid")

	_, err := env.assignments.CreateAssignments(context.Background(), env.actor, CreateAssignmentRequest{
		LabourPersonID: person.ID.String(),
	})
	requireKind(t, err, KindValidation)

	_, err = env.assignments.CreateAssignments(context.Background(), env.actor, CreateAssignmentRequest{
		LabourPersonID: person.ID.String(),
		ShipmentIDs:    []string{shipment.ID, "5d8c7a4e-1b2f-4c3d-8e9f-0a1b2c3d4e5f"},
	})
	requireKind(t, err, KindNotFound)

	require.NoError(t, env.db.Model(&model.LabourPerson{}).Where("id = ?", person.ID).Update("is_active", false).Error)
	_, err = env.assignments.CreateAssignments(context.Background(), env.actor, CreateAssignmentRequest{
		LabourPersonID: person.ID.String(),
		ShipmentIDs:    []string{shipment.ID},
	})
	requireKind(t, err, KindConflict)
}

func TestTransition_DeliverRollsBackOnFailure(t *testing.T) {
	env := newTestEnv(t)
	shipment := env.register(t, "B-1", "2025-03-05", nil, nil)
	person := env.labourPerson(t, "Rashid")
	a := assign(t, env, person, shipment.ID)[0]

	require.NoError(t, env.db.Callback().Update().Before("gorm:update").Register("test:fail_shipments", func(tx *gorm.DB) {
		if tx.Statement.Table == "shipments" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	_, err := transition(env, a.ID, model.LabourActionDeliver, 0)
	require.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))

	var stored model.LabourAssignment
	require.NoError(t, env.db.First(&stored, "id = ?", mustID(t, a.ID)).Error)
	assert.Equal(t, model.AssignmentAssigned, stored.Status)
	assert.Equal(t, int64(0), env.count(t, &model.Delivery{}, ""))

	var sh model.Shipment
	require.NoError(t, env.db.First(&sh, "id = ?", mustID(t, shipment.ID)).Error)
	assert.Nil(t, sh.DeliveryDate)
}

func TestListAssignments_ExcludeSettled(t *testing.T) {
	env := newTestEnv(t)
	first := env.register(t, "B-1", "2025-03-05", nil, nil)
	second := env.register(t, "B-2", "2025-03-05", nil, nil)
	person := env.labourPerson(t, "Rashid")
	created := assign(t, env, person, first.ID, second.ID)
	require.Len(t, created, 2)

	var settleID string
	for _, a := range created {
		if a.ShipmentID == first.ID {
			settleID = a.ID
		}
	}
	for _, step := range []string{model.LabourActionDeliver, model.LabourActionCollect, model.LabourActionSettle} {
		_, err := transition(env, settleID, step, 1000)
		require.NoError(t, err)
	}

	all, total, err := env.assignments.ListAssignments(context.Background(), AssignmentListFilter{LabourPersonID: person.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	open, total, err := env.assignments.ListAssignments(context.Background(), AssignmentListFilter{ExcludeSettled: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, second.ID, open[0].ShipmentID)

	// a settled shipment is delivered, so it cannot be assigned again
	_, err = env.assignments.CreateAssignments(context.Background(), env.actor, CreateAssignmentRequest{
		LabourPersonID: person.ID.String(),
		ShipmentIDs:    []string{first.ID},
	})
	requireKind(t, err, KindConflict)
}
