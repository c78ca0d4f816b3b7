package service

import (
	"context"
	"testing"

	"freightops/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_CreateAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.users.CreateUser(ctx, env.actor, CreateUserRequest{
		Username: "clerk",
		FullName: "Desk Clerk",
		Password: "secret123",
		Role:     model.RoleStaff,
	})
	require.NoError(t, err)
	assert.Equal(t, "clerk", created.Username)
	assert.Equal(t, model.RoleStaff, created.Role)

	_, err = env.users.CreateUser(ctx, env.actor, CreateUserRequest{Username: "clerk", Password: "secret123", Role: model.RoleStaff})
	requireKind(t, err, KindConflict)
	_, err = env.users.CreateUser(ctx, env.actor, CreateUserRequest{Username: "boss", Password: "secret123", Role: "owner"})
	requireKind(t, err, KindValidation)
	_, err = env.users.CreateUser(ctx, env.actor, CreateUserRequest{Username: "short", Password: "123", Role: model.RoleStaff})
	requireKind(t, err, KindValidation)

	token, err := env.users.Login(ctx, LoginUserRequest{Username: "clerk", Password: "secret123"})
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token.Token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, created.ID.String(), claims["sub"])
	assert.Equal(t, model.RoleStaff, claims["role"])

	_, err = env.users.Login(ctx, LoginUserRequest{Username: "clerk", Password: "wrong-password"})
	requireKind(t, err, KindUnauthorized)
	_, err = env.users.Login(ctx, LoginUserRequest{Username: "ghost", Password: "secret123"})
	requireKind(t, err, KindUnauthorized)

	got, err := env.users.GetUserByID(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Desk Clerk", got.FullName)

	users, total, err := env.users.ListUsers(ctx, UserListFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, users, 2)

	users, total, err = env.users.ListUsers(ctx, UserListFilter{Role: model.RoleStaff, Search: "desk"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "clerk", users[0].Username)

	_, _, err = env.users.ListUsers(ctx, UserListFilter{Role: "owner"})
	requireKind(t, err, KindValidation)
}

func TestUserService_EnsureAdminOnlyOnEmptyTable(t *testing.T) {
	db := newTestDB(t)
	env := &testEnv{db: db}
	svc := newUserServiceForDB(db)

	created, err := svc.EnsureAdmin(context.Background(), "admin", "admin-pass")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureAdmin(context.Background(), "admin2", "admin-pass")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(1), env.count(t, &model.User{}, ""))

	_, err = svc.Login(context.Background(), LoginUserRequest{Username: "admin", Password: "admin-pass"})
	assert.NoError(t, err)
}

func TestAuditService_FiltersByAction(t *testing.T) {
	env := newTestEnv(t)
	shipment := env.register(t, "B-1", "2025-03-05", nil, nil)
	_, err := env.deliveries.CreateDelivery(context.Background(), env.actor, CreateDeliveryRequest{ShipmentID: shipment.ID})
	require.NoError(t, err)

	logs, total, err := env.audit.GetAuditLogs(context.Background(), AuditLogFilter{Action: model.ActionRegisterShipment, Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, logs, 1)
	assert.Equal(t, shipment.ID, logs[0].EntityID)
	assert.Equal(t, shipment.RegisterNumber, logs[0].EntityName)
	assert.Equal(t, "operator", logs[0].Username)
	assert.Contains(t, logs[0].Details, `"bility_number":"B-1"`)

	_, total, err = env.audit.GetAuditLogs(context.Background(), AuditLogFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, total, err = env.audit.GetAuditLogs(context.Background(), AuditLogFilter{UserID: env.actor.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, total, err = env.audit.GetAuditLogs(context.Background(), AuditLogFilter{UserID: uuid.NewString()})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, _, err = env.audit.GetAuditLogs(context.Background(), AuditLogFilter{From: "2025-03-10", To: "2025-03-01"})
	requireKind(t, err, KindValidation)
	_, _, err = env.audit.GetAuditLogs(context.Background(), AuditLogFilter{UserID: "nope"})
	requireKind(t, err, KindValidation)
}
