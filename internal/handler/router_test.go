package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"freightops/internal/app"
	"freightops/internal/cache"
	"freightops/internal/database"
	"freightops/internal/handler"
	"freightops/internal/middleware"
	"freightops/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testSecret = "handler-test-secret"

type apiResponse struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Meta       *struct {
		Page       int   `json:"page"`
		Limit      int   `json:"limit"`
		Total      int64 `json:"total"`
		TotalPages int64 `json:"total_pages"`
	} `json:"meta"`
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	services := app.NewServices(db, nil, testSecret, time.Hour, zap.NewNop())
	created, err := services.Users.EnsureAdmin(context.Background(), "admin", "admin-password")
	require.NoError(t, err)
	require.True(t, created)

	router := gin.New()
	handler.RegisterRoutes(router.Group(""), services, handler.RouterOptions{
		Auth:           middleware.NewAuth(testSecret, false),
		TokenTTL:       time.Hour,
		Idempotency:    cache.NewMemoryIdempotencyStore(),
		IdempotencyTTL: time.Hour,
		Logger:         zap.NewNop(),
	})
	return &testServer{router: router, db: db}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}, headers ...string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	w, resp := s.do(t, http.MethodPost, "/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var token struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &token))
	require.NotEmpty(t, token.Token)
	return token.Token
}

func (s *testServer) staffToken(t *testing.T, admin string) string {
	t.Helper()
	w, _ := s.do(t, http.MethodPost, "/api/users", admin, map[string]string{
		"username": "clerk",
		"password": "clerk-password",
		"role":     model.RoleStaff,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return s.login(t, "clerk", "clerk-password")
}

func shipmentPayload(bility string) map[string]interface{} {
	return map[string]interface{}{
		"bility_number": bility,
		"bility_date":   "2025-03-12",
		"sender_name":   "Walk-in sender",
		"receiver_name": "Walk-in receiver",
		"goods": []map[string]interface{}{
			{"item_name": "Cartons", "quantity": 3, "charges": 4500, "delivery_charges": 500},
		},
	}
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)

	w, resp := s.do(t, http.MethodGet, "/api/shipments", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "error", resp.Status)

	w, _ = s.do(t, http.MethodPost, "/login", "", map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodPost, "/login", "", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	token := s.login(t, "admin", "admin-password")
	w, resp = s.do(t, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var me struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &me))
	assert.Equal(t, "admin", me.Username)
	assert.Equal(t, model.RoleAdmin, me.Role)
}

func TestRoleRestrictions(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "admin-password")
	staff := s.staffToken(t, admin)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
	}{
		{"user admin", http.MethodPost, "/api/users", map[string]string{"username": "x", "password": "secret1", "role": "staff"}},
		{"user listing", http.MethodGet, "/api/users", nil},
		{"vehicle master data", http.MethodPost, "/api/vehicles", map[string]string{"number": "LHR-1"}},
		{"delivery approval", http.MethodPatch, "/api/deliveries/" + uuid.NewString(), map[string]string{"action": "approve"}},
		{"labour payment", http.MethodPost, "/api/labour-settlements", map[string]interface{}{"labour_person_id": uuid.NewString(), "amount": 10}},
		{"fare settlement", http.MethodPatch, "/api/vehicles/" + uuid.NewString() + "/settle-fare", map[string]interface{}{"amount": 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := s.do(t, tt.method, tt.path, staff, tt.body)
			assert.Equal(t, http.StatusForbidden, w.Code)
		})
	}

	// staff may still run the daily workflow
	w, _ := s.do(t, http.MethodPost, "/api/shipments", staff, shipmentPayload("B-STAFF"))
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestShipmentEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin", "admin-password")

	w, resp := s.do(t, http.MethodPost, "/api/shipments", token, shipmentPayload("B-1001"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID             string `json:"id"`
		RegisterNumber string `json:"register_number"`
		TotalAmount    string `json:"total_amount"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	assert.Equal(t, "202503-0001", created.RegisterNumber)
	assert.Equal(t, "5000.00", created.TotalAmount)

	t.Run("duplicate bility is a conflict", func(t *testing.T) {
		w, resp := s.do(t, http.MethodPost, "/api/shipments", token, shipmentPayload("B-1001"))
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.NotEmpty(t, resp.Error)
	})

	t.Run("missing goods is a bad request", func(t *testing.T) {
		payload := shipmentPayload("B-1002")
		delete(payload, "goods")
		w, _ := s.do(t, http.MethodPost, "/api/shipments", token, payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("negative charges are rejected", func(t *testing.T) {
		payload := shipmentPayload("B-1003")
		payload["goods"] = []map[string]interface{}{{"item_name": "Cartons", "quantity": 1, "charges": -5}}
		w, _ := s.do(t, http.MethodPost, "/api/shipments", token, payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get by id", func(t *testing.T) {
		w, _ := s.do(t, http.MethodGet, "/api/shipments/"+created.ID, token, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w, _ = s.do(t, http.MethodGet, "/api/shipments/"+uuid.NewString(), token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w, _ = s.do(t, http.MethodGet, "/api/shipments/not-a-uuid", token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("list carries paging metadata", func(t *testing.T) {
		w, resp := s.do(t, http.MethodGet, "/api/shipments?page=1&limit=10", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(1), resp.Meta.Total)
		assert.Equal(t, int64(1), resp.Meta.TotalPages)
		assert.Equal(t, 10, resp.Meta.Limit)
	})
}

func TestIdempotentReplay(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin", "admin-password")

	first, firstResp := s.do(t, http.MethodPost, "/api/cities", token, map[string]string{"name": "Lahore"},
		middleware.IdempotencyHeader, "create-lahore")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	assert.Empty(t, first.Header().Get(middleware.ReplayedHeader))

	second, secondResp := s.do(t, http.MethodPost, "/api/cities", token, map[string]string{"name": "Lahore"},
		middleware.IdempotencyHeader, "create-lahore")
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(middleware.ReplayedHeader))
	assert.JSONEq(t, string(firstResp.Data), string(secondResp.Data))

	var count int64
	require.NoError(t, s.db.Model(&model.City{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// without a key the duplicate reaches the service
	w, _ := s.do(t, http.MethodPost, "/api/cities", token, map[string]string{"name": "Lahore"})
	assert.Equal(t, http.StatusConflict, w.Code)
}
