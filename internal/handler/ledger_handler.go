package handler

import (
	"net/http"

	"freightops/internal/middleware"
	"freightops/internal/model"
	"freightops/internal/service"
	"freightops/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LedgerHandler struct {
	ledgerService service.LedgerService
	logger        *zap.Logger
}

func NewLedgerHandler(ledgerService service.LedgerService, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService, logger: logger}
}

func (h *LedgerHandler) RegisterRoutes(router *gin.RouterGroup) {
	financeRoles := middleware.AllowRoles(model.RoleAdmin, model.RoleManager)

	vehicles := router.Group("/vehicles")
	{
		vehicles.GET("/ledgers", h.VehicleLedgers)
		vehicles.GET("/:id/ledger", h.VehicleLedger)
		vehicles.POST("/:id/transaction", financeRoles, h.PostVehicleTransaction)
		vehicles.PATCH("/:id/settle-fare", financeRoles, h.SettleFare)
	}

	parties := router.Group("/parties")
	{
		parties.GET("/ledgers", h.PartyLedgers)
		parties.GET("/:id/ledger", h.PartyLedger)
	}
}

// VehicleLedgers returns the balance summary of every vehicle
// @Summary      Vehicle ledgers
// @Description  balance = total credit - total debit; fare status comes from the latest trip
// @Tags         ledgers
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.VehicleLedgerSummary}
// @Router       /api/vehicles/ledgers [get]
func (h *LedgerHandler) VehicleLedgers(c *gin.Context) {
	ledgers, err := h.ledgerService.VehicleLedgers(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ledgers))
}

// VehicleLedger returns one vehicle's entries with a running balance
// @Summary      Vehicle ledger
// @Tags         ledgers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path  string  true  "Vehicle ID"
// @Success      200  {object}  response.Response{data=service.VehicleLedgerDetail}
// @Failure      404  {object}  response.Response
// @Router       /api/vehicles/{id}/ledger [get]
func (h *LedgerHandler) VehicleLedger(c *gin.Context) {
	ledger, err := h.ledgerService.VehicleLedger(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ledger))
}

// PostVehicleTransaction posts an ad hoc credit or debit against a vehicle
// @Summary      Post vehicle transaction
// @Tags         ledgers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                             false  "Retry-safe request key"
// @Param        id               path    string                             true   "Vehicle ID"
// @Param        payload          body    service.VehicleTransactionRequest  true   "Transaction payload"
// @Success      201  {object}  response.Response{data=service.VehicleTransactionResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/vehicles/{id}/transaction [post]
func (h *LedgerHandler) PostVehicleTransaction(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req service.VehicleTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	txn, err := h.ledgerService.PostVehicleTransaction(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, txn))
}

// SettleFare pays a trip's fare in full
// @Summary      Settle trip fare
// @Description  Partial payments are rejected and leave no trace
// @Tags         ledgers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                     false  "Retry-safe request key"
// @Param        id               path    string                     true   "Vehicle ID"
// @Param        payload          body    service.SettleFareRequest  true   "Settlement payload"
// @Success      200  {object}  response.Response{data=service.VehicleTransactionResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/vehicles/{id}/settle-fare [patch]
func (h *LedgerHandler) SettleFare(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req service.SettleFareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	txn, err := h.ledgerService.SettleFare(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, txn))
}

// PartyLedgers returns the balance summary of every party, walk-ins included
// @Summary      Party ledgers
// @Tags         ledgers
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.PartyLedgerSummary}
// @Router       /api/parties/ledgers [get]
func (h *LedgerHandler) PartyLedgers(c *gin.Context) {
	ledgers, err := h.ledgerService.PartyLedgers(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ledgers))
}

// PartyLedger returns one party's entries with a running balance
// @Summary      Party ledger
// @Tags         ledgers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path  string  true  "Party ID"
// @Success      200  {object}  response.Response{data=service.PartyLedgerDetail}
// @Failure      404  {object}  response.Response
// @Router       /api/parties/{id}/ledger [get]
func (h *LedgerHandler) PartyLedger(c *gin.Context) {
	ledger, err := h.ledgerService.PartyLedger(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ledger))
}
