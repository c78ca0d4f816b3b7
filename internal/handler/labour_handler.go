package handler

import (
	"net/http"

	"freightops/internal/middleware"
	"freightops/internal/model"
	"freightops/internal/service"
	"freightops/pkg/pagination"
	"freightops/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LabourHandler struct {
	assignmentService service.LabourAssignmentService
	settlementService service.LabourSettlementService
	logger            *zap.Logger
}

func NewLabourHandler(assignmentService service.LabourAssignmentService, settlementService service.LabourSettlementService, logger *zap.Logger) *LabourHandler {
	return &LabourHandler{assignmentService: assignmentService, settlementService: settlementService, logger: logger}
}

func (h *LabourHandler) RegisterRoutes(router *gin.RouterGroup) {
	assignments := router.Group("/labour-assignments")
	{
		assignments.POST("", h.CreateAssignments)
		assignments.GET("", h.ListAssignments)
		assignments.PATCH("", h.Transition)
		assignments.PATCH("/:id", h.Transition)
	}

	settlements := router.Group("/labour-settlements")
	{
		settlements.GET("", h.ListSettlements)
		settlements.GET("/:id/payments", h.ListPayments)
		settlements.POST("", middleware.AllowRoles(model.RoleAdmin, model.RoleManager), h.RecordPayment)
	}
}

// CreateAssignments assigns shipments to a labour person
// @Summary      Assign shipments to labour
// @Description  Rejects the whole batch if any shipment is delivered or already actively assigned
// @Tags         labour
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                           false  "Retry-safe request key"
// @Param        payload          body    service.CreateAssignmentRequest  true   "Assignment payload"
// @Success      201  {object}  response.Response{data=[]service.AssignmentResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response{details=service.AssignmentConflict}
// @Router       /api/labour-assignments [post]
func (h *LabourHandler) CreateAssignments(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req service.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	assignments, err := h.assignmentService.CreateAssignments(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, assignments))
}

// ListAssignments returns assignments, optionally excluding settled ones
// @Summary      List labour assignments
// @Tags         labour
// @Security     BearerAuth
// @Produce      json
// @Param        labour_person_id  query  string  false  "Labour person ID"
// @Param        status            query  string  false  "ASSIGNED, DELIVERED, COLLECTED, SETTLED"
// @Param        exclude_settled   query  bool    false  "Hide SETTLED assignments"
// @Param        page              query  int     false  "Page number (default: 1)"
// @Param        limit             query  int     false  "Items per page (default: 20)"
// @Success      200  {object}  response.Response{data=[]service.AssignmentResponse}
// @Router       /api/labour-assignments [get]
func (h *LabourHandler) ListAssignments(c *gin.Context) {
	excludeSettled, ok := queryBool(c, "exclude_settled")
	if !ok {
		return
	}
	p := pagination.Parse(c)

	filter := service.AssignmentListFilter{
		LabourPersonID: c.Query("labour_person_id"),
		Status:         c.Query("status"),
		Page:           p.Page,
		Limit:          p.Limit,
	}
	if excludeSettled != nil {
		filter.ExcludeSettled = *excludeSettled
	}

	assignments, total, err := h.assignmentService.ListAssignments(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, assignments, p.Page, p.Limit, total))
}

// Transition applies DELIVER, COLLECT or SETTLE to an assignment.
// The id comes from the path when present, otherwise from the body.
// @Summary      Advance labour assignment
// @Tags         labour
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                           false  "Assignment ID"
// @Param        payload  body  service.AssignmentActionRequest  true   "Action payload"
// @Success      200  {object}  response.Response{data=service.AssignmentResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/labour-assignments/{id} [patch]
func (h *LabourHandler) Transition(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req service.AssignmentActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if id := c.Param("id"); id != "" {
		req.AssignmentID = id
	}

	assignment, err := h.assignmentService.Transition(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, assignment))
}

// ListSettlements returns the due/paid/balance rollup per labour person
// @Summary      Labour settlements
// @Tags         labour
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.LabourSettlementSummary}
// @Router       /api/labour-settlements [get]
func (h *LabourHandler) ListSettlements(c *gin.Context) {
	summaries, err := h.settlementService.ListSettlements(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summaries))
}

// RecordPayment records a payment made to a labour person
// @Summary      Record labour payment
// @Tags         labour
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                        false  "Retry-safe request key"
// @Param        payload          body    service.LabourPaymentRequest  true   "Payment payload"
// @Success      201  {object}  response.Response{data=service.LabourPaymentResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/labour-settlements [post]
func (h *LabourHandler) RecordPayment(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req service.LabourPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	payment, err := h.settlementService.RecordPayment(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, payment))
}

// ListPayments returns the payment history of one labour person
// @Summary      Labour payment history
// @Tags         labour
// @Security     BearerAuth
// @Produce      json
// @Param        id   path  string  true  "Labour person ID"
// @Success      200  {object}  response.Response{data=[]service.LabourPaymentResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/labour-settlements/{id}/payments [get]
func (h *LabourHandler) ListPayments(c *gin.Context) {
	payments, err := h.settlementService.ListPayments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, payments))
}
