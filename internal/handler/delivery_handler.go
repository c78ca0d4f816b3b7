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

type DeliveryHandler struct {
	deliveryService service.DeliveryService
	logger          *zap.Logger
}

func NewDeliveryHandler(deliveryService service.DeliveryService, logger *zap.Logger) *DeliveryHandler {
	return &DeliveryHandler{deliveryService: deliveryService, logger: logger}
}

func (h *DeliveryHandler) RegisterRoutes(router *gin.RouterGroup) {
	deliveries := router.Group("/deliveries")
	{
		deliveries.POST("", h.CreateDelivery)
		deliveries.GET("", h.ListDeliveries)
		deliveries.GET("/approved", h.ListApproved)
		deliveries.GET("/:id", h.GetDelivery)
		deliveries.PATCH("/:id", middleware.AllowRoles(model.RoleAdmin, model.RoleManager), h.UpdateStatus)
	}
}

// CreateDelivery records a direct delivery of a shipment
// @Summary      Record delivery
// @Tags         deliveries
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                         false  "Retry-safe request key"
// @Param        payload          body    service.CreateDeliveryRequest  true   "Delivery payload"
// @Success      201  {object}  response.Response{data=service.DeliveryResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/deliveries [post]
func (h *DeliveryHandler) CreateDelivery(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req service.CreateDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	delivery, err := h.deliveryService.CreateDelivery(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, delivery))
}

// ListDeliveries returns deliveries, optionally by approval status
// @Summary      List deliveries
// @Tags         deliveries
// @Security     BearerAuth
// @Produce      json
// @Param        status       query  string  false  "PENDING, APPROVED_BY_ADMIN, APPROVED, REJECTED"
// @Param        shipment_id  query  string  false  "Shipment ID"
// @Param        page         query  int     false  "Page number (default: 1)"
// @Param        limit        query  int     false  "Items per page (default: 20)"
// @Success      200  {object}  response.Response{data=[]service.DeliveryResponse}
// @Router       /api/deliveries [get]
func (h *DeliveryHandler) ListDeliveries(c *gin.Context) {
	p := pagination.Parse(c)
	deliveries, total, err := h.deliveryService.ListDeliveries(c.Request.Context(), service.DeliveryListFilter{
		Status:     c.Query("status"),
		ShipmentID: c.Query("shipment_id"),
		Page:       p.Page,
		Limit:      p.Limit,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, deliveries, p.Page, p.Limit, total))
}

// ListApproved is the approved-on-a-day report, filtered by approval time
// @Summary      Approved deliveries report
// @Tags         deliveries
// @Security     BearerAuth
// @Produce      json
// @Param        date    query  string  false  "YYYY-MM-DD (default: today)"
// @Param        status  query  string  false  "APPROVED (default) or APPROVED_BY_ADMIN"
// @Success      200  {object}  response.Response{data=[]service.DeliveryResponse}
// @Router       /api/deliveries/approved [get]
func (h *DeliveryHandler) ListApproved(c *gin.Context) {
	deliveries, err := h.deliveryService.ListApproved(c.Request.Context(), c.Query("date"), c.Query("status"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, deliveries))
}

// GetDelivery returns one delivery
// @Summary      Get delivery
// @Tags         deliveries
// @Security     BearerAuth
// @Produce      json
// @Param        id   path  string  true  "Delivery ID"
// @Success      200  {object}  response.Response{data=service.DeliveryResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/deliveries/{id} [get]
func (h *DeliveryHandler) GetDelivery(c *gin.Context) {
	delivery, err := h.deliveryService.GetDelivery(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, delivery))
}

// UpdateStatus advances or rejects a delivery's approval
// @Summary      Change delivery approval status
// @Tags         deliveries
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                               true  "Delivery ID"
// @Param        payload  body  service.UpdateDeliveryStatusRequest  true  "Action payload"
// @Success      200  {object}  response.Response{data=service.DeliveryResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/deliveries/{id} [patch]
func (h *DeliveryHandler) UpdateStatus(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req service.UpdateDeliveryStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	delivery, err := h.deliveryService.UpdateStatus(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, delivery))
}
