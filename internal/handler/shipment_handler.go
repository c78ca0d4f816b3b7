package handler

import (
	"net/http"

	"freightops/internal/service"
	"freightops/pkg/pagination"
	"freightops/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ShipmentHandler struct {
	shipmentService service.ShipmentService
	logger          *zap.Logger
}

func NewShipmentHandler(shipmentService service.ShipmentService, logger *zap.Logger) *ShipmentHandler {
	return &ShipmentHandler{shipmentService: shipmentService, logger: logger}
}

func (h *ShipmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	shipments := router.Group("/shipments")
	{
		shipments.POST("", h.RegisterShipment)
		shipments.GET("", h.ListShipments)
		shipments.GET("/by-vehicle-date", h.GetByVehicleAndDate)
		shipments.GET("/:id", h.GetShipment)
	}
}

// RegisterShipment registers a consignment and posts the sender charge
// @Summary      Register shipment
// @Description  Allocates the monthly register number and, for PENDING payment, posts one SENDER credit
// @Tags         shipments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                           false  "Retry-safe request key"
// @Param        payload          body    service.RegisterShipmentRequest  true   "Shipment payload"
// @Success      201  {object}  response.Response{data=service.ShipmentResponse}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/shipments [post]
func (h *ShipmentHandler) RegisterShipment(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req service.RegisterShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	shipment, err := h.shipmentService.RegisterShipment(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, shipment))
}

// ListShipments returns shipments filtered by search text, delivered flag, date and vehicle
// @Summary      List shipments
// @Tags         shipments
// @Security     BearerAuth
// @Produce      json
// @Param        search       query  string  false  "Bility/register number or party name"
// @Param        delivered    query  bool    false  "Only delivered (true) or undelivered (false)"
// @Param        bility_date  query  string  false  "YYYY-MM-DD"
// @Param        vehicle_id   query  string  false  "Vehicle ID"
// @Param        page         query  int     false  "Page number (default: 1)"
// @Param        limit        query  int     false  "Items per page (default: 20)"
// @Success      200  {object}  response.Response{data=[]service.ShipmentResponse}
// @Router       /api/shipments [get]
func (h *ShipmentHandler) ListShipments(c *gin.Context) {
	delivered, ok := queryBool(c, "delivered")
	if !ok {
		return
	}
	p := pagination.Parse(c)

	shipments, total, err := h.shipmentService.ListShipments(c.Request.Context(), service.ShipmentListFilter{
		Search:     c.Query("search"),
		Delivered:  delivered,
		BilityDate: c.Query("bility_date"),
		VehicleID:  c.Query("vehicle_id"),
		Page:       p.Page,
		Limit:      p.Limit,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, shipments, p.Page, p.Limit, total))
}

// GetByVehicleAndDate returns goods lines loaded on a vehicle on a date, for trip prefill
// @Summary      Shipment lines by vehicle and date
// @Tags         shipments
// @Security     BearerAuth
// @Produce      json
// @Param        vehicle_id  query  string  true  "Vehicle ID"
// @Param        date        query  string  true  "YYYY-MM-DD"
// @Success      200  {object}  response.Response{data=[]service.TripPrefillLine}
// @Failure      400  {object}  response.Response
// @Router       /api/shipments/by-vehicle-date [get]
func (h *ShipmentHandler) GetByVehicleAndDate(c *gin.Context) {
	lines, err := h.shipmentService.GetByVehicleAndDate(c.Request.Context(), c.Query("vehicle_id"), c.Query("date"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, lines))
}

// GetShipment returns one shipment with its goods
// @Summary      Get shipment
// @Tags         shipments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path  string  true  "Shipment ID"
// @Success      200  {object}  response.Response{data=service.ShipmentResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/shipments/{id} [get]
func (h *ShipmentHandler) GetShipment(c *gin.Context) {
	shipment, err := h.shipmentService.GetShipment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, shipment))
}
