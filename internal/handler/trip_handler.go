package handler

import (
	"net/http"

	"freightops/internal/service"
	"freightops/pkg/pagination"
	"freightops/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TripHandler struct {
	tripService service.TripService
	logger      *zap.Logger
}

func NewTripHandler(tripService service.TripService, logger *zap.Logger) *TripHandler {
	return &TripHandler{tripService: tripService, logger: logger}
}

func (h *TripHandler) RegisterRoutes(router *gin.RouterGroup) {
	trips := router.Group("/trips")
	{
		trips.POST("", h.LogTrip)
		trips.GET("", h.ListTrips)
		trips.GET("/:id", h.GetTrip)
	}
}

// LogTrip records a trip with its line snapshot and posts the fare debit
// @Summary      Log trip
// @Description  received = total - delivery cut - cuts - accountant charges, never below zero
// @Tags         trips
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                  false  "Retry-safe request key"
// @Param        payload          body    service.LogTripRequest  true   "Trip payload"
// @Success      201  {object}  response.Response{data=service.TripResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/trips [post]
func (h *TripHandler) LogTrip(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req service.LogTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	trip, err := h.tripService.LogTrip(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, trip))
}

// ListTrips returns trip logs, newest first
// @Summary      List trips
// @Tags         trips
// @Security     BearerAuth
// @Produce      json
// @Param        vehicle_id  query  string  false  "Vehicle ID"
// @Param        from        query  string  false  "YYYY-MM-DD"
// @Param        to          query  string  false  "YYYY-MM-DD"
// @Param        page        query  int     false  "Page number (default: 1)"
// @Param        limit       query  int     false  "Items per page (default: 20)"
// @Success      200  {object}  response.Response{data=[]service.TripResponse}
// @Router       /api/trips [get]
func (h *TripHandler) ListTrips(c *gin.Context) {
	p := pagination.Parse(c)
	trips, total, err := h.tripService.ListTrips(c.Request.Context(), service.TripListFilter{
		VehicleID: c.Query("vehicle_id"),
		From:      c.Query("from"),
		To:        c.Query("to"),
		Page:      p.Page,
		Limit:     p.Limit,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, trips, p.Page, p.Limit, total))
}

// GetTrip returns one trip with its lines
// @Summary      Get trip
// @Tags         trips
// @Security     BearerAuth
// @Produce      json
// @Param        id   path  string  true  "Trip ID"
// @Success      200  {object}  response.Response{data=service.TripResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/trips/{id} [get]
func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, err := h.tripService.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, trip))
}
