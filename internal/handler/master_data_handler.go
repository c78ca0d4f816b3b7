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

type MasterDataHandler struct {
	masterService service.MasterDataService
	logger        *zap.Logger
}

func NewMasterDataHandler(masterService service.MasterDataService, logger *zap.Logger) *MasterDataHandler {
	return &MasterDataHandler{masterService: masterService, logger: logger}
}

func (h *MasterDataHandler) RegisterRoutes(router *gin.RouterGroup) {
	write := middleware.AllowRoles(model.RoleAdmin, model.RoleManager)

	router.GET("/parties", h.ListParties)
	router.GET("/parties/:id", h.GetParty)
	router.POST("/parties", write, h.CreateParty)

	router.GET("/vehicles", h.ListVehicles)
	router.POST("/vehicles", write, h.CreateVehicle)

	router.GET("/cities", h.ListCities)
	router.POST("/cities", write, h.CreateCity)

	router.GET("/agencies", h.ListAgencies)
	router.POST("/agencies", write, h.CreateAgency)

	router.GET("/items", h.ListItems)
	router.POST("/items", write, h.CreateItem)

	router.GET("/labour-persons", h.ListLabourPersons)
	router.POST("/labour-persons", write, h.CreateLabourPerson)
}

// bindAndCreate is the shared shape of every master data POST
func bindAndCreate[Req any, Out any](h *MasterDataHandler, c *gin.Context, create func(*gin.Context, Req) (Out, error)) {
	var req Req
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	out, err := create(c, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, out))
}

func listOrFail[Out any](h *MasterDataHandler, c *gin.Context, items Out, err error) {
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

// ListParties returns paginated parties with optional type/search filter
// @Summary      List parties
// @Tags         master-data
// @Security     BearerAuth
// @Produce      json
// @Param        type    query  string  false  "SENDER, RECEIVER, BOTH"
// @Param        search  query  string  false  "Name or phone"
// @Param        page    query  int     false  "Page number (default: 1)"
// @Param        limit   query  int     false  "Items per page (default: 20)"
// @Success      200  {object}  response.Response{data=[]model.Party}
// @Router       /api/parties [get]
func (h *MasterDataHandler) ListParties(c *gin.Context) {
	p := pagination.Parse(c)
	parties, total, err := h.masterService.ListParties(c.Request.Context(), c.Query("type"), c.Query("search"), p.Page, p.Limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, parties, p.Page, p.Limit, total))
}

// GetParty returns one party
// @Summary      Get party
// @Tags         master-data
// @Security     BearerAuth
// @Produce      json
// @Param        id   path  string  true  "Party ID"
// @Success      200  {object}  response.Response{data=model.Party}
// @Failure      404  {object}  response.Response
// @Router       /api/parties/{id} [get]
func (h *MasterDataHandler) GetParty(c *gin.Context) {
	party, err := h.masterService.GetParty(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, party))
}

// CreateParty creates a sender/receiver party
// @Summary      Create party
// @Tags         master-data
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreatePartyRequest  true  "Party payload"
// @Success      201  {object}  response.Response{data=model.Party}
// @Failure      400  {object}  response.Response
// @Router       /api/parties [post]
func (h *MasterDataHandler) CreateParty(c *gin.Context) {
	bindAndCreate(h, c, func(c *gin.Context, req service.CreatePartyRequest) (*model.Party, error) {
		return h.masterService.CreateParty(c.Request.Context(), req)
	})
}

// ListVehicles returns vehicles, optionally filtered by number
// @Summary      List vehicles
// @Tags         master-data
// @Security     BearerAuth
// @Produce      json
// @Param        search  query  string  false  "Vehicle number"
// @Success      200  {object}  response.Response{data=[]model.Vehicle}
// @Router       /api/vehicles [get]
func (h *MasterDataHandler) ListVehicles(c *gin.Context) {
	vehicles, err := h.masterService.ListVehicles(c.Request.Context(), c.Query("search"))
	listOrFail(h, c, vehicles, err)
}

// CreateVehicle registers a vehicle
// @Summary      Create vehicle
// @Tags         master-data
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateVehicleRequest  true  "Vehicle payload"
// @Success      201  {object}  response.Response{data=model.Vehicle}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/vehicles [post]
func (h *MasterDataHandler) CreateVehicle(c *gin.Context) {
	bindAndCreate(h, c, func(c *gin.Context, req service.CreateVehicleRequest) (*model.Vehicle, error) {
		return h.masterService.CreateVehicle(c.Request.Context(), req)
	})
}

// @Summary      List cities
// @Tags         master-data
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.City}
// @Router       /api/cities [get]
func (h *MasterDataHandler) ListCities(c *gin.Context) {
	cities, err := h.masterService.ListCities(c.Request.Context())
	listOrFail(h, c, cities, err)
}

// @Summary      Create city
// @Tags         master-data
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateCityRequest  true  "City payload"
// @Success      201  {object}  response.Response{data=model.City}
// @Failure      409  {object}  response.Response
// @Router       /api/cities [post]
func (h *MasterDataHandler) CreateCity(c *gin.Context) {
	bindAndCreate(h, c, func(c *gin.Context, req service.CreateCityRequest) (*model.City, error) {
		return h.masterService.CreateCity(c.Request.Context(), req)
	})
}

// @Summary      List agencies
// @Tags         master-data
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Agency}
// @Router       /api/agencies [get]
func (h *MasterDataHandler) ListAgencies(c *gin.Context) {
	agencies, err := h.masterService.ListAgencies(c.Request.Context())
	listOrFail(h, c, agencies, err)
}

// @Summary      Create agency
// @Tags         master-data
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateAgencyRequest  true  "Agency payload"
// @Success      201  {object}  response.Response{data=model.Agency}
// @Router       /api/agencies [post]
func (h *MasterDataHandler) CreateAgency(c *gin.Context) {
	bindAndCreate(h, c, func(c *gin.Context, req service.CreateAgencyRequest) (*model.Agency, error) {
		return h.masterService.CreateAgency(c.Request.Context(), req)
	})
}

// @Summary      List item catalog
// @Tags         master-data
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.ItemCatalog}
// @Router       /api/items [get]
func (h *MasterDataHandler) ListItems(c *gin.Context) {
	items, err := h.masterService.ListItems(c.Request.Context())
	listOrFail(h, c, items, err)
}

// @Summary      Create catalog item
// @Tags         master-data
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateItemRequest  true  "Item payload"
// @Success      201  {object}  response.Response{data=model.ItemCatalog}
// @Router       /api/items [post]
func (h *MasterDataHandler) CreateItem(c *gin.Context) {
	bindAndCreate(h, c, func(c *gin.Context, req service.CreateItemRequest) (*model.ItemCatalog, error) {
		return h.masterService.CreateItem(c.Request.Context(), req)
	})
}

// @Summary      List labour persons
// @Tags         master-data
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.LabourPerson}
// @Router       /api/labour-persons [get]
func (h *MasterDataHandler) ListLabourPersons(c *gin.Context) {
	persons, err := h.masterService.ListLabourPersons(c.Request.Context())
	listOrFail(h, c, persons, err)
}

// @Summary      Create labour person
// @Tags         master-data
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateLabourPersonRequest  true  "Labour person payload"
// @Success      201  {object}  response.Response{data=model.LabourPerson}
// @Router       /api/labour-persons [post]
func (h *MasterDataHandler) CreateLabourPerson(c *gin.Context) {
	bindAndCreate(h, c, func(c *gin.Context, req service.CreateLabourPersonRequest) (*model.LabourPerson, error) {
		return h.masterService.CreateLabourPerson(c.Request.Context(), req)
	})
}
