package service

import (
	"context"
	"fmt"
	"strings"

	"freightops/internal/model"
	"freightops/internal/repository"

	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreatePartyRequest struct {
	Name    string `json:"name" binding:"required"`
	Type    string `json:"type" binding:"omitempty,oneof=SENDER RECEIVER BOTH"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	CityID  string `json:"city_id"`
}

type CreateVehicleRequest struct {
	Number      string `json:"number" binding:"required"`
	OwnerName   string `json:"owner_name"`
	DriverName  string `json:"driver_name"`
	DriverPhone string `json:"driver_phone"`
	VehicleType string `json:"vehicle_type"`
}

type CreateCityRequest struct {
	Name string `json:"name" binding:"required"`
}

type CreateAgencyRequest struct {
	Name   string `json:"name" binding:"required"`
	Phone  string `json:"phone"`
	CityID string `json:"city_id"`
}

type CreateItemRequest struct {
	Name                   string          `json:"name" binding:"required"`
	DefaultCharges         decimal.Decimal `json:"default_charges" binding:"gte=0"`
	DefaultDeliveryCharges decimal.Decimal `json:"default_delivery_charges" binding:"gte=0"`
}

type CreateLabourPersonRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	CNIC    string `json:"cnic"`
	Address string `json:"address"`
}

// --- Interface ---

// MasterDataService is plain create/list access to reference tables
type MasterDataService interface {
	CreateParty(ctx context.Context, req CreatePartyRequest) (*model.Party, error)
	GetParty(ctx context.Context, id string) (*model.Party, error)
	ListParties(ctx context.Context, partyType, search string, page, limit int) ([]model.Party, int64, error)

	CreateVehicle(ctx context.Context, req CreateVehicleRequest) (*model.Vehicle, error)
	ListVehicles(ctx context.Context, search string) ([]model.Vehicle, error)

	CreateCity(ctx context.Context, req CreateCityRequest) (*model.City, error)
	ListCities(ctx context.Context) ([]model.City, error)

	CreateAgency(ctx context.Context, req CreateAgencyRequest) (*model.Agency, error)
	ListAgencies(ctx context.Context) ([]model.Agency, error)

	CreateItem(ctx context.Context, req CreateItemRequest) (*model.ItemCatalog, error)
	ListItems(ctx context.Context) ([]model.ItemCatalog, error)

	CreateLabourPerson(ctx context.Context, req CreateLabourPersonRequest) (*model.LabourPerson, error)
	ListLabourPersons(ctx context.Context) ([]model.LabourPerson, error)
}

type masterDataService struct {
	partyRepo  repository.PartyRepository
	masterRepo repository.MasterDataRepository
	labourRepo repository.LabourRepository
}

func NewMasterDataService(
	partyRepo repository.PartyRepository,
	masterRepo repository.MasterDataRepository,
	labourRepo repository.LabourRepository,
) MasterDataService {
	return &masterDataService{partyRepo: partyRepo, masterRepo: masterRepo, labourRepo: labourRepo}
}

func (s *masterDataService) CreateParty(ctx context.Context, req CreatePartyRequest) (*model.Party, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, Validation("name is required")
	}
	partyType := req.Type
	if partyType == "" {
		partyType = model.PartyTypeBoth
	}
	cityID, err := parseOptionalID(req.CityID, "city_id")
	if err != nil {
		return nil, err
	}
	party := &model.Party{
		Name:     name,
		Type:     partyType,
		Phone:    req.Phone,
		Address:  req.Address,
		CityID:   cityID,
		IsActive: true,
	}
	if err := s.partyRepo.Create(ctx, party); err != nil {
		return nil, fmt.Errorf("failed to create party: %w", err)
	}
	return party, nil
}

func (s *masterDataService) GetParty(ctx context.Context, id string) (*model.Party, error) {
	partyID, err := parseID(id, "party id")
	if err != nil {
		return nil, err
	}
	party, err := s.partyRepo.FindByID(ctx, partyID)
	if err != nil {
		return nil, notFoundOr(err, "party not found")
	}
	return party, nil
}

func (s *masterDataService) ListParties(ctx context.Context, partyType, search string, page, limit int) ([]model.Party, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.partyRepo.List(ctx, partyType, strings.TrimSpace(search), page, limit)
}

func (s *masterDataService) CreateVehicle(ctx context.Context, req CreateVehicleRequest) (*model.Vehicle, error) {
	number := strings.ToUpper(strings.TrimSpace(req.Number))
	if number == "" {
		return nil, Validation("number is required")
	}
	vehicle := &model.Vehicle{
		Number:      number,
		OwnerName:   req.OwnerName,
		DriverName:  req.DriverName,
		DriverPhone: req.DriverPhone,
		VehicleType: req.VehicleType,
		IsActive:    true,
	}
	if err := s.masterRepo.CreateVehicle(ctx, vehicle); err != nil {
		if repository.IsUniqueViolation(err, "vehicles", "number") {
			return nil, Conflict("vehicle %s already exists", number)
		}
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}
	return vehicle, nil
}

func (s *masterDataService) ListVehicles(ctx context.Context, search string) ([]model.Vehicle, error) {
	return s.masterRepo.ListVehicles(ctx, strings.TrimSpace(search))
}

func (s *masterDataService) CreateCity(ctx context.Context, req CreateCityRequest) (*model.City, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, Validation("name is required")
	}
	city := &model.City{Name: name}
	if err := s.masterRepo.CreateCity(ctx, city); err != nil {
		if repository.IsUniqueViolation(err, "cities", "name") {
			return nil, Conflict("city %s already exists", name)
		}
		return nil, fmt.Errorf("failed to create city: %w", err)
	}
	return city, nil
}

func (s *masterDataService) ListCities(ctx context.Context) ([]model.City, error) {
	return s.masterRepo.ListCities(ctx)
}

func (s *masterDataService) CreateAgency(ctx context.Context, req CreateAgencyRequest) (*model.Agency, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, Validation("name is required")
	}
	cityID, err := parseOptionalID(req.CityID, "city_id")
	if err != nil {
		return nil, err
	}
	if cityID != nil {
		if _, err := s.masterRepo.FindCityByID(ctx, *cityID); err != nil {
			return nil, notFoundOr(err, "city not found")
		}
	}
	agency := &model.Agency{Name: name, Phone: req.Phone, CityID: cityID}
	if err := s.masterRepo.CreateAgency(ctx, agency); err != nil {
		return nil, fmt.Errorf("failed to create agency: %w", err)
	}
	return agency, nil
}

func (s *masterDataService) ListAgencies(ctx context.Context) ([]model.Agency, error) {
	return s.masterRepo.ListAgencies(ctx)
}

func (s *masterDataService) CreateItem(ctx context.Context, req CreateItemRequest) (*model.ItemCatalog, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, Validation("name is required")
	}
	if req.DefaultCharges.IsNegative() || req.DefaultDeliveryCharges.IsNegative() {
		return nil, Validation("default charges must not be negative")
	}
	if err := checkCents("default charges", req.DefaultCharges, req.DefaultDeliveryCharges); err != nil {
		return nil, err
	}
	item := &model.ItemCatalog{
		Name:                   name,
		DefaultCharges:         req.DefaultCharges,
		DefaultDeliveryCharges: req.DefaultDeliveryCharges,
	}
	if err := s.masterRepo.CreateItem(ctx, item); err != nil {
		if repository.IsUniqueViolation(err, "item_catalog", "name") {
			return nil, Conflict("item %s already exists", name)
		}
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return item, nil
}

func (s *masterDataService) ListItems(ctx context.Context) ([]model.ItemCatalog, error) {
	return s.masterRepo.ListItems(ctx)
}

func (s *masterDataService) CreateLabourPerson(ctx context.Context, req CreateLabourPersonRequest) (*model.LabourPerson, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, Validation("name is required")
	}
	person := &model.LabourPerson{
		Name:     name,
		Phone:    req.Phone,
		CNIC:     req.CNIC,
		Address:  req.Address,
		IsActive: true,
	}
	if err := s.labourRepo.CreatePerson(ctx, person); err != nil {
		return nil, fmt.Errorf("failed to create labour person: %w", err)
	}
	return person, nil
}

func (s *masterDataService) ListLabourPersons(ctx context.Context) ([]model.LabourPerson, error) {
	return s.labourRepo.ListPersons(ctx)
}
