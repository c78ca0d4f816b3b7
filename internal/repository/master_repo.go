package repository

import (
	"context"

	"freightops/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MasterDataRepository covers the reference tables that have no workflow:
// vehicles, cities, agencies and the item catalog.
type MasterDataRepository interface {
	CreateVehicle(ctx context.Context, vehicle *model.Vehicle) error
	FindVehicleByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error)
	ListVehicles(ctx context.Context, search string) ([]model.Vehicle, error)

	CreateCity(ctx context.Context, city *model.City) error
	FindCityByID(ctx context.Context, id uuid.UUID) (*model.City, error)
	ListCities(ctx context.Context) ([]model.City, error)

	CreateAgency(ctx context.Context, agency *model.Agency) error
	ListAgencies(ctx context.Context) ([]model.Agency, error)

	CreateItem(ctx context.Context, item *model.ItemCatalog) error
	ListItems(ctx context.Context) ([]model.ItemCatalog, error)
}

type masterDataRepository struct {
	db *gorm.DB
}

func NewMasterDataRepository(db *gorm.DB) MasterDataRepository {
	return &masterDataRepository{db: db}
}

func (r *masterDataRepository) CreateVehicle(ctx context.Context, vehicle *model.Vehicle) error {
	return GetDB(ctx, r.db).Create(vehicle).Error
}

func (r *masterDataRepository) FindVehicleByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	if err := GetDB(ctx, r.db).First(&vehicle, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (r *masterDataRepository) ListVehicles(ctx context.Context, search string) ([]model.Vehicle, error) {
	var vehicles []model.Vehicle
	q := GetDB(ctx, r.db)
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("LOWER(number) LIKE LOWER(?) OR LOWER(driver_name) LIKE LOWER(?)", like, like)
	}
	if err := q.Order("number").Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (r *masterDataRepository) CreateCity(ctx context.Context, city *model.City) error {
	return GetDB(ctx, r.db).Create(city).Error
}

func (r *masterDataRepository) FindCityByID(ctx context.Context, id uuid.UUID) (*model.City, error) {
	var city model.City
	if err := GetDB(ctx, r.db).First(&city, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &city, nil
}

func (r *masterDataRepository) ListCities(ctx context.Context) ([]model.City, error) {
	var cities []model.City
	if err := GetDB(ctx, r.db).Order("name").Find(&cities).Error; err != nil {
		return nil, err
	}
	return cities, nil
}

func (r *masterDataRepository) CreateAgency(ctx context.Context, agency *model.Agency) error {
	return GetDB(ctx, r.db).Create(agency).Error
}

func (r *masterDataRepository) ListAgencies(ctx context.Context) ([]model.Agency, error) {
	var agencies []model.Agency
	if err := GetDB(ctx, r.db).Order("name").Find(&agencies).Error; err != nil {
		return nil, err
	}
	return agencies, nil
}

func (r *masterDataRepository) CreateItem(ctx context.Context, item *model.ItemCatalog) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *masterDataRepository) ListItems(ctx context.Context) ([]model.ItemCatalog, error) {
	var items []model.ItemCatalog
	if err := GetDB(ctx, r.db).Order("name").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
