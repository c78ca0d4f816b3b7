package repository

import (
	"context"

	"freightops/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PartyRepository interface {
	Create(ctx context.Context, party *model.Party) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Party, error)
	List(ctx context.Context, partyType, search string, page, limit int) ([]model.Party, int64, error)
}

type partyRepository struct {
	db *gorm.DB
}

func NewPartyRepository(db *gorm.DB) PartyRepository {
	return &partyRepository{db: db}
}

func (r *partyRepository) Create(ctx context.Context, party *model.Party) error {
	return GetDB(ctx, r.db).Omit("City").Create(party).Error
}

func (r *partyRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Party, error) {
	var party model.Party
	if err := GetDB(ctx, r.db).Preload("City").First(&party, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &party, nil
}

func (r *partyRepository) List(ctx context.Context, partyType, search string, page, limit int) ([]model.Party, int64, error) {
	var parties []model.Party
	var total int64

	db := GetDB(ctx, r.db)
	apply := func(q *gorm.DB) *gorm.DB {
		if partyType != "" {
			q = q.Where("type = ? OR type = ?", partyType, model.PartyTypeBoth)
		}
		if search != "" {
			like := "%" + search + "%"
			q = q.Where("LOWER(name) LIKE LOWER(?) OR phone LIKE ?", like, like)
		}
		return q
	}

	if err := apply(db.Model(&model.Party{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := apply(db.Model(&model.Party{}).Preload("City")).
		Order("name").Offset(offset).Limit(limit).
		Find(&parties).Error; err != nil {
		return nil, 0, err
	}

	return parties, total, nil
}
