package repository

import (
	"context"

	"freightops/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssignmentFilter narrows assignment listings. Zero values are not applied.
type AssignmentFilter struct {
	LabourPersonID *uuid.UUID
	Status         string
	ExcludeSettled bool
	Page           int
	Limit          int
}

type LabourRepository interface {
	CreatePerson(ctx context.Context, person *model.LabourPerson) error
	FindPersonByID(ctx context.Context, id uuid.UUID) (*model.LabourPerson, error)
	ListPersons(ctx context.Context) ([]model.LabourPerson, error)

	CreateAssignments(ctx context.Context, assignments []model.LabourAssignment) error
	FindAssignmentForUpdate(ctx context.Context, id uuid.UUID) (*model.LabourAssignment, error)
	ListAssignments(ctx context.Context, filter AssignmentFilter) ([]model.LabourAssignment, int64, error)
	ActiveShipmentIDs(ctx context.Context, shipmentIDs []uuid.UUID) ([]uuid.UUID, error)
	HasActiveAssignment(ctx context.Context, shipmentID uuid.UUID) (bool, error)
	PersonHasShipment(ctx context.Context, personID, shipmentID uuid.UUID) (bool, error)
	UpdateAssignment(ctx context.Context, assignment *model.LabourAssignment) error

	CreatePayment(ctx context.Context, payment *model.LabourPaymentHistory) error
	ListPayments(ctx context.Context, personID uuid.UUID) ([]model.LabourPaymentHistory, error)
}

type labourRepository struct {
	db *gorm.DB
}

func NewLabourRepository(db *gorm.DB) LabourRepository {
	return &labourRepository{db: db}
}

func (r *labourRepository) CreatePerson(ctx context.Context, person *model.LabourPerson) error {
	return GetDB(ctx, r.db).Create(person).Error
}

func (r *labourRepository) FindPersonByID(ctx context.Context, id uuid.UUID) (*model.LabourPerson, error) {
	var person model.LabourPerson
	if err := GetDB(ctx, r.db).First(&person, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &person, nil
}

func (r *labourRepository) ListPersons(ctx context.Context) ([]model.LabourPerson, error) {
	var persons []model.LabourPerson
	if err := GetDB(ctx, r.db).Order("name").Find(&persons).Error; err != nil {
		return nil, err
	}
	return persons, nil
}

func (r *labourRepository) CreateAssignments(ctx context.Context, assignments []model.LabourAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Omit("LabourPerson", "Shipment").Create(&assignments).Error
}

// FindAssignmentForUpdate locks the assignment row and loads its shipment
// with the receiver party.
func (r *labourRepository) FindAssignmentForUpdate(ctx context.Context, id uuid.UUID) (*model.LabourAssignment, error) {
	var assignment model.LabourAssignment
	if err := forUpdate(GetDB(ctx, r.db)).Where("id = ?", id).First(&assignment).Error; err != nil {
		return nil, err
	}
	var shipment model.Shipment
	if err := GetDB(ctx, r.db).Preload("Receiver").First(&shipment, "id = ?", assignment.ShipmentID).Error; err != nil {
		return nil, err
	}
	assignment.Shipment = &shipment
	return &assignment, nil
}

func (r *labourRepository) ListAssignments(ctx context.Context, filter AssignmentFilter) ([]model.LabourAssignment, int64, error) {
	var assignments []model.LabourAssignment
	var total int64

	db := GetDB(ctx, r.db)
	apply := func(q *gorm.DB) *gorm.DB {
		if filter.LabourPersonID != nil {
			q = q.Where("labour_person_id = ?", *filter.LabourPersonID)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.ExcludeSettled {
			q = q.Where("status <> ?", model.AssignmentSettled)
		}
		return q
	}

	if err := apply(db.Model(&model.LabourAssignment{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := apply(db.Preload("LabourPerson").Preload("Shipment")).
		Order("assigned_date desc, created_at desc").
		Offset(offset).Limit(filter.Limit).
		Find(&assignments).Error; err != nil {
		return nil, 0, err
	}

	return assignments, total, nil
}

// ActiveShipmentIDs returns which of the given shipments already have an
// assignment that is not SETTLED.
func (r *labourRepository) ActiveShipmentIDs(ctx context.Context, shipmentIDs []uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if len(shipmentIDs) == 0 {
		return ids, nil
	}
	if err := GetDB(ctx, r.db).Model(&model.LabourAssignment{}).
		Where("shipment_id IN ? AND status <> ?", shipmentIDs, model.AssignmentSettled).
		Distinct().
		Pluck("shipment_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *labourRepository) HasActiveAssignment(ctx context.Context, shipmentID uuid.UUID) (bool, error) {
	ids, err := r.ActiveShipmentIDs(ctx, []uuid.UUID{shipmentID})
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

func (r *labourRepository) PersonHasShipment(ctx context.Context, personID, shipmentID uuid.UUID) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.LabourAssignment{}).
		Where("labour_person_id = ? AND shipment_id = ?", personID, shipmentID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *labourRepository) UpdateAssignment(ctx context.Context, assignment *model.LabourAssignment) error {
	return GetDB(ctx, r.db).Omit("LabourPerson", "Shipment").Save(assignment).Error
}

func (r *labourRepository) CreatePayment(ctx context.Context, payment *model.LabourPaymentHistory) error {
	return GetDB(ctx, r.db).Create(payment).Error
}

func (r *labourRepository) ListPayments(ctx context.Context, personID uuid.UUID) ([]model.LabourPaymentHistory, error) {
	var payments []model.LabourPaymentHistory
	if err := GetDB(ctx, r.db).
		Where("labour_person_id = ?", personID).
		Order("payment_date desc").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}
