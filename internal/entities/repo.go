package entities

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/homestead-backend/internal/repo"
	"github.com/angelmondragon/homestead-backend/pkg/db/models"
	"github.com/angelmondragon/homestead-backend/pkg/enums"
)

// Repository persists the household catalog: stores, brands, units and
// budget sources. Lookups by natural key are case-insensitive.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindStoreByID(ctx context.Context, householdID, id uuid.UUID) (*models.Store, error)
	FindStoreByCode(ctx context.Context, householdID uuid.UUID, code string) (*models.Store, error)
	FindStoreByName(ctx context.Context, householdID uuid.UUID, name string) (*models.Store, error)
	FindBrandByName(ctx context.Context, householdID uuid.UUID, name string) (*models.Brand, error)
	FindUnitByName(ctx context.Context, householdID uuid.UUID, name string) (*models.Unit, error)
	FindSource(ctx context.Context, householdID uuid.UUID, name string, kind enums.BudgetEntryType) (*models.BudgetSource, error)
	Create(ctx context.Context, value any) error
	UpdateStore(ctx context.Context, store *models.Store) error
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

func (r *repository) FindStoreByID(ctx context.Context, householdID, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.DB(ctx).
		Where("household_id = ? AND id = ?", householdID, id).
		First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *repository) FindStoreByCode(ctx context.Context, householdID uuid.UUID, code string) (*models.Store, error) {
	var store models.Store
	if err := r.DB(ctx).
		Where("household_id = ? AND LOWER(store_code) = LOWER(?)", householdID, code).
		First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// FindStoreByName only matches stores without an external code; coded
// stores are keyed by their code.
func (r *repository) FindStoreByName(ctx context.Context, householdID uuid.UUID, name string) (*models.Store, error) {
	var store models.Store
	if err := r.DB(ctx).
		Where("household_id = ? AND store_code IS NULL AND LOWER(name) = LOWER(?)", householdID, name).
		First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *repository) FindBrandByName(ctx context.Context, householdID uuid.UUID, name string) (*models.Brand, error) {
	var brand models.Brand
	if err := r.DB(ctx).
		Where("household_id = ? AND LOWER(name) = LOWER(?)", householdID, name).
		First(&brand).Error; err != nil {
		return nil, err
	}
	return &brand, nil
}

func (r *repository) FindUnitByName(ctx context.Context, householdID uuid.UUID, name string) (*models.Unit, error) {
	var unit models.Unit
	if err := r.DB(ctx).
		Where("household_id = ? AND LOWER(name) = LOWER(?)", householdID, name).
		First(&unit).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *repository) FindSource(ctx context.Context, householdID uuid.UUID, name string, kind enums.BudgetEntryType) (*models.BudgetSource, error) {
	var source models.BudgetSource
	if err := r.DB(ctx).
		Where("household_id = ? AND LOWER(name) = LOWER(?) AND type = ?", householdID, name, kind).
		First(&source).Error; err != nil {
		return nil, err
	}
	return &source, nil
}

// Create inserts value under a savepoint so a unique violation leaves any
// surrounding transaction usable.
func (r *repository) Create(ctx context.Context, value any) error {
	return r.Isolated(ctx, func(tx *gorm.DB) error {
		return tx.Create(value).Error
	})
}

func (r *repository) UpdateStore(ctx context.Context, store *models.Store) error {
	return r.Isolated(ctx, func(tx *gorm.DB) error {
		return tx.Save(store).Error
	})
}
