package purchases

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/homestead-backend/internal/repo"
	"github.com/angelmondragon/homestead-backend/pkg/db/models"
)

// Repository persists purchases and their paired ledger entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateEntry(ctx context.Context, entry *models.BudgetEntry) error
	CreatePurchase(ctx context.Context, purchase *models.Purchase) error
	FindPurchase(ctx context.Context, householdID, id uuid.UUID) (*models.Purchase, error)
	FindPurchaseAtStore(ctx context.Context, householdID, storeID, id uuid.UUID) (*models.Purchase, error)
	ListMatchingAtStore(ctx context.Context, householdID, storeID uuid.UUID, brand, item string, excludeID uuid.UUID) ([]models.Purchase, error)
	SavePurchase(ctx context.Context, purchase *models.Purchase) error
	UpdateEntryAmount(ctx context.Context, entryID uuid.UUID, amount decimal.Decimal) error
	DeletePurchase(ctx context.Context, householdID, id uuid.UUID) (int64, error)
	FindBrand(ctx context.Context, householdID uuid.UUID, name string) (*models.Brand, error)
	RecentByBrand(ctx context.Context, householdID uuid.UUID, brand string, storeID *uuid.UUID, limit int) ([]models.Purchase, error)
	StopStoreRate(ctx context.Context, householdID, stopID uuid.UUID) (decimal.NullDecimal, error)
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

func (r *repository) CreateEntry(ctx context.Context, entry *models.BudgetEntry) error {
	return r.DB(ctx).Create(entry).Error
}

func (r *repository) CreatePurchase(ctx context.Context, purchase *models.Purchase) error {
	return r.DB(ctx).Omit("BudgetEntry").Create(purchase).Error
}

func (r *repository) FindPurchase(ctx context.Context, householdID, id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := r.DB(ctx).
		Preload("BudgetEntry").
		Where("household_id = ? AND id = ?", householdID, id).
		First(&purchase).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) FindPurchaseAtStore(ctx context.Context, householdID, storeID, id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := r.DB(ctx).
		Joins("JOIN stops ON stops.id = purchases.stop_id").
		Where("purchases.household_id = ? AND purchases.id = ? AND stops.store_id = ?", householdID, id, storeID).
		First(&purchase).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) ListMatchingAtStore(ctx context.Context, householdID, storeID uuid.UUID, brand, item string, excludeID uuid.UUID) ([]models.Purchase, error) {
	var rows []models.Purchase
	if err := r.DB(ctx).
		Joins("JOIN stops ON stops.id = purchases.stop_id").
		Where("purchases.household_id = ? AND stops.store_id = ?", householdID, storeID).
		Where("LOWER(purchases.brand_name) = LOWER(?) AND LOWER(purchases.item_name) = LOWER(?)", brand, item).
		Where("purchases.id <> ?", excludeID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SavePurchase(ctx context.Context, purchase *models.Purchase) error {
	return r.DB(ctx).Omit("BudgetEntry").Save(purchase).Error
}

func (r *repository) UpdateEntryAmount(ctx context.Context, entryID uuid.UUID, amount decimal.Decimal) error {
	return r.DB(ctx).
		Model(&models.BudgetEntry{}).
		Where("id = ?", entryID).
		Update("amount", amount).Error
}

// DeletePurchase removes only the purchase row. Its ledger entry stays and
// becomes a regular entry.
func (r *repository) DeletePurchase(ctx context.Context, householdID, id uuid.UUID) (int64, error) {
	res := r.DB(ctx).
		Where("household_id = ? AND id = ?", householdID, id).
		Delete(&models.Purchase{})
	return res.RowsAffected, res.Error
}

func (r *repository) FindBrand(ctx context.Context, householdID uuid.UUID, name string) (*models.Brand, error) {
	var brand models.Brand
	if err := r.DB(ctx).
		Where("household_id = ? AND LOWER(name) = LOWER(?)", householdID, name).
		First(&brand).Error; err != nil {
		return nil, err
	}
	return &brand, nil
}

func (r *repository) RecentByBrand(ctx context.Context, householdID uuid.UUID, brand string, storeID *uuid.UUID, limit int) ([]models.Purchase, error) {
	q := r.DB(ctx).
		Model(&models.Purchase{}).
		Where("purchases.household_id = ? AND LOWER(purchases.brand_name) = LOWER(?)", householdID, brand)
	if storeID != nil {
		q = q.Joins("JOIN stops ON stops.id = purchases.stop_id").Where("stops.store_id = ?", *storeID)
	}
	var rows []models.Purchase
	if err := q.Order("purchases.created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type storeRateRow struct {
	TaxRate decimal.NullDecimal
}

// StopStoreRate returns the tax rate of the store behind a stop; null when
// the stop has no store.
func (r *repository) StopStoreRate(ctx context.Context, householdID, stopID uuid.UUID) (decimal.NullDecimal, error) {
	var row storeRateRow
	err := r.DB(ctx).
		Table("stops").
		Select("stores.tax_rate AS tax_rate").
		Joins("JOIN stores ON stores.id = stops.store_id").
		Where("stops.household_id = ? AND stops.id = ?", householdID, stopID).
		Limit(1).
		Scan(&row).Error
	return row.TaxRate, err
}
