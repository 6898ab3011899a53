package budget

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/homestead-backend/internal/repo"
	"github.com/angelmondragon/homestead-backend/pkg/db/models"
	"github.com/angelmondragon/homestead-backend/pkg/enums"
)

// EntryQuery narrows regular ledger rows. From is inclusive, To exclusive.
type EntryQuery struct {
	From *time.Time
	To   *time.Time
	Type *enums.BudgetEntryType
}

// Repository reads ledger rows that are not owned by a trip stop.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListRegularEntries(ctx context.Context, householdID uuid.UUID, q EntryQuery) ([]models.BudgetEntry, error)
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

// ListRegularEntries skips rows paired with a purchase made at a stop and
// rows linked straight to a stop; those surface through the stop instead.
func (r *repository) ListRegularEntries(ctx context.Context, householdID uuid.UUID, q EntryQuery) ([]models.BudgetEntry, error) {
	query := r.DB(ctx).
		Where("budget_entries.household_id = ?", householdID).
		Where("NOT EXISTS (SELECT 1 FROM purchases p WHERE p.budget_entry_id = budget_entries.id AND p.stop_id IS NOT NULL)").
		Where("NOT EXISTS (SELECT 1 FROM stops s WHERE s.budget_entry_id = budget_entries.id)")
	if q.From != nil {
		query = query.Where("budget_entries.date >= ?", *q.From)
	}
	if q.To != nil {
		query = query.Where("budget_entries.date < ?", *q.To)
	}
	if q.Type != nil {
		query = query.Where("budget_entries.type = ?", *q.Type)
	}

	var entries []models.BudgetEntry
	if err := query.
		Order("budget_entries.date DESC").
		Order("budget_entries.created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
