package corrections

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/homestead-backend/internal/repo"
	"github.com/angelmondragon/homestead-backend/pkg/db/models"
)

// Repository persists learned format corrections.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, correction *models.FormatCorrection) error
	FindByNormalized(ctx context.Context, householdID uuid.UUID, texts []string) ([]models.FormatCorrection, error)
	IncrementApplied(ctx context.Context, ids []uuid.UUID) error
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

// Upsert inserts or layers a correction onto the existing row for the same
// (household, normalized text). Null fields never erase learned values.
func (r *repository) Upsert(ctx context.Context, correction *models.FormatCorrection) error {
	layered := func(column string) clause.Assignment {
		return clause.Assignment{
			Column: clause.Column{Name: column},
			Value:  gorm.Expr("COALESCE(excluded." + column + ", format_corrections." + column + ")"),
		}
	}

	return r.Isolated(ctx, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "household_id"}, {Name: "normalized_text"}},
			DoUpdates: clause.Set{
				{Column: clause.Column{Name: "raw_text"}, Value: gorm.Expr("excluded.raw_text")},
				layered("corrected_brand"),
				layered("corrected_item"),
				layered("corrected_unit"),
				layered("corrected_quantity"),
				layered("corrected_unit_quantity"),
				{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("excluded.updated_at")},
			},
		}).Create(correction).Error
	})
}

func (r *repository) FindByNormalized(ctx context.Context, householdID uuid.UUID, texts []string) ([]models.FormatCorrection, error) {
	var rows []models.FormatCorrection
	if len(texts) == 0 {
		return rows, nil
	}
	if err := r.DB(ctx).
		Where("household_id = ? AND normalized_text IN ?", householdID, texts).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) IncrementApplied(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.DB(ctx).
		Model(&models.FormatCorrection{}).
		Where("id IN ?", ids).
		UpdateColumn("times_applied", gorm.Expr("times_applied + 1")).Error
}
