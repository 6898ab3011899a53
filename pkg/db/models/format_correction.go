package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/homestead-backend/pkg/enums"
)

// FormatCorrection is a learned mapping from raw receipt text to the values a
// household member confirmed. Nil fields were never learned.
type FormatCorrection struct {
	ID                    uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	HouseholdID           uuid.UUID                 `gorm:"column:household_id;type:uuid;not null"`
	RawText               string                    `gorm:"column:raw_text;not null"`
	NormalizedText        string                    `gorm:"column:normalized_text;not null"`
	CorrectedBrand        *string                   `gorm:"column:corrected_brand"`
	CorrectedItem         *string                   `gorm:"column:corrected_item"`
	CorrectedUnit         *string                   `gorm:"column:corrected_unit"`
	CorrectedQuantity     decimal.NullDecimal       `gorm:"column:corrected_quantity;type:numeric(12,3)"`
	CorrectedUnitQuantity decimal.NullDecimal       `gorm:"column:corrected_unit_quantity;type:numeric(12,3)"`
	MatchType             enums.CorrectionMatchType `gorm:"column:match_type;type:correction_match_type;not null;default:'exact'"`
	TimesApplied          int                       `gorm:"column:times_applied;not null;default:0"`
	CreatedAt             time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
