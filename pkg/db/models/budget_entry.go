package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/angelmondragon/homestead-backend/pkg/db/types"
	"github.com/angelmondragon/homestead-backend/pkg/enums"
)

// BudgetEntry is a single ledger row. Purchase-derived rows hold the
// tax-inclusive amount of their purchase.
type BudgetEntry struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	HouseholdID uuid.UUID             `gorm:"column:household_id;type:uuid;not null"`
	UserID      *uuid.UUID            `gorm:"column:user_id;type:uuid"`
	Date        time.Time             `gorm:"column:date;type:date;not null"`
	Amount      decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	Type        enums.BudgetEntryType `gorm:"column:type;type:budget_entry_type;not null"`
	Notes       *string               `gorm:"column:notes"`
	SourceID    *uuid.UUID            `gorm:"column:source_id;type:uuid"`
	TagIDs      dbtypes.UUIDArray     `gorm:"column:tag_ids;type:uuid[]"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
