package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/homestead-backend/pkg/enums"
)

// BudgetSource is a recurring income or expense stream entries can point at.
type BudgetSource struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	HouseholdID uuid.UUID             `gorm:"column:household_id;type:uuid;not null"`
	Name        string                `gorm:"column:name;not null"`
	Type        enums.BudgetEntryType `gorm:"column:type;type:budget_entry_type;not null"`
	Amount      decimal.NullDecimal   `gorm:"column:amount;type:numeric(12,2)"`
	Frequency   enums.BudgetFrequency `gorm:"column:frequency;type:budget_frequency;not null;default:'variable'"`
	IsActive    bool                  `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
