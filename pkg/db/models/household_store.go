package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is a household-scoped retailer the household shops at. TaxRate is a
// fraction (0.0825) although legacy rows may hold whole percents.
type Store struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	HouseholdID uuid.UUID       `gorm:"column:household_id;type:uuid;not null"`
	Name        string          `gorm:"column:name;not null"`
	Address     *string         `gorm:"column:address"`
	City        *string         `gorm:"column:city"`
	State       *string         `gorm:"column:state"`
	PostalCode  *string         `gorm:"column:postal_code"`
	Phone       *string         `gorm:"column:phone"`
	StoreCode   *string         `gorm:"column:store_code"`
	TaxRate     decimal.Decimal `gorm:"column:tax_rate;type:numeric(8,5);not null;default:0"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Store) TableName() string { return "stores" }
