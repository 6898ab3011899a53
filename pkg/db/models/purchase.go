package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/angelmondragon/homestead-backend/pkg/db/types"
)

// Purchase is one receipt line. Pricing is either Count x PricePerCount or
// Units x PricePerUnit, never both. TotalPrice is the pre-tax line amount;
// the paired BudgetEntry carries the tax-inclusive amount.
type Purchase struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	HouseholdID      uuid.UUID           `gorm:"column:household_id;type:uuid;not null"`
	StopID           *uuid.UUID          `gorm:"column:stop_id;type:uuid"`
	BudgetEntryID    uuid.UUID           `gorm:"column:budget_entry_id;type:uuid;not null"`
	BrandName        string              `gorm:"column:brand_name;not null"`
	ItemName         string              `gorm:"column:item_name;not null"`
	Unit             *string             `gorm:"column:unit"`
	Count            decimal.NullDecimal `gorm:"column:count;type:numeric(12,3)"`
	PricePerCount    decimal.NullDecimal `gorm:"column:price_per_count;type:numeric(12,4)"`
	Units            decimal.NullDecimal `gorm:"column:units;type:numeric(12,3)"`
	PricePerUnit     decimal.NullDecimal `gorm:"column:price_per_unit;type:numeric(12,4)"`
	Taxable          bool                `gorm:"column:taxable;not null;default:false"`
	TaxRate          decimal.NullDecimal `gorm:"column:tax_rate;type:numeric(8,5)"`
	TotalPrice       decimal.Decimal     `gorm:"column:total_price;type:numeric(12,2);not null"`
	ReceiptStoreCode *string             `gorm:"column:receipt_store_code"`
	RawText          *string             `gorm:"column:raw_text"`
	TagIDs           dbtypes.UUIDArray   `gorm:"column:tag_ids;type:uuid[]"`
	BudgetEntry      *BudgetEntry        `gorm:"foreignKey:BudgetEntryID"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
