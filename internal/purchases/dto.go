package purchases

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/homestead-backend/internal/entities"
	"github.com/angelmondragon/homestead-backend/internal/tax"
	"github.com/angelmondragon/homestead-backend/pkg/db/models"
)

// ConfirmInput is a receipt the user reviewed and submitted. StoreID wins
// over Store when both are present.
type ConfirmInput struct {
	StoreID *uuid.UUID
	Store   entities.StoreParams
	TripID  *uuid.UUID
	Date    *time.Time
	Time    string
	Items   []ItemInput
	UserID  *uuid.UUID
}

// ItemInput is one confirmed line. Either Count/PricePerCount or
// Units/PricePerUnit describes the quantity; TotalPrice, when present, is the
// pre-tax line amount and overrides quantity x price.
type ItemInput struct {
	Brand            string
	ItemName         string
	Unit             *string
	Count            Numeric
	PricePerCount    Numeric
	Units            Numeric
	PricePerUnit     Numeric
	TotalPrice       Numeric
	TaxRate          Numeric
	Taxable          bool
	RawText          *string
	ReceiptStoreCode *string
	Notes            *string
	TagIDs           []uuid.UUID
	// Corrected is echoed from the scan when learned corrections filled the line.
	Corrected        bool
}

// SkippedItem reports a line dropped during confirmation.
type SkippedItem struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type ConfirmResult struct {
	Store        *entities.StoreDTO `json:"store"`
	StopID       *uuid.UUID         `json:"stop_id,omitempty"`
	Purchases    []PurchaseDTO      `json:"purchases"`
	CreatedCount int                `json:"created_count"`
	Skipped      []SkippedItem      `json:"skipped,omitempty"`
	Warnings     []string           `json:"warnings,omitempty"`
}

// PurchaseDTO is the API projection of a purchase. TotalPrice is pre-tax;
// TotalWithTax is what was paid.
type PurchaseDTO struct {
	ID               uuid.UUID           `json:"id"`
	StopID           *uuid.UUID          `json:"stop_id,omitempty"`
	BudgetEntryID    uuid.UUID           `json:"budget_entry_id"`
	BrandName        string              `json:"brand_name"`
	ItemName         string              `json:"item_name"`
	Unit             *string             `json:"unit,omitempty"`
	Count            decimal.NullDecimal `json:"count"`
	PricePerCount    decimal.NullDecimal `json:"price_per_count"`
	Units            decimal.NullDecimal `json:"units"`
	PricePerUnit     decimal.NullDecimal `json:"price_per_unit"`
	Taxable          bool                `json:"taxable"`
	TaxRatePercent   *decimal.Decimal    `json:"tax_rate_percent,omitempty"`
	TotalPrice       decimal.Decimal     `json:"total_price"`
	TotalWithTax     decimal.Decimal     `json:"total_with_tax"`
	ReceiptStoreCode *string             `json:"receipt_store_code,omitempty"`
	RawText          *string             `json:"raw_text,omitempty"`
	TagIDs           []uuid.UUID         `json:"tag_ids"`
	CreatedAt        time.Time           `json:"created_at"`
}

// FromModel projects a purchase; storeRate is the fallback for untaxed snapshots.
func FromModel(p *models.Purchase, storeRate decimal.NullDecimal) PurchaseDTO {
	dto := PurchaseDTO{
		ID:               p.ID,
		StopID:           p.StopID,
		BudgetEntryID:    p.BudgetEntryID,
		BrandName:        p.BrandName,
		ItemName:         p.ItemName,
		Unit:             p.Unit,
		Count:            p.Count,
		PricePerCount:    p.PricePerCount,
		Units:            p.Units,
		PricePerUnit:     p.PricePerUnit,
		Taxable:          p.Taxable,
		TotalPrice:       p.TotalPrice,
		TotalWithTax:     TotalWithTax(p, storeRate),
		ReceiptStoreCode: p.ReceiptStoreCode,
		RawText:          p.RawText,
		TagIDs:           []uuid.UUID(p.TagIDs),
		CreatedAt:        p.CreatedAt,
	}
	if dto.TagIDs == nil {
		dto.TagIDs = []uuid.UUID{}
	}
	if p.TaxRate.Valid {
		pct := tax.DisplayPercent(p.TaxRate.Decimal)
		dto.TaxRatePercent = &pct
	}
	return dto
}

// TotalWithTax is the tax-inclusive amount of a purchase rounded to cents.
func TotalWithTax(p *models.Purchase, storeRate decimal.NullDecimal) decimal.Decimal {
	rate := tax.ResolveRate(p.TaxRate, storeRate)
	return tax.RoundCents(tax.PurchaseTotal(p.TotalPrice, p.Taxable, rate))
}

// BrandSuggestion pre-fills a new purchase for a brand.
type BrandSuggestion struct {
	Brand     *BrandDefaults `json:"brand"`
	Suggested *Suggested     `json:"suggested"`
	Recent    []PurchaseDTO  `json:"recent"`
}

type BrandDefaults struct {
	ID              uuid.UUID   `json:"id"`
	Name            string      `json:"name"`
	DefaultItemName *string     `json:"default_item_name,omitempty"`
	DefaultUnit     *string     `json:"default_unit,omitempty"`
	DefaultTagIDs   []uuid.UUID `json:"default_tag_ids"`
}

type Suggested struct {
	ItemName      string              `json:"item_name"`
	Unit          *string             `json:"unit,omitempty"`
	PricePerCount decimal.NullDecimal `json:"price_per_count"`
	PricePerUnit  decimal.NullDecimal `json:"price_per_unit"`
	Taxable       bool                `json:"taxable"`
	TagIDs        []uuid.UUID         `json:"tag_ids"`
}

// UpdateItemInput corrects a purchase recorded at a store. With Propagate the
// brand, item, unit and per-count/per-unit prices are applied to every other
// purchase at the store carrying the original brand and item name.
type UpdateItemInput struct {
	Brand         *string
	ItemName      *string
	Unit          *string
	Count         *decimal.Decimal
	PricePerCount *decimal.Decimal
	Units         *decimal.Decimal
	PricePerUnit  *decimal.Decimal
	TotalPrice    *decimal.Decimal
	Taxable       *bool
	Propagate     bool
}

type UpdateItemResult struct {
	Purchase        PurchaseDTO `json:"purchase"`
	PropagatedCount int         `json:"propagated_count"`
}

// EditPrefill carries the values an edit form starts from. PreTax is
// recovered from the paid amount on the ledger entry.
type EditPrefill struct {
	Purchase       PurchaseDTO     `json:"purchase"`
	EntryAmount    decimal.Decimal `json:"entry_amount"`
	PreTax         decimal.Decimal `json:"pre_tax"`
	TaxRatePercent decimal.Decimal `json:"tax_rate_percent"`
}
