// Package receipts turns receipt images into reviewable line items.
package receipts

import (
	"context"

	"github.com/shopspring/decimal"
)

// Parser extracts a structured receipt from an image.
type Parser interface {
	Parse(ctx context.Context, image []byte, mimeType string) (*ParsedReceipt, error)
}

// ParsedReceipt is the scan result shown to the user before confirmation.
type ParsedReceipt struct {
	Store       ParsedStore         `json:"store"`
	Transaction ParsedTransaction   `json:"transaction"`
	Items       []ParsedItem        `json:"items"`
	Subtotal    decimal.NullDecimal `json:"subtotal"`
	Tax         decimal.NullDecimal `json:"tax"`
	Total       decimal.NullDecimal `json:"total"`
}

type ParsedStore struct {
	Name       string              `json:"name"`
	Address    *string             `json:"address,omitempty"`
	City       *string             `json:"city,omitempty"`
	State      *string             `json:"state,omitempty"`
	PostalCode *string             `json:"postal_code,omitempty"`
	Phone      *string             `json:"phone,omitempty"`
	StoreCode  *string             `json:"store_code,omitempty"`
	TaxRate    decimal.NullDecimal `json:"tax_rate"`
}

// ParsedTransaction holds the date and time as printed, normalized later on
// confirmation.
type ParsedTransaction struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// ParsedItem is one receipt line. Corrected is set when learned corrections
// rewrote any of its fields.
type ParsedItem struct {
	RawText          string              `json:"raw_text"`
	Brand            string              `json:"brand"`
	ItemName         string              `json:"item_name"`
	Unit             *string             `json:"unit,omitempty"`
	Count            decimal.NullDecimal `json:"count"`
	PricePerCount    decimal.NullDecimal `json:"price_per_count"`
	Units            decimal.NullDecimal `json:"units"`
	PricePerUnit     decimal.NullDecimal `json:"price_per_unit"`
	TotalPrice       decimal.NullDecimal `json:"total_price"`
	Taxable          bool                `json:"taxable"`
	ReceiptStoreCode *string             `json:"receipt_store_code,omitempty"`
	Corrected        bool                `json:"corrected"`
}
