package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/homestead-backend/internal/tax"
	"github.com/angelmondragon/homestead-backend/pkg/db/models"
)

// StoreParams identifies a store on a receipt. TaxRate is a fraction.
type StoreParams struct {
	Name       string
	StoreCode  *string
	Address    *string
	City       *string
	State      *string
	PostalCode *string
	Phone      *string
	TaxRate    decimal.NullDecimal
}

// Empty reports whether the receipt carried no store data at all.
func (p StoreParams) Empty() bool {
	return strings.TrimSpace(p.Name) == "" && blank(p.StoreCode) && blank(p.Address) && blank(p.Phone)
}

// UpdateStoreInput is an explicit store edit. TaxRatePercent is user-typed (8.25).
type UpdateStoreInput struct {
	Name           *string
	Address        *string
	City           *string
	State          *string
	PostalCode     *string
	Phone          *string
	StoreCode      *string
	TaxRatePercent *decimal.Decimal
}

// StoreDTO is the API projection of a store; the rate is shown as a percent.
type StoreDTO struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Address        *string         `json:"address,omitempty"`
	City           *string         `json:"city,omitempty"`
	State          *string         `json:"state,omitempty"`
	PostalCode     *string         `json:"postal_code,omitempty"`
	Phone          *string         `json:"phone,omitempty"`
	StoreCode      *string         `json:"store_code,omitempty"`
	TaxRatePercent decimal.Decimal `json:"tax_rate_percent"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func FromStoreModel(m *models.Store) *StoreDTO {
	if m == nil {
		return nil
	}
	return &StoreDTO{
		ID:             m.ID,
		Name:           m.Name,
		Address:        m.Address,
		City:           m.City,
		State:          m.State,
		PostalCode:     m.PostalCode,
		Phone:          m.Phone,
		StoreCode:      m.StoreCode,
		TaxRatePercent: tax.DisplayPercent(m.TaxRate),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// trimmed returns nil for blank strings.
func trimmed(s *string) *string {
	if blank(s) {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
