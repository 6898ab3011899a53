package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/homestead-backend/api/middleware"
	"github.com/angelmondragon/homestead-backend/api/responses"
	"github.com/angelmondragon/homestead-backend/api/validators"
	"github.com/angelmondragon/homestead-backend/internal/entities"
	"github.com/angelmondragon/homestead-backend/internal/purchases"
	pkgerrors "github.com/angelmondragon/homestead-backend/pkg/errors"
	"github.com/angelmondragon/homestead-backend/pkg/logger"
)

// storeUpdateRequest contains the payload for updating store fields. The tax
// rate is a percent (8.25 means 8.25%).
type storeUpdateRequest struct {
	Name           *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Address        *string          `json:"address,omitempty"`
	City           *string          `json:"city,omitempty"`
	State          *string          `json:"state,omitempty"`
	PostalCode     *string          `json:"postal_code,omitempty"`
	Phone          *string          `json:"phone,omitempty"`
	StoreCode      *string          `json:"store_code,omitempty"`
	TaxRatePercent *decimal.Decimal `json:"tax_rate_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
}

func (r storeUpdateRequest) toInput() entities.UpdateStoreInput {
	return entities.UpdateStoreInput{
		Name:           r.Name,
		Address:        r.Address,
		City:           r.City,
		State:          r.State,
		PostalCode:     r.PostalCode,
		Phone:          r.Phone,
		StoreCode:      r.StoreCode,
		TaxRatePercent: r.TaxRatePercent,
	}
}

// StoreUpdate adjusts a household store.
func StoreUpdate(resolver entities.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resolver == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}
		householdID, ok := middleware.HouseholdFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "household context missing"))
			return
		}
		storeID, err := validators.ParseURLUUID(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload storeUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := resolver.UpdateStore(r.Context(), householdID, storeID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entities.FromStoreModel(store))
	}
}

type inventoryUpdateRequest struct {
	Brand         *string          `json:"brand,omitempty"`
	ItemName      *string          `json:"item_name,omitempty" validate:"omitempty,min=1"`
	Unit          *string          `json:"unit,omitempty"`
	Count         *decimal.Decimal `json:"count,omitempty" validate:"omitempty,gte=0"`
	PricePerCount *decimal.Decimal `json:"price_per_count,omitempty" validate:"omitempty,gte=0"`
	Units         *decimal.Decimal `json:"units,omitempty" validate:"omitempty,gte=0"`
	PricePerUnit  *decimal.Decimal `json:"price_per_unit,omitempty" validate:"omitempty,gte=0"`
	TotalPrice    *decimal.Decimal `json:"total_price,omitempty" validate:"omitempty,gte=0"`
	Taxable       *bool            `json:"taxable,omitempty"`
	Propagate     bool             `json:"propagate"`
}

func (r inventoryUpdateRequest) toInput() purchases.UpdateItemInput {
	return purchases.UpdateItemInput{
		Brand:         r.Brand,
		ItemName:      r.ItemName,
		Unit:          r.Unit,
		Count:         r.Count,
		PricePerCount: r.PricePerCount,
		Units:         r.Units,
		PricePerUnit:  r.PricePerUnit,
		TotalPrice:    r.TotalPrice,
		Taxable:       r.Taxable,
		Propagate:     r.Propagate,
	}
}

// StoreInventoryUpdate corrects a purchase recorded at the store, optionally
// applying the correction to matching purchases there.
func StoreInventoryUpdate(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase service unavailable"))
			return
		}
		householdID, ok := middleware.HouseholdFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "household context missing"))
			return
		}
		storeID, err := validators.ParseURLUUID(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.ParseURLUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload inventoryUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.UpdateStoreItem(r.Context(), householdID, storeID, itemID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
