package controllers

import (
	"net/http"

	"github.com/angelmondragon/homestead-backend/api/middleware"
	"github.com/angelmondragon/homestead-backend/api/responses"
	"github.com/angelmondragon/homestead-backend/api/validators"
	"github.com/angelmondragon/homestead-backend/internal/purchases"
	pkgerrors "github.com/angelmondragon/homestead-backend/pkg/errors"
	"github.com/angelmondragon/homestead-backend/pkg/logger"
)

const maxBrandQueryLen = 120

// PurchasesSuggestByBrand returns the brand's defaults and recent history,
// optionally narrowed to one store.
func PurchasesSuggestByBrand(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
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

		brand := validators.SanitizeString(r.URL.Query().Get("brand"), maxBrandQueryLen)
		if brand == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Field("brand", "is required"))
			return
		}
		storeID, err := validators.ParseQueryUUID(r, "store_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		suggestion, err := svc.SuggestByBrand(r.Context(), householdID, brand, storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, suggestion)
	}
}

// PurchaseEditPrefill returns a purchase with its pre-tax amount recovered
// from the ledger entry.
func PurchaseEditPrefill(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
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
		purchaseID, err := validators.ParseURLUUID(r, "purchaseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		prefill, err := svc.PreTaxForEdit(r.Context(), householdID, purchaseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, prefill)
	}
}

// PurchaseDelete removes a purchase. Its ledger entry stays.
func PurchaseDelete(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
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
		purchaseID, err := validators.ParseURLUUID(r, "purchaseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeletePurchase(r.Context(), householdID, purchaseID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": purchaseID, "deleted": true})
	}
}
