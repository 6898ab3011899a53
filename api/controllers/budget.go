package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/homestead-backend/api/middleware"
	"github.com/angelmondragon/homestead-backend/api/responses"
	"github.com/angelmondragon/homestead-backend/api/validators"
	"github.com/angelmondragon/homestead-backend/internal/budget"
	pkgerrors "github.com/angelmondragon/homestead-backend/pkg/errors"
	"github.com/angelmondragon/homestead-backend/pkg/logger"
)

// BudgetEntries lists the household ledger with shopping stops rolled up.
func BudgetEntries(svc budget.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "budget service unavailable"))
			return
		}
		householdID, ok := middleware.HouseholdFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "household context missing"))
			return
		}

		q := r.URL.Query()
		filters, err := budget.ParseFilters(q.Get("start_date"), q.Get("end_date"), q.Get("type"), q["tag_ids"])
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.ListLedger(r.Context(), householdID, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

// BudgetSummary reports one month of income, expense and savings. Year and
// month default to the current UTC month.
func BudgetSummary(svc budget.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "budget service unavailable"))
			return
		}
		householdID, ok := middleware.HouseholdFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "household context missing"))
			return
		}

		now := time.Now().UTC()
		year, err := validators.ParseQueryInt(r, "year", now.Year(), 1900, 9999)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		month, err := validators.ParseQueryInt(r, "month", int(now.Month()), 1, 12)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.MonthlySummary(r.Context(), householdID, year, month)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
