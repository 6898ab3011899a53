package middleware

import (
	"net/http"

	"github.com/angelmondragon/homestead-backend/api/responses"
	pkgerrors "github.com/angelmondragon/homestead-backend/pkg/errors"
	"github.com/angelmondragon/homestead-backend/pkg/logger"
)

// HouseholdContext rejects requests that reached it without a household scope.
func HouseholdContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := HouseholdFromContext(r.Context()); !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "household context missing"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
