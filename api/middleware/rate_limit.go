package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/homestead-backend/api/responses"
	pkgerrors "github.com/angelmondragon/homestead-backend/pkg/errors"
	"github.com/angelmondragon/homestead-backend/pkg/logger"
)

type windowCounter interface {
	WindowAllow(ctx context.Context, bucket, subject string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimitPolicy caps requests per household over a fixed window.
type RateLimitPolicy struct {
	bucket string
	window time.Duration
	limit  int
}

func NewRateLimitPolicy(bucket string, window time.Duration, limit int) RateLimitPolicy {
	bucket = strings.ToLower(strings.TrimSpace(bucket))
	if bucket == "" {
		bucket = "default"
	}
	return RateLimitPolicy{bucket: bucket, window: window, limit: limit}
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && p.limit > 0
}

// HouseholdRateLimit throttles receipt scanning per household. Requests
// without a household pass through; Auth rejects them first. Blocked
// requests get 429 with Retry-After set to the window length.
func HouseholdRateLimit(policy RateLimitPolicy, counter windowCounter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || counter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			householdID := HouseholdIDFromContext(ctx)
			if householdID == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, count, err := counter.WindowAllow(ctx, policy.bucket, householdID, int64(policy.limit), policy.window)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"bucket":   policy.bucket,
						"attempts": count,
						"limit":    policy.limit,
					}), "rate_limit.blocked")
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(policy.window.Seconds())))
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many receipt scans; try again later").
					WithDetails(map[string]any{"limit": policy.limit, "window_seconds": int(policy.window.Seconds())}))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
