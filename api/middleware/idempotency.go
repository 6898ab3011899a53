package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/homestead-backend/api/responses"
	pkgerrors "github.com/angelmondragon/homestead-backend/pkg/errors"
	"github.com/angelmondragon/homestead-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/homestead-backend/pkg/redis"
)

const (
	idempotencyHeader      = "Idempotency-Key"
	replayedHeader         = "Idempotent-Replayed"
	defaultIdempotencyTTL  = 24 * time.Hour
	inFlightClaimTTL       = 2 * time.Minute
	maxIdempotencyKeyBytes = 255
)

// guardedRoutes lists the method+path pairs whose side effects must run once
// per Idempotency-Key.
var guardedRoutes = map[string]bool{
	http.MethodPost + " /api/v1/receipts/confirm": true,
}

// ConfirmationStore persists claims and recorded responses.
type ConfirmationStore interface {
	ClaimConfirmation(ctx context.Context, key, placeholder string, ttl time.Duration) (bool, string, error)
	SaveConfirmation(ctx context.Context, key, record string, ttl time.Duration) error
	ReleaseConfirmation(ctx context.Context, key string) error
}

type confirmationRecord struct {
	Pending     bool   `json:"pending,omitempty"`
	RequestHash string `json:"request_hash"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Idempotency guards the routes in guardedRoutes. The first request for a key
// claims it, runs, and records its response; later requests with the same
// body replay that response. A concurrent duplicate gets 409 while the first
// is still running, and a 5xx releases the claim so the client may retry.
// Requests without the header run unguarded.
// ttl <= 0 uses defaultIdempotencyTTL. A nil store disables the guard.
func Idempotency(store ConfirmationStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !guardedRoutes[r.Method+" "+requestPath(r)] {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if clientKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(clientKey) > maxIdempotencyKeyBytes {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeBadRequest, "Idempotency-Key header too long"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeBadRequest, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			hash := hashBody(body)
			key := pkgredis.ConfirmationKey(HouseholdIDFromContext(ctx), UserIDFromContext(ctx), clientKey)
			placeholder, _ := json.Marshal(confirmationRecord{Pending: true, RequestHash: hash})

			claimed, existing, err := store.ClaimConfirmation(ctx, key, string(placeholder), inFlightClaimTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			}
			if !claimed {
				replayConfirmation(ctx, logg, w, existing, hash)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			// Detached so a client hang-up does not leave the claim dangling.
			bg := context.WithoutCancel(ctx)
			if capture.status >= http.StatusInternalServerError {
				if err := store.ReleaseConfirmation(bg, key); err != nil && logg != nil {
					logg.Error(ctx, "idempotency.release_failed", err)
				}
				return
			}

			record, _ := json.Marshal(confirmationRecord{
				RequestHash: hash,
				Status:      capture.statusOrOK(),
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
			})
			if err := store.SaveConfirmation(bg, key, string(record), ttl); err != nil && logg != nil {
				logg.Error(ctx, "idempotency.save_failed", err)
			}
		})
	}
}

func replayConfirmation(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, raw, hash string) {
	if raw == "" {
		// The claim expired between our attempt and the lookup.
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "confirmation state changed; retry the request"))
		return
	}
	var record confirmationRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	switch {
	case record.RequestHash != hash:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
	case record.Pending:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "a confirmation with this key is still in progress"))
	default:
		if record.ContentType != "" {
			w.Header().Set("Content-Type", record.ContentType)
		}
		w.Header().Set(replayedHeader, "true")
		w.WriteHeader(record.Status)
		_, _ = w.Write(record.Body)
	}
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// requestPath prefers the matched chi pattern. Mounted routers report
// "/prefix/*" until routing completes, so that falls back to the raw path.
func requestPath(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" && !strings.HasSuffix(pattern, "*") {
			return pattern
		}
	}
	return r.URL.Path
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusOrOK() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}
