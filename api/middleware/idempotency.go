package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/inventory-backend/api/responses"
	pkgerrors "github.com/angelmondragon/inventory-backend/pkg/errors"
	"github.com/angelmondragon/inventory-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/inventory-backend/pkg/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"

	defaultIdempotencyTTL  = 24 * time.Hour
	criticalIdempotencyTTL = 7 * 24 * time.Hour
	// pendingIdempotencyTTL bounds how long a crashed request keeps its key
	// reserved.
	pendingIdempotencyTTL = 2 * time.Minute
)

// idempotencyRule marks a route as replay-safe. When required is false the
// Idempotency-Key header is optional and requests without it run normally.
type idempotencyRule struct {
	method   string
	match    func(pattern string) bool
	ttl      time.Duration
	required bool
}

var idempotencyRules = []idempotencyRule{
	{method: http.MethodPost, match: matchExact("/api/v1/items"), ttl: defaultIdempotencyTTL},
	{method: http.MethodPost, match: matchExact("/api/v1/alerts/generate"), ttl: defaultIdempotencyTTL},
	{method: http.MethodPost, match: matchPrefix("/api/v1/admin/"), ttl: defaultIdempotencyTTL},
	// A stock movement must never apply twice.
	{method: http.MethodPost, match: matchStockRoute, ttl: criticalIdempotencyTTL, required: true},
	{method: http.MethodPost, match: matchPrefix("/api/v1/stock-update/"), ttl: criticalIdempotencyTTL},
}

// idempotencyRecord is what the store holds under a key: a reservation while
// the first request runs, then the response it produced.
type idempotencyRecord struct {
	RequestHash string `json:"request_hash"`
	Pending     bool   `json:"pending,omitempty"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Idempotency replays the stored response for a repeated Idempotency-Key on
// the routes listed in idempotencyRules. A key is scoped to the caller, method
// and path. Server errors are not stored so the client can retry them.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rule, ok := routeRule(r.Method, routePattern(r))
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if clientKey == "" {
				if rule.required {
					responses.WriteError(ctx, logg, w, pkgerrors.Validation("Idempotency-Key header required",
						map[string]string{idempotencyHeader: "is required"}))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			guard := idempotencyGuard{
				store:       store,
				logg:        logg,
				key:         store.IdempotencyKey(requestScope(r), clientKey),
				requestHash: hashBody(body),
			}
			if err := guard.reserve(ctx, w); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if guard.replayed {
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)
			guard.finish(ctx, capture, rule.ttl)
		})
	}
}

type idempotencyGuard struct {
	store       pkgredis.IdempotencyStore
	logg        *logger.Logger
	key         string
	requestHash string
	replayed    bool
}

// reserve claims the key, or answers from an earlier response when the key
// has one. A nil error with replayed unset means the handler should run.
func (g *idempotencyGuard) reserve(ctx context.Context, w http.ResponseWriter) error {
	pending, _ := json.Marshal(idempotencyRecord{RequestHash: g.requestHash, Pending: true})
	reserved, err := g.store.SetNX(ctx, g.key, string(pending), pendingIdempotencyTTL)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key")
	}
	if reserved {
		return nil
	}

	stored, err := g.store.Get(ctx, g.key)
	if errors.Is(err, redis.Nil) {
		// The previous holder expired between the two calls.
		return pkgerrors.New(pkgerrors.CodeIdempotency, "request with this idempotency key is in progress")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency key")
	}
	var record idempotencyRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record")
	}
	switch {
	case record.RequestHash != g.requestHash:
		return pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body")
	case record.Pending:
		return pkgerrors.New(pkgerrors.CodeIdempotency, "request with this idempotency key is in progress")
	}

	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.Header().Set(replayedHeader, "true")
	w.WriteHeader(record.Status)
	_, _ = w.Write(record.Body)
	g.replayed = true
	return nil
}

// finish replaces the reservation with the captured response, or frees the
// key after a server error.
func (g *idempotencyGuard) finish(ctx context.Context, capture *responseCapture, ttl time.Duration) {
	status := capture.statusCode()
	if status >= http.StatusInternalServerError {
		if err := g.store.Del(ctx, g.key); err != nil && g.logg != nil {
			g.logg.Error(ctx, "release idempotency key", err)
		}
		return
	}
	payload, err := json.Marshal(idempotencyRecord{
		RequestHash: g.requestHash,
		Status:      status,
		ContentType: capture.Header().Get("Content-Type"),
		Body:        capture.body.Bytes(),
	})
	if err == nil {
		err = g.store.Set(ctx, g.key, string(payload), ttl)
	}
	if err != nil && g.logg != nil {
		g.logg.Error(ctx, "persist idempotency record", err)
	}
}

func requestScope(r *http.Request) string {
	return strings.Join([]string{UserIDFromContext(r.Context()), r.Method, r.URL.Path}, "|")
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func routeRule(method, pattern string) (idempotencyRule, bool) {
	for _, rule := range idempotencyRules {
		if rule.method == method && pattern != "" && rule.match(pattern) {
			return rule, true
		}
	}
	return idempotencyRule{}, false
}

// matchExact ignores a trailing slash so "/items" and a subrouter's "/items/"
// select the same rule.
func matchExact(path string) func(string) bool {
	return func(pattern string) bool {
		return strings.TrimSuffix(pattern, "/") == path
	}
}

func matchPrefix(prefix string) func(string) bool {
	return func(pattern string) bool {
		return strings.HasPrefix(pattern, prefix)
	}
}

func matchStockRoute(pattern string) bool {
	return strings.HasPrefix(pattern, "/api/v1/items/") && strings.HasSuffix(pattern, "/stock")
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

func (c *responseCapture) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}
