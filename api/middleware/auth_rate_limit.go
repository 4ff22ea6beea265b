package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/inventory-backend/api/responses"
	pkgerrors "github.com/angelmondragon/inventory-backend/pkg/errors"
	"github.com/angelmondragon/inventory-backend/pkg/logger"
)

// RateLimiterStore counts hits in a fixed window.
type RateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// AuthRateLimitPolicy throttles one auth route. A zero limit disables that
// counter; a zero window disables the policy.
type AuthRateLimitPolicy struct {
	Name       string
	Window     time.Duration
	PerIP      int
	PerAccount int
}

type authCounter struct {
	scope string
	key   string
	limit int
	// subject is logged in place of the key: the ip, or the account hash.
	subject string
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.Window > 0 && (p.PerIP > 0 || p.PerAccount > 0)
}

func (p AuthRateLimitPolicy) name() string {
	if name := strings.ToLower(strings.TrimSpace(p.Name)); name != "" {
		return name
	}
	return "auth"
}

// counters lists the windows a request counts against. The body is buffered
// and restored when the account counter needs it.
func (p AuthRateLimitPolicy) counters(r *http.Request) ([]authCounter, error) {
	var out []authCounter
	if ip := clientIP(r); p.PerIP > 0 && ip != "" {
		out = append(out, authCounter{scope: "ip", key: "rl:ip:" + p.name() + ":" + ip, limit: p.PerIP, subject: ip})
	}
	if p.PerAccount <= 0 {
		return out, nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	if account := accountIdentity(body); account != "" {
		hash := hashValue(account)
		out = append(out, authCounter{scope: "account", key: "rl:account:" + p.name() + ":" + hash, limit: p.PerAccount, subject: hash})
	}
	return out, nil
}

// AuthRateLimit counts login and registration attempts per client IP and per
// account. Account identifiers are hashed before they become redis keys.
func AuthRateLimit(policy AuthRateLimitPolicy, store RateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			counters, err := policy.counters(r)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			for _, c := range counters {
				count, err := store.IncrWithTTL(ctx, c.key, policy.Window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if count > int64(c.limit) {
					rejectAuthAttempt(ctx, logg, w, policy, c, count)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rejectAuthAttempt(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy AuthRateLimitPolicy, c authCounter, count int64) {
	if logg != nil {
		logCtx := logg.WithFields(ctx, map[string]any{
			"policy":   policy.name(),
			"scope":    c.scope,
			"subject":  c.subject,
			"attempts": count,
			"limit":    c.limit,
		})
		logg.Warn(logCtx, "auth.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(policy.Window.Seconds())))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// accountIdentity returns the normalized account a request targets: the login
// field for sign-in, otherwise the email of a registration.
func accountIdentity(payload []byte) string {
	var body struct {
		Login string `json:"login"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	identity := body.Login
	if identity == "" {
		identity = body.Email
	}
	return strings.ToLower(strings.TrimSpace(identity))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
