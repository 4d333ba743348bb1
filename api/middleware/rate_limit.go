package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/harborline/stockroom-backend/api/responses"
	pkgerrors "github.com/harborline/stockroom-backend/pkg/errors"
	"github.com/harborline/stockroom-backend/pkg/logger"
)

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// RateLimitPolicy defines the throttling parameters for a traffic surface.
type RateLimitPolicy struct {
	name         string
	window       time.Duration
	ipLimit      int
	accountLimit int
}

// NewRateLimitPolicy builds a policy with the supplied window and limits.
func NewRateLimitPolicy(name string, window time.Duration, ipLimit, accountLimit int) RateLimitPolicy {
	return RateLimitPolicy{
		name:         strings.ToLower(strings.TrimSpace(name)),
		window:       window,
		ipLimit:      ipLimit,
		accountLimit: accountLimit,
	}
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.accountLimit > 0)
}

func (p RateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "writes"
	}
	return p.name
}

func (p RateLimitPolicy) ipKey(ip string) string {
	if ip == "" {
		return ""
	}
	return fmt.Sprintf("rl:ip:%s:%s", p.normalizedName(), ip)
}

func (p RateLimitPolicy) accountKey(accountID string) string {
	if accountID == "" {
		return ""
	}
	return fmt.Sprintf("rl:account:%s:%s", p.normalizedName(), accountID)
}

// RateLimit enforces per-IP and per-account counters on mutating endpoints.
// The per-account counter reads the retail account seeded by Auth, so this
// middleware must run after it.
func RateLimit(policy RateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ip := clientIP(r)
			if policy.ipLimit > 0 {
				if key := policy.ipKey(ip); key != "" {
					if allowed, count, err := allow(ctx, store, key, policy.window, int64(policy.ipLimit)); err != nil {
						responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
						return
					} else if !allowed {
						respondRateLimited(ctx, logg, w, policy, "ip", ip, "", count, policy.ipLimit)
						return
					}
				}
			}

			if policy.accountLimit > 0 {
				if key := policy.accountKey(AccountIDFromContext(ctx)); key != "" {
					if allowed, count, err := allow(ctx, store, key, policy.window, int64(policy.accountLimit)); err != nil {
						responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
						return
					} else if !allowed {
						respondRateLimited(ctx, logg, w, policy, "account", "", AccountIDFromContext(ctx), count, policy.accountLimit)
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func allow(ctx context.Context, store rateLimiterStore, key string, window time.Duration, limit int64) (bool, int64, error) {
	count, err := store.IncrWithTTL(ctx, key, window)
	if err != nil {
		return false, 0, err
	}
	return count <= limit, count, nil
}

func respondRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy RateLimitPolicy, scope, ip, accountID string, count int64, limit int) {
	if logg != nil {
		fields := map[string]any{
			"scope":          scope,
			"policy":         policy.normalizedName(),
			"attempts":       count,
			"limit":          limit,
			"window_seconds": int(policy.window.Seconds()),
		}
		if ip != "" {
			fields["ip"] = ip
		}
		if accountID != "" {
			fields["account_id"] = accountID
		}
		logCtx := logg.WithFields(ctx, fields)
		logg.Warn(logCtx, "rate_limit.blocked")
	}
	err := pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded")
	responses.WriteError(ctx, nil, w, err)
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
