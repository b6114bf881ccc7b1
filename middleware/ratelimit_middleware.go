package middleware

import (
	"errors"
	"net/http"

	"github.com/vetnova/clinic-platform/models"
	"github.com/vetnova/clinic-platform/services"
	"github.com/vetnova/clinic-platform/services/audit"
	"github.com/vetnova/clinic-platform/services/ratelimit"
	"github.com/vetnova/clinic-platform/utils"
	"go.uber.org/zap"
)

// RateLimitMiddleware classifies each request path into a limiter bucket and
// applies the sliding-window check before authentication runs. Identity
// resolution is independent of auth: an unauthenticated request is keyed by
// trusted IP or fingerprint.
type RateLimitMiddleware struct {
	limiter  *ratelimit.Service
	resolver *IdentityResolver
	audit    *audit.Service
	logger   *zap.Logger
}

// NewRateLimitMiddleware creates a new RateLimitMiddleware
func NewRateLimitMiddleware(
	limiter *ratelimit.Service,
	resolver *IdentityResolver,
	auditService *audit.Service,
	logger *zap.Logger,
) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter:  limiter,
		resolver: resolver,
		audit:    auditService,
		logger:   logger,
	}
}

// Limit is the rate limiting middleware
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No counter store configured: deliberate operational fail-open.
		// Authentication downstream is unaffected.
		if !m.limiter.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		identity := m.resolver.Resolve(r, "")
		bucket := m.limiter.LimiterFor(r.URL.Path)

		result, err := m.limiter.Check(ctx, bucket, identity.Key())
		if result != nil {
			for k, v := range result.Headers() {
				w.Header().Set(k, v)
			}
		}

		if err != nil {
			var domainErr *services.DomainError
			if errors.As(err, &domainErr) && domainErr.Type == services.ErrorTypeRateLimit {
				info := audit.ExtractRequestInfo(r, nil, nil)
				m.audit.LogSecurityEvent(info, models.EventRateLimitExceeded, false, map[string]interface{}{
					"bucket":     bucket.Name,
					"identifier": identity.Key(),
				})
				_ = utils.WriteTooManyRequests(w, "Rate limit exceeded", map[string]interface{}{
					"bucket": bucket.Name,
				})
				return
			}

			// A failing store is an outage, not a license to fail open per
			// request; surface it.
			m.logger.Error("rate limit check failed",
				zap.String("bucket", bucket.Name),
				zap.Error(err))
			_ = utils.WriteInternalServerError(w, "Rate limit check unavailable")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClientID(ctx, identity)))
	})
}
