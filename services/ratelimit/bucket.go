package ratelimit

import (
	"fmt"
	"strings"
	"time"

	"github.com/vetnova/clinic-platform/config"
)

// Bucket identifies one limiter bucket with its window and threshold
type Bucket struct {
	Name   string
	Prefix string
	Limit  config.BucketLimit
}

// Result represents the outcome of a rate limit check.
// Remaining is monotonically non-increasing within a window; Reset is an
// absolute instant, never a duration.
type Result struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// Headers renders the standard rate limit response headers. The reset value is
// a whole-second unix timestamp, rounded up so clients never retry early.
func (r *Result) Headers() map[string]string {
	resetMs := r.Reset.UnixMilli()
	resetSec := resetMs / 1000
	if resetMs%1000 != 0 {
		resetSec++
	}
	return map[string]string{
		"X-RateLimit-Limit":     fmt.Sprintf("%d", r.Limit),
		"X-RateLimit-Remaining": fmt.Sprintf("%d", r.Remaining),
		"X-RateLimit-Reset":     fmt.Sprintf("%d", resetSec),
	}
}

// sensitiveKeywords marks PII/financial endpoints regardless of path prefix
var sensitiveKeywords = []string{
	"stripe",
	"payment",
	"medical",
	"customer",
	"pet",
	"subscription",
	"onboarding",
}

// LimiterFor classifies a request path into a limiter bucket. First match wins:
// auth > admin > webhook > public > sensitive keyword > api. Matching is a
// substring check anywhere in the normalized path (query stripped, trailing
// slash ignored, case-insensitive).
func (s *Service) LimiterFor(path string) Bucket {
	p := normalizePath(path)

	switch {
	case strings.Contains(p, "/auth/"):
		return Bucket{Name: "auth", Prefix: "rl:auth", Limit: s.buckets.Auth}
	case strings.Contains(p, "/admin/"):
		return Bucket{Name: "admin", Prefix: "rl:admin", Limit: s.buckets.Admin}
	case strings.Contains(p, "/webhooks/"):
		return Bucket{Name: "webhook", Prefix: "rl:webhook", Limit: s.buckets.Webhook}
	case strings.Contains(p, "/public/"):
		return Bucket{Name: "public", Prefix: "rl:public", Limit: s.buckets.Public}
	case containsSensitiveKeyword(p):
		return Bucket{Name: "sensitive", Prefix: "rl:sensitive", Limit: s.buckets.Sensitive}
	default:
		return Bucket{Name: "api", Prefix: "rl:api", Limit: s.buckets.API}
	}
}

// normalizePath strips the query string and guarantees a trailing slash so
// "/api/admin" and "/api/admin/" classify identically.
func normalizePath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	path = strings.ToLower(strings.TrimRight(path, "/"))
	return path + "/"
}

func containsSensitiveKeyword(path string) bool {
	for _, kw := range sensitiveKeywords {
		if strings.Contains(path, kw) {
			return true
		}
	}
	return false
}
