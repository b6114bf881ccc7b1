package audit

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// unknownValue is recorded whenever a request header is absent, so downstream
// consumers never have to branch on missing-vs-present.
const unknownValue = "unknown"

// RequestInfo carries the request metadata attached to every audit event
type RequestInfo struct {
	UserID    *uuid.UUID
	TenantID  *uuid.UUID
	IPAddress string
	UserAgent string
	Endpoint  string
	Method    string
}

// ExtractRequestInfo derives audit metadata from an inbound request.
//
// The IP recorded here is the client-claimed origin: x-real-ip, then
// cf-connecting-ip, then the FIRST entry of the x-forwarded-for chain. That
// value is spoofable, and that is acceptable: audit trails want the claimed
// origin for abuse investigation. Rate limiting deliberately uses the opposite
// policy, the last trusted hop; see middleware.IdentityResolver. Do not unify
// the two.
func ExtractRequestInfo(r *http.Request, userID, tenantID *uuid.UUID) RequestInfo {
	return RequestInfo{
		UserID:    userID,
		TenantID:  tenantID,
		IPAddress: claimedClientIP(r),
		UserAgent: headerOrUnknown(r, "User-Agent"),
		Endpoint:  r.URL.Path,
		Method:    r.Method,
	}
}

func claimedClientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("x-real-ip")); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(r.Header.Get("cf-connecting-ip")); ip != "" {
		return ip
	}
	if chain := r.Header.Get("x-forwarded-for"); chain != "" {
		first := strings.Split(chain, ",")[0]
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return unknownValue
}

func headerOrUnknown(r *http.Request, name string) string {
	if v := r.Header.Get(name); v != "" {
		return v
	}
	return unknownValue
}
