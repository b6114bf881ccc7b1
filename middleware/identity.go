package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/spaolacci/murmur3"
	"github.com/vetnova/clinic-platform/config"
)

// IdentityKind tags a resolved client identifier
type IdentityKind string

const (
	IdentityUser        IdentityKind = "user"
	IdentityIP          IdentityKind = "ip"
	IdentityFingerprint IdentityKind = "fp"
)

// ClientIdentifier is the stable rate-limit key for a request. Exactly one
// kind is active; an IP and a fingerprint are never mixed for the same
// resolution.
type ClientIdentifier struct {
	Kind  IdentityKind
	Value string
}

// Key renders the identifier in its tagged wire form, e.g. "user:<id>",
// "ip:<address>" or "fp:<hash>".
func (c ClientIdentifier) Key() string {
	return fmt.Sprintf("%s:%s", c.Kind, c.Value)
}

// IdentityResolver turns a raw request into a stable rate-limit key.
//
// Proxy-supplied address headers are trusted only when the deployment's
// trusted-proxy marker header is present: without it an attacker can forge
// x-forwarded-for and friends, turning the rate limiter into a bypass vector.
// When the marker is present we take the LAST hop of the forwarded chain (the
// entry appended by our own proxy, which the client cannot control). This is
// the opposite of what the audit trail records (see audit.ExtractRequestInfo).
type IdentityResolver struct {
	trustedProxyHeader string
}

// NewIdentityResolver creates a new IdentityResolver
func NewIdentityResolver(cfg config.SecurityConfig) *IdentityResolver {
	return &IdentityResolver{
		trustedProxyHeader: cfg.TrustedProxyHeader,
	}
}

// Resolve returns the rate-limit identity for a request. A known user ID
// always wins over any network-layer signal: it is the strongest and most
// stable key.
func (res *IdentityResolver) Resolve(r *http.Request, userID string) ClientIdentifier {
	if userID != "" {
		return ClientIdentifier{Kind: IdentityUser, Value: userID}
	}

	if res.trustedProxyHeader != "" && r.Header.Get(res.trustedProxyHeader) != "" {
		if ip := trustedClientIP(r); ip != "" {
			return ClientIdentifier{Kind: IdentityIP, Value: ip}
		}
	}

	return ClientIdentifier{Kind: IdentityFingerprint, Value: fingerprint(r)}
}

// trustedClientIP checks address headers in priority order and returns the
// first syntactically valid IP literal. Malformed values fall through.
func trustedClientIP(r *http.Request) string {
	if ip := validIP(r.Header.Get("x-real-ip")); ip != "" {
		return ip
	}
	if ip := validIP(r.Header.Get("cf-connecting-ip")); ip != "" {
		return ip
	}
	if chain := r.Header.Get("x-forwarded-for"); chain != "" {
		// Last entry is the hop nearest the trusted proxy, appended by the
		// proxy itself and therefore not client-controlled.
		parts := strings.Split(chain, ",")
		if ip := validIP(parts[len(parts)-1]); ip != "" {
			return ip
		}
	}
	return ""
}

func validIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if net.ParseIP(s) == nil {
		return ""
	}
	return s
}

// fingerprint derives a one-way hash from low-entropy but hard-to-spoof-in-bulk
// request signals. Not a strong identity, but good enough to bound abuse when
// no trustworthy network identity exists.
func fingerprint(r *http.Request) string {
	signals := strings.Join([]string{
		r.Header.Get("User-Agent"),
		r.Header.Get("Accept-Language"),
	}, "|")
	h1, h2 := murmur3.Sum128([]byte(signals))
	return fmt.Sprintf("%016x%016x", h1, h2)
}
