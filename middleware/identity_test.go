package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vetnova/clinic-platform/config"
)

func testResolver() *IdentityResolver {
	return NewIdentityResolver(config.SecurityConfig{TrustedProxyHeader: "x-edge-verified"})
}

func TestIdentityResolver_UserWins(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("x-edge-verified", "1")
	r.Header.Set("x-real-ip", "203.0.113.7")

	id := testResolver().Resolve(r, "3b8f0d2e-1111-2222-3333-444455556666")

	assert.Equal(t, IdentityUser, id.Kind)
	assert.Equal(t, "user:3b8f0d2e-1111-2222-3333-444455556666", id.Key())
}

func TestIdentityResolver_TrustedProxyIP(t *testing.T) {
	t.Run("x-real-ip preferred", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("x-edge-verified", "1")
		r.Header.Set("x-real-ip", "203.0.113.7")
		r.Header.Set("x-forwarded-for", "192.168.1.100, 10.0.0.1")

		id := testResolver().Resolve(r, "")
		assert.Equal(t, "ip:203.0.113.7", id.Key())
	})

	t.Run("last forwarded hop, not the first", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("x-edge-verified", "1")
		r.Header.Set("x-forwarded-for", "192.168.1.100, 10.0.0.1")

		id := testResolver().Resolve(r, "")
		assert.Equal(t, IdentityIP, id.Kind)
		assert.Equal(t, "10.0.0.1", id.Value)
	})

	t.Run("malformed header falls through to next", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("x-edge-verified", "1")
		r.Header.Set("x-real-ip", "not-an-ip")
		r.Header.Set("cf-connecting-ip", "198.51.100.2")

		id := testResolver().Resolve(r, "")
		assert.Equal(t, "ip:198.51.100.2", id.Key())
	})

	t.Run("no valid IP degrades to fingerprint", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("x-edge-verified", "1")
		r.Header.Set("x-forwarded-for", "garbage, also-garbage")

		id := testResolver().Resolve(r, "")
		assert.Equal(t, IdentityFingerprint, id.Kind)
	})
}

func TestIdentityResolver_UntrustedHeadersIgnored(t *testing.T) {
	// Without the edge marker, forwarded headers are attacker-controlled and
	// must not become the rate-limit key.
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("x-real-ip", "203.0.113.7")
	r.Header.Set("x-forwarded-for", "192.168.1.100, 10.0.0.1")
	r.Header.Set("User-Agent", "clinic-app/2.1")
	r.Header.Set("Accept-Language", "en-US")

	id := testResolver().Resolve(r, "")

	assert.Equal(t, IdentityFingerprint, id.Kind)
	assert.Len(t, id.Value, 32, "fingerprint renders as a 128-bit hex hash")
}

func TestIdentityResolver_FingerprintStability(t *testing.T) {
	makeRequest := func(ua, lang string) ClientIdentifier {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("User-Agent", ua)
		r.Header.Set("Accept-Language", lang)
		return testResolver().Resolve(r, "")
	}

	a := makeRequest("clinic-app/2.1", "en-US")
	b := makeRequest("clinic-app/2.1", "en-US")
	c := makeRequest("clinic-app/2.2", "en-US")

	assert.Equal(t, a.Value, b.Value, "same signals, same fingerprint")
	assert.NotEqual(t, a.Value, c.Value, "different signals, different fingerprint")
}

func TestIdentityResolver_DisabledMarkerNeverTrusts(t *testing.T) {
	resolver := NewIdentityResolver(config.SecurityConfig{TrustedProxyHeader: ""})

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("x-real-ip", "203.0.113.7")

	id := resolver.Resolve(r, "")
	assert.Equal(t, IdentityFingerprint, id.Kind)
}
