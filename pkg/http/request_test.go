package http_test

import (
	"net/http/httptest"
	"testing"

	pkghttp "github.com/kritsw/telemed/pkg/http"
	"github.com/stretchr/testify/assert"
)

func TestExtractClientIP_NoProxyConfig(t *testing.T) {
	r := httptest.NewRequest("POST", "/auth/login", nil)
	r.RemoteAddr = "203.0.113.7:51234"
	r.Header.Set("X-Forwarded-For", "198.51.100.1")

	// Without trusted proxies, forwarded headers must be ignored.
	ip := pkghttp.ExtractClientIP(r, nil)
	assert.Equal(t, "203.0.113.7", ip)
}

func TestExtractClientIP_UntrustedPeer(t *testing.T) {
	cfg := &pkghttp.IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}

	r := httptest.NewRequest("POST", "/auth/login", nil)
	r.RemoteAddr = "203.0.113.7:51234"
	r.Header.Set("X-Forwarded-For", "198.51.100.1")

	ip := pkghttp.ExtractClientIP(r, cfg)
	assert.Equal(t, "203.0.113.7", ip)
}

func TestExtractClientIP_TrustedProxyFirstEntry(t *testing.T) {
	cfg := &pkghttp.IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}

	r := httptest.NewRequest("POST", "/auth/login", nil)
	r.RemoteAddr = "10.1.2.3:443"
	r.Header.Set("X-Forwarded-For", "198.51.100.1, 10.1.2.3")

	ip := pkghttp.ExtractClientIP(r, cfg)
	assert.Equal(t, "198.51.100.1", ip)
}

func TestExtractClientIP_TrustedProxyGarbageHeader(t *testing.T) {
	cfg := &pkghttp.IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}

	r := httptest.NewRequest("POST", "/auth/login", nil)
	r.RemoteAddr = "10.1.2.3:443"
	r.Header.Set("X-Forwarded-For", "not-an-ip")

	ip := pkghttp.ExtractClientIP(r, cfg)
	assert.Equal(t, "10.1.2.3", ip)
}

func TestExtractClientIP_NoPort(t *testing.T) {
	r := httptest.NewRequest("POST", "/auth/login", nil)
	r.RemoteAddr = "203.0.113.7"

	ip := pkghttp.ExtractClientIP(r, nil)
	assert.Equal(t, "203.0.113.7", ip)
}
