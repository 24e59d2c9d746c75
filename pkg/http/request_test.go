package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	pkghttp "github.com/vicbox/starterkit/pkg/http"
)

func TestClientIP_Precedence(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name: "forwarded for wins over every other header",
			headers: map[string]string{
				"X-Forwarded-For":  " 203.0.113.42 , 10.0.0.5",
				"X-Real-IP":        "198.51.100.7",
				"CF-Connecting-IP": "192.0.2.1",
			},
			want: "203.0.113.42",
		},
		{
			name: "real ip before cloudflare",
			headers: map[string]string{
				"X-Real-IP":        "198.51.100.7",
				"CF-Connecting-IP": "192.0.2.1",
			},
			want: "198.51.100.7",
		},
		{
			name:    "cloudflare header alone",
			headers: map[string]string{"CF-Connecting-IP": "192.0.2.1"},
			want:    "192.0.2.1",
		},
		{
			name:    "no relevant header",
			headers: map[string]string{"User-Agent": "curl/8.0"},
			want:    "0.0.0.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}
			assert.Equal(t, tt.want, pkghttp.ClientIP(h))
		})
	}
}

func TestExtractClientIP_NoConfig_UsesHeaders(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.10:54321"
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")

	assert.Equal(t, "1.2.3.4", pkghttp.ExtractClientIP(req, nil))
}

func TestExtractClientIP_NoHeaders_ReturnsUnknown(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.10:54321"

	assert.Equal(t, pkghttp.UnknownIP, pkghttp.ExtractClientIP(req, &pkghttp.IPConfig{}))
}

func TestExtractClientIP_UntrustedPeer_IgnoresHeaders(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.10:54321"
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")
	req.Header.Set("X-Real-IP", "192.168.1.1")

	config := &pkghttp.IPConfig{TrustedProxies: []string{"10.0.0.0/8", "127.0.0.1/32"}}

	assert.Equal(t, "203.0.113.10", pkghttp.ExtractClientIP(req, config))
}

func TestExtractClientIP_TrustedProxy_UsesXForwardedFor(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.5:54321"
	req.Header.Set("X-Forwarded-For", "203.0.113.42, 10.0.0.5")

	config := &pkghttp.IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}

	assert.Equal(t, "203.0.113.42", pkghttp.ExtractClientIP(req, config))
}

func TestExtractClientIP_TrustedProxyWithoutHeaders_UsesPeer(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.5:54321"

	config := &pkghttp.IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}

	assert.Equal(t, "10.0.0.5", pkghttp.ExtractClientIP(req, config))
}

func TestExtractClientIP_IPv6_TrustedProxy(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "[::1]:54321"
	req.Header.Set("X-Forwarded-For", "2001:db8::1")

	config := &pkghttp.IPConfig{TrustedProxies: []string{"::1/128"}}

	assert.Equal(t, "2001:db8::1", pkghttp.ExtractClientIP(req, config))
}

func TestExtractClientIP_InvalidCIDR_IgnoresProxyCheck(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.10:54321"
	req.Header.Set("X-Forwarded-For", "1.2.3.4")

	config := &pkghttp.IPConfig{TrustedProxies: []string{"invalid-cidr-range"}}

	assert.Equal(t, "203.0.113.10", pkghttp.ExtractClientIP(req, config))
}
