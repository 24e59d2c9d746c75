package http

import (
	"net"
	"net/http"
	"strings"
)

// UnknownIP is returned when no client address can be determined
const UnknownIP = "0.0.0.0"

// IPConfig holds configuration for IP extraction and validation
type IPConfig struct {
	TrustedProxies []string // CIDR ranges of trusted proxies
}

// ClientIP resolves the client address from proxy and CDN headers.
//
// Precedence: first entry of X-Forwarded-For, then X-Real-IP, then
// CF-Connecting-IP. When none is present UnknownIP is returned.
func ClientIP(headers http.Header) string {
	if forwardedFor := headers.Get("X-Forwarded-For"); forwardedFor != "" {
		if first := strings.TrimSpace(strings.Split(forwardedFor, ",")[0]); first != "" {
			return first
		}
	}

	if realIP := strings.TrimSpace(headers.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	if cfIP := strings.TrimSpace(headers.Get("CF-Connecting-IP")); cfIP != "" {
		return cfIP
	}

	return UnknownIP
}

// ExtractClientIP extracts the client IP address from the request.
//
// Without trusted proxies configured the forwarding headers are read as-is
// (see ClientIP). With trusted proxies configured, the headers are only honoured
// when the peer is one of them; otherwise the peer address is used so clients
// cannot spoof their IP.
func ExtractClientIP(r *http.Request, config *IPConfig) string {
	if config == nil || len(config.TrustedProxies) == 0 {
		return ClientIP(r.Header)
	}

	remoteIP := getRemoteAddr(r)
	if isTrustedProxy(remoteIP, config.TrustedProxies) {
		if ip := ClientIP(r.Header); ip != UnknownIP {
			return ip
		}
	}

	return remoteIP
}

// getRemoteAddr extracts the IP address from RemoteAddr (removing port if present)
func getRemoteAddr(r *http.Request) string {
	if r.RemoteAddr != "" {
		if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return ip
		}
		return r.RemoteAddr
	}
	return UnknownIP
}

// isTrustedProxy checks if an IP address is within any of the trusted proxy CIDR ranges
func isTrustedProxy(ip string, trustedProxies []string) bool {
	clientIP := net.ParseIP(ip)
	if clientIP == nil {
		return false
	}

	for _, cidr := range trustedProxies {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		if ipNet.Contains(clientIP) {
			return true
		}
	}

	return false
}
