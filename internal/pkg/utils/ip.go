package utils

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// NormalizeIP canonicalizes an address string:
//   - takes the first entry of a comma-separated X-Forwarded-For list
//   - strips a host:port or [ipv6]:port suffix
//   - collapses an IPv4-mapped IPv6 address (::ffff:192.0.2.1) to plain IPv4
//   - otherwise returns the address unchanged (including real IPv6)
func NormalizeIP(input string) string {
	if input == "" {
		return ""
	}

	ip := strings.TrimSpace(strings.Split(input, ",")[0])

	if h, _, err := net.SplitHostPort(ip); err == nil {
		ip = h
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ip
	}

	if v4 := parsed.To4(); v4 != nil {
		return v4.String()
	}

	return parsed.String()
}

// GetClientIP extracts the client IP from a gin request context.
func GetClientIP(c *gin.Context) string {
	clientIPRaw := c.GetHeader("X-Forwarded-For")
	if clientIPRaw == "" {
		clientIPRaw = c.GetHeader("X-Real-IP")
	}
	if clientIPRaw == "" {
		clientIPRaw = c.ClientIP()
	}
	return NormalizeIP(clientIPRaw)
}

// GetClientIPFromRequest extracts the client IP from a standard net/http request.
func GetClientIPFromRequest(r *http.Request) string {
	clientIPRaw := r.Header.Get("X-Forwarded-For")
	if clientIPRaw == "" {
		clientIPRaw = r.Header.Get("X-Real-IP")
	}
	if clientIPRaw == "" {
		clientIPRaw = r.RemoteAddr
	}
	return NormalizeIP(clientIPRaw)
}
