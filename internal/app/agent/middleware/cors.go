// Package middleware holds the gin middleware used by the agent's local
// status API.
package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"neoagent/internal/pkg/logger"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	AllowOrigins     []string      `json:"allow_origins"`
	AllowMethods     []string      `json:"allow_methods"`
	AllowHeaders     []string      `json:"allow_headers"`
	ExposeHeaders    []string      `json:"expose_headers"`
	AllowCredentials bool          `json:"allow_credentials"`
	MaxAge           time.Duration `json:"max_age"`
	AllowAllOrigins  bool          `json:"allow_all_origins"`
	Enabled          bool          `json:"enabled"`
}

// CORSMiddleware applies CORS headers and answers preflight requests.
type CORSMiddleware struct {
	config *CORSConfig
	logger *logger.LoggerManager
}

// NewCORSMiddleware builds a CORSMiddleware, defaulting to an open local policy.
func NewCORSMiddleware(config *CORSConfig) *CORSMiddleware {
	if config == nil {
		config = &CORSConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{
				http.MethodGet,
				http.MethodPost,
				http.MethodPut,
				http.MethodPatch,
				http.MethodDelete,
				http.MethodOptions,
				http.MethodHead,
			},
			AllowHeaders: []string{
				"Origin",
				"Content-Length",
				"Content-Type",
				"Authorization",
				"X-Requested-With",
				"X-Request-ID",
			},
			ExposeHeaders: []string{
				"Content-Length",
				"X-Request-ID",
				"X-Response-Time",
			},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
			AllowAllOrigins:  true,
			Enabled:          true,
		}
	}

	return &CORSMiddleware{
		config: config,
		logger: logger.LoggerInstance,
	}
}

// Handler returns the gin.HandlerFunc applying this middleware's CORS policy.
func (m *CORSMiddleware) Handler() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		if !m.config.Enabled {
			c.Next()
			return
		}

		origin := c.GetHeader("Origin")

		if c.Request.Method == http.MethodOptions {
			m.handlePreflightRequest(c, origin)
			return
		}

		m.setCORSHeaders(c, origin)

		c.Next()
	})
}

func (m *CORSMiddleware) handlePreflightRequest(c *gin.Context, origin string) {
	if !m.isOriginAllowed(origin) {
		logger.Warn("CORS preflight request denied")
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	requestMethod := c.GetHeader("Access-Control-Request-Method")
	if !m.isMethodAllowed(requestMethod) {
		logger.Warn("CORS preflight method not allowed")
		c.AbortWithStatus(http.StatusMethodNotAllowed)
		return
	}

	requestHeaders := c.GetHeader("Access-Control-Request-Headers")
	if !m.areHeadersAllowed(requestHeaders) {
		logger.Warn("CORS preflight headers not allowed")
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	m.setPreflightHeaders(c, origin)

	logger.Debug("CORS preflight request allowed")

	c.AbortWithStatus(http.StatusNoContent)
}

func (m *CORSMiddleware) setCORSHeaders(c *gin.Context, origin string) {
	if m.config.AllowAllOrigins {
		c.Header("Access-Control-Allow-Origin", "*")
	} else if m.isOriginAllowed(origin) {
		c.Header("Access-Control-Allow-Origin", origin)
	}

	if len(m.config.AllowMethods) > 0 {
		c.Header("Access-Control-Allow-Methods", strings.Join(m.config.AllowMethods, ", "))
	}

	if len(m.config.AllowHeaders) > 0 {
		c.Header("Access-Control-Allow-Headers", strings.Join(m.config.AllowHeaders, ", "))
	}

	if len(m.config.ExposeHeaders) > 0 {
		c.Header("Access-Control-Expose-Headers", strings.Join(m.config.ExposeHeaders, ", "))
	}

	if m.config.AllowCredentials {
		c.Header("Access-Control-Allow-Credentials", "true")
	}
}

func (m *CORSMiddleware) setPreflightHeaders(c *gin.Context, origin string) {
	m.setCORSHeaders(c, origin)

	if m.config.MaxAge > 0 {
		c.Header("Access-Control-Max-Age", fmt.Sprintf("%.0f", m.config.MaxAge.Seconds()))
	}
}

func (m *CORSMiddleware) isOriginAllowed(origin string) bool {
	if m.config.AllowAllOrigins {
		return true
	}

	if origin == "" {
		return false
	}

	for _, allowedOrigin := range m.config.AllowOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}

		if m.matchWildcard(allowedOrigin, origin) {
			return true
		}
	}

	return false
}

func (m *CORSMiddleware) isMethodAllowed(method string) bool {
	if method == "" {
		return false
	}

	for _, allowedMethod := range m.config.AllowMethods {
		if allowedMethod == method {
			return true
		}
	}

	return false
}

func (m *CORSMiddleware) areHeadersAllowed(headers string) bool {
	if headers == "" {
		return true
	}

	requestHeaders := strings.Split(headers, ",")
	for _, header := range requestHeaders {
		header = strings.TrimSpace(header)
		if !m.isHeaderAllowed(header) {
			return false
		}
	}

	return true
}

func (m *CORSMiddleware) isHeaderAllowed(header string) bool {
	header = strings.ToLower(strings.TrimSpace(header))

	for _, allowedHeader := range m.config.AllowHeaders {
		if strings.ToLower(allowedHeader) == header {
			return true
		}
	}

	return false
}

// matchWildcard supports the "*.domain.com" suffix pattern only.
func (m *CORSMiddleware) matchWildcard(pattern, str string) bool {
	if !strings.Contains(pattern, "*") {
		return pattern == str
	}

	if strings.HasPrefix(pattern, "*.") {
		suffix := pattern[2:]
		return strings.HasSuffix(str, suffix)
	}

	return false
}

// UpdateConfig replaces the active CORSConfig.
func (m *CORSMiddleware) UpdateConfig(config *CORSConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	m.config = config

	logger.Info("CORS middleware config updated")

	return nil
}

// GetConfig returns the active CORSConfig.
func (m *CORSMiddleware) GetConfig() *CORSConfig {
	return m.config
}
