package middleware

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"neoagent/internal/pkg/logger"
	"neoagent/internal/pkg/utils"
)

// LoggingConfig configures the request/response logging middleware.
type LoggingConfig struct {
	EnableRequestLog     bool          `json:"enable_request_log"`
	EnableResponseLog    bool          `json:"enable_response_log"`
	LogRequestBody       bool          `json:"log_request_body"`
	LogResponseBody      bool          `json:"log_response_body"`
	MaxRequestBodySize   int64         `json:"max_request_body_size"`
	MaxResponseBodySize  int64         `json:"max_response_body_size"`
	SkipPaths            []string      `json:"skip_paths"`
	SlowRequestThreshold time.Duration `json:"slow_request_threshold"`
}

// LoggingMiddleware logs one entry per request/response pair against the
// local status API.
type LoggingMiddleware struct {
	config *LoggingConfig
	logger *logger.LoggerManager
}

// responseWriter wraps gin.ResponseWriter to capture the response body for logging.
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

// NewLoggingMiddleware builds a LoggingMiddleware, defaulting health/ping
// out of request logging.
func NewLoggingMiddleware(config *LoggingConfig) *LoggingMiddleware {
	if config == nil {
		config = &LoggingConfig{
			EnableRequestLog:     true,
			EnableResponseLog:    true,
			LogRequestBody:       false,
			LogResponseBody:      false,
			MaxRequestBodySize:   1024 * 1024,
			MaxResponseBodySize:  1024 * 1024,
			SlowRequestThreshold: 2 * time.Second,
			SkipPaths: []string{
				"/health",
				"/ping",
			},
		}
	}

	return &LoggingMiddleware{
		config: config,
		logger: logger.LoggerInstance,
	}
}

// Handler returns the gin.HandlerFunc applying this middleware's logging policy.
func (m *LoggingMiddleware) Handler() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		startTime := time.Now()
		path := c.Request.URL.Path

		if m.shouldSkipLogging(path) {
			c.Next()
			return
		}

		if m.config.EnableRequestLog {
			m.logRequest(c)
		}

		var responseBody *bytes.Buffer
		if m.config.EnableResponseLog && m.config.LogResponseBody {
			responseBody = &bytes.Buffer{}
			c.Writer = &responseWriter{
				ResponseWriter: c.Writer,
				body:           responseBody,
			}
		}

		c.Next()

		duration := time.Since(startTime)

		if m.config.EnableResponseLog {
			m.logResponse(c, duration, responseBody)
		}

		if duration > m.config.SlowRequestThreshold {
			m.logSlowRequest(c, duration)
		}
	})
}

func (m *LoggingMiddleware) shouldSkipLogging(path string) bool {
	for _, skipPath := range m.config.SkipPaths {
		if path == skipPath {
			return true
		}
	}
	return false
}

func (m *LoggingMiddleware) logRequest(c *gin.Context) {
	fields := logrus.Fields{
		"method":         c.Request.Method,
		"path":           c.Request.URL.Path,
		"query":          c.Request.URL.RawQuery,
		"ip":             utils.GetClientIP(c),
		"user_agent":     c.GetHeader("User-Agent"),
		"content_type":   c.GetHeader("Content-Type"),
		"content_length": c.Request.ContentLength,
	}

	if m.config.LogRequestBody && c.Request.ContentLength > 0 && c.Request.ContentLength <= m.config.MaxRequestBodySize {
		if body := m.readRequestBody(c); body != "" {
			fields["request_body"] = body
		}
	}

	logger.WithFields(fields).Info("HTTP request")
}

func (m *LoggingMiddleware) logResponse(c *gin.Context, duration time.Duration, responseBody *bytes.Buffer) {
	fields := logrus.Fields{
		"method":   c.Request.Method,
		"path":     c.Request.URL.Path,
		"ip":       utils.GetClientIP(c),
		"status":   c.Writer.Status(),
		"size":     c.Writer.Size(),
		"duration": duration.String(),
	}

	if m.config.LogResponseBody && responseBody != nil {
		bodySize := int64(responseBody.Len())
		if bodySize > 0 && bodySize <= m.config.MaxResponseBodySize {
			fields["response_body"] = responseBody.String()
		}
	}

	entry := logger.WithFields(fields)
	switch {
	case c.Writer.Status() >= 500:
		entry.Error("HTTP response")
	case c.Writer.Status() >= 400:
		entry.Warn("HTTP response")
	default:
		entry.Info("HTTP response")
	}
}

func (m *LoggingMiddleware) logSlowRequest(c *gin.Context, duration time.Duration) {
	logger.WithFields(logrus.Fields{
		"method":   c.Request.Method,
		"path":     c.Request.URL.Path,
		"duration": duration.String(),
	}).Warn("slow request detected")
}

func (m *LoggingMiddleware) readRequestBody(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}

	bodyBytes, err := io.ReadAll(c.Request.Body)
	if err != nil {
		logger.Error("failed to read request body")
		return ""
	}

	c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	if m.isTextContent(c.GetHeader("Content-Type")) {
		return string(bodyBytes)
	}

	return "[binary data]"
}

func (m *LoggingMiddleware) isTextContent(contentType string) bool {
	textTypes := []string{
		"application/json",
		"application/xml",
		"text/",
		"application/x-www-form-urlencoded",
	}

	for _, textType := range textTypes {
		if strings.Contains(contentType, textType) {
			return true
		}
	}

	return false
}

// UpdateConfig replaces the active LoggingConfig.
func (m *LoggingMiddleware) UpdateConfig(config *LoggingConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	m.config = config

	logger.Info("logging middleware config updated")

	return nil
}

// GetConfig returns the active LoggingConfig.
func (m *LoggingMiddleware) GetConfig() *LoggingConfig {
	return m.config
}
