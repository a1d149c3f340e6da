// Package logger custom log entry shapes and structured logging helpers.
package logger

import (
	"fmt"
	"net/http"
	"time"

	"neoagent/internal/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// FormatTimestamp renders t at millisecond precision for fields outside the
// log manager's own timestamp (which logrus stamps automatically).
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05.000")
}

// NowFormatted is FormatTimestamp(time.Now()).
func NowFormatted() string {
	return FormatTimestamp(time.Now())
}

// LogType tags the structured shape of a log entry.
type LogType string

const (
	AccessLog    LogType = "access"
	ErrorLog     LogType = "error"
	SystemLog    LogType = "system"
	DebugLog     LogType = "debug"
	DiscoveryLog LogType = "discovery"
)

// AccessLogEntry describes one HTTP request/response pair against the local
// status API.
type AccessLogEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	Method       string    `json:"method"`
	Path         string    `json:"path"`
	Query        string    `json:"query"`
	StatusCode   int       `json:"status_code"`
	ResponseTime int64     `json:"response_time"`
	ClientIP     string    `json:"client_ip"`
	UserAgent    string    `json:"user_agent"`
	RequestID    string    `json:"request_id"`
	RequestSize  int64     `json:"request_size"`
	ResponseSize int64     `json:"response_size"`
}

// ErrorLogEntry describes one logged error.
type ErrorLogEntry struct {
	Timestamp   time.Time              `json:"timestamp"`
	Level       string                 `json:"level"`
	Error       string                 `json:"error"`
	RequestID   string                 `json:"request_id"`
	ClientIP    string                 `json:"client_ip"`
	Path        string                 `json:"path"`
	Method      string                 `json:"method"`
	ExtraFields map[string]interface{} `json:"extra_fields"`
}

// SystemLogEntry describes a component-level lifecycle event.
type SystemLogEntry struct {
	Timestamp   time.Time              `json:"timestamp"`
	Component   string                 `json:"component"`
	Event       string                 `json:"event"`
	Message     string                 `json:"message"`
	Level       string                 `json:"level"`
	ExtraFields map[string]interface{} `json:"extra_fields"`
}

// DiscoveryLogEntry describes one worker's progress through a discovery pass.
type DiscoveryLogEntry struct {
	Timestamp     time.Time `json:"timestamp"`
	ProcessNumber string    `json:"process_number"`
	WorkerID      int       `json:"worker_id"`
	Status        string    `json:"status"` // started, batch_flushed, paused, stopped
	AddressCount  int       `json:"address_count"`
	DeviceCount   int       `json:"device_count"`
}

// LogHTTPRequest logs one request handled by a plain net/http handler.
func LogHTTPRequest(r *http.Request, statusCode int, responseTime time.Duration, requestID string) {
	if LoggerInstance == nil {
		return
	}

	entry := AccessLogEntry{
		Method:       r.Method,
		Path:         r.URL.Path,
		Query:        r.URL.RawQuery,
		StatusCode:   statusCode,
		ResponseTime: responseTime.Milliseconds(),
		ClientIP:     utils.GetClientIPFromRequest(r),
		UserAgent:    r.UserAgent(),
		RequestID:    requestID,
		RequestSize:  r.ContentLength,
	}

	LoggerInstance.logger.WithFields(logrus.Fields{
		"type":          AccessLog,
		"method":        entry.Method,
		"path":          entry.Path,
		"query":         entry.Query,
		"status_code":   entry.StatusCode,
		"response_time": entry.ResponseTime,
		"client_ip":     entry.ClientIP,
		"user_agent":    entry.UserAgent,
		"request_id":    entry.RequestID,
		"request_size":  entry.RequestSize,
	}).Info("HTTP request processed")
}

// LogAccessRequest logs one request handled by the gin status API.
func LogAccessRequest(c *gin.Context, startTime time.Time, requestID string) {
	if LoggerInstance == nil {
		return
	}

	responseTime := time.Since(startTime).Milliseconds()

	entry := AccessLogEntry{
		Method:       c.Request.Method,
		Path:         c.Request.URL.Path,
		Query:        c.Request.URL.RawQuery,
		StatusCode:   c.Writer.Status(),
		ResponseTime: responseTime,
		ClientIP:     utils.GetClientIP(c),
		UserAgent:    c.Request.UserAgent(),
		RequestID:    requestID,
		RequestSize:  c.Request.ContentLength,
		ResponseSize: int64(c.Writer.Size()),
	}

	LoggerInstance.logger.WithFields(logrus.Fields{
		"type":          AccessLog,
		"method":        entry.Method,
		"path":          entry.Path,
		"query":         entry.Query,
		"status_code":   entry.StatusCode,
		"response_time": entry.ResponseTime,
		"client_ip":     entry.ClientIP,
		"user_agent":    entry.UserAgent,
		"request_id":    entry.RequestID,
		"request_size":  entry.RequestSize,
		"response_size": entry.ResponseSize,
	}).Info("HTTP request processed")
}

// LogError logs err with request/path context.
func LogError(err error, requestID, clientIP, path, method string, extraFields map[string]interface{}) {
	if LoggerInstance == nil || err == nil {
		return
	}

	entry := ErrorLogEntry{
		Level:     "error",
		Error:     err.Error(),
		RequestID: requestID,
		ClientIP:  clientIP,
		Path:      path,
		Method:    method,
	}

	fields := logrus.Fields{
		"type":       ErrorLog,
		"level":      entry.Level,
		"error":      entry.Error,
		"request_id": entry.RequestID,
		"client_ip":  entry.ClientIP,
		"path":       entry.Path,
		"method":     entry.Method,
	}
	for k, v := range extraFields {
		fields[k] = v
	}

	LoggerInstance.logger.WithFields(fields).Errorf("error occurred: %s", err.Error())
}

// LogInfo logs an informational message with optional request context.
func LogInfo(message, requestID, clientIP, path, method string, extraFields map[string]interface{}) {
	if LoggerInstance == nil || message == "" {
		return
	}

	fields := logrus.Fields{
		"type":       "info",
		"message":    message,
		"request_id": requestID,
		"client_ip":  clientIP,
		"path":       path,
		"method":     method,
	}
	for k, v := range extraFields {
		fields[k] = v
	}

	LoggerInstance.logger.WithFields(fields).Info(message)
}

// LogWarn logs a warning message with optional request context.
func LogWarn(message, requestID, clientIP, path, method string, extraFields map[string]interface{}) {
	if LoggerInstance == nil || message == "" {
		return
	}

	fields := logrus.Fields{
		"type":       "warn",
		"message":    message,
		"request_id": requestID,
		"client_ip":  clientIP,
		"path":       path,
		"method":     method,
	}
	for k, v := range extraFields {
		fields[k] = v
	}

	LoggerInstance.logger.WithFields(fields).Warn(message)
}

// LogSystemEvent logs a component lifecycle event at the given level.
func LogSystemEvent(component, event, message string, level LogLevel, extraFields map[string]interface{}) {
	if LoggerInstance == nil {
		return
	}

	logrusLevel := toLogrusLevel(level)

	entry := SystemLogEntry{
		Component: component,
		Event:     event,
		Message:   message,
		Level:     logrusLevel.String(),
	}

	fields := logrus.Fields{
		"type":      SystemLog,
		"component": entry.Component,
		"event":     entry.Event,
		"message":   entry.Message,
		"level":     entry.Level,
	}
	for k, v := range extraFields {
		fields[k] = v
	}

	msg := fmt.Sprintf("system event: %s - %s", component, event)
	switch logrusLevel {
	case logrus.DebugLevel:
		LoggerInstance.logger.WithFields(fields).Debug(msg)
	case logrus.WarnLevel:
		LoggerInstance.logger.WithFields(fields).Warn(msg)
	case logrus.ErrorLevel:
		LoggerInstance.logger.WithFields(fields).Error(msg)
	case logrus.FatalLevel:
		LoggerInstance.logger.WithFields(fields).Fatal(msg)
	default:
		LoggerInstance.logger.WithFields(fields).Info(msg)
	}
}

// LogDiscoveryProgress logs one worker's status transition during a discovery pass.
func LogDiscoveryProgress(processNumber string, workerID int, status string, addressCount, deviceCount int) {
	if LoggerInstance == nil {
		return
	}

	entry := DiscoveryLogEntry{
		ProcessNumber: processNumber,
		WorkerID:      workerID,
		Status:        status,
		AddressCount:  addressCount,
		DeviceCount:   deviceCount,
	}

	LoggerInstance.logger.WithFields(logrus.Fields{
		"type":           DiscoveryLog,
		"process_number": entry.ProcessNumber,
		"worker_id":       entry.WorkerID,
		"status":          entry.Status,
		"address_count":   entry.AddressCount,
		"device_count":    entry.DeviceCount,
	}).Debugf("worker %d: %s", workerID, status)
}

// LogLevel wraps logrus.Level so callers outside this package never import logrus directly.
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

func toLogrusLevel(level LogLevel) logrus.Level {
	switch level {
	case DebugLevel:
		return logrus.DebugLevel
	case InfoLevel:
		return logrus.InfoLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	case FatalLevel:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}
