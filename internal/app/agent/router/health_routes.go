package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"neoagent/internal/pkg/logger"
	"neoagent/internal/pkg/monitor"
	"neoagent/internal/pkg/version"
)

// setupHealthRoutes registers the routes that need no middleware: liveness,
// a ping echo, and the build version.
func (r *Router) setupHealthRoutes() {
	r.engine.GET("/health", r.handleHealth)
	r.engine.GET("/ping", r.handlePing)
	r.engine.GET("/version", r.handleVersion)
}

func (r *Router) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": logger.NowFormatted(),
		"service":   "neoagent",
		"version":   version.GetVersion(),
	})
}

func (r *Router) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "pong",
		"timestamp": logger.NowFormatted(),
	})
}

func (r *Router) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":    "neoagent",
		"version":    version.GetVersion(),
		"api_version": version.APIVersion,
		"build_time": version.BuildTime,
		"git_commit": version.GitCommit,
		"go_version": version.GoVersion,
	})
}

// handleStatus reports host capability/resource facts, used by an operator
// or supervisor to sanity-check the agent before triggering a discovery pass.
func (r *Router) handleStatus(c *gin.Context) {
	hostInfo, err := monitor.GetHostInfo()
	if err != nil {
		logger.Warnf("status: failed to collect host info: %v", err)
	}

	metrics, err := monitor.GetSystemMetrics()
	if err != nil {
		logger.Warnf("status: failed to collect system metrics: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"version":   version.GetVersion(),
		"timestamp": logger.NowFormatted(),
		"host":      hostInfo,
		"metrics":   metrics,
	})
}
