// Package router wires together the agent's local status/health HTTP API.
package router

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"neoagent/internal/app/agent/middleware"
	"neoagent/internal/pkg/logger"
)

// RouterConfig configures the local status API surface.
type RouterConfig struct {
	Debug            bool   `json:"debug"`
	Prefix           string `json:"prefix"`
	EnableMiddleware bool   `json:"enable_middleware"`

	Logging *middleware.LoggingConfig `json:"logging"`
	CORS    *middleware.CORSConfig    `json:"cors"`
}

// Router serves the agent's local status endpoints: health, ping, version,
// and a resource snapshot. It does not expose the discovery job itself —
// that's driven by the CLI and reported to the inventory server directly.
type Router struct {
	engine *gin.Engine
	config *RouterConfig
	logger *logger.LoggerManager

	loggingMiddleware *middleware.LoggingMiddleware
	corsMiddleware    *middleware.CORSMiddleware
}

// NewRouter builds a Router with config, defaulting to a permissive local
// setup when config is nil.
func NewRouter(config *RouterConfig) *Router {
	if config == nil {
		config = &RouterConfig{
			Debug:            false,
			Prefix:           "/api/v1",
			EnableMiddleware: true,
		}
	}

	if config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	r := &Router{
		engine: engine,
		config: config,
		logger: logger.LoggerInstance,
	}

	if config.EnableMiddleware {
		r.initMiddleware()
	}

	r.registerRoutes()

	return r
}

func (r *Router) initMiddleware() {
	if r.config.CORS != nil {
		r.corsMiddleware = middleware.NewCORSMiddleware(r.config.CORS)
	}
	if r.config.Logging != nil {
		r.loggingMiddleware = middleware.NewLoggingMiddleware(r.config.Logging)
	}
}

func (r *Router) registerRoutes() {
	r.engine.Use(gin.Recovery())

	if r.corsMiddleware != nil {
		r.engine.Use(r.corsMiddleware.Handler())
	}
	if r.loggingMiddleware != nil {
		r.engine.Use(r.loggingMiddleware.Handler())
	}

	r.setupHealthRoutes()

	apiGroup := r.engine.Group(r.config.Prefix)
	apiGroup.GET("/status", r.handleStatus)
}

// GetEngine returns the underlying gin.Engine, e.g. to hand to an http.Server.
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// UpdateConfig swaps in a new RouterConfig, propagating it to any already
// active middleware.
func (r *Router) UpdateConfig(config *RouterConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	r.config = config

	if r.corsMiddleware != nil && config.CORS != nil {
		r.corsMiddleware.UpdateConfig(config.CORS)
	}
	if r.loggingMiddleware != nil && config.Logging != nil {
		r.loggingMiddleware.UpdateConfig(config.Logging)
	}

	logger.Info("router config updated")

	return nil
}

// GetConfig returns the active RouterConfig.
func (r *Router) GetConfig() *RouterConfig {
	return r.config
}
