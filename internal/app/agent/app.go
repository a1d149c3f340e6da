// Package agent wires together the pieces of the local status/health HTTP
// server: configuration, logging, and the gin router. The discovery job
// itself is driven by the CLI's discover command, not this server — App
// only exposes the agent's liveness and host facts for an operator or
// supervisor to check.
package agent

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"neoagent/internal/app/agent/middleware"
	"neoagent/internal/app/agent/router"
	"neoagent/internal/config"
	"neoagent/internal/pkg/logger"
)

// App is the agent's local status server.
type App struct {
	router     *router.Router
	httpServer *http.Server
	config     *config.Config
	logger     *logger.LoggerManager
}

// NewApp loads config, initializes logging, and builds the router and HTTP
// server, without starting them.
func NewApp() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	loggerManager, err := logger.InitLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	logger.LoggerInstance = loggerManager

	logger.Info("agent application initializing")

	r := router.NewRouter(routerConfigFrom(cfg))

	httpServer := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:        r.GetEngine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return &App{
		router:     r,
		httpServer: httpServer,
		config:     cfg,
		logger:     loggerManager,
	}, nil
}

// routerConfigFrom translates config.MiddlewareConfig (the on-disk shape)
// into router.RouterConfig (the shape the gin middleware expects).
func routerConfigFrom(cfg *config.Config) *router.RouterConfig {
	rc := &router.RouterConfig{
		Debug:            cfg.App.Debug,
		Prefix:           "/api/v1",
		EnableMiddleware: true,
	}

	if cfg.Middleware == nil {
		return rc
	}

	if lc := cfg.Middleware.Logging; lc != nil {
		rc.Logging = &middleware.LoggingConfig{
			EnableRequestLog:     lc.EnableRequestLog,
			EnableResponseLog:    lc.EnableResponseLog,
			LogRequestBody:       lc.LogRequestBody,
			LogResponseBody:      lc.LogResponseBody,
			MaxRequestBodySize:   lc.MaxBodySize,
			MaxResponseBodySize:  lc.MaxBodySize,
			SkipPaths:            lc.SkipPaths,
			SlowRequestThreshold: lc.SlowRequestThreshold,
		}
	}

	if cc := cfg.Middleware.CORS; cc != nil {
		rc.CORS = &middleware.CORSConfig{
			AllowOrigins:     cc.AllowOrigins,
			AllowMethods:     cc.AllowMethods,
			AllowHeaders:     cc.AllowHeaders,
			ExposeHeaders:    cc.ExposeHeaders,
			AllowCredentials: cc.AllowCredentials,
			MaxAge:           time.Duration(cc.MaxAge) * time.Second,
			AllowAllOrigins:  cc.AllowAllOrigins,
			Enabled:          cc.Enabled,
		}
	}

	return rc
}

// GetRouter returns the agent's Router.
func (a *App) GetRouter() *router.Router {
	return a.router
}

// GetConfig returns the agent's loaded Config.
func (a *App) GetConfig() *config.Config {
	return a.config
}

// GetHTTPServer returns the underlying http.Server.
func (a *App) GetHTTPServer() *http.Server {
	return a.httpServer
}

// Start begins serving the local status API in the background.
func (a *App) Start() error {
	logger.Info("starting agent status server")

	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("status server failed: ", err)
		}
	}()

	logger.Infof("agent status server listening on %s", a.httpServer.Addr)

	return nil
}

// Stop gracefully shuts down the status server, bounded by ctx.
func (a *App) Stop(ctx context.Context) error {
	logger.Info("stopping agent status server")

	if err := a.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop status server: %w", err)
	}

	logger.Info("agent status server stopped")
	return nil
}
