package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/channy-sao/admin-gateway/internal/api/handler"
	"github.com/channy-sao/admin-gateway/internal/api/middleware"
	"github.com/channy-sao/admin-gateway/internal/auth"
	"github.com/channy-sao/admin-gateway/internal/core/ports"
	"github.com/channy-sao/admin-gateway/internal/infrastructure/config"
)

// Deps carries the wired collaborators the router needs. Mongo and Redis
// are optional; nil disables their probes.
type Deps struct {
	AuthService ports.AuthService
	Cookies     *auth.CookieStore
	Mongo       *mongo.Database
	Redis       *redis.Client
	Log         zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg *config.Config, deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("gateway"))

	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Route guard over page navigations ---
	e.Use(middleware.RouteGuard(middleware.GuardConfig{
		RefreshTimeout: cfg.GuardRefreshTimeout,
	}, deps.Cookies, deps.AuthService, deps.Log))

	// --- Session endpoints ---
	authHandler := handler.NewAuthHandler(deps.AuthService, deps.Cookies)
	e.POST("/api/auth/login", authHandler.Login)
	e.POST("/api/auth/refresh", authHandler.Refresh)
	e.POST("/api/auth/logout", authHandler.Logout)

	// --- Business API proxy ---
	proxyHandler := handler.NewProxyHandler(cfg.BackendBaseURL, deps.Log)
	e.Any("/api/proxy/*", proxyHandler.Relay)

	// --- Page shell ---
	shellHandler := handler.NewShellHandler(deps.Cookies)
	for _, route := range []string{"/", "/login", "/dashboard", "/products", "/categories", "/user-management/users", "/user-management/roles", "/setting/change-password"} {
		e.GET(route, shellHandler.Page)
	}

	// --- Health probes and operational endpoints (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
