package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/fieldreports/reports-api/internal/api/handler"
	"github.com/fieldreports/reports-api/internal/api/middleware"
	"github.com/fieldreports/reports-api/internal/core/policy"
	"github.com/fieldreports/reports-api/internal/core/ports"
)

// Dependencies carries everything the HTTP layer needs. Audit, Limiter and
// Readiness are optional.
type Dependencies struct {
	Log     zerolog.Logger
	Auth    ports.AuthService
	Access  ports.AccessEnforcer
	Reports ports.ReportService
	Users   ports.UserService
	Policy  *policy.Table
	Audit   ports.AuditRecorder
	Limiter ports.LoginLimiter

	Readiness map[string]handler.PingFunc

	// Registerer receives the HTTP request metrics. Defaults to the
	// Prometheus default registerer.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)
	e.Validator = handler.NewValidator()

	registerer := deps.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "fieldreports",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	guard := middleware.NewGuard(deps.Access, deps.Policy, deps.Audit, deps.Log)
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Limiter, deps.Audit, deps.Log)
	reportHandler := handler.NewReportHandler(deps.Reports)
	userHandler := handler.NewUserHandler(deps.Users, deps.Audit)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.GET("/auth/me", authHandler.Me, guard.Require(policy.OpMe))

	// --- Report routes ---
	reports := e.Group("/reports")
	reports.POST("", reportHandler.Create, guard.Require(policy.OpReportCreate))
	reports.GET("", reportHandler.List, guard.Require(policy.OpReportList))
	reports.GET("/stats", reportHandler.Stats, guard.Require(policy.OpReportStats))
	reports.GET("/station/:stationId", reportHandler.ByStation, guard.Require(policy.OpReportByStation))
	reports.GET("/date-range", reportHandler.DateRange, guard.Require(policy.OpReportDateRange))
	reports.GET("/:id", reportHandler.Get, guard.Require(policy.OpReportGet))
	reports.PATCH("/:id", reportHandler.Update, guard.Require(policy.OpReportUpdate))
	reports.DELETE("/:id", reportHandler.Delete, guard.Require(policy.OpReportDelete))

	// --- Account administration ---
	users := e.Group("/users")
	users.GET("/:id", userHandler.Get, guard.Require(policy.OpUserGet))
	users.PATCH("/:id", userHandler.Update, guard.Require(policy.OpUserUpdate))

	// --- Health probes and ops endpoints (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Readiness)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
