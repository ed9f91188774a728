package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/femmie/marketplace/docs"
	"github.com/femmie/marketplace/internal/api/handler"
	"github.com/femmie/marketplace/internal/api/middleware"
	"github.com/femmie/marketplace/internal/core/domain"
	"github.com/femmie/marketplace/internal/core/ports"
)

const metricsSubsystem = "marketplace"

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Accounts ports.AccountService
	Tokens   middleware.AccessVerifier
	// Users backs the role gate with the stored role. Nil trusts the token claim.
	Users    middleware.UserFinder
	Health   *handler.HealthHandler
	Log      zerolog.Logger
	// Registry receives the HTTP metrics and backs /metrics. Nil uses the
	// default Prometheus registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  metricsSubsystem,
		Registerer: registerer,
	}))

	// --- Account routes ---
	accounts := handler.NewAccountHandler(d.Accounts)
	auth := middleware.Auth(d.Tokens)

	g := e.Group("/api/auth")
	g.POST("/register", accounts.Register)
	g.POST("/login", accounts.Login)
	g.POST("/refresh", accounts.Refresh)
	g.GET("/profile", accounts.Profile, auth)
	g.POST("/upgrade-to-vendor", accounts.UpgradeToVendor, auth, middleware.RBAC(d.Users, domain.RoleRegular))

	// --- Health probes (no auth required) ---
	health := d.Health
	if health == nil {
		health = handler.NewHealthHandler(nil)
	}
	e.GET("/health", health.Liveness)       // liveness  – is the process alive?
	e.GET("/health/ready", health.Readiness) // readiness – are dependencies up?

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
