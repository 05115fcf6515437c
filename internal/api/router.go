package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/docs"
	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/api/handler"
	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/api/middleware"
	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/domain"
	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/ports"
)

const defaultMaxUploadBytes = 16 << 20

// Deps carries everything the router wires into handlers.
type Deps struct {
	Log       zerolog.Logger
	Tokens    ports.TokenVerifier
	Auth      ports.AuthService
	Store     ports.ArtifactStore
	Inference ports.InferenceService
	// Audit is optional; nil disables the artifact audit trail.
	Audit handler.AuditRecorder
	// Checks are run by the readiness probe, keyed by dependency name.
	Checks map[string]handler.DependencyCheck

	MaxUploadBytes     int64
	PredictRequireAuth bool
	// CORSAllowOrigins defaults to every origin.
	CORSAllowOrigins []string

	// Registry receives the HTTP metrics. Defaults to the global registry.
	Registry prometheus.Registerer
	Gatherer prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	if d.Registry == nil {
		d.Registry = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = defaultMaxUploadBytes
	}
	if len(d.CORSAllowOrigins) == 0 {
		d.CORSAllowOrigins = []string{"*"}
	}

	promMW, err := echoprometheus.MiddlewareConfig{
		Namespace:  "spamguard",
		Subsystem:  "http",
		Registerer: d.Registry,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}.ToMiddleware()
	if err != nil {
		return nil, fmt.Errorf("http metrics: %w", err)
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(promMW)
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: d.CORSAllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	// --- Dependencies ---
	authMW := middleware.Auth(d.Tokens)
	authHandler := handler.NewAuthHandler(d.Auth)
	userHandler := handler.NewUserHandler(d.Auth)
	modelHandler := handler.NewModelHandler(d.Store, d.Audit, d.Log)
	spamHandler := handler.NewSpamHandler(d.Inference)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Prediction ---
	if d.PredictRequireAuth {
		e.POST("/spam/check", spamHandler.Check, authMW)
	} else {
		e.POST("/spam/check", spamHandler.Check)
	}

	// --- Admin: model artifact ---
	admin := e.Group("/admin", authMW, middleware.RBAC(domain.RoleAdmin))
	admin.GET("/download-model", modelHandler.Download)
	admin.POST("/upload-model", modelHandler.Upload,
		echomiddleware.BodyLimit(fmt.Sprintf("%dB", d.MaxUploadBytes)))

	// --- Users ---
	users := e.Group("/user", authMW, middleware.RBAC(domain.RoleAdmin, domain.RoleUser))
	users.GET("/profile/:username", userHandler.Profile)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Checks, d.Store)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	e.GET("/docs", func(c echo.Context) error {
		return c.Redirect(http.StatusMovedPermanently, "/docs/index.html")
	})
	e.GET("/docs/*", echoSwagger.WrapHandler)

	return e, nil
}

// requestLogger routes echo's access log into zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error()
			} else if v.Status >= http.StatusBadRequest {
				ev = log.Warn()
			}
			if v.Error != nil {
				ev = ev.Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
