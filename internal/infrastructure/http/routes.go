package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	otelecho "go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/nodeshop/dataflow/internal/infrastructure/http/handlers"
	"github.com/nodeshop/dataflow/internal/infrastructure/http/middleware"
	"github.com/nodeshop/dataflow/internal/infrastructure/monitoring"
)

// ServerConfig configures the echo server NewServer builds.
type ServerConfig struct {
	JWTSecret      string
	RateLimitRPM   int
	RateLimitWindow time.Duration
	TraceService   string
}

// NewServer builds the echo server exposing the control plane's five API
// routes plus health/metrics. Global middleware runs in this order:
// tracing, logger, metrics, recover, CORS, rate limit; JWT auth is applied
// afterwards on the API route group only, and the error handler maps any
// returned error to a JSON response.
func NewServer(cfg ServerConfig, service *Service, metrics *monitoring.Metrics, limiter *redis.Client) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler()

	e.Use(otelecho.Middleware(cfg.TraceService))
	e.Use(middleware.Logger())
	e.Use(middleware.Metrics(metrics))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	if cfg.RateLimitRPM > 0 {
		window := cfg.RateLimitWindow
		if window <= 0 {
			window = time.Minute
		}
		if limiter != nil {
			e.Use(middleware.RateLimit(limiter, cfg.RateLimitRPM, window))
		} else {
			// No shared cache configured: fall back to a per-instance local
			// limiter rather than running unthrottled.
			perSecond := float64(cfg.RateLimitRPM) / window.Seconds()
			e.Use(middleware.LocalRateLimit(perSecond, cfg.RateLimitRPM))
		}
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	graphHandler := handlers.NewGraphHandler(service)
	runHandler := handlers.NewRunHandler(service)

	api := e.Group("", middleware.JWT(middleware.AuthConfig{
		Secret:    cfg.JWTSecret,
		SkipPaths: []string{"/health", "/metrics"},
	}))
	api.POST("/graphs", graphHandler.CreateGraph)
	api.POST("/graphs/:id/runs", runHandler.CreateRun)
	api.GET("/graphs/:id/runs", runHandler.ListRuns)
	api.GET("/runs/:id", runHandler.GetRun)
	api.GET("/runs/:id/snapshot", runHandler.GetSnapshot)

	return e
}
