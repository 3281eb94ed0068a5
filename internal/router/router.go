package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/rehab-api/internal/handler"
	"github.com/jwalitptl/rehab-api/internal/middleware"
)

// Handler registers a group of routes.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimit  rate.Limit
	RateBurst  int
	CORSConfig middleware.CORSConfig
	Registry   *prometheus.Registry
}

type Router struct {
	engine  *gin.Engine
	metrics *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

func New(config Config, handlers ...Handler) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	metrics := newRouterMetrics(config.Registry)
	r := &Router{
		engine:  engine,
		metrics: metrics,
	}

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.CORS(config.CORSConfig),
		rateLimiter.RateLimit(),
		r.instrument(),
	)

	engine.GET("/health", handler.Health)
	if config.Registry != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(config.Registry, promhttp.HandlerOpts{})))
	}

	api := engine.Group("/api/v1")
	for _, h := range handlers {
		h.RegisterRoutes(api)
	}

	return r
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func newRouterMetrics(registry *prometheus.Registry) *routerMetrics {
	m := &routerMetrics{
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method", "path"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
	}
	if registry != nil {
		registry.MustRegister(m.requestDuration, m.requestTotal)
	}
	return m
}

func (r *Router) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path).
			Observe(time.Since(start).Seconds())
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
