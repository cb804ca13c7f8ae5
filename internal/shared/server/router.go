package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"steam-insights-backend/internal/analyses"
	"steam-insights-backend/internal/blueocean"
	"steam-insights-backend/internal/cache"
	"steam-insights-backend/internal/services/health"
	"steam-insights-backend/internal/shared/config"
	"steam-insights-backend/internal/shared/metrics"
	"steam-insights-backend/internal/shared/server/middleware"
	"steam-insights-backend/internal/shared/server/respond"
	"steam-insights-backend/internal/storedoctor"
)

const (
	rateGroupDefault = "DEFAULT"
	rateGroupLLM     = "LLM"
)

// RouterDeps are the handlers mounted by NewRouter. Nil handlers are skipped.
type RouterDeps struct {
	Config      config.Config
	Health      *health.Service
	Cache       *cache.Handler
	StoreDoctor *storedoctor.Handler
	BlueOcean   *blueocean.Handler
	Analyses    *analyses.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	r.GET("/healthz", func(c *gin.Context) {
		status := deps.Health.Status(c.Request.Context())
		code := http.StatusOK
		if !status.OK {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})
	r.GET("/metrics", metrics.Handler())

	limiter := middleware.NewRateLimiter(nil)
	rules := map[string]middleware.RateLimitRule{
		rateGroupDefault: {Rate: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst},
		rateGroupLLM:     {Rate: cfg.LLMRateLimitRPS, Burst: cfg.LLMRateLimitBurst},
	}

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Rules:        rules,
		DefaultGroup: rateGroupDefault,
		Limiter:      limiter,
	}))
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	if deps.Cache != nil {
		deps.Cache.RegisterRoutes(api)
	}
	if deps.BlueOcean != nil {
		deps.BlueOcean.RegisterRoutes(api)
	}
	if deps.Analyses != nil {
		deps.Analyses.RegisterRoutes(api)
	}

	// Routes that call the model draw from a second, smaller bucket.
	llmRoutes := api.Group("")
	llmRoutes.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Rules:        rules,
		DefaultGroup: rateGroupLLM,
		Limiter:      limiter,
	}))
	if deps.StoreDoctor != nil {
		deps.StoreDoctor.RegisterRoutes(llmRoutes)
	}
	if deps.Analyses != nil {
		deps.Analyses.RegisterLLMRoutes(llmRoutes)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
