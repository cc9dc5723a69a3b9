package mockportal

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/bizhub/portal-client/internal/config"
	"github.com/bizhub/portal-client/internal/sessions"
	"github.com/bizhub/portal-client/pkg/metrics"
	"github.com/bizhub/portal-client/pkg/middleware"
)

var startTime = time.Now()

// Deps are the assembled collaborators for one mock backend instance.
type Deps struct {
	Dir      *Directory
	Sessions *sessions.Service
	Redis    *redis.Client // optional, enables the Redis rate limiter
}

// NewDeps builds the default wiring: seeded directory, memory session
// repo unless a Redis client is supplied.
func NewDeps(redisClient *redis.Client) Deps {
	var repo sessions.Repository
	if redisClient != nil {
		repo = sessions.NewRedisRepository(redisClient, "")
	} else {
		repo = sessions.NewMemoryRepository()
	}
	return Deps{
		Dir:      NewDirectory(),
		Sessions: sessions.NewService(repo),
		Redis:    redisClient,
	}
}

// Router assembles the gin engine: CORS, recovery, optional rate
// limiting, health/ready/metrics, and the portal API under /api/v1.
func Router(cfg *config.Config, deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// permissive CORS for dev; the portal frontend runs on another origin
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && deps.Redis != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(deps.Redis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready", "uptime": time.Since(startTime).String()})
	})

	reg := prometheus.NewRegistry()
	metrics.RegisterCollectors(reg)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := r.Group("/api/v1")
	authHandler := NewAuthHandler(cfg, deps.Dir, deps.Sessions)
	authHandler.Register(api)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(cfg.Mock.JWTSecret))
	authHandler.RegisterProtected(protected)
	NewEntityHandler(deps.Dir).Register(protected)

	return r
}
