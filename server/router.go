// Package server 组装 HTTP 路由与中间件
package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rushteam/jembertrip/config"
	"github.com/rushteam/jembertrip/server/handler"
	"github.com/rushteam/jembertrip/server/middleware"
)

// Router HTTP 路由器
type Router struct {
	engine *gin.Engine
	cfg    *config.Config
	holder *handler.ServiceHolder
	deps   map[string]handler.Pinger
}

// NewRouter 创建路由器。holder 在启动完成后安装推荐服务，之前推荐路由返回 503。
func NewRouter(cfg *config.Config, holder *handler.ServiceHolder, deps map[string]handler.Pinger) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine: gin.New(),
		cfg:    cfg,
		holder: holder,
		deps:   deps,
	}
	r.setupMiddleware()
	r.setupRoutes()
	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
	}))

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics())
	}
}

func (r *Router) setupRoutes() {
	health := handler.NewHealthHandler(r.holder, r.cfg.App.Version, r.deps)
	r.engine.GET("/health", health.Health)
	r.engine.GET("/ready", health.Ready)

	if r.cfg.Observability.Metrics.Enabled {
		path := r.cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.engine.GET(path, gin.WrapH(promhttp.Handler()))
	}

	rec := handler.NewRecommendHandler(r.holder)
	v1 := r.engine.Group("/api/v1")
	if rl := r.cfg.Server.HTTP.RateLimit; rl.Enabled && rl.RPS > 0 {
		v1.Use(middleware.RateLimit(middleware.NewRateLimiter(rl.RPS, rl.Burst)))
	}
	{
		v1.POST("/recommendations", rec.Recommend)
		v1.GET("/destinations/all", rec.All)
		v1.GET("/similar/:name", rec.Similar)
	}
}
