package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/agrihelp/agrihelp-api/internal/interface/http"
	"github.com/agrihelp/agrihelp-api/internal/interface/middleware"
)

// DebugModule exposes /healthz and, when enabled, the expvar metrics at /debug/vars.
type DebugModule struct {
	Health  *handlers.HealthHandler
	Redis   *redis.Client
	Metrics bool
}

func NewDebugModule(h *handlers.HealthHandler, rdb *redis.Client, metrics bool) *DebugModule {
	return &DebugModule{Health: h, Redis: rdb, Metrics: metrics}
}

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	rg.GET("/healthz", m.Health.Healthz)
	if m.Metrics {
		rl := middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP())
		rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
	}
}
