package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/agrihelp/agrihelp-api/internal/interface/http"
	"github.com/agrihelp/agrihelp-api/internal/interface/middleware"
	"github.com/agrihelp/agrihelp-api/pkg/helpers"
)

// PredictionModule wires /predict. Inference calls are limited per user;
// callers on private networks bypass the limiter.
type PredictionModule struct {
	Handler *handlers.PredictionHandler
	JWT     *helpers.JWTManager
	Redis   *redis.Client
}

func NewPredictionModule(h *handlers.PredictionHandler, jwt *helpers.JWTManager, rdb *redis.Client) *PredictionModule {
	return &PredictionModule{Handler: h, JWT: jwt, Redis: rdb}
}

func (m *PredictionModule) Register(rg *gin.RouterGroup) {
	predict := rg.Group("/predict")
	predict.GET("/health", m.Handler.Health)

	auth := predict.Group("")
	auth.Use(middleware.Protect(m.JWT, m.Redis))
	infer := middleware.RateLimit(m.Redis, 30, time.Minute, middleware.KeyByUserID(), middleware.AllowPrivateIP())
	{
		auth.POST("/crop", infer, m.Handler.Crop)
		auth.POST("/fertilizer", infer, m.Handler.Fertilizer)
		auth.POST("/disease", infer, m.Handler.Disease)
		auth.GET("/history", m.Handler.History)
	}
}
