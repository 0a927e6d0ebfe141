package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/agrihelp/agrihelp-api/internal/interface/http"
	"github.com/agrihelp/agrihelp-api/internal/interface/middleware"
	"github.com/agrihelp/agrihelp-api/pkg/helpers"
)

type AdminModule struct {
	Handler *handlers.AdminHandler
	JWT     *helpers.JWTManager
	Redis   *redis.Client
}

func NewAdminModule(h *handlers.AdminHandler, jwt *helpers.JWTManager, rdb *redis.Client) *AdminModule {
	return &AdminModule{Handler: h, JWT: jwt, Redis: rdb}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	admin.Use(middleware.Protect(m.JWT, m.Redis), middleware.RequireAdmin())
	{
		admin.GET("/stats", m.Handler.Stats)
		admin.GET("/users", m.Handler.Users)
	}
}
