package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/agrihelp/agrihelp-api/internal/interface/http"
	"github.com/agrihelp/agrihelp-api/internal/interface/middleware"
	"github.com/agrihelp/agrihelp-api/pkg/helpers"
)

// BlogModule wires /blogs. Reads are public, writes need a token and the
// service enforces ownership.
type BlogModule struct {
	Handler *handlers.BlogHandler
	JWT     *helpers.JWTManager
	Redis   *redis.Client
}

func NewBlogModule(h *handlers.BlogHandler, jwt *helpers.JWTManager, rdb *redis.Client) *BlogModule {
	return &BlogModule{Handler: h, JWT: jwt, Redis: rdb}
}

func (m *BlogModule) Register(rg *gin.RouterGroup) {
	blogs := rg.Group("/blogs")
	protect := middleware.Protect(m.JWT, m.Redis)
	writeLimiter := middleware.RateLimit(m.Redis, 30, time.Minute, middleware.KeyByUserID(), nil)

	blogs.GET("", m.Handler.List)
	blogs.GET("/search", m.Handler.Search)
	blogs.GET("/feed.rss", m.Handler.Feed)
	blogs.GET("/mine", protect, m.Handler.Mine)
	blogs.GET("/:id", m.Handler.Get)

	blogs.POST("", protect, writeLimiter, m.Handler.Create)
	blogs.PUT("/:id", protect, writeLimiter, m.Handler.Update)
	blogs.DELETE("/:id", protect, writeLimiter, m.Handler.Delete)
}
