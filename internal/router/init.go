package router

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/agrihelp/agrihelp-api/config"
	"github.com/agrihelp/agrihelp-api/internal/application"
	"github.com/agrihelp/agrihelp-api/internal/container"
	repo "github.com/agrihelp/agrihelp-api/internal/domain/repository"
	pginfra "github.com/agrihelp/agrihelp-api/internal/infrastructure/postgres"
	"github.com/agrihelp/agrihelp-api/internal/infrastructure/search"
	"github.com/agrihelp/agrihelp-api/internal/infrastructure/storage"
	handlers "github.com/agrihelp/agrihelp-api/internal/interface/http"
	"github.com/agrihelp/agrihelp-api/internal/router/modules"
	"github.com/agrihelp/agrihelp-api/pkg/helpers"
)

// Deps is everything the HTTP modules need. Optional collaborators may be nil.
type Deps struct {
	Cfg    *config.Config
	Logger *logrus.Logger
	JWT    *helpers.JWTManager
	Redis  *redis.Client

	Users       repo.UserRepository
	Blogs       repo.BlogRepository
	Predictions repo.PredictionRepository

	Images    application.ImageStore
	BlogIndex application.BlogIndex
	Mail      application.Publisher
	ML        application.Predictor

	Health map[string]handlers.HealthCheck
}

// DepsFromContainer builds Deps from the process-wide singletons.
func DepsFromContainer() Deps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()

	d := Deps{
		Cfg:         cfg,
		Logger:      logger,
		JWT:         container.GetJWT(),
		Redis:       container.GetRedis(),
		Users:       pginfra.NewUserRepository(pool),
		Blogs:       pginfra.NewBlogRepository(pool),
		Predictions: pginfra.NewPredictionRepository(pool),
		Health: map[string]handlers.HealthCheck{
			"postgres": pool.Ping,
		},
	}

	// typed nils must not leak into the interfaces
	if gcs := container.GetGCS(); gcs != nil {
		if store, err := storage.NewGCSImageStore(gcs, cfg.GCSBucket); err == nil {
			d.Images = store
		} else {
			logger.WithError(err).Warn("image uploads disabled")
		}
	}
	if es := container.GetES(); es != nil {
		d.BlogIndex = search.NewBlogIndex(es, cfg.ESBlogsIndex, logger)
	}
	if pub := container.GetRabbitPub(); pub != nil {
		d.Mail = pub
	}
	if ml := container.GetML(); ml != nil {
		d.ML = ml
	}
	if d.Redis != nil {
		rdb := d.Redis
		d.Health["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return d
}

// InitModules builds services and handlers from d and registers every module.
func InitModules(r *Registry, d Deps) {
	authSvc := application.NewAuthService(d.Users, d.JWT, d.Redis, d.Mail, d.Cfg, d.Logger)
	blogSvc := application.NewBlogService(d.Blogs, d.Users, d.Images, d.BlogIndex, d.Redis, d.Mail, d.Cfg, d.Logger)
	predSvc := application.NewPredictionService(d.ML, d.Predictions, d.Logger)
	adminSvc := application.NewAdminService(d.Users, d.Blogs, d.Predictions)

	r.Add(modules.NewUserModule(handlers.NewUserHandler(authSvc, d.Logger, d.Cfg.CookieDomain, d.Cfg.CookieSecure), d.JWT, d.Redis))
	r.Add(modules.NewBlogModule(handlers.NewBlogHandler(blogSvc, d.Cfg, d.Logger), d.JWT, d.Redis))
	r.Add(modules.NewPredictionModule(handlers.NewPredictionHandler(predSvc, d.Cfg, d.Logger), d.JWT, d.Redis))
	r.Add(modules.NewAdminModule(handlers.NewAdminHandler(adminSvc, d.Logger), d.JWT, d.Redis))
	r.Add(modules.NewDebugModule(handlers.NewHealthHandler(d.Health), d.Redis, d.Cfg.DebugMetricsEnabled))
}
