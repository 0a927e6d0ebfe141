package application

import (
	"context"
	"io"

	"github.com/agrihelp/agrihelp-api/internal/domain/entity"
	"github.com/agrihelp/agrihelp-api/internal/infrastructure/mlclient"
)

// ImageStore persists uploaded images and returns their public URL.
type ImageStore interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, objectPath string) error
}

// BlogIndex is the full-text search backend for blogs.
type BlogIndex interface {
	Index(ctx context.Context, b *entity.Blog) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, q string, size int) ([]entity.Blog, error)
}

// Publisher enqueues background jobs.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// Predictor is the ML inference service.
type Predictor interface {
	PredictCrop(ctx context.Context, in mlclient.CropRequest) (*mlclient.CropResult, error)
	PredictFertilizer(ctx context.Context, in mlclient.FertilizerRequest) (*mlclient.FertilizerResult, error)
	PredictDisease(ctx context.Context, filename string, image io.Reader) (*mlclient.DiseaseResult, error)
	Health(ctx context.Context) error
}
