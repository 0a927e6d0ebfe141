package repository

import (
	"context"
	"time"

	"github.com/agrihelp/agrihelp-api/internal/domain/entity"
)

// PredictionRepository stores the prediction log.
type PredictionRepository interface {
	Create(ctx context.Context, p *entity.Prediction) error
	ListByUser(ctx context.Context, userID string, limit int) ([]entity.Prediction, error)
	Recent(ctx context.Context, limit int) ([]entity.Prediction, error)
	CountSince(ctx context.Context, since time.Time) (total int, succeeded int, err error)
	TopLabels(ctx context.Context, kind entity.PredictionKind, limit int) ([]entity.LabelCount, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
