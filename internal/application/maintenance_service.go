package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	repo "github.com/agrihelp/agrihelp-api/internal/domain/repository"
)

// MaintenanceService runs periodic housekeeping jobs.
type MaintenanceService struct {
	Predictions repo.PredictionRepository
	Retention   time.Duration
	Logger      *logrus.Logger
}

func NewMaintenanceService(predictions repo.PredictionRepository, retention time.Duration, logger *logrus.Logger) *MaintenanceService {
	return &MaintenanceService{Predictions: predictions, Retention: retention, Logger: logger}
}

// PrunePredictions deletes prediction logs older than the retention window.
func (s *MaintenanceService) PrunePredictions(ctx context.Context, now time.Time) (int64, error) {
	if s.Retention <= 0 {
		return 0, nil
	}
	n, err := s.Predictions.DeleteOlderThan(ctx, now.Add(-s.Retention))
	if err != nil {
		return 0, err
	}
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"deleted": n, "retention": s.Retention.String()}).Info("pruned prediction logs")
	}
	return n, nil
}
