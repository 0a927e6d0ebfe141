package application

import (
	"bytes"
	"context"
	"errors"
	"expvar"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"

	"github.com/agrihelp/agrihelp-api/internal/domain/entity"
	repo "github.com/agrihelp/agrihelp-api/internal/domain/repository"
	"github.com/agrihelp/agrihelp-api/internal/infrastructure/mlclient"
)

// predictionCounts is published on /debug/vars as "<kind>_ok" / "<kind>_failed".
var predictionCounts = expvar.NewMap("predictions")

// PredictionService forwards prediction requests to the ML service and
// records every attempt.
type PredictionService struct {
	ML     Predictor
	Repo   repo.PredictionRepository
	Logger *logrus.Logger
}

func NewPredictionService(ml Predictor, r repo.PredictionRepository, logger *logrus.Logger) *PredictionService {
	return &PredictionService{ML: ml, Repo: r, Logger: logger}
}

func (s *PredictionService) Crop(ctx context.Context, userID string, in mlclient.CropRequest) (*mlclient.CropResult, error) {
	res, err := s.ML.PredictCrop(ctx, in)
	if err != nil {
		s.record(ctx, userID, entity.PredictionCrop, "", 0, err)
		return nil, mapMLError(err)
	}
	s.record(ctx, userID, entity.PredictionCrop, res.Crop, res.Confidence, nil)
	return res, nil
}

func (s *PredictionService) Fertilizer(ctx context.Context, userID string, in mlclient.FertilizerRequest) (*mlclient.FertilizerResult, error) {
	res, err := s.ML.PredictFertilizer(ctx, in)
	if err != nil {
		s.record(ctx, userID, entity.PredictionFertilizer, "", 0, err)
		return nil, mapMLError(err)
	}
	s.record(ctx, userID, entity.PredictionFertilizer, res.Fertilizer, res.Confidence, nil)
	return res, nil
}

// Disease checks that image holds a picture before sending it on.
func (s *PredictionService) Disease(ctx context.Context, userID, filename string, image io.Reader) (*mlclient.DiseaseResult, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(image, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	head = head[:n]
	if n == 0 || !strings.HasPrefix(mimetype.Detect(head).String(), "image/") {
		return nil, ErrInvalidImage
	}

	res, err := s.ML.PredictDisease(ctx, filename, io.MultiReader(bytes.NewReader(head), image))
	if err != nil {
		s.record(ctx, userID, entity.PredictionDisease, "", 0, err)
		return nil, mapMLError(err)
	}
	s.record(ctx, userID, entity.PredictionDisease, res.Disease, res.Confidence, nil)
	return res, nil
}

// History returns the caller's most recent predictions.
func (s *PredictionService) History(ctx context.Context, userID string, limit int) ([]entity.Prediction, error) {
	_, limit = normalizePage(1, limit, 20, 100)
	return s.Repo.ListByUser(ctx, userID, limit)
}

func (s *PredictionService) Health(ctx context.Context) error {
	if err := s.ML.Health(ctx); err != nil {
		return mapMLError(err)
	}
	return nil
}

const recordTimeout = 5 * time.Second

// record stores the attempt; a failed insert never fails the request. The
// insert outlives a client that already hung up.
func (s *PredictionService) record(ctx context.Context, userID string, kind entity.PredictionKind, label string, confidence float64, mlErr error) {
	p := &entity.Prediction{UserID: userID, Kind: kind, Label: label, Confidence: confidence, Success: mlErr == nil}
	if mlErr == nil {
		predictionCounts.Add(string(kind)+"_ok", 1)
	} else {
		predictionCounts.Add(string(kind)+"_failed", 1)
		p.Error = mlErr.Error()
		if s.Logger != nil {
			s.Logger.WithError(mlErr).WithFields(logrus.Fields{"user_id": userID, "kind": kind}).Warn("prediction failed")
		}
	}
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := s.Repo.Create(logCtx, p); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("kind", kind).Error("record prediction failed")
	}
}

func mapMLError(err error) error {
	if errors.Is(err, mlclient.ErrRejected) {
		return ErrPredictionRejected
	}
	return ErrPredictionUnavailable
}
