package application

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrihelp/agrihelp-api/internal/domain/entity"
	repo "github.com/agrihelp/agrihelp-api/internal/domain/repository"
	"github.com/agrihelp/agrihelp-api/internal/infrastructure/memory"
	"github.com/agrihelp/agrihelp-api/internal/infrastructure/mlclient"
)

func TestCropPredictionIsRecorded(t *testing.T) {
	ml := &fakePredictor{crop: &mlclient.CropResult{Crop: "rice", Confidence: 91.5}}
	log := memory.NewPredictionRepository()
	svc := NewPredictionService(ml, log, nil)

	res, err := svc.Crop(context.Background(), "u1", mlclient.CropRequest{Nitrogen: 90})
	require.NoError(t, err)
	assert.Equal(t, "rice", res.Crop)

	require.Len(t, log.All(), 1)
	p := log.All()[0]
	assert.Equal(t, entity.PredictionCrop, p.Kind)
	assert.Equal(t, "rice", p.Label)
	assert.True(t, p.Success)
}

// cancelAwareLog fails inserts made with a done context, like pgx does.
type cancelAwareLog struct {
	repo.PredictionRepository
}

func (l cancelAwareLog) Create(ctx context.Context, p *entity.Prediction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.PredictionRepository.Create(ctx, p)
}

func TestPredictionRecordedAfterClientDisconnect(t *testing.T) {
	ml := &fakePredictor{crop: &mlclient.CropResult{Crop: "maize", Confidence: 80}}
	log := memory.NewPredictionRepository()
	svc := NewPredictionService(ml, cancelAwareLog{log}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Crop(ctx, "u1", mlclient.CropRequest{Nitrogen: 10})
	require.NoError(t, err)

	require.Len(t, log.All(), 1)
	assert.Equal(t, "maize", log.All()[0].Label)
}

func TestPredictionFailureMapsAndIsRecorded(t *testing.T) {
	ml := &fakePredictor{err: fmt.Errorf("%w: dial tcp: refused", mlclient.ErrUnavailable)}
	log := memory.NewPredictionRepository()
	svc := NewPredictionService(ml, log, nil)

	_, err := svc.Fertilizer(context.Background(), "u1", mlclient.FertilizerRequest{Soil: "Clay", Crop: "Rice"})
	assert.ErrorIs(t, err, ErrPredictionUnavailable)

	require.Len(t, log.All(), 1)
	assert.False(t, log.All()[0].Success)
	assert.Contains(t, log.All()[0].Error, "refused")
	assert.Equal(t, entity.PredictionFertilizer, log.All()[0].Kind)
}

func TestRejectedPredictionMapsToRejected(t *testing.T) {
	ml := &fakePredictor{err: fmt.Errorf("%w: 422", mlclient.ErrRejected)}
	svc := NewPredictionService(ml, memory.NewPredictionRepository(), nil)

	_, err := svc.Crop(context.Background(), "u1", mlclient.CropRequest{})
	assert.ErrorIs(t, err, ErrPredictionRejected)
}

func TestDiseasePredictionForwardsWholeImage(t *testing.T) {
	img := pngBytes(t, 32, 32)
	ml := &fakePredictor{disease: &mlclient.DiseaseResult{Disease: "Grape - Black rot", Confidence: 88, Remedies: []string{"Prune"}}}
	log := memory.NewPredictionRepository()
	svc := NewPredictionService(ml, log, nil)

	res, err := svc.Disease(context.Background(), "u1", "leaf.png", bytes.NewReader(img))
	require.NoError(t, err)
	assert.Equal(t, "Grape - Black rot", res.Disease)
	assert.Equal(t, img, ml.gotImage)
	require.Len(t, log.All(), 1)
	assert.Equal(t, entity.PredictionDisease, log.All()[0].Kind)
}

func TestDiseasePredictionRejectsNonImage(t *testing.T) {
	ml := &fakePredictor{}
	log := memory.NewPredictionRepository()
	svc := NewPredictionService(ml, log, nil)

	_, err := svc.Disease(context.Background(), "u1", "notes.txt", strings.NewReader("just some text"))
	assert.ErrorIs(t, err, ErrInvalidImage)
	assert.Empty(t, log.All())
}

func TestHistoryReturnsOwnPredictionsNewestFirst(t *testing.T) {
	ml := &fakePredictor{crop: &mlclient.CropResult{Crop: "maize"}}
	log := memory.NewPredictionRepository()
	svc := NewPredictionService(ml, log, nil)
	ctx := context.Background()

	_, _ = svc.Crop(ctx, "u1", mlclient.CropRequest{})
	ml.crop = &mlclient.CropResult{Crop: "rice"}
	_, _ = svc.Crop(ctx, "u1", mlclient.CropRequest{})
	_, _ = svc.Crop(ctx, "u2", mlclient.CropRequest{})

	hist, err := svc.History(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "rice", hist[0].Label)
}
