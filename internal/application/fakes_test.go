package application

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/agrihelp/agrihelp-api/internal/infrastructure/mlclient"
)

type fakeImages struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeImages() *fakeImages { return &fakeImages{objects: map[string][]byte{}} }

func (f *fakeImages) Upload(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[objectPath] = b
	return "https://storage.test/" + objectPath, nil
}

func (f *fakeImages) Delete(_ context.Context, objectPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, objectPath)
	f.deleted = append(f.deleted, objectPath)
	return nil
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []any
}

func (f *fakePublisher) PublishJSON(_ context.Context, body any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, body)
	return nil
}

type fakePredictor struct {
	crop       *mlclient.CropResult
	fertilizer *mlclient.FertilizerResult
	disease    *mlclient.DiseaseResult
	err        error
	gotImage   []byte
}

func (f *fakePredictor) PredictCrop(context.Context, mlclient.CropRequest) (*mlclient.CropResult, error) {
	return f.crop, f.err
}

func (f *fakePredictor) PredictFertilizer(context.Context, mlclient.FertilizerRequest) (*mlclient.FertilizerResult, error) {
	return f.fertilizer, f.err
}

func (f *fakePredictor) PredictDisease(_ context.Context, _ string, image io.Reader) (*mlclient.DiseaseResult, error) {
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, image)
	f.gotImage = buf.Bytes()
	return f.disease, f.err
}

func (f *fakePredictor) Health(context.Context) error { return f.err }
