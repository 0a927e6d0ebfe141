package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agrihelp/agrihelp-api/internal/domain/entity"
	repo "github.com/agrihelp/agrihelp-api/internal/domain/repository"
)

// PredictionRepository is an in-memory prediction log.
type PredictionRepository struct {
	mu    sync.Mutex
	items []entity.Prediction
}

func NewPredictionRepository() *PredictionRepository { return &PredictionRepository{} }

func (m *PredictionRepository) Create(_ context.Context, p *entity.Prediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.NewString()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	m.items = append(m.items, *p)
	return nil
}

func (m *PredictionRepository) ListByUser(_ context.Context, userID string, limit int) ([]entity.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.Prediction, 0)
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].UserID == userID {
			out = append(out, m.items[i])
		}
	}
	return page(out, limit, 0), nil
}

func (m *PredictionRepository) Recent(_ context.Context, limit int) ([]entity.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.Prediction, 0, len(m.items))
	for i := len(m.items) - 1; i >= 0; i-- {
		out = append(out, m.items[i])
	}
	return page(out, limit, 0), nil
}

func (m *PredictionRepository) CountSince(_ context.Context, since time.Time) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total, ok := 0, 0
	for _, p := range m.items {
		if p.CreatedAt.Before(since) {
			continue
		}
		total++
		if p.Success {
			ok++
		}
	}
	return total, ok, nil
}

func (m *PredictionRepository) TopLabels(_ context.Context, kind entity.PredictionKind, limit int) ([]entity.LabelCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int{}
	for _, p := range m.items {
		if p.Kind == kind && p.Success && p.Label != "" {
			counts[p.Label]++
		}
	}
	out := make([]entity.LabelCount, 0, len(counts))
	for l, n := range counts {
		out = append(out, entity.LabelCount{Label: l, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return page(out, limit, 0), nil
}

func (m *PredictionRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.items[:0]
	var n int64
	for _, p := range m.items {
		if p.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, p)
	}
	m.items = kept
	return n, nil
}

// All returns a copy of the stored log in insertion order.
func (m *PredictionRepository) All() []entity.Prediction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entity.Prediction(nil), m.items...)
}

var _ repo.PredictionRepository = (*PredictionRepository)(nil)
