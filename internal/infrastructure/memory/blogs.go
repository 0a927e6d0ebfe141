package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agrihelp/agrihelp-api/internal/domain/entity"
	repo "github.com/agrihelp/agrihelp-api/internal/domain/repository"
)

// BlogRepository keeps blogs in memory. Creation order stands in for created_at.
type BlogRepository struct {
	mu    sync.Mutex
	blogs map[string]*entity.Blog
	seq   int
}

func NewBlogRepository() *BlogRepository { return &BlogRepository{blogs: map[string]*entity.Blog{}} }

func (m *BlogRepository) Create(_ context.Context, b *entity.Blog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	b.ID = uuid.NewString()
	b.CreatedAt = time.Unix(int64(m.seq), 0)
	b.UpdatedAt = b.CreatedAt
	cp := *b
	m.blogs[b.ID] = &cp
	return nil
}

func (m *BlogRepository) GetByID(_ context.Context, id string) (*entity.Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.blogs[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, repo.ErrNotFound
}

func (m *BlogRepository) List(_ context.Context, flt entity.BlogFilter) ([]entity.Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.Blog, 0)
	for _, b := range m.blogs {
		if flt.UserID != "" && b.UserID != flt.UserID {
			continue
		}
		if flt.Tag != "" && !contains(b.Tags, flt.Tag) {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, flt.Limit, flt.Offset), nil
}

func (m *BlogRepository) Search(ctx context.Context, q string, limit int) ([]entity.Blog, error) {
	all, _ := m.List(ctx, entity.BlogFilter{})
	out := make([]entity.Blog, 0)
	for _, b := range all {
		if strings.Contains(strings.ToLower(b.Title+" "+b.Content), strings.ToLower(q)) {
			out = append(out, b)
		}
	}
	return page(out, limit, 0), nil
}

func (m *BlogRepository) Update(_ context.Context, b *entity.Blog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.blogs[b.ID]
	if !ok || old.UserID != b.UserID {
		return repo.ErrNotFound
	}
	cp := *b
	m.blogs[b.ID] = &cp
	return nil
}

func (m *BlogRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blogs[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.blogs, id)
	return nil
}

func (m *BlogRepository) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blogs), nil
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if strings.EqualFold(x, s) {
			return true
		}
	}
	return false
}

var _ repo.BlogRepository = (*BlogRepository)(nil)
