package application

import (
	"context"
	"math"
	"time"

	"github.com/agrihelp/agrihelp-api/internal/domain/entity"
	repo "github.com/agrihelp/agrihelp-api/internal/domain/repository"
)

// AdminService aggregates dashboard figures.
type AdminService struct {
	Users       repo.UserRepository
	Blogs       repo.BlogRepository
	Predictions repo.PredictionRepository
}

func NewAdminService(users repo.UserRepository, blogs repo.BlogRepository, predictions repo.PredictionRepository) *AdminService {
	return &AdminService{Users: users, Blogs: blogs, Predictions: predictions}
}

type CropShare struct {
	Name        string  `json:"name"`
	Predictions int     `json:"predictions"`
	Percentage  float64 `json:"percentage"`
}

type Activity struct {
	User   string    `json:"user"`
	Action string    `json:"action"`
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

type DashboardStats struct {
	TotalUsers       int         `json:"total_users"`
	TotalBlogs       int         `json:"total_blogs"`
	PredictionsToday int         `json:"predictions_today"`
	SuccessRate      float64     `json:"success_rate"`
	TopCrops         []CropShare `json:"top_crops"`
	RecentActivity   []Activity  `json:"recent_activity"`
}

var actionNames = map[entity.PredictionKind]string{
	entity.PredictionCrop:       "Crop Prediction",
	entity.PredictionFertilizer: "Fertilizer Recommendation",
	entity.PredictionDisease:    "Disease Detection",
}

// Stats computes the dashboard as of now. "Today" starts at UTC midnight.
func (s *AdminService) Stats(ctx context.Context, now time.Time) (*DashboardStats, error) {
	users, err := s.Users.Count(ctx)
	if err != nil {
		return nil, err
	}
	blogs, err := s.Blogs.Count(ctx)
	if err != nil {
		return nil, err
	}
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	total, ok, err := s.Predictions.CountSince(ctx, midnight)
	if err != nil {
		return nil, err
	}
	top, err := s.Predictions.TopLabels(ctx, entity.PredictionCrop, 5)
	if err != nil {
		return nil, err
	}
	recent, err := s.Predictions.Recent(ctx, 10)
	if err != nil {
		return nil, err
	}

	st := &DashboardStats{
		TotalUsers:       users,
		TotalBlogs:       blogs,
		PredictionsToday: total,
		SuccessRate:      percent(ok, total),
		TopCrops:         cropShares(top),
		RecentActivity:   make([]Activity, 0, len(recent)),
	}
	for _, p := range recent {
		status := "success"
		if !p.Success {
			status = "failed"
		}
		st.RecentActivity = append(st.RecentActivity, Activity{
			User: p.UserName, Action: actionNames[p.Kind], Status: status, Time: p.CreatedAt,
		})
	}
	return st, nil
}

func cropShares(top []entity.LabelCount) []CropShare {
	sum := 0
	for _, lc := range top {
		sum += lc.Count
	}
	out := make([]CropShare, 0, len(top))
	for _, lc := range top {
		out = append(out, CropShare{Name: lc.Label, Predictions: lc.Count, Percentage: percent(lc.Count, sum)})
	}
	return out
}

// percent returns part/whole as a percentage with one decimal; 0 when whole is 0.
func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)*1000/float64(whole)) / 10
}

// ListUsers returns one page of users and the total count.
func (s *AdminService) ListUsers(ctx context.Context, page, limit int) ([]entity.User, int, error) {
	page, limit = normalizePage(page, limit, 20, 100)
	users, err := s.Users.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Users.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
