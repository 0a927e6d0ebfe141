package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrihelp/agrihelp-api/internal/domain/entity"
	"github.com/agrihelp/agrihelp-api/internal/domain/repository"
)

type PredictionRepository struct {
	pool *pgxpool.Pool
}

func NewPredictionRepository(pool *pgxpool.Pool) *PredictionRepository {
	return &PredictionRepository{pool: pool}
}

func (r *PredictionRepository) Create(ctx context.Context, p *entity.Prediction) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO predictions (user_id, kind, label, confidence, success, error)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, p.UserID, string(p.Kind), p.Label, p.Confidence, p.Success, p.Error)
	return row.Scan(&p.ID, &p.CreatedAt)
}

func (r *PredictionRepository) list(ctx context.Context, q string, args ...any) ([]entity.Prediction, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]entity.Prediction, 0)
	for rows.Next() {
		var (
			p    entity.Prediction
			kind string
		)
		if err := rows.Scan(&p.ID, &p.UserID, &p.UserName, &kind, &p.Label, &p.Confidence, &p.Success, &p.Error, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Kind = entity.PredictionKind(kind)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PredictionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]entity.Prediction, error) {
	if !validUUID(userID) {
		return []entity.Prediction{}, nil
	}
	return r.list(ctx, `
		SELECT p.id, p.user_id, u.name, p.kind, p.label, p.confidence, p.success, p.error, p.created_at
		FROM predictions p JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1
		ORDER BY p.created_at DESC
		LIMIT $2
	`, userID, limit)
}

func (r *PredictionRepository) Recent(ctx context.Context, limit int) ([]entity.Prediction, error) {
	return r.list(ctx, `
		SELECT p.id, p.user_id, u.name, p.kind, p.label, p.confidence, p.success, p.error, p.created_at
		FROM predictions p JOIN users u ON u.id = p.user_id
		ORDER BY p.created_at DESC
		LIMIT $1
	`, limit)
}

func (r *PredictionRepository) CountSince(ctx context.Context, since time.Time) (int, int, error) {
	var total, ok int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*), count(*) FILTER (WHERE success)
		FROM predictions
		WHERE created_at >= $1
	`, since).Scan(&total, &ok)
	return total, ok, err
}

func (r *PredictionRepository) TopLabels(ctx context.Context, kind entity.PredictionKind, limit int) ([]entity.LabelCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT label, count(*) AS n
		FROM predictions
		WHERE kind = $1 AND success AND label <> ''
		GROUP BY label
		ORDER BY n DESC, label
		LIMIT $2
	`, string(kind), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]entity.LabelCount, 0)
	for rows.Next() {
		var lc entity.LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			return nil, err
		}
		out = append(out, lc)
	}
	return out, rows.Err()
}

func (r *PredictionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.pool.Exec(ctx, `DELETE FROM predictions WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

var _ repository.PredictionRepository = (*PredictionRepository)(nil)
