package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrihelp/agrihelp-api/internal/domain/entity"
	"github.com/agrihelp/agrihelp-api/internal/domain/repository"
)

type BlogRepository struct {
	pool *pgxpool.Pool
}

func NewBlogRepository(pool *pgxpool.Pool) *BlogRepository {
	return &BlogRepository{pool: pool}
}

const blogColumns = `id, user_id, username, title, subtitle, content, slug, image_url, image_object,
	tags, read_time_minutes, created_at, updated_at`

func scanBlog(row pgx.Row) (*entity.Blog, error) {
	b := &entity.Blog{}
	err := row.Scan(&b.ID, &b.UserID, &b.Username, &b.Title, &b.Subtitle, &b.Content, &b.Slug,
		&b.ImageURL, &b.ImageObject, &b.Tags, &b.ReadTimeMinutes, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
	return b, nil
}

func collectBlogs(rows pgx.Rows) ([]entity.Blog, error) {
	defer rows.Close()
	out := make([]entity.Blog, 0)
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *BlogRepository) Create(ctx context.Context, b *entity.Blog) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO blogs (user_id, username, title, subtitle, content, slug, image_url, image_object, tags, read_time_minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`, b.UserID, b.Username, b.Title, b.Subtitle, b.Content, b.Slug, b.ImageURL, b.ImageObject, b.Tags, b.ReadTimeMinutes)
	return row.Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (r *BlogRepository) GetByID(ctx context.Context, id string) (*entity.Blog, error) {
	if !validUUID(id) {
		return nil, repository.ErrNotFound
	}
	return scanBlog(r.pool.QueryRow(ctx, `SELECT `+blogColumns+` FROM blogs WHERE id = $1`, id))
}

func (r *BlogRepository) List(ctx context.Context, f entity.BlogFilter) ([]entity.Blog, error) {
	var (
		where []string
		args  []any
	)
	if f.Tag != "" {
		// tags keep their display case; the filter arrives lower-cased
		args = append(args, strings.ToLower(f.Tag))
		where = append(where, "EXISTS (SELECT 1 FROM unnest(tags) t WHERE lower(t) = $"+strconv.Itoa(len(args))+")")
	}
	if f.UserID != "" {
		if !validUUID(f.UserID) {
			return []entity.Blog{}, nil
		}
		args = append(args, f.UserID)
		where = append(where, "user_id = $"+strconv.Itoa(len(args)))
	}
	q := `SELECT ` + blogColumns + ` FROM blogs`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		q += " LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collectBlogs(rows)
}

// Search is the database fallback used when no search index is configured.
func (r *BlogRepository) Search(ctx context.Context, q string, limit int) ([]entity.Blog, error) {
	pattern := "%" + strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(q) + "%"
	rows, err := r.pool.Query(ctx, `
		SELECT `+blogColumns+` FROM blogs
		WHERE title ILIKE $1 OR subtitle ILIKE $1 OR content ILIKE $1
		   OR EXISTS (SELECT 1 FROM unnest(tags) t WHERE t ILIKE $1)
		ORDER BY created_at DESC
		LIMIT $2
	`, pattern, limit)
	if err != nil {
		return nil, err
	}
	return collectBlogs(rows)
}

func (r *BlogRepository) Update(ctx context.Context, b *entity.Blog) error {
	b.UpdatedAt = time.Now()

	res, err := r.pool.Exec(ctx, `
		UPDATE blogs
		SET title = $1, subtitle = $2, content = $3, slug = $4, image_url = $5, image_object = $6,
		    tags = $7, read_time_minutes = $8, updated_at = $9
		WHERE id = $10 AND user_id = $11
	`, b.Title, b.Subtitle, b.Content, b.Slug, b.ImageURL, b.ImageObject, b.Tags, b.ReadTimeMinutes, b.UpdatedAt, b.ID, b.UserID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *BlogRepository) Delete(ctx context.Context, id string) error {
	if !validUUID(id) {
		return repository.ErrNotFound
	}
	res, err := r.pool.Exec(ctx, `DELETE FROM blogs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *BlogRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM blogs`).Scan(&n)
	return n, err
}

var _ repository.BlogRepository = (*BlogRepository)(nil)
