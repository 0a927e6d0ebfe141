package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/agrihelp/agrihelp-api/config"
	"github.com/agrihelp/agrihelp-api/internal/domain/entity"
	repo "github.com/agrihelp/agrihelp-api/internal/domain/repository"
	"github.com/agrihelp/agrihelp-api/pkg/helpers"
	"github.com/agrihelp/agrihelp-api/pkg/mailer"
	mailtpl "github.com/agrihelp/agrihelp-api/pkg/mailer/templates"
)

const (
	blogCacheVersionKey = "blogs:list:version"
	maxTags             = 10
	maxTagLen           = 32
)

// BlogService owns blog CRUD, cover images, caching and search.
type BlogService struct {
	Repo   repo.BlogRepository
	Users  repo.UserRepository
	Images ImageStore
	Index  BlogIndex
	Redis  *redis.Client
	Mail   Publisher
	Cfg    *config.Config
	Logger *logrus.Logger
}

func NewBlogService(r repo.BlogRepository, users repo.UserRepository, images ImageStore, index BlogIndex, rdb *redis.Client, mail Publisher, cfg *config.Config, logger *logrus.Logger) *BlogService {
	return &BlogService{Repo: r, Users: users, Images: images, Index: index, Redis: rdb, Mail: mail, Cfg: cfg, Logger: logger}
}

// ImageUpload is a cover image received from a client.
type ImageUpload struct {
	Filename string
	Reader   io.Reader
}

type BlogInput struct {
	Title    string
	Subtitle string
	Content  string
	Tags     []string // nil keeps existing tags on update
	ImageURL string
	Image    *ImageUpload
}

type ListBlogsInput struct {
	Tag   string
	Page  int
	Limit int
}

func (s *BlogService) List(ctx context.Context, in ListBlogsInput) ([]entity.Blog, error) {
	page, limit := normalizePage(in.Page, in.Limit, 12, 50)
	tag := strings.ToLower(strings.TrimSpace(in.Tag))

	key := ""
	if s.Redis != nil {
		ver, err := s.Redis.Get(ctx, blogCacheVersionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			s.warn("blog cache version read failed", err, nil)
		} else {
			key = fmt.Sprintf("blogs:list:v%d:%s:%d:%d", ver, tag, page, limit)
			var cached []entity.Blog
			if ok, err := helpers.RedisGetJSON(ctx, s.Redis, key, &cached); err == nil && ok {
				return cached, nil
			}
		}
	}

	blogs, err := s.Repo.List(ctx, entity.BlogFilter{Tag: tag, Limit: limit, Offset: (page - 1) * limit})
	if err != nil {
		return nil, err
	}
	if key != "" {
		if err := helpers.RedisSetJSON(ctx, s.Redis, key, blogs, s.cacheTTL()); err != nil {
			s.warn("blog cache write failed", err, logrus.Fields{"key": key})
		}
	}
	return blogs, nil
}

func (s *BlogService) Get(ctx context.Context, id string) (*entity.Blog, error) {
	b, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrBlogNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Mine lists every blog owned by userID.
func (s *BlogService) Mine(ctx context.Context, userID string) ([]entity.Blog, error) {
	return s.Repo.List(ctx, entity.BlogFilter{UserID: userID, Limit: 100})
}

func (s *BlogService) Create(ctx context.Context, userID string, in BlogInput) (*entity.Blog, error) {
	if in.Image == nil && strings.TrimSpace(in.ImageURL) == "" {
		return nil, ErrImageRequired
	}
	author, err := s.Users.GetByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	b := &entity.Blog{
		UserID:   userID,
		Username: author.Name,
		Title:    plainText(in.Title),
		Subtitle: plainText(in.Subtitle),
		Content:  ugcPolicy.Sanitize(in.Content),
		Tags:     normalizeTags(in.Tags),
		ImageURL: strings.TrimSpace(in.ImageURL),
	}
	if err := checkText(b.Title, b.Content); err != nil {
		return nil, err
	}
	b.Slug = makeSlug(b.Title)
	b.ReadTimeMinutes = ReadTime(b.Content)

	if in.Image != nil {
		url, object, err := s.storeImage(ctx, userID, in.Image)
		if err != nil {
			return nil, err
		}
		b.ImageURL, b.ImageObject = url, object
	}

	if err := s.Repo.Create(ctx, b); err != nil {
		s.removeImage(ctx, b.ImageObject)
		return nil, err
	}

	s.afterWrite(ctx, b)
	s.enqueuePublished(ctx, author, b)
	return b, nil
}

// Update applies the non-empty fields of in to a blog owned by userID.
func (s *BlogService) Update(ctx context.Context, userID, id string, in BlogInput) (*entity.Blog, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.OwnedBy(userID) {
		return nil, ErrNotOwner
	}

	// blank means keep; markup that sanitizes to nothing is rejected
	if strings.TrimSpace(in.Title) != "" {
		t := plainText(in.Title)
		if t == "" {
			return nil, ErrTitleRequired
		}
		b.Title = t
		b.Slug = makeSlug(t)
	}
	if st := plainText(in.Subtitle); st != "" {
		b.Subtitle = st
	}
	if strings.TrimSpace(in.Content) != "" {
		content := ugcPolicy.Sanitize(in.Content)
		if err := checkText(b.Title, content); err != nil {
			return nil, err
		}
		b.Content = content
		b.ReadTimeMinutes = ReadTime(b.Content)
	}
	if in.Tags != nil {
		b.Tags = normalizeTags(in.Tags)
	}

	oldObject := b.ImageObject
	switch {
	case in.Image != nil:
		url, object, err := s.storeImage(ctx, userID, in.Image)
		if err != nil {
			return nil, err
		}
		b.ImageURL, b.ImageObject = url, object
	case strings.TrimSpace(in.ImageURL) != "":
		b.ImageURL, b.ImageObject = strings.TrimSpace(in.ImageURL), ""
	}

	if err := s.Repo.Update(ctx, b); err != nil {
		if b.ImageObject != oldObject {
			s.removeImage(ctx, b.ImageObject)
		}
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrBlogNotFound
		}
		return nil, err
	}
	if b.ImageObject != oldObject {
		s.removeImage(ctx, oldObject)
	}

	s.afterWrite(ctx, b)
	return b, nil
}

func (s *BlogService) Delete(ctx context.Context, userID, id string) error {
	b, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !b.OwnedBy(userID) {
		return ErrNotOwner
	}
	if err := s.Repo.Delete(ctx, b.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrBlogNotFound
		}
		return err
	}

	s.removeImage(ctx, b.ImageObject)
	if s.Index != nil {
		if err := s.Index.Delete(ctx, b.ID); err != nil {
			s.warn("es delete failed", err, logrus.Fields{"blog_id": b.ID})
		}
	}
	s.invalidate(ctx)
	return nil
}

// Search uses the search index when present and Postgres otherwise.
func (s *BlogService) Search(ctx context.Context, q string, limit int) ([]entity.Blog, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, ErrEmptyQuery
	}
	_, limit = normalizePage(1, limit, 10, 50)
	if s.Index != nil {
		blogs, err := s.Index.Search(ctx, q, limit)
		if err == nil {
			return blogs, nil
		}
		s.warn("es search failed, falling back to postgres", err, nil)
	}
	return s.Repo.Search(ctx, q, limit)
}

// Latest returns the newest blogs for the RSS feed.
func (s *BlogService) Latest(ctx context.Context, n int) ([]entity.Blog, error) {
	return s.List(ctx, ListBlogsInput{Page: 1, Limit: n})
}

func (s *BlogService) storeImage(ctx context.Context, userID string, up *ImageUpload) (string, string, error) {
	if s.Images == nil {
		return "", "", ErrImageStoreMissing
	}
	maxWidth, maxPixels := 0, 0
	if s.Cfg != nil {
		maxWidth, maxPixels = s.Cfg.MaxImageWidth, s.Cfg.MaxImagePixels
	}
	img, err := helpers.ProcessImage(up.Reader, maxWidth, maxPixels)
	if err != nil {
		if errors.Is(err, helpers.ErrImageTooLarge) {
			return "", "", ErrImageDimensions
		}
		if errors.Is(err, helpers.ErrUnsupportedImage) {
			return "", "", ErrInvalidImage
		}
		return "", "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	object := "blogs/" + userID + "/" + uuid.NewString() + ".jpg"
	url, err := s.Images.Upload(ctx, object, img.ContentType, bytes.NewReader(img.Data))
	if err != nil {
		return "", "", fmt.Errorf("upload image: %w", err)
	}
	return url, object, nil
}

// removeImage deletes an uploaded object; failures are only logged.
func (s *BlogService) removeImage(ctx context.Context, object string) {
	if object == "" || s.Images == nil {
		return
	}
	if err := s.Images.Delete(ctx, object); err != nil {
		s.warn("delete image failed", err, logrus.Fields{"object": object})
	}
}

func (s *BlogService) afterWrite(ctx context.Context, b *entity.Blog) {
	if s.Index != nil {
		if err := s.Index.Index(ctx, b); err != nil {
			s.warn("es index failed", err, logrus.Fields{"blog_id": b.ID})
		}
	}
	s.invalidate(ctx)
}

// invalidate bumps the list cache version so every cached page goes stale.
func (s *BlogService) invalidate(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Incr(ctx, blogCacheVersionKey).Err(); err != nil {
		s.warn("blog cache invalidate failed", err, nil)
	}
}

func (s *BlogService) enqueuePublished(ctx context.Context, author *entity.User, b *entity.Blog) {
	if s.Mail == nil || s.Cfg == nil || !s.Cfg.MailSendEnabled {
		return
	}
	url := strings.TrimRight(s.Cfg.AppURL, "/") + "/blogs/" + b.ID
	job := mailer.EmailJob{
		To:       author.Email,
		Template: mailtpl.BlogPublished,
		Data:     mailtpl.NewBlogPublishedData(s.Cfg, author.Name, author.Email, mailtpl.WithBlog(b.Title, url), mailtpl.WithTime(b.CreatedAt)),
	}
	if err := s.Mail.PublishJSON(ctx, job); err != nil {
		s.warn("enqueue blog published email failed", err, logrus.Fields{"blog_id": b.ID})
	}
}

func (s *BlogService) cacheTTL() time.Duration {
	if s.Cfg != nil && s.Cfg.BlogCacheTTL > 0 {
		return s.Cfg.BlogCacheTTL
	}
	return time.Minute
}

func (s *BlogService) warn(msg string, err error, fields logrus.Fields) {
	if s.Logger == nil {
		return
	}
	s.Logger.WithError(err).WithFields(fields).Warn(msg)
}

// SplitTags turns "a, b,c" into its parts.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

func normalizeTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, t := range in {
		t = plainText(t)
		if r := []rune(t); len(r) > maxTagLen {
			t = string(r[:maxTagLen])
		}
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
		if len(out) == maxTags {
			break
		}
	}
	return out
}

// checkText rejects a title or body with no readable text left after sanitizing.
func checkText(title, content string) error {
	if strings.TrimSpace(title) == "" {
		return ErrTitleRequired
	}
	if plainText(content) == "" {
		return ErrContentRequired
	}
	return nil
}

func makeSlug(title string) string {
	if s := slug.Make(title); s != "" {
		return s
	}
	return "post"
}
