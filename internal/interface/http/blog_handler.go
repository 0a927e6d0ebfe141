package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/gorilla/feeds"
	"github.com/sirupsen/logrus"

	"github.com/agrihelp/agrihelp-api/config"
	"github.com/agrihelp/agrihelp-api/internal/application"
	"github.com/agrihelp/agrihelp-api/internal/domain/entity"
	"github.com/agrihelp/agrihelp-api/internal/interface/middleware"
	"github.com/agrihelp/agrihelp-api/pkg/response"
	"github.com/agrihelp/agrihelp-api/pkg/validation"
)

const feedSize = 20

type BlogHandler struct {
	Svc    *application.BlogService
	Cfg    *config.Config
	Logger *logrus.Logger
}

func NewBlogHandler(svc *application.BlogService, cfg *config.Config, logger *logrus.Logger) *BlogHandler {
	return &BlogHandler{Svc: svc, Cfg: cfg, Logger: logger}
}

// Create and update accept JSON or multipart; "tags" may be an array or a
// comma separated string.
type createBlogRequest struct {
	Title    string   `json:"title" form:"title" binding:"required,max=200"`
	Subtitle string   `json:"subtitle" form:"subtitle" binding:"max=300"`
	Content  string   `json:"content" form:"content" binding:"required"`
	Tags     tagList  `json:"tags" form:"tags"`
	ImageURL string   `json:"image_url" form:"image_url" binding:"omitempty,url"`
}

type updateBlogRequest struct {
	Title    string   `json:"title" form:"title" binding:"max=200"`
	Subtitle string   `json:"subtitle" form:"subtitle" binding:"max=300"`
	Content  string   `json:"content" form:"content"`
	Tags     tagList  `json:"tags" form:"tags"`
	ImageURL string   `json:"image_url" form:"image_url" binding:"omitempty,url"`
}

// tagList decodes a JSON array of strings or a single comma separated string.
type tagList []string

func (t *tagList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = tagList(application.SplitTags(s))
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return errors.New("tags must be a string or an array of strings")
	}
	*t = list
	return nil
}

type blogResponse struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle"`
	Content   string    `json:"content"`
	Slug      string    `json:"slug"`
	Image     string    `json:"image"`
	Tags      []string  `json:"tags"`
	User      string    `json:"user"`
	Username  string    `json:"username"`
	ReadTime  int       `json:"readTime"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toBlogResponse(b *entity.Blog) blogResponse {
	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}
	return blogResponse{
		ID: b.ID, Title: b.Title, Subtitle: b.Subtitle, Content: b.Content, Slug: b.Slug,
		Image: b.ImageURL, Tags: tags, User: b.UserID, Username: b.Username,
		ReadTime: b.ReadTimeMinutes, CreatedAt: b.CreatedAt, UpdatedAt: b.UpdatedAt,
	}
}

func toBlogResponses(in []entity.Blog) []blogResponse {
	out := make([]blogResponse, 0, len(in))
	for i := range in {
		out = append(out, toBlogResponse(&in[i]))
	}
	return out
}

func (h *BlogHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "12"))
	tag := c.Query("tag")

	blogs, err := h.Svc.List(c.Request.Context(), application.ListBlogsInput{Tag: tag, Page: page, Limit: limit})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toBlogResponses(blogs), "Blogs", gin.H{"page": page, "limit": limit, "tag": tag, "count": len(blogs)})
}

func (h *BlogHandler) Get(c *gin.Context) {
	b, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toBlogResponse(b), "Blog", nil)
}

func (h *BlogHandler) Mine(c *gin.Context) {
	blogs, err := h.Svc.Mine(c.Request.Context(), c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toBlogResponses(blogs), "My blogs", gin.H{"count": len(blogs)})
}

func (h *BlogHandler) Search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	blogs, err := h.Svc.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toBlogResponses(blogs), "Search results", gin.H{"q": c.Query("q"), "count": len(blogs)})
}

func (h *BlogHandler) Create(c *gin.Context) {
	h.limitBody(c)
	var req createBlogRequest
	if err := c.ShouldBindWith(&req, bindingFor(c)); err != nil {
		h.badRequest(c, err)
		return
	}
	img, closeFn, err := h.imageUpload(c)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	defer closeFn()

	b, err := h.Svc.Create(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), application.BlogInput{
		Title: req.Title, Subtitle: req.Subtitle, Content: req.Content,
		Tags: flattenTags(req.Tags), ImageURL: req.ImageURL, Image: img,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toBlogResponse(b), "Blog created", nil)
}

func (h *BlogHandler) Update(c *gin.Context) {
	h.limitBody(c)
	var req updateBlogRequest
	if err := c.ShouldBindWith(&req, bindingFor(c)); err != nil {
		h.badRequest(c, err)
		return
	}
	img, closeFn, err := h.imageUpload(c)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	defer closeFn()

	b, err := h.Svc.Update(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), c.Param("id"), application.BlogInput{
		Title: req.Title, Subtitle: req.Subtitle, Content: req.Content,
		Tags: flattenTags(req.Tags), ImageURL: req.ImageURL, Image: img,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toBlogResponse(b), "Blog updated", nil)
}

func (h *BlogHandler) Delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), c.Param("id")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"id": c.Param("id")}, "Blog removed", nil)
}

// Feed serves the latest posts as RSS 2.0.
func (h *BlogHandler) Feed(c *gin.Context) {
	blogs, err := h.Svc.Latest(c.Request.Context(), feedSize)
	if err != nil {
		h.Logger.WithError(err).Error("unable to retrieve blogs for RSS feed")
		c.Data(http.StatusInternalServerError, "application/xml", []byte{})
		return
	}

	base := strings.TrimRight(h.Cfg.FeedBaseURL, "/")
	feed := &feeds.Feed{
		Title:       h.Cfg.CompanyName + " Blog",
		Link:        &feeds.Link{Href: base + "/blogs"},
		Description: "Farming tips and stories from the " + h.Cfg.CompanyName + " community",
		Created:     time.Now(),
	}
	for _, b := range blogs {
		item := &feeds.Item{
			Id:          b.ID,
			Title:       b.Title,
			Link:        &feeds.Link{Href: fmt.Sprintf("%s/blogs/%s", base, b.ID)},
			Description: b.Subtitle,
			Content:     b.Content,
			Author:      &feeds.Author{Name: b.Username},
			Created:     b.CreatedAt,
			Updated:     b.UpdatedAt,
		}
		if b.ImageURL != "" {
			item.Enclosure = &feeds.Enclosure{Url: b.ImageURL, Type: "image/jpeg", Length: "0"}
		}
		feed.Items = append(feed.Items, item)
	}

	rss, err := feed.ToRss()
	if err != nil {
		h.Logger.WithError(err).Error("unable to convert rss feed to xml")
		c.Data(http.StatusInternalServerError, "application/xml", []byte{})
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}

func (h *BlogHandler) limitBody(c *gin.Context) {
	if h.Cfg != nil && h.Cfg.MaxUploadBytes > 0 {
		// room for the text fields on top of the image
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Cfg.MaxUploadBytes+1<<20)
	}
}

func (h *BlogHandler) badRequest(c *gin.Context, err error) {
	if isTooLarge(err) {
		respondError(c, h.Logger, err)
		return
	}
	response.Error[any](c, http.StatusBadRequest, msgInvalidPayload, validation.ToDetails(err))
}

// imageUpload opens the optional "image" form file.
func (h *BlogHandler) imageUpload(c *gin.Context) (*application.ImageUpload, func(), error) {
	noop := func() {}
	if c.ContentType() != binding.MIMEMultipartPOSTForm {
		return nil, noop, nil
	}
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, err
	}
	return openUpload(fh, h.Cfg)
}

func openUpload(fh *multipart.FileHeader, cfg *config.Config) (*application.ImageUpload, func(), error) {
	if cfg != nil && cfg.MaxUploadBytes > 0 && fh.Size > cfg.MaxUploadBytes {
		return nil, func() {}, &http.MaxBytesError{Limit: cfg.MaxUploadBytes}
	}
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &application.ImageUpload{Filename: fh.Filename, Reader: f}, func() { _ = f.Close() }, nil
}

func bindingFor(c *gin.Context) binding.Binding {
	if c.ContentType() == binding.MIMEMultipartPOSTForm {
		return binding.FormMultipart
	}
	return binding.JSON
}

// flattenTags splits comma separated entries. No tags at all yields nil so
// an update keeps the stored ones.
func flattenTags(in tagList) []string {
	var out []string
	for _, t := range in {
		for _, part := range application.SplitTags(t) {
			if strings.TrimSpace(part) != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
