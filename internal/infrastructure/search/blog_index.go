package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/agrihelp/agrihelp-api/internal/domain/entity"
	"github.com/agrihelp/agrihelp-api/pkg/helpers"
)

const blogMapping = `{
  "mappings": {
    "properties": {
      "id":         {"type": "keyword"},
      "user_id":    {"type": "keyword"},
      "username":   {"type": "text"},
      "title":      {"type": "text"},
      "subtitle":   {"type": "text"},
      "content":    {"type": "text"},
      "slug":       {"type": "keyword"},
      "image_url":  {"type": "keyword", "index": false},
      "tags":       {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "read_time":  {"type": "integer"},
      "created_at": {"type": "date"},
      "updated_at": {"type": "date"}
    }
  }
}`

// BlogIndex keeps an Elasticsearch index of blogs for full-text search.
type BlogIndex struct {
	es     *elasticsearch.Client
	index  string
	logger *logrus.Logger
}

func NewBlogIndex(es *elasticsearch.Client, index string, logger *logrus.Logger) *BlogIndex {
	return &BlogIndex{es: es, index: index, logger: logger}
}

// EnsureIndex creates the index and its mapping when missing.
func (i *BlogIndex) EnsureIndex(ctx context.Context) error {
	return helpers.EnsureIndex(ctx, i.es, i.index, blogMapping)
}

type blogDoc struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	Title       string    `json:"title"`
	Subtitle    string    `json:"subtitle"`
	Content     string    `json:"content"`
	Slug        string    `json:"slug"`
	ImageURL    string    `json:"image_url"`
	ImageObject string    `json:"image_object,omitempty"`
	Tags        []string  `json:"tags"`
	ReadTime    int       `json:"read_time"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toDoc(b *entity.Blog) blogDoc {
	return blogDoc{
		ID: b.ID, UserID: b.UserID, Username: b.Username, Title: b.Title, Subtitle: b.Subtitle,
		Content: b.Content, Slug: b.Slug, ImageURL: b.ImageURL, ImageObject: b.ImageObject,
		Tags: b.Tags, ReadTime: b.ReadTimeMinutes, CreatedAt: b.CreatedAt, UpdatedAt: b.UpdatedAt,
	}
}

func (d blogDoc) toEntity() entity.Blog {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return entity.Blog{
		ID: d.ID, UserID: d.UserID, Username: d.Username, Title: d.Title, Subtitle: d.Subtitle,
		Content: d.Content, Slug: d.Slug, ImageURL: d.ImageURL, ImageObject: d.ImageObject,
		Tags: tags, ReadTimeMinutes: d.ReadTime, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

func (i *BlogIndex) Index(ctx context.Context, b *entity.Blog) error {
	body, err := json.Marshal(toDoc(b))
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: i.index, DocumentID: b.ID, Body: bytes.NewReader(body), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, i.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index %s: %s", b.ID, res.Status())
	}
	return nil
}

func (i *BlogIndex) Delete(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{Index: i.index, DocumentID: id}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, i.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("es delete %s: %s", id, res.Status())
	}
	return nil
}

// Search runs a multi_match query over title, subtitle, content and tags.
func (i *BlogIndex) Search(ctx context.Context, q string, size int) ([]entity.Blog, error) {
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"title^3", "subtitle^2", "tags^2", "content", "username"},
				"fuzziness": "AUTO",
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := i.es.Search(i.es.Search.WithContext(c), i.es.Search.WithIndex(i.index), i.es.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source blogDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]entity.Blog, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source.toEntity())
	}
	return out, nil
}
