package templates

import (
	"strings"
	"time"

	"github.com/agrihelp/agrihelp-api/config"
)

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) { d.Time = t.UTC().Format("02 January 2006, 15:04 MST") }
}

func WithBlog(title, url string) Option {
	return func(d *EmailData) {
		d.BlogTitle = title
		d.BlogURL = url
	}
}

func base(cfg *config.Config, typ, name, email string) EmailData {
	d := EmailData{
		Name:  strings.TrimSpace(name),
		Email: email,
		Type:  typ,
	}
	if cfg != nil {
		d.CompanyName = cfg.CompanyName
		d.AppName = cfg.CompanyName
		d.AppURL = cfg.AppURL
		d.SupportURL = cfg.SupportURL
	}
	return d
}

// NewWelcomeData builds the data map for the welcome email sent after registration.
func NewWelcomeData(cfg *config.Config, name, email string, opts ...Option) map[string]any {
	d := base(cfg, Welcome, name, email)
	for _, o := range opts {
		o(&d)
	}
	return ToMap(d)
}

// NewBlogPublishedData builds the data map for the "post is live" email.
func NewBlogPublishedData(cfg *config.Config, name, email string, opts ...Option) map[string]any {
	d := base(cfg, BlogPublished, name, email)
	for _, o := range opts {
		o(&d)
	}
	return ToMap(d)
}
