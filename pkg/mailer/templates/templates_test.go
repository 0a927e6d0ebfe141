package templates

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrihelp/agrihelp-api/config"
)

func TestRenderWelcome(t *testing.T) {
	cfg := &config.Config{CompanyName: "AgriHelp", AppURL: "https://agrihelp.example"}
	data := NewWelcomeData(cfg, "Asha", "asha@example.com")

	text, html, err := Render(Welcome, data)
	require.NoError(t, err)
	assert.Contains(t, text, "Hi Asha")
	assert.Contains(t, text, "https://agrihelp.example")
	assert.Contains(t, html, "asha@example.com")
}

func TestRenderBlogPublishedEscapesHTML(t *testing.T) {
	data := NewBlogPublishedData(nil, "", "a@b.c", WithBlog("<b>Soil</b>", ""))

	text, html, err := Render(BlogPublished, data)
	require.NoError(t, err)
	assert.Contains(t, text, "Hi there")
	assert.False(t, strings.Contains(html, "<b>Soil</b>"))
	assert.Contains(t, html, "&lt;b&gt;Soil&lt;/b&gt;")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, err := Render("nope", map[string]any{})
	assert.Error(t, err)
	assert.False(t, Known("nope"))
	assert.True(t, Known(Welcome))
}
