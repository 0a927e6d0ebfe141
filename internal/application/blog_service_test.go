package application

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrihelp/agrihelp-api/config"
	"github.com/agrihelp/agrihelp-api/internal/domain/entity"
	"github.com/agrihelp/agrihelp-api/internal/infrastructure/memory"
)

type blogFixture struct {
	svc    *BlogService
	blogs  *memory.BlogRepository
	images *fakeImages
	owner  *entity.User
	other  *entity.User
}

func newBlogFixture(t *testing.T) *blogFixture {
	t.Helper()
	users := memory.NewUserRepository()
	ctx := context.Background()
	owner := &entity.User{Name: "Owner", Email: "owner@farm.io"}
	other := &entity.User{Name: "Other", Email: "other@farm.io"}
	require.NoError(t, users.Create(ctx, owner))
	require.NoError(t, users.Create(ctx, other))

	blogs := memory.NewBlogRepository()
	images := newFakeImages()
	cfg := &config.Config{MaxImageWidth: 100, AppURL: "http://app"}
	svc := NewBlogService(blogs, users, images, nil, nil, nil, cfg, nil)
	return &blogFixture{svc: svc, blogs: blogs, images: images, owner: owner, other: other}
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCreateBlogWithURL(t *testing.T) {
	f := newBlogFixture(t)
	b, err := f.svc.Create(context.Background(), f.owner.ID, BlogInput{
		Title:    "Rice <b>Farming</b> Tips",
		Subtitle: "Monsoon & more",
		Content:  "<p>Plant early.</p><script>alert(1)</script>",
		Tags:     []string{" Rice", "rice", "", "Monsoon"},
		ImageURL: "https://img/rice.jpg",
	})
	require.NoError(t, err)

	assert.Equal(t, "Rice Farming Tips", b.Title)
	assert.Equal(t, "Monsoon & more", b.Subtitle)
	assert.Equal(t, "rice-farming-tips", b.Slug)
	assert.NotContains(t, b.Content, "script")
	assert.Equal(t, []string{"Rice", "Monsoon"}, b.Tags)
	assert.Equal(t, "Owner", b.Username)
	assert.Equal(t, 1, b.ReadTimeMinutes)
	assert.Empty(t, b.ImageObject)
}

func TestCreateBlogRequiresImage(t *testing.T) {
	f := newBlogFixture(t)
	_, err := f.svc.Create(context.Background(), f.owner.ID, BlogInput{Title: "T", Content: "C"})
	assert.ErrorIs(t, err, ErrImageRequired)
}

func TestCreateBlogUploadsDownscaledImage(t *testing.T) {
	f := newBlogFixture(t)
	b, err := f.svc.Create(context.Background(), f.owner.ID, BlogInput{
		Title:   "Soil",
		Content: "Healthy soil",
		Image:   &ImageUpload{Filename: "soil.png", Reader: bytes.NewReader(pngBytes(t, 400, 200))},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(b.ImageObject, "blogs/"+f.owner.ID+"/"))
	assert.True(t, strings.HasSuffix(b.ImageObject, ".jpg"))
	assert.Equal(t, "https://storage.test/"+b.ImageObject, b.ImageURL)

	stored := f.images.objects[b.ImageObject]
	cfg, format, err := image.DecodeConfig(bytes.NewReader(stored))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestCreateBlogRejectsNonImage(t *testing.T) {
	f := newBlogFixture(t)
	_, err := f.svc.Create(context.Background(), f.owner.ID, BlogInput{
		Title: "T", Content: "C",
		Image: &ImageUpload{Filename: "x.txt", Reader: strings.NewReader("plain text, not an image")},
	})
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestCreateBlogRejectsOversizedDimensions(t *testing.T) {
	f := newBlogFixture(t)
	f.svc.Cfg.MaxImagePixels = 100
	_, err := f.svc.Create(context.Background(), f.owner.ID, BlogInput{
		Title: "T", Content: "C",
		Image: &ImageUpload{Filename: "big.png", Reader: bytes.NewReader(pngBytes(t, 20, 20))},
	})
	assert.ErrorIs(t, err, ErrImageDimensions)
	assert.Empty(t, f.images.objects)
}

func TestCreateBlogWithoutImageStore(t *testing.T) {
	f := newBlogFixture(t)
	f.svc.Images = nil
	_, err := f.svc.Create(context.Background(), f.owner.ID, BlogInput{
		Title: "T", Content: "C",
		Image: &ImageUpload{Filename: "a.png", Reader: bytes.NewReader(pngBytes(t, 4, 4))},
	})
	assert.ErrorIs(t, err, ErrImageStoreMissing)
}

func TestCreateBlogRejectsTextlessTitleOrContent(t *testing.T) {
	f := newBlogFixture(t)
	ctx := context.Background()
	cases := []struct {
		name string
		in   BlogInput
		want error
	}{
		{"blank title", BlogInput{Title: "   ", Content: "Body"}, ErrTitleRequired},
		{"script title", BlogInput{Title: "<script>x</script>", Content: "Body"}, ErrTitleRequired},
		{"script content", BlogInput{Title: "Title", Content: "<script>x</script>"}, ErrContentRequired},
		{"empty markup content", BlogInput{Title: "Title", Content: "<p> </p>"}, ErrContentRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.in.ImageURL = "https://img/a.jpg"
			_, err := f.svc.Create(ctx, f.owner.ID, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	all, err := f.blogs.List(ctx, entity.BlogFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdateBlogRejectsTextlessTitleOrContent(t *testing.T) {
	f := newBlogFixture(t)
	ctx := context.Background()
	b, err := f.svc.Create(ctx, f.owner.ID, BlogInput{Title: "Keep me", Content: "Body", ImageURL: "https://img/a.jpg"})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, f.owner.ID, b.ID, BlogInput{Title: "<script>x</script>"})
	assert.ErrorIs(t, err, ErrTitleRequired)
	_, err = f.svc.Update(ctx, f.owner.ID, b.ID, BlogInput{Content: "<script>x</script>"})
	assert.ErrorIs(t, err, ErrContentRequired)

	stored, err := f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Keep me", stored.Title)
	assert.Equal(t, "Body", stored.Content)
}

func TestGetMissingBlog(t *testing.T) {
	f := newBlogFixture(t)
	_, err := f.svc.Get(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, ErrBlogNotFound)
}

func TestUpdateBlogPartialKeepsFields(t *testing.T) {
	f := newBlogFixture(t)
	ctx := context.Background()
	b, err := f.svc.Create(ctx, f.owner.ID, BlogInput{
		Title: "Old title", Subtitle: "Sub", Content: "Body", Tags: []string{"wheat"}, ImageURL: "https://img/a.jpg",
	})
	require.NoError(t, err)

	upd, err := f.svc.Update(ctx, f.owner.ID, b.ID, BlogInput{Title: "New title"})
	require.NoError(t, err)
	assert.Equal(t, "New title", upd.Title)
	assert.Equal(t, "new-title", upd.Slug)
	assert.Equal(t, "Sub", upd.Subtitle)
	assert.Equal(t, "Body", upd.Content)
	assert.Equal(t, []string{"wheat"}, upd.Tags)
	assert.Equal(t, "https://img/a.jpg", upd.ImageURL)

	stored, err := f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "New title", stored.Title)
}

func TestUpdateBlogReplacesUploadedImage(t *testing.T) {
	f := newBlogFixture(t)
	ctx := context.Background()
	b, err := f.svc.Create(ctx, f.owner.ID, BlogInput{
		Title: "T", Content: "C",
		Image: &ImageUpload{Filename: "a.png", Reader: bytes.NewReader(pngBytes(t, 10, 10))},
	})
	require.NoError(t, err)
	oldObject := b.ImageObject

	upd, err := f.svc.Update(ctx, f.owner.ID, b.ID, BlogInput{ImageURL: "https://img/new.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "https://img/new.jpg", upd.ImageURL)
	assert.Empty(t, upd.ImageObject)
	assert.Contains(t, f.images.deleted, oldObject)
}

func TestUpdateAndDeleteRequireOwner(t *testing.T) {
	f := newBlogFixture(t)
	ctx := context.Background()
	b, err := f.svc.Create(ctx, f.owner.ID, BlogInput{Title: "T", Content: "C", ImageURL: "https://img/a.jpg"})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, f.other.ID, b.ID, BlogInput{Title: "Hijack"})
	assert.ErrorIs(t, err, ErrNotOwner)

	err = f.svc.Delete(ctx, f.other.ID, b.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	stored, err := f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "T", stored.Title)

	require.NoError(t, f.svc.Delete(ctx, f.owner.ID, b.ID))
	_, err = f.svc.Get(ctx, b.ID)
	assert.ErrorIs(t, err, ErrBlogNotFound)

	err = f.svc.Delete(ctx, f.owner.ID, b.ID)
	assert.ErrorIs(t, err, ErrBlogNotFound)
}

func TestListFiltersByTagAndMine(t *testing.T) {
	f := newBlogFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, f.owner.ID, BlogInput{Title: "A", Content: "C", Tags: []string{"rice"}, ImageURL: "u"})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.other.ID, BlogInput{Title: "B", Content: "C", Tags: []string{"wheat"}, ImageURL: "u"})
	require.NoError(t, err)

	all, err := f.svc.List(ctx, ListBlogsInput{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "B", all[0].Title)

	rice, err := f.svc.List(ctx, ListBlogsInput{Tag: "Rice"})
	require.NoError(t, err)
	require.Len(t, rice, 1)
	assert.Equal(t, "A", rice[0].Title)

	mine, err := f.svc.Mine(ctx, f.other.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "B", mine[0].Title)
}

func TestTagsKeepDisplayCase(t *testing.T) {
	f := newBlogFixture(t)
	ctx := context.Background()
	b, err := f.svc.Create(ctx, f.owner.ID, BlogInput{
		Title: "Soil care", Content: "C", ImageURL: "u",
		Tags: []string{"Soil Health", "soil health", "pH Management"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Soil Health", "pH Management"}, b.Tags)

	found, err := f.svc.List(ctx, ListBlogsInput{Tag: "SOIL HEALTH"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, []string{"Soil Health", "pH Management"}, found[0].Tags)
}

func TestListCacheRefreshedOnWrites(t *testing.T) {
	f := newBlogFixture(t)
	_, rdb := newTestRedis(t)
	f.svc.Redis = rdb
	ctx := context.Background()

	a, err := f.svc.Create(ctx, f.owner.ID, BlogInput{Title: "A", Content: "C", ImageURL: "u"})
	require.NoError(t, err)
	first, err := f.svc.List(ctx, ListBlogsInput{})
	require.NoError(t, err)
	require.Len(t, first, 1)

	// written behind the service's back: the cached page must still be served
	require.NoError(t, f.blogs.Create(ctx, &entity.Blog{UserID: f.owner.ID, Title: "Direct", Content: "C"}))
	cached, err := f.svc.List(ctx, ListBlogsInput{})
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, a.ID, cached[0].ID)

	b, err := f.svc.Create(ctx, f.owner.ID, BlogInput{Title: "B", Content: "C", ImageURL: "u"})
	require.NoError(t, err)
	afterCreate, err := f.svc.List(ctx, ListBlogsInput{})
	require.NoError(t, err)
	require.Len(t, afterCreate, 3)
	assert.Equal(t, "B", afterCreate[0].Title)

	_, err = f.svc.Update(ctx, f.owner.ID, b.ID, BlogInput{Title: "B2"})
	require.NoError(t, err)
	afterUpdate, err := f.svc.List(ctx, ListBlogsInput{})
	require.NoError(t, err)
	assert.Equal(t, "B2", afterUpdate[0].Title)

	require.NoError(t, f.svc.Delete(ctx, f.owner.ID, b.ID))
	afterDelete, err := f.svc.List(ctx, ListBlogsInput{})
	require.NoError(t, err)
	require.Len(t, afterDelete, 2)
	for _, x := range afterDelete {
		assert.NotEqual(t, b.ID, x.ID)
	}
}

func TestSearchFallsBackToRepository(t *testing.T) {
	f := newBlogFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, f.owner.ID, BlogInput{Title: "Drip irrigation", Content: "Save water", ImageURL: "u"})
	require.NoError(t, err)

	res, err := f.svc.Search(ctx, "irrigation", 0)
	require.NoError(t, err)
	require.Len(t, res, 1)

	_, err = f.svc.Search(ctx, "  ", 0)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestReadTime(t *testing.T) {
	assert.Equal(t, 1, ReadTime(""))
	assert.Equal(t, 1, ReadTime("one two three"))
	assert.Equal(t, 1, ReadTime(strings.Repeat("word ", 200)))
	assert.Equal(t, 2, ReadTime(strings.Repeat("word ", 201)))
	assert.Equal(t, 3, ReadTime("<p>"+strings.Repeat("word ", 450)+"</p>"))
}
