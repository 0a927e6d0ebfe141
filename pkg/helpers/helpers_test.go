package helpers

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndComparePassword(t *testing.T) {
	PasswordCost = bcrypt.MinCost
	defer func() { PasswordCost = bcrypt.DefaultCost }()

	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)
	assert.True(t, CompareHashAndPassword(hash, "secret123"))
	assert.False(t, CompareHashAndPassword(hash, "wrong"))
	assert.False(t, CompareHashAndPassword("", "secret123"))

	again, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "hashes must be salted")
}

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	tok, exp, err := m.GenerateToken("user-1", true, "sid-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := m.ParseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "sid-1", claims.SessionID)
}

func TestJWTRejectsForeignAndExpiredTokens(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	other := NewJWTManager("other-secret", time.Hour)

	tok, _, err := other.GenerateToken("user-1", false, "sid")
	require.NoError(t, err)
	_, err = m.ParseToken(tok)
	assert.Error(t, err)

	expired := NewJWTManager("test-secret", -time.Minute)
	tok, _, err = expired.GenerateToken("user-1", false, "sid")
	require.NoError(t, err)
	_, err = m.ParseToken(tok)
	assert.Error(t, err)

	_, err = m.ParseToken("not-a-token")
	assert.Error(t, err)
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{G: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessImageDownscales(t *testing.T) {
	out, err := ProcessImage(bytes.NewReader(testPNG(t, 400, 200)), 100, 0)
	require.NoError(t, err)
	assert.Equal(t, 100, out.Width)
	assert.Equal(t, 50, out.Height)
	assert.Equal(t, "image/jpeg", out.ContentType)

	_, _, err = image.Decode(bytes.NewReader(out.Data))
	assert.NoError(t, err)
}

func TestProcessImageKeepsSmallImages(t *testing.T) {
	out, err := ProcessImage(bytes.NewReader(testPNG(t, 80, 60)), 100, 0)
	require.NoError(t, err)
	assert.Equal(t, 80, out.Width)
	assert.Equal(t, 60, out.Height)
}

func TestProcessImageRejectsNonImages(t *testing.T) {
	_, err := ProcessImage(strings.NewReader("hello, not an image"), 100, 0)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

// withDimensions rewrites the IHDR width and height of a PNG, leaving the
// pixel data small.
func withDimensions(t *testing.T, pngData []byte, w, h uint32) []byte {
	t.Helper()
	out := append([]byte(nil), pngData...)
	require.Equal(t, "IHDR", string(out[12:16]))
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestProcessImageRejectsHugeDimensions(t *testing.T) {
	bomb := withDimensions(t, testPNG(t, 4, 4), 40000, 40000)
	require.Less(t, len(bomb), 1024)

	_, err := ProcessImage(bytes.NewReader(bomb), 100, 0)
	assert.ErrorIs(t, err, ErrImageTooLarge)

	_, err = ProcessImage(bytes.NewReader(testPNG(t, 50, 50)), 100, 2000)
	assert.ErrorIs(t, err, ErrImageTooLarge)

	_, err = ProcessImage(bytes.NewReader(testPNG(t, 40, 50)), 100, 2000)
	assert.NoError(t, err)
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://storage.googleapis.com/bkt/blogs/u/x.jpg", PublicURL("bkt", "/blogs/u/x.jpg"))
}
