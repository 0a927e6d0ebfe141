package helpers

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
)

const jpegQuality = 82

// DefaultMaxImagePixels bounds width*height when the caller passes no limit.
const DefaultMaxImagePixels = 40_000_000

var (
	// ErrUnsupportedImage is returned for uploads that are not jpeg, png or gif.
	ErrUnsupportedImage = errors.New("unsupported image type")
	// ErrImageTooLarge is returned when the declared dimensions exceed the pixel limit.
	ErrImageTooLarge = errors.New("image dimensions too large")
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// ProcessedImage is a re-encoded JPEG ready for upload.
type ProcessedImage struct {
	Data        []byte
	Width       int
	Height      int
	ContentType string
}

// ProcessImage sniffs, decodes and downscales the image in r to at most
// maxWidth pixels wide, then encodes it as JPEG. Images declaring more than
// maxPixels pixels are rejected before decoding.
func ProcessImage(r io.Reader, maxWidth, maxPixels int) (*ProcessedImage, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if !allowedImageTypes[mimetype.Detect(raw).String()] {
		return nil, ErrUnsupportedImage
	}

	if maxPixels <= 0 {
		maxPixels = DefaultMaxImagePixels
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if maxWidth > 0 && w > maxWidth {
		newH := h * maxWidth / w
		if newH < 1 {
			newH = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w, h = maxWidth, newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return &ProcessedImage{Data: buf.Bytes(), Width: w, Height: h, ContentType: "image/jpeg"}, nil
}
