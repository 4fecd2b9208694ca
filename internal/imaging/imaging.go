package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// SniffLen is the number of leading bytes Sniff looks at.
const SniffLen = 512

// JPEGQuality is the compression quality for thumbnails.
const JPEGQuality = 85

// Thumbnail size bounds.
const (
	MinThumbnail     = 16
	MaxThumbnail     = 1024
	DefaultThumbnail = 256
)

// MaxPixels bounds the decoded size of an image (50 megapixels).
const MaxPixels = 50_000_000

// ErrTooManyPixels is returned for images whose header declares more than MaxPixels.
var ErrTooManyPixels = errors.New("image dimensions too large")

// extensions lists the accepted MIME types and their file extensions.
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Sniff detects the MIME type from the leading bytes of a file (not trusting
// client headers) and reports whether it is an accepted image type.
func Sniff(head []byte) (string, bool) {
	detected := http.DetectContentType(head)
	_, ok := extensions[detected]
	return detected, ok
}

// Extension returns the file extension for an accepted MIME type, or "".
func Extension(mime string) string {
	return extensions[mime]
}

// CheckSize reads an image header from r and rejects images that would
// decode to more than MaxPixels.
func CheckSize(r io.Reader) (image.Config, error) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return cfg, fmt.Errorf("decoding image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return cfg, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}
	return cfg, nil
}

// Thumbnail decodes an image, downscales it so neither dimension exceeds
// maxDim and re-encodes it as JPEG. Images already within bounds are only
// re-encoded.
func Thumbnail(r io.Reader, maxDim int) ([]byte, error) {
	if maxDim < MinThumbnail || maxDim > MaxThumbnail {
		return nil, fmt.Errorf("thumbnail size must be between %d and %d", MinThumbnail, MaxThumbnail)
	}

	// The header is read twice: once to bound the allocation, then by Decode.
	var head bytes.Buffer
	if _, err := CheckSize(io.TeeReader(r, &head)); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(io.MultiReader(&head, r))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img = downscale(img, maxDim)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// downscale resizes the image so neither dimension exceeds maxDim.
// Uses high-quality Catmull-Rom interpolation.
// Returns the original image if already within bounds.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	// Calculate new dimensions preserving aspect ratio.
	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newH = maxDim
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}

	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
	image.RegisterFormat("gif", "GIF8?a", gif.Decode, gif.DecodeConfig)
	image.RegisterFormat("webp", "RIFF????WEBPVP8", webp.Decode, webp.DecodeConfig)
}
