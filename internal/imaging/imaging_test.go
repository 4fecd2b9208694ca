package imaging

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{120, 60, 20, 255})
		}
	}
	return img
}

func createTestJPEG(w, h int) []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, createTestImage(w, h), &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, createTestImage(w, h))
	return buf.Bytes()
}

func TestSniff(t *testing.T) {
	var gifBuf bytes.Buffer
	gif.Encode(&gifBuf, createTestImage(4, 4), nil)

	tests := []struct {
		name     string
		data     []byte
		mime     string
		accepted bool
	}{
		{"jpeg", createTestJPEG(8, 8), "image/jpeg", true},
		{"png", createTestPNG(8, 8), "image/png", true},
		{"gif", gifBuf.Bytes(), "image/gif", true},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "image/webp", true},
		{"text", []byte("just some notes"), "text/plain; charset=utf-8", false},
		{"pdf", []byte("%PDF-1.7\n"), "application/pdf", false},
	}

	for _, tt := range tests {
		mime, ok := Sniff(tt.data)
		assert.Equal(t, tt.mime, mime, tt.name)
		assert.Equal(t, tt.accepted, ok, tt.name)
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".jpg", Extension("image/jpeg"))
	assert.Equal(t, ".png", Extension("image/png"))
	assert.Equal(t, ".webp", Extension("image/webp"))
	assert.Equal(t, "", Extension("application/pdf"))
}

func TestThumbnailDownscale(t *testing.T) {
	data := createTestPNG(800, 400)
	out, err := Thumbnail(bytes.NewReader(data), 200)
	require.NoError(t, err)

	img, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
}

func TestThumbnailSmallImageNotUpscaled(t *testing.T) {
	data := createTestJPEG(50, 30)
	out, err := Thumbnail(bytes.NewReader(data), DefaultThumbnail)
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 50, img.Bounds().Dx())
	assert.Equal(t, 30, img.Bounds().Dy())
}

func TestThumbnailRejectsBadInput(t *testing.T) {
	_, err := Thumbnail(bytes.NewReader([]byte("not an image")), DefaultThumbnail)
	assert.Error(t, err)

	_, err = Thumbnail(bytes.NewReader(createTestPNG(10, 10)), 4)
	assert.Error(t, err, "size below minimum")

	_, err = Thumbnail(bytes.NewReader(createTestPNG(10, 10)), 5000)
	assert.Error(t, err, "size above maximum")
}

// createPNGWithSize returns a 1x1 PNG whose header claims w x h pixels.
func createPNGWithSize(w, h uint32) []byte {
	data := createTestPNG(1, 1)
	binary.BigEndian.PutUint32(data[16:], w)
	binary.BigEndian.PutUint32(data[20:], h)
	binary.BigEndian.PutUint32(data[29:], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestCheckSize(t *testing.T) {
	cfg, err := CheckSize(bytes.NewReader(createTestPNG(40, 30)))
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 30, cfg.Height)

	_, err = CheckSize(bytes.NewReader(createPNGWithSize(60000, 60000)))
	assert.ErrorIs(t, err, ErrTooManyPixels)

	_, err = CheckSize(bytes.NewReader(createPNGWithSize(10000, 5000)))
	assert.NoError(t, err, "exactly MaxPixels is allowed")

	_, err = CheckSize(bytes.NewReader(createPNGWithSize(10000, 5001)))
	assert.ErrorIs(t, err, ErrTooManyPixels)
}

func TestThumbnailRejectsOversizedHeader(t *testing.T) {
	data := createPNGWithSize(60000, 60000)
	require.Less(t, len(data), 1024)

	_, err := Thumbnail(bytes.NewReader(data), DefaultThumbnail)
	assert.ErrorIs(t, err, ErrTooManyPixels)
}

func TestThumbnailAfterHeaderCheck(t *testing.T) {
	// A reader without Peek makes DecodeConfig buffer ahead of the header.
	out, err := Thumbnail(io.LimitReader(bytes.NewReader(createTestJPEG(600, 300)), 1<<20), 100)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}
