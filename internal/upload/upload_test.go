package upload

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/rootbeer/internal/storage"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{200, 100, 0, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// pngWithSize returns a 1x1 PNG whose header claims w x h pixels.
func pngWithSize(w, h uint32) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1)))
	data := buf.Bytes()
	// IHDR data follows the signature, chunk length and chunk type.
	binary.BigEndian.PutUint32(data[16:], w)
	binary.BigEndian.PutUint32(data[20:], h)
	binary.BigEndian.PutUint32(data[29:], crc32.ChecksumIEEE(data[12:29]))
	return data
}

// paddedPNG returns size bytes starting with a valid PNG header.
func paddedPNG(size int64) io.Reader {
	header := pngWithSize(64, 64)[:33]
	return io.MultiReader(bytes.NewReader(header), io.LimitReader(zeroReader{}, size-int64(len(header))))
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

func newReceiver(t *testing.T, maxSize int64) (*Receiver, string, string) {
	t.Helper()
	base := t.TempDir()
	tmpDir := t.TempDir()
	s, err := storage.NewLocalStorage(base)
	require.NoError(t, err)
	return &Receiver{Storage: s, MaxSize: maxSize, TempDir: tmpDir}, base, tmpDir
}

func TestReceiveStoresContentAddressedFile(t *testing.T) {
	rc, base, tmpDir := newReceiver(t, 0)
	ctx := context.Background()
	data := testPNG(t)

	f, err := rc.Receive(ctx, bytes.NewReader(data), "C:\\photos\\mug.png")
	require.NoError(t, err)
	assert.Equal(t, "mug.png", f.Name)
	assert.Equal(t, "image/png", f.MIMEType)
	assert.Equal(t, int64(len(data)), f.Size)
	assert.True(t, strings.HasPrefix(f.Path, "uploads/"))
	assert.True(t, strings.HasSuffix(f.Path, ".png"))
	assert.True(t, f.Created)

	stored, err := os.ReadFile(base + "/" + f.Path)
	require.NoError(t, err)
	assert.Equal(t, data, stored)

	// Same content maps to the same path and is not stored twice.
	again, err := rc.Receive(ctx, bytes.NewReader(data), "copy.png")
	require.NoError(t, err)
	assert.Equal(t, f.Path, again.Path)
	assert.False(t, again.Created)

	entries, _ := os.ReadDir(tmpDir)
	assert.Empty(t, entries, "temp files must be removed")
}

func TestReceiveSizeLimit(t *testing.T) {
	rc, _, tmpDir := newReceiver(t, 0)
	ctx := context.Background()

	f, err := rc.Receive(ctx, paddedPNG(DefaultMaxSize), "exact.png")
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxSize, f.Size)

	_, err = rc.Receive(ctx, paddedPNG(DefaultMaxSize+1), "over.png")
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, _ := os.ReadDir(tmpDir)
	assert.Empty(t, entries, "temp files must be removed")
}

func TestReceiveRejectsEmptyAndNonImages(t *testing.T) {
	rc, base, _ := newReceiver(t, 1024)
	ctx := context.Background()

	_, err := rc.Receive(ctx, bytes.NewReader(nil), "empty.png")
	assert.ErrorIs(t, err, ErrNoFile)

	_, err = rc.Receive(ctx, strings.NewReader("#!/bin/sh\necho hi\n"), "script.png")
	assert.ErrorIs(t, err, ErrUnsupportedType)

	entries, _ := os.ReadDir(base)
	assert.Empty(t, entries, "nothing may be stored for rejected uploads")
}

func TestReceiveRejectsOversizedDimensions(t *testing.T) {
	rc, base, tmpDir := newReceiver(t, 0)
	ctx := context.Background()

	data := pngWithSize(60000, 60000)
	require.Less(t, len(data), 1024)

	_, err := rc.Receive(ctx, bytes.NewReader(data), "huge.png")
	assert.ErrorIs(t, err, ErrInvalidImage)

	// A PNG signature followed by garbage has no readable header.
	_, err = rc.Receive(ctx, strings.NewReader("\x89PNG\r\n\x1a\ngarbage"), "broken.png")
	assert.ErrorIs(t, err, ErrInvalidImage)

	entries, _ := os.ReadDir(base)
	assert.Empty(t, entries, "nothing may be stored for rejected uploads")
	entries, _ = os.ReadDir(tmpDir)
	assert.Empty(t, entries, "temp files must be removed")
}

func TestDiscard(t *testing.T) {
	rc, base, _ := newReceiver(t, 0)
	ctx := context.Background()

	f, err := rc.Receive(ctx, bytes.NewReader(testPNG(t)), "mug.png")
	require.NoError(t, err)
	require.NoError(t, rc.Discard(ctx, f))

	_, err = os.Stat(base + "/" + f.Path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, rc.Discard(ctx, nil))
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "a.png", cleanName("../../a.png", "image/png"))
	assert.Equal(t, "b.jpg", cleanName("dir\\b.jpg", "image/jpeg"))
	assert.Equal(t, "upload.webp", cleanName("", "image/webp"))
	assert.Equal(t, "upload.gif", cleanName("/", "image/gif"))
}
