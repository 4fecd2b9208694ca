package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingReader returns some bytes and then an error.
type failingReader struct{ sent bool }

func (r *failingReader) Read(p []byte) (int, error) {
	if r.sent {
		return 0, errors.New("connection reset")
	}
	r.sent = true
	return copy(p, "partial"), nil
}

func TestLocalStorageRoundTrip(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "uploads/a.png", strings.NewReader("png bytes"), "image/png"))

	exists, err := s.Exists(ctx, "uploads/a.png")
	require.NoError(t, err)
	assert.True(t, exists)

	rc, err := s.Get(ctx, "uploads/a.png")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "png bytes", string(data))

	require.NoError(t, s.Delete(ctx, "uploads/a.png"))
	require.NoError(t, s.Delete(ctx, "uploads/a.png"), "deleting twice is not an error")

	_, err = s.Get(ctx, "uploads/a.png")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestLocalStorageFailedWriteLeavesNoFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)

	err = s.Save(context.Background(), "uploads/broken.png", &failingReader{}, "image/png")
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "uploads"))
	require.NoError(t, err)
	assert.Empty(t, entries, "expected no orphaned temp files")
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(filepath.Join(dir, "public"))
	require.NoError(t, err)
	ctx := context.Background()

	// Paths are cleaned relative to the base directory.
	require.NoError(t, s.Save(ctx, "../../outside.txt", strings.NewReader("x"), "text/plain"))
	_, err = os.Stat(filepath.Join(dir, "outside.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "public", "outside.txt"))
	assert.NoError(t, err)

	assert.Error(t, s.Save(ctx, "", strings.NewReader("x"), "text/plain"))
}

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := New(Config{Type: "ftp"})
	assert.Error(t, err)

	_, err = New(Config{Type: TypeS3})
	assert.Error(t, err, "s3 without bucket")

	s, err := New(Config{Type: TypeLocal, BasePath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)
}
