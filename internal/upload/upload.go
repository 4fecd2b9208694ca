package upload

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/erazemk/rootbeer/internal/imaging"
	"github.com/erazemk/rootbeer/internal/storage"
)

// DefaultMaxSize is the largest accepted file (50 MB).
const DefaultMaxSize int64 = 50 << 20

// Dir is the storage prefix for uploaded files.
const Dir = "uploads"

// Upload failures that map to client errors.
var (
	ErrNoFile          = errors.New("no file uploaded")
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrInvalidImage    = errors.New("invalid image")
)

// File describes a stored upload.
type File struct {
	Name     string
	MIMEType string
	Path     string
	Size     int64

	// Created is false when identical content was already stored.
	Created bool
}

// Receiver validates uploaded files and persists them to storage.
type Receiver struct {
	Storage storage.Storage
	MaxSize int64
	TempDir string
}

// Receive reads one file from r, checks its size and type and stores it under
// a path derived from its content. Nothing is left behind on failure.
func (rc *Receiver) Receive(ctx context.Context, r io.Reader, filename string) (*File, error) {
	maxSize := rc.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	head := make([]byte, imaging.SniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if n == 0 {
		return nil, ErrNoFile
	}
	head = head[:n]

	mime, ok := imaging.Sniff(head)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mime)
	}

	tmp, err := os.CreateTemp(rc.TempDir, "rootbeer-upload-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	hash, err := blake2b.New256(nil)
	if err != nil {
		return nil, fmt.Errorf("creating hash: %w", err)
	}

	// Read one byte past the limit to tell "exactly max" from "too large".
	src := io.LimitReader(io.MultiReader(bytes.NewReader(head), r), maxSize+1)
	size, err := io.Copy(io.MultiWriter(tmp, hash), src)
	if err != nil {
		return nil, fmt.Errorf("buffering upload: %w", err)
	}
	if size > maxSize {
		return nil, ErrTooLarge
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewinding temp file: %w", err)
	}
	if _, err := imaging.CheckSize(tmp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewinding temp file: %w", err)
	}

	f := &File{
		Name:     cleanName(filename, mime),
		MIMEType: mime,
		Path:     path.Join(Dir, hex.EncodeToString(hash.Sum(nil))[:32]+imaging.Extension(mime)),
		Size:     size,
	}

	exists, err := rc.Storage.Exists(ctx, f.Path)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := rc.Storage.Save(ctx, f.Path, tmp, mime); err != nil {
			return nil, fmt.Errorf("storing upload: %w", err)
		}
		f.Created = true
	}

	return f, nil
}

// Discard removes a file stored by Receive, unless the same content was
// stored before it.
func (rc *Receiver) Discard(ctx context.Context, f *File) error {
	if f == nil || !f.Created {
		return nil
	}
	return rc.Storage.Delete(ctx, f.Path)
}

// cleanName keeps the base of the client's file name, falling back to a
// generic name with the detected extension.
func cleanName(name, mime string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimSpace(path.Base(name))
	if name == "" || name == "." || name == "/" {
		return "upload" + imaging.Extension(mime)
	}
	return name
}
