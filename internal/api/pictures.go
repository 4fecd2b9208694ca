package api

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"

	"github.com/erazemk/rootbeer/internal/imaging"
	"github.com/erazemk/rootbeer/internal/storage"
	"github.com/erazemk/rootbeer/internal/store"
	"github.com/erazemk/rootbeer/internal/upload"
)

// multipartSlack covers multipart boundaries and part headers on top of the
// file size limit.
const multipartSlack = 1 << 20

// PicturesHandler handles picture upload and retrieval.
type PicturesHandler struct {
	DB       *sql.DB
	Storage  storage.Storage
	Receiver *upload.Receiver
}

// Upload handles POST /api/drinks/{id}/pictures.
func (h *PicturesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid drink id")
		return
	}

	exists, err := store.ItemExists(r.Context(), h.DB, id)
	if err != nil {
		internalError(w, r, "failed to get drink", err)
		return
	}
	if !exists {
		jsonError(w, http.StatusNotFound, "drink not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.Receiver.MaxSize+multipartSlack)
	mr, err := r.MultipartReader()
	if err != nil {
		jsonError(w, http.StatusBadRequest, "multipart form required")
		return
	}
	part, err := nextFilePart(mr)
	if err != nil {
		uploadError(w, r, err)
		return
	}
	defer part.Close()

	f, err := h.Receiver.Receive(r.Context(), part, part.FileName())
	if err != nil {
		uploadError(w, r, err)
		return
	}

	pic, err := store.CreatePicture(r.Context(), h.DB, id, f.Name, f.MIMEType, f.Path)
	if err != nil {
		if derr := h.Receiver.Discard(r.Context(), f); derr != nil {
			slog.Error("discarding upload", "path", f.Path, "error", derr)
		}
		internalError(w, r, "failed to save picture", err)
		return
	}

	slog.Info("picture uploaded", "drink", id, "picture", pic.ID, "path", pic.Path, "size", f.Size, "new", f.Created)
	jsonResponse(w, http.StatusCreated, pic)
}

// nextFilePart returns the first part of mr that carries a file.
func nextFilePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, upload.ErrNoFile
		}
		if err != nil {
			return nil, err
		}
		if part.FileName() != "" {
			return part, nil
		}
		part.Close()
	}
}

// uploadError maps a failed upload to its response.
func uploadError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr), errors.Is(err, upload.ErrTooLarge):
		jsonError(w, http.StatusRequestEntityTooLarge, upload.ErrTooLarge.Error())
	case errors.Is(err, upload.ErrNoFile):
		jsonError(w, http.StatusBadRequest, "file required")
	case errors.Is(err, upload.ErrUnsupportedType):
		jsonError(w, http.StatusBadRequest, "file must be a JPEG, PNG, GIF or WebP image")
	case errors.Is(err, upload.ErrInvalidImage):
		jsonError(w, http.StatusBadRequest, "image is unreadable or its dimensions are too large")
	case errors.Is(err, multipart.ErrMessageTooLarge), errors.Is(err, io.ErrUnexpectedEOF):
		jsonError(w, http.StatusBadRequest, "invalid multipart form")
	default:
		internalError(w, r, "failed to store picture", err)
	}
}

// Thumbnail handles GET /api/drinks/{id}/pictures/{pictureID}/thumbnail.
func (h *PicturesHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid drink id")
		return
	}
	pictureID, ok := pathID(r, "pictureID")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid picture id")
		return
	}

	size := imaging.DefaultThumbnail
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < imaging.MinThumbnail || n > imaging.MaxThumbnail {
			jsonError(w, http.StatusBadRequest, "invalid size")
			return
		}
		size = n
	}

	pic, err := store.GetPicture(r.Context(), h.DB, pictureID)
	if err != nil {
		internalError(w, r, "failed to get picture", err)
		return
	}
	if pic == nil || pic.ItemID != id {
		jsonError(w, http.StatusNotFound, "picture not found")
		return
	}

	rc, err := h.Storage.Get(r.Context(), pic.Path)
	if errors.Is(err, storage.ErrNotExist) {
		jsonError(w, http.StatusNotFound, "picture file missing")
		return
	}
	if err != nil {
		internalError(w, r, "failed to read picture", err)
		return
	}
	defer rc.Close()

	data, err := imaging.Thumbnail(rc, size)
	if err != nil {
		slog.Warn("thumbnail failed", "picture", pic.ID, "error", err)
		jsonError(w, http.StatusUnprocessableEntity, "picture cannot be decoded")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// Serve handles GET /uploads/{file}. Stored names are content hashes, so
// responses never change and may be cached indefinitely.
func (h *PicturesHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("file")
	if name == "" || name != path.Base(name) || name[0] == '.' {
		jsonError(w, http.StatusNotFound, "file not found")
		return
	}

	rc, err := h.Storage.Get(r.Context(), path.Join(upload.Dir, name))
	if errors.Is(err, storage.ErrNotExist) {
		jsonError(w, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		internalError(w, r, "failed to read file", err)
		return
	}
	defer rc.Close()

	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("serving file", "file", name, "error", err)
	}
}
