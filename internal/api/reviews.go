package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/erazemk/rootbeer/internal/model"
	"github.com/erazemk/rootbeer/internal/store"
	"github.com/erazemk/rootbeer/internal/validate"
)

// ReviewsHandler handles review endpoints.
type ReviewsHandler struct {
	DB        *sql.DB
	Validator *validate.Validator
}

type createReviewRequest struct {
	UserName    string `json:"user_name" validate:"required,max=100"`
	Description string `json:"description" validate:"required,max=5000"`
	Rating      int    `json:"rating" validate:"required,min=1,max=5"`
}

// List handles GET /api/drinks/{id}/reviews.
func (h *ReviewsHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid drink id")
		return
	}
	offset, length, err := parsePaging(r.URL.Query())
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.itemExists(w, r, id) {
		return
	}

	reviews, total, err := store.ListReviews(r.Context(), h.DB, id, offset, length)
	if err != nil {
		internalError(w, r, "failed to list reviews", err)
		return
	}
	jsonResponse(w, http.StatusOK, model.Page[model.Review]{Items: reviews, Total: total})
}

// Create handles POST /api/drinks/{id}/reviews.
func (h *ReviewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid drink id")
		return
	}

	var req createReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		bodyError(w, err)
		return
	}
	req.UserName = strings.TrimSpace(req.UserName)
	req.Description = strings.TrimSpace(req.Description)

	if err := h.Validator.Struct(req); err != nil {
		var verr *validate.ValidationError
		if errors.As(err, &verr) {
			jsonValidationError(w, verr)
			return
		}
		internalError(w, r, "failed to validate review", err)
		return
	}

	if !h.itemExists(w, r, id) {
		return
	}

	review, err := store.CreateReview(r.Context(), h.DB, id, req.UserName, req.Description, req.Rating)
	if err != nil {
		internalError(w, r, "failed to create review", err)
		return
	}
	jsonResponse(w, http.StatusCreated, review)
}

// itemExists writes a 404 or 500 response and returns false unless the item exists.
func (h *ReviewsHandler) itemExists(w http.ResponseWriter, r *http.Request, id int64) bool {
	exists, err := store.ItemExists(r.Context(), h.DB, id)
	if err != nil {
		internalError(w, r, "failed to get drink", err)
		return false
	}
	if !exists {
		jsonError(w, http.StatusNotFound, "drink not found")
		return false
	}
	return true
}
