package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/erazemk/rootbeer/internal/model"
	"github.com/erazemk/rootbeer/internal/store"
	"github.com/erazemk/rootbeer/internal/validate"
)

// DrinksHandler handles the catalog endpoints.
type DrinksHandler struct {
	DB        *sql.DB
	Validator *validate.Validator
}

type createDrinkRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
}

// List handles GET /api/drinks.
func (h *DrinksHandler) List(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r.URL.Query())
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := store.ListItems(r.Context(), h.DB, opts)
	if err != nil {
		internalError(w, r, "failed to list drinks", err)
		return
	}
	jsonResponse(w, http.StatusOK, model.Page[model.Item]{Items: items, Total: total})
}

// Get handles GET /api/drinks/{id}.
func (h *DrinksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid drink id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		internalError(w, r, "failed to get drink", err)
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "drink not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Create handles POST /api/drinks.
func (h *DrinksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDrinkRequest
	if err := decodeJSON(r, &req); err != nil {
		bodyError(w, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)

	if err := h.Validator.Struct(req); err != nil {
		var verr *validate.ValidationError
		if errors.As(err, &verr) {
			jsonValidationError(w, verr)
			return
		}
		internalError(w, r, "failed to validate drink", err)
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, req.Name, req.Description)
	if err != nil {
		internalError(w, r, "failed to create drink", err)
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

// parseListOptions reads listing parameters from q. Absent parameters keep
// their defaults and an unknown sort field falls back to the default order.
func parseListOptions(q url.Values) (model.ListOptions, error) {
	opts := model.DefaultListOptions()

	offset, length, err := parsePaging(q)
	if err != nil {
		return opts, err
	}
	opts.Offset, opts.Length = offset, length

	opts.Sort = q.Get("sort")
	if v := q.Get("desc"); v != "" {
		desc, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("invalid desc: %q", v)
		}
		opts.Desc = desc
	}

	if opts.MinRating, err = parseRating(q, "minRating"); err != nil {
		return opts, err
	}
	if opts.MaxRating, err = parseRating(q, "maxRating"); err != nil {
		return opts, err
	}

	opts.Name = strings.TrimSpace(q.Get("name"))
	opts.Description = strings.TrimSpace(q.Get("description"))

	opts.Normalize()
	return opts, nil
}

// parsePaging reads offset and length from q.
func parsePaging(q url.Values) (int, int, error) {
	offset, length := 0, model.DefaultLength
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, fmt.Errorf("invalid offset: %q", v)
		}
		offset = n
	}
	if v := q.Get("length"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return 0, 0, fmt.Errorf("invalid length: %q", v)
		}
		length = n
	}
	return offset, length, nil
}

func parseRating(q url.Values, name string) (*int, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || !model.ValidRating(n) {
		return nil, fmt.Errorf("invalid %s: must be a whole number from %d to %d", name, model.MinRating, model.MaxRating)
	}
	return &n, nil
}
