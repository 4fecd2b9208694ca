package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/rootbeer/internal/storage"
	"github.com/erazemk/rootbeer/internal/upload"
	"github.com/erazemk/rootbeer/internal/validate"
	"github.com/erazemk/rootbeer/web"
)

// Options configures the router.
type Options struct {
	DB      *sql.DB
	Storage storage.Storage

	// MaxUploadSize caps picture uploads. Zero means upload.DefaultMaxSize.
	MaxUploadSize int64
	// TempDir holds uploads while they are checked. Empty means os.TempDir.
	TempDir string
	// PublicDir is served at / when set.
	PublicDir string
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(opts Options) http.Handler {
	mux := http.NewServeMux()

	maxSize := opts.MaxUploadSize
	if maxSize <= 0 {
		maxSize = upload.DefaultMaxSize
	}

	v := validate.New()
	drinksHandler := &DrinksHandler{DB: opts.DB, Validator: v}
	reviewsHandler := &ReviewsHandler{DB: opts.DB, Validator: v}
	picturesHandler := &PicturesHandler{
		DB:      opts.DB,
		Storage: opts.Storage,
		Receiver: &upload.Receiver{
			Storage: opts.Storage,
			MaxSize: maxSize,
			TempDir: opts.TempDir,
		},
	}

	// Drinks.
	mux.HandleFunc("GET /api/drinks", drinksHandler.List)
	mux.HandleFunc("POST /api/drinks", drinksHandler.Create)
	mux.HandleFunc("GET /api/drinks/{id}", drinksHandler.Get)

	// Pictures.
	mux.HandleFunc("POST /api/drinks/{id}/pictures", picturesHandler.Upload)
	mux.HandleFunc("GET /api/drinks/{id}/pictures/{pictureID}/thumbnail", picturesHandler.Thumbnail)
	mux.HandleFunc("GET /uploads/{file}", picturesHandler.Serve)

	// Reviews.
	mux.HandleFunc("GET /api/drinks/{id}/reviews", reviewsHandler.List)
	mux.HandleFunc("POST /api/drinks/{id}/reviews", reviewsHandler.Create)

	// Docs.
	mux.HandleFunc("GET /api-docs/openapi.yaml", serveOpenAPI)
	mux.HandleFunc("GET /api-docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api-docs/openapi.yaml", http.StatusFound)
	})

	// Unknown API paths get a JSON 404 instead of the static file server.
	mux.HandleFunc("GET /api/", func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusNotFound, "not found")
	})

	if opts.PublicDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(opts.PublicDir)))
	}

	return mux
}

func serveOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(web.OpenAPI())
}
