package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/wishkeeper/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
)

type Deps struct {
	Identity    Identity
	Wishlists   Wishlists
	Invitations Inviter
	// Images may be nil when uploads are not configured.
	Images ImagePresigner
	Health Pinger

	Metrics        Metrics
	MetricsHandler http.Handler
	// AuthLimiter throttles /api/auth/* per client IP; nil disables it.
	AuthLimiter *RateLimiter
	CORSOrigins []string
	Logger      logging.Logger
}

// NewRouter assembles the REST surface. Middleware order, outermost first:
// recovery, request observation, CORS; then bearer authentication on the
// wishlist routes and rate limiting on the auth routes.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = logging.Nop{}
	}
	if d.Metrics == nil {
		d.Metrics = nopMetrics{}
	}
	log := d.Logger.With("module", "http")
	h := &handler{deps: d, log: log}

	r := chi.NewRouter()
	r.Use(observe(log, d.Metrics))
	r.Use(recovery(log))
	r.Use(newCORS(d.CORSOrigins).Handler)

	r.Get("/health", h.health)
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(d.AuthLimiter.Middleware)
		r.Post("/signup", h.signup)
		r.Post("/login", h.login)
		r.With(authenticate(d.Identity, log)).Get("/validate", h.validate)
	})

	r.Route("/api/wishlists", func(r chi.Router) {
		r.Use(authenticate(d.Identity, log))

		r.Get("/", h.listWishlists)
		r.Post("/", h.createWishlist)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getWishlist)
			r.Put("/", h.updateWishlist)
			r.Delete("/", h.deleteWishlist)
			r.Post("/invite", h.invite)

			r.Post("/products", h.addProduct)
			r.Post("/products/image-upload", h.presignImage)
			r.Put("/products/{productId}", h.updateProduct)
			r.Delete("/products/{productId}", h.removeProduct)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no such route"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	})

	return r
}

func newCORS(origins []string) *cors.Cors {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         600,
	})
}
