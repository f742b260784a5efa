package router

import (
	"net/http"

	"capriccio/internal/handler"
	"capriccio/internal/metrics"
	"capriccio/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Status   *handler.StatusHandler
	Auth     *handler.AuthHandler
	Cart     *handler.CartHandler
	Favorite *handler.FavoriteHandler
	Product  *handler.ProductHandler
	Review   *handler.ReviewHandler
	Order    *handler.OrderHandler
}

// Options configures the router middleware.
type Options struct {
	AllowedOrigin string
	Metrics       *metrics.Metrics
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, authenticator middleware.Authenticator, opts Options, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Recovery -> RequestID -> Logging -> Metrics -> CORS
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(opts.Metrics))
	r.Use(middleware.CORS(opts.AllowedOrigin))

	r.Get("/health", h.Status.Health)
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	session := middleware.Auth(authenticator, logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.Status.Status)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/anonymous", h.Auth.Anonymous)
			r.Post("/login", h.Auth.Login)
			r.Post("/token", h.Auth.Token)
			r.With(session).Post("/logout", h.Auth.Logout)
			r.With(session).Get("/me", h.Auth.Me)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Product.Browse)
			r.Get("/featured", h.Product.Featured)
			r.Get("/stream", h.Product.Stream)
			r.Get("/{id}", h.Product.GetByID)
			r.Get("/{id}/reviews", h.Review.Approved)
			r.With(session).Post("/{id}/reviews", h.Review.Create)
		})

		r.Group(func(r chi.Router) {
			r.Use(session)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.Get)
				r.Delete("/", h.Cart.Clear)
				r.Post("/items", h.Cart.Add)
				r.Post("/items/{id}/increase", h.Cart.Increase)
				r.Post("/items/{id}/decrease", h.Cart.Decrease)
				r.Delete("/items/{id}", h.Cart.Remove)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/next", h.Cart.Next)
				r.Post("/back", h.Cart.Back)
				r.Post("/submit", h.Cart.Submit)
			})

			r.Get("/favorites", h.Favorite.List)
			r.Post("/favorites/{id}", h.Favorite.Toggle)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(session)
			r.Use(middleware.RequireAdmin(logger))

			r.Get("/products", h.Product.Browse)
			r.Post("/products", h.Product.Create)
			r.Put("/products/{id}", h.Product.Update)
			r.Delete("/products/{id}", h.Product.Delete)
			r.Put("/products/{id}/stock", h.Product.SetStock)
			r.Post("/images", h.Product.UploadImage)

			r.Get("/orders", h.Order.List)
			r.Delete("/orders", h.Order.ConfirmClear)
			r.Get("/orders/stream", h.Order.Stream)
			r.Post("/orders/clear-requests", h.Order.RequestClear)
			r.Patch("/orders/{id}/status", h.Order.UpdateStatus)
			r.Get("/metrics", h.Order.Metrics)

			r.Get("/reviews", h.Review.List)
			r.Get("/reviews/stream", h.Review.Stream)
			r.Patch("/reviews/{id}/status", h.Review.SetStatus)
			r.Delete("/reviews/{id}", h.Review.Delete)
		})
	})

	return r
}
