package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"capriccio/internal/handler"
	"capriccio/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type stubAuthenticator map[string]model.Identity

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (model.Identity, error) {
	identity, ok := s[token]
	if !ok {
		return model.Identity{}, model.ErrInvalidToken
	}
	return identity, nil
}

func newTestRouter() http.Handler {
	logger := zerolog.Nop()
	streamer := handler.NewStreamer(nil, nil, logger)

	h := Handlers{
		Status:   handler.NewStatusHandler("offline", nil, nil, logger),
		Auth:     handler.NewAuthHandler(nil, logger),
		Cart:     handler.NewCartHandler(nil, nil, logger),
		Favorite: handler.NewFavoriteHandler(nil, logger),
		Product:  handler.NewProductHandler(nil, streamer, 1<<20, logger),
		Review:   handler.NewReviewHandler(nil, streamer, logger),
		Order:    handler.NewOrderHandler(nil, streamer, 5, logger),
	}

	auth := stubAuthenticator{
		"customer": {UserID: "u1", Role: model.RoleUser},
		"admin":    {UserID: "a1", Role: model.RoleAdmin},
	}

	return New(h, auth, Options{
		AllowedOrigin:  "https://capriccio.example",
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	}, logger)
}

func TestRouter(t *testing.T) {
	server := newTestRouter()

	tests := []struct {
		name           string
		method         string
		path           string
		token          string
		expectedStatus int
	}{
		{name: "Health is public", method: http.MethodGet, path: "/health", expectedStatus: http.StatusOK},
		{name: "Metrics are mounted", method: http.MethodGet, path: "/metrics", expectedStatus: http.StatusOK},
		{name: "Preflight short-circuits", method: http.MethodOptions, path: "/api/cart", expectedStatus: http.StatusNoContent},
		{name: "Cart needs a session", method: http.MethodGet, path: "/api/cart", expectedStatus: http.StatusUnauthorized},
		{name: "Unknown token", method: http.MethodGet, path: "/api/favorites", token: "forged", expectedStatus: http.StatusUnauthorized},
		{name: "Customers are kept out of admin", method: http.MethodGet, path: "/api/admin/orders", token: "customer", expectedStatus: http.StatusForbidden},
		{name: "Admin reaches admin routes", method: http.MethodGet, path: "/api/admin/orders/stream?range=2days", token: "admin", expectedStatus: http.StatusBadRequest},
		{name: "Reviews need a session", method: http.MethodPost, path: "/api/products/p1/reviews", expectedStatus: http.StatusUnauthorized},
		{name: "Unknown route", method: http.MethodGet, path: "/api/coupons", expectedStatus: http.StatusNotFound},
		{name: "Wrong method", method: http.MethodPut, path: "/api/checkout/submit", token: "customer", expectedStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()

			server.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "https://capriccio.example", w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
