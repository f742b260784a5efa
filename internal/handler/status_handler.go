package handler

import (
	"net/http"
	"time"

	"capriccio/internal/service"

	"github.com/rs/zerolog"
)

// StatusReport describes the running mode of the service.
type StatusReport struct {
	Backend  string        `json:"backend"`
	Warnings []string      `json:"warnings"`
	Catalog  CatalogStatus `json:"catalog"`
}

// CatalogStatus describes the live product snapshot.
type CatalogStatus struct {
	Loaded   bool       `json:"loaded"`
	SyncedAt *time.Time `json:"syncedAt,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// StatusHandler reports liveness and the degraded modes found at startup.
type StatusHandler struct {
	backend  string
	warnings []string
	catalog  service.Catalog
	logger   zerolog.Logger
}

// NewStatusHandler creates a status handler. backend names the storage
// mode; warnings are shown once per client.
func NewStatusHandler(backend string, warnings []string, catalog service.Catalog, logger zerolog.Logger) *StatusHandler {
	if warnings == nil {
		warnings = []string{}
	}
	return &StatusHandler{
		backend:  backend,
		warnings: warnings,
		catalog:  catalog,
		logger:   logger.With().Str("handler", "status").Logger(),
	}
}

// Health handles GET /health requests.
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Status handles GET /api/status requests.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	loaded, syncedAt, lastErr := h.catalog.Status()

	report := StatusReport{
		Backend:  h.backend,
		Warnings: h.warnings,
		Catalog:  CatalogStatus{Loaded: loaded},
	}
	if !syncedAt.IsZero() {
		report.Catalog.SyncedAt = &syncedAt
	}
	if lastErr != nil {
		report.Catalog.Error = lastErr.Error()
	}

	writeJSON(w, http.StatusOK, report)
}
