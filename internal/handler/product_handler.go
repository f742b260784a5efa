package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"capriccio/internal/feed"
	"capriccio/internal/model"
	"capriccio/internal/service"
	"capriccio/internal/upload"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// ProductHandler handles catalog and product administration requests.
type ProductHandler struct {
	service  service.ProductService
	streamer *Streamer
	maxBytes int64
	logger   zerolog.Logger
}

// NewProductHandler creates a new product handler. maxBytes bounds image
// uploads.
func NewProductHandler(service service.ProductService, streamer *Streamer, maxBytes int64, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service:  service,
		streamer: streamer,
		maxBytes: maxBytes,
		logger:   logger.With().Str("handler", "product").Logger(),
	}
}

// Browse handles GET /api/products?q=&category= requests.
func (h *ProductHandler) Browse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, h.service.Browse(q.Get("q"), q.Get("category")))
}

// Featured handles GET /api/products/featured requests.
func (h *ProductHandler) Featured(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Featured())
}

// Stream handles GET /api/products/stream requests.
func (h *ProductHandler) Stream(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query, category := q.Get("q"), q.Get("category")
	serveStream(h.streamer, w, r, feed.TopicProducts, func(ctx context.Context) (model.CatalogPage, error) {
		return h.service.Live(ctx, query, category)
	})
}

// GetByID handles GET /api/products/{id} requests.
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// Create handles POST /api/admin/products requests.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var form model.ProductForm
	if !decodeJSON(w, r, &form, h.logger) {
		return
	}

	result, err := h.service.Create(r.Context(), form)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// Update handles PUT /api/admin/products/{id} requests.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var form model.ProductForm
	if !decodeJSON(w, r, &form, h.logger) {
		return
	}

	result, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), form)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Delete handles DELETE /api/admin/products/{id} requests.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]model.Notification{"notification": n})
}

// SetStock handles PUT /api/admin/products/{id}/stock requests.
func (h *ProductHandler) SetStock(w http.ResponseWriter, r *http.Request) {
	var req model.StockUpdate
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	result, err := h.service.SetStock(r.Context(), chi.URLParam(r, "id"), req.Stock)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// UploadImage handles multipart POST /api/admin/images requests. The image
// is read from the "file" field.
func (h *ProductHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+1<<16)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDomainError(w, model.NewValidationError("file", "La imagen supera el tamaño máximo permitido."), h.logger)
			return
		}
		writeDomainError(w, model.NewValidationError("file", "Selecciona una imagen para subir."), h.logger)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeDomainError(w, model.NewValidationError("file", "Selecciona una imagen para subir."), h.logger)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	if int64(len(data)) > h.maxBytes {
		writeDomainError(w, model.NewValidationError("file", "La imagen supera el tamaño máximo permitido."), h.logger)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	result, err := h.service.UploadImage(r.Context(), upload.File{
		Name:        filepath.Base(header.Filename),
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}
