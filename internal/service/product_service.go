package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"capriccio/internal/catalog"
	"capriccio/internal/feed"
	"capriccio/internal/model"
	"capriccio/internal/repository"
	"capriccio/internal/upload"
	"capriccio/internal/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var productFormMessages = validation.Messages{
	"name":      "Por favor, completa todos los campos requeridos (Nombre, Precio > 0, Categoría).",
	"price":     "Por favor, completa todos los campos requeridos (Nombre, Precio > 0, Categoría).",
	"category":  "Por favor, completa todos los campos requeridos (Nombre, Precio > 0, Categoría).",
	"image.url": "La imagen debe ser una URL válida.",
}

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	reviewRepo  repository.ReviewRepository
	catalog     Catalog
	uploader    upload.Uploader
	notifier    Notifier
	now         func() time.Time
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	productRepo repository.ProductRepository,
	reviewRepo repository.ReviewRepository,
	catalog Catalog,
	uploader upload.Uploader,
	notifier Notifier,
	logger zerolog.Logger,
) ProductService {
	return &productService{
		productRepo: productRepo,
		reviewRepo:  reviewRepo,
		catalog:     catalog,
		uploader:    uploader,
		notifier:    notifier,
		now:         time.Now,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// Browse searches the live catalog and groups the result by category.
func (s *productService) Browse(query, category string) model.CatalogPage {
	loaded, _, _ := s.catalog.Status()
	products := s.catalog.Search(query, category)

	return model.CatalogPage{
		Loaded:     loaded,
		Products:   products,
		Groups:     catalog.GroupByCategory(products),
		Categories: s.catalog.Categories(),
	}
}

// Live builds the storefront page from a fresh repository read. Streams use
// it so a change signal never races the snapshot refresh.
func (s *productService) Live(ctx context.Context, query, category string) (model.CatalogPage, error) {
	all, err := s.productRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list products")
		return model.CatalogPage{}, fmt.Errorf("failed to list products: %w", err)
	}

	products := catalog.Search(all, query, category)
	return model.CatalogPage{
		Loaded:     true,
		Products:   products,
		Groups:     catalog.GroupByCategory(products),
		Categories: catalog.Categories(all),
	}, nil
}

// Featured returns the featured products.
func (s *productService) Featured() []model.Product {
	return s.catalog.Featured()
}

// Get returns a product with its approved reviews. The live snapshot is
// consulted first; the repository serves products not yet delivered.
func (s *productService) Get(ctx context.Context, id string) (*model.Product, error) {
	product, ok := s.catalog.Product(id)
	if !ok {
		stored, err := s.productRepo.GetByID(ctx, id)
		if err != nil {
			s.logger.Error().Err(err).Str("product_id", id).Msg("failed to get product")
			return nil, fmt.Errorf("failed to get product: %w", err)
		}
		if stored == nil {
			return nil, model.ErrProductNotFound
		}
		product = *stored
	}

	reviews, err := s.reviewRepo.ListByProduct(ctx, id, model.ReviewApproved)
	if err != nil {
		// Reviews are secondary to the product itself.
		s.logger.Warn().Err(err).Str("product_id", id).Msg("failed to load reviews")
		reviews = []model.Review{}
	}
	product.Reviews = reviews

	return &product, nil
}

// Create parses the form and inserts a new product.
func (s *productService) Create(ctx context.Context, form model.ProductForm) (*model.ProductResult, error) {
	input, err := parseProductForm(form)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	product := &model.Product{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		Category:    input.Category,
		Image:       input.Image,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		s.logger.Error().Err(err).Str("name", product.Name).Msg("failed to create product")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info().Str("product_id", product.ID).Str("name", product.Name).Msg("product created")
	s.notifier.Notify(ctx, feed.TopicProducts)

	return &model.ProductResult{
		Product:      product,
		Notification: model.NewNotification(model.LevelSuccess, "¡Producto agregado exitosamente!", 0),
	}, nil
}

// Update parses the form and replaces a product.
func (s *productService) Update(ctx context.Context, id string, form model.ProductForm) (*model.ProductResult, error) {
	input, err := parseProductForm(form)
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		ID:          id,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		Category:    input.Category,
		Image:       input.Image,
		UpdatedAt:   s.now().UTC(),
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to update product")
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.logger.Info().Str("product_id", id).Msg("product updated")
	s.notifier.Notify(ctx, feed.TopicProducts)

	return &model.ProductResult{
		Product:      product,
		Notification: model.NewNotification(model.LevelSuccess, "¡Producto actualizado exitosamente!", 0),
	}, nil
}

// Delete removes a product. Its reviews go with it.
func (s *productService) Delete(ctx context.Context, id string) (model.Notification, error) {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			return model.Notification{}, err
		}
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to delete product")
		return model.Notification{}, fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.Info().Str("product_id", id).Msg("product deleted")
	s.notifier.Notify(ctx, feed.TopicProducts)
	s.notifier.Notify(ctx, feed.TopicReviews)

	return model.NewNotification(model.LevelSuccess, "¡Producto eliminado exitosamente!", 0), nil
}

// SetStock overwrites the stock of a product. Unparseable and negative
// values become zero; larger values are capped at model.MaxStock.
func (s *productService) SetStock(ctx context.Context, id string, value model.FormValue) (*model.ProductResult, error) {
	stock := value.StockValue()

	if err := s.productRepo.SetStock(ctx, id, stock); err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("product_id", id).Int("stock", stock).Msg("failed to set stock")
		return nil, fmt.Errorf("failed to set stock: %w", err)
	}

	name := "producto"
	var product *model.Product
	if p, ok := s.catalog.Product(id); ok {
		name = p.Name
		p.Stock = stock
		product = &p
	}

	s.logger.Info().Str("product_id", id).Int("stock", stock).Msg("stock updated")
	s.notifier.Notify(ctx, feed.TopicProducts)

	return &model.ProductResult{
		Product: product,
		Notification: model.NewNotification(model.LevelSuccess,
			fmt.Sprintf("Stock de %s actualizado a %d.", name, stock), 0),
	}, nil
}

// UploadImage stores a product image and returns its URL.
func (s *productService) UploadImage(ctx context.Context, file upload.File) (*model.ImageUpload, error) {
	url, err := s.uploader.Upload(ctx, file)
	if err != nil {
		s.logger.Warn().Err(err).Str("file", file.Name).Msg("image upload failed")
		return nil, &model.UploadError{Err: err}
	}

	return &model.ImageUpload{
		URL:          url,
		Notification: model.NewNotification(model.LevelSuccess, "Imagen subida con éxito.", 0),
	}, nil
}

// parseProductForm is the single parse boundary for admin product input.
func parseProductForm(form model.ProductForm) (model.ProductInput, error) {
	form.Name = strings.TrimSpace(form.Name)
	form.Category = strings.TrimSpace(form.Category)
	form.Description = strings.TrimSpace(form.Description)
	form.Image = strings.TrimSpace(form.Image)

	verr := &model.ValidationError{}
	if err := validation.Struct(form, productFormMessages); err != nil {
		structErr, ok := err.(*model.ValidationError)
		if !ok {
			return model.ProductInput{}, err
		}
		verr = structErr
	}

	input := model.ProductInput{
		Name:        form.Name,
		Description: form.Description,
		Stock:       form.Stock.StockValue(),
	}

	if verr.Fields["price"] == "" {
		price, err := form.Price.Decimal()
		switch {
		case err != nil:
			verr.Add("price", "El precio debe ser un número válido.")
		case !price.IsPositive():
			verr.Add("price", productFormMessages["price"])
		case !price.Equal(price.Truncate(2)):
			verr.Add("price", "El precio puede tener como máximo 2 decimales.")
		case price.GreaterThan(model.MaxPrice):
			verr.Add("price", "El precio es demasiado alto.")
		default:
			input.Price = price
		}
	}

	if !verr.Empty() {
		return model.ProductInput{}, verr
	}

	category := form.Category
	input.Category = &category
	if form.Image != "" {
		image := form.Image
		input.Image = &image
	}

	return input, nil
}
