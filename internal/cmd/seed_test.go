package cmd

import (
	"context"
	"errors"
	"strings"
	"testing"

	"capriccio/internal/catalog"
	"capriccio/internal/model"
	"capriccio/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryProducts is an in-memory product repository.
type memoryProducts struct {
	products  []model.Product
	createErr error
}

func (m *memoryProducts) List(context.Context) ([]model.Product, error) {
	return m.products, nil
}

func (m *memoryProducts) GetByID(_ context.Context, id string) (*model.Product, error) {
	for i := range m.products {
		if m.products[i].ID == id {
			return &m.products[i], nil
		}
	}
	return nil, nil
}

func (m *memoryProducts) Create(_ context.Context, product *model.Product) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.products = append(m.products, *product)
	return nil
}

func (m *memoryProducts) Update(context.Context, *model.Product) error { return nil }
func (m *memoryProducts) Delete(context.Context, string) error { return nil }
func (m *memoryProducts) SetStock(context.Context, string, int) error { return nil }

func (m *memoryProducts) DecrementStock(context.Context, string, int) (int, error) {
	return 0, nil
}

func newSeedService(repo *memoryProducts) service.ProductService {
	logger := zerolog.Nop()
	return service.NewProductService(repo, nil, catalog.NewStore(0, logger), nil, nopNotifier{}, logger)
}

func TestLoadSeedFile(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr string
	}{
		{
			name:  "Products",
			input: `[{"name":"Muzzarella","price":"150.70","stock":10,"category":"Pizzas"},{"name":"Faina","price":40,"category":"Extras"}]`,
			want:  2,
		},
		{name: "Empty list", input: `[]`, wantErr: "no products"},
		{name: "Malformed", input: `{"name":`, wantErr: "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forms, err := loadSeedFile(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, forms, tt.want)
		})
	}
}

func TestSeed(t *testing.T) {
	repo := &memoryProducts{products: []model.Product{{ID: "p1", Name: "Muzzarella"}}}
	forms := []model.ProductForm{
		{Name: "muzzarella", Price: "150", Category: "Pizzas"},
		{Name: "Fugazzeta", Price: "180,50", Stock: "6", Category: "Pizzas"},
		{Name: "Fugazzeta", Price: "180", Category: "Pizzas"},
	}

	created, skipped, err := seed(context.Background(), repo, newSeedService(repo), forms, true, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, 1, created)
	assert.Equal(t, 2, skipped)
	require.Len(t, repo.products, 2)
	assert.Equal(t, "Fugazzeta", repo.products[1].Name)
	assert.Equal(t, 6, repo.products[1].Stock)
}

func TestSeed_StopsAtInvalidProduct(t *testing.T) {
	repo := &memoryProducts{}
	forms := []model.ProductForm{
		{Name: "Napolitana", Price: "170", Category: "Pizzas"},
		{Name: "", Price: "10", Category: "Pizzas"},
		{Name: "Calabresa", Price: "190", Category: "Pizzas"},
	}

	created, _, err := seed(context.Background(), repo, newSeedService(repo), forms, false, zerolog.Nop())
	require.Error(t, err)

	var verr *model.ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, 1, created)
	assert.Len(t, repo.products, 1)
}

func TestSeed_RepositoryFailure(t *testing.T) {
	repo := &memoryProducts{createErr: model.ErrBackendUnavailable}
	forms := []model.ProductForm{{Name: "Napolitana", Price: "170", Category: "Pizzas"}}

	created, _, err := seed(context.Background(), repo, newSeedService(repo), forms, false, zerolog.Nop())
	assert.ErrorIs(t, err, model.ErrBackendUnavailable)
	assert.Zero(t, created)
}
