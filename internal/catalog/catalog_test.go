package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"capriccio/internal/feed"
	"capriccio/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func testProducts() []model.Product {
	return []model.Product{
		{ID: "p1", Name: "Napolitana", Description: "Tomate y ajo", Price: decimal.NewFromInt(180), Stock: 5, Category: strPtr("Pizzas")},
		{ID: "p2", Name: "Fainá", Description: "De garbanzo", Price: decimal.NewFromInt(40), Stock: 10, Category: strPtr("Acompañamientos")},
		{ID: "p3", Name: "Muzzarella", Description: "Clásica", Price: decimal.RequireFromString("150.7"), Stock: 0, Category: strPtr("Pizzas")},
		{ID: "p4", Name: "Agua", Price: decimal.NewFromInt(20), Stock: 3},
		{ID: "p5", Name: "Empanada de carne", Price: decimal.NewFromInt(30), Stock: 12, Category: strPtr("Empanadas")},
		{ID: "p6", Name: "Calzone", Price: decimal.NewFromInt(200), Stock: 2, Category: strPtr("Pizzas")},
	}
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		category string
		expected []string
	}{
		{name: "Empty query returns all", expected: []string{"p1", "p2", "p3", "p4", "p5", "p6"}},
		{name: "Matches name case-insensitively", query: "MUZZ", expected: []string{"p3"}},
		{name: "Matches description", query: "garbanzo", expected: []string{"p2"}},
		{name: "Category filter", category: "Pizzas", expected: []string{"p1", "p3", "p6"}},
		{name: "Uncategorized filter", category: model.UncategorizedLabel, expected: []string{"p4"}},
		{name: "Query and category", query: "a", category: "Pizzas", expected: []string{"p1", "p3", "p6"}},
		{name: "No match", query: "sushi", expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Search(testProducts(), tt.query, tt.category)
			ids := []string{}
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestGroupByCategory(t *testing.T) {
	groups := GroupByCategory(testProducts())
	require.Len(t, groups, 4)

	assert.Equal(t, "Pizzas", groups[0].Category)
	names := []string{}
	for _, p := range groups[0].Products {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Calzone", "Muzzarella", "Napolitana"}, names)

	assert.Equal(t, model.UncategorizedLabel, groups[2].Category)
}

func TestStore_Views(t *testing.T) {
	store := NewStore(5, zerolog.Nop())
	store.Replace(testProducts())

	featured := store.Featured()
	require.Len(t, featured, 5)
	assert.Equal(t, "Agua", featured[0].Name)
	for _, p := range featured {
		assert.NotEqual(t, "p6", p.ID, "only the first five products are featured")
	}

	stock, ok := store.Stock("p5")
	assert.True(t, ok)
	assert.Equal(t, 12, stock)

	_, ok = store.Stock("missing")
	assert.False(t, ok)

	favorites := store.Favorites([]string{"p6", "missing", "p2"})
	require.Len(t, favorites, 2)
	assert.Equal(t, "Calzone", favorites[0].Name)
	assert.Equal(t, "Fainá", favorites[1].Name)

	assert.Equal(t, []string{"Acompañamientos", "Empanadas", "Pizzas", model.UncategorizedLabel}, store.Categories())
}

func TestStore_SnapshotIsCopy(t *testing.T) {
	store := NewStore(5, zerolog.Nop())
	store.Replace(testProducts())

	snap := store.Snapshot()
	snap[0].Name = "changed"

	p, ok := store.Product("p1")
	require.True(t, ok)
	assert.Equal(t, "Napolitana", p.Name)
}

type listerFunc func(ctx context.Context) ([]model.Product, error)

func (f listerFunc) List(ctx context.Context) ([]model.Product, error) { return f(ctx) }

// offlineBroker fails every publish so the hub refreshes local subscribers.
type offlineBroker struct{}

func (offlineBroker) Publish(context.Context, feed.Topic) error {
	return errors.New("broker offline")
}

func (offlineBroker) Listen(ctx context.Context, _ ...feed.Topic) (<-chan feed.Topic, error) {
	ch := make(chan feed.Topic)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func TestStore_FollowsFeed(t *testing.T) {
	hub := feed.NewHub(offlineBroker{}, zerolog.Nop())

	var mu sync.Mutex
	products := testProducts()[:1]
	lister := listerFunc(func(context.Context) ([]model.Product, error) {
		mu.Lock()
		defer mu.Unlock()
		out := make([]model.Product, len(products))
		copy(out, products)
		return out, nil
	})

	store := NewStore(5, zerolog.Nop())
	store.Start(hub, lister)
	defer store.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, store.Wait(ctx))
	assert.Len(t, store.Snapshot(), 1)

	mu.Lock()
	products = testProducts()
	mu.Unlock()

	hub.Notify(context.Background(), feed.TopicProducts)
	require.Eventually(t, func() bool { return len(store.Snapshot()) == 6 }, time.Second, 5*time.Millisecond)

	loaded, syncedAt, lastErr := store.Status()
	assert.True(t, loaded)
	assert.False(t, syncedAt.IsZero())
	assert.NoError(t, lastErr)
}

func TestStore_WaitTimesOut(t *testing.T) {
	store := NewStore(5, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, store.Wait(ctx), ErrNotReady)
}
