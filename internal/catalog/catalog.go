package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"capriccio/internal/feed"
	"capriccio/internal/model"

	"github.com/rs/zerolog"
)

// ErrNotReady is returned while the first snapshot has not arrived.
var ErrNotReady = errors.New("catalog not loaded yet")

// Lister loads the full product collection.
type Lister interface {
	List(ctx context.Context) ([]model.Product, error)
}

// Store holds the live product snapshot delivered by the change feed.
type Store struct {
	featured int
	logger   zerolog.Logger

	mu       sync.RWMutex
	products []model.Product
	byID     map[string]int
	ready    chan struct{}
	loaded   bool
	lastErr  error
	syncedAt time.Time

	unsubscribe func()
}

// NewStore creates an empty catalog. featured is how many products the
// featured view shows.
func NewStore(featured int, logger zerolog.Logger) *Store {
	return &Store{
		featured: featured,
		logger:   logger.With().Str("component", "catalog").Logger(),
		products: []model.Product{},
		byID:     map[string]int{},
		ready:    make(chan struct{}),
	}
}

// Start subscribes the catalog to product changes.
func (s *Store) Start(hub *feed.Hub, lister Lister) {
	s.unsubscribe = feed.Subscribe(hub, feed.TopicProducts, lister.List, s.Replace, s.fail)
}

// Stop releases the product subscription.
func (s *Store) Stop() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Replace swaps in a new snapshot.
func (s *Store) Replace(products []model.Product) {
	byID := make(map[string]int, len(products))
	for i, p := range products {
		byID[p.ID] = i
	}

	s.mu.Lock()
	s.products = products
	s.byID = byID
	s.lastErr = nil
	s.syncedAt = time.Now()
	first := !s.loaded
	s.loaded = true
	s.mu.Unlock()

	if first {
		close(s.ready)
	}

	s.logger.Debug().Int("products", len(products)).Msg("catalog snapshot replaced")
}

func (s *Store) fail(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

// Wait blocks until the first snapshot arrived or ctx is done.
func (s *Store) Wait(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ErrNotReady
	}
}

// Status reports whether a snapshot is loaded, when it was taken and the
// last refresh error, if any.
func (s *Store) Status() (loaded bool, syncedAt time.Time, lastErr error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded, s.syncedAt, s.lastErr
}

// Snapshot returns a copy of the current products.
func (s *Store) Snapshot() []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Product, len(s.products))
	copy(out, s.products)
	return out
}

// Product returns a product of the current snapshot.
func (s *Store) Product(id string) (model.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return model.Product{}, false
	}
	return s.products[i], true
}

// Stock returns the current stock of a product.
func (s *Store) Stock(id string) (int, bool) {
	p, ok := s.Product(id)
	if !ok {
		return 0, false
	}
	return p.Stock, true
}

// Search filters the snapshot by a case-insensitive substring of name or
// description and, when category is not empty, by category.
func (s *Store) Search(query, category string) []model.Product {
	return Search(s.Snapshot(), query, category)
}

// Featured returns the first products of the snapshot sorted by name.
func (s *Store) Featured() []model.Product {
	products := s.Snapshot()
	if len(products) > s.featured {
		products = products[:s.featured]
	}
	SortByName(products)
	return products
}

// Favorites returns the products whose ids are in ids, sorted by name.
// Ids no longer in the catalog are skipped.
func (s *Store) Favorites(ids []string) []model.Product {
	s.mu.RLock()
	out := make([]model.Product, 0, len(ids))
	for _, id := range ids {
		if i, ok := s.byID[id]; ok {
			out = append(out, s.products[i])
		}
	}
	s.mu.RUnlock()

	SortByName(out)
	return out
}

// Categories returns the distinct category labels of the snapshot, sorted.
func (s *Store) Categories() []string {
	return Categories(s.Snapshot())
}

// Search filters products by query and category.
func Search(products []model.Product, query, category string) []model.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	category = strings.TrimSpace(category)

	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if category != "" && p.CategoryName() != category {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// GroupByCategory groups products by category label, in order of first
// appearance, with products sorted by name inside each group.
func GroupByCategory(products []model.Product) []model.CategoryGroup {
	index := map[string]int{}
	groups := []model.CategoryGroup{}

	for _, p := range products {
		name := p.CategoryName()
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, model.CategoryGroup{Category: name})
		}
		groups[i].Products = append(groups[i].Products, p)
	}

	for i := range groups {
		SortByName(groups[i].Products)
	}
	return groups
}

// Categories returns the distinct category labels of products, sorted.
func Categories(products []model.Product) []string {
	seen := map[string]struct{}{}
	for _, p := range products {
		seen[p.CategoryName()] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// SortByName sorts products by name in place.
func SortByName(products []model.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Name < products[j].Name
	})
}
