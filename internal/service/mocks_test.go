package service

import (
	"context"
	"sync"
	"time"

	"capriccio/internal/catalog"
	"capriccio/internal/events"
	"capriccio/internal/feed"
	"capriccio/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) List(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, product *model.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, product *model.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockProductRepository) SetStock(ctx context.Context, id string, stock int) error {
	return m.Called(ctx, id, stock).Error(0)
}

func (m *MockProductRepository) DecrementStock(ctx context.Context, id string, quantity int) (int, error) {
	args := m.Called(ctx, id, quantity)
	return args.Int(0), args.Error(1)
}

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *model.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockOrderRepository) ListSince(ctx context.Context, since *time.Time) ([]model.Order, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockOrderRepository) DeleteSince(ctx context.Context, since *time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}

// MockReviewRepository is a mock implementation of ReviewRepository.
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, review *model.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *MockReviewRepository) ListByProduct(ctx context.Context, productID string, status model.ReviewStatus) ([]model.Review, error) {
	args := m.Called(ctx, productID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Review), args.Error(1)
}

func (m *MockReviewRepository) ListSince(ctx context.Context, since *time.Time) ([]model.Review, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Review), args.Error(1)
}

func (m *MockReviewRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ReviewStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetProfile(ctx context.Context, id string) (*model.UserProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProfile), args.Error(1)
}

func (m *MockUserRepository) CreateProfile(ctx context.Context, profile *model.UserProfile) (*model.UserProfile, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProfile), args.Error(1)
}

func (m *MockUserRepository) SetRole(ctx context.Context, id string, role model.Role) error {
	return m.Called(ctx, id, role).Error(0)
}

func (m *MockUserRepository) GetCredentialByEmail(ctx context.Context, email string) (*model.Credential, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Credential), args.Error(1)
}

func (m *MockUserRepository) UpsertCredential(ctx context.Context, credential *model.Credential) error {
	return m.Called(ctx, credential).Error(0)
}

// memStore is an in-memory stand-in for the Redis session store.
type memStore struct {
	mu            sync.Mutex
	carts         map[string]model.CartSession
	favorites     map[string]map[string]bool
	confirmations map[string]string
	attempts      map[string]int64
	revoked       map[string]bool
	nextToken     int
}

func newMemStore() *memStore {
	return &memStore{
		carts:         map[string]model.CartSession{},
		favorites:     map[string]map[string]bool{},
		confirmations: map[string]string{},
		attempts:      map[string]int64{},
		revoked:       map[string]bool{},
	}
}

func (m *memStore) LoadCart(_ context.Context, userID string) (model.CartSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.carts[userID]
	if !ok {
		return model.CartSession{Lines: []model.CartLine{}, Stage: model.StageCart}, nil
	}
	sess.Lines = append([]model.CartLine{}, sess.Lines...)
	return sess, nil
}

func (m *memStore) SaveCart(_ context.Context, userID string, sess model.CartSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[userID] = sess
	return nil
}

func (m *memStore) Favorites(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := []string{}
	for id := range m.favorites[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memStore) ToggleFavorite(_ context.Context, userID, productID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.favorites[userID] == nil {
		m.favorites[userID] = map[string]bool{}
	}
	if m.favorites[userID][productID] {
		delete(m.favorites[userID], productID)
		return false, nil
	}
	m.favorites[userID][productID] = true
	return true, nil
}

func (m *memStore) IssueConfirmation(_ context.Context, scope string, _ time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextToken++
	token := "token-" + string(rune('a'+m.nextToken))
	m.confirmations[token] = scope
	return token, nil
}

func (m *memStore) ConsumeConfirmation(_ context.Context, token, scope string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.confirmations[token]
	delete(m.confirmations, token)
	if !ok || stored != scope {
		return model.ErrInvalidConfirmation
	}
	return nil
}

func (m *memStore) AllowAttempt(_ context.Context, scope string, limit int64, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[scope]++
	return m.attempts[scope] <= limit, nil
}

func (m *memStore) ResetAttempts(_ context.Context, scope string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.attempts, scope)
	return nil
}

func (m *memStore) Revoke(_ context.Context, tokenID string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[tokenID] = true
	return nil
}

func (m *memStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revoked[tokenID], nil
}

// recordingNotifier records announced topics.
type recordingNotifier struct {
	mu     sync.Mutex
	topics []feed.Topic
}

func (n *recordingNotifier) Notify(_ context.Context, topic feed.Topic) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.topics = append(n.topics, topic)
}

func (n *recordingNotifier) Topics() []feed.Topic {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]feed.Topic{}, n.topics...)
}

// recordingPublisher records published order events.
type recordingPublisher struct {
	events []events.OrderPlaced
	err    error
}

func (p *recordingPublisher) PublishOrderPlaced(_ context.Context, event events.OrderPlaced) error {
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func strPtr(s string) *string { return &s }

func testProducts() []model.Product {
	return []model.Product{
		{ID: "p1", Name: "Muzzarella", Price: decimal.NewFromInt(100), Stock: 5, Category: strPtr("Pizzas")},
		{ID: "p2", Name: "Fugazzeta", Price: decimal.RequireFromString("90.5"), Stock: 3, Category: strPtr("Pizzas")},
		{ID: "p3", Name: "Empanada", Price: decimal.NewFromInt(60), Stock: 0, Category: strPtr("Empanadas")},
		{ID: "p4", Name: "Flan", Price: decimal.NewFromInt(40), Stock: 10},
	}
}

func newTestCatalog(products []model.Product) *catalog.Store {
	c := catalog.NewStore(5, zerolog.Nop())
	c.Replace(products)
	return c
}
