package handler

import (
	"context"
	"net/http"

	"capriccio/internal/analytics"
	"capriccio/internal/middleware"
	"capriccio/internal/model"
	"capriccio/internal/upload"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockCartService is a mock implementation of CartService.
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) view(args mock.Arguments) (model.CartView, error) {
	return args.Get(0).(model.CartView), args.Error(1)
}

func (m *MockCartService) Get(ctx context.Context, userID string) (model.CartView, error) {
	return m.view(m.Called(ctx, userID))
}

func (m *MockCartService) Add(ctx context.Context, userID string, req model.AddToCartRequest) (model.CartView, error) {
	return m.view(m.Called(ctx, userID, req))
}

func (m *MockCartService) Increase(ctx context.Context, userID, productID string) (model.CartView, error) {
	return m.view(m.Called(ctx, userID, productID))
}

func (m *MockCartService) Decrease(ctx context.Context, userID, productID string) (model.CartView, error) {
	return m.view(m.Called(ctx, userID, productID))
}

func (m *MockCartService) Remove(ctx context.Context, userID, productID string) (model.CartView, error) {
	return m.view(m.Called(ctx, userID, productID))
}

func (m *MockCartService) Clear(ctx context.Context, userID string) (model.CartView, error) {
	return m.view(m.Called(ctx, userID))
}

func (m *MockCartService) Next(ctx context.Context, userID string) (model.CartView, error) {
	return m.view(m.Called(ctx, userID))
}

func (m *MockCartService) Back(ctx context.Context, userID string) (model.CartView, error) {
	return m.view(m.Called(ctx, userID))
}

// MockCheckoutService is a mock implementation of CheckoutService.
type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) Submit(ctx context.Context, identity model.Identity, form model.CheckoutForm) (*model.CheckoutResult, error) {
	args := m.Called(ctx, identity, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckoutResult), args.Error(1)
}

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) Browse(query, category string) model.CatalogPage {
	return m.Called(query, category).Get(0).(model.CatalogPage)
}

func (m *MockProductService) Live(ctx context.Context, query, category string) (model.CatalogPage, error) {
	args := m.Called(ctx, query, category)
	return args.Get(0).(model.CatalogPage), args.Error(1)
}

func (m *MockProductService) Featured() []model.Product {
	return m.Called().Get(0).([]model.Product)
}

func (m *MockProductService) Get(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) result(args mock.Arguments) (*model.ProductResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProductResult), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, form model.ProductForm) (*model.ProductResult, error) {
	return m.result(m.Called(ctx, form))
}

func (m *MockProductService) Update(ctx context.Context, id string, form model.ProductForm) (*model.ProductResult, error) {
	return m.result(m.Called(ctx, id, form))
}

func (m *MockProductService) Delete(ctx context.Context, id string) (model.Notification, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Notification), args.Error(1)
}

func (m *MockProductService) SetStock(ctx context.Context, id string, value model.FormValue) (*model.ProductResult, error) {
	return m.result(m.Called(ctx, id, value))
}

func (m *MockProductService) UploadImage(ctx context.Context, file upload.File) (*model.ImageUpload, error) {
	args := m.Called(ctx, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ImageUpload), args.Error(1)
}

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) List(ctx context.Context, rangeName string) ([]model.Order, error) {
	args := m.Called(ctx, rangeName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) Report(ctx context.Context, rangeName string, top int) (analytics.Report, error) {
	args := m.Called(ctx, rangeName, top)
	return args.Get(0).(analytics.Report), args.Error(1)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (model.Notification, error) {
	args := m.Called(ctx, id, status)
	return args.Get(0).(model.Notification), args.Error(1)
}

func (m *MockOrderService) RequestClear(ctx context.Context, rangeName string) (*model.ClearRequest, error) {
	args := m.Called(ctx, rangeName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ClearRequest), args.Error(1)
}

func (m *MockOrderService) ConfirmClear(ctx context.Context, rangeName, token string) (*model.ClearResult, error) {
	args := m.Called(ctx, rangeName, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ClearResult), args.Error(1)
}

// MockReviewService is a mock implementation of ReviewService.
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) Create(ctx context.Context, identity model.Identity, productID string, form model.ReviewForm) (*model.Review, model.Notification, error) {
	args := m.Called(ctx, identity, productID, form)
	if args.Get(0) == nil {
		return nil, model.Notification{}, args.Error(2)
	}
	return args.Get(0).(*model.Review), args.Get(1).(model.Notification), args.Error(2)
}

func (m *MockReviewService) Approved(ctx context.Context, productID string) ([]model.Review, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Review), args.Error(1)
}

func (m *MockReviewService) List(ctx context.Context, rangeName string) ([]model.Review, error) {
	args := m.Called(ctx, rangeName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Review), args.Error(1)
}

func (m *MockReviewService) SetStatus(ctx context.Context, id uuid.UUID, status model.ReviewStatus) (model.Notification, error) {
	args := m.Called(ctx, id, status)
	return args.Get(0).(model.Notification), args.Error(1)
}

func (m *MockReviewService) Delete(ctx context.Context, id uuid.UUID) (model.Notification, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Notification), args.Error(1)
}

// MockFavoriteService is a mock implementation of FavoriteService.
type MockFavoriteService struct {
	mock.Mock
}

func (m *MockFavoriteService) List(ctx context.Context, userID string) ([]model.Product, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockFavoriteService) IDs(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockFavoriteService) Toggle(ctx context.Context, userID, productID string) (*model.FavoriteToggle, error) {
	args := m.Called(ctx, userID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FavoriteToggle), args.Error(1)
}

// MockAuthService is a mock implementation of AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) session(args mock.Arguments) (*model.Session, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockAuthService) SignInAnonymous(ctx context.Context) (*model.Session, error) {
	return m.session(m.Called(ctx))
}

func (m *MockAuthService) Login(ctx context.Context, req model.LoginRequest, admin bool) (*model.Session, error) {
	return m.session(m.Called(ctx, req, admin))
}

func (m *MockAuthService) SignInWithToken(ctx context.Context, req model.CustomTokenRequest) (*model.Session, error) {
	return m.session(m.Called(ctx, req))
}

func (m *MockAuthService) SignOut(ctx context.Context, identity model.Identity) (model.Notification, error) {
	args := m.Called(ctx, identity)
	return args.Get(0).(model.Notification), args.Error(1)
}

func (m *MockAuthService) Me(ctx context.Context, identity model.Identity) (*model.Session, error) {
	return m.session(m.Called(ctx, identity))
}

func (m *MockAuthService) Authenticate(ctx context.Context, token string) (model.Identity, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.Identity), args.Error(1)
}

var testUser = model.Identity{UserID: "u1", Role: model.RoleUser}

// withIdentity attaches the identity the auth middleware would set.
func withIdentity(r *http.Request, identity model.Identity) *http.Request {
	return r.WithContext(middleware.WithIdentity(r.Context(), identity))
}

// withURLParams sets chi route parameters as the router would.
func withURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
