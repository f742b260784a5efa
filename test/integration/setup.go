package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"capriccio/internal/auth"
	"capriccio/internal/catalog"
	"capriccio/internal/checkout"
	"capriccio/internal/config"
	"capriccio/internal/database"
	"capriccio/internal/events"
	"capriccio/internal/feed"
	"capriccio/internal/handler"
	"capriccio/internal/metrics"
	"capriccio/internal/model"
	"capriccio/internal/repository"
	"capriccio/internal/router"
	"capriccio/internal/service"
	"capriccio/internal/session"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestEnv is a storefront wired against real PostgreSQL and Redis containers.
type TestEnv struct {
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Repos   repository.Repositories
	Catalog *catalog.Store
	Hub     *feed.Hub
	Auth    config.AuthConfig
	Server  http.Handler
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:         "integration-secret",
		Issuer:            "capriccio",
		TokenTTL:          time.Hour,
		CustomTokenSecret: "integration-custom",
		LoginRateLimit:    5,
		LoginRateWindow:   time.Minute,
		ArgonMemoryKB:     64,
		ArgonTime:         1,
		ArgonParallelism:  1,
		ArgonSaltLen:      16,
		ArgonKeyLen:       32,
	}
}

// SetupTestEnv starts the containers, migrates the schema and builds the
// HTTP handler the way the API server does.
func SetupTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	pool := setupPostgres(t)
	client := setupRedis(t)
	logger := zerolog.Nop()

	repos := repository.New(pool, logger)
	authCfg := testAuthConfig()
	prefix := "capriccio-test"

	sessions := session.NewStore(client, prefix, time.Hour, logger)
	hub := feed.NewHub(feed.NewRedisBroker(client, prefix), logger)
	go func() { _ = hub.Run(ctx) }()

	products := catalog.NewStore(4, logger)
	products.Start(hub, repos.Products)
	t.Cleanup(products.Stop)

	tokens, err := auth.NewTokens(authCfg)
	if err != nil {
		t.Fatalf("failed to create tokens: %v", err)
	}

	assembler := checkout.NewAssembler(checkout.Config{
		WhatsAppNumber: "5491100000000",
		PickupAddress:  "Av. Siempre Viva 742",
		Location:       time.UTC,
		LeadTime:       time.Minute,
	})

	m := metrics.New(prometheus.NewRegistry())
	publisher := events.NewNop()

	authService := service.NewAuthService(repos.Users, tokens, sessions, authCfg, logger)
	cartService := service.NewCartService(sessions, products, m, logger)
	checkoutService := service.NewCheckoutService(sessions, products, repos.Orders, repos.Products, assembler, publisher, hub, m, logger)
	productService := service.NewProductService(repos.Products, repos.Reviews, products, nil, hub, logger)
	orderService := service.NewOrderService(repos.Orders, sessions, hub, 5*time.Minute, logger)
	reviewService := service.NewReviewService(repos.Reviews, products, hub, logger)
	favoriteService := service.NewFavoriteService(sessions, products, logger)

	streamer := handler.NewStreamer(hub, m, logger)
	server := router.New(router.Handlers{
		Status:   handler.NewStatusHandler("postgres", nil, products, logger),
		Auth:     handler.NewAuthHandler(authService, logger),
		Cart:     handler.NewCartHandler(cartService, checkoutService, logger),
		Favorite: handler.NewFavoriteHandler(favoriteService, logger),
		Product:  handler.NewProductHandler(productService, streamer, 1<<20, logger),
		Review:   handler.NewReviewHandler(reviewService, streamer, logger),
		Order:    handler.NewOrderHandler(orderService, streamer, 5, logger),
	}, authService, router.Options{
		Metrics:        m,
		MetricsHandler: promhttp.Handler(),
	}, logger)

	return &TestEnv{
		Pool:    pool,
		Redis:   client,
		Repos:   repos,
		Catalog: products,
		Hub:     hub,
		Auth:    authCfg,
		Server:  server,
	}
}

func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	if err := database.Migrate(ctx, pool, zerolog.Nop(), "up"); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return pool
}

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()

	ctx := context.Background()

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("failed to get redis endpoint: %v", err)
	}

	client, err := session.NewClient(ctx, config.RedisConfig{
		Address:      endpoint,
		PoolSize:     5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Close()
		if err := redisContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return client
}

// SeedProducts inserts catalog products and waits for the catalog to load them.
func (e *TestEnv) SeedProducts(t *testing.T) []model.Product {
	t.Helper()

	ctx := context.Background()
	now := time.Now().UTC()
	pizzas, drinks := "Pizzas", "Bebidas"

	products := []model.Product{
		{ID: "muzza", Name: "Muzzarella", Price: decimal.NewFromInt(150), Stock: 5, Category: &pizzas},
		{ID: "fugazza", Name: "Fugazzeta", Price: decimal.RequireFromString("180.50"), Stock: 2, Category: &pizzas},
		{ID: "coca", Name: "Coca-Cola", Price: decimal.NewFromInt(40), Stock: 10, Category: &drinks},
	}

	for i := range products {
		products[i].CreatedAt = now
		products[i].UpdatedAt = now
		if err := e.Repos.Products.Create(ctx, &products[i]); err != nil {
			t.Fatalf("failed to seed product %s: %v", products[i].ID, err)
		}
	}

	e.waitForCatalog(t, len(products))
	return products
}

// CreateAdmin stores an admin profile with an email/password login.
func (e *TestEnv) CreateAdmin(t *testing.T, email, password string) string {
	t.Helper()

	ctx := context.Background()
	userID := uuid.NewString()

	hash, err := auth.HashPassword(password, e.Auth)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if _, err := e.Repos.Users.CreateProfile(ctx, &model.UserProfile{ID: userID, Role: model.RoleAdmin, CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	if err := e.Repos.Users.UpsertCredential(ctx, &model.Credential{UserID: userID, Email: email, PasswordHash: hash, CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("failed to create credential: %v", err)
	}

	return userID
}

func (e *TestEnv) waitForCatalog(t *testing.T, want int) {
	t.Helper()

	// The catalog reloads asynchronously after the change signal.
	e.Hub.Notify(context.Background(), feed.TopicProducts)

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if len(e.Catalog.Snapshot()) == want {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("catalog did not load %d products", want)
}
