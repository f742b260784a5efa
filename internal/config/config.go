package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Store     StoreConfig
	Upload    UploadConfig
	S3        S3Config
	Messaging MessagingConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	AllowedOrigin   string        `envconfig:"SERVER_ALLOWED_ORIGIN" default:"*"`
}

// DatabaseConfig holds database-related configuration.
// Leaving DB_USER unset runs the service without a backend.
type DatabaseConfig struct {
	Host            string `envconfig:"DB_HOST" default:"localhost"`
	Port            int    `envconfig:"DB_PORT" default:"5432"`
	User            string `envconfig:"DB_USER"`
	Password        string `envconfig:"DB_PASSWORD"`
	Database        string `envconfig:"DB_NAME" default:"capriccio"`
	MaxConnections  int    `envconfig:"DB_MAX_CONNECTIONS" default:"25"`
	MinConnections  int    `envconfig:"DB_MIN_CONNECTIONS" default:"5"`
	MaxConnLifetime int    `envconfig:"DB_MAX_CONN_LIFETIME" default:"300"` // seconds
	AutoMigrate     bool   `envconfig:"DB_AUTO_MIGRATE" default:"true"`

	ConnectAttempts int           `envconfig:"DB_CONNECT_ATTEMPTS" default:"3"`
	SlowQuery       time.Duration `envconfig:"DB_SLOW_QUERY" default:"250ms"`
}

// RedisConfig holds connection settings for the session store and change feed.
type RedisConfig struct {
	URL          string        `envconfig:"REDIS_URL"`
	Address      string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"REDIS_PASSWORD"`
	DB           int           `envconfig:"REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"3s"`
	KeyPrefix    string        `envconfig:"REDIS_KEY_PREFIX" default:"capriccio"`
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"` // "json" or "console"
}

// AuthConfig holds session token, custom token and password hashing settings.
type AuthConfig struct {
	JWTSecret         string        `envconfig:"JWT_SECRET"`
	Issuer            string        `envconfig:"JWT_ISSUER" default:"capriccio"`
	TokenTTL          time.Duration `envconfig:"JWT_TTL" default:"24h"`
	CustomTokenSecret string        `envconfig:"AUTH_CUSTOM_TOKEN_SECRET"`
	LoginRateLimit    int           `envconfig:"AUTH_LOGIN_RATE_LIMIT" default:"5"`
	LoginRateWindow   time.Duration `envconfig:"AUTH_LOGIN_RATE_WINDOW" default:"1m"`
	ArgonMemoryKB     int           `envconfig:"AUTH_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime         int           `envconfig:"AUTH_ARGON_TIME" default:"1"`
	ArgonParallelism  int           `envconfig:"AUTH_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen      int           `envconfig:"AUTH_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen       int           `envconfig:"AUTH_ARGON_KEY_LEN" default:"32"`
}

// StoreConfig holds storefront business settings.
type StoreConfig struct {
	WhatsAppNumber      string        `envconfig:"STORE_WHATSAPP_NUMBER" default:"5491126884940"`
	PickupAddress       string        `envconfig:"STORE_PICKUP_ADDRESS" default:"Av. Monteverde N° 1181, Quilmes"`
	TimeZone            string        `envconfig:"STORE_TIMEZONE" default:"America/Argentina/Buenos_Aires"`
	ReservationLeadTime time.Duration `envconfig:"STORE_RESERVATION_LEAD_TIME" default:"1m"`
	CartTTL             time.Duration `envconfig:"STORE_CART_TTL" default:"72h"`
	ConfirmationTTL     time.Duration `envconfig:"STORE_CONFIRMATION_TTL" default:"2m"`
	FeaturedCount       int           `envconfig:"STORE_FEATURED_COUNT" default:"5"`
	TopProducts         int           `envconfig:"STORE_TOP_PRODUCTS" default:"5"`
}

// UploadConfig holds image upload configuration.
type UploadConfig struct {
	Provider            string `envconfig:"UPLOAD_PROVIDER" default:"cloudinary"` // "cloudinary", "s3" or "fallback"
	CloudinaryCloudName string `envconfig:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryPreset    string `envconfig:"CLOUDINARY_UPLOAD_PRESET"`
	MaxBytes            int64  `envconfig:"UPLOAD_MAX_BYTES" default:"10485760"`
}

// S3Config holds AWS S3 configuration for product images.
type S3Config struct {
	Enabled       bool   `envconfig:"S3_ENABLED" default:"false"`
	Bucket        string `envconfig:"S3_BUCKET"`
	Region        string `envconfig:"S3_REGION" default:"us-east-1"`
	Prefix        string `envconfig:"S3_PREFIX" default:"products/"` // Path prefix within bucket
	PublicBaseURL string `envconfig:"S3_PUBLIC_BASE_URL"`
}

// MessagingConfig holds the kitchen queue configuration.
// An empty AMQP_URL disables order event publishing.
type MessagingConfig struct {
	AMQPURL string `envconfig:"AMQP_URL"`
	Queue   string `envconfig:"AMQP_ORDER_QUEUE" default:"kitchen_orders"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Enabled() {
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}

		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("invalid database port: %d", c.Database.Port)
		}

		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}

		if c.Database.MaxConnections < 1 {
			return fmt.Errorf("database max connections must be at least 1")
		}

		if c.Database.MinConnections < 1 {
			return fmt.Errorf("database min connections must be at least 1")
		}

		if c.Database.MinConnections > c.Database.MaxConnections {
			return fmt.Errorf("database min connections cannot exceed max connections")
		}
	}

	if c.Redis.URL == "" && c.Redis.Address == "" {
		return fmt.Errorf("redis url or address is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT TTL must be positive")
	}

	if c.Auth.LoginRateLimit < 1 {
		return fmt.Errorf("login rate limit must be at least 1")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Store.WhatsAppNumber == "" {
		return fmt.Errorf("store WhatsApp number is required")
	}

	if _, err := time.LoadLocation(c.Store.TimeZone); err != nil {
		return fmt.Errorf("invalid store time zone: %s", c.Store.TimeZone)
	}

	if c.Store.ReservationLeadTime < 0 {
		return fmt.Errorf("reservation lead time cannot be negative")
	}

	switch c.Upload.Provider {
	case "cloudinary", "s3", "fallback":
	default:
		return fmt.Errorf("invalid upload provider: %s (must be cloudinary, s3, or fallback)", c.Upload.Provider)
	}

	if c.Upload.Provider != "cloudinary" && !c.S3.Enabled {
		return fmt.Errorf("S3 must be enabled for upload provider %s", c.Upload.Provider)
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	return nil
}

// Enabled reports whether database credentials were supplied.
func (c *DatabaseConfig) Enabled() bool {
	return c.User != ""
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Location returns the store's time zone, falling back to UTC.
func (c *StoreConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
