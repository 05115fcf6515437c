package config

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const devJWTSecret = "dev-secret"

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=1h"`

	// SeedDefaultUsers is "true", "false" or empty; empty seeds only in development.
	SeedDefaultUsers   string        `env:"SEED_DEFAULT_USERS"`
	AllowAdminSignup   bool          `env:"ALLOW_ADMIN_SIGNUP,   default=false"`
	PredictRequireAuth bool          `env:"PREDICT_REQUIRE_AUTH, default=false"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT,     default=10s"`
	AuditWorkers       int           `env:"AUDIT_WORKERS,        default=2"`
	CORSAllowOrigins   []string      `env:"CORS_ALLOW_ORIGINS,   default=*"`

	Artifact  ArtifactConfig
	Inference InferenceConfig
	Mongo     MongoConfig
	Redis     RedisConfig
}

type ArtifactConfig struct {
	Dir            string `env:"ARTIFACT_DIR,     default=uploads/models"`
	Name           string `env:"ARTIFACT_NAME,    default=model.json"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES, default=16777216"`
}

type InferenceConfig struct {
	LoadTimeout time.Duration `env:"MODEL_LOAD_TIMEOUT,   default=5s"`
	CacheTTL    time.Duration `env:"PREDICTION_CACHE_TTL, default=10m"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=spamguard"`
}

type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED,  default=true"`
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.JWTSecret == "" && cfg.IsDevelopment() {
		cfg.JWTSecret = devJWTSecret
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required outside development"))
	}
	if !c.IsDevelopment() && c.JWTSecret == devJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must not use the development default"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.Artifact.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if c.Artifact.Dir == "" || c.Artifact.Name == "" {
		errs = append(errs, errors.New("ARTIFACT_DIR and ARTIFACT_NAME are required"))
	}
	if c.SeedDefaultUsers != "" {
		if _, err := strconv.ParseBool(c.SeedDefaultUsers); err != nil {
			errs = append(errs, fmt.Errorf("SEED_DEFAULT_USERS: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// ShouldSeedUsers reports whether the default accounts are created at startup.
func (c *Config) ShouldSeedUsers() bool {
	if c.SeedDefaultUsers == "" {
		return c.IsDevelopment()
	}
	v, _ := strconv.ParseBool(c.SeedDefaultUsers)
	return v
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
