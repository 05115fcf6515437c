package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/api"
	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/api/handler"
	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/domain"
	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/ports"
	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/service"
	mongodb "github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/infrastructure/db/mongo"
	redisdb "github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/infrastructure/db/redis"
	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/infrastructure/queue"
	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/infrastructure/storage/filestore"
	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/pkg/logger"
)

// defaultAccounts are created on first start when seeding is enabled.
var defaultAccounts = []struct {
	username, password, role string
}{
	{"admin", "admin123", domain.RoleAdmin},
	{"user", "user123", domain.RoleUser},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log := logger.Get()

		// --- Credential store ---
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer func() {
			_ = client.Disconnect(context.Background())
		}()
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			return err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

		checks := map[string]handler.DependencyCheck{
			"mongodb": func(ctx context.Context) error { return client.Ping(ctx, nil) },
		}

		// --- Prediction cache (optional) ---
		var cache ports.PredictionCache
		if cfg.Redis.Enabled {
			rdb, err := redisdb.Connect(ctx, redisdb.Config{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			if err != nil {
				log.Warn().Err(err).Msg("redis unavailable, prediction cache disabled")
			} else {
				defer rdb.Close()
				cache = redisdb.NewPredictionCache(rdb)
				checks["redis"] = redisCheck(rdb)
			}
		}

		// --- Services ---
		tokens, err := service.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
		if err != nil {
			return err
		}
		authSvc := service.NewAuthService(mongodb.NewAuthRepository(db), tokens, cfg.AllowAdminSignup, log)
		if cfg.ShouldSeedUsers() {
			seedDefaultAccounts(ctx, authSvc, log)
		}

		store, err := filestore.New(filestore.Config{Dir: cfg.Artifact.Dir, Name: cfg.Artifact.Name}, log)
		if err != nil {
			return err
		}
		inference := service.NewInferenceService(store, cache, service.InferenceConfig{
			LoadTimeout: cfg.Inference.LoadTimeout,
			CacheTTL:    cfg.Inference.CacheTTL,
		}, log)

		// Audit workers outlive the request context so Close can drain them.
		dispatcher := queue.NewDispatcher(cfg.AuditWorkers, mongodb.NewArtifactEventRepository(db), log)
		dispatcher.Start(context.Background())
		defer dispatcher.Close()

		e, err := api.NewRouter(api.Deps{
			Log:                log,
			Tokens:             tokens,
			Auth:               authSvc,
			Store:              store,
			Inference:          inference,
			Audit:              dispatcher,
			Checks:             checks,
			MaxUploadBytes:     cfg.Artifact.MaxUploadBytes,
			PredictRequireAuth: cfg.PredictRequireAuth,
			CORSAllowOrigins:   cfg.CORSAllowOrigins,
		})
		if err != nil {
			return err
		}

		serverErrors := make(chan error, 1)
		go func() {
			log.Info().
				Str("addr", cfg.Addr()).
				Str("artifact", store.Path()).
				Bool("predict_requires_auth", cfg.PredictRequireAuth).
				Msg("http server listening")
			serverErrors <- e.Start(cfg.Addr())
		}()

		select {
		case err := <-serverErrors:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		case <-ctx.Done():
			log.Info().Msg("shutting down gracefully")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			_ = e.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		log.Info().Msg("server stopped")
		return nil
	},
}

func redisCheck(rdb *redis.Client) handler.DependencyCheck {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}

func seedDefaultAccounts(ctx context.Context, auth *service.AuthService, log zerolog.Logger) {
	for _, a := range defaultAccounts {
		_, err := auth.Provision(ctx, a.username, a.password, a.role)
		switch {
		case err == nil:
			log.Warn().Str("username", a.username).Msg("seeded default account, change its password")
		case errors.Is(err, domain.ErrUserExists):
		default:
			log.Error().Err(err).Str("username", a.username).Msg("could not seed default account")
		}
	}
}

// connectStore opens the credential store for one-shot commands.
func connectStore(ctx context.Context) (*mongo.Client, *mongo.Database, error) {
	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	return client, db, nil
}
