package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/sessions"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/countdown/internal/adapter/blob"
	"github.com/pscheid92/countdown/internal/adapter/httpserver"
	"github.com/pscheid92/countdown/internal/adapter/metrics"
	"github.com/pscheid92/countdown/internal/adapter/redis"
	"github.com/pscheid92/countdown/internal/app"
	"github.com/pscheid92/countdown/internal/catalog"
	"github.com/pscheid92/countdown/internal/customtimer"
	"github.com/pscheid92/countdown/internal/domain"
	"github.com/pscheid92/countdown/internal/platform/config"
	"github.com/pscheid92/countdown/internal/platform/logging"
	"github.com/pscheid92/countdown/internal/platform/version"
	"github.com/pscheid92/countdown/internal/upload"
	goredis "github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

// blobBackend is the selected blob store plus what only the local backend has.
type blobBackend struct {
	store      domain.BlobStore
	localFiles *blob.LocalStore
	close      func() error
}

func runGracefulShutdown(srv *httpserver.Server, cleanup func()) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		cleanup()
		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupBlobStore(ctx context.Context, cfg *config.Config) blobBackend {
	switch cfg.BlobBackend {
	case config.BlobBackendGCS:
		store, err := blob.NewGCSStore(ctx, cfg.GCSBucketName, cfg.GCSPublicHost)
		if err != nil {
			slog.Error("Failed to create GCS client", "bucket", cfg.GCSBucketName, "error", err)
			os.Exit(1)
		}
		slog.Info("Using GCS blob store", "bucket", cfg.GCSBucketName)
		return blobBackend{store: store, close: store.Close}
	default:
		store, err := blob.NewLocalStore(cfg.UploadDir)
		if err != nil {
			slog.Error("Failed to create upload directory", "dir", cfg.UploadDir, "error", err)
			os.Exit(1)
		}
		slog.Info("Using local blob store", "dir", cfg.UploadDir)
		return blobBackend{store: store, localFiles: store, close: func() error { return nil }}
	}
}

// setupSessionStore keeps sessions in Redis when REDIS_URL is set and in a
// signed cookie otherwise. The returned client is nil for cookie sessions.
func setupSessionStore(ctx context.Context, cfg *config.Config, redisMetrics func() *metrics.RedisMetrics) (sessions.Store, *goredis.Client) {
	if cfg.RedisURL == "" {
		return httpserver.NewCookieSessionStore(cfg), nil
	}

	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	client.AddHook(redis.NewMetricsHook(redisMetrics()))

	store := redis.NewSessionStore(client, []byte(cfg.SessionSecret))
	store.Options = httpserver.SessionOptions(cfg)
	store.MaxAge(store.Options.MaxAge)
	slog.Info("Using Redis session store")
	return store, client
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "build", version.Get())

	ctx := context.Background()

	registry := metrics.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	uploadMetrics := metrics.NewUploadMetrics(registry)
	timerMetrics := metrics.NewTimerMetrics(registry)

	blobs := setupBlobStore(ctx, cfg)
	sessionStore, redisClient := setupSessionStore(ctx, cfg, func() *metrics.RedisMetrics {
		return metrics.NewRedisMetrics(registry)
	})

	healthChecks := []httpserver.HealthCheck{
		{Name: "blob_store", Check: blobs.store.Check},
	}
	if redisClient != nil {
		healthChecks = append(healthChecks, httpserver.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	appSvc := app.NewService(
		catalog.New(clock),
		customtimer.NewStore(customtimer.MaxPerSession),
		upload.NewGateway(blobs.store, uploadMetrics),
		timerMetrics,
		clock,
	)

	srv, err := httpserver.NewServer(cfg, httpserver.Deps{
		App:            appSvc,
		SessionStore:   sessionStore,
		LocalFiles:     blobs.localFiles,
		HTTPMetrics:    httpMetrics,
		MetricsHandler: metrics.Handler(registry),
		HealthChecks:   healthChecks,
	})
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	done := runGracefulShutdown(srv, func() {
		if err := blobs.close(); err != nil {
			slog.Error("Failed to close blob store", "error", err)
		}
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				slog.Error("Failed to close Redis client", "error", err)
			}
		}
	})

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
