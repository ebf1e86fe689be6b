package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bookshelf/internal/backend"
	"github.com/MrSnakeDoc/bookshelf/internal/backend/fileb"
	"github.com/MrSnakeDoc/bookshelf/internal/backend/redisb"
	"github.com/MrSnakeDoc/bookshelf/internal/backend/sqliteb"
	"github.com/MrSnakeDoc/bookshelf/internal/config"
	"github.com/MrSnakeDoc/bookshelf/internal/httpserver"
	"github.com/MrSnakeDoc/bookshelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookshelf/internal/logger"
	"github.com/MrSnakeDoc/bookshelf/internal/metadata"
	"github.com/MrSnakeDoc/bookshelf/internal/redis"
	"github.com/MrSnakeDoc/bookshelf/internal/sources/seedfile"
	"github.com/MrSnakeDoc/bookshelf/internal/store"
	"github.com/MrSnakeDoc/bookshelf/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	backend     backend.Backend
	sessions    *store.Sessions
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	b, redisClient := newBackend(cfg, loggerClient)

	sessions := store.NewSessions(b, loggerClient)

	// Seed the default owner's collection before serving
	if cfg.SeedFile != "" && cfg.DefaultOwner != "" {
		added, skipped, err := seedfile.Import(context.Background(), cfg.SeedFile, b, cfg.DefaultOwner, loggerClient)
		if err != nil {
			loggerClient.Warn("seed import failed",
				logger.String("file", cfg.SeedFile),
				logger.Error(err))
		} else if added > 0 || skipped > 0 {
			loggerClient.Info("seed import done",
				logger.Int("added", added),
				logger.Int("skipped", skipped))
		}
	}

	describer := metadata.NewDescriber(cfg.MetadataTimeout, loggerClient)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		AllowedHosts: cfg.AllowedHosts,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
		APITokens:    cfg.APITokens,
		DefaultOwner: cfg.DefaultOwner,
		Sessions:     sessions,
		Describer:    describer,
		Backend:      b,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		backend:     b,
		sessions:    sessions,
	}
}

// newBackend builds the persistence backend selected in config.
// The redis client is returned separately so Run can close it.
func newBackend(cfg *config.Config, log logger.Logger) (backend.Backend, *goredis.Client) {
	switch cfg.Backend {
	case config.BackendRedis:
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
		}, log)
		if err != nil {
			log.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		log.Info("Redis backend initialized")
		return redisb.New(client), client

	case config.BackendSQLite:
		b, err := sqliteb.New(cfg.SQLitePath)
		if err != nil {
			log.Errorf("Failed to open sqlite database %s: %v", cfg.SQLitePath, err)
			os.Exit(1)
		}
		log.Info("SQLite backend initialized",
			logger.String("path", cfg.SQLitePath))
		return b, nil

	case config.BackendFile:
		b, err := fileb.New(cfg.FileDir)
		if err != nil {
			log.Errorf("Failed to open file backend %s: %v", cfg.FileDir, err)
			os.Exit(1)
		}
		log.Info("File backend initialized",
			logger.String("dir", cfg.FileDir))
		return b, nil

	default:
		log.Errorf("Unknown backend: %s", cfg.Backend)
		os.Exit(1)
		return nil, nil
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Bookshelf v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Bookshelf %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ Bookshelf stopped cleanly")
	return nil
}
