package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/yatube/pkg/yatube/auth"
	"github.com/mikepea/yatube/pkg/yatube/cache"
	"github.com/mikepea/yatube/pkg/yatube/config"
	"github.com/mikepea/yatube/pkg/yatube/database"
	"github.com/mikepea/yatube/pkg/yatube/events"
	"github.com/mikepea/yatube/pkg/yatube/logging"
	"github.com/mikepea/yatube/pkg/yatube/media"
	"github.com/mikepea/yatube/pkg/yatube/models"
	"github.com/mikepea/yatube/pkg/yatube/server"
	"github.com/mikepea/yatube/pkg/yatube/store"
)

func main() {
	cfg := config.Load()
	logging.Setup(os.Stdout, cfg.LogLevel)
	for _, w := range cfg.Warnings {
		slog.Warn(w)
	}
	gin.SetMode(cfg.GinMode)
	auth.Configure(cfg.JWTSecret, cfg.SessionTTL)

	if err := database.Connect(cfg.DBDriver, cfg.DBDSN); err != nil {
		slog.Error("failed to connect to database", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := models.AutoMigrate(database.GetDB()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations completed", "driver", cfg.DBDriver)

	s := store.New(database.GetDB())
	if err := ensureAdminExists(s); err != nil {
		slog.Error("failed to ensure admin user exists", "error", err)
		os.Exit(1)
	}

	pages := newPageCache(cfg)
	publisher := newPublisher(cfg)
	defer publisher.Close()

	router := server.New(server.Deps{
		Store:       s,
		Pages:       pages,
		CacheTTL:    cfg.CacheTTL,
		Media:       media.NewStorage(cfg.MediaDir),
		Events:      publisher,
		CORSOrigins: cfg.CORSOrigins,
		RequestLog:  true,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("starting yatube server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// newPageCache picks redis when configured, falling back to process memory.
func newPageCache(cfg *config.Config) cache.Cache {
	if cfg.CacheTTL <= 0 {
		slog.Info("page cache disabled")
		return cache.NopCache{}
	}
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err == nil {
			slog.Info("page cache backed by redis", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
			return cache.NewRedisCache(client, "")
		}
		slog.Warn("redis unavailable, using in-memory page cache", "error", err)
	}
	slog.Info("page cache in memory", "ttl", cfg.CacheTTL)
	return cache.NewMemoryCache()
}

// newPublisher picks kafka when brokers are configured, otherwise logs events.
func newPublisher(cfg *config.Config) events.Publisher {
	if len(cfg.KafkaBrokers) > 0 {
		p, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err == nil {
			slog.Info("activity events to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
			return p
		}
		slog.Warn("kafka publisher unavailable, logging events", "error", err)
	}
	return events.NewLogPublisher(nil)
}

// ensureAdminExists creates a default admin user if no admin exists in the database.
func ensureAdminExists(s *store.Store) error {
	ctx := context.Background()

	stats, err := s.Stats(ctx)
	if err != nil {
		return err
	}
	if stats.AdminUsers > 0 {
		return nil
	}

	hashedPassword, err := auth.HashPassword("changeme")
	if err != nil {
		return err
	}

	adminUser := &models.User{
		Username:     "admin",
		Email:        "admin@yatube.local",
		FirstName:    "Admin",
		PasswordHash: hashedPassword,
		SystemRole:   models.SystemRoleAdmin,
	}
	if err := s.CreateUser(ctx, adminUser); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			slog.Warn("username admin is taken by a non-admin user; promote a user with yatube-admin")
			return nil
		}
		return err
	}

	slog.Warn("created default admin user", "username", "admin", "password", "changeme")
	return nil
}
