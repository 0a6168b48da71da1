// main is the entry point of the student-roster service.
//
// STARTUP SEQUENCE:
//  1. Load configuration (.env, YAML file, environment overrides)
//  2. Initialise the logger
//  3. Open the record store chosen by storage.driver
//  4. Connect the optional photo store (MinIO) and notification feed (Redis)
//  5. Build the roster and the router
//  6. Serve until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, close connections
//
// RUNNING THE SERVER:
//
//	go run ./cmd/students-api --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/students-api
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aanand-mishra/student-roster/internal/blob"
	"github.com/aanand-mishra/student-roster/internal/config"
	"github.com/aanand-mishra/student-roster/internal/http/router"
	"github.com/aanand-mishra/student-roster/internal/logging"
	"github.com/aanand-mishra/student-roster/internal/notify"
	"github.com/aanand-mishra/student-roster/internal/roster"
	"github.com/aanand-mishra/student-roster/internal/spreadsheet"
	"github.com/aanand-mishra/student-roster/internal/storage"
	"github.com/aanand-mishra/student-roster/internal/storage/memory"
	"github.com/aanand-mishra/student-roster/internal/storage/postgres"
	"github.com/aanand-mishra/student-roster/internal/storage/sqlite"
	"github.com/aanand-mishra/student-roster/internal/validation"
)

func main() {
	// ── 1. Load Config ────────────────────────────────────────────────────
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	log := logging.Setup(cfg.Env)
	log.Info("starting student-roster",
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.Storage.Driver),
	)

	ctx := context.Background()

	// ── 3. Initialise Storage ─────────────────────────────────────────────
	store, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	// ── 4. Optional Collaborators ─────────────────────────────────────────
	opts := []roster.Option{roster.WithLogger(log)}

	if cfg.Blob.Endpoint != "" {
		photos, err := blob.NewMinIO(ctx, blob.Config{
			Endpoint:  cfg.Blob.Endpoint,
			AccessKey: cfg.Blob.AccessKey,
			SecretKey: cfg.Blob.SecretKey,
			Bucket:    cfg.Blob.Bucket,
			Region:    cfg.Blob.Region,
			UseSSL:    cfg.Blob.UseSSL,
			PublicURL: cfg.Blob.PublicURL,
			Timeout:   10 * time.Second,
		})
		if err != nil {
			log.Error("failed to connect photo storage", slog.String("error", err.Error()))
			os.Exit(1)
		}
		opts = append(opts, roster.WithBlobs(photos))
		log.Info("photo uploads enabled", slog.String("bucket", cfg.Blob.Bucket))
	} else {
		log.Warn("blob.endpoint is empty: photo uploads disabled")
	}

	if cfg.Redis.Addr != "" {
		feed, err := notify.NewRedis(ctx, notify.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.Channel,
		}, log)
		if err != nil {
			log.Error("failed to connect redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer feed.Close()
		opts = append(opts, roster.WithNotifier(feed))
		log.Info("notifications via redis", slog.String("addr", cfg.Redis.Addr))
	}

	// ── 5. Roster + Router ────────────────────────────────────────────────
	rost := roster.New(store, opts...)
	rost.Subscribe(func(e roster.Event) {
		log.Debug("roster changed",
			slog.String("kind", string(e.Kind)),
			slog.String("owner", e.Owner),
			slog.String("id", e.Student.ID))
	})

	courses := cfg.Roster.Courses
	if len(courses) == 0 {
		courses = validation.DefaultCourses
	}

	handler := router.New(router.Deps{
		Roster:      rost,
		Validate:    validation.New(courses),
		Importer:    spreadsheet.Importer{},
		Courses:     courses,
		JWTSecret:   []byte(cfg.Auth.JWTSecret),
		CORSOrigins: cfg.HTTPServer.CORSOrigins,
		MaxUpload:   cfg.HTTPServer.MaxUploadBytes,
	})

	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	// ── 6. Serve ──────────────────────────────────────────────────────────
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	// ── 7. Graceful Shutdown ──────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown server gracefully", slog.String("error", err.Error()))
		return
	}

	log.Info("server stopped gracefully")
}

// openStorage returns the record store selected by cfg.Driver.
func openStorage(ctx context.Context, cfg config.Storage) (storage.Storage, error) {
	switch cfg.Driver {
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create %s: %w", dir, err)
			}
		}
		return sqlite.New(cfg.SQLitePath)
	case "postgres":
		return postgres.New(ctx, cfg.PostgresURL)
	case "memory":
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
