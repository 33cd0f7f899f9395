package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/soaringjerry/Kivu/internal/ai/gemini"
	"github.com/soaringjerry/Kivu/internal/api"
	"github.com/soaringjerry/Kivu/internal/config"
	dbstore "github.com/soaringjerry/Kivu/internal/db"
	"github.com/soaringjerry/Kivu/internal/logger"
)

// version is stamped with -ldflags "-X main.version=..." at build time.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional, env vars override)")
	migrationsDir := flag.String("migrations", "", "directory with .sql migrations (defaults to embedded)")
	flag.Parse()

	if err := run(*configPath, *migrationsDir); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func run(configPath, migrationsDir string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.JWTSecret != "" {
		// the auth middleware reads the secret from the environment
		if err := os.Setenv("KIVU_JWT_SECRET", cfg.JWTSecret); err != nil {
			return err
		}
	}

	zl, err := logger.New(cfg.JSONLogs, cfg.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	store, closeStore, err := openStore(cfg, migrationsDir, zl)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := api.Options{InsightsTimeout: cfg.AI.Timeout}
	if cfg.AI.APIKey != "" {
		gen, err := gemini.NewGenerator(context.Background(), cfg.AI.APIKey, cfg.AI.Model)
		if err != nil {
			return fmt.Errorf("init gemini: %w", err)
		}
		opts.InsightsGenerator = gemini.NewAdvisor(gen, zl, cfg.AI.MaxLogLength)
		zl.Info("ai insights enabled", zap.String("model", gen.Model()))
	} else {
		zl.Info("ai insights disabled, no api key configured")
	}

	router := api.NewRouter(store, zl, opts)
	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		if err := router.EnsureAdmin(cfg.Admin.Email, cfg.Admin.Password); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", router.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "name": "Kivu API"})
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"version": version})
	})

	zl.Info("listening", zap.String("addr", cfg.Listen))
	return http.ListenAndServe(cfg.Listen, mux)
}

func openStore(cfg *config.Config, migrationsDir string, zl *zap.Logger) (api.Store, func(), error) {
	if cfg.Database.Path == "" {
		zl.Info("using in-memory store")
		return api.NewMemoryStore(), func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.ToSlash(cfg.Database.Path))
	database, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := dbstore.RunMigrations(database, migrationsDir); err != nil {
		_ = database.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	store, err := dbstore.NewStore(database)
	if err != nil {
		_ = database.Close()
		return nil, nil, fmt.Errorf("init sqlite store: %w", err)
	}
	zl.Info("using sqlite store", zap.String("path", cfg.Database.Path))
	closeFn := func() {
		if err := database.Close(); err != nil {
			zl.Warn("closing sqlite", zap.Error(err))
		}
	}
	return store, closeFn, nil
}
