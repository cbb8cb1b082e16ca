// Package main is the entry point for the local library catalog server.
// It wires together configuration, the database connection, sessions,
// templates and the HTTP router.
package main

import (
	"context"
	"database/sql"
	"html/template"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	_ "github.com/lib/pq" // Register the PostgreSQL driver with database/sql.

	"github.com/aoideee/locallibrary/internal/config"
	"github.com/aoideee/locallibrary/internal/data"
)

// appVersion is the current version of the server, shown in logs.
const appVersion = "1.0.0"

// applicationDependencies bundles every shared resource that HTTP handlers need.
type applicationDependencies struct {
	config         *config.Config
	logger         *slog.Logger
	models         data.Models
	sessionManager *scs.SessionManager
	templateCache  map[string]*template.Template
	clock          func() time.Time
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	logger := newLogger(cfg)

	db, err := openDB(cfg)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("database connection pool established")

	templateCache, err := newTemplateCache()
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	sessionManager := scs.New()
	sessionManager.Store = data.NewSessionStore(db)
	sessionManager.Lifetime = cfg.Session.Lifetime
	sessionManager.Cookie.Secure = cfg.Session.Secure

	app := &applicationDependencies{
		config:         cfg,
		logger:         logger,
		models:         data.NewModels(db),
		sessionManager: sessionManager,
		templateCache:  templateCache,
		clock:          time.Now,
	}

	if err := app.serve(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

// newLogger writes human-readable text in development and JSON elsewhere.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.Environment == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler).With(slog.String("version", appVersion))
}

// openDB opens a PostgreSQL connection pool and pings it with a 5-second timeout.
func openDB(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxIdleTime(cfg.DB.MaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
