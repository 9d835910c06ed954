// cmd/web/main.go
//
// Weft bootstrap.
//
// Context
// -------
// The binary wires the engine together in dependency order: config,
// logger, database, session store, team resolver, template registry, and
// finally the HTTP router.  Every component registered via init() is
// mounted under its own name, and every template ref a component claims
// is verified before the listener opens — a missing template is a boot
// failure, never a request-time 500.
//
// Notes
// -----
// • fragment.Strict follows http.dev: duplicate fragment targets panic
//   in development and degrade to first-wins in production.
// • Oxford commas, two spaces after periods.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	authcmp "github.com/yanizio/weft/components/auth"
	dashcmp "github.com/yanizio/weft/components/dashboard"
	teamscmp "github.com/yanizio/weft/components/teams"
	"github.com/yanizio/weft/internal/component"
	"github.com/yanizio/weft/internal/config"
	"github.com/yanizio/weft/internal/database"
	"github.com/yanizio/weft/internal/fragment"
	"github.com/yanizio/weft/internal/logger"
	"github.com/yanizio/weft/internal/middleware"
	"github.com/yanizio/weft/internal/requestinfo"
	"github.com/yanizio/weft/internal/server"
	"github.com/yanizio/weft/internal/session"
	"github.com/yanizio/weft/internal/team"
	"github.com/yanizio/weft/internal/view"
)

func main() {
	// 1. Configuration (dotenv, YAML, env overrides, Vault refs).
	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet; stderr is all we have.
		panic(err)
	}

	// 2. Structured logging.
	log, err := logger.New(cfg.Paths.Root, runningInTTY())
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	// 3. Membership database.
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		log.Fatalw("database open failed", "err", err)
	}
	defer db.Close()

	// 4. Session store: Redis when configured, in-memory otherwise.
	store := buildSessionStore(cfg)
	session.Configure(store)

	// 5. Team resolution over the shared pool and session store.
	team.Configure(team.NewSQLStore(db), store)

	// 6. Template registry: discover every component's templates, dev
	//    mode disables the parse cache so edits show without restart.
	if err := view.Configure(filepath.Join(cfg.Paths.Root, "components"), cfg.HTTP.Dev); err != nil {
		log.Fatalw("template discovery failed", "err", err)
	}

	// 7. Composer strictness follows dev mode.
	fragment.Strict = cfg.HTTP.Dev

	// 8. Optional geolocation.
	if cfg.Geo.DBPath != "" {
		if err := requestinfo.InitGeo(cfg.Geo.DBPath); err != nil {
			log.Warnw("geo database unavailable, continuing without", "err", err)
		}
	}

	// 9. Component wiring.
	authcmp.Configure(db)
	dashcmp.Configure(db)
	teamscmp.Configure(db)

	verifyTemplates()

	handler := buildRouter(cfg)

	srv := server.New(cfg.HTTP.ListenAddr, handler)
	go func() {
		log.Infow("engine online", "addr", cfg.HTTP.ListenAddr, "dev", cfg.HTTP.Dev)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("listener failed", "err", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("shutdown incomplete", "err", err)
	}
	log.Infow("engine offline")
}

// buildSessionStore selects the session backend from config.
func buildSessionStore(cfg *config.Config) session.Store {
	if cfg.Redis.Addr == "" {
		zap.S().Warnw("redis not configured, sessions are in-memory and lost on restart")
		return session.NewMemoryStore()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return session.NewRedisStore(client, time.Duration(cfg.Session.TTLHours)*time.Hour)
}

// verifyTemplates panics when any registered component claims a template
// ref the registry did not discover.  The composer's synthesized refs
// are checked too, since every page depends on them.
func verifyTemplates() {
	view.MustHave(fragment.NavTemplate, fragment.NoticeTemplate)
	for _, c := range component.All() {
		view.MustHave(c.Templates()...)
	}
}

// buildRouter assembles the middleware chain and mounts every component.
func buildRouter(cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Security)
	r.Use(requestinfo.Enrich)
	r.Use(middleware.Identity)

	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/static/*", http.StripPrefix("/static/",
		http.FileServer(http.Dir(filepath.Join(cfg.Paths.Root, "static")))))

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/dashboard", http.StatusSeeOther)
	})

	for _, c := range component.All() {
		r.Mount("/"+c.Name(), c.Routes())
	}

	return middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS, r)
}

// runningInTTY reports whether stdout is a character device, which
// selects the colorized console tee.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
