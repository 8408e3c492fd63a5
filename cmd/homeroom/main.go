package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	hrhttp "github.com/homeroom-dev/homeroom/internal/adapter/http"
	"github.com/homeroom-dev/homeroom/internal/adapter/memory"
	hrnats "github.com/homeroom-dev/homeroom/internal/adapter/nats"
	"github.com/homeroom-dev/homeroom/internal/adapter/natskv"
	hrotel "github.com/homeroom-dev/homeroom/internal/adapter/otel"
	"github.com/homeroom-dev/homeroom/internal/adapter/ristretto"
	"github.com/homeroom-dev/homeroom/internal/adapter/tiered"
	"github.com/homeroom-dev/homeroom/internal/config"
	"github.com/homeroom-dev/homeroom/internal/logger"
	"github.com/homeroom-dev/homeroom/internal/middleware"
	"github.com/homeroom-dev/homeroom/internal/port/cache"
	"github.com/homeroom-dev/homeroom/internal/port/messagequeue"
	"github.com/homeroom-dev/homeroom/internal/secrets"
	"github.com/homeroom-dev/homeroom/internal/seed"
	"github.com/homeroom-dev/homeroom/internal/service"
)

const (
	envNATSUser     = "HOMEROOM_NATS_USER"
	envNATSPassword = "HOMEROOM_NATS_PASSWORD"

	// resolveBucket is the JetStream KV bucket backing the shared
	// resolution cache tier.
	resolveBucket = "HOMEROOM_RESOLVE"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(os.Args[1:]); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags, err := config.ParseFlags(args)
	if err != nil {
		return err
	}

	cfg, yamlPath, err := config.LoadWithCLI(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	holder := config.NewHolder(cfg, yamlPath)

	log, logCloser := logger.New(cfg.Logging)
	defer logCloser.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"nats_enabled", cfg.NATS.Enabled,
		"seed_demo", cfg.Seed.Demo,
	)

	ctx := context.Background()

	// --- Infrastructure ---

	shutdownTracer := hrotel.InitTracer(cfg.Logging.Service)
	defer func() { _ = shutdownTracer(context.Background()) }()

	metrics, err := hrotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// All state is in-memory; a restart loses every tenant, key, and roster.
	st := memory.New()

	vault, err := secrets.NewVault(secrets.EnvLoader(envNATSUser, envNATSPassword))
	if err != nil {
		return fmt.Errorf("secrets: %w", err)
	}

	l1, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer l1.Close()

	// With NATS enabled, resolution hints also go through a shared KV
	// bucket so peer instances warm each other. Hints are revalidated
	// against the store on every hit, so a stale entry cannot grant
	// access; it only costs an extra lookup.
	var resolveCache cache.Cache = l1

	var queue messagequeue.Queue = messagequeue.Nop{}
	if cfg.NATS.Enabled {
		if user := vault.Get(envNATSUser); user != "" {
			slog.Info("nats credentials loaded", "user", vault.Redacted(envNATSUser))
		}
		q, err := hrnats.Connect(ctx, cfg.NATS.URL, hrnats.Credentials(func() (string, string) {
			return vault.Get(envNATSUser), vault.Get(envNATSPassword)
		}))
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = q.Close() }()
		queue = q

		kv, err := q.KeyValue(ctx, resolveBucket, cfg.Cache.TTL)
		if err != nil {
			return fmt.Errorf("resolve cache bucket: %w", err)
		}
		resolveCache = tiered.New(l1, natskv.New(kv), cfg.Cache.TTL)
	}

	// --- Services ---
	tenantSvc := service.NewTenantService(st, resolveCache, queue, cfg.Tenancy.KeyTTL, cfg.Cache.TTL)
	tenantSvc.SetMetrics(metrics)
	directorySvc := service.NewDirectoryService(st)
	activitySvc := service.NewActivityService(st, queue)
	activitySvc.SetMetrics(metrics)

	if cfg.Seed.Demo {
		tn, err := seed.Demo(ctx, st, cfg.Tenancy.KeyTTL)
		if err != nil {
			return fmt.Errorf("seed demo tenant: %w", err)
		}
		slog.Info("demo tenant seeded", "tenant_id", tn.ID, "domain", tn.Domain)
		if key := tn.ValidAuthKey(time.Now().UTC()); key != nil {
			slog.Info("demo tenant auth key issued", "auth_key", key.Key)
		}
	}

	// Reload config and secrets on SIGHUP. The health endpoint reports
	// live config values; fresh NATS credentials apply on reconnect.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			if err := holder.Reload(); err != nil {
				slog.Error("config reload failed", "error", err)
			} else {
				slog.Info("config reloaded", "path", yamlPath)
			}
			if err := vault.Reload(); err != nil {
				slog.Error("secrets reload failed", "error", err)
			}
		}
	}()

	// --- HTTP ---

	handlers := &hrhttp.Handlers{
		Tenants:    tenantSvc,
		Directory:  directorySvc,
		Activities: activitySvc,
		Metrics:    metrics,
	}

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	stopCleanup := limiter.StartCleanup(cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
	defer stopCleanup()

	r := chi.NewRouter()

	// Middleware. RequestID runs before Logger so access logs carry the
	// ID. Tenant resolution runs before the rate limiter so buckets key
	// on tenant, and before identity since user lookup is tenant-scoped.
	r.Use(hrotel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(hrhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(hrhttp.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(hrhttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.ResolveTenant(tenantSvc, map[string]bool{"/health": true}))
	r.Use(limiter.Handler)
	r.Use(middleware.Identity(directorySvc))

	// Health endpoint with service status
	r.Get("/health", healthHandler(holder, queue))

	// API routes
	hrhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// healthHandler returns an http.HandlerFunc that reports service health.
// It reads through the config holder so a SIGHUP reload shows up here.
func healthHandler(holder *config.Holder, queue messagequeue.Queue) http.HandlerFunc {
	type healthStatus struct {
		Status string `json:"status"`
		NATS   string `json:"nats"`
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		cfg := holder.Get()

		nats := "disabled"
		if cfg.NATS.Enabled {
			nats = cfg.NATS.URL
			if !queue.IsConnected() {
				nats = "disconnected"
			}
		}

		status := healthStatus{Status: "ok", NATS: nats}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status)
	}
}
