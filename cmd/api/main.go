package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dipta-sdd/campaignbay-sub002/internal/audit"
	"github.com/dipta-sdd/campaignbay-sub002/internal/auth"
	"github.com/dipta-sdd/campaignbay-sub002/internal/campaign"
	"github.com/dipta-sdd/campaignbay-sub002/internal/cart"
	"github.com/dipta-sdd/campaignbay-sub002/internal/catalog"
	"github.com/dipta-sdd/campaignbay-sub002/internal/checkout"
	"github.com/dipta-sdd/campaignbay-sub002/internal/common"
	"github.com/dipta-sdd/campaignbay-sub002/internal/config"
	"github.com/dipta-sdd/campaignbay-sub002/internal/db"
	"github.com/dipta-sdd/campaignbay-sub002/internal/events"
	"github.com/dipta-sdd/campaignbay-sub002/internal/health"
	"github.com/dipta-sdd/campaignbay-sub002/internal/lock"
	"github.com/dipta-sdd/campaignbay-sub002/internal/obs"
	"github.com/dipta-sdd/campaignbay-sub002/internal/order"
	"github.com/dipta-sdd/campaignbay-sub002/internal/pricing"
	"github.com/dipta-sdd/campaignbay-sub002/internal/ratelimit"
	"github.com/dipta-sdd/campaignbay-sub002/internal/security"
	"github.com/dipta-sdd/campaignbay-sub002/internal/usage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(envOrDefault("OBS_LOG_FORMAT", "json"), envOrDefault("OBS_LOG_LEVEL", "info")).
		With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "campaignbay")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "campaignbay-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0),
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	if cfg.MigrateOnStart {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("run migrations")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := db.Open(ctx, cfg.DatabaseURL, "campaignbay-api")
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	var catalogLookup catalog.Lookup = catalog.NewPostgresStore(pool)
	catalogLookup = catalog.NewGuardedLookup(catalogLookup, catalog.BreakerConfig{
		MinRequests:  cfg.CatalogBreakerMinRequests,
		FailureRatio: cfg.CatalogBreakerFailureRatio,
		OpenFor:      cfg.CatalogBreakerOpenFor,
	}, obs.Component(logger, "catalog"))
	catalogLookup = catalog.CachedLookup{
		Next:   catalogLookup,
		Cache:  catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
		Logger: obs.Component(logger, "catalog_cache"),
	}

	var listCache campaign.ListCache
	switch cfg.CampaignCacheBackend {
	case "memory":
		listCache = campaign.NewMemoryListCache(cfg.CampaignCacheMemoryBytes, cfg.CampaignCacheTTL)
	default:
		listCache = campaign.RedisListCache{Client: redisClient, TTL: cfg.CampaignCacheTTL}
	}

	bus := &events.Bus{Store: &events.PostgresStore{DB: pool}}
	usageStore := &usage.PostgresStore{DB: pool}
	orderStore := &order.PostgresStore{DB: pool}
	campaignStore := &campaign.PostgresStore{DB: pool, Logger: obs.Component(logger, "campaign_store")}

	repo := &campaign.Repository{
		Store:   campaignStore,
		Catalog: catalogLookup,
		Cache:   listCache,
		Logger:  obs.Component(logger, "campaign_repository"),
	}
	campaignSvc := &campaign.Service{
		Store:    campaignStore,
		Usage:    usageStore,
		Catalog:  catalogLookup,
		Events:   bus,
		Activity: audit.Service{Store: usageStore, Enabled: true},
		Location: cfg.SiteTimezone,
		Logger:   obs.Component(logger, "campaign"),
	}
	calc := &pricing.Calculator{
		Campaigns: repo,
		Settings:  cfg.Settings,
		Logger:    obs.Component(logger, "pricing"),
	}
	integrator := &cart.Integrator{
		Calc:     calc,
		Settings: cfg.Settings,
		Logger:   obs.Component(logger, "cart"),
	}
	usageLogger := &usage.Logger{
		Orders:    orderStore,
		Store:     usageStore,
		Locker:    lock.Locker{R: redisClient},
		Recounter: campaignSvc,
		Cache:     repo,
		Events:    bus,
		LockTTL:   cfg.UsageLockTTL,
		Log:       obs.Component(logger, "usage"),
	}
	bus.Subscribe(repo)
	bus.Subscribe(usageLogger)

	checkoutSvc := &checkout.Service{
		Catalog:    catalogLookup,
		Integrator: integrator,
		Orders:     orderStore,
		Events:     bus,
		Logger:     obs.Component(logger, "checkout"),
	}

	campaignHandler := &campaign.Handler{Svc: campaignSvc}
	pricingHandler := &pricing.Handler{Catalog: catalogLookup, Calc: calc}
	cartHandler := &cart.Handler{Catalog: catalogLookup, Integrator: integrator}
	checkoutHandler := &checkout.Handler{Svc: checkoutSvc}
	orderAdmin := &order.AdminHandler{Store: orderStore, Events: bus, Logger: obs.Component(logger, "order")}
	usageHandler := &usage.Handler{Store: usageStore}

	authMiddleware := auth.Middleware{Verifier: auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)}
	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	limiter, err := ratelimit.New(redisClient, cfg.RateLimit)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter")
	}
	rateLimited := ratelimit.Handler{
		Limiter: limiter,
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") },
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", "")), nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{HSTSMaxAge: envInt("SECURE_HSTS_MAX_AGE", 0)}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Requested-With"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	healthHandler := health.Handler{
		Probes: map[string]health.Probe{
			"db":    func(ctx context.Context) error { return pool.Ping(ctx) },
			"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
		Timeout: envDurationMillis("HEALTH_READY_TIMEOUT_MS", 500),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(requestScope)
		v.Use(security.BodyLimit{Max: int64(envInt("HTTP_MAX_BODY_BYTES", 1<<20))}.Middleware)
		v.Use(authMiddleware.Authenticate)

		v.Group(func(pub chi.Router) {
			pub.Use(rateLimited.Middleware)
			pub.Get("/products/{id}/discount", pricingHandler.ProductDiscount)
			pub.Post("/cart/quote", cartHandler.Quote)
			pub.With(idem.Middleware).Post("/checkout", checkoutHandler.Checkout)
		})

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth)
			admin.Use(auth.RequireRole("admin"))
			admin.Route("/campaigns", campaignHandler.Routes)
			admin.Get("/usage-logs", usageHandler.List)
			admin.Get("/orders/{id}", orderAdmin.Get)
			admin.Patch("/orders/{id}/status", orderAdmin.PatchStatus)
		})
	})

	var handler http.Handler = r
	if tracingEnabled {
		handler = otelhttp.NewHandler(r, "campaignbay-api")
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-sigCtx.Done()
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

// requestScope gives every API request its own campaign list memo and
// discount outcome memo.
func requestScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := pricing.WithSession(campaign.WithRequestScope(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		if trimmed := strings.TrimSpace(val); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}
