// Package main provides the entrypoint for the DropRoute API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/droproute/droproute/internal/api"
	"github.com/droproute/droproute/internal/api/handler"
	"github.com/droproute/droproute/internal/api/middleware"
	"github.com/droproute/droproute/internal/config"
	"github.com/droproute/droproute/internal/database"
	"github.com/droproute/droproute/internal/delivery"
	"github.com/droproute/droproute/internal/geocoding"
	orsgeocode "github.com/droproute/droproute/internal/geocoding/openrouteservice"
	"github.com/droproute/droproute/internal/planner"
	"github.com/droproute/droproute/internal/provider/resilience"
	"github.com/droproute/droproute/internal/routing"
	orsrouting "github.com/droproute/droproute/internal/routing/openrouteservice"
	"github.com/droproute/droproute/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = api.DefaultServiceName

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting DropRoute API")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
		SampleRatio:    cfg.OTelSampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Delivery store
	var (
		repo       delivery.Repository
		subsystems []handler.Subsystem
	)
	switch cfg.StoreDriver {
	case config.StorePostgres:
		dbConfig, err := database.ConfigFromEnv()
		if err != nil {
			log.Fatal().Err(err).Msg("invalid database configuration")
		}
		pool, err := database.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()

		pgRepo := delivery.NewPostgresRepository(pool)
		if err := pgRepo.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate delivery schema")
		}
		repo = pgRepo
		subsystems = append(subsystems, handler.Subsystem{Name: "database", Pinger: pool})
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")
	default:
		repo = delivery.NewInMemoryRepository()
		subsystems = append(subsystems, handler.Subsystem{Name: "deliveries"})
		log.Info().Msg("using in-memory delivery store")
	}

	deliveryService := delivery.NewService(repo)
	if cfg.SeedDeliveries {
		n, err := deliveryService.Seed(ctx, delivery.SeedDeliveries())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed deliveries")
		}
		if n > 0 {
			log.Info().Int("count", n).Msg("seeded deliveries")
		}
	}

	// Providers
	if cfg.ORSAPIKey == "" {
		log.Warn().Msg("ORS_API_KEY not set - geocoding and directions requests will be rejected")
	}
	registry := resilience.NewRegistry()

	geocoder := orsgeocode.NewClient(orsgeocode.ClientConfig{
		APIKey:     cfg.ORSAPIKey,
		BaseURL:    cfg.ORSBaseURL,
		Country:    cfg.ORSCountry,
		Timeout:    cfg.ProviderTimeout,
		MaxRetries: cfg.ProviderMaxRetries,
		Registry:   registry,
		Logger:     log,
	})
	directions := orsrouting.NewClient(orsrouting.ClientConfig{
		APIKey:           cfg.ORSAPIKey,
		BaseURL:          cfg.ORSBaseURL,
		SnapRadiusMeters: cfg.SnapRadiusMeters,
		Timeout:          cfg.ProviderTimeout,
		MaxRetries:       cfg.ProviderMaxRetries,
		Registry:         registry,
		Logger:           log,
	})

	resolver := geocoding.NewResolver(geocoding.ResolverConfig{
		Provider:    geocoder,
		Bias:        cfg.Bias(),
		Concurrency: cfg.Concurrency,
		Logger:      log,
	})
	legs := routing.NewLegPlanner(routing.LegPlannerConfig{
		Provider:    directions,
		Profile:     routing.RouteProfile(cfg.RouteProfile),
		Concurrency: cfg.Concurrency,
		Logger:      log,
	})
	workflow := planner.NewWorkflow(planner.WorkflowConfig{
		Resolver:   resolver,
		Legs:       legs,
		Deliveries: deliveryService,
		Logger:     log,
	})

	sessions := planner.NewSessions(log)
	go sessions.RunSweeper(ctx, cfg.SessionSweepInterval, cfg.SessionIdleTTL)

	router := api.NewRouter(api.RouterConfig{
		Version:         Version,
		BuildTime:       BuildTime,
		Logger:          log,
		ServiceName:     serviceName,
		Metrics:         metrics,
		RequireTLS:      cfg.RequireTLS,
		Registry:        registry,
		Subsystems:      subsystems,
		DeliveryService: deliveryService,
		Planner:         workflow,
		Describer:       resolver,
		Sessions:        sessions,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // planning waits on several provider round-trips
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}
