package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spectrum-directory-service/internal/app"
	"spectrum-directory-service/internal/auth"
	"spectrum-directory-service/internal/config"
	"spectrum-directory-service/internal/infra/memory"
	pgstore "spectrum-directory-service/internal/infra/postgres"
	redisstore "spectrum-directory-service/internal/infra/redis"
	"spectrum-directory-service/internal/logging"
	"spectrum-directory-service/internal/places"
	transport "spectrum-directory-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultPlacesBaseURL = "https://maps.googleapis.com/maps/api/place"

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the directory server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Getenv("APP_ENV"))
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.InstrumentLoader = memory.NewStaticInstrumentLoader(sampleInstruments())
	if pool != nil {
		loader = pgstore.NewInstrumentLoader(pool)
	}

	instrumentTTL := config.TTLDuration(cfg.Instrument.TTL, 30*time.Minute)
	var instrumentRepo app.InstrumentRepository
	if redisClient != nil {
		instrumentRepo = redisstore.NewInstrumentRepository(redisClient, loader, instrumentTTL)
	} else {
		instrumentRepo = memory.NewInstrumentRepository(loader, instrumentTTL)
	}

	var sessionStore app.SessionRepository
	if redisClient != nil {
		sessionStore = redisstore.NewSessionStore(redisClient, redisTTL)
	} else {
		sessionStore = memory.NewSessionStore()
	}

	var providerRepo app.ProviderRepository
	if pool != nil {
		providerRepo = pgstore.NewProviderRepository(pool)
	} else {
		providerRepo = memory.NewProviderRepository(sampleProviders())
	}

	jwtSecret := cfg.Auth.JWTSecret
	if jwtSecret == "" {
		jwtSecret = "dev-only-secret"
		logger.Warn("JWT_SECRET not set, using development default")
	}
	tokenTTL := config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour)
	tokens := auth.NewManager(jwtSecret, tokenTTL)

	placesBase := cfg.Places.BaseURL
	if placesBase == "" {
		placesBase = defaultPlacesBaseURL
	}
	placesTimeout := config.TTLDuration(cfg.Places.Timeout, 10*time.Second)
	placesClient := places.NewClient(placesBase, cfg.Places.Key, placesTimeout, logger)
	if cfg.Places.Key == "" {
		logger.Warn("PLACES_API_KEY not set, relay requests will fail")
	} else {
		logger.Info("places relay configured", zap.String("key", placesClient.MaskedKey()))
	}

	screeningService := app.NewScreeningService(sessionStore, instrumentRepo)
	providerService := app.NewProviderService(providerRepo, tokens)

	router := transport.NewRouter(
		cfg.Server.AllowedOrigins,
		transport.NewProxyHandler(placesClient, logger),
		transport.NewScreeningHandler(screeningService),
		transport.NewProviderHandler(providerService, tokens),
		transport.NewWSHandler(screeningService, logger),
	)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting directory service", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server...")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
