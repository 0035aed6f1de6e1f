package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/moonlysoftware/dashboard-intro-week/internal/adapters/cache"
	"github.com/moonlysoftware/dashboard-intro-week/internal/adapters/database"
	"github.com/moonlysoftware/dashboard-intro-week/internal/adapters/memory"
	"github.com/moonlysoftware/dashboard-intro-week/internal/adapters/providers/calendar"
	"github.com/moonlysoftware/dashboard-intro-week/internal/adapters/providers/timetracking"
	"github.com/moonlysoftware/dashboard-intro-week/internal/adapters/providers/weather"
	"github.com/moonlysoftware/dashboard-intro-week/internal/api/handlers"
	"github.com/moonlysoftware/dashboard-intro-week/internal/api/routes"
	"github.com/moonlysoftware/dashboard-intro-week/internal/application/services"
	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/providers"
	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/repositories"
	"github.com/moonlysoftware/dashboard-intro-week/internal/infrastructure/clients/postgres"
	"github.com/moonlysoftware/dashboard-intro-week/internal/infrastructure/clients/redis"
	"github.com/moonlysoftware/dashboard-intro-week/internal/infrastructure/clients/sqlite"
	"github.com/moonlysoftware/dashboard-intro-week/internal/infrastructure/observability"
	"github.com/moonlysoftware/dashboard-intro-week/pkg/config"
	"github.com/moonlysoftware/dashboard-intro-week/pkg/retry"
)

// localCacheSize bounds the in-process cache used when Redis is unavailable
const localCacheSize = 1024

type stores struct {
	screens  repositories.ScreenRepository
	widgets  repositories.WidgetRepository
	settings repositories.WidgetSettingsRepository
	close    func() error
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env, cfg.Server.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to open storage")
	}
	defer st.close()

	cacheProvider, closeCache := openCache(ctx, cfg)
	defer closeCache()

	location := cfg.Server.Location()
	upstreamRetry := retry.UpstreamConfig(cfg.Upstream.RetryAttempts)
	breakWindow, _ := cfg.Compliance.BreakWindow()

	// Data sources
	calendarProvider := calendar.NewCalendarProvider(ctx, calendar.ProviderConfig{
		Provider:        cfg.Calendar.Provider,
		CredentialsFile: cfg.Calendar.CredentialsFile,
		Location:        location,
		Retry:           upstreamRetry,
	})
	togglProvider := timetracking.NewTogglAdapter(timetracking.TogglConfig{
		BaseURL:  cfg.Toggl.BaseURL,
		APIToken: cfg.Toggl.APIToken,
		PageSize: cfg.Toggl.PageSize,
		Retry:    upstreamRetry,
	})
	weatherProvider := weather.NewOpenMeteoAdapter(cfg.Weather.BaseURL, nil, upstreamRetry)

	// Aggregators
	rooms := services.NewRoomAvailabilityService(calendarProvider, cacheProvider, metrics, services.RoomOptions{
		MaxEvents:       cfg.Calendar.MaxEvents,
		MergeTolerance:  cfg.Rooms.MergeTolerance(),
		Timeout:         cfg.Upstream.Timeout(),
		CacheTTLSeconds: cfg.Calendar.EventsCacheTTLSeconds,
		Location:        location,
	})
	workspace := cfg.Toggl.WorkspaceID
	if cfg.Toggl.APIToken == "" {
		log.Warn().Msg("TOGGL_API_TOKEN not configured, time tracking widget shows an empty report")
		workspace = ""
	}
	timeTracking := services.NewTimeTrackingService(togglProvider, cacheProvider, metrics, services.TimeTrackingOptions{
		Workspace: workspace,
		Policy: services.CompliancePolicy{
			WeeklyTargetSeconds: cfg.Compliance.WeeklyTargetSeconds(),
			BreakExclusion:      breakWindow,
			Location:            location,
		},
		Timeout:         cfg.Upstream.Timeout(),
		CacheTTLSeconds: cfg.Toggl.ReportCacheTTLSeconds,
	})
	clock := services.NewClockWeatherSource(weatherProvider, cacheProvider, metrics, services.ClockWeatherOptions{
		CacheTTLSeconds: cfg.Weather.CacheTTLSeconds,
		Timeout:         cfg.Upstream.Timeout(),
	})

	// Application services
	configService := services.NewConfigService(st.widgets, st.settings)
	layoutService := services.NewLayoutService(st.screens, st.widgets, configService)
	screenService := services.NewScreenService(st.screens, st.widgets, layoutService)
	displayService := services.NewDisplayService(st.screens, st.widgets, configService,
		services.DataSources(rooms, timeTracking, clock), location)

	router := routes.NewRouter(
		handlers.NewDisplayHandler(displayService),
		handlers.NewScreenHandler(screenService, configService),
		handlers.NewWidgetHandler(layoutService, configService),
		cfg.Server.AllowedOrigins,
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Upstream.Timeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Str("storage", cfg.Storage.Driver).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	log.Info().Msg("Server stopped")
}

// openStores connects the configured screen/widget store and makes sure its
// schema exists
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	var (
		db      *sql.DB
		dialect string
		closeDB func() error
	)

	switch cfg.Storage.Driver {
	case "memory":
		log.Warn().Msg("Using in-memory storage, screens are lost on restart")
		store := memory.NewStore()
		return &stores{
			screens:  store.Screens(),
			widgets:  store.Widgets(),
			settings: store.Settings(),
			close:    func() error { return nil },
		}, nil
	case "sqlite":
		client, err := sqlite.NewClient(&cfg.Storage)
		if err != nil {
			return nil, err
		}
		db, dialect, closeDB = client.DB(), database.DialectSQLite, client.Close
	default:
		client, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		db, dialect, closeDB = client.DB(), database.DialectPostgres, client.Close
	}

	if err := database.EnsureSchema(ctx, db, dialect); err != nil {
		closeDB()
		return nil, err
	}
	log.Info().Str("dialect", dialect).Msg("Storage initialized")

	return &stores{
		screens:  database.NewScreenAdapter(db, dialect),
		widgets:  database.NewWidgetAdapter(db, dialect),
		settings: database.NewWidgetSettingsAdapter(db, dialect),
		close:    closeDB,
	}, nil
}

// openCache prefers Redis so replicas share cached aggregates and falls back
// to an in-process cache
func openCache(ctx context.Context, cfg *config.Config) (providers.CacheProvider, func()) {
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, &cfg.Redis)
		if err == nil {
			log.Info().Str("addr", client.Addr()).Msg("Redis cache initialized")
			return cache.NewRedisAdapter(client.Client(), "dashboard:"), func() { client.Close() }
		}
		log.Warn().Err(err).Msg("Failed to initialize Redis client, using in-process cache")
	}
	return cache.NewMemoryAdapter(localCacheSize), func() {}
}
