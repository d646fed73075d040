package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docopt/docopt-go"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-data-collector/internal/api/http"
	"github.com/i474232898/weather-data-collector/internal/config"
	"github.com/i474232898/weather-data-collector/internal/logging"
	"github.com/i474232898/weather-data-collector/internal/report"
	"github.com/i474232898/weather-data-collector/internal/scheduler"
	"github.com/i474232898/weather-data-collector/internal/store"
	"github.com/i474232898/weather-data-collector/internal/weather"
	"github.com/i474232898/weather-data-collector/internal/weather/providers"
)

const usage = `Weather data collector.

Fetches current weather for the configured cities in two languages,
stores one row per city and prints every stored row.

Usage:
  weather-data-collector [run] [--env=<file>] [--driver=<driver>] [--db=<dsn>] [--every=<interval>]
  weather-data-collector serve [--env=<file>] [--driver=<driver>] [--db=<dsn>] [--port=<port>]
  weather-data-collector -h | --help
  weather-data-collector --version

Options:
  -h --help            Show this screen.
  --version            Show the application title and version.
  --env=<file>         Path of the .env file. [default: configs/sample.env]
  --driver=<driver>    Database driver: sqlite, mysql or memory (overrides DB_DRIVER).
  --db=<dsn>           Database file or DSN (overrides DB_DSN).
  --every=<interval>   Collect repeatedly on this interval, e.g. 15m (overrides FETCH_INTERVAL).
  --port=<port>        HTTP port for serve (overrides PORT).
`

func main() {
	logging.Install(logging.Bootstrap())

	args, err := docopt.ParseDoc(usage)
	if err != nil {
		zap.S().Fatalf("failed to parse arguments: %v", err)
	}

	envPath, _ := args.String("--env")
	config.LoadEnv(envPath)

	if v, _ := args.Bool("--version"); v {
		title, version := config.AppMetadata()
		fmt.Printf("%s %s\n", title, version)
		return
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		zap.S().Fatalf("failed to load config: %v", err)
	}
	if err := applyFlags(cfg, args); err != nil {
		zap.S().Fatalf("invalid arguments: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		zap.S().Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		ConfigFile: cfg.LogConfig,
	})
	if err != nil {
		zap.S().Fatalf("failed to configure logging: %v", err)
	}
	logging.Install(logger)
	defer logger.Sync()

	logger.Info("application started", zap.String("title", cfg.AppTitle), zap.String("version", cfg.AppVersion))
	defer logger.Info("application finished", zap.String("title", cfg.AppTitle), zap.String("version", cfg.AppVersion))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	table := report.Table{
		PrimaryLang:   cfg.Languages[0],
		SecondaryLang: cfg.Languages[1],
		Units:         weather.Units(cfg.Units),
	}
	st, err := openStore(ctx, cfg, table)
	if err != nil {
		zap.L().Error("store unavailable", zap.Error(err))
		return
	}
	defer st.Close()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	provider := newProvider(cfg, providers.HTTPClientConfig{
		Client:                 httpClient,
		MaxConsecutiveFailures: uint32(cfg.BreakerMaxFailures),
	})

	client, err := weather.NewClient(provider, cfg.Cities, cfg.Languages)
	if err != nil {
		zap.L().Error("weather client", zap.Error(err))
		return
	}
	service := weather.NewService(client, st)

	if serve, _ := args.Bool("serve"); serve {
		runServer(ctx, cfg, service)
		return
	}

	if cfg.FetchInterval <= 0 {
		collectAndReport(ctx, service)
		return
	}

	sched := scheduler.New(cfg.FetchInterval, cfg.FetchInterval, func(ctx context.Context) {
		collectAndReport(ctx, service)
	})
	if err := sched.Start(); err != nil {
		zap.L().Error("failed to start scheduler", zap.Error(err))
		return
	}
	defer sched.Stop()

	<-ctx.Done()
}

func applyFlags(cfg *config.AppConfig, args docopt.Opts) error {
	if v, err := args.String("--driver"); err == nil && v != "" {
		cfg.DBDriver = v
	}
	if v, err := args.String("--db"); err == nil && v != "" {
		cfg.DBDSN = v
	}
	if v, err := args.String("--port"); err == nil && v != "" {
		cfg.Port = v
	}
	if v, err := args.String("--every"); err == nil && v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid --every: %w", err)
		}
		cfg.FetchInterval = interval
	}
	return nil
}

func newProvider(cfg *config.AppConfig, httpCfg providers.HTTPClientConfig) weather.Provider {
	if cfg.Provider == "weatherapi" {
		return providers.NewWeatherAPIProvider(httpCfg, cfg.WeatherAPIKey, weather.Units(cfg.Units), cfg.BaseURL)
	}
	return providers.NewOpenWeatherProvider(httpCfg, cfg.APIKey, weather.Units(cfg.Units), cfg.BaseURL)
}

func openStore(ctx context.Context, cfg *config.AppConfig, table report.Table) (weather.Store, error) {
	opts := store.Options{Table: table}
	if cfg.DBDriver == "memory" {
		return store.NewMemoryStore(0, opts), nil
	}

	st, err := store.Open(ctx, cfg.DBDriver, cfg.DBDSN, opts)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// collectAndReport runs one cycle and prints the table whatever the outcome.
func collectAndReport(ctx context.Context, service *weather.Service) {
	res, err := service.Collect(ctx)
	if err != nil {
		var incomplete *weather.IncompleteBatchError
		if errors.As(err, &incomplete) {
			zap.L().Error("observations missing, nothing stored", zap.Int("missing", len(incomplete.Missing)), zap.Error(err))
		} else {
			zap.L().Error("collection failed", zap.Error(err))
		}
	} else {
		zap.S().Infof("collection %s: %d observations, %d rows stored", res.RunID, res.Observations, res.Inserted)
	}

	if err := service.Report(ctx, os.Stdout); err != nil {
		zap.L().Error("failed to print weather report", zap.Error(err))
	}
}

func runServer(ctx context.Context, cfg *config.AppConfig, service *weather.Service) {
	if cfg.FetchInterval > 0 {
		sched := scheduler.New(cfg.FetchInterval, cfg.FetchInterval, func(ctx context.Context) {
			if _, err := service.Collect(ctx); err != nil {
				zap.L().Error("collection failed", zap.Error(err))
			}
		})
		if err := sched.Start(); err != nil {
			zap.L().Error("failed to start scheduler", zap.Error(err))
			return
		}
		defer sched.Stop()
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.AppTitle,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": cfg.AppTitle,
			"version": cfg.AppVersion,
		})
	})

	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			zap.S().Warnf("fiber server stopped: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zap.S().Errorf("error during shutdown: %v", err)
	}
}
