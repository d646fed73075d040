package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/weather-data-collector/internal/weather"
)

const (
	DefaultAppTitle   = "weather-data-collector"
	DefaultAppVersion = "dev"

	DefaultEnvFile   = "configs/sample.env"
	DefaultAppConfig = "configs/config.json"
	DefaultLogConfig = "configs/logging.yaml"
)

var validate = validator.New()

type AppConfig struct {
	AppTitle   string
	AppVersion string

	// Provider selects the weather API; its key may be empty, every
	// request then fails and is logged.
	Provider      string `validate:"oneof=openweathermap weatherapi"`
	APIKey        string
	WeatherAPIKey string
	// BaseURL overrides the provider endpoint; empty uses the provider default.
	BaseURL string `validate:"omitempty,url"`
	Units   string `validate:"oneof=standard metric imperial"`

	Cities    []string `validate:"min=1,unique,dive,required"`
	Languages []string `validate:"len=2,unique,dive,required"`

	HTTPTimeout        time.Duration `validate:"gt=0"`
	BreakerMaxFailures int           `validate:"gte=0"`

	DBDriver string `validate:"oneof=sqlite mysql memory"`
	DBDSN    string `validate:"required_unless=DBDriver memory"`

	// FetchInterval of 0 runs a single collection.
	FetchInterval time.Duration `validate:"gte=0"`

	Port string

	// LogLevel and LogFormat override the zap config file at LogConfig when set.
	LogLevel  string `validate:"omitempty,oneof=debug info warn error"`
	LogFormat string `validate:"omitempty,oneof=console json"`
	LogConfig string
}

// appFile is the structured application metadata file (YAML or JSON).
type appFile struct {
	App struct {
		Title   string `yaml:"app_title"`
		Version string `yaml:"app_version"`
	} `yaml:"app"`
}

// LoadEnv loads a .env file into the process environment. A missing file is not an error.
func LoadEnv(path string) {
	if path == "" {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		zap.L().Info("no .env file loaded", zap.String("path", path), zap.Error(err))
	}
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.Provider = getenvDefault("WEATHER_PROVIDER", "openweathermap")
	cfg.APIKey = os.Getenv("OPENWEATHER_API_KEY")
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("API_KEY")
	}
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	if cfg.ProviderKey() == "" {
		zap.L().Warn("no api key set, all weather requests will fail", zap.String("provider", cfg.Provider))
	}

	cfg.BaseURL = os.Getenv("WEATHER_BASE_URL")
	cfg.Units = getenvDefault("WEATHER_UNITS", string(weather.UnitsMetric))
	cfg.Cities = splitList(getenvDefault("WEATHER_CITIES", "Berlin,München,Stuttgart"))
	cfg.Languages = splitList(getenvDefault("WEATHER_LANGS", "DE,EN"))

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout
	cfg.BreakerMaxFailures = getenvInt("BREAKER_MAX_FAILURES", 3)

	cfg.DBDriver = getenvDefault("DB_DRIVER", "sqlite")
	cfg.DBDSN = getenvDefault("DB_DSN", "db/wetterdaten.db")

	interval, err := time.ParseDuration(getenvDefault("FETCH_INTERVAL", "0s"))
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.FetchInterval = interval
	cfg.Port = getenvDefault("PORT", "8080")

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	cfg.LogFormat = strings.ToLower(os.Getenv("LOG_FORMAT"))
	cfg.LogConfig = getenvDefault("LOG_CONFIG", DefaultLogConfig)

	cfg.AppTitle, cfg.AppVersion = AppMetadata()

	return cfg, nil
}

// ProviderKey returns the API key of the selected provider.
func (c *AppConfig) ProviderKey() string {
	if c.Provider == "weatherapi" {
		return c.WeatherAPIKey
	}
	return c.APIKey
}

// Validate checks the configuration after flags have been applied.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return err
	}
	return nil
}

// AppMetadata returns the title and version from the file named by APP_CONFIG.
func AppMetadata() (string, string) {
	return loadAppMetadata(getenvDefault("APP_CONFIG", DefaultAppConfig))
}

// loadAppMetadata reads title and version from path, falling back to defaults.
func loadAppMetadata(path string) (string, string) {
	title, version := DefaultAppTitle, DefaultAppVersion

	data, err := os.ReadFile(path)
	if err != nil {
		zap.L().Info("app config not loaded", zap.String("path", path), zap.Error(err))
		return title, version
	}

	var f appFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		zap.L().Error("app config is malformed", zap.String("path", path), zap.Error(err))
		return title, version
	}

	if f.App.Title != "" {
		title = f.App.Title
	}
	if f.App.Version != "" {
		version = f.App.Version
	}
	return title, version
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
