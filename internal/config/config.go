// internal/config/config.go

package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Data source kinds
const (
	SourceFile     = "file"
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	NATS        NATSConfig
	Data        DataConfig
	Map         MapConfig
	Symbol      SymbolConfig
	View        ViewConfig
	Log         LogConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	SSLMode      string
}

// NATSConfig holds NATS configuration. An empty URL selects the in-process bus.
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
}

// DataConfig selects where datasets are fetched from
type DataConfig struct {
	Source         string
	Dir            string
	BaseURL        string
	Timeout        time.Duration
	DefaultDataset string
}

// MapConfig holds the initial map view handed to clients
type MapConfig struct {
	CenterLat   float64
	CenterLng   float64
	Zoom        int
	TileURL     string
	Attribution string
}

// SymbolConfig holds proportional symbol configuration
type SymbolConfig struct {
	ScaleFactor    float64
	SeriesProperty string
	NameProperty   string
	EntityLabel    string
	ValueLabel     string
}

// ViewConfig holds view management configuration
type ViewConfig struct {
	EventsTopic        string
	IdleTimeout        time.Duration
	MonitoringInterval time.Duration
	MaxViews           int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// LoadEnvFiles preloads variables from .env files. Missing files are skipped
// and variables already set in the environment win.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return eris.Wrapf(err, "config: load env file %s", p)
		}
	}
	return nil
}

// Load loads configuration from environment variables
func Load() (Config, error) {
	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "propmap"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", ""),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
		},
		Data: DataConfig{
			Source:         getEnv("DATA_SOURCE", SourceFile),
			Dir:            getEnv("DATA_DIR", "data"),
			BaseURL:        getEnv("DATA_BASE_URL", ""),
			Timeout:        getEnvAsDuration("DATA_TIMEOUT", 15*time.Second),
			DefaultDataset: getEnv("DATA_DEFAULT_DATASET", "SacramentoRegionPop"),
		},
		Map: MapConfig{
			CenterLat:   getEnvAsFloat("MAP_CENTER_LAT", 38.5816),
			CenterLng:   getEnvAsFloat("MAP_CENTER_LNG", -121.4944),
			Zoom:        getEnvAsInt("MAP_ZOOM", 7),
			TileURL:     getEnv("MAP_TILE_URL", "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"),
			Attribution: getEnv("MAP_ATTRIBUTION", `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`),
		},
		Symbol: SymbolConfig{
			ScaleFactor:    getEnvAsFloat("SYMBOL_SCALE_FACTOR", 0.0005),
			SeriesProperty: getEnv("SYMBOL_SERIES_PROPERTY", "PopulationData"),
			NameProperty:   getEnv("SYMBOL_NAME_PROPERTY", "Entity Name"),
			EntityLabel:    getEnv("SYMBOL_ENTITY_LABEL", "County Name"),
			ValueLabel:     getEnv("SYMBOL_VALUE_LABEL", "Population"),
		},
		View: ViewConfig{
			EventsTopic:        getEnv("VIEW_EVENTS_TOPIC", "views"),
			IdleTimeout:        getEnvAsDuration("VIEW_IDLE_TIMEOUT", 30*time.Minute),
			MonitoringInterval: getEnvAsDuration("VIEW_MONITORING_INTERVAL", 1*time.Minute),
			MaxViews:           getEnvAsInt("VIEW_MAX_VIEWS", 1000),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return config, validate(config)
}

// validate checks if config is valid
func validate(config Config) error {
	switch config.Data.Source {
	case SourceFile, SourcePostgres:
	case SourceHTTP:
		if config.Data.BaseURL == "" {
			return eris.New("config: DATA_BASE_URL is required for the http data source")
		}
	default:
		return eris.Errorf("config: unknown data source %q", config.Data.Source)
	}

	if config.Symbol.ScaleFactor <= 0 {
		return eris.Errorf("config: scale factor must be positive, got %v", config.Symbol.ScaleFactor)
	}
	if config.Symbol.SeriesProperty == "" {
		return eris.New("config: series property must be set")
	}
	if config.Map.Zoom < 0 || config.Map.Zoom > 22 {
		return eris.Errorf("config: zoom %d not in [0, 22]", config.Map.Zoom)
	}

	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
