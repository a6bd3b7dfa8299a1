package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// AppConfig holds every setting of the service.
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Geocoder GeocoderConfig `yaml:"geocoder"`
	Sweep    SweepConfig    `yaml:"sweep"`
	Checkin  CheckinConfig  `yaml:"checkin"`
}

type ServerConfig struct {
	Port        int    `yaml:"port" validate:"gt=0,lte=65535"`
	Mode        string `yaml:"mode" validate:"oneof=debug release test"`
	Compression bool   `yaml:"compression"`

	// AllowedOrigins lists browser origins for CORS. Empty or "*" allows any.
	AllowedOrigins []string `yaml:"allowed_origins" validate:"dive,required"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host" validate:"required"`
	Port     string `yaml:"port" validate:"required,numeric"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	Name     string `yaml:"name" validate:"required"`
	SSLMode  string `yaml:"sslmode" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	TimeZone string `yaml:"timezone"`
}

type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
}

type GeocoderConfig struct {
	Endpoint          string        `yaml:"endpoint" validate:"required,url"`
	UserAgent         string        `yaml:"user_agent" validate:"required"`
	Timeout           time.Duration `yaml:"timeout" validate:"gt=0"`
	RequestsPerSecond float64       `yaml:"requests_per_second" validate:"gte=0"`
	CacheSize         int           `yaml:"cache_size" validate:"gte=0"`
	CacheTTL          time.Duration `yaml:"cache_ttl" validate:"gte=0"`
	DefaultCity       string        `yaml:"default_city"`
	DefaultCountry    string        `yaml:"default_country"`
}

type SweepConfig struct {
	Interval  time.Duration `yaml:"interval" validate:"gte=0"`
	BatchSize int           `yaml:"batch_size" validate:"gt=0"`
}

type CheckinConfig struct {
	RatePerSecond float64 `yaml:"rate_per_second" validate:"gte=0"`
	Burst         int     `yaml:"burst" validate:"gte=0"`
}

// Default returns the configuration used when nothing overrides it.
func Default() AppConfig {
	return AppConfig{
		Server: ServerConfig{Port: 8080, Mode: "release", Compression: true},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Password: "password",
			Name:     "school_transport",
			SSLMode:  "disable",
			TimeZone: "UTC",
		},
		Log: LogConfig{File: "./logs/app.log", Level: "info"},
		Geocoder: GeocoderConfig{
			Endpoint:          "https://nominatim.openstreetmap.org/search",
			UserAgent:         "school-transport/1.0 (https://github.com/school-transport)",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 1,
			CacheSize:         512,
			CacheTTL:          24 * time.Hour,
			DefaultCity:       "Danang",
			DefaultCountry:    "Vietnam",
		},
		Sweep:   SweepConfig{Interval: time.Hour, BatchSize: 100},
		Checkin: CheckinConfig{RatePerSecond: 5, Burst: 10},
	}
}

// Load builds the configuration: defaults, then the YAML file named by CONFIG_FILE
// (config.yml when unset, optional), then environment variables (.env is loaded first).
func Load() (AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found – relying on env vars")
	}

	cfg := Default()
	path := getEnv("CONFIG_FILE", "config.yml")
	if err := loadFile(path, &cfg); err != nil {
		return cfg, err
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *AppConfig) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *AppConfig) error {
	var err error
	if cfg.Server.Port, err = getEnvInt("PORT", cfg.Server.Port); err != nil {
		return err
	}
	cfg.Server.Mode = getEnv("GIN_MODE", cfg.Server.Mode)
	cfg.Server.AllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)

	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = getEnv("DB_NAME", cfg.Database.Name)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.TimeZone = getEnv("DB_TIMEZONE", cfg.Database.TimeZone)

	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)

	cfg.Geocoder.Endpoint = getEnv("GEOCODER_ENDPOINT", cfg.Geocoder.Endpoint)
	cfg.Geocoder.UserAgent = getEnv("GEOCODER_USER_AGENT", cfg.Geocoder.UserAgent)
	cfg.Geocoder.DefaultCity = getEnv("GEOCODER_DEFAULT_CITY", cfg.Geocoder.DefaultCity)
	cfg.Geocoder.DefaultCountry = getEnv("GEOCODER_DEFAULT_COUNTRY", cfg.Geocoder.DefaultCountry)
	if cfg.Geocoder.Timeout, err = getEnvDuration("GEOCODER_TIMEOUT", cfg.Geocoder.Timeout); err != nil {
		return err
	}

	if cfg.Sweep.Interval, err = getEnvDuration("GEOCODE_SWEEP_INTERVAL", cfg.Sweep.Interval); err != nil {
		return err
	}
	return nil
}

// Validate checks cfg against its validate tags.
func Validate(cfg AppConfig) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty entries.
func getEnvList(key string, defaultValue []string) []string {
	v, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
