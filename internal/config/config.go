package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces environment overrides, e.g. TABS_REDIS__ADDR
const EnvPrefix = "TABS_"

// Persistence backends
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		HTTPAddr string `koanf:"http_addr"`
		LogLevel string `koanf:"log_level"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout  time.Duration `koanf:"read_timeout"`
		WriteTimeout time.Duration `koanf:"write_timeout"`
		MaxInFlight  int           `koanf:"max_in_flight"`
	} `koanf:"http"`

	Persistence struct {
		Backend     string `koanf:"backend"`
		Dir         string `koanf:"dir"`
		Namespace   string `koanf:"namespace"`
		MaxFailures uint32 `koanf:"max_failures"`
	} `koanf:"persistence"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
	} `koanf:"redis"`

	Reservations struct {
		GracePeriod   time.Duration `koanf:"grace_period"`
		CheckInterval time.Duration `koanf:"check_interval"`
		Timezone      string        `koanf:"timezone"`
	} `koanf:"reservations"`
}

// Default returns the configuration used when no file or env override is present
func Default() Config {
	var c Config
	c.App.Name = "tab-service"
	c.App.HTTPAddr = ":8080"
	c.App.LogLevel = "info"

	c.HTTP.ReadTimeout = 10 * time.Second
	c.HTTP.WriteTimeout = 10 * time.Second
	c.HTTP.MaxInFlight = 20

	c.Persistence.Backend = BackendFile
	c.Persistence.Dir = "./data"
	c.Persistence.Namespace = "restaurant"
	c.Persistence.MaxFailures = 3

	c.Redis.Addr = "localhost:6379"

	c.Reservations.GracePeriod = 30 * time.Minute
	c.Reservations.CheckInterval = 60 * time.Second
	c.Reservations.Timezone = "Local"
	return c
}

// Load layers, lowest precedence first: defaults, the YAML file at path
// (skipped when path is empty), a .env file if present, then TABS_ variables
// with "__" separating nested keys.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	// .env is optional for local runs
	_ = godotenv.Load()

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Location resolves reservations.timezone
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Reservations.Timezone)
}

func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	switch c.Persistence.Backend {
	case BackendFile:
		if c.Persistence.Dir == "" {
			return fmt.Errorf("persistence.dir required for the file backend")
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr required for the redis backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("persistence.backend %q unknown (file, redis or memory)", c.Persistence.Backend)
	}
	if c.Persistence.MaxFailures == 0 {
		return fmt.Errorf("persistence.max_failures must be positive")
	}
	if c.HTTP.MaxInFlight <= 0 {
		return fmt.Errorf("http.max_in_flight must be positive")
	}
	if c.Reservations.GracePeriod <= 0 {
		return fmt.Errorf("reservations.grace_period must be positive")
	}
	if c.Reservations.CheckInterval <= 0 {
		return fmt.Errorf("reservations.check_interval must be positive")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("reservations.timezone: %w", err)
	}
	return nil
}
