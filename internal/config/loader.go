package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "homeroom.yaml"

// CLIFlags holds values parsed from the command line. Nil fields were not set.
type CLIFlags struct {
	ConfigPath *string
	Port       *string
	LogLevel   *string
	NatsURL    *string
}

// ParseFlags parses command-line arguments into CLIFlags.
// Only flags the caller actually passed come back non-nil.
func ParseFlags(args []string) (CLIFlags, error) {
	fs := flag.NewFlagSet("homeroom", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	configPath := fs.String("config", "", "path to YAML config file")
	fs.StringVar(configPath, "c", "", "path to YAML config file (shorthand)")
	port := fs.String("port", "", "HTTP listen port")
	fs.StringVar(port, "p", "", "HTTP listen port (shorthand)")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	natsURL := fs.String("nats-url", "", "NATS server URL")

	if err := fs.Parse(args); err != nil {
		return CLIFlags{}, fmt.Errorf("parse flags: %w", err)
	}

	var flags CLIFlags
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "config", "c":
			flags.ConfigPath = configPath
		case "port", "p":
			flags.Port = port
		case "log-level":
			flags.LogLevel = logLevel
		case "nats-url":
			flags.NatsURL = natsURL
		}
	})
	return flags, nil
}

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// LoadWithCLI returns a Config using the full hierarchy:
// defaults < YAML < ENV < CLI flags. It also returns the YAML path used,
// so callers can hand it to a Holder for reloads.
func LoadWithCLI(flags CLIFlags) (*Config, string, error) {
	yamlPath := DefaultConfigFile
	if flags.ConfigPath != nil {
		yamlPath = *flags.ConfigPath
	}

	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, "", fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)
	applyCLI(&cfg, flags)

	if err := validate(&cfg); err != nil {
		return nil, "", fmt.Errorf("config validate: %w", err)
	}

	return &cfg, yamlPath, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "HOMEROOM_PORT")
	setString(&cfg.Server.CORSOrigin, "HOMEROOM_CORS_ORIGIN")
	setString(&cfg.NATS.URL, "NATS_URL")
	setBool(&cfg.NATS.Enabled, "HOMEROOM_NATS_ENABLED")
	setString(&cfg.Logging.Level, "HOMEROOM_LOG_LEVEL")
	setString(&cfg.Logging.Service, "HOMEROOM_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "HOMEROOM_LOG_ASYNC")
	setFloat64(&cfg.Rate.RequestsPerSecond, "HOMEROOM_RATE_RPS")
	setInt(&cfg.Rate.Burst, "HOMEROOM_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "HOMEROOM_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "HOMEROOM_RATE_MAX_IDLE_TIME")
	setInt64(&cfg.Cache.MaxSizeMB, "HOMEROOM_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.TTL, "HOMEROOM_CACHE_TTL")
	setDuration(&cfg.Tenancy.KeyTTL, "HOMEROOM_KEY_TTL")
	setBool(&cfg.Seed.Demo, "HOMEROOM_SEED_DEMO")
}

// applyCLI overlays non-nil CLI flag values onto cfg. Flags win over ENV.
func applyCLI(cfg *Config, flags CLIFlags) {
	if flags.Port != nil {
		cfg.Server.Port = *flags.Port
	}
	if flags.LogLevel != nil {
		cfg.Logging.Level = *flags.LogLevel
	}
	if flags.NatsURL != nil {
		cfg.NATS.URL = *flags.NatsURL
	}
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.NATS.Enabled && cfg.NATS.URL == "" {
		return errors.New("nats.url is required when nats.enabled is set")
	}
	if cfg.Rate.RequestsPerSecond <= 0 {
		return errors.New("rate.requests_per_second must be > 0")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.Cache.MaxSizeMB < 1 {
		return errors.New("cache.max_size_mb must be >= 1")
	}
	if cfg.Tenancy.KeyTTL <= 0 {
		return errors.New("tenancy.key_ttl must be > 0")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
