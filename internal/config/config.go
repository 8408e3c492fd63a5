// Package config provides hierarchical configuration loading for Homeroom.
// Precedence: defaults < YAML file < environment variables < CLI flags.
package config

import "time"

// Config holds all runtime configuration for the Homeroom core service.
type Config struct {
	Server  Server  `yaml:"server"`
	NATS    NATS    `yaml:"nats"`
	Logging Logging `yaml:"logging"`
	Rate    Rate    `yaml:"rate"`
	Cache   Cache   `yaml:"cache"`
	Tenancy Tenancy `yaml:"tenancy"`
	Seed    Seed    `yaml:"seed"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// NATS holds NATS JetStream configuration. Event publishing is optional;
// with Enabled false the service runs on a no-op queue.
type NATS struct {
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Rate holds rate limiter configuration.
type Rate struct {
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"`
	MaxIdleTime       time.Duration `yaml:"max_idle_time"`
}

// Cache holds tenant resolution cache configuration.
type Cache struct {
	MaxSizeMB int64         `yaml:"max_size_mb"`
	TTL       time.Duration `yaml:"ttl"`
}

// Tenancy holds tenant lifecycle configuration.
type Tenancy struct {
	KeyTTL time.Duration `yaml:"key_ttl"`
}

// Seed controls demo data loading at startup.
type Seed struct {
	Demo bool `yaml:"demo"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8080",
			CORSOrigin: "http://localhost:3000",
		},
		NATS: NATS{
			URL:     "nats://localhost:4222",
			Enabled: false,
		},
		Logging: Logging{
			Level:   "info",
			Service: "homeroom-core",
		},
		Rate: Rate{
			RequestsPerSecond: 10,
			Burst:             100,
			CleanupInterval:   time.Minute,
			MaxIdleTime:       10 * time.Minute,
		},
		Cache: Cache{
			MaxSizeMB: 64,
			TTL:       30 * time.Second,
		},
		Tenancy: Tenancy{
			KeyTTL: 365 * 24 * time.Hour,
		},
		Seed: Seed{
			Demo: true,
		},
	}
}
