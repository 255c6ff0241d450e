// Copyright (c) 2026 Folivafy authors. All rights reserved.

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Folivafy API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"FOLIVAFY_DATABASE,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./internal/platform/migration/sql"`

	// Key-Value Cache (Redis), used by the cron driver's cross-instance
	// wake signal, not by sessions.
	RedisURL string `env:"REDIS_URL,required"`

	// CronInterval is the default tick period of the cron driver.
	CronInterval string `env:"CRON_INTERVAL" envDefault:"1m"`

	// CronStartupDelay is parsed but not read by the cron driver, which
	// defers its first tick by its own fixed 8s startupDelay.
	CronStartupDelay string `env:"CRON_STARTUP_DELAY" envDefault:"8s"`

	// EnableDeletion is the raw "(collection,d1,d2),(…)" tuple list
	// configuring staged-delete per collection. Parsed by the
	// stageddelete package, not by config itself, since the parse result
	// is a collection of bindings rather than a scalar.
	EnableDeletion string `env:"FOLIVAFY_ENABLE_DELETION"`

	// JWT verification. Exactly one of JWTPublicKeyPath / JWTHMACSecret
	// is expected to be set by a given deployment.
	JWTPublicKeyPath string `env:"JWT_PUBLIC_KEY_PATH"`
	JWTHMACSecret    string `env:"JWT_HMAC_SECRET"`

	// Userdata client — passthrough credentials for the external
	// user-info lookup collaborator. This service never dereferences
	// them itself; they exist only to be handed to that collaborator.
	UserdataClientID     string `env:"USERDATA_CLIENT_ID"`
	UserdataClientSecret string `env:"USERDATA_CLIENT_SECRET"`
	UserdataTokenURL     string `env:"USERDATA_TOKEN_URL"`
	UserdataUserinfoURL  string `env:"USERDATA_USERINFO_URL"`

	// IpaserviceInsecureSkipVerify disables TLS certificate verification
	// against the userdata collaborator. Development only.
	IpaserviceInsecureSkipVerify bool `env:"IPASERVICE_DANGEROUS_ACCEPT_INVALID_CERTS" envDefault:"false"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
