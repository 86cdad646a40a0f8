// Package config provides configuration management functionality.
//
// This package handles loading configuration from environment variables
// (and an optional .env file). Required keys fail construction immediately
// so the process never starts half-configured.
//
// Configuration Loading Order:
// 1. Load from .env file (if exists)
// 2. Read environment variables, applying defaults for optional keys
// 3. Validate required keys are present
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/preciousmetals/indexd/internal/clients/oracle"
)

// Config holds application configuration, loaded once at startup.
type Config struct {
	OracleAddress   string        // on-chain oracle contract address (required)
	OracleABIPath   string        // path to the oracle contract's ABI JSON
	RPCURL          string        // RPC endpoint for oracle writes (required)
	PrivateKey      string        // signing key for oracle writes (required)
	QuoteAPIKey     string        // token for the quote source (required)
	UpdateInterval  time.Duration // tick cadence, default 300s
	PublishHoursUTC map[int]bool  // hours at which to publish in discovery mode
	DiscoveryPhase  bool          // enable publish-hour gate
	LogLevel        string        // debug, info, warn, error
	Port            int           // status/health HTTP server port
}

// Load reads configuration from environment variables, loading a .env
// file first if one is present (godotenv.Load returns an error when no
// .env exists, which is not fatal here).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		OracleAddress:  os.Getenv("ORACLE_ADDRESS"),
		OracleABIPath:  getEnv("ORACLE_ABI_PATH", "./abi/oracle.json"),
		RPCURL:         os.Getenv("RPC_URL"),
		PrivateKey:     os.Getenv("PRIVATE_KEY"),
		QuoteAPIKey:    os.Getenv("QUOTE_API_KEY"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DiscoveryPhase: true,
		Port:           8001,
	}

	if contractConfigPath := os.Getenv("ORACLE_CONFIG_PATH"); contractConfigPath != "" {
		contractCfg, err := oracle.LoadContractConfig(contractConfigPath)
		if err != nil {
			return nil, err
		}
		cfg.OracleAddress = contractCfg.Address
		cfg.OracleABIPath = contractCfg.ABIPath
	}

	if err := cfg.validateRequired(); err != nil {
		return nil, err
	}

	intervalMS, err := getEnvInt("UPDATE_INTERVAL_MS", 300000)
	if err != nil {
		return nil, fmt.Errorf("invalid UPDATE_INTERVAL_MS: %w", err)
	}
	cfg.UpdateInterval = time.Duration(intervalMS) * time.Millisecond

	cfg.PublishHoursUTC, err = parsePublishHours(getEnv("PUBLISH_HOURS_UTC", "0,12"))
	if err != nil {
		return nil, fmt.Errorf("invalid PUBLISH_HOURS_UTC: %w", err)
	}

	if raw := os.Getenv("DISCOVERY_PHASE"); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid DISCOVERY_PHASE: %w", err)
		}
		cfg.DiscoveryPhase = enabled
	}

	if port, err := getEnvInt("PORT", cfg.Port); err == nil {
		cfg.Port = port
	}

	return cfg, nil
}

// validateRequired checks that every required config key is present.
func (c *Config) validateRequired() error {
	for name, val := range map[string]string{
		"ORACLE_ADDRESS": c.OracleAddress,
		"RPC_URL":        c.RPCURL,
		"PRIVATE_KEY":    c.PrivateKey,
		"QUOTE_API_KEY":  c.QuoteAPIKey,
	} {
		if val == "" {
			return fmt.Errorf("missing required config: %s", name)
		}
	}
	return nil
}

// getEnv retrieves an environment variable value, returning a fallback if
// the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

// parsePublishHours parses a comma-separated list of UTC hours, e.g. "0,12".
func parsePublishHours(raw string) (map[int]bool, error) {
	hours := make(map[int]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		h, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("hour %q is not an integer: %w", part, err)
		}
		if h < 0 || h > 23 {
			return nil, fmt.Errorf("hour %d out of range 0-23", h)
		}
		hours[h] = true
	}
	if len(hours) == 0 {
		return nil, fmt.Errorf("no valid hours provided")
	}
	return hours, nil
}
