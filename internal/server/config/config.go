// Package config handles runtime configuration for the server: defaults,
// environment overlay and validation. The cmd layer feeds it from flags,
// an optional .env file and process environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the Zynox Cloud server.
//
// Fields:
//   - Address: bind address for the HTTP endpoint.
//   - DatabaseDriver / DatabaseDSN: "sqlite" (default) or "postgres".
//   - DataDir: directory for the sqlite file and persisted key material.
//   - APIKey: static key required in the X-Api-Key header on /v1 routes.
//     Do not use the test default in prod.
//   - ShareLinkTTL: lifetime of presigned share download links.
//   - S3AccessKey / S3SecretKey: credentials for the S3-compatible backend.
//   - S3Bucket / S3Region / S3BaseEndpoint: object storage settings.
type Config struct {
	Address        string
	DatabaseDriver string
	DatabaseDSN    string
	DataDir        string
	APIKey         string
	ShareLinkTTL   time.Duration
	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.Address = ":8080"
	c.DatabaseDriver = "sqlite"
	c.DataDir = "data"
	c.APIKey = "test-demo-key"
	c.ShareLinkTTL = 15 * time.Minute
	c.S3AccessKey = "admin"
	c.S3SecretKey = "secretpassword"
	c.S3Bucket = "zynox-shares"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// FromEnv overlays values from ZYNX_-prefixed environment variables.
// Master key material is read separately by the cryptox keyring.
func (c *Config) FromEnv() {
	c.Address = getEnvOrDefault("ZYNX_ADDRESS", c.Address)
	c.DatabaseDriver = getEnvOrDefault("ZYNX_DATABASE_DRIVER", c.DatabaseDriver)
	c.DatabaseDSN = getEnvOrDefault("ZYNX_DATABASE_DSN", c.DatabaseDSN)
	c.DataDir = getEnvOrDefault("ZYNX_DATA_DIR", c.DataDir)
	c.APIKey = getEnvOrDefault("ZYNX_API_KEY", c.APIKey)
	c.S3AccessKey = getEnvOrDefault("ZYNX_S3_ACCESS_KEY", c.S3AccessKey)
	c.S3SecretKey = getEnvOrDefault("ZYNX_S3_SECRET_KEY", c.S3SecretKey)
	c.S3Bucket = getEnvOrDefault("ZYNX_S3_BUCKET", c.S3Bucket)
	c.S3Region = getEnvOrDefault("ZYNX_S3_REGION", c.S3Region)
	c.S3BaseEndpoint = getEnvOrDefault("ZYNX_S3_BASE_ENDPOINT", c.S3BaseEndpoint)

	if ttl := os.Getenv("ZYNX_SHARE_LINK_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			c.ShareLinkTTL = d
		}
	}
}

// Validate checks the configuration and fills derived values: with the
// sqlite driver an empty DSN defaults to a database file in the data dir.
func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("address required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("api key required")
	}
	switch c.DatabaseDriver {
	case "sqlite":
		if c.DatabaseDSN == "" {
			c.DatabaseDSN = filepath.Join(c.DataDir, "zynox_cloud.db")
		}
	case "postgres":
		if c.DatabaseDSN == "" {
			return fmt.Errorf("database dsn required for postgres driver")
		}
	default:
		return fmt.Errorf("unsupported database driver: %q", c.DatabaseDriver)
	}
	if c.ShareLinkTTL <= 0 {
		return fmt.Errorf("share link ttl must be positive")
	}
	return nil
}

// getEnvOrDefault returns the environment variable value or the default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
