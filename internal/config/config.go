// Package config loads the catalog configuration from environment
// variables. Every setting has a development-friendly default; a bare
// `impala serve` runs against local SQLite with auth disabled.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	// Database connection string (DSN). postgres:// and unix:// select
	// PostgreSQL; anything else is treated as a SQLite path.
	DatabaseURL string

	// Server bind address (host:port)
	ServerAddr string

	// Maximum database connection pool size (PostgreSQL only)
	MaxDBConnections int

	// Enable debug logging
	Debug bool

	// How long a login session stays valid
	SessionTTL time.Duration

	// Path to the local credentials file (username:bcrypt-hash:roles).
	// Empty disables local logins.
	CredentialsFile string

	// OIDC token verification configuration
	OIDC OIDCConfig
}

// OIDCConfig configures verification of externally issued identity
// tokens. The catalog never issues tokens itself; it only validates
// tokens minted by the configured provider. Leaving Issuer empty
// disables token logins entirely.
type OIDCConfig struct {
	// Issuer is the provider's issuer URL. Tokens from any other issuer
	// are rejected.
	Issuer string

	// ClientID must appear in the token audience.
	ClientID string

	// Leeway tolerated on token expiry checks.
	Leeway time.Duration

	// StaticJWKSPath points at a pinned JWKS document on disk. When set,
	// provider discovery is skipped entirely.
	StaticJWKSPath string

	// GroupsClaimField names the claim carrying group memberships.
	GroupsClaimField string

	// GroupsClaimPath extracts group names from nested objects,
	// e.g. "name" for [{"name": "djs"}].
	GroupsClaimPath string

	// LibrarianGroups are the provider groups that grant the librarian
	// role. Any intersection grants it.
	LibrarianGroups []string
}

// Enabled reports whether token logins are configured.
func (c *OIDCConfig) Enabled() bool {
	return c.Issuer != ""
}

// Load reads configuration from environment variables with fallback defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("IMPALA")
	v.AutomaticEnv()

	v.SetDefault("database_url", "impala.db")
	v.SetDefault("server_addr", "localhost:8080")
	v.SetDefault("max_db_connections", 25)
	v.SetDefault("debug", false)
	v.SetDefault("session_ttl", "12h")
	v.SetDefault("credentials_file", "")
	v.SetDefault("oidc_issuer", "")
	v.SetDefault("oidc_client_id", "")
	v.SetDefault("oidc_leeway", "30s")
	v.SetDefault("oidc_jwks_path", "")
	v.SetDefault("oidc_groups_claim", "groups")
	v.SetDefault("oidc_groups_path", "")
	v.SetDefault("oidc_librarian_groups", []string{})

	cfg := &Config{
		DatabaseURL:      v.GetString("database_url"),
		ServerAddr:       v.GetString("server_addr"),
		MaxDBConnections: v.GetInt("max_db_connections"),
		Debug:            v.GetBool("debug"),
		SessionTTL:       v.GetDuration("session_ttl"),
		CredentialsFile:  v.GetString("credentials_file"),
		OIDC: OIDCConfig{
			Issuer:           v.GetString("oidc_issuer"),
			ClientID:         v.GetString("oidc_client_id"),
			Leeway:           v.GetDuration("oidc_leeway"),
			StaticJWKSPath:   v.GetString("oidc_jwks_path"),
			GroupsClaimField: v.GetString("oidc_groups_claim"),
			GroupsClaimPath:  v.GetString("oidc_groups_path"),
			LibrarianGroups:  v.GetStringSlice("oidc_librarian_groups"),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("IMPALA_DATABASE_URL is required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("IMPALA_SESSION_TTL must be positive")
	}
	if cfg.OIDC.Enabled() && cfg.OIDC.ClientID == "" {
		return nil, fmt.Errorf("IMPALA_OIDC_CLIENT_ID is required when IMPALA_OIDC_ISSUER is set")
	}
	if cfg.OIDC.Leeway < 0 {
		return nil, fmt.Errorf("IMPALA_OIDC_LEEWAY cannot be negative")
	}

	return cfg, nil
}
