package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultUserAgent = "Mozilla/5.0 (compatible; LinkLibrary/1.0)"

type Config struct {
	HTTP struct {
		Addr string
	}
	DB struct {
		Driver string
		DSN    string
	}
	OIDC struct {
		Issuer       string
		ClientID     string
		ClientSecret string
		RedirectURL  string
	}
	Extension struct {
		AllowedOrigins []string
	}
	Metadata struct {
		UserAgent         string
		Timeout           time.Duration
		RateLimit         float64
		AllowPrivateHosts bool
	}
	Export struct {
		Location *time.Location
	}
	Log struct {
		Level string
		File  string
	}
	SessionLifetime time.Duration
	InsecureCookies bool
}

// Load reads config from an optional .env file, the environment (LINKLIB_
// prefix) and an optional link-library.yaml.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional .env file

	v := viper.New()
	v.SetEnvPrefix("LINKLIB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("link-library")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional config file

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("session.lifetime", "720h")
	v.SetDefault("metadata.user_agent", defaultUserAgent)
	v.SetDefault("metadata.timeout", "10s")
	v.SetDefault("metadata.rate_limit", 5)
	v.SetDefault("export.timezone", "UTC")
	v.SetDefault("log.level", "info")

	cfg := &Config{}
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.DB.Driver = v.GetString("db.driver")
	cfg.DB.DSN = v.GetString("db.dsn")
	cfg.OIDC.Issuer = v.GetString("oidc.issuer")
	cfg.OIDC.ClientID = v.GetString("oidc.client_id")
	cfg.OIDC.ClientSecret = v.GetString("oidc.client_secret")
	cfg.OIDC.RedirectURL = v.GetString("oidc.redirect_url")
	cfg.InsecureCookies = v.GetBool("insecure_cookies")
	cfg.Extension.AllowedOrigins = splitList(v.GetStringSlice("extension.allowed_origins"))
	cfg.Metadata.UserAgent = v.GetString("metadata.user_agent")
	cfg.Metadata.RateLimit = v.GetFloat64("metadata.rate_limit")
	cfg.Metadata.AllowPrivateHosts = v.GetBool("metadata.allow_private_hosts")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.File = v.GetString("log.file")

	lifetime, err := time.ParseDuration(v.GetString("session.lifetime"))
	if err != nil {
		return nil, fmt.Errorf("invalid LINKLIB_SESSION_LIFETIME: %w", err)
	}
	cfg.SessionLifetime = lifetime

	timeout, err := time.ParseDuration(v.GetString("metadata.timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid LINKLIB_METADATA_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("LINKLIB_METADATA_TIMEOUT must be positive")
	}
	cfg.Metadata.Timeout = timeout

	if cfg.Metadata.RateLimit <= 0 {
		return nil, fmt.Errorf("LINKLIB_METADATA_RATE_LIMIT must be positive")
	}

	loc, err := time.LoadLocation(v.GetString("export.timezone"))
	if err != nil {
		return nil, fmt.Errorf("invalid LINKLIB_EXPORT_TIMEZONE: %w", err)
	}
	cfg.Export.Location = loc

	if cfg.DB.Driver == "" {
		return nil, fmt.Errorf("LINKLIB_DB_DRIVER is required (sqlite3, mysql, postgres)")
	}
	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("LINKLIB_DB_DSN is required")
	}

	return cfg, nil
}

// RequireOIDC reports the first missing OIDC setting. Only the serve command
// needs a provider; migrate, import and export run without one.
func (c *Config) RequireOIDC() error {
	if c.OIDC.Issuer == "" {
		return fmt.Errorf("LINKLIB_OIDC_ISSUER is required")
	}
	if c.OIDC.ClientID == "" {
		return fmt.Errorf("LINKLIB_OIDC_CLIENT_ID is required")
	}
	if c.OIDC.ClientSecret == "" {
		return fmt.Errorf("LINKLIB_OIDC_CLIENT_SECRET is required")
	}
	if c.OIDC.RedirectURL == "" {
		return fmt.Errorf("LINKLIB_OIDC_REDIRECT_URL is required")
	}
	return nil
}

// splitList accepts both YAML lists and comma-separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
