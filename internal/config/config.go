package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	sslModeDisable = "disable"
	sslModeRequire = "require"
)

const defaultCSP = "default-src 'self'; frame-ancestors 'none'; object-src 'none'; " +
	"base-uri 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; " +
	"img-src 'self' data:; connect-src 'self'; font-src 'self'; media-src 'self'; " +
	"form-action 'self'"

type (
	Config struct {
		Host string `mapstructure:"HOST"`
		Port string `mapstructure:"PORT"`

		DBHost     string `mapstructure:"DB_HOST"`
		DBPort     string `mapstructure:"DB_PORT"`
		DBUser     string `mapstructure:"DB_USER"`
		DBPassword string `mapstructure:"DB_PASSWORD"`
		DBName     string `mapstructure:"DB_NAME"`
		DBSSLMode  string `mapstructure:"DB_SSL_MODE"`

		SecretKey string `mapstructure:"SECRET_KEY"`
		Debug     bool   `mapstructure:"DEBUG"`
		UseTLS    bool   `mapstructure:"USE_TLS"`

		// Comma-separated lists.
		AllowedHosts       string `mapstructure:"ALLOWED_HOSTS"`
		CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`

		BaseURL   string `mapstructure:"BASE_URL"`
		MediaURL  string `mapstructure:"MEDIA_URL"`
		MediaRoot string `mapstructure:"MEDIA_ROOT"`

		ContentSecurityPolicy string `mapstructure:"CONTENT_SECURITY_POLICY"`

		PasswordMinLength int `mapstructure:"PASSWORD_MIN_LENGTH"`

		AccessTokenTTL  time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
		RefreshTokenTTL time.Duration `mapstructure:"REFRESH_TOKEN_TTL"`

		AnonThrottlePerHour    int `mapstructure:"ANON_THROTTLE_PER_HOUR"`
		UserThrottlePerHour    int `mapstructure:"USER_THROTTLE_PER_HOUR"`
		LoginThrottlePerMinute int `mapstructure:"LOGIN_THROTTLE_PER_MINUTE"`

		SecurityLogFile string `mapstructure:"SECURITY_LOG_FILE"`
	}
)

func NewConfig() (*Config, error) {
	viper.SetEnvPrefix("SOUNDVAULT")

	viper.SetDefault("HOST", "0.0.0.0")
	viper.SetDefault("PORT", "8000")
	viper.SetDefault("DB_HOST", "0.0.0.0")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "soundvault")
	viper.SetDefault("DB_SSL_MODE", sslModeDisable)
	viper.SetDefault("SECRET_KEY", "soundvault-insecure-dev-key-do-not-use-in-prod")
	viper.SetDefault("DEBUG", true)
	viper.SetDefault("USE_TLS", false)
	viper.SetDefault("ALLOWED_HOSTS", "localhost,127.0.0.1,::1")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:8080,http://127.0.0.1:8080")
	viper.SetDefault("BASE_URL", "")
	viper.SetDefault("MEDIA_URL", "/media/")
	viper.SetDefault("MEDIA_ROOT", "media")
	viper.SetDefault("CONTENT_SECURITY_POLICY", defaultCSP)
	viper.SetDefault("PASSWORD_MIN_LENGTH", 10)
	viper.SetDefault("ACCESS_TOKEN_TTL", "1h")
	viper.SetDefault("REFRESH_TOKEN_TTL", "168h")
	viper.SetDefault("ANON_THROTTLE_PER_HOUR", 100)
	viper.SetDefault("USER_THROTTLE_PER_HOUR", 1000)
	viper.SetDefault("LOGIN_THROTTLE_PER_MINUTE", 5)
	viper.SetDefault("SECURITY_LOG_FILE", "logs/security.log")

	envs := []string{
		"HOST", "PORT",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSL_MODE",
		"SECRET_KEY", "DEBUG", "USE_TLS",
		"ALLOWED_HOSTS", "CORS_ALLOWED_ORIGINS",
		"BASE_URL", "MEDIA_URL", "MEDIA_ROOT",
		"CONTENT_SECURITY_POLICY", "PASSWORD_MIN_LENGTH",
		"ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL",
		"ANON_THROTTLE_PER_HOUR", "USER_THROTTLE_PER_HOUR", "LOGIN_THROTTLE_PER_MINUTE",
		"SECURITY_LOG_FILE",
	}
	for _, key := range envs {
		if err := viper.BindEnv(key); err != nil {
			return nil, err
		}
	}

	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	validSSLValues := []string{sslModeDisable, sslModeRequire}
	valid := false
	for _, validValue := range validSSLValues {
		if cfg.DBSSLMode == validValue {
			valid = true
			break
		}
	}
	if !valid {
		return errors.New(fmt.Sprintf("DB SSL mode is invalid: %s", cfg.DBSSLMode))
	}

	if cfg.SecretKey == "" {
		return errors.New("SECRET_KEY must not be empty")
	}
	if cfg.PasswordMinLength < 1 {
		return errors.New("PASSWORD_MIN_LENGTH must be positive")
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	return nil
}

// AllowedHostList splits the comma-separated ALLOWED_HOSTS value.
func (c *Config) AllowedHostList() []string {
	return splitCSV(c.AllowedHosts)
}

// CORSOriginList splits the comma-separated CORS_ALLOWED_ORIGINS value.
func (c *Config) CORSOriginList() []string {
	return splitCSV(c.CORSAllowedOrigins)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
