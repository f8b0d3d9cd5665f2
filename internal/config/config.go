package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port                   string   `mapstructure:"PORT"`
	Env                    string   `mapstructure:"ENV"`
	BaseURL                string   `mapstructure:"BASE_URL"`
	DatabaseURL            string   `mapstructure:"DATABASE_URL"`
	DBMaxConns             int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns             int32    `mapstructure:"DB_MIN_CONNS"`
	AuthMode               string   `mapstructure:"AUTH_MODE"`
	AuthSigningKey         string   `mapstructure:"AUTH_SIGNING_KEY"`
	CORSOrigins            []string `mapstructure:"CORS_ORIGINS"`
	ValidationFailSeverity string   `mapstructure:"VALIDATION_FAIL_SEVERITY"`
	UpdateMaxAttempts      int      `mapstructure:"UPDATE_MAX_ATTEMPTS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("BASE_URL", "http://localhost:8000/fhir")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("AUTH_MODE", "") // "" -> inferred from ENV
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("VALIDATION_FAIL_SEVERITY", "error")
	v.SetDefault("UPDATE_MAX_ATTEMPTS", 3)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("BASE_URL")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("AUTH_MODE")
	v.BindEnv("AUTH_SIGNING_KEY")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("VALIDATION_FAIL_SEVERITY")
	v.BindEnv("UPDATE_MAX_ATTEMPTS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	switch cfg.ValidationFailSeverity {
	case "fatal", "error", "warning", "information":
	default:
		return nil, fmt.Errorf("invalid VALIDATION_FAIL_SEVERITY %q", cfg.ValidationFailSeverity)
	}
	if cfg.UpdateMaxAttempts < 1 {
		return nil, fmt.Errorf("UPDATE_MAX_ATTEMPTS must be at least 1, got %d", cfg.UpdateMaxAttempts)
	}
	if cfg.AuthMode == "jwt" && cfg.AuthSigningKey == "" {
		return nil, fmt.Errorf("AUTH_SIGNING_KEY is required when AUTH_MODE=jwt")
	}

	return cfg, nil
}

// IsDev reports whether the server runs with development defaults
// (permissive auth).
func (c *Config) IsDev() bool {
	if c.AuthMode != "" {
		return c.AuthMode == "dev"
	}
	return c.Env == "development"
}
