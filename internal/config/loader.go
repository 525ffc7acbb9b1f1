package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DriverSQLite selects the embedded SQLite store.
	DriverSQLite = "sqlite"
	// DriverPostgres selects the PostgreSQL store.
	DriverPostgres = "postgres"

	minSessionSecretLength = 32
)

// AdminConfig describes the administrator account created at start-up.
type AdminConfig struct {
	Username string
	Email    string
	Password string
}

// Enabled reports whether an administrator account should be bootstrapped.
func (a AdminConfig) Enabled() bool {
	return a.Username != ""
}

// Config captures environment driven configuration values for the reservation service.
type Config struct {
	HTTPPort       int
	Environment    string
	DatabaseDriver string
	SQLitePath     string
	PostgresURL    string
	RedisURL       string
	SessionSecret  string
	SessionTTL     time.Duration
	SecureCookies  bool
	Admin          AdminConfig
	LogLevel       string
	LogFormat      string
	OTLPEndpoint   string
}

// Load parses configuration values from HOTEL_* environment variables and an
// optional hotel.yaml in the working directory. Environment variables win.
//
// The loader applies defaults for optional fields while validating required
// values and reporting every missing or invalid entry at once.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HOTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http_port", "8080")
	v.SetDefault("environment", "development")
	v.SetDefault("database_driver", DriverSQLite)
	v.SetDefault("sqlite_path", "data/hotel.db")
	v.SetDefault("session_ttl", "24h")
	v.SetDefault("secure_cookies", "true")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	v.SetConfigName("hotel")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("設定ファイルを読み込めません: %w", err)
		}
	}

	return parse(v)
}

func parse(v *viper.Viper) (Config, error) {
	get := func(key string) string { return strings.TrimSpace(v.GetString(key)) }

	cfg := Config{
		Environment: strings.ToLower(get("environment")),
		SQLitePath:  get("sqlite_path"),
		PostgresURL: get("postgres_url"),
		RedisURL:    get("redis_url"),
		LogLevel:    strings.ToLower(get("log_level")),
		LogFormat:   strings.ToLower(get("log_format")),
		Admin: AdminConfig{
			Username: get("admin_username"),
			Email:    get("admin_email"),
			Password: v.GetString("admin_password"),
		},
		OTLPEndpoint: get("otlp_endpoint"),
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 2)

	port, err := strconv.Atoi(get("http_port"))
	if err != nil || port <= 0 || port > 65535 {
		invalid = append(invalid, "HOTEL_HTTP_PORT")
	} else {
		cfg.HTTPPort = port
	}

	switch driver := strings.ToLower(get("database_driver")); driver {
	case DriverSQLite:
		cfg.DatabaseDriver = driver
		if cfg.SQLitePath == "" {
			missing = append(missing, "HOTEL_SQLITE_PATH")
		}
	case DriverPostgres:
		cfg.DatabaseDriver = driver
		if cfg.PostgresURL == "" {
			missing = append(missing, "HOTEL_POSTGRES_URL")
		}
	default:
		invalid = append(invalid, "HOTEL_DATABASE_DRIVER")
	}

	if cfg.RedisURL != "" {
		if u, err := url.Parse(cfg.RedisURL); err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") {
			invalid = append(invalid, "HOTEL_REDIS_URL")
		}
	}

	if secret := get("session_secret"); secret == "" {
		missing = append(missing, "HOTEL_SESSION_SECRET")
	} else if len(secret) < minSessionSecretLength {
		invalid = append(invalid, "HOTEL_SESSION_SECRET")
	} else {
		cfg.SessionSecret = secret
	}

	ttl, err := time.ParseDuration(get("session_ttl"))
	if err != nil || ttl <= 0 {
		invalid = append(invalid, "HOTEL_SESSION_TTL")
	} else {
		cfg.SessionTTL = ttl
	}

	secure, err := strconv.ParseBool(get("secure_cookies"))
	if err != nil {
		invalid = append(invalid, "HOTEL_SECURE_COOKIES")
	} else {
		cfg.SecureCookies = secure
	}

	// The administrator keys are all or nothing.
	adminSet := 0
	for _, value := range []string{cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password} {
		if value != "" {
			adminSet++
		}
	}
	if adminSet > 0 && adminSet < 3 {
		if cfg.Admin.Username == "" {
			missing = append(missing, "HOTEL_ADMIN_USERNAME")
		}
		if cfg.Admin.Email == "" {
			missing = append(missing, "HOTEL_ADMIN_EMAIL")
		}
		if cfg.Admin.Password == "" {
			missing = append(missing, "HOTEL_ADMIN_PASSWORD")
		}
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, "HOTEL_LOG_LEVEL")
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		invalid = append(invalid, "HOTEL_LOG_FORMAT")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("必須の環境変数が設定されていません: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
