package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings is everything the binaries read from the environment. Load it
// after godotenv.Load so a local .env file can fill the gaps.
type Settings struct {
	Environment        string
	GinMode            string
	ServerPort         string
	LogLevel           string
	JWTSecret          string
	JWTExpireHours     int
	PolicyCacheTTL     time.Duration
	PolicyCacheRecheck time.Duration
	CORSAllowedOrigins []string
	AutoMigrate        bool
	Database           DatabaseSettings
	SMTP               SMTPSettings
}

type DatabaseSettings struct {
	Driver   string
	Host     string
	Port     string
	Database string
	Username string
	Password string
	SSLMode  string
	DebugSQL bool
}

type SMTPSettings struct {
	Host          string
	Port          int
	User          string
	Pass          string
	From          string // e.g. "Fund Planning <no-reply@your.org>"
	SkipTLSVerify bool
}

// Load reads Settings from the environment.
func Load() (Settings, error) {
	s := Settings{
		Environment:        strings.ToLower(getenv("ENVIRONMENT", "development")),
		GinMode:            getenv("GIN_MODE", "debug"),
		ServerPort:         getenv("SERVER_PORT", "8080"),
		LogLevel:           getenv("LOG_LEVEL", "info"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		JWTExpireHours:     getInt("JWT_EXPIRE_HOURS", 24),
		PolicyCacheTTL:     getDuration("POLICY_CACHE_TTL", 5*time.Minute),
		PolicyCacheRecheck: getDuration("POLICY_CACHE_RECHECK", 0),
		CORSAllowedOrigins: splitList(getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		AutoMigrate:        getBool("DB_AUTO_MIGRATE", false),
		Database: DatabaseSettings{
			Driver:   strings.ToLower(getenv("DB_DRIVER", "mysql")),
			Host:     getenv("DB_HOST", "127.0.0.1"),
			Port:     os.Getenv("DB_PORT"),
			Database: os.Getenv("DB_DATABASE"),
			Username: os.Getenv("DB_USERNAME"),
			Password: os.Getenv("DB_PASSWORD"),
			SSLMode:  getenv("DB_SSLMODE", "disable"),
			DebugSQL: getBool("DEBUG_SQL", false),
		},
		SMTP: SMTPSettings{
			Host:          os.Getenv("SMTP_HOST"),
			Port:          getInt("SMTP_PORT", 587),
			User:          os.Getenv("SMTP_USER"),
			Pass:          os.Getenv("SMTP_PASS"),
			From:          os.Getenv("SMTP_FROM"),
			SkipTLSVerify: os.Getenv("SMTP_SKIP_TLS_VERIFY") == "1",
		},
	}
	if s.Database.Port == "" {
		s.Database.Port = defaultPort(s.Database.Driver)
	}

	if s.JWTSecret == "" {
		if s.IsProduction() {
			return s, errors.New("JWT_SECRET is required in production")
		}
		s.JWTSecret = "dev-secret"
	}
	if s.JWTExpireHours <= 0 {
		s.JWTExpireHours = 24
	}
	return s, nil
}

// IsProduction reports whether ENVIRONMENT=production.
func (s Settings) IsProduction() bool {
	return s.Environment == "production"
}

func defaultPort(driver string) string {
	if driver == "postgres" {
		return "5432"
	}
	return "3306"
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return def
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
