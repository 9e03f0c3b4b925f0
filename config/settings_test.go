package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ENVIRONMENT", "SERVER_PORT", "DB_DRIVER", "DB_PORT", "JWT_SECRET", "JWT_EXPIRE_HOURS", "POLICY_CACHE_TTL", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	s, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.ServerPort != "8080" {
		t.Errorf("ServerPort = %q", s.ServerPort)
	}
	if s.Database.Driver != "mysql" || s.Database.Port != "3306" {
		t.Errorf("unexpected database defaults: %+v", s.Database)
	}
	if s.JWTExpireHours != 24 {
		t.Errorf("JWTExpireHours = %d", s.JWTExpireHours)
	}
	if s.PolicyCacheTTL != 5*time.Minute {
		t.Errorf("PolicyCacheTTL = %v", s.PolicyCacheTTL)
	}
	if s.JWTSecret == "" {
		t.Errorf("development should get a fallback secret")
	}
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error without JWT_SECRET in production")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_PORT", "")
	t.Setenv("POLICY_CACHE_TTL", "30s")
	t.Setenv("POLICY_CACHE_RECHECK", "10s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://plan.example.org, https://admin.example.org ,")
	t.Setenv("DB_AUTO_MIGRATE", "true")

	s, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Database.Driver != "postgres" || s.Database.Port != "5432" {
		t.Errorf("unexpected database settings: %+v", s.Database)
	}
	if s.PolicyCacheTTL != 30*time.Second {
		t.Errorf("PolicyCacheTTL = %v", s.PolicyCacheTTL)
	}
	if s.PolicyCacheRecheck != 10*time.Second {
		t.Errorf("PolicyCacheRecheck = %v", s.PolicyCacheRecheck)
	}
	if len(s.CORSAllowedOrigins) != 2 || s.CORSAllowedOrigins[1] != "https://admin.example.org" {
		t.Errorf("CORSAllowedOrigins = %v", s.CORSAllowedOrigins)
	}
	if !s.AutoMigrate {
		t.Errorf("AutoMigrate not parsed")
	}
}

func TestDSN(t *testing.T) {
	mysqlDSN := DatabaseSettings{Driver: "mysql", Host: "db", Port: "3306", Database: "plan", Username: "u", Password: "p"}.DSN()
	if mysqlDSN != "u:p@tcp(db:3306)/plan?charset=utf8mb4&parseTime=True&loc=Local" {
		t.Errorf("mysql DSN = %q", mysqlDSN)
	}

	pgDSN := DatabaseSettings{Driver: "postgres", Host: "db", Port: "5432", Database: "plan", Username: "u", Password: "p", SSLMode: "disable"}.DSN()
	if pgDSN != "host=db user=u password=p dbname=plan port=5432 sslmode=disable TimeZone=UTC" {
		t.Errorf("postgres DSN = %q", pgDSN)
	}
}
