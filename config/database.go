package config

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds the driver specific connection string.
func (d DatabaseSettings) DSN() string {
	if d.Driver == "postgres" {
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			d.Host,
			d.Username,
			d.Password,
			d.Database,
			d.Port,
			d.SSLMode,
		)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

func (d DatabaseSettings) dialector() (gorm.Dialector, error) {
	switch d.Driver {
	case "", "mysql":
		return mysql.Open(d.DSN()), nil
	case "postgres":
		return postgres.Open(d.DSN()), nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", d.Driver)
}

// OpenDB connects to the configured database. SQL statements are logged
// through log; production keeps only warnings unless DEBUG_SQL is set.
func OpenDB(s Settings, log zerolog.Logger) (*gorm.DB, error) {
	dialector, err := s.Database.dialector()
	if err != nil {
		return nil, err
	}

	logLevel := logger.Info
	if s.IsProduction() && !s.Database.DebugSQL {
		logLevel = logger.Warn
	}

	sqlLog := log.With().Str("component", "gorm").Logger()
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(&sqlLog, logger.Config{
			LogLevel:                  logLevel,
			SlowThreshold:             500 * time.Millisecond,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
