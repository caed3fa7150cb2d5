package mockapi

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	// Driver is "sqlite" or "mysql".
	Driver string
	// DSN is the connection string. An empty sqlite DSN means a private
	// in-memory database.
	DSN string
}

// InitDB opens the database and migrates the schema.
func InitDB(cfg DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = fmt.Sprintf("file:mockapi-%s?mode=memory&cache=shared", uuid.NewString())
		}
		dialector = sqlite.Open(dsn)
	case "mysql":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("mockapi: mysql requires a DSN")
		}
		dialector = mysql.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("mockapi: unknown database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("mockapi: open database: %w", err)
	}
	if cfg.Driver != "mysql" {
		// One connection keeps the shared in-memory database free of lock errors.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("mockapi: database handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&User{}, &Session{}, &OTPCode{}); err != nil {
		return nil, fmt.Errorf("mockapi: migrate: %w", err)
	}
	return db, nil
}
