package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/soundvault/soundvault-back/internal/config"
)

func NewGormClient(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.Debug {
		logLevel = logger.Info
	}
	newLogger := logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logLevel,
		Colorful:                  cfg.Debug,
		IgnoreRecordNotFoundError: true,
	})

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode)
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         newLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	if err := Migrate(gdb); err != nil {
		return nil, err
	}

	return gdb, nil
}

// Migrate applies the schema. Shared with the test database setup.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&User{}); err != nil {
		return errors.Wrap(err, "migrate user")
	}
	if err := gdb.AutoMigrate(&Tag{}); err != nil {
		return errors.Wrap(err, "migrate tag")
	}
	if err := gdb.AutoMigrate(&Sound{}); err != nil {
		return errors.Wrap(err, "migrate sound")
	}
	if err := gdb.AutoMigrate(&Comment{}); err != nil {
		return errors.Wrap(err, "migrate comment")
	}
	if err := gdb.AutoMigrate(&Favorite{}); err != nil {
		return errors.Wrap(err, "migrate favorite")
	}
	if err := gdb.AutoMigrate(&BlacklistedToken{}); err != nil {
		return errors.Wrap(err, "migrate blacklisted token")
	}
	return nil
}
