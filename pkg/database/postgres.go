package database

import (
	"log"
	"os"
	"strings"
	"time"

	"go-warehouse-ws/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectDB opens the Postgres pool. logLevel is one of silent, error, warn, info.
func ConnectDB(dsn, logLevel string) (*gorm.DB, error) {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  parseLogLevel(logLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // Disables implicit prepared statements for Supabase Transaction Mode
	}), &gorm.Config{
		Logger:         newLogger,
		PrepareStmt:    false,
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// Connection Pooling Setup (Penting untuk Production)
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Database connection established")
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Unit{},
		&model.Item{},
		&model.ItemSize{},
		&model.Transaction{},
		&model.ItemRequest{},
	)
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
