package database

import (
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"presence-service/internal/model"
)

// New opens the PostgreSQL connection, configures the pool and runs
// migrations for the presence schema.
func New(url string, env string) (*gorm.DB, error) {
	logLevel := logger.Silent
	if env == "dev" || env == "development" {
		logLevel = logger.Info
	}

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.Open(url), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(
		&model.User{},
		&model.UserPresence{},
	); err != nil {
		return nil, err
	}

	createIndexes(db)

	return db, nil
}

func createIndexes(db *gorm.DB) {
	// Index for presence reporting
	db.Exec(`CREATE INDEX IF NOT EXISTS idx_presence_status_last_active
		ON user_presence (status, last_active DESC)`)
}
