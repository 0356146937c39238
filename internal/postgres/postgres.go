package postgres

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"obstarget/internal/model"
)

// DB holds the global database connection
var DB *gorm.DB

// Init opens the database connection, migrates the target table and sets the global DB
func Init(url string) (*gorm.DB, error) {
	// Configure GORM logger with higher slow SQL threshold
	gormLogger := logger.New(
		log.New(log.Writer(), "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold: time.Millisecond * 500,
			LogLevel:      logger.Warn,
		},
	)

	db, err := gorm.Open(postgres.Open(url), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("open PostgreSQL: %w", err)
	}

	if err := db.AutoMigrate(&model.TargetPG{}); err != nil {
		return nil, fmt.Errorf("migrate Target model: %w", err)
	}

	DB = db

	return db, nil
}

// Close closes the underlying connection pool
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	log.Println("Closing PostgreSQL connection...")
	DB = nil
	return sqlDB.Close()
}
