package database

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/camden-git/clipcatalog/models"
)

// ParseLogLevel maps a config string to a gorm log level. Unknown values fall back to warn.
func ParseLogLevel(level string) logger.LogLevel {
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

// InitGormDB initializes and returns a GORM database instance for the given driver
func InitGormDB(driver, dataSourceName string, logLevel logger.LogLevel) (*gorm.DB, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite, "":
		dialector = sqlite.Open(sqliteDSN(dataSourceName))
	case DriverPostgres:
		dialector = postgres.Open(dataSourceName)
	default:
		return nil, fmt.Errorf("unsupported database driver '%s'", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database using GORM: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB from GORM: %w", err)
	}

	if driver != DriverPostgres {
		// enable write-ahead Logging for better concurrency
		if err := db.Exec("PRAGMA journal_mode=WAL;").Error; err != nil {
			log.Printf("warning: failed to set WAL mode: %v", err)
		}
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Printf("GORM Database (%s) initialized successfully", driverName(driver))
	return db, nil
}

// sqliteDSN adds a busy timeout so concurrent writers wait instead of failing
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_busy_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_busy_timeout=5000"
}

func driverName(driver string) string {
	if driver == "" {
		return DriverSQLite
	}
	return driver
}

// AutoMigrateModels can be called after InitGormDB to migrate schemas
func AutoMigrateModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Folder{},
		&models.Project{},
		&models.Camera{},
		&models.Resolution{},
		&models.Clip{},
		&models.ObjectClass{},
		&models.ObjectDetection{},
		&models.Object{},
		&models.Area{},
		&models.Filter{},
	)
	if err != nil {
		return fmt.Errorf("GORM AutoMigrate failed: %w", err)
	}
	log.Println("GORM AutoMigrate completed successfully.")
	return nil
}
