// Package repositories provides the data access layer. All mutations that
// carry a business precondition (card headroom, trader balance, transaction
// status) are single conditional UPDATE statements, so concurrent callers
// can both pass a read-side check but only one can win the write.
package repositories

import (
	"fmt"
	"time"

	"peerpay/internal/config"
	"peerpay/internal/logger"
	"peerpay/internal/models"
	"peerpay/internal/repositories/cache"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database bundles the SQL store and the Redis cache for injection into
// repositories. It owns both connections for the life of the process.
type Database struct {
	DB    *gorm.DB
	Cache *cache.Service
}

// Open connects to PostgreSQL and Redis, runs migrations and configures
// the connection pool from the environment.
func Open() (*Database, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		config.GetEnv("DB_HOST", "localhost"),
		config.GetEnv("DB_USER", "postgres"),
		config.GetEnv("DB_PASSWORD", "postgres"),
		config.GetEnv("DB_NAME", "peerpay"),
		config.GetEnv("DB_PORT", "5432"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Trader{},
		&models.Card{},
		&models.Transaction{},
		&models.Settings{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql db: %w", err)
	}
	sqlDB.SetMaxIdleConns(config.GetIntEnv("DB_MAX_IDLE_CONNS", 10))
	sqlDB.SetMaxOpenConns(config.GetIntEnv("DB_MAX_OPEN_CONNS", 100))
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	redisClient := cache.NewRedisClient(&cache.RedisConfig{
		Host:     config.GetEnv("REDIS_HOST", "localhost"),
		Port:     config.GetEnv("REDIS_PORT", "6379"),
		Password: config.GetEnv("REDIS_PASSWORD", ""),
		DB:       config.GetIntEnv("REDIS_DB", 0),
	})
	cacheService := cache.NewService(redisClient, 24*time.Hour)

	logger.Log.Info("database connected",
		zap.String("db", config.GetEnv("DB_NAME", "peerpay")))

	return &Database{DB: db, Cache: cacheService}, nil
}

// Close releases the PostgreSQL and Redis connections.
func (d *Database) Close() error {
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			logger.Log.Warn("redis close failed", zap.Error(err))
		}
	}
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
