package config

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/anonto42/nano-blog/backend/pkg/logger"
)

// DB holds the process-wide pooled connections. Mongo and Redis are optional
// and stay nil when not configured.
type DB struct {
	Postgres *gorm.DB
	Mongo    *mongo.Database
	Redis    *redis.Client

	mongoClient *mongo.Client
}

// InitDB opens every configured connection pool and verifies it with a ping.
func InitDB(cfg *Config) (*DB, error) {
	postgresDB, err := initPostgres(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	db := &DB{Postgres: postgresDB}

	if cfg.MongoURI != "" {
		client, err := initMongo(cfg.MongoURI)
		if err != nil {
			db.CloseDB()
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		db.mongoClient = client
		db.Mongo = client.Database(cfg.MongoDatabase)
	} else {
		slog.Warn("MONGO_URI not set, webhook event audit log disabled")
	}

	if cfg.RedisAddr != "" {
		rdb, err := initRedis(cfg)
		if err != nil {
			db.CloseDB()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		db.Redis = rdb
	} else {
		slog.Warn("REDIS_ADDR not set, post list cache disabled")
	}

	return db, nil
}

func initPostgres(cfg *Config) (*gorm.DB, error) {
	level := gormlogger.Warn
	if cfg.LogLevel == "debug" {
		level = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.PostgresConnStr), &gorm.Config{
		Logger: logger.NewGormLogger(level),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}

	slog.Info("Successfully connected to PostgreSQL!")
	return db, nil
}

func initMongo(uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	slog.Info("Successfully connected to MongoDB!")
	return client, nil
}

func initRedis(cfg *Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	slog.Info("Successfully connected to Redis!")
	return rdb, nil
}

// CloseDB closes the database connections
func (db *DB) CloseDB() {
	if db.Postgres != nil {
		sqlDB, err := db.Postgres.DB()
		if err != nil {
			slog.Error("Error getting SQL DB from GORM", "err", err)
		} else if err := sqlDB.Close(); err != nil {
			slog.Error("Error closing PostgreSQL connection", "err", err)
		} else {
			slog.Info("PostgreSQL connection closed.")
		}
	}

	if db.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.mongoClient.Disconnect(ctx); err != nil {
			slog.Error("Error closing MongoDB connection", "err", err)
		} else {
			slog.Info("MongoDB connection closed.")
		}
	}

	if db.Redis != nil {
		if err := db.Redis.Close(); err != nil {
			slog.Error("Error closing Redis connection", "err", err)
		} else {
			slog.Info("Redis connection closed.")
		}
	}
}
