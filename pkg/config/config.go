package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	AuthProviderFirebase = "firebase"
	AuthProviderJWT      = "jwt"

	StorageDriverMinio    = "minio"
	StorageDriverFirebase = "firebase"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	PostgresConnStr string
	DBMaxOpenConns  int
	DBMaxIdleConns  int

	MongoURI      string
	MongoDatabase string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PostCacheTTL  time.Duration

	AuthProvider            string
	FirebaseCredentialsPath string
	JWTSecret               string
	WebhookSecret           string

	StorageDriver    string
	MinioEndpoint    string
	MinioAccessKey   string
	MinioSecretKey   string
	MinioUseSSL      bool
	StorageBucket    string
	StoragePublicURL string
	MaxUploadBytes   int64

	CorsAllowedOrigins []string
}

// Load reads configuration from the environment, an optional .env file and an
// optional config.yaml in the working directory. Environment wins.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("MONGO_DATABASE", "blog")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("POST_CACHE_TTL", "30s")
	v.SetDefault("AUTH_PROVIDER", AuthProviderFirebase)
	v.SetDefault("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json")
	v.SetDefault("STORAGE_DRIVER", StorageDriverMinio)
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("STORAGE_BUCKET", "images")
	v.SetDefault("MAX_UPLOAD_BYTES", 5*1024*1024)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Port:                    v.GetString("PORT"),
		Env:                     v.GetString("ENV"),
		LogLevel:                v.GetString("LOG_LEVEL"),
		PostgresConnStr:         v.GetString("POSTGRES_CONN_STR"),
		DBMaxOpenConns:          v.GetInt("DB_MAX_OPEN_CONNS"),
		DBMaxIdleConns:          v.GetInt("DB_MAX_IDLE_CONNS"),
		MongoURI:                v.GetString("MONGO_URI"),
		MongoDatabase:           v.GetString("MONGO_DATABASE"),
		RedisAddr:               v.GetString("REDIS_ADDR"),
		RedisPassword:           v.GetString("REDIS_PASSWORD"),
		RedisDB:                 v.GetInt("REDIS_DB"),
		PostCacheTTL:            v.GetDuration("POST_CACHE_TTL"),
		AuthProvider:            strings.ToLower(v.GetString("AUTH_PROVIDER")),
		FirebaseCredentialsPath: v.GetString("FIREBASE_CREDENTIALS_PATH"),
		JWTSecret:               v.GetString("JWT_SECRET"),
		WebhookSecret:           v.GetString("WEBHOOK_SECRET"),
		StorageDriver:           strings.ToLower(v.GetString("STORAGE_DRIVER")),
		MinioEndpoint:           v.GetString("MINIO_ENDPOINT"),
		MinioAccessKey:          v.GetString("MINIO_ACCESS_KEY"),
		MinioSecretKey:          v.GetString("MINIO_SECRET_KEY"),
		MinioUseSSL:             v.GetBool("MINIO_USE_SSL"),
		StorageBucket:           v.GetString("STORAGE_BUCKET"),
		StoragePublicURL:        strings.TrimRight(v.GetString("STORAGE_PUBLIC_URL"), "/"),
		MaxUploadBytes:          v.GetInt64("MAX_UPLOAD_BYTES"),
		CorsAllowedOrigins:      splitCSV(v.GetString("CORS_ALLOWED_ORIGINS")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.PostgresConnStr == "" {
		return fmt.Errorf("POSTGRES_CONN_STR environment variable not set")
	}
	switch c.AuthProvider {
	case AuthProviderFirebase:
		if c.FirebaseCredentialsPath == "" {
			return fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required when AUTH_PROVIDER=firebase")
		}
	case AuthProviderJWT:
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when AUTH_PROVIDER=jwt")
		}
	default:
		return fmt.Errorf("unsupported AUTH_PROVIDER %q", c.AuthProvider)
	}
	switch c.StorageDriver {
	case StorageDriverMinio:
		if c.MinioEndpoint == "" {
			return fmt.Errorf("MINIO_ENDPOINT is required when STORAGE_DRIVER=minio")
		}
	case StorageDriverFirebase:
		if c.FirebaseCredentialsPath == "" {
			return fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required when STORAGE_DRIVER=firebase")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.StorageBucket == "" {
		return fmt.Errorf("STORAGE_BUCKET must not be empty")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

// NeedsFirebase reports whether any configured component talks to Firebase.
func (c *Config) NeedsFirebase() bool {
	return c.AuthProvider == AuthProviderFirebase || c.StorageDriver == StorageDriverFirebase
}

func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
