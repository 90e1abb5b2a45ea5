package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMySQL = "mysql"
	StoreRedis = "redis"
)

type Config struct {
	App               AppConfig
	HTTP              ServerConfig
	MySQL             MySQLConfig
	Redis             RedisConfig
	Log               LogConfig
	InternalEndpoints InternalEndpointsConfig
	Onboarding        OnboardingConfig
	Jobs              JobsConfig
}

type AppConfig struct {
	ServiceName string
	APIKey      string
}

type ServerConfig struct {
	Host string
	Port string
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LogConfig struct {
	Level string
}

type InternalEndpointsConfig struct {
	AuthGRPCAddr         string
	TenantServiceBaseURL string
	TenantServiceAPIKey  string
	TenantServiceTimeout time.Duration
}

type OnboardingConfig struct {
	// Store selects the wizard state backend, mysql or redis.
	Store      string
	SessionTTL time.Duration
}

type JobsConfig struct {
	CleanupInterval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	store := getEnv("ONBOARDING_STORE", StoreMySQL)
	if store != StoreMySQL && store != StoreRedis {
		return nil, errors.New("ONBOARDING_STORE must be mysql or redis")
	}

	// The plan catalog always lives in MySQL; ONBOARDING_STORE only selects
	// where wizard session state is persisted.
	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	return &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "onboarding-service"),
			APIKey:      getEnv("APP_API_KEY", ""),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		MySQL: MySQLConfig{
			DSN:             mysqlDSN,
			MaxOpenConns:    getIntEnv("MYSQL_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("MYSQL_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("MYSQL_CONN_MAX_LIFETIME_MINUTES", 30*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Log: LogConfig{Level: getEnv("LOG_LEVEL", "info")},
		InternalEndpoints: InternalEndpointsConfig{
			AuthGRPCAddr:         getEnv("AUTH_SERVICE_GRPC_ADDR", "localhost:9090"),
			TenantServiceBaseURL: getEnv("TENANT_SERVICE_BASE_URL", "http://localhost:8081"),
			TenantServiceAPIKey:  getEnv("TENANT_SERVICE_API_KEY", ""),
			TenantServiceTimeout: getDurationEnv("TENANT_SERVICE_TIMEOUT_MINUTES", time.Minute),
		},
		Onboarding: OnboardingConfig{
			Store:      store,
			SessionTTL: getDurationEnv("ONBOARDING_SESSION_TTL_MINUTES", 10080*time.Minute),
		},
		Jobs: JobsConfig{
			CleanupInterval: getDurationEnv("CLEANUP_INTERVAL_MINUTES", 60*time.Minute),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}
