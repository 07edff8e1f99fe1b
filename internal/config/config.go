package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName         string
	AppEnv          string
	AppPort         string
	DatabaseDriver  string
	DatabaseURL     string
	SQLitePath      string
	MongoURL        string
	MongoDatabase   string
	RedisURL        string
	NATSURL         string
	FeedChannelBase string
	SuggestCacheTTL time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("BIBLIO")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "BiblioFlow API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("sqlite.path", "biblioflow.db")
	v.SetDefault("mongo.database", "biblioflow")
	v.SetDefault("feed.channel", "biblioflow")
	v.SetDefault("suggest.cache_ttl", "30s")

	ttlString := v.GetString("suggest.cache_ttl")
	if ttlString == "" {
		ttlString = "30s"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid suggest cache ttl: %w", err)
	}

	cfg := Config{
		AppName:         v.GetString("app.name"),
		AppEnv:          v.GetString("app.env"),
		AppPort:         v.GetString("app.port"),
		DatabaseDriver:  strings.ToLower(v.GetString("database.driver")),
		DatabaseURL:     v.GetString("database.url"),
		SQLitePath:      v.GetString("sqlite.path"),
		MongoURL:        v.GetString("mongo.url"),
		MongoDatabase:   v.GetString("mongo.database"),
		RedisURL:        v.GetString("redis.url"),
		NATSURL:         v.GetString("nats.url"),
		FeedChannelBase: v.GetString("feed.channel"),
		SuggestCacheTTL: ttl,
	}

	switch cfg.DatabaseDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("database url must be provided for the postgres driver")
		}
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			return Config{}, fmt.Errorf("sqlite path must be provided for the sqlite driver")
		}
	case DriverMongo:
		if cfg.MongoURL == "" {
			return Config{}, fmt.Errorf("mongo url must be provided for the mongo driver")
		}
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	return cfg, nil
}
