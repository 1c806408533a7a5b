package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Listing ListingConfig
}

type AppConfig struct {
	Port        string
	Env         string
	LogLevel    string
	CORSOrigins []string
}

type DBConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	Name          string
	SSLMode       string
	TimeZone      string
	MaxIdleConns  int
	MaxOpenConns  int
	AutoMigrate   bool
	MigrationsDir string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// ListingConfig tunes the doctor listing.
type ListingConfig struct {
	PageSize      int
	FeePushdown   bool
	QueryTimeout  time.Duration
	SessionTTL    time.Duration
	FacetCacheTTL time.Duration
}

// LoadConfig reads .env when present, then the process environment, which
// always wins.
func LoadConfig() (*Config, error) {
	return loadConfig(".env")
}

func loadConfig(envFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, err
		}
	}

	config := &Config{
		App: AppConfig{
			Port:     v.GetString("APP_PORT"),
			Env:      v.GetString("APP_ENV"),
			LogLevel: v.GetString("APP_LOG_LEVEL"),
		},
		DB: DBConfig{
			Host:          v.GetString("DB_HOST"),
			Port:          v.GetString("DB_PORT"),
			User:          v.GetString("DB_USER"),
			Password:      v.GetString("DB_PASSWORD"),
			Name:          v.GetString("DB_NAME"),
			SSLMode:       v.GetString("DB_SSLMODE"),
			TimeZone:      v.GetString("DB_TIMEZONE"),
			MaxIdleConns:  v.GetInt("DB_MAX_IDLE_CONNS"),
			MaxOpenConns:  v.GetInt("DB_MAX_OPEN_CONNS"),
			AutoMigrate:   v.GetBool("DB_AUTO_MIGRATE"),
			MigrationsDir: v.GetString("DB_MIGRATIONS_DIR"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Listing: ListingConfig{
			PageSize:      v.GetInt("LISTING_PAGE_SIZE"),
			FeePushdown:   v.GetBool("LISTING_FEE_PUSHDOWN"),
			QueryTimeout:  v.GetDuration("LISTING_QUERY_TIMEOUT"),
			SessionTTL:    v.GetDuration("LISTING_SESSION_TTL"),
			FacetCacheTTL: v.GetDuration("LISTING_FACET_CACHE_TTL"),
		},
	}

	if config.Listing.PageSize < 1 {
		config.Listing.PageSize = 5
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_LOG_LEVEL", "info")
	v.SetDefault("APP_CORS_ORIGINS", "*")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LISTING_PAGE_SIZE", 5)
	v.SetDefault("LISTING_FEE_PUSHDOWN", true)
	v.SetDefault("LISTING_QUERY_TIMEOUT", 5*time.Second)
	v.SetDefault("LISTING_SESSION_TTL", 30*time.Minute)
	v.SetDefault("LISTING_FACET_CACHE_TTL", 10*time.Minute)
}

// splitList parses a comma separated setting.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
