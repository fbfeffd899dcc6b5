package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type PostgresConfig struct {
	Host     string
	Port     string
	DB       string
	Username string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RepositoriesConfig struct {
	Postgres PostgresConfig
}

// SessionConfig controls the TTL cache that stages in-progress trips.
type SessionConfig struct {
	DefaultTTL time.Duration
	// SelectionTTL applies to the flight/hotel selection slots.
	SelectionTTL time.Duration
}

// ReminderConfig controls the periodic reminder scan.
type ReminderConfig struct {
	// DispatchHour is the local hour reminders become due.
	DispatchHour int
	// WindowMinutes is the width of the daily dispatch band.
	WindowMinutes int
	// TripOffsetDays is how many days before a trip the advance
	// reminder goes out.
	TripOffsetDays int
	// SMTPAddr enables real mail dispatch when set (host:port).
	SMTPAddr string
	SMTPFrom string
}

type CatalogConfig struct {
	FoodSource  string
	PlaceSource string
	HotelSource string
	CacheTTL    time.Duration
}

type BillingConfig struct {
	StripeKey string
	// TripFee is charged per finalized schedule, in the smallest
	// currency unit. Zero disables billing.
	TripFee  int64
	Currency string
}

type Config struct {
	Repositories RepositoriesConfig
	Session      SessionConfig
	Reminder     ReminderConfig
	Catalog      CatalogConfig
	Billing      BillingConfig
	ServerPort   string
	JWTSecret    string
	ShareBaseURL string
}

func Load() (*Config, error) {
	cfg := &Config{
		Repositories: RepositoriesConfig{
			Postgres: PostgresConfig{
				Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
				Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
				DB:       getEnvOrDefault("POSTGRES_DB", "loci_trip"),
				Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
				Password: getEnvOrDefault("POSTGRES_PASSWORD", ""),
				SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
				MaxConns: 30,
				MinConns: 5,
			},
		},
		Session: SessionConfig{
			DefaultTTL:   time.Duration(getEnvIntOrDefault("SESSION_TTL_SECONDS", 3600)) * time.Second,
			SelectionTTL: time.Duration(getEnvIntOrDefault("SELECTION_TTL_SECONDS", 3600)) * time.Second,
		},
		Reminder: ReminderConfig{
			DispatchHour:   getEnvIntOrDefault("REMINDER_DISPATCH_HOUR", 9),
			WindowMinutes:  getEnvIntOrDefault("REMINDER_WINDOW_MINUTES", 5),
			TripOffsetDays: getEnvIntOrDefault("REMINDER_TRIP_OFFSET_DAYS", 3),
			SMTPAddr:       os.Getenv("REMINDER_SMTP_ADDR"),
			SMTPFrom:       getEnvOrDefault("REMINDER_SMTP_FROM", "reminders@loci.local"),
		},
		Catalog: CatalogConfig{
			FoodSource:  getEnvOrDefault("CATALOG_FOOD_SOURCE", "data/food.csv"),
			PlaceSource: getEnvOrDefault("CATALOG_PLACE_SOURCE", "data/places.csv"),
			HotelSource: getEnvOrDefault("CATALOG_HOTEL_SOURCE", "data/hotels.csv"),
			CacheTTL:    time.Duration(getEnvIntOrDefault("CATALOG_CACHE_TTL_SECONDS", 600)) * time.Second,
		},
		Billing: BillingConfig{
			StripeKey: os.Getenv("STRIPE_SECRET_KEY"),
			TripFee:   int64(getEnvIntOrDefault("TRIP_FEE_CENTS", 0)),
			Currency:  getEnvOrDefault("TRIP_FEE_CURRENCY", "usd"),
		},
		ServerPort:   getEnvOrDefault("SERVER_PORT", "8091"),
		JWTSecret:    getEnvOrDefault("JWT_SECRET", ""),
		ShareBaseURL: getEnvOrDefault("SHARE_BASE_URL", "http://localhost:8091"),
	}

	if cfg.Repositories.Postgres.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD environment variable is required")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
