package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Port        string
	StoreDriver string
	Database    DatabaseConfig
	JWTSecret   string
	JWTTTL      time.Duration

	LogLevel  string
	LogFormat string

	CORSAllowedOrigins []string

	DefaultSearchRadiusKm float64

	WSMessagesPerSecond float64
	WSBurst             int

	Images ImageConfig
}

type DatabaseConfig struct {
	URL      string
	Host     string
	User     string
	Password string
	Name     string
	Port     string
}

// DSN prefers DATABASE_URL over the individual DB_* settings.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		d.Host, d.User, d.Password, d.Name, d.Port)
}

// ImageConfig locates site images in an S3 compatible bucket.
type ImageConfig struct {
	Bucket          string
	PublicURL       string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	URLTTL          time.Duration
}

// Load reads the configuration from the environment, after loading an
// optional .env file.
func Load() (*Config, error) {
	// missing .env is fine in production
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnv("DB_NAME", "ecotrail"),
			Port:     getEnv("DB_PORT", "5432"),
		},
		JWTSecret: os.Getenv("JWT_SECRET"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		Images: ImageConfig{
			Bucket:          os.Getenv("IMAGE_BUCKET"),
			PublicURL:       strings.TrimRight(os.Getenv("IMAGE_PUBLIC_URL"), "/"),
			Endpoint:        os.Getenv("IMAGE_ENDPOINT"),
			AccessKeyID:     os.Getenv("IMAGE_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("IMAGE_SECRET_ACCESS_KEY"),
			Region:          getEnv("IMAGE_REGION", "auto"),
		},
	}

	var err error
	if cfg.JWTTTL, err = getDuration("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Images.URLTTL, err = getDuration("IMAGE_URL_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.DefaultSearchRadiusKm, err = getFloat("DEFAULT_SEARCH_RADIUS_KM", 5); err != nil {
		return nil, err
	}
	if cfg.WSMessagesPerSecond, err = getFloat("WS_MESSAGES_PER_SECOND", 20); err != nil {
		return nil, err
	}
	burst, err := getFloat("WS_BURST", 40)
	if err != nil {
		return nil, err
	}
	cfg.WSBurst = int(burst)

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.StoreDriver != StoreDriverPostgres && c.StoreDriver != StoreDriverMemory {
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.StoreDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.DefaultSearchRadiusKm <= 0 {
		return fmt.Errorf("DEFAULT_SEARCH_RADIUS_KM must be positive")
	}
	if c.WSMessagesPerSecond <= 0 || c.WSBurst <= 0 {
		return fmt.Errorf("WS_MESSAGES_PER_SECOND and WS_BURST must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
