package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

type Config struct {
	// Entity store
	StoreDriver string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	SQLitePath string

	MongoURL string
	MongoDB  string

	// Per-target locking. Empty RedisURL means in-process locks.
	RedisURL string
	LockTTL  time.Duration

	// Escalation rules
	BookAlertThreshold  int
	NameReportThreshold int
	RenameGracePeriod   time.Duration

	// Auth
	APIKey       string
	JWTSecret    string
	AdminToken   string
	AdminUserIDs string

	// Server
	Port        string
	CORSOrigins string
	// Requests per minute per IP on /api
	RateLimit int

	// Observability
	LogRetentionDays int
	SentryDSN        string
	AppEnv           string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		StoreDriver: getEnv("STORE_DRIVER", DriverPostgres),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "the_library"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		SQLitePath: getEnv("SQLITE_PATH", "the_library.db"),

		MongoURL: getEnv("MONGO_URL", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGO_DB", "the_library"),

		RedisURL: getEnv("REDIS_URL", ""),
		LockTTL:  parseDuration(getEnv("LOCK_TTL", "10s"), 10*time.Second),

		BookAlertThreshold:  parseInt(getEnv("BOOK_ALERT_THRESHOLD", "5"), 5),
		NameReportThreshold: parseInt(getEnv("NAME_REPORT_THRESHOLD", "3"), 3),
		RenameGracePeriod:   parseDuration(getEnv("RENAME_GRACE_PERIOD", "168h"), 7*24*time.Hour),

		APIKey:       getEnv("API_KEY", ""),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		AdminToken:   getEnv("ADMIN_TOKEN", ""),
		AdminUserIDs: getEnv("ADMIN_USER_IDS", ""),

		Port:        getEnv("PORT", "5002"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		RateLimit:   parseInt(getEnv("RATE_LIMIT_PER_MINUTE", "60"), 60),

		LogRetentionDays: parseInt(getEnv("LOG_RETENTION_DAYS", "30"), 30),
		SentryDSN:        getEnv("SENTRY_DSN", ""),
		AppEnv:           getEnv("APP_ENV", "development"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
