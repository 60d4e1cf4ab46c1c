package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Port                    string
	Env                     string
	FirebaseCredentialsPath string
	PostgresConnStr         string
	MongoURI                string
	MongoDatabase           string
	RedisURL                string
	SessionSecret           string
	JWTSecret               string
	MediaRoot               string
	IndexCacheTTL           time.Duration
	CacheMaxEntries         int
	LogLevel                string
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "yatube"),
		RedisURL:                getEnv("REDIS_URL", ""),
		SessionSecret:           getEnv("SESSION_SECRET", "yatube-dev-session-secret"),
		JWTSecret:               getEnv("JWT_SECRET", "supersecretjwtkey"),
		MediaRoot:               getEnv("MEDIA_ROOT", "media"),
		IndexCacheTTL:           getDuration("INDEX_CACHE_TTL", 20*time.Second),
		CacheMaxEntries:         getInt("CACHE_MAX_ENTRIES", 300),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Warnf("Invalid duration %q for %s, using %s", value, key, defaultValue)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Warnf("Invalid integer %q for %s, using %d", value, key, defaultValue)
		return defaultValue
	}
	return n
}
