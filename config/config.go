package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	DefaultPort                   = "8080"
	DefaultAccessTokenExpiryMin   = 15
	DefaultRefreshTokenExpiryDays = 7
	DefaultMinUsernameLength      = 3
	DefaultMaxUsernameLength      = 32
	DefaultMinPasswordLength      = 8
	DefaultMaxPasswordLength      = 64
)

type Config struct {
	Env                string
	Port               string
	DBURL              string
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessExpiryMin    int
	RefreshExpiryDays  int
	AllowMultiSession  bool
	MinUsernameLength  int
	MaxUsernameLength  int
	MinPasswordLength  int
	MaxPasswordLength  int
}

func Load() *Config {
	env := getEnv("ENV", "development")

	// Real environment variables win over file values; godotenv only fills
	// in keys that are not already set.
	_ = godotenv.Load(filepath.Join("config", envFileName(env)))

	return &Config{
		Env:                env,
		Port:               getEnv("PORT", DefaultPort),
		DBURL:              mustGetEnv("DB_URL"),
		AccessTokenSecret:  mustGetEnv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: mustGetEnv("REFRESH_TOKEN_SECRET"),
		AccessExpiryMin:    getEnvAsInt("ACCESS_TOKEN_EXPIRY", DefaultAccessTokenExpiryMin),
		RefreshExpiryDays:  getEnvAsInt("REFRESH_TOKEN_EXPIRY_DAYS", DefaultRefreshTokenExpiryDays),
		AllowMultiSession:  getEnvAsBool("ALLOW_MULTI_SESSION", true),
		MinUsernameLength:  getEnvAsInt("MIN_USERNAME_LENGTH", DefaultMinUsernameLength),
		MaxUsernameLength:  getEnvAsInt("MAX_USERNAME_LENGTH", DefaultMaxUsernameLength),
		MinPasswordLength:  getEnvAsInt("MIN_PASSWORD_LENGTH", DefaultMinPasswordLength),
		MaxPasswordLength:  getEnvAsInt("MAX_PASSWORD_LENGTH", DefaultMaxPasswordLength),
	}
}

func envFileName(env string) string {
	if env == "production" {
		return ".env.prod"
	}
	return ".env.dev"
}

func getEnv(key string, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func mustGetEnv(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	log.Fatalf("Missing required config: %s", key)
	return ""
}

func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default %d", key, defaultVal)
		return defaultVal
	}
	return val
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default %v", key, defaultVal)
		return defaultVal
	}
	return val
}

// Addr is the listen address derived from the configured port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%s", c.Port)
}
