package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                  string
	AllowedOrigin         string
	DatabaseURL           string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	SessionTTLMinutes     int
	ViewedTTLDays         int
	AuthSecret            string
	AccessTokenTTLMinutes int
}

func Load() Config {
	// Optional .env for local development; real deployments set env vars.
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	sessionTTL, err := strconv.Atoi(getEnv("SESSION_TTL_MINUTES", "120"))
	if err != nil || sessionTTL < 1 {
		sessionTTL = 120
	}
	viewedTTL, err := strconv.Atoi(getEnv("VIEWED_TTL_DAYS", "7"))
	if err != nil || viewedTTL < 1 {
		viewedTTL = 7
	}
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "480"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 480
	}

	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		SessionTTLMinutes:     sessionTTL,
		ViewedTTLDays:         viewedTTL,
		AuthSecret:            strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes: tokenTTL,
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
