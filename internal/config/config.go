package config

import (
	"os"
)

type Config struct {
	Port        string
	FabricKind  string // "memory", "redis" or "nats"
	RedisURL    string
	NatsURL     string
	DatabaseDSN string
	JWTSecret   string
	LogLevel    string
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		FabricKind:  getEnv("FABRIC", "redis"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
		NatsURL:     getEnv("NATS_URL", "nats://localhost:4222"),
		DatabaseDSN: getEnv("DATABASE_DSN", "chat.db"),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
