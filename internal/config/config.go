package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DBDriver       string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBPath         string
	RedisHost      string
	RedisPort      string
	SessionStore   string
	SessionSecret  string
	JWTSecret      string
	JWTTTL         time.Duration
	GinMode        string
	ServerAddr     string
	OpenAIAPIKey   string
	RealtimeBuffer int
}

// Load reads configuration from the environment. A .env file in the working
// directory, if present, is loaded first and never overrides set variables.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to load .env file: %v", err)
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_USER", "taskuser")
	v.SetDefault("DB_PASSWORD", "taskpassword")
	v.SetDefault("DB_NAME", "task_tracker")
	v.SetDefault("DB_PATH", "task_tracker.db")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("SESSION_STORE", "redis")
	v.SetDefault("SESSION_SECRET", "default-secret-key-change-me")
	v.SetDefault("JWT_SECRET", "default-jwt-secret-change-me")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_ADDR", ":8080")
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("REALTIME_BUFFER", 32)

	return &Config{
		DBDriver:       v.GetString("DB_DRIVER"),
		DBHost:         v.GetString("DB_HOST"),
		DBPort:         v.GetString("DB_PORT"),
		DBUser:         v.GetString("DB_USER"),
		DBPassword:     v.GetString("DB_PASSWORD"),
		DBName:         v.GetString("DB_NAME"),
		DBPath:         v.GetString("DB_PATH"),
		RedisHost:      v.GetString("REDIS_HOST"),
		RedisPort:      v.GetString("REDIS_PORT"),
		SessionStore:   v.GetString("SESSION_STORE"),
		SessionSecret:  v.GetString("SESSION_SECRET"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		JWTTTL:         v.GetDuration("JWT_TTL"),
		GinMode:        v.GetString("GIN_MODE"),
		ServerAddr:     v.GetString("SERVER_ADDR"),
		OpenAIAPIKey:   v.GetString("OPENAI_API_KEY"),
		RealtimeBuffer: v.GetInt("REALTIME_BUFFER"),
	}
}

// IsProduction reports whether the server runs in gin release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}
