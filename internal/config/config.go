package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Keys     APIKeys
	Pipeline PipelineConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
}

type DatabaseConfig struct {
	Connection string
}

type StorageConfig struct {
	SupabaseURL     string
	SupabaseKey     string
	PrimaryBucket   string
	SecondaryBucket string
	LocalUploadDir  string
}

type APIKeys struct {
	OpenAI    string
	Stability string
	Runway    string
}

type PipelineConfig struct {
	PollIntervalSeconds int
	PollMaxAttempts     int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Storage: StorageConfig{
			SupabaseURL:     getEnv("SUPABASE_URL", ""),
			SupabaseKey:     getEnv("SUPABASE_SERVICE_KEY", ""),
			PrimaryBucket:   getEnv("STORAGE_PRIMARY_BUCKET", "generations"),
			SecondaryBucket: getEnv("STORAGE_SECONDARY_BUCKET", "generations-fallback"),
			LocalUploadDir:  getEnv("STORAGE_LOCAL_DIR", "./uploads"),
		},
		Keys: APIKeys{
			OpenAI:    getEnv("OPENAI_API_KEY", ""),
			Stability: getEnv("STABILITY_API_KEY", ""),
			Runway:    getEnv("RUNWAY_API_KEY", ""),
		},
		Pipeline: PipelineConfig{
			PollIntervalSeconds: getEnvAsInt("PIPELINE_POLL_INTERVAL_SECONDS", 5),
			PollMaxAttempts:     getEnvAsInt("PIPELINE_POLL_MAX_ATTEMPTS", 120),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
