package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port        string
	Environment string
	BaseURL     string

	// Database
	DatabaseURL string

	// Auth
	JWTSecret    string
	AuthBaseURL  string
	AuthTokenURL string
	AuthAPIKey   string

	// Cloudinary
	CloudinaryBaseURL      string
	CloudinaryCloudName    string
	CloudinaryUploadPreset string
	CloudinaryFolder       string
}

func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret:    getEnv("JWT_SECRET", ""),
		AuthBaseURL:  getEnv("AUTH_BASE_URL", "https://identitytoolkit.googleapis.com/v1"),
		AuthTokenURL: getEnv("AUTH_TOKEN_URL", "https://securetoken.googleapis.com/v1"),
		AuthAPIKey:   getEnv("AUTH_API_KEY", ""),

		CloudinaryBaseURL:      getEnv("CLOUDINARY_BASE_URL", "https://api.cloudinary.com/v1_1"),
		CloudinaryCloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryUploadPreset: getEnv("CLOUDINARY_UPLOAD_PRESET", ""),
		CloudinaryFolder:       getEnv("CLOUDINARY_FOLDER", "tailor-orders"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
