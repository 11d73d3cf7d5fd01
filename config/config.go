package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the matchmaking core.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	// Matchmaking tunables; every value has a sensible default and an
	// env override for operations.
	InitialEloRange int
	EloRangeStep    int
	SearchInterval  time.Duration
	MaxWaitTime     time.Duration
	CooldownBase    time.Duration
	CooldownStep    time.Duration
	CooldownMax     time.Duration

	// Cloudflare R2 archive of finished tournaments. Optional: leave the
	// account id empty to disable archiving.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// Load reads configuration from environment variables, optionally seeded
// from a .env file for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	initialRange, err := intEnv("INITIAL_ELO_RANGE", 50)
	if err != nil {
		return nil, err
	}
	rangeStep, err := intEnv("ELO_RANGE_STEP", 50)
	if err != nil {
		return nil, err
	}
	searchInterval, err := durationEnv("SEARCH_EXPANSION_INTERVAL", 5*time.Second)
	if err != nil {
		return nil, err
	}
	maxWait, err := durationEnv("MAX_WAIT_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}
	cooldownBase, err := durationEnv("COOLDOWN_BASE", 5*time.Second)
	if err != nil {
		return nil, err
	}
	cooldownStep, err := durationEnv("COOLDOWN_STEP", 2*time.Second)
	if err != nil {
		return nil, err
	}
	cooldownMax, err := durationEnv("COOLDOWN_MAX", 15*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:  dbURL,
		JWTSecretKey: jwtKey,
		ServerPort:   port,

		InitialEloRange: initialRange,
		EloRangeStep:    rangeStep,
		SearchInterval:  searchInterval,
		MaxWaitTime:     maxWait,
		CooldownBase:    cooldownBase,
		CooldownStep:    cooldownStep,
		CooldownMax:     cooldownMax,

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	return cfg, nil
}

func intEnv(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return v, nil
}

func durationEnv(name string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return v, nil
}
