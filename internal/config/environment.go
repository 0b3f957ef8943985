// Save as: internal/config/environment.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        int
	DBPath      string
	SourcesPath string

	GeminiAPIKey string
	DailyLimit   int
	BatchSize    int
	RatingPause  time.Duration

	FetchInterval     time.Duration
	RetryInterval     time.Duration
	RetentionInterval time.Duration
}

func GetConfig() Config {
	config := Config{
		Port:              8080, // default port
		DBPath:            "data/brightworld.db",
		SourcesPath:       "configs/sources.yaml",
		DailyLimit:        20,
		BatchSize:         5,
		RatingPause:       12 * time.Second, // stays under 5 requests/minute
		FetchInterval:     6 * time.Hour,
		RetryInterval:     2 * time.Hour,
		RetentionInterval: 24 * time.Hour,
	}

	// Override with environment variables if present
	if port := os.Getenv("BRIGHTWORLD_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Port = p
		}
	}

	if dbPath := os.Getenv("BRIGHTWORLD_DB_PATH"); dbPath != "" {
		config.DBPath = dbPath
	}

	if sources := os.Getenv("BRIGHTWORLD_SOURCES"); sources != "" {
		config.SourcesPath = sources
	}

	config.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")

	if limit := os.Getenv("BRIGHTWORLD_DAILY_LIMIT"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			config.DailyLimit = n
		}
	}

	if size := os.Getenv("BRIGHTWORLD_BATCH_SIZE"); size != "" {
		if n, err := strconv.Atoi(size); err == nil && n > 0 {
			config.BatchSize = n
		}
	}

	if pause := os.Getenv("BRIGHTWORLD_RATING_PAUSE"); pause != "" {
		if d, err := time.ParseDuration(pause); err == nil && d >= 0 {
			config.RatingPause = d
		}
	}

	if interval := os.Getenv("BRIGHTWORLD_FETCH_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil && d > 0 {
			config.FetchInterval = d
		}
	}

	if interval := os.Getenv("BRIGHTWORLD_RETRY_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil && d > 0 {
			config.RetryInterval = d
		}
	}

	return config
}

func (c Config) GetAddress() string {
	return fmt.Sprintf(":%d", c.Port)
}
