package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// TMDB
	TMDBAPIKey string

	// Refresh
	RefreshIntervalHours int // Hours between catalog refresh passes (default: 12)

	// Caching
	PosterCacheBytes int // Byte budget for the resolved poster URL cache

	// Server
	ServerPort string

	// Paths
	DatabaseFile string // $CONFIG_DIR/tvbuddy.db

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Setup viper FIRST to load .env file
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	// Set defaults
	viper.SetDefault("REFRESH_INTERVAL_HOURS", 12)
	viper.SetDefault("POSTER_CACHE_BYTES", 1<<20)
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")

	// NOW read CONFIG_DIR from viper (which has loaded .env file)
	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "tvbuddy")
	} else {
		// Convert relative path to absolute path
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		TMDBAPIKey:           viper.GetString("TMDB_API_KEY"),
		RefreshIntervalHours: viper.GetInt("REFRESH_INTERVAL_HOURS"),
		PosterCacheBytes:     viper.GetInt("POSTER_CACHE_BYTES"),
		ServerPort:           viper.GetString("SERVER_PORT"),
		DatabaseFile:         filepath.Join(configDir, "tvbuddy.db"),
		LogLevel:             viper.GetString("LOG_LEVEL"),
	}

	// Validate required fields
	if config.TMDBAPIKey == "" {
		return nil, fmt.Errorf("TMDB_API_KEY is required")
	}
	if config.RefreshIntervalHours < 1 {
		return nil, fmt.Errorf("REFRESH_INTERVAL_HOURS must be at least 1")
	}

	return config, nil
}
