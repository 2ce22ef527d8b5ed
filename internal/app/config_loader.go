package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/yourusername/cassette-sync-go/internal/domain"
)

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	// Start with default config
	config := domain.DefaultConfig()

	// Set up viper
	v := viper.New()
	v.SetConfigType("yaml")

	// If config path is provided, use it
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.cassette-sync")
		v.AddConfigPath("/etc/cassette-sync")
	}

	// Read environment variables
	v.SetEnvPrefix("CASSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults
	}

	// Unmarshal into config struct
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Expand environment variables in paths
	config.Download.BaseDir = expandPath(config.Download.BaseDir)
	config.Storage.DatabasePath = expandPath(config.Storage.DatabasePath)
	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	// Validate config
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	path = os.ExpandEnv(path)

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	if strings.Contains(path, "$HOME") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	return path
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Download.BaseDir == "" {
		return fmt.Errorf("download base directory not configured")
	}

	if config.Download.PausePollInterval <= 0 {
		return fmt.Errorf("pause poll interval must be positive")
	}

	if config.Download.ConcurrentCassettes < 1 {
		return fmt.Errorf("concurrent cassettes must be at least 1")
	}

	if config.Storage.DatabasePath == "" {
		return fmt.Errorf("storage database path not configured")
	}

	if config.Storage.MaxFileRecords < 0 {
		return fmt.Errorf("max file records cannot be negative")
	}

	if config.Storage.EvictBatch < 1 {
		return fmt.Errorf("evict batch must be at least 1")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}
