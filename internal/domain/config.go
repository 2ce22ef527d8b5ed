package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Download DownloadConfig `mapstructure:"download"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains batch-download configuration
type DownloadConfig struct {
	BaseDir             string        `mapstructure:"base_dir"`
	PausePollInterval   time.Duration `mapstructure:"pause_poll_interval"`
	FetchTimeout        time.Duration `mapstructure:"fetch_timeout"`
	ConcurrentCassettes int           `mapstructure:"concurrent_cassettes"`
}

// StorageConfig contains record-store configuration
type StorageConfig struct {
	DatabasePath   string `mapstructure:"database_path"`
	MaxFileRecords int    `mapstructure:"max_file_records"` // 0 = unlimited
	EvictBatch     int    `mapstructure:"evict_batch"`
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8090,
		},
		Download: DownloadConfig{
			BaseDir:             "$HOME/Music/cassette-sync",
			PausePollInterval:   500 * time.Millisecond,
			FetchTimeout:        0, // rely on the transport default
			ConcurrentCassettes: 2,
		},
		Storage: StorageConfig{
			DatabasePath:   "$HOME/Music/cassette-sync/library.db",
			MaxFileRecords: 0,
			EvictBatch:     50,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
