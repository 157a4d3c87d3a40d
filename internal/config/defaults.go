package config

import (
	"path/filepath"

	"github.com/ziadkadry99/modguard/internal/moderation"
)

// File names used inside DataDir.
const (
	SQLiteFileName = "modguard.db"
	JSONFileName   = "moderation.json"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir:          ".modguard",
		Store:            StoreSQLite,
		LogLevel:         "info",
		LogFormat:        LogFormatConsole,
		MaxContentLength: moderation.MaxContentLength,
		DefaultAdmin:     moderation.DefaultAdminID,
		Server: ServerConfig{
			Port:            8080,
			AllowAllOrigins: false,
		},
	}
}

// StorePath returns the file backing the configured store.
func (c *Config) StorePath() string {
	if c.Store == StoreFile {
		return filepath.Join(c.DataDir, JSONFileName)
	}
	return filepath.Join(c.DataDir, SQLiteFileName)
}
