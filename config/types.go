package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds MovieHub API connection details
type ServerConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CatalogConfig contains listing behavior settings
type CatalogConfig struct {
	PageSize int `mapstructure:"page_size"`
}

// AuthConfig contains credential storage settings
type AuthConfig struct {
	// CredentialsFile overrides the default token location under the
	// user config directory. Mainly useful for tests and multi-account
	// setups.
	CredentialsFile string `mapstructure:"credentials_file"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
