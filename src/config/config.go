package config

import (
	"fmt"
	"os"
	"strings"

	"market-loader/src/helpers"
	"market-loader/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that take precedence over the YAML file.
const (
	EnvAPIKey            = "ALPHAVANTAGE_API_KEY"
	EnvWarehouseDSN      = "WAREHOUSE_DSN"
	EnvWarehousePassword = "WAREHOUSE_PASSWORD"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Secrets may live in a .env next to the process; a missing file is fine
	_ = godotenv.Load()

	return Parse(data)
}

// Parse builds a validated Config from YAML bytes plus environment overrides.
func Parse(data []byte) (*Config, error) {
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyEnv()
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.AlphaVantage.APIKey = v
	}
	if v := os.Getenv(EnvWarehouseDSN); v != "" {
		c.Warehouse.DSN = v
	}
	if v := os.Getenv(EnvWarehousePassword); v != "" {
		c.Warehouse.Password = v
	}
}

// -----------------------------------------------------------------------------

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "market-loader"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 8090
	}
	if c.GrpcHost == "" {
		c.GrpcHost = c.Host
	}
	if c.GrpcPort == 0 {
		c.GrpcPort = 50051
	}
	if c.HistorySize == 0 {
		c.HistorySize = 50
	}
	if c.Network.RequestTimeout == 0 {
		c.Network.RequestTimeout = 30
	}
	if c.Network.UserAgent == "" {
		c.Network.UserAgent = "market-loader/1.0"
	}

	if c.AlphaVantage.BaseURL == "" {
		c.AlphaVantage.BaseURL = "https://www.alphavantage.co"
	}
	if c.AlphaVantage.Symbol == "" {
		c.AlphaVantage.Symbol = "AMZN"
	}

	if c.Warehouse.Driver == "" {
		c.Warehouse.Driver = "snowflake"
	}
	if c.Warehouse.Name == "" {
		c.Warehouse.Name = "SNOWFLAKE_WAREHOUSE"
	}
	if c.Warehouse.Size == "" {
		c.Warehouse.Size = "SMALL"
	}
	if c.Warehouse.AutoSuspend == 0 {
		c.Warehouse.AutoSuspend = 300
	}

	if c.MarketData.Database == "" {
		c.MarketData.Database = "SNOWFLAKE_DATABASE"
	}
	if c.MarketData.Schema == "" {
		c.MarketData.Schema = "api_data"
	}
	if c.MarketData.Table == "" {
		c.MarketData.Table = "stock_prices"
	}

	if c.BulkFiles.Database == "" {
		c.BulkFiles.Database = "dev"
	}
	if c.BulkFiles.Schema == "" {
		c.BulkFiles.Schema = "raw_data"
	}
	if c.BulkFiles.StageName == "" {
		c.BulkFiles.StageName = "blob_stage"
	}
	if c.BulkFiles.StageURL == "" {
		c.BulkFiles.StageURL = "s3://s3-geospatial/readonly/"
	}
	if len(c.BulkFiles.Loads) == 0 {
		c.BulkFiles.Loads = []models.MCopyConfig{
			{Table: "user_session_channel", File: "user_session_channel.csv"},
			{Table: "session_timestamp", File: "session_timestamp.csv"},
		}
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return helpers.NewConfigurationError("application name cannot be empty")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return helpers.NewConfigurationError(fmt.Sprintf("invalid log level %q", c.LogLevel))
	}

	if c.Port <= 1024 || c.Port > 65535 {
		return helpers.NewConfigurationError(fmt.Sprintf("invalid server port number: %d (must be between 1025 and 65535)", c.Port))
	}
	if c.GrpcPort <= 1024 || c.GrpcPort > 65535 {
		return helpers.NewConfigurationError(fmt.Sprintf("invalid grpc port number: %d (must be between 1025 and 65535)", c.GrpcPort))
	}
	if c.Network.RequestTimeout < 0 {
		return helpers.NewConfigurationError("request timeout cannot be negative")
	}

	switch c.Warehouse.Driver {
	case "snowflake":
		if c.Warehouse.DSN == "" && (c.Warehouse.Account == "" || c.Warehouse.User == "") {
			return helpers.NewConfigurationError("snowflake requires either a dsn or account and user")
		}
	case "postgres", "sqlite":
		if c.Warehouse.DSN == "" {
			return helpers.NewConfigurationError(fmt.Sprintf("%s requires a dsn", c.Warehouse.Driver))
		}
	default:
		return helpers.NewConfigurationError(fmt.Sprintf("unsupported warehouse driver %q", c.Warehouse.Driver))
	}

	if c.MarketData.MinRows < 0 {
		return helpers.NewConfigurationError("market_data.min_rows cannot be negative")
	}
	for i, load := range c.BulkFiles.Loads {
		if load.Table == "" || load.File == "" {
			return helpers.NewConfigurationError(fmt.Sprintf("bulk_files load %d needs a table and a file", i))
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path.
// The API key and warehouse password are not written.
func (c *Config) Save(configPath string) error {
	clean := *c.MConfig
	clean.AlphaVantage.APIKey = ""
	clean.Warehouse.Password = ""

	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(&clean)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
