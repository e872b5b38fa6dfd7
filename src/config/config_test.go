package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"market-loader/src/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sqliteYAML = `
name: loader-test
log_level: debug
warehouse:
  driver: sqlite
  dsn: "file::memory:"
market_data:
  min_rows: 5
`

func TestParseAppliesDefaults(t *testing.T) {
	t.Setenv(EnvAPIKey, "")

	cfg, err := Parse([]byte(sqliteYAML))
	require.NoError(t, err)

	assert.Equal(t, "loader-test", cfg.Name)
	assert.Equal(t, "AMZN", cfg.AlphaVantage.Symbol)
	assert.Equal(t, "https://www.alphavantage.co", cfg.AlphaVantage.BaseURL)
	assert.Equal(t, "stock_prices", cfg.MarketData.Table)
	assert.Equal(t, "api_data", cfg.MarketData.Schema)
	assert.Equal(t, int64(5), cfg.MarketData.MinRows)
	assert.Equal(t, 30, cfg.Network.RequestTimeout)
	assert.Equal(t, "s3://s3-geospatial/readonly/", cfg.BulkFiles.StageURL)
	require.Len(t, cfg.BulkFiles.Loads, 2)
	assert.Equal(t, "user_session_channel", cfg.BulkFiles.Loads[0].Table)
}

func TestParseEnvOverridesSecrets(t *testing.T) {
	t.Setenv(EnvAPIKey, "from-env")
	t.Setenv(EnvWarehouseDSN, "file:other.db")

	cfg, err := Parse([]byte(sqliteYAML + "alpha_vantage:\n  api_key: from-yaml\n"))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.AlphaVantage.APIKey)
	assert.Equal(t, "file:other.db", cfg.Warehouse.DSN)
}

func TestValidateRejectsBadWarehouse(t *testing.T) {
	t.Setenv(EnvWarehouseDSN, "")

	cases := map[string]string{
		"unknown driver":       "warehouse:\n  driver: oracle\n  dsn: x\n",
		"postgres without dsn": "warehouse:\n  driver: postgres\n",
		"snowflake no account": "warehouse:\n  driver: snowflake\n",
		"bad port":             "port: 80\nwarehouse:\n  driver: sqlite\n  dsn: x\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
			var cfgErr *helpers.ConfigurationError
			assert.True(t, errors.As(err, &cfgErr), "expected ConfigurationError, got %T", err)
		})
	}
}

func TestSaveOmitsSecrets(t *testing.T) {
	t.Setenv(EnvAPIKey, "secret-key")
	cfg, err := Parse([]byte(sqliteYAML))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret-key")
	assert.Equal(t, "secret-key", cfg.AlphaVantage.APIKey)

	t.Setenv(EnvAPIKey, "")
	reloaded, err := NewConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.MarketData.Table, reloaded.MarketData.Table)
	assert.Empty(t, reloaded.AlphaVantage.APIKey)
}
