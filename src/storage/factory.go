package storage

import (
	"fmt"

	"market-loader/src/helpers"
	"market-loader/src/interfaces"
	"market-loader/src/logger"
	"market-loader/src/models"

	"github.com/go-resty/resty/v2"
)

// NewWarehouse picks the dialect named by cfg.Driver. files fetches http(s) and s3
// stage files for the dialects that emulate stages.
func NewWarehouse(cfg *models.MWarehouseConfig, files *resty.Client) (interfaces.IWarehouse, error) {
	log := logger.NewLogger("Warehouse").With("driver", cfg.Driver)

	switch cfg.Driver {
	case "snowflake":
		return NewSnowflakeWarehouse(cfg, log), nil
	case "postgres":
		return NewPostgresWarehouse(cfg, files, log), nil
	case "sqlite":
		return NewSQLiteWarehouse(cfg, files, log), nil
	}
	return nil, helpers.NewConfigurationError(fmt.Sprintf("unsupported warehouse driver %q", cfg.Driver))
}
