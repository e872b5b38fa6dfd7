package interfaces

import (
	"context"

	"market-loader/src/models"
)

// -----------------------------------------------------------------------------
// IWarehouse defines the contract for warehouse operations used by the pipelines.
// -----------------------------------------------------------------------------

type IWarehouse interface {

	// Dialect names the backing engine (snowflake, postgres, sqlite).
	Dialect() string

	// -----------------------------------------------------------------------------

	// Initialize opens and pings the connection.
	Initialize(ctx context.Context) error

	// -----------------------------------------------------------------------------

	// TableName qualifies a table the way this dialect addresses it.
	TableName(database, schema, table string) string

	// -----------------------------------------------------------------------------

	// EnsureResources creates whatever is missing. Safe to call repeatedly.
	EnsureResources(ctx context.Context, res models.MResources) error

	// -----------------------------------------------------------------------------

	// LoadInsert executes the batch in one transaction and returns the rows written.
	LoadInsert(ctx context.Context, stmt models.MInsertStatement) (int64, error)

	// -----------------------------------------------------------------------------

	// BulkCopy loads one staged file into a table.
	BulkCopy(ctx context.Context, database, schema string, spec models.MCopySpec) (int64, error)

	// -----------------------------------------------------------------------------

	// Validate runs the post-load row count / average query.
	Validate(ctx context.Context, table, avgColumn string) (models.MValidationResult, error)

	// -----------------------------------------------------------------------------

	// Close the warehouse connection
	Close() error
}
