package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"market-loader/src/helpers"
	"market-loader/src/logger"
	"market-loader/src/models"

	sf "github.com/snowflakedb/gosnowflake"
)

// -----------------------------------------------------------------------------

type SnowflakeWarehouse struct {
	sqlWarehouse
	Config *models.MWarehouseConfig
}

// -----------------------------------------------------------------------------

func NewSnowflakeWarehouse(cfg *models.MWarehouseConfig, log *logger.Logger) *SnowflakeWarehouse {
	return &SnowflakeWarehouse{
		sqlWarehouse: sqlWarehouse{Logger: log, placeholder: questionMark},
		Config:       cfg,
	}
}

// -----------------------------------------------------------------------------

func (w *SnowflakeWarehouse) Dialect() string { return "snowflake" }

// -----------------------------------------------------------------------------

func (w *SnowflakeWarehouse) Initialize(ctx context.Context) error {
	dsn, err := snowflakeDSN(w.Config)
	if err != nil {
		return helpers.NewConfigurationError(err.Error())
	}
	if err := w.open(ctx, "snowflake", dsn); err != nil {
		return fmt.Errorf("connect to snowflake: %w", err)
	}
	w.Logger.Info("Snowflake warehouse connected (account: %s, warehouse: %s)", w.Config.Account, w.Config.Name)
	return nil
}

// snowflakeDSN prefers an explicit DSN; otherwise one is assembled from the account fields.
func snowflakeDSN(cfg *models.MWarehouseConfig) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	return sf.DSN(&sf.Config{
		Account:   cfg.Account,
		User:      cfg.User,
		Password:  cfg.Password,
		Role:      cfg.Role,
		Warehouse: cfg.Name,
	})
}

// -----------------------------------------------------------------------------

func (w *SnowflakeWarehouse) TableName(database, schema, table string) string {
	return qualify(database, schema, table)
}

func qualify(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}

// -----------------------------------------------------------------------------

func (w *SnowflakeWarehouse) EnsureResources(ctx context.Context, res models.MResources) error {
	return w.execDDL(ctx, snowflakeDDL(res))
}

// snowflakeDDL renders the resource plan in dependency order.
func snowflakeDDL(res models.MResources) []string {
	var stmts []string

	if wh := res.Warehouse; wh.Name != "" {
		stmts = append(stmts, fmt.Sprintf(`CREATE WAREHOUSE IF NOT EXISTS %s
WITH WAREHOUSE_SIZE = '%s'
AUTO_SUSPEND = %d
AUTO_RESUME = %s
INITIALLY_SUSPENDED = %s`, wh.Name, wh.Size, wh.AutoSuspendSeconds, boolWord(wh.AutoResume), boolWord(wh.InitiallySuspended)))
	}

	if res.CreateContainers {
		if res.Database != "" {
			stmts = append(stmts, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", res.Database))
		}
		if res.Schema != "" {
			stmts = append(stmts, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", qualify(res.Database, res.Schema)))
		}
	}

	for _, t := range res.Tables {
		stmts = append(stmts, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)",
			qualify(res.Database, res.Schema, t.Name), columnList(t.Columns, identity)))
	}

	if st := res.Stage; st != nil {
		stmts = append(stmts, fmt.Sprintf(`CREATE OR REPLACE STAGE %s
url = %s
file_format = (%s)`, qualify(res.Database, res.Schema, st.Name), sqlString(st.URL), fileFormat(st.FileFormat)))
	}

	return stmts
}

func fileFormat(f models.MFileFormat) string {
	opts := []string{}
	if f.Type != "" {
		opts = append(opts, "type = "+strings.ToLower(f.Type))
	}
	if f.SkipHeader > 0 {
		opts = append(opts, fmt.Sprintf("skip_header = %d", f.SkipHeader))
	}
	if f.FieldOptionallyEnclosedBy != "" {
		opts = append(opts, "field_optionally_enclosed_by = "+sqlString(f.FieldOptionallyEnclosedBy))
	}
	return strings.Join(opts, ", ")
}

func boolWord(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func sqlString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// -----------------------------------------------------------------------------

// BulkCopy issues COPY INTO and sums the rows_loaded column of the per-file result.
func (w *SnowflakeWarehouse) BulkCopy(ctx context.Context, database, schema string, spec models.MCopySpec) (int64, error) {
	table := qualify(database, schema, spec.Table)
	stmt := snowflakeCopy(database, schema, spec)
	w.Logger.Debug("COPY: %s", stmt)

	rows, err := w.DB.QueryContext(ctx, stmt)
	if err != nil {
		return 0, w.loadFailed(fmt.Sprintf("copy %s into %s", spec.File, table), err)
	}
	defer rows.Close()

	loaded, err := sumRowsLoaded(rows)
	if err != nil {
		return 0, w.loadFailed(fmt.Sprintf("read copy result for %s", table), err)
	}

	w.Logger.Info("Copied %d rows from @%s/%s into %s", loaded, spec.Stage, spec.File, table)
	return loaded, nil
}

func snowflakeCopy(database, schema string, spec models.MCopySpec) string {
	return fmt.Sprintf("COPY INTO %s FROM @%s/%s",
		qualify(database, schema, spec.Table), qualify(database, schema, spec.Stage), spec.File)
}

func sumRowsLoaded(rows *sql.Rows) (int64, error) {
	cols, err := rows.Columns()
	if err != nil {
		return 0, err
	}
	idx := -1
	for i, c := range cols {
		if strings.EqualFold(c, "rows_loaded") {
			idx = i
		}
	}

	var total int64
	for rows.Next() {
		values := make([]any, len(cols))
		var loaded sql.NullInt64
		for i := range values {
			if i == idx {
				values[i] = &loaded
			} else {
				values[i] = new(sql.RawBytes)
			}
		}
		if err := rows.Scan(values...); err != nil {
			return 0, err
		}
		total += loaded.Int64
	}
	return total, rows.Err()
}
