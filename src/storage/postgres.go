package storage

import (
	"context"
	"fmt"
	"strings"

	"market-loader/src/logger"
	"market-loader/src/models"

	"github.com/go-resty/resty/v2"
	"github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresWarehouse struct {
	sqlWarehouse
	Config *models.MWarehouseConfig
	Files  *resty.Client
}

// -----------------------------------------------------------------------------

func NewPostgresWarehouse(cfg *models.MWarehouseConfig, files *resty.Client, log *logger.Logger) *PostgresWarehouse {
	return &PostgresWarehouse{
		sqlWarehouse: sqlWarehouse{Logger: log, placeholder: dollar},
		Config:       cfg,
		Files:        files,
	}
}

// -----------------------------------------------------------------------------

func (w *PostgresWarehouse) Dialect() string { return "postgres" }

// -----------------------------------------------------------------------------

func (w *PostgresWarehouse) Initialize(ctx context.Context) error {
	if err := w.open(ctx, "postgres", w.Config.DSN); err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	w.Logger.Info("PostgresWarehouse connected")
	return nil
}

// -----------------------------------------------------------------------------

// TableName ignores the database: the connection already selects it.
func (w *PostgresWarehouse) TableName(_, schema, table string) string {
	return pgTable(schema, table)
}

func pgTable(schema, table string) string {
	if schema == "" {
		return fmt.Sprintf(`"%s"`, table)
	}
	return fmt.Sprintf(`"%s"."%s"`, schema, table)
}

// -----------------------------------------------------------------------------

func (w *PostgresWarehouse) EnsureResources(ctx context.Context, res models.MResources) error {
	if res.Warehouse.Name != "" {
		w.Logger.Info("Compute warehouse %s is not managed on postgres, skipping", res.Warehouse.Name)
	}
	if res.Database != "" {
		w.Logger.Debug("Database %s is selected by the connection, skipping", res.Database)
	}

	if err := w.execDDL(ctx, postgresDDL(res)); err != nil {
		return err
	}

	if res.Stage != nil {
		if err := w.registry(res.Schema).replace(ctx, *res.Stage); err != nil {
			return w.stageFailed(res.Stage.Name, err)
		}
		w.Logger.Info("Stage %s registered at %s", res.Stage.Name, res.Stage.URL)
	}
	return nil
}

func postgresDDL(res models.MResources) []string {
	var stmts []string
	if res.Schema != "" {
		stmts = append(stmts, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, res.Schema))
	}
	for _, t := range res.Tables {
		stmts = append(stmts, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)",
			pgTable(res.Schema, t.Name), columnList(t.Columns, postgresType)))
	}
	if res.Stage != nil {
		stmts = append(stmts, (&stageRegistry{table: pgTable(res.Schema, stageRegistryTable)}).ddl())
	}
	return stmts
}

func postgresType(t string) string {
	switch strings.ToUpper(t) {
	case "DOUBLE":
		return "DOUBLE PRECISION"
	case "INT":
		return "INTEGER"
	}
	return t
}

func (w *PostgresWarehouse) registry(schema string) *stageRegistry {
	return &stageRegistry{db: w.DB, table: pgTable(schema, stageRegistryTable), placeholder: dollar}
}

// -----------------------------------------------------------------------------

// BulkCopy streams the staged CSV through COPY FROM STDIN.
func (w *PostgresWarehouse) BulkCopy(ctx context.Context, _, schema string, spec models.MCopySpec) (int64, error) {
	table := pgTable(schema, spec.Table)

	def, err := w.registry(schema).lookup(ctx, spec.Stage)
	if err != nil {
		return 0, w.loadFailed(fmt.Sprintf("resolve stage %s", spec.Stage), err)
	}

	columns, err := w.columns(ctx, schema, spec.Table)
	if err != nil {
		return 0, w.loadFailed(fmt.Sprintf("describe %s", table), err)
	}

	src, err := openStagedFile(ctx, w.Files, def, spec.File)
	if err != nil {
		return 0, w.loadFailed(fmt.Sprintf("open @%s/%s", spec.Stage, spec.File), err)
	}
	defer src.Close()

	loaded, err := w.copyIn(ctx, schema, spec.Table, columns, src)
	if err != nil {
		return 0, w.loadFailed(fmt.Sprintf("copy %s into %s", spec.File, table), err)
	}

	w.Logger.Info("Copied %d rows from @%s/%s into %s", loaded, spec.Stage, spec.File, table)
	return loaded, nil
}

func (w *PostgresWarehouse) copyIn(ctx context.Context, schema, table string, columns []string, src *stagedFile) (int64, error) {
	tx, err := w.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyInSchema(schema, table, columns...))
	if err != nil {
		return 0, err
	}

	rows, err := src.each(len(columns), func(values []any) error {
		_, err := stmt.ExecContext(ctx, values...)
		return err
	})
	if err != nil {
		stmt.Close()
		return 0, err
	}

	// An argument-less Exec flushes the buffered COPY data.
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return 0, err
	}
	if err := stmt.Close(); err != nil {
		return 0, err
	}

	return rows, tx.Commit()
}

func (w *PostgresWarehouse) columns(ctx context.Context, schema, table string) ([]string, error) {
	rows, err := w.DB.QueryContext(ctx, `
		SELECT column_name FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s.%s has no columns or does not exist", schema, table)
	}
	return cols, nil
}
