package storage

import (
	"context"
	"database/sql"
	"fmt"

	"market-loader/src/logger"
	"market-loader/src/models"

	"github.com/go-resty/resty/v2"
	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

// SQLiteWarehouse is the embedded engine for local runs and tests. It has no
// databases or schemas, so tables are addressed by bare name.
type SQLiteWarehouse struct {
	sqlWarehouse
	Config *models.MWarehouseConfig
	Files  *resty.Client
}

// -----------------------------------------------------------------------------

func NewSQLiteWarehouse(cfg *models.MWarehouseConfig, files *resty.Client, log *logger.Logger) *SQLiteWarehouse {
	return &SQLiteWarehouse{
		sqlWarehouse: sqlWarehouse{Logger: log, placeholder: questionMark},
		Config:       cfg,
		Files:        files,
	}
}

// -----------------------------------------------------------------------------

func (w *SQLiteWarehouse) Dialect() string { return "sqlite" }

// -----------------------------------------------------------------------------

func (w *SQLiteWarehouse) Initialize(ctx context.Context) error {
	if err := w.open(ctx, "sqlite", w.Config.DSN); err != nil {
		return fmt.Errorf("open sqlite %s: %w", w.Config.DSN, err)
	}

	// A :memory: database lives per connection
	w.DB.SetMaxOpenConns(1)

	// PRAGMA optimizations
	if _, err := w.DB.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		w.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := w.DB.ExecContext(ctx, "PRAGMA synchronous = NORMAL;"); err != nil {
		w.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	w.Logger.Info("SQLiteWarehouse opened (%s)", w.Config.DSN)
	return nil
}

// -----------------------------------------------------------------------------

func (w *SQLiteWarehouse) TableName(_, _, table string) string { return table }

// -----------------------------------------------------------------------------

func (w *SQLiteWarehouse) EnsureResources(ctx context.Context, res models.MResources) error {
	if res.Warehouse.Name != "" {
		w.Logger.Debug("Compute warehouse %s is not managed on sqlite, skipping", res.Warehouse.Name)
	}

	if err := w.execDDL(ctx, sqliteDDL(res)); err != nil {
		return err
	}

	if res.Stage != nil {
		if err := w.registry().replace(ctx, *res.Stage); err != nil {
			return w.stageFailed(res.Stage.Name, err)
		}
		w.Logger.Info("Stage %s registered at %s", res.Stage.Name, res.Stage.URL)
	}
	return nil
}

func sqliteDDL(res models.MResources) []string {
	var stmts []string
	for _, t := range res.Tables {
		stmts = append(stmts, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", t.Name, columnList(t.Columns, identity)))
	}
	if res.Stage != nil {
		stmts = append(stmts, (&stageRegistry{table: stageRegistryTable}).ddl())
	}
	return stmts
}

func (w *SQLiteWarehouse) registry() *stageRegistry {
	return &stageRegistry{db: w.DB, table: stageRegistryTable, placeholder: questionMark}
}

// -----------------------------------------------------------------------------

func (w *SQLiteWarehouse) BulkCopy(ctx context.Context, _, _ string, spec models.MCopySpec) (int64, error) {
	def, err := w.registry().lookup(ctx, spec.Stage)
	if err != nil {
		return 0, w.loadFailed(fmt.Sprintf("resolve stage %s", spec.Stage), err)
	}

	columns, err := w.columns(ctx, spec.Table)
	if err != nil {
		return 0, w.loadFailed(fmt.Sprintf("describe %s", spec.Table), err)
	}

	src, err := openStagedFile(ctx, w.Files, def, spec.File)
	if err != nil {
		return 0, w.loadFailed(fmt.Sprintf("open @%s/%s", spec.Stage, spec.File), err)
	}
	defer src.Close()

	loaded, err := w.insertCSV(ctx, spec.Table, columns, src)
	if err != nil {
		return 0, w.loadFailed(fmt.Sprintf("copy %s into %s", spec.File, spec.Table), err)
	}

	w.Logger.Info("Copied %d rows from @%s/%s into %s", loaded, spec.Stage, spec.File, spec.Table)
	return loaded, nil
}

func (w *SQLiteWarehouse) columns(ctx context.Context, table string) ([]string, error) {
	rows, err := w.DB.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, ctype      string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s does not exist", table)
	}
	return cols, nil
}
