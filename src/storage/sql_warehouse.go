package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"market-loader/src/helpers"
	"market-loader/src/logger"
	"market-loader/src/models"
)

// sqlWarehouse carries the database/sql plumbing shared by every dialect.
type sqlWarehouse struct {
	DB          *sql.DB
	Logger      *logger.Logger
	placeholder func(n int) string
}

// -----------------------------------------------------------------------------

func questionMark(int) string { return "?" }

func dollar(n int) string { return fmt.Sprintf("$%d", n) }

// -----------------------------------------------------------------------------

func (w *sqlWarehouse) open(ctx context.Context, driver, dsn string) error {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}
	w.DB = db
	return nil
}

// -----------------------------------------------------------------------------

// execDDL runs statements in order and stops at the first failure.
func (w *sqlWarehouse) execDDL(ctx context.Context, statements []string) error {
	for _, stmt := range statements {
		w.Logger.Debug("DDL: %s", oneLine(stmt))
		if _, err := w.DB.ExecContext(ctx, stmt); err != nil {
			w.Logger.Error("DDL failed: %s: %v", oneLine(stmt), err)
			return helpers.NewDdlError(oneLine(stmt), err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (w *sqlWarehouse) LoadInsert(ctx context.Context, stmt models.MInsertStatement) (int64, error) {
	if stmt.Empty() {
		w.Logger.Warning("No rows to insert into %s, skipping load", stmt.Table)
		return 0, nil
	}

	tx, err := w.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, w.loadFailed(fmt.Sprintf("begin transaction for %s", stmt.Table), err)
	}
	defer tx.Rollback()

	prepared, err := tx.PrepareContext(ctx, stmt.SQL(w.placeholder))
	if err != nil {
		return 0, w.loadFailed(fmt.Sprintf("prepare insert into %s", stmt.Table), err)
	}
	defer prepared.Close()

	var written int64
	for i, row := range stmt.Rows {
		if _, err := prepared.ExecContext(ctx, row...); err != nil {
			return 0, w.loadFailed(fmt.Sprintf("insert row %d into %s", i, stmt.Table), err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, w.loadFailed(fmt.Sprintf("commit insert into %s", stmt.Table), err)
	}

	w.Logger.Info("Inserted %d rows into %s", written, stmt.Table)
	return written, nil
}

// -----------------------------------------------------------------------------

// insertCSV inserts staged rows with a prepared statement inside one transaction.
func (w *sqlWarehouse) insertCSV(ctx context.Context, table string, columns []string, src *stagedFile) (int64, error) {
	tx, err := w.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	marks := make([]string, len(columns))
	for i := range columns {
		marks[i] = w.placeholder(i + 1)
	}
	prepared, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return 0, err
	}
	defer prepared.Close()

	rows, err := src.each(len(columns), func(values []any) error {
		_, err := prepared.ExecContext(ctx, values...)
		return err
	})
	if err != nil {
		return 0, err
	}

	return rows, tx.Commit()
}

// -----------------------------------------------------------------------------

func (w *sqlWarehouse) Validate(ctx context.Context, table, avgColumn string) (models.MValidationResult, error) {
	result := models.MValidationResult{Table: table}

	var avg sql.NullFloat64
	query := fmt.Sprintf("SELECT COUNT(*), AVG(%s) FROM %s", avgColumn, table)
	if err := w.DB.QueryRowContext(ctx, query).Scan(&result.RowCount, &avg); err != nil {
		w.Logger.Error("Validation query on %s failed: %v", table, err)
		return result, helpers.NewValidationError(fmt.Sprintf("query %s", table), err)
	}
	if avg.Valid {
		result.AvgClose = &avg.Float64
	}

	if result.AvgClose != nil {
		w.Logger.Info("Validation %s: %d rows, avg(%s)=%.4f", table, result.RowCount, avgColumn, *result.AvgClose)
	} else {
		w.Logger.Info("Validation %s: %d rows", table, result.RowCount)
	}
	return result, nil
}

// -----------------------------------------------------------------------------

func (w *sqlWarehouse) loadFailed(what string, err error) error {
	w.Logger.Error("Load failed: %s: %v", what, err)
	return helpers.NewLoadError(what, err)
}

func (w *sqlWarehouse) stageFailed(name string, err error) error {
	w.Logger.Error("Stage %s could not be registered: %v", name, err)
	return helpers.NewDdlError("CREATE OR REPLACE STAGE "+name, err)
}

// -----------------------------------------------------------------------------

func (w *sqlWarehouse) Close() error {
	if w.DB != nil {
		return w.DB.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------

// columnList renders a column definition list; mapType translates warehouse types.
func columnList(cols []models.MColumnDef, mapType func(string) string) string {
	lines := make([]string, 0, len(cols))
	for _, c := range cols {
		line := c.Name + " " + mapType(c.Type)
		if c.NotNull {
			line += " NOT NULL"
		}
		if c.Default != "" {
			line += " DEFAULT " + c.Default
		}
		if c.PrimaryKey {
			line += " PRIMARY KEY"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, ",\n\t")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func identity(s string) string { return s }
