package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// StockColumns is the column layout of stock_prices rows, in bind order.
var StockColumns = []string{"open", "high", "low", "close", "volume", "date", "symbol"}

// MInsertStatement is a batch insert kept as bound rows rather than SQL text.
type MInsertStatement struct {
	Table   string
	Columns []string
	Rows    [][]any
}

// Empty reports whether there is anything to load.
func (s MInsertStatement) Empty() bool {
	return len(s.Rows) == 0
}

// SQL renders the single-row parameterized statement executed once per row.
// placeholder receives the 1-based parameter position.
func (s MInsertStatement) SQL(placeholder func(n int) string) string {
	if s.Empty() {
		return ""
	}
	marks := make([]string, len(s.Columns))
	for i := range s.Columns {
		marks[i] = placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.Table, strings.Join(s.Columns, ", "), strings.Join(marks, ", "))
}

// Literal renders the whole batch as one statement with inlined values.
// It exists for compatibility checks against the legacy SQL text and is never executed.
func (s MInsertStatement) Literal() string {
	if s.Empty() {
		return ""
	}
	tuples := make([]string, len(s.Rows))
	for i, row := range s.Rows {
		values := make([]string, len(row))
		for j, v := range row {
			values[j] = literal(v)
		}
		tuples[i] = "(" + strings.Join(values, ", ") + ")"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s;",
		s.Table, strings.Join(s.Columns, ", "), strings.Join(tuples, ", "))
}

func literal(v any) string {
	switch x := v.(type) {
	case float64:
		return floatLiteral(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	case nil:
		return "NULL"
	default:
		return literal(fmt.Sprint(x))
	}
}

// floatLiteral keeps a trailing ".0" on integral values (100 -> 100.0).
func floatLiteral(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "NULL"
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
