// Package transform turns raw API quotes into typed records and bound insert batches.
package transform

import (
	"strconv"
	"strings"

	"market-loader/src/helpers"
	"market-loader/src/models"

	"github.com/shopspring/decimal"
)

// ParseRecords converts every quote or none: the first bad field aborts the batch.
func ParseRecords(quotes []models.MRawQuote) ([]models.MStockRecord, error) {
	records := make([]models.MStockRecord, 0, len(quotes))
	seen := make(map[string]struct{}, len(quotes))

	for i, q := range quotes {
		if q.Date == "" {
			return nil, helpers.NewRecordParseError(i, q.Date, "date", q.Date, nil)
		}
		if _, dup := seen[q.Date]; dup {
			return nil, helpers.NewRecordParseError(i, q.Date, "date", q.Date, errDuplicateDate)
		}
		seen[q.Date] = struct{}{}

		rec := models.MStockRecord{Date: q.Date, Symbol: q.Symbol}
		var err error
		if rec.Open, err = parsePrice(i, q, "1. open", q.Open); err != nil {
			return nil, err
		}
		if rec.High, err = parsePrice(i, q, "2. high", q.High); err != nil {
			return nil, err
		}
		if rec.Low, err = parsePrice(i, q, "3. low", q.Low); err != nil {
			return nil, err
		}
		if rec.Close, err = parsePrice(i, q, "4. close", q.Close); err != nil {
			return nil, err
		}
		if rec.Volume, err = parseVolume(i, q); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

// BuildInsert lays records out in StockColumns order. Zero records give an empty statement.
func BuildInsert(table string, records []models.MStockRecord) models.MInsertStatement {
	stmt := models.MInsertStatement{
		Table:   table,
		Columns: models.StockColumns,
		Rows:    make([][]any, 0, len(records)),
	}
	for _, r := range records {
		stmt.Rows = append(stmt.Rows, []any{r.Open, r.High, r.Low, r.Close, r.Volume, r.Date, r.Symbol})
	}
	return stmt
}

// Transform is ParseRecords followed by BuildInsert.
func Transform(table string, quotes []models.MRawQuote) ([]models.MStockRecord, models.MInsertStatement, error) {
	records, err := ParseRecords(quotes)
	if err != nil {
		return nil, models.MInsertStatement{}, err
	}
	return records, BuildInsert(table, records), nil
}

// -----------------------------------------------------------------------------

type parseError string

func (e parseError) Error() string { return string(e) }

const (
	errMissing       = parseError("missing value")
	errDuplicateDate = parseError("duplicate date in batch")
)

func parsePrice(index int, q models.MRawQuote, field, value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, helpers.NewRecordParseError(index, q.Date, field, value, errMissing)
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, helpers.NewRecordParseError(index, q.Date, field, value, err)
	}
	f, _ := d.Float64()
	return f, nil
}

func parseVolume(index int, q models.MRawQuote) (int64, error) {
	value := strings.TrimSpace(q.Volume)
	if value == "" {
		return 0, helpers.NewRecordParseError(index, q.Date, "5. volume", value, errMissing)
	}
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, helpers.NewRecordParseError(index, q.Date, "5. volume", value, err)
	}
	return v, nil
}
