package transform

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"market-loader/src/helpers"
	"market-loader/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quote(date, open, high, low, close, volume string) models.MRawQuote {
	return models.MRawQuote{Open: open, High: high, Low: low, Close: close, Volume: volume, Date: date, Symbol: "AMZN"}
}

func TestTransformRoundTripLiteral(t *testing.T) {
	records, stmt, err := Transform("stock_prices", []models.MRawQuote{
		quote("2024-01-02", "100.0", "105.0", "99.0", "102.5", "12345"),
	})
	require.NoError(t, err)

	assert.Equal(t, []models.MStockRecord{{
		Open: 100.0, High: 105.0, Low: 99.0, Close: 102.5, Volume: 12345, Date: "2024-01-02", Symbol: "AMZN",
	}}, records)
	assert.Equal(t,
		"INSERT INTO stock_prices (open, high, low, close, volume, date, symbol) VALUES (100.0, 105.0, 99.0, 102.5, 12345, '2024-01-02', 'AMZN');",
		stmt.Literal())
}

func TestBuildInsertOneRowPerRecord(t *testing.T) {
	var quotes []models.MRawQuote
	for i := 1; i <= 25; i++ {
		quotes = append(quotes, quote(fmt.Sprintf("2024-02-%02d", i), "1.5", "2.25", "1", "2", fmt.Sprint(i*100)))
	}

	_, stmt, err := Transform("stock_prices", quotes)
	require.NoError(t, err)
	require.Len(t, stmt.Rows, len(quotes))
	assert.Equal(t, models.StockColumns, stmt.Columns)

	for i, row := range stmt.Rows {
		require.Len(t, row, 7)
		assert.IsType(t, float64(0), row[0])
		assert.IsType(t, float64(0), row[3])
		assert.Equal(t, int64((i+1)*100), row[4])
		assert.Equal(t, quotes[i].Date, row[5])
		assert.Equal(t, "AMZN", row[6])
	}
	assert.Equal(t, len(quotes), strings.Count(stmt.Literal(), "'AMZN')"))
}

func TestParseRecordsRejectsBadFields(t *testing.T) {
	good := quote("2024-01-02", "100.0", "105.0", "99.0", "102.5", "12345")

	cases := []struct {
		name  string
		bad   models.MRawQuote
		field string
	}{
		{"missing open", quote("2024-01-03", "", "1", "1", "1", "1"), "1. open"},
		{"non numeric high", quote("2024-01-03", "1", "abc", "1", "1", "1"), "2. high"},
		{"non numeric low", quote("2024-01-03", "1", "1", "1.2.3", "1", "1"), "3. low"},
		{"missing close", quote("2024-01-03", "1", "1", "1", "", "1"), "4. close"},
		{"fractional volume", quote("2024-01-03", "1", "1", "1", "1", "12.5"), "5. volume"},
		{"missing date", quote("", "1", "1", "1", "1", "1"), "date"},
		{"duplicate date", good, "date"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			records, stmt, err := Transform("stock_prices", []models.MRawQuote{good, tc.bad})
			require.Error(t, err)
			assert.Nil(t, records)
			assert.True(t, stmt.Empty())

			var parseErr *helpers.RecordParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, 1, parseErr.Index)
			assert.Equal(t, tc.field, parseErr.Field)
		})
	}
}

func TestEmptyInputIsNoOp(t *testing.T) {
	records, stmt, err := Transform("stock_prices", nil)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.True(t, stmt.Empty())
	assert.Equal(t, "", stmt.Literal())
	assert.Equal(t, "", stmt.SQL(func(int) string { return "?" }))
}

func TestSQLUsesPlaceholders(t *testing.T) {
	_, stmt, err := Transform("stock_prices", []models.MRawQuote{
		quote("2024-01-02", "100.0", "105.0", "99.0", "102.5", "12345"),
	})
	require.NoError(t, err)

	assert.Equal(t,
		"INSERT INTO stock_prices (open, high, low, close, volume, date, symbol) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		stmt.SQL(func(n int) string { return fmt.Sprintf("$%d", n) }))
}

func TestLiteralEscapesQuotes(t *testing.T) {
	stmt := BuildInsert("stock_prices", []models.MStockRecord{{Open: 1, High: 2, Low: 0.5, Close: 1.25, Volume: 7, Date: "2024-01-02", Symbol: "O'NEIL"}})
	assert.Contains(t, stmt.Literal(), "(1.0, 2.0, 0.5, 1.25, 7, '2024-01-02', 'O''NEIL')")
}
