package archive

import (
	"os"
	"path/filepath"
	"testing"

	"market-loader/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
)

func TestWriteAndReadBack(t *testing.T) {
	a := NewParquetArchive(t.TempDir())
	records := []models.MStockRecord{
		{Open: 100, High: 105, Low: 99, Close: 102.5, Volume: 12345, Date: "2024-01-02", Symbol: "AMZN"},
		{Open: 101, High: 106, Low: 100, Close: 104, Volume: 23456, Date: "2024-01-03", Symbol: "AMZN"},
	}

	path, err := a.Write("AMZN", "run-1", records)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(a.Dir, "AMZN_run-1.parquet"), path)

	fr, err := local.NewLocalFileReader(path)
	require.NoError(t, err)
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(StockRow), 1)
	require.NoError(t, err)
	defer pr.ReadStop()

	require.EqualValues(t, 2, pr.GetNumRows())
	rows := make([]StockRow, 2)
	require.NoError(t, pr.Read(&rows))

	assert.Equal(t, "2024-01-02", rows[0].Date)
	assert.Equal(t, 102.5, rows[0].Close)
	assert.Equal(t, int64(23456), rows[1].Volume)
}

func TestWriteEmptyBatchSkips(t *testing.T) {
	a := NewParquetArchive(t.TempDir())
	path, err := a.Write("AMZN", "run-2", nil)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestWriteRejectsPathsOutsideDir(t *testing.T) {
	root := t.TempDir()
	a := NewParquetArchive(filepath.Join(root, "archive"))
	records := []models.MStockRecord{{Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10, Date: "2024-01-02", Symbol: "X"}}

	for _, symbol := range []string{"../../x", "a/b", `a\b`, "..", ""} {
		path, err := a.Write(symbol, "run-1", records)
		assert.Error(t, err, symbol)
		assert.Empty(t, path)
	}
	_, err := a.Write("AMZN", "../run", records)
	assert.Error(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
