// Package archive keeps a columnar copy of each run's transformed records.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"market-loader/src/logger"
	"market-loader/src/models"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// StockRow is the on-disk layout of one archived record.
type StockRow struct {
	Symbol string  `parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Date   string  `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Open   float64 `parquet:"name=open, type=DOUBLE, encoding=PLAIN"`
	High   float64 `parquet:"name=high, type=DOUBLE, encoding=PLAIN"`
	Low    float64 `parquet:"name=low, type=DOUBLE, encoding=PLAIN"`
	Close  float64 `parquet:"name=close, type=DOUBLE, encoding=PLAIN"`
	Volume int64   `parquet:"name=volume, type=INT64, encoding=DELTA_BINARY_PACKED"`
}

// -----------------------------------------------------------------------------

type ParquetArchive struct {
	Dir    string
	Logger *logger.Logger
}

func NewParquetArchive(dir string) *ParquetArchive {
	return &ParquetArchive{Dir: dir, Logger: logger.NewLogger("ParquetArchive")}
}

// -----------------------------------------------------------------------------

// FileName is {symbol}_{runID}.parquet under Dir.
func (a *ParquetArchive) FileName(symbol, runID string) string {
	return filepath.Join(a.Dir, fmt.Sprintf("%s_%s.parquet", symbol, runID))
}

// checkName keeps archive files inside Dir.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("invalid archive name component %q", name)
	}
	return nil
}

// Write stores records and returns the file path. Nothing is written for an empty batch.
func (a *ParquetArchive) Write(symbol, runID string, records []models.MStockRecord) (string, error) {
	if len(records) == 0 {
		a.Logger.Warning("No records to archive for %s", symbol)
		return "", nil
	}
	if err := checkName(symbol); err != nil {
		return "", err
	}
	if err := checkName(runID); err != nil {
		return "", err
	}
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	filename := a.FileName(symbol, runID)
	fw, err := local.NewLocalFileWriter(filename)
	if err != nil {
		return "", fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(StockRow), 4)
	if err != nil {
		return "", fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_GZIP

	for _, r := range records {
		row := StockRow{
			Symbol: r.Symbol,
			Date:   r.Date,
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		}
		if err := pw.Write(row); err != nil {
			return "", fmt.Errorf("failed to write parquet data: %w", err)
		}
	}

	// Flush and close the writer
	if err := pw.WriteStop(); err != nil {
		return "", fmt.Errorf("failed to finalize parquet file: %w", err)
	}

	a.Logger.Info("Archived %d records to %s", len(records), filename)
	return filename, nil
}
