package pipeline

import (
	"context"
	"fmt"
	"time"

	"market-loader/src/archive"
	"market-loader/src/helpers"
	"market-loader/src/interfaces"
	"market-loader/src/models"
	"market-loader/src/transform"
	"market-loader/src/utils"
)

const MarketDataName = "market_data"

// MarketDataResources is the warehouse layout the daily quote load expects.
func MarketDataResources(wh models.MWarehouseConfig, cfg models.MMarketDataConfig) models.MResources {
	return models.MResources{
		Warehouse: models.MComputeDef{
			Name:               wh.Name,
			Size:               wh.Size,
			AutoSuspendSeconds: wh.AutoSuspend,
			AutoResume:         true,
			InitiallySuspended: true,
		},
		Database:         cfg.Database,
		Schema:           cfg.Schema,
		CreateContainers: true,
		Tables: []models.MTableDef{{
			Name: cfg.Table,
			Columns: []models.MColumnDef{
				{Name: "open", Type: "DOUBLE"},
				{Name: "high", Type: "DOUBLE"},
				{Name: "low", Type: "DOUBLE"},
				{Name: "close", Type: "DOUBLE"},
				{Name: "volume", Type: "INT"},
				{Name: "date", Type: "VARCHAR(512)", PrimaryKey: true},
				{Name: "symbol", Type: "VARCHAR(20)"},
			},
		}},
	}
}

// -----------------------------------------------------------------------------

// MarketDataPipeline: [calendar] -> init -> fetch -> transform -> [archive] -> load -> validate.
type MarketDataPipeline struct {
	Warehouse interfaces.IWarehouse
	Source    interfaces.IQuoteSource
	Archive   *archive.ParquetArchive // nil disables the archive stage
	Guard     *utils.TradingGuard     // nil disables the calendar stage
	Resources models.MResources
	Config    models.MMarketDataConfig
	APIKey    string
	Symbol    string
	Now       func() time.Time
}

func (p *MarketDataPipeline) Name() string { return MarketDataName }

func (p *MarketDataPipeline) Description() string {
	return "Fetch TIME_SERIES_DAILY quotes, load them into " + p.Config.Table + " and validate"
}

// -----------------------------------------------------------------------------

// marketDataRun is the state handed from one stage to the next.
type marketDataRun struct {
	symbol  string
	runID   string
	quotes  []models.MRawQuote
	records []models.MStockRecord
	stmt    models.MInsertStatement
}

func (p *MarketDataPipeline) Stages(opts RunOptions) []Stage {
	run := &marketDataRun{symbol: opts.Symbol, runID: opts.RunID}
	if run.symbol == "" {
		run.symbol = p.Symbol
	}
	table := p.Warehouse.TableName(p.Config.Database, p.Config.Schema, p.Config.Table)

	var stages []Stage
	if p.Guard != nil && !opts.SetupOnly {
		stages = append(stages, Stage{Name: "calendar", Run: func(context.Context) (int64, error) {
			return 0, p.checkCalendar(run)
		}})
	}

	stages = append(stages,
		Stage{Name: "init", Setup: true, Run: func(ctx context.Context) (int64, error) {
			return 0, p.Warehouse.EnsureResources(ctx, p.Resources)
		}},
		Stage{Name: "fetch", Run: func(ctx context.Context) (int64, error) {
			quotes, err := p.Source.FetchDaily(ctx, run.symbol, p.APIKey)
			run.quotes = quotes
			return int64(len(quotes)), err
		}},
		Stage{Name: "transform", Run: func(context.Context) (int64, error) {
			records, stmt, err := transform.Transform(table, run.quotes)
			if err != nil {
				return 0, err
			}
			run.records, run.stmt = records, stmt
			return int64(len(stmt.Rows)), nil
		}},
	)

	if p.Archive != nil {
		stages = append(stages, Stage{Name: "archive", Run: func(context.Context) (int64, error) {
			if _, err := p.Archive.Write(run.symbol, run.runID, run.records); err != nil {
				return 0, err
			}
			return int64(len(run.records)), nil
		}})
	}

	stages = append(stages,
		Stage{Name: "load", Run: func(ctx context.Context) (int64, error) {
			return p.Warehouse.LoadInsert(ctx, run.stmt)
		}},
		Stage{Name: "validate", Run: func(ctx context.Context) (int64, error) {
			res, err := p.Warehouse.Validate(ctx, table, "close")
			if err != nil {
				return 0, err
			}
			if p.Config.MinRows > 0 && res.RowCount < p.Config.MinRows {
				return res.RowCount, helpers.NewValidationError(
					fmt.Sprintf("%s has %d rows, expected at least %d", table, res.RowCount, p.Config.MinRows), nil)
			}
			return res.RowCount, nil
		}},
	)
	return stages
}

func (p *MarketDataPipeline) checkCalendar(run *marketDataRun) error {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	if closed, reason := p.Guard.Closed(run.symbol, now()); closed {
		return &SkipRun{Reason: reason}
	}
	return nil
}
