package main

import (
	"context"
	"fmt"

	"market-loader/src/archive"
	"market-loader/src/config"
	"market-loader/src/data_source/alphavantage"
	"market-loader/src/interfaces"
	"market-loader/src/logger"
	"market-loader/src/network"
	"market-loader/src/pipeline"
	"market-loader/src/storage"
	"market-loader/src/utils"
)

// application holds everything a command needs once config is loaded.
type application struct {
	Config    *config.Config
	Logger    *logger.Logger
	Warehouse interfaces.IWarehouse
	Runner    *pipeline.Runner
	Registry  *pipeline.Registry
}

func (a *application) Close() {
	if err := a.Warehouse.Close(); err != nil {
		a.Logger.Warning("closing warehouse: %v", err)
	}
}

// -----------------------------------------------------------------------------

// bootstrap loads config, installs the logger, connects the warehouse and
// registers both pipelines.
func bootstrap(ctx context.Context, configPath string) (*application, error) {
	cfg, err := config.NewConfig(configPath)
	if err != nil {
		return nil, err
	}

	if err := logger.Init(logger.Options{
		Level:    cfg.LogLevel,
		Format:   cfg.LogFormat,
		FilePath: cfg.LogFile,
		Service:  cfg.Name,
	}); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	appLogger := logger.NewLogger(cfg.Name)

	// 1. Network + warehouse
	netMgr := network.NewNetworkManager(&cfg.Network, logger.NewLogger("Network"))

	wh, err := storage.NewWarehouse(&cfg.Warehouse, netMgr.Client)
	if err != nil {
		return nil, err
	}
	if err := wh.Initialize(ctx); err != nil {
		return nil, err
	}

	// 2. Market data pipeline
	marketData := &pipeline.MarketDataPipeline{
		Warehouse: wh,
		Source:    alphavantage.NewAlphaVantageSource(cfg.AlphaVantage.BaseURL, netMgr),
		Resources: pipeline.MarketDataResources(cfg.Warehouse, cfg.MarketData),
		Config:    cfg.MarketData,
		APIKey:    cfg.AlphaVantage.APIKey,
		Symbol:    cfg.AlphaVantage.Symbol,
	}
	if cfg.MarketData.ArchiveDir != "" {
		marketData.Archive = archive.NewParquetArchive(cfg.MarketData.ArchiveDir)
	}
	if cfg.MarketData.SkipNonTradingDays {
		marketData.Guard = utils.NewTradingGuard()
	}
	if marketData.APIKey == "" {
		appLogger.Warning("No Alpha Vantage API key configured (set %s)", config.EnvAPIKey)
	}

	// 3. Bulk files pipeline
	bulkFiles := &pipeline.BulkFilesPipeline{
		Warehouse: wh,
		Resources: pipeline.BulkFilesResources(cfg.BulkFiles),
		Config:    cfg.BulkFiles,
	}

	runner := pipeline.NewRunner(nil)
	registry := pipeline.NewRegistry(runner, pipeline.NewHistory(cfg.HistorySize), marketData, bulkFiles)

	appLogger.Info("Bootstrapped %s with warehouse driver %s", cfg.Name, wh.Dialect())
	return &application{
		Config:    cfg,
		Logger:    appLogger,
		Warehouse: wh,
		Runner:    runner,
		Registry:  registry,
	}, nil
}
