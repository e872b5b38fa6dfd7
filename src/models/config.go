package models

// MConfig Structure
type MConfig struct {
	Name         string              `yaml:"name"`
	Host         string              `yaml:"host"`
	Port         int                 `yaml:"port"`
	LogLevel     string              `yaml:"log_level"`
	LogFormat    string              `yaml:"log_format"`
	LogFile      string              `yaml:"log_file"`
	GrpcHost     string              `yaml:"grpc_host"`
	GrpcPort     int                 `yaml:"grpc_port"`
	HistorySize  int                 `yaml:"history_size"`
	Network      MNetworkConfig      `yaml:"network"`
	AlphaVantage MAlphaVantageConfig `yaml:"alpha_vantage"`
	Warehouse    MWarehouseConfig    `yaml:"warehouse"`
	MarketData   MMarketDataConfig   `yaml:"market_data"`
	BulkFiles    MBulkFilesConfig    `yaml:"bulk_files"`
}

type MNetworkConfig struct {
	RequestTimeout int    `yaml:"timeout"`
	UserAgent      string `yaml:"user_agent"`
	Proxy          string `yaml:"proxy"`
}

type MAlphaVantageConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"` // usually supplied through ALPHAVANTAGE_API_KEY
	Symbol  string `yaml:"symbol"`
}

type MWarehouseConfig struct {
	Driver      string `yaml:"driver"` // snowflake, postgres or sqlite
	DSN         string `yaml:"dsn"`
	Account     string `yaml:"account"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	Role        string `yaml:"role"`
	Name        string `yaml:"name"`
	Size        string `yaml:"size"`
	AutoSuspend int    `yaml:"auto_suspend"`
}

type MMarketDataConfig struct {
	Database           string `yaml:"database"`
	Schema             string `yaml:"schema"`
	Table              string `yaml:"table"`
	MinRows            int64  `yaml:"min_rows"`
	ArchiveDir         string `yaml:"archive_dir"`
	SkipNonTradingDays bool   `yaml:"skip_non_trading_days"`
}

type MBulkFilesConfig struct {
	Database  string        `yaml:"database"`
	Schema    string        `yaml:"schema"`
	StageName string        `yaml:"stage_name"`
	StageURL  string        `yaml:"stage_url"`
	Loads     []MCopyConfig `yaml:"loads"`
}

type MCopyConfig struct {
	Table string `yaml:"table"`
	File  string `yaml:"file"`
}
