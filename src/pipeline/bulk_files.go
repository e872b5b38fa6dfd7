package pipeline

import (
	"context"

	"market-loader/src/interfaces"
	"market-loader/src/models"
)

const BulkFilesName = "bulk_files"

// BulkFilesResources declares the session tables and the CSV stage they are copied from.
// The database and schema are expected to exist already.
func BulkFilesResources(cfg models.MBulkFilesConfig) models.MResources {
	return models.MResources{
		Database: cfg.Database,
		Schema:   cfg.Schema,
		Tables: []models.MTableDef{
			{Name: "user_session_channel", Columns: []models.MColumnDef{
				{Name: "userId", Type: "int", NotNull: true},
				{Name: "sessionId", Type: "varchar(32)", PrimaryKey: true},
				{Name: "channel", Type: "varchar(32)", Default: "'direct'"},
			}},
			{Name: "session_timestamp", Columns: []models.MColumnDef{
				{Name: "sessionId", Type: "varchar(32)", PrimaryKey: true},
				{Name: "ts", Type: "timestamp"},
			}},
		},
		Stage: &models.MStageDef{
			Name: cfg.StageName,
			URL:  cfg.StageURL,
			FileFormat: models.MFileFormat{
				Type:                      "csv",
				SkipHeader:                1,
				FieldOptionallyEnclosedBy: `"`,
			},
		},
	}
}

// -----------------------------------------------------------------------------

// BulkFilesPipeline: set_stage -> load.
type BulkFilesPipeline struct {
	Warehouse interfaces.IWarehouse
	Resources models.MResources
	Config    models.MBulkFilesConfig
}

func (p *BulkFilesPipeline) Name() string { return BulkFilesName }

func (p *BulkFilesPipeline) Description() string {
	return "Create the session tables and stage " + p.Config.StageName + ", then COPY the staged CSV files"
}

func (p *BulkFilesPipeline) Stages(RunOptions) []Stage {
	return []Stage{
		{Name: "set_stage", Setup: true, Run: func(ctx context.Context) (int64, error) {
			return 0, p.Warehouse.EnsureResources(ctx, p.Resources)
		}},
		{Name: "load", Run: func(ctx context.Context) (int64, error) {
			var total int64
			for _, load := range p.Config.Loads {
				n, err := p.Warehouse.BulkCopy(ctx, p.Config.Database, p.Config.Schema, models.MCopySpec{
					Table: load.Table,
					Stage: p.Config.StageName,
					File:  load.File,
				})
				total += n
				if err != nil {
					return total, err
				}
			}
			return total, nil
		}},
	}
}
