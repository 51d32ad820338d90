package catalog

import (
	"context"
	"fmt"

	"barstock/internal/config"
	"barstock/internal/connectors"
	exportconnector "barstock/internal/connectors/export"
	fileconnector "barstock/internal/connectors/file"
	sheetsconnector "barstock/internal/connectors/sheetsapi"
	"barstock/internal/headers"
	"barstock/internal/pipeline"
	"barstock/internal/storage"
)

func MakeSource(ctx context.Context, cfg config.Config) (connectors.TableSource, error) {
	switch cfg.SheetSource {
	case "", config.SourceExport:
		return exportconnector.NewSource(cfg)
	case config.SourceSheetsAPI:
		return sheetsconnector.NewSource(ctx, cfg)
	case config.SourceFile:
		if err := cfg.Require("SHEET_FILE", cfg.SheetFile); err != nil {
			return nil, err
		}
		format := ""
		if cfg.SheetFormat != "csv" {
			format = cfg.SheetFormat
		}
		return fileconnector.NewSource(cfg.SheetFile, format, cfg.SheetTabs)
	default:
		return nil, fmt.Errorf("unsupported sheet source: %s", cfg.SheetSource)
	}
}

// NewFromConfig assembles the catalog and its sync service. db may be nil.
func NewFromConfig(ctx context.Context, db *storage.DB, cfg config.Config) (*SyncService, error) {
	table, err := cfg.HeaderTable()
	if err != nil {
		return nil, err
	}
	resolver, err := headers.NewResolver(table)
	if err != nil {
		return nil, err
	}
	fields, err := cfg.SearchLogicalFields()
	if err != nil {
		return nil, err
	}
	source, err := MakeSource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	rawDir := ""
	if cfg.ArchiveRaw {
		rawDir = cfg.RawDir
	}
	fetcher := connectors.NewFetchService(db, rawDir, source)
	builder := pipeline.NewBuilder(resolver, pipeline.BuildOptions{
		USDRate:          cfg.USDToJMDRate,
		RequireDrinkName: cfg.RequireDrinkName,
	})
	return NewSyncService(db, fetcher, builder, New(fields)), nil
}
