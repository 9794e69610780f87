package export

import (
	"context"
	"fmt"
	"log/slog"

	gsheet "svend/internal/sheets/google"
	"svend/internal/sheets/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new exporter factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateExporter implements Factory.CreateExporter
func (f *DefaultFactory) CreateExporter(ctx context.Context, config Config) (*ExporterResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case NoneExport:
		f.logger.Info("Plan export disabled")
		return &ExporterResult{}, nil
	case MemoryExport:
		return f.createMemoryExporter()
	case SheetsExport:
		return f.createSheetsExporter(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported export backend: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryExporter() (*ExporterResult, error) {
	store := memory.New()

	f.logger.Info("Initialized in-memory plan export")

	return &ExporterResult{
		Exporter: store,
		Cleanup:  nil, // No cleanup needed for the memory exporter
	}, nil
}

func (f *DefaultFactory) createSheetsExporter(ctx context.Context, config Config) (*ExporterResult, error) {
	cli, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      config.GoogleSpreadsheetID,
		ServiceAccountFile: config.GoogleServiceAccountFile,
		ServiceAccountJSON: config.GoogleServiceAccountJSON,
		SheetPrefix:        config.SheetPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets exporter: %w", err)
	}

	f.logger.Info("Initialized Google Sheets plan export",
		"spreadsheet_id", config.GoogleSpreadsheetID,
		"sheet_prefix", config.SheetPrefix)

	return &ExporterResult{
		Exporter: cli,
		Cleanup:  nil, // No cleanup needed for the sheets exporter
	}, nil
}
