package export

import (
	"context"

	"svend/internal/sheets"
)

// CleanupFunc represents a cleanup function for exporter resources
type CleanupFunc func() error

// ExporterResult contains the exporter instance and optional cleanup
// function. A disabled backend yields a nil Exporter; callers must
// treat that as "do not export", not as an error.
type ExporterResult struct {
	Exporter sheets.PlanExporter
	Cleanup  CleanupFunc
}

// Factory creates plan exporters based on configuration
type Factory interface {
	// CreateExporter creates an exporter instance based on the provided config
	CreateExporter(ctx context.Context, config Config) (*ExporterResult, error)
}

// Config holds configuration for exporter creation
type Config struct {
	// Export backend type
	Type ExportType

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
	SheetPrefix              string
}

// ExportType represents the type of export backend
type ExportType string

const (
	NoneExport   ExportType = "none"
	MemoryExport ExportType = "memory"
	SheetsExport ExportType = "sheets"
)

// String implements fmt.Stringer
func (t ExportType) String() string {
	return string(t)
}

// IsValid returns true if the export type is valid
func (t ExportType) IsValid() bool {
	switch t {
	case NoneExport, MemoryExport, SheetsExport:
		return true
	default:
		return false
	}
}
