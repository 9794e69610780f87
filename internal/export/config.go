package export

import (
	"fmt"

	"svend/internal/config"
)

// FromAppConfig converts the application config to export config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	exportType := ExportType(appConfig.ExportBackend)
	if !exportType.IsValid() {
		return Config{}, fmt.Errorf("invalid export backend in config: %s", appConfig.ExportBackend)
	}

	return Config{
		Type: exportType,

		// Google Sheets configuration
		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		SheetPrefix:              appConfig.PlanSheetPrefix,
	}, nil
}

// Validate validates the export configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid export backend: %s", c.Type)
	}

	switch c.Type {
	case NoneExport, MemoryExport:
		// Nothing external to configure

	case SheetsExport:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for the sheets backend")
		}

		hasAccountFile := c.GoogleServiceAccountFile != ""
		hasAccountJSON := c.GoogleServiceAccountJSON != ""
		if !hasAccountFile && !hasAccountJSON {
			return fmt.Errorf("either GoogleServiceAccountFile or GoogleServiceAccountJSON must be provided for the sheets backend")
		}
	}

	return nil
}

// GetExportTypes returns all valid export types
func GetExportTypes() []ExportType {
	return []ExportType{NoneExport, MemoryExport, SheetsExport}
}
