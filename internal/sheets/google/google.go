package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"svend/internal/core"
	ports "svend/internal/sheets"
)

// Config holds a Sheets exporter's connection settings.
type Config struct {
	SpreadsheetID      string
	ServiceAccountFile string
	ServiceAccountJSON string
	SheetPrefix        string
}

// Client writes recommendation bundles to a Google spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetPrefix   string
}

// Ensure interface conformance
var _ ports.PlanExporter = (*Client)(nil)

// New creates a Sheets exporter from explicit configuration.
func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}

	prefix := strings.TrimSpace(cfg.SheetPrefix)
	if prefix == "" {
		prefix = "Plan"
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetPrefix:   prefix,
	}, nil
}

// NewFromEnv creates a Sheets exporter using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Auth: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: PLAN_SHEET_PREFIX (default "Plan").
func NewFromEnv(ctx context.Context) (*Client, error) {
	return New(ctx, Config{
		SpreadsheetID:      os.Getenv("GOOGLE_SPREADSHEET_ID"),
		ServiceAccountFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
		ServiceAccountJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		SheetPrefix:        os.Getenv("PLAN_SHEET_PREFIX"),
	})
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(cfg.ServiceAccountFile)

	// Also check the standard Google Cloud environment variable
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return service, nil
}

// Export writes the bundle to the spreadsheet, one sheet per scenario
// named "<prefix> <scenario>". Each sheet is cleared before the rewrite
// so rows from a previous, longer plan never survive.
func (c *Client) Export(ctx context.Context, bundle *core.Bundle) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if bundle == nil {
		return errors.New("nil bundle")
	}

	existing, err := c.sheetTitles(ctx)
	if err != nil {
		return fmt.Errorf("list sheets: %w", err)
	}

	for _, scenario := range core.Scenarios() {
		title := c.sheetTitle(scenario)
		if _, ok := existing[title]; !ok {
			if err := c.addSheet(ctx, title); err != nil {
				return fmt.Errorf("add sheet %s: %w", title, err)
			}
		}

		clearRange := fmt.Sprintf("%s!A:Z", title)
		_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
			Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("clear sheet %s: %w", title, err)
		}

		vr := &gsheet.ValueRange{Values: planRows(bundle, scenario)}
		_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, fmt.Sprintf("%s!A1", title), vr).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update sheet %s: %w", title, err)
		}
	}

	slog.InfoContext(ctx, "Plan exported to Google Sheets",
		"spreadsheet_id", c.spreadsheetID,
		"scenarios", len(core.Scenarios()),
		"survival_mode", bundle.SurvivalMode)

	return nil
}

func (c *Client) sheetTitle(scenario core.Scenario) string {
	return fmt.Sprintf("%s %s", c.sheetPrefix, scenario)
}

func (c *Client) sheetTitles(ctx context.Context) (map[string]struct{}, error) {
	resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	titles := make(map[string]struct{}, len(resp.Sheets))
	for _, sheet := range resp.Sheets {
		if sheet.Properties != nil {
			titles[sheet.Properties.Title] = struct{}{}
		}
	}
	return titles, nil
}

func (c *Client) addSheet(ctx context.Context, title string) error {
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: title},
			},
		}},
	}
	_, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	return err
}
