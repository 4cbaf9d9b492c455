package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"budgetreport/internal/report"
	ports "budgetreport/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Ensure interface conformance
var _ ports.ReportMirror = (*Client)(nil)

// Options configure the Sheets mirror.
type Options struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
	// SheetPrefix is prepended to every report sheet name, e.g. "2024 ".
	SheetPrefix string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetPrefix   string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	creds, err := credentials(opts)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.DebugContext(ctx, "Google Sheets service created", "spreadsheet_id", spreadsheetID)
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetPrefix: opts.SheetPrefix}, nil
}

func credentials(opts Options) ([]byte, error) {
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		return []byte(opts.CredentialsJSON), nil
	case strings.TrimSpace(opts.CredentialsFile) != "":
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// Mirror writes each table to its own sheet, creating missing sheets and
// clearing old content first.
func (c *Client) Mirror(ctx context.Context, tables []report.Table) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	var existing []string
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			existing = append(existing, s.Properties.Title)
		}
	}

	names := c.sheetNames(tables)
	if missing := missingSheets(existing, names); len(missing) > 0 {
		if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, addSheetsRequest(missing)).Context(ctx).Do(); err != nil {
			return fmt.Errorf("add sheets %v: %w", missing, err)
		}
	}

	ranges := make([]string, len(names))
	for i, name := range names {
		ranges[i] = quoteSheet(name)
	}
	if _, err := c.svc.Spreadsheets.Values.BatchClear(c.spreadsheetID, &gsheet.BatchClearValuesRequest{Ranges: ranges}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheets: %w", err)
	}

	if _, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, valuesRequest(names, tables)).Context(ctx).Do(); err != nil {
		return fmt.Errorf("write values: %w", err)
	}

	slog.InfoContext(ctx, "Mirrored report to Google Sheets", "spreadsheet_id", c.spreadsheetID, "sheets", len(names))
	return nil
}

func (c *Client) sheetNames(tables []report.Table) []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = c.sheetPrefix + t.Sheet
	}
	return names
}

func missingSheets(existing, wanted []string) []string {
	have := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		have[e] = struct{}{}
	}
	var out []string
	for _, w := range wanted {
		if _, ok := have[w]; !ok {
			out = append(out, w)
		}
	}
	return out
}

func addSheetsRequest(titles []string) *gsheet.BatchUpdateSpreadsheetRequest {
	req := &gsheet.BatchUpdateSpreadsheetRequest{}
	for _, title := range titles {
		req.Requests = append(req.Requests, &gsheet.Request{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		})
	}
	return req
}

func valuesRequest(names []string, tables []report.Table) *gsheet.BatchUpdateValuesRequest {
	req := &gsheet.BatchUpdateValuesRequest{ValueInputOption: "USER_ENTERED"}
	for i, t := range tables {
		req.Data = append(req.Data, &gsheet.ValueRange{
			Range:  quoteSheet(names[i]) + "!A1",
			Values: ports.Values(t),
		})
	}
	return req
}

// quoteSheet renders a sheet name for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
