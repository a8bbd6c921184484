package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"secondbrain/internal/core"
	applog "secondbrain/internal/log"
	ports "secondbrain/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultCacheDuration = 5 * time.Minute

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	journalSheet  string

	mu sync.Mutex
	// Row positions by transaction id, refreshed after cacheValidDuration
	// or whenever a delete shifts rows.
	rowIndex           map[string]int
	cachedRowCount     int
	cacheExpiresAt     time.Time
	cacheValidDuration time.Duration
	sheetID            *int64
}

// Ensure interface conformance
var _ ports.Journal = (*Client)(nil)

// New wraps an existing Sheets service.
func New(svc *gsheet.Service, spreadsheetID, journalSheet string) *Client {
	return &Client{
		svc:                svc,
		spreadsheetID:      spreadsheetID,
		journalSheet:       journalSheet,
		cacheValidDuration: defaultCacheDuration,
	}
}

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SHEET_NAME (default "Journal")
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	return Open(ctx, spreadsheetID, os.Getenv("GOOGLE_SHEET_NAME"))
}

// Open connects to spreadsheetID with the service account credentials from
// the environment. An empty sheet name selects "Journal".
func Open(ctx context.Context, spreadsheetID, sheet string) (*Client, error) {
	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		sheet = "Journal"
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return New(svc, spreadsheetID, sheet), nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		logger(ctx).InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		logger(ctx).InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
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
	logger(ctx).InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

func (c *Client) cacheValid() bool {
	return c.rowIndex != nil && time.Now().Before(c.cacheExpiresAt)
}

func (c *Client) invalidateRowCache() {
	c.rowIndex = nil
	c.cachedRowCount = 0
	c.cacheExpiresAt = time.Time{}
}

// loadRows refreshes the id column index. The caller must hold c.mu.
func (c *Client) loadRows(ctx context.Context) error {
	if c.cacheValid() {
		return nil
	}
	rng := fmt.Sprintf("%s!A:A", c.journalSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	index := make(map[string]int, len(resp.Values))
	for i, row := range resp.Values {
		if i == 0 || len(row) == 0 {
			continue
		}
		if id := strings.TrimSpace(fmt.Sprint(row[0])); id != "" {
			index[id] = i + 1
		}
	}
	c.rowIndex = index
	c.cachedRowCount = len(resp.Values)
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	return nil
}

func (c *Client) writeRow(ctx context.Context, row int, values []any) error {
	rng := fmt.Sprintf("%s!A%d:G%d", c.journalSheet, row, row)
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

// Upsert writes tx to its existing row or to the next free row.
func (c *Client) Upsert(ctx context.Context, tx core.Transaction) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadRows(ctx); err != nil {
		return err
	}
	if row, ok := c.rowIndex[tx.ID]; ok {
		return c.writeRow(ctx, row, rowValues(tx))
	}

	if c.cachedRowCount == 0 {
		header := make([]any, len(journalHeader))
		for i, h := range journalHeader {
			header[i] = h
		}
		if err := c.writeRow(ctx, 1, header); err != nil {
			c.invalidateRowCache()
			return err
		}
		c.cachedRowCount = 1
	}
	next := c.cachedRowCount + 1
	if err := c.writeRow(ctx, next, rowValues(tx)); err != nil {
		c.invalidateRowCache()
		return err
	}
	c.rowIndex[tx.ID] = next
	c.cachedRowCount = next

	logger(ctx).DebugContext(ctx, "Journal row written", "id", tx.ID, "row", next)
	return nil
}

// Delete removes the row of the transaction and shifts the rows below up.
func (c *Client) Delete(ctx context.Context, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadRows(ctx); err != nil {
		return err
	}
	row, ok := c.rowIndex[id]
	if !ok {
		logger(ctx).DebugContext(ctx, "Journal row already absent", "id", id)
		return nil
	}
	sheetID, err := c.lookupSheetID(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		DeleteDimension: &gsheet.DeleteDimensionRequest{
			Range: &gsheet.DimensionRange{
				SheetId:    sheetID,
				Dimension:  "ROWS",
				StartIndex: int64(row - 1),
				EndIndex:   int64(row),
			},
		},
	}}}
	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	c.invalidateRowCache()
	if err != nil {
		return fmt.Errorf("delete row %d of %s: %w", row, c.journalSheet, err)
	}
	return nil
}

// lookupSheetID resolves the numeric id of the journal tab. The caller must
// hold c.mu.
func (c *Client) lookupSheetID(ctx context.Context) (int64, error) {
	if c.sheetID != nil {
		return *c.sheetID, nil
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == c.journalSheet {
			id := sh.Properties.SheetId
			c.sheetID = &id
			return id, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", c.journalSheet)
}

// List reads every mirrored transaction.
func (c *Client) List(ctx context.Context) ([]core.Transaction, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:G", c.journalSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseJournal(resp.Values)
}

func logger(ctx context.Context) *applog.Logger {
	return applog.FromContext(ctx).WithComponent(applog.ComponentSheets)
}
