// Package google exports the ledger to a Google Sheets spreadsheet using a
// service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"grledger/internal/core"
	"grledger/internal/log"
	ports "grledger/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const valueInputOption = "USER_ENTERED"

var (
	ErrMissingSpreadsheet = errors.New("missing spreadsheet id")
	ErrMissingCredentials = errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
)

// Options configures the client. Ranges are A1 anchors such as "Transaksi!A1".
type Options struct {
	SpreadsheetID     string
	CredentialsFile   string
	CredentialsJSON   string
	TransactionsRange string
	ReportRange       string
}

// sheetsAPI is the slice of the Sheets service the client needs.
type sheetsAPI interface {
	SheetTitles(ctx context.Context) ([]string, error)
	AddSheet(ctx context.Context, title string) error
	Clear(ctx context.Context, rng string) error
	Update(ctx context.Context, rng string, rows [][]any) error
}

type Client struct {
	api       sheetsAPI
	txSheet   string
	txCell    string
	repSheet  string
	repCell   string
	logger    *log.Logger
	knownTabs map[string]struct{}
}

// Ensure interface conformance
var _ ports.Exporter = (*Client)(nil)

// New creates a Sheets client from service account credentials.
func New(ctx context.Context, opts Options, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, ErrMissingSpreadsheet
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
	return newClient(&serviceAPI{svc: svc, spreadsheetID: opts.SpreadsheetID}, opts, logger), nil
}

func newClient(api sheetsAPI, opts Options, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	txSheet, txCell := splitRange(opts.TransactionsRange, "Transaksi")
	repSheet, repCell := splitRange(opts.ReportRange, "Laporan")
	return &Client{
		api:       api,
		txSheet:   txSheet,
		txCell:    txCell,
		repSheet:  repSheet,
		repCell:   repCell,
		logger:    logger.WithComponent(log.ComponentSheets),
		knownTabs: map[string]struct{}{},
	}
}

func credentials(opts Options) ([]byte, error) {
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		return []byte(opts.CredentialsJSON), nil
	case strings.TrimSpace(opts.CredentialsFile) != "":
		raw, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return raw, nil
	}
	return nil, ErrMissingCredentials
}

// WriteTransactions replaces the transactions tab with the full ledger.
func (c *Client) WriteTransactions(ctx context.Context, txs []core.Transaction) (string, error) {
	return c.replace(ctx, c.txSheet, c.txCell, ports.TransactionRows(txs))
}

// WriteReport replaces the "<year> <report>" tab with the monthly report.
func (c *Client) WriteReport(ctx context.Context, year int, buckets []core.Bucket) (string, error) {
	return c.replace(ctx, yearPrefixedName(c.repSheet, year), c.repCell, ports.ReportRows(buckets))
}

func (c *Client) replace(ctx context.Context, sheet, cell string, rows [][]any) (string, error) {
	if c.api == nil {
		return "", errors.New("sheets service not initialized")
	}
	if err := c.ensureSheet(ctx, sheet); err != nil {
		return "", err
	}

	tab := quoteSheet(sheet)
	if err := c.api.Clear(ctx, tab); err != nil {
		return "", fmt.Errorf("clear %s: %w", sheet, err)
	}
	rng := fmt.Sprintf("%s!%s", tab, cell)
	if err := c.api.Update(ctx, rng, rows); err != nil {
		return "", fmt.Errorf("update %s: %w", rng, err)
	}

	c.logger.InfoContext(ctx, "Sheet updated", "range", rng, log.FieldCount, len(rows)-1)
	return rng, nil
}

func (c *Client) ensureSheet(ctx context.Context, title string) error {
	if _, ok := c.knownTabs[title]; ok {
		return nil
	}
	titles, err := c.api.SheetTitles(ctx)
	if err != nil {
		return fmt.Errorf("list sheets: %w", err)
	}
	if !slices.Contains(titles, title) {
		if err := c.api.AddSheet(ctx, title); err != nil {
			return fmt.Errorf("add sheet %s: %w", title, err)
		}
		c.logger.InfoContext(ctx, "Sheet created", "sheet", title)
	}
	c.knownTabs[title] = struct{}{}
	return nil
}

// splitRange separates "Sheet!A1" into its tab and anchor cell.
func splitRange(rng, defaultSheet string) (sheet, cell string) {
	rng = strings.TrimSpace(rng)
	sheet, cell, found := strings.Cut(rng, "!")
	if !found {
		sheet, cell = rng, ""
	}
	sheet = strings.Trim(strings.TrimSpace(sheet), "'")
	if sheet == "" {
		sheet = defaultSheet
	}
	if cell = strings.TrimSpace(cell); cell == "" {
		cell = "A1"
	}
	return sheet, cell
}

// quoteSheet wraps tab names containing spaces for A1 notation.
func quoteSheet(name string) string {
	if strings.ContainsAny(name, " '!") {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}

// serviceAPI adapts the generated Sheets service.
type serviceAPI struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func (s *serviceAPI) SheetTitles(ctx context.Context) ([]string, error) {
	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			titles = append(titles, sh.Properties.Title)
		}
	}
	return titles, nil
}

func (s *serviceAPI) AddSheet(ctx context.Context, title string) error {
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		}},
	}
	_, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	return err
}

func (s *serviceAPI) Clear(ctx context.Context, rng string) error {
	_, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (s *serviceAPI) Update(ctx context.Context, rng string, rows [][]any) error {
	vr := &gsheet.ValueRange{Values: rows}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
		ValueInputOption(valueInputOption).Context(ctx).Do()
	return err
}
