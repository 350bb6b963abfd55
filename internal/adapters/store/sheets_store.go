package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mikey/app-tracker/internal/core"
	"go.uber.org/zap"
	"google.golang.org/api/sheets/v4"
)

// SheetHeaders is the header row of the tracking spreadsheet
var SheetHeaders = []string{
	"Company", "Role", "Status", "Applied Date", "Last Updated",
	"Email Subject", "Detection Reason", "Action Link",
}

// SheetsStore keeps application records in a Google Sheets tab, one row per record
// below a fixed header row
type SheetsStore struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
	logger        *zap.Logger

	mu          sync.Mutex
	headerReady bool
}

// NewSheetsStore creates a new spreadsheet-backed store
func NewSheetsStore(svc *sheets.Service, spreadsheetID, sheetName string, logger *zap.Logger) (*SheetsStore, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SheetsStore{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger,
	}, nil
}

func (s *SheetsStore) rangeOf(cells string) string {
	return fmt.Sprintf("'%s'!%s", s.sheetName, cells)
}

// ensureHeader writes the header row when the sheet is empty
func (s *SheetsStore) ensureHeader(ctx context.Context) error {
	if s.headerReady {
		return nil
	}

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.rangeOf("A1:H1")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read sheet header: %w", err)
	}

	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		header := make([]interface{}, len(SheetHeaders))
		for i, h := range SheetHeaders {
			header[i] = h
		}
		_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, s.rangeOf("A1:H1"),
			&sheets.ValueRange{Values: [][]interface{}{header}}).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to write sheet header: %w", err)
		}
		s.logger.Info("Initialized spreadsheet header", zap.String("sheet", s.sheetName))
	}

	s.headerReady = true
	return nil
}

// rows returns every data row, in sheet order
func (s *SheetsStore) rows(ctx context.Context) ([]*core.ApplicationRecord, error) {
	if err := s.ensureHeader(ctx); err != nil {
		return nil, err
	}

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.rangeOf("A2:H")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet rows: %w", err)
	}

	records := make([]*core.ApplicationRecord, 0, len(resp.Values))
	for i, row := range resp.Values {
		rec, err := RowToRecord(row)
		if err != nil {
			s.logger.Warn("Skipping malformed sheet row", zap.Int("row", i+2), zap.Error(err))
			records = append(records, nil)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *SheetsStore) index(ctx context.Context, key core.RecordKey) (int, *core.ApplicationRecord, error) {
	records, err := s.rows(ctx)
	if err != nil {
		return 0, nil, err
	}
	for i, rec := range records {
		if rec != nil && rec.Key().Matches(key) {
			return i, rec, nil
		}
	}
	return 0, nil, core.ErrRecordNotFound
}

// Find returns the record matching key
func (s *SheetsStore) Find(ctx context.Context, key core.RecordKey) (*core.ApplicationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, rec, err := s.index(ctx, key)
	return rec, err
}

// Create appends a record row
func (s *SheetsStore) Create(ctx context.Context, rec *core.ApplicationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureHeader(ctx); err != nil {
		return err
	}

	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.rangeOf("A:H"),
		&sheets.ValueRange{Values: [][]interface{}{RecordToRow(rec)}}).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append sheet row: %w", err)
	}
	return nil
}

// Update rewrites the row of the record matching key
func (s *SheetsStore) Update(ctx context.Context, key core.RecordKey, upd core.RecordUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, rec, err := s.index(ctx, key)
	if err != nil {
		return err
	}
	upd.Apply(rec)

	row := i + 2
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, s.rangeOf(fmt.Sprintf("A%d:H%d", row, row)),
		&sheets.ValueRange{Values: [][]interface{}{RecordToRow(rec)}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update sheet row %d: %w", row, err)
	}
	return nil
}

// List returns every well-formed record
func (s *SheetsStore) List(ctx context.Context) ([]*core.ApplicationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.rows(ctx)
	if err != nil {
		return nil, err
	}

	out := records[:0]
	for _, rec := range records {
		if rec != nil {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Clear removes every data row and keeps the header
func (s *SheetsStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, s.rangeOf("A2:Z"),
		&sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear sheet: %w", err)
	}

	s.logger.Info("Cleared spreadsheet", zap.String("sheet", s.sheetName))
	return nil
}

// RecordToRow renders a record in SheetHeaders column order
func RecordToRow(rec *core.ApplicationRecord) []interface{} {
	return []interface{}{
		rec.Company,
		rec.Role,
		string(rec.Status),
		rec.AppliedDate.Format(core.DateLayout),
		rec.LastUpdated.Format(core.TimestampLayout),
		rec.EmailSubject,
		rec.DetectionReason,
		rec.ActionLink,
	}
}

// RowToRecord parses a sheet row. Trailing empty cells may be omitted by the API.
func RowToRecord(row []interface{}) (*core.ApplicationRecord, error) {
	cell := func(i int) string {
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(fmt.Sprint(row[i]))
	}

	if cell(0) == "" && cell(1) == "" {
		return nil, fmt.Errorf("row has neither company nor role")
	}

	rec := &core.ApplicationRecord{
		Company:         cell(0),
		Role:            cell(1),
		Status:          core.Status(cell(2)),
		EmailSubject:    cell(5),
		DetectionReason: cell(6),
		ActionLink:      cell(7),
	}

	if v := cell(3); v != "" {
		t, err := parseStoredTime(v)
		if err != nil {
			return nil, fmt.Errorf("invalid applied date %q: %w", v, err)
		}
		rec.AppliedDate = t
	}
	if v := cell(4); v != "" {
		t, err := parseStoredTime(v)
		if err != nil {
			return nil, fmt.Errorf("invalid last updated %q: %w", v, err)
		}
		rec.LastUpdated = t
	}

	return rec, nil
}
