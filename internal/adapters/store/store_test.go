package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikey/app-tracker/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(company, role string, status core.Status) *core.ApplicationRecord {
	return &core.ApplicationRecord{
		Company:         company,
		Role:            role,
		Status:          status,
		AppliedDate:     time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		LastUpdated:     time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		EmailSubject:    "Thank you for applying",
		DetectionReason: "Matched: thank you for applying",
		ActionLink:      "https://example.com/portal",
	}
}

// exerciseStore runs the RecordStore contract against any implementation
func exerciseStore(t *testing.T, s interface {
	core.RecordStore
	core.RecordClearer
}) {
	ctx := context.Background()

	t.Run("find on an empty store reports not found", func(t *testing.T) {
		_, err := s.Find(ctx, core.RecordKey{Company: "Acme", Role: "Engineer"})
		assert.ErrorIs(t, err, core.ErrRecordNotFound)
	})

	t.Run("create then find is case-insensitive", func(t *testing.T) {
		require.NoError(t, s.Create(ctx, sampleRecord("Acme", "Software Engineer", core.StatusApplied)))

		rec, err := s.Find(ctx, core.RecordKey{Company: " acme ", Role: "SOFTWARE ENGINEER"})
		require.NoError(t, err)
		assert.Equal(t, "Acme", rec.Company)
		assert.Equal(t, "Software Engineer", rec.Role)
		assert.Equal(t, core.StatusApplied, rec.Status)
		assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), rec.LastUpdated)
		assert.Equal(t, "https://example.com/portal", rec.ActionLink)
	})

	t.Run("duplicate keys are rejected", func(t *testing.T) {
		assert.Error(t, s.Create(ctx, sampleRecord("ACME", "software engineer", core.StatusInterview)))
	})

	t.Run("update writes status and metadata", func(t *testing.T) {
		err := s.Update(ctx, core.RecordKey{Company: "acme", Role: "software engineer"}, core.RecordUpdate{
			Status:          core.StatusInterview,
			LastUpdated:     time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC),
			EmailSubject:    "Interview invitation",
			DetectionReason: "Matched: interview",
		})
		require.NoError(t, err)

		rec, err := s.Find(ctx, core.RecordKey{Company: "Acme", Role: "Software Engineer"})
		require.NoError(t, err)
		assert.Equal(t, core.StatusInterview, rec.Status)
		assert.Equal(t, "Interview invitation", rec.EmailSubject)
		assert.Equal(t, "", rec.ActionLink)
		assert.Equal(t, time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC), rec.LastUpdated)
	})

	t.Run("refinement changes the record identity", func(t *testing.T) {
		require.NoError(t, s.Create(ctx, sampleRecord("Globex", "Unknown Position", core.StatusApplied)))

		err := s.Update(ctx, core.RecordKey{Company: "Globex", Role: "Unknown Position"}, core.RecordUpdate{
			Role:        "Data Engineer",
			Status:      core.StatusApplied,
			LastUpdated: time.Date(2024, 3, 6, 8, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)

		_, err = s.Find(ctx, core.RecordKey{Company: "Globex", Role: "Unknown Position"})
		assert.ErrorIs(t, err, core.ErrRecordNotFound)
		rec, err := s.Find(ctx, core.RecordKey{Company: "globex", Role: "data engineer"})
		require.NoError(t, err)
		assert.Equal(t, "Data Engineer", rec.Role)
	})

	t.Run("update of a missing record reports not found", func(t *testing.T) {
		err := s.Update(ctx, core.RecordKey{Company: "Nope", Role: "Nope"}, core.RecordUpdate{Status: core.StatusApplied})
		assert.ErrorIs(t, err, core.ErrRecordNotFound)
	})

	t.Run("list keeps insertion order", func(t *testing.T) {
		records, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "Acme", records[0].Company)
		assert.Equal(t, "Globex", records[1].Company)
	})

	t.Run("clear removes everything", func(t *testing.T) {
		require.NoError(t, s.Clear(ctx))
		records, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(nil))
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)
	require.NoError(t, s.Create(ctx, sampleRecord("Acme", "Engineer", core.StatusApplied)))

	rec, err := s.Find(ctx, core.RecordKey{Company: "Acme", Role: "Engineer"})
	require.NoError(t, err)
	rec.Status = core.StatusOffer

	again, err := s.Find(ctx, core.RecordKey{Company: "Acme", Role: "Engineer"})
	require.NoError(t, err)
	assert.Equal(t, core.StatusApplied, again.Status)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "data", "tracker.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	exerciseStore(t, s)
}

func TestSQLiteStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tracker.db")

	s, err := NewSQLiteStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, sampleRecord("Acme", "Engineer", core.StatusApplied)))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path, nil)
	require.NoError(t, err)
	defer s.Close()

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), records[0].AppliedDate)
}

func TestRebind(t *testing.T) {
	s := &SQLStore{dialect: postgresDialect}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", s.rebind("SELECT * FROM t WHERE a = ? AND b = ?"))

	s = &SQLStore{dialect: mysqlDialect}
	assert.Equal(t, "a = ?", s.rebind("a = ?"))
}

func TestSheetRows(t *testing.T) {
	t.Run("record renders in header order", func(t *testing.T) {
		row := RecordToRow(sampleRecord("Acme", "Engineer", core.StatusInterview))
		require.Len(t, row, len(SheetHeaders))
		assert.Equal(t, []interface{}{
			"Acme", "Engineer", "Interview", "2024-03-01", "2024-03-01 10:00",
			"Thank you for applying", "Matched: thank you for applying", "https://example.com/portal",
		}, row)
	})

	t.Run("short rows are padded", func(t *testing.T) {
		rec, err := RowToRecord([]interface{}{"Acme", "Engineer", "Applied", "2024-03-01", "2024-03-02 08:15"})
		require.NoError(t, err)
		assert.Equal(t, core.StatusApplied, rec.Status)
		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), rec.AppliedDate)
		assert.Equal(t, time.Date(2024, 3, 2, 8, 15, 0, 0, time.UTC), rec.LastUpdated)
		assert.Equal(t, "", rec.ActionLink)
	})

	t.Run("empty identity is rejected", func(t *testing.T) {
		_, err := RowToRecord([]interface{}{"", ""})
		assert.Error(t, err)
	})

	t.Run("bad timestamp is rejected", func(t *testing.T) {
		_, err := RowToRecord([]interface{}{"Acme", "Engineer", "Applied", "yesterday"})
		assert.Error(t, err)
	})
}
