package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/mikey/app-tracker/internal/core"
	"go.uber.org/zap"
)

//go:embed migrations
var migrationFS embed.FS

// dialect captures the differences between the supported SQL backends
type dialect struct {
	name       string
	driverName string
	dollarArgs bool
	migrator   func(db *sql.DB) (database.Driver, error)
}

// SQLStore is a database/sql implementation of the RecordStore interface.
// Timestamps are stored as text in core.TimestampLayout.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	logger  *zap.Logger
}

func openSQLStore(d dialect, dsn string, logger *zap.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", d.name, err)
	}

	s := &SQLStore{db: db, dialect: d, logger: logger}

	version, err := s.migrate()
	if err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Record store ready",
		zap.String("dialect", d.name),
		zap.Uint("schema_version", version))

	return s, nil
}

// migrate applies all pending migrations for the store's dialect
func (s *SQLStore) migrate() (uint, error) {
	driver, err := s.dialect.migrator(s.db)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s migration driver: %w", s.dialect.name, err)
	}

	source, err := iofs.New(migrationFS, "migrations/"+s.dialect.name)
	if err != nil {
		return 0, fmt.Errorf("failed to create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, s.dialect.name, driver)
	if err != nil {
		return 0, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("failed to get migration version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("database schema is dirty at version %d", version)
	}

	return version, nil
}

// rebind rewrites ? placeholders for dialects that use $n
func (s *SQLStore) rebind(query string) string {
	if !s.dialect.dollarArgs {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const recordColumns = `company, role, status, applied_date, last_updated, email_subject, detection_reason, action_link`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*core.ApplicationRecord, error) {
	var rec core.ApplicationRecord
	var status, applied, updated string

	if err := row.Scan(&rec.Company, &rec.Role, &status, &applied, &updated,
		&rec.EmailSubject, &rec.DetectionReason, &rec.ActionLink); err != nil {
		return nil, err
	}

	rec.Status = core.Status(status)
	var err error
	if rec.AppliedDate, err = parseStoredTime(applied); err != nil {
		return nil, fmt.Errorf("invalid applied_date %q: %w", applied, err)
	}
	if rec.LastUpdated, err = parseStoredTime(updated); err != nil {
		return nil, fmt.Errorf("invalid last_updated %q: %w", updated, err)
	}

	return &rec, nil
}

func parseStoredTime(value string) (time.Time, error) {
	if t, err := time.Parse(core.TimestampLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(core.DateLayout, value)
}

// Find returns the record matching key
func (s *SQLStore) Find(ctx context.Context, key core.RecordKey) (*core.ApplicationRecord, error) {
	k := key.Normalized()

	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT `+recordColumns+`
		FROM applications
		WHERE company_key = ? AND role_key = ?
	`), k.Company, k.Role)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to query record: %w", err)
	}

	return rec, nil
}

// Create inserts a new record
func (s *SQLStore) Create(ctx context.Context, rec *core.ApplicationRecord) error {
	k := rec.Key().Normalized()

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO applications (`+recordColumns+`, company_key, role_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		rec.Company, rec.Role, string(rec.Status),
		rec.AppliedDate.Format(core.TimestampLayout),
		rec.LastUpdated.Format(core.TimestampLayout),
		rec.EmailSubject, rec.DetectionReason, rec.ActionLink,
		k.Company, k.Role)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	return nil
}

// Update applies upd to the record matching key
func (s *SQLStore) Update(ctx context.Context, key core.RecordKey, upd core.RecordUpdate) error {
	k := key.Normalized()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, s.rebind(`
		SELECT id FROM applications WHERE company_key = ? AND role_key = ?
	`), k.Company, k.Role).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrRecordNotFound
		}
		return fmt.Errorf("failed to query record: %w", err)
	}

	sets := []string{"status = ?", "last_updated = ?", "email_subject = ?", "detection_reason = ?", "action_link = ?"}
	args := []any{string(upd.Status), upd.LastUpdated.Format(core.TimestampLayout),
		upd.EmailSubject, upd.DetectionReason, upd.ActionLink}

	if upd.Company != "" {
		sets = append(sets, "company = ?", "company_key = ?")
		args = append(args, upd.Company, strings.ToLower(strings.TrimSpace(upd.Company)))
	}
	if upd.Role != "" {
		sets = append(sets, "role = ?", "role_key = ?")
		args = append(args, upd.Role, strings.ToLower(strings.TrimSpace(upd.Role)))
	}
	args = append(args, id)

	query := "UPDATE applications SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := tx.ExecContext(ctx, s.rebind(query), args...); err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit update: %w", err)
	}

	return nil
}

// List returns all records in insertion order
func (s *SQLStore) List(ctx context.Context) ([]*core.ApplicationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM applications ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []*core.ApplicationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}

	return records, nil
}

// Clear deletes every record
func (s *SQLStore) Clear(ctx context.Context) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM applications`)
	if err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}

	if n, err := result.RowsAffected(); err != nil {
		s.logger.Warn("Failed to get rows affected during clear", zap.Error(err))
	} else {
		s.logger.Info("Cleared record store", zap.Int64("removed", n))
	}

	return nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close %s database: %w", s.dialect.name, err)
	}
	return nil
}
