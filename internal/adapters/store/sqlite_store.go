package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4/database"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var sqliteDialect = dialect{
	name:       "sqlite",
	driverName: "sqlite3",
	migrator: func(db *sql.DB) (database.Driver, error) {
		return migratesqlite.WithInstance(db, &migratesqlite.Config{})
	},
}

// NewSQLiteStore opens (and migrates) a SQLite record store at dbPath
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
	}

	s, err := openSQLStore(sqliteDialect, dbPath, logger)
	if err != nil {
		return nil, err
	}

	// SQLite allows a single writer
	s.db.SetMaxOpenConns(1)
	return s, nil
}
