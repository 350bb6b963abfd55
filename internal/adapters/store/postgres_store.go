package store

import (
	"database/sql"

	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

var postgresDialect = dialect{
	name:       "postgres",
	driverName: "pgx",
	dollarArgs: true,
	migrator: func(db *sql.DB) (database.Driver, error) {
		return migratepgx.WithInstance(db, &migratepgx.Config{})
	},
}

// NewPostgresStore opens (and migrates) a PostgreSQL record store through the pgx driver
func NewPostgresStore(dsn string, logger *zap.Logger) (*SQLStore, error) {
	return openSQLStore(postgresDialect, dsn, logger)
}
