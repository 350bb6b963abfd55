package store

import (
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"go.uber.org/zap"
)

var mysqlDialect = dialect{
	name:       "mysql",
	driverName: "mysql",
	migrator: func(db *sql.DB) (database.Driver, error) {
		return migratemysql.WithInstance(db, &migratemysql.Config{})
	},
}

// NewMySQLStore opens (and migrates) a MySQL record store
func NewMySQLStore(dsn string, logger *zap.Logger) (*SQLStore, error) {
	return openSQLStore(mysqlDialect, dsn, logger)
}
