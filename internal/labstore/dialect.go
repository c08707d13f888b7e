package labstore

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"labnote/internal/config"
)

// dialect isolates the SQL that differs between backends.
type dialect interface {
	name() string
	driverName() string
	// dsn turns the configured path or URL into a driver DSN.
	dsn(path string) string
	// rebind rewrites '?' placeholders into the backend's form.
	rebind(query string) string
	// contains renders "column contains the next bound parameter".
	contains(column string) string
	// orderText renders a byte-order sort key for a text column.
	orderText(column string) string
	tablesQuery() string
	migrationDriver(db *sql.DB) (database.Driver, error)
	isBusy(err error) bool
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case config.DriverSQLite, "":
		return sqliteDialect{}, nil
	case config.DriverPostgres:
		return postgresDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
}

type sqliteDialect struct{}

func (sqliteDialect) name() string       { return config.DriverSQLite }
func (sqliteDialect) driverName() string { return "sqlite" }

// sqlitePragmas are applied by the driver to every pooled connection.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

func (sqliteDialect) dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	var b strings.Builder
	b.WriteString(path)
	for _, pragma := range sqlitePragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(pragma)
		sep = "&"
	}
	return b.String()
}

func (sqliteDialect) rebind(query string) string { return query }

func (sqliteDialect) contains(column string) string {
	return "instr(" + column + ", ?) > 0"
}

func (sqliteDialect) orderText(column string) string { return column }

func (sqliteDialect) tablesQuery() string {
	return "SELECT name FROM sqlite_master WHERE type = 'table'"
}

func (sqliteDialect) migrationDriver(db *sql.DB) (database.Driver, error) {
	return migratesqlite.WithInstance(db, &migratesqlite.Config{})
}

func (sqliteDialect) isBusy(err error) bool {
	return isSQLiteBusy(err)
}

type postgresDialect struct{}

func (postgresDialect) name() string       { return config.DriverPostgres }
func (postgresDialect) driverName() string { return "pgx" }

func (postgresDialect) dsn(url string) string { return url }

func (postgresDialect) rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (postgresDialect) contains(column string) string {
	return "strpos(" + column + ", ?) > 0"
}

func (postgresDialect) orderText(column string) string {
	return column + ` COLLATE "C"`
}

func (postgresDialect) tablesQuery() string {
	return "SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema()"
}

func (postgresDialect) migrationDriver(db *sql.DB) (database.Driver, error) {
	return migratepgx.WithInstance(db, &migratepgx.Config{})
}

func (postgresDialect) isBusy(error) bool { return false }
