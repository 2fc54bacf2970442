package driver

import (
	"database/sql"
	"strings"

	// sqlite driver
	_ "github.com/mattn/go-sqlite3"
)

// MemoryDSN in-memory sqlite database, lives as long as the pool
const MemoryDSN = ":memory:"

// NewSQLiteConn Returns a SQLite connection pool on the given file.
//
// The pool is limited to a single connection: sqlite serializes writers anyway and an
// in-memory database would otherwise be different for every connection.
func NewSQLiteConn(file string, cfg *DBConfig) (ITransactionalDB, error) {
	conn, err := sql.Open("sqlite3", sqliteDSN(file))
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)
	return &SQLWrapper{db: conn, dialect: DialectSQLite, adapt: sqliteAdapter}, nil
}

func sqliteDSN(file string) string {
	if file == "" || file == MemoryDSN {
		return "file::memory:?_foreign_keys=on&_busy_timeout=5000"
	}
	sep := "?"
	if strings.Contains(file, "?") {
		sep = "&"
	}
	return "file:" + file + sep + "_foreign_keys=on&_busy_timeout=5000"
}

func sqliteAdapter(query string) string {
	query = DollarPlaceholderPattern.ReplaceAllString(query, "?")
	query = SpacePattern.ReplaceAllString(query, " ")
	return query
}
