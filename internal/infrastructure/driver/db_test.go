package driver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryDB(t *testing.T) ITransactionalDB {
	t.Helper()
	conn, err := NewSQLiteConn(MemoryDSN, &DBConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(context.Background()) })
	require.NoError(t, EnsureSchema(context.Background(), conn))
	return conn
}

func TestQueryAdapters(t *testing.T) {
	query := `SELECT "id", name
	FROM decks
	WHERE user_id = $1   AND name = $2`

	assert.Equal(t, "SELECT `id`, name FROM decks WHERE user_id = ? AND name = ?", mysqlAdapter(query))
	assert.Equal(t, `SELECT "id", name FROM decks WHERE user_id = ? AND name = ?`, sqliteAdapter(query))
	assert.Equal(t, `SELECT "id", name FROM decks WHERE user_id = $1 AND name = $2`, pgsqlAdapter(query))
	assert.Equal(t, "a = ? AND b = ?", sqliteAdapter("a = $9 AND b = $10"))
}

func TestGetDSN(t *testing.T) {
	cfg := &DBConfig{User: "root", Password: "secret", Host: "db", Port: 3306, Schema: "bt", Protocol: "tcp", Query: "parseTime=true"}
	assert.Equal(t, "root:secret@tcp(db:3306)/bt?parseTime=true", getDSN(cfg))

	cfg.Protocol = ""
	cfg.Query = ""
	assert.Equal(t, "root:secret@db:3306/bt", getDSN(cfg))
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file::memory:?_foreign_keys=on&_busy_timeout=5000", sqliteDSN(""))
	assert.Equal(t, "file:bt.db?_foreign_keys=on&_busy_timeout=5000", sqliteDSN("bt.db"))
	assert.Equal(t, "file:bt.db?mode=rwc&_foreign_keys=on&_busy_timeout=5000", sqliteDSN("bt.db?mode=rwc"))
}

func TestGetDBConnection_UnknownDriver(t *testing.T) {
	_, err := GetDBConnection(&DBConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	assert.NoError(t, newMemoryDB(t).Ping())

	// nothing listens on port 1, the error surfaces on connect or on the first ping
	conn, err := NewPostgreSQLConn("postgres://bt:bt@127.0.0.1:1/bt?connect_timeout=1", &DBConfig{MaxConn: 1})
	if err != nil {
		return
	}
	defer conn.Close(context.Background())
	assert.Error(t, conn.Ping())
}

func TestSchemaStatements_Dialects(t *testing.T) {
	for _, stmt := range SchemaStatements(DialectMySQL) {
		assert.NotContains(t, stmt, "{{ts}}")
	}
	assert.Contains(t, SchemaStatements(DialectPostgres)[0], "TIMESTAMPTZ")
	assert.Contains(t, SchemaStatements(DialectMySQL)[0], "DATETIME(6)")
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	conn := newMemoryDB(t)
	assert.NoError(t, EnsureSchema(context.Background(), conn))
	assert.NoError(t, conn.Ping())
	assert.Equal(t, DialectSQLite, conn.Dialect())
}

func TestSQLite_RoundTripAndUniqueViolation(t *testing.T) {
	ctx := context.Background()
	conn := newMemoryDB(t)
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	_, err := conn.ExecContext(ctx, `INSERT INTO tags (id, name, color) VALUES ($1, $2, $3)`, "t1", "go", "#6366F1")
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, `INSERT INTO tags (id, name, color) VALUES ($1, $2, $3)`, "t2", "go", "#000000")
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsUniqueViolation(errors.New("boom")))

	_, err = conn.ExecContext(ctx, `INSERT INTO users (id, username, email, password, display_name, bio, theme,
	avatar_url, login_retry, last_login, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		"u1", "ada", "ada@example.com", "x", "Ada", "", "system", "", 0, nil, now, now)
	require.NoError(t, err)

	rows, err := conn.QueryContext(ctx, `SELECT created_at, last_login FROM users WHERE id = $1`, "u1")
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next())
	var created time.Time
	var lastLogin *time.Time
	require.NoError(t, rows.Scan(&created, &lastLogin))
	assert.True(t, now.Equal(created))
	assert.Nil(t, lastLogin)
}

func TestWithTx_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	conn := newMemoryDB(t)
	boom := errors.New("boom")

	err := WithTx(ctx, conn, &TxOptions{}, func(tx ITransactionalDB) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO tags (id, name, color) VALUES ($1, $2, $3)`, "t1", "go", "#fff"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = WithTx(ctx, conn, nil, func(tx ITransactionalDB) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO tags (id, name, color) VALUES ($1, $2, $3)`, "t2", "rust", "#fff")
		return err
	})
	require.NoError(t, err)

	rows, err := conn.QueryContext(ctx, `SELECT name FROM tags ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	assert.Equal(t, []string{"rust"}, names)
}

func TestSQLite_CascadeDelete(t *testing.T) {
	ctx := context.Background()
	conn := newMemoryDB(t)
	now := time.Now().UTC()

	stmts := []struct {
		query string
		args  []interface{}
	}{
		{`INSERT INTO users (id, username, email, password, display_name, bio, theme, avatar_url, login_retry,
		created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			[]interface{}{"u1", "ada", "ada@example.com", "x", "Ada", "", "system", "", 0, now, now}},
		{`INSERT INTO decks (id, user_id, name, created_at) VALUES ($1, $2, $3, $4)`, []interface{}{"d1", "u1", "Go", now}},
		{`INSERT INTO flashcards (id, deck_id, question, answer, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
			[]interface{}{"f1", "d1", "q", "a", now, now}},
		{`DELETE FROM decks WHERE id = $1`, []interface{}{"d1"}},
	}
	for _, s := range stmts {
		_, err := conn.ExecContext(ctx, s.query, s.args...)
		require.NoError(t, err)
	}

	rows, err := conn.QueryContext(ctx, `SELECT COUNT(*) FROM flashcards`)
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next())
	var n int
	require.NoError(t, rows.Scan(&n))
	assert.Equal(t, 0, n)
}
