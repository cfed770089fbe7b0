package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/wishkeeper/internal/server/migrations"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteStore keeps documents as JSON text and queries them with the json1
// functions.
type SQLiteStore struct {
	sqlStore
}

var sqliteDialect = dialect{
	placeholder: func(int) string { return "?" },
	upsert: `INSERT INTO records (collection, id, doc) VALUES (?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET doc = excluded.doc, updated_at = CURRENT_TIMESTAMP`,
	equals: func(field, ph string) string {
		return fmt.Sprintf("json_extract(doc, '$.%s') = %s", field, ph)
	},
	contains: func(field, ph string) string {
		return fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(records.doc, '$.%s') WHERE json_each.value = %s)", field, ph)
	},
	isDuplicate: func(err error) bool {
		var se *sqlite.Error
		if !errors.As(err, &se) {
			return false
		}
		code := se.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE"))
	},
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{sqlStore{db: db, d: sqliteDialect}}
}

// OpenSQLite opens dsn with the modernc driver and applies the embedded
// migrations. A single connection is used so writers never see SQLITE_BUSY.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := NewSQLiteStore(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if err := runMigrations(ctx, s.db, migrations.SQLite, "sqlite3", "sqlite"); err != nil {
		return fmt.Errorf("sqlite migrations: %w", err)
	}
	return nil
}
