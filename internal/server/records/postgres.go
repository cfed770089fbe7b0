package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/wishkeeper/internal/server/migrations"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const pgUniqueViolation = "23505"

// PostgresStore keeps documents in a jsonb column.
type PostgresStore struct {
	sqlStore
}

var postgresDialect = dialect{
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	upsert: `INSERT INTO records (collection, id, doc) VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
	equals: func(field, ph string) string {
		return fmt.Sprintf("doc->>'%s' = %s", field, ph)
	},
	contains: func(field, ph string) string {
		return fmt.Sprintf("doc->'%s' @> jsonb_build_array(%s::text)", field, ph)
	},
	isDuplicate: func(err error) bool {
		var pgErr *pgconn.PgError
		return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
	},
}

// NewPostgresStore wraps an open connection. The schema is expected to be
// in place; see Migrate.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{sqlStore{db: db, d: postgresDialect}}
}

// OpenPostgres connects through the pgx driver and applies the embedded
// migrations.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := NewPostgresStore(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if err := runMigrations(ctx, s.db, migrations.Postgres, "pgx", "postgres"); err != nil {
		return fmt.Errorf("postgres migrations: %w", err)
	}
	return nil
}
