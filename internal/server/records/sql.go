package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
)

// dialect captures what differs between the SQL backends: placeholder
// syntax, JSON path expressions and how unique violations surface.
type dialect struct {
	placeholder func(n int) string
	upsert      string
	equals      func(field, ph string) string
	contains    func(field, ph string) string
	isDuplicate func(error) bool
}

// sqlStore keeps every collection in a single records table keyed by
// (collection, id).
type sqlStore struct {
	db *sql.DB
	d  dialect
}

func (s *sqlStore) Save(ctx context.Context, collection, id string, doc []byte) error {
	_, err := s.db.ExecContext(ctx, s.d.upsert, collection, id, string(doc))
	if err != nil {
		if s.d.isDuplicate(err) {
			return fmt.Errorf("%w: %s/%s", ErrDuplicate, collection, id)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *sqlStore) FindByID(ctx context.Context, collection, id string) ([]byte, error) {
	query := fmt.Sprintf(`SELECT doc FROM records WHERE collection = %s AND id = %s`,
		s.d.placeholder(1), s.d.placeholder(2))

	var doc []byte
	err := s.db.QueryRowContext(ctx, query, collection, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc, nil
}

func (s *sqlStore) Find(ctx context.Context, collection string, p Predicate) ([][]byte, error) {
	query, args, err := s.findQuery(collection, p)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([][]byte, 0)
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (s *sqlStore) findQuery(collection string, p Predicate) (string, []any, error) {
	if err := p.Validate(); err != nil {
		return "", nil, err
	}

	var b strings.Builder
	args := []any{collection}
	b.WriteString("SELECT doc FROM records WHERE collection = ")
	b.WriteString(s.d.placeholder(1))

	if len(p.Any) > 0 {
		parts := make([]string, 0, len(p.Any))
		for _, c := range p.Any {
			args = append(args, c.Value)
			ph := s.d.placeholder(len(args))
			switch c.Op {
			case OpEquals:
				parts = append(parts, s.d.equals(c.Field, ph))
			case OpContains:
				parts = append(parts, s.d.contains(c.Field, ph))
			}
		}
		b.WriteString(" AND (")
		b.WriteString(strings.Join(parts, " OR "))
		b.WriteString(")")
	}
	b.WriteString(" ORDER BY created_at, id")
	return b.String(), args, nil
}

func (s *sqlStore) DeleteByID(ctx context.Context, collection, id string) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM records WHERE collection = %s AND id = %s`,
		s.d.placeholder(1), s.d.placeholder(2))

	res, err := s.db.ExecContext(ctx, query, collection, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (s *sqlStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func runMigrations(ctx context.Context, db *sql.DB, fsys fs.FS, gooseDialect, dir string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(fsys)
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, dir)
}
