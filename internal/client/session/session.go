// Package session keeps the CLI logged in across runs by caching the
// bearer token and the user it belongs to in a local sqlite database.
package session

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/wishkeeper/internal/dbx"
	"github.com/dmitrijs2005/wishkeeper/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	keyToken    = "token"
	keyUserID   = "user_id"
	keyUsername = "username"
	keyServer   = "server"
)

// gooseMu serialises goose's package-level configuration.
var gooseMu sync.Mutex

// State is the cached login.
type State struct {
	Token    string
	UserID   string
	Username string
	// Server is the base URL the token was issued by.
	Server string
}

type Cache struct {
	db *sql.DB
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)

	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, "migrations")
}

// Open opens (creating if needed) the cache database at dsn and migrates it.
func Open(ctx context.Context, dsn string) (*Cache, error) {
	if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		if err := filex.EnsureParentDir(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("session migrations: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Load returns the cached state, or nil when nobody is logged in.
func (c *Cache) Load(ctx context.Context) (*State, error) {
	all, err := metadata{db: c.db}.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(all[keyToken]) == 0 {
		return nil, nil
	}
	return &State{
		Token:    string(all[keyToken]),
		UserID:   string(all[keyUserID]),
		Username: string(all[keyUsername]),
		Server:   string(all[keyServer]),
	}, nil
}

// Save replaces the cached state atomically.
func (c *Cache) Save(ctx context.Context, s State) error {
	return dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		m := metadata{db: tx}
		if err := m.Clear(ctx); err != nil {
			return err
		}
		for k, v := range map[string]string{
			keyToken:    s.Token,
			keyUserID:   s.UserID,
			keyUsername: s.Username,
			keyServer:   s.Server,
		} {
			if err := m.Set(ctx, k, []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Clear forgets the cached login.
func (c *Cache) Clear(ctx context.Context) error {
	return metadata{db: c.db}.Clear(ctx)
}
