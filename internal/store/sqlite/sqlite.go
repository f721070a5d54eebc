// Package sqlite is the SQLite-backed implementation of store.Store, built
// on the pure-Go github.com/ncruces/go-sqlite3 driver so the engine never
// needs cgo. Every connection goes through a single pooled *sql.DB with
// SetMaxOpenConns(1): SQLite allows only one writer at a time, and routing
// every statement through one connection avoids "database is locked" churn
// under WAL.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/steveyegge/graphengine/internal/store/layout"
	"github.com/steveyegge/graphengine/internal/store/sqlite/migrations"
)

// Store is the SQLite-backed store.Store implementation.
type Store struct {
	db               *sql.DB
	path             string
	analyticsEnabled bool
}

// Option configures optional behavior on Open/OpenOrCreate.
type Option func(*options)

type options struct {
	analyticsEnabled bool
}

func defaultOptions() options {
	return options{analyticsEnabled: true}
}

// WithAnalytics toggles whether WriteCommit/PutCommit populate the
// commit_summaries/commit_changes analytics projection (§4.E). Enabled by
// default; callers that only need history and state can disable it to skip
// that bookkeeping.
func WithAnalytics(enabled bool) Option {
	return func(o *options) { o.analyticsEnabled = enabled }
}

// connString builds the driver DSN: WAL journaling, a busy timeout so
// concurrent readers never see "database is locked", and foreign-key
// enforcement for the commits/summaries/changes relationships.
func connString(path string, busy time.Duration) string {
	return fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)",
		path, busy.Milliseconds(),
	)
}

// Open resolves (but does not provision) the datastore directory dir,
// opens its database file, and brings the schema up to date.
func Open(dir string, opts ...Option) (*Store, error) {
	path, err := layout.Resolve(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve datastore %q: %w", dir, err)
	}
	return openPath(path, opts)
}

// OpenOrCreate provisions dir if necessary, then opens it.
func OpenOrCreate(dir string, opts ...Option) (*Store, error) {
	path, err := layout.Provision(dir, "")
	if err != nil {
		return nil, fmt.Errorf("provision datastore %q: %w", dir, err)
	}
	return openPath(path, opts)
}

func openPath(path string, opts []Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sql.Open("sqlite3", connString(path, 30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database %q: %w", path, err)
	}

	return &Store{db: db, path: path, analyticsEnabled: o.analyticsEnabled}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
