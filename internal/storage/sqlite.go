// Package storage persists a best-effort journal of dispatch outcomes.
//
// The journal is purely observational: the dispatcher never reads it, and a
// storage fault never blocks or fails a notification.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	logx "taskchime/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

const defaultMaxRows = 2000

// pruneEvery bounds how often the row cap is enforced.
const pruneEvery = 50

type Config struct {
	Path    string
	MaxRows int
}

// Entry is one journal row.
type Entry struct {
	At        time.Time
	Event     string
	Channel   string
	Platform  string
	Mechanism string
	Detail    string
}

type Store struct {
	db  *sql.DB
	log logx.Logger

	maxRows int
	opCount atomic.Uint64
}

func Open(cfg Config, log logx.Logger) (*Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("history.path is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	maxRows := cfg.MaxRows
	if maxRows <= 0 {
		maxRows = defaultMaxRows
	}

	s := &Store{db: db, log: log, maxRows: maxRows}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Append(ctx context.Context, e Entry) error {
	if s == nil || s.db == nil {
		return nil
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dispatches(at, event, channel, platform, mechanism, detail)
		 VALUES(?,?,?,?,?,?)`,
		e.At.Format(time.RFC3339Nano), e.Event, e.Channel, e.Platform, e.Mechanism, e.Detail,
	)
	if err != nil {
		return err
	}

	if s.opCount.Add(1)%pruneEvery == 0 {
		s.prune(ctx)
	}
	return nil
}

// Recent returns the newest entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, event, channel, platform, mechanism, detail
		 FROM dispatches ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var at string
		if err := rows.Scan(&at, &e.Event, &e.Channel, &e.Platform, &e.Mechanism, &e.Detail); err != nil {
			return nil, err
		}
		if t, perr := time.Parse(time.RFC3339Nano, at); perr == nil {
			e.At = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) prune(ctx context.Context) {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM dispatches WHERE id <= (
		   SELECT id FROM dispatches ORDER BY id DESC LIMIT 1 OFFSET ?
		 )`, s.maxRows)
	if err != nil {
		s.log.Warn("history prune failed", logx.Err(err))
	}
}
