package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/flowbreak/focusagent/internal/focus"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    id               TEXT PRIMARY KEY,
    focus_score      REAL NOT NULL,
    max_score        REAL NOT NULL,
    attention_breaks INTEGER NOT NULL,
    idle_minutes     REAL NOT NULL,
    domain_stats     TEXT NOT NULL DEFAULT '{}',
    events           TEXT NOT NULL DEFAULT '[]'
);
`

const upsertSQL = `
INSERT INTO sessions (
    id, focus_score, max_score, attention_breaks,
    idle_minutes, domain_stats, events
) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    focus_score      = excluded.focus_score,
    max_score        = excluded.max_score,
    attention_breaks = excluded.attention_breaks,
    idle_minutes     = excluded.idle_minutes,
    domain_stats     = excluded.domain_stats,
    events           = excluded.events
`

// SQLite keeps sessions in a private in-memory SQLite database.
// Nothing is written to disk; the data lives as long as the
// handle is open.
type SQLite struct {
	db *sql.DB
	mu sync.Mutex // serializes writes
}

// makeDSN builds a DSN for a named in-memory database.
func makeDSN(name string) string {
	params := url.Values{}
	params.Set("mode", "memory")
	params.Set("_busy_timeout", "5000")
	return "file:" + name + "?" + params.Encode()
}

// OpenSQLite creates a fresh in-memory database.
func OpenSQLite() (*SQLite, error) {
	db, err := sql.Open("sqlite3", makeDSN("focusagent-"+uuid.NewString()))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// A private memory database exists per connection, so the
	// pool must never open a second one or drop the first.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// update runs fn inside a write transaction, committing when fn
// returns nil.
func (s *SQLite) update(
	ctx context.Context, fn func(tx *sql.Tx) error,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) Put(ctx context.Context, sc focus.SessionContext) error {
	c := sc.Clone()
	domains, err := json.Marshal(c.DomainStats)
	if err != nil {
		return fmt.Errorf("encoding domain stats: %w", err)
	}
	events, err := json.Marshal(c.Events)
	if err != nil {
		return fmt.Errorf("encoding events: %w", err)
	}

	return s.update(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, upsertSQL,
			c.SessionID, c.FocusScore, c.MaxScore,
			c.AttentionBreaks, c.IdleMinutes,
			string(domains), string(events),
		)
		if err != nil {
			return fmt.Errorf("upserting session %s: %w", c.SessionID, err)
		}
		return nil
	})
}

func (s *SQLite) Get(
	ctx context.Context, id string,
) (focus.SessionContext, error) {
	var (
		sc      focus.SessionContext
		domains string
		events  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, focus_score, max_score, attention_breaks,
		        idle_minutes, domain_stats, events
		 FROM sessions WHERE id = ?`, id,
	).Scan(
		&sc.SessionID, &sc.FocusScore, &sc.MaxScore,
		&sc.AttentionBreaks, &sc.IdleMinutes, &domains, &events,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return focus.SessionContext{}, ErrNotFound
	}
	if err != nil {
		return focus.SessionContext{}, fmt.Errorf("reading session %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(domains), &sc.DomainStats); err != nil {
		return focus.SessionContext{}, fmt.Errorf("decoding domain stats: %w", err)
	}
	if err := json.Unmarshal([]byte(events), &sc.Events); err != nil {
		return focus.SessionContext{}, fmt.Errorf("decoding events: %w", err)
	}
	if sc.DomainStats == nil {
		sc.DomainStats = map[string]int{}
	}
	if sc.Events == nil {
		sc.Events = []json.RawMessage{}
	}
	return sc, nil
}

func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		"SELECT count(*) FROM sessions",
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return n, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
