// Package store keeps the most recently analyzed context for each
// session id for the lifetime of the process.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/flowbreak/focusagent/internal/focus"
)

// ErrNotFound is returned by Get when no context is stored for
// the session id.
var ErrNotFound = errors.New("session not found")

// Backend kinds accepted by Open.
const (
	KindMemory = "memory"
	KindSQLite = "sqlite"
	KindBadger = "badger"
)

// Store maps session ids to their latest context. Put replaces
// an entry wholesale; a concurrent Get observes either the old
// or the new context, never a mix.
type Store interface {
	Put(ctx context.Context, sc focus.SessionContext) error
	Get(ctx context.Context, id string) (focus.SessionContext, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// Open returns the backend named by kind. An empty kind selects
// the memory backend.
func Open(kind string) (Store, error) {
	switch kind {
	case "", KindMemory:
		return NewMemory(), nil
	case KindSQLite:
		return OpenSQLite()
	case KindBadger:
		return OpenBadger()
	default:
		return nil, fmt.Errorf("unknown store kind %q", kind)
	}
}
