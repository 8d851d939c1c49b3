// Package agent implements the Analyze and Chat operations on top
// of a session store.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/flowbreak/focusagent/internal/focus"
	"github.com/flowbreak/focusagent/internal/store"
)

// Agent answers analysis and chat requests. It is safe for
// concurrent use when the underlying store is.
type Agent struct {
	store store.Store
}

// New returns an Agent backed by s.
func New(s store.Store) *Agent {
	return &Agent{store: s}
}

// Analyze stores m as the session's context, replacing any
// earlier one, and returns the analysis of m itself.
func (a *Agent) Analyze(
	ctx context.Context, m focus.SessionMetrics,
) (focus.Analysis, error) {
	if m.Events == nil {
		m.Events = []json.RawMessage{}
	}
	if m.DomainStats == nil {
		m.DomainStats = map[string]int{}
	}
	if err := a.store.Put(ctx, m); err != nil {
		return focus.Analysis{}, fmt.Errorf("storing session: %w", err)
	}
	return focus.Analyze(m), nil
}

// Chat answers question from the context stored for
// sessionID. An unknown session is not an error; it yields the
// fixed no-session answer.
func (a *Agent) Chat(
	ctx context.Context, sessionID, question string,
) (focus.Answer, error) {
	sc, err := a.store.Get(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return focus.Route(nil, question), nil
	}
	if err != nil {
		return focus.Answer{}, fmt.Errorf("loading session: %w", err)
	}
	return focus.Route(&sc, question), nil
}

// SessionCount returns the number of stored sessions.
func (a *Agent) SessionCount(ctx context.Context) (int, error) {
	return a.store.Count(ctx)
}
