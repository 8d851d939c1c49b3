package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowbreak/focusagent/internal/focus"
)

func openBackends(t *testing.T) map[string]Store {
	t.Helper()
	out := map[string]Store{}
	for _, kind := range []string{KindMemory, KindSQLite, KindBadger} {
		s, err := Open(kind)
		require.NoError(t, err, kind)
		t.Cleanup(func() { s.Close() })
		out[kind] = s
	}
	return out
}

func sample(id string, score float64) focus.SessionContext {
	return focus.SessionContext{
		SessionID:       id,
		FocusScore:      score,
		MaxScore:        100,
		AttentionBreaks: 7,
		IdleMinutes:     12.5,
		DomainStats:     map[string]int{"github.com": 4, "youtube.com": 9},
		Events: []json.RawMessage{
			json.RawMessage(`{"event_type":"TAB_SWITCH","domain":"github.com"}`),
		},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for kind, s := range openBackends(t) {
		t.Run(kind, func(t *testing.T) {
			want := sample("s1", 42)
			require.NoError(t, s.Put(ctx, want))

			got, err := s.Get(ctx, "s1")
			require.NoError(t, err)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Get() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStoreNotFound(t *testing.T) {
	ctx := context.Background()
	for kind, s := range openBackends(t) {
		t.Run(kind, func(t *testing.T) {
			_, err := s.Get(ctx, "missing")
			assert.True(t, errors.Is(err, ErrNotFound), "err = %v", err)
		})
	}
}

func TestStoreLastWriteWins(t *testing.T) {
	ctx := context.Background()
	for kind, s := range openBackends(t) {
		t.Run(kind, func(t *testing.T) {
			require.NoError(t, s.Put(ctx, sample("s1", 10)))

			replacement := focus.SessionContext{
				SessionID:   "s1",
				FocusScore:  90,
				MaxScore:    100,
				DomainStats: map[string]int{},
				Events:      []json.RawMessage{},
			}
			require.NoError(t, s.Put(ctx, replacement))

			got, err := s.Get(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, 90.0, got.FocusScore)
			assert.Empty(t, got.DomainStats)
			assert.Empty(t, got.Events)

			n, err := s.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestStoreIsolatesCallerMutation(t *testing.T) {
	ctx := context.Background()
	for kind, s := range openBackends(t) {
		t.Run(kind, func(t *testing.T) {
			sc := sample("s1", 50)
			require.NoError(t, s.Put(ctx, sc))
			sc.DomainStats["github.com"] = 1000

			got, err := s.Get(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, 4, got.DomainStats["github.com"])

			got.DomainStats["github.com"] = 2000
			again, err := s.Get(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, 4, again.DomainStats["github.com"])
		})
	}
}

// Readers racing with writers must only ever see one of the
// complete contexts that were written.
func TestStoreConcurrentReplace(t *testing.T) {
	ctx := context.Background()
	for kind, s := range openBackends(t) {
		t.Run(kind, func(t *testing.T) {
			require.NoError(t, s.Put(ctx, consistent(0)))

			var wg sync.WaitGroup
			for w := range 4 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := range 50 {
						assert.NoError(t, s.Put(ctx, consistent(w*100+i)))
					}
				}()
			}
			for range 4 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for range 50 {
						got, err := s.Get(ctx, "shared")
						if !assert.NoError(t, err) {
							return
						}
						assertConsistent(t, got)
					}
				}()
			}
			wg.Wait()
		})
	}
}

// consistent builds a context whose every field encodes n.
func consistent(n int) focus.SessionContext {
	return focus.SessionContext{
		SessionID:       "shared",
		FocusScore:      float64(n),
		MaxScore:        100,
		AttentionBreaks: n,
		IdleMinutes:     float64(n),
		DomainStats:     map[string]int{fmt.Sprintf("d%d.com", n): n},
		Events:          []json.RawMessage{},
	}
}

func assertConsistent(t *testing.T, sc focus.SessionContext) {
	t.Helper()
	n := sc.AttentionBreaks
	assert.Equal(t, float64(n), sc.FocusScore)
	assert.Equal(t, float64(n), sc.IdleMinutes)
	assert.Equal(t, map[string]int{fmt.Sprintf("d%d.com", n): n}, sc.DomainStats)
}

func TestOpenUnknownKind(t *testing.T) {
	_, err := Open("redis")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestSQLiteHandlesAreIndependent(t *testing.T) {
	ctx := context.Background()
	a, err := OpenSQLite()
	require.NoError(t, err)
	defer a.Close()
	b, err := OpenSQLite()
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Put(ctx, sample("only-a", 1)))

	_, err = b.Get(ctx, "only-a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBadgerCountIgnoresOtherKeys(t *testing.T) {
	ctx := context.Background()
	b, err := OpenBadger()
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Put(ctx, sample("s1", 10)))
	require.NoError(t, b.Put(ctx, sample("s2", 20)))
	require.NoError(t, b.Put(ctx, sample("s1", 30)))

	n, err := b.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := b.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 30.0, got.FocusScore)
}
