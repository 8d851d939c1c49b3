package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/dgraph-io/badger/v4"

	"github.com/flowbreak/focusagent/internal/focus"
)

var sessionKeyPrefix = []byte("session/")

func sessionKey(id string) []byte {
	return append(append([]byte{}, sessionKeyPrefix...), id...)
}

// Badger keeps sessions in an in-memory Badger key-value store,
// one JSON document per session.
type Badger struct {
	db *badger.DB
}

// badgerLogger forwards Badger's warnings and errors to the
// standard logger and drops the chatter.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...any) {
	log.Printf("badger: "+format, args...)
}

func (badgerLogger) Warningf(format string, args ...any) {
	log.Printf("badger: warning: "+format, args...)
}

func (badgerLogger) Infof(string, ...any)  {}
func (badgerLogger) Debugf(string, ...any) {}

// OpenBadger creates a fresh in-memory Badger database.
func OpenBadger() (*Badger, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger: %w", err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Put(ctx context.Context, sc focus.SessionContext) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(sc.Clone())
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", sc.SessionID, err)
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sessionKey(sc.SessionID), data)
	})
	if err != nil {
		return fmt.Errorf("writing session %s: %w", sc.SessionID, err)
	}
	return nil
}

func (b *Badger) Get(
	ctx context.Context, id string,
) (focus.SessionContext, error) {
	if err := ctx.Err(); err != nil {
		return focus.SessionContext{}, err
	}
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return focus.SessionContext{}, ErrNotFound
	}
	if err != nil {
		return focus.SessionContext{}, fmt.Errorf("reading session %s: %w", id, err)
	}

	var sc focus.SessionContext
	if err := json.Unmarshal(data, &sc); err != nil {
		return focus.SessionContext{}, fmt.Errorf("decoding session %s: %w", id, err)
	}
	if sc.DomainStats == nil {
		sc.DomainStats = map[string]int{}
	}
	if sc.Events == nil {
		sc.Events = []json.RawMessage{}
	}
	return sc, nil
}

func (b *Badger) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n := 0
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = sessionKeyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return n, nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}
