package badger

import (
	"fmt"
	"path/filepath"
	"sync"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/marmos91/dittostore/internal/logger"
)

// Badger holds an exclusive lock on its directory, so drives opened on the
// same path share one handle. The handle is closed when the last drive
// using it is closed.
var (
	poolMu sync.Mutex
	pool   = make(map[string]*sharedDB)
)

type sharedDB struct {
	db   *badgerdb.DB
	refs int
}

// poolKey normalizes path so "db" and "./db" share a handle.
func poolKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// acquireDB returns the open database at path, opening it with opts if no
// drive holds it yet.
func acquireDB(path string, opts badgerdb.Options) (*badgerdb.DB, error) {
	key := poolKey(path)

	poolMu.Lock()
	defer poolMu.Unlock()

	if shared, ok := pool[key]; ok {
		shared.refs++
		logger.Debug("Reusing badger database at %q (refs=%d)", key, shared.refs)
		return shared.db, nil
	}

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", path, err)
	}
	pool[key] = &sharedDB{db: db, refs: 1}
	return db, nil
}

// releaseDB drops one reference to the database at path and closes it
// when none remain.
func releaseDB(path string) error {
	key := poolKey(path)

	poolMu.Lock()
	defer poolMu.Unlock()

	shared, ok := pool[key]
	if !ok {
		return nil
	}
	shared.refs--
	if shared.refs > 0 {
		return nil
	}
	delete(pool, key)
	return shared.db.Close()
}
