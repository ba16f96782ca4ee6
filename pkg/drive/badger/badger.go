// Package badger implements a persistent drive on top of BadgerDB.
//
// Entries and their readers are stored together in one JSON record per
// entry, so the drive supports ACLs and survives restarts.
package badger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/marmos91/dittostore/internal/logger"
	"github.com/marmos91/dittostore/pkg/drive"
)

// Config configures a BadgerDrive.
type Config struct {
	// DBPath is the directory holding the database files.
	// Ignored when InMemory is set.
	DBPath string

	// InMemory keeps the database entirely in RAM (tests, scratch drives)
	InMemory bool

	// BlockCacheSizeMB is the block cache size in MB (default 64)
	BlockCacheSizeMB int64

	// IndexCacheSizeMB is the index cache size in MB (default 32)
	IndexCacheSizeMB int64
}

// BadgerDrive implements drive.AclDrive on a BadgerDB database.
//
// Thread Safety:
// Every operation runs in its own Badger transaction.
type BadgerDrive struct {
	db   *badgerdb.DB
	path string

	// shared is set when db comes from the per-path pool
	shared    bool
	closeOnce sync.Once
	closeErr  error

	// now is replaceable in tests
	now func() time.Time
}

// NewBadgerDrive opens (or creates) the database described by config.
func NewBadgerDrive(ctx context.Context, config Config) (*BadgerDrive, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if config.DBPath == "" && !config.InMemory {
		return nil, drive.NewInvalidArgumentError("Badger drive requires a database path")
	}

	opts := badgerdb.DefaultOptions(config.DBPath)
	if config.InMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLoggingLevel(badgerdb.WARNING)
	opts = opts.WithCompression(options.None)

	blockCacheMB := config.BlockCacheSizeMB
	if blockCacheMB == 0 {
		blockCacheMB = 64
	}
	indexCacheMB := config.IndexCacheSizeMB
	if indexCacheMB == 0 {
		indexCacheMB = 32
	}
	opts = opts.WithBlockCacheSize(blockCacheMB << 20)
	opts = opts.WithIndexCacheSize(indexCacheMB << 20)

	if config.InMemory {
		db, err := badgerdb.Open(opts)
		if err != nil {
			return nil, fmt.Errorf("failed to open in-memory BadgerDB: %w", err)
		}
		logger.Debug("Opened in-memory badger drive %q", config.DBPath)
		return &BadgerDrive{db: db, path: config.DBPath, now: time.Now}, nil
	}

	db, err := acquireDB(config.DBPath, opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("Opened badger drive at %q", config.DBPath)

	return &BadgerDrive{db: db, path: config.DBPath, shared: true, now: time.Now}, nil
}

// Close releases the underlying database. An on-disk database stays open
// while other drives on the same path use it. Safe to call more than once.
func (d *BadgerDrive) Close() error {
	d.closeOnce.Do(func() {
		if d.shared {
			d.closeErr = releaseDB(d.path)
			return
		}
		d.closeErr = d.db.Close()
	})
	return d.closeErr
}

// loadEntry reads the record for name inside txn.
func loadEntry(txn *badgerdb.Txn, name string) (*entryRecord, error) {
	item, err := txn.Get(keyEntry(name))
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, drive.NewNotFoundError("Entry not found", name)
	}
	if err != nil {
		return nil, drive.NewIOError(name, err)
	}

	var rec *entryRecord
	err = item.Value(func(val []byte) error {
		var decodeErr error
		rec, decodeErr = decodeEntry(val)
		return decodeErr
	})
	if err != nil {
		return nil, drive.NewIOError(name, err)
	}
	return rec, nil
}

// storeEntry writes the record for name inside txn.
func storeEntry(txn *badgerdb.Txn, name string, rec *entryRecord) error {
	data, err := encodeEntry(rec)
	if err != nil {
		return drive.NewIOError(name, err)
	}
	if err := txn.Set(keyEntry(name), data); err != nil {
		return drive.NewIOError(name, err)
	}
	return nil
}

// Delete removes the entry and its readers.
func (d *BadgerDrive) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return d.db.Update(func(txn *badgerdb.Txn) error {
		if _, err := txn.Get(keyEntry(name)); err != nil {
			if errors.Is(err, badgerdb.ErrKeyNotFound) {
				return drive.NewNotFoundError("Entry not found", name)
			}
			return drive.NewIOError(name, err)
		}
		if err := txn.Delete(keyEntry(name)); err != nil {
			return drive.NewIOError(name, err)
		}
		return nil
	})
}

// Enumerate scans all entry keys in order.
func (d *BadgerDrive) Enumerate(ctx context.Context) ([]drive.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := make([]drive.DirEntry, 0)
	err := d.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(prefixEntry)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			name := nameFromKey(item.Key())
			err := item.Value(func(val []byte) error {
				rec, err := decodeEntry(val)
				if err != nil {
					return err
				}
				entries = append(entries, drive.DirEntry{
					Name: name,
					Metadata: drive.Metadata{
						ModTime: rec.ModTime,
						Length:  uint64(len(rec.Content)),
					},
				})
				return nil
			})
			if err != nil {
				return drive.NewIOError(name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Get returns the entry's content.
func (d *BadgerDrive) Get(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var content string
	err := d.db.View(func(txn *badgerdb.Txn) error {
		rec, err := loadEntry(txn, name)
		if err != nil {
			return err
		}
		content = rec.Content
		return nil
	})
	return content, err
}

// Put stores the content, keeping readers of an existing entry.
func (d *BadgerDrive) Put(ctx context.Context, name, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return d.db.Update(func(txn *badgerdb.Txn) error {
		rec, err := loadEntry(txn, name)
		if err != nil {
			if !drive.IsNotFound(err) {
				return err
			}
			rec = &entryRecord{}
		}
		rec.Content = content
		rec.ModTime = d.now().UTC()
		return storeEntry(txn, name, rec)
	})
}

// GetAcls returns the entry's readers.
func (d *BadgerDrive) GetAcls(ctx context.Context, name string) (drive.FileAcls, error) {
	if err := ctx.Err(); err != nil {
		return drive.FileAcls{}, err
	}

	var acls drive.FileAcls
	err := d.db.View(func(txn *badgerdb.Txn) error {
		rec, err := loadEntry(txn, name)
		if err != nil {
			return err
		}
		acls = rec.acls()
		return nil
	})
	return acls, err
}

// UpdateAcls merges the delta into the entry's readers in one transaction.
func (d *BadgerDrive) UpdateAcls(ctx context.Context, name string, add, remove drive.FileAcls) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return d.db.Update(func(txn *badgerdb.Txn) error {
		rec, err := loadEntry(txn, name)
		if err != nil {
			return err
		}
		rec.setAcls(rec.acls().Merge(add, remove))
		return storeEntry(txn, name, rec)
	})
}

// Factory creates badger drives for the "badger" scheme.
//
// badger:///var/lib/drive opens the database at /var/lib/drive. Cache sizes
// come from the scheme's configuration. With InMemory set every mount gets
// a fresh RAM-only database and the location is only used as a label.
type Factory struct {
	BlockCacheSizeMB int64
	IndexCacheSizeMB int64
	InMemory         bool
}

// Create implements storage.SchemeFactory.
func (f Factory) Create(ctx context.Context, target drive.MountTarget) (drive.Drive, error) {
	return NewBadgerDrive(ctx, Config{
		DBPath:           target.Location(),
		InMemory:         f.InMemory,
		BlockCacheSizeMB: f.BlockCacheSizeMB,
		IndexCacheSizeMB: f.IndexCacheSizeMB,
	})
}
