// Package drive defines the contract every storage backend implements.
//
// A drive is a flat collection of named text entries. Drives are mounted
// under a name by the storage manager (pkg/storage) and addressed with
// paths of the form NAME:/entry. The contract is deliberately small:
//
//   - Delete removes an entry (ErrNotFound if absent)
//   - Enumerate lists all entries sorted by name
//   - Get returns an entry's content (ErrNotFound if absent)
//   - Put creates or overwrites an entry
//
// Drives that can track per-file readers additionally implement AclDrive.
// Drives that hold resources (database handles, connections) implement
// io.Closer and are closed by the storage manager when unmounted.
package drive

import (
	"context"
	"sort"
	"time"
)

// Metadata describes a single entry as reported by Enumerate.
type Metadata struct {
	// ModTime is the last modification time of the entry
	ModTime time.Time

	// Length is the content length in bytes
	Length uint64
}

// DirEntry is one element of an Enumerate result.
type DirEntry struct {
	Name string
	Metadata
}

// Drive is the uniform CRUD contract shared by all backends.
//
// Implementations must be safe for concurrent use. Operations only affect
// the drive they are called on; there are no cross-drive transactions.
type Drive interface {
	// Delete removes the named entry.
	//
	// Returns ErrNotFound if the entry does not exist.
	Delete(ctx context.Context, name string) error

	// Enumerate lists all entries sorted ascending by name.
	//
	// An empty drive returns an empty slice and no error.
	Enumerate(ctx context.Context) ([]DirEntry, error)

	// Get returns the content of the named entry.
	//
	// Returns ErrNotFound if the entry does not exist.
	Get(ctx context.Context, name string) (string, error)

	// Put creates the named entry or replaces its content.
	//
	// Put never fails because the entry already exists.
	Put(ctx context.Context, name, content string) error
}

// AclDrive is implemented by drives that track readers per entry.
//
// The storage manager returns ErrNotSupported for ACL operations on drives
// that do not implement this interface.
type AclDrive interface {
	Drive

	// GetAcls returns the readers of the named entry.
	//
	// Returns ErrNotFound if the entry does not exist.
	GetAcls(ctx context.Context, name string) (FileAcls, error)

	// UpdateAcls adds the readers in add and then removes the readers in
	// remove, so a reader named in both ends up removed.
	//
	// Returns ErrNotFound if the entry does not exist.
	UpdateAcls(ctx context.Context, name string, add, remove FileAcls) error
}

// SortEntries sorts entries ascending by name in place.
func SortEntries(entries []DirEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
}
