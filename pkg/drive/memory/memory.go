package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/marmos91/dittostore/pkg/drive"
)

// fakeModTime is the modification time reported for every entry.
// Entries do not track real mtimes; 2020-05-06T09:37:55Z.
var fakeModTime = time.Unix(1_588_757_875, 0).UTC()

// Drive implements drive.AclDrive using in-memory maps.
//
// Designed for tests, demos and scratch space. Contents are lost when the
// drive is unmounted or the process exits.
//
// Thread Safety:
// All operations are protected by a sync.RWMutex.
type Drive struct {
	// programs maps entry names to their content
	programs map[string]string

	// acls maps entry names to their readers; absent means no readers
	acls map[string]drive.FileAcls

	mu sync.RWMutex
}

// New creates an empty in-memory drive.
func New() *Drive {
	return &Drive{
		programs: make(map[string]string),
		acls:     make(map[string]drive.FileAcls),
	}
}

// Contents returns a snapshot of all entries and their content.
func (d *Drive) Contents() map[string]string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[string]string, len(d.programs))
	for name, content := range d.programs {
		out[name] = content
	}
	return out
}

// ============================================================================
// drive.Drive Implementation
// ============================================================================

// Delete removes the entry and its ACLs.
func (d *Drive) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.programs[name]; !exists {
		return drive.NewNotFoundError("Entry not found", name)
	}
	delete(d.programs, name)
	delete(d.acls, name)
	return nil
}

// Enumerate lists all entries sorted by name.
//
// Lengths are byte lengths; every entry reports the same fixed ModTime.
func (d *Drive) Enumerate(ctx context.Context) ([]drive.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.programs))
	for name := range d.programs {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]drive.DirEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, drive.DirEntry{
			Name: name,
			Metadata: drive.Metadata{
				ModTime: fakeModTime,
				Length:  uint64(len(d.programs[name])),
			},
		})
	}
	return entries, nil
}

// Get returns the content of the entry.
func (d *Drive) Get(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	content, exists := d.programs[name]
	if !exists {
		return "", drive.NewNotFoundError("Entry not found", name)
	}
	return content, nil
}

// Put creates or replaces the entry. Existing ACLs are kept.
func (d *Drive) Put(ctx context.Context, name, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.programs[name] = content
	return nil
}

// ============================================================================
// drive.AclDrive Implementation
// ============================================================================

// GetAcls returns the readers of the entry.
func (d *Drive) GetAcls(ctx context.Context, name string) (drive.FileAcls, error) {
	if err := ctx.Err(); err != nil {
		return drive.FileAcls{}, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if _, exists := d.programs[name]; !exists {
		return drive.FileAcls{}, drive.NewNotFoundError("Entry not found", name)
	}
	return d.acls[name], nil
}

// UpdateAcls merges add and remove into the entry's readers.
func (d *Drive) UpdateAcls(ctx context.Context, name string, add, remove drive.FileAcls) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.programs[name]; !exists {
		return drive.NewNotFoundError("Entry not found", name)
	}

	merged := d.acls[name].Merge(add, remove)
	if merged.IsEmpty() {
		delete(d.acls, name)
	} else {
		d.acls[name] = merged
	}
	return nil
}

// Factory creates in-memory drives for the "memory" scheme.
//
// Every mount gets a fresh, empty drive; the authority and path are ignored.
type Factory struct{}

// Create implements storage.SchemeFactory.
func (Factory) Create(ctx context.Context, _ drive.MountTarget) (drive.Drive, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return New(), nil
}
