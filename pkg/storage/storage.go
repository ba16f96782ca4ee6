// Package storage implements the storage manager: a scheme registry, a
// mount table binding drive names to live drives, and routing of
// drive-qualified paths (NAME:/entry) to the right backend.
package storage

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/marmos91/dittostore/internal/logger"
	"github.com/marmos91/dittostore/pkg/drive"
	"github.com/marmos91/dittostore/pkg/drive/fs"
	"github.com/marmos91/dittostore/pkg/drive/memory"
)

// SchemeFactory builds a drive for a scheme-routed mount target.
//
// Factories are explicit objects holding whatever they need (clients,
// credentials) so they can build one drive per mount request.
type SchemeFactory interface {
	Create(ctx context.Context, target drive.MountTarget) (drive.Drive, error)
}

// Metrics observes routed storage operations. Optional.
type Metrics interface {
	// ObserveOperation records one routed operation and its outcome
	ObserveOperation(operation, driveName string, duration time.Duration, err error)

	// SetMountedDrives records the size of the mount table
	SetMountedDrives(n int)
}

type noopMetrics struct{}

func (noopMetrics) ObserveOperation(string, string, time.Duration, error) {}
func (noopMetrics) SetMountedDrives(int)                                  {}

// MountInfo describes one mount for listing.
type MountInfo struct {
	// Name is the drive name, e.g. "CLOUD"
	Name string

	// Target is the mount descriptor, e.g. "cloud://alice"
	Target string
}

// mountEntry is a live binding in the mount table.
type mountEntry struct {
	target drive.MountTarget
	drive  drive.Drive

	// inflight counts routed operations still using drive. Add happens
	// under Storage.mu while the entry is in the table.
	inflight sync.WaitGroup
}

// retire waits for in-flight operations on an entry that has left the
// mount table, then closes its drive.
func retire(name string, entry *mountEntry) {
	if entry == nil {
		return
	}
	entry.inflight.Wait()
	closeDrive(name, entry.drive)
}

// Storage owns the scheme registry and the mount table.
//
// Example usage:
//
//	s := storage.NewStorage(nil)
//	_ = s.Mount(ctx, "MEMORY", "memory://")
//	_ = s.Put(ctx, "MEMORY:/hello.bas", "PRINT 1")
//	content, _ := s.Get(ctx, "MEMORY:/hello.bas")
//
// Storage is safe for concurrent use, but the intended model is a single
// session driving it. Drive operations run outside the lock; a drive that
// is replaced or unmounted is closed once the operations using it return.
type Storage struct {
	mu      sync.RWMutex
	schemes map[string]SchemeFactory
	mounts  map[string]*mountEntry

	// current is the drive used by paths without a drive name ("" if none)
	current string

	metrics Metrics
}

// NewStorage creates a manager with the built-in "memory" and "file"
// schemes registered and nothing mounted.
//
// metrics may be nil.
func NewStorage(metrics Metrics) *Storage {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	s := &Storage{
		schemes: make(map[string]SchemeFactory),
		mounts:  make(map[string]*mountEntry),
		metrics: metrics,
	}
	s.schemes["memory"] = memory.Factory{}
	s.schemes["file"] = fs.Factory{}
	return s
}

// ============================================================================
// Scheme registry
// ============================================================================

// RegisterScheme binds a scheme to a factory, replacing any prior binding.
func (s *Storage) RegisterScheme(scheme string, factory SchemeFactory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registerSchemeLocked(scheme, factory)
}

func (s *Storage) registerSchemeLocked(scheme string, factory SchemeFactory) {
	if _, exists := s.schemes[scheme]; exists {
		logger.Warn("Scheme %q re-registered, replacing previous factory", scheme)
	} else {
		logger.Debug("Registered scheme %q", scheme)
	}
	s.schemes[scheme] = factory
}

// HasScheme reports whether a scheme is registered.
func (s *Storage) HasScheme(scheme string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.schemes[scheme]
	return exists
}

// ============================================================================
// Mount table
// ============================================================================

// validateDriveName rejects names that cannot appear in a NAME:/entry path.
func validateDriveName(name string) error {
	if name == "" || strings.ContainsAny(name, ":/\\") {
		return &drive.StoreError{
			Code:    drive.ErrInvalidArgument,
			Message: "Invalid drive name",
			Path:    name,
		}
	}
	return nil
}

// createDrive builds a drive for target without touching the mount table.
func createDrive(ctx context.Context, factory SchemeFactory, target drive.MountTarget) (drive.Drive, error) {
	var (
		d   drive.Drive
		err error
	)
	if target.IsDirect() {
		d, err = fs.NewDirectoryDrive(ctx, target.Path)
	} else {
		d, err = factory.Create(ctx, target)
	}
	if err != nil {
		var storeErr *drive.StoreError
		if errors.As(err, &storeErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, drive.NewIOError(target.String(), err)
	}
	return d, nil
}

// closeDrive releases a drive that is no longer reachable.
func closeDrive(name string, d drive.Drive) {
	closer, ok := d.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn("Failed to close drive %s: %v", name, err)
	}
}

// bindLocked installs d under name. It returns the entry it replaced, if
// any, which the caller must retire after releasing the lock.
func (s *Storage) bindLocked(name string, target drive.MountTarget, d drive.Drive) *mountEntry {
	old := s.mounts[name]
	if old != nil {
		logger.Info("Replacing mount %s (%s) with %s", name, old.target, target)
	} else {
		logger.Info("Mounted %s at %s", name, target)
	}
	s.mounts[name] = &mountEntry{target: target, drive: d}
	if s.current == "" {
		s.current = name
	}
	s.metrics.SetMountedDrives(len(s.mounts))
	return old
}

// Mount builds a drive for uri and binds it to name.
//
// uri is either scheme://authority[/path], routed through the scheme
// registry, or a bare directory path. An existing mount under name is
// replaced and its drive closed. On failure the mount table is unchanged.
func (s *Storage) Mount(ctx context.Context, name, uri string) error {
	if err := validateDriveName(name); err != nil {
		return err
	}
	target, err := drive.ParseMountTarget(uri)
	if err != nil {
		return err
	}

	var factory SchemeFactory
	if !target.IsDirect() {
		s.mu.RLock()
		factory = s.schemes[target.Scheme]
		s.mu.RUnlock()
		if factory == nil {
			return drive.NewNotFoundError("Unknown mount scheme", target.Scheme)
		}
	}

	d, err := createDrive(ctx, factory, target)
	if err != nil {
		return err
	}

	s.mu.Lock()
	old := s.bindLocked(name, target, d)
	s.mu.Unlock()

	retire(name, old)
	return nil
}

// RegisterSchemeAndMount registers factory for scheme and mounts uri under
// name as one step.
//
// The drive is built first; the scheme binding and the mount are committed
// together only if that succeeds and ctx is still live. Any failure,
// including cancellation, leaves both the scheme registry and the mount
// table as they were.
func (s *Storage) RegisterSchemeAndMount(ctx context.Context, scheme string, factory SchemeFactory, name, uri string) error {
	if err := validateDriveName(name); err != nil {
		return err
	}
	target, err := drive.ParseMountTarget(uri)
	if err != nil {
		return err
	}
	if target.Scheme != scheme {
		return &drive.StoreError{
			Code:    drive.ErrInvalidArgument,
			Message: "Mount target does not use scheme " + scheme,
			Path:    uri,
		}
	}

	d, err := createDrive(ctx, factory, target)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		closeDrive(name, d)
		return err
	}

	s.mu.Lock()
	s.registerSchemeLocked(scheme, factory)
	old := s.bindLocked(name, target, d)
	s.mu.Unlock()

	retire(name, old)
	return nil
}

// Unmount removes name from the mount table and closes its drive once
// operations already using it have returned.
//
// The current drive cannot be unmounted.
func (s *Storage) Unmount(name string) error {
	s.mu.Lock()
	entry, exists := s.mounts[name]
	if !exists {
		s.mu.Unlock()
		return drive.NewNotFoundError("Drive is not mounted", name)
	}
	if name == s.current {
		s.mu.Unlock()
		return &drive.StoreError{
			Code:    drive.ErrInvalidArgument,
			Message: "Cannot unmount the current drive",
			Path:    name,
		}
	}
	delete(s.mounts, name)
	s.metrics.SetMountedDrives(len(s.mounts))
	s.mu.Unlock()

	retire(name, entry)
	logger.Info("Unmounted %s", name)
	return nil
}

// Mounted lists the mount table sorted by drive name.
func (s *Storage) Mounted() []MountInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]MountInfo, 0, len(s.mounts))
	for name, entry := range s.mounts {
		infos = append(infos, MountInfo{Name: name, Target: entry.target.String()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// IsMounted reports whether name is in the mount table.
func (s *Storage) IsMounted(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.mounts[name]
	return exists
}

// Cd makes the drive named by path ("NAME:" or "NAME:/") current.
func (s *Storage) Cd(path string) error {
	name, entry, err := s.splitPath(path)
	if err != nil {
		return err
	}
	if entry != "" {
		return &drive.StoreError{
			Code:    drive.ErrInvalidArgument,
			Message: "Cannot cd to a file",
			Path:    path,
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.mounts[name]; !exists {
		return drive.NewNotFoundError("Drive is not mounted", name)
	}
	s.current = name
	return nil
}

// Cwd returns the current drive as "NAME:/", or "" if nothing is mounted.
func (s *Storage) Cwd() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == "" {
		return ""
	}
	return s.current + ":/"
}

// Close unmounts every drive, closing those that hold resources once
// operations in flight have returned.
func (s *Storage) Close() error {
	s.mu.Lock()
	mounts := s.mounts
	s.mounts = make(map[string]*mountEntry)
	s.current = ""
	s.metrics.SetMountedDrives(0)
	s.mu.Unlock()

	for name, entry := range mounts {
		retire(name, entry)
	}
	return nil
}
