package storage

import (
	"strings"

	"github.com/marmos91/dittostore/pkg/drive"
)

// splitPath splits "NAME:/entry" into the drive name and the entry name.
//
// The split happens on the first colon. A path without a colon refers to
// the current drive. Leading slashes are stripped from the entry; drives
// are flat, so any remaining slash is an error. The entry may be empty.
func (s *Storage) splitPath(path string) (string, string, error) {
	name, entry, found := strings.Cut(path, ":")
	if !found {
		s.mu.RLock()
		name = s.current
		s.mu.RUnlock()
		entry = path
		if name == "" {
			return "", "", drive.NewNotFoundError("No current drive", path)
		}
	}
	if name == "" {
		return "", "", &drive.StoreError{
			Code:    drive.ErrInvalidArgument,
			Message: "Invalid path",
			Path:    path,
		}
	}

	entry = strings.TrimLeft(entry, "/")
	if strings.Contains(entry, "/") {
		return "", "", &drive.StoreError{
			Code:    drive.ErrInvalidArgument,
			Message: "Too many path components",
			Path:    path,
		}
	}
	return name, entry, nil
}

// acquire returns the entry mounted under name with one in-flight
// operation registered. The caller must call entry.inflight.Done.
func (s *Storage) acquire(name string) (*mountEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.mounts[name]
	if !exists {
		return nil, drive.NewNotFoundError("Drive is not mounted", name)
	}
	entry.inflight.Add(1)
	return entry, nil
}

// resolveFile resolves a path that must name an entry.
func (s *Storage) resolveFile(path string) (*mountEntry, string, string, error) {
	name, entry, err := s.splitPath(path)
	if err != nil {
		return nil, "", "", err
	}
	if entry == "" {
		return nil, "", "", &drive.StoreError{
			Code:    drive.ErrInvalidArgument,
			Message: "Missing file name",
			Path:    path,
		}
	}
	mount, err := s.acquire(name)
	if err != nil {
		return nil, "", "", err
	}
	return mount, name, entry, nil
}

// resolveDrive resolves a path that must name only a drive ("NAME:",
// "NAME:/" or "" for the current drive).
func (s *Storage) resolveDrive(path string) (*mountEntry, string, error) {
	var name string
	if path == "" {
		s.mu.RLock()
		name = s.current
		s.mu.RUnlock()
		if name == "" {
			return nil, "", drive.NewNotFoundError("No current drive", path)
		}
	} else {
		var entry string
		var err error
		name, entry, err = s.splitPath(path)
		if err != nil {
			return nil, "", err
		}
		if entry != "" {
			return nil, "", &drive.StoreError{
				Code:    drive.ErrInvalidArgument,
				Message: "Path must name a drive",
				Path:    path,
			}
		}
	}

	mount, err := s.acquire(name)
	if err != nil {
		return nil, "", err
	}
	return mount, name, nil
}
