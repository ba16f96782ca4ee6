// Package fs implements a drive backed by a directory on the local filesystem.
//
// Each entry is a regular file directly under the root directory. Nested
// directories are not part of the drive model and are skipped by Enumerate.
// Directory drives do not support ACLs.
package fs

import (
	"context"
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/marmos91/dittostore/pkg/drive"
)

// DirectoryDrive implements drive.Drive on top of a directory.
//
// Thread Safety:
// Each operation is a single filesystem call, which is atomic enough for a
// single session. Concurrent Puts to the same entry race at the OS level.
type DirectoryDrive struct {
	root string
}

// NewDirectoryDrive creates a drive rooted at dir, creating dir (0755) if
// it doesn't exist.
func NewDirectoryDrive(ctx context.Context, dir string) (*DirectoryDrive, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if dir == "" {
		return nil, drive.NewInvalidArgumentError("Directory drive requires a path")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, drive.NewIOError(dir, err)
	}

	return &DirectoryDrive{root: dir}, nil
}

// Root returns the directory backing the drive.
func (d *DirectoryDrive) Root() string {
	return d.root
}

// pathFor validates an entry name and returns its file path.
func (d *DirectoryDrive) pathFor(name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, os.PathSeparator) {
		return "", &drive.StoreError{
			Code:    drive.ErrInvalidArgument,
			Message: "Invalid file name",
			Path:    name,
		}
	}
	return filepath.Join(d.root, name), nil
}

// mapError converts filesystem errors into drive errors.
func mapError(name string, err error) error {
	if errors.Is(err, iofs.ErrNotExist) {
		return drive.NewNotFoundError("Entry not found", name)
	}
	return drive.NewIOError(name, err)
}

// Delete removes the entry's file.
func (d *DirectoryDrive) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := d.pathFor(name)
	if err != nil {
		return err
	}

	info, err := os.Lstat(path)
	if err != nil {
		return mapError(name, err)
	}
	if !info.Mode().IsRegular() {
		return drive.NewNotFoundError("Entry not found", name)
	}

	if err := os.Remove(path); err != nil {
		return mapError(name, err)
	}
	return nil
}

// Enumerate lists the regular files in the root directory.
func (d *DirectoryDrive) Enumerate(ctx context.Context) ([]drive.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, drive.NewIOError(d.root, err)
	}

	// os.ReadDir already sorts by filename
	entries := make([]drive.DirEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.Type().IsRegular() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			if errors.Is(err, iofs.ErrNotExist) {
				// Removed between ReadDir and Info
				continue
			}
			return nil, drive.NewIOError(de.Name(), err)
		}
		entries = append(entries, drive.DirEntry{
			Name: de.Name(),
			Metadata: drive.Metadata{
				ModTime: info.ModTime(),
				Length:  uint64(info.Size()),
			},
		})
	}
	return entries, nil
}

// Get reads the entry's file.
func (d *DirectoryDrive) Get(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := d.pathFor(name)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", mapError(name, err)
	}
	return string(data), nil
}

// Put writes the entry's file (0644), replacing any previous content.
func (d *DirectoryDrive) Put(ctx context.Context, name, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := d.pathFor(name)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return drive.NewIOError(name, err)
	}
	return nil
}

// Factory creates directory drives for the "file" scheme.
//
// file:///abs/path and file://rel/path are both accepted; the authority and
// path are joined to form the directory.
type Factory struct{}

// Create implements storage.SchemeFactory.
func (Factory) Create(ctx context.Context, target drive.MountTarget) (drive.Drive, error) {
	return NewDirectoryDrive(ctx, target.Location())
}
