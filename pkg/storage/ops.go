package storage

import (
	"context"
	"time"

	"github.com/marmos91/dittostore/pkg/drive"
)

// observe records an operation on the metrics sink.
func (s *Storage) observe(operation, driveName string, start time.Time, err error) {
	s.metrics.ObserveOperation(operation, driveName, time.Since(start), err)
}

// Get returns the content of the entry at path.
func (s *Storage) Get(ctx context.Context, path string) (string, error) {
	mount, name, entry, err := s.resolveFile(path)
	if err != nil {
		return "", err
	}
	defer mount.inflight.Done()

	start := time.Now()
	content, err := mount.drive.Get(ctx, entry)
	s.observe("get", name, start, err)
	return content, err
}

// Put writes content to the entry at path, creating or replacing it.
func (s *Storage) Put(ctx context.Context, path, content string) error {
	mount, name, entry, err := s.resolveFile(path)
	if err != nil {
		return err
	}
	defer mount.inflight.Done()

	start := time.Now()
	err = mount.drive.Put(ctx, entry, content)
	s.observe("put", name, start, err)
	return err
}

// Delete removes the entry at path.
func (s *Storage) Delete(ctx context.Context, path string) error {
	mount, name, entry, err := s.resolveFile(path)
	if err != nil {
		return err
	}
	defer mount.inflight.Done()

	start := time.Now()
	err = mount.drive.Delete(ctx, entry)
	s.observe("delete", name, start, err)
	return err
}

// Enumerate lists the drive named by path ("NAME:", "NAME:/", or "" for
// the current drive), sorted by entry name.
func (s *Storage) Enumerate(ctx context.Context, path string) ([]drive.DirEntry, error) {
	mount, name, err := s.resolveDrive(path)
	if err != nil {
		return nil, err
	}
	defer mount.inflight.Done()

	start := time.Now()
	entries, err := mount.drive.Enumerate(ctx)
	s.observe("enumerate", name, start, err)
	return entries, err
}

// aclDrive returns d as an AclDrive or ErrNotSupported.
func aclDrive(d drive.Drive, name string) (drive.AclDrive, error) {
	ad, ok := d.(drive.AclDrive)
	if !ok {
		return nil, &drive.StoreError{
			Code:    drive.ErrNotSupported,
			Message: "Operation not supported by drive",
			Path:    name,
		}
	}
	return ad, nil
}

// GetAcls returns the readers of the entry at path.
//
// Returns ErrNotSupported if the drive does not track ACLs.
func (s *Storage) GetAcls(ctx context.Context, path string) (drive.FileAcls, error) {
	mount, name, entry, err := s.resolveFile(path)
	if err != nil {
		return drive.FileAcls{}, err
	}
	defer mount.inflight.Done()
	ad, err := aclDrive(mount.drive, name)
	if err != nil {
		return drive.FileAcls{}, err
	}

	start := time.Now()
	acls, err := ad.GetAcls(ctx, entry)
	s.observe("get_acls", name, start, err)
	return acls, err
}

// UpdateAcls applies an ACL delta to the entry at path: readers in add are
// granted, then readers in remove are revoked.
//
// Returns ErrNotSupported if the drive does not track ACLs.
func (s *Storage) UpdateAcls(ctx context.Context, path string, add, remove drive.FileAcls) error {
	mount, name, entry, err := s.resolveFile(path)
	if err != nil {
		return err
	}
	defer mount.inflight.Done()
	ad, err := aclDrive(mount.drive, name)
	if err != nil {
		return err
	}

	start := time.Now()
	err = ad.UpdateAcls(ctx, entry, add, remove)
	s.observe("update_acls", name, start, err)
	return err
}
