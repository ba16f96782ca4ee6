package cloud

import (
	"context"
	"strings"

	"github.com/marmos91/dittostore/pkg/drive"
)

// Drive is a user's drive on the remote service.
//
// Every operation is a round trip authenticated with the token captured
// when the drive was built. Drive implements drive.AclDrive.
type Drive struct {
	service  Service
	token    AccessToken
	username string
}

// NewDrive binds a drive to username's files, authenticated with token.
func NewDrive(service Service, token AccessToken, username string) *Drive {
	return &Drive{service: service, token: token, username: username}
}

// Username returns the owner of the drive.
func (d *Drive) Username() string {
	return d.username
}

func (d *Drive) Delete(ctx context.Context, name string) error {
	return d.service.DeleteFile(ctx, d.token, d.username, name)
}

func (d *Drive) Enumerate(ctx context.Context) ([]drive.DirEntry, error) {
	files, err := d.service.GetFiles(ctx, d.token, d.username)
	if err != nil {
		return nil, err
	}

	entries := make([]drive.DirEntry, 0, len(files))
	for _, f := range files {
		entries = append(entries, drive.DirEntry{
			Name: f.Filename,
			Metadata: drive.Metadata{
				ModTime: f.Mtime,
				Length:  f.Length,
			},
		})
	}
	drive.SortEntries(entries)
	return entries, nil
}

func (d *Drive) Get(ctx context.Context, name string) (string, error) {
	return d.service.GetFile(ctx, d.token, d.username, name)
}

func (d *Drive) Put(ctx context.Context, name, content string) error {
	return d.service.PatchFileContent(ctx, d.token, d.username, name, content)
}

func (d *Drive) GetAcls(ctx context.Context, name string) (drive.FileAcls, error) {
	return d.service.GetFileAcls(ctx, d.token, d.username, name)
}

func (d *Drive) UpdateAcls(ctx context.Context, name string, add, remove drive.FileAcls) error {
	return d.service.PatchFileAcls(ctx, d.token, d.username, name, add, remove)
}

// DriveFactory builds cloud drives for the "cloud" scheme.
//
// It holds the service handle and the token obtained at login;
// cloud://<username> yields a Drive for that user's files.
type DriveFactory struct {
	service Service
	token   AccessToken
}

// NewDriveFactory creates a factory for drives authenticated with token.
func NewDriveFactory(service Service, token AccessToken) *DriveFactory {
	return &DriveFactory{service: service, token: token}
}

// Create implements storage.SchemeFactory.
func (f *DriveFactory) Create(ctx context.Context, target drive.MountTarget) (drive.Drive, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if target.Authority == "" || strings.Trim(target.Path, "/") != "" {
		return nil, &drive.StoreError{
			Code:    drive.ErrInvalidArgument,
			Message: "Cloud mount target must be of the form cloud://username",
			Path:    target.String(),
		}
	}
	return NewDrive(f.service, f.token, target.Authority), nil
}
