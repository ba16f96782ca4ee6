// Package cloud connects the storage layer to the remote file-sharing
// service.
//
// The service hosts one drive per user account. After a successful login
// the "cloud" scheme becomes available and cloud://<username> mounts that
// user's drive: the caller's own drive in full, or only the files other
// users shared with the caller.
package cloud

import (
	"context"
	"time"

	"github.com/marmos91/dittostore/pkg/drive"
)

// AccessToken is the credential returned by a successful login.
//
// The value never appears in logs or formatted output: String, GoString
// and MarshalText all return a redacted placeholder. Transports call Token
// to get the raw value.
type AccessToken struct {
	value string
}

const redacted = "[REDACTED]"

// NewAccessToken wraps a raw token value.
func NewAccessToken(value string) AccessToken {
	return AccessToken{value: value}
}

// Token returns the raw token value for use in request headers.
func (t AccessToken) Token() string {
	return t.value
}

// IsZero reports whether the token is empty.
func (t AccessToken) IsZero() bool {
	return t.value == ""
}

func (t AccessToken) String() string   { return redacted }
func (t AccessToken) GoString() string { return redacted }

// MarshalText keeps the token out of JSON and YAML encodings.
func (t AccessToken) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

// LoginResponse is the result of a successful login.
type LoginResponse struct {
	AccessToken AccessToken

	// Motd is the server's message of the day, one element per line.
	// Empty when the server has nothing to say.
	Motd []string
}

// DirectoryEntry is one file in a user's drive.
type DirectoryEntry struct {
	Filename string
	Mtime    time.Time
	Length   uint64
}

// Service is the remote service contract.
//
// Failures are drive.StoreError values: ErrNotFound for missing files and
// ErrRemoteFailure carrying the service's message verbatim for everything
// the service rejects (bad credentials, permission denied).
type Service interface {
	// Login authenticates a user.
	Login(ctx context.Context, username, password string) (*LoginResponse, error)

	// GetFiles lists the files of username's drive visible to token.
	GetFiles(ctx context.Context, token AccessToken, username string) ([]DirectoryEntry, error)

	// GetFile returns the content of a file.
	GetFile(ctx context.Context, token AccessToken, username, filename string) (string, error)

	// GetFileAcls returns the readers of a file.
	GetFileAcls(ctx context.Context, token AccessToken, username, filename string) (drive.FileAcls, error)

	// PatchFileContent creates or replaces a file.
	PatchFileContent(ctx context.Context, token AccessToken, username, filename, content string) error

	// PatchFileAcls adds then removes readers of a file.
	PatchFileAcls(ctx context.Context, token AccessToken, username, filename string, add, remove drive.FileAcls) error

	// DeleteFile removes a file.
	DeleteFile(ctx context.Context, token AccessToken, username, filename string) error
}
