// Package cloudtest provides an in-memory cloud service for tests.
//
// Service implements cloud.Service with real access rules: a user can do
// anything to their own files and can only read files of other users that
// list them (or "public") as a reader. Handler exposes the same service
// over the HTTP API so cloud.HTTPService can be tested end to end.
package cloudtest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/marmos91/dittostore/pkg/cloud"
	"github.com/marmos91/dittostore/pkg/drive"
)

// PublicReader grants read access to every logged-in user.
const PublicReader = "public"

type credentials struct {
	username string
	password string
}

type loginResult struct {
	response *cloud.LoginResponse
	err      error
}

type file struct {
	content string
	mtime   time.Time
	acls    drive.FileAcls
}

// Service is a thread-safe in-memory cloud.Service.
type Service struct {
	mu      sync.Mutex
	logins  map[credentials]loginResult
	tokens  map[string]string
	files   map[string]map[string]*file
	now     func() time.Time
	nextTok int

	loginCalls int
}

var _ cloud.Service = (*Service)(nil)

// NewService creates an empty service.
func NewService() *Service {
	return &Service{
		logins: make(map[credentials]loginResult),
		tokens: make(map[string]string),
		files:  make(map[string]map[string]*file),
		now:    time.Now,
	}
}

// SetClock overrides the modification time source.
func (s *Service) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// AddMockLogin scripts the result of Login for a username/password pair.
//
// On success the token in response is bound to username so subsequent
// file operations are authorized as that user. Login with an unscripted
// pair fails with "Invalid credentials".
func (s *Service) AddMockLogin(username, password string, response *cloud.LoginResponse, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logins[credentials{username, password}] = loginResult{response: response, err: err}
	if response != nil {
		s.tokens[response.AccessToken.Token()] = username
	}
}

// AddUser registers a user that can log in with password and returns the
// token Login will hand out.
func (s *Service) AddUser(username, password string, motd ...string) cloud.AccessToken {
	s.mu.Lock()
	s.nextTok++
	token := cloud.NewAccessToken(fmt.Sprintf("token-%s-%d", username, s.nextTok))
	s.mu.Unlock()

	s.AddMockLogin(username, password, &cloud.LoginResponse{AccessToken: token, Motd: motd}, nil)
	return token
}

// LoginCalls returns how many times Login was called.
func (s *Service) LoginCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loginCalls
}

// ============================================================================
// cloud.Service
// ============================================================================

func (s *Service) Login(ctx context.Context, username, password string) (*cloud.LoginResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginCalls++

	result, ok := s.logins[credentials{username, password}]
	if !ok {
		return nil, drive.NewRemoteFailureError("Invalid credentials")
	}
	if result.err != nil {
		return nil, result.err
	}
	resp := *result.response
	resp.Motd = append([]string(nil), result.response.Motd...)
	return &resp, nil
}

func (s *Service) GetFiles(ctx context.Context, token cloud.AccessToken, username string) ([]cloud.DirectoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	caller, err := s.authorize(ctx, token)
	if err != nil {
		return nil, err
	}

	entries := []cloud.DirectoryEntry{}
	for name, f := range s.files[username] {
		if !canRead(caller, username, f) {
			continue
		}
		entries = append(entries, cloud.DirectoryEntry{
			Filename: name,
			Mtime:    f.mtime,
			Length:   uint64(len(f.content)),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Filename < entries[j].Filename })
	return entries, nil
}

func (s *Service) GetFile(ctx context.Context, token cloud.AccessToken, username, filename string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	caller, err := s.authorize(ctx, token)
	if err != nil {
		return "", err
	}
	f, err := s.readable(caller, username, filename)
	if err != nil {
		return "", err
	}
	return f.content, nil
}

func (s *Service) GetFileAcls(ctx context.Context, token cloud.AccessToken, username, filename string) (drive.FileAcls, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	caller, err := s.authorize(ctx, token)
	if err != nil {
		return drive.FileAcls{}, err
	}
	f, err := s.owned(caller, username, filename)
	if err != nil {
		return drive.FileAcls{}, err
	}
	return f.acls, nil
}

func (s *Service) PatchFileContent(ctx context.Context, token cloud.AccessToken, username, filename, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	caller, err := s.authorize(ctx, token)
	if err != nil {
		return err
	}
	if caller != username {
		return drive.NewRemoteFailureError("Permission denied")
	}

	userFiles, ok := s.files[username]
	if !ok {
		userFiles = make(map[string]*file)
		s.files[username] = userFiles
	}
	if f, ok := userFiles[filename]; ok {
		f.content = content
		f.mtime = s.now()
		return nil
	}
	userFiles[filename] = &file{content: content, mtime: s.now()}
	return nil
}

func (s *Service) PatchFileAcls(ctx context.Context, token cloud.AccessToken, username, filename string, add, remove drive.FileAcls) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	caller, err := s.authorize(ctx, token)
	if err != nil {
		return err
	}
	f, err := s.owned(caller, username, filename)
	if err != nil {
		return err
	}
	f.acls = f.acls.Merge(add, remove)
	return nil
}

func (s *Service) DeleteFile(ctx context.Context, token cloud.AccessToken, username, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	caller, err := s.authorize(ctx, token)
	if err != nil {
		return err
	}
	if _, err := s.owned(caller, username, filename); err != nil {
		return err
	}
	delete(s.files[username], filename)
	return nil
}

// ============================================================================
// Access rules
// ============================================================================

// authorize maps a token to its user. Caller must hold s.mu.
func (s *Service) authorize(ctx context.Context, token cloud.AccessToken) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	caller, ok := s.tokens[token.Token()]
	if !ok {
		return "", drive.NewRemoteFailureError("Invalid access token")
	}
	return caller, nil
}

func canRead(caller, owner string, f *file) bool {
	return caller == owner || f.acls.Contains(caller) || f.acls.Contains(PublicReader)
}

// readable returns a file the caller may read. Files the caller cannot see
// are reported as missing.
func (s *Service) readable(caller, owner, filename string) (*file, error) {
	f, ok := s.files[owner][filename]
	if !ok || !canRead(caller, owner, f) {
		return nil, drive.NewNotFoundError("Entry not found", filename)
	}
	return f, nil
}

// owned returns a file only its owner may modify.
func (s *Service) owned(caller, owner, filename string) (*file, error) {
	f, err := s.readable(caller, owner, filename)
	if err != nil {
		return nil, err
	}
	if caller != owner {
		return nil, drive.NewRemoteFailureError("Permission denied")
	}
	return f, nil
}
