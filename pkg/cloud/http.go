package cloud

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittostore/internal/logger"
	"github.com/marmos91/dittostore/internal/ratelimiter"
	"github.com/marmos91/dittostore/pkg/drive"
)

// RequestIDHeader carries a per-request UUID so client and server logs can
// be correlated.
const RequestIDHeader = "X-Request-Id"

// maxErrorBody bounds how much of a failed response is read for a message.
const maxErrorBody = 64 * 1024

// HTTPConfig configures an HTTPService.
type HTTPConfig struct {
	// BaseURL is the service root, e.g. https://service.example.com.
	BaseURL string

	// Timeout bounds each request. 0 means no timeout.
	Timeout time.Duration

	// RequestsPerSecond limits outgoing requests. 0 disables limiting.
	RequestsPerSecond uint

	// Burst is the rate limiter bucket size. 0 defaults to RequestsPerSecond.
	Burst uint

	// SkipVerify disables TLS certificate verification.
	SkipVerify bool

	// Client overrides the HTTP client. Timeout and SkipVerify are ignored
	// when set.
	Client *http.Client
}

// HTTPService implements Service over the service's JSON REST API.
type HTTPService struct {
	baseURL *url.URL
	client  *http.Client
	limiter *ratelimiter.RateLimiter
}

var _ Service = (*HTTPService)(nil)

// NewHTTPService validates cfg and builds a client.
func NewHTTPService(cfg HTTPConfig) (*HTTPService, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("cloud service URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid cloud service URL %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid cloud service URL %q: scheme must be http or https", cfg.BaseURL)
	}

	client := cfg.Client
	if client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.SkipVerify {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for test servers
		}
		client = &http.Client{Timeout: cfg.Timeout, Transport: transport}
	}

	return &HTTPService{
		baseURL: base,
		client:  client,
		limiter: ratelimiter.New(cfg.RequestsPerSecond, cfg.Burst),
	}, nil
}

// Wire types.

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginReply struct {
	AccessToken string   `json:"access_token"`
	Motd        []string `json:"motd"`
}

type fileEntry struct {
	Filename string    `json:"filename"`
	Mtime    time.Time `json:"mtime"`
	Length   uint64    `json:"length"`
}

type filesReply struct {
	Files []fileEntry `json:"files"`
}

type contentBody struct {
	Content string `json:"content"`
}

type aclsReply struct {
	Readers []string `json:"readers"`
}

type aclsPatch struct {
	Add    []string `json:"add"`
	Remove []string `json:"remove"`
}

type errorReply struct {
	Message string `json:"message"`
}

func (s *HTTPService) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var reply loginReply
	err := s.do(ctx, http.MethodPost, "/api/login", nil, AccessToken{},
		loginRequest{Username: username, Password: password}, &reply)
	if err != nil {
		return nil, err
	}
	if reply.AccessToken == "" {
		return nil, drive.NewRemoteFailureError("Login response did not include an access token")
	}
	return &LoginResponse{
		AccessToken: NewAccessToken(reply.AccessToken),
		Motd:        reply.Motd,
	}, nil
}

func (s *HTTPService) GetFiles(ctx context.Context, token AccessToken, username string) ([]DirectoryEntry, error) {
	var reply filesReply
	if err := s.do(ctx, http.MethodGet, filesPath(username), nil, token, nil, &reply); err != nil {
		return nil, err
	}

	files := make([]DirectoryEntry, 0, len(reply.Files))
	for _, f := range reply.Files {
		files = append(files, DirectoryEntry(f))
	}
	return files, nil
}

func (s *HTTPService) GetFile(ctx context.Context, token AccessToken, username, filename string) (string, error) {
	var reply contentBody
	if err := s.do(ctx, http.MethodGet, filePath(username, filename), nil, token, nil, &reply); err != nil {
		return "", err
	}
	return reply.Content, nil
}

func (s *HTTPService) GetFileAcls(ctx context.Context, token AccessToken, username, filename string) (drive.FileAcls, error) {
	var reply aclsReply
	err := s.do(ctx, http.MethodGet, filePath(username, filename), aclsQuery(), token, nil, &reply)
	if err != nil {
		return drive.FileAcls{}, err
	}
	return drive.NewFileAcls(reply.Readers...), nil
}

func (s *HTTPService) PatchFileContent(ctx context.Context, token AccessToken, username, filename, content string) error {
	return s.do(ctx, http.MethodPatch, filePath(username, filename), nil, token,
		contentBody{Content: content}, nil)
}

func (s *HTTPService) PatchFileAcls(ctx context.Context, token AccessToken, username, filename string, add, remove drive.FileAcls) error {
	body := aclsPatch{Add: add.Readers(), Remove: remove.Readers()}
	if body.Add == nil {
		body.Add = []string{}
	}
	if body.Remove == nil {
		body.Remove = []string{}
	}
	return s.do(ctx, http.MethodPatch, filePath(username, filename), aclsQuery(), token, body, nil)
}

func (s *HTTPService) DeleteFile(ctx context.Context, token AccessToken, username, filename string) error {
	return s.do(ctx, http.MethodDelete, filePath(username, filename), nil, token, nil, nil)
}

func filesPath(username string) string {
	return "/api/users/" + url.PathEscape(username) + "/files"
}

func filePath(username, filename string) string {
	return filesPath(username) + "/" + url.PathEscape(filename)
}

func aclsQuery() url.Values {
	return url.Values{"acls": []string{"1"}}
}

// do performs one request. in, when non-nil, is sent as the JSON body;
// out, when non-nil, receives the decoded JSON response.
func (s *HTTPService) do(ctx context.Context, method, path string, query url.Values, token AccessToken, in, out any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	target := s.baseURL.String() + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return drive.NewInternalError(fmt.Sprintf("cannot encode request: %v", err))
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return drive.NewInternalError(fmt.Sprintf("cannot build request: %v", err))
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !token.IsZero() {
		req.Header.Set("Authorization", "Bearer "+token.Token())
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		logger.Debug("cloud %s %s failed: request_id=%s error=%v", method, path, requestID, err)
		return &drive.StoreError{
			Code:    drive.ErrRemoteFailure,
			Message: fmt.Sprintf("Cannot reach cloud service: %v", err),
			Err:     err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	logger.Debug("cloud %s %s: request_id=%s status=%d duration=%s",
		method, path, requestID, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &drive.StoreError{
			Code:    drive.ErrRemoteFailure,
			Message: fmt.Sprintf("Invalid response from cloud service: %v", err),
			Err:     err,
		}
	}
	return nil
}

// decodeError maps a non-2xx response to a StoreError, keeping the
// service's message verbatim when it sent one.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	message := ""
	var reply errorReply
	if err := json.Unmarshal(raw, &reply); err == nil {
		message = reply.Message
	}
	if message == "" {
		message = strings.TrimSpace(string(raw))
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	if resp.StatusCode == http.StatusNotFound {
		return &drive.StoreError{Code: drive.ErrNotFound, Message: message}
	}
	return drive.NewRemoteFailureError(message)
}
