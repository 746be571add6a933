// Package remote provides the session-scoped gateway to the remote file API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/kk-code-lab/rbrowse/internal/fs"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// SessionHeader carries the session token on every request.
const SessionHeader = "X-Session-Token"

const maxErrorBody = 64 * 1024

// Session is the opaque handle issued by the connection service.
type Session struct {
	ConnectionID string
	Token        string
}

// Valid reports whether both halves of the handle are present.
func (s Session) Valid() bool {
	return s.ConnectionID != "" && s.Token != ""
}

// Content is a fetched file body.
type Content struct {
	Data        []byte
	ContentType string
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	// Timeout bounds metadata calls end to end. Transfers are only bounded
	// until the response headers arrive.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client issues authenticated requests against one connection's file API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	log        zerolog.Logger

	mu      sync.RWMutex
	session Session
}

// New creates a new client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:          20,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: cfg.Timeout,
			},
		}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		timeout:    cfg.Timeout,
		log:        cfg.Logger.With().Str("component", "remote").Logger(),
	}
}

// SetSession installs or replaces the session handle. A zero Session puts the
// client back into the disconnected state.
func (c *Client) SetSession(s Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

// Session returns the current handle.
func (c *Client) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// List returns the entries of dir, sorted directories first.
func (c *Client) List(ctx context.Context, dir string) ([]fs.Entry, error) {
	dir = fs.Clean(dir)
	body, err := c.call(ctx, "list", dir, http.MethodGet, "/files", url.Values{"path": {dir}}, nil, "")
	if err != nil {
		return nil, err
	}
	entries, err := parseEntries(body, dir)
	if err != nil {
		return nil, &Error{Op: "list", Path: dir, Kind: KindUnknown, Status: http.StatusOK, Err: err}
	}
	return entries, nil
}

// Read fetches the raw content of a file.
func (c *Client) Read(ctx context.Context, p string) (Content, error) {
	p = fs.Clean(p)
	return c.content(ctx, "read", p, http.MethodGet, "/files"+p, nil, nil, "")
}

// Create writes a new file and fails if an entry already exists at p. The
// precondition is checked by the server.
func (c *Client) Create(ctx context.Context, p, content string) error {
	p = fs.Clean(p)
	data, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = c.call(ctx, "create", p, http.MethodPut, "/files"+p, nil, bytes.NewReader(data), "application/json",
		http.Header{"If-None-Match": {"*"}})
	return err
}

// Write creates or replaces a file with content.
func (c *Client) Write(ctx context.Context, p, content string) error {
	p = fs.Clean(p)
	_, err := c.callJSON(ctx, "write", p, http.MethodPut, "/files"+p, map[string]string{"content": content})
	return err
}

// Delete removes a file or directory.
func (c *Client) Delete(ctx context.Context, p string) error {
	p = fs.Clean(p)
	_, err := c.call(ctx, "delete", p, http.MethodDelete, "/files"+p, nil, nil, "")
	return err
}

// Rename moves oldPath to newPath.
func (c *Client) Rename(ctx context.Context, oldPath, newPath string) error {
	_, err := c.callJSON(ctx, "rename", oldPath, http.MethodPost, "/files/rename", map[string]string{
		"oldPath": fs.Clean(oldPath),
		"newPath": fs.Clean(newPath),
	})
	return err
}

// Mkdir creates a directory.
func (c *Client) Mkdir(ctx context.Context, p string) error {
	p = fs.Clean(p)
	_, err := c.callJSON(ctx, "mkdir", p, http.MethodPost, "/files/mkdir", map[string]string{"path": p})
	return err
}

// Chmod applies a 3-digit octal mode.
func (c *Client) Chmod(ctx context.Context, p, mode string) error {
	p = fs.Clean(p)
	if err := fs.ValidateOctal(mode); err != nil {
		return &Error{Op: "chmod", Path: p, Kind: KindValidation, Message: err.Error(), Err: err}
	}
	_, err := c.callJSON(ctx, "chmod", p, http.MethodPost, "/files/chmod", map[string]string{"path": p, "mode": mode})
	return err
}

// Download fetches a single file as a byte stream.
func (c *Client) Download(ctx context.Context, p string) (Content, error) {
	p = fs.Clean(p)
	return c.content(ctx, "download", p, http.MethodGet, "/files/download", url.Values{"path": {p}}, nil, "")
}

// DownloadBundle asks the server to zip paths into one archive.
func (c *Client) DownloadBundle(ctx context.Context, paths []string) (Content, error) {
	cleaned := make([]string, len(paths))
	for i, p := range paths {
		cleaned[i] = fs.Clean(p)
	}
	payload, err := json.Marshal(map[string]any{"paths": cleaned, "format": "zip"})
	if err != nil {
		return Content{}, errors.WithStack(err)
	}
	return c.content(ctx, "download", "", http.MethodPost, "/files/download", nil, bytes.NewReader(payload), "application/json")
}

// Search runs a server-side search.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	req.Path = fs.Clean(req.Path)
	body, err := c.callJSON(ctx, "search", req.Path, http.MethodPost, "/files/search", req)
	if err != nil {
		return nil, err
	}
	results, err := parseSearchResults(body)
	if err != nil {
		return nil, &Error{Op: "search", Path: req.Path, Kind: KindUnknown, Status: http.StatusOK, Err: err}
	}
	return results, nil
}

func (c *Client) content(ctx context.Context, op, p, method, endpoint string, query url.Values, body io.Reader, contentType string) (Content, error) {
	resp, err := c.do(ctx, op, p, method, endpoint, query, body, contentType)
	if err != nil {
		return Content{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Content{}, c.transportError(ctx, op, p, err)
	}
	return Content{Data: data, ContentType: resp.Header.Get("Content-Type")}, nil
}

func (c *Client) callJSON(ctx context.Context, op, p, method, endpoint string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return c.call(ctx, op, p, method, endpoint, nil, bytes.NewReader(data), "application/json")
}

// call runs a metadata request under the client timeout.
func (c *Client) call(ctx context.Context, op, p, method, endpoint string, query url.Values, body io.Reader, contentType string, extra ...http.Header) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.exchange(ctx, op, p, method, endpoint, query, body, contentType, extra...)
}

// exchange sends a request and reads the whole response without a deadline of
// its own; transfers rely on ctx and the transport's header timeout.
func (c *Client) exchange(ctx context.Context, op, p, method, endpoint string, query url.Values, body io.Reader, contentType string, extra ...http.Header) ([]byte, error) {
	resp, err := c.do(ctx, op, p, method, endpoint, query, body, contentType, extra...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(ctx, op, p, err)
	}
	return data, nil
}

// do sends the request and turns every non-2xx response into a classified *Error.
func (c *Client) do(ctx context.Context, op, p, method, endpoint string, query url.Values, body io.Reader, contentType string, extra ...http.Header) (*http.Response, error) {
	session := c.Session()
	if !session.Valid() {
		return nil, &Error{Op: op, Path: p, Kind: KindSessionExpired, Err: ErrNoSession}
	}

	target, err := c.endpointURL(session.ConnectionID, endpoint, query)
	if err != nil {
		return nil, errors.Wrap(err, "build request url")
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set(SessionHeader, session.Token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, h := range extra {
		for k, v := range h {
			req.Header[http.CanonicalHeaderKey(k)] = v
		}
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, op, p, err)
	}

	c.log.Debug().
		Str("op", op).
		Str("method", method).
		Str("path", p).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("file api request")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer func() {
		_ = resp.Body.Close()
	}()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	message := errorMessage(raw)
	kind := Classify(resp.StatusCode, message)
	c.log.Warn().
		Str("op", op).
		Str("path", p).
		Int("status", resp.StatusCode).
		Str("kind", string(kind)).
		Str("message", message).
		Msg("file api request failed")

	return nil, &Error{Op: op, Path: p, Kind: kind, Status: resp.StatusCode, Message: message}
}

func (c *Client) transportError(ctx context.Context, op, p string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled) {
		return errors.Wrap(context.Canceled, op)
	}
	c.log.Warn().Err(err).Str("op", op).Str("path", p).Msg("file api unreachable")
	return &Error{Op: op, Path: p, Kind: KindNetwork, Err: err}
}

func (c *Client) endpointURL(connectionID, endpoint string, query url.Values) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/connections/" + connectionID + endpoint
	u.RawPath = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}
