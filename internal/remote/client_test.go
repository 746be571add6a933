package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kk-code-lab/rbrowse/internal/fs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(Config{BaseURL: srv.URL, Logger: zerolog.Nop()})
	c.SetSession(Session{ConnectionID: "conn-1", Token: "secret"})
	return c
}

func TestClient_ListNormalizesEnvelopes(t *testing.T) {
	bodies := []string{
		`{"files":[{"name":"b.txt","type":"file","size":3,"mtime":"2024-01-02T03:04:05Z","permissions":"rw-r--r--"},{"name":"a","type":"directory"}]}`,
		`{"data":{"files":[{"path":"/srv/b.txt","size":3,"mtime":1704164645},{"path":"/srv/a","isDir":true}]}}`,
	}

	for _, body := range bodies {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/connections/conn-1/files", r.URL.Path)
			assert.Equal(t, "/srv", r.URL.Query().Get("path"))
			assert.Equal(t, "secret", r.Header.Get(SessionHeader))
			_, _ = io.WriteString(w, body)
		})

		entries, err := c.List(context.Background(), "/srv/")
		require.NoError(t, err)
		require.Len(t, entries, 2)

		assert.Equal(t, "a", entries[0].Name)
		assert.Equal(t, "/srv/a", entries[0].Path)
		assert.True(t, entries[0].IsDir())

		assert.Equal(t, "b.txt", entries[1].Name)
		assert.Equal(t, "/srv/b.txt", entries[1].Path)
		assert.Equal(t, uint64(3), entries[1].Size)
		assert.Equal(t, int64(1704164645), entries[1].Modified.Unix())
	}
}

func TestClient_ClassifiesFailures(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":"Permission denied"}`)
	})

	_, err := c.List(context.Background(), "/root")
	require.Error(t, err)

	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, KindPermission, re.Kind)
	assert.Equal(t, "Permission denied", re.Message)
	assert.Equal(t, http.StatusForbidden, re.Status)
}

func TestClient_NoSessionNeverHitsNetwork(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	c.SetSession(Session{})

	_, err := c.List(context.Background(), "/")
	assert.Equal(t, KindSessionExpired, KindOf(err))
	assert.False(t, called)
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c := New(Config{BaseURL: srv.URL, Logger: zerolog.Nop()})
	c.SetSession(Session{ConnectionID: "c", Token: "t"})

	_, err := c.List(context.Background(), "/")
	assert.Equal(t, KindNetwork, KindOf(err))
}

func TestClient_CanceledIsNotClassified(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.List(ctx, "/")
	require.Error(t, err)
	assert.True(t, IsCanceled(err))
	assert.Equal(t, ErrorKind(""), KindOf(err))
}

func TestClient_MutationsSendExpectedBodies(t *testing.T) {
	type call struct {
		method string
		path   string
		body   map[string]any
	}
	var calls []call

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		calls = append(calls, call{r.Method, strings.TrimPrefix(r.URL.Path, "/api/connections/conn-1"), body})
		_, _ = io.WriteString(w, `{"success":true}`)
	})

	ctx := context.Background()
	require.NoError(t, c.Write(ctx, "/srv/new file.txt", "hello"))
	require.NoError(t, c.Mkdir(ctx, "/srv/dir"))
	require.NoError(t, c.Rename(ctx, "/srv/a", "/srv/b"))
	require.NoError(t, c.Chmod(ctx, "/srv/b", "755"))
	require.NoError(t, c.Delete(ctx, "/srv/b"))

	require.Len(t, calls, 5)
	assert.Equal(t, call{"PUT", "/files/srv/new file.txt", map[string]any{"content": "hello"}}, calls[0])
	assert.Equal(t, call{"POST", "/files/mkdir", map[string]any{"path": "/srv/dir"}}, calls[1])
	assert.Equal(t, call{"POST", "/files/rename", map[string]any{"oldPath": "/srv/a", "newPath": "/srv/b"}}, calls[2])
	assert.Equal(t, call{"POST", "/files/chmod", map[string]any{"path": "/srv/b", "mode": "755"}}, calls[3])
	assert.Equal(t, "DELETE", calls[4].method)
	assert.Equal(t, "/files/srv/b", calls[4].path)
}

func TestClient_ChmodRejectsBadModeLocally(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	err := c.Chmod(context.Background(), "/srv/a", "888")
	assert.Equal(t, KindValidation, KindOf(err))
	assert.ErrorIs(t, err, fs.ErrInvalidMode)
	assert.False(t, called)
}

func TestClient_SearchNormalizesEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "abc", req.Query)
		assert.Equal(t, 50, req.MaxResults)
		_, _ = io.WriteString(w, `{"data":{"results":[{"path":"/srv/abc.txt","type":"file","size":9},{"path":"/srv/abc","type":"directory"}]}}`)
	})

	results, err := c.Search(context.Background(), SearchRequest{Query: "abc", Path: "/srv", Type: "all", MaxResults: 50})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "abc.txt", results[0].Name)
	assert.Equal(t, fs.TypeDirectory, results[1].Type)
}

func TestClient_UploadReportsPerFile(t *testing.T) {
	var progress []int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "/srv", r.FormValue("path"))
		assert.Len(t, r.MultipartForm.File["file"], 2)
		_, _ = io.WriteString(w, `{"results":[{"name":"a.txt","success":true},{"name":"b.txt","success":false,"error":"exists"}]}`)
	})

	files := []UploadFile{
		{Name: "a.txt", Size: 5, Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("hello")), nil }},
		{Name: "b.txt", Size: 3, Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("bye")), nil }},
	}
	results, err := c.Upload(context.Background(), "/srv", files, func(_ int, pct int) {
		progress = append(progress, pct)
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.Equal(t, "/srv/a.txt", results[0].Path)
	assert.False(t, results[1].Success)
	assert.Equal(t, "exists", results[1].Error)
	assert.NotEmpty(t, progress)
	for _, p := range progress {
		assert.LessOrEqual(t, p, 99)
	}
}

func TestClient_CreateIsConditional(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "*", r.Header.Get("If-None-Match"))
		w.WriteHeader(http.StatusPreconditionFailed)
		_, _ = io.WriteString(w, `{"error":"file already exists"}`)
	})

	err := c.Create(context.Background(), "/srv/a.txt", "")
	require.Error(t, err)
	assert.Equal(t, KindUnknown, KindOf(err))
	assert.Contains(t, err.Error(), "already exists")
}

// slowSource hands out one byte per read, pausing before each.
type slowSource struct {
	left  int
	pause time.Duration
}

func (s *slowSource) Read(p []byte) (int, error) {
	if s.left == 0 {
		return 0, io.EOF
	}
	time.Sleep(s.pause)
	s.left--
	p[0] = 'x'
	return 1, nil
}

func (s *slowSource) Close() error { return nil }

func newTimedClient(t *testing.T, timeout time.Duration, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(Config{BaseURL: srv.URL, Timeout: timeout, Logger: zerolog.Nop()})
	c.SetSession(Session{ConnectionID: "conn-1", Token: "secret"})
	return c
}

func TestClient_UploadOutlivesRequestTimeout(t *testing.T) {
	c := newTimedClient(t, 100*time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, _ = io.WriteString(w, `{"results":[{"name":"big.bin","success":true}]}`)
	})

	files := []UploadFile{{
		Name: "big.bin",
		Size: 5,
		Open: func() (io.ReadCloser, error) {
			return &slowSource{left: 5, pause: 60 * time.Millisecond}, nil
		},
	}}
	results, err := c.Upload(context.Background(), "/srv", files, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
}

func TestClient_DownloadOutlivesRequestTimeout(t *testing.T) {
	c := newTimedClient(t, 100*time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		for i := 0; i < 4; i++ {
			_, _ = io.WriteString(w, "chunk")
			w.(http.Flusher).Flush()
			time.Sleep(60 * time.Millisecond)
		}
	})

	content, err := c.Download(context.Background(), "/srv/big.bin")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("chunk", 4), string(content.Data))
}

func TestClient_StalledListTimesOut(t *testing.T) {
	c := newTimedClient(t, 50*time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	started := time.Now()
	_, err := c.List(context.Background(), "/")
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.False(t, IsCanceled(err))
	assert.Less(t, time.Since(started), time.Second)
}
