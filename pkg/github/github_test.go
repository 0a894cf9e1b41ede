package github

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tarEntry struct {
	name     string
	content  []byte
	typeflag byte
}

func buildTarball(t *testing.T, entries ...tarEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for _, e := range entries {
		typeflag := e.typeflag
		if typeflag == 0 {
			typeflag = tar.TypeReg
		}
		header := &tar.Header{Name: e.name, Mode: 0o644, Typeflag: typeflag}
		if typeflag == tar.TypeReg {
			header.Size = int64(len(e.content))
		}
		require.NoError(t, tw.WriteHeader(header))
		if typeflag == tar.TypeReg {
			_, err := tw.Write(e.content)
			require.NoError(t, err)
		}
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func fastRetry() Option {
	return WithRetry(RetryConfig{Attempts: 3, InitialDelay: 1, MaxDelay: 5, BackoffType: "fixed"})
}

func TestExtractTarball(t *testing.T) {
	data := buildTarball(t,
		tarEntry{name: "owner-repo-abc123/", typeflag: tar.TypeDir},
		tarEntry{name: "owner-repo-abc123/agents/dev/reviewer.md", content: []byte("# Reviewer")},
		tarEntry{name: "owner-repo-abc123/README.md", content: []byte("readme")},
		tarEntry{name: "pax_global_header", content: []byte("ignored")},
		tarEntry{name: "owner-repo-abc123/logo.png", content: []byte{0xff, 0xfe, 0x00, 0x80}},
	)

	files, err := ExtractTarball(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []File{
		{Path: "agents/dev/reviewer.md", Content: "# Reviewer"},
		{Path: "README.md", Content: "readme"},
	}, files)
}

func TestExtractTarballRejectsGarbage(t *testing.T) {
	_, err := ExtractTarball(bytes.NewReader([]byte("not a tarball")))
	require.Error(t, err)

	var extractionErr *ExtractionError
	assert.True(t, errors.As(err, &extractionErr))
}

func TestTarballClientFetch(t *testing.T) {
	data := buildTarball(t,
		tarEntry{name: "root/agents/a.md", content: []byte("a")},
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octo/defs/tarball/main", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Contains(t, r.Header.Get("User-Agent"), "agentdefs/")
		w.Write(data)
	}))
	defer server.Close()

	client := NewTarballClient(WithAPIBaseURL(server.URL), WithToken("secret"), fastRetry())
	files, err := client.Fetch(context.Background(), "octo", "defs", "main")
	require.NoError(t, err)
	assert.Equal(t, []File{{Path: "agents/a.md", Content: "a"}}, files)
}

func TestTarballClientRetriesTransientFailures(t *testing.T) {
	data := buildTarball(t, tarEntry{name: "root/a.md", content: []byte("a")})

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.Write(data)
		}
	}))
	defer server.Close()

	client := NewTarballClient(WithAPIBaseURL(server.URL), fastRetry())
	files, err := client.Fetch(context.Background(), "o", "r", "main")
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestTarballClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewTarballClient(WithAPIBaseURL(server.URL), fastRetry())
	_, err := client.Fetch(context.Background(), "o", "missing", "main")
	require.Error(t, err)

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, http.StatusNotFound, netErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTarballClientGivesUpAfterAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewTarballClient(WithAPIBaseURL(server.URL), fastRetry())
	_, err := client.Fetch(context.Background(), "o", "r", "main")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Equal(t, int32(3), calls.Load())
}

func TestGistClientFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gists/abc123", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"files": {
				"z-agent.md": {"filename": "z-agent.md", "content": "---\nname: z\n---\n"},
				"big.md": {"filename": "big.md", "content": null},
				"a-agent.md": {"filename": "a-agent.md", "content": "# a"}
			}
		}`))
	}))
	defer server.Close()

	client := NewGistClient(WithAPIBaseURL(server.URL), fastRetry())
	files, err := client.Fetch(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, []File{
		{Path: "a-agent.md", Content: "# a"},
		{Path: "z-agent.md", Content: "---\nname: z\n---\n"},
	}, files)
}

func TestGistClientInvalidJSON(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	client := NewGistClient(WithAPIBaseURL(server.URL), fastRetry())
	_, err := client.Fetch(context.Background(), "abc")
	require.Error(t, err)

	var extractionErr *ExtractionError
	assert.True(t, errors.As(err, &extractionErr))
	assert.Equal(t, int32(1), calls.Load())
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"transport", &NetworkError{URL: "u", Err: errors.New("reset")}, true},
		{"server error", &NetworkError{URL: "u", StatusCode: 500}, true},
		{"rate limited", &NetworkError{URL: "u", StatusCode: 429}, true},
		{"not found", &NetworkError{URL: "u", StatusCode: 404}, false},
		{"extraction", &ExtractionError{Err: errors.New("bad")}, false},
		{"canceled", &NetworkError{URL: "u", Err: context.Canceled}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isRetryableError(tt.err))
		})
	}
}
