package option_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-logfmt/logfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/kittycad/kittycad-go/internal/requestconfig"
	"github.com/kittycad/kittycad-go/option"
)

func TestWithDebugLogWritesLogfmt(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", "req-42")
		w.Write([]byte(`{"message":"pong"}`))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	err := requestconfig.ExecuteNewRequest(context.Background(), http.MethodGet, "ping", nil, nil,
		option.WithBaseURL(srv.URL), option.WithAPIToken("top-secret"), option.WithDebugLog(&buf))
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "top-secret")

	var records []map[string]string
	dec := logfmt.NewDecoder(&buf)
	for dec.ScanRecord() {
		rec := map[string]string{}
		for dec.ScanKeyval() {
			rec[string(dec.Key())] = string(dec.Value())
		}
		records = append(records, rec)
	}
	require.NoError(t, dec.Err())
	require.Len(t, records, 2)
	assert.Equal(t, "request", records[0]["at"])
	assert.Equal(t, "GET", records[0]["method"])
	assert.Equal(t, "response", records[1]["at"])
	assert.Equal(t, "200", records[1]["status"])
	assert.Equal(t, "req-42", records[1]["request_id"])
}

func TestWithBaseURLAddsTrailingSlash(t *testing.T) {
	t.Parallel()

	cfg, err := requestconfig.NewRequestConfig(context.Background(), http.MethodGet, "user", nil, nil,
		option.WithBaseURL("https://example.com/kittycad"))
	require.NoError(t, err)
	u, err := cfg.ResolvedURL()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/kittycad/user", u.String())
}

func TestWithBaseURLIsSharedSafely(t *testing.T) {
	t.Parallel()

	var paths sync.Map
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths.Store(r.URL.Path, true)
		w.Write([]byte(`{"message":"pong"}`))
	}))
	defer srv.Close()

	base := option.WithBaseURL(srv.URL + "/v1")
	var g errgroup.Group
	for range 8 {
		g.Go(func() error {
			return requestconfig.ExecuteNewRequest(context.Background(), http.MethodGet, "ping", nil, nil, base)
		})
	}
	require.NoError(t, g.Wait())
	_, ok := paths.Load("/v1/ping")
	assert.True(t, ok)

	a, err := requestconfig.NewRequestConfig(context.Background(), http.MethodGet, "ping", nil, nil, base)
	require.NoError(t, err)
	b, err := requestconfig.NewRequestConfig(context.Background(), http.MethodGet, "ping", nil, nil, base)
	require.NoError(t, err)
	assert.NotSame(t, a.BaseURL, b.BaseURL)
	assert.Equal(t, "/v1/", b.BaseURL.Path)
}

func TestWithAPITokenEmptyClearsHeader(t *testing.T) {
	t.Parallel()

	cfg, err := requestconfig.NewRequestConfig(context.Background(), http.MethodGet, "user", nil, nil,
		option.WithAPIToken("abc"), option.WithAPIToken(""))
	require.NoError(t, err)
	assert.Empty(t, cfg.Request.Header.Get("Authorization"))
}

func TestWithQueryHelpers(t *testing.T) {
	t.Parallel()

	cfg, err := requestconfig.NewRequestConfig(context.Background(), http.MethodGet, "users", nil, nil,
		option.WithQuery("limit", "5"),
		option.WithQueryAdd("status", "queued"),
		option.WithQueryAdd("status", "failed"),
		option.WithQueryDel("limit"),
		option.WithHeader("X-One", "1"),
		option.WithHeaderDel("Accept"))
	require.NoError(t, err)
	assert.Equal(t, "status=queued&status=failed", cfg.Request.URL.RawQuery)
	assert.Equal(t, "1", cfg.Request.Header.Get("X-One"))
	assert.Empty(t, cfg.Request.Header.Get("Accept"))
}
