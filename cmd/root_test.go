package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittycad/kittycad-go/internal/config"
	"github.com/kittycad/kittycad-go/internal/testutil"
)

const opID = "0c5b1f6e-7a3d-4b8e-9f21-3d4c5b6a7e80"

// lockedBuffer is written by loggers on other goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testConfig(t *testing.T, f *testutil.FakeAPI) *config.Config {
	t.Helper()
	return &config.Config{
		Host:     f.URL,
		APIToken: "test-token",
		Output:   "text",
		LogLevel: "info",
		DataDir:  t.TempDir(),
		File:     filepath.Join(t.TempDir(), "config.json"),
	}
}

// run executes one CLI invocation against cfg and returns stdout and stderr.
func run(t *testing.T, cfg *config.Config, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr lockedBuffer
	opts := rootOptions{
		loadConfig: func(string, bool) (*config.Config, error) {
			c := *cfg
			return &c, nil
		},
		stdin:  strings.NewReader(stdin),
		stdout: &stdout,
		stderr: &stderr,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := execute(ctx, opts, args)
	return stdout.String(), stderr.String(), err
}

func TestCheckStdinPipe(t *testing.T) {
	origStdin := os.Stdin
	t.Cleanup(func() { os.Stdin = origStdin })

	t.Run("with piped data", func(t *testing.T) {
		r, w, err := os.Pipe()
		require.NoError(t, err)
		os.Stdin = r

		go func() {
			defer w.Close()
			w.Write([]byte("test piped input"))
		}()

		data, ok := checkStdinPipe()
		assert.True(t, ok)
		assert.Equal(t, "test piped input", data)
	})

	t.Run("regular file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "stdin")
		require.NoError(t, os.WriteFile(path, []byte("ignored"), 0o644))
		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()
		os.Stdin = f

		data, ok := checkStdinPipe()
		assert.False(t, ok)
		assert.Empty(t, data)
	})

	t.Run("empty pipe", func(t *testing.T) {
		r, w, err := os.Pipe()
		require.NoError(t, err)
		os.Stdin = r
		w.Close()

		data, ok := checkStdinPipe()
		assert.False(t, ok)
		assert.Empty(t, data)
	})
}

func TestReadPrompt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		args  []string
		stdin string
		want  string
	}{
		{name: "args joined", args: []string{"a", "small", "gear"}, want: "a small gear"},
		{name: "args win over stdin", args: []string{"cube"}, stdin: "sphere", want: "cube"},
		{name: "stdin", stdin: "a bracket\n", want: "a bracket\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := &app{stdin: strings.NewReader(tt.stdin)}
			got, err := a.readPrompt(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	f.GET("/ping", testutil.JSON(200, `{"message":"pong"}`))
	cfg := testConfig(t, f)
	cfg.Host = "http://127.0.0.1:1"

	out, _, err := run(t, cfg, "", "--host", f.URL, "--token", "flag-token", "-o", "json", "ping")
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"pong"}`, out)
	assert.Equal(t, "Bearer flag-token", f.Last(t).Header.Get("Authorization"))
}

func TestInvalidOutputFormat(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	_, _, err := run(t, testConfig(t, f), "", "-o", "yaml", "ping")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
	assert.Empty(t, f.Requests())
}

func TestAPIErrorIsReturned(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	f.GET("/user", testutil.JSON(401, `{"error_code":"unauthorized","message":"bad token","request_id":"r1"}`))

	_, _, err := run(t, testConfig(t, f), "", "whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestDebugLogsRequests(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	f.GET("/ping", testutil.JSON(200, `{"message":"pong"}`))

	out, stderr, err := run(t, testConfig(t, f), "", "--debug", "ping")
	require.NoError(t, err)
	assert.Contains(t, out, "pong")
	assert.Contains(t, stderr, "/ping")
}
