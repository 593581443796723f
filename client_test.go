package kittycad_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittycad/kittycad-go"
	"github.com/kittycad/kittycad-go/internal/testutil"
	"github.com/kittycad/kittycad-go/option"
)

func newTestClient(t *testing.T, f *testutil.FakeAPI, opts ...option.RequestOption) *kittycad.Client {
	t.Helper()
	opts = append([]option.RequestOption{option.WithBaseURL(f.URL), option.WithAPIToken("test-token")}, opts...)
	return kittycad.NewClient(opts...)
}

func TestClientReadsEnvironment(t *testing.T) {
	f := testutil.NewFakeAPI(t)
	f.GET("/ping", testutil.JSON(http.StatusOK, `{"message":"pong"}`))

	t.Setenv("ZOO_HOST", f.URL)
	t.Setenv("ZOO_API_TOKEN", "")
	t.Setenv("KITTYCAD_API_TOKEN", "legacy-token")

	client := kittycad.NewClient()
	pong, err := client.Meta.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pong", pong.Message)
	assert.Equal(t, "Bearer legacy-token", f.Last(t).Header.Get("Authorization"))
}

func TestClientPrefersZooVariables(t *testing.T) {
	f := testutil.NewFakeAPI(t)
	f.GET("/user", testutil.JSON(http.StatusOK, `{"id":"6b0b9c5e-0000-4000-8000-000000000001","email":"ada@example.com"}`))

	t.Setenv("ZOO_HOST", f.URL)
	t.Setenv("KITTYCAD_HOST", "http://127.0.0.1:1")
	t.Setenv("ZOO_API_TOKEN", "zoo-token")
	t.Setenv("KITTYCAD_API_TOKEN", "legacy-token")

	user, err := kittycad.NewClient().Users.GetSelf(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.DisplayName())
	assert.Equal(t, "Bearer zoo-token", f.Last(t).Header.Get("Authorization"))
}

func TestClientOptionsOverrideEnvironment(t *testing.T) {
	f := testutil.NewFakeAPI(t)
	f.GET("/ping", testutil.JSON(http.StatusOK, `{"message":"pong"}`))
	t.Setenv("ZOO_API_TOKEN", "env-token")

	_, err := newTestClient(t, f).Meta.Ping(context.Background())
	require.NoError(t, err)
	req := f.Last(t)
	assert.Equal(t, "Bearer test-token", req.Header.Get("Authorization"))
	assert.Contains(t, req.Header.Get("User-Agent"), "kittycad-go/")
}

func TestClientExecuteUndocumentedEndpoint(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	f.POST("/internal/echo", func(c echo.Context) error {
		body, _ := io.ReadAll(c.Request().Body)
		return c.JSONBlob(http.StatusOK, body)
	})

	client := newTestClient(t, f)
	var res map[string]any
	err := client.Post(context.Background(), "internal/echo", map[string]any{"hello": "world"}, &res)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"hello": "world"}, res)
	assert.Equal(t, "application/json", f.Last(t).Header.Get("Content-Type"))
}

func TestClientErrorCarriesAPIFields(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	f.GET("/user", testutil.JSON(http.StatusForbidden, `{"error_code":"forbidden","message":"no access","request_id":"req-42"}`))

	_, err := newTestClient(t, f).Users.GetSelf(context.Background())
	var apierr *kittycad.Error
	require.True(t, errors.As(err, &apierr), "got %v", err)
	assert.Equal(t, http.StatusForbidden, apierr.StatusCode)
	assert.Equal(t, "forbidden", apierr.ErrorCode)
	assert.Equal(t, "no access", apierr.Message)
	assert.Equal(t, "req-42", apierr.RequestID)
}

func TestClientUnknownRoute(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	_, err := newTestClient(t, f).Meta.GetIPInfo(context.Background())
	var apierr *kittycad.Error
	require.True(t, errors.As(err, &apierr))
	assert.Equal(t, http.StatusNotFound, apierr.StatusCode)
	assert.Equal(t, "fake-request", apierr.RequestID)
}
