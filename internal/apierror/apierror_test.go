package apierror

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fakeExchange(status int, header http.Header, body string) (*http.Request, *http.Response) {
	u, _ := url.Parse("https://api.zoo.dev/user")
	req := &http.Request{Method: http.MethodGet, URL: u, Header: http.Header{}, Host: u.Host}
	if header == nil {
		header = http.Header{}
	}
	res := &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Request:    req,
		ProtoMajor: 1,
		ProtoMinor: 1,
	}
	return req, res
}

func TestNewDecodesAPIBody(t *testing.T) {
	t.Parallel()

	body := `{"error_code":"unauthorized","message":"invalid token","request_id":"req-1"}`
	req, res := fakeExchange(http.StatusUnauthorized, nil, body)
	err := New(req, res, []byte(body))

	assert.Equal(t, 401, err.StatusCode)
	assert.Equal(t, "unauthorized", err.ErrorCode)
	assert.Equal(t, "invalid token", err.Message)
	assert.Equal(t, "req-1", err.RequestID)
	assert.Equal(t, `GET "https://api.zoo.dev/user": 401 Unauthorized (unauthorized): invalid token [request_id=req-1]`, err.Error())
	assert.Equal(t, body, err.RawJSON())
}

func TestNewFallsBackToPlainBody(t *testing.T) {
	t.Parallel()

	header := http.Header{}
	header.Set("X-Request-Id", "hdr-7")
	req, res := fakeExchange(http.StatusBadGateway, header, "upstream down\n")
	err := New(req, res, []byte("upstream down\n"))

	assert.Equal(t, "upstream down", err.Message)
	assert.Equal(t, "hdr-7", err.RequestID)
	assert.Contains(t, err.Error(), "502 Bad Gateway")
}

func TestDumpResponse(t *testing.T) {
	t.Parallel()

	req, res := fakeExchange(http.StatusNotFound, nil, `{"message":"nope"}`)
	err := New(req, res, []byte(`{"message":"nope"}`))
	assert.Contains(t, string(err.DumpResponse(false)), "404 Not Found")
}
