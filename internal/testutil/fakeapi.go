package testutil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
)

// Request is what the fake API saw of one call.
type Request struct {
	Method  string
	Path    string
	RawPath string // escaped form of Path
	Query   url.Values
	Header  http.Header
	Body    []byte
}

// FakeAPI is an in-process stand-in for the API. Tests register the routes they
// exercise on the embedded echo instance and point the client at URL.
type FakeAPI struct {
	*echo.Echo
	URL string

	mu       sync.Mutex
	requests []Request
}

func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	f := &FakeAPI{Echo: e}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
				req.Body = io.NopCloser(bytes.NewReader(body))
			}
			f.mu.Lock()
			f.requests = append(f.requests, Request{
				Method:  req.Method,
				Path:    req.URL.Path,
				RawPath: req.URL.EscapedPath(),
				Query:   req.URL.Query(),
				Header:  req.Header.Clone(),
				Body:    body,
			})
			f.mu.Unlock()
			return next(c)
		}
	})
	// Unmatched routes answer the way the API does.
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if s, ok := he.Message.(string); ok {
				msg = s
			}
		}
		c.JSON(code, map[string]string{
			"error_code": http.StatusText(code),
			"message":    msg,
			"request_id": "fake-request",
		})
	}

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	f.URL = srv.URL
	return f
}

// Requests returns every call received so far.
func (f *FakeAPI) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}

// Last returns the most recent call. It fails the test when there is none.
func (f *FakeAPI) Last(t *testing.T) Request {
	t.Helper()
	reqs := f.Requests()
	if len(reqs) == 0 {
		t.Fatal("fake api: no requests received")
	}
	return reqs[len(reqs)-1]
}

// JSON answers with a fixed JSON document.
func JSON(status int, body string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.Blob(status, echo.MIMEApplicationJSON, []byte(body))
	}
}
