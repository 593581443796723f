package apierror

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"strings"
)

// Error represents an error that originates from the API, i.e. when a request is
// made and the API returns a response with a HTTP status code. Other errors are
// not wrapped by this SDK.
type Error struct {
	// ErrorCode is the machine readable error code, when the API sends one.
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`

	StatusCode int
	Request    *http.Request
	Response   *http.Response
	raw        []byte
}

// New builds an Error from a non-2xx response and its already read body.
func New(req *http.Request, res *http.Response, body []byte) *Error {
	e := &Error{
		StatusCode: res.StatusCode,
		Request:    req,
		Response:   res,
		raw:        body,
	}
	// The API answers errors with {"error_code", "message", "request_id"};
	// gateways in front of it may not.
	if err := json.Unmarshal(body, e); err != nil {
		e.Message = strings.TrimSpace(string(body))
	}
	if e.RequestID == "" {
		e.RequestID = res.Header.Get("X-Request-Id")
	}
	return e
}

// RawJSON returns the unparsed response body.
func (r *Error) RawJSON() string {
	return string(r.raw)
}

func (r *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s \"%s\": %d %s", r.Request.Method, r.Request.URL, r.Response.StatusCode, http.StatusText(r.Response.StatusCode))
	if r.ErrorCode != "" {
		fmt.Fprintf(&b, " (%s)", r.ErrorCode)
	}
	if r.Message != "" {
		fmt.Fprintf(&b, ": %s", r.Message)
	}
	if r.RequestID != "" {
		fmt.Fprintf(&b, " [request_id=%s]", r.RequestID)
	}
	return b.String()
}

// DumpRequest returns the request in its HTTP/1.x wire form.
func (r *Error) DumpRequest(body bool) []byte {
	if r.Request.GetBody != nil {
		r.Request.Body, _ = r.Request.GetBody()
	}
	out, _ := httputil.DumpRequestOut(r.Request, body)
	return out
}

// DumpResponse returns the response in its HTTP/1.x wire form.
func (r *Error) DumpResponse(body bool) []byte {
	out, _ := httputil.DumpResponse(r.Response, body)
	return out
}
