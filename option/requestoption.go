package option

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-logfmt/logfmt"
	"github.com/tidwall/sjson"

	"github.com/kittycad/kittycad-go/internal/requestconfig"
)

// RequestOption is an option for the requests made by the kittycad API Client
// which can be supplied to clients, services, and methods. You can read more about this functional
// options pattern in our [README].
//
// [README]: https://pkg.go.dev/github.com/kittycad/kittycad-go#readme-requestoptions
type RequestOption = func(*requestconfig.RequestConfig) error

// Middleware is a function that wraps every HTTP exchange of the client.
type Middleware = requestconfig.Middleware

// MiddlewareNext hands the request to the next middleware, or to the HTTP client.
type MiddlewareNext = requestconfig.MiddlewareNext

// WithBaseURL returns a RequestOption that sets the BaseURL for the client.
func WithBaseURL(base string) RequestOption {
	u, err := url.Parse(base)
	if err != nil {
		log.Fatalf("failed to parse BaseURL: %s\n", err)
	}
	if u.Path != "" && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return func(r *requestconfig.RequestConfig) error {
		base := *u
		r.BaseURL = &base
		return nil
	}
}

// WithHTTPClient returns a RequestOption that changes the underlying [http.Client] used to make this
// request, which by default is [http.DefaultClient].
func WithHTTPClient(client *http.Client) RequestOption {
	return func(r *requestconfig.RequestConfig) error {
		r.HTTPClient = client
		return nil
	}
}

// WithMiddleware returns a RequestOption that applies the given middleware
// to the requests made. Each middleware will execute in the order they were given.
func WithMiddleware(middlewares ...Middleware) RequestOption {
	return func(r *requestconfig.RequestConfig) error {
		r.Middlewares = append(r.Middlewares, middlewares...)
		return nil
	}
}

// WithMaxRetries returns a RequestOption that sets the maximum number of retries
// the client attempts for 408, 409, 429 and 5xx responses and transport failures.
// The default is 0, so a failed request is reported at once.
func WithMaxRetries(retries int) RequestOption {
	if retries < 0 {
		panic("option: cannot have fewer than 0 retries")
	}
	return func(r *requestconfig.RequestConfig) error {
		r.MaxRetries = retries
		return nil
	}
}

// WithHeader returns a RequestOption that sets the header value to the associated key. It overwrites
// any value if there was one already present.
func WithHeader(key, value string) RequestOption {
	return func(r *requestconfig.RequestConfig) error {
		r.Request.Header.Set(key, value)
		return nil
	}
}

// WithHeaderAdd returns a RequestOption that adds the header value to the associated key. It appends
// onto any existing values.
func WithHeaderAdd(key, value string) RequestOption {
	return func(r *requestconfig.RequestConfig) error {
		r.Request.Header.Add(key, value)
		return nil
	}
}

// WithHeaderDel returns a RequestOption that deletes the header value(s) associated with the given key.
func WithHeaderDel(key string) RequestOption {
	return func(r *requestconfig.RequestConfig) error {
		r.Request.Header.Del(key)
		return nil
	}
}

// WithQuery returns a RequestOption that sets the query value to the associated key. It overwrites
// any value if there was one already present.
func WithQuery(key, value string) RequestOption {
	return func(r *requestconfig.RequestConfig) error {
		query := r.Request.URL.Query()
		query.Set(key, value)
		r.Request.URL.RawQuery = query.Encode()
		return nil
	}
}

// WithQueryAdd returns a RequestOption that adds the query value to the associated key. It appends
// onto any existing values.
func WithQueryAdd(key, value string) RequestOption {
	return func(r *requestconfig.RequestConfig) error {
		query := r.Request.URL.Query()
		query.Add(key, value)
		r.Request.URL.RawQuery = query.Encode()
		return nil
	}
}

// WithQueryDel returns a RequestOption that deletes the query value(s) associated with the key.
func WithQueryDel(key string) RequestOption {
	return func(r *requestconfig.RequestConfig) error {
		query := r.Request.URL.Query()
		query.Del(key)
		r.Request.URL.RawQuery = query.Encode()
		return nil
	}
}

// WithJSONSet returns a RequestOption that sets the body's JSON value associated with the key.
// The key accepts a string as defined by the [sjson format].
//
// [sjson format]: https://github.com/tidwall/sjson
func WithJSONSet(key string, value interface{}) RequestOption {
	return func(r *requestconfig.RequestConfig) (err error) {
		body := r.Body
		if len(body) == 0 {
			body = []byte("{}")
		}
		r.Body, err = sjson.SetBytes(body, key, value)
		if err == nil && r.Request.Header.Get("Content-Type") == "" {
			r.Request.Header.Set("Content-Type", "application/json")
		}
		return err
	}
}

// WithJSONDel returns a RequestOption that deletes the body's JSON value associated with the key.
// The key accepts a string as defined by the [sjson format].
//
// [sjson format]: https://github.com/tidwall/sjson
func WithJSONDel(key string) RequestOption {
	return func(r *requestconfig.RequestConfig) (err error) {
		if len(r.Body) == 0 {
			return nil
		}
		r.Body, err = sjson.DeleteBytes(r.Body, key)
		return err
	}
}

// WithRequestBody returns a RequestOption that provides a custom serialized body with the given
// content type.
//
// body accepts an io.Reader or raw []bytes.
func WithRequestBody(contentType string, body any) RequestOption {
	return func(r *requestconfig.RequestConfig) error {
		switch b := body.(type) {
		case []byte:
			r.Body = b
		case io.Reader:
			data, err := io.ReadAll(b)
			if err != nil {
				return err
			}
			r.Body = data
		default:
			return fmt.Errorf("option: WithRequestBody wants []byte or io.Reader, got %T", body)
		}
		r.Request.Header.Set("Content-Type", contentType)
		return nil
	}
}

// WithResponseBodyInto returns a RequestOption that overwrites the deserialization target with
// the given destination. If provided, we don't deserialize into the default struct.
func WithResponseBodyInto(dst any) RequestOption {
	return func(r *requestconfig.RequestConfig) error {
		r.ResponseBodyInto = dst
		return nil
	}
}

// WithResponseInto returns a RequestOption that copies the [*http.Response] into the given address.
func WithResponseInto(dst **http.Response) RequestOption {
	return func(r *requestconfig.RequestConfig) error {
		r.ResponseInto = dst
		return nil
	}
}

// WithRequestTimeout returns a RequestOption that sets the timeout for
// each request attempt. This should be smaller than the timeout defined in
// the context, which spans all retries.
func WithRequestTimeout(dur time.Duration) RequestOption {
	return func(r *requestconfig.RequestConfig) error {
		r.RequestTimeout = dur
		return nil
	}
}

// WithEnvironmentProduction returns a RequestOption that sets the current
// environment to be the "production" environment. An environment specifies which base URL
// to use by default.
func WithEnvironmentProduction() RequestOption {
	return WithBaseURL("https://api.zoo.dev/")
}

// WithAPIToken returns a RequestOption that sets the client setting "api_token".
func WithAPIToken(value string) RequestOption {
	return func(r *requestconfig.RequestConfig) error {
		r.APIToken = value
		if value == "" {
			r.Request.Header.Del("Authorization")
			return nil
		}
		return r.Apply(WithHeader("Authorization", fmt.Sprintf("Bearer %s", r.APIToken)))
	}
}

// WithDebugLog returns a RequestOption that writes one logfmt record for every
// request and one for every response to w. Bodies are not logged and the
// Authorization header is never written.
func WithDebugLog(w io.Writer) RequestOption {
	return WithMiddleware(func(req *http.Request, next MiddlewareNext) (*http.Response, error) {
		var buf bytes.Buffer
		enc := logfmt.NewEncoder(&buf)
		start := time.Now()

		enc.EncodeKeyvals("at", "request", "method", req.Method, "url", req.URL.String(), "bytes", req.ContentLength)
		enc.EndRecord()

		res, err := next(req)

		enc.EncodeKeyvals("at", "response", "method", req.Method, "url", req.URL.String(), "duration", time.Since(start).Round(time.Millisecond))
		if err != nil {
			enc.EncodeKeyval("error", err.Error())
		} else {
			enc.EncodeKeyvals("status", res.StatusCode, "request_id", res.Header.Get("X-Request-Id"))
		}
		enc.EndRecord()

		w.Write(buf.Bytes())
		return res, err
	})
}
