package requestconfig

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/kittycad/kittycad-go/internal"
	"github.com/kittycad/kittycad-go/internal/apierror"
	"github.com/kittycad/kittycad-go/internal/apiquery"
)

// RawBodier is implemented by params whose body is an opaque payload, such as a
// CAD file, rather than JSON.
type RawBodier interface {
	RawBody() (body io.Reader, contentType string, err error)
}

// FormBodier is implemented by params sent as application/x-www-form-urlencoded.
type FormBodier interface {
	FormBody() (url.Values, error)
}

type Middleware = func(*http.Request, MiddlewareNext) (*http.Response, error)
type MiddlewareNext = func(*http.Request) (*http.Response, error)

type RequestOption = func(*RequestConfig) error

// RequestConfig represents all the state related to one request.
//
// Editing the variables inside RequestConfig directly is unstable api. Prefer
// composing the RequestOption instead if possible.
type RequestConfig struct {
	MaxRetries     int
	RequestTimeout time.Duration
	Context        context.Context
	Request        *http.Request
	BaseURL        *url.URL
	HTTPClient     *http.Client
	Middlewares    []Middleware
	APIToken       string
	// If ResponseBodyInto not nil, then we will attempt to deserialize into
	// ResponseBodyInto. If Destination is a []byte, then it will return the body as
	// is.
	ResponseBodyInto any
	// ResponseInto copies the \*http.Response of the corresponding request into the
	// given address
	ResponseInto **http.Response
	Body         []byte
}

func NewRequestConfig(ctx context.Context, method string, u string, body any, dst any, opts ...RequestOption) (*RequestConfig, error) {
	var (
		content     []byte
		contentType string
		err         error
	)

	query := url.Values{}
	hasSerializationFunc := false
	if q, ok := body.(apiquery.Queryer); ok {
		hasSerializationFunc = true
		query, err = q.URLQuery()
		if err != nil {
			return nil, err
		}
	}

	switch b := body.(type) {
	case RawBodier:
		r, ct, err := b.RawBody()
		if err != nil {
			return nil, err
		}
		if r != nil {
			if content, err = io.ReadAll(r); err != nil {
				return nil, fmt.Errorf("reading request body: %w", err)
			}
			contentType = ct
		}
	case FormBodier:
		form, err := b.FormBody()
		if err != nil {
			return nil, err
		}
		content = []byte(form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case json.Marshaler:
		if content, err = b.MarshalJSON(); err != nil {
			return nil, err
		}
		contentType = "application/json"
	case []byte:
		content = b
		contentType = "application/octet-stream"
	case io.Reader:
		if content, err = io.ReadAll(b); err != nil {
			return nil, fmt.Errorf("reading request body: %w", err)
		}
		contentType = "application/octet-stream"
	default:
		if body != nil && !hasSerializationFunc {
			if content, err = json.Marshal(body); err != nil {
				return nil, err
			}
			contentType = "application/json"
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", fmt.Sprintf("kittycad-go/%s", internal.PackageVersion))

	cfg := RequestConfig{
		MaxRetries:       0,
		Context:          ctx,
		Request:          req,
		HTTPClient:       http.DefaultClient,
		Body:             content,
		ResponseBodyInto: dst,
	}
	if err := cfg.Apply(opts...); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Apply runs each option against the config, stopping at the first error.
func (cfg *RequestConfig) Apply(opts ...RequestOption) error {
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return err
		}
	}
	return nil
}

// Clone copies the config with a new context. The destinations are dropped so a
// follow-up request, such as the next page of a list, can set its own.
func (cfg *RequestConfig) Clone(ctx context.Context) *RequestConfig {
	if cfg == nil {
		return nil
	}
	req := cfg.Request.Clone(ctx)
	var body []byte
	if cfg.Body != nil {
		body = bytes.Clone(cfg.Body)
	}
	return &RequestConfig{
		MaxRetries:     cfg.MaxRetries,
		RequestTimeout: cfg.RequestTimeout,
		Context:        ctx,
		Request:        req,
		BaseURL:        cfg.BaseURL,
		HTTPClient:     cfg.HTTPClient,
		Middlewares:    append([]Middleware(nil), cfg.Middlewares...),
		APIToken:       cfg.APIToken,
		Body:           body,
	}
}

// ResolvedURL returns the request URL joined onto the base URL.
func (cfg *RequestConfig) ResolvedURL() (*url.URL, error) {
	if cfg.BaseURL == nil {
		return nil, fmt.Errorf("requestconfig: base url is not set")
	}
	return cfg.BaseURL.Parse(strings.TrimLeft(cfg.Request.URL.String(), "/"))
}

func shouldRetry(res *http.Response) bool {
	switch res.StatusCode {
	case http.StatusRequestTimeout, http.StatusConflict, http.StatusTooManyRequests:
		return true
	}
	return res.StatusCode >= http.StatusInternalServerError
}

func retryAfter(res *http.Response) time.Duration {
	v := res.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	if at, err := http.ParseTime(v); err == nil {
		return time.Until(at)
	}
	return 0
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func (cfg *RequestConfig) Execute() (err error) {
	cfg.Request.URL, err = cfg.ResolvedURL()
	if err != nil {
		return err
	}

	handler := cfg.HTTPClient.Do
	for i := len(cfg.Middlewares) - 1; i >= 0; i-- {
		mw, next := cfg.Middlewares[i], handler
		handler = func(req *http.Request) (*http.Response, error) {
			return mw(req, next)
		}
	}

	// cancel releases the current attempt's timeout; the last one is kept
	// until the body is consumed.
	cancel := context.CancelFunc(func() {})
	keepOpen := false
	defer func() {
		if !keepOpen {
			cancel()
		}
	}()

	backoff := retry.WithMaxRetries(uint64(max(cfg.MaxRetries, 0)), retry.NewExponential(500*time.Millisecond))
	backoff = retry.WithCappedDuration(8*time.Second, backoff)
	backoff = retry.WithJitterPercent(25, backoff)

	var (
		req     *http.Request
		res     *http.Response
		attempt int
	)
	err = retry.Do(cfg.Context, backoff, func(ctx context.Context) error {
		attempt++
		last := attempt > cfg.MaxRetries

		cancel()
		attemptCtx := ctx
		cancel = func() {}
		if cfg.RequestTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, cfg.RequestTimeout)
		}

		req = cfg.Request.Clone(attemptCtx)
		if cfg.Body != nil {
			body := cfg.Body
			req.ContentLength = int64(len(body))
			req.GetBody = func() (io.ReadCloser, error) {
				return io.NopCloser(bytes.NewReader(body)), nil
			}
			req.Body, _ = req.GetBody()
		}

		var doErr error
		res, doErr = handler(req)
		if doErr != nil {
			if ctx.Err() != nil || last {
				return doErr
			}
			return retry.RetryableError(doErr)
		}
		if last || !shouldRetry(res) {
			return nil
		}

		wait := retryAfter(res)
		io.Copy(io.Discard, res.Body)
		res.Body.Close()
		if wait > 0 && wait <= time.Minute {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return retry.RetryableError(fmt.Errorf("retrying %s %s: status %d", req.Method, req.URL, res.StatusCode))
	})
	if err != nil {
		return err
	}

	if cfg.ResponseInto != nil {
		*cfg.ResponseInto = res
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, readErr := io.ReadAll(res.Body)
		res.Body.Close()
		if readErr != nil {
			return readErr
		}
		// Restore the body so callers holding the response can still read it.
		res.Body = io.NopCloser(bytes.NewReader(body))
		return apierror.New(req, res, body)
	}

	if cfg.ResponseBodyInto == nil {
		res.Body.Close()
		return nil
	}
	if dst, ok := cfg.ResponseBodyInto.(**http.Response); ok {
		keepOpen = true
		res.Body = cancelOnClose{ReadCloser: res.Body, cancel: cancel}
		*dst = res
		return nil
	}

	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}
	res.Body = io.NopCloser(bytes.NewReader(body))

	switch dst := cfg.ResponseBodyInto.(type) {
	case *[]byte:
		*dst = body
		return nil
	case *string:
		*dst = string(body)
		return nil
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, cfg.ResponseBodyInto); err != nil {
		return fmt.Errorf("error parsing response json: %w", err)
	}
	return nil
}

// ExecuteNewRequest builds a config from the arguments and runs it.
func ExecuteNewRequest(ctx context.Context, method string, u string, body any, dst any, opts ...RequestOption) error {
	cfg, err := NewRequestConfig(ctx, method, u, body, dst, opts...)
	if err != nil {
		return err
	}
	return cfg.Execute()
}
