package kittycad

import (
	"context"
	"net/http"
	"os"
	"slices"

	"github.com/kittycad/kittycad-go/internal/requestconfig"
	"github.com/kittycad/kittycad-go/option"
)

// Client creates a struct with services and top level methods that help with
// interacting with the kittycad API. You should not instantiate this client
// directly, and instead use the [NewClient] method instead.
type Client struct {
	Options         []option.RequestOption
	Meta            *MetaService
	Users           *UserService
	APITokens       *APITokenService
	APICalls        *APICallService
	AsyncOperations *AsyncOperationService
	File            *FileService
	Executor        *ExecutorService
	ML              *MLService
	Modeling        *ModelingService
	Unit            *UnitService
	Orgs            *OrgService
	Payments        *PaymentService
	OAuth2          *OAuth2Service
}

// DefaultClientOptions read from the environment (ZOO_API_TOKEN, ZOO_HOST and
// their older KITTYCAD_ spellings). This should be used to initialize new
// clients.
func DefaultClientOptions() []option.RequestOption {
	defaults := []option.RequestOption{option.WithEnvironmentProduction()}
	if o := firstEnv("ZOO_HOST", "KITTYCAD_HOST"); o != "" {
		defaults = append(defaults, option.WithBaseURL(o))
	}
	if o := firstEnv("ZOO_API_TOKEN", "KITTYCAD_API_TOKEN", "KITTYCAD_TOKEN"); o != "" {
		defaults = append(defaults, option.WithAPIToken(o))
	}
	return defaults
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// NewClient generates a new client with the default option read from the
// environment (ZOO_API_TOKEN, ZOO_HOST). The option passed in as arguments are
// applied after these default arguments, and all option will be passed down to
// the services and requests that this client makes.
func NewClient(opts ...option.RequestOption) (r *Client) {
	opts = append(DefaultClientOptions(), opts...)

	r = &Client{Options: opts}

	r.Meta = NewMetaService(opts...)
	r.Users = NewUserService(opts...)
	r.APITokens = NewAPITokenService(opts...)
	r.APICalls = NewAPICallService(opts...)
	r.AsyncOperations = NewAsyncOperationService(opts...)
	r.File = NewFileService(opts...)
	r.Executor = NewExecutorService(opts...)
	r.ML = NewMLService(opts...)
	r.Modeling = NewModelingService(opts...)
	r.Unit = NewUnitService(opts...)
	r.Orgs = NewOrgService(opts...)
	r.Payments = NewPaymentService(opts...)
	r.OAuth2 = NewOAuth2Service(opts...)

	return
}

// Execute makes a request with the given context, method, URL, request params,
// response, and request options. This is useful for hitting undocumented endpoints
// while retaining the base URL, auth, retries, and other options from the client.
//
// If a byte slice or an [io.Reader] is supplied to params, it will be used as-is
// for the request body.
//
// The params is by default serialized into the body using [encoding/json]. If your
// type implements a URLQuery method, it will be used to encode the query
// parameters instead of the body.
//
// If the response is a byte slice, it will be filled with the raw response body.
// If the response is a *[http.Response], it will be filled with the raw response
// and the body is left open. Otherwise the response body is decoded as JSON.
func (r *Client) Execute(ctx context.Context, method string, path string, params interface{}, res interface{}, opts ...option.RequestOption) error {
	opts = slices.Concat(r.Options, opts)
	return requestconfig.ExecuteNewRequest(ctx, method, path, params, res, opts...)
}

// Get makes a GET request with the given URL, params, and optionally deserializes
// to a response. See [Execute] documentation on the params and response.
func (r *Client) Get(ctx context.Context, path string, params interface{}, res interface{}, opts ...option.RequestOption) error {
	return r.Execute(ctx, http.MethodGet, path, params, res, opts...)
}

// Post makes a POST request with the given URL, params, and optionally
// deserializes to a response. See [Execute] documentation on the params and
// response.
func (r *Client) Post(ctx context.Context, path string, params interface{}, res interface{}, opts ...option.RequestOption) error {
	return r.Execute(ctx, http.MethodPost, path, params, res, opts...)
}

// Put makes a PUT request with the given URL, params, and optionally deserializes
// to a response. See [Execute] documentation on the params and response.
func (r *Client) Put(ctx context.Context, path string, params interface{}, res interface{}, opts ...option.RequestOption) error {
	return r.Execute(ctx, http.MethodPut, path, params, res, opts...)
}

// Patch makes a PATCH request with the given URL, params, and optionally
// deserializes to a response. See [Execute] documentation on the params and
// response.
func (r *Client) Patch(ctx context.Context, path string, params interface{}, res interface{}, opts ...option.RequestOption) error {
	return r.Execute(ctx, http.MethodPatch, path, params, res, opts...)
}

// Delete makes a DELETE request with the given URL, params, and optionally
// deserializes to a response. See [Execute] documentation on the params and
// response.
func (r *Client) Delete(ctx context.Context, path string, params interface{}, res interface{}, opts ...option.RequestOption) error {
	return r.Execute(ctx, http.MethodDelete, path, params, res, opts...)
}
