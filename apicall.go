package kittycad

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/kittycad/kittycad-go/internal/apiquery"
	"github.com/kittycad/kittycad-go/internal/param"
	"github.com/kittycad/kittycad-go/internal/requestconfig"
	"github.com/kittycad/kittycad-go/option"
	"github.com/kittycad/kittycad-go/packages/pagination"
)

// APICallService contains methods and other services that help with interacting
// with the kittycad API.
//
// Note, unlike clients, this service does not read variables from the environment
// automatically. You should not instantiate this service directly, and instead use
// the [NewAPICallService] method instead.
type APICallService struct {
	Options []option.RequestOption
}

// NewAPICallService generates a new service that applies the given options to
// each request. These options are applied after the parent client's options (if
// there is one), and before any request-specific options.
func NewAPICallService(opts ...option.RequestOption) (r *APICallService) {
	r = &APICallService{}
	r.Options = opts
	return
}

// Get the details of an API call made by your user.
func (r *APICallService) GetForUser(ctx context.Context, id string, opts ...option.RequestOption) (res *APICallWithPrice, err error) {
	opts = slices.Concat(r.Options, opts)
	if id == "" {
		err = errors.New("missing required id parameter")
		return
	}
	path := fmt.Sprintf("user/api-calls/%s", url.PathEscape(id))
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, nil, &res, opts...)
	return
}

// List API calls for your user.
func (r *APICallService) ListForUser(ctx context.Context, query APICallListParams, opts ...option.RequestOption) (res *pagination.ResultsPage[APICallWithPrice], err error) {
	return r.list(ctx, "user/api-calls", query, opts...)
}

// List API calls for your user, fetching further pages as the iterator advances.
func (r *APICallService) ListForUserAutoPaging(ctx context.Context, query APICallListParams, opts ...option.RequestOption) *pagination.ResultsPageAutoPager[APICallWithPrice] {
	return pagination.NewResultsPageAutoPager(r.ListForUser(ctx, query, opts...))
}

// Get the details of an API call. Only Zoo employees can see calls of other
// users.
func (r *APICallService) Get(ctx context.Context, id string, opts ...option.RequestOption) (res *APICallWithPrice, err error) {
	opts = slices.Concat(r.Options, opts)
	if id == "" {
		err = errors.New("missing required id parameter")
		return
	}
	path := fmt.Sprintf("api-calls/%s", url.PathEscape(id))
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, nil, &res, opts...)
	return
}

// List API calls. Only Zoo employees can list the calls of every user.
func (r *APICallService) List(ctx context.Context, query APICallListParams, opts ...option.RequestOption) (res *pagination.ResultsPage[APICallWithPrice], err error) {
	return r.list(ctx, "api-calls", query, opts...)
}

// List API calls, fetching further pages as the iterator advances.
func (r *APICallService) ListAutoPaging(ctx context.Context, query APICallListParams, opts ...option.RequestOption) *pagination.ResultsPageAutoPager[APICallWithPrice] {
	return pagination.NewResultsPageAutoPager(r.List(ctx, query, opts...))
}

func (r *APICallService) list(ctx context.Context, path string, query APICallListParams, opts ...option.RequestOption) (res *pagination.ResultsPage[APICallWithPrice], err error) {
	var raw *http.Response
	opts = slices.Concat(r.Options, opts, []option.RequestOption{option.WithResponseInto(&raw)})
	cfg, err := requestconfig.NewRequestConfig(ctx, http.MethodGet, path, query, &res, opts...)
	if err != nil {
		return nil, err
	}
	err = cfg.Execute()
	if err != nil {
		return nil, err
	}
	res.SetPageConfig(cfg, raw)
	return res, nil
}

// Get API call metrics, grouped by the given field.
func (r *APICallService) GetMetrics(ctx context.Context, query APICallGetMetricsParams, opts ...option.RequestOption) (res []APICallQueryGroup, err error) {
	opts = slices.Concat(r.Options, opts)
	path := "api-call-metrics"
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, query, &res, opts...)
	return
}

// An API call with the price.
type APICallWithPrice struct {
	// The unique identifier for the API call.
	ID uuid.UUID `json:"id"`
	// The date and time the API call completed billing.
	CompletedAt *time.Time `json:"completed_at"`
	// The date and time the API call was created.
	CreatedAt time.Time `json:"created_at"`
	// The duration of the API call, in nanoseconds.
	Duration *int64 `json:"duration"`
	// The user's email address.
	Email string `json:"email"`
	// The endpoint requested by the API call.
	Endpoint string `json:"endpoint"`
	// The ip address of the origin.
	IPAddress string `json:"ip_address"`
	// If the API call was spawned from the litterbox or not.
	Litterbox bool `json:"litterbox"`
	// The HTTP method requested by the API call.
	Method Method `json:"method"`
	// The number of minutes the API call was billed for.
	Minutes *int64 `json:"minutes"`
	// The organization ID of the API call if it is billable through an
	// organization.
	OrgID *uuid.UUID `json:"org_id"`
	// The origin of the API call.
	Origin string `json:"origin"`
	// The price of the API call.
	Price *float64 `json:"price"`
	// The request body sent by the API call.
	RequestBody string `json:"request_body"`
	// The request query params sent by the API call.
	RequestQueryParams string `json:"request_query_params"`
	// The response body returned by the API call. We do not store this
	// information if it is above a certain size.
	ResponseBody string `json:"response_body"`
	// The date and time the API call started billing.
	StartedAt *time.Time `json:"started_at"`
	// The status code returned by the API call.
	StatusCode *int64 `json:"status_code"`
	// The Stripe invoice item ID of the API call if it is billable.
	StripeInvoiceItemID string `json:"stripe_invoice_item_id"`
	// The API token that made the API call.
	Token uuid.UUID `json:"token"`
	// The date and time the API call was last updated.
	UpdatedAt time.Time `json:"updated_at"`
	// The user agent of the request.
	UserAgent string `json:"user_agent"`
	// The ID of the user that made the API call.
	UserID uuid.UUID `json:"user_id"`
}

// A response for a query on the API call table that is grouped by something.
type APICallQueryGroup struct {
	Count int64  `json:"count"`
	Query string `json:"query"`
}

// The field of an API call to group by.
type APICallQueryGroupBy string

const (
	APICallQueryGroupByEmail     APICallQueryGroupBy = "email"
	APICallQueryGroupByMethod    APICallQueryGroupBy = "method"
	APICallQueryGroupByEndpoint  APICallQueryGroupBy = "endpoint"
	APICallQueryGroupByUserID    APICallQueryGroupBy = "user_id"
	APICallQueryGroupByOrigin    APICallQueryGroupBy = "origin"
	APICallQueryGroupByIPAddress APICallQueryGroupBy = "ip_address"
)

func (r APICallQueryGroupBy) IsKnown() bool {
	switch r {
	case APICallQueryGroupByEmail, APICallQueryGroupByMethod, APICallQueryGroupByEndpoint, APICallQueryGroupByUserID, APICallQueryGroupByOrigin, APICallQueryGroupByIPAddress:
		return true
	}
	return false
}

type APICallListParams struct {
	PageParams
}

// URLQuery serializes [APICallListParams]'s query parameters as `url.Values`.
func (r APICallListParams) URLQuery() (url.Values, error) {
	return apiquery.MarshalQuery(r)
}

type APICallGetMetricsParams struct {
	// What field to group the metrics by.
	GroupBy param.Field[APICallQueryGroupBy] `query:"group_by"`
}

// URLQuery serializes [APICallGetMetricsParams]'s query parameters as
// `url.Values`.
func (r APICallGetMetricsParams) URLQuery() (url.Values, error) {
	return apiquery.MarshalQuery(r)
}
