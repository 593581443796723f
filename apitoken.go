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

// APITokenService contains methods and other services that help with interacting
// with the kittycad API.
//
// Note, unlike clients, this service does not read variables from the environment
// automatically. You should not instantiate this service directly, and instead use
// the [NewAPITokenService] method instead.
type APITokenService struct {
	Options []option.RequestOption
}

// NewAPITokenService generates a new service that applies the given options to
// each request. These options are applied after the parent client's options (if
// there is one), and before any request-specific options.
func NewAPITokenService(opts ...option.RequestOption) (r *APITokenService) {
	r = &APITokenService{}
	r.Options = opts
	return
}

// Create a new API token for your user.
func (r *APITokenService) New(ctx context.Context, params APITokenNewParams, opts ...option.RequestOption) (res *APIToken, err error) {
	opts = slices.Concat(r.Options, opts)
	path := "user/api-tokens"
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, params, &res, opts...)
	return
}

// Get an API token for your user.
func (r *APITokenService) Get(ctx context.Context, token string, opts ...option.RequestOption) (res *APIToken, err error) {
	opts = slices.Concat(r.Options, opts)
	if token == "" {
		err = errors.New("missing required token parameter")
		return
	}
	path := fmt.Sprintf("user/api-tokens/%s", url.PathEscape(token))
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, nil, &res, opts...)
	return
}

// List API tokens for your user.
func (r *APITokenService) List(ctx context.Context, query APITokenListParams, opts ...option.RequestOption) (res *pagination.ResultsPage[APIToken], err error) {
	var raw *http.Response
	opts = slices.Concat(r.Options, opts, []option.RequestOption{option.WithResponseInto(&raw)})
	path := "user/api-tokens"
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

// List API tokens for your user, fetching further pages as the iterator advances.
func (r *APITokenService) ListAutoPaging(ctx context.Context, query APITokenListParams, opts ...option.RequestOption) *pagination.ResultsPageAutoPager[APIToken] {
	return pagination.NewResultsPageAutoPager(r.List(ctx, query, opts...))
}

// Delete an API token for your user. This endpoint requires authentication by any
// Zoo user. It deletes the requested API token for the user.
func (r *APITokenService) Delete(ctx context.Context, token string, opts ...option.RequestOption) (err error) {
	opts = slices.Concat(r.Options, opts)
	if token == "" {
		err = errors.New("missing required token parameter")
		return
	}
	path := fmt.Sprintf("user/api-tokens/%s", url.PathEscape(token))
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodDelete, path, nil, nil, opts...)
	return
}

// An API token. These are used to authenticate users with Bearer authentication.
type APIToken struct {
	// The unique identifier for the API token.
	ID uuid.UUID `json:"id"`
	// If the token is valid. We never delete API tokens, but we can mark them as
	// invalid. We save them for ever to preserve the history of the API token.
	IsValid bool `json:"is_valid"`
	// An optional label for the API token.
	Label string `json:"label"`
	// The API token itself.
	Token string `json:"token"`
	// The ID of the user that owns the API token.
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type APITokenNewParams struct {
	// An optional label for the API token.
	Label param.Field[string] `query:"label"`
}

// URLQuery serializes [APITokenNewParams]'s query parameters as `url.Values`.
func (r APITokenNewParams) URLQuery() (url.Values, error) {
	return apiquery.MarshalQuery(r)
}

type APITokenListParams struct {
	PageParams
}

// URLQuery serializes [APITokenListParams]'s query parameters as `url.Values`.
func (r APITokenListParams) URLQuery() (url.Values, error) {
	return apiquery.MarshalQuery(r)
}
