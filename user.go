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

// UserService contains methods and other services that help with interacting with
// the kittycad API.
//
// Note, unlike clients, this service does not read variables from the environment
// automatically. You should not instantiate this service directly, and instead use
// the [NewUserService] method instead.
type UserService struct {
	Options []option.RequestOption
}

// NewUserService generates a new service that applies the given options to each
// request. These options are applied after the parent client's options (if there
// is one), and before any request-specific options.
func NewUserService(opts ...option.RequestOption) (r *UserService) {
	r = &UserService{}
	r.Options = opts
	return
}

// Get the user who owns the API token.
func (r *UserService) GetSelf(ctx context.Context, opts ...option.RequestOption) (res *User, err error) {
	opts = slices.Concat(r.Options, opts)
	path := "user"
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, nil, &res, opts...)
	return
}

// Get the user who owns the API token, with the billing and CRM ids attached.
func (r *UserService) GetSelfExtended(ctx context.Context, opts ...option.RequestOption) (res *ExtendedUser, err error) {
	opts = slices.Concat(r.Options, opts)
	path := "user/extended"
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, nil, &res, opts...)
	return
}

// Update the user who owns the API token.
func (r *UserService) UpdateSelf(ctx context.Context, body UserUpdateSelfParams, opts ...option.RequestOption) (res *User, err error) {
	opts = slices.Concat(r.Options, opts)
	path := "user"
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodPut, path, body, &res, opts...)
	return
}

// Delete the user who owns the API token. This cannot be undone.
func (r *UserService) DeleteSelf(ctx context.Context, opts ...option.RequestOption) (err error) {
	opts = slices.Concat(r.Options, opts)
	path := "user"
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodDelete, path, nil, nil, opts...)
	return
}

// Get a user by id or email. Only Zoo employees can look up other users.
func (r *UserService) Get(ctx context.Context, id string, opts ...option.RequestOption) (res *User, err error) {
	opts = slices.Concat(r.Options, opts)
	if id == "" {
		err = errors.New("missing required id parameter")
		return
	}
	path := fmt.Sprintf("users/%s", url.PathEscape(id))
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, nil, &res, opts...)
	return
}

// List users. Only Zoo employees can list users.
func (r *UserService) List(ctx context.Context, query UserListParams, opts ...option.RequestOption) (res *pagination.ResultsPage[User], err error) {
	var raw *http.Response
	opts = slices.Concat(r.Options, opts, []option.RequestOption{option.WithResponseInto(&raw)})
	path := "users"
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

// List users, fetching further pages as the iterator advances.
func (r *UserService) ListAutoPaging(ctx context.Context, query UserListParams, opts ...option.RequestOption) *pagination.ResultsPageAutoPager[User] {
	return pagination.NewResultsPageAutoPager(r.List(ctx, query, opts...))
}

// Get a session by its token.
func (r *UserService) GetSession(ctx context.Context, token string, opts ...option.RequestOption) (res *Session, err error) {
	opts = slices.Concat(r.Options, opts)
	if token == "" {
		err = errors.New("missing required token parameter")
		return
	}
	path := fmt.Sprintf("user/session/%s", url.PathEscape(token))
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, nil, &res, opts...)
	return
}

// Why a user is blocked from using the API.
type BlockReason string

const (
	BlockReasonMissingPaymentMethod BlockReason = "missing_payment_method"
	BlockReasonPaymentMethodFailed  BlockReason = "payment_method_failed"
)

func (r BlockReason) IsKnown() bool {
	switch r {
	case BlockReasonMissingPaymentMethod, BlockReasonPaymentMethodFailed:
		return true
	}
	return false
}

// A user.
type User struct {
	// The unique identifier for the user.
	ID uuid.UUID `json:"id"`
	// The user's full name.
	Name string `json:"name"`
	// The user's first name.
	FirstName string `json:"first_name"`
	// The user's last name.
	LastName string `json:"last_name"`
	// The email address of the user.
	Email string `json:"email"`
	// The date and time the email address was verified.
	EmailVerified *time.Time `json:"email_verified"`
	// If the user should be blocked and the reason why.
	Block BlockReason `json:"block"`
	// If we can train on the user's data.
	CanTrainOnData bool `json:"can_train_on_data"`
	// If the user is tied to a service account.
	IsServiceAccount bool      `json:"is_service_account"`
	Company          string    `json:"company"`
	Discord          string    `json:"discord"`
	Github           string    `json:"github"`
	Image            string    `json:"image"`
	Phone            string    `json:"phone"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DisplayName is the user's name, or the email when no name is set.
func (r User) DisplayName() string {
	switch {
	case r.Name != "":
		return r.Name
	case r.FirstName != "" || r.LastName != "":
		return fmt.Sprintf("%s %s", r.FirstName, r.LastName)
	}
	return r.Email
}

// Extended user information, with the ids of the user in the third party
// services the API uses.
type ExtendedUser struct {
	User
	// The user's Front contact id.
	FrontID string `json:"front_id"`
	// The user's Hubspot id.
	HubspotContactID string `json:"hubspot_contact_id"`
	// The user's Stripe id.
	StripeID string `json:"stripe_id"`
}

// An authentication session.
type Session struct {
	ID           uuid.UUID `json:"id"`
	SessionToken uuid.UUID `json:"session_token"`
	UserID       uuid.UUID `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type UserUpdateSelfParams struct {
	// If we can train on the user's data.
	CanTrainOnData param.Field[bool]   `json:"can_train_on_data,omitzero"`
	Company        param.Field[string] `json:"company,omitzero"`
	Discord        param.Field[string] `json:"discord,omitzero"`
	FirstName      param.Field[string] `json:"first_name,omitzero"`
	Github         param.Field[string] `json:"github,omitzero"`
	Image          param.Field[string] `json:"image,omitzero"`
	LastName       param.Field[string] `json:"last_name,omitzero"`
	Phone          param.Field[string] `json:"phone,omitzero"`
}

type UserListParams struct {
	PageParams
}

// URLQuery serializes [UserListParams]'s query parameters as `url.Values`.
func (r UserListParams) URLQuery() (url.Values, error) {
	return apiquery.MarshalQuery(r)
}
