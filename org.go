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

// OrgService contains methods and other services that help with interacting with
// the kittycad API.
//
// Note, unlike clients, this service does not read variables from the environment
// automatically. You should not instantiate this service directly, and instead use
// the [NewOrgService] method instead.
type OrgService struct {
	Options []option.RequestOption
}

// NewOrgService generates a new service that applies the given options to each
// request. These options are applied after the parent client's options (if there
// is one), and before any request-specific options.
func NewOrgService(opts ...option.RequestOption) (r *OrgService) {
	r = &OrgService{}
	r.Options = opts
	return
}

// Get the org the user is a member of.
func (r *OrgService) Get(ctx context.Context, opts ...option.RequestOption) (res *Org, err error) {
	opts = slices.Concat(r.Options, opts)
	path := "org"
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, nil, &res, opts...)
	return
}

// Create an org. The user becomes its admin.
func (r *OrgService) New(ctx context.Context, body OrgDetailsParams, opts ...option.RequestOption) (res *Org, err error) {
	opts = slices.Concat(r.Options, opts)
	path := "org"
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, body, &res, opts...)
	return
}

// Update the org the user is an admin of.
func (r *OrgService) Update(ctx context.Context, body OrgDetailsParams, opts ...option.RequestOption) (res *Org, err error) {
	opts = slices.Concat(r.Options, opts)
	path := "org"
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodPut, path, body, &res, opts...)
	return
}

// Delete the org the user is an admin of.
func (r *OrgService) Delete(ctx context.Context, opts ...option.RequestOption) (err error) {
	opts = slices.Concat(r.Options, opts)
	path := "org"
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodDelete, path, nil, nil, opts...)
	return
}

// List the members of the org.
func (r *OrgService) ListMembers(ctx context.Context, query OrgListMembersParams, opts ...option.RequestOption) (res *pagination.ResultsPage[OrgMember], err error) {
	var raw *http.Response
	opts = slices.Concat(r.Options, opts, []option.RequestOption{option.WithResponseInto(&raw)})
	path := "org/members"
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

// List the members of the org, fetching further pages as the iterator advances.
func (r *OrgService) ListMembersAutoPaging(ctx context.Context, query OrgListMembersParams, opts ...option.RequestOption) *pagination.ResultsPageAutoPager[OrgMember] {
	return pagination.NewResultsPageAutoPager(r.ListMembers(ctx, query, opts...))
}

// Get a member of the org.
func (r *OrgService) GetMember(ctx context.Context, userID string, opts ...option.RequestOption) (res *OrgMember, err error) {
	opts = slices.Concat(r.Options, opts)
	if userID == "" {
		err = errors.New("missing required user_id parameter")
		return
	}
	path := fmt.Sprintf("org/members/%s", url.PathEscape(userID))
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, nil, &res, opts...)
	return
}

// The role of a member of an org.
type OrgRole string

const (
	OrgRoleAdmin          OrgRole = "admin"
	OrgRoleMember         OrgRole = "member"
	OrgRoleServiceAccount OrgRole = "service_account"
)

func (r OrgRole) IsKnown() bool {
	switch r {
	case OrgRoleAdmin, OrgRoleMember, OrgRoleServiceAccount:
		return true
	}
	return false
}

// An organization.
type Org struct {
	// The unique identifier for the org.
	ID uuid.UUID `json:"id"`
	// The name of the org.
	Name string `json:"name"`
	// If we should allow all future users who are created with email addresses
	// from this domain to join the org.
	AllowUsersInDomainToAutoJoin bool `json:"allow_users_in_domain_to_auto_join"`
	// The billing email address of the org.
	BillingEmail string `json:"billing_email"`
	// The date and time the billing email address was verified.
	BillingEmailVerified *time.Time `json:"billing_email_verified"`
	// If the org should be blocked and the reason why.
	Block BlockReason `json:"block"`
	// If we can train on the org's data.
	CanTrainOnData bool `json:"can_train_on_data"`
	// The org's domain.
	Domain string `json:"domain"`
	// The image for the org. This is a URL.
	Image string `json:"image"`
	// The phone number of the org.
	Phone string `json:"phone"`
	// The org's stripe id.
	StripeID  string    `json:"stripe_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// A member of an organization.
type OrgMember struct {
	// The user's id.
	ID uuid.UUID `json:"id"`
	// The user's role in the org.
	Role OrgRole `json:"role"`
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
	Company       string     `json:"company"`
	Discord       string     `json:"discord"`
	Github        string     `json:"github"`
	Image         string     `json:"image"`
	Phone         string     `json:"phone"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// The user-modifiable parts of an organization.
type OrgDetailsParams struct {
	// The name of the org.
	Name param.Field[string] `json:"name,omitzero"`
	// If we should allow all future users who are created with email addresses
	// from this domain to join the org.
	AllowUsersInDomainToAutoJoin param.Field[bool] `json:"allow_users_in_domain_to_auto_join,omitzero"`
	// The billing email address of the org.
	BillingEmail param.Field[string] `json:"billing_email,omitzero"`
	// The org's domain.
	Domain param.Field[string] `json:"domain,omitzero"`
	// The image for the org. This is a URL.
	Image param.Field[string] `json:"image,omitzero"`
	// The phone number for the org.
	Phone param.Field[string] `json:"phone,omitzero"`
}

type OrgListMembersParams struct {
	PageParams
	// The organization role to filter by.
	Role param.Field[OrgRole] `query:"role"`
}

// URLQuery serializes [OrgListMembersParams]'s query parameters as `url.Values`.
func (r OrgListMembersParams) URLQuery() (url.Values, error) {
	return apiquery.MarshalQuery(r)
}
