package kittycad

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/kittycad/kittycad-go/internal/apiquery"
	"github.com/kittycad/kittycad-go/internal/param"
	"github.com/kittycad/kittycad-go/internal/requestconfig"
	"github.com/kittycad/kittycad-go/option"
)

// The grant type of a device access token request.
const DeviceCodeGrantType = "urn:ietf:params:oauth:grant-type:device_code"

// Device authorization errors returned while a user has not yet approved a
// device. See RFC 8628 section 3.5.
const (
	oauthAuthorizationPending = "authorization_pending"
	oauthSlowDown             = "slow_down"
)

// OAuth2Service contains methods and other services that help with interacting
// with the kittycad API.
//
// Note, unlike clients, this service does not read variables from the environment
// automatically. You should not instantiate this service directly, and instead use
// the [NewOAuth2Service] method instead.
type OAuth2Service struct {
	Options []option.RequestOption
}

// NewOAuth2Service generates a new service that applies the given options to
// each request. These options are applied after the parent client's options (if
// there is one), and before any request-specific options.
func NewOAuth2Service(opts ...option.RequestOption) (r *OAuth2Service) {
	r = &OAuth2Service{}
	r.Options = opts
	return
}

// Start an OAuth 2.0 device authorization flow. The user visits the returned
// verification URI and enters the user code.
func (r *OAuth2Service) DeviceAuthRequest(ctx context.Context, body OAuth2DeviceAuthRequestParams, opts ...option.RequestOption) (res *DeviceAuthResponse, err error) {
	opts = slices.Concat(r.Options, opts)
	path := "oauth2/device/auth"
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, body, &res, opts...)
	return
}

// Confirm a device's user code on behalf of the authenticated user.
func (r *OAuth2Service) DeviceAuthConfirm(ctx context.Context, body OAuth2DeviceAuthConfirmParams, opts ...option.RequestOption) (err error) {
	opts = slices.Concat(r.Options, opts)
	path := "oauth2/device/confirm"
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, body, nil, opts...)
	return
}

// Exchange a device code for an access token. Until the user approves the
// device this fails with an *Error whose code is authorization_pending.
func (r *OAuth2Service) DeviceAccessToken(ctx context.Context, body OAuth2DeviceAccessTokenParams, opts ...option.RequestOption) (res *AccessTokenResponse, err error) {
	opts = slices.Concat(r.Options, opts)
	if !body.GrantType.IsPresent() {
		body.GrantType = F(DeviceCodeGrantType)
	}
	path := "oauth2/device/token"
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, body, &res, opts...)
	return
}

// PollDeviceAccessToken calls DeviceAccessToken every interval until the user
// approves or denies the device, or ctx ends. A slow_down answer adds five
// seconds to the interval.
func (r *OAuth2Service) PollDeviceAccessToken(ctx context.Context, body OAuth2DeviceAccessTokenParams, interval time.Duration, opts ...option.RequestOption) (*AccessTokenResponse, error) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}

		res, err := r.DeviceAccessToken(ctx, body, opts...)
		switch OAuthErrorCode(err) {
		case "":
			return res, err
		case oauthAuthorizationPending:
		case oauthSlowDown:
			interval += 5 * time.Second
		default:
			return nil, err
		}
		timer.Reset(interval)
	}
}

// OAuthErrorCode returns the OAuth error of a failed token request, such as
// authorization_pending, or "" when err is not an API error.
func OAuthErrorCode(err error) string {
	var apierr *Error
	if !errors.As(err, &apierr) {
		return ""
	}
	if apierr.ErrorCode != "" {
		return apierr.ErrorCode
	}
	if code := gjson.Get(apierr.RawJSON(), "error"); code.Type == gjson.String {
		return code.String()
	}
	return "unknown"
}

type OAuth2DeviceAuthRequestParams struct {
	// The client ID of the application asking for access.
	ClientID param.Field[uuid.UUID] `form:"client_id"`
}

func (r OAuth2DeviceAuthRequestParams) FormBody() (url.Values, error) {
	return apiquery.MarshalForm(r)
}

type OAuth2DeviceAccessTokenParams struct {
	// The client ID of the application asking for access.
	ClientID param.Field[uuid.UUID] `form:"client_id"`
	// The device code returned by DeviceAuthRequest.
	DeviceCode param.Field[uuid.UUID] `form:"device_code"`
	// Defaults to [DeviceCodeGrantType].
	GrantType param.Field[string] `form:"grant_type"`
}

func (r OAuth2DeviceAccessTokenParams) FormBody() (url.Values, error) {
	return apiquery.MarshalForm(r)
}

type OAuth2DeviceAuthConfirmParams struct {
	// The user code shown on the device.
	UserCode param.Field[string] `json:"user_code,omitzero"`
}

// The answer to a device authorization request.
type DeviceAuthResponse struct {
	// The code the device polls the token endpoint with.
	DeviceCode uuid.UUID `json:"device_code"`
	// The code the user enters at the verification URI.
	UserCode string `json:"user_code"`
	// Where the user approves the device.
	VerificationURI string `json:"verification_uri"`
	// VerificationURI with the user code already filled in.
	VerificationURIComplete string `json:"verification_uri_complete"`
	// Seconds until the device code expires.
	ExpiresIn int64 `json:"expires_in"`
	// Seconds the device should wait between token requests.
	Interval int64 `json:"interval"`
}

// An OAuth 2.0 access token.
type AccessTokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}
