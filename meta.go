package kittycad

import (
	"context"
	"net/http"
	"slices"

	"github.com/kittycad/kittycad-go/internal/requestconfig"
	"github.com/kittycad/kittycad-go/option"
)

// MetaService contains methods and other services that help with interacting with
// the kittycad API.
//
// Note, unlike clients, this service does not read variables from the environment
// automatically. You should not instantiate this service directly, and instead use
// the [NewMetaService] method instead.
type MetaService struct {
	Options []option.RequestOption
}

// NewMetaService generates a new service that applies the given options to each
// request. These options are applied after the parent client's options (if there
// is one), and before any request-specific options.
func NewMetaService(opts ...option.RequestOption) (r *MetaService) {
	r = &MetaService{}
	r.Options = opts
	return
}

// Get the OpenAPI schema of the API, as raw JSON.
func (r *MetaService) GetSchema(ctx context.Context, opts ...option.RequestOption) (res []byte, err error) {
	opts = slices.Concat(r.Options, opts)
	path := ""
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, nil, &res, opts...)
	return
}

// Return pong.
func (r *MetaService) Ping(ctx context.Context, opts ...option.RequestOption) (res *Pong, err error) {
	opts = slices.Concat(r.Options, opts)
	path := "ping"
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, nil, &res, opts...)
	return
}

// Get ip address information of the caller.
func (r *MetaService) GetIPInfo(ctx context.Context, opts ...option.RequestOption) (res *IPAddrInfo, err error) {
	opts = slices.Concat(r.Options, opts)
	path := "_meta/ipinfo"
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, nil, &res, opts...)
	return
}

// The response from the `/ping` endpoint.
type Pong struct {
	// The pong response.
	Message string `json:"message"`
}

// Information about an ip address. Represents geographical and network-related
// information.
type IPAddrInfo struct {
	// Autonomous System Number.
	Asn int64 `json:"asn"`
	// City name.
	City string `json:"city"`
	// Continent code (e.g., "EU" for Europe).
	ContinentCode string `json:"continent_code"`
	// Country name.
	Country string `json:"country"`
	// Two-letter country code (e.g., "NL" for Netherlands).
	CountryCode string `json:"country_code"`
	// Three-letter country code (e.g., "NLD" for Netherlands).
	CountryCode3 string `json:"country_code3"`
	// IP address of the user.
	IP string `json:"ip"`
	// Flag indicating whether the country is in the European Union.
	IsInEuropeanUnion bool `json:"is_in_european_union"`
	// Geographic latitude.
	Latitude float64 `json:"latitude"`
	// Geographic longitude.
	Longitude float64 `json:"longitude"`
	// Time offset in seconds from UTC.
	Offset int64 `json:"offset"`
	// Organization name (e.g., "RIPE NCC").
	Organization string `json:"organization"`
	// Postal code.
	PostalCode string `json:"postal_code"`
	// Name of the region (e.g., "North Holland").
	Region string `json:"region"`
	// Region code (e.g., "NH" for North Holland).
	RegionCode string `json:"region_code"`
	// Timezone (e.g., "Europe/Amsterdam").
	Timezone string `json:"timezone"`
}
