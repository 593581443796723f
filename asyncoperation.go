package kittycad

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/kittycad/kittycad-go/internal/apijson"
	"github.com/kittycad/kittycad-go/internal/apiquery"
	"github.com/kittycad/kittycad-go/internal/param"
	"github.com/kittycad/kittycad-go/internal/requestconfig"
	"github.com/kittycad/kittycad-go/option"
	"github.com/kittycad/kittycad-go/packages/pagination"
)

// ErrOperationFailed is returned by [AsyncOperationService.Wait] when the
// operation finished with the failed status.
var ErrOperationFailed = errors.New("async operation failed")

// AsyncOperationService contains methods and other services that help with
// interacting with the kittycad API.
//
// Note, unlike clients, this service does not read variables from the environment
// automatically. You should not instantiate this service directly, and instead use
// the [NewAsyncOperationService] method instead.
type AsyncOperationService struct {
	Options []option.RequestOption
	// PollInterval is the delay between two polls of Wait. It defaults to one
	// second.
	PollInterval time.Duration
}

// NewAsyncOperationService generates a new service that applies the given options
// to each request. These options are applied after the parent client's options
// (if there is one), and before any request-specific options.
func NewAsyncOperationService(opts ...option.RequestOption) (r *AsyncOperationService) {
	r = &AsyncOperationService{}
	r.Options = opts
	r.PollInterval = time.Second
	return
}

// Get an async operation. Once the operation is completed its outputs are
// part of the response, so the results of a conversion or a text-to-CAD
// request can be fetched with this endpoint.
func (r *AsyncOperationService) Get(ctx context.Context, id string, opts ...option.RequestOption) (res AsyncAPICallOutput, err error) {
	opts = slices.Concat(r.Options, opts)
	if id == "" {
		err = errors.New("missing required id parameter")
		return
	}
	path := fmt.Sprintf("async/operations/%s", url.PathEscape(id))
	var env AsyncAPICallOutputEnvelope
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, nil, &env, opts...)
	if err != nil {
		return nil, err
	}
	return env.AsUnion(), nil
}

// List async operations. Only Zoo employees can list the operations of every
// user.
func (r *AsyncOperationService) List(ctx context.Context, query AsyncOperationListParams, opts ...option.RequestOption) (res *pagination.ResultsPage[AsyncAPICallOutputEnvelope], err error) {
	var raw *http.Response
	opts = slices.Concat(r.Options, opts, []option.RequestOption{option.WithResponseInto(&raw)})
	path := "async/operations"
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

// List async operations, fetching further pages as the iterator advances.
func (r *AsyncOperationService) ListAutoPaging(ctx context.Context, query AsyncOperationListParams, opts ...option.RequestOption) *pagination.ResultsPageAutoPager[AsyncAPICallOutputEnvelope] {
	return pagination.NewResultsPageAutoPager(r.List(ctx, query, opts...))
}

// Wait polls the operation until it is completed or failed, or ctx is done. A
// failed operation is returned together with an error wrapping
// [ErrOperationFailed] and the error message of the operation.
func (r *AsyncOperationService) Wait(ctx context.Context, id string, opts ...option.RequestOption) (res AsyncAPICallOutput, err error) {
	interval := r.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		res, err = r.Get(ctx, id, opts...)
		if err != nil {
			return nil, err
		}
		info := res.Info()
		switch info.Status {
		case ApiCallStatusCompleted:
			return res, nil
		case ApiCallStatusFailed:
			return res, fmt.Errorf("%w: %s %s: %s", ErrOperationFailed, info.Type, info.ID, info.Error)
		}
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-ticker.C:
		}
	}
}

// AsyncOperationInfo holds the fields every async operation carries.
type AsyncOperationInfo struct {
	// The unique identifier of the async API call.
	ID uuid.UUID `json:"id"`
	// The kind of operation.
	Type AsyncAPICallOutputType `json:"type"`
	// The status of the operation.
	Status ApiCallStatus `json:"status"`
	// The error the function returned, if any.
	Error string `json:"error"`
	// The user ID of the user who created the operation.
	UserID uuid.UUID `json:"user_id"`
	// The time and date the API call was completed.
	CompletedAt *time.Time `json:"completed_at"`
	// The time and date the API call was created.
	CreatedAt time.Time `json:"created_at"`
	// The time and date the API call was started.
	StartedAt *time.Time `json:"started_at"`
	// The time and date the API call was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// Info returns the common fields of the operation.
func (r AsyncOperationInfo) Info() AsyncOperationInfo { return r }

func (r AsyncOperationInfo) implementsAsyncAPICallOutput() {}

// The output of an async API call.
//
// Union satisfied by [FileConversion], [FileCenterOfMass], [FileMass],
// [FileVolume], [FileDensity], [FileSurfaceArea], [TextToCAD] or
// [AsyncAPICallOutputUnknown].
type AsyncAPICallOutput interface {
	Info() AsyncOperationInfo
	implementsAsyncAPICallOutput()
}

func init() {
	apijson.RegisterUnion(
		reflect.TypeOf((*AsyncAPICallOutput)(nil)).Elem(),
		"type",
		apijson.UnionVariant{
			TypeFilter:         gjson.JSON,
			Type:               reflect.TypeOf(FileConversion{}),
			DiscriminatorValue: "file_conversion",
		},
		apijson.UnionVariant{
			TypeFilter:         gjson.JSON,
			Type:               reflect.TypeOf(FileCenterOfMass{}),
			DiscriminatorValue: "file_center_of_mass",
		},
		apijson.UnionVariant{
			TypeFilter:         gjson.JSON,
			Type:               reflect.TypeOf(FileMass{}),
			DiscriminatorValue: "file_mass",
		},
		apijson.UnionVariant{
			TypeFilter:         gjson.JSON,
			Type:               reflect.TypeOf(FileVolume{}),
			DiscriminatorValue: "file_volume",
		},
		apijson.UnionVariant{
			TypeFilter:         gjson.JSON,
			Type:               reflect.TypeOf(FileDensity{}),
			DiscriminatorValue: "file_density",
		},
		apijson.UnionVariant{
			TypeFilter:         gjson.JSON,
			Type:               reflect.TypeOf(FileSurfaceArea{}),
			DiscriminatorValue: "file_surface_area",
		},
		apijson.UnionVariant{
			TypeFilter:         gjson.JSON,
			Type:               reflect.TypeOf(TextToCAD{}),
			DiscriminatorValue: "text_to_cad",
		},
	)
	apijson.RegisterFallback(
		reflect.TypeOf((*AsyncAPICallOutput)(nil)).Elem(),
		reflect.TypeOf(AsyncAPICallOutputUnknown{}),
	)
}

// AsyncAPICallOutputEnvelope holds one decoded [AsyncAPICallOutput]. It is the
// item type of the list endpoint, since a page cannot hold interface values.
type AsyncAPICallOutputEnvelope struct {
	union AsyncAPICallOutput
}

func (r *AsyncAPICallOutputEnvelope) UnmarshalJSON(data []byte) (err error) {
	v, err := apijson.UnmarshalUnion(reflect.TypeOf((*AsyncAPICallOutput)(nil)).Elem(), data)
	if err != nil {
		return err
	}
	r.union = v.(AsyncAPICallOutput)
	return nil
}

func (r AsyncAPICallOutputEnvelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.union)
}

// AsUnion returns a [AsyncAPICallOutput] interface which you can cast to the
// specific types for more type safety.
//
// Possible runtime types of the union are [FileConversion], [FileCenterOfMass],
// [FileMass], [FileVolume], [FileDensity], [FileSurfaceArea], [TextToCAD],
// [AsyncAPICallOutputUnknown].
func (r AsyncAPICallOutputEnvelope) AsUnion() AsyncAPICallOutput {
	if r.union == nil {
		return AsyncAPICallOutputUnknown{}
	}
	return r.union
}

// The kind of an async operation.
type AsyncAPICallOutputType string

const (
	AsyncAPICallOutputTypeFileConversion   AsyncAPICallOutputType = "file_conversion"
	AsyncAPICallOutputTypeFileCenterOfMass AsyncAPICallOutputType = "file_center_of_mass"
	AsyncAPICallOutputTypeFileMass         AsyncAPICallOutputType = "file_mass"
	AsyncAPICallOutputTypeFileVolume       AsyncAPICallOutputType = "file_volume"
	AsyncAPICallOutputTypeFileDensity      AsyncAPICallOutputType = "file_density"
	AsyncAPICallOutputTypeFileSurfaceArea  AsyncAPICallOutputType = "file_surface_area"
	AsyncAPICallOutputTypeTextToCAD        AsyncAPICallOutputType = "text_to_cad"
)

func (r AsyncAPICallOutputType) IsKnown() bool {
	switch r {
	case AsyncAPICallOutputTypeFileConversion, AsyncAPICallOutputTypeFileCenterOfMass, AsyncAPICallOutputTypeFileMass, AsyncAPICallOutputTypeFileVolume, AsyncAPICallOutputTypeFileDensity, AsyncAPICallOutputTypeFileSurfaceArea, AsyncAPICallOutputTypeTextToCAD:
		return true
	}
	return false
}

// A file conversion.
type FileConversion struct {
	AsyncOperationInfo
	// The output format of the file conversion.
	OutputFormat FileExportFormat `json:"output_format"`
	// The output format options of the file conversion.
	OutputFormatOptions json.RawMessage `json:"output_format_options,omitempty"`
	// The converted files (if multiple file conversion), if completed, base64
	// encoded. The key of the map is the path of the output file.
	Outputs map[string]Base64Data `json:"outputs"`
	// The source format of the file conversion.
	SrcFormat FileImportFormat `json:"src_format"`
	// The source format options of the file conversion.
	SrcFormatOptions json.RawMessage `json:"src_format_options,omitempty"`
}

// A file center of mass result.
type FileCenterOfMass struct {
	AsyncOperationInfo
	// The resulting center of mass.
	CenterOfMass *Point3d `json:"center_of_mass"`
	// The output unit for the center of mass.
	OutputUnit UnitLength `json:"output_unit"`
	// The source format of the file.
	SrcFormat FileImportFormat `json:"src_format"`
}

// A file mass result.
type FileMass struct {
	AsyncOperationInfo
	// The resulting mass.
	Mass *float64 `json:"mass"`
	// The material density as denoted by the user.
	MaterialDensity float64 `json:"material_density"`
	// The material density unit.
	MaterialDensityUnit UnitDensity `json:"material_density_unit"`
	// The output unit for the mass.
	OutputUnit UnitMass `json:"output_unit"`
	// The source format of the file.
	SrcFormat FileImportFormat `json:"src_format"`
}

// A file volume result.
type FileVolume struct {
	AsyncOperationInfo
	// The resulting volume.
	Volume *float64 `json:"volume"`
	// The output unit for the volume.
	OutputUnit UnitVolume `json:"output_unit"`
	// The source format of the file.
	SrcFormat FileImportFormat `json:"src_format"`
}

// A file density result.
type FileDensity struct {
	AsyncOperationInfo
	// The resulting density.
	Density *float64 `json:"density"`
	// The material mass as denoted by the user.
	MaterialMass float64 `json:"material_mass"`
	// The material mass unit.
	MaterialMassUnit UnitMass `json:"material_mass_unit"`
	// The output unit for the density.
	OutputUnit UnitDensity `json:"output_unit"`
	// The source format of the file.
	SrcFormat FileImportFormat `json:"src_format"`
}

// A file surface area result.
type FileSurfaceArea struct {
	AsyncOperationInfo
	// The resulting surface area.
	SurfaceArea *float64 `json:"surface_area"`
	// The output unit for the surface area.
	OutputUnit UnitArea `json:"output_unit"`
	// The source format of the file.
	SrcFormat FileImportFormat `json:"src_format"`
}

// AsyncAPICallOutputUnknown is an operation of a kind this client does not
// know. The common fields are decoded and the full document is kept in Raw.
type AsyncAPICallOutputUnknown struct {
	AsyncOperationInfo
	Raw json.RawMessage `json:"-"`
}

func (r *AsyncAPICallOutputUnknown) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &r.AsyncOperationInfo); err != nil {
		return err
	}
	r.Raw = append(json.RawMessage(nil), data...)
	return nil
}

func (r AsyncAPICallOutputUnknown) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	return json.Marshal(r.AsyncOperationInfo)
}

type AsyncOperationListParams struct {
	PageParams
	// The status to filter by.
	Status param.Field[ApiCallStatus] `query:"status"`
}

// URLQuery serializes [AsyncOperationListParams]'s query parameters as
// `url.Values`.
func (r AsyncOperationListParams) URLQuery() (url.Values, error) {
	return apiquery.MarshalQuery(r)
}
