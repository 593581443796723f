package kittycad

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"

	"github.com/kittycad/kittycad-go/internal/apiquery"
	"github.com/kittycad/kittycad-go/internal/param"
	"github.com/kittycad/kittycad-go/internal/requestconfig"
	"github.com/kittycad/kittycad-go/option"
)

// FileService contains methods and other services that help with interacting with
// the kittycad API.
//
// Note, unlike clients, this service does not read variables from the environment
// automatically. You should not instantiate this service directly, and instead use
// the [NewFileService] method instead.
type FileService struct {
	Options []option.RequestOption
}

// NewFileService generates a new service that applies the given options to each
// request. These options are applied after the parent client's options (if there
// is one), and before any request-specific options.
func NewFileService(opts ...option.RequestOption) (r *FileService) {
	r = &FileService{}
	r.Options = opts
	return
}

// Convert a CAD file from one format to another. If the file being converted is
// larger than 25MB, it will be performed asynchronously. If the conversion is
// performed synchronously, the contents of the converted file (`outputs`) will
// be returned as base64 encoded strings. If the operation is performed
// asynchronously, the `id` of the operation will be returned. You can use the
// `id` returned from the request to get status information about the async
// operation from the `/async/operations/{id}` endpoint.
func (r *FileService) NewConversion(ctx context.Context, srcFormat FileImportFormat, outputFormat FileExportFormat, body FileNewConversionParams, opts ...option.RequestOption) (res *FileConversion, err error) {
	opts = slices.Concat(r.Options, opts)
	if srcFormat == "" {
		err = errors.New("missing required src_format parameter")
		return
	}
	if outputFormat == "" {
		err = errors.New("missing required output_format parameter")
		return
	}
	path := fmt.Sprintf("file/conversion/%s/%s", url.PathEscape(string(srcFormat)), url.PathEscape(string(outputFormat)))
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, body, &res, opts...)
	return
}

// Get CAD file volume. We assume any file given to us has one consistent unit
// throughout. We also assume it is in the unit of the output_unit.
func (r *FileService) NewVolume(ctx context.Context, params FileNewVolumeParams, opts ...option.RequestOption) (res *FileVolume, err error) {
	opts = slices.Concat(r.Options, opts)
	path := "file/volume"
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, params, &res, opts...)
	return
}

// Get CAD file mass. The mass is computed from the volume of the file and the
// given material density.
func (r *FileService) NewMass(ctx context.Context, params FileNewMassParams, opts ...option.RequestOption) (res *FileMass, err error) {
	opts = slices.Concat(r.Options, opts)
	path := "file/mass"
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, params, &res, opts...)
	return
}

// Get CAD file density. The density is computed from the volume of the file and
// the given material mass.
func (r *FileService) NewDensity(ctx context.Context, params FileNewDensityParams, opts ...option.RequestOption) (res *FileDensity, err error) {
	opts = slices.Concat(r.Options, opts)
	path := "file/density"
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, params, &res, opts...)
	return
}

// Get CAD file center of mass.
func (r *FileService) NewCenterOfMass(ctx context.Context, params FileNewCenterOfMassParams, opts ...option.RequestOption) (res *FileCenterOfMass, err error) {
	opts = slices.Concat(r.Options, opts)
	path := "file/center-of-mass"
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, params, &res, opts...)
	return
}

// Get CAD file surface area.
func (r *FileService) NewSurfaceArea(ctx context.Context, params FileNewSurfaceAreaParams, opts ...option.RequestOption) (res *FileSurfaceArea, err error) {
	opts = slices.Concat(r.Options, opts)
	path := "file/surface-area"
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, params, &res, opts...)
	return
}

// FileBody is the CAD file uploaded by every file operation. The bytes are sent
// as-is.
type FileBody struct {
	File io.Reader
}

// RawBody returns the file as the request body.
func (r FileBody) RawBody() (io.Reader, string, error) {
	if r.File == nil {
		return nil, "", nil
	}
	return r.File, "application/octet-stream", nil
}

type FileNewConversionParams struct {
	FileBody
}

type FileNewVolumeParams struct {
	FileBody
	// The output unit for the volume.
	OutputUnit param.Field[UnitVolume] `query:"output_unit"`
	// The format of the file.
	SrcFormat param.Field[FileImportFormat] `query:"src_format"`
}

// URLQuery serializes [FileNewVolumeParams]'s query parameters as `url.Values`.
func (r FileNewVolumeParams) URLQuery() (url.Values, error) {
	return apiquery.MarshalQuery(r)
}

type FileNewMassParams struct {
	FileBody
	// The material density.
	MaterialDensity param.Field[float64] `query:"material_density"`
	// The unit of the material density.
	MaterialDensityUnit param.Field[UnitDensity] `query:"material_density_unit"`
	// The output unit for the mass.
	OutputUnit param.Field[UnitMass] `query:"output_unit"`
	// The format of the file.
	SrcFormat param.Field[FileImportFormat] `query:"src_format"`
}

// URLQuery serializes [FileNewMassParams]'s query parameters as `url.Values`.
func (r FileNewMassParams) URLQuery() (url.Values, error) {
	return apiquery.MarshalQuery(r)
}

type FileNewDensityParams struct {
	FileBody
	// The material mass.
	MaterialMass param.Field[float64] `query:"material_mass"`
	// The unit of the material mass.
	MaterialMassUnit param.Field[UnitMass] `query:"material_mass_unit"`
	// The output unit for the density.
	OutputUnit param.Field[UnitDensity] `query:"output_unit"`
	// The format of the file.
	SrcFormat param.Field[FileImportFormat] `query:"src_format"`
}

// URLQuery serializes [FileNewDensityParams]'s query parameters as `url.Values`.
func (r FileNewDensityParams) URLQuery() (url.Values, error) {
	return apiquery.MarshalQuery(r)
}

type FileNewCenterOfMassParams struct {
	FileBody
	// The output unit for the center of mass.
	OutputUnit param.Field[UnitLength] `query:"output_unit"`
	// The format of the file.
	SrcFormat param.Field[FileImportFormat] `query:"src_format"`
}

// URLQuery serializes [FileNewCenterOfMassParams]'s query parameters as
// `url.Values`.
func (r FileNewCenterOfMassParams) URLQuery() (url.Values, error) {
	return apiquery.MarshalQuery(r)
}

type FileNewSurfaceAreaParams struct {
	FileBody
	// The output unit for the surface area.
	OutputUnit param.Field[UnitArea] `query:"output_unit"`
	// The format of the file.
	SrcFormat param.Field[FileImportFormat] `query:"src_format"`
}

// URLQuery serializes [FileNewSurfaceAreaParams]'s query parameters as
// `url.Values`.
func (r FileNewSurfaceAreaParams) URLQuery() (url.Values, error) {
	return apiquery.MarshalQuery(r)
}
