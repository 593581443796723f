package shared

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Base64Data is binary content carried in JSON as base64. The API is not
// consistent about the alphabet or padding, so decoding accepts standard and
// URL-safe encodings, padded or not. Encoding always uses padded standard
// base64.
type Base64Data []byte

func (r Base64Data) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(r))
}

func (r *Base64Data) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := DecodeBase64(s)
	if err != nil {
		return err
	}
	*r = b
	return nil
}

// DecodeBase64 decodes s in any of the four base64 variants.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []byte{}, nil
	}
	enc := base64.RawStdEncoding
	if strings.ContainsAny(s, "-_") {
		enc = base64.RawURLEncoding
	}
	b, err := enc.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, fmt.Errorf("invalid base64 data: %w", err)
	}
	return b, nil
}

// The status of an async API call.
type ApiCallStatus string

const (
	ApiCallStatusQueued     ApiCallStatus = "queued"
	ApiCallStatusUploaded   ApiCallStatus = "uploaded"
	ApiCallStatusInProgress ApiCallStatus = "in_progress"
	ApiCallStatusCompleted  ApiCallStatus = "completed"
	ApiCallStatusFailed     ApiCallStatus = "failed"
)

func (r ApiCallStatus) IsKnown() bool {
	switch r {
	case ApiCallStatusQueued, ApiCallStatusUploaded, ApiCallStatusInProgress, ApiCallStatusCompleted, ApiCallStatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether an operation in this status will not change again.
func (r ApiCallStatus) IsTerminal() bool {
	return r == ApiCallStatusCompleted || r == ApiCallStatusFailed
}

// The sort order of a list, by creation time.
type CreatedAtSortMode string

const (
	CreatedAtSortModeCreatedAtAscending  CreatedAtSortMode = "created_at_ascending"
	CreatedAtSortModeCreatedAtDescending CreatedAtSortMode = "created_at_descending"
)

func (r CreatedAtSortMode) IsKnown() bool {
	switch r {
	case CreatedAtSortModeCreatedAtAscending, CreatedAtSortModeCreatedAtDescending:
		return true
	}
	return false
}

// A CAD file format the API can read.
type FileImportFormat string

const (
	FileImportFormatFbx    FileImportFormat = "fbx"
	FileImportFormatGltf   FileImportFormat = "gltf"
	FileImportFormatObj    FileImportFormat = "obj"
	FileImportFormatPly    FileImportFormat = "ply"
	FileImportFormatSldprt FileImportFormat = "sldprt"
	FileImportFormatStep   FileImportFormat = "step"
	FileImportFormatStl    FileImportFormat = "stl"
)

func (r FileImportFormat) IsKnown() bool {
	switch r {
	case FileImportFormatFbx, FileImportFormatGltf, FileImportFormatObj, FileImportFormatPly, FileImportFormatSldprt, FileImportFormatStep, FileImportFormatStl:
		return true
	}
	return false
}

// A CAD file format the API can write.
type FileExportFormat string

const (
	FileExportFormatFbx  FileExportFormat = "fbx"
	FileExportFormatGlb  FileExportFormat = "glb"
	FileExportFormatGltf FileExportFormat = "gltf"
	FileExportFormatObj  FileExportFormat = "obj"
	FileExportFormatPly  FileExportFormat = "ply"
	FileExportFormatStep FileExportFormat = "step"
	FileExportFormatStl  FileExportFormat = "stl"
)

func (r FileExportFormat) IsKnown() bool {
	switch r {
	case FileExportFormatFbx, FileExportFormatGlb, FileExportFormatGltf, FileExportFormatObj, FileExportFormatPly, FileExportFormatStep, FileExportFormatStl:
		return true
	}
	return false
}

// An HTTP method, as recorded on API call logs.
type Method string

const (
	MethodOptions   Method = "OPTIONS"
	MethodGet       Method = "GET"
	MethodPost      Method = "POST"
	MethodPut       Method = "PUT"
	MethodDelete    Method = "DELETE"
	MethodHead      Method = "HEAD"
	MethodTrace     Method = "TRACE"
	MethodConnect   Method = "CONNECT"
	MethodPatch     Method = "PATCH"
	MethodExtension Method = "EXTENSION"
)

func (r Method) IsKnown() bool {
	switch r {
	case MethodOptions, MethodGet, MethodPost, MethodPut, MethodDelete, MethodHead, MethodTrace, MethodConnect, MethodPatch, MethodExtension:
		return true
	}
	return false
}

// A point in 3D space.
type Point3d struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}
