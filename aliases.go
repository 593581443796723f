package kittycad

import (
	"github.com/kittycad/kittycad-go/internal/apierror"
	"github.com/kittycad/kittycad-go/shared"
)

type Error = apierror.Error

// This is an alias to an internal type.
type Base64Data = shared.Base64Data

// This is an alias to an internal type.
type Point3d = shared.Point3d

// This is an alias to an internal type.
type ApiCallStatus = shared.ApiCallStatus

// This is an alias to an internal value.
const ApiCallStatusQueued = shared.ApiCallStatusQueued

// This is an alias to an internal value.
const ApiCallStatusUploaded = shared.ApiCallStatusUploaded

// This is an alias to an internal value.
const ApiCallStatusInProgress = shared.ApiCallStatusInProgress

// This is an alias to an internal value.
const ApiCallStatusCompleted = shared.ApiCallStatusCompleted

// This is an alias to an internal value.
const ApiCallStatusFailed = shared.ApiCallStatusFailed

// This is an alias to an internal type.
type CreatedAtSortMode = shared.CreatedAtSortMode

// This is an alias to an internal value.
const CreatedAtSortModeCreatedAtAscending = shared.CreatedAtSortModeCreatedAtAscending

// This is an alias to an internal value.
const CreatedAtSortModeCreatedAtDescending = shared.CreatedAtSortModeCreatedAtDescending

// This is an alias to an internal type.
type FileImportFormat = shared.FileImportFormat

// This is an alias to an internal value.
const FileImportFormatFbx = shared.FileImportFormatFbx

// This is an alias to an internal value.
const FileImportFormatGltf = shared.FileImportFormatGltf

// This is an alias to an internal value.
const FileImportFormatObj = shared.FileImportFormatObj

// This is an alias to an internal value.
const FileImportFormatPly = shared.FileImportFormatPly

// This is an alias to an internal value.
const FileImportFormatSldprt = shared.FileImportFormatSldprt

// This is an alias to an internal value.
const FileImportFormatStep = shared.FileImportFormatStep

// This is an alias to an internal value.
const FileImportFormatStl = shared.FileImportFormatStl

// This is an alias to an internal type.
type FileExportFormat = shared.FileExportFormat

// This is an alias to an internal value.
const FileExportFormatFbx = shared.FileExportFormatFbx

// This is an alias to an internal value.
const FileExportFormatGlb = shared.FileExportFormatGlb

// This is an alias to an internal value.
const FileExportFormatGltf = shared.FileExportFormatGltf

// This is an alias to an internal value.
const FileExportFormatObj = shared.FileExportFormatObj

// This is an alias to an internal value.
const FileExportFormatPly = shared.FileExportFormatPly

// This is an alias to an internal value.
const FileExportFormatStep = shared.FileExportFormatStep

// This is an alias to an internal value.
const FileExportFormatStl = shared.FileExportFormatStl

// This is an alias to an internal type.
type Method = shared.Method
