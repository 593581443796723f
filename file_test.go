package kittycad_test

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittycad/kittycad-go"
	"github.com/kittycad/kittycad-go/internal/testutil"
)

func TestFileConversionSendsRawBody(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	f.POST("/file/conversion/:src/:out", testutil.JSON(http.StatusCreated,
		operationJSON("file_conversion", "completed", `,"src_format":"obj","output_format":"glb","outputs":{"model.glb":"Z2xURg=="}`)))

	obj := []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n")
	conv, err := newTestClient(t, f).File.NewConversion(context.Background(), kittycad.FileImportFormatObj, kittycad.FileExportFormatGlb,
		kittycad.FileNewConversionParams{FileBody: kittycad.FileBody{File: bytes.NewReader(obj)}})
	require.NoError(t, err)

	req := f.Last(t)
	assert.Equal(t, "/file/conversion/obj/glb", req.Path)
	assert.Equal(t, "application/octet-stream", req.Header.Get("Content-Type"))
	assert.Equal(t, obj, req.Body)
	assert.Equal(t, []byte("glTF"), []byte(conv.Outputs["model.glb"]))
}

func TestFilePropertyQueries(t *testing.T) {
	t.Parallel()

	body := func() kittycad.FileBody { return kittycad.FileBody{File: bytes.NewReader([]byte("solid x"))} }
	tests := []struct {
		name      string
		route     string
		response  string
		call      func(ctx context.Context, c *kittycad.Client) error
		wantQuery url.Values
	}{
		{
			name:     "volume",
			route:    "/file/volume",
			response: operationJSON("file_volume", "completed", `,"volume":1`),
			call: func(ctx context.Context, c *kittycad.Client) error {
				_, err := c.File.NewVolume(ctx, kittycad.FileNewVolumeParams{
					FileBody:   body(),
					OutputUnit: kittycad.F(kittycad.UnitVolumeCm3),
					SrcFormat:  kittycad.F(kittycad.FileImportFormatStl),
				})
				return err
			},
			wantQuery: url.Values{"output_unit": {"cm3"}, "src_format": {"stl"}},
		},
		{
			name:     "mass",
			route:    "/file/mass",
			response: operationJSON("file_mass", "completed", `,"mass":1`),
			call: func(ctx context.Context, c *kittycad.Client) error {
				_, err := c.File.NewMass(ctx, kittycad.FileNewMassParams{
					FileBody:            body(),
					MaterialDensity:     kittycad.F(7.85),
					MaterialDensityUnit: kittycad.F(kittycad.UnitDensityKgM3),
					OutputUnit:          kittycad.F(kittycad.UnitMassKg),
					SrcFormat:           kittycad.F(kittycad.FileImportFormatStl),
				})
				return err
			},
			wantQuery: url.Values{
				"material_density":      {"7.85"},
				"material_density_unit": {"kg:m3"},
				"output_unit":           {"kg"},
				"src_format":            {"stl"},
			},
		},
		{
			name:     "density",
			route:    "/file/density",
			response: operationJSON("file_density", "completed", `,"density":1`),
			call: func(ctx context.Context, c *kittycad.Client) error {
				_, err := c.File.NewDensity(ctx, kittycad.FileNewDensityParams{
					FileBody:         body(),
					MaterialMass:     kittycad.F(2.0),
					MaterialMassUnit: kittycad.F(kittycad.UnitMassG),
					OutputUnit:       kittycad.F(kittycad.UnitDensityLbFt3),
					SrcFormat:        kittycad.F(kittycad.FileImportFormatStl),
				})
				return err
			},
			wantQuery: url.Values{
				"material_mass":      {"2"},
				"material_mass_unit": {"g"},
				"output_unit":        {"lb:ft3"},
				"src_format":         {"stl"},
			},
		},
		{
			name:     "center of mass",
			route:    "/file/center-of-mass",
			response: operationJSON("file_center_of_mass", "completed", `,"center_of_mass":{"x":0,"y":0,"z":0}`),
			call: func(ctx context.Context, c *kittycad.Client) error {
				_, err := c.File.NewCenterOfMass(ctx, kittycad.FileNewCenterOfMassParams{
					FileBody:   body(),
					OutputUnit: kittycad.F(kittycad.UnitLengthMm),
					SrcFormat:  kittycad.F(kittycad.FileImportFormatStl),
				})
				return err
			},
			wantQuery: url.Values{"output_unit": {"mm"}, "src_format": {"stl"}},
		},
		{
			name:     "surface area",
			route:    "/file/surface-area",
			response: operationJSON("file_surface_area", "completed", `,"surface_area":1`),
			call: func(ctx context.Context, c *kittycad.Client) error {
				_, err := c.File.NewSurfaceArea(ctx, kittycad.FileNewSurfaceAreaParams{
					FileBody:   body(),
					OutputUnit: kittycad.F(kittycad.UnitAreaM2),
					SrcFormat:  kittycad.F(kittycad.FileImportFormatStl),
				})
				return err
			},
			wantQuery: url.Values{"output_unit": {"m2"}, "src_format": {"stl"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := testutil.NewFakeAPI(t)
			f.POST(tt.route, testutil.JSON(http.StatusCreated, tt.response))
			require.NoError(t, tt.call(context.Background(), newTestClient(t, f)))

			req := f.Last(t)
			assert.Equal(t, tt.wantQuery, req.Query)
			assert.Equal(t, []byte("solid x"), req.Body)
			assert.Equal(t, "application/octet-stream", req.Header.Get("Content-Type"))
		})
	}
}

func TestPathParamsAreEscaped(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		route   string
		call    func(ctx context.Context, c *kittycad.Client) error
		wantRaw string
	}{
		{
			name:  "conversion",
			route: "/file/conversion/:src/:out",
			call: func(ctx context.Context, c *kittycad.Client) error {
				_, err := c.File.NewConversion(ctx, "o bj", "a/b", kittycad.FileNewConversionParams{
					FileBody: kittycad.FileBody{File: bytes.NewReader(nil)},
				})
				return err
			},
			wantRaw: "/file/conversion/o%20bj/a%2Fb",
		},
		{
			name:  "execute",
			route: "/file/execute/:lang",
			call: func(ctx context.Context, c *kittycad.Client) error {
				_, err := c.Executor.NewFileExecution(ctx, "py/thon", kittycad.ExecutorNewFileExecutionParams{
					FileBody: kittycad.FileBody{File: bytes.NewReader(nil)},
				})
				return err
			},
			wantRaw: "/file/execute/py%2Fthon",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := testutil.NewFakeAPI(t)
			f.POST(tt.route, testutil.JSON(http.StatusOK, `{}`))
			require.NoError(t, tt.call(context.Background(), newTestClient(t, f)))
			assert.Equal(t, tt.wantRaw, f.Last(t).RawPath)
		})
	}
}

func TestExecutorRunsFile(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	f.POST("/file/execute/:lang", testutil.JSON(http.StatusOK,
		`{"stdout":"hi\n","stderr":"","output_files":[{"name":"out.txt","contents":"b2s"}]}`))

	out, err := newTestClient(t, f).Executor.NewFileExecution(context.Background(), kittycad.CodeLanguagePython,
		kittycad.ExecutorNewFileExecutionParams{
			FileBody: kittycad.FileBody{File: bytes.NewReader([]byte("print('hi')"))},
			Output:   kittycad.F("out.txt"),
		})
	require.NoError(t, err)

	req := f.Last(t)
	assert.Equal(t, "/file/execute/python", req.Path)
	assert.Equal(t, "out.txt", req.Query.Get("output"))
	assert.Equal(t, "hi\n", out.Stdout)
	require.Len(t, out.OutputFiles, 1)
	assert.Equal(t, []byte("ok"), []byte(out.OutputFiles[0].Contents))
}
