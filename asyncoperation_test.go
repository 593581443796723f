package kittycad_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittycad/kittycad-go"
	"github.com/kittycad/kittycad-go/internal/testutil"
)

const opID = "6b0b9c5e-0000-4000-8000-0000000000aa"

func operationJSON(typ, status, extra string) string {
	return fmt.Sprintf(`{"id":%q,"type":%q,"status":%q,"created_at":"2026-01-02T03:04:05Z","updated_at":"2026-01-02T03:04:05Z"%s}`, opID, typ, status, extra)
}

func TestAsyncOperationGetDecodesVariant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		body  string
		check func(t *testing.T, out kittycad.AsyncAPICallOutput)
	}{
		{
			name: "conversion",
			body: operationJSON("file_conversion", "completed", `,"src_format":"step","output_format":"stl","outputs":{"part.stl":"c29saWQ"}`),
			check: func(t *testing.T, out kittycad.AsyncAPICallOutput) {
				conv, ok := out.(kittycad.FileConversion)
				require.True(t, ok, "got %T", out)
				assert.Equal(t, kittycad.FileImportFormatStep, conv.SrcFormat)
				assert.Equal(t, []byte("solid"), []byte(conv.Outputs["part.stl"]))
			},
		},
		{
			name: "volume",
			body: operationJSON("file_volume", "completed", `,"volume":4.5,"output_unit":"m3"`),
			check: func(t *testing.T, out kittycad.AsyncAPICallOutput) {
				vol, ok := out.(kittycad.FileVolume)
				require.True(t, ok, "got %T", out)
				require.NotNil(t, vol.Volume)
				assert.Equal(t, 4.5, *vol.Volume)
			},
		},
		{
			name: "center of mass",
			body: operationJSON("file_center_of_mass", "completed", `,"center_of_mass":{"x":1,"y":2,"z":3}`),
			check: func(t *testing.T, out kittycad.AsyncAPICallOutput) {
				com, ok := out.(kittycad.FileCenterOfMass)
				require.True(t, ok, "got %T", out)
				assert.Equal(t, &kittycad.Point3d{X: 1, Y: 2, Z: 3}, com.CenterOfMass)
			},
		},
		{
			name: "text to cad",
			body: operationJSON("text_to_cad", "in_progress", `,"prompt":"a gear","output_format":"step"`),
			check: func(t *testing.T, out kittycad.AsyncAPICallOutput) {
				ttc, ok := out.(kittycad.TextToCAD)
				require.True(t, ok, "got %T", out)
				assert.Equal(t, "a gear", ttc.Prompt)
				assert.False(t, ttc.Status.IsTerminal())
			},
		},
		{
			name: "unknown kind",
			body: operationJSON("file_hologram", "queued", `,"layers":7`),
			check: func(t *testing.T, out kittycad.AsyncAPICallOutput) {
				unknown, ok := out.(kittycad.AsyncAPICallOutputUnknown)
				require.True(t, ok, "got %T", out)
				assert.Equal(t, kittycad.AsyncAPICallOutputType("file_hologram"), unknown.Type)
				assert.False(t, unknown.Type.IsKnown())
				assert.Contains(t, string(unknown.Raw), `"layers":7`)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := testutil.NewFakeAPI(t)
			f.GET("/async/operations/:id", testutil.JSON(http.StatusOK, tt.body))

			out, err := newTestClient(t, f).AsyncOperations.Get(context.Background(), opID)
			require.NoError(t, err)
			assert.Equal(t, opID, out.Info().ID.String())
			tt.check(t, out)
		})
	}
}

func TestAsyncOperationWaitPollsUntilCompleted(t *testing.T) {
	t.Parallel()

	var polls atomic.Int32
	f := testutil.NewFakeAPI(t)
	f.GET("/async/operations/:id", func(c echo.Context) error {
		status := "in_progress"
		if polls.Add(1) >= 3 {
			status = "completed"
		}
		return c.JSONBlob(http.StatusOK, []byte(operationJSON("file_mass", status, `,"mass":2.25`)))
	})

	svc := newTestClient(t, f).AsyncOperations
	svc.PollInterval = 10 * time.Millisecond
	out, err := svc.Wait(context.Background(), opID)
	require.NoError(t, err)
	mass, ok := out.(kittycad.FileMass)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, 2.25, *mass.Mass)
	assert.Equal(t, int32(3), polls.Load())
}

func TestAsyncOperationWaitReportsFailure(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	f.GET("/async/operations/:id", testutil.JSON(http.StatusOK, operationJSON("file_conversion", "failed", `,"error":"unsupported geometry"`)))

	out, err := newTestClient(t, f).AsyncOperations.Wait(context.Background(), opID)
	require.ErrorIs(t, err, kittycad.ErrOperationFailed)
	assert.Contains(t, err.Error(), "unsupported geometry")
	require.NotNil(t, out)
	assert.Equal(t, kittycad.ApiCallStatusFailed, out.Info().Status)
}

func TestAsyncOperationWaitStopsWithContext(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	f.GET("/async/operations/:id", testutil.JSON(http.StatusOK, operationJSON("file_density", "queued", "")))

	svc := newTestClient(t, f).AsyncOperations
	svc.PollInterval = 5 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := svc.Wait(ctx, opID)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestAsyncOperationListKeepsVariants(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	f.GET("/async/operations", testutil.JSON(http.StatusOK, `{"items":[`+
		operationJSON("file_volume", "completed", `,"volume":1`)+`,`+
		operationJSON("file_surface_area", "completed", `,"surface_area":6`)+
		`],"next_page":null}`))

	page, err := newTestClient(t, f).AsyncOperations.List(context.Background(), kittycad.AsyncOperationListParams{
		Status: kittycad.F(kittycad.ApiCallStatusCompleted),
	})
	require.NoError(t, err)
	assert.Equal(t, "completed", f.Last(t).Query.Get("status"))
	require.Len(t, page.Items, 2)
	assert.IsType(t, kittycad.FileVolume{}, page.Items[0].AsUnion())
	assert.IsType(t, kittycad.FileSurfaceArea{}, page.Items[1].AsUnion())
}
