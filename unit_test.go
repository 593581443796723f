package kittycad_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittycad/kittycad-go"
	"github.com/kittycad/kittycad-go/internal/testutil"
)

func TestUnitLengthConversion(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	f.GET("/unit/conversion/length/:in/:out", testutil.JSON(http.StatusOK,
		`{"id":"6b0b9c5e-0000-4000-8000-0000000000bb","input":1,"input_unit":"in","output":25.4,"output_unit":"mm","status":"completed"}`))

	conv, err := newTestClient(t, f).Unit.GetLengthConversion(context.Background(), kittycad.UnitLengthIn, kittycad.UnitLengthMm,
		kittycad.UnitConversionParams{InputValue: kittycad.F(1.0)})
	require.NoError(t, err)

	req := f.Last(t)
	assert.Equal(t, "/unit/conversion/length/in/mm", req.Path)
	assert.Equal(t, "1", req.Query.Get("input_value"))
	assert.Equal(t, kittycad.UnitLengthMm, conv.OutputUnit)
	require.NotNil(t, conv.Output)
	assert.InDelta(t, 25.4, *conv.Output, 1e-9)
}

func TestUnitConvertByKind(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	f.GET("/unit/conversion/:kind/:in/:out", testutil.JSON(http.StatusOK,
		`{"input":100,"input_unit":"celsius","output":212,"output_unit":"fahrenheit","status":"completed"}`))
	client := newTestClient(t, f)

	conv, err := client.Unit.Convert(context.Background(), "temperature", "celsius", "fahrenheit",
		kittycad.UnitConversionParams{InputValue: kittycad.F(100.0)})
	require.NoError(t, err)
	assert.Equal(t, "/unit/conversion/temperature/celsius/fahrenheit", f.Last(t).Path)
	assert.Equal(t, "fahrenheit", conv.OutputUnit)

	_, err = client.Unit.Convert(context.Background(), "happiness", "a", "b", kittycad.UnitConversionParams{})
	assert.EqualError(t, err, `unknown unit kind "happiness"`)
	assert.Len(t, f.Requests(), 1)
}

func TestUnitEnumsAreKnown(t *testing.T) {
	t.Parallel()

	assert.True(t, kittycad.UnitTemperatureCelsius.IsKnown())
	assert.True(t, kittycad.UnitDensityLbFt3.IsKnown())
	assert.False(t, kittycad.UnitLength("furlong").IsKnown())
	assert.Len(t, kittycad.UnitKinds, 13)
}
