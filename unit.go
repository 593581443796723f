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
)

// UnitService contains methods and other services that help with interacting with
// the kittycad API.
//
// Note, unlike clients, this service does not read variables from the environment
// automatically. You should not instantiate this service directly, and instead use
// the [NewUnitService] method instead.
type UnitService struct {
	Options []option.RequestOption
}

// NewUnitService generates a new service that applies the given options to each
// request. These options are applied after the parent client's options (if there
// is one), and before any request-specific options.
func NewUnitService(opts ...option.RequestOption) (r *UnitService) {
	r = &UnitService{}
	r.Options = opts
	return
}

// Convert angle units.
func (r *UnitService) GetAngleConversion(ctx context.Context, inputUnit UnitAngle, outputUnit UnitAngle, query UnitConversionParams, opts ...option.RequestOption) (res *UnitConversion[UnitAngle], err error) {
	return getUnitConversion(ctx, slices.Concat(r.Options, opts), "angle", inputUnit, outputUnit, query)
}

// Convert area units.
func (r *UnitService) GetAreaConversion(ctx context.Context, inputUnit UnitArea, outputUnit UnitArea, query UnitConversionParams, opts ...option.RequestOption) (res *UnitConversion[UnitArea], err error) {
	return getUnitConversion(ctx, slices.Concat(r.Options, opts), "area", inputUnit, outputUnit, query)
}

// Convert current units.
func (r *UnitService) GetCurrentConversion(ctx context.Context, inputUnit UnitCurrent, outputUnit UnitCurrent, query UnitConversionParams, opts ...option.RequestOption) (res *UnitConversion[UnitCurrent], err error) {
	return getUnitConversion(ctx, slices.Concat(r.Options, opts), "current", inputUnit, outputUnit, query)
}

// Convert energy units.
func (r *UnitService) GetEnergyConversion(ctx context.Context, inputUnit UnitEnergy, outputUnit UnitEnergy, query UnitConversionParams, opts ...option.RequestOption) (res *UnitConversion[UnitEnergy], err error) {
	return getUnitConversion(ctx, slices.Concat(r.Options, opts), "energy", inputUnit, outputUnit, query)
}

// Convert force units.
func (r *UnitService) GetForceConversion(ctx context.Context, inputUnit UnitForce, outputUnit UnitForce, query UnitConversionParams, opts ...option.RequestOption) (res *UnitConversion[UnitForce], err error) {
	return getUnitConversion(ctx, slices.Concat(r.Options, opts), "force", inputUnit, outputUnit, query)
}

// Convert frequency units.
func (r *UnitService) GetFrequencyConversion(ctx context.Context, inputUnit UnitFrequency, outputUnit UnitFrequency, query UnitConversionParams, opts ...option.RequestOption) (res *UnitConversion[UnitFrequency], err error) {
	return getUnitConversion(ctx, slices.Concat(r.Options, opts), "frequency", inputUnit, outputUnit, query)
}

// Convert length units.
func (r *UnitService) GetLengthConversion(ctx context.Context, inputUnit UnitLength, outputUnit UnitLength, query UnitConversionParams, opts ...option.RequestOption) (res *UnitConversion[UnitLength], err error) {
	return getUnitConversion(ctx, slices.Concat(r.Options, opts), "length", inputUnit, outputUnit, query)
}

// Convert mass units.
func (r *UnitService) GetMassConversion(ctx context.Context, inputUnit UnitMass, outputUnit UnitMass, query UnitConversionParams, opts ...option.RequestOption) (res *UnitConversion[UnitMass], err error) {
	return getUnitConversion(ctx, slices.Concat(r.Options, opts), "mass", inputUnit, outputUnit, query)
}

// Convert power units.
func (r *UnitService) GetPowerConversion(ctx context.Context, inputUnit UnitPower, outputUnit UnitPower, query UnitConversionParams, opts ...option.RequestOption) (res *UnitConversion[UnitPower], err error) {
	return getUnitConversion(ctx, slices.Concat(r.Options, opts), "power", inputUnit, outputUnit, query)
}

// Convert pressure units.
func (r *UnitService) GetPressureConversion(ctx context.Context, inputUnit UnitPressure, outputUnit UnitPressure, query UnitConversionParams, opts ...option.RequestOption) (res *UnitConversion[UnitPressure], err error) {
	return getUnitConversion(ctx, slices.Concat(r.Options, opts), "pressure", inputUnit, outputUnit, query)
}

// Convert temperature units.
func (r *UnitService) GetTemperatureConversion(ctx context.Context, inputUnit UnitTemperature, outputUnit UnitTemperature, query UnitConversionParams, opts ...option.RequestOption) (res *UnitConversion[UnitTemperature], err error) {
	return getUnitConversion(ctx, slices.Concat(r.Options, opts), "temperature", inputUnit, outputUnit, query)
}

// Convert torque units.
func (r *UnitService) GetTorqueConversion(ctx context.Context, inputUnit UnitTorque, outputUnit UnitTorque, query UnitConversionParams, opts ...option.RequestOption) (res *UnitConversion[UnitTorque], err error) {
	return getUnitConversion(ctx, slices.Concat(r.Options, opts), "torque", inputUnit, outputUnit, query)
}

// Convert volume units.
func (r *UnitService) GetVolumeConversion(ctx context.Context, inputUnit UnitVolume, outputUnit UnitVolume, query UnitConversionParams, opts ...option.RequestOption) (res *UnitConversion[UnitVolume], err error) {
	return getUnitConversion(ctx, slices.Concat(r.Options, opts), "volume", inputUnit, outputUnit, query)
}

// UnitKinds lists the measures the conversion endpoint accepts, in the order
// the API documents them.
var UnitKinds = []string{"angle", "area", "current", "energy", "force", "frequency", "length", "mass", "power", "pressure", "temperature", "torque", "volume"}

// Convert converts between units of the measure kind given by name, such as
// "length". The units are passed through untyped; the API rejects a unit that
// does not belong to kind.
func (r *UnitService) Convert(ctx context.Context, kind string, inputUnit string, outputUnit string, query UnitConversionParams, opts ...option.RequestOption) (res *UnitConversion[string], err error) {
	if !slices.Contains(UnitKinds, kind) {
		err = fmt.Errorf("unknown unit kind %q", kind)
		return
	}
	return getUnitConversion(ctx, slices.Concat(r.Options, opts), kind, inputUnit, outputUnit, query)
}

func getUnitConversion[U ~string](ctx context.Context, opts []option.RequestOption, kind string, inputUnit, outputUnit U, query UnitConversionParams) (res *UnitConversion[U], err error) {
	if inputUnit == "" {
		err = errors.New("missing required input_unit parameter")
		return
	}
	if outputUnit == "" {
		err = errors.New("missing required output_unit parameter")
		return
	}
	path := fmt.Sprintf("unit/conversion/%s/%s/%s", url.PathEscape(kind), url.PathEscape(string(inputUnit)), url.PathEscape(string(outputUnit)))
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, query, &res, opts...)
	return
}

// The result of a unit conversion. U is the unit type of the converted
// quantity.
type UnitConversion[U ~string] struct {
	// The unique identifier of the API call.
	ID uuid.UUID `json:"id"`
	// The input value.
	Input float64 `json:"input"`
	// The source unit.
	InputUnit U `json:"input_unit"`
	// The resulting value.
	Output *float64 `json:"output"`
	// The output unit.
	OutputUnit U `json:"output_unit"`
	// The status of the API call.
	Status ApiCallStatus `json:"status"`
	// The error the function returned, if any.
	Error string `json:"error"`
	// The user ID of the user who created the API call.
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

type UnitConversionParams struct {
	// The initial value.
	InputValue param.Field[float64] `query:"input_value"`
}

// URLQuery serializes [UnitConversionParams]'s query parameters as `url.Values`.
func (r UnitConversionParams) URLQuery() (url.Values, error) {
	return apiquery.MarshalQuery(r)
}

// The valid types of angle formats.
type UnitAngle string

const (
	UnitAngleDegrees UnitAngle = "degrees"
	UnitAngleRadians UnitAngle = "radians"
)

func (r UnitAngle) IsKnown() bool {
	switch r {
	case UnitAngleDegrees, UnitAngleRadians:
		return true
	}
	return false
}

// The valid types of area units.
type UnitArea string

const (
	UnitAreaCm2 UnitArea = "cm2"
	UnitAreaDm2 UnitArea = "dm2"
	UnitAreaFt2 UnitArea = "ft2"
	UnitAreaIn2 UnitArea = "in2"
	UnitAreaKm2 UnitArea = "km2"
	UnitAreaM2  UnitArea = "m2"
	UnitAreaMm2 UnitArea = "mm2"
	UnitAreaYd2 UnitArea = "yd2"
)

func (r UnitArea) IsKnown() bool {
	switch r {
	case UnitAreaCm2, UnitAreaDm2, UnitAreaFt2, UnitAreaIn2, UnitAreaKm2, UnitAreaM2, UnitAreaMm2, UnitAreaYd2:
		return true
	}
	return false
}

// The valid types of current units.
type UnitCurrent string

const (
	UnitCurrentAmperes      UnitCurrent = "amperes"
	UnitCurrentMicroamperes UnitCurrent = "microamperes"
	UnitCurrentMilliamperes UnitCurrent = "milliamperes"
	UnitCurrentNanoamperes  UnitCurrent = "nanoamperes"
)

func (r UnitCurrent) IsKnown() bool {
	switch r {
	case UnitCurrentAmperes, UnitCurrentMicroamperes, UnitCurrentMilliamperes, UnitCurrentNanoamperes:
		return true
	}
	return false
}

// The valid types of energy units.
type UnitEnergy string

const (
	UnitEnergyBtu           UnitEnergy = "btu"
	UnitEnergyElectronvolts UnitEnergy = "electronvolts"
	UnitEnergyJoules        UnitEnergy = "joules"
	UnitEnergyKilocalories  UnitEnergy = "kilocalories"
	UnitEnergyKilowattHours UnitEnergy = "kilowatt_hours"
	UnitEnergyWattHours     UnitEnergy = "watt_hours"
)

func (r UnitEnergy) IsKnown() bool {
	switch r {
	case UnitEnergyBtu, UnitEnergyElectronvolts, UnitEnergyJoules, UnitEnergyKilocalories, UnitEnergyKilowattHours, UnitEnergyWattHours:
		return true
	}
	return false
}

// The valid types of force units.
type UnitForce string

const (
	UnitForceDynes        UnitForce = "dynes"
	UnitForceKiloponds    UnitForce = "kiloponds"
	UnitForceMicronewtons UnitForce = "micronewtons"
	UnitForceMillinewtons UnitForce = "millinewtons"
	UnitForceNewtons      UnitForce = "newtons"
	UnitForcePoundals     UnitForce = "poundals"
	UnitForcePounds       UnitForce = "pounds"
)

func (r UnitForce) IsKnown() bool {
	switch r {
	case UnitForceDynes, UnitForceKiloponds, UnitForceMicronewtons, UnitForceMillinewtons, UnitForceNewtons, UnitForcePoundals, UnitForcePounds:
		return true
	}
	return false
}

// The valid types of frequency units.
type UnitFrequency string

const (
	UnitFrequencyGigahertz  UnitFrequency = "gigahertz"
	UnitFrequencyHertz      UnitFrequency = "hertz"
	UnitFrequencyKilohertz  UnitFrequency = "kilohertz"
	UnitFrequencyMegahertz  UnitFrequency = "megahertz"
	UnitFrequencyMicrohertz UnitFrequency = "microhertz"
	UnitFrequencyMillihertz UnitFrequency = "millihertz"
	UnitFrequencyNanohertz  UnitFrequency = "nanohertz"
	UnitFrequencyTerahertz  UnitFrequency = "terahertz"
)

func (r UnitFrequency) IsKnown() bool {
	switch r {
	case UnitFrequencyGigahertz, UnitFrequencyHertz, UnitFrequencyKilohertz, UnitFrequencyMegahertz, UnitFrequencyMicrohertz, UnitFrequencyMillihertz, UnitFrequencyNanohertz, UnitFrequencyTerahertz:
		return true
	}
	return false
}

// The valid types of length units.
type UnitLength string

const (
	UnitLengthCm UnitLength = "cm"
	UnitLengthFt UnitLength = "ft"
	UnitLengthIn UnitLength = "in"
	UnitLengthM  UnitLength = "m"
	UnitLengthMm UnitLength = "mm"
	UnitLengthYd UnitLength = "yd"
)

func (r UnitLength) IsKnown() bool {
	switch r {
	case UnitLengthCm, UnitLengthFt, UnitLengthIn, UnitLengthM, UnitLengthMm, UnitLengthYd:
		return true
	}
	return false
}

// The valid types of mass units.
type UnitMass string

const (
	UnitMassG  UnitMass = "g"
	UnitMassKg UnitMass = "kg"
	UnitMassLb UnitMass = "lb"
)

func (r UnitMass) IsKnown() bool {
	switch r {
	case UnitMassG, UnitMassKg, UnitMassLb:
		return true
	}
	return false
}

// The valid types of power units.
type UnitPower string

const (
	UnitPowerBtuPerMinute     UnitPower = "btu_per_minute"
	UnitPowerHorsepower       UnitPower = "horsepower"
	UnitPowerKilowatts        UnitPower = "kilowatts"
	UnitPowerMetricHorsepower UnitPower = "metric_horsepower"
	UnitPowerMicrowatts       UnitPower = "microwatts"
	UnitPowerMilliwatts       UnitPower = "milliwatts"
	UnitPowerWatts            UnitPower = "watts"
)

func (r UnitPower) IsKnown() bool {
	switch r {
	case UnitPowerBtuPerMinute, UnitPowerHorsepower, UnitPowerKilowatts, UnitPowerMetricHorsepower, UnitPowerMicrowatts, UnitPowerMilliwatts, UnitPowerWatts:
		return true
	}
	return false
}

// The valid types of pressure units.
type UnitPressure string

const (
	UnitPressureAtmospheres  UnitPressure = "atmospheres"
	UnitPressureBars         UnitPressure = "bars"
	UnitPressureHectopascals UnitPressure = "hectopascals"
	UnitPressureKilopascals  UnitPressure = "kilopascals"
	UnitPressureMillibars    UnitPressure = "millibars"
	UnitPressurePascals      UnitPressure = "pascals"
	UnitPressurePsi          UnitPressure = "psi"
)

func (r UnitPressure) IsKnown() bool {
	switch r {
	case UnitPressureAtmospheres, UnitPressureBars, UnitPressureHectopascals, UnitPressureKilopascals, UnitPressureMillibars, UnitPressurePascals, UnitPressurePsi:
		return true
	}
	return false
}

// The valid types of temperature units.
type UnitTemperature string

const (
	UnitTemperatureCelsius    UnitTemperature = "celsius"
	UnitTemperatureFahrenheit UnitTemperature = "fahrenheit"
	UnitTemperatureKelvin     UnitTemperature = "kelvin"
	UnitTemperatureRankine    UnitTemperature = "rankine"
)

func (r UnitTemperature) IsKnown() bool {
	switch r {
	case UnitTemperatureCelsius, UnitTemperatureFahrenheit, UnitTemperatureKelvin, UnitTemperatureRankine:
		return true
	}
	return false
}

// The valid types of torque units.
type UnitTorque string

const (
	UnitTorqueNewtonMetres UnitTorque = "newton_metres"
	UnitTorquePoundFoot    UnitTorque = "pound_foot"
)

func (r UnitTorque) IsKnown() bool {
	switch r {
	case UnitTorqueNewtonMetres, UnitTorquePoundFoot:
		return true
	}
	return false
}

// The valid types of volume units.
type UnitVolume string

const (
	UnitVolumeCm3    UnitVolume = "cm3"
	UnitVolumeFt3    UnitVolume = "ft3"
	UnitVolumeIn3    UnitVolume = "in3"
	UnitVolumeM3     UnitVolume = "m3"
	UnitVolumeYd3    UnitVolume = "yd3"
	UnitVolumeUsfloz UnitVolume = "usfloz"
	UnitVolumeUsgal  UnitVolume = "usgal"
	UnitVolumeL      UnitVolume = "l"
	UnitVolumeMl     UnitVolume = "ml"
)

func (r UnitVolume) IsKnown() bool {
	switch r {
	case UnitVolumeCm3, UnitVolumeFt3, UnitVolumeIn3, UnitVolumeM3, UnitVolumeYd3, UnitVolumeUsfloz, UnitVolumeUsgal, UnitVolumeL, UnitVolumeMl:
		return true
	}
	return false
}

// The valid types of density units, used by the file mass and density operations.
type UnitDensity string

const (
	UnitDensityLbFt3 UnitDensity = "lb:ft3"
	UnitDensityKgM3  UnitDensity = "kg:m3"
)

func (r UnitDensity) IsKnown() bool {
	switch r {
	case UnitDensityLbFt3, UnitDensityKgM3:
		return true
	}
	return false
}
