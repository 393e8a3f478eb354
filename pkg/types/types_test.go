package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariationsKeyIsOrderIndependent(t *testing.T) {
	a := Variations{"Size": "M", "Color": "Red"}
	b := Variations{"Color": "Red", "Size": "M"}
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, `{"Color":"Red","Size":"M"}`, a.Key())
	assert.NotEqual(t, a.Key(), Variations{"Size": "L", "Color": "Red"}.Key())
	assert.Equal(t, "", Variations{}.Key())
	assert.Equal(t, "", Variations(nil).Key())
}

func TestVariationsKeyKeepsSeparatorsApart(t *testing.T) {
	packed := Variations{"a": "b;c=d"}
	split := Variations{"a": "b", "c": "d"}
	assert.NotEqual(t, packed.Key(), split.Key())
	assert.NotEqual(t, Variations{"a=b": "c"}.Key(), Variations{"a": "b=c"}.Key())
}

func TestVariationsScanRoundTrip(t *testing.T) {
	v := Variations{"Size": "S"}
	raw, err := v.Value()
	require.NoError(t, err)

	var out Variations
	require.NoError(t, out.Scan(raw))
	assert.Equal(t, v, out)

	var empty Variations
	require.NoError(t, empty.Scan(nil))
	assert.NotNil(t, empty)
}

func TestVariationOptionsValidate(t *testing.T) {
	opts := VariationOptions{"Size": {"S", "M", "L"}}
	assert.NoError(t, opts.Validate(Variations{"Size": "M"}))
	assert.NoError(t, opts.Validate(nil))
	assert.Error(t, opts.Validate(Variations{"Size": "XL"}))
	assert.Error(t, opts.Validate(Variations{"Color": "Red"}))
	assert.Error(t, VariationOptions{}.Validate(Variations{"Size": "M"}))
}

func TestAddressNormalizedFillsDefaults(t *testing.T) {
	addr := Address{Street: " 12 Main ", City: "Hohoe", State: "Volta"}.Normalized()
	assert.Equal(t, "12 Main", addr.Street)
	assert.Equal(t, DefaultZipCode, addr.ZipCode)
	assert.Equal(t, DefaultCountry, addr.Country)
	assert.Empty(t, addr.MissingFields())
	assert.Equal(t, "12 Main, Hohoe, Volta, Ghana", addr.OneLine())

	assert.ElementsMatch(t, []string{"street", "city", "state"}, Address{}.MissingFields())
	assert.False(t, Address{Latitude: 6.7}.HasCoordinates())
}

func TestOperatingHoursIsOpen(t *testing.T) {
	hours := OperatingHours{
		"monday": {Open: "08:00", Close: "20:00"},
	}
	monday := time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)
	require.Equal(t, time.Monday, monday.Weekday())

	assert.True(t, hours.IsOpen(monday.Add(8*time.Hour)))
	assert.True(t, hours.IsOpen(monday.Add(20*time.Hour)))
	assert.False(t, hours.IsOpen(monday.Add(7*time.Hour+59*time.Minute)))
	assert.False(t, hours.IsOpen(monday.Add(21*time.Hour)))
	assert.False(t, hours.IsOpen(monday.Add(24*time.Hour+9*time.Hour)), "tuesday has no entry")

	assert.NoError(t, hours.Validate())
	assert.Error(t, OperatingHours{"funday": {Open: "08:00", Close: "09:00"}}.Validate())
	assert.Error(t, OperatingHours{"monday": {Open: "8am", Close: "09:00"}}.Validate())
}

func TestSpecificationsScan(t *testing.T) {
	specs := Specifications{{Key: "Weight", Value: "1kg"}}
	raw, err := specs.Value()
	require.NoError(t, err)
	var out Specifications
	require.NoError(t, out.Scan(raw))
	assert.Equal(t, specs, out)
}

func TestStringListScan(t *testing.T) {
	tags := StringList{"fresh", "local produce"}
	raw, err := tags.Value()
	require.NoError(t, err)

	var out StringList
	require.NoError(t, out.Scan(raw))
	assert.Equal(t, tags, out)

	require.NoError(t, out.Scan(nil))
	assert.Empty(t, out)
}
