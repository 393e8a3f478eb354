package fees

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/yourwae/fastget-backend/pkg/config"
)

func TestDistanceProperties(t *testing.T) {
	hohoe := Point{Lat: 6.7936, Lng: -0.4778}
	dzodze := Point{Lat: 6.3833, Lng: 0.6833}

	assert.Equal(t, 0.0, Distance(hohoe.Lat, hohoe.Lng, hohoe.Lat, hohoe.Lng))

	ab := Distance(hohoe.Lat, hohoe.Lng, dzodze.Lat, dzodze.Lng)
	ba := Distance(dzodze.Lat, dzodze.Lng, hohoe.Lat, hohoe.Lng)
	assert.InDelta(t, ab, ba, 1e-9)
	assert.Greater(t, ab, 130.0)
	assert.Less(t, ab, 140.0)

	// A quarter of the equator.
	assert.InDelta(t, math.Pi*EarthRadiusKm/2, Distance(0, 0, 0, 90), 1e-6)
}

func TestDistanceFee(t *testing.T) {
	cases := []struct {
		name     string
		distance float64
		base     float64
		perKm    float64
		want     float64
	}{
		{"zero distance", 0, 5, 2, 5},
		{"exactly one km", 1, 5, 2, 5},
		{"three km", 3, 5, 2, 9},
		{"fractional", 2.5, 5, 2, 8},
		{"defaults when unset", 3, 0, 0, 9},
		{"negative distance", -4, 5, 2, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, DistanceFee(tc.distance, tc.base, tc.perKm), 1e-9)
		})
	}
}

func TestDistanceFeeIsMonotonic(t *testing.T) {
	prev := DistanceFee(0, 5, 2)
	for d := 0.0; d <= 50; d += 0.25 {
		fee := DistanceFee(d, 5, 2)
		assert.GreaterOrEqual(t, fee, 5.0)
		assert.GreaterOrEqual(t, fee, prev)
		prev = fee
	}
}

func TestTownFee(t *testing.T) {
	assert.Equal(t, 7.0, TownFee("Hohoe"))
	assert.Equal(t, 15.0, TownFee("  SANKO "))
	assert.Equal(t, 25.0, TownFee("ve"))
	assert.Equal(t, 22.0, TownFee("Wli"))
	assert.Equal(t, DefaultTownFee, TownFee(""))
	assert.Equal(t, DefaultTownFee, TownFee("Accra"))

	for _, town := range Towns {
		assert.True(t, IsKnownTown(town), town)
	}
	assert.False(t, IsKnownTown("Accra"))
}

func TestCalculatorTownModeIgnoresCoordinatesForFee(t *testing.T) {
	calc := NewCalculator(config.DeliveryConfig{FeeModel: "town", DefaultTownFee: 7, BaseFee: 5, PerKmFee: 2})
	q := calc.Compute(Input{
		Town:    "Akpafu",
		Store:   Point{Lat: 6.7936, Lng: -0.4778},
		Dropoff: Point{Lat: 6.80, Lng: -0.47},
	})
	assert.Equal(t, ModelTown, q.Model)
	assert.True(t, q.Fee.Equal(decimal.NewFromInt(20)), q.Fee.String())
	assert.Greater(t, q.DistanceKm, 0.0)
}

func TestCalculatorDistanceMode(t *testing.T) {
	calc := NewCalculator(config.DeliveryConfig{FeeModel: "distance", DefaultTownFee: 7, BaseFee: 5, PerKmFee: 2})
	assert.Equal(t, ModelDistance, calc.Model())

	store := Point{Lat: 0, Lng: 0.0001}
	dropoff := Point{Lat: 0, Lng: 0.0001 + 3.0/111.19492664455873}
	q := calc.Compute(Input{Town: "Ve", Store: store, Dropoff: dropoff})
	assert.Equal(t, ModelDistance, q.Model)
	assert.InDelta(t, 3.0, q.DistanceKm, 0.01)
	assert.True(t, q.Fee.Equal(decimal.NewFromInt(9)), q.Fee.String())

	custom := calc.Compute(Input{
		Store: store, Dropoff: dropoff,
		StoreBase: decimal.NewFromInt(10), StorePerKm: decimal.NewFromInt(1),
	})
	assert.True(t, custom.Fee.Equal(decimal.NewFromInt(12)), custom.Fee.String())
}

func TestCalculatorDistanceModeFallsBackWithoutCoordinates(t *testing.T) {
	calc := NewCalculator(config.DeliveryConfig{FeeModel: "distance", DefaultTownFee: 7})
	q := calc.Compute(Input{Town: "Sanko", Store: Point{Lat: 6.7, Lng: -0.4}})
	assert.Equal(t, ModelTown, q.Model)
	assert.True(t, q.Fee.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, 0.0, q.DistanceKm)
}

func TestCalculatorUsesConfiguredDefaultForUnknownTown(t *testing.T) {
	calc := NewCalculator(config.DeliveryConfig{FeeModel: "town", DefaultTownFee: 9})
	q := calc.Compute(Input{Town: "Accra"})
	assert.True(t, q.Fee.Equal(decimal.NewFromInt(9)), q.Fee.String())
}

func TestCalculatorPricesUnroundedDistance(t *testing.T) {
	calc := NewCalculator(config.DeliveryConfig{FeeModel: "distance", BaseFee: 5, PerKmFee: 100})
	store := Point{Lat: 0, Lng: 0.0001}
	// 2.004 km rounds to 2.00 for display but must be priced in full.
	dropoff := Point{Lat: 0, Lng: 0.0001 + 2.004/111.19492664455873}

	q := calc.Compute(Input{Store: store, Dropoff: dropoff})
	km := Distance(store.Lat, store.Lng, dropoff.Lat, dropoff.Lng)
	want := decimal.NewFromFloat(DistanceFee(km, 5, 100)).Round(2)

	assert.InDelta(t, 2.0, q.DistanceKm, 1e-9)
	assert.True(t, q.Fee.Equal(want), "fee %s want %s", q.Fee, want)
	assert.True(t, q.Fee.GreaterThan(decimal.NewFromInt(105)), q.Fee.String())
}
