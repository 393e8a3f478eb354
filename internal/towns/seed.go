package towns

import "github.com/shopspring/decimal"

type seedTown struct {
	Description string
	Latitude    float64
	Longitude   float64
}

// seedData fills in what is known about the served towns; the rest seed
// with empty descriptions and unknown coordinates.
var seedData = map[string]seedTown{
	"Hohoe":  {Description: "Commercial hub in the Guan area", Latitude: 6.7936, Longitude: -0.4778},
	"Dzodze": {Description: "Town in the Volta region", Latitude: 6.3833, Longitude: 0.6833},
	"Anloga": {Description: "Coastal town in the Volta region", Latitude: 5.7831, Longitude: -0.1939},
}

func seedFee(fee float64) decimal.Decimal {
	return decimal.NewFromFloat(fee).Round(2)
}
