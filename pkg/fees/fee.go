package fees

import (
	"math"
	"strings"
)

const (
	DefaultBaseFee  = 5.0
	DefaultPerKmFee = 2.0
	DefaultTownFee  = 7.0
)

// DistanceFee charges baseFee for the first kilometre and perKm for every
// kilometre after it. Non-positive rates fall back to the defaults and
// negative distances count as zero.
func DistanceFee(distanceKm, baseFee, perKm float64) float64 {
	if baseFee <= 0 {
		baseFee = DefaultBaseFee
	}
	if perKm <= 0 {
		perKm = DefaultPerKmFee
	}
	if math.IsNaN(distanceKm) || distanceKm <= 1 {
		return baseFee
	}
	return baseFee + (distanceKm-1)*perKm
}

var townFees = map[string]float64{
	"hohoe":    7.00,
	"dzodze":   7.00,
	"anloga":   7.00,
	"akpafu":   20.00,
	"sanko":    15.00,
	"likpe":    20.00,
	"lolobi":   20.00,
	"fodome":   20.00,
	"wli":      22.00,
	"ve":       25.00,
	"alavanyo": 20.00,
}

// Towns is the closed set of served towns in display order.
var Towns = []string{
	"Hohoe",
	"Dzodze",
	"Anloga",
	"Akpafu",
	"Sanko",
	"Likpe",
	"Lolobi",
	"Fodome",
	"Wli",
	"Ve",
	"Alavanyo",
}

// TownFee looks the town up case-insensitively after trimming. Unknown or
// empty names return DefaultTownFee.
func TownFee(name string) float64 {
	if fee, ok := townFees[normalizeTown(name)]; ok {
		return fee
	}
	return DefaultTownFee
}

// IsKnownTown reports whether name belongs to the served set.
func IsKnownTown(name string) bool {
	_, ok := townFees[normalizeTown(name)]
	return ok
}

func normalizeTown(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
