// Package units provides shared constants and conversions for the
// imperial measurements found in flight-log exports.
package units

// Conversion factors. AirData exports carry distances in feet and
// speeds in mph; everything downstream works in meters and km/h.
const (
	FeetPerMeter = 3.28
	MPHToKMH     = 1.6093
)

// Unit names as they appear in flight-log column headers.
const (
	Feet   = "feet"
	MPH    = "mph"
	Meters = "meters"
	KMH    = "km/h"
)

// Normalize converts a value carrying the named unit into its metric
// counterpart. Unknown units pass through unchanged; flight logs mix
// metric and imperial columns freely.
func Normalize(value float64, unit string) float64 {
	switch unit {
	case Feet:
		return value / FeetPerMeter
	case MPH:
		return value * MPHToKMH
	default:
		return value
	}
}

// IsImperial reports whether the named unit needs conversion.
func IsImperial(unit string) bool {
	return unit == Feet || unit == MPH
}
