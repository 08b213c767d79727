package model

import "math"

// TemperatureCoefficientForLatitude returns a typical crystalline silicon
// coefficient for the climate at the given latitude. Hot climates derate more.
func TemperatureCoefficientForLatitude(lat float64) float64 {
	abs := math.Abs(lat)
	switch {
	case abs < 15:
		return -0.0045
	case abs < 30:
		return -0.0042
	case abs < 45:
		return -0.0040
	case abs < 60:
		return -0.0038
	default:
		return -0.0035
	}
}

// PanelAreaFor returns the area in m² needed for capacityW at STC (1000 W/m²).
func PanelAreaFor(capacityW, efficiency float64) float64 {
	if efficiency <= 0 {
		return 0
	}
	return capacityW / (1000 * efficiency)
}

var compassPoints = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// CompassDirection returns the 8-point compass label for an azimuth.
func CompassDirection(azimuth float64) string {
	az := NormalizeAzimuth(azimuth)
	idx := int(math.Floor((az+22.5)/45)) % len(compassPoints)
	return compassPoints[idx]
}

// NormalizeAzimuth maps any angle into [0,360).
func NormalizeAzimuth(az float64) float64 {
	az = math.Mod(az, 360)
	if az < 0 {
		az += 360
	}
	if az >= 360 {
		az = 0
	}
	return az
}
