package optimizer

import "math"

// Recommendation is the latitude rule-of-thumb orientation.
type Recommendation struct {
	Azimuth    float64 `json:"azimuth"`
	Tilt       float64 `json:"tilt"`
	Hemisphere string  `json:"hemisphere"`
	Facing     string  `json:"facing"`
	Zone       string  `json:"zone"`
}

// RuleOfThumb faces the panel toward the equator and tilts it close to the
// latitude, flatter in the tropics and slightly flatter at high latitudes.
func RuleOfThumb(lat float64) Recommendation {
	r := Recommendation{Azimuth: 180, Hemisphere: "Northern", Facing: "South"}
	if lat < 0 {
		r = Recommendation{Azimuth: 0, Hemisphere: "Southern", Facing: "North"}
	}

	abs := math.Abs(lat)
	switch {
	case abs < 25:
		r.Tilt = abs * 0.87
		r.Zone = "Tropical"
	case abs < 50:
		r.Tilt = abs
		r.Zone = "Temperate"
	default:
		r.Tilt = abs * 0.9
		r.Zone = "High Latitude"
	}
	return r
}
