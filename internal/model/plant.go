package model

import "math"

// Location is a point on the earth in decimal degrees.
type Location struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Validate rejects coordinates outside [-90,90] / [-180,180].
func (l Location) Validate() error {
	if !inRange(l.Latitude, -90, 90) {
		return &ValidationError{Field: "latitude", Value: l.Latitude, Reason: "must be within [-90, 90]"}
	}
	if !inRange(l.Longitude, -180, 180) {
		return &ValidationError{Field: "longitude", Value: l.Longitude, Reason: "must be within [-180, 180]"}
	}
	return nil
}

// Southern reports whether the location is south of the equator.
func (l Location) Southern() bool { return l.Latitude < 0 }

// PanelOrientation is the compass facing and inclination of the array.
// Azimuth is measured clockwise from north (180 = south), tilt from horizontal.
type PanelOrientation struct {
	Azimuth float64 `json:"azimuth" yaml:"azimuth"`
	Tilt    float64 `json:"tilt" yaml:"tilt"`
}

func (o PanelOrientation) Validate() error {
	if !inRange(o.Azimuth, 0, 360) || o.Azimuth == 360 {
		return &ValidationError{Field: "azimuth", Value: o.Azimuth, Reason: "must be within [0, 360)"}
	}
	if !inRange(o.Tilt, 0, 90) {
		return &ValidationError{Field: "tilt", Value: o.Tilt, Reason: "must be within [0, 90]"}
	}
	return nil
}

// HorizontalBaseline returns the flat reference panel used for improvement
// figures: facing the equator with zero tilt.
func HorizontalBaseline(loc Location) PanelOrientation {
	if loc.Southern() {
		return PanelOrientation{Azimuth: 0, Tilt: 0}
	}
	return PanelOrientation{Azimuth: 180, Tilt: 0}
}

// SystemParameters describes the electrical side of the plant.
type SystemParameters struct {
	// CapacityW is the rated DC capacity at STC.
	CapacityW float64 `json:"capacity_w" yaml:"capacity_w"`
	// PanelArea in m².
	PanelArea float64 `json:"panel_area" yaml:"panel_area"`
	// PanelEfficiency as a fraction (0.2 = 20%).
	PanelEfficiency float64 `json:"panel_efficiency" yaml:"panel_efficiency"`
	// TempCoefficient is the fractional power change per °C above 25 °C. It must not be positive.
	TempCoefficient float64 `json:"temp_coefficient" yaml:"temp_coefficient"`
	// DiffuseEfficiency is the share of diffuse horizontal irradiance the panel collects.
	DiffuseEfficiency float64 `json:"diffuse_efficiency" yaml:"diffuse_efficiency"`
	// InverterLimitW caps AC output.
	InverterLimitW     float64 `json:"inverter_limit_w" yaml:"inverter_limit_w"`
	InverterEfficiency float64 `json:"inverter_efficiency" yaml:"inverter_efficiency"`
	Albedo             float64 `json:"albedo" yaml:"albedo"`
}

// DefaultSystemParameters returns a 5 kWp residential system.
func DefaultSystemParameters() SystemParameters {
	return SystemParameters{
		CapacityW:          5000,
		PanelArea:          PanelAreaFor(5000, 0.2),
		PanelEfficiency:    0.2,
		TempCoefficient:    -0.004,
		DiffuseEfficiency:  0.9,
		InverterLimitW:     5000,
		InverterEfficiency: 0.96,
		Albedo:             0.2,
	}
}

// Validate checks every fraction is within [0,1] and sizes are positive.
func (p SystemParameters) Validate() error {
	fractions := []struct {
		name string
		v    float64
	}{
		{"panel_efficiency", p.PanelEfficiency},
		{"diffuse_efficiency", p.DiffuseEfficiency},
		{"inverter_efficiency", p.InverterEfficiency},
		{"albedo", p.Albedo},
	}
	for _, f := range fractions {
		if !inRange(f.v, 0, 1) {
			return &ValidationError{Field: f.name, Value: f.v, Reason: "must be within [0, 1]"}
		}
	}
	if !(p.PanelArea > 0) || math.IsInf(p.PanelArea, 0) {
		return &ValidationError{Field: "panel_area", Value: p.PanelArea, Reason: "must be positive"}
	}
	if p.CapacityW < 0 || math.IsNaN(p.CapacityW) {
		return &ValidationError{Field: "capacity_w", Value: p.CapacityW, Reason: "must not be negative"}
	}
	if p.InverterLimitW < 0 || math.IsNaN(p.InverterLimitW) {
		return &ValidationError{Field: "inverter_limit_w", Value: p.InverterLimitW, Reason: "must not be negative"}
	}
	if math.IsNaN(p.TempCoefficient) || math.IsInf(p.TempCoefficient, 0) {
		return &ValidationError{Field: "temp_coefficient", Value: p.TempCoefficient, Reason: "must be finite"}
	}
	if p.TempCoefficient > 0 {
		return &ValidationError{Field: "temp_coefficient", Value: p.TempCoefficient, Reason: "must not be positive"}
	}
	return nil
}

// ShadingBuckets is the number of 10° azimuth sectors in a ShadingProfile.
const ShadingBuckets = 36

// ShadingProfile attenuates the direct beam per azimuth sector. When the sun
// is lower than Elevation[i] in sector i, the beam is reduced by Opacity[i].
// The zero value means no shading.
type ShadingProfile struct {
	Elevation [ShadingBuckets]float64 `json:"elevation" yaml:"elevation"`
	Opacity   [ShadingBuckets]float64 `json:"opacity" yaml:"opacity"`
}

func (s *ShadingProfile) Validate() error {
	if s == nil {
		return nil
	}
	for i := 0; i < ShadingBuckets; i++ {
		if !inRange(s.Elevation[i], 0, 90) {
			return &ValidationError{Field: "shading.elevation", Value: s.Elevation[i], Reason: "must be within [0, 90]"}
		}
		if !inRange(s.Opacity[i], 0, 1) {
			return &ValidationError{Field: "shading.opacity", Value: s.Opacity[i], Reason: "must be within [0, 1]"}
		}
	}
	return nil
}

// Bucket returns the sector index for a sun azimuth in degrees.
func (s *ShadingProfile) Bucket(azimuth float64) int {
	b := int(azimuth/10) % ShadingBuckets
	if b < 0 {
		b += ShadingBuckets
	}
	return b
}

// Attenuation returns the opacity that applies to the direct beam for the
// given sun position. A nil profile never attenuates.
func (s *ShadingProfile) Attenuation(elevation, azimuth float64) float64 {
	if s == nil {
		return 0
	}
	b := s.Bucket(azimuth)
	if elevation < s.Elevation[b] {
		return s.Opacity[b]
	}
	return 0
}

// Plant bundles everything needed to evaluate a single installation.
type Plant struct {
	Name        string           `json:"name"`
	Location    Location         `json:"location"`
	Orientation PanelOrientation `json:"orientation"`
	System      SystemParameters `json:"system"`
	Shading     *ShadingProfile  `json:"shading,omitempty"`
	Economics   Economics        `json:"economics"`
}

// Validate runs every component validation once.
func (p Plant) Validate() error {
	if err := p.Location.Validate(); err != nil {
		return err
	}
	if err := p.Orientation.Validate(); err != nil {
		return err
	}
	if err := p.System.Validate(); err != nil {
		return err
	}
	if err := p.Economics.Validate(); err != nil {
		return err
	}
	return p.Shading.Validate()
}

func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}
