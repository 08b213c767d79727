package solar

import (
	"math"
	"time"

	"pv_optimizer/internal/model"
)

const (
	// cellHeatingFactor is °C of cell heating per W/m² of plane-of-array irradiance.
	cellHeatingFactor = 0.035
	stcTemperature    = 25.0
)

// Model converts weather samples into AC power for a fixed site and system.
// It is immutable after construction and safe for concurrent use.
type Model struct {
	loc     model.Location
	sys     model.SystemParameters
	shading *model.ShadingProfile
	calc    Calculator
}

// NewModel validates the inputs once. A nil calc uses Simple; a nil shading
// profile means an unobstructed horizon.
func NewModel(loc model.Location, sys model.SystemParameters, shading *model.ShadingProfile, calc Calculator) (*Model, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	if err := sys.Validate(); err != nil {
		return nil, err
	}
	if err := shading.Validate(); err != nil {
		return nil, err
	}
	if calc == nil {
		calc = Simple{}
	}
	return &Model{loc: loc, sys: sys, shading: shading, calc: calc}, nil
}

func (m *Model) Location() model.Location       { return m.loc }
func (m *Model) System() model.SystemParameters { return m.sys }
func (m *Model) Calculator() Calculator         { return m.calc }
func (m *Model) Shading() *model.ShadingProfile { return m.shading }

// WithSystem returns a copy of the model using different system parameters.
func (m *Model) WithSystem(sys model.SystemParameters) (*Model, error) {
	return NewModel(m.loc, sys, m.shading, m.calc)
}

// SunAt returns the sun position at t for the model's location.
func (m *Model) SunAt(t time.Time) Position {
	return m.calc.Position(m.loc, t)
}

// Power returns the AC output in watts for one sample.
func (m *Model) Power(o model.PanelOrientation, s model.WeatherSample) float64 {
	return m.PowerAt(m.SunAt(s.Timestamp), o, s)
}

// PowerAt is Power with a precomputed sun position.
func (m *Model) PowerAt(sun Position, o model.PanelOrientation, s model.WeatherSample) float64 {
	return m.BreakdownAt(sun, o, s).AC
}

// Breakdown holds every intermediate stage of one power computation.
type Breakdown struct {
	Sun          Position
	CosIncidence float64
	Opacity      float64
	Direct       float64
	Diffuse      float64
	Reflected    float64
	POA          float64
	CellTemp     float64
	Derate       float64
	DC           float64
	AC           float64
}

func (m *Model) Breakdown(o model.PanelOrientation, s model.WeatherSample) Breakdown {
	return m.BreakdownAt(m.SunAt(s.Timestamp), o, s)
}

func (m *Model) BreakdownAt(sun Position, o model.PanelOrientation, s model.WeatherSample) Breakdown {
	b := Breakdown{Sun: sun}
	if !sun.Up() {
		return b
	}

	b.CosIncidence = IncidenceCosine(sun, o)
	b.Opacity = m.shading.Attenuation(sun.Elevation, sun.Azimuth)

	b.Direct = math.Max(0, s.DNI*b.CosIncidence*(1-b.Opacity))
	b.Diffuse = math.Max(0, s.DHI*m.sys.DiffuseEfficiency)
	b.Reflected = math.Max(0, s.GHI*m.sys.Albedo*(1-math.Cos(degToRad(o.Tilt)))/2)
	b.POA = b.Direct + b.Diffuse + b.Reflected

	b.CellTemp = s.Temperature + cellHeatingFactor*b.POA
	b.Derate = 1 + (b.CellTemp-stcTemperature)*m.sys.TempCoefficient

	b.DC = math.Max(0, b.POA*m.sys.PanelEfficiency*m.sys.PanelArea*b.Derate)
	b.AC = math.Max(0, math.Min(b.DC*m.sys.InverterEfficiency, m.sys.InverterLimitW))
	return b
}

// IncidenceCosine returns the cosine of the angle between the sun vector and
// the panel normal, clamped to [0,1].
func IncidenceCosine(sun Position, o model.PanelOrientation) float64 {
	el := degToRad(sun.Elevation)
	tilt := degToRad(o.Tilt)
	c := math.Sin(el)*math.Cos(tilt) + math.Cos(el)*math.Sin(tilt)*math.Cos(degToRad(sun.Azimuth-o.Azimuth))
	return clamp(c, 0, 1)
}

// Power is a one-shot evaluation using the Simple calculator. It returns
// an error only when the inputs fail validation.
func Power(loc model.Location, o model.PanelOrientation, sys model.SystemParameters, shading *model.ShadingProfile, s model.WeatherSample) (float64, error) {
	m, err := NewModel(loc, sys, shading, Simple{})
	if err != nil {
		return 0, err
	}
	if err := o.Validate(); err != nil {
		return 0, err
	}
	return m.Power(o, s), nil
}
