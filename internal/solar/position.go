package solar

import (
	"math"
	"time"

	"pv_optimizer/internal/model"
)

// Position is the apparent location of the sun in the local sky.
type Position struct {
	// Elevation above the horizon in degrees, clamped to >= 0.
	Elevation float64
	// Azimuth clockwise from north in degrees, within [0,360).
	Azimuth float64
}

// Up reports whether the sun contributes direct light.
func (p Position) Up() bool { return p.Elevation > 0 }

// Calculator computes sun positions for a location and instant.
type Calculator interface {
	Position(loc model.Location, t time.Time) Position
}

// Simple is the declination / hour-angle approximation. The hour angle is
// taken from UTC clock time, so longitude does not shift solar noon.
// Accurate enough for yield estimation, not for tracking control.
type Simple struct{}

func (Simple) Position(loc model.Location, t time.Time) Position {
	el, az := simpleGeometry(loc, t)
	return Position{Elevation: math.Max(el, 0), Azimuth: az}
}

// TrueElevation returns the unclamped elevation from the Simple model,
// negative when the sun is below the horizon.
func TrueElevation(loc model.Location, t time.Time) float64 {
	el, _ := simpleGeometry(loc, t)
	return el
}

// Declination returns the solar declination in degrees for a day of year.
func Declination(dayOfYear int) float64 {
	return 23.45 * math.Sin(degToRad(360.0/365.0*float64(284+dayOfYear)))
}

// HourAngle returns the hour angle in degrees for a fractional UTC hour.
func HourAngle(hour float64) float64 {
	return (hour - 12) * 15
}

func simpleGeometry(loc model.Location, t time.Time) (elevation, azimuth float64) {
	t = t.UTC()
	hour := float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
	decl := degToRad(Declination(t.YearDay()))
	ha := degToRad(HourAngle(hour))
	return horizontal(degToRad(loc.Latitude), decl, ha)
}

// horizontal converts declination and local hour angle (radians) into
// elevation and azimuth (degrees). Azimuth is referenced to south and then
// shifted by 180 so that north is 0 and a noon sun in the northern
// hemisphere sits at 180.
func horizontal(lat, decl, ha float64) (elevation, azimuth float64) {
	sinEl := math.Sin(decl)*math.Sin(lat) + math.Cos(decl)*math.Cos(lat)*math.Cos(ha)
	elevation = radToDeg(math.Asin(clamp(sinEl, -1, 1)))

	az := math.Atan2(math.Sin(ha), math.Sin(lat)*math.Cos(ha)-math.Tan(decl)*math.Cos(lat))
	azimuth = model.NormalizeAzimuth(radToDeg(az) + 180)
	return elevation, azimuth
}

func degToRad(deg float64) float64 { return deg * math.Pi / 180.0 }
func radToDeg(rad float64) float64 { return rad * 180.0 / math.Pi }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
