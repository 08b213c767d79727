package solar

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
	meeussolar "github.com/soniakeys/meeus/v3/solar"

	"pv_optimizer/internal/model"
)

// Ephemeris computes the sun position from apparent equatorial coordinates
// and apparent sidereal time. Unlike Simple it accounts for longitude and
// the equation of time.
type Ephemeris struct{}

func (Ephemeris) Position(loc model.Location, t time.Time) Position {
	el, az := ephemerisGeometry(loc, t)
	return Position{Elevation: math.Max(el, 0), Azimuth: az}
}

func ephemerisGeometry(loc model.Location, t time.Time) (elevation, azimuth float64) {
	jd := julian.TimeToJD(t.UTC())
	ra, dec := meeussolar.ApparentEquatorial(jd)
	gast := sidereal.Apparent(jd).Angle().Rad()

	ha := gast + degToRad(loc.Longitude) - ra.Rad()
	return horizontal(degToRad(loc.Latitude), dec.Rad(), ha)
}

// CalculatorByName resolves a configured calculator name.
// Unknown names fall back to Simple.
func CalculatorByName(name string) Calculator {
	switch name {
	case "ephemeris":
		return Ephemeris{}
	default:
		return Simple{}
	}
}
