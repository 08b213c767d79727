package solar

import "pv_optimizer/internal/model"

// HourlyProfile holds the average AC power per UTC hour across many days.
type HourlyProfile struct {
	// HourlyW holds the mean power for each hour [0-23].
	HourlyW [24]float64
	// HourlyFactor is HourlyW normalized so the peak hour is 1.0.
	HourlyFactor [24]float64
	// PeakHour is the hour with the highest average generation.
	PeakHour int
	// PeakW is the mean power at PeakHour.
	PeakW float64
}

// ProfileFromSums builds a profile from per-hour power sums and sample counts.
// Hours without samples average to zero.
func ProfileFromSums(sum [24]float64, count [24]int) HourlyProfile {
	var p HourlyProfile
	for h := 0; h < 24; h++ {
		if count[h] == 0 {
			continue
		}
		avg := sum[h] / float64(count[h])
		p.HourlyW[h] = avg
		if avg > p.PeakW {
			p.PeakW = avg
			p.PeakHour = h
		}
	}

	// Normalize to peak = 1.0
	if p.PeakW > 0 {
		for h := 0; h < 24; h++ {
			p.HourlyFactor[h] = p.HourlyW[h] / p.PeakW
		}
	}
	return p
}

// TypicalDay converts the profile into the result value object.
func (p HourlyProfile) TypicalDay() model.TypicalDay {
	return model.TypicalDay{HourlyW: p.HourlyW, Shape: p.HourlyFactor, PeakHour: p.PeakHour}
}
