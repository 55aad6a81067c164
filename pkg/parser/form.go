package parser

import (
	"math"

	"github.com/maxncode/darthub/pkg/models"
)

// Form score weights
const (
	formScale          = 10.0
	formWeightAverage  = 0.4
	formWeightCheckout = 0.3
	formWeightLegsWon  = 0.2
	formWeight180s     = 0.1
)

// ComputeForm sets the Form field of every stat to a weighted sum of the
// player's min-max normalised average, checkout percentage, legs won
// percentage and 180 count across the given population. The result is on a
// 0-10 scale. A player missing any of the four inputs keeps Form unset. A
// column with no spread contributes zero.
func ComputeForm(stats []models.PlayerStat) {
	avg := columnRange(stats, func(s models.PlayerStat) float64 { return s.Average })
	co := columnRange(stats, func(s models.PlayerStat) float64 { return s.CheckoutPct })
	legs := columnRange(stats, func(s models.PlayerStat) float64 { return s.LegsWonPct })
	t180 := columnRange(stats, func(s models.PlayerStat) float64 { return s.Total180s })

	for i := range stats {
		s := &stats[i]
		if !models.Has(s.Average) || !models.Has(s.CheckoutPct) || !models.Has(s.LegsWonPct) || !models.Has(s.Total180s) {
			s.Form = math.NaN()
			continue
		}
		s.Form = formWeightAverage*avg.normalize(s.Average) +
			formWeightCheckout*co.normalize(s.CheckoutPct) +
			formWeightLegsWon*legs.normalize(s.LegsWonPct) +
			formWeight180s*t180.normalize(s.Total180s)
	}
}

type valueRange struct {
	min, max float64
}

func columnRange(stats []models.PlayerStat, field func(models.PlayerStat) float64) valueRange {
	r := valueRange{min: math.Inf(1), max: math.Inf(-1)}
	for _, s := range stats {
		v := field(s)
		if !models.Has(v) {
			continue
		}
		r.min = math.Min(r.min, v)
		r.max = math.Max(r.max, v)
	}
	return r
}

func (r valueRange) normalize(v float64) float64 {
	spread := r.max - r.min
	if spread <= 0 || math.IsInf(spread, 0) {
		return 0
	}
	return (v - r.min) / spread * formScale
}
