// Package sim simulates best-of-legs darts matches between two statistically
// profiled players, one visit at a time.
package sim

import (
	"fmt"
	"runtime"
	"time"
)

// StartingScore is the score every leg starts from.
const StartingScore = 501

// MaxVisit is the highest score a single three-dart visit can produce.
const MaxVisit = 180

// Calibration holds the tunable constants of the throw model and the
// simulation runners. The defaults reproduce the historical model; their
// empirical basis is unknown, so treat them as inputs to tune rather than
// as measured truths.
type Calibration struct {
	// BestOf is the number of legs in the match, odd and at least 3.
	BestOf int `yaml:"best_of" json:"best_of"`

	// MaxCheckout is the highest remaining score a player may finish from.
	MaxCheckout int `yaml:"max_checkout" json:"max_checkout"`

	// CheckoutFocusRate is the share of in-range visits aimed at the finish.
	CheckoutFocusRate float64 `yaml:"checkout_focus_rate" json:"checkout_focus_rate"`

	// ThrowNoiseStdDev is the spread of the normal visit score distribution.
	ThrowNoiseStdDev float64 `yaml:"throw_noise_stddev" json:"throw_noise_stddev"`

	// MissMeanFactor and MissMeanFloor give the mean of a missed finish
	// attempt: max(MissMeanFloor, average*MissMeanFactor).
	MissMeanFactor float64 `yaml:"miss_mean_factor" json:"miss_mean_factor"`
	MissMeanFloor  float64 `yaml:"miss_mean_floor" json:"miss_mean_floor"`

	// MaxVisitsPerLeg aborts a leg that has not finished after this many
	// visits. Zero disables the bound.
	MaxVisitsPerLeg int `yaml:"max_visits_per_leg" json:"max_visits_per_leg"`

	// PacingDelay is the pause between visits in live mode.
	PacingDelay time.Duration `yaml:"pacing_delay" json:"pacing_delay"`

	// TrialCount is the number of Monte Carlo trials.
	TrialCount int `yaml:"trial_count" json:"trial_count"`

	// Workers is the size of the Monte Carlo worker pool.
	Workers int `yaml:"workers" json:"workers"`
}

// DefaultCalibration returns the historical model constants.
func DefaultCalibration() Calibration {
	return Calibration{
		BestOf:            5,
		MaxCheckout:       170,
		CheckoutFocusRate: 0.55,
		ThrowNoiseStdDev:  12.0,
		MissMeanFactor:    0.6,
		MissMeanFloor:     20.0,
		MaxVisitsPerLeg:   10000,
		PacingDelay:       700 * time.Millisecond,
		TrialCount:        1000,
		Workers:           runtime.GOMAXPROCS(0),
	}
}

// Validate reports the first out-of-range value.
func (c Calibration) Validate() error {
	if _, err := LegsToWin(c.BestOf); err != nil {
		return err
	}
	if c.MaxCheckout < 2 || c.MaxCheckout > StartingScore {
		return fmt.Errorf("max checkout %d out of range [2,%d]", c.MaxCheckout, StartingScore)
	}
	if c.CheckoutFocusRate < 0 || c.CheckoutFocusRate > 1 {
		return fmt.Errorf("checkout focus rate %.3f out of range [0,1]", c.CheckoutFocusRate)
	}
	if c.ThrowNoiseStdDev < 0 {
		return fmt.Errorf("throw noise stddev %.3f must not be negative", c.ThrowNoiseStdDev)
	}
	if c.MaxVisitsPerLeg < 0 {
		return fmt.Errorf("max visits per leg %d must not be negative", c.MaxVisitsPerLeg)
	}
	if c.PacingDelay < 0 {
		return fmt.Errorf("pacing delay %s must not be negative", c.PacingDelay)
	}
	if c.TrialCount < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTrials, c.TrialCount)
	}
	return nil
}

// LegsToWin converts a best-of leg count into the number of legs needed to
// win the match.
func LegsToWin(bestOf int) (int, error) {
	if bestOf < 3 || bestOf%2 == 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidBestOf, bestOf)
	}
	return bestOf/2 + 1, nil
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
