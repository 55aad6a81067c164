package sim

import (
	"math"
	"math/rand/v2"
)

// Thrower produces visit scores and resolves checkout attempts for a player.
// ThrowModel is the statistical implementation; tests substitute scripted
// throwers.
type Thrower interface {
	// SampleVisit returns the score of one three-dart visit, in [0,180].
	SampleVisit(p *Profile, remaining int) int

	// AttemptCheckout reports whether an exact hit of remaining is converted
	// into a finish.
	AttemptCheckout(p *Profile, remaining int) bool
}

// ThrowModel samples visits from a profile's statistics. It owns its random
// stream and must not be shared between goroutines.
type ThrowModel struct {
	rng *rand.Rand
	cal Calibration
}

// NewThrowModel returns a model drawing from rng.
func NewThrowModel(rng *rand.Rand, cal Calibration) *ThrowModel {
	return &ThrowModel{rng: rng, cal: cal}
}

// NewSeededThrowModel returns a model with its own PCG stream. The same
// (seed, stream) pair always yields the same sequence of visits.
func NewSeededThrowModel(seed, stream uint64, cal Calibration) *ThrowModel {
	return NewThrowModel(rand.New(rand.NewPCG(seed, stream)), cal)
}

// SampleVisit implements Thrower.
func (m *ThrowModel) SampleVisit(p *Profile, remaining int) int {
	if m.canCheckout(p, remaining) && m.bernoulli(m.cal.CheckoutFocusRate) {
		if m.bernoulli(FinishProbability(p)) {
			return remaining
		}
		return m.normalVisit(math.Max(m.cal.MissMeanFloor, p.average*m.cal.MissMeanFactor))
	}

	if m.bernoulli(p.p180) {
		return MaxVisit
	}
	return m.normalVisit(p.average)
}

// AttemptCheckout implements Thrower.
func (m *ThrowModel) AttemptCheckout(p *Profile, remaining int) bool {
	if !m.canCheckout(p, remaining) {
		return false
	}
	return m.bernoulli(CheckoutProbability(p))
}

// canCheckout applies the tighter of the profile and calibration ceilings.
func (m *ThrowModel) canCheckout(p *Profile, remaining int) bool {
	if m.cal.MaxCheckout > 0 && remaining > m.cal.MaxCheckout {
		return false
	}
	return p.CanCheckout(remaining)
}

// normalVisit draws N(mean, noise), rounds half to even and clamps to a
// legal visit.
func (m *ThrowModel) normalVisit(mean float64) int {
	score := math.RoundToEven(mean + m.rng.NormFloat64()*m.cal.ThrowNoiseStdDev)
	return int(Clamp(score, 0, MaxVisit))
}

func (m *ThrowModel) bernoulli(prob float64) bool {
	return m.rng.Float64() < Clamp(prob, 0, 1)
}

// FinishProbability is the chance that a visit aimed at the finish hits the
// remaining score exactly.
func FinishProbability(p *Profile) float64 {
	return Clamp(p.checkoutPct/100*p.formModifier(), 0.02, 0.95)
}

// CheckoutProbability is the chance that an exact hit is converted.
func CheckoutProbability(p *Profile) float64 {
	return Clamp(p.checkoutPct/100*p.formModifier(), 0.01, 0.95)
}
