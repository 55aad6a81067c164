package sim

import (
	"fmt"
	"math"
)

// PlayerID identifies a player independently of the display name.
type PlayerID int64

// ProfileInput is the raw statistical description of a player as supplied
// by the ingestion side.
type ProfileInput struct {
	ID          PlayerID
	Name        string
	Average     float64
	CheckoutPct float64
	Form        float64

	// MaxCheckout defaults to 170 when zero.
	MaxCheckout int

	// Rate180 is a historical per-leg 180 rate. Zero means unknown.
	Rate180 float64
}

// Profile is an immutable statistical description of a player. Build it with
// NewProfile; the zero value is not usable.
type Profile struct {
	id          PlayerID
	name        string
	average     float64
	checkoutPct float64
	form        float64
	maxCheckout int
	p180        float64
}

// NewProfile validates the input and derives the per-visit 180 probability.
func NewProfile(in ProfileInput) (*Profile, error) {
	if !finite(in.Average) || in.Average < 0 {
		return nil, fmt.Errorf("%w: %q average %v", ErrInvalidProfile, in.Name, in.Average)
	}
	if !finite(in.CheckoutPct) || in.CheckoutPct < 0 || in.CheckoutPct > 100 {
		return nil, fmt.Errorf("%w: %q checkout percentage %v", ErrInvalidProfile, in.Name, in.CheckoutPct)
	}
	if !finite(in.Form) || in.Form < 0 || in.Form > 10 {
		return nil, fmt.Errorf("%w: %q form %v", ErrInvalidProfile, in.Name, in.Form)
	}
	if !finite(in.Rate180) || in.Rate180 < 0 {
		return nil, fmt.Errorf("%w: %q 180 rate %v", ErrInvalidProfile, in.Name, in.Rate180)
	}

	maxCheckout := in.MaxCheckout
	if maxCheckout == 0 {
		maxCheckout = 170
	}
	if maxCheckout < 2 || maxCheckout > StartingScore {
		return nil, fmt.Errorf("%w: %q max checkout %d", ErrInvalidProfile, in.Name, maxCheckout)
	}

	p180 := in.Rate180
	if p180 == 0 {
		p180 = EstimateP180(in.Average)
	}

	return &Profile{
		id:          in.ID,
		name:        in.Name,
		average:     in.Average,
		checkoutPct: in.CheckoutPct,
		form:        in.Form,
		maxCheckout: maxCheckout,
		p180:        p180,
	}, nil
}

// EstimateP180 guesses the per-visit 180 probability from the three-dart
// average alone: about 0.05 at 85 and 0.19 at 100.
func EstimateP180(average float64) float64 {
	return Clamp(0.03+math.Max(0, average-80)*0.008, 0.005, 0.30)
}

func (p *Profile) ID() PlayerID { return p.id }
func (p *Profile) Name() string { return p.name }
func (p *Profile) Average() float64 { return p.average }
func (p *Profile) CheckoutPct() float64 { return p.checkoutPct }
func (p *Profile) Form() float64 { return p.form }
func (p *Profile) MaxCheckout() int { return p.maxCheckout }
func (p *Profile) P180() float64 { return p.p180 }

// WithMaxCheckout returns a copy of the profile with a different checkout
// ceiling.
func (p *Profile) WithMaxCheckout(maxCheckout int) *Profile {
	cp := *p
	cp.maxCheckout = maxCheckout
	return &cp
}

// CanCheckout reports whether remaining is a legal finishing score.
func (p *Profile) CanCheckout(remaining int) bool {
	return remaining > 1 && remaining <= p.maxCheckout
}

// formModifier scales checkout chances by form: +-20% across the 0-10 range.
func (p *Profile) formModifier() float64 {
	return 1 + (p.form-5)/25
}

func (p *Profile) String() string {
	return fmt.Sprintf("%s (#%d, avg %.2f, co %.1f%%, form %.1f)", p.name, p.id, p.average, p.checkoutPct, p.form)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
