package sim

import (
	"errors"
	"fmt"
)

// Seat is a player's position in a match: Seat1 throws first in leg one.
type Seat int

const (
	Seat1 Seat = iota
	Seat2
)

// Other returns the opposing seat.
func (s Seat) Other() Seat { return 1 - s }

func (s Seat) String() string {
	return fmt.Sprintf("P%d", int(s)+1)
}

// VisitResult classifies how a visit was resolved.
type VisitResult int

const (
	ResultScored VisitResult = iota
	ResultBust
	ResultCheckout
	ResultCheckoutFailed
)

func (r VisitResult) String() string {
	switch r {
	case ResultScored:
		return "scored"
	case ResultBust:
		return "bust"
	case ResultCheckout:
		return "checkout"
	case ResultCheckoutFailed:
		return "checkout_failed"
	default:
		return fmt.Sprintf("VisitResult(%d)", int(r))
	}
}

// MarshalText renders the result by name in JSON payloads.
func (r VisitResult) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText parses a result name written by MarshalText.
func (r *VisitResult) UnmarshalText(b []byte) error {
	for v := ResultScored; v <= ResultCheckoutFailed; v++ {
		if v.String() == string(b) {
			*r = v
			return nil
		}
	}
	return fmt.Errorf("unknown visit result %q", b)
}

// VisitRecord is one entry of a leg's event log.
type VisitRecord struct {
	Seat   Seat        `json:"seat"`
	Player PlayerID    `json:"player_id"`
	Visit  int         `json:"visit"`
	Before int         `json:"before"`
	After  int         `json:"after"`
	Result VisitResult `json:"result"`
}

// LegOutcome is the record of a finished leg.
type LegOutcome struct {
	Number  int              `json:"number"`
	Starter PlayerID         `json:"starter"`
	Winner  PlayerID         `json:"winner"`
	Events  []VisitRecord    `json:"events"`
	Max180s map[PlayerID]int `json:"max_180s"`
}

// ErrLegFinished is returned when a visit is thrown into a decided leg.
var ErrLegFinished = errors.New("leg already finished")

// Leg drives a single leg from 501 down to a checkout. It is not safe for
// concurrent use.
type Leg struct {
	number    int
	players   [2]*Profile
	thrower   Thrower
	maxVisits int

	starter   Seat
	current   Seat
	remaining [2]int
	count180  [2]int
	events    []VisitRecord

	done   bool
	winner Seat
}

// NewLeg prepares leg number n with starter to throw first. maxVisits of
// zero leaves the leg unbounded.
func NewLeg(n int, players [2]*Profile, starter Seat, thrower Thrower, maxVisits int) *Leg {
	return &Leg{
		number:    n,
		players:   players,
		thrower:   thrower,
		maxVisits: maxVisits,
		starter:   starter,
		current:   starter,
		remaining: [2]int{StartingScore, StartingScore},
	}
}

func (l *Leg) Number() int { return l.number }
func (l *Leg) Current() Seat { return l.current }
func (l *Leg) Remaining(s Seat) int { return l.remaining[s] }
func (l *Leg) Done() bool { return l.done }
func (l *Leg) Count180(s Seat) int { return l.count180[s] }
func (l *Leg) Events() []VisitRecord { return l.events }

// Winner returns the winning seat once the leg is done.
func (l *Leg) Winner() (Seat, bool) {
	return l.winner, l.done
}

// Step samples a visit for the player to throw and applies it.
func (l *Leg) Step() (VisitRecord, error) {
	if l.done {
		return VisitRecord{}, ErrLegFinished
	}
	if l.maxVisits > 0 && len(l.events) >= l.maxVisits {
		return VisitRecord{}, fmt.Errorf("%w: leg %d after %d visits", ErrVisitLimit, l.number, len(l.events))
	}
	p := l.players[l.current]
	return l.apply(l.thrower.SampleVisit(p, l.remaining[l.current])), nil
}

// apply resolves visit v for the current thrower and passes the turn unless
// the visit won the leg.
func (l *Leg) apply(v int) VisitRecord {
	if v < 0 {
		v = 0
	} else if v > MaxVisit {
		v = MaxVisit
	}

	seat := l.current
	p := l.players[seat]
	before := l.remaining[seat]
	rec := VisitRecord{Seat: seat, Player: p.id, Visit: v, Before: before, After: before}

	if v == MaxVisit {
		l.count180[seat]++
	}

	switch {
	case before == 1 || v > before || before-v == 1:
		rec.Result = ResultBust
	case v == before:
		if l.thrower.AttemptCheckout(p, before) {
			l.remaining[seat] = 0
			rec.After = 0
			rec.Result = ResultCheckout
			l.done = true
			l.winner = seat
		} else {
			rec.Result = ResultCheckoutFailed
		}
	default:
		l.remaining[seat] = before - v
		rec.After = l.remaining[seat]
		rec.Result = ResultScored
	}

	l.events = append(l.events, rec)
	if !l.done {
		l.current = seat.Other()
	}
	return rec
}

// Run throws visits until the leg is decided.
func (l *Leg) Run() (LegOutcome, error) {
	for !l.done {
		if _, err := l.Step(); err != nil {
			return LegOutcome{}, err
		}
	}
	return l.Outcome(), nil
}

// Outcome summarises a finished leg.
func (l *Leg) Outcome() LegOutcome {
	out := LegOutcome{
		Number:  l.number,
		Starter: l.players[l.starter].id,
		Events:  l.events,
		Max180s: map[PlayerID]int{
			l.players[Seat1].id: l.count180[Seat1],
			l.players[Seat2].id: l.count180[Seat2],
		},
	}
	if l.done {
		out.Winner = l.players[l.winner].id
	}
	return out
}
