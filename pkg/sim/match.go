package sim

import (
	"context"
	"fmt"
)

// MatchOutcome is the record of a finished match.
type MatchOutcome struct {
	Winner    PlayerID         `json:"winner"`
	Scoreline string           `json:"scoreline"`
	LegsWon   map[PlayerID]int `json:"legs_won"`
	Legs      []LegOutcome     `json:"legs"`
}

// Total180s sums a player's 180s across every leg of the match.
func (o *MatchOutcome) Total180s(id PlayerID) int {
	total := 0
	for _, leg := range o.Legs {
		total += leg.Max180s[id]
	}
	return total
}

// Match plays best-of-legs matches between two profiles. A Match holds no
// per-match state; every call to Play or PlayLive starts from 0:0.
type Match struct {
	players   [2]*Profile
	thrower   Thrower
	cal       Calibration
	legsToWin int
}

// NewMatch checks the pairing and the best-of setting. p1 throws first in
// the opening leg. A cal.MaxCheckout below a profile's own ceiling lowers
// that player's ceiling for this match.
func NewMatch(p1, p2 *Profile, thrower Thrower, cal Calibration) (*Match, error) {
	if p1 == nil || p2 == nil {
		return nil, ErrNoPlayers
	}
	if p1.id == p2.id {
		return nil, fmt.Errorf("%w: both seats hold player %d", ErrSamePlayer, p1.id)
	}
	legsToWin, err := LegsToWin(cal.BestOf)
	if err != nil {
		return nil, err
	}
	if cal.MaxCheckout > 0 {
		p1, p2 = capCheckout(p1, cal.MaxCheckout), capCheckout(p2, cal.MaxCheckout)
	}
	return &Match{
		players:   [2]*Profile{p1, p2},
		thrower:   thrower,
		cal:       cal,
		legsToWin: legsToWin,
	}, nil
}

func capCheckout(p *Profile, maxCheckout int) *Profile {
	if maxCheckout >= p.maxCheckout {
		return p
	}
	return p.WithMaxCheckout(maxCheckout)
}

func (m *Match) LegsToWin() int { return m.legsToWin }
func (m *Match) Player(s Seat) *Profile { return m.players[s] }

// Play runs the match to completion without exposing intermediate events.
func (m *Match) Play(ctx context.Context) (*MatchOutcome, error) {
	st := m.newState()
	for !st.finished() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		leg := st.startLeg()
		if _, err := leg.Run(); err != nil {
			return nil, err
		}
		st.finishLeg()
	}
	return st.outcome(), nil
}

// matchState is the bookkeeping shared by batch and live play.
type matchState struct {
	m       *Match
	legsWon [2]int
	starter Seat
	legs    []LegOutcome
	leg     *Leg
}

func (m *Match) newState() *matchState {
	return &matchState{m: m, starter: Seat1}
}

func (st *matchState) finished() bool {
	return st.legsWon[Seat1] >= st.m.legsToWin || st.legsWon[Seat2] >= st.m.legsToWin
}

func (st *matchState) startLeg() *Leg {
	st.leg = NewLeg(len(st.legs)+1, st.m.players, st.starter, st.m.thrower, st.m.cal.MaxVisitsPerLeg)
	return st.leg
}

// finishLeg books the current leg and rotates the starter regardless of who
// won it.
func (st *matchState) finishLeg() LegOutcome {
	winner, _ := st.leg.Winner()
	st.legsWon[winner]++
	out := st.leg.Outcome()
	st.legs = append(st.legs, out)
	st.starter = st.starter.Other()
	st.leg = nil
	return out
}

func (st *matchState) winner() Seat {
	if st.legsWon[Seat2] > st.legsWon[Seat1] {
		return Seat2
	}
	return Seat1
}

func (st *matchState) scoreline() string {
	return fmt.Sprintf("%d:%d", st.legsWon[Seat1], st.legsWon[Seat2])
}

func (st *matchState) outcome() *MatchOutcome {
	p1, p2 := st.m.players[Seat1].id, st.m.players[Seat2].id
	return &MatchOutcome{
		Winner:    st.m.players[st.winner()].id,
		Scoreline: st.scoreline(),
		LegsWon:   map[PlayerID]int{p1: st.legsWon[Seat1], p2: st.legsWon[Seat2]},
		Legs:      st.legs,
	}
}
