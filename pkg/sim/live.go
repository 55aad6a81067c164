package sim

import (
	"context"
	"iter"
	"time"
)

// EventKind names a live event.
type EventKind string

const (
	EventMatchStart        EventKind = "match_start"
	EventLegStart          EventKind = "leg_start"
	EventVisitScored       EventKind = "visit_scored"
	EventBust              EventKind = "bust"
	EventCheckoutSuccess   EventKind = "checkout_success"
	EventCheckoutFailed    EventKind = "checkout_failed"
	EventMaxScoreAnnounced EventKind = "max_score"
	EventLegWon            EventKind = "leg_won"
	EventMatchWon          EventKind = "match_won"
)

// Event is one record of a live match. Only the fields relevant to Kind are
// set; Score always holds the legs won by each seat at emission time.
type Event struct {
	Kind      EventKind `json:"kind"`
	Leg       int       `json:"leg,omitempty"`
	Seat      Seat      `json:"seat"`
	Player    PlayerID  `json:"player_id"`
	Visit     int       `json:"visit"`
	Before    int       `json:"before"`
	After     int       `json:"after"`
	Score     [2]int    `json:"score"`
	LegsToWin int       `json:"legs_to_win,omitempty"`
	Scoreline string    `json:"scoreline,omitempty"`
}

var visitKinds = map[VisitResult]EventKind{
	ResultScored:         EventVisitScored,
	ResultBust:           EventBust,
	ResultCheckout:       EventCheckoutSuccess,
	ResultCheckoutFailed: EventCheckoutFailed,
}

// EventStream is a finite, single-pass sequence of live match events. It is
// exhausted exactly when the match is decided and cannot be restarted.
// Dropping a stream part way through has no side effects.
type EventStream struct {
	st      *matchState
	delay   time.Duration
	queue   []Event
	started bool
	done    bool
	err     error
}

// PlayLive starts a live match. delay is slept before every visit except the
// first of each leg; it never changes the outcome.
func (m *Match) PlayLive(delay time.Duration) *EventStream {
	return &EventStream{st: m.newState(), delay: delay}
}

// Next returns the next event, advancing the match as needed. It returns
// false once the match is over, or when ctx ends or the leg visit limit is
// hit, in which case Err reports why.
func (s *EventStream) Next(ctx context.Context) (Event, bool) {
	for len(s.queue) == 0 {
		if s.done || s.err != nil {
			return Event{}, false
		}
		if err := s.advance(ctx); err != nil {
			s.err = err
			return Event{}, false
		}
	}
	ev := s.queue[0]
	s.queue = s.queue[1:]
	return ev, true
}

// Err reports the error that stopped the stream early, if any.
func (s *EventStream) Err() error { return s.err }

// Outcome returns the match result once the stream is exhausted.
func (s *EventStream) Outcome() (*MatchOutcome, bool) {
	if !s.done {
		return nil, false
	}
	return s.st.outcome(), true
}

// All adapts the stream to a range-over-func sequence.
func (s *EventStream) All(ctx context.Context) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for {
			ev, ok := s.Next(ctx)
			if !ok || !yield(ev) {
				return
			}
		}
	}
}

func (s *EventStream) advance(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	st := s.st

	if !s.started {
		s.started = true
		s.emit(Event{Kind: EventMatchStart, LegsToWin: st.m.legsToWin})
		return nil
	}

	if st.leg == nil {
		if st.finished() {
			s.done = true
			w := st.winner()
			s.emit(Event{Kind: EventMatchWon, Seat: w, Player: st.m.players[w].id, Scoreline: st.scoreline()})
			return nil
		}
		leg := st.startLeg()
		s.emit(Event{Kind: EventLegStart, Leg: leg.number, Seat: leg.starter, Player: st.m.players[leg.starter].id})
		return nil
	}

	leg := st.leg
	if len(leg.events) > 0 {
		if err := sleep(ctx, s.delay); err != nil {
			return err
		}
	}
	rec, err := leg.Step()
	if err != nil {
		return err
	}
	if rec.Visit == MaxVisit {
		s.emit(Event{Kind: EventMaxScoreAnnounced, Leg: leg.number, Seat: rec.Seat, Player: rec.Player, Visit: rec.Visit})
	}
	s.emit(Event{
		Kind:   visitKinds[rec.Result],
		Leg:    leg.number,
		Seat:   rec.Seat,
		Player: rec.Player,
		Visit:  rec.Visit,
		Before: rec.Before,
		After:  rec.After,
	})
	if leg.done {
		out := st.finishLeg()
		s.emit(Event{Kind: EventLegWon, Leg: out.Number, Seat: rec.Seat, Player: out.Winner})
	}
	return nil
}

// emit queues ev stamped with the current leg score.
func (s *EventStream) emit(ev Event) {
	ev.Score = s.st.legsWon
	s.queue = append(s.queue, ev)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
