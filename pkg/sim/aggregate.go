package sim

import "sort"

// Aggregate accumulates Monte Carlo trial outcomes. Merge is associative and
// commutative, so partial aggregates built over any partition of the trials
// combine into the same result regardless of order.
type Aggregate struct {
	Trials     int
	Wins       map[PlayerID]int
	Max180s    map[PlayerID]int
	Legs       int
	Scorelines map[string]ScorelineTally
}

// ScorelineTally counts one scoreline and remembers the lowest trial index
// that produced it, which orders ties.
type ScorelineTally struct {
	Count      int
	FirstTrial int
}

// NewAggregate returns an empty aggregate.
func NewAggregate() *Aggregate {
	return &Aggregate{
		Wins:       make(map[PlayerID]int),
		Max180s:    make(map[PlayerID]int),
		Scorelines: make(map[string]ScorelineTally),
	}
}

// Add folds the outcome of trial number trial into the aggregate.
func (a *Aggregate) Add(trial int, o *MatchOutcome) {
	a.Trials++
	a.Wins[o.Winner]++
	for id := range o.LegsWon {
		a.Max180s[id] += o.Total180s(id)
	}
	a.Legs += len(o.Legs)
	a.addScoreline(o.Scoreline, ScorelineTally{Count: 1, FirstTrial: trial})
}

// Merge folds b into a. b is left untouched.
func (a *Aggregate) Merge(b *Aggregate) {
	a.Trials += b.Trials
	for id, n := range b.Wins {
		a.Wins[id] += n
	}
	for id, n := range b.Max180s {
		a.Max180s[id] += n
	}
	a.Legs += b.Legs
	for line, t := range b.Scorelines {
		a.addScoreline(line, t)
	}
}

func (a *Aggregate) addScoreline(line string, t ScorelineTally) {
	cur, ok := a.Scorelines[line]
	if !ok {
		a.Scorelines[line] = t
		return
	}
	cur.Count += t.Count
	if t.FirstTrial < cur.FirstTrial {
		cur.FirstTrial = t.FirstTrial
	}
	a.Scorelines[line] = cur
}

// PlayerSummary is one player's share of a Monte Carlo run.
type PlayerSummary struct {
	ID             PlayerID `json:"id"`
	Name           string   `json:"name"`
	Wins           int      `json:"wins"`
	WinProbability float64  `json:"win_probability"`
	Mean180s       float64  `json:"mean_180s"`
}

// ScorelineCount is one row of the scoreline frequency table.
type ScorelineCount struct {
	Scoreline   string  `json:"scoreline"`
	Count       int     `json:"count"`
	Probability float64 `json:"probability"`
}

// Summary is the reduced result of a Monte Carlo run.
type Summary struct {
	Trials     int              `json:"trials"`
	Seed       uint64           `json:"seed"`
	Players    [2]PlayerSummary `json:"players"`
	MeanLegs   float64          `json:"mean_legs"`
	Scorelines []ScorelineCount `json:"scorelines"`
}

// Summarize turns the aggregate into probabilities and a ranked scoreline
// table: most frequent first, ties in order of first occurrence.
func (a *Aggregate) Summarize(p1, p2 *Profile) *Summary {
	s := &Summary{Trials: a.Trials}
	for i, p := range [2]*Profile{p1, p2} {
		s.Players[i] = PlayerSummary{
			ID:             p.id,
			Name:           p.name,
			Wins:           a.Wins[p.id],
			WinProbability: ratio(a.Wins[p.id], a.Trials),
			Mean180s:       ratio(a.Max180s[p.id], a.Trials),
		}
	}
	s.MeanLegs = ratio(a.Legs, a.Trials)

	lines := make([]string, 0, len(a.Scorelines))
	for line := range a.Scorelines {
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool {
		ti, tj := a.Scorelines[lines[i]], a.Scorelines[lines[j]]
		if ti.Count != tj.Count {
			return ti.Count > tj.Count
		}
		return ti.FirstTrial < tj.FirstTrial
	})
	for _, line := range lines {
		n := a.Scorelines[line].Count
		s.Scorelines = append(s.Scorelines, ScorelineCount{Scoreline: line, Count: n, Probability: ratio(n, a.Trials)})
	}
	return s
}

// Top returns at most n of the most frequent scorelines.
func (s *Summary) Top(n int) []ScorelineCount {
	if n >= len(s.Scorelines) {
		return s.Scorelines
	}
	return s.Scorelines[:n]
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
