// Package roster turns scraped player statistics into simulation profiles
// and looks players up by id or name.
package roster

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/maxncode/darthub/pkg/models"
	"github.com/maxncode/darthub/pkg/sim"
)

// ErrPlayerNotFound is returned when no player matches a lookup.
var ErrPlayerNotFound = errors.New("player not found")

// ErrAmbiguousPlayer is returned when a name query matches several players.
var ErrAmbiguousPlayer = errors.New("player name is ambiguous")

// DefaultLegsPerMatch is the assumed match length used to turn a career 180
// count into a per-leg rate.
const DefaultLegsPerMatch = 8.0

// Clamp bounds for the history based 180 rate
const (
	minRate180 = 0.002
	maxRate180 = 0.5
)

// Entry pairs a scraped stat row with the profile built from it.
type Entry struct {
	Stat    models.PlayerStat
	Profile *sim.Profile
}

// Roster is an immutable set of players keyed by id.
type Roster struct {
	entries map[sim.PlayerID]Entry
	order   []sim.PlayerID
}

// Options control how profiles are derived from statistics.
type Options struct {
	MaxCheckout  int
	LegsPerMatch float64
}

// Build creates a roster from stat rows. Rows that cannot form a valid
// profile are skipped and reported in the returned error slice.
func Build(stats []models.PlayerStat, opts Options) (*Roster, []error) {
	r := &Roster{entries: make(map[sim.PlayerID]Entry, len(stats))}
	var errs []error

	for _, stat := range stats {
		id := sim.PlayerID(stat.ID)
		if _, dup := r.entries[id]; dup {
			errs = append(errs, fmt.Errorf("duplicate player id %d (%s)", stat.ID, stat.Name))
			continue
		}
		p, err := ProfileFromStat(stat, opts)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		r.entries[id] = Entry{Stat: stat, Profile: p}
		r.order = append(r.order, id)
	}

	sort.SliceStable(r.order, func(i, j int) bool {
		return r.entries[r.order[i]].Stat.Name < r.entries[r.order[j]].Stat.Name
	})

	if len(errs) > 0 {
		log.WithField("skipped", len(errs)).Warn("some players could not be loaded")
	}
	return r, errs
}

// ProfileFromStat validates a stat row and derives its profile.
func ProfileFromStat(stat models.PlayerStat, opts Options) (*sim.Profile, error) {
	if stat.ID <= 0 {
		return nil, fmt.Errorf("%w: %q has no player id", sim.ErrInvalidProfile, stat.Name)
	}
	return sim.NewProfile(sim.ProfileInput{
		ID:          sim.PlayerID(stat.ID),
		Name:        stat.Name,
		Average:     stat.Average,
		CheckoutPct: stat.CheckoutPct,
		Form:        stat.Form,
		MaxCheckout: opts.MaxCheckout,
		Rate180:     EstimateP180(stat, opts.LegsPerMatch),
	})
}

// EstimateP180 derives a per-leg 180 rate from the career 180 count and
// match count. When either is unknown it falls back to the estimate from
// the average. A zero result means no estimate could be made.
func EstimateP180(stat models.PlayerStat, legsPerMatch float64) float64 {
	if legsPerMatch <= 0 {
		legsPerMatch = DefaultLegsPerMatch
	}
	if models.Has(stat.Total180s) && models.Has(stat.MatchesPlayed) &&
		stat.Total180s > 0 && stat.MatchesPlayed > 0 {
		perLeg := stat.Total180s / (stat.MatchesPlayed * legsPerMatch)
		return sim.Clamp(perLeg, minRate180, maxRate180)
	}
	if models.Has(stat.Average) && !math.IsInf(stat.Average, 0) {
		return sim.EstimateP180(stat.Average)
	}
	return 0
}

// Len returns the number of players.
func (r *Roster) Len() int { return len(r.order) }

// Entries returns all players sorted by name.
func (r *Roster) Entries() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id])
	}
	return out
}

// Get returns the player with the given id.
func (r *Roster) Get(id sim.PlayerID) (Entry, error) {
	e, ok := r.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: id %d", ErrPlayerNotFound, id)
	}
	return e, nil
}

// Search returns players whose name contains the query, ignoring case.
func (r *Roster) Search(query string) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Entry
	for _, id := range r.order {
		e := r.entries[id]
		if q == "" || strings.Contains(strings.ToLower(e.Stat.Name), q) {
			out = append(out, e)
		}
	}
	return out
}

// Resolve finds one player from a numeric id or a name. An exact name match
// wins over partial matches.
func (r *Roster) Resolve(ref string) (Entry, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return r.Get(sim.PlayerID(id))
	}

	matches := r.Search(ref)
	for _, e := range matches {
		if strings.EqualFold(e.Stat.Name, ref) {
			return e, nil
		}
	}
	switch len(matches) {
	case 0:
		return Entry{}, fmt.Errorf("%w: %q", ErrPlayerNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return Entry{}, fmt.Errorf("%w: %q matches %d players", ErrAmbiguousPlayer, ref, len(matches))
	}
}

// Pair resolves two player references for a match.
func (r *Roster) Pair(ref1, ref2 string) (*sim.Profile, *sim.Profile, error) {
	e1, err := r.Resolve(ref1)
	if err != nil {
		return nil, nil, err
	}
	e2, err := r.Resolve(ref2)
	if err != nil {
		return nil, nil, err
	}
	if e1.Profile.ID() == e2.Profile.ID() {
		return nil, nil, fmt.Errorf("%w: %s", sim.ErrSamePlayer, e1.Stat.Name)
	}
	return e1.Profile, e2.Profile, nil
}
