// Package utils provides presentation helpers for darthub: event lines,
// terminal tables and CSV files
package utils

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/maxncode/darthub/pkg/models"
	"github.com/maxncode/darthub/pkg/sim"
)

// FormatEvent renders a live event as a single line. names holds the
// display names of the two seats.
func FormatEvent(ev sim.Event, names [2]string) string {
	who := names[ev.Seat]
	score := fmt.Sprintf("%d:%d", ev.Score[0], ev.Score[1])

	switch ev.Kind {
	case sim.EventMatchStart:
		return fmt.Sprintf("Match on: %s vs %s, first to %d legs", names[0], names[1], ev.LegsToWin)
	case sim.EventLegStart:
		return fmt.Sprintf("Leg %d (%s), %s to throw first", ev.Leg, score, who)
	case sim.EventVisitScored:
		return fmt.Sprintf("  %s scores %d, %d left", who, ev.Visit, ev.After)
	case sim.EventBust:
		return fmt.Sprintf("  %s busts with %d, stays on %d", who, ev.Visit, ev.After)
	case sim.EventCheckoutSuccess:
		return fmt.Sprintf("  %s checks out %d!", who, ev.Before)
	case sim.EventCheckoutFailed:
		return fmt.Sprintf("  %s misses the finish on %d", who, ev.Before)
	case sim.EventMaxScoreAnnounced:
		return fmt.Sprintf("  ONE HUNDRED AND EIGHTY! %s", who)
	case sim.EventLegWon:
		return fmt.Sprintf("Leg %d to %s (%s)", ev.Leg, who, score)
	case sim.EventMatchWon:
		return fmt.Sprintf("%s wins the match %s", who, ev.Scoreline)
	default:
		return fmt.Sprintf("%s: %s", ev.Kind, who)
	}
}

// SeatNames returns the display names of a match's seats.
func SeatNames(m *sim.Match) [2]string {
	return [2]string{m.Player(sim.Seat1).Name(), m.Player(sim.Seat2).Name()}
}

// DisplayStats prints a player statistics table, best form first. limit <= 0
// prints every row.
func DisplayStats(w io.Writer, stats []models.PlayerStat, limit int) {
	rows := make([]models.PlayerStat, len(stats))
	copy(rows, stats)
	sort.SliceStable(rows, func(i, j int) bool {
		return lessMissingLast(rows[j].Form, rows[i].Form)
	})
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}

	fmt.Fprintf(w, "\n=========== PLAYER STATISTICS (%d players) ===========\n", len(stats))
	fmt.Fprintf(w, "%-8s | %-26s | %-7s | %-6s | %-6s | %-6s | %-5s | %-5s\n",
		"Id", "Player", "Country", "Avg", "CO %", "Legs %", "180s", "Form")
	fmt.Fprintf(w, "%-8s | %-26s | %-7s | %-6s | %-6s | %-6s | %-5s | %-5s\n",
		strings.Repeat("-", 8), strings.Repeat("-", 26), strings.Repeat("-", 7),
		strings.Repeat("-", 6), strings.Repeat("-", 6), strings.Repeat("-", 6),
		strings.Repeat("-", 5), strings.Repeat("-", 5))

	for _, p := range rows {
		fmt.Fprintf(w, "%-8d | %-26s | %-7s | %6s | %6s | %6s | %5s | %5s\n",
			p.ID, truncate(p.Name, 26), p.Country, fmtNum(p.Average, 2), fmtNum(p.CheckoutPct, 1),
			fmtNum(p.LegsWonPct, 1), fmtNum(p.Total180s, 0), fmtNum(p.Form, 2))
	}

	fmt.Fprintln(w, strings.Repeat("=", 90))
}

// DisplaySummary prints Monte Carlo win probabilities and the top scorelines.
func DisplaySummary(w io.Writer, sum *sim.Summary, top int) {
	fmt.Fprintf(w, "\n=========== MONTE CARLO (%d trials, seed %d) ===========\n", sum.Trials, sum.Seed)
	for _, p := range sum.Players {
		fmt.Fprintf(w, "%-26s  win %6.2f%%  (%d)  avg 180s %.2f\n",
			truncate(p.Name, 26), p.WinProbability*100, p.Wins, p.Mean180s)
	}
	fmt.Fprintf(w, "Average legs per match: %.2f\n", sum.MeanLegs)

	fmt.Fprintf(w, "\n%-9s | %-6s | %-7s\n", "Scoreline", "Count", "Share")
	fmt.Fprintf(w, "%-9s | %-6s | %-7s\n", strings.Repeat("-", 9), strings.Repeat("-", 6), strings.Repeat("-", 7))
	for _, line := range sum.Top(top) {
		fmt.Fprintf(w, "%-9s | %6d | %6.2f%%\n", line.Scoreline, line.Count, line.Probability*100)
	}
	fmt.Fprintln(w, strings.Repeat("=", 56))
}

// DisplayMatchOutcome prints a per-leg recap of a finished match.
func DisplayMatchOutcome(w io.Writer, out *sim.MatchOutcome, p1, p2 *sim.Profile) {
	name := map[sim.PlayerID]string{p1.ID(): p1.Name(), p2.ID(): p2.Name()}

	fmt.Fprintf(w, "\n=========== %s vs %s ===========\n", p1.Name(), p2.Name())
	fmt.Fprintf(w, "%-4s | %-26s | %-26s | %-6s\n", "Leg", "Started", "Won", "Visits")
	fmt.Fprintf(w, "%-4s | %-26s | %-26s | %-6s\n",
		strings.Repeat("-", 4), strings.Repeat("-", 26), strings.Repeat("-", 26), strings.Repeat("-", 6))
	for _, leg := range out.Legs {
		fmt.Fprintf(w, "%4d | %-26s | %-26s | %6d\n",
			leg.Number, truncate(name[leg.Starter], 26), truncate(name[leg.Winner], 26), len(leg.Events))
	}
	fmt.Fprintf(w, "\nWinner: %s (%s)\n", name[out.Winner], out.Scoreline)
	fmt.Fprintf(w, "180s: %s %d, %s %d\n", p1.Name(), out.Total180s(p1.ID()), p2.Name(), out.Total180s(p2.ID()))
}

// fmtNum formats a possibly missing value
func fmtNum(v float64, prec int) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.*f", prec, v)
}

// lessMissingLast reports a < b with missing values lowest, so they end up
// last in a descending table
func lessMissingLast(a, b float64) bool {
	if math.IsNaN(a) {
		return !math.IsNaN(b)
	}
	if math.IsNaN(b) {
		return false
	}
	return a < b
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "."
}
