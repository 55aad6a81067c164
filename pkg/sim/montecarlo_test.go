package sim

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestMonteCarloStrongerPlayerFavoured(t *testing.T) {
	a, b := testPlayers(t)
	cal := DefaultCalibration()
	cal.BestOf = 5
	cal.TrialCount = 5000

	sum, err := RunMonteCarlo(context.Background(), MonteCarloRequest{P1: a, P2: b, Cal: cal, Seed: 2024})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Trials != 5000 {
		t.Fatalf("trials = %d, want 5000", sum.Trials)
	}
	if sum.Players[0].WinProbability <= 0.5 {
		t.Errorf("stronger player win probability = %.3f, want > 0.5", sum.Players[0].WinProbability)
	}
	if sum.Players[0].Wins+sum.Players[1].Wins != sum.Trials {
		t.Errorf("wins %d + %d != %d trials", sum.Players[0].Wins, sum.Players[1].Wins, sum.Trials)
	}
	if sum.MeanLegs < 3 || sum.MeanLegs > 5 {
		t.Errorf("mean legs = %.2f, want within [3,5]", sum.MeanLegs)
	}
	if sum.Players[0].Mean180s <= sum.Players[1].Mean180s {
		t.Errorf("mean 180s %.2f vs %.2f, want the higher average ahead", sum.Players[0].Mean180s, sum.Players[1].Mean180s)
	}

	total := 0
	for i, line := range sum.Scorelines {
		total += line.Count
		if i > 0 && line.Count > sum.Scorelines[i-1].Count {
			t.Errorf("scorelines not ranked: %v", sum.Scorelines)
		}
	}
	if total != sum.Trials || len(sum.Scorelines) > 6 {
		t.Errorf("scoreline table %v does not cover %d trials", sum.Scorelines, sum.Trials)
	}
}

func TestMonteCarloIndependentOfWorkers(t *testing.T) {
	a, b := testPlayers(t)
	cal := DefaultCalibration()
	cal.TrialCount = 300

	run := func(workers int) *Summary {
		c := cal
		c.Workers = workers
		sum, err := RunMonteCarlo(context.Background(), MonteCarloRequest{P1: a, P2: b, Cal: c, Seed: 77})
		if err != nil {
			t.Fatalf("run with %d workers: %v", workers, err)
		}
		return sum
	}

	single := run(1)
	for _, workers := range []int{2, 4, 7} {
		if got := run(workers); !reflect.DeepEqual(got, single) {
			t.Errorf("%d workers: %+v, want %+v", workers, got, single)
		}
	}
}

func TestAggregateMergeCommutes(t *testing.T) {
	a, b := testPlayers(t)
	cal := DefaultCalibration()
	req := MonteCarloRequest{P1: a, P2: b, Cal: cal, Seed: 5}

	outcomes := make([]*MatchOutcome, 60)
	for i := range outcomes {
		out, err := playTrial(context.Background(), req, uint64(i))
		if err != nil {
			t.Fatalf("trial %d: %v", i, err)
		}
		outcomes[i] = out
	}

	single := NewAggregate()
	for i, out := range outcomes {
		single.Add(i, out)
	}

	partitions := [][][2]int{
		{{0, 60}},
		{{0, 10}, {10, 35}, {35, 60}},
		{{40, 60}, {0, 1}, {1, 40}},
	}
	for _, parts := range partitions {
		merged := NewAggregate()
		// Merge in reverse to exercise ordering as well as grouping.
		for k := len(parts) - 1; k >= 0; k-- {
			part := NewAggregate()
			for i := parts[k][0]; i < parts[k][1]; i++ {
				part.Add(i, outcomes[i])
			}
			merged.Merge(part)
		}
		if !reflect.DeepEqual(merged, single) {
			t.Errorf("partition %v: %+v, want %+v", parts, merged, single)
		}
		if !reflect.DeepEqual(merged.Summarize(a, b), single.Summarize(a, b)) {
			t.Errorf("partition %v: summaries differ", parts)
		}
	}
}

func TestSummarizeTieBreaksByFirstOccurrence(t *testing.T) {
	a, b := testPlayers(t)
	agg := NewAggregate()
	agg.Add(4, &MatchOutcome{Winner: a.ID(), Scoreline: "3:1", LegsWon: map[PlayerID]int{a.ID(): 3, b.ID(): 1}, Legs: make([]LegOutcome, 4)})
	agg.Add(2, &MatchOutcome{Winner: b.ID(), Scoreline: "0:3", LegsWon: map[PlayerID]int{a.ID(): 0, b.ID(): 3}, Legs: make([]LegOutcome, 3)})
	agg.Add(9, &MatchOutcome{Winner: a.ID(), Scoreline: "3:0", LegsWon: map[PlayerID]int{a.ID(): 3, b.ID(): 0}, Legs: make([]LegOutcome, 3)})
	agg.Add(7, &MatchOutcome{Winner: a.ID(), Scoreline: "3:0", LegsWon: map[PlayerID]int{a.ID(): 3, b.ID(): 0}, Legs: make([]LegOutcome, 3)})

	sum := agg.Summarize(a, b)
	var order []string
	for _, line := range sum.Scorelines {
		order = append(order, line.Scoreline)
	}
	want := []string{"3:0", "0:3", "3:1"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	if sum.Players[0].WinProbability != 0.75 || sum.MeanLegs != 3.25 {
		t.Errorf("summary = %+v", sum)
	}
	if top := sum.Top(2); len(top) != 2 || top[0].Scoreline != "3:0" {
		t.Errorf("top = %v", top)
	}
}

func TestMonteCarloRejectsBadRequests(t *testing.T) {
	a, b := testPlayers(t)
	cal := DefaultCalibration()

	cal.TrialCount = 0
	if _, err := RunMonteCarlo(context.Background(), MonteCarloRequest{P1: a, P2: b, Cal: cal}); !errors.Is(err, ErrInvalidTrials) {
		t.Errorf("zero trials: %v", err)
	}
	cal.TrialCount = 10
	if _, err := RunMonteCarlo(context.Background(), MonteCarloRequest{P1: a, P2: a, Cal: cal}); !errors.Is(err, ErrSamePlayer) {
		t.Errorf("same player: %v", err)
	}
	if _, err := RunMonteCarlo(context.Background(), MonteCarloRequest{P1: a, Cal: cal}); !errors.Is(err, ErrNoPlayers) {
		t.Errorf("missing player: %v", err)
	}
}

func TestMonteCarloCancelledKeepsCompletedTrials(t *testing.T) {
	a, b := testPlayers(t)
	cal := DefaultCalibration()
	cal.TrialCount = 1_000_000
	cal.Workers = 2

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, err := RunMonteCarlo(ctx, MonteCarloRequest{P1: a, P2: b, Cal: cal, Seed: 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if sum == nil {
		t.Fatal("expected a partial summary")
	}
	if sum.Trials >= cal.TrialCount {
		t.Errorf("cancelled run completed all %d trials", sum.Trials)
	}
	if sum.Players[0].Wins+sum.Players[1].Wins != sum.Trials {
		t.Errorf("partial summary inconsistent: %+v", sum)
	}
}
