package sim

import (
	"context"
	"fmt"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// MonteCarloRequest describes a batch of independent matches between the
// same two players. Cal.TrialCount and Cal.Workers size the run.
type MonteCarloRequest struct {
	P1, P2 *Profile
	Cal    Calibration
	Seed   uint64
}

// RunMonteCarlo plays Cal.TrialCount matches on a fixed pool of workers and
// reduces them to a Summary. Trial i always draws from PCG stream (Seed, i),
// so the summary does not depend on the number of workers.
//
// If ctx ends early, the returned summary covers the trials that completed
// and the error is the context error.
func RunMonteCarlo(ctx context.Context, req MonteCarloRequest) (*Summary, error) {
	cal := req.Cal
	if _, err := NewMatch(req.P1, req.P2, nil, cal); err != nil {
		return nil, err
	}
	trials := cal.TrialCount
	if trials <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTrials, trials)
	}
	workers := cal.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > trials {
		workers = trials
	}

	started := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	tasks := make(chan int)

	g.Go(func() error {
		defer close(tasks)
		for i := 0; i < trials; i++ {
			select {
			case tasks <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	partials := make([]*Aggregate, workers)
	for w := range partials {
		local := NewAggregate()
		partials[w] = local
		g.Go(func() error {
			for i := range tasks {
				out, err := playTrial(gctx, req, uint64(i))
				if err != nil {
					return fmt.Errorf("trial %d: %w", i, err)
				}
				local.Add(i, out)
			}
			return nil
		})
	}

	err := g.Wait()

	total := NewAggregate()
	for _, p := range partials {
		total.Merge(p)
	}
	summary := total.Summarize(req.P1, req.P2)
	summary.Seed = req.Seed

	log.WithFields(log.Fields{
		"p1":        req.P1.Name(),
		"p2":        req.P2.Name(),
		"trials":    summary.Trials,
		"requested": trials,
		"workers":   workers,
		"elapsed":   time.Since(started).String(),
	}).Debug("Monte Carlo run finished")

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return summary, ctxErr
		}
		return nil, err
	}
	return summary, nil
}

// playTrial runs one batch match on its own random stream.
func playTrial(ctx context.Context, req MonteCarloRequest, stream uint64) (*MatchOutcome, error) {
	thrower := NewSeededThrowModel(req.Seed, stream, req.Cal)
	m, err := NewMatch(req.P1, req.P2, thrower, req.Cal)
	if err != nil {
		return nil, err
	}
	return m.Play(ctx)
}
