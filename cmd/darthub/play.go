package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/maxncode/darthub/internal/config"
	"github.com/maxncode/darthub/internal/utils"
	"github.com/maxncode/darthub/pkg/models"
	"github.com/maxncode/darthub/pkg/sim"
)

// matchFlags are shared by every command that plays matches.
type matchFlags struct {
	fs        *flag.FlagSet
	stats     *string
	p1, p2    *string
	bestOf    *int
	seed      *uint64
	calibFile *string
}

func newMatchFlags(name string, cfg *config.Config) *matchFlags {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return &matchFlags{
		fs:        fs,
		stats:     fs.String("stats", cfg.StatsFile, "Stats CSV to load players from"),
		p1:        fs.String("p1", "", "First player (id or name)"),
		p2:        fs.String("p2", "", "Second player (id or name)"),
		bestOf:    fs.Int("best-of", cfg.Sim.BestOf, "Number of legs, odd and at least 3"),
		seed:      fs.Uint64("seed", 0, "RNG seed (random when not set)"),
		calibFile: fs.String("calibration", "", "YAML calibration file overriding the configured one"),
	}
}

// setup parses args and resolves the two players and the calibration.
func (m *matchFlags) setup(cfg *config.Config, args []string) (*sim.Profile, *sim.Profile, sim.Calibration, uint64, error) {
	m.fs.Parse(args)
	cal := cfg.Sim
	if *m.calibFile != "" {
		if err := config.LoadCalibration(*m.calibFile, &cal); err != nil {
			return nil, nil, cal, 0, err
		}
	}
	if isSet(m.fs, "best-of") {
		cal.BestOf = *m.bestOf
	}
	if err := cal.Validate(); err != nil {
		return nil, nil, cal, 0, err
	}
	if *m.p1 == "" || *m.p2 == "" {
		return nil, nil, cal, 0, fmt.Errorf("%w: -p1 and -p2 are required", sim.ErrNoPlayers)
	}

	r, err := loadRoster(cfg, *m.stats)
	if err != nil {
		return nil, nil, cal, 0, err
	}
	p1, p2, err := r.Pair(*m.p1, *m.p2)
	if err != nil {
		return nil, nil, cal, 0, err
	}
	seed, err := seedOrRandom(m.fs, *m.seed)
	if err != nil {
		return nil, nil, cal, 0, err
	}
	return p1, p2, cal, seed, nil
}

func runPlayers(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("players", flag.ExitOnError)
	statsFile := fs.String("stats", cfg.StatsFile, "Stats CSV to load players from")
	query := fs.String("q", "", "Only list players whose name contains this text")
	limit := fs.Int("limit", 50, "Number of players to print (0 = all)")
	fs.Parse(args)

	r, err := loadRoster(cfg, *statsFile)
	if err != nil {
		return err
	}
	entries := r.Search(*query)
	stats := make([]models.PlayerStat, 0, len(entries))
	for _, e := range entries {
		stats = append(stats, e.Stat)
	}
	utils.DisplayStats(os.Stdout, stats, *limit)
	return nil
}

func runMatch(ctx context.Context, cfg *config.Config, args []string) error {
	mf := newMatchFlags("match", cfg)
	p1, p2, cal, seed, err := mf.setup(cfg, args)
	if err != nil {
		return err
	}

	m, err := sim.NewMatch(p1, p2, sim.NewSeededThrowModel(seed, 0, cal), cal)
	if err != nil {
		return err
	}
	out, err := m.Play(ctx)
	if err != nil {
		return fmt.Errorf("error playing match: %w", err)
	}
	log.WithFields(log.Fields{"seed": seed, "scoreline": out.Scoreline}).Info("match finished")
	utils.DisplayMatchOutcome(os.Stdout, out, p1, p2)
	return nil
}

func runLive(ctx context.Context, cfg *config.Config, args []string) error {
	mf := newMatchFlags("live", cfg)
	delay := mf.fs.Duration("delay", cfg.Sim.PacingDelay, "Pause between visits")
	p1, p2, cal, seed, err := mf.setup(cfg, args)
	if err != nil {
		return err
	}
	if !isSet(mf.fs, "delay") {
		*delay = cal.PacingDelay
	}
	if *delay < 0 {
		return fmt.Errorf("delay must not be negative: %s", *delay)
	}

	m, err := sim.NewMatch(p1, p2, sim.NewSeededThrowModel(seed, 0, cal), cal)
	if err != nil {
		return err
	}
	log.Debugf("Live match seed %d", seed)

	names := utils.SeatNames(m)
	stream := m.PlayLive(*delay)
	for ev := range stream.All(ctx) {
		fmt.Println(utils.FormatEvent(ev, names))
	}
	if err := stream.Err(); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Println("Live match abandoned")
			return nil
		}
		return fmt.Errorf("error playing live match: %w", err)
	}
	return nil
}

func runMonteCarlo(ctx context.Context, cfg *config.Config, args []string) error {
	mf := newMatchFlags("montecarlo", cfg)
	trials := mf.fs.Int("trials", cfg.Sim.TrialCount, "Number of matches to simulate")
	workers := mf.fs.Int("workers", cfg.Sim.Workers, "Worker goroutines (0 = GOMAXPROCS)")
	top := mf.fs.Int("top", 10, "Number of scorelines to print")
	p1, p2, cal, seed, err := mf.setup(cfg, args)
	if err != nil {
		return err
	}
	if isSet(mf.fs, "trials") {
		cal.TrialCount = *trials
	}
	if isSet(mf.fs, "workers") {
		cal.Workers = *workers
	}

	started := time.Now()
	sum, err := sim.RunMonteCarlo(ctx, sim.MonteCarloRequest{P1: p1, P2: p2, Cal: cal, Seed: seed})
	if sum != nil {
		utils.DisplaySummary(os.Stdout, sum, *top)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) && sum != nil {
			log.Printf("Interrupted: summary covers %d of %d trials", sum.Trials, cal.TrialCount)
			return nil
		}
		return err
	}
	log.Printf("Simulated %d matches in %s", sum.Trials, time.Since(started).Round(time.Millisecond))
	return nil
}
