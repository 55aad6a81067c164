// Package main is the entry point for the darthub command
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/maxncode/darthub/internal/config"
	"github.com/maxncode/darthub/internal/random"
	"github.com/maxncode/darthub/internal/roster"
	"github.com/maxncode/darthub/internal/utils"
)

// Version is set during build using ldflags
var (
	version = "dev"
)

const usage = `usage: darthub [-env file] [-version] <command> [flags]

commands:
  scrape      download player statistics and write the stats CSV
  players     list players from the stats CSV
  match       simulate one match and print its legs
  live        play a match with live commentary
  montecarlo  run many matches and print win probabilities
  serve       start the HTTP API
`

func main() {
	versionFlag := flag.Bool("version", false, "Print version information and exit")
	envFile := flag.String("env", ".env", "Path of the .env file to load")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	if *versionFlag {
		fmt.Printf("darthub version %s\n", version)
		return
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.SetLevel(cfg.ParseLevel())
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.Debugf("darthub %s", version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "scrape":
		err = runScrape(ctx, cfg, args)
	case "players":
		err = runPlayers(cfg, args)
	case "match":
		err = runMatch(ctx, cfg, args)
	case "live":
		err = runLive(ctx, cfg, args)
	case "montecarlo":
		err = runMonteCarlo(ctx, cfg, args)
	case "serve":
		err = runServe(ctx, cfg, args)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

// loadRoster reads the stats CSV and builds the playable roster. Rows that
// cannot be simulated are logged and skipped.
func loadRoster(cfg *config.Config, statsFile string) (*roster.Roster, error) {
	if statsFile == "" {
		statsFile = cfg.StatsFile
	}
	stats, err := utils.LoadStatsFromCSV(statsFile)
	if err != nil {
		return nil, err
	}

	r, errs := roster.Build(stats, roster.Options{
		MaxCheckout:  cfg.Sim.MaxCheckout,
		LegsPerMatch: cfg.LegsPerMatch,
	})
	for _, err := range errs {
		log.Debugf("Skipped stats row: %v", err)
	}
	if r.Len() == 0 {
		return nil, fmt.Errorf("no playable players in %s", statsFile)
	}
	log.Printf("Loaded %d players from %s (%d skipped)", r.Len(), statsFile, len(errs))
	return r, nil
}

// seedOrRandom returns seed when it was given on the command line and a
// fresh random seed otherwise.
func seedOrRandom(fs *flag.FlagSet, seed uint64) (uint64, error) {
	if isSet(fs, "seed") {
		return seed, nil
	}
	return random.NewSeed()
}

func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
