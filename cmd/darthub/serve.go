package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/maxncode/darthub/internal/config"
	"github.com/maxncode/darthub/internal/server"
)

func runServe(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", cfg.Addr, "Listen address")
	statsFile := fs.String("stats", cfg.StatsFile, "Stats CSV to load players from")
	fs.Parse(args)

	r, err := loadRoster(cfg, *statsFile)
	if err != nil {
		return err
	}

	handler := server.New(r, cfg.Sim, server.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
	})

	// Live matches hold their connection open, so only the header read is bounded.
	srv := &http.Server{
		Addr:              *addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("darthub API listening on %s (%d players)", *addr, r.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Println("darthub API stopped")
	return nil
}
