package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/maxncode/darthub/internal/config"
	"github.com/maxncode/darthub/internal/utils"
	"github.com/maxncode/darthub/pkg/models"
	"github.com/maxncode/darthub/pkg/parser"
	"github.com/maxncode/darthub/pkg/scraper"
)

func runScrape(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("scrape", flag.ExitOnError)
	outputFlag := fs.String("output", cfg.OutputDir, "Output directory for downloaded pages and PDFs")
	outFile := fs.String("out", cfg.StatsFile, "Stats CSV to write")
	limit := fs.Int("limit", 0, "Scrape at most this many players (0 = all)")
	page := fs.String("page", "", "Ranking HTML page to take player links from when the listing API fails")
	pdfs := fs.String("pdf", "", "Comma separated PDF stat sheets (paths or URLs) to import")
	show := fs.Int("show", 20, "Number of players to print when done")
	fs.Parse(args)

	outputDir := *outputFlag
	htmlDir := filepath.Join(outputDir, "html")
	pdfDir := filepath.Join(outputDir, "pdf")
	for _, dir := range []string{htmlDir, pdfDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating directory %s: %w", dir, err)
		}
	}

	// Initialize parser with fetch function
	parser.FetchURL = scraper.FetchURL

	listings, err := fetchListings(cfg, *page, htmlDir)
	if err != nil {
		return err
	}
	if *limit > 0 && *limit < len(listings) {
		listings = listings[:*limit]
	}
	log.Printf("Will scrape %d players", len(listings))

	var stats []models.PlayerStat
	for i, l := range listings {
		if err := ctx.Err(); err != nil {
			log.Printf("Scrape interrupted after %d players", len(stats))
			break
		}
		url := scraper.StatsURL(cfg.StatsURL, l.ID)
		log.Printf("Processing player %d of %d: %s", i+1, len(listings), l.Name)

		stat, err := parser.ProcessPlayerPage(url, l.ID, l.Name)
		if err != nil {
			log.Printf("Error processing %s: %v", l.Name, err)
			continue
		}
		if stat.Country == "" {
			stat.Country = l.Country
		}
		if !models.Has(stat.Average) && l.Average > 0 {
			stat.Average = l.Average
		}
		stats = append(stats, *stat)
	}

	if *pdfs != "" {
		stats = append(stats, importPDFs(strings.Split(*pdfs, ","), pdfDir)...)
	}
	if len(stats) == 0 {
		return fmt.Errorf("no player statistics collected")
	}

	parser.ComputeForm(stats)

	if err := utils.SaveStatsToCSV(stats, *outFile); err != nil {
		return err
	}
	log.Printf("Saved %d players to %s", len(stats), *outFile)

	utils.DisplayStats(os.Stdout, stats, *show)
	log.Println("Scraping complete")
	return nil
}

// fetchListings asks the ranking API for the player list. When that fails
// and a ranking page is given, player links are taken from its HTML.
func fetchListings(cfg *config.Config, page, htmlDir string) ([]models.PlayerListing, error) {
	body, err := scraper.FetchJSON(cfg.ListingURL)
	if err == nil {
		listings, perr := parser.ParsePlayerListing(body, cfg.DetailsURL)
		if perr == nil && len(listings) > 0 {
			return listings, nil
		}
		err = perr
		if err == nil {
			err = fmt.Errorf("listing is empty")
		}
	}
	if page == "" {
		return nil, fmt.Errorf("error fetching player listing: %w", err)
	}
	log.Printf("Player listing unavailable (%v), falling back to %s", err, page)

	htmlContent, err := scraper.FetchURL(page)
	if err != nil {
		return nil, err
	}
	indexHTMLPath := filepath.Join(htmlDir, "ranking.html")
	if err := scraper.SaveContentToFile(indexHTMLPath, htmlContent); err != nil {
		log.Printf("Error saving ranking HTML: %v", err)
	}

	var listings []models.PlayerListing
	for href, name := range scraper.ExtractPlayerLinks(htmlContent) {
		url := scraper.ResolveRelativeURL(page, href)
		id := scraper.ExtractPlayerID(url)
		if id == 0 {
			continue
		}
		listings = append(listings, models.PlayerListing{ID: id, Name: name, URL: url})
	}
	if len(listings) == 0 {
		return nil, fmt.Errorf("no player links found on %s", page)
	}
	return listings, nil
}

// importPDFs reads stat sheets, downloading the ones given as URLs first.
// Sheets that cannot be read are logged and skipped.
func importPDFs(sources []string, pdfDir string) []models.PlayerStat {
	var stats []models.PlayerStat
	for _, src := range sources {
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}

		path := src
		if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
			path = filepath.Join(pdfDir, filepath.Base(src))
			if _, err := os.Stat(path); os.IsNotExist(err) {
				log.Printf("Downloading stat sheet from %s", src)
				if err := scraper.DownloadPDF(src, path); err != nil {
					log.Printf("Error downloading PDF: %v", err)
					continue
				}
			}
		}

		text, err := parser.ReadPDFText(path)
		if err != nil {
			log.Printf("Error reading PDF text: %v", err)
			continue
		}
		stat, err := parser.ExtractStatsFromText(text)
		if err != nil {
			log.Printf("Error extracting stats from %s: %v", path, err)
			continue
		}
		log.Printf("Imported %s from %s", stat.Name, path)
		stats = append(stats, stat)
	}
	return stats
}
