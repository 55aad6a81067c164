// Package parser provides functionality to parse darts player statistics from various formats
package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	log "github.com/sirupsen/logrus"

	"github.com/maxncode/darthub/pkg/models"
)

// Stat labels as they appear on the stats page. Each field accepts several
// spellings because exports and PDF sheets are not consistent.
var (
	averageLabels         = []string{"Averages", "Average", "Avg", "3-Dart Average"}
	checkoutLabels        = []string{"Checkout Pcnt", "Checkout %", "Checkout Percentage", "Checkout"}
	legsWonLabels         = []string{"Pcnt Legs Won", "Legs Won %", "Legs Won Pcnt"}
	total180Labels        = []string{"180's", "180s", "Total180s", "Total 180s"}
	matchesLabels         = []string{"Matches_Played", "Matches Played", "MatchesPlayed", "Matches", "match_count"}
	highestCheckoutLabels = []string{"Highest Checkout", "High Checkout", "Best Checkout"}
	formLabels            = []string{"Form"}
	countryLabels         = []string{"Country"}
)

// KnownLabels lists every label the parser maps onto a PlayerStat field
func KnownLabels() []string {
	var all []string
	for _, group := range [][]string{averageLabels, checkoutLabels, legsWonLabels, total180Labels,
		matchesLabels, highestCheckoutLabels, formLabels, countryLabels} {
		all = append(all, group...)
	}
	return all
}

// ReadPDFText reads a PDF file and returns its text content
func ReadPDFText(pdfPath string) (string, error) {
	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("error opening PDF: %w", err)
	}
	defer f.Close()

	plainText, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("error extracting text from PDF: %w", err)
	}

	bytes, err := io.ReadAll(plainText)
	if err != nil {
		return "", fmt.Errorf("error reading plain text from PDF: %w", err)
	}

	return string(bytes), nil
}

type listingResponse struct {
	Data []struct {
		PlayerName string          `json:"player_name"`
		Country    string          `json:"country"`
		Stat       json.RawMessage `json:"stat"`
		PlayerKey  json.RawMessage `json:"player_key"`
	} `json:"data"`
}

// ParsePlayerListing decodes the ranking API response into listings.
// detailsBase is prefixed to the player key to build each URL.
func ParsePlayerListing(body []byte, detailsBase string) ([]models.PlayerListing, error) {
	var resp listingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("error decoding player listing: %w", err)
	}

	listings := make([]models.PlayerListing, 0, len(resp.Data))
	for _, p := range resp.Data {
		key := strings.Trim(string(p.PlayerKey), `"`)
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			log.Printf("Skipping listing entry %q: bad player key %s", p.PlayerName, key)
			continue
		}
		avg, _ := ParseNumber(strings.Trim(string(p.Stat), `"`))
		listings = append(listings, models.PlayerListing{
			ID:      id,
			Name:    strings.TrimSpace(p.PlayerName),
			Country: p.Country,
			Average: avg,
			URL:     strings.TrimSuffix(detailsBase, "/") + "/" + key,
		})
	}

	log.Printf("Parsed %d player listings", len(listings))
	return listings, nil
}

// ExtractPlayerStats reads the two-column stats table from a player stats page
func ExtractPlayerStats(htmlContent string, id int64, name string) (models.PlayerStat, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return models.PlayerStat{}, fmt.Errorf("error parsing stats page: %w", err)
	}

	table := doc.Find("table#playerStatsTable")
	if table.Length() == 0 {
		return models.PlayerStat{}, fmt.Errorf("stats table not found for player %d", id)
	}

	raw := make(map[string]string)
	table.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() != 2 {
			return
		}
		label := strings.TrimSpace(cells.Eq(0).Text())
		value := strings.TrimSpace(cells.Eq(1).Text())
		if label != "" {
			raw[label] = value
		}
	})

	stat := StatFromRaw(id, name, raw)
	log.Printf("Extracted %d stats for %s (avg %.2f)", len(raw), name, stat.Average)
	return stat, nil
}

var (
	pdfNameLine = regexp.MustCompile(`^Name\s*:?\s+(.+)$`)
	pdfIDLine   = regexp.MustCompile(`^(?:Id|ID|Player Key)\s*:?\s+(\d+)$`)
)

// ExtractStatsFromText parses a stat sheet exported as text (for example
// from a PDF). Each line holds a known label followed by its value.
func ExtractStatsFromText(text string) (models.PlayerStat, error) {
	raw := make(map[string]string)
	var name string
	var id int64

	labels := KnownLabels()
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := pdfIDLine.FindStringSubmatch(line); m != nil {
			id, _ = strconv.ParseInt(m[1], 10, 64)
			continue
		}
		if m := pdfNameLine.FindStringSubmatch(line); m != nil && name == "" {
			name = strings.TrimSpace(m[1])
			continue
		}

		for _, label := range labels {
			if !strings.HasPrefix(line, label) {
				continue
			}
			value := strings.TrimSpace(strings.TrimPrefix(line[len(label):], ":"))
			if !startsNumeric(value) {
				continue
			}
			// First occurrence wins
			if _, seen := raw[label]; !seen {
				raw[label] = value
			}
			break
		}
	}

	if id == 0 {
		return models.PlayerStat{}, fmt.Errorf("stat sheet has no player id")
	}
	if name == "" {
		return models.PlayerStat{}, fmt.Errorf("stat sheet for player %d has no name", id)
	}

	return StatFromRaw(id, name, raw), nil
}

// StatFromRaw maps scraped label/value pairs onto a PlayerStat
func StatFromRaw(id int64, name string, raw map[string]string) models.PlayerStat {
	stat := models.NewPlayerStat(id, name)
	for k, v := range raw {
		stat.Raw[k] = v
	}

	stat.Average = lookupNumber(raw, averageLabels)
	stat.CheckoutPct = lookupNumber(raw, checkoutLabels)
	stat.LegsWonPct = lookupNumber(raw, legsWonLabels)
	stat.Total180s = lookupNumber(raw, total180Labels)
	stat.MatchesPlayed = lookupNumber(raw, matchesLabels)
	stat.HighestCheckout = lookupNumber(raw, highestCheckoutLabels)
	stat.Form = lookupNumber(raw, formLabels)
	for _, label := range countryLabels {
		if v, ok := raw[label]; ok {
			stat.Country = v
			break
		}
	}
	return stat
}

// lookupNumber returns the first parseable value among the candidate labels
func lookupNumber(raw map[string]string, labels []string) float64 {
	for _, label := range labels {
		v, ok := raw[label]
		if !ok {
			continue
		}
		if n, ok := ParseNumber(v); ok {
			return n
		}
	}
	return math.NaN()
}

func startsNumeric(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return (c >= '0' && c <= '9') || c == '-' || c == '+'
}

// ProcessPlayerPage downloads and parses a single player stats page
func ProcessPlayerPage(url string, id int64, name string) (*models.PlayerStat, error) {
	htmlContent, err := FetchURL(url)
	if err != nil {
		return nil, fmt.Errorf("error scraping URL: %w", err)
	}

	stat, err := ExtractPlayerStats(htmlContent, id, name)
	if err != nil {
		return nil, err
	}

	return &stat, nil
}

// FetchURL gets the HTML content from a URL
// Defined here to avoid circular dependency but implementation provided in scraper
var FetchURL func(url string) (string, error)
