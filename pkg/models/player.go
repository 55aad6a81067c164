// Package models contains data structures for darts player statistics
package models

import "math"

// PlayerListing is one entry of the player ranking feed
type PlayerListing struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Average float64 `json:"average"`
	URL     string  `json:"url"`
}

// PlayerStat holds the statistics scraped for a player over the last twelve
// months. Numeric fields are NaN when the source did not provide them.
type PlayerStat struct {
	ID              int64
	Name            string
	Country         string
	Average         float64
	CheckoutPct     float64
	LegsWonPct      float64
	Total180s       float64
	MatchesPlayed   float64
	HighestCheckout float64
	Form            float64

	// Raw keeps every label/value pair exactly as scraped
	Raw map[string]string
}

// NewPlayerStat returns a stat with every numeric field marked missing
func NewPlayerStat(id int64, name string) PlayerStat {
	nan := math.NaN()
	return PlayerStat{
		ID:              id,
		Name:            name,
		Average:         nan,
		CheckoutPct:     nan,
		LegsWonPct:      nan,
		Total180s:       nan,
		MatchesPlayed:   nan,
		HighestCheckout: nan,
		Form:            nan,
		Raw:             make(map[string]string),
	}
}

// Has reports whether a numeric field was provided
func Has(v float64) bool {
	return !math.IsNaN(v)
}
