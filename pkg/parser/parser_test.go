package parser

import (
	"errors"
	"math"
	"testing"

	"github.com/maxncode/darthub/pkg/models"
)

const statsPage = `<html><body>
<table id="otherTable"><tbody><tr><td>Averages</td><td>1.0</td></tr></tbody></table>
<table id="playerStatsTable">
  <thead><tr><th>Stat</th><th>Value</th></tr></thead>
  <tbody>
    <tr><td>Averages</td><td> 98,75 </td></tr>
    <tr><td>Checkout Pcnt</td><td>41.3%</td></tr>
    <tr><td>Pcnt Legs Won</td><td>62.0%</td></tr>
    <tr><td>180's</td><td>1.234</td></tr>
    <tr><td>Matches Played</td><td>87</td></tr>
    <tr><td>Highest Checkout</td><td>170</td></tr>
    <tr><td>Country</td><td>NED</td></tr>
    <tr><td colspan="2">Last 12 months</td></tr>
  </tbody>
</table>
</body></html>`

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"98.5", 98.5, true},
		{"98,5", 98.5, true},
		{"1.234,5", 1234.5, true},
		{"1,234.5", 1234.5, true},
		{"41.2%", 41.2, true},
		{" 170 ", 170, true},
		{"-3,5", -3.5, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"--", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		if ok != tt.ok || (ok && math.Abs(got-tt.want) > 1e-9) {
			t.Errorf("ParseNumber(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestExtractPlayerStats(t *testing.T) {
	stat, err := ExtractPlayerStats(statsPage, 42, "Test Player")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if stat.ID != 42 || stat.Name != "Test Player" || stat.Country != "NED" {
		t.Errorf("identity = %d %q %q", stat.ID, stat.Name, stat.Country)
	}
	checks := map[string][2]float64{
		"average":          {stat.Average, 98.75},
		"checkout":         {stat.CheckoutPct, 41.3},
		"legs won":         {stat.LegsWonPct, 62},
		"matches":          {stat.MatchesPlayed, 87},
		"highest checkout": {stat.HighestCheckout, 170},
	}
	for name, c := range checks {
		if math.Abs(c[0]-c[1]) > 1e-9 {
			t.Errorf("%s = %v, want %v", name, c[0], c[1])
		}
	}
	// "1.234" has a single dot, so it is read as a decimal.
	if math.Abs(stat.Total180s-1.234) > 1e-9 {
		t.Errorf("180s = %v", stat.Total180s)
	}
	if models.Has(stat.Form) {
		t.Errorf("form should be missing, got %v", stat.Form)
	}
	if stat.Raw["Averages"] != "98,75" {
		t.Errorf("raw average = %q", stat.Raw["Averages"])
	}
}

func TestExtractPlayerStatsMissingTable(t *testing.T) {
	if _, err := ExtractPlayerStats("<html><table id=\"x\"></table></html>", 1, "X"); err == nil {
		t.Fatal("expected error for page without stats table")
	}
}

func TestExtractStatsFromText(t *testing.T) {
	text := `
Player Stat Sheet
Name: Anna Example
Id: 977
Averages 95.10
Checkout Pcnt 38,5%
Checkout 12
Matches Won 50
Matches Played 40
180's: 120
`
	stat, err := ExtractStatsFromText(text)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if stat.ID != 977 || stat.Name != "Anna Example" {
		t.Fatalf("identity = %d %q", stat.ID, stat.Name)
	}
	if stat.Average != 95.10 || stat.CheckoutPct != 38.5 || stat.Total180s != 120 || stat.MatchesPlayed != 40 {
		t.Errorf("stat = %+v", stat)
	}
	if models.Has(stat.LegsWonPct) {
		t.Errorf("legs won should be missing, got %v", stat.LegsWonPct)
	}
}

func TestExtractStatsFromTextNeedsIdentity(t *testing.T) {
	if _, err := ExtractStatsFromText("Name: Nobody\nAverages 90"); err == nil {
		t.Error("expected error without id")
	}
	if _, err := ExtractStatsFromText("Id: 3\nAverages 90"); err == nil {
		t.Error("expected error without name")
	}
}

func TestParsePlayerListing(t *testing.T) {
	body := []byte(`{"data":[
		{"player_name":" Luke Humphries ","country":"ENG","stat":"99.12","player_key":1001},
		{"player_name":"Luke Littler","country":"ENG","stat":101.5,"player_key":"1002"},
		{"player_name":"Broken","country":"","stat":"1","player_key":"abc"}
	]}`)
	listings, err := ParsePlayerListing(body, "https://example.test/player/details/")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("got %d listings, want 2", len(listings))
	}
	first := listings[0]
	if first.ID != 1001 || first.Name != "Luke Humphries" || first.Average != 99.12 {
		t.Errorf("first = %+v", first)
	}
	if first.URL != "https://example.test/player/details/1001" {
		t.Errorf("url = %q", first.URL)
	}
	if listings[1].Average != 101.5 || listings[1].ID != 1002 {
		t.Errorf("second = %+v", listings[1])
	}

	if _, err := ParsePlayerListing([]byte("not json"), ""); err == nil {
		t.Error("expected decode error")
	}
}

func TestProcessPlayerPage(t *testing.T) {
	orig := FetchURL
	defer func() { FetchURL = orig }()

	FetchURL = func(url string) (string, error) {
		if url != "https://stats.test/player/stats/5" {
			t.Errorf("fetched %q", url)
		}
		return statsPage, nil
	}
	stat, err := ProcessPlayerPage("https://stats.test/player/stats/5", 5, "Five")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if stat.ID != 5 || stat.Average != 98.75 {
		t.Errorf("stat = %+v", stat)
	}

	fetchErr := errors.New("offline")
	FetchURL = func(string) (string, error) { return "", fetchErr }
	if _, err := ProcessPlayerPage("x", 5, "Five"); !errors.Is(err, fetchErr) {
		t.Errorf("err = %v, want wrapped fetch error", err)
	}
}

func TestComputeForm(t *testing.T) {
	mk := func(id int64, avg, co, legs, t180 float64) models.PlayerStat {
		s := models.NewPlayerStat(id, "p")
		s.Average, s.CheckoutPct, s.LegsWonPct, s.Total180s = avg, co, legs, t180
		return s
	}
	stats := []models.PlayerStat{
		mk(1, 100, 45, 70, 300),
		mk(2, 80, 30, 40, 100),
		mk(3, 90, 37.5, 55, 200),
		mk(4, 95, math.NaN(), 60, 250),
	}
	ComputeForm(stats)

	if math.Abs(stats[0].Form-10) > 1e-9 {
		t.Errorf("best form = %v, want 10", stats[0].Form)
	}
	if stats[1].Form != 0 {
		t.Errorf("worst form = %v, want 0", stats[1].Form)
	}
	// Every input sits halfway through its column.
	if math.Abs(stats[2].Form-5) > 1e-9 {
		t.Errorf("middle form = %v, want 5", stats[2].Form)
	}
	if models.Has(stats[3].Form) {
		t.Errorf("incomplete player form = %v, want missing", stats[3].Form)
	}
}

func TestComputeFormConstantColumn(t *testing.T) {
	a := models.NewPlayerStat(1, "a")
	b := models.NewPlayerStat(2, "b")
	a.Average, a.CheckoutPct, a.LegsWonPct, a.Total180s = 90, 40, 50, 100
	b.Average, b.CheckoutPct, b.LegsWonPct, b.Total180s = 90, 30, 50, 100
	stats := []models.PlayerStat{a, b}
	ComputeForm(stats)
	if math.Abs(stats[0].Form-3) > 1e-9 || stats[1].Form != 0 {
		t.Errorf("forms = %v, %v; want 3, 0", stats[0].Form, stats[1].Form)
	}
}
