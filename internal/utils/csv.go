package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/maxncode/darthub/pkg/models"
	"github.com/maxncode/darthub/pkg/parser"
)

// CSV column headers, in file order
var statsHeader = []string{
	"Id", "Name", "Country", "Averages", "Checkout Pcnt", "Pcnt Legs Won",
	"180's", "Matches Played", "Highest Checkout", "Form",
}

// SaveStatsToCSV writes player statistics to a semicolon separated file.
// Missing values are written as empty cells.
func SaveStatsToCSV(stats []models.PlayerStat, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if err := WriteStatsCSV(f, stats); err != nil {
		return err
	}
	log.Printf("Saved %d player stats to %s", len(stats), filename)
	return nil
}

// WriteStatsCSV writes the semicolon separated stats table to w.
func WriteStatsCSV(w io.Writer, stats []models.PlayerStat) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(statsHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, p := range stats {
		row := []string{
			strconv.FormatInt(p.ID, 10), p.Name, p.Country,
			csvNum(p.Average), csvNum(p.CheckoutPct), csvNum(p.LegsWonPct),
			csvNum(p.Total180s), csvNum(p.MatchesPlayed), csvNum(p.HighestCheckout), csvNum(p.Form),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write player %d: %w", p.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// LoadStatsFromCSV reads a semicolon separated stats file. Columns are
// matched by header, so files exported by other tools load as long as they
// carry Id and Name columns.
func LoadStatsFromCSV(filename string) ([]models.PlayerStat, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open stats file: %w", err)
	}
	defer f.Close()

	stats, err := ReadStatsCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	log.Printf("Loaded %d player stats from %s", len(stats), filename)
	return stats, nil
}

// ReadStatsCSV parses a semicolon separated stats table.
func ReadStatsCSV(r io.Reader) ([]models.PlayerStat, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty stats file")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	idCol, nameCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(h) {
		case "id":
			idCol = i
		case "name":
			nameCol = i
		}
	}
	if idCol < 0 || nameCol < 0 {
		return nil, errors.New("stats file needs Id and Name columns")
	}

	var stats []models.PlayerStat
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) <= idCol || len(rec) <= nameCol {
			return nil, fmt.Errorf("line %d: expected at least %d fields, got %d", line, max(idCol, nameCol)+1, len(rec))
		}

		id, err := strconv.ParseInt(strings.TrimSpace(rec[idCol]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad player id %q", line, rec[idCol])
		}

		raw := make(map[string]string, len(rec))
		for i, v := range rec {
			if i < len(header) && i != idCol && i != nameCol && strings.TrimSpace(v) != "" {
				raw[header[i]] = strings.TrimSpace(v)
			}
		}
		stats = append(stats, parser.StatFromRaw(id, strings.TrimSpace(rec[nameCol]), raw))
	}
	return stats, nil
}

func csvNum(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
