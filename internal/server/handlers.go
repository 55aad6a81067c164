package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/maxncode/darthub/internal/roster"
	"github.com/maxncode/darthub/pkg/models"
	"github.com/maxncode/darthub/pkg/sim"
)

// playerRef names a player by id or by name. JSON numbers and strings are
// both accepted.
type playerRef string

func (p *playerRef) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*p = playerRef(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("player must be an id or a name: %w", err)
	}
	*p = playerRef(s)
	return nil
}

type matchRequest struct {
	Player1 playerRef `json:"player1"`
	Player2 playerRef `json:"player2"`
	BestOf  int       `json:"best_of"`
	Seed    *uint64   `json:"seed"`
}

type simulationRequest struct {
	matchRequest
	Trials  int `json:"trials"`
	Workers int `json:"workers"`
	Top     int `json:"top"`
}

type playerView struct {
	ID              sim.PlayerID `json:"id"`
	Name            string       `json:"name"`
	Country         string       `json:"country,omitempty"`
	Average         float64      `json:"average"`
	CheckoutPct     float64      `json:"checkout_pct"`
	Form            float64      `json:"form"`
	P180            float64      `json:"p180"`
	MatchesPlayed   *float64     `json:"matches_played,omitempty"`
	HighestCheckout *float64     `json:"highest_checkout,omitempty"`
}

type matchResponse struct {
	MatchID string            `json:"match_id"`
	Seed    uint64            `json:"seed"`
	BestOf  int               `json:"best_of"`
	Players [2]playerView     `json:"players"`
	Outcome *sim.MatchOutcome `json:"outcome"`
}

type simulationResponse struct {
	RunID    string               `json:"run_id"`
	BestOf   int                  `json:"best_of"`
	Elapsed  string               `json:"elapsed"`
	Summary  *sim.Summary         `json:"summary"`
	Top      []sim.ScorelineCount `json:"top_scorelines"`
	Complete bool                 `json:"complete"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HealthCheck reports service status and roster size
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "darthub",
		"players":   s.roster.Len(),
		"timestamp": time.Now().UTC(),
	})
}

// ListPlayers returns the roster
// Query params: q (name filter), limit
func (s *Server) ListPlayers(w http.ResponseWriter, r *http.Request) {
	entries := s.roster.Search(r.URL.Query().Get("q"))
	limit := parseIntParam(r, "limit", 0)
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	players := make([]playerView, 0, len(entries))
	for _, e := range entries {
		players = append(players, viewOf(e))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"players": players,
		"count":   len(players),
	})
}

// GetPlayer returns one player by id
func (s *Server) GetPlayer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "player id must be numeric", nil)
		return
	}
	e, err := s.roster.Get(sim.PlayerID(id))
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error(), nil)
		return
	}
	respondJSON(w, http.StatusOK, viewOf(e))
}

// PlayMatch simulates one match and returns its full record
func (s *Server) PlayMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	p1, p2, cal, err := s.prepare(req)
	if err != nil {
		respondError(w, statusFor(err), err.Error(), nil)
		return
	}
	seed := s.seedOf(req)

	m, err := sim.NewMatch(p1, p2, sim.NewSeededThrowModel(seed, 0, cal), cal)
	if err != nil {
		respondError(w, statusFor(err), err.Error(), nil)
		return
	}
	out, err := m.Play(r.Context())
	if err != nil {
		respondError(w, statusFor(err), "match aborted", err)
		return
	}

	id := uuid.New().String()
	log.WithFields(log.Fields{"match_id": id, "seed": seed, "scoreline": out.Scoreline}).Info("match simulated")

	e1, _ := s.roster.Get(p1.ID())
	e2, _ := s.roster.Get(p2.ID())
	respondJSON(w, http.StatusOK, matchResponse{
		MatchID: id,
		Seed:    seed,
		BestOf:  cal.BestOf,
		Players: [2]playerView{viewOf(e1), viewOf(e2)},
		Outcome: out,
	})
}

// Simulate runs a Monte Carlo batch and returns its summary
func (s *Server) Simulate(w http.ResponseWriter, r *http.Request) {
	var req simulationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	p1, p2, cal, err := s.prepare(req.matchRequest)
	if err != nil {
		respondError(w, statusFor(err), err.Error(), nil)
		return
	}
	if req.Trials != 0 {
		cal.TrialCount = req.Trials
	}
	if cal.TrialCount <= 0 || cal.TrialCount > maxTrials {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("trials must be between 1 and %d", maxTrials), nil)
		return
	}
	if req.Workers > 0 {
		cal.Workers = req.Workers
	}
	top := req.Top
	if top <= 0 {
		top = defaultTopLines
	}

	started := time.Now()
	sum, err := sim.RunMonteCarlo(r.Context(), sim.MonteCarloRequest{P1: p1, P2: p2, Cal: cal, Seed: s.seedOf(req.matchRequest)})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			respondError(w, http.StatusGatewayTimeout, "simulation did not finish in time", err)
			return
		}
		respondError(w, statusFor(err), err.Error(), nil)
		return
	}

	id := uuid.New().String()
	log.WithFields(log.Fields{"run_id": id, "trials": sum.Trials, "seed": sum.Seed}).Info("simulation finished")

	respondJSON(w, http.StatusOK, simulationResponse{
		RunID:    id,
		BestOf:   cal.BestOf,
		Elapsed:  time.Since(started).String(),
		Summary:  sum,
		Top:      sum.Top(top),
		Complete: sum.Trials == cal.TrialCount,
	})
}

// prepare resolves both players and applies the request's best-of.
func (s *Server) prepare(req matchRequest) (*sim.Profile, *sim.Profile, sim.Calibration, error) {
	cal := s.cal
	if req.Player1 == "" || req.Player2 == "" {
		return nil, nil, cal, sim.ErrNoPlayers
	}
	p1, p2, err := s.roster.Pair(string(req.Player1), string(req.Player2))
	if err != nil {
		return nil, nil, cal, err
	}
	if req.BestOf != 0 {
		cal.BestOf = req.BestOf
	}
	if _, err := sim.LegsToWin(cal.BestOf); err != nil {
		return nil, nil, cal, err
	}
	return p1, p2, cal, nil
}

func (s *Server) seedOf(req matchRequest) uint64 {
	if req.Seed != nil {
		return *req.Seed
	}
	return s.seed()
}

func viewOf(e roster.Entry) playerView {
	v := playerView{
		ID:          e.Profile.ID(),
		Name:        e.Profile.Name(),
		Country:     e.Stat.Country,
		Average:     e.Profile.Average(),
		CheckoutPct: e.Profile.CheckoutPct(),
		Form:        e.Profile.Form(),
		P180:        e.Profile.P180(),
	}
	if n := e.Stat.MatchesPlayed; models.Has(n) {
		v.MatchesPlayed = &n
	}
	if n := e.Stat.HighestCheckout; models.Has(n) {
		v.HighestCheckout = &n
	}
	return v
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, roster.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, roster.ErrAmbiguousPlayer),
		errors.Is(err, sim.ErrNoPlayers),
		errors.Is(err, sim.ErrSamePlayer),
		errors.Is(err, sim.ErrInvalidBestOf),
		errors.Is(err, sim.ErrInvalidTrials),
		errors.Is(err, sim.ErrInvalidProfile):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func parseIntParam(r *http.Request, param string, defaultValue int) int {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("error encoding response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		log.Printf("error: %s - %v", message, err)
	}
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
