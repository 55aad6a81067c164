package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/maxncode/darthub/internal/roster"
	"github.com/maxncode/darthub/pkg/models"
	"github.com/maxncode/darthub/pkg/sim"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	mk := func(id int64, name string, avg, co, form float64) models.PlayerStat {
		s := models.NewPlayerStat(id, name)
		s.Average, s.CheckoutPct, s.Form = avg, co, form
		return s
	}
	r, errs := roster.Build([]models.PlayerStat{
		mk(1, "Alpha Arrow", 100, 45, 8),
		mk(2, "Bravo Board", 85, 33, 4),
		mk(3, "Bravo Bull", 90, 36, 5),
	}, roster.Options{})
	if len(errs) > 0 {
		t.Fatalf("roster: %v", errs)
	}

	cal := sim.DefaultCalibration()
	cal.TrialCount = 200
	cal.PacingDelay = 0
	srv := httptest.NewServer(New(r, cal, Options{Seed: func() uint64 { return 4242 }, RequestTimeout: 30 * time.Second}))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	srv := testServer(t)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var body map[string]interface{}
	decode(t, resp, &body)
	if resp.StatusCode != http.StatusOK || body["status"] != "healthy" || body["players"] != float64(3) {
		t.Errorf("health = %d %v", resp.StatusCode, body)
	}
}

func TestListAndGetPlayers(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/players?q=bravo")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var list struct {
		Players []playerView `json:"players"`
		Count   int          `json:"count"`
	}
	decode(t, resp, &list)
	if list.Count != 2 || list.Players[0].Name != "Bravo Board" {
		t.Errorf("list = %+v", list)
	}

	resp, _ = http.Get(srv.URL + "/api/v1/players/1")
	var one playerView
	decode(t, resp, &one)
	if one.ID != 1 || one.P180 != sim.EstimateP180(100) {
		t.Errorf("player = %+v", one)
	}

	resp, _ = http.Get(srv.URL + "/api/v1/players/99")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing player status = %d", resp.StatusCode)
	}
	resp, _ = http.Get(srv.URL + "/api/v1/players/abc")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad id status = %d", resp.StatusCode)
	}
}

func TestPlayMatch(t *testing.T) {
	srv := testServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/matches", `{"player1": 1, "player2": "bravo board", "best_of": 3, "seed": 7}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var first matchResponse
	decode(t, resp, &first)
	if first.Seed != 7 || first.BestOf != 3 || first.MatchID == "" {
		t.Errorf("response = %+v", first)
	}
	if first.Outcome == nil || len(first.Outcome.Legs) < 2 || len(first.Outcome.Legs) > 3 {
		t.Fatalf("outcome = %+v", first.Outcome)
	}

	resp = postJSON(t, srv.URL+"/api/v1/matches", `{"player1": "1", "player2": 2, "best_of": 3, "seed": 7}`)
	var second matchResponse
	decode(t, resp, &second)
	if second.Outcome.Scoreline != first.Outcome.Scoreline || second.MatchID == first.MatchID {
		t.Errorf("same seed gave %s then %s", first.Outcome.Scoreline, second.Outcome.Scoreline)
	}
}

func TestPlayMatchErrors(t *testing.T) {
	srv := testServer(t)
	tests := []struct {
		body   string
		status int
	}{
		{`{"player1": 1, "player2": 1}`, http.StatusBadRequest},
		{`{"player1": 1, "player2": "bravo"}`, http.StatusBadRequest},
		{`{"player1": 1, "player2": 9}`, http.StatusNotFound},
		{`{"player1": 1}`, http.StatusBadRequest},
		{`{"player1": 1, "player2": 2, "best_of": 4}`, http.StatusBadRequest},
		{`{"player1": 1, "player2": 2, "colour": "red"}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		resp := postJSON(t, srv.URL+"/api/v1/matches", tt.body)
		var e ErrorResponse
		decode(t, resp, &e)
		if resp.StatusCode != tt.status || e.Code != tt.status {
			t.Errorf("%s: status %d (%+v), want %d", tt.body, resp.StatusCode, e, tt.status)
		}
	}
}

func TestSimulate(t *testing.T) {
	srv := testServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/simulations", `{"player1": 1, "player2": 2, "trials": 300, "seed": 11, "top": 3}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out simulationResponse
	decode(t, resp, &out)
	if out.Summary.Trials != 300 || !out.Complete || out.Summary.Seed != 11 {
		t.Errorf("summary = %+v", out.Summary)
	}
	if len(out.Top) > 3 || out.Summary.Players[0].WinProbability <= out.Summary.Players[1].WinProbability {
		t.Errorf("top = %v, players = %+v", out.Top, out.Summary.Players)
	}

	resp = postJSON(t, srv.URL+"/api/v1/simulations", `{"player1": 1, "player2": 2}`)
	decode(t, resp, &out)
	if out.Summary.Trials != 200 || out.Summary.Seed != 4242 {
		t.Errorf("defaults not applied: trials %d seed %d", out.Summary.Trials, out.Summary.Seed)
	}

	resp = postJSON(t, srv.URL+"/api/v1/simulations", `{"player1": 1, "player2": 2, "trials": -5}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("negative trials status = %d", resp.StatusCode)
	}
}

func TestLiveMatch(t *testing.T) {
	srv := testServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/matches/live?player1=1&player2=2&best_of=3&seed=5&delay_ms=0"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var msgs []liveMessage
	for {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var msg liveMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				t.Fatalf("read: %v", err)
			}
			break
		}
		msgs = append(msgs, msg)
	}

	if len(msgs) < 4 {
		t.Fatalf("got %d messages", len(msgs))
	}
	if msgs[0].Kind != sim.EventMatchStart || msgs[0].Text != "Match on: Alpha Arrow vs Bravo Board, first to 2 legs" {
		t.Errorf("first = %+v", msgs[0])
	}
	last := msgs[len(msgs)-1]
	if last.Kind != sim.EventMatchWon || last.Scoreline == "" || !strings.Contains(last.Text, "wins the match") {
		t.Errorf("last = %+v", last)
	}
	for _, m := range msgs {
		if m.MatchID != msgs[0].MatchID {
			t.Fatal("match id changed mid stream")
		}
	}

	// The live stream and a batch match with the same seed agree.
	resp := postJSON(t, srv.URL+"/api/v1/matches", `{"player1": 1, "player2": 2, "best_of": 3, "seed": 5}`)
	var batch matchResponse
	decode(t, resp, &batch)
	if batch.Outcome.Scoreline != last.Scoreline {
		t.Errorf("live %s, batch %s", last.Scoreline, batch.Outcome.Scoreline)
	}
}

func TestLiveMatchRejectsBadParams(t *testing.T) {
	srv := testServer(t)
	for _, q := range []string{
		"player1=1&player2=1",
		"player1=1&player2=2&delay_ms=-1",
		"player1=1&player2=2&seed=x",
		"player1=1&player2=2&best_of=2",
	} {
		resp, err := http.Get(srv.URL + "/api/v1/matches/live?" + q)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status %d", q, resp.StatusCode)
		}
	}
}
