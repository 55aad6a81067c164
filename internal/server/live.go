package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/maxncode/darthub/internal/utils"
	"github.com/maxncode/darthub/pkg/sim"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced by the CORS middleware configuration
		return true
	},
}

// liveMessage is one frame of the live stream: the structured event plus
// its rendered commentary line.
type liveMessage struct {
	MatchID string `json:"match_id"`
	sim.Event
	Text string `json:"text"`
}

// LiveMatch streams a match over WebSocket, one frame per event.
// Query params: player1, player2, best_of, seed, delay_ms
//
// The match is abandoned as soon as the client disconnects.
func (s *Server) LiveMatch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := matchRequest{
		Player1: playerRef(q.Get("player1")),
		Player2: playerRef(q.Get("player2")),
		BestOf:  parseIntParam(r, "best_of", 0),
	}
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "seed must be an unsigned integer", nil)
			return
		}
		req.Seed = &seed
	}

	p1, p2, cal, err := s.prepare(req)
	if err != nil {
		respondError(w, statusFor(err), err.Error(), nil)
		return
	}

	delay := cal.PacingDelay
	if v := q.Get("delay_ms"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 || time.Duration(ms)*time.Millisecond > maxPacingDelay {
			respondError(w, http.StatusBadRequest, "delay_ms must be between 0 and 10000", nil)
			return
		}
		delay = time.Duration(ms) * time.Millisecond
	}

	seed := s.seedOf(req)
	m, err := sim.NewMatch(p1, p2, sim.NewSeededThrowModel(seed, 0, cal), cal)
	if err != nil {
		respondError(w, statusFor(err), err.Error(), nil)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	matchID := uuid.New().String()
	logger := log.WithFields(log.Fields{"match_id": matchID, "seed": seed, "p1": p1.Name(), "p2": p2.Name()})
	logger.Info("live match started")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go readUntilClosed(conn, cancel)

	names := utils.SeatNames(m)
	stream := m.PlayLive(delay)
	for ev := range stream.All(ctx) {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		msg := liveMessage{MatchID: matchID, Event: ev, Text: utils.FormatEvent(ev, names)}
		if err := conn.WriteJSON(msg); err != nil {
			logger.WithError(err).Warn("live match write failed")
			cancel()
			break
		}
	}

	if err := stream.Err(); err != nil {
		logger.WithError(err).Info("live match abandoned")
		return
	}
	if out, ok := stream.Outcome(); ok {
		logger.WithField("scoreline", out.Scoreline).Info("live match finished")
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "match finished"))
}

// readUntilClosed drains client frames and cancels the match once the
// connection goes away.
func readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("live client unexpected close: %v", err)
			}
			return
		}
	}
}
