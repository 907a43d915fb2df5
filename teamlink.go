// teamlink game server
//
// A single player is shown a random start and end player and must build a chain
// of teammates linking them, one proposed player at a time. Every link is
// checked against the loaded match dataset.
//
// Features:
// - WebSockets per game ID: /path/:gameid and /path/:gameid/ws
// - Every browser tab on a game ID sees the same round; moves are serialized by the hub
// - Filters (minimum games, season range) start a fresh round
// - Per-step match citations, hints (team history) and shortest-path reveal
// - Round IDs reject moves aimed at a round that has already been replaced
// - Games auto-reaped after configurable idle timeout
// - Random 8-char game IDs via crypto/rand, with server-side collision check
// - In-browser QR button to share the current session, backed by go-qrcode

package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/teamlink/games/degrees"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const loadTimeout = time.Minute

// Messages coming from clients
type ClientMessage struct {
	Type      string `json:"type"`                 // "new_round", "propose", "reveal", "hint", "players"
	Player    string `json:"player,omitempty"`     // propose
	RoundID   string `json:"round_id,omitempty"`   // propose
	MinGames  *int   `json:"min_games,omitempty"`  // new_round
	StartYear *int   `json:"start_year,omitempty"` // new_round
	EndYear   *int   `json:"end_year,omitempty"`   // new_round
}

// RoundStateMessage carries the full game snapshot; sent on connect and
// broadcast after every change.
type RoundStateMessage struct {
	Type string `json:"type"` // "round_state"
	degrees.View
	Message string `json:"message,omitempty"`
}

// MoveResultMessage is broadcast after an accepted move.
type MoveResultMessage struct {
	Type string `json:"type"` // "move_result"
	degrees.MoveResult
	Message string `json:"message"`
}

// RevealMessage answers "reveal" with the shortest chain.
type RevealMessage struct {
	Type  string         `json:"type"` // "reveal"
	Path  []degrees.Step `json:"path"`
	Steps int            `json:"steps"`
}

// HintMessage answers "hint" with the team history of both ends.
type HintMessage struct {
	Type    string               `json:"type"` // "hint"
	Players []degrees.PlayerHint `json:"players"`
}

// PlayersMessage answers "players" with every known name, for autocompletion.
type PlayersMessage struct {
	Type    string   `json:"type"` // "players"
	Players []string `json:"players"`
}

// FailureMessage is sent to the client whose request failed.
type FailureMessage struct {
	Type      string         `json:"type"` // "failure"
	Reason    degrees.Reason `json:"reason"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
}

func newFailureMessage(err error) FailureMessage {
	msg := FailureMessage{
		Type:    "failure",
		Reason:  degrees.ReasonOf(err),
		Message: err.Error(),
	}
	if ge, ok := err.(*degrees.Error); ok {
		msg.Retryable = ge.Retryable()
	}
	if msg.Reason == "" {
		msg.Reason = degrees.ReasonDataError
	}
	return msg
}

type Client struct {
	conn *websocket.Conn
	send chan any
	addr string
}

type request struct {
	client *Client
	msg    ClientMessage
}

type Hub struct {
	id     string
	source *datasetSource
	game   *degrees.Game

	clients map[*Client]bool

	register chan *Client
	unreg    chan *Client
	requests chan request
	quit     chan struct{}
	stopOnce sync.Once

	mu sync.RWMutex

	createdAt  time.Time
	lastActive time.Time
}

func newHub(cfg *Config, gameID string, source *datasetSource) *Hub {
	now := time.Now()
	return &Hub{
		id:         gameID,
		source:     source,
		game:       degrees.NewGame(degrees.Options{AutoComplete: cfg.autoComplete}),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		requests:   make(chan request),
		quit:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
	}
}

func (h *Hub) run(cfg *Config) {
	h.startRound(cfg, nil)

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.lastActive = time.Now()
			h.clients[c] = true
			h.sendLocked(c, h.roundStateLocked(""))
			h.mu.Unlock()

			logf(cfg, "GAMES: %s joined %s", c.addr, h.id)

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case req := <-h.requests:
			h.handle(cfg, req)

		case <-h.quit:
			return
		}
	}
}

func (h *Hub) handle(cfg *Config, req request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	switch req.msg.Type {
	case "new_round":
		h.startRoundLocked(cfg, req.client, &req.msg)
	case "propose":
		h.handleProposeLocked(cfg, req)
	case "reveal":
		steps, err := h.game.Reveal()
		if err != nil {
			h.sendLocked(req.client, newFailureMessage(err))
			return
		}
		h.sendLocked(req.client, RevealMessage{Type: "reveal", Path: steps, Steps: len(steps) - 1})
	case "hint":
		hints, err := h.game.Hint()
		if err != nil {
			h.sendLocked(req.client, newFailureMessage(err))
			return
		}
		h.sendLocked(req.client, HintMessage{Type: "hint", Players: hints})
	case "players":
		h.sendLocked(req.client, PlayersMessage{Type: "players", Players: h.game.Players()})
	}
}

func (h *Hub) startRound(cfg *Config, msg *ClientMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.startRoundLocked(cfg, nil, msg)
}

// startRoundLocked (re)loads the dataset if needed and draws a new pair. The
// outcome is broadcast; the requesting client additionally gets any failure.
func (h *Hub) startRoundLocked(cfg *Config, requester *Client, msg *ClientMessage) {
	if h.game.Graph() == nil {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		err := h.game.Load(ctx, h.source.Load)
		cancel()
		if err != nil {
			errorf(cfg, "GAMES: Loading dataset for %s: %v", h.id, err)
			h.broadcastLocked(h.roundStateLocked("Error: " + err.Error()))
			if requester != nil {
				h.sendLocked(requester, newFailureMessage(err))
			}
			return
		}
	}

	filters := h.nextFilters(cfg, msg)

	round, err := h.game.NewRound(filters)
	if err != nil {
		reason := degrees.ReasonOf(err)
		roundFailures.WithLabelValues(string(reason)).Inc()
		logf(cfg, "GAMES: No round for %s (%s): %v", h.id, reason, err)

		if reason == degrees.ReasonInvalidFilters {
			if requester != nil {
				h.sendLocked(requester, newFailureMessage(err))
			}
			return
		}

		h.broadcastLocked(h.roundStateLocked(err.Error()))
		if requester != nil {
			h.sendLocked(requester, newFailureMessage(err))
		}
		return
	}

	roundsStarted.Inc()
	logf(cfg, "GAMES: Round %s in %s: %q -> %q", round.ID, h.id, round.Start, round.End)

	h.broadcastLocked(h.roundStateLocked(fmt.Sprintf("Game started! Connect %s to %s.", round.Start, round.End)))
}

// nextFilters applies the fields present in msg on top of the current
// filters, or the configured defaults for the first round.
func (h *Hub) nextFilters(cfg *Config, msg *ClientMessage) degrees.Filters {
	f := h.game.Filters()
	if f == (degrees.Filters{}) {
		f = cfg.filters(h.game)
	}

	if msg == nil {
		return f
	}
	if msg.MinGames != nil {
		f.MinGames = *msg.MinGames
	}
	if msg.StartYear != nil {
		f.StartYear = *msg.StartYear
	}
	if msg.EndYear != nil {
		f.EndYear = *msg.EndYear
	}
	return f
}

func (h *Hub) handleProposeLocked(cfg *Config, req request) {
	res, err := h.game.Propose(req.msg.RoundID, req.msg.Player)
	if err != nil {
		movesRejected.WithLabelValues(string(degrees.ReasonOf(err))).Inc()
		h.sendLocked(req.client, newFailureMessage(err))
		return
	}

	movesAccepted.Inc()

	round := h.game.Round()
	text := res.Message(round.Start, round.End)

	if res.Won {
		roundsWon.Inc()
		winSteps.Observe(float64(res.PlayerSteps))
		logf(cfg, "GAMES: Round %s in %s won in %d steps (shortest %d)", round.ID, h.id, res.PlayerSteps, res.ShortestSteps)
	}

	h.broadcastLocked(MoveResultMessage{Type: "move_result", MoveResult: res, Message: text})
	h.broadcastLocked(h.roundStateLocked(text))
}

func (h *Hub) roundStateLocked(message string) RoundStateMessage {
	view := h.game.View()
	if message == "" {
		switch {
		case view.Failure != nil:
			message = view.Failure.Message
		case view.State == degrees.StateActive:
			message = fmt.Sprintf("Connect %s to %s.", view.Start, view.End)
		}
	}
	return RoundStateMessage{Type: "round_state", View: view, Message: message}
}

func (h *Hub) sendLocked(c *Client, msg any) {
	if c == nil {
		return
	}
	if _, ok := h.clients[c]; !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcastLocked(msg any) {
	for c := range h.clients {
		h.sendLocked(c, msg)
	}
}

// closeAll disconnects all clients of this hub and stops its loop (used by reaper).
func (h *Hub) closeAll() {
	h.stopOnce.Do(func() { close(h.quit) })

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// GameManager holds a set of hubs keyed by game ID, so each $path/$gameid
// is its own isolated session.
type GameManager struct {
	mu          sync.Mutex
	hubs        map[string]*Hub
	source      *datasetSource
	idleTimeout time.Duration
}

func newGameManager(idleTimeout time.Duration, source *datasetSource) *GameManager {
	gm := &GameManager{
		hubs:        make(map[string]*Hub),
		source:      source,
		idleTimeout: idleTimeout,
	}
	if idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

func (gm *GameManager) getHub(cfg *Config, gameID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	hub := newHub(cfg, gameID, gm.source)
	gm.hubs[gameID] = hub
	activeGames.Inc()
	go hub.run(cfg)
	return hub
}

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with existing games.
func (gm *GameManager) newGameID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reaperLoop periodically removes hubs that have been idle longer than idleTimeout.
func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-gm.idleTimeout)

		gm.mu.Lock()
		for id, hub := range gm.hubs {
			hub.mu.RLock()
			last := hub.lastActive
			hub.mu.RUnlock()

			if last.Before(cutoff) {
				delete(gm.hubs, id)
				activeGames.Dec()
				go hub.closeAll()
			}
		}
		gm.mu.Unlock()
	}
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		hub := gm.getHub(cfg, gameID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			errorf(cfg, "GAMES: Upgrade for %s failed: %v", realIP(r), err)
			return
		}

		client := &Client{
			conn: conn,
			send: make(chan any, 16),
			addr: realIP(r),
		}

		select {
		case hub.register <- client:
		case <-hub.quit:
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.quit:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "new_round", "propose", "reveal", "hint", "players":
			select {
			case h.requests <- request{client: c, msg: msg}:
			case <-h.quit:
				return
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("gameid")
	if gameID == "" {
		http.Error(w, "missing game id", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:gameid/qr; strip trailing "/qr" to get the game URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func getIndexHandler(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		data, err := assets.ReadFile("assets/teamlink/index.html")
		if err != nil {
			errs <- err
			http.Error(w, "missing client", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(data)
	}
}

// redirectNewGame handles GET /path by generating a new random game ID
// (with server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s/%s", path, gameID)
		http.Redirect(w, r, path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// registerTeamlinkGame sets up routes so that:
//   - $path                  → redirects to new random game (8-char ID)
//   - $path/:gameid          → HTML client
//   - $path/:gameid/ws       → WebSocket for that game
//   - $path/:gameid/qr       → PNG QR code for that game URL
func registerTeamlinkGame(cfg *Config, path string, mux *httprouter.Router, source *datasetSource, errs chan<- error) *GameManager {
	gm := newGameManager(cfg.sessionTimeout, source)

	mux.GET(cfg.prefix+path, redirectNewGame(cfg, cfg.prefix+path, gm))

	mux.GET(cfg.prefix+path+"/:gameid", getIndexHandler(cfg, errs))

	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm))

	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler)

	return gm
}
