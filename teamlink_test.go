/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Seednode/teamlink/games/degrees"
)

type roundState struct {
	State   degrees.State    `json:"state"`
	RoundID string           `json:"round_id"`
	Start   string           `json:"start"`
	End     string           `json:"end"`
	Path    []degrees.Step   `json:"path"`
	Filters degrees.Filters  `json:"filters"`
	Failure *degrees.Failure `json:"failure"`
	Message string           `json:"message"`
}

func dial(t *testing.T, serverURL, gameID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(serverURL, "http") + "/teamlink/" + gameID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

// expect reads messages until one of type want arrives and decodes it into v.
func expect(t *testing.T, conn *websocket.Conn, want string, v any) {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", want, err)
		}

		var envelope struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			t.Fatalf("decoding envelope: %v", err)
		}
		if envelope.Type != want {
			continue
		}

		if err := json.Unmarshal(data, v); err != nil {
			t.Fatalf("decoding %s: %v", want, err)
		}
		return
	}
}

func send(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()

	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("sending %s: %v", msg.Type, err)
	}
}

func intPtr(n int) *int { return &n }

func TestGameOverWebSocket(t *testing.T) {
	srv := newTestServer(t, testConfig(t, chainDoc))
	conn := dial(t, srv.URL, "chaingame")

	var state roundState
	expect(t, conn, "round_state", &state)

	if state.State != degrees.StateActive {
		t.Fatalf("state = %s, want active (failure %+v)", state.State, state.Failure)
	}
	ends := []string{state.Start, state.End}
	slices.Sort(ends)
	if !slices.Equal(ends, []string{"Alice", "Carol"}) {
		t.Fatalf("round is %s -> %s, want Alice and Carol", state.Start, state.End)
	}
	if !strings.HasPrefix(state.Message, "Connect ") {
		t.Errorf("message = %q", state.Message)
	}

	t.Run("UnknownPlayer", func(t *testing.T) {
		send(t, conn, ClientMessage{Type: "propose", Player: "Zed", RoundID: state.RoundID})

		var failure FailureMessage
		expect(t, conn, "failure", &failure)
		if failure.Reason != degrees.ReasonInvalidMove {
			t.Errorf("reason = %s, want %s", failure.Reason, degrees.ReasonInvalidMove)
		}
		if failure.Message != `"Zed" not found` {
			t.Errorf("message = %q", failure.Message)
		}
	})

	t.Run("StaleRound", func(t *testing.T) {
		send(t, conn, ClientMessage{Type: "propose", Player: "Bob", RoundID: "stale"})

		var failure FailureMessage
		expect(t, conn, "failure", &failure)
		if failure.Reason != degrees.ReasonRoundOver {
			t.Errorf("reason = %s, want %s", failure.Reason, degrees.ReasonRoundOver)
		}
	})

	t.Run("Win", func(t *testing.T) {
		send(t, conn, ClientMessage{Type: "propose", Player: "Bob", RoundID: state.RoundID})

		var result MoveResultMessage
		expect(t, conn, "move_result", &result)
		if !result.Won || !result.AutoCompleted {
			t.Fatalf("result = %+v, want an auto-completed win", result.MoveResult)
		}
		if result.PlayerSteps != 2 || result.ShortestSteps != 2 {
			t.Errorf("steps = %d/%d, want 2/2", result.PlayerSteps, result.ShortestSteps)
		}
		if !strings.HasSuffix(result.Message, "That's the shortest possible path!") {
			t.Errorf("message = %q", result.Message)
		}

		var after roundState
		expect(t, conn, "round_state", &after)
		if after.State != degrees.StateWon {
			t.Errorf("state = %s, want won", after.State)
		}
		if len(after.Path) != 3 || after.Path[1].Citation == "" {
			t.Errorf("path = %+v, want 3 cited steps", after.Path)
		}
	})

	t.Run("Reveal", func(t *testing.T) {
		send(t, conn, ClientMessage{Type: "reveal"})

		var reveal RevealMessage
		expect(t, conn, "reveal", &reveal)
		if reveal.Steps != 2 || reveal.Path[1].Player != "Bob" {
			t.Errorf("reveal = %+v", reveal)
		}
	})

	t.Run("Players", func(t *testing.T) {
		send(t, conn, ClientMessage{Type: "players"})

		var players PlayersMessage
		expect(t, conn, "players", &players)
		if !slices.Equal(players.Players, []string{"Alice", "Bob", "Carol"}) {
			t.Errorf("players = %v", players.Players)
		}
	})

	t.Run("InvalidFilters", func(t *testing.T) {
		send(t, conn, ClientMessage{Type: "new_round", StartYear: intPtr(2030), EndYear: intPtr(2020)})

		var failure FailureMessage
		expect(t, conn, "failure", &failure)
		if failure.Reason != degrees.ReasonInvalidFilters {
			t.Errorf("reason = %s, want %s", failure.Reason, degrees.ReasonInvalidFilters)
		}
	})

	t.Run("NotEnoughPlayers", func(t *testing.T) {
		send(t, conn, ClientMessage{Type: "new_round", MinGames: intPtr(5)})

		var failure FailureMessage
		expect(t, conn, "failure", &failure)
		if failure.Reason != degrees.ReasonNotEnoughPlayers {
			t.Errorf("reason = %s, want %s", failure.Reason, degrees.ReasonNotEnoughPlayers)
		}
	})

	t.Run("NewRound", func(t *testing.T) {
		send(t, conn, ClientMessage{Type: "new_round", MinGames: intPtr(0)})

		var next roundState
		expect(t, conn, "round_state", &next)
		if next.State != degrees.StateActive {
			t.Fatalf("state = %s, want active", next.State)
		}
		if next.RoundID == state.RoundID {
			t.Error("new round reused the previous round ID")
		}
		if !strings.HasPrefix(next.Message, "Game started!") {
			t.Errorf("message = %q", next.Message)
		}
	})
}

func TestGameSharedBetweenConnections(t *testing.T) {
	srv := newTestServer(t, testConfig(t, chainDoc))

	first := dial(t, srv.URL, "shared")
	var a roundState
	expect(t, first, "round_state", &a)

	second := dial(t, srv.URL, "shared")
	var b roundState
	expect(t, second, "round_state", &b)

	if a.RoundID == "" || a.RoundID != b.RoundID {
		t.Fatalf("round IDs %q and %q, want the same round", a.RoundID, b.RoundID)
	}

	send(t, second, ClientMessage{Type: "propose", Player: "Bob", RoundID: b.RoundID})

	var result MoveResultMessage
	expect(t, first, "move_result", &result)
	if !result.Won {
		t.Error("first connection did not see the winning move")
	}

	other := dial(t, srv.URL, "elsewhere")
	var c roundState
	expect(t, other, "round_state", &c)
	if c.RoundID == a.RoundID {
		t.Error("separate game IDs share a round")
	}
}

func TestGameDataError(t *testing.T) {
	cfg := &Config{data: "does-not-exist.json", port: 8080}
	srv := newTestServer(t, cfg)
	conn := dial(t, srv.URL, "broken")

	var state roundState
	expect(t, conn, "round_state", &state)

	if state.State != degrees.StateError {
		t.Errorf("state = %s, want error", state.State)
	}
	if state.Failure == nil || state.Failure.Reason != degrees.ReasonDataError {
		t.Errorf("failure = %+v, want %s", state.Failure, degrees.ReasonDataError)
	}

	send(t, conn, ClientMessage{Type: "hint"})

	var failure FailureMessage
	expect(t, conn, "failure", &failure)
	if failure.Reason == "" {
		t.Error("hint without a round returned no reason")
	}
}
