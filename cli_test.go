/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Seednode/teamlink/games/degrees"
)

func loadedGame(t *testing.T, doc string) *degrees.Game {
	t.Helper()

	game, err := loadGame(t.Context(), testConfig(t, doc))
	if err != nil {
		t.Fatalf("loadGame: %v", err)
	}
	return game
}

func TestPrintPath(t *testing.T) {
	game := loadedGame(t, chainDoc)

	var out bytes.Buffer
	if err := printPath(&out, game, "Alice", "Carol"); err != nil {
		t.Fatalf("printPath: %v", err)
	}

	for _, want := range []string{"Alice", "Bob", "Carol", "(2019 Rd 1: Hawks v Owls)", "(2020 Rd 5: Lions v Bears)", "2 steps"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output does not contain %q:\n%s", want, out.String())
		}
	}
}

func TestPrintPathErrors(t *testing.T) {
	game := loadedGame(t, `{
		"2019-1-v-Hawks-v-Owls": {"teams": {"Hawks": [{"name": "Alice"}, {"name": "Bob"}]}},
		"2020-1-v-Lions-v-Bears": {"teams": {"Lions": [{"name": "Carol"}, {"name": "Dave"}]}}
	}`)

	tests := []struct {
		name     string
		from, to string
		want     string
	}{
		{"UnknownStart", "Zed", "Bob", `"Zed" not found`},
		{"UnknownEnd", "Alice", "Zed", `"Zed" not found`},
		{"Disconnected", "Alice", "Dave", `no path found between "Alice" and "Dave"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := printPath(&bytes.Buffer{}, game, tt.from, tt.to)
			if err == nil || err.Error() != tt.want {
				t.Errorf("printPath error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestPrintHint(t *testing.T) {
	game := loadedGame(t, chainDoc)

	var out bytes.Buffer
	if err := printHint(&out, game.Graph(), "Bob"); err != nil {
		t.Fatalf("printHint: %v", err)
	}

	for _, want := range []string{"Bob", "Hawks", "Lions", "2019", "2020", "2019-2020"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output does not contain %q:\n%s", want, out.String())
		}
	}

	if err := printHint(&out, game.Graph(), "Zed"); err == nil {
		t.Error("printHint of an unknown player succeeded")
	}
}

func typeKeys(m playModel, s string) playModel {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return next.(playModel)
}

func press(m playModel, key tea.KeyType) (playModel, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: key})
	return next.(playModel), cmd
}

func TestPlayModel(t *testing.T) {
	game := loadedGame(t, chainDoc)
	m := newPlayModel(game, degrees.DefaultFilters(game.Graph(), 0))

	if game.State() != degrees.StateActive {
		t.Fatalf("state = %s, want active: %s", game.State(), m.status)
	}
	if !strings.Contains(m.View(), "Connect ") {
		t.Error("view does not show the round")
	}

	m, _ = press(m, tea.KeyCtrlT)
	if len(m.hints) != 2 {
		t.Errorf("hints = %d, want 2", len(m.hints))
	}

	m = typeKeys(m, "Zed")
	m, _ = press(m, tea.KeyEnter)
	if !m.failed || m.status != `"Zed" not found` {
		t.Errorf("status = %q (failed %v)", m.status, m.failed)
	}

	m, _ = press(m, tea.KeyBackspace)
	m, _ = press(m, tea.KeyBackspace)
	m, _ = press(m, tea.KeyBackspace)
	if len(m.input) != 0 {
		t.Fatalf("input = %q after backspace", string(m.input))
	}

	m = typeKeys(m, "Bob")
	m, _ = press(m, tea.KeyEnter)
	if game.State() != degrees.StateWon {
		t.Fatalf("state = %s, want won: %s", game.State(), m.status)
	}
	if !strings.HasPrefix(m.status, "You connected") {
		t.Errorf("status = %q", m.status)
	}
	if len(m.reveal) != 3 {
		t.Errorf("reveal = %v, want 3 steps", m.reveal)
	}

	m, _ = press(m, tea.KeyEnter)
	if game.State() != degrees.StateActive || len(m.reveal) != 0 {
		t.Errorf("enter after a win did not start a new round: %s", game.State())
	}

	if _, cmd := press(m, tea.KeyEsc); cmd == nil {
		t.Error("esc did not quit")
	}
}
