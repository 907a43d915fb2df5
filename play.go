/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Seednode/teamlink/games/degrees"
)

func newPlayCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play a round in the terminal",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			game, err := loadGame(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			m := newPlayModel(game, cfg.filters(game))

			p := tea.NewProgram(m, tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}
}

// playModel is the bubbletea model for a terminal round. It owns its game
// outright, so no locking is needed.
type playModel struct {
	game    *degrees.Game
	filters degrees.Filters

	input  []rune
	status string
	failed bool

	reveal []degrees.Step
	hints  []degrees.PlayerHint
}

func newPlayModel(game *degrees.Game, filters degrees.Filters) playModel {
	m := playModel{game: game, filters: filters}
	m.newRound()
	return m
}

func (m *playModel) newRound() {
	m.input = nil
	m.reveal = nil
	m.hints = nil

	round, err := m.game.NewRound(m.filters)
	if err != nil {
		m.fail(err)
		return
	}

	m.failed = false
	m.status = fmt.Sprintf("Game started! Connect %s to %s.", round.Start, round.End)
}

func (m *playModel) fail(err error) {
	m.failed = true
	m.status = err.Error()
}

func (m *playModel) propose() {
	if m.game.State() == degrees.StateWon {
		m.newRound()
		return
	}

	round := m.game.Round()
	if round == nil {
		m.newRound()
		return
	}

	res, err := m.game.Propose(round.ID, string(m.input))
	if err != nil {
		m.fail(err)
		return
	}

	m.input = nil
	m.failed = false
	m.status = res.Message(round.Start, round.End)
	if res.Won {
		m.reveal = res.Shortest
	}
}

func (m playModel) Init() tea.Cmd {
	return nil
}

func (m playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter:
		m.propose()
	case tea.KeyCtrlN:
		m.newRound()
	case tea.KeyCtrlR:
		steps, err := m.game.Reveal()
		if err != nil {
			m.fail(err)
			break
		}
		m.reveal = steps
	case tea.KeyCtrlT:
		hints, err := m.game.Hint()
		if err != nil {
			m.fail(err)
			break
		}
		m.hints = hints
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case tea.KeySpace:
		m.input = append(m.input, ' ')
	case tea.KeyRunes:
		m.input = append(m.input, key.Runes...)
	}

	return m, nil
}

func (m playModel) View() string {
	var b strings.Builder

	view := m.game.View()

	b.WriteString(styleTitle.Render("teamlink"))
	b.WriteString(styleDim.Render(fmt.Sprintf("  %d eligible · seasons %d-%d · min games %d",
		view.Eligible, view.Filters.StartYear, view.Filters.EndYear, view.Filters.MinGames)))
	b.WriteString("\n")
	if view.Warning != "" {
		b.WriteString(styleWarning.Render(view.Warning))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if view.Start != "" {
		b.WriteString(fmt.Sprintf("Connect %s to %s\n\n", stylePlayer.Render(view.Start), stylePlayer.Render(view.End)))
		for i, step := range view.Path {
			b.WriteString(renderStep(i, step.Player, step.Citation))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if view.State == degrees.StateActive {
		b.WriteString("> " + string(m.input) + "█\n")
	}

	if m.status != "" {
		switch {
		case m.failed:
			b.WriteString(styleError.Render(iconError + " " + m.status))
		case view.State == degrees.StateWon:
			b.WriteString(styleSuccess.Render(iconSuccess + " " + m.status))
		default:
			b.WriteString(m.status)
		}
		b.WriteString("\n")
	}

	if len(m.hints) > 0 {
		b.WriteString("\n")
		for _, hint := range m.hints {
			b.WriteString(stylePlayer.Render(hint.Player))
			b.WriteString("\n")
			b.WriteString(renderTeams(hint.Teams))
			b.WriteString("\n")
		}
	}

	if len(m.reveal) > 0 {
		b.WriteString("\n")
		b.WriteString(styleTitle.Render(fmt.Sprintf("Shortest path (%d steps)", len(m.reveal)-1)))
		b.WriteString("\n")
		for i, step := range m.reveal {
			b.WriteString(renderStep(i, step.Player, step.Citation))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styleDim.Render("⏎ add player  ctrl+t hint  ctrl+r reveal  ctrl+n new round  esc quit"))

	return b.String()
}
