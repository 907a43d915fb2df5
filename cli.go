/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Seednode/teamlink/games/degrees"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

// loadGame reads the configured dataset into a fresh game.
func loadGame(ctx context.Context, cfg *Config) (*degrees.Game, error) {
	game := degrees.NewGame(degrees.Options{AutoComplete: cfg.autoComplete})
	if err := game.Load(ctx, newDatasetSource(cfg).Load); err != nil {
		return nil, err
	}
	return game, nil
}

func reportWarning(w io.Writer, game *degrees.Game) {
	if warning := game.View().Warning; warning != "" {
		printWarning(w, "%s", warning)
	}
}

func newPathCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "path <player> <player>",
		Short: "Print the shortest chain of teammates between two players",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			game, err := loadGame(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			return printPath(cmd.OutOrStdout(), game, strings.TrimSpace(args[0]), strings.TrimSpace(args[1]))
		},
	}
}

func printPath(w io.Writer, game *degrees.Game, from, to string) error {
	graph := game.Graph()
	for _, name := range []string{from, to} {
		if !graph.Has(name) {
			return fmt.Errorf("%q not found", name)
		}
	}

	reportWarning(w, game)

	path, ok := degrees.ShortestPath(graph, from, to)
	if !ok {
		return fmt.Errorf("no path found between %q and %q", from, to)
	}

	fmt.Fprintln(w, styleTitle.Render(fmt.Sprintf("%s %s %s", from, iconArrow, to)))
	for i, player := range path {
		citation := ""
		if i > 0 {
			citation, _ = degrees.Locate(game.Dataset(), path[i-1], player)
		}
		fmt.Fprintln(w, renderStep(i, player, citation))
	}
	printSuccess(w, "%d steps", len(path)-1)

	return nil
}

func newHintCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "hint <player>",
		Short: "Print the teams a player appeared for",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			game, err := loadGame(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			return printHint(cmd.OutOrStdout(), game.Graph(), strings.TrimSpace(args[0]))
		},
	}
}

func printHint(w io.Writer, graph *degrees.Graph, name string) error {
	if !graph.Has(name) {
		return fmt.Errorf("%q not found", name)
	}

	fmt.Fprintln(w, styleTitle.Render(name))
	printKeyValue(w, "Games", strconv.Itoa(graph.GameCount(name)))

	if years := graph.YearsActive(name); len(years) > 0 {
		printKeyValue(w, "Seasons", fmt.Sprintf("%d-%d", years[0], years[len(years)-1]))
	}
	printKeyValue(w, "Teammates", strconv.Itoa(len(graph.Neighbors(name))))

	fmt.Fprintln(w, renderTeams(graph.Teams(name)))

	return nil
}

func renderTeams(teams []degrees.TeamYear) string {
	rows := make([][]string, 0, len(teams))
	for _, t := range teams {
		rows = append(rows, []string{t.Team, strconv.Itoa(t.FirstYear)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Team", "First season").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Render()
}
