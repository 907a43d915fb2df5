/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package degrees

import (
	"errors"
	"math/rand/v2"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxPairAttempts bounds the random trials SelectPair makes before giving up.
// Sparse or heavily filtered graphs may run out of attempts even though a
// valid pair exists; callers surface that as a retryable failure.
const MaxPairAttempts = 50

// Years preselected by DefaultFilters when the data covers them.
const (
	DefaultStartYear = 2010
	DefaultEndYear   = 2024
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Filters restrict which players may be drawn as the start or end of a round.
type Filters struct {
	MinGames  int `json:"min_games" validate:"gte=0"`
	StartYear int `json:"start_year"`
	EndYear   int `json:"end_year" validate:"gtefield=StartYear"`
}

// Validate checks the filter bounds.
func (f Filters) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return wrapError(ReasonInvalidFilters, err, "invalid filters")
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Field() {
		case "MinGames":
			msgs = append(msgs, "minimum games must not be negative")
		case "EndYear":
			msgs = append(msgs, "start year must not be after end year")
		default:
			msgs = append(msgs, fe.Error())
		}
	}

	return newError(ReasonInvalidFilters, "%s", strings.Join(msgs, "; "))
}

// DefaultFilters returns filters spanning DefaultStartYear..DefaultEndYear,
// falling back to the data's own bounds for either end it does not cover.
func DefaultFilters(g *Graph, minGames int) Filters {
	f := Filters{MinGames: minGames, StartYear: DefaultStartYear, EndYear: DefaultEndYear}

	from, to, ok := g.YearRange()
	if !ok {
		return f
	}

	if DefaultStartYear < from || DefaultStartYear > to {
		f.StartYear = from
	}
	if DefaultEndYear < from || DefaultEndYear > to {
		f.EndYear = to
	}
	if f.StartYear > f.EndYear {
		f.StartYear, f.EndYear = from, to
	}

	return f
}

// Eligible returns, in graph order, the players that satisfy f.
func Eligible(g *Graph, f Filters) []string {
	var players []string
	for _, p := range g.players.order {
		if g.gameCounts[p] < f.MinGames {
			continue
		}
		if !g.ActiveBetween(p, f.StartYear, f.EndYear) {
			continue
		}
		players = append(players, p)
	}
	return players
}

// Pair is a playable start/end combination and the chain that proved it.
type Pair struct {
	Start    string
	End      string
	Path     []string
	Eligible int
}

// SelectPair draws random eligible pairs until one is connected by a chain of
// at least two steps. Direct teammates are never returned.
func SelectPair(g *Graph, f Filters, rng *rand.Rand) (Pair, error) {
	eligible := Eligible(g, f)
	if len(eligible) < 2 {
		return Pair{Eligible: len(eligible)}, newError(ReasonNotEnoughPlayers,
			"not enough eligible players (%d); adjust the filters", len(eligible))
	}

	n := len(eligible)
	for range MaxPairAttempts {
		s := rng.IntN(n)
		e := rng.IntN(n - 1)
		if e >= s {
			e++
		}

		start, end := eligible[s], eligible[e]
		if g.Adjacent(start, end) {
			continue
		}

		path, ok := ShortestPath(g, start, end)
		if !ok || len(path) < 3 {
			continue
		}

		return Pair{Start: start, End: end, Path: path, Eligible: n}, nil
	}

	return Pair{Eligible: n}, newError(ReasonNoSuitablePair,
		"no suitable pair found under the current filters after %d attempts", MaxPairAttempts)
}
