/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package degrees

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// State is the lifecycle position of a Game.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateActive  State = "active"
	StateWon     State = "won"
	StateError   State = "error"
)

// Loader produces a decoded dataset, typically by reading a file or URL.
type Loader func(ctx context.Context) (*Dataset, error)

// Options tune a Game.
type Options struct {
	// AutoComplete finishes the chain as soon as the proposed player is a
	// teammate of the end player, appending the end player automatically.
	AutoComplete bool

	// Rand drives pair selection; nil uses a randomly seeded source.
	Rand *rand.Rand
}

// Step is one link of a chain: the player and the match that connects them
// to the previous player. The first step has no citation.
type Step struct {
	Player   string `json:"player"`
	Citation string `json:"citation,omitempty"`
}

// Round is one start/end puzzle. A new Round replaces the previous one.
type Round struct {
	ID    string
	Start string
	End   string
	Path  []Step

	shortest []string
}

func (r *Round) contains(name string) bool {
	return slices.ContainsFunc(r.Path, func(s Step) bool { return s.Player == name })
}

func (r *Round) last() string {
	return r.Path[len(r.Path)-1].Player
}

// Failure is a Reason and message pair suitable for display.
type Failure struct {
	Reason  Reason `json:"reason"`
	Message string `json:"message"`
}

func failureOf(err error) *Failure {
	if err == nil {
		return nil
	}
	return &Failure{Reason: ReasonOf(err), Message: err.Error()}
}

// Game owns the dataset, the graph derived from it, and the current round.
// It is not safe for concurrent use; callers serialize access.
type Game struct {
	opts Options
	rng  *rand.Rand

	state   State
	loading bool

	data   *Dataset
	graph  *Graph
	report Report

	filters  Filters
	eligible int
	round    *Round
	failure  error
}

// NewGame returns a Game in the Loading state with no data.
func NewGame(opts Options) *Game {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Game{opts: opts, rng: rng, state: StateLoading}
}

// State returns the current lifecycle state.
func (g *Game) State() State { return g.state }

// Graph returns the graph built by the last successful Load, or nil.
func (g *Game) Graph() *Graph { return g.graph }

// Dataset returns the dataset of the last successful Load, or nil.
func (g *Game) Dataset() *Dataset { return g.data }

// Report returns the normalization summary of the last successful Load.
func (g *Game) Report() Report { return g.report }

// Round returns the current round, or nil.
func (g *Game) Round() *Round { return g.round }

// Load replaces the dataset and graph. The previous round is discarded.
// A Load issued while another is outstanding fails with ReasonBusy.
func (g *Game) Load(ctx context.Context, load Loader) error {
	if g.loading {
		return newError(ReasonBusy, "dataset is already loading")
	}
	g.loading = true
	defer func() { g.loading = false }()

	g.state = StateLoading
	g.round = nil

	ds, err := load(ctx)
	if err == nil && ds == nil {
		err = newError(ReasonDataError, "dataset is empty")
	}
	if err != nil {
		g.state = StateError
		g.data, g.graph = nil, nil
		if ReasonOf(err) != ReasonDataError {
			err = wrapError(ReasonDataError, err, "loading dataset")
		}
		g.failure = err
		return err
	}

	graph, report := Normalize(ds)
	if graph.PlayerCount() == 0 {
		g.state = StateError
		g.data, g.graph = nil, nil
		g.failure = newError(ReasonDataError, "dataset contains no players")
		return g.failure
	}

	g.data, g.graph, g.report = ds, graph, report
	g.state = StateReady
	g.failure = nil

	return nil
}

// DefaultFilters returns the initial filters for the loaded data.
func (g *Game) DefaultFilters(minGames int) Filters {
	if g.graph == nil {
		return Filters{MinGames: minGames, StartYear: DefaultStartYear, EndYear: DefaultEndYear}
	}
	return DefaultFilters(g.graph, minGames)
}

// Filters returns the filters of the last round attempt.
func (g *Game) Filters() Filters { return g.filters }

// NewRound selects a fresh start/end pair under f. Invalid filters leave the
// game untouched; a failed selection leaves it Ready with no round.
func (g *Game) NewRound(f Filters) (*Round, error) {
	switch {
	case g.loading:
		return nil, newError(ReasonBusy, "dataset is still loading")
	case g.graph == nil:
		if g.failure != nil {
			return nil, g.failure
		}
		return nil, newError(ReasonDataError, "no dataset loaded")
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}

	g.state = StateLoading
	g.round = nil
	g.filters = f

	pair, err := SelectPair(g.graph, f, g.rng)
	g.eligible = pair.Eligible
	if err != nil {
		g.state = StateReady
		g.failure = err
		return nil, err
	}

	g.round = &Round{
		ID:       uuid.NewString(),
		Start:    pair.Start,
		End:      pair.End,
		Path:     []Step{{Player: pair.Start}},
		shortest: pair.Path,
	}
	g.state = StateActive
	g.failure = nil

	return g.round, nil
}

// MoveResult describes an accepted move.
type MoveResult struct {
	RoundID string `json:"round_id"`
	Added   []Step `json:"added"`

	// AutoCompleted is set when the end player was appended automatically.
	AutoCompleted bool `json:"auto_completed,omitempty"`

	Won           bool   `json:"won"`
	PlayerSteps   int    `json:"player_steps,omitempty"`
	ShortestSteps int    `json:"shortest_steps,omitempty"`
	Shortest      []Step `json:"shortest,omitempty"`

	// Warning is set when the shortest chain could not be recomputed after a win.
	Warning string `json:"warning,omitempty"`
}

// Message returns a short human-readable summary of the move.
func (m MoveResult) Message(start, end string) string {
	if !m.Won {
		if len(m.Added) == 0 {
			return ""
		}
		return fmt.Sprintf("%q added. Find a teammate.", m.Added[len(m.Added)-1].Player)
	}

	msg := fmt.Sprintf("You connected %s to %s in %d steps!", start, end, m.PlayerSteps)
	switch {
	case m.Warning != "":
		msg += " " + m.Warning
	case m.PlayerSteps == m.ShortestSteps:
		msg += " That's the shortest possible path!"
	default:
		msg += fmt.Sprintf(" (Shortest possible path: %d steps)", m.ShortestSteps)
	}
	return msg
}

func (g *Game) requireRound(allowWon bool) error {
	switch g.state {
	case StateLoading:
		return newError(ReasonBusy, "a new round is being prepared")
	case StateError:
		if g.failure != nil {
			return g.failure
		}
		return newError(ReasonDataError, "no dataset loaded")
	case StateReady:
		return newError(ReasonNoActiveRound, "no round in progress; adjust the filters or start a new round")
	case StateWon:
		if !allowWon {
			return newError(ReasonRoundOver, "this round is over; start a new round")
		}
	}
	return nil
}

// Propose appends name to the current chain if it is a known player, not
// already in the chain, and a teammate of the chain's last player.
// A non-empty roundID must match the current round.
func (g *Game) Propose(roundID, name string) (MoveResult, error) {
	if err := g.requireRound(false); err != nil {
		return MoveResult{}, err
	}

	r := g.round
	if roundID != "" && roundID != r.ID {
		return MoveResult{}, newError(ReasonRoundOver, "that round has ended; a new round is in progress")
	}

	name = strings.TrimSpace(name)
	last := r.last()

	switch {
	case name == "":
		return MoveResult{}, newError(ReasonInvalidMove, "enter a player")
	case !g.graph.Has(name):
		return MoveResult{}, newError(ReasonInvalidMove, "%q not found", name)
	case r.contains(name):
		return MoveResult{}, newError(ReasonInvalidMove, "%q is already in the path", name)
	case !g.graph.Adjacent(last, name):
		return MoveResult{}, newError(ReasonInvalidMove, "%q is not a teammate of %q", name, last)
	}

	result := MoveResult{RoundID: r.ID}
	result.Added = append(result.Added, g.appendStep(last, name))

	switch {
	case name == r.End:
	case g.opts.AutoComplete && g.graph.Adjacent(name, r.End):
		result.Added = append(result.Added, g.appendStep(name, r.End))
		result.AutoCompleted = true
	default:
		return result, nil
	}

	g.state = StateWon
	result.Won = true
	result.PlayerSteps = len(r.Path) - 1

	shortest, err := g.Reveal()
	if err != nil {
		result.Warning = "Could not find or display a shortest path."
		return result, nil
	}
	result.Shortest = shortest
	result.ShortestSteps = len(shortest) - 1

	return result, nil
}

func (g *Game) appendStep(from, to string) Step {
	citation, _ := Locate(g.data, from, to)
	step := Step{Player: to, Citation: citation}
	g.round.Path = append(g.round.Path, step)
	return step
}

// Reveal returns a shortest chain for the current round with a citation per
// link. The chain is computed once per round.
func (g *Game) Reveal() ([]Step, error) {
	if err := g.requireRound(true); err != nil {
		return nil, err
	}

	r := g.round
	if r.shortest == nil {
		path, ok := ShortestPath(g.graph, r.Start, r.End)
		if !ok {
			return nil, newError(ReasonNoPath, "no path found between %q and %q", r.Start, r.End)
		}
		r.shortest = path
	}

	return g.cite(r.shortest), nil
}

func (g *Game) cite(path []string) []Step {
	steps := make([]Step, len(path))
	for i, p := range path {
		steps[i].Player = p
		if i > 0 {
			steps[i].Citation, _ = Locate(g.data, path[i-1], p)
		}
	}
	return steps
}

// PlayerHint lists the teams a player appeared for.
type PlayerHint struct {
	Player string     `json:"player"`
	Teams  []TeamYear `json:"teams"`
}

// Hint returns the team history of the start and end players.
func (g *Game) Hint() ([]PlayerHint, error) {
	if err := g.requireRound(false); err != nil {
		return nil, err
	}

	return []PlayerHint{
		{Player: g.round.Start, Teams: g.graph.Teams(g.round.Start)},
		{Player: g.round.End, Teams: g.graph.Teams(g.round.End)},
	}, nil
}

// Players returns every known player name, sorted, for autocompletion.
func (g *Game) Players() []string {
	if g.graph == nil {
		return nil
	}
	players := g.graph.Players()
	slices.Sort(players)
	return players
}

// View is a snapshot of the game for presentation.
type View struct {
	State    State    `json:"state"`
	RoundID  string   `json:"round_id,omitempty"`
	Start    string   `json:"start,omitempty"`
	End      string   `json:"end,omitempty"`
	Path     []Step   `json:"path,omitempty"`
	Filters  Filters  `json:"filters"`
	Eligible int      `json:"eligible"`
	YearFrom int      `json:"year_from,omitempty"`
	YearTo   int      `json:"year_to,omitempty"`
	Players  int      `json:"players"`
	Report   Report   `json:"report"`
	Failure  *Failure `json:"failure,omitempty"`
	Warning  string   `json:"warning,omitempty"`
}

// View returns a snapshot of the current state.
func (g *Game) View() View {
	v := View{
		State:    g.state,
		Filters:  g.filters,
		Eligible: g.eligible,
		Report:   g.report,
		Failure:  failureOf(g.failure),
	}

	if g.graph != nil {
		v.YearFrom, v.YearTo, _ = g.graph.YearRange()
		v.Players = g.graph.PlayerCount()
	}

	if g.report.Errors > 0 {
		v.Warning = fmt.Sprintf("Warning: errors occurred processing %d matches.", g.report.Errors)
	}

	if r := g.round; r != nil {
		v.RoundID = r.ID
		v.Start = r.Start
		v.End = r.End
		v.Path = slices.Clone(r.Path)
	}

	return v
}
