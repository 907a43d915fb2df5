/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package degrees

import (
	"slices"
	"strings"
)

// nameSet is a set of names that remembers insertion order, so that
// iteration (and with it, BFS tie-breaking) is deterministic.
type nameSet struct {
	order []string
	index map[string]struct{}
}

func newNameSet() *nameSet {
	return &nameSet{index: make(map[string]struct{})}
}

func (s *nameSet) add(name string) bool {
	if _, ok := s.index[name]; ok {
		return false
	}
	s.index[name] = struct{}{}
	s.order = append(s.order, name)
	return true
}

func (s *nameSet) has(name string) bool {
	_, ok := s.index[name]
	return ok
}

func (s *nameSet) len() int { return len(s.order) }

// Graph is the teammate graph derived from a Dataset. It is built once by
// Normalize and never modified afterwards, so it is safe to share for reads.
type Graph struct {
	players       *nameSet
	gameCounts    map[string]int
	adjacency     map[string]*nameSet
	yearsActive   map[string]map[int]struct{}
	teamFirstYear map[string]map[string]int

	minYear, maxYear int
	hasYears         bool
}

func newGraph() *Graph {
	return &Graph{
		players:       newNameSet(),
		gameCounts:    make(map[string]int),
		adjacency:     make(map[string]*nameSet),
		yearsActive:   make(map[string]map[int]struct{}),
		teamFirstYear: make(map[string]map[string]int),
	}
}

func (g *Graph) observeYear(year int) {
	if !g.hasYears {
		g.minYear, g.maxYear, g.hasYears = year, year, true
		return
	}
	g.minYear = min(g.minYear, year)
	g.maxYear = max(g.maxYear, year)
}

// addAppearance records one player on one team in one match.
func (g *Graph) addAppearance(player, team string, year int, teammates []string) {
	g.players.add(player)
	g.gameCounts[player]++

	years, ok := g.yearsActive[player]
	if !ok {
		years = make(map[int]struct{})
		g.yearsActive[player] = years
	}
	years[year] = struct{}{}

	adj, ok := g.adjacency[player]
	if !ok {
		adj = newNameSet()
		g.adjacency[player] = adj
	}
	for _, mate := range teammates {
		if mate != player {
			adj.add(mate)
		}
	}

	teams, ok := g.teamFirstYear[player]
	if !ok {
		teams = make(map[string]int)
		g.teamFirstYear[player] = teams
	}
	if first, ok := teams[team]; !ok || year < first {
		teams[team] = year
	}
}

// Players returns every player name in first-seen order.
func (g *Graph) Players() []string {
	return slices.Clone(g.players.order)
}

// PlayerCount returns the number of distinct players.
func (g *Graph) PlayerCount() int { return g.players.len() }

// Has reports whether name appears in at least one valid roster entry.
func (g *Graph) Has(name string) bool { return g.players.has(name) }

// GameCount returns the number of matches name appeared in.
func (g *Graph) GameCount(name string) int { return g.gameCounts[name] }

// Neighbors returns name's teammates in insertion order.
func (g *Graph) Neighbors(name string) []string {
	adj, ok := g.adjacency[name]
	if !ok {
		return nil
	}
	return slices.Clone(adj.order)
}

// Adjacent reports whether a and b were teammates in at least one match.
func (g *Graph) Adjacent(a, b string) bool {
	adj, ok := g.adjacency[a]
	return ok && adj.has(b)
}

// YearsActive returns the sorted years in which name played.
func (g *Graph) YearsActive(name string) []int {
	years := make([]int, 0, len(g.yearsActive[name]))
	for y := range g.yearsActive[name] {
		years = append(years, y)
	}
	slices.Sort(years)
	return years
}

// ActiveBetween reports whether name played in any year in [from, to].
func (g *Graph) ActiveBetween(name string, from, to int) bool {
	for y := range g.yearsActive[name] {
		if y >= from && y <= to {
			return true
		}
	}
	return false
}

// TeamYear is a team a player appeared for and the first year they did.
type TeamYear struct {
	Team      string `json:"team"`
	FirstYear int    `json:"first_year"`
}

// Teams returns name's teams sorted by team name.
func (g *Graph) Teams(name string) []TeamYear {
	teams := make([]TeamYear, 0, len(g.teamFirstYear[name]))
	for team, year := range g.teamFirstYear[name] {
		teams = append(teams, TeamYear{Team: team, FirstYear: year})
	}
	slices.SortFunc(teams, func(a, b TeamYear) int {
		return strings.Compare(a.Team, b.Team)
	})
	return teams
}

// YearRange returns the earliest and latest year of any dated match.
func (g *Graph) YearRange() (from, to int, ok bool) {
	return g.minYear, g.maxYear, g.hasYears
}
