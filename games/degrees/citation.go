/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package degrees

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var errMatchID = errors.New("unrecognized match identifier")

// MatchID is the parsed form of identifiers such as "2019-12-v-TeamA-v-TeamB".
type MatchID struct {
	Year  string
	Round string
	Home  string
	Away  string
}

func (m MatchID) String() string {
	return fmt.Sprintf("%s Rd %s: %s v %s", m.Year, m.Round, m.Home, m.Away)
}

func isVersus(s string) bool {
	return strings.EqualFold(s, "v") || strings.EqualFold(s, "vs")
}

// ParseMatchID accepts these shapes:
//
//	2019-12-v-TeamA-v-TeamB     leading marker ends the round
//	2019-12-TeamA-v-TeamB       single-token home team
//	2019-EF-1-TeamA-v-TeamB     multi-part round
//	2019-Trial-TeamA-v-TeamB    trial game; round labelled by the trial segment
func ParseMatchID(id string) (MatchID, error) {
	parts := strings.Split(strings.TrimSpace(id), "-")
	if len(parts) < 4 {
		return MatchID{}, fmt.Errorf("%w: %q", errMatchID, id)
	}

	year := parts[0]
	if _, ok := leadingYear(year); !ok {
		return MatchID{}, fmt.Errorf("%w: %q", errMatchID, id)
	}

	var versus []int
	for i := 1; i < len(parts); i++ {
		if isVersus(parts[i]) {
			versus = append(versus, i)
		}
	}
	if len(versus) == 0 {
		return MatchID{}, fmt.Errorf("%w: %q", errMatchID, id)
	}

	sep := versus[len(versus)-1]

	var round []string
	var home string
	if len(versus) > 1 {
		marker := versus[0]
		round = parts[1:marker]
		home = strings.Join(parts[marker+1:sep], "-")
	} else {
		if sep < 3 {
			return MatchID{}, fmt.Errorf("%w: %q", errMatchID, id)
		}
		round = parts[1 : sep-1]
		home = parts[sep-1]
	}
	away := strings.Join(parts[sep+1:], "-")

	if len(round) == 0 || home == "" || away == "" || slices.Contains(round, "") {
		return MatchID{}, fmt.Errorf("%w: %q", errMatchID, id)
	}

	label := strings.Join(round, "-")
	for _, seg := range round {
		if strings.Contains(strings.ToLower(seg), "trial") {
			label = seg
			break
		}
	}

	return MatchID{Year: year, Round: label, Home: home, Away: away}, nil
}

// Citation formats a match identifier for display, falling back to the raw
// identifier when it cannot be parsed.
func Citation(id string) string {
	m, err := ParseMatchID(id)
	if err != nil {
		return fmt.Sprintf("(Match: %s)", id)
	}
	return "(" + m.String() + ")"
}

// Locate returns the citation of the first match, in dataset order, in which
// a and b played on the same team.
func Locate(ds *Dataset, a, b string) (string, bool) {
	if ds == nil || a == "" || b == "" {
		return "", false
	}

	for _, rec := range ds.Matches {
		for _, team := range rec.Teams {
			names := team.Players()
			if slices.Contains(names, a) && slices.Contains(names, b) {
				return Citation(rec.ID), true
			}
		}
	}

	return "", false
}
