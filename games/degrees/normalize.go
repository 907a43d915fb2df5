/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package degrees

import "fmt"

// Report summarizes a Normalize run for diagnostic display.
type Report struct {
	Matches      int `json:"matches"`
	Skipped      int `json:"skipped"`
	SkippedTeams int `json:"skipped_teams"`
	Errors       int `json:"errors"`
	Players      int `json:"players"`

	// Failures holds one message per failed record, in dataset order.
	Failures []string `json:"-"`
}

// Normalize builds a fresh Graph from ds. A bad record or team never aborts
// the run; it is skipped and counted in the Report.
func Normalize(ds *Dataset) (*Graph, Report) {
	g := newGraph()
	report := Report{Errors: ds.Malformed}

	for _, rec := range ds.Matches {
		if err := normalizeRecord(g, rec, &report); err != nil {
			report.Errors++
			report.Failures = append(report.Failures, err.Error())
		}
	}

	report.Players = g.PlayerCount()

	return g, report
}

func normalizeRecord(g *Graph, rec MatchRecord, report *Report) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("match %q: %v", rec.ID, r)
		}
	}()

	year, ok := rec.ResolveYear()
	if !ok {
		report.Skipped++
		return nil
	}

	g.observeYear(year)
	report.Matches++

	for _, team := range rec.Teams {
		names := team.Players()
		if len(names) == 0 {
			if len(team.Entries) > 0 {
				report.SkippedTeams++
			}
			continue
		}

		for _, name := range names {
			g.addAppearance(name, team.Name, year, names)
		}
	}

	return nil
}
