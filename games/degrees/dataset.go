/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package degrees

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

var errNotObject = errors.New("expected a JSON object")

// PlayerEntry is one roster line. Entries that are not objects, or whose name
// is not a string, decode with an empty Name and are ignored downstream.
type PlayerEntry struct {
	Name string
}

func (p *PlayerEntry) UnmarshalJSON(b []byte) error {
	p.Name = ""

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil
	}

	raw, ok := obj["name"]
	if !ok {
		return nil
	}

	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		p.Name = name
	}

	return nil
}

// Team is a named roster within one match.
type Team struct {
	Name    string
	Entries []PlayerEntry
}

// Players returns the trimmed, non-empty names on the roster, in roster order,
// each name once.
func (t Team) Players() []string {
	names := make([]string, 0, len(t.Entries))
	for _, e := range t.Entries {
		name := strings.TrimSpace(e.Name)
		if name == "" || slices.Contains(names, name) {
			continue
		}
		names = append(names, name)
	}
	return names
}

// MatchRecord is one historical match as found in the dataset.
type MatchRecord struct {
	ID    string
	Year  *int
	Teams []Team
}

// ResolveYear prefers the explicit year and falls back to the leading digits
// of the identifier ("2019-12-v-..." -> 2019).
func (m MatchRecord) ResolveYear() (int, bool) {
	if m.Year != nil {
		return *m.Year, true
	}
	return leadingYear(m.ID)
}

func leadingYear(id string) (int, bool) {
	head, _, _ := strings.Cut(strings.TrimSpace(id), "-")

	end := 0
	for end < len(head) && head[end] >= '0' && head[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}

	year, err := strconv.Atoi(head[:end])
	if err != nil {
		return 0, false
	}
	return year, true
}

// Dataset holds every match in document order.
type Dataset struct {
	Matches []MatchRecord

	// Malformed counts match values that were present but not objects.
	Malformed int
}

// DecodeDataset reads a JSON object of match ID to match record.
func DecodeDataset(r io.Reader) (*Dataset, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, wrapError(ReasonDataError, err, "reading dataset")
	}

	ds := &Dataset{}
	if err := json.Unmarshal(body, ds); err != nil {
		return nil, wrapError(ReasonDataError, err, "decoding dataset")
	}
	if len(ds.Matches) == 0 && ds.Malformed == 0 {
		return nil, newError(ReasonDataError, "dataset contains no matches")
	}

	return ds, nil
}

func (d *Dataset) UnmarshalJSON(b []byte) error {
	members, err := orderedMembers(b)
	if err != nil {
		return err
	}

	d.Matches = make([]MatchRecord, 0, len(members))
	d.Malformed = 0

	for _, m := range members {
		rec, ok, err := decodeRecord(m.key, m.value)
		switch {
		case err != nil:
			d.Malformed++
		case ok:
			d.Matches = append(d.Matches, rec)
		}
	}

	return nil
}

type rawRecord struct {
	Year  json.RawMessage `json:"year"`
	Teams json.RawMessage `json:"teams"`
}

// decodeRecord returns ok=false without error for null records, which are
// skipped silently.
func decodeRecord(id string, raw json.RawMessage) (MatchRecord, bool, error) {
	if isNull(raw) {
		return MatchRecord{}, false, nil
	}

	var r rawRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return MatchRecord{}, false, fmt.Errorf("match %q: %w", id, err)
	}

	rec := MatchRecord{ID: id}

	var year float64
	if len(r.Year) > 0 && json.Unmarshal(r.Year, &year) == nil && year == float64(int(year)) {
		y := int(year)
		rec.Year = &y
	}

	if len(r.Teams) == 0 || isNull(r.Teams) {
		return rec, true, nil
	}

	teams, err := orderedMembers(r.Teams)
	if err != nil {
		// Teams that are not an object leave the match without rosters.
		return rec, true, nil
	}

	for _, t := range teams {
		var entries []PlayerEntry
		if err := json.Unmarshal(t.value, &entries); err != nil || entries == nil {
			continue
		}
		rec.Teams = append(rec.Teams, Team{Name: t.key, Entries: entries})
	}

	return rec, true, nil
}

type member struct {
	key   string
	value json.RawMessage
}

// orderedMembers decodes a JSON object into its members in document order.
// A repeated key keeps its first position and its last value.
func orderedMembers(b []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(b))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errNotObject
	}

	var members []member
	seen := make(map[string]int)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errNotObject
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}

		if i, dup := seen[key]; dup {
			members[i].value = value
			continue
		}
		seen[key] = len(members)
		members = append(members, member{key: key, value: value})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return members, nil
}

func isNull(b []byte) bool {
	return string(bytes.TrimSpace(b)) == "null"
}
