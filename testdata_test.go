/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"os"
	"path/filepath"
	"testing"
)

// chainDoc links Alice to Carol through Bob and nothing else, so every round
// drawn from it runs between Alice and Carol.
const chainDoc = `{
	"2019-1-v-Hawks-v-Owls": {"year": 2019, "teams": {
		"Hawks": [{"name": "Alice"}, {"name": "Bob"}]
	}},
	"2020-5-v-Lions-v-Bears": {"teams": {
		"Lions": [{"name": "Bob"}, {"name": "Carol"}]
	}}
}`

func writeDataset(t *testing.T, doc string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("writing dataset: %v", err)
	}
	return path
}

func testConfig(t *testing.T, doc string) *Config {
	t.Helper()

	return &Config{
		autoComplete: true,
		bind:         "127.0.0.1",
		data:         writeDataset(t, doc),
		port:         8080,
	}
}
