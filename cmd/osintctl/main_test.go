package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/osintdesk/internal/core"
	"github.com/JonMunkholm/osintdesk/internal/reference"
	"github.com/fatih/color"
)

func writeFiles(t *testing.T, files map[string]string) map[string]string {
	t.Helper()
	dir := t.TempDir()
	paths := make(map[string]string, len(files))
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		paths[name] = p
	}
	return paths
}

func setup(t *testing.T) {
	t.Helper()
	color.NoColor = true
	t.Setenv("SEARCH_REMOTE_URL", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "")
	t.Setenv("LOG_FILE", "")
	t.Setenv("LOG_LEVEL", "error")
}

func TestRun_Search(t *testing.T) {
	setup(t)
	p := writeFiles(t, map[string]string{
		"people.csv": "name,city\nIvan,Moscow\nAnna,Kazan\nOleg,moscow\n",
		"notes.txt":  "met Ivan in Moscow\nnothing here\n",
		"scan.pdf":   "%PDF",
	})

	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"search", "mosc", p["people.csv"], p["notes.txt"], p["scan.pdf"]}, &out, &errOut)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr %s", code, errOut.String())
	}

	for _, want := range []string{"Found 3 records in 2 databases", "== people.csv (2)", "== notes.txt (1)", "- name: Ivan", "met Ivan in Moscow"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("stdout missing %q:\n%s", want, out.String())
		}
	}
	if !strings.Contains(errOut.String(), "✗ scan.pdf") || !strings.Contains(errOut.String(), "FILE002") {
		t.Errorf("stderr missing rejected file:\n%s", errOut.String())
	}
}

func TestRun_SearchJSON(t *testing.T) {
	setup(t)
	p := writeFiles(t, map[string]string{"a.json": `[{"name":"Ivan"},{"name":"Anna"}]`})

	var out, errOut bytes.Buffer
	if code := run(context.Background(), []string{"search", "--json", "anna", p["a.json"]}, &out, &errOut); code != 0 {
		t.Fatalf("exit code = %d, stderr %s", code, errOut.String())
	}

	var res struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Total != 1 {
		t.Errorf("total = %d, want 1", res.Total)
	}
}

func TestRun_Errors(t *testing.T) {
	setup(t)
	p := writeFiles(t, map[string]string{"a.txt": "x\n"})

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantErr  string
	}{
		{"no command", nil, 2, "Usage"},
		{"unknown command", []string{"frobnicate"}, 2, "unknown command"},
		{"search without files", []string{"search", "ivan"}, 2, "at least one file"},
		{"empty query", []string{"search", " ", p["a.txt"]}, 1, "VAL001"},
		{"seed without database", []string{"seed", p["a.txt"]}, 1, "DATABASE_URL"},
		{"remove needs source", []string{"remove"}, 2, "exactly one source"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			code := run(context.Background(), tt.args, &out, &errOut)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
			if !strings.Contains(errOut.String(), tt.wantErr) {
				t.Errorf("stderr = %q, want it to contain %q", errOut.String(), tt.wantErr)
			}
		})
	}
}

func TestPrintResult_DisplayLimit(t *testing.T) {
	color.NoColor = true
	matches := make([]core.Record, 12)
	for i := range matches {
		matches[i] = core.NewTextRecord("hit")
	}
	res := &core.LookupResult{
		Query:   "hit",
		Results: []core.DatabaseMatches{{Database: "a.txt", Source: core.SourceLocal, Matches: matches}},
		Total:   12,
	}

	var limited, all bytes.Buffer
	printResult(&limited, res, false)
	printResult(&all, res, true)

	if got := strings.Count(limited.String(), "  hit\n"); got != core.DisplayLimit {
		t.Errorf("limited output has %d matches, want %d", got, core.DisplayLimit)
	}
	if !strings.Contains(limited.String(), "... and 2 more") {
		t.Error("limited output missing remainder line")
	}
	if got := strings.Count(all.String(), "  hit\n"); got != 12 || strings.Contains(all.String(), "more") {
		t.Errorf("--all output has %d matches", got)
	}
}

func TestPrintSources(t *testing.T) {
	color.NoColor = true

	var empty bytes.Buffer
	printSources(&empty, nil)
	if !strings.Contains(empty.String(), "reference store is empty") {
		t.Errorf("empty store output = %q", empty.String())
	}

	var out bytes.Buffer
	printSources(&out, []reference.SourceCount{
		{Source: "leak-2021.csv", Records: 4200, ImportedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		{Source: "phones.txt", Records: 7, ImportedAt: time.Date(2024, 6, 2, 8, 30, 0, 0, time.UTC)},
	})
	got := out.String()
	for _, want := range []string{"SOURCE", "RECORDS", "IMPORTED", "leak-2021.csv", "4200", "phones.txt"} {
		if !strings.Contains(got, want) {
			t.Errorf("table missing %q:\n%s", want, got)
		}
	}
	if strings.Index(got, "leak-2021.csv") > strings.Index(got, "phones.txt") {
		t.Error("rows not printed in store order")
	}
}
