// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/sqlmatch/internal/cli/output"
)

// ConcertSingerTables is a Spider tables.json with one database.
const ConcertSingerTables = `[{
  "db_id": "concert_singer",
  "table_names_original": ["stadium", "singer", "concert", "singer_in_concert"],
  "column_names_original": [
    [-1, "*"],
    [0, "Stadium_ID"], [0, "Location"], [0, "Name"], [0, "Capacity"],
    [1, "Singer_ID"], [1, "Name"], [1, "Country"], [1, "Age"],
    [2, "concert_ID"], [2, "concert_Name"], [2, "Stadium_ID"], [2, "Year"],
    [3, "concert_ID"], [3, "Singer_ID"]
  ],
  "foreign_keys": [[11, 1], [14, 5], [13, 9]]
}]`

// DevCorpus holds three cases: an exact match, a partial match and a
// prediction that does not parse.
const DevCorpus = `- id: q1
  db_id: concert_singer
  question: How many singers do we have?
  gold: SELECT count(*) FROM singer
  predicted: select count(*) from singer
- id: q2
  db_id: concert_singer
  question: Show the name and country of singers older than 30.
  gold: SELECT name, country FROM singer WHERE age > 30
  predicted: SELECT name FROM singer WHERE age > 30
- id: q3
  db_id: concert_singer
  question: Which stadiums hosted a concert in 2014?
  gold: SELECT T2.name FROM concert AS T1 JOIN stadium AS T2 ON T1.stadium_id = T2.stadium_id WHERE T1.year = 2014
  predicted: SELECT name FROM
`

// SetupTestProject creates a temporary project with a config file, a
// Spider catalog, a corpus and two result tables.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	files := map[string]string{
		"sqlmatch.yaml": "tables: tables.json\nstate:\n  path: .sqlmatch/state.db\n",
		"tables.json":   ConcertSingerTables,
		"dev.yaml":      DevCorpus,
		"pred.json":     `[["country", "name"], ["France", "Joe"], ["Spain", "Ana"]]`,
		"label.json":    `[["name", "country"], ["Ana", "Spain"], ["Joe", "France"]]`,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte(body), 0o600); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}
	return tmpDir
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererText creates a new test renderer in text mode (simulated TTY).
func NewTestRendererText() *TestRenderer {
	return NewTestRenderer(output.ModeText, true)
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// NewTestRendererJSON creates a new test renderer in JSON mode.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	if n := strings.Count(md, "```"); n%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", n)
	}
	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
