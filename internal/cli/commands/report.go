package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlmatch/internal/bench"
	"github.com/leapstack-labs/sqlmatch/internal/cli/output"
	"github.com/leapstack-labs/sqlmatch/pkg/eval"
)

type metric struct {
	name  string
	value func(bench.ComponentSummary) float64
}

var reportMetrics = []metric{
	{"accuracy", func(s bench.ComponentSummary) float64 { return s.Accuracy }},
	{"recall", func(s bench.ComponentSummary) float64 { return s.Recall }},
	{"f1", func(s bench.ComponentSummary) float64 { return s.F1 }},
}

func levelHeader(first string) []string {
	header := []string{first}
	for _, l := range bench.Levels() {
		header = append(header, output.Title(l))
	}
	return header
}

// renderReport writes the level summaries, then the per-component tables
// when structural matching ran.
func renderReport(r *output.Renderer, rep *bench.Report, showPairs bool) error {
	if r.EffectiveMode() == output.ModeJSON {
		if !showPairs {
			trimmed := *rep
			trimmed.Pairs = nil
			return r.JSON(&trimmed)
		}
		return r.JSON(rep)
	}

	all, _ := rep.Level(bench.LevelAll)
	r.Header(1, fmt.Sprintf("Evaluation (%d pairs, %s)", all.Count, rep.EvalType))

	counts := []string{"count"}
	exec := []string{"execution"}
	exact := []string{"exact match"}
	for _, l := range rep.Levels {
		counts = append(counts, fmt.Sprintf("%d", l.Count))
		exec = append(exec, output.Score(l.Exec))
		exact = append(exact, output.Score(l.Exact))
	}
	rows := [][]string{counts}
	if rep.EvalType != bench.EvalMatch {
		rows = append(rows, exec)
	}
	if rep.EvalType != bench.EvalExec {
		rows = append(rows, exact)
	}
	r.Table(levelHeader(""), rows)

	if rep.EvalType != bench.EvalExec {
		for _, m := range reportMetrics {
			r.Header(2, "Partial matching "+m.name)
			var rows [][]string
			for _, comp := range eval.Components {
				row := []string{string(comp)}
				for _, l := range rep.Levels {
					row = append(row, output.Score(m.value(l.Components[comp])))
				}
				rows = append(rows, row)
			}
			r.Table(levelHeader("component"), rows)
		}
	}

	if showPairs {
		renderPairs(r, rep.Pairs)
	}

	if rep.PredErrors > 0 {
		r.Warning(fmt.Sprintf("%d predictions failed to parse and were scored as empty queries", rep.PredErrors))
	}
	if rep.Skipped > 0 {
		r.Warning(fmt.Sprintf("%d pairs were skipped", rep.Skipped))
	}
	return nil
}

func renderPairs(r *output.Renderer, pairs []bench.PairResult) {
	r.Header(2, "Pairs")
	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		execCell := "-"
		if p.Exec != nil {
			execCell = fmt.Sprintf("%t", p.Exec.Match)
		}
		note := p.PredError
		if p.Skipped {
			note = p.Error
		}
		rows = append(rows, []string{p.ID, p.DB, p.Hardness.String(), fmt.Sprintf("%t", p.Exact), execCell, oneLine(note)})
	}
	r.Table([]string{"id", "db", "hardness", "exact", "exec", "note"}, rows)
}

// oneLine keeps table cells on a single line.
func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 80 {
		return s[:77] + "..."
	}
	return s
}
