package tablematch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"
)

// Options tune a comparison.
type Options struct {
	// Epsilon is the numeric rounding step. Zero means DefaultEpsilon.
	Epsilon float64 `json:"epsilon,omitempty"`
	// CompareHeader includes column names in the comparison.
	CompareHeader bool `json:"compare_header,omitempty"`
	// Ordered keeps row order significant.
	Ordered bool `json:"ordered,omitempty"`
}

// Result is the outcome of a table comparison.
type Result struct {
	Match bool     `json:"match"`
	Pred  Table    `json:"pred"`
	Label Table    `json:"label"`
	Notes []string `json:"notes,omitempty"`
}

func (r *Result) notef(format string, args ...any) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// Match compares a predicted result table against a label table. The
// question is used to decide whether surplus prediction columns were asked
// for.
func Match(pred, label Table, question string, opts Options) Result {
	eps := opts.Epsilon
	if eps <= 0 {
		eps = DefaultEpsilon
	}

	var res Result
	switch {
	case len(pred) == 0 && len(label) == 0:
		res.Match = true
		return res
	case len(pred) == 0:
		res.Label = normalize(label, eps)
		res.notef("prediction is empty")
		return res
	case len(label) == 0:
		res.Pred = normalize(pred, eps)
		res.notef("label is empty")
		return res
	}

	p, l := normalize(pred, eps), normalize(label, eps)
	p = align(p, l)

	if !opts.Ordered {
		sortRows(p)
		sortRows(l)
	}
	res.Label = l

	if p.Width() < l.Width() {
		res.Pred = p
		res.notef("prediction has %d columns, label has %d", p.Width(), l.Width())
		return res
	}
	if p.Width() > l.Width() {
		var ok bool
		if p, ok = dropSurplus(&res, p, l.Width(), question); !ok {
			res.Pred = p
			return res
		}
	}
	res.Pred = p

	if len(p.Rows()) != len(l.Rows()) {
		res.notef("prediction has %d rows, label has %d", len(p.Rows()), len(l.Rows()))
		return res
	}
	if opts.CompareHeader {
		if diff := cmp.Diff(l.Header(), p.Header()); diff != "" {
			res.notef("header differs (-label +pred):\n%s", diff)
			return res
		}
	}
	for i := range l.Rows() {
		if diff := cmp.Diff(l.Rows()[i], p.Rows()[i]); diff != "" {
			res.notef("row %d differs (-label +pred):\n%s", i+1, diff)
			return res
		}
	}
	res.Match = true
	return res
}

// align reorders prediction columns so that each label column is followed
// by the first unused prediction column holding the same set of values.
// Prediction columns that match nothing keep their relative order at the
// end.
func align(pred, label Table) Table {
	used := make([]bool, pred.Width())
	order := make([]int, 0, pred.Width())
	for lc := 0; lc < label.Width(); lc++ {
		want := column(label, lc)
		for pc := 0; pc < pred.Width(); pc++ {
			if !used[pc] && sameSet(want, column(pred, pc)) {
				used[pc] = true
				order = append(order, pc)
				break
			}
		}
	}
	for pc := range used {
		if !used[pc] {
			order = append(order, pc)
		}
	}
	return project(pred, order)
}

// dropSurplus removes columns past width when the question asks for every
// one of them. It reports false when any surplus column was not requested.
func dropSurplus(res *Result, t Table, width int, question string) (Table, bool) {
	q := parseQuestion(question)
	header := t.Header()
	ok := true
	for c := width; c < len(header); c++ {
		name := key(header[c])
		if q.requests(name) {
			res.notef("dropped surplus column %q named in the question", name)
			continue
		}
		res.notef("surplus column %q was not requested", name)
		ok = false
	}
	if !ok {
		return t, false
	}
	keep := make([]int, width)
	for i := range keep {
		keep[i] = i
	}
	return project(t, keep), true
}

// sortRows orders data rows by their rendered cells, leaving the header in
// place.
func sortRows(t Table) {
	rows := t.Rows()
	sort.SliceStable(rows, func(i, j int) bool {
		return rowKey(rows[i]) < rowKey(rows[j])
	})
}

func rowKey(row []any) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = key(v)
	}
	return strings.Join(parts, "\x1f")
}
