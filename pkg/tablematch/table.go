// Package tablematch decides whether two query result tables hold the same
// answer.
//
// Cells are coerced to comparable values, prediction columns are aligned to
// label columns by content, and rows are sorted unless order matters. Shape
// mismatches are reported as notes on the result rather than as errors.
package tablematch

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Table is a result table: a header row followed by data rows.
type Table [][]any

// Header returns the first row, or nil for an empty table.
func (t Table) Header() []any {
	if len(t) == 0 {
		return nil
	}
	return t[0]
}

// Rows returns the data rows.
func (t Table) Rows() [][]any {
	if len(t) < 2 {
		return nil
	}
	return t[1:]
}

// Width is the number of header columns.
func (t Table) Width() int { return len(t.Header()) }

// DefaultEpsilon is the rounding step for numeric cells.
const DefaultEpsilon = 1e-6

var dateLayouts = []string{"2006-01-02", "02/01/2006", "01/02/2006"}

// Coerce maps a raw cell to its comparable form: nil for absent values,
// int64 for integral numbers, float64 rounded to eps for other numbers, an
// ISO date for recognized dates, and trimmed text for everything else.
func Coerce(v any, eps float64) any {
	switch x := v.(type) {
	case nil:
		return nil
	case bool:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return number(float64(x), eps)
	case float32:
		return number(float64(x), eps)
	case float64:
		return number(x, eps)
	case json.Number:
		return Coerce(x.String(), eps)
	case []byte:
		return Coerce(string(x), eps)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.UTC().Format(time.RFC3339)
	case string:
		return coerceText(x, eps)
	default:
		return coerceText(fmt.Sprint(x), eps)
	}
}

func coerceText(s string, eps float64) any {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return number(f, eps)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(time.DateOnly)
		}
	}
	return s
}

// number returns f as int64 when it is integral within eps, otherwise f
// rounded to a multiple of eps.
func number(f, eps float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	r := math.Round(f)
	if math.Abs(f-r) < eps && math.Abs(r) < math.MaxInt64 {
		return int64(r)
	}
	scale := 1 / eps
	return math.Round(f*scale) / scale
}

// key renders a coerced cell for sorting and set comparison.
func key(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// normalize coerces every data cell, pads short rows with nil and trims the
// header. The input table is not modified.
func normalize(t Table, eps float64) Table {
	if len(t) == 0 {
		return nil
	}
	width := t.Width()
	out := make(Table, len(t))
	out[0] = make([]any, width)
	for i, h := range t.Header() {
		out[0][i] = strings.TrimSpace(key(h))
	}
	for r, row := range t.Rows() {
		cells := make([]any, width)
		for c := 0; c < width && c < len(row); c++ {
			cells[c] = Coerce(row[c], eps)
		}
		out[r+1] = cells
	}
	return out
}

// column returns the set of keys in column c.
func column(t Table, c int) map[string]struct{} {
	set := make(map[string]struct{})
	for _, row := range t.Rows() {
		set[key(row[c])] = struct{}{}
	}
	return set
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// project returns t with its columns reordered by order.
func project(t Table, order []int) Table {
	out := make(Table, len(t))
	for r, row := range t {
		cells := make([]any, len(order))
		for i, c := range order {
			cells[i] = row[c]
		}
		out[r] = cells
	}
	return out
}
