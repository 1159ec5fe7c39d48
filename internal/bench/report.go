package bench

import (
	"time"

	"github.com/leapstack-labs/sqlmatch/pkg/eval"
	"github.com/leapstack-labs/sqlmatch/pkg/hardness"
)

// LevelAll is the level aggregating every tier.
const LevelAll = "all"

// ComponentTotals are running sums for one component. Accuracy and
// precision are only defined for pairs with predicted elements, recall for
// pairs with label elements, so each keeps its own count.
type ComponentTotals struct {
	AccSum    float64 `json:"acc_sum"`
	AccCount  int     `json:"acc_count"`
	RecSum    float64 `json:"rec_sum"`
	RecCount  int     `json:"rec_count"`
	PrecSum   float64 `json:"prec_sum"`
	PrecCount int     `json:"prec_count"`
}

func (c ComponentTotals) merge(o ComponentTotals) ComponentTotals {
	return ComponentTotals{
		AccSum:    c.AccSum + o.AccSum,
		AccCount:  c.AccCount + o.AccCount,
		RecSum:    c.RecSum + o.RecSum,
		RecCount:  c.RecCount + o.RecCount,
		PrecSum:   c.PrecSum + o.PrecSum,
		PrecCount: c.PrecCount + o.PrecCount,
	}
}

// Totals accumulate pair results for one level.
type Totals struct {
	Count       int                                `json:"count"`
	Exact       int                                `json:"exact"`
	ExecMatched int                                `json:"exec_matched"`
	ExecCount   int                                `json:"exec_count"`
	PredErrors  int                                `json:"pred_errors"`
	Components  map[eval.Component]ComponentTotals `json:"components"`
}

// Add folds one pair into the totals. Skipped pairs are ignored.
func (t *Totals) Add(r PairResult) {
	if r.Skipped {
		return
	}
	t.Count++
	if r.Exact {
		t.Exact++
	}
	if r.PredError != "" {
		t.PredErrors++
	}
	if r.Exec != nil {
		t.ExecCount++
		if r.Exec.Match {
			t.ExecMatched++
		}
	}
	if len(r.Scores) == 0 {
		return
	}
	if t.Components == nil {
		t.Components = make(map[eval.Component]ComponentTotals, len(eval.Components))
	}
	for comp, s := range r.Scores {
		ct := t.Components[comp]
		if s.PredTotal > 0 {
			ct.AccSum += s.Accuracy
			ct.AccCount++
			ct.PrecSum += s.Precision
			ct.PrecCount++
		}
		if s.LabelTotal > 0 {
			ct.RecSum += s.Recall
			ct.RecCount++
		}
		t.Components[comp] = ct
	}
}

// Merge returns the sum of two totals. Merge is associative and
// commutative, and the zero Totals is its identity.
func (t Totals) Merge(o Totals) Totals {
	out := Totals{
		Count:       t.Count + o.Count,
		Exact:       t.Exact + o.Exact,
		ExecMatched: t.ExecMatched + o.ExecMatched,
		ExecCount:   t.ExecCount + o.ExecCount,
		PredErrors:  t.PredErrors + o.PredErrors,
	}
	if len(t.Components) == 0 && len(o.Components) == 0 {
		return out
	}
	out.Components = make(map[eval.Component]ComponentTotals, len(eval.Components))
	for comp, ct := range t.Components {
		out.Components[comp] = ct
	}
	for comp, ct := range o.Components {
		out.Components[comp] = out.Components[comp].merge(ct)
	}
	return out
}

// ComponentSummary is the averaged score of one component.
type ComponentSummary struct {
	Accuracy  float64 `json:"accuracy"`
	Recall    float64 `json:"recall"`
	Precision float64 `json:"precision"`
	F1        float64 `json:"f1"`
}

// LevelSummary is the averaged view of one level's totals.
type LevelSummary struct {
	Level      string                              `json:"level"`
	Count      int                                 `json:"count"`
	Exact      float64                             `json:"exact"`
	Exec       float64                             `json:"exec"`
	ExecCount  int                                 `json:"exec_count"`
	Components map[eval.Component]ComponentSummary `json:"components,omitempty"`
}

// Summary averages the totals. F1 is taken from the averaged precision and
// recall rather than averaged per pair.
func (t Totals) Summary(level string) LevelSummary {
	s := LevelSummary{Level: level, Count: t.Count, ExecCount: t.ExecCount}
	s.Exact = mean(float64(t.Exact), t.Count)
	s.Exec = mean(float64(t.ExecMatched), t.ExecCount)
	if len(t.Components) == 0 {
		return s
	}
	s.Components = make(map[eval.Component]ComponentSummary, len(t.Components))
	for comp, ct := range t.Components {
		cs := ComponentSummary{
			Accuracy:  mean(ct.AccSum, ct.AccCount),
			Recall:    mean(ct.RecSum, ct.RecCount),
			Precision: mean(ct.PrecSum, ct.PrecCount),
		}
		if cs.Precision+cs.Recall > 0 {
			cs.F1 = 2 * cs.Precision * cs.Recall / (cs.Precision + cs.Recall)
		}
		s.Components[comp] = cs
	}
	return s
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Report is the outcome of a run.
type Report struct {
	EvalType EvalType       `json:"etype"`
	Pairs    []PairResult   `json:"pairs"`
	Levels   []LevelSummary `json:"levels"`
	// Totals are keyed by level name, including LevelAll.
	Totals     map[string]Totals `json:"-"`
	PredErrors int               `json:"pred_errors"`
	Skipped    int               `json:"skipped"`
	Duration   time.Duration     `json:"duration"`
}

// Levels lists the report levels in order: every tier, then all.
func Levels() []string {
	out := make([]string, 0, len(hardness.Tiers)+1)
	for _, t := range hardness.Tiers {
		out = append(out, t.String())
	}
	return append(out, LevelAll)
}

// NewReport aggregates pair results per tier.
func NewReport(etype EvalType, pairs []PairResult) *Report {
	r := &Report{EvalType: etype, Pairs: pairs, Totals: make(map[string]Totals)}

	perTier := make([]Totals, len(hardness.Tiers))
	for _, p := range pairs {
		if p.Skipped {
			r.Skipped++
			continue
		}
		perTier[p.Hardness].Add(p)
	}

	var all Totals
	for i, t := range hardness.Tiers {
		r.Totals[t.String()] = perTier[i]
		all = all.Merge(perTier[i])
	}
	r.Totals[LevelAll] = all
	r.PredErrors = all.PredErrors

	for _, level := range Levels() {
		r.Levels = append(r.Levels, r.Totals[level].Summary(level))
	}
	return r
}

// Level returns the summary of one level.
func (r *Report) Level(name string) (LevelSummary, bool) {
	for _, l := range r.Levels {
		if l.Level == name {
			return l, true
		}
	}
	return LevelSummary{}, false
}
