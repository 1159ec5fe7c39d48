package eval

// Score is the comparison of one clause between a label and a prediction.
type Score struct {
	Accuracy   float64 `json:"accuracy"`
	Recall     float64 `json:"recall"`
	Precision  float64 `json:"precision"`
	F1         float64 `json:"f1"`
	LabelTotal int     `json:"label_total"`
	PredTotal  int     `json:"pred_total"`
}

// NewScore scores a clause whose label has labelTotal elements, whose
// prediction has predTotal, and where matched elements paired up.
//
//	accuracy  = M / (L + P - M)   (1 when both are empty)
//	recall    = M / L             (1 when L = 0)
//	precision = M / P             (1 when P = 0)
//	f1        = 2PR / (P + R)     (0 when P + R = 0)
func NewScore(labelTotal, predTotal, matched int) Score {
	s := Score{LabelTotal: labelTotal, PredTotal: predTotal}
	s.Accuracy = ratio(matched, labelTotal+predTotal-matched)
	s.Recall = ratio(matched, labelTotal)
	s.Precision = ratio(matched, predTotal)
	s.F1 = f1(s.Precision, s.Recall)
	return s
}

// Perfect is the score of two equal clauses with the given sizes.
func Perfect(labelTotal, predTotal int) Score {
	return Score{Accuracy: 1, Recall: 1, Precision: 1, F1: 1, LabelTotal: labelTotal, PredTotal: predTotal}
}

// Zero is the score of two clauses that share nothing.
func Zero(labelTotal, predTotal int) Score {
	return Score{LabelTotal: labelTotal, PredTotal: predTotal}
}

// blend averages two scores with equal weight; totals add.
func blend(a, b Score) Score {
	return Score{
		Accuracy:   (a.Accuracy + b.Accuracy) / 2,
		Recall:     (a.Recall + b.Recall) / 2,
		Precision:  (a.Precision + b.Precision) / 2,
		F1:         (a.F1 + b.F1) / 2,
		LabelTotal: a.LabelTotal + b.LabelTotal,
		PredTotal:  a.PredTotal + b.PredTotal,
	}
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 1
	}
	return float64(n) / float64(d)
}

func f1(p, r float64) float64 {
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// countMatches pairs prediction elements with label elements. A label
// element is consumed by its first match so it cannot match twice.
func countMatches[T any](label, pred []T, eq func(a, b T) bool) int {
	used := make([]bool, len(label))
	matched := 0
	for _, p := range pred {
		for i, l := range label {
			if !used[i] && eq(p, l) {
				used[i] = true
				matched++
				break
			}
		}
	}
	return matched
}

// jaccard scores two element lists with countMatches.
func jaccard[T any](label, pred []T, eq func(a, b T) bool) Score {
	return NewScore(len(label), len(pred), countMatches(label, pred, eq))
}
