// Package eval compares a predicted query tree with a label tree clause by
// clause.
//
// Each clause is scored by a function typed on that clause's node, so every
// pairing of label and prediction is known at compile time. The evaluator
// never mutates either tree and may call itself on nested queries.
package eval

import (
	"sort"

	"github.com/leapstack-labs/sqlmatch/pkg/ast"
)

// Component names a scored part of a query.
type Component string

// Scored components.
const (
	Select      Component = "select"
	SelectNoAgg Component = "select_no_agg"
	From        Component = "from"
	Where       Component = "where"
	WhereNoOp   Component = "where_no_op"
	GroupBy     Component = "group_by"
	Having      Component = "having"
	OrderBy     Component = "order_by"
	Limit       Component = "limit"
	AndOr       Component = "and_or"
	IUEN        Component = "iuen"
	Keywords    Component = "keywords"
)

// Components lists every component in report order.
var Components = []Component{
	Select, SelectNoAgg, From, Where, WhereNoOp, GroupBy, Having,
	OrderBy, Limit, AndOr, IUEN, Keywords,
}

// exactComponents must all be perfect for an exact match. The "no agg"/"no
// op" relaxations are implied by their strict forms, and keywords can differ
// between equivalent conditions (a < b against not a >= b).
var exactComponents = []Component{Select, From, Where, GroupBy, Having, OrderBy, Limit, IUEN, AndOr}

// coreComponents are averaged to rank nested FROM subqueries.
var coreComponents = []Component{Select, From, Where, GroupBy, Having, OrderBy, Limit, IUEN}

// Result is the comparison of two query trees.
type Result struct {
	Scores map[Component]Score `json:"scores"`
	Exact  bool                `json:"exact"`
}

// PartialMatch scores pred against label for every component.
func PartialMatch(pred, label *ast.Sql) Result {
	if pred == nil {
		pred = ast.Empty()
	}
	if label == nil {
		label = ast.Empty()
	}
	scores := map[Component]Score{
		Select:      scoreSelect(pred.Select, label.Select),
		SelectNoAgg: scoreSelectNoAgg(pred.Select, label.Select),
		From:        scoreFrom(pred, label),
		Where:       scoreConds(pred.Where.Condition, label.Where.Condition),
		WhereNoOp:   scoreCondCols(pred.Where.Condition, label.Where.Condition),
		GroupBy:     scoreGroupBy(pred.GroupBy, label.GroupBy),
		Having:      scoreConds(pred.Having.Condition, label.Having.Condition),
		OrderBy:     scoreOrderBy(pred.OrderBy, label.OrderBy),
		Limit:       scoreLimit(pred.Limit, label.Limit),
		AndOr:       scoreAndOr(pred.Where.Condition, label.Where.Condition),
		IUEN:        scoreIUEN(pred, label),
		Keywords:    scoreKeywords(pred, label),
	}
	return Result{Scores: scores, Exact: exact(scores, pred, label)}
}

// ExactMatch reports whether pred matches label on every component.
func ExactMatch(pred, label *ast.Sql) bool {
	return PartialMatch(pred, label).Exact
}

func exact(scores map[Component]Score, pred, label *ast.Sql) bool {
	for _, c := range exactComponents {
		if scores[c].Accuracy != 1 {
			return false
		}
	}
	labelIDs := label.TableIDs()
	if len(labelIDs) == 0 {
		return true
	}
	predIDs := pred.TableIDs()
	if len(label.TableUnits()) != len(pred.TableUnits()) || len(labelIDs) != len(predIDs) {
		return false
	}
	sort.Strings(labelIDs)
	sort.Strings(predIDs)
	for i := range labelIDs {
		if labelIDs[i] != predIDs[i] {
			return false
		}
	}
	return true
}

// overallAccuracy is the mean accuracy of the core components.
func overallAccuracy(pred, label *ast.Sql) float64 {
	scores := PartialMatch(pred, label).Scores
	var sum float64
	for _, c := range coreComponents {
		sum += scores[c].Accuracy
	}
	return sum / float64(len(coreComponents))
}
