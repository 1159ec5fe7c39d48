package ast

import "encoding/json"

// The variants of the sealed interfaces marshal with a "kind" field so a
// serialized tree stays unambiguous. Trees are only ever written out for
// display; nothing reads them back.

// MarshalJSON implements json.Marshaler.
func (c ColRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind     string `json:"kind"`
		ID       string `json:"id"`
		Name     string `json:"name"`
		Distinct bool   `json:"distinct,omitempty"`
	}{"col", c.ID, c.Name, c.Distinct})
}

// MarshalJSON implements json.Marshaler.
func (a Agg) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind     string  `json:"kind"`
		Op       string  `json:"op"`
		Col      ColUnit `json:"col"`
		Distinct bool    `json:"distinct,omitempty"`
	}{"agg", a.Op.String(), a.Col, a.Distinct})
}

// MarshalJSON implements json.Marshaler.
func (a Arith) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind     string  `json:"kind"`
		Op       string  `json:"op"`
		Left     ColUnit `json:"left"`
		Right    ColUnit `json:"right"`
		Distinct bool    `json:"distinct,omitempty"`
	}{"arith", a.Op.String(), a.Left, a.Right, a.Distinct})
}

// MarshalJSON implements json.Marshaler.
func (t TableRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
		ID   string `json:"id"`
		Name string `json:"name"`
	}{"table", t.ID, t.Name})
}

// MarshalJSON implements json.Marshaler.
func (v StringValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
		Text string `json:"text"`
	}{"string", v.Text})
}

// MarshalJSON implements json.Marshaler.
func (v NumberValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string  `json:"kind"`
		Num  float64 `json:"num"`
	}{"number", v.Num})
}

// MarshalJSON implements json.Marshaler.
func (v ColValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string  `json:"kind"`
		Col  ColUnit `json:"col"`
	}{"column", v.Col})
}

// MarshalJSON implements json.Marshaler.
func (v SubqueryValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string `json:"kind"`
		Query *Sql   `json:"query"`
	}{"subquery", v.Query})
}

// MarshalJSON implements json.Marshaler.
func (v ListValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string  `json:"kind"`
		Items []Value `json:"items"`
	}{"list", v.Items})
}

// MarshalJSON implements json.Marshaler.
func (c Cond) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Not  bool    `json:"not,omitempty"`
		Op   string  `json:"op"`
		Col  ColUnit `json:"col"`
		Val1 Value   `json:"val1,omitempty"`
		Val2 Value   `json:"val2,omitempty"`
	}{c.Not, c.Op.String(), c.Col, c.Val1, c.Val2})
}

// MarshalJSON implements json.Marshaler.
func (c Condition) MarshalJSON() ([]byte, error) {
	conns := make([]string, len(c.Connectors))
	for i, op := range c.Connectors {
		conns[i] = op.String()
	}
	return json.Marshal(struct {
		Conds      []Cond   `json:"conds"`
		Connectors []string `json:"connectors,omitempty"`
	}{c.Conds, conns})
}

// MarshalJSON implements json.Marshaler.
func (o OrderItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Col ColUnit `json:"col"`
		Dir string  `json:"dir"`
	}{o.Col, o.Dir.String()})
}
