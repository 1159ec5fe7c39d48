package token

func set(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

var (
	clauseKeywords = set("select", "from", "where", "group", "having", "order", "limit",
		"intersect", "union", "except")

	joinKeywords = set("join", "on", "as")

	joinStarters = set("join", "inner", "left", "right", "outer", "natural", "cross", "full")

	// reserved is every word the lexer must never mistake for an identifier
	// when looking for implicit aliases.
	reserved = set(
		"select", "from", "where", "group", "by", "having", "order", "limit", "offset",
		"intersect", "union", "except", "all",
		"join", "on", "as", "inner", "left", "right", "outer", "natural", "cross", "full", "using",
		"not", "between", "and", "or", "in", "like", "is", "exists", "null",
		"distinct", "desc", "asc",
		"max", "min", "count", "sum", "avg",
		"case", "when", "then", "else", "end", "true", "false",
	)
)

// IsClauseKeyword reports whether s opens a top-level clause.
func IsClauseKeyword(s string) bool {
	_, ok := clauseKeywords[s]
	return ok
}

// IsJoinKeyword reports whether s is one of join, on, as.
func IsJoinKeyword(s string) bool {
	_, ok := joinKeywords[s]
	return ok
}

// IsJoinStarter reports whether s can begin a join in a FROM list.
func IsJoinStarter(s string) bool {
	_, ok := joinStarters[s]
	return ok
}

// IsKeyword reports whether s is a reserved word.
func IsKeyword(s string) bool {
	_, ok := reserved[s]
	return ok
}

// IsOperator reports whether s is a punctuation or operator token.
func IsOperator(s string) bool {
	switch s {
	case "(", ")", ",", ";", "=", "!=", "<", ">", "<=", ">=", "+", "-", "*", "/", "%", "!", "|", "||":
		return true
	}
	return false
}
