package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/leapstack-labs/sqlmatch/pkg/schema"
	"github.com/leapstack-labs/sqlmatch/pkg/token"
)

// AliasTable maps an alias to the table, column or aggregate op it names.
type AliasTable map[string]string

// TokenStream is the lexer output: normalized tokens plus the aliases found
// while scanning them. Quoted literals keep their double quotes and original
// case; every other token is lowercased.
type TokenStream struct {
	Tokens  []string
	Aliases AliasTable
}

// Tokenize splits a query into normalized tokens. It is a pure function of
// its inputs.
//
// Quoting is unified to double quotes. A quoted single word that names a
// schema identifier loses its quotes; any other quoted text becomes one
// token. The operator pairs "! =", "> =", "< =" and "< >" are merged, the
// "<schema>." prefix is dropped and aliases are collected. Implicit alias
// tokens ("city c") are removed from the stream; explicit ones ("city as c")
// are kept.
func Tokenize(query string, s *schema.Schema) (*TokenStream, error) {
	text := strings.NewReplacer("'", `"`, "`", `"`).Replace(query)

	quotes := quoteIndexes(text)
	if len(quotes)%2 != 0 {
		return nil, &LexError{
			Pos:     quotes[len(quotes)-1],
			Message: fmt.Sprintf(msgOddQuotes, len(quotes)),
			Err:     ErrUnbalancedQuotes,
		}
	}

	text, literals := protectLiterals(text, quotes, s)

	words := splitWords(text)
	for i, w := range words {
		if lit, ok := literals[w]; ok {
			words[i] = lit
			continue
		}
		words[i] = strings.ToLower(w)
	}

	words = mergeOperators(words)
	words = stripSchemaPrefix(words, s.Name())

	toks, aliases := scanAliases(words)
	return &TokenStream{Tokens: toks, Aliases: aliases}, nil
}

// Merge returns a copy of the stream whose alias table also maps every schema
// table to itself. Quoted tokens naming a known alias lose their quotes. An
// alias that names a schema table but stands for something else fails with
// ErrAliasCollision.
func (ts *TokenStream) Merge(s *schema.Schema) (*TokenStream, error) {
	tables := s.Tables()
	merged := make(AliasTable, len(ts.Aliases)+len(tables))
	for _, t := range tables {
		merged[t] = t
	}
	for alias, target := range ts.Aliases {
		if s.HasTable(alias) && alias != target {
			return nil, &AliasCollisionError{Alias: alias, Target: target}
		}
		merged[alias] = target
	}

	toks := make([]string, len(ts.Tokens))
	for i, tok := range ts.Tokens {
		if isQuoted(tok) {
			if bare := unquote(tok); bare != "" {
				if _, ok := merged[bare]; ok {
					tok = bare
				}
			}
		}
		toks[i] = tok
	}
	return &TokenStream{Tokens: toks, Aliases: merged}, nil
}

// ---------- Quoting ----------

func quoteIndexes(text string) []int {
	var idx []int
	for i := 0; i < len(text); i++ {
		if text[i] == '"' {
			idx = append(idx, i)
		}
	}
	return idx
}

// protectLiterals walks quote pairs right to left so earlier offsets stay
// valid while the text is rewritten.
func protectLiterals(text string, quotes []int, s *schema.Schema) (string, map[string]string) {
	literals := make(map[string]string)
	prefix := ""
	if s.Name() != "" {
		prefix = s.Name() + "."
	}
	for k := len(quotes) - 2; k >= 0; k -= 2 {
		qs, qe := quotes[k], quotes[k+1]
		inner := text[qs+1 : qe]
		if inner != "" && !strings.ContainsFunc(inner, unicode.IsSpace) {
			word := strings.TrimPrefix(strings.ToLower(inner), prefix)
			if s.IsIdentifier(word) {
				text = text[:qs] + inner + text[qe+1:]
				continue
			}
		}
		key := fmt.Sprintf("__val_%d_%d__", qs, qe)
		literals[key] = text[qs : qe+1]
		text = text[:qs] + key + text[qe+1:]
	}
	return text, literals
}

func isQuoted(tok string) bool {
	return len(tok) >= 2 && tok[0] == '"' && tok[len(tok)-1] == '"'
}

func unquote(tok string) string {
	return strings.Trim(tok, `"`)
}

// ---------- Word Splitting ----------

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.' || r == '$'
}

// splitWords breaks text into identifier runs and single punctuation runes.
// A minus sign directly before a digit joins the number when it stands in
// operand position.
func splitWords(text string) []string {
	var (
		words []string
		cur   strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	runes := []rune(text)
	for i, r := range runes {
		switch {
		case unicode.IsSpace(r):
			flush()
		case isWordRune(r):
			cur.WriteRune(r)
		case r == '-' && cur.Len() == 0 && i+1 < len(runes) && unicode.IsDigit(runes[i+1]) && operandPosition(words):
			cur.WriteRune(r)
		default:
			flush()
			words = append(words, string(r))
		}
	}
	flush()
	return words
}

func operandPosition(words []string) bool {
	if len(words) == 0 {
		return true
	}
	prev := strings.ToLower(words[len(words)-1])
	if prev == ")" {
		return false
	}
	return token.IsOperator(prev) || token.IsKeyword(prev)
}

func mergeOperators(words []string) []string {
	out := make([]string, 0, len(words))
	for i := 0; i < len(words); i++ {
		if i+1 < len(words) {
			pair := words[i] + words[i+1]
			switch pair {
			case "!=", ">=", "<=":
				out = append(out, pair)
				i++
				continue
			case "<>":
				out = append(out, "!=")
				i++
				continue
			}
		}
		out = append(out, words[i])
	}
	return out
}

func stripSchemaPrefix(words []string, name string) []string {
	if name == "" {
		return words
	}
	prefix := name + "."
	for i, w := range words {
		if strings.HasPrefix(w, prefix) && len(w) > len(prefix) {
			words[i] = w[len(prefix):]
		}
	}
	return words
}

// ---------- Alias Scanning ----------

// isIdentifier reports whether tok can take part in an implicit alias.
func isIdentifier(tok string) bool {
	if tok == "" || isQuoted(tok) || token.IsKeyword(tok) || token.IsOperator(tok) {
		return false
	}
	return !isNumber(tok)
}

func isNumber(tok string) bool {
	if tok == "" {
		return false
	}
	c := tok[0]
	if !(c >= '0' && c <= '9') && c != '-' && c != '.' {
		return false
	}
	_, err := strconv.ParseFloat(tok, 64)
	return err == nil
}

// scanAliases walks tokens back to front collecting explicit "x as y" and
// implicit "x y" aliases.
func scanAliases(words []string) ([]string, AliasTable) {
	toks := append([]string(nil), words...)
	aliases := make(AliasTable)

	for i := len(toks) - 1; i > 0; i-- {
		if toks[i] == "as" {
			if i+1 >= len(toks) || toks[i+1] == "," || toks[i-1] == "," {
				continue
			}
			alias := unquote(toks[i+1])
			if toks[i-1] != ")" {
				aliases[alias] = unquote(toks[i-1])
				continue
			}
			// Only function-style expressions name something; a derived
			// table "(select ...) as t" has nothing to alias.
			if open := matchingOpen(toks, i-1); open > 0 {
				fn := toks[open-1]
				if _, isAgg := token.LookupAgg(fn); isAgg || isIdentifier(fn) {
					aliases[alias] = unquote(fn)
				}
			}
			continue
		}
		if isIdentifier(toks[i]) && isIdentifier(toks[i-1]) {
			aliases[unquote(toks[i])] = unquote(toks[i-1])
			toks = append(toks[:i], toks[i+1:]...)
		}
	}
	return toks, aliases
}

// matchingOpen returns the index of the "(" matching the ")" at close, or -1.
func matchingOpen(toks []string, close int) int {
	depth := 0
	for j := close; j >= 0; j-- {
		switch toks[j] {
		case ")":
			depth++
		case "(":
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}
