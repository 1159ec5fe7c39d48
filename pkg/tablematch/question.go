package tablematch

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// negations mark a sentence as excluding what it mentions.
var negations = map[string]bool{
	"not": true, "no": true, "without": true, "except": true,
	"exclude": true, "excluding": true, "never": true, "nor": true,
	"neither": true, "don't": true, "doesn't": true,
}

type sentence struct {
	words   map[string]bool
	negated bool
}

type question []sentence

func parseQuestion(text string) question {
	var q question
	fold := cases.Fold()
	for _, raw := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == ';' || r == '\n'
	}) {
		s := sentence{words: make(map[string]bool)}
		for _, w := range strings.FieldsFunc(fold.String(raw), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '’'
		}) {
			w = strings.ReplaceAll(w, "’", "'")
			if negations[w] {
				s.negated = true
			}
			for _, part := range strings.Split(w, "'") {
				if part != "" {
					s.words[part] = true
				}
			}
		}
		if len(s.words) > 0 {
			q = append(q, s)
		}
	}
	return q
}

// requests reports whether some sentence without a negation mentions every
// word of a column name.
func (q question) requests(column string) bool {
	words := nameWords(column)
	if len(words) == 0 {
		return false
	}
	for _, s := range q {
		if s.negated {
			continue
		}
		if s.mentions(words) {
			return true
		}
	}
	return false
}

func (s sentence) mentions(words []string) bool {
	for _, w := range words {
		if !s.words[w] && !s.words[w+"s"] && !s.words[w+"es"] {
			return false
		}
	}
	return true
}

// nameWords splits a column name on everything but letters and digits, so
// "avg_population" yields avg and population.
func nameWords(name string) []string {
	return strings.FieldsFunc(cases.Fold().String(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
