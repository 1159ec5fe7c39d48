package output

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FormatHeader formats a markdown header.
func FormatHeader(level int, text string) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue formats a markdown bullet with a bold key.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s:** %s", key, value)
}

// FormatCodeBlock wraps text in a fenced code block.
func FormatCodeBlock(lang, text string) string {
	return "```" + lang + "\n" + strings.TrimRight(text, "\n") + "\n```"
}

// Title title-cases a name such as a hardness tier or component.
func Title(s string) string {
	// a Caser keeps state between calls
	return cases.Title(language.English).String(strings.ReplaceAll(s, "_", " "))
}

// Score formats a score in [0, 1] with three decimals.
func Score(v float64) string {
	return fmt.Sprintf("%.3f", v)
}
