// internal/filter/filter.go
package filter

import "strings"

// Engine rejects candidates by keyword before any rating call is spent.
// It is pure and deterministic: no storage, no clock, no network.
type Engine struct {
	negative []KeywordTable
	trivial  []KeywordTable
}

// NewEngine creates an engine with the built-in keyword tables.
func NewEngine() *Engine {
	return &Engine{
		negative: defaultNegative,
		trivial:  defaultTrivial,
	}
}

// NewEngineWithTables creates an engine with custom tables, used when the
// keyword lists are overridden from configuration. Empty slices fall back
// to the built-in tables.
func NewEngineWithTables(negative, trivial []KeywordTable) *Engine {
	e := NewEngine()
	if len(negative) > 0 {
		e.negative = negative
	}
	if len(trivial) > 0 {
		e.trivial = trivial
	}
	return e
}

// Filter checks a headline and summary against the keyword tables.
// It returns passed=false and a reason of the form
// "keyword_<category>:<phrase>" on the first match; negative tables are
// scanned before trivial ones, categories and phrases in declaration
// order. Matching is case-insensitive substring containment.
func (e *Engine) Filter(headline, summary string) (passed bool, reason string) {
	text := strings.ToLower(headline + " " + summary)

	for _, table := range e.negative {
		if phrase := matchPhrase(text, table.Phrases); phrase != "" {
			return false, "keyword_" + table.Category + ":" + phrase
		}
	}

	for _, table := range e.trivial {
		if phrase := matchPhrase(text, table.Phrases); phrase != "" {
			// Trivial sub-categories all collapse to "trivial".
			return false, "keyword_trivial:" + phrase
		}
	}

	return true, ""
}

func matchPhrase(text string, phrases []string) string {
	for _, phrase := range phrases {
		if strings.Contains(text, strings.ToLower(phrase)) {
			return phrase
		}
	}
	return ""
}
