package vaccine

import (
	"strings"
	"unicode"
)

// Matcher decides whether free text mentions a term. Matching is lenient on
// purpose: history and condition strings are typed by users.
type Matcher interface {
	Match(text, term string) bool
}

// SubstringMatcher matches when text contains term, ignoring case.
type SubstringMatcher struct{}

func (SubstringMatcher) Match(text, term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(term))
}

// StemMatcher extends SubstringMatcher by also comparing suffix-stripped
// word forms, so "pregnant" matches "Pregnancy" and "allergic" matches
// "severe allergy". Anything SubstringMatcher accepts is accepted here too.
type StemMatcher struct{}

func (StemMatcher) Match(text, term string) bool {
	if (SubstringMatcher{}).Match(text, term) {
		return true
	}
	st := stemPhrase(term)
	if st == "" {
		return false
	}
	return strings.Contains(stemPhrase(text), st)
}

var stemSuffixes = []string{"ancy", "ency", "ing", "ies", "ant", "ent", "ic", "ed", "al", "y", "s"}

func stemPhrase(s string) string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, w := range words {
		words[i] = stemWord(w)
	}
	return strings.Join(words, " ")
}

func stemWord(w string) string {
	if len(w) < 5 {
		return w
	}
	for _, suf := range stemSuffixes {
		if strings.HasSuffix(w, suf) && len(w)-len(suf) >= 4 {
			return w[:len(w)-len(suf)]
		}
	}
	return w
}

// MatchesAny reports whether text matches any of the terms.
func MatchesAny(m Matcher, text string, terms []string) bool {
	for _, t := range terms {
		if m.Match(text, t) {
			return true
		}
	}
	return false
}
