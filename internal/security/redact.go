package security

import (
	"regexp"
)

// Match is one piece of personal or secret data found in a question
type Match struct {
	Kind  string
	Start int
	End   int
}

type redactPattern struct {
	kind    string
	regex   *regexp.Regexp
	replace string
}

// Redactor scrubs contact details and credentials users paste by accident
type Redactor struct {
	patterns []redactPattern
}

// order matters: tokens before the looser phone pattern
var defaultRedactPatterns = []redactPattern{
	{"jwt", regexp.MustCompile(`eyJ[a-zA-Z0-9\-_]+\.eyJ[a-zA-Z0-9\-_]+\.[a-zA-Z0-9\-_]+`), "[token]"},
	{"api_key", regexp.MustCompile(`\bsk-[a-zA-Z0-9_\-]{20,}`), "[api key]"},
	{"telegram_token", regexp.MustCompile(`\b[0-9]{8,10}:[a-zA-Z0-9_-]{35}\b`), "[token]"},
	{"email", regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`), "[email]"},
	{"ssn", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "[id number]"},
	{"phone", regexp.MustCompile(`(?:\+\d{1,3}[\s.\-]?)?\(?\d{3}\)?[\s.\-]\d{3}[\s.\-]\d{4}\b`), "[phone]"},
}

func NewRedactor() *Redactor {
	return &Redactor{patterns: defaultRedactPatterns}
}

func (r *Redactor) Scan(input string) []Match {
	var matches []Match
	for _, p := range r.patterns {
		for _, loc := range p.regex.FindAllStringIndex(input, -1) {
			matches = append(matches, Match{Kind: p.kind, Start: loc[0], End: loc[1]})
		}
	}
	return matches
}

func (r *Redactor) Redact(input string) string {
	out := input
	for _, p := range r.patterns {
		out = p.regex.ReplaceAllString(out, p.replace)
	}
	return out
}
