// Package security screens free-text questions before they leave the device
package security

import (
	"sync"
)

// Guard validates and flags assistant questions. It never rewrites them.
type Guard struct {
	input     *InputValidator
	injection *InjectionDetector
	redactor  *Redactor
}

func NewGuard() *Guard {
	return &Guard{
		input:     NewInputValidator(),
		injection: NewInjectionDetector(),
		redactor:  NewRedactor(),
	}
}

// Screening is the outcome of Screen
type Screening struct {
	Redacted string   // the question with personal data masked, for logs only
	Flags    []string // e.g. "prompt_injection", "personal:email"
	Rejected error    // non-nil when the question must not be sent
}

// Screen validates question and reports what it contains
func (g *Guard) Screen(question string) Screening {
	if err := g.input.Validate(question); err != nil {
		return Screening{Rejected: err}
	}

	s := Screening{Redacted: g.redactor.Redact(question)}
	if g.injection.Detect(question) {
		s.Flags = append(s.Flags, "prompt_injection")
	}
	for _, m := range g.redactor.Scan(question) {
		s.Flags = append(s.Flags, "personal:"+m.Kind)
	}
	return s
}

var (
	defaultGuard     *Guard
	defaultGuardOnce sync.Once
)

// Default returns a shared Guard; the compiled patterns are read-only
func Default() *Guard {
	defaultGuardOnce.Do(func() {
		defaultGuard = NewGuard()
	})
	return defaultGuard
}
