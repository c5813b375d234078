package security

import (
	"regexp"
	"strings"
)

// InjectionDetector flags text that tries to replace the assistant's instructions
type InjectionDetector struct {
	literals []string
	regexes  []*regexp.Regexp
}

var injectionLiterals = []string{
	"ignore previous instructions",
	"ignore all previous",
	"disregard all previous",
	"forget all previous",
	"ignore the above",
	"your new instructions",
	"system override",
	"jailbreak",
	"developer mode",
}

var injectionRegexes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|above)\s+(instructions?|prompts?|rules?)`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|above)\s+(instructions?|prompts?|rules?)`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an)\s+\w+`),
	regexp.MustCompile(`(?i)(pretend|act)\s+(that\s+)?you\s+are\s+(a|an|my)\s+(doctor|pharmacist|physician)`),
	regexp.MustCompile(`(?i)system:\s*you\s+must`),
	regexp.MustCompile(`<\|.*\|>`),
	regexp.MustCompile(`(?i)###\s*(instruction|system)`),
}

func NewInjectionDetector() *InjectionDetector {
	return &InjectionDetector{literals: injectionLiterals, regexes: injectionRegexes}
}

func (d *InjectionDetector) Detect(input string) bool {
	lower := strings.ToLower(input)
	for _, lit := range d.literals {
		if strings.Contains(lower, lit) {
			return true
		}
	}
	for _, re := range d.regexes {
		if re.MatchString(input) {
			return true
		}
	}
	return false
}
