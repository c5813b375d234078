package security

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

var (
	ErrInputTooLarge     = errors.New("question is too long")
	ErrNullByteDetected  = errors.New("question contains a null byte")
	ErrInvalidUTF8       = errors.New("question is not valid text")
	ErrRepetitiveContent = errors.New("question repeats the same character too often")
)

// InputValidator rejects questions no person would type
type InputValidator struct {
	MaxRunes      int
	MaxRepetition int
}

func NewInputValidator() *InputValidator {
	return &InputValidator{
		MaxRunes:      2000,
		MaxRepetition: 50,
	}
}

func (v *InputValidator) Validate(input string) error {
	if !utf8.ValidString(input) {
		return ErrInvalidUTF8
	}
	if v.MaxRunes > 0 && utf8.RuneCountInString(input) > v.MaxRunes {
		return ErrInputTooLarge
	}

	run := 0
	var prev rune
	for i, r := range input {
		if r == 0 {
			return ErrNullByteDetected
		}
		if i > 0 && r == prev && !unicode.IsSpace(r) {
			run++
		} else {
			run = 1
		}
		if v.MaxRepetition > 0 && run > v.MaxRepetition {
			return ErrRepetitiveContent
		}
		prev = r
	}
	return nil
}
