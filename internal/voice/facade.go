// Package voice answers medication questions and turns text into speech
package voice

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/gmsas95/medreminder/internal/errors"
	"github.com/gmsas95/medreminder/internal/medication"
	"github.com/gmsas95/medreminder/internal/security"
	"go.uber.org/zap"
)

// SystemPrompt is sent with every question
const SystemPrompt = "You are a helpful assistant for older adults asking questions about medications. " +
	"Keep answers brief (3-5 sentences) and easy to understand."

// Completer answers a user message under a system instruction
type Completer interface {
	SimpleChat(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// Synthesizer turns text into encoded audio using a named voice
type Synthesizer interface {
	Speech(ctx context.Context, input, voice string) ([]byte, error)
}

// Facade is a stateless wrapper around the completion and speech services
type Facade struct {
	completer   Completer
	synthesizer Synthesizer
	themes      *ThemeSelector
	guard       *security.Guard
	timeout     time.Duration
	logger      *zap.Logger
}

// NewFacade wires the external services. timeout bounds each call; zero means 30s.
func NewFacade(c Completer, s Synthesizer, themes *ThemeSelector, timeout time.Duration, logger *zap.Logger) *Facade {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if themes == nil {
		themes, _ = NewThemeSelector(nil, DefaultTheme)
	}
	return &Facade{
		completer:   c,
		synthesizer: s,
		themes:      themes,
		guard:       security.Default(),
		timeout:     timeout,
		logger:      logger,
	}
}

// Themes returns the voice selector used for synthesis
func (f *Facade) Themes() *ThemeSelector {
	return f.themes
}

// AskQuestion forwards text verbatim to the completion service and returns
// the trimmed answer. Malformed input is rejected; anything else that looks
// off is only logged, with personal data masked.
func (f *Facade) AskQuestion(ctx context.Context, text string) (string, error) {
	question := strings.TrimSpace(text)
	if question == "" {
		return "", apperrors.Validation("Please enter a question.")
	}

	screen := f.guard.Screen(question)
	if screen.Rejected != nil {
		return "", apperrors.Validation("%s", screen.Rejected.Error())
	}
	if len(screen.Flags) > 0 {
		f.logger.Warn("Question flagged",
			zap.Strings("flags", screen.Flags),
			zap.String("question", screen.Redacted),
		)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	answer, err := f.completer.SimpleChat(ctx, SystemPrompt, question)
	if err != nil {
		f.logger.Warn("Question failed", zap.Error(err))
		return "", apperrors.Service("could not get an answer, please try again later", err)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", apperrors.Service("the assistant returned an empty answer", nil)
	}
	return answer, nil
}

// SynthesizeSpeech renders text with the selected voice theme
func (f *Facade) SynthesizeSpeech(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.Validation("nothing to speak")
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	voice := f.themes.Current()
	audio, err := f.synthesizer.Speech(ctx, text, voice)
	if err != nil {
		f.logger.Warn("Speech synthesis failed", zap.String("voice", voice), zap.Error(err))
		return nil, apperrors.Service("failed to generate audio", err)
	}
	if len(audio) == 0 {
		return nil, apperrors.Service("speech service returned no audio", nil)
	}
	return audio, nil
}

// DescribeMedication is the text read aloud for a medication
func DescribeMedication(m medication.Medication) string {
	icon := m.Icon
	if icon == "" {
		icon = medication.DefaultIcon
	}
	sideEffects := strings.TrimSpace(m.SideEffects)
	if sideEffects == "" {
		sideEffects = "None listed."
	}
	return fmt.Sprintf("%s %s. Dosage: %s. Schedule: %s. Side effects: %s",
		icon, m.Name, m.Dosage, m.Schedule, sideEffects)
}
