package voice

import (
	"fmt"
	"strings"
	"sync"

	apperrors "github.com/gmsas95/medreminder/internal/errors"
)

// ThemeKey is the preferences key holding the selected voice
const ThemeKey = "voice.theme"

// DefaultTheme is used until the user picks another voice
const DefaultTheme = "alloy"

// Theme is a selectable speech voice
type Theme struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// Themes lists the voices offered by the speech service
var Themes = []Theme{
	{Name: "alloy", Color: "#6200ee", Description: "Neutral, balanced voice with clear articulation"},
	{Name: "echo", Color: "#3700b3", Description: "Deep, resonant voice with a measured pace"},
	{Name: "fable", Color: "#03dac4", Description: "Warm, friendly voice with expressive tones"},
	{Name: "onyx", Color: "#333333", Description: "Rich, authoritative voice with depth"},
	{Name: "nova", Color: "#bb86fc", Description: "Bright, energetic voice with upbeat delivery"},
	{Name: "shimmer", Color: "#018786", Description: "Soft, gentle voice with a soothing quality"},
}

// LookupTheme finds a theme by name, case-insensitively
func LookupTheme(name string) (Theme, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, t := range Themes {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}

// Prefs is the key-value store the selected theme is persisted in
type Prefs interface {
	GetString(key, fallback string) (string, error)
	SetString(key, value string) error
}

// ThemeSelector holds the current voice and persists changes
type ThemeSelector struct {
	prefs Prefs

	mu      sync.RWMutex
	current string
}

// NewThemeSelector loads the persisted theme, falling back to fallback
// (or alloy) when nothing valid is stored
func NewThemeSelector(prefs Prefs, fallback string) (*ThemeSelector, error) {
	if _, ok := LookupTheme(fallback); !ok {
		fallback = DefaultTheme
	}

	current := fallback
	if prefs != nil {
		stored, err := prefs.GetString(ThemeKey, fallback)
		if err != nil {
			return nil, apperrors.Persistence("failed to load voice theme", err)
		}
		if t, ok := LookupTheme(stored); ok {
			current = t.Name
		}
	}

	return &ThemeSelector{prefs: prefs, current: current}, nil
}

// Current returns the selected theme name
func (s *ThemeSelector) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Select changes and persists the theme
func (s *ThemeSelector) Select(name string) (Theme, error) {
	t, ok := LookupTheme(name)
	if !ok {
		return Theme{}, apperrors.Validation("unknown voice %q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.prefs != nil {
		if err := s.prefs.SetString(ThemeKey, t.Name); err != nil {
			return Theme{}, apperrors.Persistence(fmt.Sprintf("failed to save voice %q", t.Name), err)
		}
	}
	s.current = t.Name
	return t, nil
}
