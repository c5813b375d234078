package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gmsas95/medreminder/internal/voice"
)

type pickerKeys struct {
	Up     key.Binding
	Down   key.Binding
	Choose key.Binding
	Quit   key.Binding
}

var defaultPickerKeys = pickerKeys{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Choose: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "select")),
	Quit:   key.NewBinding(key.WithKeys("esc", "q", "ctrl+c"), key.WithHelp("q", "cancel")),
}

// voicePicker is a one-screen list of voice themes
type voicePicker struct {
	themes []voice.Theme
	cursor int
	chosen string
	done   bool
	keys   pickerKeys
}

func newVoicePicker(current string) voicePicker {
	p := voicePicker{themes: voice.Themes, keys: defaultPickerKeys}
	for i, t := range p.themes {
		if t.Name == current {
			p.cursor = i
		}
	}
	return p
}

func (p voicePicker) Init() tea.Cmd {
	return nil
}

func (p voicePicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}

	switch {
	case key.Matches(km, p.keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(km, p.keys.Down):
		if p.cursor < len(p.themes)-1 {
			p.cursor++
		}
	case key.Matches(km, p.keys.Choose):
		p.chosen = p.themes[p.cursor].Name
		p.done = true
		return p, tea.Quit
	case key.Matches(km, p.keys.Quit):
		p.done = true
		return p, tea.Quit
	}
	return p, nil
}

func (p voicePicker) View() string {
	if p.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Choose a voice") + "\n\n")
	for i, t := range p.themes {
		cursor := "  "
		if i == p.cursor {
			cursor = successStyle.Render("▶ ")
		}
		fmt.Fprintf(&b, "%s%s  %s\n", cursor, colorStyle(t.Color).Render(fmt.Sprintf("%-8s", t.Name)), mutedStyle.Render(t.Description))
	}
	b.WriteString("\n" + mutedStyle.Render(p.help()) + "\n")
	return b.String()
}

func (p voicePicker) help() string {
	bindings := []key.Binding{p.keys.Up, p.keys.Down, p.keys.Choose, p.keys.Quit}
	parts := make([]string, 0, len(bindings))
	for _, k := range bindings {
		h := k.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}

// RunVoicePicker shows the picker and returns the chosen theme name, or ""
// when the user cancels
func RunVoicePicker(current string) (string, error) {
	if !isTerminal() {
		return "", fmt.Errorf("voice pick needs an interactive terminal")
	}

	final, err := tea.NewProgram(newVoicePicker(current)).Run()
	if err != nil {
		return "", fmt.Errorf("voice picker failed: %w", err)
	}
	return final.(voicePicker).chosen, nil
}
