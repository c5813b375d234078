package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	apperrors "github.com/gmsas95/medreminder/internal/errors"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#81d4fa"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8a8a8a"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#66bb6a"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffa726"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ef5350"))
	noticeStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#81d4fa")).
			Padding(0, 1)
)

func heading(w io.Writer, title string) {
	fmt.Fprintln(w, titleStyle.Render(title))
}

// printNotice shows a boxed title/message pair, the CLI form of an alert
func printNotice(w io.Writer, title, message string) {
	fmt.Fprintln(w, noticeStyle.Render(titleStyle.Render(title)+"\n"+message))
}

// PrintError reports err as a notice titled by its error class
func PrintError(w io.Writer, err error) {
	title := "Error"
	message := err.Error()

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
		switch appErr.Code {
		case apperrors.CodeValidation:
			title = "Invalid input"
		case apperrors.CodeDuplicateLog:
			title = "Already logged"
		case apperrors.CodeNotFound:
			title = "Not found"
		case apperrors.CodeService:
			title = "Assistant unavailable"
		}
	}

	fmt.Fprintln(w, errorStyle.Render(title)+" "+message)
}

// renderMarkdown formats an assistant answer for the terminal, falling back
// to the raw text when the renderer can't be built
func renderMarkdown(md string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func colorStyle(hex string) lipgloss.Style {
	if hex == "" {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
}
