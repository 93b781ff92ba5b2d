package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for terminal output.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Dim     lipgloss.Color // Dimmed/help text color
	Warn    lipgloss.Color // Warnings
	Bad     lipgloss.Color // Errors
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
	Warn:    lipgloss.Color("#e3b341"),
	Bad:     lipgloss.Color("#f85149"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Border  lipgloss.Style
	Help    lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Label:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Border:  lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(t.Primary).Padding(0, 1),
		Help:    lipgloss.NewStyle().Foreground(t.Dim),
		Success: lipgloss.NewStyle().Foreground(t.Primary),
		Warning: lipgloss.NewStyle().Foreground(t.Warn),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(t.Bad),
	}
}

// DefaultStyles are the styles of DefaultTheme.
var DefaultStyles = NewStyles(DefaultTheme)

// Banner renders a boxed title with dimmed detail lines, e.g. the hotword
// a listener is waiting for.
func (s Styles) Banner(title string, details ...string) string {
	lines := []string{s.Title.Render(title)}
	for _, d := range details {
		lines = append(lines, s.Help.Render(d))
	}
	return s.Border.Render(strings.Join(lines, "\n"))
}

// Detection renders one detection line: label, score and a meter of the
// score against the threshold.
func (s Styles) Detection(label string, score, threshold float32) string {
	return fmt.Sprintf("%s %s %s",
		s.Label.Render(label),
		fmt.Sprintf("%.3f", score),
		s.Help.Render(Meter(score, threshold, 20)))
}

// Meter draws score as a bar of width cells with a marker at threshold.
func Meter(score, threshold float32, width int) string {
	if width <= 0 {
		return ""
	}
	clamp := func(v float32) int {
		n := int(v * float32(width))
		return max(0, min(width, n))
	}
	filled, mark := clamp(score), clamp(threshold)
	var b strings.Builder
	b.WriteByte('[')
	for i := range width {
		switch {
		case i == mark:
			b.WriteByte('|')
		case i < filled:
			b.WriteByte('#')
		default:
			b.WriteByte('.')
		}
	}
	b.WriteByte(']')
	return b.String()
}
