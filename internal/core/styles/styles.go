// Package styles provides shared lipgloss styles for CLI output.
package styles

import "github.com/charmbracelet/lipgloss"

// Palette defines a minimal semantic palette.
type Palette struct {
	Primary    lipgloss.TerminalColor
	Foreground lipgloss.TerminalColor
	Muted      lipgloss.TerminalColor
	Success    lipgloss.TerminalColor
	Warning    lipgloss.TerminalColor
	Error      lipgloss.TerminalColor
}

// DefaultPalette adapts to light and dark terminals.
var DefaultPalette = Palette{
	Primary:    lipgloss.AdaptiveColor{Light: "#2e59c7", Dark: "#7aa2f7"},
	Foreground: lipgloss.AdaptiveColor{Light: "#1a1b26", Dark: "#c0caf5"},
	Muted:      lipgloss.AdaptiveColor{Light: "#6b7089", Dark: "#565f89"},
	Success:    lipgloss.AdaptiveColor{Light: "#3f7a1a", Dark: "#9ece6a"},
	Warning:    lipgloss.AdaptiveColor{Light: "#8a5a00", Dark: "#e0af68"},
	Error:      lipgloss.AdaptiveColor{Light: "#b3223f", Dark: "#f7768e"},
}

var (
	TextPrimaryStyle        lipgloss.Style
	TextPrimaryBoldStyle    lipgloss.Style
	TextForegroundBoldStyle lipgloss.Style
	TextMutedStyle          lipgloss.Style
	TextSuccessStyle        lipgloss.Style
	TextWarningStyle        lipgloss.Style
	TextErrorStyle          lipgloss.Style

	// TableHeaderStyle renders column headings in list output.
	TableHeaderStyle lipgloss.Style
)

func init() {
	SetPalette(DefaultPalette)
}

// SetPalette rebuilds every exported style from p.
func SetPalette(p Palette) {
	TextPrimaryStyle = lipgloss.NewStyle().Foreground(p.Primary)
	TextPrimaryBoldStyle = TextPrimaryStyle.Bold(true)
	TextForegroundBoldStyle = lipgloss.NewStyle().Foreground(p.Foreground).Bold(true)
	TextMutedStyle = lipgloss.NewStyle().Foreground(p.Muted)
	TextSuccessStyle = lipgloss.NewStyle().Foreground(p.Success)
	TextWarningStyle = lipgloss.NewStyle().Foreground(p.Warning)
	TextErrorStyle = lipgloss.NewStyle().Foreground(p.Error)
	TableHeaderStyle = lipgloss.NewStyle().Foreground(p.Muted).Bold(true).Underline(true)
}

// StatusStyle picks the style for an action outcome string.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "success", "pass":
		return TextSuccessStyle
	case "warn":
		return TextWarningStyle
	case "failed", "fail":
		return TextErrorStyle
	default:
		return TextMutedStyle
	}
}
