// Package theme defines the Regtime terminal palette and styles.
package theme

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme is a set of brand colours.
type Theme struct {
	Ink      lipgloss.Color // primary text
	Mist     lipgloss.Color // light background
	Sky      lipgloss.Color // accent
	Slate    lipgloss.Color // accent hover
	Graphite lipgloss.Color // secondary text
	Fog      lipgloss.Color // borders

	Success lipgloss.Color
	Error   lipgloss.Color
}

// Regtime is the brand theme.
var Regtime = Theme{
	Ink:      lipgloss.Color("#111111"),
	Mist:     lipgloss.Color("#DEEDF4"),
	Sky:      lipgloss.Color("#78C7EA"),
	Slate:    lipgloss.Color("#496671"),
	Graphite: lipgloss.Color("#636363"),
	Fog:      lipgloss.Color("#9CB2BC"),
	Success:  lipgloss.Color("#3FA46A"),
	Error:    lipgloss.Color("#D64545"),
}

var current = Regtime

// Current returns the active theme.
func Current() Theme { return current }

// Tokens returns the theme as name/hex pairs, for debugging output.
func (t Theme) Tokens() map[string]string {
	return map[string]string{
		"ink":      string(t.Ink),
		"mist":     string(t.Mist),
		"sky":      string(t.Sky),
		"slate":    string(t.Slate),
		"graphite": string(t.Graphite),
		"fog":      string(t.Fog),
		"success":  string(t.Success),
		"error":    string(t.Error),
	}
}

// NoColorRequested reports whether NO_COLOR is set.
func NoColorRequested() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

// ConfigureColor sets the lipgloss colour profile. noColor (or NO_COLOR)
// forces plain ASCII output; otherwise the profile is detected from stdout.
func ConfigureColor(noColor bool) termenv.Profile {
	profile := termenv.EnvColorProfile()
	if noColor || NoColorRequested() {
		profile = termenv.Ascii
	}
	lipgloss.SetColorProfile(profile)
	return profile
}

// Styles are the rendered pieces of the palette shell.
type Styles struct {
	Box         lipgloss.Style
	Prompt      lipgloss.Style
	Item        lipgloss.Style
	Selected    lipgloss.Style
	Description lipgloss.Style
	Shortcut    lipgloss.Style
	Recent      lipgloss.Style
	Category    lipgloss.Style
	Empty       lipgloss.Style
	Status      lipgloss.Style
	Route       lipgloss.Style
	ToastInfo   lipgloss.Style
	ToastOK     lipgloss.Style
	ToastError  lipgloss.Style
	Help        lipgloss.Style
}

// NewStyles builds styles from t.
func NewStyles(t Theme) Styles {
	return Styles{
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Fog).
			Padding(0, 1),
		Prompt:      lipgloss.NewStyle().Foreground(t.Sky).Bold(true),
		Item:        lipgloss.NewStyle().Foreground(t.Ink),
		Selected:    lipgloss.NewStyle().Foreground(t.Ink).Background(t.Mist).Bold(true),
		Description: lipgloss.NewStyle().Foreground(t.Graphite),
		Shortcut:    lipgloss.NewStyle().Foreground(t.Slate),
		Recent:      lipgloss.NewStyle().Foreground(t.Sky).Italic(true),
		Category:    lipgloss.NewStyle().Foreground(t.Fog).Bold(true),
		Empty:       lipgloss.NewStyle().Foreground(t.Graphite).Italic(true),
		Status:      lipgloss.NewStyle().Foreground(t.Graphite),
		Route:       lipgloss.NewStyle().Foreground(t.Slate).Bold(true),
		ToastInfo:   lipgloss.NewStyle().Foreground(t.Slate),
		ToastOK:     lipgloss.NewStyle().Foreground(t.Success),
		ToastError:  lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		Help:        lipgloss.NewStyle().Foreground(t.Graphite),
	}
}

// DefaultStyles builds styles from the current theme.
func DefaultStyles() Styles { return NewStyles(Current()) }
