// Package icons provides the glyph sets used by the palette and shell.
package icons

import (
	"os"
	"reflect"
	"strings"
)

// IconSet holds one glyph per command or UI element.
type IconSet struct {
	// Navigation
	Home     string
	About    string
	Services string
	Contact  string
	Privacy  string

	// Motion preference
	MotionAuto string
	MotionOn   string
	MotionOff  string
	Active     string

	// Actions
	Inquiry string
	Email   string
	Phone   string
	Help    string
	Admin   string
	Link    string

	// Palette chrome
	Search  string
	Pointer string
	Recent  string
	Check   string
	Cross   string
	Info    string
	General string
}

// Emoji mirrors the website's command icons.
var Emoji = IconSet{
	Home:       "🏠",
	About:      "👥",
	Services:   "⚡",
	Contact:    "📞",
	Privacy:    "🔒",
	MotionAuto: "⚙️",
	MotionOn:   "🎬",
	MotionOff:  "🚫",
	Active:     "✅",
	Inquiry:    "✉️",
	Email:      "📧",
	Phone:      "📱",
	Help:       "❓",
	Admin:      "🔧",
	Link:       "🔗",
	Search:     "🔍",
	Pointer:    "",
	Recent:     "🕘",
	Check:      "✅",
	Cross:      "❌",
	Info:       "",
	General:    "",
}

// Unicode uses narrow symbols that render in most terminal fonts.
var Unicode = IconSet{
	Home:       "⌂",
	About:      "☺",
	Services:   "⚡",
	Contact:    "☎",
	Privacy:    "⚿",
	MotionAuto: "◐",
	MotionOn:   "▶",
	MotionOff:  "■",
	Active:     "✓",
	Inquiry:    "✉",
	Email:      "@",
	Phone:      "☏",
	Help:       "?",
	Admin:      "⚒",
	Link:       "→",
	Search:     "⌕",
	Pointer:    "▸",
	Recent:     "↺",
	Check:      "✓",
	Cross:      "✗",
	Info:       "ℹ",
	General:    "•",
}

// ASCII is the plain fallback.
var ASCII = IconSet{
	Home:       "~",
	About:      "i",
	Services:   "*",
	Contact:    "#",
	Privacy:    "!",
	MotionAuto: "a",
	MotionOn:   ">",
	MotionOff:  "x",
	Active:     "+",
	Inquiry:    "m",
	Email:      "@",
	Phone:      "p",
	Help:       "?",
	Admin:      "%",
	Link:       "->",
	Search:     "/",
	Pointer:    ">",
	Recent:     "r",
	Check:      "[x]",
	Cross:      "[ ]",
	Info:       "i",
	General:    "-",
}

// Default is the set returned by Current.
var Default = ASCII

// SetDefault replaces the process default set.
func SetDefault(set IconSet) { Default = set }

// Current returns the default set.
func Current() IconSet { return Default }

// IsASCII reports whether the default set is the ASCII one.
func IsASCII() bool { return reflect.DeepEqual(Default, ASCII) }

// WithFallback fills every empty field from fallback.
func (s IconSet) WithFallback(fallback IconSet) IconSet {
	out := s
	v := reflect.ValueOf(&out).Elem()
	fb := reflect.ValueOf(fallback)
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Kind() == reflect.String && f.String() == "" {
			f.SetString(fb.Field(i).String())
		}
	}
	return out
}

// CategoryIcon maps a palette category name to a glyph.
func (s IconSet) CategoryIcon(category string) string {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "navigation", "nav":
		return s.Link
	case "theme", "motion":
		return s.MotionAuto
	case "content", "help":
		return s.Help
	case "actions", "action":
		return s.Inquiry
	case "admin":
		return s.Admin
	default:
		return s.General
	}
}

// StatusIcon returns Check or Cross.
func (s IconSet) StatusIcon(ok bool) string {
	if ok {
		return s.Check
	}
	return s.Cross
}

// Detect picks a set from the environment. REGTIME_ICONS selects
// emoji, unicode, ascii or auto; REGTIME_USE_ICONS=1 is the older switch for
// emoji. Without either the ASCII set is used.
func Detect() IconSet {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("REGTIME_ICONS"))) {
	case "emoji":
		return Emoji.WithFallback(Unicode)
	case "unicode":
		return Unicode
	case "ascii":
		return ASCII
	case "auto":
		if HasEmoji() {
			return Emoji.WithFallback(Unicode)
		}
		if HasUnicode() {
			return Unicode
		}
		return ASCII
	}
	if os.Getenv("REGTIME_USE_ICONS") == "1" {
		return Emoji.WithFallback(Unicode)
	}
	return ASCII
}

// HasEmoji guesses whether the terminal renders color emoji.
func HasEmoji() bool {
	switch os.Getenv("REGTIME_USE_ICONS") {
	case "1":
		return true
	case "0":
		return false
	}
	switch os.Getenv("TERM_PROGRAM") {
	case "iTerm.app", "WezTerm", "Apple_Terminal", "vscode", "ghostty":
		return true
	}
	if os.Getenv("KITTY_WINDOW_ID") != "" || os.Getenv("WEZTERM_PANE") != "" {
		return true
	}
	return false
}

// HasUnicode guesses whether the terminal can show non-ASCII symbols.
func HasUnicode() bool {
	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		v := strings.ToLower(os.Getenv(key))
		if strings.Contains(v, "utf-8") || strings.Contains(v, "utf8") {
			return true
		}
	}
	term := os.Getenv("TERM")
	if term == "dumb" || term == "linux" {
		return false
	}
	return term != ""
}
