package palette

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/regtime/regtime/internal/prefs"
	"github.com/regtime/regtime/internal/tui/icons"
)

// Navigator moves the shell to a route.
type Navigator interface {
	Navigate(route string) error
}

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	WriteAll(text string) error
}

// MotionPreferences reads and writes the reduced-motion choice.
type MotionPreferences interface {
	ReducedMotion() prefs.ReducedMotion
	SetReducedMotion(prefs.ReducedMotion) error
}

// ToastLevel classifies a notification.
type ToastLevel string

const (
	ToastSuccess ToastLevel = "success"
	ToastInfo    ToastLevel = "info"
	ToastError   ToastLevel = "error"
)

// Toast is a short notification shown by the shell.
type Toast struct {
	Level ToastLevel
	Title string
	Body  string
}

// Notifier shows toasts.
type Notifier interface {
	Notify(Toast)
}

// Actions bundles the collaborators the built-in commands act on.
type Actions struct {
	Navigator Navigator
	Clipboard Clipboard
	Motion    MotionPreferences
	Notifier  Notifier
}

// Options tunes the built-in command set.
type Options struct {
	ContactEmail string
	ContactPhone string
	Development  bool
	Icons        icons.IconSet
	// DesignTokens is logged by the admin token dump.
	DesignTokens map[string]string
}

const (
	DefaultContactEmail = "info@regtime.com"
	DefaultContactPhone = "+1 (555) 123-4567"
)

// ShortcutHelp is the text shown by the keyboard shortcuts command.
const ShortcutHelp = "Ctrl + K: Command palette, G+H/A/S/C: Navigate"

// Site routes.
const (
	RouteHome     = "/"
	RouteAbout    = "/about"
	RouteServices = "/services"
	RouteContact  = "/contact"
	RoutePrivacy  = "/privacy"
)

// DefaultCommands returns the built-in commands. Icons on the motion
// commands reflect the current preference, so rebuild after it changes.
func DefaultCommands(a Actions, opts Options) []Command {
	ic := opts.Icons
	if ic == (icons.IconSet{}) {
		ic = icons.Current()
	}
	email := opts.ContactEmail
	if email == "" {
		email = DefaultContactEmail
	}
	phone := opts.ContactPhone
	if phone == "" {
		phone = DefaultContactPhone
	}
	motion := prefs.MotionSystem
	if a.Motion != nil {
		motion = a.Motion.ReducedMotion()
	}
	motionIcon := func(active prefs.ReducedMotion, idle string) string {
		if motion == active {
			return ic.Active
		}
		return idle
	}

	cmds := []Command{
		{
			ID:          "nav-home",
			Title:       "Home",
			Description: "Go to homepage",
			Keywords:    []string{"home", "main", "index", "start"},
			Shortcut:    "g h",
			Category:    CategoryNavigation,
			Handler:     navigate(a, RouteHome),
			Icon:        ic.Home,
		},
		{
			ID:          "nav-about",
			Title:       "About",
			Description: "Learn about Regtime",
			Keywords:    []string{"about", "company", "team", "story"},
			Shortcut:    "g a",
			Category:    CategoryNavigation,
			Handler:     navigate(a, RouteAbout),
			Icon:        ic.About,
		},
		{
			ID:          "nav-services",
			Title:       "Services",
			Description: "View our services",
			Keywords:    []string{"services", "products", "offerings", "plans"},
			Shortcut:    "g s",
			Category:    CategoryNavigation,
			Handler:     navigate(a, RouteServices),
			Icon:        ic.Services,
		},
		{
			ID:          "nav-contact",
			Title:       "Contact",
			Description: "Get in touch",
			Keywords:    []string{"contact", "support", "help", "reach"},
			Shortcut:    "g c",
			Category:    CategoryNavigation,
			Handler:     navigate(a, RouteContact),
			Icon:        ic.Contact,
		},
		{
			ID:          "nav-privacy",
			Title:       "Privacy Policy",
			Description: "View privacy policy",
			Keywords:    []string{"privacy", "policy", "legal", "terms"},
			Category:    CategoryNavigation,
			Handler:     navigate(a, RoutePrivacy),
			Icon:        ic.Privacy,
		},
		{
			ID:          "motion-auto",
			Title:       "Motion: Auto",
			Description: "Follow system preference",
			Keywords:    []string{"motion", "animation", "auto", "system"},
			Category:    CategoryTheme,
			Handler:     setMotion(a, prefs.MotionSystem),
			Icon:        motionIcon(prefs.MotionSystem, ic.MotionAuto),
		},
		{
			ID:          "motion-on",
			Title:       "Motion: On",
			Description: "Enable animations",
			Keywords:    []string{"motion", "animation", "on", "enable"},
			Category:    CategoryTheme,
			Handler:     setMotion(a, prefs.MotionFull),
			Icon:        motionIcon(prefs.MotionFull, ic.MotionOn),
		},
		{
			ID:          "motion-off",
			Title:       "Motion: Off",
			Description: "Disable animations",
			Keywords:    []string{"motion", "animation", "off", "disable", "reduce"},
			Category:    CategoryTheme,
			Handler:     setMotion(a, prefs.MotionReduce),
			Icon:        motionIcon(prefs.MotionReduce, ic.MotionOff),
		},
		{
			ID:          "action-inquiry",
			Title:       "Start New Inquiry",
			Description: "Open contact form",
			Keywords:    []string{"inquiry", "contact", "form", "new", "start"},
			Category:    CategoryActions,
			Handler:     navigate(a, RouteContact),
			Icon:        ic.Inquiry,
		},
		{
			ID:          "action-copy-email",
			Title:       "Copy Email",
			Description: "Copy " + email,
			Keywords:    []string{"copy", "email", "contact"},
			Category:    CategoryActions,
			Handler:     copyText(a, email, "Email copied"),
			Icon:        ic.Email,
		},
		{
			ID:          "action-copy-phone",
			Title:       "Copy Phone",
			Description: "Copy " + phone,
			Keywords:    []string{"copy", "phone", "number", "contact"},
			Category:    CategoryActions,
			Handler:     copyText(a, phone, "Phone copied"),
			Icon:        ic.Phone,
		},
		{
			ID:          "help-shortcuts",
			Title:       "Keyboard Shortcuts",
			Description: "View all shortcuts",
			Keywords:    []string{"help", "shortcuts", "keys", "commands"},
			Shortcut:    "?",
			Category:    CategoryContent,
			Handler: HandlerFunc(func() error {
				notify(a, Toast{Level: ToastInfo, Title: "Keyboard Shortcuts", Body: ShortcutHelp})
				return nil
			}),
			Icon: ic.Help,
		},
	}

	if opts.Development {
		tokens := opts.DesignTokens
		cmds = append(cmds, Command{
			ID:          "admin-tokens",
			Title:       "Dump Design Tokens",
			Description: "Log tokens to console",
			Keywords:    []string{"admin", "tokens", "debug", "console"},
			Category:    CategoryAdmin,
			Handler: HandlerFunc(func() error {
				keys := make([]string, 0, len(tokens))
				for k := range tokens {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				args := make([]any, 0, len(tokens)*2+2)
				for _, k := range keys {
					args = append(args, k, tokens[k])
				}
				args = append(args, "motion", string(motion))
				slog.Info("design tokens", args...)
				return nil
			}),
			Icon: ic.Admin,
		})
	}
	return cmds
}

// DefaultRegistry wraps DefaultCommands plus any extra commands in a registry.
func DefaultRegistry(a Actions, opts Options, extra ...Command) (*Registry, error) {
	cmds := append(DefaultCommands(a, opts), extra...)
	return NewRegistry(cmds...)
}

func navigate(a Actions, route string) Handler {
	return HandlerFunc(func() error {
		if a.Navigator == nil {
			return nil
		}
		return a.Navigator.Navigate(route)
	})
}

func setMotion(a Actions, m prefs.ReducedMotion) Handler {
	return HandlerFunc(func() error {
		if a.Motion == nil {
			return nil
		}
		return a.Motion.SetReducedMotion(m)
	})
}

func copyText(a Actions, text, title string) Handler {
	return HandlerFunc(func() error {
		if a.Clipboard == nil {
			return fmt.Errorf("clipboard unavailable")
		}
		if err := a.Clipboard.WriteAll(text); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		notify(a, Toast{Level: ToastSuccess, Title: title, Body: text + " copied to clipboard"})
		return nil
	})
}

func notify(a Actions, t Toast) {
	if a.Notifier != nil {
		a.Notifier.Notify(t)
	}
}
