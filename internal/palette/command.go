// Package palette implements the command palette: the command registry, the
// fuzzy matcher and ranker, the recency list, and the selection state machine
// that ties them together.
package palette

import (
	"errors"
	"fmt"
	"strings"
)

// Category groups commands in the palette.
type Category string

const (
	CategoryNavigation Category = "navigation"
	CategoryTheme      Category = "theme"
	CategoryContent    Category = "content"
	CategoryActions    Category = "actions"
	CategoryAdmin      Category = "admin"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryNavigation,
	CategoryTheme,
	CategoryContent,
	CategoryActions,
	CategoryAdmin,
}

// ParseCategory maps a user-supplied name onto a Category.
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("invalid category %q (valid: navigation, theme, content, actions, admin)", raw)
}

// Handler is the side effect a command performs when confirmed.
type Handler interface {
	Execute() error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func() error

func (f HandlerFunc) Execute() error { return f() }

// Command is a named, searchable action. Keywords are matched but never shown.
type Command struct {
	ID          string
	Title       string
	Description string
	Keywords    []string
	Category    Category
	Shortcut    string
	Icon        string
	Handler     Handler
}

// Run invokes the command's handler. A command without a handler is a no-op.
func (c Command) Run() error {
	if c.Handler == nil {
		return nil
	}
	if err := c.Handler.Execute(); err != nil {
		return fmt.Errorf("run %s: %w", c.ID, err)
	}
	return nil
}

var (
	// ErrEmptyID is returned when a command has no id.
	ErrEmptyID = errors.New("command id is empty")
	// ErrDuplicateID is returned when two commands share an id.
	ErrDuplicateID = errors.New("duplicate command id")
	// ErrUnknownCommand is returned when running an id the registry lacks.
	ErrUnknownCommand = errors.New("unknown command")
)

// Registry is an ordered, immutable set of commands. Build a new one
// whenever the command set has to change.
type Registry struct {
	commands []Command
	index    map[string]int
}

// NewRegistry validates ids and freezes the given order.
func NewRegistry(cmds ...Command) (*Registry, error) {
	r := &Registry{
		commands: make([]Command, 0, len(cmds)),
		index:    make(map[string]int, len(cmds)),
	}
	for _, c := range cmds {
		if strings.TrimSpace(c.ID) == "" {
			return nil, fmt.Errorf("command %q: %w", c.Title, ErrEmptyID)
		}
		if _, ok := r.index[c.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, c.ID)
		}
		c.Keywords = append([]string(nil), c.Keywords...)
		r.index[c.ID] = len(r.commands)
		r.commands = append(r.commands, c)
	}
	return r, nil
}

// Commands returns a copy of the commands in registration order.
func (r *Registry) Commands() []Command {
	if r == nil {
		return nil
	}
	return append([]Command(nil), r.commands...)
}

// Lookup returns the command with the given id.
func (r *Registry) Lookup(id string) (Command, bool) {
	if r == nil {
		return Command{}, false
	}
	i, ok := r.index[id]
	if !ok {
		return Command{}, false
	}
	return r.commands[i], true
}

// Len reports the number of registered commands.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.commands)
}

// Shortcuts maps each key sequence hint (e.g. "g h") to its command id.
func (r *Registry) Shortcuts() map[string]string {
	out := make(map[string]string)
	if r == nil {
		return out
	}
	for _, c := range r.commands {
		if c.Shortcut != "" {
			out[c.Shortcut] = c.ID
		}
	}
	return out
}
