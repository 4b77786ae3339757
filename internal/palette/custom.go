package palette

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// CustomCommand is a user-defined navigation command read from a commands
// file.
type CustomCommand struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description,omitempty"`
	Keywords    []string `yaml:"keywords,omitempty"`
	Category    string   `yaml:"category,omitempty"`
	Shortcut    string   `yaml:"shortcut,omitempty"`
	Route       string   `yaml:"route"`
}

type customFile struct {
	Commands []CustomCommand `yaml:"commands"`
}

// LoadCustomCommands reads a commands file. Files ending in .md use the
// markdown layout; everything else is YAML. Entries without an id, title or
// route are skipped.
func LoadCustomCommands(path string) ([]CustomCommand, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cmds []CustomCommand
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		cmds = parseMarkdownCommands(string(data))
	default:
		var f customFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		cmds = f.Commands
	}

	out := cmds[:0]
	for _, c := range cmds {
		c.ID = strings.TrimSpace(c.ID)
		c.Title = strings.TrimSpace(c.Title)
		c.Route = strings.TrimSpace(c.Route)
		if c.ID == "" || c.Title == "" || c.Route == "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// parseMarkdownCommands reads
//
//	## Category
//	### id | Title
//	route: /dashboard/projects
//	keywords: projects, list
//	shortcut: g p
//	Free text lines become the description.
func parseMarkdownCommands(content string) []CustomCommand {
	var (
		commands []CustomCommand
		category string
		current  *CustomCommand
		desc     []string
	)
	flush := func() {
		if current != nil {
			current.Description = strings.TrimSpace(strings.Join(desc, " "))
			commands = append(commands, *current)
		}
		current = nil
		desc = nil
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	for _, line := range strings.Split(content, "\n") {
		switch {
		case strings.HasPrefix(line, "### "):
			flush()
			header := strings.TrimSpace(strings.TrimPrefix(line, "### "))
			parts := strings.SplitN(header, "|", 2)
			if len(parts) != 2 {
				continue
			}
			current = &CustomCommand{
				ID:       strings.TrimSpace(parts[0]),
				Title:    strings.TrimSpace(parts[1]),
				Category: category,
			}
		case strings.HasPrefix(line, "## "):
			flush()
			category = strings.TrimSpace(strings.TrimPrefix(line, "## "))
		case strings.HasPrefix(line, "#"):
			// comment
		case current != nil:
			key, value, ok := strings.Cut(line, ":")
			switch k := strings.ToLower(strings.TrimSpace(key)); {
			case ok && k == "route":
				current.Route = strings.TrimSpace(value)
			case ok && k == "keywords":
				for _, kw := range strings.Split(value, ",") {
					if kw = strings.TrimSpace(kw); kw != "" {
						current.Keywords = append(current.Keywords, kw)
					}
				}
			case ok && k == "shortcut":
				current.Shortcut = strings.TrimSpace(value)
			default:
				if t := strings.TrimSpace(line); t != "" {
					desc = append(desc, t)
				}
			}
		}
	}
	flush()
	return commands
}

// CustomCommands turns custom entries into navigation commands. Unknown categories
// fall back to navigation.
func CustomCommands(custom []CustomCommand, a Actions, icon string) []Command {
	out := make([]Command, 0, len(custom))
	for _, c := range custom {
		cat, err := ParseCategory(c.Category)
		if err != nil {
			cat = CategoryNavigation
		}
		out = append(out, Command{
			ID:          c.ID,
			Title:       c.Title,
			Description: c.Description,
			Keywords:    c.Keywords,
			Category:    cat,
			Shortcut:    c.Shortcut,
			Icon:        icon,
			Handler:     navigate(a, c.Route),
		})
	}
	return out
}
