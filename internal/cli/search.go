package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/regtime/regtime/internal/palette"
	"github.com/regtime/regtime/internal/tui/layout"
)

// SearchResult is one row of `regtime search --json`.
type SearchResult struct {
	Rank        int     `json:"rank"`
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category"`
	Shortcut    string  `json:"shortcut,omitempty"`
	Score       float64 `json:"score"`
	Recent      bool    `json:"recent,omitempty"`
}

func newSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Rank palette commands for a query",
		Long: `Rank commands the way the palette does. With no query, recent commands
come first followed by the rest in registration order.

Examples:
  regtime search about
  regtime search copy email --json
  regtime search                  # recent + default list`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum results (0 for all)")
	return cmd
}

func runSearch(cmd *cobra.Command, query string, limit int) error {
	reg, err := commandRegistry()
	if err != nil {
		return err
	}
	store := openStore(cmd.ErrOrStderr())
	defer store.Close()
	recent := palette.NewRecencyTracker(store, cfg.Palette.RecentLimit)

	matcher := palette.NewMatcher()
	matcher.Threshold = cfg.Palette.Threshold
	results := matcher.Rank(query, reg, recent.List(), cfg.Palette.TailLimit)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	rows := make([]SearchResult, len(results))
	for i, r := range results {
		rows[i] = SearchResult{
			Rank:        i + 1,
			ID:          r.Command.ID,
			Title:       r.Command.Title,
			Description: r.Command.Description,
			Category:    string(r.Command.Category),
			Shortcut:    r.Command.Shortcut,
			Score:       r.Score,
			Recent:      r.Recent,
		}
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "No commands found. Try different keywords.")
		return nil
	}

	t := NewTable("#", "ID", "Title", "Category", "Keys", "Score")
	for _, r := range rows {
		title := layout.TruncateMiddle(r.Title, 32)
		if r.Recent {
			title += " (recent)"
		}
		t.AddRow(strconv.Itoa(r.Rank), r.ID, title, r.Category, strings.ToUpper(r.Shortcut), fmt.Sprintf("%.3f", r.Score))
	}
	t.WithFooter(fmt.Sprintf("%d of %d commands", len(rows), reg.Len()))
	fmt.Fprint(out, t.Render())
	return nil
}
