package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/regtime/regtime/internal/palette"
)

// RecentEntry is one row of `regtime recent list --json`.
type RecentEntry struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Known bool   `json:"known"`
}

func newRecentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show or clear recently run commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecentList(cmd)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List recent commands, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecentList(cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget all recent commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := openStore(cmd.ErrOrStderr())
			defer store.Close()
			palette.NewRecencyTracker(store, cfg.Palette.RecentLimit).Clear()
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]bool{"cleared": true})
			}
			fmt.Fprintln(cmd.OutOrStdout(), successMessage("Recent commands cleared"))
			return nil
		},
	})
	return cmd
}

func runRecentList(cmd *cobra.Command) error {
	reg, err := commandRegistry()
	if err != nil {
		return err
	}
	store := openStore(cmd.ErrOrStderr())
	defer store.Close()

	ids := palette.NewRecencyTracker(store, cfg.Palette.RecentLimit).List()
	entries := make([]RecentEntry, 0, len(ids))
	for _, id := range ids {
		e := RecentEntry{ID: id}
		if c, ok := reg.Lookup(id); ok {
			e.Title, e.Known = c.Title, true
		}
		entries = append(entries, e)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No recent commands.")
		return nil
	}
	t := NewTable("ID", "Title")
	for _, e := range entries {
		title := e.Title
		if !e.Known {
			title = "(no longer available)"
		}
		t.AddRow(e.ID, title)
	}
	fmt.Fprint(out, t.Render())
	return nil
}
