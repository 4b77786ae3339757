package cli

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

// GateCheck is the output of `regtime gate check`.
type GateCheck struct {
	Path      string `json:"path"`
	Policy    string `json:"policy"`
	Protected bool   `json:"protected"`
	Outcome   string `json:"outcome"`
	Reason    string `json:"reason"`
	UserID    string `json:"user_id,omitempty"`
	Email     string `json:"email,omitempty"`
	Hint      string `json:"hint,omitempty"`
	Redirect  string `json:"redirect,omitempty"`
	Error     string `json:"error,omitempty"`
}

func newGateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gate",
		Short: "Inspect the session gate",
	}

	var cookies []string
	var policy string
	check := &cobra.Command{
		Use:   "check <path>",
		Short: "Show the gate decision for a request path",
		Long: `Evaluate the session gate for a path with the configured identity
provider, as the server would.

Examples:
  regtime gate check /dashboard
  regtime gate check /dashboard/projects --cookie sb-access-token=$TOKEN
  regtime gate check /dashboard --policy shallow --cookie supabase-auth-token=x`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if policy != "" {
				cfg.Gate.Policy = policy
			}
			return runGateCheck(cmd, args[0], cookies)
		},
	}
	check.Flags().StringArrayVar(&cookies, "cookie", nil, "request cookie as name=value (repeatable)")
	check.Flags().StringVar(&policy, "policy", "", "override gate policy: shallow|verified")
	cmd.AddCommand(check)
	return cmd
}

func runGateCheck(cmd *cobra.Command, target string, cookies []string) error {
	_, g, err := buildGate()
	if err != nil {
		return err
	}
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("invalid path %q: %w", target, err)
	}
	for _, c := range cookies {
		name, value, ok := strings.Cut(c, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return fmt.Errorf("invalid cookie %q (want name=value)", c)
		}
		req.AddCookie(&http.Cookie{Name: strings.TrimSpace(name), Value: value})
	}

	d := g.Decide(req)
	res := GateCheck{
		Path:      req.URL.RequestURI(),
		Policy:    string(g.Policy()),
		Protected: g.Protects(req.URL.Path),
		Outcome:   d.Outcome.String(),
		Reason:    string(d.Reason),
		Hint:      d.Hint,
		Redirect:  d.Redirect,
	}
	if d.Identity != nil {
		res.UserID, res.Email = d.Identity.ID, d.Identity.Email
	}
	if d.Err != nil {
		res.Error = d.Err.Error()
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, res)
	}
	fmt.Fprintf(out, "%-10s %s\n", "path:", res.Path)
	fmt.Fprintf(out, "%-10s %s\n", "policy:", res.Policy)
	fmt.Fprintf(out, "%-10s %t\n", "protected:", res.Protected)
	fmt.Fprintf(out, "%-10s %s (%s)\n", "outcome:", res.Outcome, res.Reason)
	if res.UserID != "" {
		fmt.Fprintf(out, "%-10s %s %s\n", "user:", res.UserID, res.Email)
	}
	if res.Hint != "" {
		fmt.Fprintf(out, "%-10s %s (unverified)\n", "hint:", res.Hint)
	}
	if res.Redirect != "" {
		fmt.Fprintf(out, "%-10s %s\n", "redirect:", res.Redirect)
	}
	if res.Error != "" {
		fmt.Fprintf(out, "%-10s %s\n", "error:", res.Error)
	}
	return nil
}
