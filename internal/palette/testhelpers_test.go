package palette

import (
	"testing"

	"github.com/regtime/regtime/internal/prefs"
	"github.com/regtime/regtime/internal/tui/icons"
)

type recordingNavigator struct{ routes []string }

func (n *recordingNavigator) Navigate(route string) error {
	n.routes = append(n.routes, route)
	return nil
}

type recordingClipboard struct {
	text string
	err  error
}

func (c *recordingClipboard) WriteAll(text string) error {
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

type recordingNotifier struct{ toasts []Toast }

func (n *recordingNotifier) Notify(t Toast) { n.toasts = append(n.toasts, t) }

type testEnv struct {
	nav   *recordingNavigator
	clip  *recordingClipboard
	note  *recordingNotifier
	prefs *prefs.Preferences
}

func newTestEnv() *testEnv {
	return &testEnv{
		nav:   &recordingNavigator{},
		clip:  &recordingClipboard{},
		note:  &recordingNotifier{},
		prefs: prefs.Load(nil),
	}
}

func (e *testEnv) actions() Actions {
	return Actions{Navigator: e.nav, Clipboard: e.clip, Motion: e.prefs, Notifier: e.note}
}

func defaultRegistry(t *testing.T, env *testEnv) *Registry {
	t.Helper()
	reg, err := DefaultRegistry(env.actions(), Options{Icons: icons.ASCII})
	if err != nil {
		t.Fatalf("DefaultRegistry: %v", err)
	}
	return reg
}

func ids(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Command.ID
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
