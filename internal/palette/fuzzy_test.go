package palette

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"  Contact  Us ": "contact us",
		"Café":           "cafe",
		"ÜBER\tAlles":    "uber alles",
		"":               "",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFieldScore(t *testing.T) {
	t.Parallel()

	m := NewMatcher()
	tests := []struct {
		name        string
		query, text string
		maxScore    float64
		minScore    float64
	}{
		{"exact", "contact", "Contact", 0, 0},
		{"prefix", "cont", "Contact", 0, 0},
		{"case and accents", "cafe", "CAFÉ", 0, 0},
		{"substring pays offset", "touch", "Get in touch", 0.07, 0.07},
		{"single typo", "contakt", "Contact", 0.15, 0.14},
		{"missing letter", "abut", "About", 0.25, 0.25},
		{"transposition costs two edits", "abuot", "About", 0.4, 0.4},
		{"unrelated", "zzzz", "Contact", 1, 0.75},
		{"empty text", "home", "", 1, 1},
	}
	for _, tt := range tests {
		got := m.FieldScore(tt.query, tt.text)
		if got > tt.maxScore+1e-9 || got < tt.minScore-1e-9 {
			t.Errorf("%s: FieldScore(%q, %q) = %.4f, want in [%.2f, %.2f]", tt.name, tt.query, tt.text, got, tt.minScore, tt.maxScore)
		}
	}
}

func TestMatchRanksTitleHitFirst(t *testing.T) {
	reg := defaultRegistry(t, newTestEnv())
	m := NewMatcher()

	got := m.Match("contact", reg.Commands())
	if len(got) == 0 || got[0].Command.ID != "nav-contact" {
		t.Fatalf("Match(contact) = %v, want nav-contact first", ids(got))
	}
	want := map[string]bool{"nav-contact": true, "action-inquiry": true, "action-copy-email": true, "action-copy-phone": true}
	for _, r := range got {
		if !want[r.Command.ID] {
			t.Errorf("unexpected match %s", r.Command.ID)
		}
	}
}

func TestMatchToleratesTypo(t *testing.T) {
	reg := defaultRegistry(t, newTestEnv())
	got := NewMatcher().Match("contakt", reg.Commands())
	if len(got) == 0 || got[0].Command.ID != "nav-contact" {
		t.Fatalf("Match(contakt) = %v, want nav-contact first", ids(got))
	}
}

func TestMatchNoResults(t *testing.T) {
	reg := defaultRegistry(t, newTestEnv())
	got := NewMatcher().Match("zzzz", reg.Commands())
	if got == nil || len(got) != 0 {
		t.Fatalf("Match(zzzz) = %v, want empty non-nil slice", ids(got))
	}
}

func TestMatchEmptyQueryKeepsRegistryOrder(t *testing.T) {
	reg := defaultRegistry(t, newTestEnv())
	for _, q := range []string{"", "   ", "\t"} {
		got := NewMatcher().Match(q, reg.Commands())
		if len(got) != reg.Len() {
			t.Fatalf("Match(%q) len = %d, want %d", q, len(got), reg.Len())
		}
		for i, c := range reg.Commands() {
			if got[i].Command.ID != c.ID {
				t.Errorf("Match(%q)[%d] = %s, want %s", q, i, got[i].Command.ID, c.ID)
			}
		}
	}
}

func TestMatchNeverExceedsThreshold(t *testing.T) {
	reg := defaultRegistry(t, newTestEnv())
	m := NewMatcher()
	queries := []string{"c", "co", "mo", "motion", "copy", "privcy", "g", "help", "serv", "phone", "nquiry", "x", "tokens", "abut"}
	for _, q := range queries {
		for _, r := range m.Match(q, reg.Commands()) {
			best := 1.0
			for _, f := range []string{r.Command.Title, r.Command.Description} {
				if f == "" {
					continue
				}
				if s := m.FieldScore(q, f); s < best {
					best = s
				}
			}
			for _, k := range r.Command.Keywords {
				if s := m.FieldScore(q, k); s < best {
					best = s
				}
			}
			if best > m.Threshold {
				t.Errorf("query %q: %s included with best field score %.3f", q, r.Command.ID, best)
			}
			if r.BestFieldScore() != best {
				t.Errorf("query %q: %s BestFieldScore = %.3f, recomputed %.3f", q, r.Command.ID, r.BestFieldScore(), best)
			}
		}
	}
}

func TestMatchIsDeterministic(t *testing.T) {
	reg := defaultRegistry(t, newTestEnv())
	m := NewMatcher()
	for _, q := range []string{"motion", "copy", "o", "contact"} {
		first := ids(m.Match(q, reg.Commands()))
		for i := 0; i < 20; i++ {
			if again := ids(m.Match(q, reg.Commands())); !equalStrings(first, again) {
				t.Fatalf("query %q: run %d = %v, first = %v", q, i, again, first)
			}
		}
	}
}

func TestMatchTiesKeepRegistryOrder(t *testing.T) {
	t.Parallel()

	cmds := []Command{
		{ID: "b", Title: "Alpha"},
		{ID: "a", Title: "Alpha"},
		{ID: "c", Title: "Alpha"},
	}
	got := ids(NewMatcher().Match("alpha", cmds))
	if want := []string{"b", "a", "c"}; !equalStrings(got, want) {
		t.Errorf("ties = %v, want %v", got, want)
	}
}

func TestTitleOutranksDescription(t *testing.T) {
	t.Parallel()

	cmds := []Command{
		{ID: "desc", Title: "Something", Description: "widget"},
		{ID: "title", Title: "Widget", Description: "Something"},
	}
	got := ids(NewMatcher().Match("widget", cmds))
	if len(got) != 2 || got[0] != "title" {
		t.Errorf("order = %v, want title first", got)
	}
}

func TestScoreSingleCommand(t *testing.T) {
	t.Parallel()

	m := NewMatcher()
	c := Command{ID: "nav-home", Title: "Home", Keywords: []string{"main"}}
	if _, ok := m.Score("main", c); !ok {
		t.Error("keyword hit should match")
	}
	if _, ok := m.Score("qqqq", c); ok {
		t.Error("unrelated query should not match")
	}
	if r, ok := m.Score("", c); !ok || r.Score != 0 {
		t.Errorf("blank query = %+v, %v", r, ok)
	}
}
