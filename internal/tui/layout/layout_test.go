package layout

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestTruncateWidth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		s      string
		width  int
		suffix string
		want   string
	}{
		{"fits", "regtime", 10, Ellipsis, "regtime"},
		{"exact", "Privacy", 7, Ellipsis, "Privacy"},
		{"cut", "Privacy Policy", 8, Ellipsis, "Privacy…"},
		{"zero width", "Privacy", 0, Ellipsis, ""},
		{"suffix too wide", "abcdef", 2, "...", "ab"},
		{"ansi ignored", "\x1b[1mbold\x1b[0m", 4, Ellipsis, "\x1b[1mbold\x1b[0m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateWidth(tt.s, tt.width, tt.suffix); got != tt.want {
				t.Errorf("TruncateWidth(%q, %d, %q) = %q, want %q", tt.s, tt.width, tt.suffix, got, tt.want)
			}
		})
	}
}

func TestTruncateWidthDefault(t *testing.T) {
	t.Parallel()

	got := TruncateWidthDefault("Terms of Service", 6)
	if !strings.HasSuffix(got, Ellipsis) {
		t.Errorf("got %q, want trailing ellipsis", got)
	}
	if w := runewidth.StringWidth(got); w > 6 {
		t.Errorf("width %d exceeds 6: %q", w, got)
	}
}

func TestTruncateMiddle(t *testing.T) {
	t.Parallel()

	if got := TruncateMiddle("short", 10); got != "short" {
		t.Errorf("short input changed: %q", got)
	}
	if got := TruncateMiddle("internal/tui/palette/model.go", 12); got != "intern…el.go" {
		t.Errorf("TruncateMiddle path = %q", got)
	}
	if got := TruncateMiddle("anything", 0); got != "" {
		t.Errorf("zero width = %q, want empty", got)
	}
}

func TestTruncateMiddleWideRunes(t *testing.T) {
	t.Parallel()

	got := TruncateMiddle("日本語テキスト", 7)
	if w := runewidth.StringWidth(got); w > 7 {
		t.Fatalf("width %d exceeds 7: %q", w, got)
	}
	if !strings.HasPrefix(got, "日") || !strings.HasSuffix(got, "ト") {
		t.Errorf("ends not kept: %q", got)
	}
}

func TestTruncateMiddleWidthEllipsisTooWide(t *testing.T) {
	t.Parallel()

	if got := TruncateMiddleWidth("abcdef", 2, "..."); got != "ab" {
		t.Errorf("got %q, want %q", got, "ab")
	}
	if got := TruncateMiddleWidth("abcdefghij", 6, ".."); got != "ab..ij" {
		t.Errorf("custom ellipsis = %q", got)
	}
}

func TestWrap(t *testing.T) {
	t.Parallel()

	got := Wrap("Follow system preference", 10)
	for _, line := range strings.Split(got, "\n") {
		if runewidth.StringWidth(line) > 10 {
			t.Errorf("line %q wider than 10", line)
		}
	}
	if Wrap("short", 0) != "short" {
		t.Error("zero width should leave text alone")
	}
}

func TestOverlayWidth(t *testing.T) {
	t.Parallel()

	tests := map[int]int{
		200: MaxOverlayWidth,
		60:  56,
		26:  MinOverlayWidth,
		10:  10,
	}
	for term, want := range tests {
		if got := OverlayWidth(term); got != want {
			t.Errorf("OverlayWidth(%d) = %d, want %d", term, got, want)
		}
	}
}
