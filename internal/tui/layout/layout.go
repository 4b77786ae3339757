// Package layout holds width helpers for the terminal views.
package layout

import (
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
)

// Ellipsis is the single-cell truncation marker.
const Ellipsis = "…"

// Overlay bounds for the palette.
const (
	MinOverlayWidth = 24
	MaxOverlayWidth = 72
)

// TruncateWidth cuts s to maxWidth terminal cells, ANSI sequences excluded,
// ending with suffix. A suffix that does not fit is dropped.
func TruncateWidth(s string, maxWidth int, suffix string) string {
	if maxWidth <= 0 {
		return ""
	}
	if ansi.PrintableRuneWidth(s) <= maxWidth {
		return s
	}
	if ansi.PrintableRuneWidth(suffix) >= maxWidth {
		return truncate.String(s, uint(maxWidth))
	}
	return truncate.StringWithTail(s, uint(maxWidth), suffix)
}

// TruncateWidthDefault is TruncateWidth with Ellipsis.
func TruncateWidthDefault(s string, maxWidth int) string {
	return TruncateWidth(s, maxWidth, Ellipsis)
}

// TruncateMiddle keeps both ends of s within maxWidth cells.
func TruncateMiddle(s string, maxWidth int) string {
	return TruncateMiddleWidth(s, maxWidth, Ellipsis)
}

// TruncateMiddleWidth keeps both ends of s within maxWidth cells, joined by
// ellipsis.
func TruncateMiddleWidth(s string, maxWidth int, ellipsis string) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	ew := runewidth.StringWidth(ellipsis)
	if ew >= maxWidth {
		return runewidth.Truncate(s, maxWidth, "")
	}

	avail := maxWidth - ew
	left := (avail + 1) / 2
	right := avail - left

	head := runewidth.Truncate(s, left, "")
	r := []rune(s)
	tail, width := len(r), 0
	for tail > 0 {
		cw := runewidth.RuneWidth(r[tail-1])
		if width+cw > right {
			break
		}
		width += cw
		tail--
	}
	return head + ellipsis + string(r[tail:])
}

// Wrap word-wraps s at width cells.
func Wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return wordwrap.String(s, width)
}

// OverlayWidth sizes the palette box for a terminal of termWidth cells.
func OverlayWidth(termWidth int) int {
	w := termWidth - 4
	if w > MaxOverlayWidth {
		w = MaxOverlayWidth
	}
	if w < MinOverlayWidth {
		w = MinOverlayWidth
	}
	if termWidth > 0 && w > termWidth {
		w = termWidth
	}
	return w
}
