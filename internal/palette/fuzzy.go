package palette

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/regtime/regtime/internal/util"
)

const (
	// DefaultThreshold is the worst field score (0 perfect, 1 no match) that
	// still admits a command.
	DefaultThreshold = 0.3
	// DefaultDistance is how many runes into a field a match can start before
	// the offset penalty alone reaches 1.
	DefaultDistance = 100

	TitleWeight       = 0.7
	KeywordsWeight    = 0.5
	DescriptionWeight = 0.3

	epsilon = 2.220446049250313e-16
)

// Field names a matchable command field.
type Field string

const (
	FieldTitle       Field = "title"
	FieldKeywords    Field = "keywords"
	FieldDescription Field = "description"
)

// Result is one ranked command. Lower Score is better.
type Result struct {
	Command Command
	Score   float64
	// Fields holds the per-field scores that passed the threshold.
	Fields map[Field]float64
	Recent bool
}

// Matcher scores commands against a query. The zero value is not usable;
// call NewMatcher.
type Matcher struct {
	Threshold float64
	Distance  int
}

// NewMatcher returns a matcher with the default tolerance.
func NewMatcher() *Matcher {
	return &Matcher{Threshold: DefaultThreshold, Distance: DefaultDistance}
}

var fold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lower-cases s, strips diacritics and collapses whitespace.
func Normalize(s string) string {
	out, _, err := transform.String(fold, s)
	if err != nil {
		out = s
	}
	return util.CollapseSpace(strings.ToLower(out))
}

// FieldScore returns how well query matches text: 0 for an exact match at the
// start, rising with edit distance and with how far in the match begins,
// capped at 1. Both arguments are normalized first.
func (m *Matcher) FieldScore(query, text string) float64 {
	return m.fieldScore([]rune(Normalize(query)), Normalize(text))
}

func (m *Matcher) fieldScore(q []rune, text string) float64 {
	n := len(q)
	if n == 0 || text == "" {
		return 1
	}
	t := []rune(text)

	best := 1.0
	if i := strings.Index(text, string(q)); i >= 0 {
		best = m.offsetPenalty(len([]rune(text[:i])))
		if best == 0 {
			return 0
		}
	}

	maxErr := int(math.Floor(m.Threshold * float64(n)))
	minLen := n - maxErr
	if minLen < 1 {
		minLen = 1
	}
	qs := string(q)
	for i := range t {
		penalty := m.offsetPenalty(i)
		if penalty >= best {
			break
		}
		for l := minLen; l <= n+maxErr; l++ {
			end := i + l
			if end > len(t) {
				end = len(t)
			}
			d := levenshtein.ComputeDistance(qs, string(t[i:end]))
			if s := float64(d)/float64(n) + penalty; s < best {
				best = s
			}
			if end == len(t) {
				break
			}
		}
	}
	return math.Min(best, 1)
}

func (m *Matcher) offsetPenalty(offset int) float64 {
	if m.Distance <= 0 {
		if offset == 0 {
			return 0
		}
		return 1
	}
	return float64(offset) / float64(m.Distance)
}

// Score evaluates a single command. ok reports whether its best field is
// within the threshold.
func (m *Matcher) Score(query string, c Command) (Result, bool) {
	q := []rune(Normalize(query))
	if len(q) == 0 {
		return Result{Command: c}, true
	}
	return m.score(q, c)
}

func (m *Matcher) score(q []rune, c Command) (Result, bool) {
	fields := make(map[Field]float64, 3)
	consider := func(f Field, s float64) {
		if s <= m.Threshold {
			fields[f] = s
		}
	}

	consider(FieldTitle, m.fieldScore(q, Normalize(c.Title)))
	if len(c.Keywords) > 0 {
		kw := 1.0
		for _, k := range c.Keywords {
			if s := m.fieldScore(q, Normalize(k)); s < kw {
				kw = s
			}
		}
		consider(FieldKeywords, kw)
	}
	if c.Description != "" {
		consider(FieldDescription, m.fieldScore(q, Normalize(c.Description)))
	}
	if len(fields) == 0 {
		return Result{}, false
	}

	const total = TitleWeight + KeywordsWeight + DescriptionWeight
	score := 1.0
	for _, f := range fieldOrder {
		if s, ok := fields[f]; ok {
			score *= math.Pow(math.Max(s, epsilon), fieldWeight(f)/total)
		}
	}
	return Result{Command: c, Score: score, Fields: fields}, true
}

var fieldOrder = []Field{FieldTitle, FieldKeywords, FieldDescription}

func fieldWeight(f Field) float64 {
	switch f {
	case FieldTitle:
		return TitleWeight
	case FieldKeywords:
		return KeywordsWeight
	default:
		return DescriptionWeight
	}
}

// Match returns the commands matching query, best first. Equal scores keep
// registry order. An empty or blank query returns every command in registry
// order with a zero score.
func (m *Matcher) Match(query string, cmds []Command) []Result {
	q := []rune(Normalize(query))
	if len(q) == 0 {
		out := make([]Result, len(cmds))
		for i, c := range cmds {
			out[i] = Result{Command: c}
		}
		return out
	}

	out := make([]Result, 0, len(cmds))
	for _, c := range cmds {
		if r, ok := m.score(q, c); ok {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	return out
}

// BestFieldScore is the lowest per-field score among a result's matched fields.
func (r Result) BestFieldScore() float64 {
	best := 1.0
	for _, s := range r.Fields {
		if s < best {
			best = s
		}
	}
	return best
}
