package palette

// DefaultTailLimit caps the non-recent commands shown for an empty query.
const DefaultTailLimit = 12

// MaxQueryLength is the longest query, in runes, the palette accepts.
const MaxQueryLength = 120

// ClampQuery cuts q to MaxQueryLength runes.
func ClampQuery(q string) string {
	if len(q) <= MaxQueryLength {
		return q
	}
	r := []rune(q)
	if len(r) <= MaxQueryLength {
		return q
	}
	return string(r[:MaxQueryLength])
}

// Rank builds the palette's result list. For a blank query it is the recent
// commands still present in the registry, in recency order, followed by up to
// tailLimit of the remaining commands in registration order. Otherwise it is
// the fuzzy match.
func (m *Matcher) Rank(query string, reg *Registry, recent []string, tailLimit int) []Result {
	if Normalize(query) != "" {
		return m.Match(query, reg.Commands())
	}
	if tailLimit < 0 {
		tailLimit = 0
	}

	out := make([]Result, 0, len(recent)+tailLimit)
	seen := make(map[string]struct{}, len(recent))
	for _, id := range recent {
		if _, dup := seen[id]; dup {
			continue
		}
		c, ok := reg.Lookup(id)
		if !ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, Result{Command: c, Recent: true})
	}

	tail := 0
	for _, c := range reg.Commands() {
		if tail == tailLimit {
			break
		}
		if _, ok := seen[c.ID]; ok {
			continue
		}
		out = append(out, Result{Command: c})
		tail++
	}
	return out
}
