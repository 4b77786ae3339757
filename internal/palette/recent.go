package palette

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/regtime/regtime/internal/localstore"
)

const (
	// RecentKey is the store key holding the recency list.
	RecentKey = "ui:recentCommands"
	// DefaultRecentLimit bounds the recency list.
	DefaultRecentLimit = 7
)

// RecencyTracker keeps the most-recent-first list of executed command ids.
// Persistence is best effort: store failures are logged and dropped, and the
// in-memory list stays authoritative for the session.
type RecencyTracker struct {
	store  localstore.Store
	limit  int
	ids    []string
	logger *slog.Logger
}

// NewRecencyTracker loads the persisted list from store. A nil store keeps
// the list in memory only.
func NewRecencyTracker(store localstore.Store, limit int) *RecencyTracker {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	t := &RecencyTracker{store: store, limit: limit, logger: slog.Default()}
	t.ids = t.Load()
	return t
}

// Load reads the persisted list. Missing or malformed data yields an empty
// list; duplicates are dropped and the list is cut to the limit.
func (t *RecencyTracker) Load() []string {
	if t.store == nil {
		return []string{}
	}
	raw, err := t.store.Get(RecentKey)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			t.logger.Debug("recent commands unreadable", "error", err)
		}
		return []string{}
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		t.logger.Debug("recent commands malformed", "error", err)
		return []string{}
	}

	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, t.limit)
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
		if len(out) == t.limit {
			break
		}
	}
	return out
}

// Record moves id to the front of the list and persists it.
func (t *RecencyTracker) Record(id string) {
	if id == "" {
		return
	}
	next := make([]string, 0, t.limit)
	next = append(next, id)
	for _, existing := range t.ids {
		if existing == id {
			continue
		}
		if len(next) == t.limit {
			break
		}
		next = append(next, existing)
	}
	t.ids = next
	t.persist()
}

// Clear empties the list and persists the empty list.
func (t *RecencyTracker) Clear() {
	t.ids = []string{}
	t.persist()
}

// List returns a copy of the list, most recent first.
func (t *RecencyTracker) List() []string {
	return append([]string{}, t.ids...)
}

// Len reports how many ids are tracked.
func (t *RecencyTracker) Len() int { return len(t.ids) }

func (t *RecencyTracker) persist() {
	if t.store == nil {
		return
	}
	raw, err := json.Marshal(t.ids)
	if err != nil {
		t.logger.Debug("encode recent commands", "error", err)
		return
	}
	if err := t.store.Set(RecentKey, raw); err != nil {
		t.logger.Debug("persist recent commands", "error", err)
	}
}
