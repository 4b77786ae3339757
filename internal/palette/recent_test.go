package palette

import (
	"errors"
	"fmt"
	"testing"

	"github.com/regtime/regtime/internal/localstore"
)

type brokenStore struct {
	getErr error
	setErr error
	sets   int
}

func (b *brokenStore) Get(string) ([]byte, error) { return nil, b.getErr }
func (b *brokenStore) Set(string, []byte) error {
	b.sets++
	return b.setErr
}
func (b *brokenStore) Delete(string) error { return nil }
func (b *brokenStore) Close() error        { return nil }

func TestRecordSameIDTwice(t *testing.T) {
	tr := NewRecencyTracker(localstore.NewMemory(), 0)
	tr.Record("nav-home")
	tr.Record("nav-home")
	if got := tr.List(); !equalStrings(got, []string{"nav-home"}) {
		t.Errorf("List() = %v, want [nav-home]", got)
	}
}

func TestRecordKeepsSevenMostRecent(t *testing.T) {
	tr := NewRecencyTracker(localstore.NewMemory(), DefaultRecentLimit)
	for i := 1; i <= 8; i++ {
		tr.Record(fmt.Sprintf("cmd-%d", i))
	}
	want := []string{"cmd-8", "cmd-7", "cmd-6", "cmd-5", "cmd-4", "cmd-3", "cmd-2"}
	if got := tr.List(); !equalStrings(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestRecordMovesToFront(t *testing.T) {
	tr := NewRecencyTracker(nil, 0)
	tr.Record("a")
	tr.Record("b")
	tr.Record("c")
	tr.Record("a")
	if got := tr.List(); !equalStrings(got, []string{"a", "c", "b"}) {
		t.Errorf("List() = %v, want [a c b]", got)
	}
}

func TestRecencyPersistsAcrossTrackers(t *testing.T) {
	store := localstore.NewMemory()
	first := NewRecencyTracker(store, 0)
	first.Record("nav-about")
	first.Record("nav-home")

	raw, err := store.Get(RecentKey)
	if err != nil {
		t.Fatalf("store.Get: %v", err)
	}
	if string(raw) != `["nav-home","nav-about"]` {
		t.Errorf("stored = %s", raw)
	}

	second := NewRecencyTracker(store, 0)
	if got := second.List(); !equalStrings(got, []string{"nav-home", "nav-about"}) {
		t.Errorf("reloaded = %v", got)
	}
}

func TestLoadMalformedIsEmpty(t *testing.T) {
	tests := map[string]string{
		"not json":   "{{{",
		"object":     `{"a":1}`,
		"wrong type": `[1,2,3]`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			store := localstore.NewMemory()
			_ = store.Set(RecentKey, []byte(raw))
			tr := NewRecencyTracker(store, 0)
			if tr.Len() != 0 {
				t.Errorf("List() = %v, want empty", tr.List())
			}
			tr.Record("nav-home")
			if got := tr.List(); !equalStrings(got, []string{"nav-home"}) {
				t.Errorf("after Record = %v", got)
			}
		})
	}
}

func TestLoadDedupesAndTruncates(t *testing.T) {
	store := localstore.NewMemory()
	_ = store.Set(RecentKey, []byte(`["a","b","a","","c","d","e","f","g","h","i"]`))
	tr := NewRecencyTracker(store, 0)
	want := []string{"a", "b", "c", "d", "e", "f", "g"}
	if got := tr.List(); !equalStrings(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestPersistenceFailureIsSwallowed(t *testing.T) {
	store := &brokenStore{getErr: errors.New("quota"), setErr: errors.New("quota exceeded")}
	tr := NewRecencyTracker(store, 0)
	tr.Record("nav-home")
	tr.Record("nav-about")
	if got := tr.List(); !equalStrings(got, []string{"nav-about", "nav-home"}) {
		t.Errorf("List() = %v", got)
	}
	if store.sets != 2 {
		t.Errorf("Set called %d times, want 2", store.sets)
	}
}

func TestClear(t *testing.T) {
	store := localstore.NewMemory()
	tr := NewRecencyTracker(store, 0)
	tr.Record("a")
	tr.Clear()
	if tr.Len() != 0 {
		t.Fatalf("List() = %v after Clear", tr.List())
	}
	if raw, _ := store.Get(RecentKey); string(raw) != "[]" {
		t.Errorf("stored = %s, want []", raw)
	}
}

func TestListReturnsCopy(t *testing.T) {
	tr := NewRecencyTracker(nil, 0)
	tr.Record("a")
	l := tr.List()
	l[0] = "mutated"
	if tr.List()[0] != "a" {
		t.Error("List() exposed internal slice")
	}
}
