package prefs

import (
	"errors"
	"testing"

	"github.com/regtime/regtime/internal/localstore"
)

type failingStore struct{ localstore.Store }

func (failingStore) Set(string, []byte) error { return errors.New("disk full") }

func TestLoadDefaultsToSystem(t *testing.T) {
	t.Setenv("REGTIME_REDUCED_MOTION", "")
	t.Setenv("TERM", "xterm-256color")

	p := Load(localstore.NewMemory())
	if p.ReducedMotion() != MotionSystem {
		t.Errorf("ReducedMotion() = %q, want system", p.ReducedMotion())
	}
	if p.ShouldReduceMotion() {
		t.Error("ShouldReduceMotion() = true with no system preference")
	}
}

func TestSetReducedMotionPersists(t *testing.T) {
	store := localstore.NewMemory()
	p := Load(store)
	if err := p.SetReducedMotion(MotionReduce); err != nil {
		t.Fatalf("SetReducedMotion: %v", err)
	}
	if got := Load(store).ReducedMotion(); got != MotionReduce {
		t.Errorf("reloaded = %q, want on", got)
	}
	if !p.ShouldReduceMotion() {
		t.Error("ShouldReduceMotion() = false after choosing on")
	}
}

func TestLoadIgnoresGarbage(t *testing.T) {
	store := localstore.NewMemory()
	_ = store.Set(ReducedMotionKey, []byte("sideways"))
	if got := Load(store).ReducedMotion(); got != MotionSystem {
		t.Errorf("ReducedMotion() = %q, want system", got)
	}
}

func TestSystemPreference(t *testing.T) {
	t.Setenv("REGTIME_REDUCED_MOTION", "1")
	p := Load(nil)
	if !p.ShouldReduceMotion() {
		t.Error("system preference not honored")
	}
	_ = p.SetReducedMotion(MotionFull)
	if p.ShouldReduceMotion() {
		t.Error("explicit off should override system preference")
	}
}

func TestSetReducedMotionErrors(t *testing.T) {
	p := Load(nil)
	if err := p.SetReducedMotion("sometimes"); err == nil {
		t.Error("expected error for invalid value")
	}

	p = Load(failingStore{localstore.NewMemory()})
	if err := p.SetReducedMotion(MotionFull); err == nil {
		t.Error("expected persistence error")
	}
	if p.ReducedMotion() != MotionFull {
		t.Error("in-memory value should still update")
	}
}
