// Package prefs stores user interface preferences in the local store.
package prefs

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/regtime/regtime/internal/localstore"
)

// ReducedMotion is the user's reduced-motion choice.
type ReducedMotion string

const (
	// MotionSystem follows the environment.
	MotionSystem ReducedMotion = "system"
	// MotionReduce turns reduced motion on.
	MotionReduce ReducedMotion = "on"
	// MotionFull turns reduced motion off.
	MotionFull ReducedMotion = "off"
)

// ReducedMotionKey is the store key for the reduced-motion choice.
const ReducedMotionKey = "ui:reducedMotion"

// ParseReducedMotion accepts system, on or off.
func ParseReducedMotion(raw string) (ReducedMotion, error) {
	switch m := ReducedMotion(strings.ToLower(strings.TrimSpace(raw))); m {
	case MotionSystem, MotionReduce, MotionFull:
		return m, nil
	}
	return "", fmt.Errorf("invalid reduced motion %q (valid: system, on, off)", raw)
}

// Preferences is the in-memory view of the stored preferences.
type Preferences struct {
	store  localstore.Store
	motion ReducedMotion
	system bool
}

// Load reads preferences from store. Unknown or missing values fall back to
// MotionSystem. A nil store keeps preferences in memory.
func Load(store localstore.Store) *Preferences {
	p := &Preferences{store: store, motion: MotionSystem, system: SystemPrefersReduced()}
	if store == nil {
		return p
	}
	raw, err := store.Get(ReducedMotionKey)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			slog.Debug("reduced motion unreadable", "error", err)
		}
		return p
	}
	if m, err := ParseReducedMotion(string(raw)); err == nil {
		p.motion = m
	}
	return p
}

// ReducedMotion returns the stored choice.
func (p *Preferences) ReducedMotion() ReducedMotion { return p.motion }

// SetReducedMotion updates and persists the choice.
func (p *Preferences) SetReducedMotion(m ReducedMotion) error {
	if _, err := ParseReducedMotion(string(m)); err != nil {
		return err
	}
	p.motion = m
	if p.store == nil {
		return nil
	}
	if err := p.store.Set(ReducedMotionKey, []byte(m)); err != nil {
		return fmt.Errorf("save reduced motion: %w", err)
	}
	return nil
}

// ShouldReduceMotion resolves the choice against the environment.
func (p *Preferences) ShouldReduceMotion() bool {
	return p.motion == MotionReduce || (p.motion == MotionSystem && p.system)
}

// SystemPrefersReduced reads REGTIME_REDUCED_MOTION, then treats a dumb
// terminal as a request for no animation.
func SystemPrefersReduced() bool {
	switch strings.ToLower(os.Getenv("REGTIME_REDUCED_MOTION")) {
	case "1", "true", "yes", "reduce":
		return true
	case "0", "false", "no":
		return false
	}
	return os.Getenv("TERM") == "dumb"
}
