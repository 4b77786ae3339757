package palette

import (
	"strings"
	"time"
)

// DefaultSequenceTimeout is how long a partial key sequence stays live.
const DefaultSequenceTimeout = time.Second

// Sequencer recognises multi-key shortcuts such as "g h". Feed it one
// printable key at a time.
type Sequencer struct {
	timeout  time.Duration
	bindings map[string]string
	buf      string
	last     time.Time
}

// NewSequencer builds a sequencer from shortcut hints to command ids, as
// returned by Registry.Shortcuts. Hints are compacted ("g h" becomes "gh");
// single-key hints are ignored here and handled as plain bindings.
func NewSequencer(shortcuts map[string]string, timeout time.Duration) *Sequencer {
	if timeout <= 0 {
		timeout = DefaultSequenceTimeout
	}
	s := &Sequencer{timeout: timeout, bindings: make(map[string]string)}
	for hint, id := range shortcuts {
		seq := compactSequence(hint)
		if len([]rune(seq)) < 2 {
			continue
		}
		s.bindings[seq] = id
	}
	return s
}

func compactSequence(hint string) string {
	return strings.ToLower(strings.Join(strings.Fields(hint), ""))
}

// Feed appends key to the pending sequence and returns the bound command id
// when the sequence completes. Keys that are not a single rune reset it.
func (s *Sequencer) Feed(key string, now time.Time) (string, bool) {
	if len([]rune(key)) != 1 {
		s.Reset()
		return "", false
	}
	if !s.last.IsZero() && now.Sub(s.last) > s.timeout {
		s.buf = ""
	}
	s.last = now
	s.buf += strings.ToLower(key)

	if id, ok := s.bindings[s.buf]; ok {
		s.Reset()
		return id, true
	}
	if s.isPrefix(s.buf) {
		return "", false
	}
	// Dead end: restart from this key if it can begin a sequence.
	s.buf = strings.ToLower(key)
	if !s.isPrefix(s.buf) {
		s.buf = ""
	}
	return "", false
}

func (s *Sequencer) isPrefix(p string) bool {
	for seq := range s.bindings {
		if strings.HasPrefix(seq, p) {
			return true
		}
	}
	return false
}

// Pending returns the keys typed so far.
func (s *Sequencer) Pending() string { return s.buf }

// Reset drops any partial sequence.
func (s *Sequencer) Reset() {
	s.buf = ""
	s.last = time.Time{}
}
