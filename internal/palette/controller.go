package palette

import "fmt"

// State is the palette's open/closed lifecycle.
type State int

const (
	Closed State = iota
	Open
)

func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

// Controller is the palette's selection state machine. It is driven by one
// input loop and is not safe for concurrent use.
type Controller struct {
	matcher   *Matcher
	registry  *Registry
	recent    *RecencyTracker
	tailLimit int

	state   State
	query   string
	results []Result
	index   int
	offset  int
	height  int
}

// ControllerOption customizes a Controller.
type ControllerOption func(*Controller)

// WithMatcher replaces the default matcher.
func WithMatcher(m *Matcher) ControllerOption {
	return func(c *Controller) { c.matcher = m }
}

// WithTailLimit sets how many non-recent commands a blank query lists.
func WithTailLimit(n int) ControllerOption {
	return func(c *Controller) { c.tailLimit = n }
}

// WithViewportHeight sets how many rows the result list shows at once.
func WithViewportHeight(n int) ControllerOption {
	return func(c *Controller) { c.height = n }
}

// NewController returns a closed palette over reg. recent may be nil.
func NewController(reg *Registry, recent *RecencyTracker, opts ...ControllerOption) *Controller {
	c := &Controller{
		matcher:   NewMatcher(),
		registry:  reg,
		recent:    recent,
		tailLimit: DefaultTailLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.recent == nil {
		c.recent = NewRecencyTracker(nil, DefaultRecentLimit)
	}
	return c
}

// Open clears the query and highlights the first result.
func (c *Controller) Open() {
	c.state = Open
	c.query = ""
	c.recompute()
}

// Close hides the palette. The query is kept until the next Open.
func (c *Controller) Close() { c.state = Closed }

// Cancel is the escape-key path; it closes without running anything.
func (c *Controller) Cancel() { c.Close() }

// Toggle opens a closed palette and closes an open one.
func (c *Controller) Toggle() {
	if c.state == Open {
		c.Close()
		return
	}
	c.Open()
}

// SetQuery replaces the query, recomputes results and highlights the first.
func (c *Controller) SetQuery(q string) {
	c.query = q
	c.recompute()
}

// MoveDown highlights the next result, stopping at the last.
func (c *Controller) MoveDown() {
	if c.index < len(c.results)-1 {
		c.setIndex(c.index + 1)
	}
}

// MoveUp highlights the previous result, stopping at the first.
func (c *Controller) MoveUp() {
	if c.index > 0 {
		c.setIndex(c.index - 1)
	}
}

// Confirm runs the highlighted command. On success the command is recorded
// as recent and the palette closes. With no results it does nothing and
// returns ok=false. A handler error is returned as-is: nothing is recorded
// and the palette stays open.
func (c *Controller) Confirm() (cmd Command, ok bool, err error) {
	if c.state != Open || len(c.results) == 0 {
		return Command{}, false, nil
	}
	cmd = c.results[c.index].Command
	if err := cmd.Run(); err != nil {
		return cmd, true, err
	}
	c.recent.Record(cmd.ID)
	c.Close()
	return cmd, true, nil
}

// SetRegistry swaps in a rebuilt registry and recomputes results, keeping
// the highlight on the same row where possible.
func (c *Controller) SetRegistry(reg *Registry) {
	c.registry = reg
	idx := c.index
	c.results = c.matcher.Rank(c.query, c.registry, c.recent.List(), c.tailLimit)
	c.offset = 0
	c.setIndex(clamp(idx, 0, len(c.results)-1))
}

// SetViewportHeight resizes the visible window and keeps the highlight in it.
func (c *Controller) SetViewportHeight(n int) {
	c.height = n
	c.setIndex(c.index)
}

// Run executes a command by id outside the palette, as keyboard sequences do,
// and records it as recent on success.
func (c *Controller) Run(id string) (Command, error) {
	cmd, ok := c.registry.Lookup(id)
	if !ok {
		return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, id)
	}
	if err := cmd.Run(); err != nil {
		return cmd, err
	}
	c.recent.Record(cmd.ID)
	return cmd, nil
}

func (c *Controller) recompute() {
	c.results = c.matcher.Rank(c.query, c.registry, c.recent.List(), c.tailLimit)
	c.offset = 0
	c.setIndex(0)
}

func (c *Controller) setIndex(i int) {
	if len(c.results) == 0 {
		c.index, c.offset = 0, 0
		return
	}
	c.index = clamp(i, 0, len(c.results)-1)
	if c.height <= 0 {
		c.offset = 0
		return
	}
	if c.index < c.offset {
		c.offset = c.index
	}
	if c.index >= c.offset+c.height {
		c.offset = c.index - c.height + 1
	}
	if maxOff := len(c.results) - c.height; c.offset > maxOff {
		c.offset = max(maxOff, 0)
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}

// State reports whether the palette is open.
func (c *Controller) State() State { return c.state }

// IsOpen is shorthand for State() == Open.
func (c *Controller) IsOpen() bool { return c.state == Open }

// Query returns the current query text.
func (c *Controller) Query() string { return c.query }

// Results returns the current ranked results.
func (c *Controller) Results() []Result { return c.results }

// Index returns the highlighted row.
func (c *Controller) Index() int { return c.index }

// Offset returns the first visible row.
func (c *Controller) Offset() int { return c.offset }

// Selected returns the highlighted result, if any.
func (c *Controller) Selected() (Result, bool) {
	if len(c.results) == 0 {
		return Result{}, false
	}
	return c.results[c.index], true
}

// Visible returns the rows inside the viewport.
func (c *Controller) Visible() []Result {
	if c.height <= 0 || len(c.results) <= c.height {
		return c.results
	}
	end := min(c.offset+c.height, len(c.results))
	return c.results[c.offset:end]
}

// Registry returns the registry in use.
func (c *Controller) Registry() *Registry { return c.registry }

// Recent returns the recency tracker.
func (c *Controller) Recent() *RecencyTracker { return c.recent }
