// Package drag turns raw pointer sequences over the week calendar into
// create and reschedule intents.
//
// The Controller is a reducer: Handle takes one Event, updates the session
// and returns the Effects the caller must carry out (arming timers, opening
// the create form, sending a reschedule). It never performs I/O, so a press,
// move and release sequence can be replayed in tests without a terminal.
package drag

import (
	"math"
	"time"

	"tableflip.dev/zeit/pkg/entry"
	"tableflip.dev/zeit/pkg/timeline"
)

// State of the drag session.
type State int

const (
	Idle State = iota
	Pressing
	Dragging
)

func (s State) String() string {
	switch s {
	case Pressing:
		return "pressing"
	case Dragging:
		return "dragging"
	default:
		return "idle"
	}
}

// Intent is what a long press turns into once its timer fires.
type Intent int

const (
	IntentCreate Intent = iota
	IntentMove
)

// Reason explains why a session ended without a request.
type Reason int

const (
	ReasonEscape Reason = iota
	ReasonBlur
	ReasonHidden
	ReasonUnload
	ReasonTimeout
	ReasonOutside
	ReasonMoved
	ReasonReleased
)

func (r Reason) String() string {
	switch r {
	case ReasonEscape:
		return "escape"
	case ReasonBlur:
		return "blur"
	case ReasonHidden:
		return "hidden"
	case ReasonUnload:
		return "unload"
	case ReasonTimeout:
		return "timeout"
	case ReasonOutside:
		return "outside"
	case ReasonMoved:
		return "moved"
	default:
		return "released"
	}
}

// Geometry resolves screen coordinates against the rendered calendar.
type Geometry interface {
	// DayAt returns the day column under (x, y), or -1 outside every
	// column's timeline area.
	DayAt(x, y int) int
	// ColumnY returns y relative to the top of the timeline area.
	ColumnY(y int) float64
	// ColumnHeight is the height of the timeline area.
	ColumnHeight() float64
	// EntryAt returns the entry block under (x, y).
	EntryAt(x, y int) (entry.Entry, bool)
	// Date returns local midnight of the given day column.
	Date(day int) time.Time
}

// Options tunes delays and thresholds.
type Options struct {
	CreateDelay   time.Duration
	DragDelay     time.Duration
	MoveThreshold float64
	Timeout       time.Duration
	SweepAge      time.Duration
	Now           func() time.Time
}

// DefaultOptions are the delays of the web client: 800ms to create, 500ms to
// start a drag, 10 units of slack, 30s safety timeout.
func DefaultOptions() Options {
	return Options{
		CreateDelay:   800 * time.Millisecond,
		DragDelay:     500 * time.Millisecond,
		MoveThreshold: 10,
		Timeout:       30 * time.Second,
		SweepAge:      5 * time.Second,
		Now:           time.Now,
	}
}

// Event is an input to the controller.
type Event interface{ isEvent() }

// Press is a primary button or touch down.
type Press struct{ X, Y int }

// Move is pointer motion, with or without a button held.
type Move struct{ X, Y int }

// Release is a button or touch up.
type Release struct{ X, Y int }

// Fired reports that the timer armed with Token elapsed.
type Fired struct{ Token int }

// Cancel ends the session without a request.
type Cancel struct{ Reason Reason }

// Sweep drops stale artifacts left by missed cleanups.
type Sweep struct{ Now time.Time }

func (Press) isEvent()   {}
func (Move) isEvent()    {}
func (Release) isEvent() {}
func (Fired) isEvent()   {}
func (Cancel) isEvent()  {}
func (Sweep) isEvent()   {}

// Effect is work the caller must perform.
type Effect interface{ isEffect() }

// ArmTimer asks for Fired{Token} after After.
type ArmTimer struct {
	Token int
	After time.Duration
}

// OpenCreate asks for the manual entry form prefilled with a range.
type OpenCreate struct {
	Day        int
	Start, End time.Time
}

// Reschedule asks for the entry to be moved to a new range. The duration is
// the entry's original one.
type Reschedule struct {
	Entry      entry.Entry
	Day        int
	Start, End time.Time
}

// Ended reports a session that finished without a request.
type Ended struct{ Reason Reason }

func (ArmTimer) isEffect()   {}
func (OpenCreate) isEffect() {}
func (Reschedule) isEffect() {}
func (Ended) isEffect()      {}

// Controller tracks one drag session at a time.
type Controller struct {
	geo  Geometry
	opts Options

	state  State
	intent Intent

	tokens       int
	pressToken   int
	timeoutToken int

	pressX, pressY int
	pressDay       int
	entry          entry.Entry

	artifacts Artifacts
}

// New builds a controller. Zero option fields fall back to the defaults.
func New(geo Geometry, opts Options) *Controller {
	def := DefaultOptions()
	if opts.CreateDelay <= 0 {
		opts.CreateDelay = def.CreateDelay
	}
	if opts.DragDelay <= 0 {
		opts.DragDelay = def.DragDelay
	}
	if opts.MoveThreshold <= 0 {
		opts.MoveThreshold = def.MoveThreshold
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.SweepAge <= 0 {
		opts.SweepAge = def.SweepAge
	}
	if opts.Now == nil {
		opts.Now = def.Now
	}
	return &Controller{geo: geo, opts: opts}
}

// SetGeometry swaps the geometry, e.g. after a resize.
func (c *Controller) SetGeometry(geo Geometry) { c.geo = geo }

// State returns the session state.
func (c *Controller) State() State { return c.state }

// Artifacts returns the transient visuals currently shown.
func (c *Controller) Artifacts() *Artifacts { return &c.artifacts }

// Dragged returns the entry being dragged.
func (c *Controller) Dragged() (entry.Entry, bool) {
	return c.entry, c.state == Dragging
}

// Handle applies ev and returns the resulting effects.
func (c *Controller) Handle(ev Event) []Effect {
	switch ev := ev.(type) {
	case Press:
		return c.press(ev)
	case Move:
		return c.move(ev)
	case Release:
		return c.release(ev)
	case Fired:
		return c.fired(ev)
	case Cancel:
		return c.cancel(ev.Reason)
	case Sweep:
		if c.state != Dragging {
			c.artifacts.Sweep(ev.Now, c.opts.SweepAge)
		}
	}
	return nil
}

func (c *Controller) press(ev Press) []Effect {
	var effects []Effect
	if c.state != Idle {
		effects = append(effects, c.cancel(ReasonReleased)...)
	}
	day := c.geo.DayAt(ev.X, ev.Y)
	if day < 0 {
		return effects
	}
	c.pressX, c.pressY, c.pressDay = ev.X, ev.Y, day
	c.state = Pressing
	delay := c.opts.CreateDelay
	if e, ok := c.geo.EntryAt(ev.X, ev.Y); ok {
		c.intent = IntentMove
		c.entry = e
		delay = c.opts.DragDelay
	} else {
		c.intent = IntentCreate
		c.entry = entry.Entry{}
	}
	c.pressToken = c.nextToken()
	return append(effects, ArmTimer{Token: c.pressToken, After: delay})
}

func (c *Controller) move(ev Move) []Effect {
	switch c.state {
	case Pressing:
		dx, dy := float64(ev.X-c.pressX), float64(ev.Y-c.pressY)
		if math.Hypot(dx, dy) > c.opts.MoveThreshold {
			return c.cancel(ReasonMoved)
		}
	case Dragging:
		c.track(ev.X, ev.Y)
		return []Effect{c.armTimeout()}
	}
	return nil
}

func (c *Controller) release(ev Release) []Effect {
	switch c.state {
	case Pressing:
		return c.cancel(ReasonReleased)
	case Dragging:
		day := c.geo.DayAt(ev.X, ev.Y)
		if day < 0 {
			return c.cancel(ReasonOutside)
		}
		start, end := c.dropRange(day, ev.Y)
		moved := Reschedule{Entry: c.entry, Day: day, Start: start, End: end}
		c.reset()
		return []Effect{moved}
	}
	return nil
}

func (c *Controller) fired(ev Fired) []Effect {
	switch {
	case c.state == Pressing && ev.Token == c.pressToken:
		if c.intent == IntentCreate {
			height := c.geo.ColumnHeight()
			startH, endH := timeline.CreateRange(c.geo.ColumnY(c.pressY), height)
			date := c.geo.Date(c.pressDay)
			create := OpenCreate{
				Day:   c.pressDay,
				Start: timeline.At(date, startH),
				End:   timeline.At(date, endH),
			}
			c.reset()
			return []Effect{create}
		}
		c.state = Dragging
		c.artifacts.Set(Artifact{Kind: KindDragging, EntryID: c.entry.ID, Created: c.opts.Now()})
		c.track(c.pressX, c.pressY)
		return []Effect{c.armTimeout()}
	case c.state == Dragging && ev.Token == c.timeoutToken:
		return c.cancel(ReasonTimeout)
	}
	return nil
}

func (c *Controller) cancel(reason Reason) []Effect {
	if c.state == Idle && c.artifacts.Len() == 0 {
		return nil
	}
	c.reset()
	return []Effect{Ended{Reason: reason}}
}

// track updates the floating indicator and drop highlight for a pointer at
// (x, y) while dragging.
func (c *Controller) track(x, y int) {
	now := c.opts.Now()
	day := c.geo.DayAt(x, y)
	var label string
	if day >= 0 {
		startH := timeline.DropStart(c.geo.ColumnY(y), c.geo.ColumnHeight(), c.durationHours())
		label = timeline.FormatRange(startH, startH+c.durationHours())
		c.artifacts.Set(Artifact{Kind: KindDropTarget, Day: day, Created: now})
	} else {
		startH := timeline.HourOf(c.entry.Start.Time)
		label = timeline.FormatRange(startH, startH+c.durationHours())
		c.artifacts.Remove(KindDropTarget)
	}
	c.artifacts.Set(Artifact{Kind: KindIndicator, X: x, Y: y, Day: day, Label: label, Created: now})
}

func (c *Controller) dropRange(day, y int) (time.Time, time.Time) {
	startH := timeline.DropStart(c.geo.ColumnY(y), c.geo.ColumnHeight(), c.durationHours())
	start := timeline.At(c.geo.Date(day), startH)
	return start, start.Add(c.duration())
}

func (c *Controller) duration() time.Duration {
	return c.entry.Span()
}

func (c *Controller) durationHours() float64 {
	return c.duration().Hours()
}

func (c *Controller) armTimeout() Effect {
	c.timeoutToken = c.nextToken()
	return ArmTimer{Token: c.timeoutToken, After: c.opts.Timeout}
}

func (c *Controller) nextToken() int {
	c.tokens++
	return c.tokens
}

func (c *Controller) reset() {
	c.state = Idle
	c.intent = IntentCreate
	c.entry = entry.Entry{}
	c.pressToken = 0
	c.timeoutToken = 0
	c.artifacts.Clear()
}
