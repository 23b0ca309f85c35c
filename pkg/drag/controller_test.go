package drag

import (
	"testing"
	"time"

	"tableflip.dev/zeit/pkg/entry"
)

// fakeGeometry lays out five 10-wide columns whose timeline is 170 tall, so
// one unit of y is six minutes.
type fakeGeometry struct {
	monday  time.Time
	entries map[[2]int]entry.Entry
}

func newFakeGeometry() *fakeGeometry {
	return &fakeGeometry{
		monday:  time.Date(2024, 6, 3, 0, 0, 0, 0, time.Local),
		entries: map[[2]int]entry.Entry{},
	}
}

func (g *fakeGeometry) DayAt(x, y int) int {
	if x < 0 || x >= 50 || y < 0 || y >= 170 {
		return -1
	}
	return x / 10
}

func (g *fakeGeometry) ColumnY(y int) float64 { return float64(y) }
func (g *fakeGeometry) ColumnHeight() float64 { return 170 }
func (g *fakeGeometry) Date(day int) time.Time {
	return g.monday.AddDate(0, 0, day)
}

func (g *fakeGeometry) EntryAt(x, y int) (entry.Entry, bool) {
	e, ok := g.entries[[2]int{x, y}]
	return e, ok
}

func designEntry(g *fakeGeometry) entry.Entry {
	start := g.monday.Add(9 * time.Hour)
	return entry.Entry{
		ID:          42,
		Project:     "Design",
		Description: "mockups",
		Start:       entry.At(start),
		End:         entry.Ptr(start.Add(90 * time.Minute)),
		Duration:    90,
	}
}

func armed(t *testing.T, effects []Effect) ArmTimer {
	t.Helper()
	for _, e := range effects {
		if a, ok := e.(ArmTimer); ok {
			return a
		}
	}
	t.Fatalf("expected ArmTimer in %#v", effects)
	return ArmTimer{}
}

func TestLongPressEmptyAreaOpensCreate(t *testing.T) {
	g := newFakeGeometry()
	c := New(g, Options{})

	timer := armed(t, c.Handle(Press{X: 15, Y: 30}))
	if timer.After != 800*time.Millisecond {
		t.Fatalf("expected 800ms create delay, got %v", timer.After)
	}
	if c.State() != Pressing {
		t.Fatalf("expected pressing, got %v", c.State())
	}

	effects := c.Handle(Fired{Token: timer.Token})
	if len(effects) != 1 {
		t.Fatalf("expected one effect, got %#v", effects)
	}
	create, ok := effects[0].(OpenCreate)
	if !ok {
		t.Fatalf("expected OpenCreate, got %T", effects[0])
	}
	if create.Day != 1 {
		t.Fatalf("expected tuesday column, got %d", create.Day)
	}
	if create.Start.Hour() != 9 || create.End.Hour() != 10 || create.Start.Day() != 4 {
		t.Fatalf("expected 2024-06-04 09:00-10:00, got %v - %v", create.Start, create.End)
	}
	if c.State() != Idle || c.Artifacts().Len() != 0 {
		t.Fatalf("expected idle session without artifacts")
	}
}

func TestPressOnEntryUsesDragDelay(t *testing.T) {
	g := newFakeGeometry()
	g.entries[[2]int{5, 30}] = designEntry(g)
	c := New(g, Options{})
	timer := armed(t, c.Handle(Press{X: 5, Y: 30}))
	if timer.After != 500*time.Millisecond {
		t.Fatalf("expected 500ms drag delay, got %v", timer.After)
	}
}

func TestMoveBeyondThresholdCancelsPress(t *testing.T) {
	g := newFakeGeometry()
	c := New(g, Options{})
	timer := armed(t, c.Handle(Press{X: 15, Y: 30}))

	if effects := c.Handle(Move{X: 20, Y: 35}); len(effects) != 0 {
		t.Fatalf("small move should keep pressing, got %#v", effects)
	}
	effects := c.Handle(Move{X: 15, Y: 45})
	if len(effects) != 1 {
		t.Fatalf("expected Ended effect, got %#v", effects)
	}
	if ended, ok := effects[0].(Ended); !ok || ended.Reason != ReasonMoved {
		t.Fatalf("expected moved cancel, got %#v", effects[0])
	}
	if c.State() != Idle {
		t.Fatalf("expected idle, got %v", c.State())
	}
	if effects := c.Handle(Fired{Token: timer.Token}); len(effects) != 0 {
		t.Fatalf("stale timer should be ignored, got %#v", effects)
	}
}

func TestReleaseBeforeTimerCancels(t *testing.T) {
	g := newFakeGeometry()
	c := New(g, Options{})
	timer := armed(t, c.Handle(Press{X: 15, Y: 30}))
	c.Handle(Release{X: 15, Y: 30})
	if c.State() != Idle {
		t.Fatalf("expected idle, got %v", c.State())
	}
	if effects := c.Handle(Fired{Token: timer.Token}); len(effects) != 0 {
		t.Fatalf("expected no create after release, got %#v", effects)
	}
}

func startDrag(t *testing.T, c *Controller, g *fakeGeometry) entry.Entry {
	t.Helper()
	e := designEntry(g)
	g.entries[[2]int{5, 30}] = e
	timer := armed(t, c.Handle(Press{X: 5, Y: 30}))
	armed(t, c.Handle(Fired{Token: timer.Token}))
	if c.State() != Dragging {
		t.Fatalf("expected dragging, got %v", c.State())
	}
	return e
}

func TestDragDropPreservesDuration(t *testing.T) {
	g := newFakeGeometry()
	c := New(g, Options{})
	e := startDrag(t, c, g)

	ind, ok := c.Artifacts().Get(KindIndicator)
	if !ok {
		t.Fatalf("expected floating indicator")
	}
	if ind.Label != "09:00 - 10:30" {
		t.Fatalf("unexpected indicator label %q", ind.Label)
	}
	if _, ok := c.Artifacts().Get(KindDragging); !ok {
		t.Fatalf("expected dragging marker")
	}

	c.Handle(Move{X: 35, Y: 70})
	target, ok := c.Artifacts().Get(KindDropTarget)
	if !ok || target.Day != 3 {
		t.Fatalf("expected thursday drop target, got %+v", target)
	}
	ind, _ = c.Artifacts().Get(KindIndicator)
	if ind.Label != "13:00 - 14:30" {
		t.Fatalf("unexpected indicator label %q", ind.Label)
	}

	effects := c.Handle(Release{X: 35, Y: 70})
	if len(effects) != 1 {
		t.Fatalf("expected one effect, got %#v", effects)
	}
	moved, ok := effects[0].(Reschedule)
	if !ok {
		t.Fatalf("expected Reschedule, got %T", effects[0])
	}
	if moved.Entry.ID != e.ID || moved.Entry.Project != "Design" || moved.Entry.Description != "mockups" {
		t.Fatalf("entry identity not preserved: %+v", moved.Entry)
	}
	if got := moved.End.Sub(moved.Start).Minutes(); got != e.Duration {
		t.Fatalf("expected duration %v, got %v", e.Duration, got)
	}
	if moved.Start.Day() != 6 || moved.Start.Hour() != 13 || moved.Start.Minute() != 0 {
		t.Fatalf("expected thursday 13:00, got %v", moved.Start)
	}
	if c.Artifacts().Len() != 0 || c.State() != Idle {
		t.Fatalf("expected cleanup after drop")
	}
}

func TestDropNearEndClampsStart(t *testing.T) {
	g := newFakeGeometry()
	c := New(g, Options{})
	startDrag(t, c, g)
	effects := c.Handle(Release{X: 5, Y: 169})
	moved := effects[0].(Reschedule)
	if moved.End.Hour() != 22 || moved.End.Minute() != 0 {
		t.Fatalf("expected entry to end at 22:00, got %v", moved.End)
	}
	if moved.Start.Hour() != 20 || moved.Start.Minute() != 30 {
		t.Fatalf("expected 20:30 start, got %v", moved.Start)
	}
}

func TestCancelSignalsLeaveNoArtifacts(t *testing.T) {
	for _, reason := range []Reason{ReasonEscape, ReasonBlur, ReasonHidden, ReasonUnload} {
		g := newFakeGeometry()
		c := New(g, Options{})
		startDrag(t, c, g)
		c.Handle(Move{X: 25, Y: 60})
		if c.Artifacts().Len() == 0 {
			t.Fatalf("%v: expected artifacts while dragging", reason)
		}
		effects := c.Handle(Cancel{Reason: reason})
		for _, e := range effects {
			if _, ok := e.(Reschedule); ok {
				t.Fatalf("%v: cancel must not reschedule", reason)
			}
		}
		if c.Artifacts().Len() != 0 {
			t.Fatalf("%v: expected zero artifacts, got %d", reason, c.Artifacts().Len())
		}
		if c.State() != Idle {
			t.Fatalf("%v: expected idle, got %v", reason, c.State())
		}
	}
}

func TestReleaseOutsideCancels(t *testing.T) {
	g := newFakeGeometry()
	c := New(g, Options{})
	startDrag(t, c, g)
	c.Handle(Move{X: 80, Y: 20})
	if _, ok := c.Artifacts().Get(KindDropTarget); ok {
		t.Fatalf("expected no drop target outside columns")
	}
	effects := c.Handle(Release{X: 80, Y: 20})
	if len(effects) != 1 {
		t.Fatalf("expected Ended, got %#v", effects)
	}
	if ended, ok := effects[0].(Ended); !ok || ended.Reason != ReasonOutside {
		t.Fatalf("expected outside cancel, got %#v", effects[0])
	}
	if c.Artifacts().Len() != 0 {
		t.Fatalf("expected zero artifacts")
	}
}

func TestSafetyTimeoutCancelsDrag(t *testing.T) {
	g := newFakeGeometry()
	c := New(g, Options{})
	startDrag(t, c, g)
	timeout := armed(t, c.Handle(Move{X: 15, Y: 40}))
	if timeout.After != 30*time.Second {
		t.Fatalf("expected 30s timeout, got %v", timeout.After)
	}
	// A later move re-arms, so the earlier token is stale.
	next := armed(t, c.Handle(Move{X: 16, Y: 41}))
	if effects := c.Handle(Fired{Token: timeout.Token}); len(effects) != 0 {
		t.Fatalf("expected stale timeout ignored, got %#v", effects)
	}
	effects := c.Handle(Fired{Token: next.Token})
	if len(effects) != 1 {
		t.Fatalf("expected timeout cancel, got %#v", effects)
	}
	if c.State() != Idle || c.Artifacts().Len() != 0 {
		t.Fatalf("expected cleanup after timeout")
	}
}

func TestSweepRemovesStaleArtifactsOnlyWhenIdle(t *testing.T) {
	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.Local)
	g := newFakeGeometry()
	c := New(g, Options{Now: func() time.Time { return now }})

	c.Artifacts().Set(Artifact{Kind: KindIndicator, Created: now.Add(-10 * time.Second)})
	c.Artifacts().Set(Artifact{Kind: KindDropTarget, Created: now.Add(-2 * time.Second)})
	c.Handle(Sweep{Now: now})
	if c.Artifacts().Len() != 1 {
		t.Fatalf("expected only the fresh artifact to remain, got %d", c.Artifacts().Len())
	}
	if _, ok := c.Artifacts().Get(KindDropTarget); !ok {
		t.Fatalf("expected fresh drop target to survive")
	}

	c.Artifacts().Clear()
	startDrag(t, c, g)
	c.Handle(Sweep{Now: now.Add(time.Minute)})
	if c.Artifacts().Len() == 0 {
		t.Fatalf("sweep must not touch an active drag")
	}
}

func TestPressOutsideColumnsIgnored(t *testing.T) {
	c := New(newFakeGeometry(), Options{})
	if effects := c.Handle(Press{X: 70, Y: 10}); len(effects) != 0 {
		t.Fatalf("expected no effects, got %#v", effects)
	}
	if c.State() != Idle {
		t.Fatalf("expected idle")
	}
}
