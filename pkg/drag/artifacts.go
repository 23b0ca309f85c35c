package drag

import "time"

// Kind names a transient visual.
type Kind int

const (
	// KindIndicator is the floating time-range label.
	KindIndicator Kind = iota
	// KindDropTarget highlights the day column under the pointer.
	KindDropTarget
	// KindDragging marks the entry being moved.
	KindDragging
)

// Artifact is one transient visual with its creation time.
type Artifact struct {
	Kind    Kind
	X, Y    int
	Day     int
	EntryID int
	Label   string
	Created time.Time
}

// Artifacts holds at most one artifact per kind.
type Artifacts struct {
	items []Artifact
}

// Set adds or replaces the artifact of a's kind.
func (a *Artifacts) Set(art Artifact) {
	for i := range a.items {
		if a.items[i].Kind == art.Kind {
			a.items[i] = art
			return
		}
	}
	a.items = append(a.items, art)
}

// Get returns the artifact of kind k.
func (a *Artifacts) Get(k Kind) (Artifact, bool) {
	for _, it := range a.items {
		if it.Kind == k {
			return it, true
		}
	}
	return Artifact{}, false
}

// Remove drops the artifact of kind k.
func (a *Artifacts) Remove(k Kind) {
	kept := a.items[:0]
	for _, it := range a.items {
		if it.Kind != k {
			kept = append(kept, it)
		}
	}
	a.items = kept
}

// Sweep removes artifacts created more than maxAge before now.
func (a *Artifacts) Sweep(now time.Time, maxAge time.Duration) int {
	kept := a.items[:0]
	removed := 0
	for _, it := range a.items {
		if now.Sub(it.Created) > maxAge {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	a.items = kept
	return removed
}

// Clear removes everything.
func (a *Artifacts) Clear() {
	a.items = nil
}

// Len is the number of artifacts shown.
func (a *Artifacts) Len() int {
	return len(a.items)
}
