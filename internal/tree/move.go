package tree

import "time"

// Slot identifies a sibling group as an explicit (parent, depth) pair.
// Earlier revisions encoded the parent id and nesting level into a composite
// string key; the pair form survives renames and is comparable without
// parsing.
type Slot struct {
	ParentID *int64
	Depth    int
}

// Same reports whether two slots name the same sibling group.
func (s Slot) Same(o Slot) bool {
	if s.Depth != o.Depth {
		return false
	}
	if (s.ParentID == nil) != (o.ParentID == nil) {
		return false
	}
	return s.ParentID == nil || *s.ParentID == *o.ParentID
}

// Verdict classifies a proposed drag-and-drop move.
type Verdict int

const (
	// MoveOK: the node is being reordered among its existing siblings.
	MoveOK Verdict = iota
	// MoveNoTarget: a drag is in progress with no destination yet. Invalid,
	// but silent; it only drives the drop-affordance rendering.
	MoveNoTarget
	// MoveCrossParent: the destination is a different sibling group.
	// Reparenting via drag is not supported; the drop is a no-op plus a hint.
	MoveCrossParent
)

// ValidateMove decides legality of a move from the node's current slot to the
// candidate destination. Used both provisionally during the drag and finally
// at drop time.
func ValidateMove(src Slot, dst *Slot) Verdict {
	if dst == nil {
		return MoveNoTarget
	}
	if !src.Same(*dst) {
		return MoveCrossParent
	}
	return MoveOK
}

// ProbeGate coalesces the high-frequency stream of provisional drag
// validations to at most one evaluation per interval. Pointer-move events
// arrive far faster than ancestor/sibling lookups are worth recomputing;
// dropping intermediate probes is purely a performance matter.
type ProbeGate struct {
	Interval time.Duration
	last     time.Time
}

// Allow reports whether a probe at now should be evaluated, and if so,
// consumes the gate until now+Interval.
func (g *ProbeGate) Allow(now time.Time) bool {
	iv := g.Interval
	if iv <= 0 {
		iv = 100 * time.Millisecond
	}
	if !g.last.IsZero() && now.Sub(g.last) < iv {
		return false
	}
	g.last = now
	return true
}

// Reset clears the gate (e.g. when a new drag starts).
func (g *ProbeGate) Reset() { g.last = time.Time{} }
