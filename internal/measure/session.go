// Package measure implements the property-measurement session: the
// view/draw/edit mode machine, the in-progress path, and the finished shapes
// it accumulates. The session is a value object; every transition returns a
// new Session and leaves the receiver untouched, so the owning layer holds
// the single mutable reference and recomputes derived totals explicitly
// after each mutation.
package measure

import (
	"fmt"

	"github.com/paulmach/orb"

	"mowquote/internal/geo"
	"mowquote/internal/types"
)

// Mode is the interaction mode of a measurement session.
type Mode string

const (
	// ModeView is the default: the map is inert.
	ModeView Mode = "view"
	// ModeDraw appends a vertex to the active path on every map click.
	ModeDraw Mode = "draw"
	// ModeEdit makes finished shape vertices draggable.
	ModeEdit Mode = "edit"
)

// minVertices is the smallest vertex count that encloses an area.
const minVertices = 3

// Session tracks zero or more finished shapes and at most one in-progress
// path. The zero value is not meaningful; use NewSession.
type Session struct {
	// Finished holds completed shapes in the order they were finished.
	Finished []orb.Ring
	// Active is the in-progress path while drawing. It survives mode
	// switches: only an explicit FinishShape or Clear discards it.
	Active orb.Ring
	// Mode is the current interaction mode; exactly one is active.
	Mode Mode
}

// NewSession returns an empty session in view mode.
func NewSession() Session {
	return Session{Mode: ModeView}
}

// SetMode switches the interaction mode. Switching away from draw does not
// finish the active path.
func (s Session) SetMode(m Mode) (Session, error) {
	switch m {
	case ModeView, ModeDraw, ModeEdit:
	default:
		return s, types.NewAppError(types.ErrCodeValidationWrongMode,
			fmt.Sprintf("unknown mode %q", m), nil)
	}
	s.Mode = m
	return s, nil
}

// AppendPoint adds a vertex to the active path. Valid only in draw mode.
// Points are taken as-is: no deduplication, no geometry validation.
func (s Session) AppendPoint(p orb.Point) (Session, error) {
	if s.Mode != ModeDraw {
		return s, types.NewAppError(types.ErrCodeValidationWrongMode,
			"points can only be added in draw mode", nil)
	}
	s.Active = append(cloneRing(s.Active), p)
	return s, nil
}

// MovePoint replaces the vertex at vertexIdx of finished shape shapeIdx.
// Valid only in edit mode. The shape keeps its position in the sequence.
func (s Session) MovePoint(shapeIdx, vertexIdx int, p orb.Point) (Session, error) {
	if s.Mode != ModeEdit {
		return s, types.NewAppError(types.ErrCodeValidationWrongMode,
			"vertices can only be moved in edit mode", nil)
	}
	if shapeIdx < 0 || shapeIdx >= len(s.Finished) {
		return s, types.NewAppError(types.ErrCodeValidationWrongMode,
			fmt.Sprintf("no finished shape at index %d", shapeIdx), nil)
	}
	if vertexIdx < 0 || vertexIdx >= len(s.Finished[shapeIdx]) {
		return s, types.NewAppError(types.ErrCodeValidationWrongMode,
			fmt.Sprintf("shape %d has no vertex %d", shapeIdx, vertexIdx), nil)
	}

	finished := make([]orb.Ring, len(s.Finished))
	copy(finished, s.Finished)
	ring := cloneRing(finished[shapeIdx])
	ring[vertexIdx] = p
	finished[shapeIdx] = ring

	s.Finished = finished
	return s, nil
}

// FinishShape commits the active path as a finished shape and resets the
// path. A path with fewer than three vertices cannot enclose an area; the
// session is returned unchanged alongside a validation error the caller
// surfaces to the operator.
func (s Session) FinishShape() (Session, error) {
	if len(s.Active) < minVertices {
		return s, types.NewAppError(types.ErrCodeValidationPolygonTooSmall,
			"click at least 3 points to create an area", nil)
	}
	s.Finished = append(cloneRings(s.Finished), cloneRing(s.Active))
	s.Active = nil
	return s, nil
}

// Clear resets the session to its initial state: no shapes, no active path,
// view mode. The owner is expected to reset its derived total to zero.
func (s Session) Clear() Session {
	return NewSession()
}

// TotalArea returns the derived total in whole square feet: the sum of each
// finished shape's independently rounded area, plus the active path once it
// has enough vertices to enclose an area.
func (s Session) TotalArea() int64 {
	rings := s.Finished
	if len(s.Active) >= minVertices {
		rings = append(cloneRings(rings), s.Active)
	}
	return geo.TotalArea(rings)
}

// Rings returns every measurable ring in the session (finished shapes plus a
// complete active path), for callers that persist or render the geometry.
func (s Session) Rings() []orb.Ring {
	rings := cloneRings(s.Finished)
	if len(s.Active) >= minVertices {
		rings = append(rings, cloneRing(s.Active))
	}
	return rings
}

func cloneRing(r orb.Ring) orb.Ring {
	if r == nil {
		return nil
	}
	out := make(orb.Ring, len(r))
	copy(out, r)
	return out
}

func cloneRings(rs []orb.Ring) []orb.Ring {
	out := make([]orb.Ring, len(rs))
	copy(out, rs)
	return out
}
