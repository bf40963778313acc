package gcode

import (
	"sort"

	"gcodeparser/standalone"
)

// Model holds the motion state of one parse pass and the segments it produced
type Model struct {
	relative standalone.Position // Latest coordinates relative to offset, feedrate
	offset   standalone.Offset   // Set by G92
	mode     standalone.CoordinateMode
	segments []standalone.Segment
}

// NewModel creates a model at the origin in absolute mode
func NewModel() *Model {
	return &Model{
		mode:     standalone.Absolute,
		segments: make([]standalone.Segment, 0, 256),
	}
}

// Move applies a G0/G1 and appends the resulting segment.
// Unknown axes are ignored and returned, sorted.
func (m *Model) Move(kind standalone.MoveKind, line int, args standalone.AxisMap) []standalone.Axis {
	coords := m.relative
	var unknown []standalone.Axis

	for axis, value := range args {
		current, ok := coords.Get(axis)
		if !ok {
			unknown = append(unknown, axis)
			continue
		}
		if m.mode == standalone.Relative {
			coords.Set(axis, current+value)
		} else {
			coords.Set(axis, value)
		}
	}

	abs := m.offset.Apply(coords)
	m.relative = coords
	m.segments = append(m.segments, standalone.Segment{
		Kind: kind,
		Line: line,
		X:    abs.X,
		Y:    abs.Y,
		Z:    abs.Z,
		F:    abs.F,
		E:    abs.E,
	})

	return sortAxes(unknown)
}

// SetPosition applies a G92. The machine does not move, so no segment is
// produced; the offset absorbs the difference between old and new logical
// position. An empty map resets X, Y, Z and E to zero.
func (m *Model) SetPosition(args standalone.AxisMap) []standalone.Axis {
	if len(args) == 0 {
		args = standalone.AxisMap{
			standalone.AxisX: 0,
			standalone.AxisY: 0,
			standalone.AxisZ: 0,
			standalone.AxisE: 0,
		}
	}

	var unknown []standalone.Axis
	for axis, target := range args {
		offset, ok := m.offset.Get(axis)
		if !ok {
			unknown = append(unknown, axis)
			continue
		}
		current, _ := m.relative.Get(axis)
		m.offset.Set(axis, offset+current-target)
		m.relative.Set(axis, target)
	}

	return sortAxes(unknown)
}

// SetMode switches between absolute (G90) and relative (G91) moves
func (m *Model) SetMode(mode standalone.CoordinateMode) {
	m.mode = mode
}

// Mode returns the current coordinate mode
func (m *Model) Mode() standalone.CoordinateMode {
	return m.mode
}

// Relative returns the logical position
func (m *Model) Relative() standalone.Position {
	return m.relative
}

// Offset returns the accumulated G92 offset
func (m *Model) Offset() standalone.Offset {
	return m.offset
}

// Absolute returns the machine-absolute position
func (m *Model) Absolute() standalone.Position {
	return m.offset.Apply(m.relative)
}

// Len returns the number of segments
func (m *Model) Len() int {
	return len(m.segments)
}

// Segments returns a copy of the segment sequence
func (m *Model) Segments() []standalone.Segment {
	out := make([]standalone.Segment, len(m.segments))
	copy(out, m.segments)
	return out
}

// Segment returns the i-th segment
func (m *Model) Segment(i int) standalone.Segment {
	return m.segments[i]
}

func sortAxes(axes []standalone.Axis) []standalone.Axis {
	sort.Slice(axes, func(i, j int) bool { return axes[i] < axes[j] })
	return axes
}
