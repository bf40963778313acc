package standalone

import "fmt"

// Axis is a single G-code argument letter (X, Y, Z, E, F, ...)
type Axis rune

// Known axis letters
const (
	AxisX Axis = 'X'
	AxisY Axis = 'Y'
	AxisZ Axis = 'Z'
	AxisE Axis = 'E' // Extruder
	AxisF Axis = 'F' // Feedrate
)

// MoveAxes are the axes accepted by G0/G1
var MoveAxes = []Axis{AxisX, AxisY, AxisZ, AxisF, AxisE}

// OffsetAxes are the axes that carry a G92 offset. Feedrate is never offset.
var OffsetAxes = []Axis{AxisX, AxisY, AxisZ, AxisE}

func (a Axis) String() string {
	return string(a)
}

// AxisMap maps argument letters to their numeric values
type AxisMap map[Axis]float64

// Has reports whether the axis was supplied
func (m AxisMap) Has(a Axis) bool {
	_, ok := m[a]
	return ok
}

// Get returns the axis value, or defaultValue if it was not supplied
func (m AxisMap) Get(a Axis, defaultValue float64) float64 {
	if v, ok := m[a]; ok {
		return v
	}
	return defaultValue
}

// Position is the logical position relative to the current offset
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
	F float64 `json:"f" yaml:"f"` // Feedrate
	E float64 `json:"e" yaml:"e"` // Extruder
}

// ref returns a pointer to the field for a move axis, or nil
func (p *Position) ref(a Axis) *float64 {
	switch a {
	case AxisX:
		return &p.X
	case AxisY:
		return &p.Y
	case AxisZ:
		return &p.Z
	case AxisF:
		return &p.F
	case AxisE:
		return &p.E
	}
	return nil
}

// Get returns the value of a move axis. ok is false for unknown axes.
func (p Position) Get(a Axis) (float64, bool) {
	r := p.ref(a)
	if r == nil {
		return 0, false
	}
	return *r, true
}

// Set assigns a move axis. It returns false for unknown axes.
func (p *Position) Set(a Axis, v float64) bool {
	r := p.ref(a)
	if r == nil {
		return false
	}
	*r = v
	return true
}

// Offset is the per-axis translation from logical to machine-absolute position
type Offset struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
	E float64 `json:"e" yaml:"e"`
}

func (o *Offset) ref(a Axis) *float64 {
	switch a {
	case AxisX:
		return &o.X
	case AxisY:
		return &o.Y
	case AxisZ:
		return &o.Z
	case AxisE:
		return &o.E
	}
	return nil
}

// Get returns the offset of an axis. ok is false for F and unknown axes.
func (o Offset) Get(a Axis) (float64, bool) {
	r := o.ref(a)
	if r == nil {
		return 0, false
	}
	return *r, true
}

// Set assigns the offset of an axis. It returns false for F and unknown axes.
func (o *Offset) Set(a Axis, v float64) bool {
	r := o.ref(a)
	if r == nil {
		return false
	}
	*r = v
	return true
}

// Apply returns the machine-absolute position of a logical position
func (o Offset) Apply(p Position) Position {
	return Position{
		X: o.X + p.X,
		Y: o.Y + p.Y,
		Z: o.Z + p.Z,
		F: p.F, // no feedrate offset
		E: o.E + p.E,
	}
}

// CoordinateMode selects how move arguments combine with the current position
type CoordinateMode int

const (
	// Absolute treats move arguments as targets (G90, default)
	Absolute CoordinateMode = iota
	// Relative treats move arguments as deltas (G91)
	Relative
)

func (m CoordinateMode) String() string {
	switch m {
	case Absolute:
		return "absolute"
	case Relative:
		return "relative"
	default:
		return fmt.Sprintf("CoordinateMode(%d)", int(m))
	}
}

// MarshalText encodes the mode by name
func (m CoordinateMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// MoveKind tags a segment with the command that produced it
type MoveKind string

const (
	MoveRapid      MoveKind = "G0"
	MoveControlled MoveKind = "G1"
)

// Segment is one resolved move in machine-absolute coordinates
type Segment struct {
	Kind MoveKind `json:"kind" yaml:"kind"`
	Line int      `json:"line" yaml:"line"` // Source line number
	X    float64  `json:"x" yaml:"x"`
	Y    float64  `json:"y" yaml:"y"`
	Z    float64  `json:"z" yaml:"z"`
	F    float64  `json:"f" yaml:"f"`
	E    float64  `json:"e" yaml:"e"`
}

// Position returns the segment's end point
func (s Segment) Position() Position {
	return Position{X: s.X, Y: s.Y, Z: s.Z, F: s.F, E: s.E}
}

func (s Segment) String() string {
	return fmt.Sprintf("%s X%g Y%g Z%g F%g E%g", s.Kind, s.X, s.Y, s.Z, s.F, s.E)
}
