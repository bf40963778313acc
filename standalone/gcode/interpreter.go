package gcode

import (
	"gcodeparser/standalone"
)

// Code is a supported command
type Code int

const (
	CodeUnknown Code = iota
	CodeG0           // Rapid move
	CodeG1           // Controlled move
	CodeG20          // Set units to inches
	CodeG21          // Set units to millimeters
	CodeG28          // Move to origin
	CodeG90          // Absolute positioning
	CodeG91          // Relative positioning
	CodeG92          // Set position
)

var codes = map[string]Code{
	"G0":  CodeG0,
	"G1":  CodeG1,
	"G20": CodeG20,
	"G21": CodeG21,
	"G28": CodeG28,
	"G90": CodeG90,
	"G91": CodeG91,
	"G92": CodeG92,
}

// LookupCode maps a command word to its Code, or CodeUnknown
func LookupCode(word string) Code {
	return codes[word]
}

func (c Code) String() string {
	for word, code := range codes {
		if code == c {
			return word
		}
	}
	return "unknown"
}

// Interpreter executes commands against a Model
type Interpreter struct {
	model *Model
	rep   *reporter
}

func newInterpreter(model *Model, rep *reporter) *Interpreter {
	return &Interpreter{model: model, rep: rep}
}

// Execute dispatches one command. Only a fatal condition returns an error.
func (interp *Interpreter) Execute(pc ParseContext, word string, args standalone.AxisMap) error {
	switch LookupCode(word) {
	case CodeG0:
		// Same as a controlled move for us
		return interp.doMove(pc, standalone.MoveRapid, args)
	case CodeG1:
		return interp.doMove(pc, standalone.MoveControlled, args)
	case CodeG20:
		return interp.rep.fail(pc, KindUnsupportedUnits, ErrInchUnits)
	case CodeG21:
		// Millimeters are the default, nothing to do
	case CodeG28:
		return interp.rep.warn(pc, KindUnimplemented, "G28 unimplemented")
	case CodeG90:
		interp.model.SetMode(standalone.Absolute)
	case CodeG91:
		interp.model.SetMode(standalone.Relative)
	case CodeG92:
		return interp.reportAxes(pc, interp.model.SetPosition(args))
	default:
		return interp.rep.warn(pc, KindUnknownCode, "unknown code '%s'", word)
	}
	return nil
}

// doMove executes a linear move (G0/G1)
func (interp *Interpreter) doMove(pc ParseContext, kind standalone.MoveKind, args standalone.AxisMap) error {
	return interp.reportAxes(pc, interp.model.Move(kind, pc.Line, args))
}

func (interp *Interpreter) reportAxes(pc ParseContext, unknown []standalone.Axis) error {
	for _, axis := range unknown {
		if err := interp.rep.warn(pc, KindUnknownAxis, "unknown axis '%s'", axis); err != nil {
			return err
		}
	}
	return nil
}

// Model returns the model commands are applied to
func (interp *Interpreter) Model() *Model {
	return interp.model
}
