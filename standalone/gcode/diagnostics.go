package gcode

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

var (
	// ErrInchUnits is returned for G20. Only millimeters are supported.
	ErrInchUnits = errors.New("unsupported & incompatible: G20: set units to inches")

	// ErrEscalated wraps a warning the caller asked to treat as fatal
	ErrEscalated = errors.New("escalated warning")

	// ErrAborted is returned when lines are fed after a fatal error
	ErrAborted = errors.New("parse already aborted")
)

// Severity of a diagnostic
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "ERROR"
	}
	return "WARN"
}

// Kind names the condition a diagnostic reports
type Kind string

const (
	KindLineNumber          Kind = "line-number"
	KindChecksum            Kind = "checksum"
	KindUnterminatedComment Kind = "unterminated-comment"
	KindMalformedNumber     Kind = "malformed-number"
	KindUnknownCode         Kind = "unknown-code"
	KindUnknownAxis         Kind = "unknown-axis"
	KindUnimplemented       Kind = "unimplemented"
	KindUnsupportedUnits    Kind = "unsupported-units"
	KindPostProcess         Kind = "post-process"
)

// Kinds lists every diagnostic kind
var Kinds = []Kind{
	KindLineNumber,
	KindChecksum,
	KindUnterminatedComment,
	KindMalformedNumber,
	KindUnknownCode,
	KindUnknownAxis,
	KindUnimplemented,
	KindUnsupportedUnits,
	KindPostProcess,
}

// ParseKind validates a kind name
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown diagnostic kind %q", s)
}

// ParseContext identifies the line being processed
type ParseContext struct {
	Line int    // 1-based line number
	Text string // Raw line, trailing whitespace removed
}

// Diagnostic is one line-numbered warning or error
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Line     int
	Text     string
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s (text: '%s')", d.Line, d.Message, d.Text)
}

// LineError is the fatal error returned to the caller
type LineError struct {
	Line int
	Text string
	Kind Kind
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v (text: '%s')", e.Line, e.Err, e.Text)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Sink receives diagnostics
type Sink interface {
	Report(d Diagnostic)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(d Diagnostic)

func (f SinkFunc) Report(d Diagnostic) {
	f(d)
}

// Discard drops every diagnostic
var Discard Sink = SinkFunc(func(Diagnostic) {})

// WriterSink prints diagnostics as "[WARN] line N: ..." lines
type WriterSink struct {
	mu   sync.Mutex
	w    io.Writer
	warn *color.Color
	err  *color.Color
}

// NewWriterSink creates a sink writing to w, with colored prefixes if colorize is set
func NewWriterSink(w io.Writer, colorize bool) *WriterSink {
	s := &WriterSink{
		w:    w,
		warn: color.New(color.FgYellow),
		err:  color.New(color.FgRed, color.Bold),
	}
	if colorize {
		s.warn.EnableColor()
		s.err.EnableColor()
	} else {
		s.warn.DisableColor()
		s.err.DisableColor()
	}
	return s
}

func (s *WriterSink) Report(d Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := s.warn
	if d.Severity == SeverityError {
		prefix = s.err
	}
	fmt.Fprintf(s.w, "%s %s\n", prefix.Sprintf("[%s]", d.Severity), d)
}

// Recorder keeps diagnostics in memory
type Recorder struct {
	mu          sync.Mutex
	diagnostics []Diagnostic
}

func (r *Recorder) Report(d Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diagnostics = append(r.diagnostics, d)
}

// Diagnostics returns a copy of everything recorded so far
func (r *Recorder) Diagnostics() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Diagnostic, len(r.diagnostics))
	copy(out, r.diagnostics)
	return out
}

// Count returns how many diagnostics of the given kind were recorded
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, d := range r.diagnostics {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Replay sends every recorded diagnostic to another sink
func (r *Recorder) Replay(to Sink) {
	for _, d := range r.Diagnostics() {
		to.Report(d)
	}
}

// reporter formats diagnostics for one parse pass and applies escalation
type reporter struct {
	sink     Sink
	escalate map[Kind]bool
}

// warn reports a recoverable condition. It returns a *LineError only when
// the kind has been escalated.
func (r *reporter) warn(pc ParseContext, kind Kind, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if r.escalate[kind] {
		return r.fail(pc, kind, fmt.Errorf("%w: %s", ErrEscalated, msg))
	}
	r.sink.Report(Diagnostic{
		Severity: SeverityWarning,
		Kind:     kind,
		Line:     pc.Line,
		Text:     pc.Text,
		Message:  msg,
	})
	return nil
}

// fail reports a fatal condition and returns the error that aborts the parse
func (r *reporter) fail(pc ParseContext, kind Kind, err error) error {
	r.sink.Report(Diagnostic{
		Severity: SeverityError,
		Kind:     kind,
		Line:     pc.Line,
		Text:     pc.Text,
		Message:  err.Error(),
	})
	return &LineError{Line: pc.Line, Text: pc.Text, Kind: kind, Err: err}
}
