package gcode

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

const maxLineLength = 1024 * 1024

// Option configures a Parser
type Option func(*Parser)

// WithSink sends diagnostics to s instead of discarding them
func WithSink(s Sink) Option {
	return func(p *Parser) {
		if s != nil {
			p.rep.sink = s
		}
	}
}

// WithEscalation turns warnings of the given kinds into fatal errors
func WithEscalation(kinds ...Kind) Option {
	return func(p *Parser) {
		for _, k := range kinds {
			p.rep.escalate[k] = true
		}
	}
}

// WithNaiveLineNumbers restores unanchored 'N' detection, see Strip
func WithNaiveLineNumbers(naive bool) Option {
	return func(p *Parser) {
		p.naiveLineNumbers = naive
	}
}

// WithPostProcessor appends a hook run by Finish
func WithPostProcessor(pp PostProcessor) Option {
	return func(p *Parser) {
		if pp != nil {
			p.post = append(p.post, pp)
		}
	}
}

// WithProgress calls fn every n lines
func WithProgress(n int, fn func(line int)) Option {
	return func(p *Parser) {
		if n > 0 {
			p.progressEvery = n
			p.progress = fn
		}
	}
}

// Parser feeds lines through the preprocessor, argument parser and
// interpreter, one at a time and in order.
type Parser struct {
	interp *Interpreter
	rep    *reporter
	post   []PostProcessor

	lineNb           int
	naiveLineNumbers bool
	aborted          error

	progressEvery int
	progress      func(line int)
}

// NewParser creates a parser with an empty model
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		rep: &reporter{
			sink:     Discard,
			escalate: make(map[Kind]bool),
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.interp = newInterpreter(NewModel(), p.rep)
	return p
}

// Line returns the number of lines consumed
func (p *Parser) Line() int {
	return p.lineNb
}

// Model returns the model being built. It is only valid once Finish succeeds.
func (p *Parser) Model() *Model {
	return p.interp.Model()
}

// ParseLine processes the next line of input
func (p *Parser) ParseLine(raw string) error {
	if p.aborted != nil {
		return fmt.Errorf("%w: %v", ErrAborted, p.aborted)
	}

	p.lineNb++
	pc := ParseContext{Line: p.lineNb, Text: strings.TrimRightFunc(raw, isTrailingSpace)}

	if p.progress != nil && p.lineNb%p.progressEvery == 0 {
		p.progress(p.lineNb)
	}

	if err := p.parseLine(pc); err != nil {
		p.aborted = err
		return err
	}
	return nil
}

func (p *Parser) parseLine(pc ParseContext) error {
	stripped := Strip(pc.Text, p.naiveLineNumbers)
	for _, a := range stripped.Artifacts {
		var err error
		switch a.Kind {
		case KindLineNumber:
			err = p.rep.warn(pc, a.Kind, "stripped line number '%s'", a.Value)
		case KindChecksum:
			err = p.rep.warn(pc, a.Kind, "stripped checksum '%s'", a.Value)
		case KindUnterminatedComment:
			err = p.rep.warn(pc, a.Kind, "stripping unterminated round-bracket comment")
		}
		if err != nil {
			return err
		}
	}

	if stripped.Empty() {
		return nil
	}

	args, malformed := ParseArgsReport(stripped.Args)
	for _, word := range malformed {
		if err := p.rep.warn(pc, KindMalformedNumber, "malformed number '%s', using 1", word); err != nil {
			return err
		}
	}

	return p.interp.Execute(pc, stripped.Code, args)
}

// Finish runs the post-processing hooks and returns the finished model
func (p *Parser) Finish() (*Model, error) {
	if p.aborted != nil {
		return nil, p.aborted
	}

	model := p.interp.Model()
	for _, pp := range p.post {
		if err := pp.PostProcess(model.Segments()); err != nil {
			p.aborted = fmt.Errorf("post-process: %w", err)
			p.rep.sink.Report(Diagnostic{
				Severity: SeverityError,
				Kind:     KindPostProcess,
				Line:     p.lineNb,
				Message:  err.Error(),
			})
			return nil, p.aborted
		}
	}
	return model, nil
}

// Parse reads r line by line and returns the finished model. Any fatal
// condition discards the model. ctx is checked between lines.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*Model, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			p.aborted = err
			return nil, err
		}
		if err := p.ParseLine(scanner.Text()); err != nil {
			return nil, err
		}
	}

	if err := scanner.Err(); err != nil {
		p.aborted = fmt.Errorf("read line %d: %w", p.lineNb+1, err)
		return nil, p.aborted
	}

	return p.Finish()
}

// Parse reads a whole G-code stream with a fresh Parser
func Parse(ctx context.Context, r io.Reader, opts ...Option) (*Model, error) {
	return NewParser(opts...).Parse(ctx, r)
}

// ParseString parses G-code held in memory
func ParseString(ctx context.Context, text string, opts ...Option) (*Model, error) {
	return Parse(ctx, strings.NewReader(text), opts...)
}

// ParseFile parses the G-code file at path
func ParseFile(ctx context.Context, path string, opts ...Option) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gcode file: %w", err)
	}
	defer f.Close()

	return Parse(ctx, f, opts...)
}

func isTrailingSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}
