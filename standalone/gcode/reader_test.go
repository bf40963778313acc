package gcode

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"gcodeparser/standalone"
)

func TestLookupCode(t *testing.T) {
	tests := []struct {
		word string
		code Code
	}{
		{"G0", CodeG0},
		{"G1", CodeG1},
		{"G20", CodeG20},
		{"G21", CodeG21},
		{"G28", CodeG28},
		{"G90", CodeG90},
		{"G91", CodeG91},
		{"G92", CodeG92},
		{"G01", CodeUnknown},
		{"g1", CodeUnknown},
		{"M104", CodeUnknown},
	}

	for _, test := range tests {
		if got := LookupCode(test.word); got != test.code {
			t.Errorf("LookupCode(%q) = %v, want %v", test.word, got, test.code)
		}
	}
}

func TestRelativeScenario(t *testing.T) {
	p := NewParser()

	for _, line := range []string{"G91", "G1 X10 Y5"} {
		if err := p.ParseLine(line); err != nil {
			t.Fatalf("ParseLine(%q): %v", line, err)
		}
	}
	if diff := cmp.Diff(standalone.Position{X: 10, Y: 5}, p.Model().Relative()); diff != "" {
		t.Errorf("after line 2 (-want +got):\n%s", diff)
	}

	if err := p.ParseLine("G1 X-3"); err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	model, err := p.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	if diff := cmp.Diff(standalone.Position{X: 7, Y: 5}, model.Relative()); diff != "" {
		t.Errorf("after line 3 (-want +got):\n%s", diff)
	}
	want := []standalone.Segment{
		{Kind: "G1", Line: 2, X: 10, Y: 5},
		{Kind: "G1", Line: 3, X: model.Offset().X + 7, Y: 5},
	}
	if diff := cmp.Diff(want, model.Segments()); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}
}

func TestInchUnitsAbort(t *testing.T) {
	rec := &Recorder{}
	model, err := ParseString(context.Background(), "G1 X1\nG20\nG1 X2\n", WithSink(rec))

	if model != nil {
		t.Errorf("Expected no model after fatal error, got %d segments", model.Len())
	}
	if !errors.Is(err, ErrInchUnits) {
		t.Fatalf("Expected ErrInchUnits, got %v", err)
	}

	var lineErr *LineError
	if !errors.As(err, &lineErr) {
		t.Fatalf("Expected *LineError, got %T", err)
	}
	if lineErr.Line != 2 || lineErr.Text != "G20" {
		t.Errorf("Expected line 2 'G20', got line %d '%s'", lineErr.Line, lineErr.Text)
	}

	diags := rec.Diagnostics()
	if len(diags) != 1 || diags[0].Severity != SeverityError || diags[0].Kind != KindUnsupportedUnits {
		t.Errorf("Expected a single unsupported-units error, got %v", diags)
	}
}

func TestParserRefusesAfterAbort(t *testing.T) {
	p := NewParser()
	if err := p.ParseLine("G20"); err == nil {
		t.Fatal("Expected G20 to fail")
	}
	if err := p.ParseLine("G1 X1"); !errors.Is(err, ErrAborted) {
		t.Errorf("Expected ErrAborted, got %v", err)
	}
	if _, err := p.Finish(); !errors.Is(err, ErrInchUnits) {
		t.Errorf("Expected Finish to return the fatal error, got %v", err)
	}
}

func TestLineNumberAndChecksum(t *testing.T) {
	rec := &Recorder{}
	model, err := ParseString(context.Background(), "N10 G1 X5 Y5 *37", WithSink(rec))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := []standalone.Segment{{Kind: "G1", Line: 1, X: 5, Y: 5}}
	if diff := cmp.Diff(want, model.Segments()); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}

	if rec.Count(KindLineNumber) != 1 || rec.Count(KindChecksum) != 1 {
		t.Errorf("Expected line-number and checksum warnings, got %v", rec.Diagnostics())
	}
	for _, d := range rec.Diagnostics() {
		if d.Severity != SeverityWarning {
			t.Errorf("Expected warnings only, got %v", d)
		}
	}
}

func TestModeIdempotent(t *testing.T) {
	once, err := ParseString(context.Background(), "G91\nG1 X1\nG1 X1\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	twice, err := ParseString(context.Background(), "G91\nG91\nG1 X1\nG1 X1\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if once.Mode() != twice.Mode() {
		t.Errorf("mode differs: %v vs %v", once.Mode(), twice.Mode())
	}
	if diff := cmp.Diff(once.Relative(), twice.Relative()); diff != "" {
		t.Errorf("relative differs (-once +twice):\n%s", diff)
	}
	if once.Len() != twice.Len() {
		t.Errorf("segment count differs: %d vs %d", once.Len(), twice.Len())
	}
}

func TestRecoverableWarnings(t *testing.T) {
	input := strings.Join([]string{
		"G21",
		"M104 S200",
		"G28",
		"G1 X1 S3",
		"G1 Y2 (unterminated",
		"G1 Zabc",
		"G92 F10",
	}, "\n")

	rec := &Recorder{}
	model, err := ParseString(context.Background(), input, WithSink(rec))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	counts := map[Kind]int{
		KindUnknownCode:         1,
		KindUnimplemented:       1,
		KindUnknownAxis:         2,
		KindUnterminatedComment: 1,
		KindMalformedNumber:     1,
	}
	for kind, n := range counts {
		if got := rec.Count(kind); got != n {
			t.Errorf("Expected %d %s warnings, got %d", n, kind, got)
		}
	}

	want := []standalone.Segment{
		{Kind: "G1", Line: 4, X: 1},
		{Kind: "G1", Line: 5, X: 1, Y: 2},
		{Kind: "G1", Line: 6, X: 1, Y: 2, Z: 1},
	}
	if diff := cmp.Diff(want, model.Segments()); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}
}

func TestEscalation(t *testing.T) {
	_, err := ParseString(context.Background(), "G1 X1\nM104 S200\n", WithEscalation(KindUnknownCode))
	if !errors.Is(err, ErrEscalated) {
		t.Fatalf("Expected ErrEscalated, got %v", err)
	}

	var lineErr *LineError
	if !errors.As(err, &lineErr) || lineErr.Line != 2 || lineErr.Kind != KindUnknownCode {
		t.Errorf("Expected unknown-code error on line 2, got %v", err)
	}
}

func TestNaiveLineNumbers(t *testing.T) {
	ctx := context.Background()
	input := "G1 X1\nM117 DONE\n"

	anchored := &Recorder{}
	if _, err := ParseString(ctx, input, WithSink(anchored)); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	naive := &Recorder{}
	if _, err := ParseString(ctx, input, WithNaiveLineNumbers(true), WithSink(naive)); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if anchored.Count(KindLineNumber) != 0 {
		t.Errorf("Expected no line-number warning, got %v", anchored.Diagnostics())
	}
	if naive.Count(KindLineNumber) != 1 {
		t.Errorf("Expected 1 line-number warning, got %v", naive.Diagnostics())
	}

	messages := func(r *Recorder) []string {
		var out []string
		for _, d := range r.Diagnostics() {
			if d.Kind == KindUnknownCode {
				out = append(out, d.Message)
			}
		}
		return out
	}
	if diff := cmp.Diff([]string{"unknown code 'M117'"}, messages(anchored)); diff != "" {
		t.Errorf("anchored mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"unknown code 'DONE'"}, messages(naive)); diff != "" {
		t.Errorf("naive mismatch (-want +got):\n%s", diff)
	}
}

func TestPostProcessor(t *testing.T) {
	var order []string
	var seen int

	first := PostProcessFunc(func(segs []standalone.Segment) error {
		order = append(order, "first")
		seen = len(segs)
		segs[0].X = 1000
		return nil
	})
	second := PostProcessFunc(func(segs []standalone.Segment) error {
		order = append(order, "second")
		return nil
	})

	model, err := ParseString(context.Background(), "G1 X1\nG1 X2\n",
		WithPostProcessor(first), WithPostProcessor(second), WithPostProcessor(NopPostProcessor{}))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if diff := cmp.Diff([]string{"first", "second"}, order); diff != "" {
		t.Errorf("hook order mismatch (-want +got):\n%s", diff)
	}
	if seen != 2 {
		t.Errorf("Expected hook to see 2 segments, got %d", seen)
	}
	if x := model.Segment(0).X; x != 1 {
		t.Errorf("hook mutated the model: X=%f", x)
	}
}

func TestPostProcessorError(t *testing.T) {
	boom := errors.New("boom")
	model, err := ParseString(context.Background(), "G1 X1\n",
		WithPostProcessor(PostProcessFunc(func([]standalone.Segment) error { return boom })))

	if model != nil {
		t.Error("Expected no model when a hook fails")
	}
	if !errors.Is(err, boom) {
		t.Errorf("Expected hook error, got %v", err)
	}
}

func TestParseCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	model, err := ParseString(ctx, "G1 X1\n")
	if model != nil || !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled and no model, got %v, %v", model, err)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.gcode")
	data := "; generated\r\nG21\r\nG90\r\nG92 E0\r\nG1 Z0.2 F1200   \r\nG1 X20 Y20 E1.5\r\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := &Recorder{}
	model, err := ParseFile(context.Background(), path, WithSink(rec))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}

	want := []standalone.Segment{
		{Kind: "G1", Line: 5, Z: 0.2, F: 1200},
		{Kind: "G1", Line: 6, X: 20, Y: 20, Z: 0.2, F: 1200, E: 1.5},
	}
	if diff := cmp.Diff(want, model.Segments()); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}
	if n := len(rec.Diagnostics()); n != 0 {
		t.Errorf("Expected no diagnostics, got %v", rec.Diagnostics())
	}

	if _, err := ParseFile(context.Background(), filepath.Join(t.TempDir(), "missing.gcode")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestProgress(t *testing.T) {
	var calls []int
	_, err := ParseString(context.Background(), strings.Repeat("G1 X1\n", 7),
		WithProgress(3, func(line int) { calls = append(calls, line) }))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff([]int{3, 6}, calls); diff != "" {
		t.Errorf("progress calls mismatch (-want +got):\n%s", diff)
	}
}
