package gcode

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"gcodeparser/standalone"
)

// Artifact is a fragment the preprocessor removed from a line
type Artifact struct {
	Kind  Kind
	Value string
}

// Stripped is a line with comments, line number and checksum removed
type Stripped struct {
	Code      string // First word, e.g. "G1"
	Args      string // Remainder, e.g. "X10 Y5"
	Artifacts []Artifact
}

// Empty reports whether nothing executable was left on the line
func (s Stripped) Empty() bool {
	return s.Code == ""
}

// Strip removes comments, the line number and the checksum from a raw line
// and splits the rest into command code and arguments.
//
// By default a line number is only recognised as a leading "N<digits>" word.
// With naiveLineNumbers any 'N' on the line drops the first word, which is
// how older hosts behaved; note that it also eats the code of lines such as
// "M117 DONE".
func Strip(raw string, naiveLineNumbers bool) Stripped {
	var s Stripped

	line := stripRoundComments(raw, &s)

	if idx := strings.IndexByte(line, ';'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)

	if hasLineNumber(line, naiveLineNumbers) {
		num, rest := splitWord(line)
		s.Artifacts = append(s.Artifacts, Artifact{Kind: KindLineNumber, Value: num})
		line = rest
	}

	if idx := strings.IndexByte(line, '*'); idx >= 0 {
		s.Artifacts = append(s.Artifacts, Artifact{Kind: KindChecksum, Value: strings.TrimSpace(line[idx+1:])})
		line = strings.TrimSpace(line[:idx])
	}

	s.Code, s.Args = splitWord(line)
	return s
}

// stripRoundComments removes non-nested "(...)" comments. An unterminated
// '(' truncates the line, unless a ';' comment already started before it.
func stripRoundComments(line string, s *Stripped) string {
	for {
		open := strings.IndexByte(line, '(')
		if open < 0 {
			return line
		}
		end := strings.IndexByte(line[open:], ')')
		if end < 0 {
			if !strings.Contains(line[:open], ";") {
				s.Artifacts = append(s.Artifacts, Artifact{Kind: KindUnterminatedComment, Value: line[open:]})
			}
			return line[:open]
		}
		line = line[:open] + line[open+end+1:]
	}
}

func hasLineNumber(line string, naive bool) bool {
	if naive {
		return strings.IndexByte(line, 'N') >= 0
	}
	return len(line) > 1 && line[0] == 'N' && line[1] >= '0' && line[1] <= '9'
}

// splitWord splits off the first whitespace-delimited word
func splitWord(line string) (string, string) {
	line = strings.TrimSpace(line)
	idx := strings.IndexFunc(line, unicode.IsSpace)
	if idx < 0 {
		return line, ""
	}
	return line[:idx], strings.TrimSpace(line[idx:])
}

// ParseArgs tokenizes an argument string into an axis map.
// A value that does not parse as a number defaults to 1.
func ParseArgs(args string) standalone.AxisMap {
	m, _ := ParseArgsReport(args)
	return m
}

// ParseArgsReport is ParseArgs that also returns the tokens whose value was
// malformed. Bare letters ("X") are flags, not malformed.
func ParseArgsReport(args string) (standalone.AxisMap, []string) {
	m := make(standalone.AxisMap)
	var malformed []string

	for _, word := range strings.Fields(args) {
		letter, size := utf8.DecodeRuneInString(word)
		value, err := strconv.ParseFloat(word[size:], 64)
		if err != nil {
			value = 1.0
			if size < len(word) {
				malformed = append(malformed, word)
			}
		}
		m[standalone.Axis(letter)] = value
	}

	return m, malformed
}
