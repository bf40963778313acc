package main

import (
	"encoding/json"
	"fmt"
	"io"

	yml "gopkg.in/yaml.v2"

	"gcodeparser/standalone"
	"gcodeparser/standalone/config"
	"gcodeparser/standalone/gcode"
)

// result is the final state of one parsed stream
type result struct {
	Source   string                    `json:"source" yaml:"source"`
	Mode     standalone.CoordinateMode `json:"mode" yaml:"mode"`
	Offset   standalone.Offset         `json:"offset" yaml:"offset"`
	Relative standalone.Position       `json:"relative" yaml:"relative"`
	Absolute standalone.Position       `json:"absolute" yaml:"absolute"`
	Segments []standalone.Segment      `json:"segments" yaml:"segments"`
}

func newResult(source string, m *gcode.Model) result {
	return result{
		Source:   source,
		Mode:     m.Mode(),
		Offset:   m.Offset(),
		Relative: m.Relative(),
		Absolute: m.Absolute(),
		Segments: m.Segments(),
	}
}

func writeResult(w io.Writer, format, source string, m *gcode.Model) error {
	res := newResult(source, m)

	switch format {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case config.OutputYAML:
		b, err := yml.Marshal(res)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "---\n%s", b)
		return err
	default:
		return writeText(w, res)
	}
}

func writeText(w io.Writer, res result) error {
	for _, s := range res.Segments {
		if _, err := fmt.Fprintf(w, "%6d  %s\n", s.Line, s); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "# %s: %d segments, mode %s, offset %+v, position %+v\n",
		res.Source, len(res.Segments), res.Mode, res.Offset, res.Relative)
	return err
}
