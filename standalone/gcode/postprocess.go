package gcode

import (
	"gcodeparser/standalone"
)

// PostProcessor runs once over the finished segment sequence.
// It receives a copy; the model itself cannot be changed from here.
type PostProcessor interface {
	PostProcess(segments []standalone.Segment) error
}

// PostProcessFunc adapts a function to PostProcessor
type PostProcessFunc func(segments []standalone.Segment) error

func (f PostProcessFunc) PostProcess(segments []standalone.Segment) error {
	return f(segments)
}

// NopPostProcessor does nothing
type NopPostProcessor struct{}

func (NopPostProcessor) PostProcess([]standalone.Segment) error {
	return nil
}
