package serial

import (
	"io"
)

// Port represents a serial port G-code is streamed from.
// Native ports use github.com/tarm/serial; tests substitute a fake.
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate (USB CDC ignores this)
	Baud int

	// Read timeout in milliseconds. A read that times out ends the stream,
	// so the parser stops once the sender goes quiet. 0 blocks forever.
	ReadTimeout int

	// OpenTimeout bounds the time spent retrying a busy or missing device, in milliseconds
	OpenTimeout int
}

// DefaultConfig returns a default configuration for a printer host link
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        250000,
		ReadTimeout: 2000,
		OpenTimeout: 3000,
	}
}
