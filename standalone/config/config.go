package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	yml "gopkg.in/yaml.v2"

	"gcodeparser/standalone/gcode"
)

// EnvPrefix marks environment overrides. The first '_' after the prefix
// separates a section, so GCODE_SERIAL_DEVICE sets serial.device.
const EnvPrefix = "GCODE_"

// Output formats
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// SerialConfig describes a device G-code is streamed from
type SerialConfig struct {
	Device      string `koanf:"device" yaml:"device"`
	Baud        int    `koanf:"baud" yaml:"baud"`
	ReadTimeout int    `koanf:"readtimeout" yaml:"readtimeout"` // ms, stream ends when idle this long
	OpenTimeout int    `koanf:"opentimeout" yaml:"opentimeout"` // ms spent retrying the open
}

// Config holds everything the command line tool can be told
type Config struct {
	Output           string       `koanf:"output" yaml:"output"`
	Color            bool         `koanf:"color" yaml:"color"`
	Quiet            bool         `koanf:"quiet" yaml:"quiet"`
	Progress         bool         `koanf:"progress" yaml:"progress"`
	NaiveLineNumbers bool         `koanf:"naivelinenumbers" yaml:"naivelinenumbers"`
	Escalate         []string     `koanf:"escalate" yaml:"escalate"`
	Serial           SerialConfig `koanf:"serial" yaml:"serial"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Output:   OutputText,
		Color:    os.Getenv("NO_COLOR") == "",
		Escalate: []string{},
		Serial: SerialConfig{
			Baud:        250000,
			ReadTimeout: 2000,
			OpenTimeout: 3000,
		},
	}
}

// Load layers defaults, the YAML file at path (if it exists) and GCODE_*
// environment variables, in that order. An empty path skips the file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("load config %s: %w", path, err)
			}
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in values left zero by a partial config file
func applyDefaults(cfg *Config) {
	if cfg.Output == "" {
		cfg.Output = OutputText
	}
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = 250000
	}
	if cfg.Serial.OpenTimeout == 0 {
		cfg.Serial.OpenTimeout = 3000
	}
}

// Validate checks the output format and escalation kinds
func (c *Config) Validate() error {
	switch c.Output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("unknown output format %q", c.Output)
	}
	_, err := c.EscalateKinds()
	return err
}

// EscalateKinds returns the diagnostic kinds to treat as fatal
func (c *Config) EscalateKinds() ([]gcode.Kind, error) {
	kinds := make([]gcode.Kind, 0, len(c.Escalate))
	for _, s := range c.Escalate {
		k, err := gcode.ParseKind(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("escalate: %w", err)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// ParserOptions converts the config into gcode parser options
func (c *Config) ParserOptions() ([]gcode.Option, error) {
	kinds, err := c.EscalateKinds()
	if err != nil {
		return nil, err
	}
	return []gcode.Option{
		gcode.WithEscalation(kinds...),
		gcode.WithNaiveLineNumbers(c.NaiveLineNumbers),
	}, nil
}

// Dump writes the config as YAML
func (c *Config) Dump(w io.Writer) error {
	return yml.NewEncoder(w).Encode(c)
}
