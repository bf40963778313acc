package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/theckman/yacspin"

	"gcodeparser/host/serial"
	"gcodeparser/standalone/config"
	"gcodeparser/standalone/gcode"
)

var (
	configFile = flag.String("config", "gcode-parse.yml", "YAML config file (optional)")
	device     = flag.String("device", "", "Read G-code from this serial device instead of files")
	baud       = flag.Int("baud", 250000, "Baud rate (ignored for USB CDC)")
	output     = flag.String("output", config.OutputText, "Output format: text, json or yaml")
	quiet      = flag.Bool("quiet", false, "Do not print warnings")
	progress   = flag.Bool("progress", false, "Show a spinner while parsing")
	naive      = flag.Bool("naive-line-numbers", false, "Treat any 'N' on a line as a line number marker")
	escalate   = flag.String("escalate", "", "Comma separated warning kinds to treat as fatal")
	dumpConfig = flag.Bool("dump-config", false, "Print the effective config and exit")
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("gcode-parse: ")
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}
	if err := applyFlags(cfg); err != nil {
		log.Fatal(err)
	}

	if *dumpConfig {
		if err := cfg.Dump(os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, flag.Args(), os.Stdin, os.Stdout, os.Stderr); err != nil {
		log.Print(err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: gcode-parse [flags] [file.gcode ...]\n\n")
	fmt.Fprintf(flag.CommandLine.Output(), "Reads stdin when no file is given or a file is '-'.\n\n")
	flag.PrintDefaults()
	fmt.Fprintf(flag.CommandLine.Output(), "\nWarning kinds: %s\n", kindList())
}

func kindList() string {
	names := make([]string, len(gcode.Kinds))
	for i, k := range gcode.Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

// applyFlags overrides the config with flags given on the command line
func applyFlags(cfg *config.Config) error {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "device":
			cfg.Serial.Device = *device
		case "baud":
			cfg.Serial.Baud = *baud
		case "output":
			cfg.Output = *output
		case "quiet":
			cfg.Quiet = *quiet
		case "progress":
			cfg.Progress = *progress
		case "naive-line-numbers":
			cfg.NaiveLineNumbers = *naive
		case "escalate":
			cfg.Escalate = nil
			for _, k := range strings.Split(*escalate, ",") {
				if k = strings.TrimSpace(k); k != "" {
					cfg.Escalate = append(cfg.Escalate, k)
				}
			}
		}
	})
	return cfg.Validate()
}

// input is one G-code stream to parse
type input struct {
	name string
	open func(ctx context.Context) (io.ReadCloser, error)
}

func inputs(cfg *config.Config, args []string, stdin io.Reader) []input {
	if cfg.Serial.Device != "" {
		sc := &serial.Config{
			Device:      cfg.Serial.Device,
			Baud:        cfg.Serial.Baud,
			ReadTimeout: cfg.Serial.ReadTimeout,
			OpenTimeout: cfg.Serial.OpenTimeout,
		}
		return []input{{
			name: cfg.Serial.Device,
			open: func(ctx context.Context) (io.ReadCloser, error) {
				return serial.OpenRetry(ctx, sc)
			},
		}}
	}

	if len(args) == 0 {
		args = []string{"-"}
	}
	out := make([]input, 0, len(args))
	for _, arg := range args {
		path := arg
		if path == "-" {
			out = append(out, input{name: "stdin", open: func(context.Context) (io.ReadCloser, error) {
				return io.NopCloser(stdin), nil
			}})
			continue
		}
		out = append(out, input{name: path, open: func(context.Context) (io.ReadCloser, error) {
			return os.Open(path)
		}})
	}
	return out
}

func run(ctx context.Context, cfg *config.Config, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	opts, err := cfg.ParserOptions()
	if err != nil {
		return err
	}

	var sink gcode.Sink = gcode.NewWriterSink(stderr, cfg.Color)
	if cfg.Quiet {
		sink = gcode.Discard
	}

	for _, in := range inputs(cfg, args, stdin) {
		model, err := parseInput(ctx, cfg, in, sink, stderr, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", in.name, err)
		}
		if err := writeResult(stdout, cfg.Output, in.name, model); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	return nil
}

func parseInput(ctx context.Context, cfg *config.Config, in input, sink gcode.Sink, stderr io.Writer, opts []gcode.Option) (*gcode.Model, error) {
	r, err := in.open(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if !cfg.Progress {
		return gcode.Parse(ctx, r, append(opts, gcode.WithSink(sink))...)
	}

	// Warnings would tear through the spinner, so hold them until it stops
	rec := &gcode.Recorder{}
	spinner, err := yacspin.New(yacspin.Config{
		Frequency:         100 * time.Millisecond,
		CharSet:           yacspin.CharSets[14],
		Suffix:            " ",
		Message:           in.name,
		StopCharacter:     "✓",
		StopColors:        []string{"fgGreen"},
		StopFailCharacter: "✗",
		StopFailColors:    []string{"fgRed"},
		Writer:            stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("spinner: %w", err)
	}
	if err := spinner.Start(); err != nil {
		return nil, fmt.Errorf("spinner: %w", err)
	}

	model, err := gcode.Parse(ctx, r, append(opts,
		gcode.WithSink(rec),
		gcode.WithProgress(1000, func(line int) {
			spinner.Message(fmt.Sprintf("%s: %d lines", in.name, line))
		}),
	)...)

	if err != nil {
		spinner.StopFailMessage(fmt.Sprintf("%s: failed", in.name))
		_ = spinner.StopFail()
	} else {
		spinner.StopMessage(fmt.Sprintf("%s: %d segments", in.name, model.Len()))
		_ = spinner.Stop()
	}
	rec.Replay(sink)
	return model, err
}
