package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/opmeter/internal/app"
	"github.com/vk/opmeter/internal/stat"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("opmeter", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
opmeter - Structural and runtime statistics for module graphs.

Usage:
  opmeter [options] GRAPH_PATH...

Arguments:
  GRAPH_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	graphFlag := flagSet.String("graph", "", "Path to the graph file or directory.")
	gFlag := flagSet.String("g", "", "Path to the graph file or directory (shorthand).")
	facetsFlag := flagSet.String("facets", "param,cal,mem", "Comma separated facets to measure: param, cal, mem, ittp.")
	rebaseFlag := flagSet.String("rebase", "", "Operation id to use as the root of every graph, e.g. '2.1'.")
	profileFlag := flagSet.String("profile-dir", "", "Directory to write pprof profiles to. Empty disables profiles.")
	foldFlag := flagSet.Bool("fold", true, "Collapse repeated operations (overrides the graph file).")
	warmupFlag := flagSet.Int("warmup", 0, "Untimed replays before ittp sampling (overrides the graph file).")
	repeatFlag := flagSet.Int("repeat", 0, "Timed replays per operation for ittp (overrides the graph file).")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	var paths []string
	for _, p := range []string{*graphFlag, *gFlag} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	paths = append(paths, flagSet.Args()...)
	slog.Debug("Graph paths determined.", "paths", paths)

	if len(paths) == 0 {
		slog.Debug("No graph path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	var facets []stat.Kind
	for _, name := range strings.Split(*facetsFlag, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		k, err := stat.ParseKind(name)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		facets = append(facets, k)
	}

	// Only flags given explicitly override the graph files.
	var overrides app.Overrides
	flagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "fold":
			overrides.FoldRepeat = foldFlag
		case "warmup":
			overrides.Warmup = warmupFlag
		case "repeat":
			overrides.BenchmarkRepeat = repeatFlag
		}
	})
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		GraphPaths: paths,
		Facets:     facets,
		Rebase:     *rebaseFlag,
		ProfileDir: *profileFlag,
		LogFormat:  logFormat,
		LogLevel:   logLevel,
		Overrides:  overrides,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
