// Command rltrack extracts ball, car and player trajectories from decoded
// replay documents.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/arena-replay/rltrack/internal/config"
	"github.com/arena-replay/rltrack/internal/dispatcher"
	"github.com/arena-replay/rltrack/internal/logging"
	intOtel "github.com/arena-replay/rltrack/internal/otel"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.1.0"
	BuildDate      string = "unknown"
)

const AppName = "rltrack"

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const usage = `Usage: rltrack <command> [flags] [args]

Commands:
  extract FILE...          extract trajectories and write them to the storage backend
  summary FILE             print a replay summary (--stored NAME reads from sqlite/postgres)
  nearest --time T FILE    print the sample nearest to T for every entity
  plot FILE                draw top-down paths and ball height (--out DIR)
  sanitize IN OUT          replace nulls and default velocities in an exported document
  version                  print the version

Flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// flags holds every command line option. Options shared with the config file
// are bound over their viper keys.
type flags struct {
	set       *pflag.FlagSet
	configDir string
	workers   int
	time      float64
	out       string
	stored    string
}

func newFlags(stderr io.Writer) *flags {
	f := &flags{set: pflag.NewFlagSet(AppName, pflag.ContinueOnError)}
	f.set.SetOutput(stderr)
	f.set.Usage = func() {
		fmt.Fprint(stderr, usage)
		f.set.PrintDefaults()
	}

	f.set.StringVar(&f.configDir, "config-dir", ".", "directory containing "+config.FileName)
	f.set.String("log-level", "", "log level: debug, info, warn, error")
	f.set.String("logs-dir", "", "write logs to a per-run file in this directory instead of stderr")
	f.set.String("storage", "", "storage backend: memory, sqlite, postgres, csv, influx")
	f.set.String("output-dir", "", "output directory of the memory backend")
	f.set.IntVar(&f.workers, "workers", 1, "replays extracted concurrently")
	f.set.Float64Var(&f.time, "time", 0, "target time in seconds for nearest")
	f.set.StringVar(&f.out, "out", ".", "output directory for plots")
	f.set.StringVar(&f.stored, "stored", "", "summarize a replay stored under this name")
	return f
}

func (f *flags) bind() error {
	for key, name := range map[string]string{
		"logLevel":                 "log-level",
		"logsDir":                  "logs-dir",
		"storage.type":             "storage",
		"storage.memory.outputDir": "output-dir",
	} {
		if err := viper.BindPFlag(key, f.set.Lookup(name)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}

// app is one rltrack invocation with its logging pipeline.
type app struct {
	stdout  io.Writer
	flags   *flags
	logs    *logging.SlogManager
	logger  *slog.Logger
	otel    *intOtel.Provider
	closers []io.Closer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	f := newFlags(stderr)
	if err := f.set.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if f.set.NArg() == 0 {
		f.set.Usage()
		return exitUsage
	}
	command, rest := f.set.Arg(0), f.set.Args()[1:]

	if command == "version" {
		fmt.Fprintf(stdout, "%s %s (built %s)\n", AppName, CurrentVersion, BuildDate)
		return exitOK
	}

	configErr := config.Load(f.configDir)
	if err := f.bind(); err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}

	a := &app{stdout: stdout, flags: f}
	if err := a.setupLogging(ctx, command); err != nil {
		a.closeFiles()
		fmt.Fprintln(stderr, "error setting up logging:", err)
		return exitError
	}
	defer a.close()

	switch {
	case errors.Is(configErr, config.ErrConfigNotFound):
		a.logger.Warn("Config file not found, using defaults", "configDir", f.configDir)
	case configErr != nil:
		a.logger.Error("Error loading config", "error", configErr)
		return exitError
	}

	d, err := dispatcher.New(a.logger)
	if err != nil {
		a.logger.Error("Error creating dispatcher", "error", err)
		return exitError
	}
	a.registerCommands(d)
	defer d.Close()

	if !d.HasHandler(command) {
		fmt.Fprintf(stderr, "unknown command %q (available: %s)\n\n", command, strings.Join(d.Commands(), ", "))
		f.set.Usage()
		return exitUsage
	}

	_, err = d.Dispatch(ctx, dispatcher.Event{Command: command, Args: rest})
	if errors.Is(err, errUsage) {
		fmt.Fprintf(stderr, "%v\n\n", err)
		f.set.Usage()
		return exitUsage
	}
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}
	return exitOK
}

// setupLogging wires the log file or console, the GELF sink and the OTel
// bridge. Every record carries the command being run.
func (a *app) setupLogging(ctx context.Context, command string) error {
	runStart := time.Now()
	level := config.GetString("logLevel")

	var logFile io.Writer
	logsDir := config.GetString("logsDir")
	if logsDir != "" {
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			return fmt.Errorf("error creating logs directory: %w", err)
		}
		file, err := os.Create(logging.LogFilePath(logsDir, AppName, runStart))
		if err != nil {
			return fmt.Errorf("error creating log file: %w", err)
		}
		a.closers = append(a.closers, file)
		logFile = file
	}

	var extra []slog.Handler
	if gl := config.GetGraylogConfig(); gl.Enabled {
		h, closer, err := logging.NewGraylogHandler(gl.Address, logging.HandlerOptions(level))
		if err != nil {
			return err
		}
		a.closers = append(a.closers, closer)
		extra = append(extra, h)
	}

	oc := config.GetOTelConfig()
	otelCfg := intOtel.Config{
		Enabled:      oc.Enabled,
		ServiceName:  oc.ServiceName,
		BatchTimeout: oc.BatchTimeout,
		Endpoint:     oc.Endpoint,
		Insecure:     oc.Insecure,
	}
	if oc.Enabled && logsDir != "" {
		otelPath := filepath.Join(logsDir, fmt.Sprintf("%s.%s.otel.jsonl", AppName, runStart.Format("20060102_150405")))
		file, err := os.Create(otelPath)
		if err != nil {
			return fmt.Errorf("error creating OTel log file: %w", err)
		}
		a.closers = append(a.closers, file)
		otelCfg.LogWriter = file
	}
	provider, err := intOtel.New(ctx, otelCfg)
	if err != nil {
		return err
	}
	a.otel = provider

	a.logs = logging.NewSlogManager()
	a.logs.Setup(logFile, level, provider.LoggerProvider(), extra...)

	commandAttr := slog.String("command", command)
	a.logger = slog.New(logging.NewContextHandler(a.logs.Logger().Handler(), func() []slog.Attr {
		return []slog.Attr{commandAttr}
	}))
	a.logger.Debug("Starting", "version", CurrentVersion, "buildDate", BuildDate)
	return nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.logs.Flush(ctx); err != nil {
		a.logger.Warn("Error flushing logs", "error", err)
	}
	if err := a.otel.Shutdown(ctx); err != nil {
		a.logger.Warn("Error shutting down OTel", "error", err)
	}
	a.closeFiles()
}

func (a *app) closeFiles() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
	a.closers = nil
}
