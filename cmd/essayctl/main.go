// Command essayctl manages essays and the institutions they are written for.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"essaycore/internal/config"
	"essaycore/internal/core"
	"essaycore/pkg/domain"
)

var exitFunc = os.Exit

// errUsage marks a bad invocation. The flag set has already printed why.
var errUsage = errors.New("usage")

type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	cfg    config.Config
	logger *slog.Logger
	svc    *core.Service
	// registry holds the service operation metrics served by backup -daemon.
	registry *prometheus.Registry
	now      func() time.Time
}

type command func(ctx context.Context, a *app, args []string) error

var groups = map[string]map[string]command{
	"essay": {
		"add":      essayAdd,
		"list":     essayList,
		"show":     essayShow,
		"delete":   essayDelete,
		"assign":   essayAssign,
		"unassign": essayUnassign,
	},
	"college": {
		"add":    collegeAdd,
		"list":   collegeList,
		"status": collegeStatus,
		"delete": collegeDelete,
	},
}

var commands = map[string]command{
	"stats":   statsCmd,
	"export":  exportCmd,
	"import":  importCmd,
	"analyze": analyzeCmd,
	"ask":     askCmd,
	"backup":  backupCmd,
}

func main() {
	code := cli(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("essayctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a YAML config file (default $ESSAYCORE_CONFIG)")
	trace := fs.Bool("trace", false, "write JSON trace spans to stderr")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cmd, rest, err := resolve(fs.Args())
	if err != nil {
		fmt.Fprintln(stderr, err)
		usage(stderr)
		return 2
	}

	cfg, err := config.Load(config.Options{ConfigPath: *configPath})
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	registry := prometheus.NewRegistry()
	metrics, err := core.NewPrometheusMetricsRecorder(registry)
	if err != nil {
		fmt.Fprintf(stderr, "metrics: %v\n", err)
		return 1
	}
	opts := []core.ServiceOption{core.WithLogger(logger), core.WithMetricsRecorder(metrics)}
	if *trace {
		opts = append(opts, core.WithTracer(core.NewJSONTracer(stderr)))
	}

	ctx := context.Background()
	svc, err := core.OpenService(ctx, cfg.Storage(), opts...)
	if err != nil {
		fmt.Fprintf(stderr, "open storage: %v\n", err)
		return 1
	}
	defer func() {
		if cerr := svc.Close(); cerr != nil {
			logger.Error("close storage", "error", cerr)
		}
	}()

	a := &app{
		stdin:    stdin,
		stdout:   stdout,
		stderr:   stderr,
		cfg:      cfg,
		logger:   logger,
		svc:      svc,
		registry: registry,
		now:      time.Now,
	}
	return a.exit(cmd(ctx, a, rest))
}

// resolve finds the command named by the leading arguments.
func resolve(args []string) (command, []string, error) {
	if len(args) == 0 {
		return nil, nil, errors.New("missing command")
	}
	if cmd, ok := commands[args[0]]; ok {
		return cmd, args[1:], nil
	}
	group, ok := groups[args[0]]
	if !ok {
		return nil, nil, fmt.Errorf("unknown command %q", args[0])
	}
	if len(args) < 2 {
		return nil, nil, fmt.Errorf("%s: missing subcommand", args[0])
	}
	cmd, ok := group[args[1]]
	if !ok {
		return nil, nil, fmt.Errorf("%s: unknown subcommand %q", args[0], args[1])
	}
	return cmd, args[2:], nil
}

func (a *app) exit(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		return 2
	case errors.Is(err, domain.ErrConfirmationRequired):
		fmt.Fprintf(a.stderr, "error: %v (rerun with -yes to detach them and delete)\n", err)
	default:
		fmt.Fprintf(a.stderr, "error: %v\n", err)
	}
	return 1
}

// parse runs fs over args. Positional arguments are rejected unless
// positional is set.
func parse(fs *flag.FlagSet, args []string, positional bool) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if !positional && fs.NArg() > 0 {
		fmt.Fprintf(fs.Output(), "%s: unexpected arguments %q\n", fs.Name(), fs.Args())
		return errUsage
	}
	return nil
}

func newFlagSet(a *app, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func required(fs *flag.FlagSet, values map[string]string) error {
	for _, name := range sortedKeys(values) {
		if strings.TrimSpace(values[name]) == "" {
			fmt.Fprintf(fs.Output(), "%s: -%s is required\n", fs.Name(), name)
			return errUsage
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// warn prints non-blocking rule findings from a committed change.
func (a *app) warn(res core.Result) {
	for _, v := range res.Warnings() {
		fmt.Fprintln(a.stderr, warnStyle.Render("warning: "+v.Message))
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `usage: essayctl [-config file] [-trace] <command> [flags]

commands:
  essay add|list|show|delete|assign|unassign
  college add|list|status|delete
  stats                     totals and breakdowns
  export [-o file|-blob key] write essays as JSON
  import -in file           append essays from a JSON export
  analyze -id essay|-file f writing feedback
  ask -id essay message     ask the writing assistant
  backup [-daemon]          write a dated backup to blob storage
`)
}
