// Command rubricctl operates a rubric store: it creates the schema, seeds
// the rubric, records evaluations from YAML documents and prints rubric,
// history and detail views as JSON.
//
// Usage:
//
//	rubricctl [-config file] [-metrics] <command> [flags]
//
// Commands:
//
//	init     create the schema and seed the rubric (-rubric file)
//	rubric   print the rubric with the options of every indicator
//	submit   record the evaluation in a submission document (-file)
//	history  list the evaluations of a student (-code, -detail)
//	detail   print one evaluation with subtotals and grades (-id)
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/ahrav/go-rubric/infrastructure/middleware"
	"github.com/ahrav/go-rubric/infrastructure/storage"
	"github.com/ahrav/go-rubric/internal/application"
	"github.com/ahrav/go-rubric/internal/domain"
)

// Exit codes.
const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitRejected = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// app holds everything a command needs. It owns the store and closes it.
type app struct {
	cfg      application.AppConfig
	logger   *slog.Logger
	store    *storage.SQLStore
	registry *prometheus.Registry
	metrics  *middleware.PrometheusMetrics
	repo     *middleware.InstrumentedRepository
	service  *application.EvaluationService
	out      io.Writer
	errOut   io.Writer
}

type command struct {
	name string
	run  func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{name: "init", run: runInit},
	{name: "rubric", run: runRubric},
	{name: "submit", run: runSubmit},
	{name: "history", run: runHistory},
	{name: "detail", run: runDetail},
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("rubricctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath  = fs.String("config", "", "Path to a YAML configuration file")
		dumpMetrics = fs.Bool("metrics", false, "Print collected metrics after the command")
	)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: rubricctl [-config file] [-metrics] <init|rubric|submit|history|detail> [flags]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	cmd, ok := lookupCommand(fs.Arg(0))
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", fs.Arg(0))
		fs.Usage()
		return exitUsage
	}

	cfg, err := application.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "configuration: %v\n", err)
		return exitFailure
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	a, err := newApp(ctx, cfg, logger, stdout, stderr)
	if err != nil {
		logger.Error("startup failed, fix the database settings and rerun", "error", err)
		return exitFailure
	}
	defer func() {
		if err := a.close(); err != nil {
			logger.Warn("closing store", "error", err)
		}
	}()

	runErr := cmd.run(ctx, a, fs.Args()[1:])

	if *dumpMetrics {
		if err := writeMetrics(stdout, a.registry); err != nil {
			logger.Warn("writing metrics", "error", err)
		}
	}

	return exitCode(logger, cmd.name, runErr)
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// exitCode logs err and maps it to a process exit code. Validation
// failures are listed one per line; storage failures ask for a retry.
func exitCode(logger *slog.Logger, name string, err error) int {
	if err == nil {
		return exitOK
	}

	var verr *domain.ValidationError
	switch {
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.Is(err, errUsage):
		logger.Error("invalid arguments", "command", name, "error", err)
		return exitUsage
	case errors.As(err, &verr):
		for _, msg := range verr.Errors {
			logger.Error("rejected", "command", name, "entity", verr.Entity, "problem", msg)
		}
		return exitRejected
	case errors.Is(err, domain.ErrNotFound):
		logger.Error("not found", "command", name, "error", err)
		return exitFailure
	case errors.Is(err, domain.ErrStorage), errors.Is(err, domain.ErrSchema):
		logger.Error("storage failure, nothing was saved; try again", "command", name, "error", err)
		return exitFailure
	default:
		logger.Error("command failed", "command", name, "error", err)
		return exitFailure
	}
}

func newApp(ctx context.Context, cfg application.AppConfig, logger *slog.Logger, out, errOut io.Writer) (*app, error) {
	driver, err := storage.ParseDriver(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	metrics := middleware.NewPrometheusMetricsWith(registry)
	repo := middleware.NewInstrumentedRepository(store, metrics)

	if err := repo.InitSchema(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	service, err := application.NewEvaluationService(repo, metrics, logger, application.ServiceConfig{
		HistoryConcurrency: cfg.HistoryConcurrency,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		registry: registry,
		metrics:  metrics,
		repo:     repo,
		service:  service,
		out:      out,
		errOut:   errOut,
	}, nil
}

func (a *app) close() error { return a.store.Close() }

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeMetrics prints every gathered family in the text exposition format.
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
