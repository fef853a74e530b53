package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/ahrav/go-rubric/internal/application"
	"github.com/ahrav/go-rubric/internal/domain"
)

var errUsage = errors.New("usage")

// newFlagSet returns a subcommand flag set that reports errors and -h
// help on the app's error stream.
func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	fs.Usage = func() {
		fmt.Fprintf(a.errOut, "usage: rubricctl %s [flags]\n", name)
		fs.PrintDefaults()
	}
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected arguments %v", errUsage, fs.Args())
	}
	return nil
}

// runInit seeds the rubric named by -rubric, the configured rubric file or
// the built-in rubric, in that order. The schema already exists by the time
// a command runs.
func runInit(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("init")
	rubricPath := fs.String("rubric", "", "YAML rubric definition to seed instead of the built-in rubric")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	path := *rubricPath
	if path == "" {
		path = a.cfg.RubricFile
	}

	def := domain.DefaultRubric()
	if path != "" {
		loader, err := application.NewRubricLoader()
		if err != nil {
			return err
		}
		if def, err = loader.LoadFromFile(path); err != nil {
			return fmt.Errorf("rubric %s: %w", path, err)
		}
	}

	res, err := application.NewRubricSeeder(a.repo, a.metrics, a.logger).Seed(ctx, def)
	if err != nil {
		return err
	}
	return a.printJSON(res)
}

func runRubric(ctx context.Context, a *app, args []string) error {
	if err := parseFlags(a.newFlagSet("rubric"), args); err != nil {
		return err
	}

	tree, err := a.service.BuildRubricView(ctx)
	if err != nil {
		return err
	}
	return a.printJSON(tree)
}

type submitResult struct {
	EvaluationID int64                   `json:"evaluation_id"`
	Detail       domain.EvaluationDetail `json:"detail"`
}

// runSubmit records the submission document given by -file and prints the
// stored evaluation.
func runSubmit(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("submit")
	file := fs.String("file", "", "YAML submission document")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("%w: -file is required", errUsage)
	}

	doc, err := application.ReadSubmissionDocument(*file)
	if err != nil {
		return err
	}

	tree, err := a.service.BuildRubricView(ctx)
	if err != nil {
		return err
	}

	sub, err := doc.Resolve(tree, application.NewIndicatorMatcher(tree, a.cfg.MatchThreshold))
	if err != nil {
		return err
	}

	id, err := a.service.SubmitEvaluation(ctx, sub)
	if err != nil {
		return err
	}

	detail, err := a.service.BuildEvaluationDetail(ctx, id)
	if err != nil {
		return err
	}
	return a.printJSON(submitResult{EvaluationID: id, Detail: detail})
}

func runHistory(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("history")
	code := fs.String("code", "", "Student code")
	detail := fs.Bool("detail", false, "Include every evaluation's detail")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if *detail {
		history, err := a.service.BuildStudentHistory(ctx, *code)
		if err != nil {
			return err
		}
		return a.printJSON(history)
	}

	summaries, err := a.service.ListStudentEvaluations(ctx, *code)
	if err != nil {
		return err
	}
	return a.printJSON(summaries)
}

func runDetail(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("detail")
	id := fs.Int64("id", 0, "Evaluation id")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *id <= 0 {
		return fmt.Errorf("%w: -id must be a positive evaluation id", errUsage)
	}

	detail, err := a.service.BuildEvaluationDetail(ctx, *id)
	if err != nil {
		return err
	}
	return a.printJSON(detail)
}
