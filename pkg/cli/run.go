package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/drover/pkg/cli/config"
	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/infra/codecov"
	"github.com/m-mizutani/drover/pkg/infra/memory"
	"github.com/m-mizutani/drover/pkg/pipeline"
	"github.com/m-mizutani/drover/pkg/runner"
	"github.com/m-mizutani/drover/pkg/usecase"
)

// ErrRunFailed signals a non-zero exit for a failed one-shot run
var ErrRunFailed = goerr.New("pipeline run failed")

func cmdRun() *cli.Command {
	var (
		pipelineCfg config.Pipeline
		codecovCfg  config.Codecov

		eventType string
		branch    string
		commit    string
		source    string
	)

	flags := pipelineCfg.Flags()
	flags = append(flags, codecovCfg.Flags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "event",
			Usage:       "Simulated event type (push, pull_request)",
			Value:       "push",
			Destination: &eventType,
		},
		&cli.StringFlag{
			Name:        "branch",
			Usage:       "Branch the event targets",
			Required:    true,
			Destination: &branch,
		},
		&cli.StringFlag{
			Name:        "sha",
			Usage:       "Commit SHA recorded on the run",
			Value:       "local",
			Destination: &commit,
		},
		&cli.StringFlag{
			Name:        "source",
			Usage:       "Source directory to run against",
			Value:       ".",
			Destination: &source,
		},
	)

	return &cli.Command{
		Name:  "run",
		Usage: "Execute the pipeline once against a local source tree",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			p, err := pipeline.Load(pipelineCfg.Path)
			if err != nil {
				return err
			}

			event := &model.WebhookEvent{
				ID:         "local",
				Type:       model.WebhookEventType(eventType),
				Action:     "opened",
				Branch:     branch,
				CommitSHA:  commit,
				ReceivedAt: time.Now(),
			}

			if !p.On.Matches(event.Type, event.Branch) {
				logger.Info("event does not match trigger rules, nothing to run",
					"pipeline", p.Name,
					"event", eventType,
					"branch", branch,
				)
				return nil
			}

			var uploader interfaces.CoverageUploader
			if codecovCfg.Enabled() {
				var opts []codecov.Option
				if codecovCfg.BaseURL != "" {
					opts = append(opts, codecov.WithBaseURL(codecovCfg.BaseURL))
				}
				uploader = codecov.NewUploader(codecovCfg.Token, opts...)
			}

			executor := runner.NewExecutor(runner.NewCommandRunner(), uploader)
			runUC := usecase.NewPipelineRun(
				usecase.NewLocalProvider(source),
				executor,
				memory.NewStore(),
				usecase.WithMaxParallel(pipelineCfg.MaxParallel),
			)

			run, err := runUC.RunPipeline(ctx, p, event)
			if err != nil {
				return err
			}

			printRun(run)
			if !run.Succeeded() {
				return goerr.Wrap(ErrRunFailed, "one or more jobs failed", goerr.V("run_id", run.ID))
			}
			return nil
		},
	}
}

func printRun(run *model.PipelineRun) {
	pass := color.New(color.FgGreen)
	fail := color.New(color.FgRed)

	fmt.Printf("pipeline %s: %s\n", run.Pipeline, run.Status)
	for _, jr := range run.Jobs {
		if jr.Failed() {
			fail.Printf("  FAIL %-14s %s stage: %s\n", jr.Name, jr.FailedStage, jr.Error)
		} else {
			pass.Printf("  PASS %-14s\n", jr.Name)
		}
		for _, lr := range jr.LintResults {
			fmt.Printf("       %s scored %.2f (minimum %.1f)\n", lr.Target, lr.Score, lr.FailUnder)
		}
	}
}
