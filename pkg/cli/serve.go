package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/drover/pkg/cli/config"
	controller "github.com/m-mizutani/drover/pkg/controller/http"
	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/infra/codecov"
	"github.com/m-mizutani/drover/pkg/infra/firestore"
	"github.com/m-mizutani/drover/pkg/infra/gcs"
	"github.com/m-mizutani/drover/pkg/infra/memory"
	"github.com/m-mizutani/drover/pkg/infra/slack"
	"github.com/m-mizutani/drover/pkg/pipeline"
	"github.com/m-mizutani/drover/pkg/runner"
	"github.com/m-mizutani/drover/pkg/usecase"
)

func cmdServe() *cli.Command {
	var (
		serverCfg   config.Server
		githubCfg   config.GitHub
		pipelineCfg config.Pipeline
		codecovCfg  config.Codecov
		slackCfg    config.Slack
		sentryCfg   config.Sentry
		storeCfg    config.Store
	)

	flags := serverCfg.Flags()
	flags = append(flags, githubCfg.Flags()...)
	flags = append(flags, pipelineCfg.Flags()...)
	flags = append(flags, codecovCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)
	flags = append(flags, storeCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start webhook server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			if err := sentryCfg.Configure(); err != nil {
				return err
			}

			watcher, err := pipeline.NewWatcher(pipelineCfg.Path)
			if err != nil {
				return goerr.Wrap(err, "failed to load pipeline definition")
			}

			ghClient, err := githubCfg.NewClient()
			if err != nil {
				return goerr.Wrap(err, "failed to create GitHub client")
			}

			var uploader interfaces.CoverageUploader
			if codecovCfg.Enabled() {
				var opts []codecov.Option
				if codecovCfg.BaseURL != "" {
					opts = append(opts, codecov.WithBaseURL(codecovCfg.BaseURL))
				}
				uploader = codecov.NewUploader(codecovCfg.Token, opts...)
			} else {
				logger.Warn("no Codecov token configured, coverage upload disabled")
			}

			var store interfaces.RunStore = memory.NewStore()
			if storeCfg.FirestoreProject != "" {
				fsStore, err := firestore.NewStore(ctx, storeCfg.FirestoreProject, storeCfg.FirestoreCollection)
				if err != nil {
					return goerr.Wrap(err, "failed to create Firestore run store")
				}
				defer func() {
					if err := fsStore.Close(); err != nil {
						logger.Warn("failed to close Firestore client", "error", err)
					}
				}()
				store = fsStore
			}

			runOpts := []usecase.RunOption{
				usecase.WithGitHub(ghClient),
				usecase.WithMaxParallel(pipelineCfg.MaxParallel),
			}
			if slackCfg.Enabled() {
				runOpts = append(runOpts, usecase.WithNotifier(slack.NewNotifier(slackCfg.WebhookURL)))
			}
			if storeCfg.GCSBucket != "" {
				artifacts, err := gcs.NewStore(ctx, storeCfg.GCSBucket)
				if err != nil {
					return goerr.Wrap(err, "failed to create artifact store")
				}
				defer func() {
					if err := artifacts.Close(); err != nil {
						logger.Warn("failed to close storage client", "error", err)
					}
				}()
				runOpts = append(runOpts, usecase.WithArtifactStore(artifacts))
			}

			// Create use cases
			executor := runner.NewExecutor(runner.NewCommandRunner(), uploader)
			runUC := usecase.NewPipelineRun(usecase.NewZipballProvider(ghClient), executor, store, runOpts...)
			webhookUC := usecase.NewWebhook(watcher, runUC)

			// Create HTTP server with options
			server, err := controller.NewServer(
				ctx,
				webhookUC,
				store,
				controller.WithAddr(serverCfg.Addr),
				controller.WithWebhookSecret(githubCfg.WebhookSecret),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			// Watch pipeline definition for changes
			watchCtx, stopWatcher := context.WithCancel(ctx)
			defer stopWatcher()
			go watcher.Start(watchCtx)

			// Start server in goroutine
			go func() {
				logger.Info("HTTP server starting",
					slog.String("addr", serverCfg.Addr),
					slog.String("pipeline", pipelineCfg.Path),
				)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
