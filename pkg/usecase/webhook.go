package usecase

import (
	"context"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/utils/async"
)

type webhookUseCase struct {
	pipelines interfaces.PipelineProvider
	runUC     interfaces.PipelineUseCase

	// dispatch detaches pipeline execution from the webhook request; a
	// run takes minutes and GitHub expects the delivery acknowledged fast.
	// Replaced in tests to run synchronously.
	dispatch func(ctx context.Context, handler func(ctx context.Context) error)
}

// WebhookOption is a functional option for the webhook use case
type WebhookOption func(*webhookUseCase)

// WithDispatcher replaces the async dispatcher, making runs synchronous
func WithDispatcher(fn func(ctx context.Context, handler func(ctx context.Context) error)) WebhookOption {
	return func(uc *webhookUseCase) {
		uc.dispatch = fn
	}
}

// NewWebhook creates a new instance of WebhookUseCase
func NewWebhook(pipelines interfaces.PipelineProvider, runUC interfaces.PipelineUseCase, opts ...WebhookOption) interfaces.WebhookUseCase {
	uc := &webhookUseCase{
		pipelines: pipelines,
		runUC:     runUC,
		dispatch:  async.Dispatch,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// ProcessEvent gates a webhook event on the pipeline's trigger rules and
// dispatches a run when they match. A non-matching event is acknowledged
// and dropped: no run, no status, no error.
func (uc *webhookUseCase) ProcessEvent(ctx context.Context, event *model.WebhookEvent) error {
	logger := ctxlog.From(ctx)

	logger.Info("processing webhook event",
		"id", event.ID,
		"type", event.Type,
		"action", event.Action,
		"repository", event.Repository,
		"branch", event.Branch,
		"commit", event.CommitSHA,
		"sender", event.Sender,
	)

	if !event.IsTriggerable() {
		logger.Info("event kind cannot trigger a run, skipping",
			"type", event.Type,
			"action", event.Action,
		)
		return nil
	}

	p := uc.pipelines.Pipeline()
	if !p.On.Matches(event.Type, event.Branch) {
		logger.Info("event did not match trigger rules, skipping",
			"pipeline", p.Name,
			"type", event.Type,
			"branch", event.Branch,
		)
		return nil
	}

	uc.dispatch(ctx, func(ctx context.Context) error {
		run, err := uc.runUC.RunPipeline(ctx, p, event)
		if err != nil {
			sentry.CaptureException(err)
			return goerr.Wrap(err, "pipeline run aborted",
				goerr.V("repository", event.Repository),
				goerr.V("commit", event.CommitSHA),
			)
		}
		if !run.Succeeded() {
			ctxlog.From(ctx).Warn("pipeline run failed",
				"run_id", run.ID,
				"repository", event.Repository,
				"commit", event.CommitSHA,
			)
		}
		return nil
	})

	return nil
}
