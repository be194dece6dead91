package interfaces

import (
	"context"

	"github.com/m-mizutani/drover/pkg/domain/model"
)

// WebhookUseCase defines the interface for webhook event processing
type WebhookUseCase interface {
	// ProcessEvent evaluates trigger rules for a webhook event and, when
	// they match, dispatches a pipeline run
	ProcessEvent(ctx context.Context, event *model.WebhookEvent) error
}

// PipelineUseCase defines operations for executing a pipeline run
type PipelineUseCase interface {
	// RunPipeline executes every job of the pipeline for the event and
	// returns the completed run record
	RunPipeline(ctx context.Context, pipeline *model.Pipeline, event *model.WebhookEvent) (*model.PipelineRun, error)
}

// JobRequest is one job execution order: an expanded spec plus the
// workspace and commit it runs against
type JobRequest struct {
	Workdir string
	Spec    model.JobSpec
	Commit  string
	Branch  string
}

// JobExecutor runs a single expanded job inside its workspace
type JobExecutor interface {
	Execute(ctx context.Context, req *JobRequest) *model.JobRun
}
