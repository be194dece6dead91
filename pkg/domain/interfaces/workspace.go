package interfaces

import (
	"context"

	"github.com/m-mizutani/drover/pkg/domain/model"
)

// WorkspaceProvider fetches the source of a triggering commit once per run
type WorkspaceProvider interface {
	Prepare(ctx context.Context, event *model.WebhookEvent) (WorkspaceSource, error)
}

// WorkspaceSource hands out clean, isolated checkouts, one per job
type WorkspaceSource interface {
	Acquire(ctx context.Context) (*model.Workspace, error)
	Close(ctx context.Context)
}

// PipelineProvider exposes the currently active pipeline definition
type PipelineProvider interface {
	Pipeline() *model.Pipeline
}
