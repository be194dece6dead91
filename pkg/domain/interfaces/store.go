package interfaces

import (
	"context"

	"github.com/m-mizutani/drover/pkg/domain/model"
)

// RunStore persists pipeline run records
type RunStore interface {
	Put(ctx context.Context, run *model.PipelineRun) error
	Get(ctx context.Context, id string) (*model.PipelineRun, error)
	List(ctx context.Context, limit int) ([]*model.PipelineRun, error)
}
