package interfaces

import (
	"context"

	"github.com/m-mizutani/drover/pkg/domain/model"
)

// Notifier announces completed pipeline runs
type Notifier interface {
	NotifyRun(ctx context.Context, run *model.PipelineRun) error
}
