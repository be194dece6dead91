package interfaces

import (
	"context"

	"github.com/m-mizutani/drover/pkg/domain/model"
)

// CoverageUploader transmits a coverage report to the aggregation service
type CoverageUploader interface {
	Upload(ctx context.Context, report *model.CoverageReport) error
}
