package pipeline

import "github.com/m-mizutani/drover/pkg/domain/model"

// Expand instantiates the pipeline into independent job specs: exactly one
// per matrix axis entry, in declaration order, plus the lint gate when it
// declares any target. Entries share nothing; the scheduler may run them in
// any order.
func Expand(p *model.Pipeline) []model.JobSpec {
	specs := make([]model.JobSpec, 0, len(p.Matrix.Python)+1)

	for _, version := range p.Matrix.Python {
		cov := p.Matrix.Coverage
		specs = append(specs, model.JobSpec{
			Name:     p.Matrix.Name + "-" + version,
			Python:   version,
			Install:  p.Matrix.Install,
			Test:     p.Matrix.Test,
			Coverage: &cov,
		})
	}

	if len(p.Lint.Targets) > 0 {
		specs = append(specs, model.JobSpec{
			Name:    p.Lint.Name,
			Python:  p.Lint.Python,
			Install: p.Lint.Install,
			Lint:    p.Lint.Targets,
		})
	}

	return specs
}
