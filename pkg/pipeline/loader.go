package pipeline

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"

	"github.com/m-mizutani/drover/pkg/domain/model"
)

// DefaultCoverageReport is the report path assumed when the pipeline file
// does not name one.
const DefaultCoverageReport = "coverage.xml"

var knownEvents = map[string]bool{
	string(model.EventTypePush):        true,
	string(model.EventTypePullRequest): true,
}

// Load reads, parses and validates a pipeline definition file
func Load(path string) (*model.Pipeline, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read pipeline file", goerr.V("path", path))
	}
	return Parse(raw)
}

// Parse parses and validates a pipeline definition from raw YAML
func Parse(raw []byte) (*model.Pipeline, error) {
	var p model.Pipeline
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, goerr.Wrap(err, "failed to parse pipeline yaml")
	}

	applyDefaults(&p)
	if err := validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func applyDefaults(p *model.Pipeline) {
	if p.Matrix.Name == "" {
		p.Matrix.Name = "test"
	}
	if p.Matrix.Coverage.Report == "" {
		p.Matrix.Coverage.Report = DefaultCoverageReport
	}
	if p.Lint.Name == "" {
		p.Lint.Name = "lint"
	}
	if p.Lint.Python == "" && len(p.Matrix.Python) > 0 {
		// lint runs on the lowest declared interpreter
		p.Lint.Python = p.Matrix.Python[0]
	}
	if len(p.Lint.Install) == 0 {
		p.Lint.Install = p.Matrix.Install
	}
}

func validate(p *model.Pipeline) error {
	if p.Name == "" {
		return goerr.New("pipeline name is required")
	}
	if len(p.On.Events) == 0 {
		return goerr.New("at least one trigger event is required")
	}
	for _, e := range p.On.Events {
		if !knownEvents[e] {
			return goerr.New("unknown trigger event", goerr.V("event", e))
		}
	}
	if len(p.On.Branches) == 0 {
		return goerr.New("at least one trigger branch is required")
	}
	if len(p.Matrix.Python) == 0 {
		return goerr.New("matrix requires at least one python version")
	}
	if p.Matrix.Test == "" {
		return goerr.New("matrix test command is required")
	}
	if len(p.Matrix.Install) == 0 {
		return goerr.New("matrix install commands are required")
	}
	for i, t := range p.Lint.Targets {
		if t.Path == "" {
			return goerr.New("lint target path is required", goerr.V("index", i))
		}
		if t.FailUnder < 0 || t.FailUnder > 10 {
			return goerr.New("lint fail_under must be within 0-10",
				goerr.V("target", t.Path),
				goerr.V("fail_under", t.FailUnder),
			)
		}
	}
	return nil
}
