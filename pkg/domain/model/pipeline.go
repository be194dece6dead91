package model

// Pipeline is a declarative CI pipeline definition loaded from YAML. It
// carries the trigger rules, a versioned test matrix and a lint gate.
type Pipeline struct {
	Name   string    `yaml:"name"`
	On     Trigger   `yaml:"on"`
	Matrix MatrixJob `yaml:"matrix"`
	Lint   LintJob   `yaml:"lint"`
}

// Trigger declares which events start a run
type Trigger struct {
	Events   []string `yaml:"events"`
	Branches []string `yaml:"branches"`
}

// Matches reports whether an event of the given type targeting the given
// branch should start a run. Both the event type and the branch must be in
// the configured sets; a miss on either is a silent no-op, not an error.
func (t Trigger) Matches(eventType WebhookEventType, branch string) bool {
	event := false
	for _, e := range t.Events {
		if e == string(eventType) {
			event = true
			break
		}
	}
	if !event {
		return false
	}
	for _, b := range t.Branches {
		if b == branch {
			return true
		}
	}
	return false
}

// MatrixJob declares one job template instantiated once per Python version
type MatrixJob struct {
	Name     string   `yaml:"name"`
	Python   []string `yaml:"python"`
	Install  []string `yaml:"install"`
	Test     string   `yaml:"test"`
	Coverage Coverage `yaml:"coverage"`
}

// Coverage declares the report produced by the test command and the upload
// policy applied to it
type Coverage struct {
	Report        string `yaml:"report"`
	FailCIIfError bool   `yaml:"fail_ci_if_error"`
	Verbose       bool   `yaml:"verbose"`
}

// LintJob declares the lint gate: a single pinned environment running the
// lint tool once per target
type LintJob struct {
	Name    string       `yaml:"name"`
	Python  string       `yaml:"python"`
	Install []string     `yaml:"install"`
	Targets []LintTarget `yaml:"targets"`
}

// LintTarget is one lint invocation with its own minimum score
type LintTarget struct {
	Path      string   `yaml:"path"`
	FailUnder float64  `yaml:"fail_under"`
	Disable   []string `yaml:"disable"`
}

// JobSpec is a fully expanded job instance: one per matrix entry plus one
// for the lint gate. Exactly one of Test/Lint is set.
type JobSpec struct {
	Name     string
	Python   string
	Install  []string
	Test     string
	Coverage *Coverage
	Lint     []LintTarget
}

// IsLint reports whether this spec is the lint gate job
func (s JobSpec) IsLint() bool {
	return len(s.Lint) > 0
}
