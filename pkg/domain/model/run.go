package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// Stage classifies where in a job a step (and thus a failure) happened
type Stage string

const (
	StageProvision Stage = "provision"
	StageInstall   Stage = "install"
	StageExecute   Stage = "execute"
	StageUpload    Stage = "upload"
)

// StepResult records one executed step of a job
type StepResult struct {
	Name       string
	Stage      Stage
	Command    string
	ExitCode   int
	Output     string
	StartedAt  time.Time
	FinishedAt time.Time
}

// LintResult records one lint invocation of the lint gate
type LintResult struct {
	Target    string
	Score     float64
	FailUnder float64
	Passed    bool
}

// JobRun is the execution record of a single job instance
type JobRun struct {
	Name        string
	Python      string
	Status      JobStatus
	Steps       []StepResult
	LintResults []LintResult
	FailedStage Stage
	Error       string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// NewJobRun creates a pending job run for the given spec
func NewJobRun(spec JobSpec) *JobRun {
	return &JobRun{
		Name:      spec.Name,
		Python:    spec.Python,
		Status:    StatusPending,
		StartedAt: time.Now(),
	}
}

// Transition moves the job to the next status, enforcing the lifecycle
func (j *JobRun) Transition(next JobStatus) error {
	if !j.Status.CanTransition(next) {
		return goerr.Wrap(ErrInvalidTransition, "job status transition rejected",
			goerr.V("job", j.Name),
			goerr.V("from", j.Status),
			goerr.V("to", next),
		)
	}
	j.Status = next
	if next.IsTerminal() {
		j.FinishedAt = time.Now()
	}
	return nil
}

// Fail marks the job failed at the given stage with a reason. The
// transition to failed is valid from every non-terminal status.
func (j *JobRun) Fail(stage Stage, reason string) {
	if !j.Status.IsTerminal() {
		j.FailedStage = stage
		j.Error = reason
		j.Status = StatusFailed
		j.FinishedAt = time.Now()
	}
}

// Failed reports whether the job ended in failure
func (j *JobRun) Failed() bool {
	return j.Status == StatusFailed
}

// RunStatus is the aggregate state of a pipeline run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// PipelineRun is the execution record of one triggered pipeline: all matrix
// entries plus the lint gate, each tracked independently.
type PipelineRun struct {
	ID         string
	Pipeline   string
	EventType  WebhookEventType
	Repository string
	Branch     string
	CommitSHA  string
	Status     RunStatus
	Jobs       []*JobRun
	StartedAt  time.Time
	FinishedAt time.Time
}

// Finalize computes the aggregate status: every job must have succeeded.
// Jobs are independently required; a single failed matrix entry fails the
// run even when all others passed.
func (r *PipelineRun) Finalize() {
	r.Status = RunStatusSucceeded
	for _, j := range r.Jobs {
		if j.Status != StatusSucceeded {
			r.Status = RunStatusFailed
			break
		}
	}
	r.FinishedAt = time.Now()
}

// Succeeded reports whether every job of the run passed
func (r *PipelineRun) Succeeded() bool {
	return r.Status == RunStatusSucceeded
}
