package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/m-mizutani/ctxlog"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
)

const venvDir = ".drover-venv"

// Executor walks a job through its stage sequence: provision a pinned
// interpreter, install dependencies, then run the test suite with coverage
// upload or the lint gate. Steps run strictly sequentially; the first
// failing step ends the job, except the lint gate which always runs every
// target.
type Executor struct {
	runner   interfaces.CommandRunner
	uploader interfaces.CoverageUploader
}

// NewExecutor creates a job executor. uploader may be nil, in which case
// coverage upload is skipped (one-shot runs without a service token).
func NewExecutor(runner interfaces.CommandRunner, uploader interfaces.CoverageUploader) *Executor {
	return &Executor{
		runner:   runner,
		uploader: uploader,
	}
}

// Execute runs one job to a terminal status. Failures are captured on the
// returned JobRun, never as a panic or error; each job is attempt-once.
func (x *Executor) Execute(ctx context.Context, req *interfaces.JobRequest) *model.JobRun {
	logger := ctxlog.From(ctx)
	spec := req.Spec
	jr := model.NewJobRun(spec)

	logger.Info("job started",
		"job", spec.Name,
		"python", spec.Python,
		"workdir", req.Workdir,
	)

	env := venvEnv(req.Workdir)

	// Provisioning: virtualenv pinned to the requested interpreter
	if err := jr.Transition(model.StatusProvisioning); err != nil {
		jr.Fail(model.StageProvision, err.Error())
		return jr
	}
	provision := fmt.Sprintf("python%s -m venv %s", spec.Python, venvDir)
	if !x.runStep(ctx, jr, model.StageProvision, "provision", provision, req.Workdir, nil) {
		jr.Fail(model.StageProvision, "environment provisioning failed")
		return jr
	}

	// Install stage: a dependency failure aborts before any test or lint
	// command executes
	if err := jr.Transition(model.StatusInstalling); err != nil {
		jr.Fail(model.StageInstall, err.Error())
		return jr
	}
	for i, script := range spec.Install {
		name := fmt.Sprintf("install-%d", i+1)
		if !x.runStep(ctx, jr, model.StageInstall, name, script, req.Workdir, env) {
			jr.Fail(model.StageInstall, "dependency installation failed")
			return jr
		}
	}

	if err := jr.Transition(model.StatusExecuting); err != nil {
		jr.Fail(model.StageExecute, err.Error())
		return jr
	}

	if spec.IsLint() {
		x.runLintGate(ctx, jr, req, env)
	} else {
		x.runTests(ctx, jr, req, env)
	}

	if !jr.Status.IsTerminal() {
		if err := jr.Transition(model.StatusSucceeded); err != nil {
			jr.Fail(model.StageExecute, err.Error())
		}
	}

	logger.Info("job finished",
		"job", spec.Name,
		"status", jr.Status,
		"failed_stage", jr.FailedStage,
	)
	return jr
}

// runTests executes the test command and, only after it has completed
// successfully, uploads the coverage report.
func (x *Executor) runTests(ctx context.Context, jr *model.JobRun, req *interfaces.JobRequest, env []string) {
	logger := ctxlog.From(ctx)
	spec := req.Spec

	if !x.runStep(ctx, jr, model.StageExecute, "test", spec.Test, req.Workdir, env) {
		jr.Fail(model.StageExecute, "test suite failed")
		return
	}

	if spec.Coverage == nil {
		return
	}
	if x.uploader == nil {
		logger.Warn("no coverage uploader configured, skipping upload", "job", spec.Name)
		return
	}

	report := &model.CoverageReport{
		Path:    filepath.Join(req.Workdir, spec.Coverage.Report),
		Commit:  req.Commit,
		Branch:  req.Branch,
		Job:     spec.Name,
		Verbose: spec.Coverage.Verbose,
	}

	err := x.uploadCoverage(ctx, report)
	if err == nil {
		return
	}
	if spec.Coverage.FailCIIfError {
		jr.Fail(model.StageUpload, fmt.Sprintf("coverage upload failed: %v", err))
		return
	}
	logger.Warn("coverage upload failed, ignored by policy",
		"job", spec.Name,
		"error", err,
	)
}

func (x *Executor) uploadCoverage(ctx context.Context, report *model.CoverageReport) error {
	// The report must exist at the declared path; a test run that produced
	// nothing is an upload failure.
	if _, err := os.Stat(report.Path); err != nil {
		return err
	}
	return x.uploader.Upload(ctx, report)
}

// runLintGate lints every target and aggregates. The targets are
// independent gates: all of them run even when an earlier one already
// scored below its threshold.
func (x *Executor) runLintGate(ctx context.Context, jr *model.JobRun, req *interfaces.JobRequest, env []string) {
	logger := ctxlog.From(ctx)

	failed := false
	for _, target := range req.Spec.Lint {
		name := "lint " + target.Path
		script := lintCommand(target)

		started := time.Now()
		result := &interfaces.CommandResult{ExitCode: -1}
		if res, err := x.runner.Run(ctx, interfaces.Command{
			Dir:    req.Workdir,
			Env:    env,
			Script: script,
		}); err != nil {
			logger.Error("lint command could not run", "target", target.Path, "error", err)
			result.Output = err.Error()
		} else {
			result = res
		}
		x.record(jr, model.StageExecute, name, script, started, result)

		lr := model.LintResult{
			Target:    target.Path,
			FailUnder: target.FailUnder,
		}
		score, err := ParseLintScore(result.Output)
		if err != nil {
			logger.Error("lint output had no score", "target", target.Path, "error", err)
		} else {
			lr.Score = score
			lr.Passed = score >= target.FailUnder
		}
		jr.LintResults = append(jr.LintResults, lr)

		if !lr.Passed {
			failed = true
		}
	}

	if failed {
		jr.Fail(model.StageExecute, "lint score below threshold")
	}
}

// runStep executes one command and records the result. Returns true when
// the command ran and exited zero.
func (x *Executor) runStep(ctx context.Context, jr *model.JobRun, stage model.Stage, name, script, dir string, env []string) bool {
	logger := ctxlog.From(ctx)

	started := time.Now()
	res, err := x.runner.Run(ctx, interfaces.Command{
		Dir:    dir,
		Env:    env,
		Script: script,
	})
	if err != nil {
		logger.Error("step command could not run",
			"job", jr.Name,
			"step", name,
			"error", err,
		)
		x.record(jr, stage, name, script, started, &interfaces.CommandResult{ExitCode: -1, Output: err.Error()})
		return false
	}

	x.record(jr, stage, name, script, started, res)
	if res.ExitCode != 0 {
		logger.Warn("step failed",
			"job", jr.Name,
			"step", name,
			"exit_code", res.ExitCode,
		)
		return false
	}
	return true
}

func (x *Executor) record(jr *model.JobRun, stage model.Stage, name, script string, started time.Time, res *interfaces.CommandResult) {
	jr.Steps = append(jr.Steps, model.StepResult{
		Name:       name,
		Stage:      stage,
		Command:    script,
		ExitCode:   res.ExitCode,
		Output:     res.Output,
		StartedAt:  started,
		FinishedAt: time.Now(),
	})
}

// venvEnv puts the job virtualenv first on PATH for install and execute
// stage commands
func venvEnv(workdir string) []string {
	bin := filepath.Join(workdir, venvDir, "bin")
	return []string{
		"VIRTUAL_ENV=" + filepath.Join(workdir, venvDir),
		"PATH=" + bin + string(os.PathListSeparator) + os.Getenv("PATH"),
	}
}
