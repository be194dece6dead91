package runner_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/runner"
)

// scriptedRunner replies to commands by prefix match and records every
// script it was asked to run
type scriptedRunner struct {
	responses map[string]*interfaces.CommandResult
	executed  []string
}

func (r *scriptedRunner) Run(_ context.Context, cmd interfaces.Command) (*interfaces.CommandResult, error) {
	r.executed = append(r.executed, cmd.Script)
	for prefix, res := range r.responses {
		if strings.HasPrefix(cmd.Script, prefix) {
			return res, nil
		}
	}
	return &interfaces.CommandResult{ExitCode: 0}, nil
}

type mockUploader struct {
	reports []*model.CoverageReport
	err     error
}

func (u *mockUploader) Upload(_ context.Context, report *model.CoverageReport) error {
	u.reports = append(u.reports, report)
	return u.err
}

func matrixSpec() model.JobSpec {
	return model.JobSpec{
		Name:   "test-3.9",
		Python: "3.9",
		Install: []string{
			"pip install --upgrade pip",
			"pip install .",
			"pip install -r requirements-tests.txt",
		},
		Test: "pytest --cov=polyply --cov-report=xml",
		Coverage: &model.Coverage{
			Report:        "coverage.xml",
			FailCIIfError: true,
			Verbose:       true,
		},
	}
}

func lintSpec() model.JobSpec {
	return model.JobSpec{
		Name:    "lint",
		Python:  "3.7",
		Install: []string{"pip install ."},
		Lint: []model.LintTarget{
			{Path: "polyply", FailUnder: 8.0, Disable: []string{"fixme"}},
			{Path: "bin/polyply", FailUnder: 9.5, Disable: []string{"fixme"}},
		},
	}
}

func request(t *testing.T, spec model.JobSpec) *interfaces.JobRequest {
	t.Helper()
	return &interfaces.JobRequest{
		Workdir: t.TempDir(),
		Spec:    spec,
		Commit:  "abc123",
		Branch:  "master",
	}
}

func writeCoverageReport(t *testing.T, workdir string) {
	t.Helper()
	path := filepath.Join(workdir, "coverage.xml")
	gt.NoError(t, os.WriteFile(path, []byte(`<coverage/>`), 0600))
}

func TestExecutor_MatrixJobSuccess(t *testing.T) {
	cmd := &scriptedRunner{}
	up := &mockUploader{}
	x := runner.NewExecutor(cmd, up)

	req := request(t, matrixSpec())
	writeCoverageReport(t, req.Workdir)

	jr := x.Execute(context.Background(), req)

	gt.Equal(t, jr.Status, model.StatusSucceeded)
	gt.Equal(t, jr.Failed(), false)

	// provision + 3 installs + test, in order
	gt.Equal(t, len(cmd.executed), 5)
	gt.True(t, strings.HasPrefix(cmd.executed[0], "python3.9 -m venv"))
	gt.Equal(t, cmd.executed[1], "pip install --upgrade pip")
	gt.Equal(t, cmd.executed[4], "pytest --cov=polyply --cov-report=xml")

	gt.Equal(t, len(up.reports), 1)
	report := up.reports[0]
	gt.Equal(t, report.Commit, "abc123")
	gt.Equal(t, report.Branch, "master")
	gt.Equal(t, report.Job, "test-3.9")
	gt.True(t, report.Verbose)
	gt.Equal(t, filepath.Base(report.Path), "coverage.xml")

	gt.Equal(t, len(jr.Steps), 5)
	for _, step := range jr.Steps {
		gt.Equal(t, step.ExitCode, 0)
		gt.Equal(t, step.FinishedAt.IsZero(), false)
	}
}

func TestExecutor_ProvisionFailure(t *testing.T) {
	cmd := &scriptedRunner{responses: map[string]*interfaces.CommandResult{
		"python3.9 -m venv": {ExitCode: 1, Output: "no such interpreter"},
	}}
	x := runner.NewExecutor(cmd, &mockUploader{})

	jr := x.Execute(context.Background(), request(t, matrixSpec()))

	gt.Equal(t, jr.Status, model.StatusFailed)
	gt.Equal(t, jr.FailedStage, model.StageProvision)
	// nothing after the venv command ran
	gt.Equal(t, len(cmd.executed), 1)
}

func TestExecutor_InstallFailureStopsJob(t *testing.T) {
	cmd := &scriptedRunner{responses: map[string]*interfaces.CommandResult{
		"pip install .": {ExitCode: 1, Output: "build failed"},
	}}
	up := &mockUploader{}
	x := runner.NewExecutor(cmd, up)

	jr := x.Execute(context.Background(), request(t, matrixSpec()))

	gt.Equal(t, jr.Status, model.StatusFailed)
	gt.Equal(t, jr.FailedStage, model.StageInstall)
	gt.Equal(t, jr.Error, "dependency installation failed")

	for _, script := range cmd.executed {
		gt.Equal(t, strings.HasPrefix(script, "pytest"), false)
	}
	gt.Equal(t, len(up.reports), 0)
}

func TestExecutor_TestFailure(t *testing.T) {
	cmd := &scriptedRunner{responses: map[string]*interfaces.CommandResult{
		"pytest": {ExitCode: 1, Output: "2 failed, 40 passed"},
	}}
	up := &mockUploader{}
	x := runner.NewExecutor(cmd, up)

	req := request(t, matrixSpec())
	writeCoverageReport(t, req.Workdir)

	jr := x.Execute(context.Background(), req)

	gt.Equal(t, jr.Status, model.StatusFailed)
	gt.Equal(t, jr.FailedStage, model.StageExecute)
	// no upload after a failed test run
	gt.Equal(t, len(up.reports), 0)
}

func TestExecutor_MissingCoverageReport(t *testing.T) {
	cmd := &scriptedRunner{}
	up := &mockUploader{}
	x := runner.NewExecutor(cmd, up)

	// tests pass but no coverage.xml is produced; fail_ci_if_error makes
	// that a job failure
	jr := x.Execute(context.Background(), request(t, matrixSpec()))

	gt.Equal(t, jr.Status, model.StatusFailed)
	gt.Equal(t, jr.FailedStage, model.StageUpload)
	gt.Equal(t, len(up.reports), 0)
}

func TestExecutor_UploadErrorIgnoredByPolicy(t *testing.T) {
	spec := matrixSpec()
	spec.Coverage.FailCIIfError = false

	cmd := &scriptedRunner{}
	up := &mockUploader{err: context.DeadlineExceeded}
	x := runner.NewExecutor(cmd, up)

	req := request(t, spec)
	writeCoverageReport(t, req.Workdir)

	jr := x.Execute(context.Background(), req)

	gt.Equal(t, jr.Status, model.StatusSucceeded)
	gt.Equal(t, len(up.reports), 1)
}

func TestExecutor_NilUploaderSkipsUpload(t *testing.T) {
	cmd := &scriptedRunner{}
	x := runner.NewExecutor(cmd, nil)

	jr := x.Execute(context.Background(), request(t, matrixSpec()))
	gt.Equal(t, jr.Status, model.StatusSucceeded)
}

func TestExecutor_LintGateAllTargetsRun(t *testing.T) {
	cmd := &scriptedRunner{responses: map[string]*interfaces.CommandResult{
		"pylint --disable=fixme polyply":     {ExitCode: 30, Output: "Your code has been rated at 7.20/10\n"},
		"pylint --disable=fixme bin/polyply": {ExitCode: 0, Output: "Your code has been rated at 9.80/10\n"},
	}}
	x := runner.NewExecutor(cmd, nil)

	jr := x.Execute(context.Background(), request(t, lintSpec()))

	gt.Equal(t, jr.Status, model.StatusFailed)
	gt.Equal(t, jr.FailedStage, model.StageExecute)

	// the failing first target must not stop the second one
	lintRuns := 0
	for _, script := range cmd.executed {
		if strings.HasPrefix(script, "pylint") {
			lintRuns++
		}
	}
	gt.Equal(t, lintRuns, 2)

	gt.Equal(t, len(jr.LintResults), 2)
	gt.Equal(t, jr.LintResults[0].Target, "polyply")
	gt.Equal(t, jr.LintResults[0].Score, 7.2)
	gt.Equal(t, jr.LintResults[0].Passed, false)
	gt.Equal(t, jr.LintResults[1].Target, "bin/polyply")
	gt.Equal(t, jr.LintResults[1].Score, 9.8)
	gt.True(t, jr.LintResults[1].Passed)
}

func TestExecutor_LintGatePass(t *testing.T) {
	cmd := &scriptedRunner{responses: map[string]*interfaces.CommandResult{
		"pylint --disable=fixme polyply":     {ExitCode: 0, Output: "Your code has been rated at 8.73/10\n"},
		"pylint --disable=fixme bin/polyply": {ExitCode: 0, Output: "Your code has been rated at 9.80/10\n"},
	}}
	x := runner.NewExecutor(cmd, nil)

	jr := x.Execute(context.Background(), request(t, lintSpec()))

	gt.Equal(t, jr.Status, model.StatusSucceeded)
	gt.Equal(t, len(jr.LintResults), 2)
	for _, lr := range jr.LintResults {
		gt.True(t, lr.Passed)
	}
}

func TestExecutor_LintGateScoreExactThreshold(t *testing.T) {
	cmd := &scriptedRunner{responses: map[string]*interfaces.CommandResult{
		"pylint --disable=fixme polyply":     {ExitCode: 0, Output: "Your code has been rated at 8.00/10\n"},
		"pylint --disable=fixme bin/polyply": {ExitCode: 0, Output: "Your code has been rated at 9.50/10\n"},
	}}
	x := runner.NewExecutor(cmd, nil)

	jr := x.Execute(context.Background(), request(t, lintSpec()))

	// scores equal to the threshold pass
	gt.Equal(t, jr.Status, model.StatusSucceeded)
}
