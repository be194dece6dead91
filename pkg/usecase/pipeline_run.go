package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/semaphore"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
	"github.com/m-mizutani/drover/pkg/pipeline"
)

// DefaultMaxParallel bounds how many jobs of one run execute concurrently
const DefaultMaxParallel = 4

type pipelineRunUseCase struct {
	workspaces  interfaces.WorkspaceProvider
	executor    interfaces.JobExecutor
	store       interfaces.RunStore
	github      interfaces.GitHubClient
	notifier    interfaces.Notifier
	artifacts   interfaces.ArtifactStore
	maxParallel int64
}

// RunOption is a functional option for the pipeline run use case
type RunOption func(*pipelineRunUseCase)

// WithGitHub enables per-job commit statuses and PR summary comments
func WithGitHub(client interfaces.GitHubClient) RunOption {
	return func(uc *pipelineRunUseCase) {
		uc.github = client
	}
}

// WithNotifier enables run result notification
func WithNotifier(n interfaces.Notifier) RunOption {
	return func(uc *pipelineRunUseCase) {
		uc.notifier = n
	}
}

// WithArtifactStore enables archiving of coverage reports and step logs
func WithArtifactStore(s interfaces.ArtifactStore) RunOption {
	return func(uc *pipelineRunUseCase) {
		uc.artifacts = s
	}
}

// WithMaxParallel caps concurrent job executions of one run
func WithMaxParallel(n int64) RunOption {
	return func(uc *pipelineRunUseCase) {
		if n > 0 {
			uc.maxParallel = n
		}
	}
}

// NewPipelineRun creates a new instance of PipelineUseCase
func NewPipelineRun(
	workspaces interfaces.WorkspaceProvider,
	executor interfaces.JobExecutor,
	store interfaces.RunStore,
	opts ...RunOption,
) interfaces.PipelineUseCase {
	uc := &pipelineRunUseCase{
		workspaces:  workspaces,
		executor:    executor,
		store:       store,
		maxParallel: DefaultMaxParallel,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// RunPipeline expands the pipeline into job specs and executes them on a
// bounded pool. Jobs are isolated: each gets its own checkout, and one
// job's failure neither cancels nor influences the others. The returned
// run is terminal; its status is the AND of all job results.
func (uc *pipelineRunUseCase) RunPipeline(ctx context.Context, p *model.Pipeline, event *model.WebhookEvent) (*model.PipelineRun, error) {
	logger := ctxlog.From(ctx)

	run := &model.PipelineRun{
		ID:         uuid.NewString(),
		Pipeline:   p.Name,
		EventType:  event.Type,
		Repository: event.Repository,
		Branch:     event.Branch,
		CommitSHA:  event.CommitSHA,
		Status:     model.RunStatusRunning,
		StartedAt:  time.Now(),
	}

	specs := pipeline.Expand(p)
	logger.Info("pipeline run started",
		"run_id", run.ID,
		"pipeline", p.Name,
		"repository", event.Repository,
		"branch", event.Branch,
		"commit", event.CommitSHA,
		"jobs", len(specs),
	)

	source, err := uc.workspaces.Prepare(ctx, event)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to prepare source", goerr.V("run_id", run.ID))
	}
	defer source.Close(ctx)

	for _, spec := range specs {
		uc.reportStatus(ctx, event, spec.Name, &model.CommitStatus{
			State:       model.CommitStatePending,
			Description: "queued",
		})
	}

	sem := semaphore.NewWeighted(uc.maxParallel)
	jobs := make([]*model.JobRun, len(specs))
	var wg sync.WaitGroup

	for i, spec := range specs {
		wg.Add(1)
		go func(i int, spec model.JobSpec) {
			defer wg.Done()
			jobs[i] = uc.runJob(ctx, sem, source, run.ID, spec, event)
			uc.reportJobResult(ctx, event, jobs[i])
		}(i, spec)
	}
	wg.Wait()

	run.Jobs = jobs
	run.Finalize()

	logger.Info("pipeline run finished",
		"run_id", run.ID,
		"status", run.Status,
	)

	if err := uc.store.Put(ctx, run); err != nil {
		logger.Error("failed to persist run record", "run_id", run.ID, "error", err)
	}
	uc.notify(ctx, event, run)

	return run, nil
}

// runJob acquires a pool slot and a clean workspace, then executes the job.
// Scheduling or checkout problems become a failed job, never an aborted
// run: the sibling jobs keep going.
func (uc *pipelineRunUseCase) runJob(
	ctx context.Context,
	sem *semaphore.Weighted,
	source interfaces.WorkspaceSource,
	runID string,
	spec model.JobSpec,
	event *model.WebhookEvent,
) *model.JobRun {
	if err := sem.Acquire(ctx, 1); err != nil {
		jr := model.NewJobRun(spec)
		jr.Fail(model.StageProvision, fmt.Sprintf("scheduling aborted: %v", err))
		return jr
	}
	defer sem.Release(1)

	ws, err := source.Acquire(ctx)
	if err != nil {
		jr := model.NewJobRun(spec)
		jr.Fail(model.StageProvision, fmt.Sprintf("checkout failed: %v", err))
		return jr
	}
	defer ReleaseWorkspace(ctx, ws)

	jr := uc.executor.Execute(ctx, &interfaces.JobRequest{
		Workdir: ws.Root,
		Spec:    spec,
		Commit:  event.CommitSHA,
		Branch:  event.Branch,
	})

	uc.archive(ctx, runID, spec, ws, jr)
	return jr
}

// archive copies the coverage report and concatenated step logs to the
// artifact store when one is configured
func (uc *pipelineRunUseCase) archive(ctx context.Context, runID string, spec model.JobSpec, ws *model.Workspace, jr *model.JobRun) {
	if uc.artifacts == nil {
		return
	}
	logger := ctxlog.From(ctx)

	if spec.Coverage != nil {
		path := filepath.Join(ws.Root, spec.Coverage.Report)
		if data, err := os.ReadFile(path); err == nil {
			key := fmt.Sprintf("%s/%s/%s", runID, spec.Name, spec.Coverage.Report)
			if err := uc.artifacts.Put(ctx, key, data); err != nil {
				logger.Warn("failed to archive coverage report", "key", key, "error", err)
			}
		}
	}

	var sb strings.Builder
	for _, step := range jr.Steps {
		fmt.Fprintf(&sb, "=== %s (exit %d)\n$ %s\n%s\n", step.Name, step.ExitCode, step.Command, step.Output)
	}
	key := fmt.Sprintf("%s/%s/steps.log", runID, spec.Name)
	if err := uc.artifacts.Put(ctx, key, []byte(sb.String())); err != nil {
		logger.Warn("failed to archive step logs", "key", key, "error", err)
	}
}

func (uc *pipelineRunUseCase) reportJobResult(ctx context.Context, event *model.WebhookEvent, jr *model.JobRun) {
	status := &model.CommitStatus{
		State:       model.CommitStateSuccess,
		Description: "all steps passed",
	}
	if jr.Failed() {
		status.State = model.CommitStateFailure
		status.Description = fmt.Sprintf("failed at %s stage", jr.FailedStage)
	}
	uc.reportStatus(ctx, event, jr.Name, status)
}

// reportStatus posts one commit status per job so that matrix entries and
// the lint gate appear as independent checks
func (uc *pipelineRunUseCase) reportStatus(ctx context.Context, event *model.WebhookEvent, job string, status *model.CommitStatus) {
	if uc.github == nil {
		return
	}
	status.Context = types.DefaultStatusContext + "/" + job

	if err := uc.github.CreateCommitStatus(ctx, event.Owner, event.Repo, event.CommitSHA, status); err != nil {
		ctxlog.From(ctx).Error("failed to create commit status",
			"job", job,
			"commit", event.CommitSHA,
			"error", err,
		)
	}
}

func (uc *pipelineRunUseCase) notify(ctx context.Context, event *model.WebhookEvent, run *model.PipelineRun) {
	logger := ctxlog.From(ctx)

	if uc.notifier != nil {
		if err := uc.notifier.NotifyRun(ctx, run); err != nil {
			logger.Warn("failed to send run notification", "run_id", run.ID, "error", err)
		}
	}

	if uc.github != nil && event.Type == model.EventTypePullRequest && event.PRNumber > 0 {
		body := formatRunSummary(run)
		if err := uc.github.CreateComment(ctx, event.Owner, event.Repo, event.PRNumber, body); err != nil {
			logger.Warn("failed to post run summary comment", "run_id", run.ID, "error", err)
		}
	}
}

// formatRunSummary formats the run result as a markdown comment
func formatRunSummary(run *model.PipelineRun) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## Pipeline `%s`: %s\n\n", run.Pipeline, run.Status))
	sb.WriteString(fmt.Sprintf("Commit `%s` on `%s`\n\n", run.CommitSHA, run.Branch))

	for _, jr := range run.Jobs {
		mark := "PASS"
		detail := ""
		if jr.Failed() {
			mark = "FAIL"
			detail = fmt.Sprintf(" (%s stage: %s)", jr.FailedStage, jr.Error)
		}
		sb.WriteString(fmt.Sprintf("- **%s** %s%s\n", mark, jr.Name, detail))
		for _, lr := range jr.LintResults {
			sb.WriteString(fmt.Sprintf("  - `%s` scored %.2f (minimum %.1f)\n", lr.Target, lr.Score, lr.FailUnder))
		}
	}

	return sb.String()
}
