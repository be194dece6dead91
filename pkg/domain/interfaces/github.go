package interfaces

import (
	"context"

	"github.com/m-mizutani/drover/pkg/domain/model"
)

// GitHubClient defines operations for interacting with GitHub API
type GitHubClient interface {
	// DownloadZipball downloads the source archive for a specific commit
	DownloadZipball(ctx context.Context, owner, repo, ref string) ([]byte, error)

	// CreateCommitStatus reports a per-job status against a commit
	CreateCommitStatus(ctx context.Context, owner, repo, sha string, status *model.CommitStatus) error

	// CreateComment posts a summary comment on a pull request
	CreateComment(ctx context.Context, owner, repo string, number int, body string) error
}
