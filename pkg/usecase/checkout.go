package usecase

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
)

type zipballProvider struct {
	githubClient interfaces.GitHubClient
}

// NewZipballProvider creates a WorkspaceProvider that downloads the GitHub
// zipball of the triggering commit once and extracts a fresh copy of it for
// every job.
func NewZipballProvider(githubClient interfaces.GitHubClient) interfaces.WorkspaceProvider {
	return &zipballProvider{githubClient: githubClient}
}

func (p *zipballProvider) Prepare(ctx context.Context, event *model.WebhookEvent) (interfaces.WorkspaceSource, error) {
	logger := ctxlog.From(ctx)

	zipData, err := p.githubClient.DownloadZipball(ctx, event.Owner, event.Repo, event.CommitSHA)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to download zipball",
			goerr.V("repository", event.Repository),
			goerr.V("commit", event.CommitSHA),
		)
	}

	logger.Info("downloaded source zipball",
		"repository", event.Repository,
		"commit", event.CommitSHA,
		"size_bytes", len(zipData),
	)

	return &zipballSource{zipData: zipData}, nil
}

type zipballSource struct {
	zipData []byte
}

// Acquire extracts the archive into a new temporary directory. Each caller
// gets its own tree; nothing is shared between jobs.
func (s *zipballSource) Acquire(ctx context.Context) (*model.Workspace, error) {
	ws, err := extractZip(s.zipData)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to extract zipball")
	}

	ctxlog.From(ctx).Debug("workspace materialized",
		"temp_dir", ws.TempDir,
		"root", ws.Root,
		"file_count", len(ws.Files),
	)
	return ws, nil
}

func (s *zipballSource) Close(ctx context.Context) {}

// ReleaseWorkspace removes a materialized checkout, logging rather than
// failing on cleanup problems.
func ReleaseWorkspace(ctx context.Context, ws *model.Workspace) {
	if ws == nil || ws.TempDir == "" {
		return
	}
	if err := os.RemoveAll(ws.TempDir); err != nil {
		ctxlog.From(ctx).Warn("failed to clean up workspace",
			"temp_dir", ws.TempDir,
			"error", err,
		)
	}
}

// extractZip extracts ZIP data to a temporary directory
func extractZip(zipData []byte) (*model.Workspace, error) {
	tempDir, err := os.MkdirTemp("", "drover-ws-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary directory: %w", err)
	}

	if err := os.Chmod(tempDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to set directory permissions for %s: %w", tempDir, err)
	}

	zipReader, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil {
		return nil, fmt.Errorf("failed to create zip reader: %w", err)
	}

	var extractedFiles []string
	var totalSize int64

	for _, file := range zipReader.File {
		if err := extractFile(file, tempDir); err != nil {
			return nil, fmt.Errorf("failed to extract file %s: %w", file.Name, err)
		}
		extractedFiles = append(extractedFiles, file.Name)
		totalSize += int64(file.UncompressedSize64)
	}

	return &model.Workspace{
		TempDir: tempDir,
		Root:    detectRoot(tempDir),
		Files:   extractedFiles,
		Size:    totalSize,
	}, nil
}

// detectRoot resolves the source tree root. GitHub zipballs wrap the tree
// in a single "<owner>-<repo>-<sha>/" directory.
func detectRoot(tempDir string) string {
	entries, err := os.ReadDir(tempDir)
	if err != nil || len(entries) != 1 || !entries[0].IsDir() {
		return tempDir
	}
	return filepath.Join(tempDir, entries[0].Name())
}

// extractFile extracts a single file from ZIP to the destination directory
func extractFile(file *zip.File, destDir string) error {
	// Security check: prevent path traversal attacks
	destPath := filepath.Join(destDir, file.Name)
	if !strings.HasPrefix(destPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return fmt.Errorf("invalid file path detected: file=%s, dest=%s", file.Name, destPath)
	}

	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file %s in zip: %w", file.Name, err)
	}
	defer rc.Close()

	if file.FileInfo().IsDir() {
		return os.MkdirAll(destPath, file.FileInfo().Mode())
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create parent directories %s: %w", filepath.Dir(destPath), err)
	}

	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.FileInfo().Mode())
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", destPath, err)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, rc); err != nil {
		return fmt.Errorf("failed to copy file content to %s: %w", destPath, err)
	}

	return nil
}
