package usecase

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
)

type localProvider struct {
	dir string
}

// NewLocalProvider creates a WorkspaceProvider backed by a directory on
// disk instead of a GitHub checkout. Used by one-shot runs; every job still
// gets its own copy of the tree.
func NewLocalProvider(dir string) interfaces.WorkspaceProvider {
	return &localProvider{dir: dir}
}

func (p *localProvider) Prepare(ctx context.Context, event *model.WebhookEvent) (interfaces.WorkspaceSource, error) {
	info, err := os.Stat(p.dir)
	if err != nil {
		return nil, goerr.Wrap(err, "source directory not accessible", goerr.V("dir", p.dir))
	}
	if !info.IsDir() {
		return nil, goerr.New("source path is not a directory", goerr.V("dir", p.dir))
	}
	return &localSource{dir: p.dir}, nil
}

type localSource struct {
	dir string
}

func (s *localSource) Acquire(ctx context.Context) (*model.Workspace, error) {
	tempDir, err := os.MkdirTemp("", "drover-ws-*")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create temporary directory")
	}

	var files []string
	var size int64

	err = filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(tempDir, rel)

		if d.IsDir() {
			return os.MkdirAll(dest, 0755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		n, err := copyFile(path, dest)
		if err != nil {
			return err
		}
		files = append(files, rel)
		size += n
		return nil
	})
	if err != nil {
		_ = os.RemoveAll(tempDir)
		return nil, goerr.Wrap(err, "failed to copy source tree", goerr.V("dir", s.dir))
	}

	return &model.Workspace{
		TempDir: tempDir,
		Root:    tempDir,
		Files:   files,
		Size:    size,
	}, nil
}

func (s *localSource) Close(ctx context.Context) {}

func copyFile(src, dest string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, err
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return 0, err
	}
	defer out.Close()

	return io.Copy(out, in)
}
