package runner

import (
	"context"
	"errors"
	"os"
	"os/exec"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
)

type execRunner struct{}

// NewCommandRunner returns a CommandRunner that executes step scripts via
// sh -c in the job workspace
func NewCommandRunner() interfaces.CommandRunner {
	return &execRunner{}
}

func (r *execRunner) Run(ctx context.Context, cmd interfaces.Command) (*interfaces.CommandResult, error) {
	c := exec.CommandContext(ctx, "sh", "-c", cmd.Script)
	c.Dir = cmd.Dir
	c.Env = append(os.Environ(), cmd.Env...)

	out, err := c.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// A non-zero exit is a step result, not a runner error
			return &interfaces.CommandResult{
				ExitCode: exitErr.ExitCode(),
				Output:   string(out),
			}, nil
		}
		return nil, goerr.Wrap(err, "failed to spawn step command",
			goerr.V("script", cmd.Script),
			goerr.V("dir", cmd.Dir),
		)
	}

	return &interfaces.CommandResult{ExitCode: 0, Output: string(out)}, nil
}
