package interfaces

import "context"

// Command is one shell command executed as a job step
type Command struct {
	Dir    string   // Working directory
	Env    []string // Extra environment entries appended to os.Environ()
	Script string   // Shell command line, run via sh -c
}

// CommandResult is the outcome of a spawned command. A non-zero exit code
// is reported here, not as an error; errors mean the command could not run.
type CommandResult struct {
	ExitCode int
	Output   string
}

// CommandRunner executes job step commands
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) (*CommandResult, error)
}
