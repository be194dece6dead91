package model

import "github.com/m-mizutani/goerr/v2"

// JobStatus is the lifecycle state of a job run
type JobStatus string

const (
	StatusPending      JobStatus = "pending"
	StatusProvisioning JobStatus = "provisioning"
	StatusInstalling   JobStatus = "installing"
	StatusExecuting    JobStatus = "executing"
	StatusSucceeded    JobStatus = "succeeded"
	StatusFailed       JobStatus = "failed"
)

// ErrInvalidTransition is returned when a status change violates the job
// lifecycle: pending → provisioning → installing → executing → terminal.
var ErrInvalidTransition = goerr.New("invalid job status transition")

var terminalStatuses = map[JobStatus]bool{
	StatusSucceeded: true,
	StatusFailed:    true,
}

// Every stage may fail; success only moves one stage forward.
var validTransitions = map[JobStatus]map[JobStatus]bool{
	StatusPending: {
		StatusProvisioning: true,
		StatusFailed:       true,
	},
	StatusProvisioning: {
		StatusInstalling: true,
		StatusFailed:     true,
	},
	StatusInstalling: {
		StatusExecuting: true,
		StatusFailed:    true,
	},
	StatusExecuting: {
		StatusSucceeded: true,
		StatusFailed:    true,
	},
}

// IsTerminal reports whether the status is final
func (s JobStatus) IsTerminal() bool {
	return terminalStatuses[s]
}

// CanTransition reports whether s may move to next
func (s JobStatus) CanTransition(next JobStatus) bool {
	return validTransitions[s][next]
}
