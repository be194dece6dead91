package model

// CommitStatusState is the GitHub commit status state
type CommitStatusState string

const (
	CommitStatePending CommitStatusState = "pending"
	CommitStateSuccess CommitStatusState = "success"
	CommitStateFailure CommitStatusState = "failure"
	CommitStateError   CommitStatusState = "error"
)

// CommitStatus is one status reported against a commit, one per job so that
// matrix entries and the lint gate surface independently on the PR.
type CommitStatus struct {
	Context     string
	State       CommitStatusState
	Description string
	TargetURL   string
}
