package model

import (
	"strings"
	"time"

	"github.com/google/go-github/v75/github"
)

// WebhookEventType represents the type of webhook event received
type WebhookEventType string

const (
	EventTypePush        WebhookEventType = "push"
	EventTypePullRequest WebhookEventType = "pull_request"
	EventTypeUnknown     WebhookEventType = "unknown"
)

// WebhookEvent represents a webhook event received from GitHub
type WebhookEvent struct {
	ID         string           // Retrieved from X-GitHub-Delivery header
	Type       WebhookEventType // Retrieved from X-GitHub-Event header
	Action     string           // Event action (pull_request only, e.g. opened)
	Repository string           // Repository full name (owner/repo)
	Owner      string           // Repository owner
	Repo       string           // Repository name
	Branch     string           // Target branch of the event
	CommitSHA  string           // Commit to check out and report status against
	PRNumber   int              // Pull request number (pull_request only)
	Sender     string           // Sender username
	ReceivedAt time.Time        // Time when the event was received
	RawPayload []byte           // Raw JSON payload
}

// triggerable pull_request actions; other actions (labeled, closed, ...)
// do not start a run
var triggerablePRActions = map[string]bool{
	"opened":      true,
	"synchronize": true,
	"reopened":    true,
}

// IsTriggerable checks whether the event kind can start a pipeline run at
// all, independent of any branch allowlist.
func (e *WebhookEvent) IsTriggerable() bool {
	switch e.Type {
	case EventTypePush:
		return true
	case EventTypePullRequest:
		return triggerablePRActions[e.Action]
	default:
		return false
	}
}

// FromPushEvent fills event fields from a GitHub push event payload
func (e *WebhookEvent) FromPushEvent(ev *github.PushEvent) {
	e.Type = EventTypePush
	if repo := ev.GetRepo(); repo != nil {
		e.Repository = repo.GetFullName()
		e.Owner = repo.GetOwner().GetLogin()
		e.Repo = repo.GetName()
	}
	e.Branch = strings.TrimPrefix(ev.GetRef(), "refs/heads/")
	e.CommitSHA = ev.GetAfter()
	e.Sender = ev.GetSender().GetLogin()
}

// FromPullRequestEvent fills event fields from a GitHub pull_request event
// payload. The branch is the PR base branch, matching how branch filters
// apply to pull_request triggers.
func (e *WebhookEvent) FromPullRequestEvent(ev *github.PullRequestEvent) {
	e.Type = EventTypePullRequest
	e.Action = ev.GetAction()
	if repo := ev.GetRepo(); repo != nil {
		e.Repository = repo.GetFullName()
		e.Owner = repo.GetOwner().GetLogin()
		e.Repo = repo.GetName()
	}
	if pr := ev.GetPullRequest(); pr != nil {
		e.Branch = pr.GetBase().GetRef()
		e.CommitSHA = pr.GetHead().GetSHA()
		e.PRNumber = pr.GetNumber()
	}
	e.Sender = ev.GetSender().GetLogin()
}
