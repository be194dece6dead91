package model_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-github/v75/github"

	"github.com/m-mizutani/drover/pkg/domain/model"
)

func TestWebhookEvent_IsTriggerable(t *testing.T) {
	tests := []struct {
		name     string
		event    *model.WebhookEvent
		expected bool
	}{
		{
			name: "Push event - triggerable",
			event: &model.WebhookEvent{
				Type: model.EventTypePush,
			},
			expected: true,
		},
		{
			name: "Pull Request opened - triggerable",
			event: &model.WebhookEvent{
				Type:   model.EventTypePullRequest,
				Action: "opened",
			},
			expected: true,
		},
		{
			name: "Pull Request synchronize - triggerable",
			event: &model.WebhookEvent{
				Type:   model.EventTypePullRequest,
				Action: "synchronize",
			},
			expected: true,
		},
		{
			name: "Pull Request closed - not triggerable",
			event: &model.WebhookEvent{
				Type:   model.EventTypePullRequest,
				Action: "closed",
			},
			expected: false,
		},
		{
			name: "Unknown event type",
			event: &model.WebhookEvent{
				Type: model.EventTypeUnknown,
			},
			expected: false,
		},
		{
			name: "Different event type",
			event: &model.WebhookEvent{
				Type: model.WebhookEventType("issues"),
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.event.IsTriggerable()
			if got != tt.expected {
				t.Errorf("IsTriggerable() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTrigger_Matches(t *testing.T) {
	trigger := model.Trigger{
		Events:   []string{"push", "pull_request"},
		Branches: []string{"master", "develop"},
	}

	tests := []struct {
		name      string
		eventType model.WebhookEventType
		branch    string
		expected  bool
	}{
		{"push to master", model.EventTypePush, "master", true},
		{"push to develop", model.EventTypePush, "develop", true},
		{"pull request to master", model.EventTypePullRequest, "master", true},
		{"push to feature branch", model.EventTypePush, "feature/x", false},
		{"push to branch with allowlisted prefix", model.EventTypePush, "master-backup", false},
		{"unknown event to master", model.EventTypeUnknown, "master", false},
		{"push to empty branch", model.EventTypePush, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := trigger.Matches(tt.eventType, tt.branch)
			if got != tt.expected {
				t.Errorf("Matches(%v, %q) = %v, want %v", tt.eventType, tt.branch, got, tt.expected)
			}
		})
	}
}

func TestWebhookEvent_FromPushEvent(t *testing.T) {
	payload := map[string]any{
		"ref":   "refs/heads/develop",
		"after": "abc123def456",
		"repository": map[string]any{
			"full_name": "marrink-lab/polyply_1.0",
			"name":      "polyply_1.0",
			"owner":     map[string]any{"login": "marrink-lab"},
		},
		"sender": map[string]any{"login": "someuser"},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	var pushEvent github.PushEvent
	if err := json.Unmarshal(raw, &pushEvent); err != nil {
		t.Fatalf("failed to unmarshal push event: %v", err)
	}

	var event model.WebhookEvent
	event.FromPushEvent(&pushEvent)

	if event.Type != model.EventTypePush {
		t.Errorf("Type = %v, want push", event.Type)
	}
	if event.Branch != "develop" {
		t.Errorf("Branch = %v, want develop", event.Branch)
	}
	if event.CommitSHA != "abc123def456" {
		t.Errorf("CommitSHA = %v, want abc123def456", event.CommitSHA)
	}
	if event.Owner != "marrink-lab" || event.Repo != "polyply_1.0" {
		t.Errorf("Owner/Repo = %v/%v, want marrink-lab/polyply_1.0", event.Owner, event.Repo)
	}
}

func TestWebhookEvent_FromPullRequestEvent(t *testing.T) {
	payload := map[string]any{
		"action": "opened",
		"number": 42,
		"pull_request": map[string]any{
			"number": 42,
			"base":   map[string]any{"ref": "master"},
			"head":   map[string]any{"sha": "fedcba987654"},
		},
		"repository": map[string]any{
			"full_name": "marrink-lab/polyply_1.0",
			"name":      "polyply_1.0",
			"owner":     map[string]any{"login": "marrink-lab"},
		},
		"sender": map[string]any{"login": "someuser"},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	var prEvent github.PullRequestEvent
	if err := json.Unmarshal(raw, &prEvent); err != nil {
		t.Fatalf("failed to unmarshal pull request event: %v", err)
	}

	var event model.WebhookEvent
	event.FromPullRequestEvent(&prEvent)

	if event.Type != model.EventTypePullRequest {
		t.Errorf("Type = %v, want pull_request", event.Type)
	}
	if event.Branch != "master" {
		t.Errorf("Branch = %v, want master (PR base)", event.Branch)
	}
	if event.CommitSHA != "fedcba987654" {
		t.Errorf("CommitSHA = %v, want PR head SHA", event.CommitSHA)
	}
	if event.PRNumber != 42 {
		t.Errorf("PRNumber = %v, want 42", event.PRNumber)
	}
}
