package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
)

// Notifier posts pipeline run results to a Slack incoming webhook
type Notifier struct {
	webhookURL string
}

// NewNotifier creates a Notifier for the given incoming webhook URL
func NewNotifier(webhookURL string) *Notifier {
	return &Notifier{webhookURL: webhookURL}
}

// NotifyRun sends a summary of the completed run
func (n *Notifier) NotifyRun(ctx context.Context, run *model.PipelineRun) error {
	msg := &slack.WebhookMessage{
		Text: formatMessage(run),
	}
	return slack.PostWebhookContext(ctx, n.webhookURL, msg)
}

func formatMessage(run *model.PipelineRun) string {
	var sb strings.Builder

	icon := ":white_check_mark:"
	if !run.Succeeded() {
		icon = ":x:"
	}
	fmt.Fprintf(&sb, "%s pipeline *%s* %s on `%s` (%s @ %s)\n",
		icon, run.Pipeline, run.Status, run.Branch, run.Repository, shortSHA(run.CommitSHA))

	for _, jr := range run.Jobs {
		if jr.Failed() {
			fmt.Fprintf(&sb, "• `%s` failed at %s stage: %s\n", jr.Name, jr.FailedStage, jr.Error)
		}
	}
	return sb.String()
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

var _ interfaces.Notifier = (*Notifier)(nil)
