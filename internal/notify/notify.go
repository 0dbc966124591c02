// Package notify tells the shop floor when a day has been paid out.
package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// ClosingSummary describes a completed day closing.
type ClosingSummary struct {
	Day        string
	RowsClosed int64
	GrandTotal int64
	ClosedBy   string
}

type Notifier interface {
	DayClosed(ctx context.Context, s ClosingSummary) error
}

// Slack posts closing summaries to one channel.
type Slack struct {
	client  *slack.Client
	channel string
}

func NewSlack(token, channel string, opts ...slack.Option) *Slack {
	return &Slack{client: slack.New(token, opts...), channel: channel}
}

func (s *Slack) DayClosed(ctx context.Context, sum ClosingSummary) error {
	_, _, err := s.client.PostMessageContext(ctx, s.channel,
		slack.MsgOptionText(FormatClosing(sum), false),
	)
	if err != nil {
		return fmt.Errorf("post closing summary: %w", err)
	}
	return nil
}

// FormatClosing renders the message body.
func FormatClosing(s ClosingSummary) string {
	msg := fmt.Sprintf("*Incentives closed for %s*\nEntries paid: %d\nGrand total: %d", s.Day, s.RowsClosed, s.GrandTotal)
	if s.ClosedBy != "" {
		msg += fmt.Sprintf("\nClosed by: %s", s.ClosedBy)
	}
	return msg
}

type Noop struct{}

func (Noop) DayClosed(context.Context, ClosingSummary) error { return nil }
