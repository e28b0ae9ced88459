// Package slack implements the notify Adapter for Slack using the Web API.
package slack

import (
	"context"
	"errors"
	"fmt"
	"time"

	slackapi "github.com/slack-go/slack"

	"github.com/groundcheck/groundcheck/internal/notify"
)

// maxRetries bounds retries for rate-limited API calls.
const maxRetries = 3

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Adapter posts smoke results to a Slack channel.
type Adapter struct {
	client    slackClient
	channelID string
}

// AdapterOpts holds parameters for creating a Slack Adapter.
type AdapterOpts struct {
	BotToken  string // xoxb-... Slack bot token
	ChannelID string // channel to post to
	// For testing: inject a mock client instead of the real Slack API.
	Client slackClient
}

// New creates a Slack Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.Client == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("slack: bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("slack: channel id is required")
	}

	a := &Adapter{channelID: opts.ChannelID, client: opts.Client}
	if a.client == nil {
		a.client = slackapi.New(opts.BotToken)
	}
	return a, nil
}

// Name identifies the platform.
func (a *Adapter) Name() string { return "slack" }

// Send posts the event as a color attachment, retrying on rate limits.
func (a *Adapter) Send(ctx context.Context, event notify.Event) error {
	attachment := slackapi.Attachment{
		Color:  notify.SeverityColor(event.Severity),
		Title:  event.Title,
		Text:   event.Body,
		Fields: makeFields(event.Fields),
	}

	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, _, err = a.client.PostMessageContext(ctx, a.channelID,
			slackapi.MsgOptionAttachments(attachment))
		if err == nil {
			return nil
		}

		var rle *slackapi.RateLimitedError
		if !errors.As(err, &rle) {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rle.RetryAfter):
		}
	}
	return fmt.Errorf("slack: post message: %w", err)
}

// Close is a no-op; the Web API client holds no connection.
func (a *Adapter) Close() error { return nil }

func makeFields(fields []notify.Field) []slackapi.AttachmentField {
	out := make([]slackapi.AttachmentField, len(fields))
	for i, f := range fields {
		out[i] = slackapi.AttachmentField{Title: f.Name, Value: f.Value, Short: f.Short}
	}
	return out
}

var _ notify.Adapter = (*Adapter)(nil)
