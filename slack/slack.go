package slack

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/kouki023/situation-in-the-electoral-district/synchronizer"
)

type Client struct {
	api *slack.Client
}

func NewClient(token string, options ...slack.Option) *Client {
	return &Client{api: slack.New(token, options...)}
}

func (c *Client) PostMessage(channel, text string) error {
	return c.PostMessageContext(context.Background(), channel, text)
}

func (c *Client) PostMessageContext(ctx context.Context, channel, text string) error {
	if channel == "" || channel == "#" {
		return errors.New("slack: channel cannot be empty")
	}
	if text == "" {
		return errors.New("slack: message text cannot be empty")
	}
	_, _, err := c.api.PostMessageContext(ctx, channel, slack.MsgOptionText(text, false))
	return err
}

// Notifier posts a summary of region key changes to one channel.
type Notifier struct {
	client  *Client
	channel string
}

func NewNotifier(client *Client, channel string) *Notifier {
	return &Notifier{client: client, channel: strings.TrimPrefix(channel, "#")}
}

func (n *Notifier) Notify(ctx context.Context, r synchronizer.Report) error {
	return n.client.PostMessageContext(ctx, "#"+n.channel, FormatReport(r))
}

func FormatReport(r synchronizer.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Candidate data updated: %d regions", r.Keys)
	if len(r.Added) > 0 {
		fmt.Fprintf(&b, "\nAdded: %s", strings.Join(r.Added, ", "))
	}
	if len(r.Removed) > 0 {
		fmt.Fprintf(&b, "\nRemoved: %s", strings.Join(r.Removed, ", "))
	}
	return b.String()
}
