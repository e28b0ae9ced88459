// Package discord implements the notify Adapter for Discord via the REST API.
package discord

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/groundcheck/groundcheck/internal/notify"
)

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	Close() error
}

// Adapter posts smoke results to a Discord channel. Messages go over REST;
// no Gateway WebSocket is opened for send-only traffic.
type Adapter struct {
	sess      session
	channelID string
}

// AdapterOpts holds parameters for creating a Discord Adapter.
type AdapterOpts struct {
	BotToken  string // Discord bot token
	ChannelID string // channel to post to
	// For testing: inject a mock session instead of the real Discord API.
	Session session
}

// New creates a Discord Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.Session == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("discord: bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("discord: channel id is required")
	}

	a := &Adapter{channelID: opts.ChannelID, sess: opts.Session}
	if a.sess == nil {
		sess, err := discordgo.New("Bot " + opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("discord: create session: %w", err)
		}
		a.sess = sess
	}
	return a, nil
}

// Name identifies the platform.
func (a *Adapter) Name() string { return "discord" }

// Send posts the event as an embed.
func (a *Adapter) Send(ctx context.Context, event notify.Event) error {
	embed := &discordgo.MessageEmbed{
		Title:       event.Title,
		Description: event.Body,
		Color:       colorInt(notify.SeverityColor(event.Severity)),
	}
	for _, f := range event.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Short,
		})
	}

	if _, err := a.sess.ChannelMessageSendEmbed(a.channelID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: send embed: %w", err)
	}
	return nil
}

// Close shuts the underlying session down.
func (a *Adapter) Close() error {
	return a.sess.Close()
}

// colorInt converts a "#rrggbb" color to the integer Discord embeds use.
func colorInt(hex string) int {
	v, err := strconv.ParseInt(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return 0
	}
	return int(v)
}

var _ notify.Adapter = (*Adapter)(nil)
