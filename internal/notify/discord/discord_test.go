package discord

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/groundcheck/groundcheck/internal/notify"
)

type mockSession struct {
	embeds   []*discordgo.MessageEmbed
	channels []string
	err      error
	closed   bool
}

func (m *mockSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.channels = append(m.channels, channelID)
	m.embeds = append(m.embeds, embed)
	return &discordgo.Message{}, nil
}

func (m *mockSession) Close() error {
	m.closed = true
	return nil
}

func TestNew_RequiresTokenAndChannel(t *testing.T) {
	if _, err := New(AdapterOpts{ChannelID: "123"}); err == nil {
		t.Error("want error without token")
	}
	if _, err := New(AdapterOpts{BotToken: "tok"}); err == nil {
		t.Error("want error without channel")
	}
}

func TestSend_BuildsEmbed(t *testing.T) {
	mock := &mockSession{}
	a, err := New(AdapterOpts{Session: mock, ChannelID: "123"})
	if err != nil {
		t.Fatal(err)
	}

	event := notify.Event{
		Title:    "Smoke suite FAILED",
		Body:     "bing-grounding: FAIL (missing_citations)",
		Severity: "error",
		Fields:   []notify.Field{{Name: "Model", Value: "gpt-4o", Short: true}},
	}
	if err := a.Send(context.Background(), event); err != nil {
		t.Fatal(err)
	}

	if len(mock.embeds) != 1 || mock.channels[0] != "123" {
		t.Fatalf("embeds = %d, channels = %v", len(mock.embeds), mock.channels)
	}
	embed := mock.embeds[0]
	if embed.Title != event.Title || embed.Description != event.Body {
		t.Errorf("embed = %+v", embed)
	}
	if embed.Color != colorInt(notify.ColorError) {
		t.Errorf("Color = %d", embed.Color)
	}
	if len(embed.Fields) != 1 || !embed.Fields[0].Inline {
		t.Errorf("Fields = %+v", embed.Fields)
	}
}

func TestSend_ErrorWrapped(t *testing.T) {
	mock := &mockSession{err: errors.New("403 forbidden")}
	a, err := New(AdapterOpts{Session: mock, ChannelID: "123"})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Send(context.Background(), notify.Event{}); err == nil {
		t.Fatal("want error")
	}
}

func TestClose_ClosesSession(t *testing.T) {
	mock := &mockSession{}
	a, _ := New(AdapterOpts{Session: mock, ChannelID: "123"})
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	if !mock.closed {
		t.Error("session not closed")
	}
}

func TestColorInt(t *testing.T) {
	if got := colorInt("#36a64f"); got != 0x36a64f {
		t.Errorf("colorInt = %#x", got)
	}
	if got := colorInt("junk"); got != 0 {
		t.Errorf("colorInt(junk) = %d, want 0", got)
	}
}
