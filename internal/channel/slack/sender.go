// Package slack implements channel.Sender on the Slack Web API.
package slack

import (
	"bytes"
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

type Sender struct {
	client *slack.Client
}

func NewSender(client *slack.Client) *Sender {
	return &Sender{client: client}
}

func (s *Sender) Platform() string { return "slack" }

func (s *Sender) SendText(ctx context.Context, recipientID, text string) error {
	_, _, err := s.client.PostMessageContext(ctx, recipientID, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("slack.Sender.SendText: %w", err)
	}
	return nil
}

func (s *Sender) SendImage(ctx context.Context, recipientID string, image []byte, caption string) error {
	_, err := s.client.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Channel:        recipientID,
		Filename:       "schedule.png",
		FileSize:       len(image),
		Reader:         bytes.NewReader(image),
		InitialComment: caption,
	})
	if err != nil {
		return fmt.Errorf("slack.Sender.SendImage: %w", err)
	}
	return nil
}
