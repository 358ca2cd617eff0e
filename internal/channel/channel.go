// Package channel defines the boundary to messaging platforms. Transport,
// webhook verification, and voice transcription live on the platform side;
// the core only sees already-textual events and replies through Sender.
package channel

import "context"

// Event is one inbound user message. Voice messages arrive already
// transcribed; MessageID supports idempotent de-duplication before the
// event reaches the agent.
type Event struct {
	SenderID  string `json:"sender_id"`  // end user identity on the platform
	AccountID string `json:"account_id"` // business account the message was sent to
	MessageID string `json:"message_id"`
	Text      string `json:"text"`
}

// Sender delivers replies back to a platform user.
type Sender interface {
	SendText(ctx context.Context, recipientID, text string) error
	SendImage(ctx context.Context, recipientID string, image []byte, caption string) error
	Platform() string
}
