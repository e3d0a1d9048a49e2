// Package channel defines the normalized inbound message model and the
// outbound sender registry shared by messaging platform adapters.
package channel

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/santiyeai/sitechief/internal/media"
)

// ChannelType identifies a messaging platform (e.g., "whatsapp").
type ChannelType string

// String returns the channel type as a plain string.
func (c ChannelType) String() string {
	return string(c)
}

// Conversation types.
const (
	ConversationDirect = "direct"
	ConversationGroup  = "group"
)

// Identity represents a sender's identity on a channel.
type Identity struct {
	SubjectID   string
	DisplayName string
}

// Conversation holds metadata about the chat or group context.
type Conversation struct {
	ID   string
	Type string
}

// Message is the platform-neutral content of an inbound message.
type Message struct {
	ID    string
	Type  string // declared platform type: text, audio, image, document, ...
	Text  string
	Media *media.Reference
}

// InboundMessage is a message received from an external channel.
type InboundMessage struct {
	Channel      ChannelType
	Message      Message
	Sender       Identity
	Conversation Conversation
	ReceivedAt   time.Time
}

// IsGroup reports whether the message was posted in a group conversation.
func (m InboundMessage) IsGroup() bool {
	return m.Conversation.Type == ConversationGroup && strings.TrimSpace(m.Conversation.ID) != ""
}

// ReplyTarget returns where replies go: the group for group messages,
// otherwise the sender.
func (m InboundMessage) ReplyTarget() string {
	if m.IsGroup() {
		return strings.TrimSpace(m.Conversation.ID)
	}
	return strings.TrimSpace(m.Sender.SubjectID)
}

// Event is one parsed webhook delivery. Message is nil for payloads that
// carry no user message, such as delivery status updates.
type Event struct {
	Channel ChannelType
	Message *InboundMessage
	Raw     json.RawMessage
}
