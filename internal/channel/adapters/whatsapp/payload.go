package whatsapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/santiyeai/sitechief/internal/channel"
	"github.com/santiyeai/sitechief/internal/media"
)

// ErrMalformedPayload is returned when the webhook body lacks entry/changes.
var ErrMalformedPayload = errors.New("malformed whatsapp webhook payload")

type webhookPayload struct {
	Object string  `json:"object"`
	Entry  []entry `json:"entry"`
}

type entry struct {
	ID      string   `json:"id"`
	Changes []change `json:"changes"`
}

type change struct {
	Field string      `json:"field"`
	Value changeValue `json:"value"`
}

type changeValue struct {
	MessagingProduct string            `json:"messaging_product"`
	Contacts         []contact         `json:"contacts"`
	Messages         []inboundMessage  `json:"messages"`
	Statuses         []json.RawMessage `json:"statuses"`
}

type contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type inboundMessage struct {
	From      string       `json:"from"`
	ID        string       `json:"id"`
	Timestamp string       `json:"timestamp"`
	Type      string       `json:"type"`
	GroupID   string       `json:"group_id"`
	Text      *textBody    `json:"text"`
	Audio     *mediaObject `json:"audio"`
	Voice     *mediaObject `json:"voice"`
	Image     *mediaObject `json:"image"`
	Document  *mediaObject `json:"document"`
}

type textBody struct {
	Body string `json:"body"`
}

type mediaObject struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Filename string `json:"filename"`
	Caption  string `json:"caption"`
}

// Parse decodes a Cloud API webhook body. Only the first message of the
// first change is used; payloads without messages yield an Event with a nil
// Message.
func Parse(body []byte) (channel.Event, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return channel.Event{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if len(payload.Entry) == 0 || len(payload.Entry[0].Changes) == 0 {
		return channel.Event{}, ErrMalformedPayload
	}
	evt := channel.Event{Channel: Type, Raw: json.RawMessage(body)}
	value := payload.Entry[0].Changes[0].Value
	if len(value.Messages) == 0 {
		return evt, nil
	}
	msg := buildInbound(value.Messages[0], value.Contacts)
	evt.Message = &msg
	return evt, nil
}

func buildInbound(raw inboundMessage, contacts []contact) channel.InboundMessage {
	msg := channel.InboundMessage{
		Channel: Type,
		Message: channel.Message{
			ID:   strings.TrimSpace(raw.ID),
			Type: strings.ToLower(strings.TrimSpace(raw.Type)),
		},
		Sender: channel.Identity{
			SubjectID: strings.TrimSpace(raw.From),
		},
		Conversation: channel.Conversation{
			ID:   strings.TrimSpace(raw.From),
			Type: channel.ConversationDirect,
		},
		ReceivedAt: parseTimestamp(raw.Timestamp),
	}
	if groupID := strings.TrimSpace(raw.GroupID); groupID != "" {
		msg.Conversation = channel.Conversation{ID: groupID, Type: channel.ConversationGroup}
	}
	for _, c := range contacts {
		if c.WaID == raw.From {
			msg.Sender.DisplayName = strings.TrimSpace(c.Profile.Name)
			break
		}
	}
	if raw.Text != nil {
		msg.Message.Text = strings.TrimSpace(raw.Text.Body)
	}
	var obj *mediaObject
	switch msg.Message.Type {
	case "audio":
		obj = raw.Audio
	case "voice":
		obj = raw.Voice
	case "image":
		obj = raw.Image
	case "document":
		obj = raw.Document
	}
	if obj != nil {
		msg.Message.Media = &media.Reference{
			ID:       strings.TrimSpace(obj.ID),
			Mime:     strings.TrimSpace(obj.MimeType),
			Filename: strings.TrimSpace(obj.Filename),
		}
		if msg.Message.Text == "" {
			msg.Message.Text = strings.TrimSpace(obj.Caption)
		}
	}
	return msg
}

func parseTimestamp(raw string) time.Time {
	secs, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || secs <= 0 {
		return time.Now().UTC()
	}
	return time.Unix(secs, 0).UTC()
}
