package models

import (
	"encoding/json"
	"errors"
	"time"
)

// Push event type constants prevent typos in event names.
const (
	EventNotification    = "notification"
	EventChatMessage     = "chat_message"
	EventPresenceChanged = "presence_changed"
)

// PushEvent is one decoded inbound real-time message. Payload is left opaque;
// each subscriber does its own filtering by Type and shape.
type PushEvent struct {
	Type    string
	Payload json.RawMessage
}

// DecodePushEvent parses a raw inbound frame. The transport delivers either
// `{type, payload}` envelopes or bare typed objects; for a bare object the
// whole frame becomes the payload.
func DecodePushEvent(raw []byte) (PushEvent, error) {
	var env struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return PushEvent{}, NewMalformedPayloadError(err)
	}
	if env.Type == "" {
		return PushEvent{}, NewMalformedPayloadError(errors.New("push message missing type"))
	}
	if len(env.Payload) == 0 {
		env.Payload = raw
	}
	return PushEvent{Type: env.Type, Payload: env.Payload}, nil
}

// ChatMessage is the push payload for a direct chat message.
type ChatMessage struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// PresenceEvent is the push payload for a peer going online or offline.
type PresenceEvent struct {
	UserID string `json:"user_id"`
	Online bool   `json:"online"`
}
