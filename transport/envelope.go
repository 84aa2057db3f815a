// Package transport carries the WebSocket wire protocol: JSON envelopes
// with an event name and a payload. Event names are part of the contract
// with the web client and must not change.
package transport

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"moodmatch/domain/event"
)

// Inbound event names.
const (
	EventStartMatching  = "startMatching"
	EventCancelMatch    = "cancelMatch"
	EventChat           = "chat"
	EventUserDisconnect = "userDisconnect"
)

var validate = validator.New()

// Envelope is the frame every message travels in, both directions.
type Envelope struct {
	Event string          `json:"event" validate:"required"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ChatPayload is the inbound chat frame.
type ChatPayload struct {
	RoomID uuid.UUID `json:"roomId" validate:"required"`
	User   string    `json:"user"`
	Text   string    `json:"text" validate:"required,max=2000"`
}

// DecodeEnvelope parses and validates one inbound frame.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("malformed envelope: %w", err)
	}
	if err := validate.Struct(env); err != nil {
		return Envelope{}, fmt.Errorf("invalid envelope: %w", err)
	}
	return env, nil
}

// DecodeChat parses and validates the payload of a chat frame.
func DecodeChat(data json.RawMessage) (ChatPayload, error) {
	var payload ChatPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return ChatPayload{}, fmt.Errorf("malformed chat payload: %w", err)
	}
	if err := validate.Struct(payload); err != nil {
		return ChatPayload{}, fmt.Errorf("invalid chat payload: %w", err)
	}
	return payload, nil
}

// MatchedPayload tells one side who it was paired with. Partner fields are
// flattened for the client's profile card.
type MatchedPayload struct {
	RoomID              uuid.UUID      `json:"roomId"`
	PartnerID           string         `json:"partnerId"`
	PartnerNickname     string         `json:"partnerNickname"`
	PartnerTitle        string         `json:"partnerTitle"`
	PartnerEmotion      string         `json:"partnerEmotion"`
	PartnerEmotionColor string         `json:"partnerEmotionColor"`
	PartnerEmotionStats map[string]int `json:"partnerEmotionStats"`
	PartnerProfileImage string         `json:"partnerProfileImage"`
}

// ChatOutPayload is the chat frame as relayed to the partner.
type ChatOutPayload struct {
	User  string `json:"user"`
	Text  string `json:"text"`
	Color string `json:"color"`
}

// NoticePayload carries a plain informational message (userLeft, chatFailed).
type NoticePayload struct {
	Message string `json:"message"`
}

// EncodeEvent serializes a domain event into its wire envelope.
func EncodeEvent(evt event.DomainEvent) ([]byte, error) {
	var data any
	switch e := evt.(type) {
	case event.Matched:
		data = MatchedPayload{
			RoomID:              e.Room,
			PartnerID:           e.Partner.UserID,
			PartnerNickname:     e.Partner.Nickname,
			PartnerTitle:        e.Partner.Title,
			PartnerEmotion:      e.Partner.Emotion,
			PartnerEmotionColor: e.Partner.EmotionColor,
			PartnerEmotionStats: e.Partner.EmotionStats,
			PartnerProfileImage: e.Partner.ProfileImage,
		}
	case event.ChatRelayed:
		data = ChatOutPayload{User: e.User, Text: e.Text, Color: e.Color}
	case event.PartnerLeft:
		data = NoticePayload{Message: e.Message}
	case event.ChatFailed:
		data = NoticePayload{Message: e.Message}
	default:
		return nil, fmt.Errorf("no wire mapping for event %q", evt.Name())
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: evt.Name(), Data: payload})
}
