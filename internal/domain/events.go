package domain

import "encoding/json"

// Transport event names
const (
	EventConnect     = "connect"
	EventDisconnect  = "disconnect"
	EventBotMessage  = "bot_message"
	EventProduct     = "product"
	EventUserMessage = "user_message"
)

// Envelope is a single frame on the backend socket
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// TextPayload is the payload of bot_message and user_message
type TextPayload struct {
	Text string `json:"text"`
}
