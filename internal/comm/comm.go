package comm

import (
	"encoding/json"
	"time"
)

const (
	// CardSubject is the NATS subject card events are published on.
	CardSubject = "card.service"

	TypeCardIssued = "card-issued"
	TypePing       = "ping"
	TypePong       = "pong"
	TypeError      = "error"
)

type Message struct {
	Type     string          `json:"type"` // e.g. "card-issued", "ping"
	Data     json.RawMessage `json:"data,omitempty"`
	SocketId string          `json:"socketid,omitempty"`
}

type CardIssued struct {
	Code     string    `json:"code"`
	Name     string    `json:"name"`
	URL      string    `json:"url"`
	IssuedAt time.Time `json:"issued_at"`
}

type ErrorData struct {
	Error string `json:"error"`
}

// NewMessage wraps payload in a Message envelope of the given type.
func NewMessage(msgType string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: msgType, Data: data}, nil
}
