// Package hub broadcasts widget events and camera preview frames to
// websocket clients with a channel-based fan-out loop.
package hub

import (
	"encoding/json"

	"github.com/gofiber/websocket/v2"
)

// MessageType says how a queued message goes out on the wire.
type MessageType int

const (
	// JSONMessage is an encoded widget event, sent as a text frame.
	JSONMessage MessageType = iota
	// BinaryMessage is a JPEG preview frame, sent as a binary frame.
	BinaryMessage
)

// Message is one queued broadcast. Data is shared by every client and must
// not be modified after queuing.
type Message struct {
	Type MessageType
	Data []byte
}

// NewJSONMessage wraps pre-encoded JSON.
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// NewEventMessage encodes v as a JSON event.
func NewEventMessage(v interface{}) (Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Message{}, err
	}
	return NewJSONMessage(data), nil
}

// NewFrameMessage wraps a JPEG preview frame.
func NewFrameMessage(jpeg []byte) Message {
	return Message{Type: BinaryMessage, Data: jpeg}
}

// frameType maps the message onto a websocket frame opcode.
func (m Message) frameType() int {
	if m.Type == BinaryMessage {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}
