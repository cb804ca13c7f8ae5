package queue

import "encoding/json"

// MessageVersion is bumped when Message changes incompatibly.
const MessageVersion = 2

// Message asks a worker to process one analysis run.
type Message struct {
	RunID      string `json:"runId"`
	AppID      string `json:"appId"`
	Kind       string `json:"kind"`
	RequestID  string `json:"requestId"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int    `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
