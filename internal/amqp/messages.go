package amqp

import (
	"encoding/json"
	"time"
)

// MessageKind distinguishes export events on the shared queue.
type MessageKind string

const (
	KindExport MessageKind = "export"
	KindDelete MessageKind = "delete"
)

// ExpenseMessage is the lightweight event published when an expense changes.
// It carries only the ID and version; the worker fetches the current row
// from the database before exporting, so stale messages are harmless.
type ExpenseMessage struct {
	Kind      MessageKind `json:"kind"`
	ID        int64       `json:"id"`
	Version   int64       `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewExportMessage(id, version int64) *ExpenseMessage {
	return &ExpenseMessage{
		Kind:      KindExport,
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func NewDeleteMessage(id int64) *ExpenseMessage {
	return &ExpenseMessage{
		Kind:      KindDelete,
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *ExpenseMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseMessageFromJSON(data []byte) (*ExpenseMessage, error) {
	var msg ExpenseMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
