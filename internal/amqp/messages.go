package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Record kinds carried in RecordChanged.Kind.
const (
	KindTransaction = "transaction"
	KindCategory    = "category"
	KindInvoice     = "invoice"
	KindBrief       = "brief"
	KindUser        = "user"
)

// Actions carried in RecordChanged.Action.
const (
	ActionUpsert = "upsert"
	ActionRemove = "remove"
)

// RecordChanged tells consumers that one record was written or removed.
// Consumers read the current state from the store; Diff is informative.
type RecordChanged struct {
	Kind   string    `json:"kind"`
	ID     string    `json:"id"`
	Action string    `json:"action"`
	Diff   string    `json:"diff,omitempty"`
	At     time.Time `json:"at"`
}

func NewRecordChanged(kind, id, action, diff string) *RecordChanged {
	return &RecordChanged{Kind: kind, ID: id, Action: action, Diff: diff, At: time.Now().UTC()}
}

// ToJSON converts the message to JSON bytes
func (m *RecordChanged) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordChangedFromJSON decodes a message and rejects ones without a kind
// or action.
func RecordChangedFromJSON(data []byte) (*RecordChanged, error) {
	var msg RecordChanged
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Kind == "" || (msg.Action != ActionUpsert && msg.Action != ActionRemove) {
		return nil, fmt.Errorf("incomplete message: kind=%q action=%q", msg.Kind, msg.Action)
	}
	return &msg, nil
}
