package events

import (
	"encoding/json"
	"time"
)

// RecordChange announces a store mutation to the backup worker. It
// carries only the change kind and record identifier; the worker dumps
// the full dictionary itself, so a lost message only delays a snapshot.
type RecordChange struct {
	Kind      string    `json:"kind"`
	RecordID  string    `json:"recordId"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordChange(kind, recordID string) *RecordChange {
	return &RecordChange{
		Kind:      kind,
		RecordID:  recordID,
		Timestamp: time.Now(),
	}
}

func (m *RecordChange) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RecordChangeFromJSON(data []byte) (*RecordChange, error) {
	var msg RecordChange
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
