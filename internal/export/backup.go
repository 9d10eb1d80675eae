package export

import (
	"encoding/json"
	"fmt"
)

// MarshalBackup renders a full dictionary dump as the backup document:
// a single JSON object mapping every key to its string value.
func MarshalBackup(entries map[string]string) ([]byte, error) {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal backup: %w", err)
	}
	return data, nil
}

// UnmarshalBackup parses a backup document. Every value must be a
// string; anything else means the file is not an installerpro backup.
func UnmarshalBackup(data []byte) (map[string]string, error) {
	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse backup: %w", err)
	}
	return entries, nil
}
