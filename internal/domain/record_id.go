package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UnmarshalJSON accepts the record id as a string, a {"$oid": ...} object or a
// number. The rest of the record decodes as usual.
func (r *ScheduleRecord) UnmarshalJSON(data []byte) error {
	type plain ScheduleRecord
	aux := struct {
		*plain
		ID json.RawMessage `json:"_id"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	id, err := recordID(aux.ID)
	if err != nil {
		return err
	}
	r.ID = id
	return nil
}

func (r *OvertimeRecord) UnmarshalJSON(data []byte) error {
	type plain OvertimeRecord
	aux := struct {
		*plain
		ID json.RawMessage `json:"_id"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	id, err := recordID(aux.ID)
	if err != nil {
		return err
	}
	r.ID = id
	return nil
}

// recordID returns "" for a missing or null id and an error for shapes that
// carry no id at all, such as arrays or booleans.
func recordID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if id := idText(raw); id != "" {
		return id, nil
	}
	if bytes.Equal(raw, []byte(`""`)) {
		return "", nil
	}
	return "", fmt.Errorf("unsupported record id %s", compactText(raw))
}
