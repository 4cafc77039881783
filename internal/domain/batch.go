package domain

import (
	"bytes"
	"encoding/json"
	"errors"
)

var ErrNotArray = errors.New("batch payload is not a JSON array")

// DecodeBatch decodes a JSON array element by element. Elements that are not
// JSON objects, or that fail to decode into T, are skipped and counted so one
// bad record never blocks the rest of the batch.
func DecodeBatch[T any](data []byte) ([]T, int, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, 0, nil
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, 0, ErrNotArray
	}

	out := make([]T, 0, len(elements))
	skipped := 0
	for _, element := range elements {
		element = bytes.TrimSpace(element)
		if len(element) == 0 || element[0] != '{' {
			skipped++
			continue
		}
		var item T
		if err := json.Unmarshal(element, &item); err != nil {
			skipped++
			continue
		}
		out = append(out, item)
	}
	return out, skipped, nil
}

func DecodeScheduleBatch(data []byte) ([]ScheduleRecord, int, error) {
	return DecodeBatch[ScheduleRecord](data)
}
