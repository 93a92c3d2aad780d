package record

import (
	"bytes"
	"encoding/json"
	"fmt"
)

var jsonNull = json.RawMessage("null")

// MergePatch returns the top-level JSON merge patch turning previous into updated.
// Fields dropped by updated are sent as null.
func MergePatch[T any](previous, updated T) (json.RawMessage, error) {
	before, err := fields(previous)
	if err != nil {
		return nil, err
	}
	after, err := fields(updated)
	if err != nil {
		return nil, err
	}
	patch := map[string]json.RawMessage{}
	for name, value := range after {
		if old, ok := before[name]; !ok || !bytes.Equal(old, value) {
			patch[name] = value
		}
	}
	for name := range before {
		if _, ok := after[name]; !ok {
			patch[name] = jsonNull
		}
	}
	delete(patch, "id")
	return json.Marshal(patch)
}

// ApplyPatch overlays the top-level fields of patch on the JSON object data. A null value
// removes the field. The id field is never changed.
func ApplyPatch(data, patch []byte) ([]byte, error) {
	target := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &target); err != nil {
		return nil, fmt.Errorf("decode stored record: %w", err)
	}
	changes := map[string]json.RawMessage{}
	if err := json.Unmarshal(patch, &changes); err != nil {
		return nil, Invalid("body", fmt.Sprintf("malformed patch: %v", err))
	}
	for name, value := range changes {
		switch {
		case name == "id":
		case bytes.Equal(bytes.TrimSpace(value), jsonNull):
			delete(target, name)
		default:
			target[name] = value
		}
	}
	return json.Marshal(target)
}

func fields(v any) (map[string]json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("record does not encode as an object: %w", err)
	}
	return out, nil
}
