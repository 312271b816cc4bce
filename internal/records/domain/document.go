package domain

import (
	"encoding/json"
)

// encMarker wraps encrypted value envelopes inside the stored document, so a
// document reader can tell an encrypted field from a plaintext object.
const encMarker = "$enc"

type encEnvelope struct {
	Enc *EncryptedValue `json:"$enc"`
}

// MarshalDocument serializes a document to JSON. Encrypted values are wrapped
// under the "$enc" marker; everything else is stored as-is.
func MarshalDocument(fields map[string]any) ([]byte, error) {
	doc := make(map[string]any, len(fields))
	for name, value := range fields {
		if ev, ok := value.(*EncryptedValue); ok {
			doc[name] = encEnvelope{Enc: ev}
			continue
		}
		doc[name] = value
	}

	return json.Marshal(doc)
}

// UnmarshalDocument parses a stored JSON document, restoring "$enc" wrapped
// values as *EncryptedValue and leaving plaintext fields untouched.
func UnmarshalDocument(data []byte) (map[string]any, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	fields := make(map[string]any, len(raw))
	for name, value := range raw {
		var envelope encEnvelope
		if err := json.Unmarshal(value, &envelope); err == nil && envelope.Enc != nil {
			fields[name] = envelope.Enc
			continue
		}

		var plain any
		if err := json.Unmarshal(value, &plain); err != nil {
			return nil, err
		}
		fields[name] = plain
	}

	return fields, nil
}
