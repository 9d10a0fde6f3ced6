package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/idlgen/internal/canonical"
)

// marshalMetadata stores the injected metadata as canonical JSON, the same
// bytes that hashing the patched document sees.
func marshalMetadata(address, origin string) (string, error) {
	data, err := canonical.Marshal(map[string]any{
		"address": address,
		"origin":  origin,
	})
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	return string(data), nil
}

// unmarshalMetadata parses the metadata column.
func unmarshalMetadata(data string) (address, origin string, err error) {
	var m struct {
		Address string `json:"address"`
		Origin  string `json:"origin"`
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return "", "", fmt.Errorf("unmarshal metadata: %w", err)
	}
	return m.Address, m.Origin, nil
}
