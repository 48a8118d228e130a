package ffprobe

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Tag is a single metadata key/value pair.
type Tag struct {
	Key   string
	Value string
}

// Tags keeps ffprobe tag objects in the order ffprobe printed them.
type Tags []Tag

// Get returns the first value stored under key.
func (t Tags) Get(key string) (string, bool) {
	for _, tag := range t {
		if tag.Key == key {
			return tag.Value, true
		}
	}
	return "", false
}

// UnmarshalJSON decodes a flat JSON object while preserving key order.
func (t *Tags) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("ffprobe tags: expected object, got %v", tok)
	}
	var out Tags
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("ffprobe tags: unexpected key %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			// ffprobe prints every tag as a string; tolerate numbers from
			// hand-written fixtures.
			value = string(bytes.TrimSpace(raw))
		}
		out = append(out, Tag{Key: key, Value: value})
	}
	*t = out
	return nil
}
