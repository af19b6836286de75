package gateway

import (
	"bytes"
	"encoding/json"
	"strings"
)

// NormalizeMessage derives one message from an error response body.
//
// Precedence:
//  1. a non-empty string "detail" field;
//  2. a non-empty string "error" field;
//  3. the first field of the body (document order): a list is joined with
//     single spaces, a string is used as-is, anything else yields DefaultMessage;
//  4. DefaultMessage when there is no decodable body.
//
// A top-level list is treated like a mapping whose first field is its first
// element.
func NormalizeMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || !json.Valid(body) {
		return DefaultMessage
	}

	switch body[0] {
	case '{':
		return messageFromObject(body)
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil || len(items) == 0 {
			return DefaultMessage
		}
		return messageFromValue(items[0])
	default:
		return DefaultMessage
	}
}

func messageFromObject(body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return DefaultMessage
	}
	for _, key := range []string{"detail", "error"} {
		if msg, ok := nonEmptyString(fields[key]); ok {
			return msg
		}
	}

	first, ok := firstField(body)
	if !ok {
		return DefaultMessage
	}
	return messageFromValue(first)
}

func messageFromValue(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return DefaultMessage
	}

	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return DefaultMessage
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			parts = append(parts, elementText(item))
		}
		msg := strings.Join(parts, " ")
		if msg == "" {
			return DefaultMessage
		}
		return msg
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || s == "" {
			return DefaultMessage
		}
		return s
	default:
		return DefaultMessage
	}
}

// firstField returns the value of the first key of a JSON object, in document order.
func firstField(body []byte) (json.RawMessage, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil, false
	}
	if !dec.More() {
		return nil, false
	}
	if _, err := dec.Token(); err != nil {
		return nil, false
	}
	var value json.RawMessage
	if err := dec.Decode(&value); err != nil {
		return nil, false
	}
	return value, true
}

func nonEmptyString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}

func elementText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
