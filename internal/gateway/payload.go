package gateway

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrMalformedPayload means the body carried no recognizable text field.
// It is a rejection, not a fault.
var ErrMalformedPayload = errors.New("no recognizable text field in payload")

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ExtractText pulls the searchable text out of an inference payload.
// Accepted shapes, checked in order: {"prompt": string},
// {"messages": [{role, content}]} (contents concatenated in order),
// {"inputs": string}. Field presence decides; an empty string is valid
// text.
func ExtractText(body []byte) (string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", ErrMalformedPayload
	}

	if raw, ok := fields["prompt"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", ErrMalformedPayload
		}
		return s, nil
	}

	if raw, ok := fields["messages"]; ok {
		var msgs []chatMessage
		if err := json.Unmarshal(raw, &msgs); err != nil {
			return "", ErrMalformedPayload
		}
		var b strings.Builder
		for i, m := range msgs {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(m.Content)
		}
		return b.String(), nil
	}

	if raw, ok := fields["inputs"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", ErrMalformedPayload
		}
		return s, nil
	}

	return "", ErrMalformedPayload
}
