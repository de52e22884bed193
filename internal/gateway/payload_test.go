package gateway

import (
	"errors"
	"testing"
)

func TestExtractText(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"prompt field", `{"prompt":"write a poem"}`, "write a poem", false},
		{"inputs field", `{"inputs":"Hello, how are you?"}`, "Hello, how are you?", false},
		{"empty prompt is valid", `{"prompt":""}`, "", false},
		{
			"messages concatenate in order",
			`{"messages":[{"role":"system","content":"be nice"},{"role":"user","content":"hello"}]}`,
			"be nice\nhello",
			false,
		},
		{"empty messages list", `{"messages":[]}`, "", false},
		{"prompt wins over inputs", `{"prompt":"a","inputs":"b"}`, "a", false},
		{"extra fields ignored", `{"inputs":"hi","model":"gpt2","temperature":0.7}`, "hi", false},
		{"no text field", `{"model":"gpt2"}`, "", true},
		{"not json", `hello`, "", true},
		{"json but not an object", `[1,2,3]`, "", true},
		{"prompt wrong type", `{"prompt":42}`, "", true},
		{"messages wrong type", `{"messages":"hi"}`, "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractText([]byte(tc.body))
			if tc.wantErr {
				if !errors.Is(err, ErrMalformedPayload) {
					t.Fatalf("want ErrMalformedPayload, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("text = %q, want %q", got, tc.want)
			}
		})
	}
}
