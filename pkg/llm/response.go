package llm

import (
	"encoding/json"
	"strings"
)

// ChatResponse is the provider's chat completions reply. The same shape is
// used for complete replies (Choices[].Message) and streamed chunks
// (Choices[].Delta).
type ChatResponse struct {
	ID      string   `json:"id,omitempty"`
	Object  string   `json:"object,omitempty"`
	Model   string   `json:"model,omitempty"`
	Choices []Choice `json:"choices,omitempty"`

	// Error is either {"message": "..."} (provider) or a bare string (relay).
	Error json.RawMessage `json:"error,omitempty"`
}

// Choice is a single completion choice.
type Choice struct {
	Index        int            `json:"index"`
	Message      *ChoiceContent `json:"message,omitempty"`
	Delta        *ChoiceContent `json:"delta,omitempty"`
	FinishReason string         `json:"finish_reason,omitempty"`
}

// ChoiceContent carries the text of a message or delta.
type ChoiceContent struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content"`
}

// Text returns the first choice's full message content, or "".
func (r *ChatResponse) Text() string {
	if r == nil || len(r.Choices) == 0 || r.Choices[0].Message == nil {
		return ""
	}
	return r.Choices[0].Message.Content
}

// ErrorMessage returns the error message carried by the response, if any.
func (r *ChatResponse) ErrorMessage() (string, bool) {
	if r == nil {
		return "", false
	}
	return ParseErrorMessage(r.Error)
}

// ErrorResponse is the structured error body returned by the relay.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status,omitempty"`
}

// providerError is the provider's {"error": {"message": ...}} shape.
type providerError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

// ParseErrorMessage decodes an "error" field that is either a bare string or
// an object with a "message" key. It reports false when raw holds no error.
func ParseErrorMessage(raw json.RawMessage) (string, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}

	var pe providerError
	if err := json.Unmarshal(raw, &pe); err == nil && pe.Message != "" {
		return pe.Message, true
	}

	// Present but unrecognized: surface the raw JSON rather than dropping it.
	return trimmed, true
}

// StatusResponse is the relay's configuration report. It is always served
// with HTTP 200; Configured tells whether generations can succeed.
type StatusResponse struct {
	Status     string `json:"status"`
	Configured bool   `json:"configured"`
	Message    string `json:"message"`
}
