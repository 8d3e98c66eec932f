// Package llm holds the wire types exchanged with an OpenAI-compatible chat
// completions provider and with relay clients, plus the tolerant payload
// decoding shared by the relay and the stream assembler.
package llm

// Chat roles used when building provider requests.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatRequest is the body POSTed to the provider's chat completions endpoint.
type ChatRequest struct {
	// Model name (e.g., "gpt-4o-mini")
	Model string `json:"model"`

	// Conversation messages. Generation requests carry a single user message.
	Messages []Message `json:"messages"`

	// Generation parameters
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	MaxTokens   int     `json:"max_tokens"`

	// Whether the provider should answer with an event stream
	Stream bool `json:"stream"`

	// ResponseFormat asks the provider for structured output when supported.
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat selects the provider's output mode, e.g. {"type":"json_object"}.
type ResponseFormat struct {
	Type string `json:"type"`
}

// NewUserMessage returns a user-role message with the given content.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// GenerateRequest is the inbound body accepted by the relay.
// Only Text is validated; unknown content types and personas fall back to
// the catalog defaults.
type GenerateRequest struct {
	Text        string `json:"text"`
	ContentType string `json:"contentType,omitempty"`
	PersonaID   string `json:"personaId,omitempty"`
	Stream      bool   `json:"stream"`
}
