package llm

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedPayload is returned by ExtractDelta for payloads that are not a
// decodable chat completion chunk. Callers count and skip these.
var ErrMalformedPayload = errors.New("malformed payload")

// ExtractDelta returns the incremental text carried by one event payload.
//
// Payloads are decoded as a ChatResponse and checked in a fixed order: the
// incremental delta first, then the full message. The first non-empty text
// wins. Frames without content (role markers, keep-alives, usage-only
// chunks) return "" and a nil error.
func ExtractDelta(payload []byte) (string, error) {
	var chunk ChatResponse
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	if len(chunk.Choices) == 0 {
		return "", nil
	}

	choice := chunk.Choices[0]
	for _, part := range []*ChoiceContent{choice.Delta, choice.Message} {
		if part != nil && part.Content != "" {
			return part.Content, nil
		}
	}

	return "", nil
}
