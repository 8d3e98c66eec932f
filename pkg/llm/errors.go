package llm

import "fmt"

// UpstreamError is a non-success reply from the provider (or the relay in
// front of it), surfaced before any content was produced. It is never retried.
type UpstreamError struct {
	Message    string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Message)
}
