// Package sse provides an incremental decoder for the "data:" framed event
// streams emitted by OpenAI-compatible chat completion endpoints.
//
// Upstream bytes arrive in arbitrarily sized reads that rarely line up with
// line boundaries, so the Decoder buffers partial lines and only emits a
// Frame once its terminating newline has been observed:
//
//	read 1: "data: {\"a\":1}\n\nda"
//	read 2: "ta: {\"a\":2}\n\ndata: [DONE]\n\n"
//
// yields {"a":1}, {"a":2} and a terminal Frame, regardless of how the reads
// were sliced.
//
// This package intentionally does NOT provide SSE writer or server
// capabilities; the relay forwards upstream bytes verbatim.
//
// Event stream format:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import "errors"

const (
	// DataPrefix is the field prefix carrying event payloads.
	DataPrefix = "data:"

	// DoneSentinel is the payload signaling that no further data will follow.
	DoneSentinel = "[DONE]"
)

// ErrIncompleteFrame is returned by Decoder.Flush when the source ended in
// the middle of a record. The partial record is discarded.
var ErrIncompleteFrame = errors.New("incomplete trailing frame")

// Frame is one logical record decoded from the event stream.
type Frame struct {
	// Payload is the raw record payload with the "data:" prefix removed.
	// It is nil for terminal frames.
	Payload []byte

	// Terminal is true for the DoneSentinel record.
	Terminal bool
}
