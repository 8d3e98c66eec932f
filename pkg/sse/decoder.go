package sse

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// maxReportedTail bounds how much of a dropped trailing record is echoed back
// in ErrIncompleteFrame errors.
const maxReportedTail = 64

// Decoder turns raw event stream bytes into Frames. It is not safe for
// concurrent use; each stream owns its own Decoder.
type Decoder struct {
	pending []byte
	done    bool
}

// NewDecoder returns an empty Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Done reports whether the terminal sentinel has been decoded.
func (d *Decoder) Done() bool {
	return d.done
}

// Feed appends p to the pending buffer and returns every Frame completed by
// it, in order. The trailing incomplete line is held until a later Feed or
// Flush. Once the terminal Frame has been returned, further input is ignored.
func (d *Decoder) Feed(p []byte) []Frame {
	if d.done {
		return nil
	}

	d.pending = append(d.pending, p...)

	var frames []Frame
	consumed := 0
	for {
		i := bytes.IndexByte(d.pending[consumed:], '\n')
		if i < 0 {
			break
		}

		line := d.pending[consumed : consumed+i]
		consumed += i + 1

		frame, ok := parseLine(line)
		if !ok {
			continue
		}

		frames = append(frames, frame)
		if frame.Terminal {
			d.done = true
			d.pending = nil
			return frames
		}
	}

	// Keep only the incomplete tail so the buffer does not grow with the stream.
	d.pending = append(d.pending[:0:0], d.pending[consumed:]...)

	return frames
}

// Flush is called once the source is exhausted. A pending record that is
// complete apart from its line terminator is returned as a Frame. A record
// cut off mid-payload is dropped and reported as ErrIncompleteFrame.
// Flush returns nil, nil when nothing is pending.
func (d *Decoder) Flush() (*Frame, error) {
	if d.done || len(d.pending) == 0 {
		d.pending = nil
		return nil, nil
	}

	line := d.pending
	d.pending = nil

	frame, ok := parseLine(line)
	if !ok {
		return nil, nil
	}

	if frame.Terminal || json.Valid(frame.Payload) {
		d.done = frame.Terminal
		return &frame, nil
	}

	tail := frame.Payload
	if len(tail) > maxReportedTail {
		tail = tail[:maxReportedTail]
	}

	return nil, fmt.Errorf("%w: %q", ErrIncompleteFrame, tail)
}

// parseLine decodes a single line without its "\n" terminator. It returns
// false for lines that carry no record: blank lines, comments, non-data
// fields and empty data payloads.
func parseLine(line []byte) (Frame, bool) {
	line = bytes.TrimSuffix(line, []byte("\r"))

	value, ok := bytes.CutPrefix(line, []byte(DataPrefix))
	if !ok {
		return Frame{}, false
	}

	// Strip a single leading space after the colon, as the event stream format requires.
	value = bytes.TrimPrefix(value, []byte(" "))

	if string(value) == DoneSentinel {
		return Frame{Terminal: true}, true
	}

	if len(bytes.TrimSpace(value)) == 0 {
		return Frame{}, false
	}

	return Frame{Payload: bytes.Clone(value)}, true
}
