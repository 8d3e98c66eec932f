package eventstream

import "errors"

// ErrNilGenerationEvent indicates a nil event was handed to a publisher.
var ErrNilGenerationEvent = errors.New("nil generation event")
