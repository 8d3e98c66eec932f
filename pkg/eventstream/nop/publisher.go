// Package nop provides the publisher used when no event stream is
// configured.
package nop

import (
	"context"

	"github.com/papercomputeco/thoughtstream/pkg/eventstream"
)

// Publisher validates events and drops them.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishGeneration rejects nil events and otherwise does nothing.
func (p *Publisher) PublishGeneration(_ context.Context, event *eventstream.GenerationEvent) error {
	if event == nil {
		return eventstream.ErrNilGenerationEvent
	}
	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
