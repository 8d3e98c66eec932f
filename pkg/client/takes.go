package client

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/thoughtstream/pkg/followup"
	"github.com/papercomputeco/thoughtstream/pkg/llm"
	"github.com/papercomputeco/thoughtstream/pkg/prompt"
	"github.com/papercomputeco/thoughtstream/pkg/stream"
)

// TakeResult is the outcome of one take. Err is set when that take failed;
// Text then holds whatever arrived before the failure.
type TakeResult struct {
	ContentType string
	Text        string
	Err         error
}

// ObserverFactory returns the observer for one take. Returning nil is
// allowed; that take's fragments are then discarded.
type ObserverFactory func(contentType string) stream.Observer

// Takes generates one take per content type in parallel. Results come back
// in the order of contentTypes. A failing take never cancels its siblings.
func (c *Client) Takes(ctx context.Context, text, personaID string, contentTypes []string, factory ObserverFactory) []TakeResult {
	results := make([]TakeResult, len(contentTypes))

	// Plain Group, not WithContext: one failure must not cancel the rest.
	var g errgroup.Group
	if c.maxParallel > 0 {
		g.SetLimit(c.maxParallel)
	}

	for i, contentType := range contentTypes {
		g.Go(func() error {
			var obs stream.Observer
			if factory != nil {
				obs = factory(contentType)
			}

			out, err := c.Generate(ctx, llm.GenerateRequest{
				Text:        text,
				ContentType: contentType,
				PersonaID:   personaID,
			}, obs)
			if err != nil {
				c.logger.Warn("take failed", "content_type", contentType, "error", err)
			}

			results[i] = TakeResult{ContentType: contentType, Text: out, Err: err}
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// RelatedThoughts asks the relay for follow-up questions about content.
// Empty content yields an empty list without contacting the relay.
func (c *Client) RelatedThoughts(ctx context.Context, content string) ([]string, error) {
	if strings.TrimSpace(content) == "" {
		return []string{}, nil
	}

	raw, err := c.Complete(ctx, llm.GenerateRequest{
		Text:        followup.TruncateSource(content),
		ContentType: prompt.ContentRelatedThoughts,
	})
	if err != nil {
		return nil, err
	}

	items, strategy := followup.ExtractWithStrategy(raw)
	c.logger.Debug("extracted follow-ups", "strategy", string(strategy), "count", len(items))
	return items, nil
}
