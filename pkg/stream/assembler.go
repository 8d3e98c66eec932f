package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/papercomputeco/thoughtstream/pkg/llm"
	"github.com/papercomputeco/thoughtstream/pkg/logger"
	"github.com/papercomputeco/thoughtstream/pkg/sse"
)

const defaultReadSize = 4 * 1024

// Config is the configuration for an Assembler. The zero value is usable.
type Config struct {
	// Logger receives malformed-frame and trailing-frame diagnostics.
	Logger *slog.Logger

	// Metrics is an optional diagnostics sink.
	Metrics Metrics

	// ReadSize is the size of the buffer handed to each Read (defaults to 4 KiB).
	ReadSize int
}

// Assembler reads an event stream, decodes it into text deltas and reports
// each delta to an Observer. An Assembler holds no per-stream state and may
// run any number of streams concurrently.
type Assembler struct {
	logger   *slog.Logger
	metrics  Metrics
	readSize int
}

// NewAssembler creates an Assembler. A nil config uses defaults.
func NewAssembler(c *Config) *Assembler {
	if c == nil {
		c = &Config{}
	}

	a := &Assembler{
		logger:   c.Logger,
		metrics:  c.Metrics,
		readSize: c.ReadSize,
	}
	if a.logger == nil {
		a.logger = logger.Nop()
	}
	if a.metrics == nil {
		a.metrics = NopMetrics{}
	}
	if a.readSize <= 0 {
		a.readSize = defaultReadSize
	}

	return a
}

// WithMetrics returns a copy of the Assembler that reports to m. It lets
// callers collect per-stream counters from a shared Assembler.
func (a *Assembler) WithMetrics(m Metrics) *Assembler {
	cp := *a
	if m == nil {
		m = NopMetrics{}
	}
	cp.metrics = m
	return &cp
}

// Run consumes src until the terminal frame or the end of the source and
// returns the full text. Fragments reach obs in byte-arrival order.
//
// src is closed on every exit path. Cancelling ctx closes src, which unblocks
// a pending Read; Run then returns ctx.Err(). If obs returns an error the
// source is closed and that error is returned unchanged. On failure the text
// delivered so far is returned alongside the error; it is never retracted.
func (a *Assembler) Run(ctx context.Context, src io.ReadCloser, obs Observer) (string, error) {
	if obs == nil {
		obs = nopObserver{}
	}

	stop := context.AfterFunc(ctx, func() {
		_ = src.Close()
	})
	defer func() {
		stop()
		_ = src.Close()
	}()

	var state State
	dec := sse.NewDecoder()
	buf := make([]byte, a.readSize)

	for {
		if err := ctx.Err(); err != nil {
			return state.Text(), err
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			done, err := a.apply(dec.Feed(buf[:n]), &state, obs)
			if err != nil {
				return state.Text(), err
			}
			if done {
				return state.close(), nil
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			if err := ctx.Err(); err != nil {
				return state.Text(), err
			}
			return state.Text(), fmt.Errorf("reading stream: %w", readErr)
		}
	}

	frame, err := dec.Flush()
	if err != nil {
		a.metrics.IncompleteFrame()
		a.logger.Warn("stream ended inside a frame, dropping it", "error", err)
	}
	if frame != nil {
		if _, err := a.apply([]sse.Frame{*frame}, &state, obs); err != nil {
			return state.Text(), err
		}
	}

	return state.close(), nil
}

// apply delivers the text of each frame to obs. It reports true once the
// terminal frame has been seen.
func (a *Assembler) apply(frames []sse.Frame, state *State, obs Observer) (bool, error) {
	for _, frame := range frames {
		a.metrics.FrameDecoded()
		if frame.Terminal {
			return true, nil
		}

		fragment, err := llm.ExtractDelta(frame.Payload)
		if err != nil {
			a.metrics.MalformedPayload()
			a.logger.Debug("skipping malformed frame", "error", err)
			continue
		}
		if fragment == "" {
			continue
		}

		state.append(fragment)
		a.metrics.FragmentEmitted()
		if err := obs.OnFragment(fragment, state.Text()); err != nil {
			return false, err
		}
	}

	return false, nil
}
