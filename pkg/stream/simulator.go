package stream

import (
	"context"
	"math/rand/v2"
	"time"
)

const (
	// DefaultFragmentSize is the number of characters emitted per simulated tick.
	DefaultFragmentSize = 3

	minTypingDelay = 10 * time.Millisecond
	maxTypingDelay = 50 * time.Millisecond
)

// Simulator replays a complete response as a sequence of fixed-size
// fragments, pausing between them to mimic incremental delivery. It is the
// fallback used when the provider answered without streaming.
type Simulator struct {
	delay func() time.Duration
}

// NewSimulator returns a Simulator that pauses a random 10-50ms between
// fragments.
func NewSimulator() *Simulator {
	return &Simulator{delay: RandomDelay}
}

// NewSimulatorWithDelay returns a Simulator that calls delay before every
// fragment after the first.
func NewSimulatorWithDelay(delay func() time.Duration) *Simulator {
	if delay == nil {
		delay = RandomDelay
	}
	return &Simulator{delay: delay}
}

// RandomDelay returns a duration drawn uniformly from [10ms, 50ms).
func RandomDelay() time.Duration {
	return minTypingDelay + rand.N(maxTypingDelay-minTypingDelay)
}

// Run splits fullText into fragments of fragmentSize characters (the last
// may be shorter) and reports each to obs, honoring the same contract as
// Assembler.Run. A non-positive fragmentSize uses DefaultFragmentSize.
func (s *Simulator) Run(ctx context.Context, fullText string, fragmentSize int, obs Observer) (string, error) {
	if obs == nil {
		obs = nopObserver{}
	}
	if fragmentSize <= 0 {
		fragmentSize = DefaultFragmentSize
	}

	var state State
	runes := []rune(fullText)

	for i := 0; i < len(runes); i += fragmentSize {
		if i > 0 {
			if err := sleep(ctx, s.delay()); err != nil {
				return state.Text(), err
			}
		} else if err := ctx.Err(); err != nil {
			return state.Text(), err
		}

		fragment := string(runes[i:min(i+fragmentSize, len(runes))])
		state.append(fragment)
		if err := obs.OnFragment(fragment, state.Text()); err != nil {
			return state.Text(), err
		}
	}

	return state.close(), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
