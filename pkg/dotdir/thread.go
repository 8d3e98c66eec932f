package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const threadFile = "thread.json"

// ErrNoFollowUp is returned when a follow-up number is outside the saved list.
var ErrNoFollowUp = errors.New("no such follow-up")

// ThreadState is the last explored thought and the follow-ups suggested for it.
type ThreadState struct {
	Text        string    `json:"text"`
	ContentType string    `json:"content_type,omitempty"`
	PersonaID   string    `json:"persona_id,omitempty"`
	FollowUps   []string  `json:"follow_ups"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FollowUp returns the n-th follow-up, counting from 1 as they are printed.
func (s *ThreadState) FollowUp(n int) (string, error) {
	if s == nil || n < 1 || n > len(s.FollowUps) {
		return "", fmt.Errorf("%w: %d", ErrNoFollowUp, n)
	}
	return s.FollowUps[n-1], nil
}

// LoadThread loads the thread state from thread.json in the target directory.
// Returns nil, nil when nothing has been explored yet.
func (m *Manager) LoadThread(overrideDir string) (*ThreadState, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, threadFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading thread state: %w", err)
	}

	state := &ThreadState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing thread state: %w", err)
	}

	return state, nil
}

// SaveThread persists the thread state, replacing any previous one.
func (m *Manager) SaveThread(state *ThreadState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil thread state")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling thread state: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, threadFile), data, 0o600); err != nil {
		return fmt.Errorf("writing thread state: %w", err)
	}

	return nil
}

// ClearThread removes the thread state. A missing file is not an error.
func (m *Manager) ClearThread(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(dir, threadFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing thread state: %w", err)
	}

	return nil
}
