// Package dotdir manages the .thoughtstream/ and ~/.thoughtstream directories.
//
// Besides config.toml and credentials.toml, the directory holds the thread
// state: the last explored thought and the follow-ups suggested for it, so a
// later command can pick one up by number.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirName is the name of the thoughtstream directory.
const DirName = ".thoughtstream"

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute path of the .thoughtstream/ directory to use,
// creating it when missing. Precedence: overrideDir, then ./.thoughtstream/
// when it exists, then ~/.thoughtstream/.
func (m *Manager) Target(overrideDir string) (string, error) {
	dir, err := m.resolve(overrideDir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating thoughtstream directory %s: %w", dir, err)
	}
	return filepath.Abs(dir)
}

func (m *Manager) resolve(overrideDir string) (string, error) {
	if overrideDir != "" {
		return overrideDir, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	if local := filepath.Join(cwd, DirName); isDir(local) {
		return local, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
