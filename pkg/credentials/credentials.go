// Package credentials stores provider API keys in credentials.toml so the
// relay can run without the key exported in its environment.
package credentials

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/thoughtstream/pkg/dotdir"
)

const (
	credentialsFile = "credentials.toml"

	currentVersion = 0
)

// Manager reads and writes credentials.toml in the .thoughtstream/ directory.
type Manager struct {
	path string
	now  func() time.Time
}

// NewManager resolves the .thoughtstream/ directory (override first) and
// returns a Manager for the credentials file inside it.
func NewManager(override string) (*Manager, error) {
	dir, err := dotdir.NewManager().Target(override)
	if err != nil {
		return nil, err
	}

	return &Manager{
		path: filepath.Join(dir, credentialsFile),
		now:  time.Now,
	}, nil
}

// Load reads the credentials file. A missing file yields empty credentials.
func (m *Manager) Load() (*Credentials, error) {
	creds := &Credentials{Version: currentVersion}

	data, err := os.ReadFile(m.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading credentials: %w", err)
	default:
		if err := toml.Unmarshal(data, creds); err != nil {
			return nil, fmt.Errorf("parsing credentials: %w", err)
		}
	}

	if creds.Providers == nil {
		creds.Providers = map[string]ProviderCredential{}
	}
	return creds, nil
}

// Save writes creds with owner-only permissions.
func (m *Manager) Save(creds *Credentials) error {
	if creds == nil {
		return errors.New("cannot save nil credentials")
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(creds); err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	if err := os.WriteFile(m.path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

func (m *Manager) update(fn func(*Credentials)) error {
	creds, err := m.Load()
	if err != nil {
		return err
	}
	fn(creds)
	return m.Save(creds)
}

// SetKey stores key for provider, replacing any previous one.
func (m *Manager) SetKey(provider, key string) error {
	return m.update(func(c *Credentials) {
		c.Providers[provider] = ProviderCredential{APIKey: key, SavedAt: m.now().UTC()}
	})
}

// RemoveKey forgets the key stored for provider.
func (m *Manager) RemoveKey(provider string) error {
	return m.update(func(c *Credentials) {
		delete(c.Providers, provider)
	})
}

// GetKey returns the stored key for provider, or "".
func (m *Manager) GetKey(provider string) (string, error) {
	creds, err := m.Load()
	if err != nil {
		return "", err
	}
	return creds.Providers[provider].APIKey, nil
}

// ListProviders returns the providers with a stored key, sorted by name.
func (m *Manager) ListProviders() ([]string, error) {
	creds, err := m.Load()
	if err != nil {
		return nil, err
	}
	return creds.Names(), nil
}

// ResolveAPIKey returns the value of envVar when set, and otherwise the
// stored key of the provider that reads envVar. "" means no key anywhere.
func (m *Manager) ResolveAPIKey(envVar string) (string, error) {
	if key := os.Getenv(envVar); key != "" {
		return key, nil
	}

	name := ProviderForEnvVar(envVar)
	if name == "" {
		return "", nil
	}
	return m.GetKey(name)
}

// GetTarget returns the path of the credentials file.
func (m *Manager) GetTarget() string {
	return m.path
}

// EnvVarForProvider returns the environment variable a provider's key is
// read from, or "" for unknown providers.
func EnvVarForProvider(name string) string {
	for _, p := range providers {
		if p.name == name {
			return p.envVar
		}
	}
	return ""
}

// ProviderForEnvVar is the inverse of EnvVarForProvider.
func ProviderForEnvVar(envVar string) string {
	for _, p := range providers {
		if p.envVar == envVar {
			return p.name
		}
	}
	return ""
}

// SupportedProviders lists the providers that take an API key.
func SupportedProviders() []string {
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.name
	}
	return names
}

// IsSupportedProvider reports whether name is a supported provider.
func IsSupportedProvider(name string) bool {
	return EnvVarForProvider(name) != ""
}
