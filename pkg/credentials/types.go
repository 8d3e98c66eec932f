package credentials

import (
	"maps"
	"slices"
	"time"
)

// Credentials is the content of credentials.toml.
type Credentials struct {
	Version   int                           `toml:"version"`
	Providers map[string]ProviderCredential `toml:"providers"`
}

// ProviderCredential is one stored provider key.
type ProviderCredential struct {
	APIKey  string    `toml:"api_key"`
	SavedAt time.Time `toml:"saved_at,omitzero"`
}

// Names returns the providers with a stored key, sorted.
func (c *Credentials) Names() []string {
	return slices.Sorted(maps.Keys(c.Providers))
}

// provider describes a provider that authenticates with a bearer key.
type provider struct {
	name   string
	envVar string
}

// providers is ordered the way the CLI lists them.
var providers = []provider{
	{name: "openai", envVar: "OPENAI_API_KEY"},
	{name: "openrouter", envVar: "OPENROUTER_API_KEY"},
	{name: "ollama", envVar: "OLLAMA_API_KEY"},
}
