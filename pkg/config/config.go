// Package config manages the persistent thoughtstream configuration and the
// viper precedence chain shared by the CLI commands.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/thoughtstream/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

// orderedKeys lists config keys in TOML section order.
var orderedKeys = []string{
	"relay.listen",
	"relay.upstream",
	"relay.api_key_env",
	"relay.personas_file",
	"relay.allowed_origins",
	"provider.model",
	"client.relay_target",
	"client.simulate_typing",
	"client.fragment_size",
	"eventstream.provider",
	"eventstream.brokers",
	"eventstream.topic",
}

type Configer struct {
	ddm        *dotdir.Manager
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	cfger.ddm = dotdir.NewManager()
	target, err := cfger.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	if target == "" {
		return cfger, nil
	}

	path := filepath.Join(target, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfger.targetPath = path

	return cfger, nil
}

// ValidConfigKeys returns every supported configuration key in TOML
// section order.
func ValidConfigKeys() []string {
	return slices.Clone(orderedKeys)
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads config.toml from the target .thoughtstream/ directory.
// A missing file yields NewDefaultConfig(); fields set in the file override
// the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg from NewDefaultConfig().
// Booleans and lists are left alone: their zero value is a valid choice.
func applyDefaults(cfg *Config) {
	d := NewDefaultConfig()

	fill(&cfg.Version, d.Version)
	fill(&cfg.Relay.Listen, d.Relay.Listen)
	fill(&cfg.Relay.Upstream, d.Relay.Upstream)
	fill(&cfg.Relay.APIKeyEnv, d.Relay.APIKeyEnv)
	fill(&cfg.Provider.Model, d.Provider.Model)
	fill(&cfg.Client.RelayTarget, d.Client.RelayTarget)
	fill(&cfg.Client.FragmentSize, d.Client.FragmentSize)
	fill(&cfg.EventStream.Provider, d.EventStream.Provider)
	fill(&cfg.EventStream.Topic, d.EventStream.Topic)
}

func fill[T comparable](field *T, def T) {
	var zero T
	if *field == zero {
		*field = def
	}
}

// SaveConfig persists the configuration to config.toml in the target
// .thoughtstream/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// PresetConfig returns a Config with sane defaults for the named provider preset.
// Supported presets: "openai", "openrouter", "ollama".
func PresetConfig(name string) (*Config, error) {
	cfg := NewDefaultConfig()

	switch strings.ToLower(name) {
	case "openai":
		return cfg, nil

	case "openrouter":
		cfg.Relay.Upstream = "https://openrouter.ai/api/v1/chat/completions"
		cfg.Relay.APIKeyEnv = "OPENROUTER_API_KEY"
		cfg.Provider.Model = "openai/gpt-4o-mini"
		return cfg, nil

	case "ollama":
		// Ollama's OpenAI-compatible endpoint ignores the bearer token.
		cfg.Relay.Upstream = "http://localhost:11434/v1/chat/completions"
		cfg.Relay.APIKeyEnv = "OLLAMA_API_KEY"
		cfg.Provider.Model = "llama3.2"
		return cfg, nil

	default:
		return nil, fmt.Errorf("unknown preset: %q (available: %s)", name, strings.Join(ValidPresetNames(), ", "))
	}
}

// ValidPresetNames returns the list of recognized preset names.
func ValidPresetNames() []string {
	return []string{"openai", "openrouter", "ollama"}
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, nil
}
