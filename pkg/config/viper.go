package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/thoughtstream/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the THOUGHTSTREAM_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (THOUGHTSTREAM_RELAY_LISTEN, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("THOUGHTSTREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// List reads a list-valued key. Env vars and flags arrive as a single
// comma separated string, the config file as a TOML array.
func List(v *viper.Viper, key string) []string {
	var out []string
	for _, item := range v.GetStringSlice(key) {
		out = append(out, SplitList(item)...)
	}
	return out
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Relay
	v.SetDefault("relay.listen", d.Relay.Listen)
	v.SetDefault("relay.upstream", d.Relay.Upstream)
	v.SetDefault("relay.api_key_env", d.Relay.APIKeyEnv)
	v.SetDefault("relay.personas_file", d.Relay.PersonasFile)
	v.SetDefault("relay.allowed_origins", d.Relay.AllowedOrigins)

	// Provider
	v.SetDefault("provider.model", d.Provider.Model)

	// Client
	v.SetDefault("client.relay_target", d.Client.RelayTarget)
	v.SetDefault("client.simulate_typing", d.Client.SimulateTyping)
	v.SetDefault("client.fragment_size", d.Client.FragmentSize)

	// Event stream
	v.SetDefault("eventstream.provider", d.EventStream.Provider)
	v.SetDefault("eventstream.brokers", d.EventStream.Brokers)
	v.SetDefault("eventstream.topic", d.EventStream.Topic)
}
