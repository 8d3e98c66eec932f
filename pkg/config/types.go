package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent thoughtstream configuration stored as
// config.toml in the .thoughtstream/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Relay       RelayConfig       `toml:"relay"`
	Provider    ProviderConfig    `toml:"provider"`
	Client      ClientConfig      `toml:"client"`
	EventStream EventStreamConfig `toml:"eventstream"`
}

// RelayConfig holds relay server settings.
type RelayConfig struct {
	Listen         string   `toml:"listen,omitempty"`
	Upstream       string   `toml:"upstream,omitempty"`
	APIKeyEnv      string   `toml:"api_key_env,omitempty"`
	PersonasFile   string   `toml:"personas_file,omitempty"`
	AllowedOrigins []string `toml:"allowed_origins,omitempty"`
}

// ProviderConfig holds settings for the chat completions provider behind
// the relay.
type ProviderConfig struct {
	Model string `toml:"model,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to a running
// relay (e.g. thoughtstream takes, thoughtstream expand).
// RelayTarget is a full URL (scheme + host + port).
type ClientConfig struct {
	RelayTarget    string `toml:"relay_target,omitempty"`
	SimulateTyping bool   `toml:"simulate_typing,omitempty"`
	FragmentSize   uint   `toml:"fragment_size,omitempty"`
}

// EventStreamConfig selects where generation events are published.
type EventStreamConfig struct {
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"relay.listen": {
		get: func(c *Config) string { return c.Relay.Listen },
		set: func(c *Config, v string) error { c.Relay.Listen = v; return nil },
	},
	"relay.upstream": {
		get: func(c *Config) string { return c.Relay.Upstream },
		set: func(c *Config, v string) error { c.Relay.Upstream = v; return nil },
	},
	"relay.api_key_env": {
		get: func(c *Config) string { return c.Relay.APIKeyEnv },
		set: func(c *Config, v string) error { c.Relay.APIKeyEnv = v; return nil },
	},
	"relay.personas_file": {
		get: func(c *Config) string { return c.Relay.PersonasFile },
		set: func(c *Config, v string) error { c.Relay.PersonasFile = v; return nil },
	},
	"relay.allowed_origins": {
		get: func(c *Config) string { return strings.Join(c.Relay.AllowedOrigins, ",") },
		set: func(c *Config, v string) error { c.Relay.AllowedOrigins = SplitList(v); return nil },
	},
	"provider.model": {
		get: func(c *Config) string { return c.Provider.Model },
		set: func(c *Config, v string) error { c.Provider.Model = v; return nil },
	},
	"client.relay_target": {
		get: func(c *Config) string { return c.Client.RelayTarget },
		set: func(c *Config, v string) error { c.Client.RelayTarget = v; return nil },
	},
	"client.simulate_typing": {
		get: func(c *Config) string { return strconv.FormatBool(c.Client.SimulateTyping) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for client.simulate_typing: %w", err)
			}
			c.Client.SimulateTyping = b
			return nil
		},
	},
	"client.fragment_size": {
		get: func(c *Config) string {
			if c.Client.FragmentSize == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Client.FragmentSize), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for client.fragment_size: %w", err)
			}
			c.Client.FragmentSize = uint(n)
			return nil
		},
	},
	"eventstream.provider": {
		get: func(c *Config) string { return c.EventStream.Provider },
		set: func(c *Config, v string) error {
			switch v {
			case EventStreamNop, EventStreamKafka:
				c.EventStream.Provider = v
				return nil
			default:
				return fmt.Errorf("invalid value for eventstream.provider: %q (available: %s, %s)", v, EventStreamNop, EventStreamKafka)
			}
		},
	},
	"eventstream.brokers": {
		get: func(c *Config) string { return strings.Join(c.EventStream.Brokers, ",") },
		set: func(c *Config, v string) error { c.EventStream.Brokers = SplitList(v); return nil },
	},
	"eventstream.topic": {
		get: func(c *Config) string { return c.EventStream.Topic },
		set: func(c *Config, v string) error { c.EventStream.Topic = v; return nil },
	},
}

// SplitList splits a comma separated value, dropping blanks.
func SplitList(v string) []string {
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
