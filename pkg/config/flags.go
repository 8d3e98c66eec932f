package config

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --listen
// on both "thoughtstream serve" and the standalone relay binary).
type Flag struct {
	// Name is the long flag name (e.g. "upstream").
	Name string

	// Shorthand is the one-letter short flag (e.g. "u"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "relay.upstream").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag, AddBoolFlag
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagListen         = "listen"
	FlagUpstream       = "upstream"
	FlagAPIKeyEnv      = "api-key-env"
	FlagPersonasFile   = "personas-file"
	FlagAllowedOrigins = "allowed-origins"
	FlagModel          = "model"
	FlagRelayTarget    = "relay-target"
	FlagSimulateTyping = "simulate-typing"
	FlagFragmentSize   = "fragment-size"
	FlagEventProvider  = "eventstream-provider"
	FlagEventBrokers   = "eventstream-brokers"
	FlagEventTopic     = "eventstream-topic"
)

// Flags is the registry shared by every thoughtstream command.
var Flags = FlagSet{
	FlagListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "relay.listen",
		Description: "Address for the relay to listen on",
	},
	FlagUpstream: {
		Name:        "upstream",
		Shorthand:   "u",
		ViperKey:    "relay.upstream",
		Description: "Provider chat completions URL",
	},
	FlagAPIKeyEnv: {
		Name:        "api-key-env",
		ViperKey:    "relay.api_key_env",
		Description: "Environment variable holding the provider API key",
	},
	FlagPersonasFile: {
		Name:        "personas-file",
		ViperKey:    "relay.personas_file",
		Description: "TOML file with extra personas (reloaded on change)",
	},
	FlagAllowedOrigins: {
		Name:        "allowed-origins",
		ViperKey:    "relay.allowed_origins",
		Description: "Comma separated browser origins allowed by CORS",
	},
	FlagModel: {
		Name:        "model",
		Shorthand:   "m",
		ViperKey:    "provider.model",
		Description: "Provider model name",
	},
	FlagRelayTarget: {
		Name:        "relay-target",
		Shorthand:   "r",
		ViperKey:    "client.relay_target",
		Description: "Relay URL",
	},
	FlagSimulateTyping: {
		Name:        "simulate-typing",
		ViperKey:    "client.simulate_typing",
		Description: "Replay non-streamed replies with a typing effect",
	},
	FlagFragmentSize: {
		Name:        "fragment-size",
		ViperKey:    "client.fragment_size",
		Description: "Characters per simulated typing fragment",
	},
	FlagEventProvider: {
		Name:        "eventstream-provider",
		ViperKey:    "eventstream.provider",
		Description: "Generation event publisher (nop, kafka)",
	},
	FlagEventBrokers: {
		Name:        "eventstream-brokers",
		ViperKey:    "eventstream.brokers",
		Description: "Comma separated Kafka brokers",
	},
	FlagEventTopic: {
		Name:        "eventstream-topic",
		ViperKey:    "eventstream.topic",
		Description: "Kafka topic for generation events",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *bool) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddListFlag registers a comma separated list flag on cmd. It is a string
// flag so the value reads the same from the CLI, env and config file.
func AddListFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *string) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	v := viper.New()
	setViperDefaults(v)
	defaultVal := strings.Join(v.GetStringSlice(def.ViperKey), ",")
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}

func defaultBool(viperKey string) bool {
	v := viper.New()
	setViperDefaults(v)
	return v.GetBool(viperKey)
}
