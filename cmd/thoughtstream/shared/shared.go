// Package shared holds the wiring every client command repeats: resolving
// the viper chain and building a relay client from it.
package shared

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/thoughtstream/pkg/client"
	"github.com/papercomputeco/thoughtstream/pkg/config"
	"github.com/papercomputeco/thoughtstream/pkg/logger"
)

// ClientFlags are the registry keys shared by commands that talk to a relay.
var ClientFlags = []string{
	config.FlagRelayTarget,
	config.FlagSimulateTyping,
	config.FlagFragmentSize,
}

// AddClientFlags registers ClientFlags on cmd.
func AddClientFlags(cmd *cobra.Command) {
	var (
		relayTarget    string
		simulateTyping bool
		fragmentSize   uint
	)
	config.AddStringFlag(cmd, config.Flags, config.FlagRelayTarget, &relayTarget)
	config.AddBoolFlag(cmd, config.Flags, config.FlagSimulateTyping, &simulateTyping)
	config.AddUintFlag(cmd, config.Flags, config.FlagFragmentSize, &fragmentSize)
}

// Viper resolves the config chain for cmd and binds the given flags into it.
func Viper(cmd *cobra.Command, registryKeys []string) (*viper.Viper, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	config.BindRegisteredFlags(v, cmd, config.Flags, registryKeys)
	return v, nil
}

// Logger returns the CLI logger. Logs go to stderr so they never mix with
// generated text on stdout.
func Logger(cmd *cobra.Command, component string) *slog.Logger {
	debug, _ := cmd.Flags().GetBool("debug")
	return logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(true),
		logger.WithWriter(os.Stderr),
		logger.WithComponent(component),
	)
}

// Client builds a relay client from the resolved config.
func Client(v *viper.Viper, log *slog.Logger) (*client.Client, error) {
	c, err := client.New(client.Config{
		RelayTarget:    v.GetString("client.relay_target"),
		SimulateTyping: v.GetBool("client.simulate_typing"),
		FragmentSize:   v.GetInt("client.fragment_size"),
		Logger:         log,
	})
	if err != nil {
		return nil, fmt.Errorf("creating relay client: %w", err)
	}
	return c, nil
}
