// Package configcmder provides the config command for managing persistent
// thoughtstream configuration stored in the .thoughtstream/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/thoughtstream/pkg/cliui"
	"github.com/papercomputeco/thoughtstream/pkg/config"
)

const configLongDesc string = `Manage persistent thoughtstream configuration.

Configuration is stored as config.toml in the .thoughtstream/ directory and
provides default values for command flags. Flags and THOUGHTSTREAM_*
environment variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  relay.listen, relay.upstream, relay.api_key_env,
  relay.personas_file, relay.allowed_origins,
  provider.model,
  client.relay_target, client.simulate_typing, client.fragment_size,
  eventstream.provider, eventstream.brokers, eventstream.topic

List values are comma separated.

Examples:
  thoughtstream config set provider.model gpt-4o
  thoughtstream config set eventstream.brokers kafka-1:9092,kafka-2:9092
  thoughtstream config get relay.upstream
  thoughtstream config list`

const configShortDesc string = "Manage persistent thoughtstream configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printTarget(out io.Writer, target string) {
	if target == "" {
		fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
		return
	}
	fmt.Fprintf(out, "\n  %s %s\n\n", cliui.KeyStyle.Render("Config file:"), cliui.DimStyle.Render(target))
}

// printValue prints key padded to width followed by value, or a dim
// placeholder when value is empty.
func printValue(out io.Writer, key, value string, width int) {
	rendered := cliui.DimStyle.Render("<not set>")
	if value != "" {
		rendered = cliui.ValueStyle.Render(value)
	}
	fmt.Fprintf(out, "  %s  %s\n", cliui.KeyStyle.Render(fmt.Sprintf("%-*s", width, key)), rendered)
}

// openConfig validates key (when given) and loads the configer for the
// --config-dir flag of cmd.
func openConfig(cmd *cobra.Command, key string) (*config.Configer, error) {
	if key != "" && !config.IsValidConfigKey(key) {
		return nil, unknownKey(key)
	}

	configDir, _ := cmd.Flags().GetString("config-dir")
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	printTarget(cmd.OutOrStdout(), cfger.GetTarget())
	return cfger, nil
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
		key, strings.Join(config.ValidConfigKeys(), ", "))
}
