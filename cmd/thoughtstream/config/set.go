package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/thoughtstream/pkg/cliui"
)

const setLongDesc string = `Set a configuration value.

Sets the given key in config.toml in the .thoughtstream/ directory,
creating the file when needed. See "thoughtstream config --help" for the
list of keys.

Examples:
  thoughtstream config set relay.upstream http://localhost:11434/v1/chat/completions
  thoughtstream config set client.simulate_typing true
  thoughtstream config set eventstream.provider kafka`

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "set <key> <value>",
		Short:             "Set a configuration value",
		Long:              setLongDesc,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			cfger, err := openConfig(cmd, key)
			if err != nil {
				return err
			}

			if err := cfger.SetConfigValue(key, value); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "  %s Set %s = %s\n\n",
				cliui.SuccessMark,
				cliui.KeyStyle.Render(key),
				cliui.ValueStyle.Render(value),
			)
			return nil
		},
	}
}
