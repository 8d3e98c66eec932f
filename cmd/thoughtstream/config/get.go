package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"
)

const getLongDesc string = `Get a configuration value.

Reads the value for the given key from config.toml in the .thoughtstream/
directory, falling back to the default.

Examples:
  thoughtstream config get provider.model
  thoughtstream config get relay.allowed_origins`

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "get <key>",
		Short:             "Get a configuration value",
		Long:              getLongDesc,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			cfger, err := openConfig(cmd, key)
			if err != nil {
				return err
			}

			value, err := cfger.GetConfigValue(key)
			if err != nil {
				return err
			}

			printValue(cmd.OutOrStdout(), key, value, len(key))
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}
