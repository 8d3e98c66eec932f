package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/thoughtstream/pkg/config"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long:  "List every configuration key with its value from config.toml or the default.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfger, err := openConfig(cmd, "")
			if err != nil {
				return err
			}

			keys := config.ValidConfigKeys()
			width := 0
			for _, k := range keys {
				width = max(width, len(k))
			}

			out := cmd.OutOrStdout()
			for _, key := range keys {
				value, err := cfger.GetConfigValue(key)
				if err != nil {
					return err
				}
				printValue(out, key, value, width)
			}
			fmt.Fprintln(out)

			return nil
		},
	}
}
