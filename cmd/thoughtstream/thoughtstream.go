// Package thoughtstreamcmder is the root thoughtstream command.
package thoughtstreamcmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/thoughtstream/cmd/thoughtstream/auth"
	configcmder "github.com/papercomputeco/thoughtstream/cmd/thoughtstream/config"
	expandcmder "github.com/papercomputeco/thoughtstream/cmd/thoughtstream/expand"
	initcmder "github.com/papercomputeco/thoughtstream/cmd/thoughtstream/init"
	personascmder "github.com/papercomputeco/thoughtstream/cmd/thoughtstream/personas"
	servecmder "github.com/papercomputeco/thoughtstream/cmd/thoughtstream/serve"
	takescmder "github.com/papercomputeco/thoughtstream/cmd/thoughtstream/takes"
	versioncmder "github.com/papercomputeco/thoughtstream/cmd/version"
)

const thoughtstreamLongDesc string = `Thoughtstream turns a short idea into several streamed takes on it.

Run the relay in front of an OpenAI-compatible provider:
  thoughtstream serve

Then explore ideas through it:
  thoughtstream takes "attention is the new currency"
  thoughtstream expand --persona naval "attention is the new currency"
  thoughtstream expand --follow 2`

const thoughtstreamShortDesc string = "Thoughtstream - streamed takes on an idea"

func NewThoughtstreamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "thoughtstream",
		Short:        thoughtstreamShortDesc,
		Long:         thoughtstreamLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .thoughtstream/ config directory")

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(takescmder.NewTakesCmd())
	cmd.AddCommand(expandcmder.NewExpandCmd())
	cmd.AddCommand(personascmder.NewPersonasCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
