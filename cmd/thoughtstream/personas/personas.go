// Package personascmder provides the personas command.
package personascmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/thoughtstream/cmd/thoughtstream/shared"
	"github.com/papercomputeco/thoughtstream/pkg/cliui"
	"github.com/papercomputeco/thoughtstream/pkg/config"
	"github.com/papercomputeco/thoughtstream/pkg/prompt"
)

const personasLongDesc string = `List the personas takes can be written as.

By default the running relay is asked, so personas loaded from its personas
file are included. With --local the built-in personas plus the configured
personas file are listed without contacting a relay.

Examples:
  thoughtstream personas
  thoughtstream personas --local --personas-file ./personas.toml`

const personasShortDesc string = "List available personas"

func NewPersonasCmd() *cobra.Command {
	var (
		local        bool
		personasFile string
	)

	cmd := &cobra.Command{
		Use:   "personas",
		Short: personasShortDesc,
		Long:  personasLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := shared.Viper(cmd, append([]string{config.FlagPersonasFile}, shared.ClientFlags...))
			if err != nil {
				return err
			}
			log := shared.Logger(cmd, "personas")

			var personas []prompt.Persona
			if local {
				catalog, err := prompt.NewCatalog(prompt.Config{
					PersonasFile: v.GetString("relay.personas_file"),
					Logger:       log,
				})
				if err != nil {
					return err
				}
				personas = catalog.Personas()
			} else {
				c, err := shared.Client(v, log)
				if err != nil {
					return err
				}
				personas, err = c.Personas(cmd.Context())
				if err != nil {
					return fmt.Errorf("listing personas from relay: %w", err)
				}
			}

			printPersonas(cmd.OutOrStdout(), personas)
			return nil
		},
	}

	shared.AddClientFlags(cmd)
	config.AddStringFlag(cmd, config.Flags, config.FlagPersonasFile, &personasFile)
	cmd.Flags().BoolVar(&local, "local", false, "List personas without contacting the relay")

	return cmd
}

func printPersonas(out io.Writer, personas []prompt.Persona) {
	if len(personas) == 0 {
		fmt.Fprintf(out, "\n  %s No personas.\n\n", cliui.DimStyle.Render("●"))
		return
	}

	width := 0
	for _, p := range personas {
		width = max(width, len(p.ID))
	}

	fmt.Fprintf(out, "\n  %s\n\n", cliui.HeaderStyle.Render("Personas"))
	for _, p := range personas {
		line := fmt.Sprintf("  %s  %s", cliui.KeyStyle.Render(fmt.Sprintf("%-*s", width, p.ID)), cliui.PersonaStyle(p.Color).Render(p.Name))
		if p.Description != "" {
			line += "  " + cliui.DimStyle.Render(p.Description)
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)
}
