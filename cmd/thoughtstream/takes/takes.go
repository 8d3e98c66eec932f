// Package takescmder provides the takes command: several takes on one idea,
// generated in parallel through the relay.
package takescmder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/thoughtstream/cmd/thoughtstream/shared"
	"github.com/papercomputeco/thoughtstream/pkg/cliui"
	"github.com/papercomputeco/thoughtstream/pkg/client"
	"github.com/papercomputeco/thoughtstream/pkg/prompt"
	"github.com/papercomputeco/thoughtstream/pkg/utils"
)

// defaultTypes are the takes shown for an idea unless --types is given.
var defaultTypes = []string{
	prompt.ContentExpansion,
	prompt.ContentContrarian,
	prompt.ContentSynapse,
	prompt.ContentDeeper,
}

const previewChars = 280

type takesCommander struct {
	personaID string
	types     string
	full      bool
}

const takesLongDesc string = `Generate several takes on an idea in parallel.

Each content type is requested from the relay at the same time. A failing
take is reported on its own and does not stop the others.

Content types: expansion, contrarian, synapse, deeper, preview, default

Examples:
  thoughtstream takes "boredom is a signal"
  thoughtstream takes --persona graham --types contrarian,deeper "boredom is a signal"
  thoughtstream takes --full "boredom is a signal"`

const takesShortDesc string = "Generate several takes on an idea in parallel"

func NewTakesCmd() *cobra.Command {
	cmder := &takesCommander{}

	cmd := &cobra.Command{
		Use:   "takes <text>",
		Short: takesShortDesc,
		Long:  takesLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := shared.Viper(cmd, shared.ClientFlags)
			if err != nil {
				return err
			}

			log := shared.Logger(cmd, "takes")
			c, err := shared.Client(v, log)
			if err != nil {
				return err
			}

			return cmder.run(cmd.Context(), c, strings.Join(args, " "))
		},
	}

	shared.AddClientFlags(cmd)
	cmd.Flags().StringVarP(&cmder.personaID, "persona", "p", "", "Persona to answer as")
	cmd.Flags().StringVarP(&cmder.types, "types", "t", strings.Join(defaultTypes, ","), "Comma separated content types")
	cmd.Flags().BoolVar(&cmder.full, "full", false, "Print takes in full instead of a preview")

	return cmd
}

func (c *takesCommander) run(ctx context.Context, rc *client.Client, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("text is required")
	}

	contentTypes, err := parseTypes(c.types)
	if err != nil {
		return err
	}

	var results []client.TakeResult
	_ = cliui.Step(os.Stderr, fmt.Sprintf("Generating %d takes", len(contentTypes)), func() error {
		results = rc.Takes(ctx, text, c.personaID, contentTypes, nil)
		return firstError(results)
	})

	fmt.Printf("\n  %s %s\n\n", cliui.HeaderStyle.Render("Takes on:"), cliui.NameStyle.Render(fmt.Sprintf("%q", text)))

	failed := 0
	for _, r := range results {
		fmt.Printf("  %s %s\n", cliui.Mark(r.Err), cliui.HeaderStyle.Render(r.ContentType))
		if r.Err != nil {
			failed++
			fmt.Printf("    %s\n\n", cliui.ErrorStyle.Render(r.Err.Error()))
			continue
		}

		body := strings.TrimSpace(r.Text)
		if !c.full {
			body = utils.Truncate(strings.Join(strings.Fields(body), " "), previewChars)
		}
		fmt.Printf("    %s\n\n", cliui.ValueStyle.Render(body))
	}

	if failed == len(results) {
		return errors.New("every take failed")
	}
	return nil
}

func parseTypes(raw string) ([]string, error) {
	known := prompt.ContentTypes()

	var out []string
	for t := range strings.SplitSeq(raw, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if !slices.Contains(known, t) {
			return nil, fmt.Errorf("unknown content type: %q (available: %s)", t, strings.Join(known, ", "))
		}
		out = append(out, t)
	}

	if len(out) == 0 {
		return nil, errors.New("at least one content type is required")
	}
	return out, nil
}

func firstError(results []client.TakeResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}
