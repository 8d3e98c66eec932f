// Package expandcmder provides the expand command: one streamed take on an
// idea followed by suggested follow-up questions.
package expandcmder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/thoughtstream/cmd/thoughtstream/shared"
	"github.com/papercomputeco/thoughtstream/pkg/cliui"
	"github.com/papercomputeco/thoughtstream/pkg/client"
	"github.com/papercomputeco/thoughtstream/pkg/dotdir"
	"github.com/papercomputeco/thoughtstream/pkg/llm"
	"github.com/papercomputeco/thoughtstream/pkg/prompt"
	"github.com/papercomputeco/thoughtstream/pkg/stream"
)

type expandCommander struct {
	contentType string
	personaID   string
	follow      int
	render      bool
	noFollowUps bool

	configDir string
}

const expandLongDesc string = `Stream one take on an idea, then suggest follow-up questions.

The take is printed as it streams from the relay. With --render the full
take is rendered as markdown once complete instead.

Follow-ups are numbered and remembered in the .thoughtstream/ directory;
"thoughtstream expand --follow N" explores the N-th one next.

Examples:
  thoughtstream expand "cities are compilers for culture"
  thoughtstream expand --type contrarian --persona nietzsche "comfort is progress"
  thoughtstream expand --follow 2
  thoughtstream expand --render --no-follow-ups "why do habits stick"`

const expandShortDesc string = "Stream one take on an idea"

func NewExpandCmd() *cobra.Command {
	cmder := &expandCommander{}

	cmd := &cobra.Command{
		Use:   "expand [text]",
		Short: expandShortDesc,
		Long:  expandLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := shared.Viper(cmd, shared.ClientFlags)
			if err != nil {
				return err
			}

			log := shared.Logger(cmd, "expand")
			c, err := shared.Client(v, log)
			if err != nil {
				return err
			}

			return cmder.run(cmd.Context(), c, strings.Join(args, " "))
		},
	}

	shared.AddClientFlags(cmd)
	cmd.Flags().StringVarP(&cmder.contentType, "type", "t", prompt.ContentExpansion, "Content type of the take")
	cmd.Flags().StringVarP(&cmder.personaID, "persona", "p", "", "Persona to answer as")
	cmd.Flags().IntVarP(&cmder.follow, "follow", "f", 0, "Explore the N-th follow-up of the previous take")
	cmd.Flags().BoolVar(&cmder.render, "render", false, "Render the finished take as markdown")
	cmd.Flags().BoolVar(&cmder.noFollowUps, "no-follow-ups", false, "Skip follow-up suggestions")

	return cmd
}

func (c *expandCommander) run(ctx context.Context, rc *client.Client, text string) error {
	ddm := dotdir.NewManager()

	text, err := c.resolveText(ddm, text)
	if err != nil {
		return err
	}

	req := llm.GenerateRequest{
		Text:        text,
		ContentType: c.contentType,
		PersonaID:   c.personaID,
	}

	fmt.Printf("\n  %s %s\n\n", cliui.HeaderStyle.Render(c.contentType+":"), cliui.NameStyle.Render(fmt.Sprintf("%q", text)))

	var take string
	if c.render {
		err = cliui.Step(os.Stderr, "Generating", func() error {
			take, err = rc.Generate(ctx, req, nil)
			return err
		})
		if err == nil {
			rendered, rerr := cliui.RenderMarkdown(take)
			if rerr != nil {
				rendered = take
			}
			fmt.Println(rendered)
		}
	} else {
		take, err = rc.Generate(ctx, req, stream.ObserverFunc(func(fragment, _ string) error {
			_, werr := fmt.Fprint(os.Stdout, fragment)
			return werr
		}))
		fmt.Print("\n\n")
	}
	if err != nil {
		return fmt.Errorf("generating take: %w", err)
	}

	if c.noFollowUps {
		return nil
	}

	var followUps []string
	_ = cliui.Step(os.Stderr, "Finding follow-ups", func() error {
		var ferr error
		followUps, ferr = rc.RelatedThoughts(ctx, take)
		return ferr
	})
	if len(followUps) == 0 {
		return nil
	}

	fmt.Printf("\n  %s\n", cliui.HeaderStyle.Render("Follow-ups"))
	for i, q := range followUps {
		fmt.Printf("  %s %s\n", cliui.DimStyle.Render(fmt.Sprintf("%d.", i+1)), cliui.ValueStyle.Render(q))
	}
	fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("thoughtstream expand --follow N to explore one"))

	return ddm.SaveThread(&dotdir.ThreadState{
		Text:        text,
		ContentType: c.contentType,
		PersonaID:   c.personaID,
		FollowUps:   followUps,
	}, c.configDir)
}

// resolveText picks the idea to expand: the given text, or a saved
// follow-up when --follow is set.
func (c *expandCommander) resolveText(ddm *dotdir.Manager, text string) (string, error) {
	text = strings.TrimSpace(text)

	if c.follow == 0 {
		if text == "" {
			return "", errors.New("text is required (or use --follow N)")
		}
		return text, nil
	}

	if text != "" {
		return "", errors.New("--follow cannot be combined with text")
	}

	state, err := ddm.LoadThread(c.configDir)
	if err != nil {
		return "", fmt.Errorf("loading thread: %w", err)
	}
	if state == nil {
		return "", errors.New("no previous follow-ups; run expand with text first")
	}

	if c.personaID == "" {
		c.personaID = state.PersonaID
	}
	return state.FollowUp(c.follow)
}
