// Package authcmder provides the auth command for storing the provider keys
// the relay sends upstream.
package authcmder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/thoughtstream/pkg/cliui"
	"github.com/papercomputeco/thoughtstream/pkg/config"
	"github.com/papercomputeco/thoughtstream/pkg/credentials"
)

const authLongDesc string = `Store the provider API key the relay sends upstream.

thoughtstream serve reads its key from the environment variable named by
relay.api_key_env (OPENAI_API_KEY by default). When that variable is unset
it falls back to the key stored here for the matching provider, so a relay
can run without the key in its environment.

Keys live in credentials.toml in the .thoughtstream/ directory with
owner-only permissions. After storing a key, auth reports whether the
relay will pick it up.

Supported providers: openai, openrouter, ollama

Examples:
  thoughtstream auth openai              Prompt for an OpenAI API key
  echo $KEY | thoughtstream auth openai  Pipe an API key from stdin
  thoughtstream auth --list              Show stored keys and which one the relay uses
  thoughtstream auth --remove openai     Forget the stored OpenAI key`

const authShortDesc string = "Store the provider API key used by the relay"

type authCommander struct {
	out   io.Writer
	in    io.Reader
	creds *credentials.Manager

	// relayEnv is the variable the relay reads its key from.
	relayEnv string
}

func NewAuthCmd() *cobra.Command {
	var (
		listFlag   bool
		removeFlag string
	)

	cmd := &cobra.Command{
		Use:   "auth [provider]",
		Short: authShortDesc,
		Long:  authLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			c, err := newAuthCommander(cmd.OutOrStdout(), cmd.InOrStdin(), configDir)
			if err != nil {
				return err
			}

			switch {
			case listFlag:
				return c.list()
			case removeFlag != "":
				return c.remove(removeFlag)
			case len(args) == 0:
				return fmt.Errorf("provider argument required\n\nSupported providers: %s", supportedList())
			default:
				return c.store(args[0])
			}
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return credentials.SupportedProviders(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	cmd.Flags().BoolVar(&listFlag, "list", false, "Show stored keys and which one the relay uses")
	cmd.Flags().StringVar(&removeFlag, "remove", "", "Forget the stored key for a provider")

	return cmd
}

func newAuthCommander(out io.Writer, in io.Reader, configDir string) (*authCommander, error) {
	creds, err := credentials.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg, err := cfger.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return &authCommander{
		out:      out,
		in:       in,
		creds:    creds,
		relayEnv: cfg.Relay.APIKeyEnv,
	}, nil
}

func (c *authCommander) store(provider string) error {
	provider = normalize(provider)
	if !credentials.IsSupportedProvider(provider) {
		return fmt.Errorf("unsupported provider: %q\n\nSupported providers: %s", provider, supportedList())
	}

	apiKey, err := c.readAPIKey(provider)
	if err != nil {
		return err
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return errors.New("API key cannot be empty")
	}

	if err := c.creds.SetKey(provider, apiKey); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "\n  %s Stored %s key %s\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(provider),
		cliui.DimStyle.Render(maskKey(apiKey)),
	)
	c.reportRelayUse(provider)
	fmt.Fprintln(c.out)
	return nil
}

// reportRelayUse tells whether thoughtstream serve will send the stored
// key for provider upstream.
func (c *authCommander) reportRelayUse(provider string) {
	envVar := credentials.EnvVarForProvider(provider)

	switch {
	case envVar != c.relayEnv:
		fmt.Fprintf(c.out, "  %s The relay reads %s. To use this key run:\n", cliui.WarnStyle.Render("!"), c.relayEnv)
		fmt.Fprintf(c.out, "    thoughtstream config set relay.api_key_env %s\n", envVar)
	case os.Getenv(envVar) != "":
		fmt.Fprintf(c.out, "  %s %s is set in this environment and takes precedence over the stored key.\n",
			cliui.WarnStyle.Render("!"), envVar)
	default:
		fmt.Fprintf(c.out, "  %s thoughtstream serve will send this key upstream %s\n",
			cliui.DimStyle.Render("→"),
			cliui.DimStyle.Render("("+envVar+" is unset)"),
		)
	}
}

func (c *authCommander) list() error {
	creds, err := c.creds.Load()
	if err != nil {
		return err
	}

	if len(creds.Providers) == 0 {
		fmt.Fprintf(c.out, "\n  %s No stored keys.\n", cliui.DimStyle.Render("●"))
		fmt.Fprintf(c.out, "  The relay reads %s; use 'thoughtstream auth <provider>' to store a fallback.\n", c.relayEnv)
		fmt.Fprintf(c.out, "  Supported providers: %s\n\n", supportedList())
		return nil
	}

	fmt.Fprintf(c.out, "\n  %s\n\n", cliui.HeaderStyle.Render("Stored keys"))
	for _, name := range creds.Names() {
		stored := creds.Providers[name]

		line := fmt.Sprintf("  %s  %s  %s", cliui.SuccessMark, cliui.NameStyle.Render(name), maskKey(stored.APIKey))
		if !stored.SavedAt.IsZero() {
			line += cliui.DimStyle.Render("  saved " + stored.SavedAt.Local().Format("2006-01-02"))
		}
		if credentials.EnvVarForProvider(name) == c.relayEnv {
			line += "  " + cliui.WarnStyle.Render("relay")
		}
		fmt.Fprintln(c.out, line)
	}
	fmt.Fprintln(c.out)

	return nil
}

func (c *authCommander) remove(provider string) error {
	provider = normalize(provider)
	if err := c.creds.RemoveKey(provider); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "\n  %s Removed the %s key.\n", cliui.SuccessMark, cliui.NameStyle.Render(provider))
	if credentials.EnvVarForProvider(provider) == c.relayEnv && os.Getenv(c.relayEnv) == "" {
		fmt.Fprintf(c.out, "  %s The relay has no key until %s is set; generations will fail.\n",
			cliui.WarnStyle.Render("!"), c.relayEnv)
	}
	fmt.Fprintln(c.out)

	return nil
}

// readAPIKey prompts with hidden input on a terminal and otherwise reads
// the first line of input.
func (c *authCommander) readAPIKey(provider string) (string, error) {
	if f, ok := c.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(c.out, "%s API key for the relay: ", provider)

		keyBytes, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(c.out)
		if err != nil {
			return "", fmt.Errorf("reading API key: %w", err)
		}
		return string(keyBytes), nil
	}

	scanner := bufio.NewScanner(c.in)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return "", errors.New("no input received on stdin")
}

// maskKey keeps enough of a key to tell stored keys apart.
func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:3] + "..." + key[len(key)-4:]
}

func normalize(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func supportedList() string {
	return strings.Join(credentials.SupportedProviders(), ", ")
}
