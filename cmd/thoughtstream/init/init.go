// Package initcmder provides the init command for initializing a local
// .thoughtstream directory in the current working directory.
package initcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/thoughtstream/pkg/config"
	"github.com/papercomputeco/thoughtstream/pkg/dotdir"
)

const maxRemoteConfig = 1 << 20

const initLongDesc string = `Initialize a new .thoughtstream/ directory in the current working directory.

Creates a local .thoughtstream/ directory that takes precedence over
~/.thoughtstream/ and writes a config.toml into it. An existing config.toml
is left untouched.

--preset selects the starting config: a provider preset (openai, openrouter,
ollama) or an http(s) URL of a config.toml to fetch.

Examples:
  thoughtstream init
  thoughtstream init --preset ollama
  thoughtstream init --preset https://example.com/thoughtstream/config.toml`

const initShortDesc string = "Initialize a local .thoughtstream/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.Context(), cmd.OutOrStdout(), preset)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "", "Provider preset name or URL of a config.toml")

	return cmd
}

func runInit(ctx context.Context, out io.Writer, preset string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dotdir.DirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .thoughtstream directory: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfger.GetTarget()); err == nil {
		fmt.Fprintf(out, "Already initialized: %s\n", dir)
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	cfg, err := resolvePreset(ctx, preset)
	if err != nil {
		return err
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "Initialized .thoughtstream directory: %s\n", dir)
	return nil
}

func resolvePreset(ctx context.Context, preset string) (*config.Config, error) {
	switch {
	case preset == "":
		return config.NewDefaultConfig(), nil
	case strings.HasPrefix(preset, "http://"), strings.HasPrefix(preset, "https://"):
		return fetchConfig(ctx, preset)
	default:
		return config.PresetConfig(preset)
	}
}

func fetchConfig(ctx context.Context, url string) (*config.Config, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching config: server returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteConfig))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return config.ParseConfigTOML(data)
}
