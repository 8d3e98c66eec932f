// Package servecmder provides the serve command that runs the relay.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/thoughtstream/cmd/thoughtstream/shared"
	"github.com/papercomputeco/thoughtstream/pkg/config"
	"github.com/papercomputeco/thoughtstream/pkg/credentials"
	"github.com/papercomputeco/thoughtstream/pkg/eventstream"
	"github.com/papercomputeco/thoughtstream/pkg/eventstream/kafka"
	"github.com/papercomputeco/thoughtstream/pkg/eventstream/nop"
	"github.com/papercomputeco/thoughtstream/pkg/logger"
	"github.com/papercomputeco/thoughtstream/pkg/prompt"
	"github.com/papercomputeco/thoughtstream/relay"
)

type serveCommander struct {
	listen         string
	upstream       string
	apiKeyEnv      string
	personasFile   string
	allowedOrigins string
	model          string
	eventProvider  string
	eventBrokers   string
	eventTopic     string
	logJSON        bool
	logFile        string
	disableMCP     bool

	configDir string
	viper     *viper.Viper
	logger    *slog.Logger
}

var serveFlags = []string{
	config.FlagListen,
	config.FlagUpstream,
	config.FlagAPIKeyEnv,
	config.FlagPersonasFile,
	config.FlagAllowedOrigins,
	config.FlagModel,
	config.FlagEventProvider,
	config.FlagEventBrokers,
	config.FlagEventTopic,
}

const serveLongDesc string = `Run the thoughtstream relay.

The relay accepts short ideas, renders the prompt for the requested content
type and persona, and streams the provider's reply back untouched. The
provider API key is read from the environment variable named by
--api-key-env, falling back to a key stored with "thoughtstream auth".

After each generation a summary event is published when an event stream
provider is configured (e.g. --eventstream-provider kafka).

Endpoints:
  POST /api/llm          Generate (streamed or not)
  GET  /api/llm/status   Configuration report
  GET  /api/personas     Available personas
  /mcp                   MCP tools (generate_take, related_thoughts)`

const serveShortDesc string = "Run the thoughtstream relay"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.viper, err = shared.Viper(cmd, serveFlags)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			debug, err := cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			cmder.logger = logger.New(
				logger.WithDebug(debug),
				logger.WithPretty(!cmder.logJSON),
				logger.WithJSON(cmder.logJSON),
				logger.WithComponent("relay"),
			)

			if cmder.logFile != "" {
				f, err := os.OpenFile(cmder.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
				if err != nil {
					return fmt.Errorf("opening log file: %w", err)
				}
				defer f.Close()

				cmder.logger = logger.Multi(cmder.logger, logger.New(
					logger.WithDebug(debug),
					logger.WithWriter(f),
					logger.WithJSON(true),
					logger.WithComponent("relay"),
				))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return cmder.run(ctx)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagUpstream, &cmder.upstream)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIKeyEnv, &cmder.apiKeyEnv)
	config.AddStringFlag(cmd, config.Flags, config.FlagPersonasFile, &cmder.personasFile)
	config.AddListFlag(cmd, config.Flags, config.FlagAllowedOrigins, &cmder.allowedOrigins)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventProvider, &cmder.eventProvider)
	config.AddListFlag(cmd, config.Flags, config.FlagEventBrokers, &cmder.eventBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventTopic, &cmder.eventTopic)
	cmd.Flags().BoolVar(&cmder.logJSON, "log-json", false, "Write logs as JSON")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON logs to this file")
	cmd.Flags().BoolVar(&cmder.disableMCP, "disable-mcp", false, "Do not mount the MCP endpoint")

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	v := c.viper

	apiKey, err := c.resolveAPIKey(v.GetString("relay.api_key_env"))
	if err != nil {
		return err
	}

	catalog, err := prompt.NewCatalog(prompt.Config{
		Model:        v.GetString("provider.model"),
		PersonasFile: v.GetString("relay.personas_file"),
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating prompt catalog: %w", err)
	}

	publisher, err := c.newPublisher()
	if err != nil {
		return err
	}

	r, err := relay.New(relay.Config{
		ListenAddr:     v.GetString("relay.listen"),
		UpstreamURL:    v.GetString("relay.upstream"),
		APIKey:         apiKey,
		Catalog:        catalog,
		Publisher:      publisher,
		AllowedOrigins: config.List(v, "relay.allowed_origins"),
		DisableMCP:     c.disableMCP,
	}, c.logger)
	if err != nil {
		_ = publisher.Close()
		return fmt.Errorf("creating relay: %w", err)
	}

	c.logger.Info("starting relay",
		"listen", v.GetString("relay.listen"),
		"upstream", v.GetString("relay.upstream"),
		"model", catalog.Model(),
		"eventstream", v.GetString("eventstream.provider"),
		"configured", apiKey != "",
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := r.Run(); err != nil {
			return fmt.Errorf("relay error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		c.logger.Info("shutting down relay")
		return r.Close()
	})
	g.Go(func() error {
		err := catalog.Watch(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	return g.Wait()
}

func (c *serveCommander) resolveAPIKey(envVar string) (string, error) {
	mgr, err := credentials.NewManager(c.configDir)
	if err != nil {
		return "", fmt.Errorf("loading credentials: %w", err)
	}

	key, err := mgr.ResolveAPIKey(envVar)
	if err != nil {
		return "", fmt.Errorf("resolving API key: %w", err)
	}
	if key == "" {
		c.logger.Warn("no provider API key configured; generations will fail", "env", envVar)
	}
	return key, nil
}

func (c *serveCommander) newPublisher() (eventstream.Publisher, error) {
	v := c.viper

	switch provider := v.GetString("eventstream.provider"); provider {
	case "", config.EventStreamNop:
		return nop.NewPublisher(), nil

	case config.EventStreamKafka:
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: config.List(v, "eventstream.brokers"),
			Topic:   v.GetString("eventstream.topic"),
			Logger:  c.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		c.logger.Info("publishing generation events", "topic", p.Topic())
		return p, nil

	default:
		return nil, fmt.Errorf("unknown eventstream provider: %q", provider)
	}
}
