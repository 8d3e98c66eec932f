// Package relay provides the HTTP relay between thoughtstream clients and
// an OpenAI-compatible chat completions provider.
//
// Clients post a short idea; the relay renders the prompt server-side,
// forwards the provider's event stream back untouched, and decodes a copy
// of it to publish a GenerationEvent off the hot path.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/papercomputeco/thoughtstream/pkg/eventstream/nop"
	"github.com/papercomputeco/thoughtstream/pkg/logger"
	"github.com/papercomputeco/thoughtstream/pkg/prompt"
	"github.com/papercomputeco/thoughtstream/pkg/stream"
	"github.com/papercomputeco/thoughtstream/relay/header"
	relaymcp "github.com/papercomputeco/thoughtstream/relay/mcp"
	"github.com/papercomputeco/thoughtstream/relay/worker"
)

const (
	generatePath = "/api/llm"
	statusPath   = "/api/llm/status"
	personasPath = "/api/personas"
	mcpPath      = "/mcp"

	defaultUpstreamTimeout = 5 * time.Minute
	defaultShutdownTimeout = 5 * time.Second
)

var errRelayClosing = errors.New("relay shutting down")

// Relay forwards generation requests to the provider.
type Relay struct {
	config        Config
	catalog       *prompt.Catalog
	workerPool    *worker.Pool
	assembler     *stream.Assembler
	logger        *slog.Logger
	httpClient    *http.Client
	server        *fiber.App
	headerHandler *header.Handler

	// streams parents every relayed stream; Close cancels it and waits
	// on inflight before draining the worker pool.
	streams     context.Context
	stopStreams context.CancelCauseFunc
	inflight    sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

// New creates a new Relay. Missing optional collaborators are replaced with
// defaults: the built-in prompt catalog and the no-op event publisher.
func New(config Config, log *slog.Logger) (*Relay, error) {
	if log == nil {
		log = logger.Nop()
	}
	if config.UpstreamURL == "" {
		config.UpstreamURL = DefaultUpstreamURL
	}
	if config.UpstreamTimeout <= 0 {
		config.UpstreamTimeout = defaultUpstreamTimeout
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = defaultShutdownTimeout
	}
	if config.Publisher == nil {
		config.Publisher = nop.NewPublisher()
	}

	catalog := config.Catalog
	if catalog == nil {
		var err error
		catalog, err = prompt.NewCatalog(prompt.Config{Logger: log})
		if err != nil {
			return nil, fmt.Errorf("could not create prompt catalog: %w", err)
		}
	}

	wp, err := worker.NewPool(&worker.Config{
		Publisher: config.Publisher,
		Logger:    log,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create worker pool: %w", err)
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if len(config.AllowedOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(config.AllowedOrigins, ","),
			AllowMethods: "GET,POST,OPTIONS",
			AllowHeaders: "Content-Type",
		}))
	}

	// Compressing an event stream would buffer it, so generations are
	// always sent as-is.
	app.Use(compress.New(compress.Config{
		Next: isGeneratePath,
	}))

	streams, stopStreams := context.WithCancelCause(context.Background())
	r := &Relay{
		config:     config,
		catalog:    catalog,
		workerPool: wp,
		assembler: stream.NewAssembler(&stream.Config{
			Logger: log,
		}),
		logger:        log,
		server:        app,
		headerHandler: header.NewHandler(),
		httpClient: &http.Client{
			// Long generations stream for a while
			Timeout: config.UpstreamTimeout,
		},
		streams:     streams,
		stopStreams: stopStreams,
	}

	app.Get("/ping", r.handlePing)
	app.Get(statusPath, r.handleStatus)
	app.Get(personasPath, r.handlePersonas)
	app.Post(generatePath, r.handleGenerate)

	if !config.DisableMCP {
		mcpServer, err := relaymcp.NewServer(relaymcp.Config{
			Generator: r,
			Logger:    log,
		})
		if err != nil {
			stopStreams(nil)
			wp.Close()
			return nil, fmt.Errorf("could not create MCP server: %w", err)
		}
		app.All(mcpPath, adaptor.HTTPHandler(mcpServer.Handler()))
	}

	return r, nil
}

// Run starts the relay server on the configured listening address.
func (r *Relay) Run() error {
	r.logger.Info("starting relay server",
		"listen", r.config.ListenAddr,
		"upstream", r.config.UpstreamURL,
		"configured", r.config.APIKey != "",
	)

	return r.server.Listen(r.config.ListenAddr)
}

// RunWithListener starts the relay server using the provided listener.
func (r *Relay) RunWithListener(listener net.Listener) error {
	r.logger.Info("starting relay server",
		"listen", listener.Addr().String(),
		"upstream", r.config.UpstreamURL,
		"configured", r.config.APIKey != "",
	)

	return r.server.Listener(listener)
}

// Close shuts the server down, then drains the worker pool and closes the
// publisher. Requests still running after ShutdownTimeout have their
// upstream streams cancelled. Only the first call does any work.
func (r *Relay) Close() error {
	r.closeOnce.Do(func() {
		err := r.server.ShutdownWithTimeout(r.config.ShutdownTimeout)
		if errors.Is(err, context.DeadlineExceeded) {
			r.logger.Warn("cancelling in-flight streams", "grace", r.config.ShutdownTimeout)
			err = nil
		}
		r.stopStreams(errRelayClosing)
		r.inflight.Wait()
		r.workerPool.Close()
		r.closeErr = errors.Join(err, r.config.Publisher.Close())
	})
	return r.closeErr
}

// isGeneratePath matches every path fiber routes to the generate handler,
// which ignores case and a trailing slash by default.
func isGeneratePath(c *fiber.Ctx) bool {
	return strings.EqualFold(strings.TrimSuffix(c.Path(), "/"), generatePath)
}
