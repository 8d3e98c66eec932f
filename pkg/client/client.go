// Package client talks to a thoughtstream relay: streamed generations,
// parallel takes on one idea, follow-up suggestions and status checks.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/papercomputeco/thoughtstream/pkg/llm"
	"github.com/papercomputeco/thoughtstream/pkg/logger"
	"github.com/papercomputeco/thoughtstream/pkg/prompt"
	"github.com/papercomputeco/thoughtstream/pkg/stream"
)

const (
	generatePath = "/api/llm"
	statusPath   = "/api/llm/status"
	personasPath = "/api/personas"

	// maxReplyBody bounds non-streamed relay replies.
	maxReplyBody = 8 * 1024 * 1024

	defaultTimeout = 5 * time.Minute
)

// ErrNoRelayTarget is returned by New when no relay URL is configured.
var ErrNoRelayTarget = errors.New("relay target is required")

// Config configures a Client.
type Config struct {
	// RelayTarget is the relay base URL (e.g., "http://localhost:8787").
	RelayTarget string

	// HTTPClient is used for every request. Defaults to a client with a
	// 5 minute timeout.
	HTTPClient *http.Client

	// SimulateTyping replays non-streamed replies through the typing
	// simulator instead of delivering them in one fragment.
	SimulateTyping bool

	// FragmentSize is the simulator fragment size in characters.
	FragmentSize int

	// Simulator overrides the default typing simulator.
	Simulator *stream.Simulator

	// Metrics receives stream assembler diagnostics.
	Metrics stream.Metrics

	// MaxParallel caps concurrent takes. Zero means one goroutine per take.
	MaxParallel int

	Logger *slog.Logger
}

// Client is a relay client. It is safe for concurrent use.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	assembler      *stream.Assembler
	simulator      *stream.Simulator
	simulateTyping bool
	fragmentSize   int
	maxParallel    int
	logger         *slog.Logger
}

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	target := strings.TrimRight(strings.TrimSpace(cfg.RelayTarget), "/")
	if target == "" {
		return nil, ErrNoRelayTarget
	}
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parsing relay target: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("relay target %q must be an http or https URL", target)
	}

	c := &Client{
		baseURL:        target,
		httpClient:     cfg.HTTPClient,
		simulator:      cfg.Simulator,
		simulateTyping: cfg.SimulateTyping,
		fragmentSize:   cfg.FragmentSize,
		maxParallel:    cfg.MaxParallel,
		logger:         cfg.Logger,
	}
	if c.logger == nil {
		c.logger = logger.Nop()
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			// LLM responses can be slow
			Timeout: defaultTimeout,
		}
	}
	if c.simulator == nil {
		c.simulator = stream.NewSimulator()
	}
	if c.fragmentSize <= 0 {
		c.fragmentSize = stream.DefaultFragmentSize
	}
	c.assembler = stream.NewAssembler(&stream.Config{
		Logger:  c.logger,
		Metrics: cfg.Metrics,
	})

	return c, nil
}

// Generate requests a streamed generation and reports every fragment to
// obs. A relay that answers with an event stream is assembled as it
// arrives; a JSON reply is either replayed through the typing simulator or
// delivered as a single fragment. Relay and provider failures are returned
// as *llm.UpstreamError.
func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest, obs stream.Observer) (string, error) {
	req.Stream = true

	resp, err := c.post(ctx, req)
	if err != nil {
		return "", err
	}

	if resp.StatusCode == http.StatusOK && isEventStream(resp.Header.Get("Content-Type")) {
		c.logger.Debug("assembling relay stream", "content_type", req.ContentType)
		return c.assembler.Run(ctx, resp.Body, obs)
	}

	text, err := readReply(resp)
	if err != nil {
		return "", err
	}

	if c.simulateTyping {
		return c.simulator.Run(ctx, text, c.fragmentSize, obs)
	}
	if obs != nil {
		if err := obs.OnFragment(text, text); err != nil {
			return text, err
		}
	}
	return text, nil
}

// Complete requests a non-streamed generation.
func (c *Client) Complete(ctx context.Context, req llm.GenerateRequest) (string, error) {
	req.Stream = false

	resp, err := c.post(ctx, req)
	if err != nil {
		return "", err
	}

	return readReply(resp)
}

// Status reports whether the relay answers its status endpoint with 200.
func (c *Client) Status(ctx context.Context) bool {
	resp, err := c.get(ctx, statusPath)
	if err != nil {
		c.logger.Debug("relay status check failed", "error", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

// StatusReport fetches the relay's configuration report.
func (c *Client) StatusReport(ctx context.Context) (*llm.StatusResponse, error) {
	resp, err := c.get(ctx, statusPath)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &llm.UpstreamError{Message: "status check failed", StatusCode: resp.StatusCode}
	}

	var report llm.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("decoding status: %w", err)
	}
	return &report, nil
}

// Personas lists the personas the relay knows.
func (c *Client) Personas(ctx context.Context) ([]prompt.Persona, error) {
	resp, err := c.get(ctx, personasPath)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &llm.UpstreamError{Message: "listing personas failed", StatusCode: resp.StatusCode}
	}

	var personas []prompt.Persona
	if err := json.NewDecoder(resp.Body).Decode(&personas); err != nil {
		return nil, fmt.Errorf("decoding personas: %w", err)
	}
	return personas, nil
}

func (c *Client) post(ctx context.Context, req llm.GenerateRequest) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.Stream {
		httpReq.Header.Set("Accept", "text/event-stream, application/json")
	} else {
		httpReq.Header.Set("Accept", "application/json")
	}

	c.logger.Debug("sending generation request",
		"relay_target", c.baseURL,
		"content_type", req.ContentType,
		"persona", req.PersonaID,
		"stream", req.Stream,
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request to relay: %w", err)
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Cache-Control", "no-store")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request to relay: %w", err)
	}
	return resp, nil
}

// readReply decodes a JSON relay reply and closes its body. The error field
// may be a bare string (relay) or an object (provider passthrough).
func readReply(resp *http.Response) (string, error) {
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBody))
	if err != nil {
		return "", fmt.Errorf("reading relay reply: %w", err)
	}

	var reply llm.ChatResponse
	if err := json.Unmarshal(raw, &reply); err != nil {
		if resp.StatusCode != http.StatusOK {
			msg := strings.TrimSpace(string(raw))
			if msg == "" {
				msg = http.StatusText(resp.StatusCode)
			}
			return "", &llm.UpstreamError{Message: msg, StatusCode: resp.StatusCode}
		}
		return "", fmt.Errorf("decoding relay reply: %w", err)
	}

	if msg, ok := reply.ErrorMessage(); ok {
		return "", &llm.UpstreamError{Message: msg, StatusCode: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &llm.UpstreamError{Message: http.StatusText(resp.StatusCode), StatusCode: resp.StatusCode}
	}

	return reply.Text(), nil
}

func isEventStream(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "text/event-stream"
}
