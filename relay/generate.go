package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/papercomputeco/thoughtstream/pkg/eventstream"
	"github.com/papercomputeco/thoughtstream/pkg/llm"
	"github.com/papercomputeco/thoughtstream/pkg/stream"
	"github.com/papercomputeco/thoughtstream/relay/header"
	"github.com/papercomputeco/thoughtstream/relay/worker"
)

const (
	// maxErrorBody bounds how much of a failed provider reply is read.
	maxErrorBody = 64 * 1024

	// maxCompletionBody bounds a non-streamed provider reply.
	maxCompletionBody = 8 * 1024 * 1024

	// maxErrorMessage bounds a plain-text provider error echoed to clients.
	maxErrorMessage = 512
)

var errClientGone = errors.New("client stopped reading")

// handleGenerate validates the inbound request, renders the provider body
// and relays the reply.
func (r *Relay) handleGenerate(c *fiber.Ctx) error {
	startTime := time.Now()
	requestID := uuid.NewString()
	c.Set(header.RequestIDHeader, requestID)

	var in llm.GenerateRequest
	if err := json.Unmarshal(c.Body(), &in); err != nil {
		r.logger.Debug("rejecting malformed request body", "request_id", requestID, "error", err)
		return r.writeError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(in.Text) == "" {
		return r.writeError(c, fiber.StatusBadRequest, "text is required")
	}
	if r.config.APIKey == "" {
		return r.writeError(c, fiber.StatusInternalServerError, "API key not configured")
	}

	chatReq := r.catalog.BuildRequest(in.Text, in.ContentType, in.PersonaID, in.Stream)
	meta := eventstream.GenerationMeta{
		RequestID:   requestID,
		ContentType: in.ContentType,
		PersonaID:   in.PersonaID,
		Model:       chatReq.Model,
		Streaming:   in.Stream,
		StartedAt:   startTime,
	}

	r.logger.Debug("relaying generation",
		"request_id", requestID,
		"content_type", in.ContentType,
		"persona", in.PersonaID,
		"stream", in.Stream,
	)

	if in.Stream {
		return r.handleStreamingGenerate(c, chatReq, meta)
	}
	return r.handleNonStreamingGenerate(c, chatReq, meta)
}

// handleNonStreamingGenerate relays a complete provider reply.
func (r *Relay) handleNonStreamingGenerate(c *fiber.Ctx, chatReq llm.ChatRequest, meta eventstream.GenerationMeta) error {
	httpReq, err := r.newUpstreamRequest(c.Context(), chatReq)
	if err != nil {
		r.logger.Error("failed to create upstream request", "error", err)
		return r.writeError(c, fiber.StatusInternalServerError, "internal error")
	}
	r.headerHandler.SetUpstreamRequestHeaders(c, httpReq, r.config.APIKey, false)

	httpResp, err := r.httpClient.Do(httpReq)
	if err != nil {
		r.logger.Error("upstream request failed", "request_id", meta.RequestID, "error", err)
		r.enqueue(meta, fiber.StatusBadGateway, eventstream.GenerationStat{Error: err.Error()})
		return r.writeError(c, fiber.StatusBadGateway, "upstream request failed")
	}
	defer httpResp.Body.Close()

	if !isSuccess(httpResp.StatusCode) {
		upErr := upstreamFailure(httpResp)
		r.logger.Warn("upstream returned error", "request_id", meta.RequestID, "status", upErr.StatusCode, "message", upErr.Message)
		r.enqueue(meta, upErr.StatusCode, eventstream.GenerationStat{Error: upErr.Message})
		return r.writeError(c, upErr.StatusCode, upErr.Message)
	}

	return r.relayCompletion(c, httpResp, meta)
}

// relayCompletion sends a complete provider reply to the client. An error
// object delivered with a 2xx status becomes a 500.
func (r *Relay) relayCompletion(c *fiber.Ctx, httpResp *http.Response, meta eventstream.GenerationMeta) error {
	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxCompletionBody))
	if err != nil {
		r.logger.Error("failed to read upstream response", "request_id", meta.RequestID, "error", err)
		r.enqueue(meta, fiber.StatusBadGateway, eventstream.GenerationStat{Error: err.Error()})
		return r.writeError(c, fiber.StatusBadGateway, "failed to read upstream response")
	}

	var parsed llm.ChatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		r.logger.Warn("upstream reply is not JSON", "request_id", meta.RequestID, "error", err)
	} else if msg, ok := parsed.ErrorMessage(); ok {
		r.enqueue(meta, fiber.StatusInternalServerError, eventstream.GenerationStat{Error: msg})
		return r.writeError(c, fiber.StatusInternalServerError, msg)
	}

	r.enqueue(meta, httpResp.StatusCode, eventstream.GenerationStat{Characters: len([]rune(parsed.Text()))})

	r.headerHandler.SetClientResponseHeaders(c, httpResp)
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(httpResp.StatusCode).Send(respBody)
}

// handleStreamingGenerate relays the provider's event stream. Nothing is
// written to the client until the provider status is known.
func (r *Relay) handleStreamingGenerate(c *fiber.Ctx, chatReq llm.ChatRequest, meta eventstream.GenerationMeta) error {
	// Use a context detached from c.Context(): fasthttp recycles its
	// RequestCtx once the handler returns, while the body keeps streaming
	// from another goroutine.
	ctx, stop := r.newStreamContext()
	cancel := func() { stop(nil) }

	httpReq, err := r.newUpstreamRequest(ctx, chatReq)
	if err != nil {
		cancel()
		r.logger.Error("failed to create upstream request", "error", err)
		return r.writeError(c, fiber.StatusInternalServerError, "internal error")
	}
	r.headerHandler.SetUpstreamRequestHeaders(c, httpReq, r.config.APIKey, true)

	httpResp, err := r.httpClient.Do(httpReq)
	if err != nil {
		cancel()
		r.logger.Error("upstream request failed", "request_id", meta.RequestID, "error", err)
		r.enqueue(meta, fiber.StatusBadGateway, eventstream.GenerationStat{Error: err.Error()})
		return r.writeError(c, fiber.StatusBadGateway, "upstream request failed")
	}

	if !isSuccess(httpResp.StatusCode) {
		upErr := upstreamFailure(httpResp)
		httpResp.Body.Close()
		cancel()
		r.logger.Warn("upstream returned error", "request_id", meta.RequestID, "status", upErr.StatusCode, "message", upErr.Message)
		r.enqueue(meta, upErr.StatusCode, eventstream.GenerationStat{Error: upErr.Message})
		return r.writeError(c, upErr.StatusCode, upErr.Message)
	}

	if !isEventStream(httpResp.Header.Get(fiber.HeaderContentType)) {
		// The provider ignored stream:true. Its complete reply goes out as
		// one JSON body so clients fall back to simulated typing.
		defer cancel()
		defer httpResp.Body.Close()
		r.logger.Debug("provider sent a complete reply to a stream request",
			"request_id", meta.RequestID,
			"content_type", httpResp.Header.Get(fiber.HeaderContentType),
		)
		meta.Streaming = false
		return r.relayCompletion(c, httpResp, meta)
	}

	r.headerHandler.SetClientResponseHeaders(c, httpResp)
	r.headerHandler.SetStreamingHeaders(c)

	// io.Pipe gives per-chunk backpressure: pw.Write blocks until fasthttp's
	// chunked writer has consumed the bytes and flushed them to the socket.
	pr, pw := io.Pipe()
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		defer cancel()
		r.relayStream(ctx, httpResp, pw, meta)
	}()

	// Unknown size (-1) selects chunked transfer encoding.
	c.Context().Response.SetBodyStream(&streamBody{PipeReader: pr, stop: stop}, -1)

	return nil
}

// newStreamContext returns the context one relayed stream runs under. It
// ends at the upstream timeout, when the relay closes, or when stop is
// called; context.Cause reports which.
func (r *Relay) newStreamContext() (context.Context, func(cause error)) {
	ctx, cancelCause := context.WithCancelCause(r.streams)
	ctx, cancelTimeout := context.WithTimeout(ctx, r.config.UpstreamTimeout)
	return ctx, func(cause error) {
		cancelCause(cause)
		cancelTimeout()
	}
}

// relayStream forwards every chunk read from the provider to pw before the
// assembler decodes it, so the client receives the provider bytes
// unchanged while the relay still observes the text.
func (r *Relay) relayStream(ctx context.Context, httpResp *http.Response, pw *io.PipeWriter, meta eventstream.GenerationMeta) {
	defer httpResp.Body.Close()

	// A cancelled stream may be parked in pw.Write behind a slow client.
	unpark := context.AfterFunc(ctx, func() {
		_ = pw.CloseWithError(context.Cause(ctx))
	})
	defer unpark()

	counters := &stream.Counters{}
	assembler := r.assembler.WithMetrics(counters)

	src := &forwardingBody{body: httpResp.Body, pw: pw}
	text, err := assembler.Run(ctx, src, nil)
	if err == nil {
		// Anything after the terminal frame still belongs to the client.
		_, err = io.Copy(pw, httpResp.Body)
	}

	snap := counters.Snapshot()
	stat := eventstream.GenerationStat{
		Characters: len([]rune(text)),
		Frames:     snap.Frames,
		Fragments:  snap.Fragments,
		Malformed:  snap.Malformed,
		Incomplete: snap.Incomplete,
	}

	cause := context.Cause(ctx)
	switch {
	case err == nil:
		_ = pw.Close()
		r.logger.Debug("streaming complete",
			"request_id", meta.RequestID,
			"fragments", snap.Fragments,
			"duration", time.Since(meta.StartedAt),
		)
	case errors.Is(cause, errRelayClosing):
		_ = pw.CloseWithError(err)
		stat.Error = errRelayClosing.Error()
		r.logger.Warn("stream cancelled by shutdown", "request_id", meta.RequestID)
	case errors.Is(err, errClientGone), errors.Is(cause, errClientGone):
		_ = pw.CloseWithError(err)
		stat.Error = errClientGone.Error()
		r.logger.Info("client disconnected mid-stream", "request_id", meta.RequestID)
	default:
		// Aborting the pipe makes fasthttp drop the connection instead of
		// terminating the chunked body, so the client sees a failure rather
		// than a silently truncated answer.
		_ = pw.CloseWithError(err)
		stat.Error = err.Error()
		r.logger.Error("upstream stream failed", "request_id", meta.RequestID, "error", err)
	}

	r.enqueue(meta, httpResp.StatusCode, stat)
}

// Complete runs a non-streamed generation and returns its text. Provider
// failures are returned as *llm.UpstreamError.
func (r *Relay) Complete(ctx context.Context, in llm.GenerateRequest) (string, error) {
	if strings.TrimSpace(in.Text) == "" {
		return "", &llm.UpstreamError{Message: "text is required", StatusCode: http.StatusBadRequest}
	}
	if r.config.APIKey == "" {
		return "", &llm.UpstreamError{Message: "API key not configured", StatusCode: http.StatusInternalServerError}
	}

	chatReq := r.catalog.BuildRequest(in.Text, in.ContentType, in.PersonaID, false)
	httpReq, err := r.newUpstreamRequest(ctx, chatReq)
	if err != nil {
		return "", err
	}
	r.headerHandler.SetProviderHeaders(httpReq, r.config.APIKey, false)

	httpResp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("upstream request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if !isSuccess(httpResp.StatusCode) {
		return "", upstreamFailure(httpResp)
	}

	var parsed llm.ChatResponse
	if err := json.NewDecoder(io.LimitReader(httpResp.Body, maxCompletionBody)).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding upstream response: %w", err)
	}
	if msg, ok := parsed.ErrorMessage(); ok {
		return "", &llm.UpstreamError{Message: msg, StatusCode: http.StatusInternalServerError}
	}

	return parsed.Text(), nil
}

func (r *Relay) newUpstreamRequest(ctx context.Context, chatReq llm.ChatRequest) (*http.Request, error) {
	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("encoding provider request: %w", err)
	}

	return http.NewRequestWithContext(ctx, http.MethodPost, r.config.UpstreamURL, bytes.NewReader(body))
}

// enqueue stamps the lifecycle fields and hands the event to the pool.
func (r *Relay) enqueue(meta eventstream.GenerationMeta, status int, stat eventstream.GenerationStat) {
	meta.CompletedAt = time.Now()
	meta.DurationMs = meta.CompletedAt.Sub(meta.StartedAt).Milliseconds()
	meta.HTTPStatus = status

	r.workerPool.Enqueue(worker.Job{Event: eventstream.NewGenerationEvent(meta, stat)})
}

// forwardingBody writes each chunk it reads to the client pipe. Closing it
// is a no-op; relayStream owns the provider body.
type forwardingBody struct {
	body io.Reader
	pw   *io.PipeWriter
}

func (f *forwardingBody) Read(p []byte) (int, error) {
	n, err := f.body.Read(p)
	if n > 0 {
		if _, werr := f.pw.Write(p[:n]); werr != nil {
			return 0, fmt.Errorf("%w: %w", errClientGone, werr)
		}
	}
	return n, err
}

func (f *forwardingBody) Close() error {
	return nil
}

// streamBody is the client end of a relayed stream. fasthttp closes it once
// it stops writing the response, which stops the upstream read at once
// instead of on the next provider chunk.
type streamBody struct {
	*io.PipeReader
	stop func(cause error)
}

func (b *streamBody) Close() error {
	return b.CloseWithError(nil)
}

func (b *streamBody) CloseWithError(err error) error {
	cause := errClientGone
	if err != nil {
		cause = fmt.Errorf("%w: %w", errClientGone, err)
	}
	b.stop(cause)
	return b.PipeReader.CloseWithError(err)
}

// isEventStream reports whether a provider reply is an event stream. A
// missing content type is taken as one since a stream was asked for.
func isEventStream(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "text/event-stream"
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// upstreamFailure reads a bounded prefix of a failed provider reply and
// extracts its message.
func upstreamFailure(resp *http.Response) *llm.UpstreamError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &llm.UpstreamError{
		Message:    errorMessage(body, resp.StatusCode),
		StatusCode: resp.StatusCode,
	}
}

func errorMessage(body []byte, status int) string {
	var parsed llm.ChatResponse
	if err := json.Unmarshal(body, &parsed); err == nil {
		if msg, ok := parsed.ErrorMessage(); ok && msg != "" {
			return msg
		}
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return fmt.Sprintf("upstream returned status %d", status)
	}
	if len(text) > maxErrorMessage {
		text = strings.ToValidUTF8(text[:maxErrorMessage], "") + "..."
	}
	return text
}
