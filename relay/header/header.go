// Package header provides header handling for the thoughtstream relay.
//
// The relay sits between a browser or CLI client and the LLM provider:
//
//	Client <--> Relay <--> Upstream LLM Provider
//
// The relay owns the provider credentials, so client credentials and
// cookies never travel upstream, and each leg negotiates compression and
// hops independently.
package header

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RequestIDHeader carries the relay-assigned request id back to clients.
const RequestIDHeader = "X-Thoughtstream-Request-Id"

// Handler manages headers between relay connections.
type Handler struct{}

// NewHandler creates a new header Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// skipRequest is the set of client request headers that are not forwarded
// to the provider.
var skipRequest = map[string]struct{}{
	"Connection": {},
	"Host":       {},

	// Go's http.Transport adds its own Accept-Encoding and transparently
	// decompresses the upstream response.
	"Accept-Encoding": {},

	// The relay authenticates upstream with its own key.
	"Authorization": {},
	"Cookie":        {},

	// The upstream body is rebuilt from the prompt catalog, so the client's
	// framing headers do not apply.
	"Content-Length": {},
	"Content-Type":   {},
	"Accept":         {},

	"Origin":  {},
	"Referer": {},
}

// skipResponse is the set of upstream response headers that are not copied
// back to the client.
var skipResponse = map[string]struct{}{
	"Connection":        {},
	"Transfer-Encoding": {},

	// The body has already been decompressed by http.Transport.
	"Content-Encoding": {},
	"Content-Length":   {},

	// Provider bookkeeping that should not leak through the relay.
	"Set-Cookie":          {},
	"Openai-Organization": {},
	"Openai-Project":      {},
}

// streamingHeaders are set on every streamed generation response.
var streamingHeaders = [][2]string{
	{fiber.HeaderContentType, "text/event-stream"},
	{fiber.HeaderCacheControl, "no-cache"},
	{fiber.HeaderConnection, "keep-alive"},
	{"X-Accel-Buffering", "no"},
}

// SetUpstreamRequestHeaders copies forwardable client headers onto the
// provider request, then applies SetProviderHeaders.
func (h *Handler) SetUpstreamRequestHeaders(c *fiber.Ctx, req *http.Request, apiKey string, stream bool) {
	c.Request().Header.VisitAll(func(key, value []byte) {
		k := string(key)
		if _, skip := skipRequest[k]; !skip {
			req.Header.Set(k, string(value))
		}
	})

	h.SetProviderHeaders(req, apiKey, stream)
}

// SetProviderHeaders sets the JSON body type, the expected reply type and
// the bearer token.
func (h *Handler) SetProviderHeaders(req *http.Request, apiKey string, stream bool) {
	req.Header.Set("Content-Type", "application/json")
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
}

// SetClientResponseHeaders copies upstream response headers to the client,
// filtering the ones the relay should not forward.
func (h *Handler) SetClientResponseHeaders(c *fiber.Ctx, resp *http.Response) {
	for k, v := range resp.Header {
		if _, skip := skipResponse[k]; !skip {
			c.Set(k, strings.Join(v, ", "))
		}
	}
}

// SetStreamingHeaders marks the response as an uncached, unbuffered event
// stream. It overrides whatever the provider sent for these keys.
func (h *Handler) SetStreamingHeaders(c *fiber.Ctx) {
	for _, kv := range streamingHeaders {
		c.Set(kv[0], kv[1])
	}
}
