package relay

import (
	"time"

	"github.com/papercomputeco/thoughtstream/pkg/eventstream"
	"github.com/papercomputeco/thoughtstream/pkg/prompt"
)

// DefaultUpstreamURL is the OpenAI chat completions endpoint.
const DefaultUpstreamURL = "https://api.openai.com/v1/chat/completions"

// Config is the relay server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8787")
	ListenAddr string

	// UpstreamURL is the provider's full chat completions endpoint.
	// Defaults to DefaultUpstreamURL.
	UpstreamURL string

	// APIKey is sent upstream as a bearer token. When empty the relay
	// answers generation requests with a configuration error and reports
	// itself unconfigured on the status endpoint.
	APIKey string

	// Catalog builds provider requests. Defaults to the built-in catalog.
	Catalog *prompt.Catalog

	// Publisher receives a GenerationEvent after every generation.
	// Defaults to the no-op publisher.
	Publisher eventstream.Publisher

	// AllowedOrigins enables CORS for the listed browser origins.
	// Empty disables the CORS middleware.
	AllowedOrigins []string

	// UpstreamTimeout bounds a whole upstream exchange, including the time
	// spent streaming. Defaults to 5 minutes.
	UpstreamTimeout time.Duration

	// ShutdownTimeout is how long Close waits for in-flight requests before
	// cancelling the streams still open. Defaults to 5 seconds.
	ShutdownTimeout time.Duration

	// DisableMCP skips mounting the MCP endpoint.
	DisableMCP bool
}
