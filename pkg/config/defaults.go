package config

const (
	// EventStreamNop discards generation events.
	EventStreamNop = "nop"

	// EventStreamKafka publishes generation events to Kafka.
	EventStreamKafka = "kafka"

	defaultRelayListen    = ":8787"
	defaultRelayUpstream  = "https://api.openai.com/v1/chat/completions"
	defaultAPIKeyEnv      = "OPENAI_API_KEY"
	defaultModel          = "gpt-4o-mini"
	defaultRelayTarget    = "http://localhost:8787"
	defaultFragmentSize   = 3
	defaultEventTopic     = "thoughtstream.generations"
	defaultAllowedOrigins = "http://localhost:3000"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Relay: RelayConfig{
			Listen:         defaultRelayListen,
			Upstream:       defaultRelayUpstream,
			APIKeyEnv:      defaultAPIKeyEnv,
			AllowedOrigins: []string{defaultAllowedOrigins},
		},
		Provider: ProviderConfig{
			Model: defaultModel,
		},
		Client: ClientConfig{
			RelayTarget:  defaultRelayTarget,
			FragmentSize: defaultFragmentSize,
		},
		EventStream: EventStreamConfig{
			Provider: EventStreamNop,
			Topic:    defaultEventTopic,
		},
	}
}
