// Package prompt turns a short idea into a provider request: it owns the
// content-type templates, sampling presets and personas the relay uses.
package prompt

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/papercomputeco/thoughtstream/pkg/llm"
	"github.com/papercomputeco/thoughtstream/pkg/logger"
)

// Config configures a Catalog.
type Config struct {
	// Model sent with every request. Defaults to DefaultModel.
	Model string

	// PersonasFile optionally points at a TOML file whose personas are
	// merged over the built-in set.
	PersonasFile string

	Logger *slog.Logger
}

// Catalog builds provider requests. It is safe for concurrent use; the
// persona set may be swapped by Reload or Watch while requests are built.
type Catalog struct {
	model        string
	personasFile string
	logger       *slog.Logger

	mu       sync.RWMutex
	personas map[string]Persona
}

// NewCatalog returns a catalog with the built-in personas, overlaid with
// cfg.PersonasFile when set.
func NewCatalog(cfg Config) (*Catalog, error) {
	c := &Catalog{
		model:        cfg.Model,
		personasFile: cfg.PersonasFile,
		logger:       cfg.Logger,
		personas:     builtinPersonas(),
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.logger == nil {
		c.logger = logger.Nop()
	}

	if c.personasFile != "" {
		if err := c.Reload(); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Model returns the configured model name.
func (c *Catalog) Model() string {
	return c.model
}

// Reload re-reads the personas file. On error the current set is kept.
func (c *Catalog) Reload() error {
	if c.personasFile == "" {
		return nil
	}

	overrides, err := LoadPersonaFile(c.personasFile)
	if err != nil {
		return err
	}

	merged := builtinPersonas()
	for id, p := range overrides {
		merged[id] = p
	}

	c.mu.Lock()
	c.personas = merged
	c.mu.Unlock()

	c.logger.Debug("personas loaded", "path", c.personasFile, "overrides", len(overrides))
	return nil
}

// Persona looks up a persona by id.
func (c *Catalog) Persona(id string) (Persona, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.personas[id]
	if ok {
		p.ID = id
	}
	return p, ok
}

// Personas lists all personas: built-ins first in their fixed order, then
// file-defined ones sorted by id.
func (c *Catalog) Personas() []Persona {
	c.mu.RLock()
	defer c.mu.RUnlock()

	extra := make([]string, 0, len(c.personas))
	for id := range c.personas {
		if !slices.Contains(builtinOrder, id) {
			extra = append(extra, id)
		}
	}
	slices.Sort(extra)

	out := make([]Persona, 0, len(c.personas))
	for _, id := range append(slices.Clone(builtinOrder), extra...) {
		p := c.personas[id]
		p.ID = id
		out = append(out, p)
	}
	return out
}

// BuildPrompt renders the single user message for text. Unknown content
// types use the default template; unknown or empty persona ids add no
// persona prefix.
func (c *Catalog) BuildPrompt(text, contentType, personaID string) string {
	template, ok := templates[contentType]
	if !ok {
		template = templates[ContentDefault]
	}

	var prefix string
	if personaID != "" {
		if p, ok := c.Persona(personaID); ok {
			prefix = fmt.Sprintf("Respond as if you were %s. %s ", p.Name, p.Instruction)
		}
	}

	format := longFormat
	if contentType == ContentPreview {
		format = previewFormat
	}

	return fmt.Sprintf("%s%s: \"%s\". %s", prefix, template, text, format)
}

// BuildRequest returns the provider request for a generation.
func (c *Catalog) BuildRequest(text, contentType, personaID string, stream bool) llm.ChatRequest {
	preset := PresetFor(contentType)

	return llm.ChatRequest{
		Model:          c.model,
		Messages:       []llm.Message{llm.NewUserMessage(c.BuildPrompt(text, contentType, personaID))},
		Temperature:    preset.Temperature,
		TopP:           preset.TopP,
		MaxTokens:      preset.MaxTokens,
		Stream:         stream,
		ResponseFormat: preset.ResponseFormat,
	}
}
