package prompt

import "github.com/papercomputeco/thoughtstream/pkg/llm"

// Content types understood by the catalog. Anything else is treated as
// ContentDefault.
const (
	ContentExpansion       = "expansion"
	ContentContrarian      = "contrarian"
	ContentSynapse         = "synapse"
	ContentDeeper          = "deeper"
	ContentRelatedThoughts = "relatedThoughts"
	ContentPreview         = "preview"
	ContentDefault         = "default"
)

// Preset names.
const (
	PresetDefault  = "default"
	PresetCreative = "creative"
	PresetPrecise  = "precise"
	PresetPreview  = "preview"
	PresetJSON     = "json"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

const (
	defaultMaxTokens   = 1000
	defaultTemperature = 0.7
	defaultTopP        = 0.95
)

// Preset is a set of sampling parameters.
type Preset struct {
	Temperature    float64
	TopP           float64
	MaxTokens      int
	ResponseFormat *llm.ResponseFormat
}

var presets = map[string]Preset{
	PresetDefault:  {Temperature: defaultTemperature, TopP: defaultTopP, MaxTokens: defaultMaxTokens},
	PresetCreative: {Temperature: 0.9, TopP: 0.95, MaxTokens: defaultMaxTokens},
	PresetPrecise:  {Temperature: 0.3, TopP: 0.7, MaxTokens: defaultMaxTokens},
	PresetPreview:  {Temperature: defaultTemperature, TopP: defaultTopP, MaxTokens: 200},
	PresetJSON: {
		Temperature:    0.3,
		TopP:           0.7,
		MaxTokens:      500,
		ResponseFormat: &llm.ResponseFormat{Type: "json_object"},
	},
}

var contentPresets = map[string]string{
	ContentExpansion:       PresetDefault,
	ContentContrarian:      PresetDefault,
	ContentSynapse:         PresetCreative,
	ContentDeeper:          PresetDefault,
	ContentRelatedThoughts: PresetJSON,
	ContentPreview:         PresetPreview,
}

var templates = map[string]string{
	ContentExpansion: "Expand on this idea with additional depth, implications, or related angles. " +
		"Structure your response with clear headings, bullet points where appropriate, and ensure a logical flow of ideas. " +
		"Include concrete examples or applications where possible.",
	ContentContrarian: "Present a counterintuitive or opposing view to this idea. " +
		"Structure your response with clear headings, supporting evidence, and logical reasoning. " +
		"Challenge the initial premise respectfully but thoroughly.",
	ContentSynapse: "Offer concepts, metaphors, or ideas from different domains that relate to this topic. " +
		"Structure your response to highlight unexpected connections, cross-disciplinary insights, and novel perspectives.",
	ContentDeeper: "Provide a deeper analysis exploring further implications, nuances, and dimensions of this idea. " +
		"Include historical context, potential future implications, and multidisciplinary viewpoints.",
	ContentRelatedThoughts: "Based on this expanded response, generate 4 thoughtful follow-up questions or ideas " +
		"that would naturally extend this conversation. Each should be concise (under 15 words), thought-provoking, " +
		"and directly related to the content. Format your response as a JSON array of strings without any additional text or explanation.",
	ContentPreview: "Generate a brief preview summary of the following idea. Keep it concise and compelling.",
	ContentDefault: "Provide a thoughtful, balanced response to the following idea.",
}

const (
	previewFormat = "Keep it concise and compelling."
	longFormat    = "Write in a clear, engaging style with well-structured paragraphs and thoughtful transitions."
)

// PresetFor returns the preset a content type maps to.
func PresetFor(contentType string) Preset {
	name, ok := contentPresets[contentType]
	if !ok {
		name = PresetDefault
	}
	return presets[name]
}

// ContentTypes lists the known content types, default last.
func ContentTypes() []string {
	return []string{
		ContentExpansion,
		ContentContrarian,
		ContentSynapse,
		ContentDeeper,
		ContentRelatedThoughts,
		ContentPreview,
		ContentDefault,
	}
}
