package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/thoughtstream/pkg/followup"
	"github.com/papercomputeco/thoughtstream/pkg/llm"
	"github.com/papercomputeco/thoughtstream/pkg/prompt"
)

var (
	generateTakeToolName    = "generate_take"
	generateTakeDescription = "Generate a take on a short idea. content_type selects the angle " +
		"(expansion, contrarian, synapse, deeper, preview) and persona_id the voice (e.g. naval, graham, aristotle)."

	relatedThoughtsToolName    = "related_thoughts"
	relatedThoughtsDescription = "Suggest up to four follow-up questions that extend a generated answer."
)

// GenerateTakeInput represents the input arguments for the generate_take tool.
type GenerateTakeInput struct {
	Text        string `json:"text" jsonschema:"the idea to write about"`
	ContentType string `json:"content_type,omitempty" jsonschema:"angle of the take (default: expansion)"`
	PersonaID   string `json:"persona_id,omitempty" jsonschema:"voice to answer in"`
}

// GenerateTakeOutput represents the output of the generate_take tool.
type GenerateTakeOutput struct {
	ContentType string `json:"content_type"`
	PersonaID   string `json:"persona_id,omitempty"`
	Text        string `json:"text"`
}

// RelatedThoughtsInput represents the input arguments for the related_thoughts tool.
type RelatedThoughtsInput struct {
	Content string `json:"content" jsonschema:"the answer to derive follow-ups from"`
}

// RelatedThoughtsOutput represents the output of the related_thoughts tool.
type RelatedThoughtsOutput struct {
	FollowUps []string `json:"follow_ups"`
	Strategy  string   `json:"strategy"`
}

func (s *Server) handleGenerateTake(ctx context.Context, _ *mcp.CallToolRequest, input GenerateTakeInput) (*mcp.CallToolResult, GenerateTakeOutput, error) {
	if strings.TrimSpace(input.Text) == "" {
		return errorResult("text is required"), GenerateTakeOutput{}, nil
	}

	contentType := input.ContentType
	if contentType == "" {
		contentType = prompt.ContentExpansion
	}

	s.config.Logger.Debug("MCP generate_take request",
		"content_type", contentType,
		"persona", input.PersonaID,
	)

	text, err := s.config.Generator.Complete(ctx, llm.GenerateRequest{
		Text:        input.Text,
		ContentType: contentType,
		PersonaID:   input.PersonaID,
	})
	if err != nil {
		s.config.Logger.Error("MCP generate_take failed", "error", err)
		return errorResult(fmt.Sprintf("Generation failed: %v", err)), GenerateTakeOutput{}, nil
	}

	output := GenerateTakeOutput{
		ContentType: contentType,
		PersonaID:   input.PersonaID,
		Text:        text,
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, output, nil
}

func (s *Server) handleRelatedThoughts(ctx context.Context, _ *mcp.CallToolRequest, input RelatedThoughtsInput) (*mcp.CallToolResult, RelatedThoughtsOutput, error) {
	if strings.TrimSpace(input.Content) == "" {
		return &mcp.CallToolResult{}, RelatedThoughtsOutput{FollowUps: []string{}, Strategy: "empty"}, nil
	}

	raw, err := s.config.Generator.Complete(ctx, llm.GenerateRequest{
		Text:        followup.TruncateSource(input.Content),
		ContentType: prompt.ContentRelatedThoughts,
	})
	if err != nil {
		s.config.Logger.Error("MCP related_thoughts failed", "error", err)
		return errorResult(fmt.Sprintf("Generation failed: %v", err)), RelatedThoughtsOutput{}, nil
	}

	items, strategy := followup.ExtractWithStrategy(raw)
	s.config.Logger.Debug("MCP related_thoughts extracted", "strategy", strategy, "count", len(items))

	output := RelatedThoughtsOutput{
		FollowUps: items,
		Strategy:  string(strategy),
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: strings.Join(items, "\n")},
		},
	}, output, nil
}
