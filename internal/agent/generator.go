package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/solarflow/solarflow/internal/models"
)

// ResponseGenerator builds a grounding prompt from query, retrieved
// passages, and side-channel notes, and delegates text generation to the
// model collaborator.
type ResponseGenerator struct {
	model ModelClient
	log   zerolog.Logger
}

// NewResponseGenerator creates a generator over a model client.
func NewResponseGenerator(model ModelClient, log zerolog.Logger) *ResponseGenerator {
	return &ResponseGenerator{
		model: model,
		log:   log.With().Str("component", "generator").Logger(),
	}
}

// GenerateResponse produces the user-facing answer. Empty context degrades
// to a best-effort answer rather than an error; history gives the model the
// last few turns for conversational continuity.
func (g *ResponseGenerator) GenerateResponse(ctx context.Context, query string, passages []models.Passage, notes string, history []models.Interaction) (string, error) {
	prompt := g.buildPrompt(query, passages, notes, history)
	response, err := g.model.Text(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	return strings.TrimSpace(response), nil
}

func (g *ResponseGenerator) buildPrompt(query string, passages []models.Passage, notes string, history []models.Interaction) string {
	var b strings.Builder
	b.WriteString("You are a solar energy advisor. Answer the user's question accurately and concisely.\n\n")

	if len(history) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, h := range history {
			fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", h.Query, h.Response)
		}
		b.WriteString("\n")
	}

	if len(passages) > 0 {
		b.WriteString("Reference documents:\n")
		for i, p := range passages {
			fmt.Fprintf(&b, "[%d] %s\n", i+1, p.Text)
		}
		b.WriteString("\nGround your answer in the reference documents where they apply.\n")
	} else {
		b.WriteString("No reference documents matched this question. Answer from general solar energy knowledge and say so when you are unsure.\n")
	}

	if notes != "" {
		fmt.Fprintf(&b, "\nLive numeric context:\n%s\n\nUse these numbers when the question involves current conditions or output estimates.\n", notes)
	}

	fmt.Fprintf(&b, "\nQuestion: %s\n\nAnswer:", query)
	return b.String()
}
