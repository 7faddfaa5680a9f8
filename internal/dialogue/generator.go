// Package dialogue produces the avatar's spoken line for a chosen action.
package dialogue

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/easeaico/adaptive-tutor/internal/emotion"
	"github.com/easeaico/adaptive-tutor/internal/prompt"
	"github.com/easeaico/adaptive-tutor/internal/utils"
)

// ErrEmptyDialogue is returned when the model produced no text.
var ErrEmptyDialogue = errors.New("empty dialogue response")

// Generator writes one short encouraging sentence per decision.
type Generator struct {
	model model.LLM
}

// NewGenerator returns a Generator backed by m.
func NewGenerator(m model.LLM) *Generator {
	return &Generator{model: m}
}

// Generate asks the model for the avatar line that accompanies action in state.
func (g *Generator) Generate(ctx context.Context, state emotion.Label, action, userContext string) (string, error) {
	if g == nil || g.model == nil {
		return "", fmt.Errorf("dialogue generator not configured")
	}

	text, err := prompt.BuildDialogue(prompt.DialogueContext{
		State:       string(state),
		Action:      action,
		Guidance:    emotion.Guidance(action),
		UserContext: userContext,
	})
	if err != nil {
		return "", err
	}

	req := &model.LLMRequest{
		Contents: []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		Config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(prompt.DialogueInstruction, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0.7),
			TopP:              genai.Ptr[float32](0.9),
			TopK:              genai.Ptr[float32](40),
			MaxOutputTokens:   100,
			ResponseMIMEType:  "text/plain",
		},
	}

	line, err := utils.GenerateText(ctx, g.model, req)
	if err != nil {
		return "", fmt.Errorf("failed to generate dialogue: %w", err)
	}
	if line == "" {
		return "", ErrEmptyDialogue
	}
	return line, nil
}
