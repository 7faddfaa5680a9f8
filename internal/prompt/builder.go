// Package prompt assembles the instructions and user prompts sent to the
// language models.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
)

// DialogueContext holds the inputs for an avatar dialogue prompt.
type DialogueContext struct {
	State       string
	Action      string
	Guidance    string
	UserContext string
}

// BuildDialogue renders the user prompt for the avatar line.
func BuildDialogue(ctx DialogueContext) (string, error) {
	if strings.TrimSpace(ctx.State) == "" || strings.TrimSpace(ctx.Action) == "" {
		return "", fmt.Errorf("state and action are required")
	}

	var buf bytes.Buffer
	if err := dialogueTemplate.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("failed to build dialogue prompt: %w", err)
	}
	return buf.String(), nil
}
