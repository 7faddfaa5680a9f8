package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDialogue(t *testing.T) {
	got, err := BuildDialogue(DialogueContext{
		State:       "Sadness",
		Action:      "Provide encouragement",
		Guidance:    "Warm and upbeat.",
		UserContext: "fractions worksheet",
	})
	require.NoError(t, err)
	assert.Contains(t, got, "Emotional state: Sadness\n")
	assert.Contains(t, got, "Recommended action: Provide encouragement")
	assert.Contains(t, got, "Tone: Warm and upbeat.")
	assert.Contains(t, got, "Additional context: fractions worksheet")
}

func TestBuildDialogueOmitsEmptySections(t *testing.T) {
	got, err := BuildDialogue(DialogueContext{State: "Neutral", Action: "Proceed normally"})
	require.NoError(t, err)
	assert.NotContains(t, got, "Tone:")
	assert.NotContains(t, got, "Additional context")
}

func TestBuildDialogueRequiresStateAndAction(t *testing.T) {
	_, err := BuildDialogue(DialogueContext{State: "Neutral"})
	require.Error(t, err)
}
