package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain", raw: `{"emotion":"Happiness"}`, want: `{"emotion":"Happiness"}`},
		{name: "json fence", raw: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", raw: "```\n{\"a\":{\"b\":2}}\n```", want: `{"a":{"b":2}}`},
		{name: "prose around", raw: "Here you go: {\"a\":1} hope it helps", want: `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSONObjectMissing(t *testing.T) {
	_, err := ExtractJSONObject("no braces here")
	require.ErrorIs(t, err, ErrNoJSONObject)

	_, err = ExtractJSONObject("} backwards {")
	require.ErrorIs(t, err, ErrNoJSONObject)
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		Emotion    string  `json:"emotion"`
		Confidence float64 `json:"confidence"`
	}
	require.NoError(t, DecodeJSON("```json\n{\"emotion\":\"Fear\",\"confidence\":0.75}\n```", &out))
	assert.Equal(t, "Fear", out.Emotion)
	assert.InDelta(t, 0.75, out.Confidence, 1e-9)

	err := DecodeJSON(`{"emotion": }`, &out)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoJSONObject)
}
